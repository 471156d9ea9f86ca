package templates

import (
	"time"

	"github.com/csg33k/jpk-vat/internal/domain"
)

// when formats an optional timestamp for display.
func when(t any) string {
	switch v := t.(type) {
	case time.Time:
		if v.IsZero() {
			return "-"
		}
		return v.UTC().Format("2006-01-02 15:04:05")
	case *time.Time:
		if v == nil {
			return "-"
		}
		return when(*v)
	}
	return "-"
}

// short trims a digest or id for table cells.
func short(s string) string {
	if len(s) <= 12 {
		return s
	}
	return s[:12] + "…"
}

// badge maps a submission status onto its CSS class.
func badge(s domain.SubmissionStatus) string {
	switch s {
	case domain.StatusAccepted:
		return "ok"
	case domain.StatusRejected, domain.StatusFailed:
		return "bad"
	case domain.StatusCancelled:
		return "muted"
	default:
		return "busy"
	}
}

// canCancel mirrors the orchestrator's cancel rule so the button only shows
// when it can succeed.
func canCancel(s *domain.Submission) bool {
	return s.Status == domain.StatusPending || s.Status == domain.StatusFailed
}
