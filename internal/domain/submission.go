package domain

import (
	"fmt"
	"time"
)

// SubmissionStatus is the closed set of orchestrator states.
type SubmissionStatus string

const (
	StatusPending    SubmissionStatus = "PENDING"
	StatusUploading  SubmissionStatus = "UPLOADING"
	StatusSubmitted  SubmissionStatus = "SUBMITTED"
	StatusProcessing SubmissionStatus = "PROCESSING"
	StatusAccepted   SubmissionStatus = "ACCEPTED"
	StatusRejected   SubmissionStatus = "REJECTED"
	StatusFailed     SubmissionStatus = "FAILED"
	StatusCancelled  SubmissionStatus = "CANCELLED"
)

// ParseSubmissionStatus validates a raw status string.
func ParseSubmissionStatus(raw string) (SubmissionStatus, error) {
	s := SubmissionStatus(raw)
	if !s.IsValid() {
		return "", fmt.Errorf("%w: unknown submission status %q", ErrInvalidTransition, raw)
	}
	return s, nil
}

func (s SubmissionStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusUploading, StatusSubmitted, StatusProcessing,
		StatusAccepted, StatusRejected, StatusFailed, StatusCancelled:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further transition is possible.
func (s SubmissionStatus) IsTerminal() bool {
	return s == StatusAccepted || s == StatusRejected || s == StatusCancelled
}

// CanTransitionTo reports whether s -> next is a legal edge.
//
//	PENDING    -> UPLOADING | CANCELLED
//	UPLOADING  -> SUBMITTED | FAILED
//	SUBMITTED  -> PROCESSING | FAILED
//	PROCESSING -> PROCESSING | ACCEPTED | REJECTED | FAILED
//	FAILED     -> UPLOADING | PROCESSING | CANCELLED
func (s SubmissionStatus) CanTransitionTo(next SubmissionStatus) bool {
	switch s {
	case StatusPending:
		return next == StatusUploading || next == StatusCancelled
	case StatusUploading:
		return next == StatusSubmitted || next == StatusFailed
	case StatusSubmitted:
		return next == StatusProcessing || next == StatusFailed
	case StatusProcessing:
		return next == StatusProcessing || next == StatusAccepted || next == StatusRejected || next == StatusFailed
	case StatusFailed:
		return next == StatusUploading || next == StatusProcessing || next == StatusCancelled
	default:
		return false
	}
}

func (s SubmissionStatus) String() string { return string(s) }

// Operation names the external call an attempt made.
type Operation string

const (
	OpUpload      Operation = "UPLOAD"
	OpCheckStatus Operation = "CHECK_STATUS"
	OpRetrieveUPO Operation = "RETRIEVE_PROOF"
)

// Attempt is one immutable entry of a submission's attempt log.
type Attempt struct {
	Number    int
	Operation Operation
	StartedAt time.Time
	Duration  time.Duration
	Success   bool
	Request   map[string]string
	Response  map[string]string
	ErrorKind ErrorKind
	Error     string
}

// StatusEvent is one entry of the append-only status history.
type StatusEvent struct {
	From    SubmissionStatus
	To      SubmissionStatus
	At      time.Time
	Source  string
	Code    string
	Message string
}

// Submission drives one declaration document through the authority. Retries
// reuse the same record.
type Submission struct {
	ID              string
	Tenant          TenantID
	ClientID        string
	DocumentID      string
	DocumentDigest  string
	Status          SubmissionStatus
	ReferenceNumber string

	// RetryCount counts attempts after the first one and never decreases.
	RetryCount    int
	NextRetryAt   *time.Time
	ForcedRetry   bool
	LastErrorKind ErrorKind
	LastError     string

	RejectionCode    string
	RejectionMessage string

	ProofPending bool
	ProofLocator string
	ProofDigest  string

	// UploadDeadline is when an UPLOADING submission counts as interrupted.
	UploadDeadline *time.Time
	UploadedAt     *time.Time
	PollDeadline   *time.Time
	NextPollAt     *time.Time
	WebhookSeen    bool

	Attempts []Attempt
	History  []StatusEvent

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Due reports whether the submission has work waiting at now: a pending
// upload, a scheduled retry or poll, or an upload that outlived its
// deadline.
func (s Submission) Due(now time.Time) bool {
	due := func(t *time.Time) bool { return t != nil && !t.After(now) }
	switch s.Status {
	case StatusPending:
		return true
	case StatusUploading:
		return s.UploadDeadline == nil || due(s.UploadDeadline)
	case StatusFailed:
		return due(s.NextRetryAt)
	case StatusSubmitted, StatusProcessing:
		return due(s.NextPollAt)
	default:
		return false
	}
}

// UploadMetadata accompanies the document on upload.
type UploadMetadata struct {
	SubmissionID  string
	FormCode      string
	SchemaVersion string
	Digest        string
	Attempt       int
}

// AuthorityStatus is the raw status the authority reports for a reference.
type AuthorityStatus struct {
	Code        int
	Description string
	Details     string
	Timestamp   time.Time
}

// Proof is the parsed proof-of-receipt (UPO).
type Proof struct {
	ReferenceNumber string
	DocumentDigest  string
	ReceivedAt      time.Time
	OfficeCode      string
	Raw             []byte
}

// SignatureEnvelope is what an external signer returns: signed bytes plus
// the certificate window and the digest it signed.
type SignatureEnvelope struct {
	Signed      []byte
	Digest      string
	CertSubject string
	NotBefore   time.Time
	NotAfter    time.Time
}

// WebhookEventType is the authority push vocabulary.
type WebhookEventType string

const (
	WebhookStatusChanged WebhookEventType = "STATUS_CHANGED"
	WebhookProofReady    WebhookEventType = "PROOF_READY"
	WebhookRejected      WebhookEventType = "REJECTED"
)

// WebhookEvent is a verified authority notification.
type WebhookEvent struct {
	ID              string
	Type            WebhookEventType
	ReferenceNumber string
	StatusCode      int
	Message         string
	OccurredAt      time.Time
}
