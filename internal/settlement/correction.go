package settlement

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/csg33k/jpk-vat/internal/domain"
)

// CorrectionRequest describes a delta against a posted transaction.
type CorrectionRequest struct {
	NetDelta decimal.Decimal
	Reason   string
	Date     time.Time
	// Seq orders corrections of the same original for display only.
	Seq int
}

// Correct builds a delta transaction against original. The rate is frozen at
// the original's value and the delta is posted into the period of the
// correction date, never into the original's period. Each correction is
// computed against the original, not against earlier corrections.
func Correct(original *domain.Transaction, req CorrectionRequest) (*domain.Transaction, error) {
	if original == nil {
		return nil, domain.NewValidation("original", "original transaction is required")
	}
	if original.Status == domain.TransactionSuperseded {
		return nil, domain.NewBusinessRule(domain.ErrInvalidTransition, "transaction %s is superseded", original.ID)
	}
	if req.NetDelta.IsZero() {
		return nil, domain.NewValidation("netDelta", "correction delta must not be zero")
	}
	if strings.TrimSpace(req.Reason) == "" {
		return nil, domain.NewValidation("reason", "correction reason is required")
	}
	if req.Date.IsZero() {
		return nil, domain.NewValidation("date", "correction date is required")
	}

	vatDelta, grossDelta := domain.VATFromNet(req.NetDelta, original.RateValue)

	var cls *domain.Classification
	if original.Classification != nil {
		c := *original.Classification
		c.GTU = append([]string(nil), c.GTU...)
		c.Procedures = append([]string(nil), c.Procedures...)
		cls = &c
	}

	return &domain.Transaction{
		ID:                  uuid.NewString(),
		ClientID:            original.ClientID,
		DocumentNumber:      original.DocumentNumber,
		Type:                original.Type,
		Direction:           original.Direction,
		RateCode:            original.RateCode,
		RateValue:           original.RateValue,
		Net:                 req.NetDelta,
		VAT:                 vatDelta,
		Gross:               grossDelta,
		Date:                req.Date,
		Period:              domain.PeriodOf(req.Date),
		ServiceType:         original.ServiceType,
		RelatedParty:        original.RelatedParty,
		MailOrder:           original.MailOrder,
		Triangular:          original.Triangular,
		Classification:      cls,
		CounterpartyID:      original.CounterpartyID,
		CounterpartyName:    original.CounterpartyName,
		CounterpartyCountry: original.CounterpartyCountry,
		CrossBorder:         original.CrossBorder,
		ForeignVATID:        original.ForeignVATID,
		ForeignVATVerified:  original.ForeignVATVerified,
		CorrectsID:          original.ID,
		CorrectionReason:    req.Reason,
		CorrectionSeq:       req.Seq,
		Status:              domain.TransactionPosted,
	}, nil
}

// Cancel is the full-reversal correction: netDelta = -original.Net.
func Cancel(original *domain.Transaction, reason string, date time.Time, seq int) (*domain.Transaction, error) {
	if original == nil {
		return nil, domain.NewValidation("original", "original transaction is required")
	}
	return Correct(original, CorrectionRequest{NetDelta: original.Net.Neg(), Reason: reason, Date: date, Seq: seq})
}
