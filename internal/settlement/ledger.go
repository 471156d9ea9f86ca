package settlement

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/csg33k/jpk-vat/internal/domain"
)

// NewCarryForward opens a balance from a settlement's rolled-forward refund.
// It returns nil when the settlement carried nothing.
func NewCarryForward(s *domain.PeriodSettlement, at time.Time) *domain.CarryForward {
	if !s.RefundCarried.IsPositive() {
		return nil
	}
	return &domain.CarryForward{
		ID:                 uuid.NewString(),
		ClientID:           s.ClientID,
		SourceSettlementID: s.ID,
		SourcePeriod:       s.Period,
		Original:           s.RefundCarried,
		Remaining:          s.RefundCarried,
		Status:             domain.CarryForwardActive,
		CreatedAt:          at,
		UpdatedAt:          at,
	}
}

// Apply records amount against target and moves the status forward. The
// remaining amount never goes negative; a larger amount is rejected.
func Apply(cf *domain.CarryForward, targetID string, target domain.PeriodKey, amount decimal.Decimal, at time.Time) error {
	if !cf.Status.Open() {
		return domain.NewBusinessRule(domain.ErrInvalidTransition, "carry-forward %s is %s", cf.ID, cf.Status)
	}
	if !amount.IsPositive() {
		return domain.NewValidation("amount", "application amount must be positive, got %s", amount)
	}
	if amount.GreaterThan(cf.Remaining) {
		return domain.NewBusinessRule(domain.ErrCarryForwardLimit, "apply %s to %s: only %s remaining", amount, cf.ID, cf.Remaining)
	}
	if !cf.SourcePeriod.Before(target) {
		return domain.NewBusinessRule(domain.ErrInvalidTransition, "carry-forward from %s cannot apply to %s", cf.SourcePeriod, target)
	}

	cf.Remaining = cf.Remaining.Sub(amount)
	cf.Applications = append(cf.Applications, domain.CarryForwardApplication{
		TargetSettlementID: targetID,
		TargetPeriod:       target,
		Amount:             amount,
		AppliedAt:          at,
	})
	if cf.Remaining.IsZero() {
		cf.Status = domain.CarryForwardFullyApplied
	} else {
		cf.Status = domain.CarryForwardPartiallyApplied
	}
	cf.UpdatedAt = at
	return nil
}

// MarkRefunded closes an open balance because it was paid out instead.
func MarkRefunded(cf *domain.CarryForward, at time.Time) error {
	if !cf.Status.Open() {
		return domain.NewBusinessRule(domain.ErrInvalidTransition, "carry-forward %s is %s", cf.ID, cf.Status)
	}
	cf.Status = domain.CarryForwardRefunded
	cf.UpdatedAt = at
	return nil
}

// Expire closes an open balance without applying it.
func Expire(cf *domain.CarryForward, at time.Time) error {
	if !cf.Status.Open() {
		return domain.NewBusinessRule(domain.ErrInvalidTransition, "carry-forward %s is %s", cf.ID, cf.Status)
	}
	cf.Status = domain.CarryForwardExpired
	cf.UpdatedAt = at
	return nil
}

// OpenBalance sums the remaining amount of open balances.
func OpenBalance(list []domain.CarryForward) decimal.Decimal {
	total := decimal.Zero
	for _, cf := range list {
		if cf.Status.Open() {
			total = total.Add(cf.Remaining)
		}
	}
	return total
}

// Allocate spreads consumed over open balances oldest first and returns the
// balances it touched. The caller persists them.
func Allocate(open []domain.CarryForward, consumed decimal.Decimal, targetID string, target domain.PeriodKey, at time.Time) ([]domain.CarryForward, error) {
	if consumed.GreaterThan(OpenBalance(open)) {
		return nil, domain.NewBusinessRule(domain.ErrCarryForwardLimit, "consume %s exceeds open balance %s", consumed, OpenBalance(open))
	}
	left := consumed
	var touched []domain.CarryForward
	for i := range open {
		if !left.IsPositive() {
			break
		}
		cf := open[i]
		if !cf.Status.Open() {
			continue
		}
		amount := decimal.Min(left, cf.Remaining)
		cf.Applications = append([]domain.CarryForwardApplication(nil), cf.Applications...)
		if err := Apply(&cf, targetID, target, amount, at); err != nil {
			return nil, err
		}
		left = left.Sub(amount)
		touched = append(touched, cf)
	}
	return touched, nil
}

// ElectRefundDisposition splits FinalRefund according to the client's
// election. A carry-forward election moves the whole refund into
// RefundCarried.
func ElectRefundDisposition(s *domain.PeriodSettlement, d domain.RefundDisposition) {
	s.RefundCarried = decimal.Zero
	if d == domain.RefundCarryForward && s.FinalRefund.IsPositive() {
		s.RefundCarried = s.FinalRefund
	}
}
