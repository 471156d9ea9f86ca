// Package settlement turns a period's transactions into a settlement and
// computes correction deltas and carry-forward applications.
package settlement

import (
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/csg33k/jpk-vat/internal/domain"
)

// Output-side type categories.
const (
	CategoryOrdinary           = "ORDINARY"
	CategoryIntraEUSupply      = "INTRA_EU_SUPPLY"
	CategoryExport             = "EXPORT"
	CategoryReverseCharge      = "REVERSE_CHARGE"
	CategoryIntraEUAcquisition = "INTRA_EU_ACQUISITION"
	CategoryImport             = "IMPORT"
	CategoryOSS                = "OSS"
	CategoryFixedAsset         = "FIXED_ASSET"
)

// OutputCategory maps a transaction type onto its output sub-total.
func OutputCategory(t domain.TransactionType) string {
	switch t {
	case domain.TypeWDT:
		return CategoryIntraEUSupply
	case domain.TypeExport:
		return CategoryExport
	case domain.TypeReverseCharge:
		return CategoryReverseCharge
	case domain.TypeWNT:
		return CategoryIntraEUAcquisition
	case domain.TypeImport:
		return CategoryImport
	case domain.TypeOSS:
		return CategoryOSS
	default:
		return CategoryOrdinary
	}
}

// InputCategory maps a transaction type onto its input sub-total.
func InputCategory(t domain.TransactionType) string {
	switch t {
	case domain.TypeWNT:
		return CategoryIntraEUAcquisition
	case domain.TypeFixedAsset:
		return CategoryFixedAsset
	case domain.TypeImport:
		return CategoryImport
	default:
		return CategoryOrdinary
	}
}

// Aggregator is a pure function over its inputs; it holds no state and may
// be shared between goroutines.
type Aggregator struct{}

func NewAggregator() *Aggregator { return &Aggregator{} }

// Aggregate accumulates transactions into rate and type buckets, derives
// totals and applies carryForwardIn. It is all-or-nothing: if any
// transaction is unclassified, has no rate, or does not belong to period,
// it returns an error wrapping domain.ErrPeriodNotReady and no settlement.
func (a *Aggregator) Aggregate(period domain.PeriodKey, txs []domain.Transaction, carryForwardIn decimal.Decimal) (*domain.PeriodSettlement, error) {
	if res := domain.ValidatePeriod(period); !res.OK() {
		return nil, res.Err()
	}
	if carryForwardIn.IsNegative() {
		return nil, domain.NewValidation("carryForwardIn", "must not be negative, got %s", carryForwardIn)
	}
	if err := checkReady(period, txs); err != nil {
		return nil, err
	}

	outRate := newAccumulator()
	inRate := newAccumulator()
	outType := newAccumulator()
	inType := newAccumulator()
	ids := make([]string, 0, len(txs))

	for i := range txs {
		t := &txs[i]
		ids = append(ids, t.ID)
		if t.Direction.HasOutput() {
			outRate.add(t.RateCode, t.Net, t.VAT)
			outType.add(OutputCategory(t.Type), t.Net, t.VAT)
		}
		if t.Direction.HasInput() {
			inRate.add(t.RateCode, t.Net, t.VAT)
			inType.add(InputCategory(t.Type), t.Net, t.VAT)
		}
	}

	s := &domain.PeriodSettlement{
		Period:         period,
		Status:         domain.SettlementCalculated,
		OutputByRate:   outRate.buckets(),
		InputByRate:    inRate.buckets(),
		OutputByType:   outType.buckets(),
		InputByType:    inType.buckets(),
		OutputTotal:    outRate.vatTotal(),
		InputTotal:     inRate.vatTotal(),
		CarryForwardIn: carryForwardIn,
		TransactionIDs: ids,
	}
	s.NetPosition = s.OutputTotal.Sub(s.InputTotal)
	applyCarryForward(s)
	return s, nil
}

// applyCarryForward settles the net position against the incoming balance.
// A due position consumes carry-forward up to the due amount; a refund
// position absorbs the whole balance into the refund.
func applyCarryForward(s *domain.PeriodSettlement) {
	cf := s.CarryForwardIn
	if s.NetPosition.IsPositive() {
		due := s.NetPosition
		consumed := decimal.Min(cf, due)
		s.CarryForwardConsumed = consumed
		s.FinalDue = due.Sub(consumed)
		s.FinalRefund = decimal.Zero
		s.CarryForwardOut = cf.Sub(consumed)
		return
	}
	s.CarryForwardConsumed = cf
	s.FinalDue = decimal.Zero
	s.FinalRefund = s.NetPosition.Abs().Add(cf)
	s.CarryForwardOut = decimal.Zero
}

// CheckInvariant verifies finalDue - (finalRefund + carryForwardOut) equals
// outputTotal - inputTotal - carryForwardIn.
func CheckInvariant(s *domain.PeriodSettlement) error {
	left := s.FinalDue.Sub(s.FinalRefund.Add(s.CarryForwardOut))
	right := s.OutputTotal.Sub(s.InputTotal).Sub(s.CarryForwardIn)
	if !left.Equal(right) {
		return fmt.Errorf("settlement invariant broken: %s != %s", left, right)
	}
	if s.CarryForwardOut.GreaterThan(s.CarryForwardIn) {
		return fmt.Errorf("carry-forward out %s exceeds carry-forward in %s", s.CarryForwardOut, s.CarryForwardIn)
	}
	return nil
}

func checkReady(period domain.PeriodKey, txs []domain.Transaction) error {
	var problems []error
	for i := range txs {
		t := &txs[i]
		switch {
		case t.Classification == nil:
			problems = append(problems, fmt.Errorf("transaction %s: classification unresolved", t.ID))
		case t.RateCode == "":
			problems = append(problems, fmt.Errorf("transaction %s: missing rate", t.ID))
		case !period.Contains(t.Period):
			problems = append(problems, fmt.Errorf("transaction %s: period %s outside %s", t.ID, t.Period, period))
		case t.CrossBorder && !t.ForeignVATVerified:
			problems = append(problems, fmt.Errorf("transaction %s: foreign VAT id not verified", t.ID))
		}
	}
	if len(problems) == 0 {
		return nil
	}
	return &domain.Error{
		Kind:    domain.KindValidation,
		Code:    "PERIOD_NOT_READY",
		Field:   "transactions",
		Message: fmt.Sprintf("%d transaction(s) not ready for %s", len(problems), period),
		Cause:   errors.Join(append([]error{domain.ErrPeriodNotReady}, problems...)...),
	}
}

type accumulator struct {
	byKey map[string]*domain.Bucket
}

func newAccumulator() *accumulator { return &accumulator{byKey: map[string]*domain.Bucket{}} }

func (a *accumulator) add(key string, net, vat decimal.Decimal) {
	b, ok := a.byKey[key]
	if !ok {
		b = &domain.Bucket{Key: key, Net: decimal.Zero, VAT: decimal.Zero}
		a.byKey[key] = b
	}
	b.Net = b.Net.Add(net)
	b.VAT = b.VAT.Add(vat)
	b.Count++
}

// buckets returns the buckets sorted by key so equal inputs give equal output.
func (a *accumulator) buckets() []domain.Bucket {
	out := make([]domain.Bucket, 0, len(a.byKey))
	for _, b := range a.byKey {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

func (a *accumulator) vatTotal() decimal.Decimal {
	total := decimal.Zero
	for _, b := range a.byKey {
		total = total.Add(b.VAT)
	}
	return total
}
