// Package rates resolves VAT rate codes against an effective-dated table.
package rates

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/csg33k/jpk-vat/internal/domain"
	"github.com/csg33k/jpk-vat/internal/ports"
)

// Resolver picks the interval of a rate code containing a date. It has no
// side effects and is safe for concurrent use when its table is.
type Resolver struct {
	table ports.RateTable
}

func NewResolver(table ports.RateTable) *Resolver {
	return &Resolver{table: table}
}

// Resolve returns the rate effective for code on asOf. It fails with
// domain.ErrUnknownRateCode when no interval covers the date.
func (r *Resolver) Resolve(code string, asOf time.Time) (domain.RateResolution, error) {
	code = NormalizeCode(code)
	for _, e := range r.table.Entries(code) {
		if e.Covers(asOf) {
			return domain.RateResolution{Code: e.Code, Value: e.Value, RuleSet: e.RuleSet}, nil
		}
	}
	return domain.RateResolution{}, &domain.Error{
		Kind:    domain.KindValidation,
		Code:    "UNKNOWN_RATE_CODE",
		Field:   "rateCode",
		Message: fmt.Sprintf("no rate %q effective on %s", code, asOf.Format(time.DateOnly)),
		Cause:   domain.ErrUnknownRateCode,
	}
}

// NormalizeCode maps the spellings seen on invoices ("23%", "ZW", " np ")
// onto table codes.
func NormalizeCode(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	return strings.TrimSuffix(code, "%")
}

// StaticTable is an in-memory RateTable with non-overlapping intervals per code.
type StaticTable struct {
	entries map[string][]domain.RateEntry
}

// NewStaticTable indexes entries by code and rejects overlapping intervals.
func NewStaticTable(entries []domain.RateEntry) (*StaticTable, error) {
	byCode := make(map[string][]domain.RateEntry)
	for _, e := range entries {
		e.Code = NormalizeCode(e.Code)
		if !e.ValidTo.IsZero() && !e.ValidTo.After(e.ValidFrom) {
			return nil, fmt.Errorf("rate %q: ValidTo %s not after ValidFrom %s", e.Code, e.ValidTo, e.ValidFrom)
		}
		byCode[e.Code] = append(byCode[e.Code], e)
	}
	for code, list := range byCode {
		sort.Slice(list, func(i, j int) bool { return list[i].ValidFrom.Before(list[j].ValidFrom) })
		for i := 1; i < len(list); i++ {
			prev := list[i-1]
			if prev.ValidTo.IsZero() || prev.ValidTo.After(list[i].ValidFrom) {
				return nil, fmt.Errorf("rate %q: interval starting %s overlaps the previous one",
					code, list[i].ValidFrom.Format(time.DateOnly))
			}
		}
	}
	return &StaticTable{entries: byCode}, nil
}

// MustStaticTable panics on overlapping entries. Used for the built-in table.
func MustStaticTable(entries []domain.RateEntry) *StaticTable {
	t, err := NewStaticTable(entries)
	if err != nil {
		panic(err)
	}
	return t
}

func (t *StaticTable) Entries(code string) []domain.RateEntry {
	return t.entries[NormalizeCode(code)]
}

// Codes lists every known code, sorted.
func (t *StaticTable) Codes() []string {
	out := make([]string, 0, len(t.entries))
	for c := range t.entries {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

func day(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

func pct(s string) decimal.Decimal { return decimal.RequireFromString(s).Div(decimal.NewFromInt(100)) }

// Polish VAT rates. The 22/7/3 rates were replaced on 2011-01-01.
var switchover = day(2011, time.January, 1)

// PolishEntries is the built-in rate catalogue.
func PolishEntries() []domain.RateEntry {
	since := day(2004, time.May, 1)
	return []domain.RateEntry{
		{Code: "22", Value: pct("22"), RuleSet: domain.RuleStandard, ValidFrom: since, ValidTo: switchover},
		{Code: "7", Value: pct("7"), RuleSet: domain.RuleReduced, ValidFrom: since, ValidTo: switchover},
		{Code: "3", Value: pct("3"), RuleSet: domain.RuleReduced, ValidFrom: since, ValidTo: switchover},
		{Code: "23", Value: pct("23"), RuleSet: domain.RuleStandard, ValidFrom: switchover},
		{Code: "8", Value: pct("8"), RuleSet: domain.RuleReduced, ValidFrom: switchover},
		{Code: "5", Value: pct("5"), RuleSet: domain.RuleReduced, ValidFrom: since},
		{Code: "0", Value: decimal.Zero, RuleSet: domain.RuleZero, ValidFrom: since},
		{Code: "zw", Value: decimal.Zero, RuleSet: domain.RuleExempt, ValidFrom: since},
		{Code: "np", Value: decimal.Zero, RuleSet: domain.RuleNotSubject, ValidFrom: since},
		{Code: "oo", Value: decimal.Zero, RuleSet: domain.RuleReverseCharge, ValidFrom: since},
	}
}

// Default returns a resolver over the built-in Polish table.
func Default() *Resolver { return NewResolver(MustStaticTable(PolishEntries())) }
