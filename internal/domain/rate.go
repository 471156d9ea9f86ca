package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// RuleSet groups rate codes that share settlement treatment.
type RuleSet string

const (
	RuleStandard      RuleSet = "STANDARD"
	RuleReduced       RuleSet = "REDUCED"
	RuleZero          RuleSet = "ZERO"
	RuleExempt        RuleSet = "EXEMPT"
	RuleNotSubject    RuleSet = "NOT_SUBJECT"
	RuleReverseCharge RuleSet = "REVERSE_CHARGE"
)

// RateEntry is one validity interval of a rate code. ValidTo is exclusive;
// a zero ValidTo means open-ended.
type RateEntry struct {
	Code      string
	Value     decimal.Decimal
	RuleSet   RuleSet
	ValidFrom time.Time
	ValidTo   time.Time
}

// Covers reports whether at falls inside [ValidFrom, ValidTo).
func (e RateEntry) Covers(at time.Time) bool {
	if at.Before(e.ValidFrom) {
		return false
	}
	return e.ValidTo.IsZero() || at.Before(e.ValidTo)
}

// RateResolution is the result of resolving a code on a date.
type RateResolution struct {
	Code    string
	Value   decimal.Decimal
	RuleSet RuleSet
}
