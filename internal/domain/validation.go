package domain

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// FieldError is one failed check.
type FieldError struct {
	Field   string
	Code    string
	Message string
}

func (f FieldError) Error() string { return f.Field + ": " + f.Message }

// ValidationResult collects every failed check instead of stopping at the
// first one.
type ValidationResult struct {
	Errors []FieldError
}

func (r *ValidationResult) Add(field, code, format string, args ...any) {
	r.Errors = append(r.Errors, FieldError{Field: field, Code: code, Message: fmt.Sprintf(format, args...)})
}

// Merge appends other's errors, prefixing their fields.
func (r *ValidationResult) Merge(prefix string, other ValidationResult) {
	for _, e := range other.Errors {
		if prefix != "" {
			e.Field = prefix + "." + e.Field
		}
		r.Errors = append(r.Errors, e)
	}
}

func (r ValidationResult) OK() bool { return len(r.Errors) == 0 }

// Err converts the result to a single validation error, or nil when OK.
func (r ValidationResult) Err() error {
	if r.OK() {
		return nil
	}
	errs := make([]error, 0, len(r.Errors))
	for _, e := range r.Errors {
		errs = append(errs, e)
	}
	first := r.Errors[0]
	return &Error{
		Kind:    KindValidation,
		Code:    first.Code,
		Field:   first.Field,
		Message: fmt.Sprintf("%d validation error(s)", len(r.Errors)),
		Cause:   errors.Join(errs...),
	}
}

var nipWeights = [9]int{6, 5, 7, 2, 3, 4, 5, 6, 7}

// ValidateNIP checks the 10-digit Polish tax identifier and its checksum.
// Dashes and spaces are ignored.
func ValidateNIP(nip string) error {
	digits := CleanNIP(nip)
	if len(digits) != 10 {
		return fmt.Errorf("NIP must have 10 digits, got %d", len(digits))
	}
	sum := 0
	for i, w := range nipWeights {
		sum += int(digits[i]-'0') * w
	}
	check := sum % 11
	if check == 10 || check != int(digits[9]-'0') {
		return fmt.Errorf("NIP %s has an invalid checksum", digits)
	}
	return nil
}

// CleanNIP strips everything but digits.
func CleanNIP(nip string) string {
	var b strings.Builder
	for _, r := range nip {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ValidatePeriod checks that exactly one of month/quarter is set and in range.
func ValidatePeriod(p PeriodKey) ValidationResult {
	var res ValidationResult
	if p.Year < 2000 || p.Year > 2100 {
		res.Add("year", "INVALID_YEAR", "year %d out of range", p.Year)
	}
	switch {
	case p.Month != 0 && p.Quarter != 0:
		res.Add("period", "INVALID_PERIOD", "month and quarter are mutually exclusive")
	case p.Month == 0 && p.Quarter == 0:
		res.Add("period", "INVALID_PERIOD", "month or quarter is required")
	case p.Month != 0 && (p.Month < 1 || p.Month > 12):
		res.Add("month", "INVALID_MONTH", "month %d out of range", p.Month)
	case p.Quarter != 0 && (p.Quarter < 1 || p.Quarter > 4):
		res.Add("quarter", "INVALID_QUARTER", "quarter %d out of range", p.Quarter)
	}
	return res
}

// ValidateClientProfile checks the fields the declaration party block needs.
func ValidateClientProfile(c ClientProfile) ValidationResult {
	var res ValidationResult
	if err := ValidateNIP(c.NIP); err != nil {
		res.Add("nip", "INVALID_NIP", "%v", err)
	}
	switch c.Kind {
	case TaxpayerLegalEntity:
		if strings.TrimSpace(c.FullName) == "" {
			res.Add("fullName", "MISSING_NAME", "legal entity requires a full name")
		}
	case TaxpayerNaturalPerson:
		if c.FirstName == "" || c.LastName == "" {
			res.Add("name", "MISSING_NAME", "natural person requires first and last name")
		}
		if c.BirthDate.IsZero() {
			res.Add("birthDate", "MISSING_BIRTH_DATE", "natural person requires a birth date")
		}
	default:
		res.Add("kind", "INVALID_KIND", "unknown taxpayer kind %q", c.Kind)
	}
	if len(c.TaxOfficeCode) != 4 {
		res.Add("taxOfficeCode", "INVALID_OFFICE", "tax office code must have 4 characters")
	}
	if c.Filing != FilingMonthly && c.Filing != FilingQuarterly {
		res.Add("filing", "INVALID_FILING", "unknown filing frequency %q", c.Filing)
	}
	return res
}

// ValidateTransaction checks the posted-record invariants: amounts agree
// within one minor unit, a rate is present, cross-border supplies carry a
// verified foreign VAT id.
func ValidateTransaction(t Transaction) ValidationResult {
	var res ValidationResult
	if t.RateCode == "" {
		res.Add("rateCode", "MISSING_RATE", "rate code is required")
	}
	if !WithinMinorUnit(t.Gross, t.Net.Add(t.VAT)) {
		res.Add("gross", "GROSS_MISMATCH", "gross %s != net %s + vat %s", t.Gross, t.Net, t.VAT)
	}
	if expected, _ := VATFromNet(t.Net, t.RateValue); !WithinMinorUnit(expected, t.VAT) {
		res.Add("vat", "VAT_MISMATCH", "vat %s differs from round(net*rate) %s", t.VAT, expected)
	}
	switch t.Direction {
	case DirectionOutput, DirectionInput, DirectionBoth:
	default:
		res.Add("direction", "INVALID_DIRECTION", "unknown direction %q", t.Direction)
	}
	if t.CrossBorder && (t.ForeignVATID == "" || !t.ForeignVATVerified) {
		res.Add("foreignVatId", "UNVERIFIED_VAT_ID", "cross-border transaction requires a verified foreign VAT id")
	}
	if t.Date.IsZero() {
		res.Add("date", "MISSING_DATE", "transaction date is required")
	}
	res.Merge("period", ValidatePeriod(t.Period))
	return res
}
