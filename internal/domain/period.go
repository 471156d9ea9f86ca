package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// PeriodKey identifies a tax period. Exactly one of Month or Quarter is set.
type PeriodKey struct {
	Year    int
	Month   int
	Quarter int
}

// Monthly builds a monthly period key.
func Monthly(year, month int) PeriodKey { return PeriodKey{Year: year, Month: month} }

// Quarterly builds a quarterly period key.
func Quarterly(year, quarter int) PeriodKey { return PeriodKey{Year: year, Quarter: quarter} }

// PeriodOf returns the monthly period containing t.
func PeriodOf(t time.Time) PeriodKey { return Monthly(t.Year(), int(t.Month())) }

func (p PeriodKey) IsQuarterly() bool { return p.Quarter != 0 }

// String renders "2024-03" or "2024-Q1".
func (p PeriodKey) String() string {
	if p.IsQuarterly() {
		return fmt.Sprintf("%04d-Q%d", p.Year, p.Quarter)
	}
	return fmt.Sprintf("%04d-%02d", p.Year, p.Month)
}

// ParsePeriod accepts the two forms produced by String.
func ParsePeriod(s string) (PeriodKey, error) {
	year, rest, ok := strings.Cut(strings.TrimSpace(s), "-")
	if !ok {
		return PeriodKey{}, NewValidation("period", "malformed period %q", s)
	}
	y, err := strconv.Atoi(year)
	if err != nil {
		return PeriodKey{}, NewValidation("period", "malformed year in %q", s)
	}
	var p PeriodKey
	if q, found := strings.CutPrefix(strings.ToUpper(rest), "Q"); found {
		n, err := strconv.Atoi(q)
		if err != nil {
			return PeriodKey{}, NewValidation("period", "malformed quarter in %q", s)
		}
		p = Quarterly(y, n)
	} else {
		m, err := strconv.Atoi(rest)
		if err != nil {
			return PeriodKey{}, NewValidation("period", "malformed month in %q", s)
		}
		p = Monthly(y, m)
	}
	if res := ValidatePeriod(p); !res.OK() {
		return PeriodKey{}, res.Err()
	}
	return p, nil
}

// Months lists the calendar months covered by the period.
func (p PeriodKey) Months() []int {
	if p.IsQuarterly() {
		first := (p.Quarter-1)*3 + 1
		return []int{first, first + 1, first + 2}
	}
	return []int{p.Month}
}

// Contains reports whether the monthly period m falls inside p.
func (p PeriodKey) Contains(m PeriodKey) bool {
	if p.Year != m.Year {
		return false
	}
	if !p.IsQuarterly() {
		return p.Month == m.Month && !m.IsQuarterly()
	}
	if m.IsQuarterly() {
		return p.Quarter == m.Quarter
	}
	for _, month := range p.Months() {
		if month == m.Month {
			return true
		}
	}
	return false
}

// Start returns the first instant of the period in UTC.
func (p PeriodKey) Start() time.Time {
	return time.Date(p.Year, time.Month(p.Months()[0]), 1, 0, 0, 0, 0, time.UTC)
}

// End returns the first instant after the period.
func (p PeriodKey) End() time.Time {
	months := p.Months()
	return time.Date(p.Year, time.Month(months[len(months)-1]), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
}

// Before orders periods by their start date.
func (p PeriodKey) Before(o PeriodKey) bool { return p.Start().Before(o.Start()) }

// Filing returns the filing frequency the key shape implies.
func (p PeriodKey) Filing() FilingFrequency {
	if p.IsQuarterly() {
		return FilingQuarterly
	}
	return FilingMonthly
}
