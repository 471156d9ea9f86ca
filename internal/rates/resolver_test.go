package rates_test

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/csg33k/jpk-vat/internal/domain"
	"github.com/csg33k/jpk-vat/internal/rates"
)

func date(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

func TestResolve_PicksIntervalContainingDate(t *testing.T) {
	r := rates.Default()

	tests := []struct {
		code    string
		at      time.Time
		want    string
		ruleSet domain.RuleSet
	}{
		{"23", date(2024, time.March, 15), "0.23", domain.RuleStandard},
		{"23%", date(2011, time.January, 1), "0.23", domain.RuleStandard},
		{"22", date(2010, time.December, 31), "0.22", domain.RuleStandard},
		{"8", date(2022, time.June, 1), "0.08", domain.RuleReduced},
		{"ZW", date(2022, time.June, 1), "0", domain.RuleExempt},
		{"oo", date(2022, time.June, 1), "0", domain.RuleReverseCharge},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			res, err := r.Resolve(tt.code, tt.at)
			require.NoError(t, err)
			assert.True(t, res.Value.Equal(decimal.RequireFromString(tt.want)), "got %s", res.Value)
			assert.Equal(t, tt.ruleSet, res.RuleSet)
		})
	}
}

func TestResolve_UnknownOrExpired(t *testing.T) {
	r := rates.Default()

	_, err := r.Resolve("22", date(2011, time.January, 1))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnknownRateCode))
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))

	_, err = r.Resolve("17", date(2024, time.January, 1))
	assert.True(t, errors.Is(err, domain.ErrUnknownRateCode))
}

func TestNewStaticTable_RejectsOverlap(t *testing.T) {
	_, err := rates.NewStaticTable([]domain.RateEntry{
		{Code: "23", Value: decimal.RequireFromString("0.23"), ValidFrom: date(2011, 1, 1)},
		{Code: "23", Value: decimal.RequireFromString("0.25"), ValidFrom: date(2020, 1, 1)},
	})
	require.Error(t, err)

	_, err = rates.NewStaticTable([]domain.RateEntry{
		{Code: "23", Value: decimal.RequireFromString("0.23"), ValidFrom: date(2011, 1, 1), ValidTo: date(2020, 1, 1)},
		{Code: "23", Value: decimal.RequireFromString("0.25"), ValidFrom: date(2020, 1, 1)},
	})
	require.NoError(t, err)
}
