package classify_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/csg33k/jpk-vat/internal/classify"
	"github.com/csg33k/jpk-vat/internal/domain"
)

func item(cn, pkwiu string) domain.LineItem {
	return domain.LineItem{CNCode: cn, PKWiU: pkwiu, Net: decimal.NewFromInt(100)}
}

func TestClassify_PrefixMatch(t *testing.T) {
	c := classify.New()

	tests := []struct {
		name string
		item domain.LineItem
		want []string
	}{
		{"wine", item("2204 21 09", ""), []string{"GTU_01"}},
		{"diesel is fuel and heating oil", item("2710 19 43", ""), []string{"GTU_02", "GTU_03"}},
		{"laptop", item("8471.30.00", ""), []string{"GTU_06"}},
		{"software service", item("", "62.01.11.0"), []string{"GTU_12"}},
		{"bread", item("1905 90", ""), []string{}},
		{"no codes", item("", ""), []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Classify(classify.Input{Items: []domain.LineItem{tt.item}, Gross: decimal.NewFromInt(100)})
			assert.Equal(t, tt.want, got.GTU)
		})
	}
}

func TestClassify_Deterministic(t *testing.T) {
	c := classify.New()
	in := classify.Input{
		Items:        []domain.LineItem{item("8517", ""), item("", "49.41"), item("2402", "")},
		Gross:        decimal.NewFromInt(500),
		RelatedParty: true,
		MailOrder:    true,
	}
	first := c.Classify(in)
	second := c.Classify(in)
	assert.Equal(t, first, second)
	assert.Equal(t, []string{"GTU_04", "GTU_06", "GTU_13"}, first.GTU)
	assert.Equal(t, []string{"SW", "TP"}, first.Procedures)
}

func TestClassify_MonotonicAsItemsAreAdded(t *testing.T) {
	c := classify.New()
	items := []domain.LineItem{
		item("2204", ""), item("1905", ""), item("8703", ""), item("", "62.01"), item("", ""),
	}
	var prev domain.Classification
	for i := range items {
		got := c.Classify(classify.Input{Items: items[:i+1], Gross: decimal.NewFromInt(20000)})
		for _, flag := range prev.GTU {
			assert.Contains(t, got.GTU, flag, "flag %s cleared after adding item %d", flag, i)
		}
		assert.GreaterOrEqual(t, len(got.GTU), len(prev.GTU))
		prev = got
	}
	assert.Equal(t, []string{"GTU_01", "GTU_07", "GTU_12"}, prev.GTU)
}

func TestSplitPayment(t *testing.T) {
	c := classify.New()

	tests := []struct {
		name  string
		gross string
		items []domain.LineItem
		want  bool
	}{
		{"sensitive at threshold", "15000.00", []domain.LineItem{item("8471 30", "")}, true},
		{"sensitive below threshold", "14999.99", []domain.LineItem{item("8471 30", "")}, false},
		{"above threshold, nothing sensitive", "90000", []domain.LineItem{item("2204", "")}, false},
		{"construction service", "20000", []domain.LineItem{item("", "43.31.10.0")}, true},
		{"one sensitive among many", "16000", []domain.LineItem{item("1905", ""), item("7204 49", "")}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := classify.Input{Items: tt.items, Gross: decimal.RequireFromString(tt.gross)}
			got := c.Classify(in)
			assert.Equal(t, tt.want, got.SplitPayment)
			assert.Equal(t, tt.want, got.Has("MPP"))
		})
	}
}

func TestClassify_TransactionLevelMarkers(t *testing.T) {
	c := classify.New()

	got := c.Classify(classify.Input{Type: domain.TypeWNT, Triangular: true, ServiceType: classify.ServiceRealEstate})
	assert.Equal(t, []string{"GTU_10"}, got.GTU)
	assert.Equal(t, []string{"TT_WNT"}, got.Procedures)

	got = c.Classify(classify.Input{Type: domain.TypeDomestic, Triangular: true})
	assert.Equal(t, []string{"TT_D"}, got.Procedures)

	got = c.Classify(classify.Input{Type: domain.TypeImport})
	assert.Equal(t, []string{"IMP"}, got.Procedures)
}
