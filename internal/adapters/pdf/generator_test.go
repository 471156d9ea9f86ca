package pdf

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/csg33k/jpk-vat/internal/domain"
)

func client() domain.ClientProfile {
	return domain.ClientProfile{Kind: domain.TaxpayerLegalEntity, NIP: "5260250274", FullName: "Łódzka Spółka Sp. z o.o."}
}

func TestWriteSettlement(t *testing.T) {
	d := decimal.RequireFromString
	s := &domain.PeriodSettlement{
		Period:       domain.Monthly(2024, 3),
		Version:      2,
		Status:       domain.SettlementCalculated,
		OutputByRate: []domain.Bucket{{Key: "23", Net: d("1000"), VAT: d("230"), Count: 2}, {Key: "zw", Net: d("50"), VAT: d("0"), Count: 1}},
		InputByRate:  []domain.Bucket{{Key: "8", Net: d("100"), VAT: d("8"), Count: 1}},
		OutputTotal:  d("230"),
		InputTotal:   d("8"),
		NetPosition:  d("222"),
		FinalDue:     d("222"),
		CalculatedAt: time.Date(2024, 4, 10, 12, 0, 0, 0, time.UTC),
	}
	var buf bytes.Buffer
	require.NoError(t, WriteSettlement(client(), s, &buf))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func TestWriteReceipt(t *testing.T) {
	at := time.Date(2024, 4, 20, 9, 0, 0, 0, time.UTC)
	sub := &domain.Submission{
		ID:     "sub-1",
		Status: domain.StatusAccepted,
		History: []domain.StatusEvent{
			{To: domain.StatusPending, At: at, Source: "create"},
			{From: domain.StatusProcessing, To: domain.StatusAccepted, At: at, Source: "poll", Code: "200"},
		},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteReceipt(client(), sub, domain.Proof{ReferenceNumber: "REF-1", OfficeCode: "1471", ReceivedAt: at}, &buf))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func TestFormatting(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "0,00 zl"},
		{"999.5", "999,50 zl"},
		{"1234567.8", "1 234 567,80 zl"},
		{"-1000", "-1 000,00 zl"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatPLN(decimal.RequireFromString(tt.in)), tt.in)
	}
	assert.Equal(t, "526-025-02-74", formatNIP("5260250274"))
	assert.Equal(t, "Lodzka Spolka", plain("Łódzka Spółka"))
	assert.Equal(t, "23%", rateLabel("23"))
	assert.Equal(t, "zwolnione", rateLabel("zw"))
}
