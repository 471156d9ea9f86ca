package domain

import "github.com/shopspring/decimal"

// MinorUnit is one grosz.
var MinorUnit = decimal.New(1, -2)

// Round2 rounds to two fractional digits, half away from zero. For the
// positive amounts on an invoice this is the commercial half-up rule; a
// negative correction rounds symmetrically with its positive counterpart.
func Round2(d decimal.Decimal) decimal.Decimal { return d.Round(2) }

// VATFromNet derives VAT and gross from a net amount: vat = round(net*rate, 2)
// and gross = net + vat.
func VATFromNet(net, rate decimal.Decimal) (vat, gross decimal.Decimal) {
	vat = Round2(net.Mul(rate))
	return vat, net.Add(vat)
}

// SplitGross is the inverse of VATFromNet: net = round(gross/(1+rate), 2) and
// vat = gross - net. The result differs from a forward computation by at most
// one minor unit.
func SplitGross(gross, rate decimal.Decimal) (net, vat decimal.Decimal) {
	divisor := decimal.NewFromInt(1).Add(rate)
	net = Round2(gross.DivRound(divisor, 8))
	return net, gross.Sub(net)
}

// WithinMinorUnit reports whether |a-b| <= 0.01.
func WithinMinorUnit(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(MinorUnit)
}

// Sum adds all values starting from zero.
func Sum(values ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}
