package jpk

import (
	"github.com/shopspring/decimal"

	"github.com/csg33k/jpk-vat/internal/domain"
	"github.com/csg33k/jpk-vat/internal/rates"
)

// amount is one K_ field value of a record row.
type amount struct {
	field string
	value decimal.Decimal
}

// saleAmounts maps the output side of t onto its K_ fields. Domestic supplies
// go by rate code; every other type has a fixed pair regardless of rate.
func saleAmounts(t *domain.Transaction) ([]amount, error) {
	switch t.Type {
	case domain.TypeWDT:
		return []amount{{"K_21", t.Net}}, nil
	case domain.TypeExport:
		return []amount{{"K_22", t.Net}}, nil
	case domain.TypeWNT:
		return []amount{{"K_23", t.Net}, {"K_24", t.VAT}}, nil
	case domain.TypeImport:
		return []amount{{"K_25", t.Net}, {"K_26", t.VAT}}, nil
	case domain.TypeReverseCharge:
		return []amount{{"K_31", t.Net}, {"K_32", t.VAT}}, nil
	case domain.TypeOSS:
		return []amount{{"K_11", t.Net}}, nil
	}

	switch rates.NormalizeCode(t.RateCode) {
	case "zw":
		return []amount{{"K_10", t.Net}}, nil
	case "np", "oo":
		return []amount{{"K_11", t.Net}}, nil
	case "0":
		return []amount{{"K_13", t.Net}}, nil
	case "5", "3":
		return []amount{{"K_15", t.Net}, {"K_16", t.VAT}}, nil
	case "8", "7":
		return []amount{{"K_17", t.Net}, {"K_18", t.VAT}}, nil
	case "23", "22":
		return []amount{{"K_19", t.Net}, {"K_20", t.VAT}}, nil
	}
	return nil, &domain.Error{
		Kind:    domain.KindValidation,
		Code:    "UNKNOWN_RATE_CODE",
		Field:   "rateCode",
		Message: "transaction " + t.ID + " has rate code " + t.RateCode + " with no record field",
		Cause:   domain.ErrUnknownRateCode,
	}
}

// purchaseAmounts maps the input side of t. Fixed assets have their own pair;
// everything else deductible lands in K_42/K_43.
func purchaseAmounts(t *domain.Transaction) []amount {
	if t.Type == domain.TypeFixedAsset {
		return []amount{{"K_40", t.Net}, {"K_41", t.VAT}}
	}
	return []amount{{"K_42", t.Net}, {"K_43", t.VAT}}
}

// flagAliases renames markers that a later layout merged into one.
var flagAliases = map[string]string{
	"SW": "WSTO_EE",
	"EE": "WSTO_EE",
}

// Declaration position groups.
var (
	baseFromK = map[string]string{
		"K_10": "P_10", "K_11": "P_11", "K_13": "P_13", "K_15": "P_15", "K_16": "P_16",
		"K_17": "P_17", "K_18": "P_18", "K_19": "P_19", "K_20": "P_20", "K_21": "P_21",
		"K_22": "P_22", "K_23": "P_23", "K_24": "P_24", "K_25": "P_25", "K_26": "P_26",
		"K_27": "P_27", "K_28": "P_28", "K_29": "P_29", "K_30": "P_30", "K_31": "P_31",
		"K_32": "P_32", "K_33": "P_33", "K_34": "P_34", "K_35": "P_35", "K_36": "P_36",
		"K_40": "P_40", "K_41": "P_41", "K_42": "P_42", "K_43": "P_43", "K_44": "P_44",
		"K_45": "P_45", "K_46": "P_46", "K_47": "P_47",
	}
	outputBases = []string{"P_10", "P_11", "P_13", "P_15", "P_17", "P_19", "P_21", "P_22", "P_23", "P_25", "P_27", "P_29", "P_31"}
	outputTaxes = []string{"P_16", "P_18", "P_20", "P_24", "P_26", "P_28", "P_30", "P_32", "P_33", "P_34"}
	outputMinus = []string{"P_35", "P_36"}
	inputTaxes  = []string{"P_39", "P_41", "P_43", "P_44", "P_45", "P_46", "P_47"}
)

// declarationPositions derives whole-PLN P_ positions from the record K_
// sums and the settlement's carry-forward and refund election. Positions are
// rounded individually and totals are built from the rounded values so the
// document is internally consistent.
func declarationPositions(kSums map[string]decimal.Decimal, st *domain.PeriodSettlement) map[string]decimal.Decimal {
	p := map[string]decimal.Decimal{}
	for k, sum := range kSums {
		if name, ok := baseFromK[k]; ok {
			p[name] = sum.Round(0)
		}
	}
	get := func(n string) decimal.Decimal {
		if v, ok := p[n]; ok {
			return v
		}
		return decimal.Zero
	}
	sum := func(names []string) decimal.Decimal {
		total := decimal.Zero
		for _, n := range names {
			total = total.Add(get(n))
		}
		return total
	}

	p["P_39"] = st.CarryForwardIn.Round(0)
	p["P_37"] = sum(outputBases)
	p["P_38"] = sum(outputTaxes).Sub(sum(outputMinus))
	p["P_48"] = sum(inputTaxes)

	diff := get("P_38").Sub(get("P_48"))
	if diff.IsPositive() {
		p["P_51"] = diff
		p["P_53"] = decimal.Zero
	} else {
		p["P_51"] = decimal.Zero
		p["P_53"] = diff.Neg()
	}

	payout := st.FinalRefund.Sub(st.RefundCarried).Round(0)
	if payout.IsNegative() {
		payout = decimal.Zero
	}
	p["P_54"] = decimal.Min(payout, get("P_53"))
	p["P_62"] = get("P_53").Sub(get("P_54"))
	return p
}
