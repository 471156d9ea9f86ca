// Package classify derives JPK_V7 GTU and procedure markers for a
// transaction from its line items and transaction-level circumstances.
package classify

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/csg33k/jpk-vat/internal/domain"
)

// Scheme says which line-item code a prefix rule matches against.
type Scheme int

const (
	SchemeCN    Scheme = iota // harmonised commodity code
	SchemePKWiU               // Polish goods/services tariff
)

// Rule sets Flag when Prefix is a prefix of the item's code under Scheme.
type Rule struct {
	Scheme Scheme
	Prefix string
	Flag   string
}

// SplitPaymentThreshold is the gross amount from which split payment becomes
// mandatory for sensitive goods.
var SplitPaymentThreshold = decimal.NewFromInt(15000)

// Service types that carry a GTU without a line-item code.
const (
	ServiceRealEstate        = "REAL_ESTATE"
	ServiceEmissionAllowance = "EMISSION_ALLOWANCE"
	ServiceTelecom           = "TELECOM_BROADCAST_ELECTRONIC"
)

// Input is everything the classifier looks at.
type Input struct {
	Items        []domain.LineItem
	Gross        decimal.Decimal
	Type         domain.TransactionType
	ServiceType  string
	RelatedParty bool
	MailOrder    bool
	Triangular   bool
}

// InputFor builds classifier input from a transaction.
func InputFor(t *domain.Transaction) Input {
	return Input{
		Items:        t.Items,
		Gross:        t.Gross,
		Type:         t.Type,
		ServiceType:  t.ServiceType,
		RelatedParty: t.RelatedParty,
		MailOrder:    t.MailOrder,
		Triangular:   t.Triangular,
	}
}

// Classifier is stateless apart from its static tables.
type Classifier struct {
	rules     []Rule
	sensitive []Rule
}

// New returns a classifier over the built-in GTU and Annex 15 tables.
func New() *Classifier {
	return &Classifier{rules: gtuRules, sensitive: sensitiveGoods}
}

// NewWithRules is used when the tables come from configuration.
func NewWithRules(rules, sensitive []Rule) *Classifier {
	return &Classifier{rules: rules, sensitive: sensitive}
}

// Classify returns the union of flags over all line items plus the
// transaction-level markers. Unclassifiable items contribute nothing.
func (c *Classifier) Classify(in Input) domain.Classification {
	gtu := map[string]struct{}{}
	procedures := map[string]struct{}{}

	for _, item := range in.Items {
		for _, r := range c.rules {
			if matches(r, item) {
				gtu[r.Flag] = struct{}{}
			}
		}
		if strings.HasPrefix(item.PKWiU, "61.") || strings.HasPrefix(item.PKWiU, "60.") {
			procedures["EE"] = struct{}{}
		}
	}

	switch in.ServiceType {
	case ServiceRealEstate:
		gtu["GTU_10"] = struct{}{}
	case ServiceEmissionAllowance:
		gtu["GTU_11"] = struct{}{}
	case ServiceTelecom:
		procedures["EE"] = struct{}{}
	}

	if in.RelatedParty {
		procedures["TP"] = struct{}{}
	}
	if in.MailOrder {
		procedures["SW"] = struct{}{}
	}
	if in.Triangular {
		if in.Type == domain.TypeWNT {
			procedures["TT_WNT"] = struct{}{}
		} else {
			procedures["TT_D"] = struct{}{}
		}
	}
	if in.Type == domain.TypeImport {
		procedures["IMP"] = struct{}{}
	}

	split := c.SplitPaymentRequired(in)
	if split {
		procedures["MPP"] = struct{}{}
	}

	return domain.Classification{
		GTU:          sortedKeys(gtu),
		Procedures:   sortedKeys(procedures),
		SplitPayment: split,
	}
}

// SplitPaymentRequired applies the mandatory split payment test, which looks
// only at the gross total and the sensitive goods list.
func (c *Classifier) SplitPaymentRequired(in Input) bool {
	if in.Gross.LessThan(SplitPaymentThreshold) {
		return false
	}
	for _, item := range in.Items {
		for _, r := range c.sensitive {
			if matches(r, item) {
				return true
			}
		}
	}
	return false
}

func matches(r Rule, item domain.LineItem) bool {
	var code string
	switch r.Scheme {
	case SchemeCN:
		code = normalizeCN(item.CNCode)
	case SchemePKWiU:
		code = strings.TrimSpace(item.PKWiU)
	}
	return code != "" && strings.HasPrefix(code, r.Prefix)
}

// normalizeCN drops the spaces and dots CN codes are usually printed with.
func normalizeCN(code string) string {
	return strings.NewReplacer(" ", "", ".", "").Replace(code)
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
