package jpk

import (
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/csg33k/jpk-vat/internal/adapters/jpk/schema"
)

const stampLayout = "2006-01-02T15:04:05Z"

// field returns the layout entry for name and checks that it holds one of
// the given types. A miss panics: the builder asked for a field or type the
// layout does not have, which is a serializer bug rather than bad input.
func (e *element) field(name string, types ...schema.FieldType) schema.Field {
	f, ok := schema.Find(e.fields, name)
	if !ok {
		panic(fmt.Sprintf("jpk: field %q not in %s layout", name, e.name))
	}
	for _, t := range types {
		if f.Type == t {
			return f
		}
	}
	panic(fmt.Sprintf("jpk: %s.%s is %s, not %v", e.name, name, f.Type, types))
}

func (e *element) text(name, v string) {
	e.field(name, schema.Text)
	e.values[name] = v
}

// textOptional writes v only when it is non-empty and the layout has the
// field.
func (e *element) textOptional(name, v string) {
	if v != "" && schema.Has(e.fields, name) {
		e.text(name, v)
	}
}

// amount writes money: two fractional digits, or whole PLN for declaration
// positions.
func (e *element) amount(name string, v decimal.Decimal) {
	switch e.field(name, schema.Amount, schema.Integer).Type {
	case schema.Integer:
		e.values[name] = v.Round(0).StringFixed(0)
	default:
		e.values[name] = v.StringFixed(2)
	}
}

func (e *element) count(name string, n int) {
	e.field(name, schema.Count)
	if n < 0 {
		panic(fmt.Sprintf("jpk: negative %s.%s %d", e.name, name, n))
	}
	e.values[name] = strconv.Itoa(n)
}

// datetime writes a calendar date or a UTC timestamp, whichever the field holds.
func (e *element) datetime(name string, t time.Time) {
	switch e.field(name, schema.Date, schema.Stamp).Type {
	case schema.Stamp:
		e.values[name] = t.UTC().Format(stampLayout)
	default:
		e.values[name] = t.Format(time.DateOnly)
	}
}

// flag marks name with "1" and reports whether the layout carries it as a
// flag. Marker names come from classification data, so a miss is not a bug.
// Unset flags are never written.
func (e *element) flag(name string) bool {
	f, ok := schema.Find(e.fields, name)
	if !ok || f.Type != schema.Flag {
		return false
	}
	e.values[name] = "1"
	return true
}
