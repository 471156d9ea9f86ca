// Package jpk serializes a settlement and its records into a JPK_V7
// document for a given schema version.
package jpk

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/xml"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/csg33k/jpk-vat/internal/adapters/jpk/schema"
	"github.com/csg33k/jpk-vat/internal/domain"
)

// Options parameterize one serialization run. GeneratedAt is an input so
// repeated runs produce identical bytes.
type Options struct {
	SchemaVersion   string
	Purpose         domain.Purpose
	GeneratedAt     time.Time
	WithDeclaration bool
	SystemName      string
}

// Result carries the document and the control values written into it.
type Result struct {
	Bytes         []byte
	Digest        string
	SaleRows      int
	PurchaseRows  int
	OutputVAT     decimal.Decimal
	InputVAT      decimal.Decimal
	SchemaVersion string
}

type Serializer struct{}

func New() *Serializer { return &Serializer{} }

// Supported lists the schema versions this serializer can target.
func (s *Serializer) Supported() []string { return schema.Supported() }

// Serialize builds the document. Records are emitted in ingestion order
// (Sequence), never re-sorted by content. The control totals are checked
// against the settlement so a document can only be produced from the
// transaction set the settlement was computed from.
func (s *Serializer) Serialize(profile domain.ClientProfile, st *domain.PeriodSettlement, records []domain.Transaction, opts Options) (*Result, error) {
	v, err := schema.Lookup(opts.SchemaVersion)
	if err != nil {
		return nil, domain.NewValidation("schemaVersion", "%v", err)
	}
	if err := checkInputs(v, profile, st, opts); err != nil {
		return nil, err
	}

	ordered := make([]domain.Transaction, len(records))
	copy(ordered, records)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Sequence < ordered[j].Sequence })

	b := &builder{v: v, kSums: map[string]decimal.Decimal{}, outputVAT: decimal.Zero, inputVAT: decimal.Zero}
	for i := range ordered {
		if err := b.addRecord(&ordered[i]); err != nil {
			return nil, err
		}
	}

	if !b.outputVAT.Equal(st.OutputTotal) || !b.inputVAT.Equal(st.InputTotal) {
		return nil, domain.NewBusinessRule(domain.ErrStaleSnapshot,
			"records carry output %s / input %s, settlement %s has %s / %s",
			b.outputVAT, b.inputVAT, st.ID, st.OutputTotal, st.InputTotal)
	}

	var doc []*element
	doc = append(doc, b.header(profile, st, opts))
	party, err := b.party(profile)
	if err != nil {
		return nil, err
	}
	doc = append(doc, party)
	if opts.WithDeclaration {
		doc = append(doc, b.declaration(st))
	}
	doc = append(doc, b.records())

	for _, e := range doc {
		if missing := e.missing(); len(missing) > 0 {
			return nil, domain.NewValidation(missing[0], "required field %s has no value", missing[0])
		}
	}

	out, err := write(v, doc)
	if err != nil {
		return nil, fmt.Errorf("write %s document: %w", v.ID, err)
	}
	return &Result{
		Bytes:         out,
		Digest:        Digest(out),
		SaleRows:      len(b.sales),
		PurchaseRows:  len(b.purchases),
		OutputVAT:     b.outputVAT,
		InputVAT:      b.inputVAT,
		SchemaVersion: v.ID,
	}, nil
}

// Digest is the content address of a document: lowercase hex SHA-256.
func Digest(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func checkInputs(v *schema.Version, profile domain.ClientProfile, st *domain.PeriodSettlement, opts Options) error {
	var res domain.ValidationResult
	if opts.Purpose != domain.PurposeOriginal && opts.Purpose != domain.PurposeCorrection {
		res.Add("purpose", "INVALID_PURPOSE", "purpose must be 1 or 2, got %q", opts.Purpose)
	}
	if opts.GeneratedAt.IsZero() {
		res.Add("generatedAt", "MISSING_TIMESTAMP", "generation timestamp is required")
	}
	if st == nil {
		res.Add("settlement", "MISSING_SETTLEMENT", "settlement is required")
		return res.Err()
	}
	res.Merge("client", domain.ValidateClientProfile(profile))
	if !res.OK() {
		return res.Err()
	}
	if v.Quarterly != st.Period.IsQuarterly() {
		return domain.NewBusinessRule(domain.ErrFilingMismatch, "%s does not cover period %s", v.ID, st.Period)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Document model
// ---------------------------------------------------------------------------

// element is one XML element. Leaf elements are laid out by fields; nested
// ones carry children.
type element struct {
	name     string
	attrs    []schema.Attr
	fields   []schema.Field
	values   map[string]string
	children []*element
}

func newElement(name string, fields []schema.Field, attrs ...schema.Attr) *element {
	return &element{name: name, attrs: attrs, fields: fields, values: map[string]string{}}
}

func (e *element) missing() []string {
	var out []string
	for _, f := range e.fields {
		if !f.Required || f.Type == schema.Fixed {
			continue
		}
		if _, ok := e.values[f.Name]; !ok {
			out = append(out, e.name+"."+f.Name)
		}
	}
	for _, c := range e.children {
		out = append(out, c.missing()...)
	}
	return out
}

// ---------------------------------------------------------------------------
// Builder
// ---------------------------------------------------------------------------

type builder struct {
	v         *schema.Version
	sales     []*element
	purchases []*element
	kSums     map[string]decimal.Decimal
	outputVAT decimal.Decimal
	inputVAT  decimal.Decimal
}

func (b *builder) header(profile domain.ClientProfile, st *domain.PeriodSettlement, opts Options) *element {
	h := newElement(schema.Header, b.v.Header)
	h.datetime("DataWytworzeniaJPK", opts.GeneratedAt)
	h.textOptional("NazwaSystemu", opts.SystemName)
	h.text("CelZlozenia", string(opts.Purpose))
	h.text("KodUrzedu", profile.TaxOfficeCode)
	h.count("Rok", st.Period.Year)
	if b.v.Quarterly {
		h.count("Kwartal", st.Period.Quarter)
	} else {
		h.count("Miesiac", st.Period.Month)
	}
	return h
}

func (b *builder) party(profile domain.ClientProfile) (*element, error) {
	p := newElement(schema.Party, nil, schema.Attr{Name: schema.PartyRoleAttr, Value: schema.PartyRoleValue})
	nip := domain.CleanNIP(profile.NIP)
	switch profile.Kind {
	case domain.TaxpayerLegalEntity:
		e := newElement(schema.LegalEntity, b.v.LegalEntity)
		e.text(schema.TypesPrefix+":NIP", nip)
		e.text(schema.TypesPrefix+":PelnaNazwa", profile.FullName)
		e.textOptional("Email", profile.Email)
		e.textOptional("Telefon", profile.Phone)
		p.children = append(p.children, e)
	case domain.TaxpayerNaturalPerson:
		e := newElement(schema.NaturalPerson, b.v.NaturalPerson)
		e.text(schema.TypesPrefix+":NIP", nip)
		e.text(schema.TypesPrefix+":ImiePierwsze", profile.FirstName)
		e.text(schema.TypesPrefix+":Nazwisko", profile.LastName)
		e.datetime(schema.TypesPrefix+":DataUrodzenia", profile.BirthDate)
		e.textOptional("Email", profile.Email)
		e.textOptional("Telefon", profile.Phone)
		p.children = append(p.children, e)
	default:
		return nil, domain.NewValidation("kind", "unknown taxpayer kind %q", profile.Kind)
	}
	return p, nil
}

func (b *builder) addRecord(t *domain.Transaction) error {
	if t.Direction.HasOutput() {
		amounts, err := saleAmounts(t)
		if err != nil {
			return err
		}
		row := newElement(schema.SaleRow, b.v.Sale)
		row.count("LpSprzedazy", len(b.sales)+1)
		b.counterparty(row, t, "NrKontrahenta", "NazwaKontrahenta")
		row.text("DowodSprzedazy", documentNumber(t))
		row.datetime("DataWystawienia", t.Date)
		b.saleFlags(row, t)
		for _, a := range amounts {
			row.amount(a.field, a.value)
			b.addK(a.field, a.value)
		}
		b.outputVAT = b.outputVAT.Add(t.VAT)
		b.sales = append(b.sales, row)
	}
	if t.Direction.HasInput() {
		row := newElement(schema.PurchaseRow, b.v.Purchase)
		row.count("LpZakupu", len(b.purchases)+1)
		b.counterparty(row, t, "NrDostawcy", "NazwaDostawcy")
		row.text("DowodZakupu", documentNumber(t))
		row.datetime("DataZakupu", t.Date)
		if t.ReceivedDate != nil {
			row.datetime("DataWplywu", *t.ReceivedDate)
		}
		if c := t.Classification; c != nil {
			if c.Has("IMP") {
				row.flag("IMP")
			}
			if c.SplitPayment {
				row.flag("MPP")
			}
		}
		for _, a := range purchaseAmounts(t) {
			row.amount(a.field, a.value)
			b.addK(a.field, a.value)
		}
		b.inputVAT = b.inputVAT.Add(t.VAT)
		b.purchases = append(b.purchases, row)
	}
	return nil
}

func (b *builder) counterparty(row *element, t *domain.Transaction, idField, nameField string) {
	if t.CounterpartyCountry != "" && t.CounterpartyCountry != "PL" {
		row.textOptional("KodKrajuNadaniaTIN", t.CounterpartyCountry)
	}
	id := t.CounterpartyID
	if t.CrossBorder && t.ForeignVATID != "" {
		id = t.ForeignVATID
	}
	row.text(idField, orBrak(id))
	row.text(nameField, orBrak(t.CounterpartyName))
}

// saleFlags writes the classification markers the layout knows about,
// renaming merged markers and dropping ones the version does not carry.
func (b *builder) saleFlags(row *element, t *domain.Transaction) {
	c := t.Classification
	if c == nil {
		return
	}
	for _, g := range c.GTU {
		row.flag(g)
	}
	for _, p := range c.Procedures {
		if p == "IMP" {
			continue
		}
		if !row.flag(p) {
			if alias, ok := flagAliases[p]; ok {
				row.flag(alias)
			}
		}
	}
}

func (b *builder) addK(field string, v decimal.Decimal) {
	if cur, ok := b.kSums[field]; ok {
		b.kSums[field] = cur.Add(v)
		return
	}
	b.kSums[field] = v
}

func (b *builder) declaration(st *domain.PeriodSettlement) *element {
	d := newElement(schema.Declaration, nil)
	d.children = append(d.children, newElement(schema.DeclHeader, b.v.DeclHeader))

	pos := newElement(schema.DeclPositions, b.v.DeclPositions)
	for name, value := range declarationPositions(b.kSums, st) {
		f, ok := schema.Find(b.v.DeclPositions, name)
		if !ok {
			continue
		}
		if f.Required || !value.IsZero() {
			pos.amount(name, value)
		}
	}
	d.children = append(d.children, pos)

	instr := newElement(schema.DeclInstruct, []schema.Field{{Name: schema.DeclInstruct, Type: schema.Fixed, Fixed: "1"}})
	d.children = append(d.children, instr)
	return d
}

func (b *builder) records() *element {
	r := newElement(schema.Records, nil)
	r.children = append(r.children, b.sales...)

	sc := newElement(schema.SaleCtrl, b.v.SaleCtrl)
	sc.count("LiczbaWierszySprzedazy", len(b.sales))
	sc.amount("PodatekNalezny", b.outputVAT)
	r.children = append(r.children, sc)

	r.children = append(r.children, b.purchases...)

	pc := newElement(schema.PurchaseCtrl, b.v.PurchaseCtrl)
	pc.count("LiczbaWierszyZakupow", len(b.purchases))
	pc.amount("PodatekNaliczony", b.inputVAT)
	r.children = append(r.children, pc)
	return r
}

func documentNumber(t *domain.Transaction) string {
	if t.DocumentNumber != "" {
		return t.DocumentNumber
	}
	return t.ID
}

func orBrak(s string) string {
	if s == "" {
		return "brak"
	}
	return s
}

// ---------------------------------------------------------------------------
// XML output
// ---------------------------------------------------------------------------

func write(v *schema.Version, doc []*element) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")

	root := xml.StartElement{Name: xml.Name{Local: schema.Root}, Attr: []xml.Attr{
		{Name: xml.Name{Local: "xmlns"}, Value: v.Namespace},
		{Name: xml.Name{Local: "xmlns:" + schema.TypesPrefix}, Value: v.TypesNamespace},
	}}
	if err := enc.EncodeToken(root); err != nil {
		return nil, err
	}
	for _, e := range doc {
		if err := writeElement(enc, e); err != nil {
			return nil, err
		}
	}
	if err := enc.EncodeToken(root.End()); err != nil {
		return nil, err
	}
	if err := enc.Flush(); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// writeElement emits the fields of e in layout order, then its children.
// An element with a single Fixed field named like itself is a leaf.
func writeElement(enc *xml.Encoder, e *element) error {
	if len(e.fields) == 1 && e.fields[0].Name == e.name && e.fields[0].Type == schema.Fixed {
		return leaf(enc, e.name, e.fields[0].Fixed, e.attrs)
	}
	start := xml.StartElement{Name: xml.Name{Local: e.name}, Attr: attrs(e.attrs)}
	if err := enc.EncodeToken(start); err != nil {
		return err
	}
	for _, f := range e.fields {
		value, ok := e.values[f.Name]
		if f.Type == schema.Fixed {
			value, ok = f.Fixed, true
		}
		if !ok {
			continue
		}
		if err := leaf(enc, f.Name, value, f.Attrs); err != nil {
			return err
		}
	}
	for _, c := range e.children {
		if err := writeElement(enc, c); err != nil {
			return err
		}
	}
	return enc.EncodeToken(start.End())
}

func leaf(enc *xml.Encoder, name, value string, a []schema.Attr) error {
	start := xml.StartElement{Name: xml.Name{Local: name}, Attr: attrs(a)}
	if err := enc.EncodeToken(start); err != nil {
		return err
	}
	if err := enc.EncodeToken(xml.CharData(value)); err != nil {
		return err
	}
	return enc.EncodeToken(start.End())
}

func attrs(a []schema.Attr) []xml.Attr {
	if len(a) == 0 {
		return nil
	}
	out := make([]xml.Attr, len(a))
	for i, x := range a {
		out[i] = xml.Attr{Name: xml.Name{Local: x.Name}, Value: x.Value}
	}
	return out
}
