// Package schema defines the JPK_V7 document layouts per published schema
// version. Element names, their order and the fixed attribute values are
// taken from the Ministry of Finance XSDs; the serializer never assumes a
// version and must be told which one to target.
package schema

import (
	"fmt"
	"sort"
)

type FieldType int

const (
	Text    FieldType = iota // escaped character data
	Amount                   // decimal with two fractional digits
	Integer                  // whole PLN, declaration positions
	Date                     // YYYY-MM-DD
	Stamp                    // RFC 3339 UTC timestamp
	Flag                     // literal "1" when set, omitted otherwise
	Count                    // non-negative integer: row numbers, year, month
	Fixed                    // literal constant from the layout
)

var typeNames = [...]string{"text", "amount", "integer", "date", "stamp", "flag", "count", "fixed"}

func (t FieldType) String() string {
	if t < 0 || int(t) >= len(typeNames) {
		return fmt.Sprintf("FieldType(%d)", int(t))
	}
	return typeNames[t]
}

type Attr struct {
	Name  string
	Value string
}

type Field struct {
	Name        string
	Type        FieldType
	Required    bool
	Fixed       string
	Attrs       []Attr
	Description string
}

// Structural element names shared by all supported versions.
const (
	Root           = "JPK"
	Header         = "Naglowek"
	Party          = "Podmiot1"
	LegalEntity    = "OsobaNiefizyczna"
	NaturalPerson  = "OsobaFizyczna"
	Declaration    = "Deklaracja"
	DeclHeader     = "Naglowek"
	DeclPositions  = "PozycjeSzczegolowe"
	DeclInstruct   = "Pouczenia"
	Records        = "Ewidencja"
	SaleRow        = "SprzedazWiersz"
	SaleCtrl       = "SprzedazCtrl"
	PurchaseRow    = "ZakupWiersz"
	PurchaseCtrl   = "ZakupCtrl"
	TypesPrefix    = "etd"
	PartyRoleAttr  = "rola"
	PartyRoleValue = "Podatnik"
)

// Version is one published layout.
type Version struct {
	ID             string
	FormCode       string
	SystemCode     string
	SchemaVersion  string
	Variant        string
	Namespace      string
	TypesNamespace string
	PublishedURL   string
	Quarterly      bool

	Header        []Field
	LegalEntity   []Field
	NaturalPerson []Field
	DeclHeader    []Field
	DeclPositions []Field
	Sale          []Field
	SaleCtrl      []Field
	Purchase      []Field
	PurchaseCtrl  []Field
}

// Has reports whether name is part of fields.
func Has(fields []Field, name string) bool {
	_, ok := Find(fields, name)
	return ok
}

// Find returns the field called name.
func Find(fields []Field, name string) (Field, bool) {
	for _, f := range fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

const (
	V7M1 = "JPK_V7M(1)"
	V7M2 = "JPK_V7M(2)"
	V7K2 = "JPK_V7K(2)"
)

var versions = map[string]*Version{
	V7M1: v7m1(),
	V7M2: v7m2(),
	V7K2: v7k2(),
}

// Lookup returns the layout for id. Unknown ids are an error; there is no
// fallback to a newer layout.
func Lookup(id string) (*Version, error) {
	v, ok := versions[id]
	if !ok {
		return nil, fmt.Errorf("unsupported schema version %q (supported: %v)", id, Supported())
	}
	return v, nil
}

// Supported lists the known version ids in ascending order.
func Supported() []string {
	out := make([]string, 0, len(versions))
	for id := range versions {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func v7m1() *Version {
	v := &Version{
		ID:             V7M1,
		FormCode:       "JPK_VAT",
		SystemCode:     "JPK_V7M (1)",
		SchemaVersion:  "1-2E",
		Variant:        "1",
		Namespace:      "http://crd.gov.pl/wzor/2020/05/08/9393/",
		TypesNamespace: "http://crd.gov.pl/xml/schematy/dziedzinowe/mf/2020/03/11/eD/DefinicjeTypy/",
		PublishedURL:   "https://www.podatki.gov.pl/jednolity-plik-kontrolny/jpk_vat/",
	}
	v.Header = header(v, "Miesiac")
	v.LegalEntity, v.NaturalPerson = party()
	v.DeclHeader = declHeader("VAT-7", "VAT-7 (21)", "1-2E", "21")
	v.DeclPositions = declPositions()
	v.Sale = sale([]string{"SW", "EE"}, true)
	v.SaleCtrl = saleCtrl()
	v.Purchase = purchase(true)
	v.PurchaseCtrl = purchaseCtrl()
	return v
}

// v7m2 replaces SW/EE with WSTO_EE/IED and drops the per-row MPP marker.
func v7m2() *Version {
	v := &Version{
		ID:             V7M2,
		FormCode:       "JPK_VAT",
		SystemCode:     "JPK_V7M (2)",
		SchemaVersion:  "1-0E",
		Variant:        "2",
		Namespace:      "http://crd.gov.pl/wzor/2021/12/27/11148/",
		TypesNamespace: "http://crd.gov.pl/xml/schematy/dziedzinowe/mf/2021/06/08/eD/DefinicjeTypy/",
		PublishedURL:   "https://www.podatki.gov.pl/jednolity-plik-kontrolny/jpk_vat/",
	}
	v.Header = header(v, "Miesiac")
	v.LegalEntity, v.NaturalPerson = party()
	v.DeclHeader = declHeader("VAT-7", "VAT-7 (22)", "1-0E", "22")
	v.DeclPositions = declPositions()
	v.Sale = sale([]string{"WSTO_EE", "IED"}, false)
	v.SaleCtrl = saleCtrl()
	v.Purchase = purchase(false)
	v.PurchaseCtrl = purchaseCtrl()
	return v
}

func v7k2() *Version {
	v := &Version{
		ID:             V7K2,
		FormCode:       "JPK_VAT",
		SystemCode:     "JPK_V7K (2)",
		SchemaVersion:  "1-0E",
		Variant:        "2",
		Namespace:      "http://crd.gov.pl/wzor/2021/12/27/11149/",
		TypesNamespace: "http://crd.gov.pl/xml/schematy/dziedzinowe/mf/2021/06/08/eD/DefinicjeTypy/",
		PublishedURL:   "https://www.podatki.gov.pl/jednolity-plik-kontrolny/jpk_vat/",
		Quarterly:      true,
	}
	v.Header = header(v, "Kwartal")
	v.LegalEntity, v.NaturalPerson = party()
	v.DeclHeader = declHeader("VAT-7K", "VAT-7K (16)", "1-0E", "16")
	v.DeclPositions = declPositions()
	v.Sale = sale([]string{"WSTO_EE", "IED"}, false)
	v.SaleCtrl = saleCtrl()
	v.Purchase = purchase(false)
	v.PurchaseCtrl = purchaseCtrl()
	return v
}

// ── Shared layouts ───────────────────────────────────────────────────────

func header(v *Version, periodField string) []Field {
	return []Field{
		{Name: "KodFormularza", Type: Fixed, Required: true, Fixed: v.FormCode,
			Attrs: []Attr{{"kodSystemowy", v.SystemCode}, {"wersjaSchemy", v.SchemaVersion}}},
		{Name: "WariantFormularza", Type: Fixed, Required: true, Fixed: v.Variant},
		{Name: "DataWytworzeniaJPK", Type: Stamp, Required: true, Description: "generation timestamp"},
		{Name: "NazwaSystemu", Type: Text, Description: "producing system"},
		{Name: "CelZlozenia", Type: Text, Required: true, Attrs: []Attr{{"poz", "P_7"}}, Description: "1 original, 2 correction"},
		{Name: "KodUrzedu", Type: Text, Required: true, Description: "4-character tax office code"},
		{Name: "Rok", Type: Count, Required: true},
		{Name: periodField, Type: Count, Required: true},
	}
}

func party() (legal, natural []Field) {
	legal = []Field{
		{Name: TypesPrefix + ":NIP", Type: Text, Required: true},
		{Name: TypesPrefix + ":PelnaNazwa", Type: Text, Required: true},
		{Name: "Email", Type: Text, Required: true},
		{Name: "Telefon", Type: Text},
	}
	natural = []Field{
		{Name: TypesPrefix + ":NIP", Type: Text, Required: true},
		{Name: TypesPrefix + ":ImiePierwsze", Type: Text, Required: true},
		{Name: TypesPrefix + ":Nazwisko", Type: Text, Required: true},
		{Name: TypesPrefix + ":DataUrodzenia", Type: Date, Required: true},
		{Name: "Email", Type: Text, Required: true},
		{Name: "Telefon", Type: Text},
	}
	return legal, natural
}

func declHeader(form, system, schemaVersion, variant string) []Field {
	return []Field{
		{Name: "KodFormularzaDekl", Type: Fixed, Required: true, Fixed: form, Attrs: []Attr{
			{"kodSystemowy", system}, {"kodPodatku", "VAT"}, {"rodzajZobowiazania", "Z"}, {"wersjaSchemy", schemaVersion},
		}},
		{Name: "WariantFormularzaDekl", Type: Fixed, Required: true, Fixed: variant},
	}
}

// declPositions lists the P_ positions in schema order. Only P_38, P_48,
// P_51, P_53 and P_62 are always written; the rest only when non-zero.
func declPositions() []Field {
	var out []Field
	for _, n := range []string{
		"P_10", "P_11", "P_13", "P_15", "P_16", "P_17", "P_18", "P_19", "P_20",
		"P_21", "P_22", "P_23", "P_24", "P_25", "P_26", "P_27", "P_28", "P_29", "P_30",
		"P_31", "P_32", "P_33", "P_34", "P_35", "P_36", "P_37", "P_38", "P_39",
		"P_40", "P_41", "P_42", "P_43", "P_44", "P_45", "P_46", "P_47", "P_48",
		"P_49", "P_50", "P_51", "P_52", "P_53", "P_54", "P_55", "P_56", "P_57",
		"P_58", "P_59", "P_60", "P_61", "P_62",
	} {
		f := Field{Name: n, Type: Integer}
		switch n {
		case "P_38", "P_48", "P_51", "P_53", "P_62":
			f.Required = true
		}
		out = append(out, f)
	}
	return out
}

func sale(ossMarkers []string, rowMPP bool) []Field {
	out := []Field{
		{Name: "LpSprzedazy", Type: Count, Required: true},
		{Name: "KodKrajuNadaniaTIN", Type: Text, Description: "only for foreign counterparties"},
		{Name: "NrKontrahenta", Type: Text, Required: true},
		{Name: "NazwaKontrahenta", Type: Text, Required: true},
		{Name: "DowodSprzedazy", Type: Text, Required: true},
		{Name: "DataWystawienia", Type: Date, Required: true},
		{Name: "DataSprzedazy", Type: Date},
		{Name: "TypDokumentu", Type: Text},
	}
	for i := 1; i <= 13; i++ {
		out = append(out, Field{Name: fmt.Sprintf("GTU_%02d", i), Type: Flag})
	}
	for _, m := range ossMarkers {
		out = append(out, Field{Name: m, Type: Flag})
	}
	for _, m := range []string{"TP", "TT_WNT", "TT_D", "MR_T", "MR_UZ", "I_42", "I_63", "B_SPV", "B_SPV_DOSTAWA", "B_MPV_PROWIZJA"} {
		out = append(out, Field{Name: m, Type: Flag})
	}
	if rowMPP {
		out = append(out, Field{Name: "MPP", Type: Flag})
	}
	out = append(out, Field{Name: "KorektaPodstawyOpodt", Type: Flag})
	for i := 10; i <= 36; i++ {
		out = append(out, Field{Name: fmt.Sprintf("K_%d", i), Type: Amount})
	}
	return append(out, Field{Name: "SprzedazVAT_Marza", Type: Amount})
}

func saleCtrl() []Field {
	return []Field{
		{Name: "LiczbaWierszySprzedazy", Type: Count, Required: true},
		{Name: "PodatekNalezny", Type: Amount, Required: true},
	}
}

func purchase(rowMPP bool) []Field {
	out := []Field{
		{Name: "LpZakupu", Type: Count, Required: true},
		{Name: "KodKrajuNadaniaTIN", Type: Text},
		{Name: "NrDostawcy", Type: Text, Required: true},
		{Name: "NazwaDostawcy", Type: Text, Required: true},
		{Name: "DowodZakupu", Type: Text, Required: true},
		{Name: "DataZakupu", Type: Date, Required: true},
		{Name: "DataWplywu", Type: Date},
		{Name: "DokumentZakupu", Type: Text},
	}
	if rowMPP {
		out = append(out, Field{Name: "MPP", Type: Flag})
	}
	out = append(out, Field{Name: "IMP", Type: Flag})
	for i := 40; i <= 47; i++ {
		out = append(out, Field{Name: fmt.Sprintf("K_%d", i), Type: Amount})
	}
	return append(out, Field{Name: "ZakupVAT_Marza", Type: Amount})
}

func purchaseCtrl() []Field {
	return []Field{
		{Name: "LiczbaWierszyZakupow", Type: Count, Required: true},
		{Name: "PodatekNaliczony", Type: Amount, Required: true},
	}
}
