package jpk_test

import (
	"bytes"
	"encoding/xml"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/csg33k/jpk-vat/internal/adapters/jpk"
	"github.com/csg33k/jpk-vat/internal/adapters/jpk/schema"
	"github.com/csg33k/jpk-vat/internal/domain"
	"github.com/csg33k/jpk-vat/internal/settlement"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

var (
	march       = domain.Monthly(2024, 3)
	generatedAt = time.Date(2024, 4, 10, 8, 30, 0, 0, time.UTC)
	rateValues  = map[string]string{"23": "0.23", "8": "0.08", "0": "0", "zw": "0"}
)

func legalEntity() domain.ClientProfile {
	return domain.ClientProfile{
		ID:            "c1",
		Kind:          domain.TaxpayerLegalEntity,
		NIP:           "526-104-08-28",
		FullName:      "Acme Sp. z o.o.",
		Email:         "biuro@acme.example",
		TaxOfficeCode: "1471",
		Filing:        domain.FilingMonthly,
	}
}

func record(id string, seq int64, dir domain.Direction, typ domain.TransactionType, net, code string) domain.Transaction {
	rate := decimal.RequireFromString(rateValues[code])
	n := decimal.RequireFromString(net)
	vat, gross := domain.VATFromNet(n, rate)
	return domain.Transaction{
		ID:               id,
		ClientID:         "c1",
		Sequence:         seq,
		DocumentNumber:   "FV/" + id,
		Type:             typ,
		Direction:        dir,
		RateCode:         code,
		RateValue:        rate,
		Net:              n,
		VAT:              vat,
		Gross:            gross,
		Date:             time.Date(2024, 3, int(seq)+1, 0, 0, 0, 0, time.UTC),
		Period:           march,
		Classification:   &domain.Classification{},
		CounterpartyID:   "1234563218",
		CounterpartyName: "Kontrahent " + id,
		Status:           domain.TransactionPosted,
	}
}

func settle(t *testing.T, period domain.PeriodKey, records []domain.Transaction, cfIn string) *domain.PeriodSettlement {
	t.Helper()
	s, err := settlement.NewAggregator().Aggregate(period, records, decimal.RequireFromString(cfIn))
	require.NoError(t, err)
	s.ID = "s-" + period.String()
	return s
}

func options(version string, withDecl bool) jpk.Options {
	return jpk.Options{
		SchemaVersion:   version,
		Purpose:         domain.PurposeOriginal,
		GeneratedAt:     generatedAt,
		WithDeclaration: withDecl,
		SystemName:      "jpk-vat",
	}
}

type codeValue struct {
	Value  string `xml:",chardata"`
	System string `xml:"kodSystemowy,attr"`
	Schema string `xml:"wersjaSchemy,attr"`
}

type saleRow struct {
	Lp    int    `xml:"LpSprzedazy"`
	Dowod string `xml:"DowodSprzedazy"`
	Nr    string `xml:"NrKontrahenta"`
	Kraj  string `xml:"KodKrajuNadaniaTIN"`
	K19   string `xml:"K_19"`
	K20   string `xml:"K_20"`
	K21   string `xml:"K_21"`
	GTU06 string `xml:"GTU_06"`
}

type purchaseRow struct {
	Lp    int    `xml:"LpZakupu"`
	Dowod string `xml:"DowodZakupu"`
	K40   string `xml:"K_40"`
	K41   string `xml:"K_41"`
	K42   string `xml:"K_42"`
	K43   string `xml:"K_43"`
}

type parsed struct {
	XMLName xml.Name `xml:"JPK"`
	Header  struct {
		Kod     codeValue `xml:"KodFormularza"`
		Wariant string    `xml:"WariantFormularza"`
		Data    string    `xml:"DataWytworzeniaJPK"`
		Cel     string    `xml:"CelZlozenia"`
		Urzad   string    `xml:"KodUrzedu"`
		Rok     int       `xml:"Rok"`
		Miesiac int       `xml:"Miesiac"`
		Kwartal int       `xml:"Kwartal"`
	} `xml:"Naglowek"`
	Podmiot struct {
		Rola  string `xml:"rola,attr"`
		Firma *struct {
			NIP   string `xml:"NIP"`
			Nazwa string `xml:"PelnaNazwa"`
		} `xml:"OsobaNiefizyczna"`
		Osoba *struct {
			NIP      string `xml:"NIP"`
			Imie     string `xml:"ImiePierwsze"`
			Nazwisko string `xml:"Nazwisko"`
			Urodzony string `xml:"DataUrodzenia"`
		} `xml:"OsobaFizyczna"`
	} `xml:"Podmiot1"`
	Deklaracja *struct {
		Kod       codeValue `xml:"Naglowek>KodFormularzaDekl"`
		Pozycje   positions `xml:"PozycjeSzczegolowe"`
		Pouczenia string    `xml:"Pouczenia"`
	} `xml:"Deklaracja"`
	Ewidencja struct {
		Sales    []saleRow `xml:"SprzedazWiersz"`
		SaleCtrl struct {
			Count int    `xml:"LiczbaWierszySprzedazy"`
			VAT   string `xml:"PodatekNalezny"`
		} `xml:"SprzedazCtrl"`
		Purchases    []purchaseRow `xml:"ZakupWiersz"`
		PurchaseCtrl struct {
			Count int    `xml:"LiczbaWierszyZakupow"`
			VAT   string `xml:"PodatekNaliczony"`
		} `xml:"ZakupCtrl"`
	} `xml:"Ewidencja"`
}

type positions struct {
	P19 string `xml:"P_19"`
	P20 string `xml:"P_20"`
	P37 string `xml:"P_37"`
	P38 string `xml:"P_38"`
	P39 string `xml:"P_39"`
	P42 string `xml:"P_42"`
	P43 string `xml:"P_43"`
	P48 string `xml:"P_48"`
	P51 string `xml:"P_51"`
	P53 string `xml:"P_53"`
	P54 string `xml:"P_54"`
	P62 string `xml:"P_62"`
}

func parse(t *testing.T, b []byte) parsed {
	t.Helper()
	var p parsed
	require.NoError(t, xml.Unmarshal(b, &p))
	return p
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestSerialize_StructureAndControlTotals(t *testing.T) {
	wdt := record("s3", 4, domain.DirectionOutput, domain.TypeWDT, "5000.00", "0")
	wdt.CrossBorder = true
	wdt.ForeignVATID = "DE811907980"
	wdt.ForeignVATVerified = true
	wdt.CounterpartyCountry = "DE"

	asset := record("p2", 5, domain.DirectionInput, domain.TypeFixedAsset, "2000.00", "23")

	records := []domain.Transaction{
		record("s1", 3, domain.DirectionOutput, domain.TypeDomestic, "10000.00", "23"),
		record("s2", 1, domain.DirectionOutput, domain.TypeDomestic, "100.00", "8"),
		record("p1", 2, domain.DirectionInput, domain.TypeDomestic, "3000.00", "23"),
		wdt,
		asset,
	}
	st := settle(t, march, records, "0")

	res, err := jpk.New().Serialize(legalEntity(), st, records, options(schema.V7M1, false))
	require.NoError(t, err)
	assert.Equal(t, 3, res.SaleRows)
	assert.Equal(t, 2, res.PurchaseRows)
	assert.Len(t, res.Digest, 64)

	doc := parse(t, res.Bytes)
	assert.Equal(t, "JPK_VAT", doc.Header.Kod.Value)
	assert.Equal(t, "JPK_V7M (1)", doc.Header.Kod.System)
	assert.Equal(t, "1-2E", doc.Header.Kod.Schema)
	assert.Equal(t, "1", doc.Header.Wariant)
	assert.Equal(t, "2024-04-10T08:30:00Z", doc.Header.Data)
	assert.Equal(t, "1", doc.Header.Cel)
	assert.Equal(t, "1471", doc.Header.Urzad)
	assert.Equal(t, 2024, doc.Header.Rok)
	assert.Equal(t, 3, doc.Header.Miesiac)

	assert.Equal(t, "Podatnik", doc.Podmiot.Rola)
	require.NotNil(t, doc.Podmiot.Firma)
	assert.Equal(t, "5261040828", doc.Podmiot.Firma.NIP)
	assert.Nil(t, doc.Podmiot.Osoba)
	assert.Nil(t, doc.Deklaracja)

	sales := doc.Ewidencja.Sales
	require.Len(t, sales, 3)
	assert.Equal(t, []string{"FV/s2", "FV/s1", "FV/s3"}, []string{sales[0].Dowod, sales[1].Dowod, sales[2].Dowod}, "ingestion order")
	for i, s := range sales {
		assert.Equal(t, i+1, s.Lp)
	}
	assert.Equal(t, "10000.00", sales[1].K19)
	assert.Equal(t, "2300.00", sales[1].K20)
	assert.Equal(t, "5000.00", sales[2].K21)
	assert.Equal(t, "DE", sales[2].Kraj)
	assert.Equal(t, "DE811907980", sales[2].Nr)

	assert.Equal(t, 3, doc.Ewidencja.SaleCtrl.Count)
	assert.Equal(t, "2308.00", doc.Ewidencja.SaleCtrl.VAT)

	purchases := doc.Ewidencja.Purchases
	require.Len(t, purchases, 2)
	assert.Equal(t, "3000.00", purchases[0].K42)
	assert.Equal(t, "690.00", purchases[0].K43)
	assert.Equal(t, "2000.00", purchases[1].K40)
	assert.Equal(t, "460.00", purchases[1].K41)
	assert.Equal(t, 2, doc.Ewidencja.PurchaseCtrl.Count)
	assert.Equal(t, "1150.00", doc.Ewidencja.PurchaseCtrl.VAT)
}

func TestSerialize_Deterministic(t *testing.T) {
	records := []domain.Transaction{
		record("a", 1, domain.DirectionOutput, domain.TypeDomestic, "123.45", "23"),
		record("b", 2, domain.DirectionInput, domain.TypeDomestic, "67.89", "8"),
		record("c", 3, domain.DirectionBoth, domain.TypeWNT, "1000.00", "23"),
	}
	st := settle(t, march, records, "10.00")
	s := jpk.New()

	first, err := s.Serialize(legalEntity(), st, records, options(schema.V7M2, true))
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := s.Serialize(legalEntity(), st, records, options(schema.V7M2, true))
		require.NoError(t, err)
		assert.True(t, bytes.Equal(first.Bytes, again.Bytes), "run %d differs", i)
		assert.Equal(t, first.Digest, again.Digest)
	}
	assert.Equal(t, jpk.Digest(first.Bytes), first.Digest)
}

func TestSerialize_OrderIgnoresInputSliceOrder(t *testing.T) {
	a := record("a", 1, domain.DirectionOutput, domain.TypeDomestic, "10.00", "23")
	b := record("b", 2, domain.DirectionOutput, domain.TypeDomestic, "10.00", "23")
	st := settle(t, march, []domain.Transaction{a, b}, "0")

	one, err := jpk.New().Serialize(legalEntity(), st, []domain.Transaction{a, b}, options(schema.V7M1, false))
	require.NoError(t, err)
	two, err := jpk.New().Serialize(legalEntity(), st, []domain.Transaction{b, a}, options(schema.V7M1, false))
	require.NoError(t, err)
	assert.Equal(t, one.Digest, two.Digest)
}

func TestSerialize_DeclarationPositions(t *testing.T) {
	records := []domain.Transaction{
		record("s1", 1, domain.DirectionOutput, domain.TypeDomestic, "10000.00", "23"),
		record("p1", 2, domain.DirectionInput, domain.TypeDomestic, "3000.00", "23"),
	}

	tests := []struct {
		name    string
		records []domain.Transaction
		cfIn    string
		elect   domain.RefundDisposition
		want    positions
	}{
		{
			name: "due", records: records, cfIn: "0", elect: domain.RefundPayout,
			want: positions{P19: "10000", P20: "2300", P37: "10000", P38: "2300", P42: "3000", P43: "690", P48: "690", P51: "1610", P53: "0", P62: "0"},
		},
		{
			name: "due with carry-forward", records: records, cfIn: "500.00", elect: domain.RefundPayout,
			want: positions{P19: "10000", P20: "2300", P37: "10000", P38: "2300", P39: "500", P42: "3000", P43: "690", P48: "1190", P51: "1110", P53: "0", P62: "0"},
		},
		{
			name: "refund paid out",
			records: []domain.Transaction{
				record("s1", 1, domain.DirectionOutput, domain.TypeDomestic, "1000.00", "23"),
				record("p1", 2, domain.DirectionInput, domain.TypeDomestic, "5000.00", "23"),
			},
			cfIn: "0", elect: domain.RefundPayout,
			want: positions{P19: "1000", P20: "230", P37: "1000", P38: "230", P42: "5000", P43: "1150", P48: "1150", P51: "0", P53: "920", P54: "920", P62: "0"},
		},
		{
			name: "refund carried forward",
			records: []domain.Transaction{
				record("s1", 1, domain.DirectionOutput, domain.TypeDomestic, "1000.00", "23"),
				record("p1", 2, domain.DirectionInput, domain.TypeDomestic, "5000.00", "23"),
			},
			cfIn: "0", elect: domain.RefundCarryForward,
			want: positions{P19: "1000", P20: "230", P37: "1000", P38: "230", P42: "5000", P43: "1150", P48: "1150", P51: "0", P53: "920", P62: "920"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := settle(t, march, tt.records, tt.cfIn)
			settlement.ElectRefundDisposition(st, tt.elect)
			res, err := jpk.New().Serialize(legalEntity(), st, tt.records, options(schema.V7M1, true))
			require.NoError(t, err)

			doc := parse(t, res.Bytes)
			require.NotNil(t, doc.Deklaracja)
			assert.Equal(t, "VAT-7", doc.Deklaracja.Kod.Value)
			assert.Equal(t, "VAT-7 (21)", doc.Deklaracja.Kod.System)
			assert.Equal(t, "1", doc.Deklaracja.Pouczenia)
			assert.Equal(t, tt.want, doc.Deklaracja.Pozycje)
		})
	}
}

func TestSerialize_VersionDifferences(t *testing.T) {
	r := record("s1", 1, domain.DirectionOutput, domain.TypeDomestic, "20000.00", "23")
	r.Classification = &domain.Classification{GTU: []string{"GTU_06"}, Procedures: []string{"MPP", "SW"}, SplitPayment: true}
	records := []domain.Transaction{r}
	st := settle(t, march, records, "0")

	v1, err := jpk.New().Serialize(legalEntity(), st, records, options(schema.V7M1, false))
	require.NoError(t, err)
	v2, err := jpk.New().Serialize(legalEntity(), st, records, options(schema.V7M2, false))
	require.NoError(t, err)

	one, two := string(v1.Bytes), string(v2.Bytes)
	assert.Contains(t, one, `xmlns="http://crd.gov.pl/wzor/2020/05/08/9393/"`)
	assert.Contains(t, two, `xmlns="http://crd.gov.pl/wzor/2021/12/27/11148/"`)
	assert.Contains(t, one, "<SW>1</SW>")
	assert.Contains(t, one, "<MPP>1</MPP>")
	assert.NotContains(t, two, "<SW>")
	assert.NotContains(t, two, "<MPP>")
	assert.Contains(t, two, "<WSTO_EE>1</WSTO_EE>")
	assert.Contains(t, one, "<GTU_06>1</GTU_06>")
	assert.Contains(t, two, "<GTU_06>1</GTU_06>")
	assert.NotEqual(t, v1.Digest, v2.Digest)

	assert.Equal(t, "JPK_V7M (2)", parse(t, v2.Bytes).Header.Kod.System)
}

func TestSerialize_QuarterlyLayout(t *testing.T) {
	q1 := domain.Quarterly(2024, 1)
	r := record("s1", 1, domain.DirectionOutput, domain.TypeDomestic, "100.00", "23")
	r.Period = domain.Monthly(2024, 2)
	records := []domain.Transaction{r}
	st := settle(t, q1, records, "0")

	profile := legalEntity()
	profile.Filing = domain.FilingQuarterly
	res, err := jpk.New().Serialize(profile, st, records, options(schema.V7K2, true))
	require.NoError(t, err)

	doc := parse(t, res.Bytes)
	assert.Equal(t, 1, doc.Header.Kwartal)
	assert.Equal(t, 0, doc.Header.Miesiac)
	assert.Equal(t, "VAT-7K (16)", doc.Deklaracja.Kod.System)

	_, err = jpk.New().Serialize(profile, st, records, options(schema.V7M2, true))
	assert.True(t, errors.Is(err, domain.ErrFilingMismatch))
}

func TestSerialize_NaturalPerson(t *testing.T) {
	profile := domain.ClientProfile{
		Kind:          domain.TaxpayerNaturalPerson,
		NIP:           "1234563218",
		FirstName:     "Jan",
		LastName:      "Kowalski",
		BirthDate:     time.Date(1980, 5, 17, 0, 0, 0, 0, time.UTC),
		Email:         "jan@example.pl",
		TaxOfficeCode: "0202",
		Filing:        domain.FilingMonthly,
	}
	records := []domain.Transaction{record("s1", 1, domain.DirectionOutput, domain.TypeDomestic, "100.00", "zw")}
	st := settle(t, march, records, "0")

	res, err := jpk.New().Serialize(profile, st, records, options(schema.V7M2, false))
	require.NoError(t, err)
	out := string(res.Bytes)
	assert.Contains(t, out, "<etd:ImiePierwsze>Jan</etd:ImiePierwsze>")
	assert.Contains(t, out, "<etd:DataUrodzenia>1980-05-17</etd:DataUrodzenia>")
	assert.NotContains(t, out, "PelnaNazwa")
	assert.Contains(t, out, "<K_10>100.00</K_10>")

	doc := parse(t, res.Bytes)
	require.NotNil(t, doc.Podmiot.Osoba)
	assert.Equal(t, "Kowalski", doc.Podmiot.Osoba.Nazwisko)
}

func TestSerialize_EscapesText(t *testing.T) {
	r := record("s1", 1, domain.DirectionOutput, domain.TypeDomestic, "100.00", "23")
	r.CounterpartyName = "Kowalski & Syn <sp. j.>"
	records := []domain.Transaction{r}
	st := settle(t, march, records, "0")

	res, err := jpk.New().Serialize(legalEntity(), st, records, options(schema.V7M1, false))
	require.NoError(t, err)
	assert.Contains(t, string(res.Bytes), "Kowalski &amp; Syn &lt;sp. j.&gt;")
	parse(t, res.Bytes)
}

func TestSerialize_Errors(t *testing.T) {
	records := []domain.Transaction{record("s1", 1, domain.DirectionOutput, domain.TypeDomestic, "100.00", "23")}
	st := settle(t, march, records, "0")
	s := jpk.New()

	_, err := s.Serialize(legalEntity(), st, records, options("JPK_V7M(9)", false))
	assert.Equal(t, domain.KindValidation, domain.KindOf(err), "unknown version is never replaced by the latest")

	opts := options(schema.V7M1, false)
	opts.Purpose = "3"
	_, err = s.Serialize(legalEntity(), st, records, opts)
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))

	noEmail := legalEntity()
	noEmail.Email = ""
	_, err = s.Serialize(noEmail, st, records, options(schema.V7M1, false))
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "Email"))

	extra := append(records, record("s2", 2, domain.DirectionOutput, domain.TypeDomestic, "1.00", "23"))
	_, err = s.Serialize(legalEntity(), st, extra, options(schema.V7M1, false))
	assert.True(t, errors.Is(err, domain.ErrStaleSnapshot))
}
