// Package pdf renders human-readable companions to the filed XML: a
// settlement summary (per-rate totals, carry-forward and the final amount)
// and a proof-of-receipt sheet for an accepted submission.
package pdf

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"

	"github.com/csg33k/jpk-vat/internal/domain"
)

// WriteSettlement writes a one-page settlement summary to w.
func WriteSettlement(c domain.ClientProfile, s *domain.PeriodSettlement, w io.Writer) error {
	pdf := newDocument()
	pdf.AddPage()
	p := page{pdf: pdf}
	p.init()

	p.headerBar(fmt.Sprintf("JPK_V7  ROZLICZENIE VAT  %s", s.Period))
	p.section("PODATNIK")
	p.pair("Nazwa: "+c.DisplayName(), "NIP: "+formatNIP(c.NIP))
	p.pair(fmt.Sprintf("Okres: %s (%s)", s.Period, strings.ToLower(string(s.Period.Filing()))),
		fmt.Sprintf("Wersja: %d   Status: %s", s.Version, s.Status))
	p.close()

	p.y += 4
	p.bucketTable("Podatek nalezny wg stawki", s.OutputByRate)
	p.y += 3
	p.bucketTable("Podatek naliczony wg stawki", s.InputByRate)

	p.y += 5
	p.section("ROZLICZENIE")
	rows := []struct {
		label string
		v     decimal.Decimal
	}{
		{"Podatek nalezny razem", s.OutputTotal},
		{"Podatek naliczony razem", s.InputTotal},
		{"Pozycja netto (nalezny - naliczony)", s.NetPosition},
		{"Nadwyzka z poprzednich okresow", s.CarryForwardIn},
		{"Nadwyzka wykorzystana", s.CarryForwardConsumed},
		{"Nadwyzka do przeniesienia", s.CarryForwardOut},
		{"Kwota do wplaty", s.FinalDue},
		{"Kwota do zwrotu", s.FinalRefund},
		{"Zwrot przeniesiony na kolejny okres", s.RefundCarried},
	}
	for i, r := range rows {
		p.amountRow(r.label, r.v, i >= 6 && r.v.IsPositive())
	}
	p.close()

	p.footer(fmt.Sprintf("%s | NIP %s | %s v%d", c.DisplayName(), formatNIP(c.NIP), s.Period, s.Version),
		s.CalculatedAt)
	return pdf.Output(w)
}

// WriteReceipt writes the proof-of-receipt sheet for sub to w.
func WriteReceipt(c domain.ClientProfile, sub *domain.Submission, proof domain.Proof, w io.Writer) error {
	pdf := newDocument()
	pdf.AddPage()
	p := page{pdf: pdf}
	p.init()

	p.headerBar("URZEDOWE POSWIADCZENIE ODBIORU (UPO)")
	p.section("DOKUMENT")
	p.pair("Podatnik: "+c.DisplayName(), "NIP: "+formatNIP(c.NIP))
	p.pair("Numer referencyjny: "+proof.ReferenceNumber, "Kod urzedu: "+proof.OfficeCode)
	p.pair("Data wplyniecia: "+formatTime(proof.ReceivedAt), "Status: "+sub.Status.String())
	p.line("Skrot dokumentu (SHA-256): " + proof.DocumentDigest)
	p.close()

	p.y += 5
	p.tableHeader([]string{"Czas", "Zmiana statusu", "Zrodlo", "Kod"}, []float64{0.26, 0.34, 0.2, 0.2})
	for i, ev := range sub.History {
		from := string(ev.From)
		if from == "" {
			from = "-"
		}
		p.tableRow(i, []string{formatTime(ev.At), from + " -> " + string(ev.To), ev.Source, ev.Code},
			[]float64{0.26, 0.34, 0.2, 0.2})
	}

	p.footer(fmt.Sprintf("Zgloszenie %s | proby: %d", sub.ID, len(sub.Attempts)), proof.ReceivedAt)
	return pdf.Output(w)
}

func newDocument() *fpdf.Fpdf {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(18, 18, 18)
	pdf.SetAutoPageBreak(true, 18)
	pdf.AliasNbPages("{nb}")
	return pdf
}

// page tracks the cursor and content box of the current page.
type page struct {
	pdf      *fpdf.Fpdf
	marginL  float64
	contentW float64
	pageH    float64
	marginB  float64
	y        float64
}

func (p *page) init() {
	pageW, pageH := p.pdf.GetPageSize()
	marginL, marginT, marginR, marginB := p.pdf.GetMargins()
	p.marginL, p.pageH, p.marginB = marginL, pageH, marginB
	p.contentW = pageW - marginL - marginR
	p.y = marginT
}

func (p *page) headerBar(title string) {
	pdf := p.pdf
	pdf.SetFillColor(30, 30, 30)
	pdf.Rect(p.marginL, p.y, p.contentW, 10, "F")
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 11)
	pdf.SetXY(p.marginL+2, p.y+1.5)
	pdf.CellFormat(p.contentW-30, 7, plain(title), "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(0, 7, "Strona "+fmt.Sprint(pdf.PageNo())+" z {nb}", "", 1, "R", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
	p.y += 13
}

func (p *page) section(title string) {
	p.pdf.SetFillColor(240, 240, 240)
	p.pdf.SetFont("Helvetica", "B", 8)
	p.pdf.SetXY(p.marginL, p.y)
	p.pdf.CellFormat(p.contentW, 5.5, plain(title), "LRT", 1, "L", true, 0, "")
	p.y += 5.5
}

func (p *page) pair(left, right string) {
	half := p.contentW / 2
	p.pdf.SetFont("Helvetica", "", 9)
	p.pdf.SetXY(p.marginL, p.y)
	p.pdf.CellFormat(half, 6, plain(left), "L", 0, "L", false, 0, "")
	p.pdf.CellFormat(half, 6, plain(right), "R", 1, "L", false, 0, "")
	p.y += 6
}

func (p *page) line(text string) {
	p.pdf.SetFont("Helvetica", "", 8.5)
	p.pdf.SetXY(p.marginL, p.y)
	p.pdf.CellFormat(p.contentW, 5.5, plain(text), "LR", 1, "L", false, 0, "")
	p.y += 5.5
}

// close draws the bottom border of the open box.
func (p *page) close() {
	p.pdf.SetXY(p.marginL, p.y)
	p.pdf.CellFormat(p.contentW, 0, "", "LRB", 1, "L", false, 0, "")
}

func (p *page) amountRow(label string, v decimal.Decimal, highlight bool) {
	labelW := p.contentW * 0.7
	p.pdf.SetXY(p.marginL, p.y)
	if highlight {
		p.pdf.SetFont("Helvetica", "B", 9)
		p.pdf.SetFillColor(220, 240, 220)
	} else {
		p.pdf.SetFont("Helvetica", "", 9)
		p.pdf.SetFillColor(255, 255, 255)
	}
	p.pdf.CellFormat(labelW, 6, plain(label), "L", 0, "L", true, 0, "")
	p.pdf.CellFormat(p.contentW-labelW, 6, formatPLN(v), "R", 1, "R", true, 0, "")
	p.y += 6
}

func (p *page) bucketTable(title string, buckets []domain.Bucket) {
	widths := []float64{0.4, 0.1, 0.25, 0.25}
	p.tableHeader([]string{title, "Poz.", "Netto", "VAT"}, widths)
	if len(buckets) == 0 {
		p.tableRow(0, []string{"brak", "", formatPLN(decimal.Zero), formatPLN(decimal.Zero)}, widths)
		return
	}
	for i, b := range buckets {
		p.tableRow(i, []string{rateLabel(b.Key), fmt.Sprint(b.Count), formatPLN(b.Net), formatPLN(b.VAT)}, widths)
	}
}

func (p *page) tableHeader(cols []string, widths []float64) {
	pdf := p.pdf
	pdf.SetFillColor(30, 30, 30)
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 8.5)
	pdf.SetXY(p.marginL, p.y)
	for i, c := range cols {
		ln := 0
		if i == len(cols)-1 {
			ln = 1
		}
		align := "C"
		if i == 0 {
			align = "L"
		}
		pdf.CellFormat(p.contentW*widths[i], 7, plain(c), "1", ln, align, true, 0, "")
	}
	pdf.SetTextColor(0, 0, 0)
	p.y += 7
}

func (p *page) tableRow(i int, cols []string, widths []float64) {
	pdf := p.pdf
	if i%2 == 0 {
		pdf.SetFillColor(250, 250, 250)
	} else {
		pdf.SetFillColor(255, 255, 255)
	}
	pdf.SetFont("Helvetica", "", 8.5)
	pdf.SetXY(p.marginL, p.y)
	for j, c := range cols {
		ln := 0
		if j == len(cols)-1 {
			ln = 1
		}
		align := "R"
		if j == 0 {
			align = "L"
		}
		pdf.CellFormat(p.contentW*widths[j], 6.5, plain(c), "1", ln, align, true, 0, "")
	}
	p.y += 6.5
}

func (p *page) footer(right string, at time.Time) {
	pdf := p.pdf
	pdf.SetXY(p.marginL, p.pageH-p.marginB-6)
	pdf.SetFont("Helvetica", "I", 7.5)
	pdf.SetTextColor(130, 130, 130)
	pdf.CellFormat(p.contentW/2, 5, "Wygenerowano "+formatTime(at), "", 0, "L", false, 0, "")
	pdf.CellFormat(p.contentW/2, 5, plain(right), "", 0, "R", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
}

// ── Helpers ──────────────────────────────────────────────────────────────────

// The core Helvetica font has no Polish glyphs.
var transliterate = strings.NewReplacer(
	"ą", "a", "ć", "c", "ę", "e", "ł", "l", "ń", "n", "ó", "o", "ś", "s", "ź", "z", "ż", "z",
	"Ą", "A", "Ć", "C", "Ę", "E", "Ł", "L", "Ń", "N", "Ó", "O", "Ś", "S", "Ź", "Z", "Ż", "Z",
)

func plain(s string) string { return transliterate.Replace(s) }

func formatNIP(nip string) string {
	d := domain.CleanNIP(nip)
	if len(d) == 10 {
		return d[:3] + "-" + d[3:6] + "-" + d[6:8] + "-" + d[8:]
	}
	return nip
}

// formatPLN renders 1234567.8 as "1 234 567,80 zl".
func formatPLN(v decimal.Decimal) string {
	s := v.StringFixed(2)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	whole, frac, _ := strings.Cut(s, ".")
	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	out := b.String() + "," + frac + " zl"
	if neg {
		return "-" + out
	}
	return out
}

func rateLabel(key string) string {
	switch key {
	case "zw":
		return "zwolnione"
	case "np":
		return "niepodlegajace"
	case "oo":
		return "odwrotne obciazenie"
	}
	if _, err := decimal.NewFromString(key); err == nil {
		return key + "%"
	}
	return key
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format("2006-01-02 15:04 MST")
}
