// Package templates renders the operator pages. Each page is exposed as a
// templ.Component so handlers render them the same way whether the markup
// comes from html/template or from generated templ code.
package templates

import (
	"context"
	"html/template"
	"io"

	"github.com/a-h/templ"

	"github.com/csg33k/jpk-vat/internal/domain"
)

var funcs = template.FuncMap{
	"when":      when,
	"short":     short,
	"badge":     badge,
	"canCancel": canCancel,
}

var baseTmpl = template.Must(template.New("base").Funcs(funcs).Parse(`<!DOCTYPE html>
<html lang="pl">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>JPK_V7 · Wysyłka deklaracji</title>
<script src="https://unpkg.com/htmx.org@1.9.12"></script>
<link href="https://fonts.googleapis.com/css2?family=IBM+Plex+Mono:wght@400;600&family=IBM+Plex+Sans:wght@400;600&display=swap" rel="stylesheet">
<style>
  :root { --ink:#0d1117; --paper:#f5f0e8; --ledger:#e8e0cc; --accent:#c0392b; --accent2:#2c6e49; --muted:#6b5e4e; --rule:#b8a898; }
  body { background:var(--paper); color:var(--ink); font-family:'IBM Plex Sans',sans-serif; margin:0; }
  .mono { font-family:'IBM Plex Mono',monospace; }
  .card { background:rgba(255,255,255,0.7); border:1px solid var(--ledger); border-left:4px solid var(--ink); padding:20px; margin-bottom:20px; }
  .section-header { font-family:'IBM Plex Mono',monospace; font-size:0.7rem; font-weight:600; letter-spacing:0.18em; text-transform:uppercase; color:var(--muted); border-bottom:1px solid var(--rule); padding-bottom:4px; margin-bottom:12px; }
  table { width:100%; border-collapse:collapse; font-size:0.8rem; }
  th { text-align:left; font-family:'IBM Plex Mono',monospace; font-size:0.65rem; color:var(--muted); border-bottom:2px solid var(--ink); padding:4px; }
  td { border-bottom:1px solid var(--ledger); padding:4px; }
  .status { font-family:'IBM Plex Mono',monospace; font-weight:600; padding:1px 8px; border:2px solid; }
  .ok { color:var(--accent2); } .bad { color:var(--accent); } .busy { color:var(--ink); } .muted { color:var(--muted); }
  .btn { font-family:'IBM Plex Mono',monospace; font-weight:600; font-size:0.75rem; padding:6px 14px; border:2px solid var(--ink); background:var(--ink); color:white; cursor:pointer; text-transform:uppercase; }
  .btn-danger { background:white; color:var(--accent); border-color:var(--accent); }
</style>
</head>
<body>
<div style="max-width:1100px;margin:0 auto;padding:32px 24px;">
  <div style="font-family:'IBM Plex Mono',monospace;font-size:0.65rem;letter-spacing:0.2em;color:var(--muted);">JEDNOLITY PLIK KONTROLNY · VAT</div>
  <h1 class="mono" style="font-size:1.5rem;margin:4px 0 24px;"><a href="/" style="color:inherit;text-decoration:none;">Wysyłka JPK_V7</a></h1>
  {{template "content" .}}
</div>
</body>
</html>`))

var indexTmpl = template.Must(template.Must(baseTmpl.Clone()).Parse(`
{{define "content"}}
<div class="card">
  <div class="section-header">Zgłoszenia</div>
  {{if not .}}<p class="muted">Brak zgłoszeń.</p>{{else}}
  <table>
    <tr><th>ID</th><th>Dokument</th><th>Status</th><th>Nr referencyjny</th><th>Ponowienia</th><th>Aktualizacja</th></tr>
    {{range .}}
    <tr>
      <td class="mono"><a href="/submissions/{{.ID}}">{{short .ID}}</a></td>
      <td class="mono"><a href="/documents/{{.DocumentID}}">{{short .DocumentID}}</a></td>
      <td><span class="status {{badge .Status}}">{{.Status}}</span></td>
      <td class="mono">{{or .ReferenceNumber "-"}}</td>
      <td>{{.RetryCount}}</td>
      <td class="mono">{{when .UpdatedAt}}</td>
    </tr>
    {{end}}
  </table>
  {{end}}
</div>
{{end}}`))

var detailTmpl = template.Must(template.Must(baseTmpl.Clone()).Parse(`
{{define "content"}}
<div class="card" id="submission">
  <div class="section-header">Zgłoszenie {{.ID}}</div>
  <p><span class="status {{badge .Status}}">{{.Status}}</span></p>
  <table>
    <tr><td>Dokument</td><td class="mono"><a href="/documents/{{.DocumentID}}">{{.DocumentID}}</a></td></tr>
    <tr><td>Skrót SHA-256</td><td class="mono">{{.DocumentDigest}}</td></tr>
    <tr><td>Nr referencyjny</td><td class="mono">{{or .ReferenceNumber "-"}}</td></tr>
    <tr><td>Ponowienia</td><td>{{.RetryCount}}</td></tr>
    <tr><td>Następna próba</td><td class="mono">{{when .NextRetryAt}}</td></tr>
    <tr><td>Następne odpytanie</td><td class="mono">{{when .NextPollAt}}</td></tr>
    {{if .LastError}}<tr><td>Ostatni błąd</td><td class="bad">{{.LastErrorKind}}: {{.LastError}}</td></tr>{{end}}
    {{if .RejectionCode}}<tr><td>Odrzucenie</td><td class="bad">{{.RejectionCode}} {{.RejectionMessage}}</td></tr>{{end}}
    {{if .ProofLocator}}<tr><td>UPO</td><td><a href="/submissions/{{.ID}}/receipt">pobierz PDF</a></td></tr>{{end}}
  </table>
  <div style="margin-top:16px;display:flex;gap:8px;">
    {{if canCancel .}}
    <button class="btn btn-danger" hx-post="/submissions/{{.ID}}/cancel" hx-target="body" hx-confirm="Anulować zgłoszenie?">Anuluj</button>
    {{end}}
    {{if eq .Status "FAILED"}}
    <button class="btn" hx-post="/submissions/{{.ID}}/retry" hx-target="body">Ponów</button>
    <button class="btn btn-danger" hx-post="/submissions/{{.ID}}/retry?force=1" hx-target="body" hx-confirm="Wymusić ponowienie?">Wymuś</button>
    {{end}}
  </div>
</div>

<div class="card">
  <div class="section-header">Historia statusów</div>
  <table>
    <tr><th>Czas</th><th>Zmiana</th><th>Źródło</th><th>Kod</th><th>Opis</th></tr>
    {{range .History}}
    <tr><td class="mono">{{when .At}}</td><td>{{or .From "-"}} → {{.To}}</td><td>{{.Source}}</td><td class="mono">{{.Code}}</td><td>{{.Message}}</td></tr>
    {{end}}
  </table>
</div>

<div class="card">
  <div class="section-header">Próby</div>
  <table>
    <tr><th>#</th><th>Operacja</th><th>Start</th><th>Czas</th><th>Wynik</th></tr>
    {{range .Attempts}}
    <tr>
      <td>{{.Number}}</td><td class="mono">{{.Operation}}</td><td class="mono">{{when .StartedAt}}</td><td class="mono">{{.Duration}}</td>
      <td>{{if .Success}}<span class="ok">OK</span>{{else}}<span class="bad">{{.ErrorKind}} {{.Error}}</span>{{end}}</td>
    </tr>
    {{end}}
  </table>
</div>
{{end}}`))

func page(t *template.Template, data any) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		return t.ExecuteTemplate(w, "base", data)
	})
}

// Index lists submissions, newest first.
func Index(subs []domain.Submission) templ.Component { return page(indexTmpl, subs) }

// Detail shows one submission with its status history and attempt log.
func Detail(s *domain.Submission) templ.Component { return page(detailTmpl, s) }
