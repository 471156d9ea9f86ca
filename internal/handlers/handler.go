package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/a-h/templ"
	"github.com/rs/zerolog"

	"github.com/csg33k/jpk-vat/internal/adapters/pdf"
	"github.com/csg33k/jpk-vat/internal/domain"
	"github.com/csg33k/jpk-vat/internal/service"
	"github.com/csg33k/jpk-vat/internal/templates"
)

// maxWebhookBody bounds what the webhook endpoint reads before verifying.
const maxWebhookBody = 1 << 20

// WebhookVerifier turns a signed notification body into a trusted event.
type WebhookVerifier interface {
	Verify(body []byte) (domain.WebhookEvent, error)
}

type Handler struct {
	svc      *service.DeclarationService
	verifier WebhookVerifier
	tenant   domain.TenantID
	log      zerolog.Logger
}

func New(svc *service.DeclarationService, verifier WebhookVerifier, tenant domain.TenantID, log zerolog.Logger) *Handler {
	return &Handler{svc: svc, verifier: verifier, tenant: tenant, log: log}
}

func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", h.index)
	mux.HandleFunc("POST /webhooks/authority", h.webhook)
	mux.HandleFunc("GET /submissions/{id}", h.viewSubmission)
	mux.HandleFunc("POST /submissions/{id}/cancel", h.cancelSubmission)
	mux.HandleFunc("POST /submissions/{id}/retry", h.retrySubmission)
	mux.HandleFunc("GET /submissions/{id}/receipt", h.receiptPDF)
	mux.HandleFunc("GET /settlements/{id}/pdf", h.settlementPDF)
	mux.HandleFunc("GET /documents/{id}", h.document)
	return mux
}

func (h *Handler) index(w http.ResponseWriter, r *http.Request) {
	subs, err := h.svc.Submissions(r.Context(), h.tenant)
	if err != nil {
		h.fail(w, err)
		return
	}
	render(w, r, templates.Index(subs))
}

// webhook verifies the body before anything in it is used. Events for
// unknown references are acknowledged so the gateway stops redelivering.
func (h *Handler) webhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	ev, err := h.verifier.Verify(body)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidSignature) {
			h.log.Warn().Err(err).Str("remote", r.RemoteAddr).Msg("webhook rejected")
			http.Error(w, "invalid signature", http.StatusUnauthorized)
			return
		}
		h.fail(w, err)
		return
	}
	sub, err := h.svc.HandleWebhook(r.Context(), h.tenant, ev)
	switch {
	case domain.KindOf(err) == domain.KindNotFound && sub == nil:
		h.log.Info().Str("reference", ev.ReferenceNumber).Str("event_id", ev.ID).Msg("webhook for unknown reference")
		w.WriteHeader(http.StatusAccepted)
	case err != nil:
		h.fail(w, err)
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

func (h *Handler) viewSubmission(w http.ResponseWriter, r *http.Request) {
	sub, err := h.svc.Submission(r.Context(), h.tenant, r.PathValue("id"))
	if err != nil {
		h.fail(w, err)
		return
	}
	render(w, r, templates.Detail(sub))
}

func (h *Handler) cancelSubmission(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	reason := strings.TrimSpace(r.FormValue("reason"))
	if reason == "" {
		reason = "cancelled by operator"
	}
	if _, err := h.svc.CancelSubmission(r.Context(), h.tenant, id, reason); err != nil {
		h.fail(w, err)
		return
	}
	h.afterAction(w, r, id)
}

// retrySubmission resumes a FAILED submission; ?force=1 lifts the retry gate.
func (h *Handler) retrySubmission(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	force := r.FormValue("force") == "1"
	sub, err := h.svc.RetrySubmission(r.Context(), h.tenant, id, force)
	if sub == nil {
		h.fail(w, err)
		return
	}
	// A retry that fails again is still recorded on the submission; the
	// page shows it.
	if err != nil && domain.KindOf(err) != domain.KindTransient {
		h.fail(w, err)
		return
	}
	h.afterAction(w, r, id)
}

func (h *Handler) afterAction(w http.ResponseWriter, r *http.Request, id string) {
	target := "/submissions/" + id
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", target)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (h *Handler) settlementPDF(w http.ResponseWriter, r *http.Request) {
	client, st, err := h.svc.SettlementSummary(r.Context(), h.tenant, r.PathValue("id"))
	if err != nil {
		h.fail(w, err)
		return
	}
	var buf bytes.Buffer
	if err := pdf.WriteSettlement(*client, st, &buf); err != nil {
		h.fail(w, err)
		return
	}
	filename := fmt.Sprintf("VAT_%s_%s_v%d.pdf", domain.CleanNIP(client.NIP), st.Period, st.Version)
	attachment(w, "application/pdf", filename, buf.Bytes())
}

func (h *Handler) receiptPDF(w http.ResponseWriter, r *http.Request) {
	client, sub, proof, err := h.svc.Receipt(r.Context(), h.tenant, r.PathValue("id"))
	if err != nil {
		h.fail(w, err)
		return
	}
	var buf bytes.Buffer
	if err := pdf.WriteReceipt(*client, sub, proof, &buf); err != nil {
		h.fail(w, err)
		return
	}
	attachment(w, "application/pdf", fmt.Sprintf("UPO_%s.pdf", proof.ReferenceNumber), buf.Bytes())
}

// document serves the stored XML after checking it against its digest.
func (h *Handler) document(w http.ResponseWriter, r *http.Request) {
	doc, data, err := h.svc.Document(r.Context(), h.tenant, r.PathValue("id"))
	if err != nil {
		h.fail(w, err)
		return
	}
	w.Header().Set("X-Content-SHA256", doc.Digest)
	filename := fmt.Sprintf("JPK_%s_v%d.xml", doc.Period, doc.SettlementVersion)
	attachment(w, "application/xml; charset=utf-8", filename, data)
}

// fail maps the error kind onto a status code. Validation and rule failures
// carry their message; anything internal is logged and hidden.
func (h *Handler) fail(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.log.Error().Err(err).Msg("request failed")
		http.Error(w, http.StatusText(status), status)
		return
	}
	http.Error(w, err.Error(), status)
}

func statusFor(err error) int {
	switch domain.KindOf(err) {
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindBusinessRule, domain.KindConflict:
		return http.StatusConflict
	case domain.KindRejected, domain.KindCredential:
		return http.StatusUnprocessableEntity
	case domain.KindTransient:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// render writes a templ component to the response.
func render(w http.ResponseWriter, r *http.Request, c templ.Component) {
	var buf bytes.Buffer
	if err := c.Render(r.Context(), &buf); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

func attachment(w http.ResponseWriter, contentType, filename string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.Write(data)
}
