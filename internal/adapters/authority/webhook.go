package authority

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jws"

	"github.com/csg33k/jpk-vat/internal/domain"
)

// webhookPayload is the JSON carried inside the compact JWS.
type webhookPayload struct {
	ID              string    `json:"id"`
	Type            string    `json:"type"`
	ReferenceNumber string    `json:"referenceNumber"`
	StatusCode      int       `json:"statusCode,omitempty"`
	Message         string    `json:"message,omitempty"`
	OccurredAt      time.Time `json:"occurredAt"`
}

// WebhookVerifier checks HS256-signed notifications from the gateway.
type WebhookVerifier struct {
	secret []byte
}

func NewWebhookVerifier(secret string) (*WebhookVerifier, error) {
	if len(secret) < 16 {
		return nil, fmt.Errorf("webhook secret must be at least 16 bytes")
	}
	return &WebhookVerifier{secret: []byte(secret)}, nil
}

// Verify checks the signature and decodes the event. Nothing in an event is
// trusted before this returns.
func (v *WebhookVerifier) Verify(body []byte) (domain.WebhookEvent, error) {
	payload, err := jws.Verify([]byte(strings.TrimSpace(string(body))), jws.WithKey(jwa.HS256, v.secret))
	if err != nil {
		return domain.WebhookEvent{}, &domain.Error{
			Kind:    domain.KindValidation,
			Code:    "INVALID_SIGNATURE",
			Field:   "body",
			Message: "webhook signature verification failed",
			Cause:   fmt.Errorf("%w: %v", domain.ErrInvalidSignature, err),
		}
	}

	var p webhookPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return domain.WebhookEvent{}, domain.NewValidation("body", "malformed webhook payload: %v", err)
	}
	ev := domain.WebhookEvent{
		ID:              p.ID,
		Type:            domain.WebhookEventType(p.Type),
		ReferenceNumber: p.ReferenceNumber,
		StatusCode:      p.StatusCode,
		Message:         p.Message,
		OccurredAt:      p.OccurredAt,
	}
	switch ev.Type {
	case domain.WebhookStatusChanged, domain.WebhookProofReady, domain.WebhookRejected:
	default:
		return domain.WebhookEvent{}, domain.NewValidation("type", "unknown webhook event type %q", p.Type)
	}
	if ev.ReferenceNumber == "" {
		return domain.WebhookEvent{}, domain.NewValidation("referenceNumber", "webhook event has no reference number")
	}
	return ev, nil
}

// Sign produces the compact JWS the gateway would send for ev.
func (v *WebhookVerifier) Sign(ev domain.WebhookEvent) ([]byte, error) {
	payload, err := json.Marshal(webhookPayload{
		ID:              ev.ID,
		Type:            string(ev.Type),
		ReferenceNumber: ev.ReferenceNumber,
		StatusCode:      ev.StatusCode,
		Message:         ev.Message,
		OccurredAt:      ev.OccurredAt,
	})
	if err != nil {
		return nil, err
	}
	return jws.Sign(payload, jws.WithKey(jwa.HS256, v.secret))
}
