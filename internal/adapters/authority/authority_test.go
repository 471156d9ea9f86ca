package authority_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/csg33k/jpk-vat/internal/adapters/authority"
	"github.com/csg33k/jpk-vat/internal/domain"
)

func newClient(t *testing.T, h http.Handler) *authority.Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := authority.New(authority.Config{BaseURL: srv.URL + "/api/v1", Token: "s3cret"}, zerolog.Nop())
	require.NoError(t, err)
	return c
}

func TestClient_Upload(t *testing.T) {
	var got *http.Request
	var body []byte
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r
		body, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"referenceNumber":"a1b2c3d4e5f6"}`))
	}))

	ref, err := c.Upload(context.Background(), []byte("<JPK/>"), domain.UploadMetadata{
		SubmissionID:  "sub-1",
		FormCode:      "JPK_V7M",
		SchemaVersion: "JPK_V7M(2)",
		Digest:        "abc",
		Attempt:       2,
	})
	require.NoError(t, err)
	assert.Equal(t, "a1b2c3d4e5f6", ref)
	assert.Equal(t, http.MethodPost, got.Method)
	assert.Equal(t, "/api/v1/documents", got.URL.Path)
	assert.Equal(t, "Bearer s3cret", got.Header.Get("Authorization"))
	assert.Equal(t, "JPK_V7M(2)", got.Header.Get("X-Schema-Version"))
	assert.Equal(t, "2", got.Header.Get("X-Attempt"))
	assert.Equal(t, "application/xml", got.Header.Get("Content-Type"))
	assert.Equal(t, "<JPK/>", string(body))
}

func TestClient_StatusAndProof(t *testing.T) {
	proof := authority.ProofDocument("REF-1", "abc", "1471", time.Date(2024, 4, 20, 9, 0, 0, 0, time.UTC))
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/documents/REF-1/status":
			_ = json.NewEncoder(w).Encode(map[string]any{"code": 302, "description": "Dokument w trakcie weryfikacji"})
		case "/api/v1/documents/REF-1/upo":
			assert.Equal(t, "application/xml", r.Header.Get("Accept"))
			_, _ = w.Write(proof)
		default:
			http.NotFound(w, r)
		}
	}))

	st, err := c.CheckStatus(context.Background(), "REF-1")
	require.NoError(t, err)
	assert.Equal(t, 302, st.Code)
	assert.Equal(t, "Dokument w trakcie weryfikacji", st.Description)

	raw, err := c.RetrieveProof(context.Background(), "REF-1")
	require.NoError(t, err)
	assert.Equal(t, proof, raw)
}

func TestClient_ErrorClassification(t *testing.T) {
	tests := []struct {
		status int
		body   string
		want   domain.ErrorKind
		code   string
	}{
		{http.StatusUnauthorized, `{"code":"TOKEN_EXPIRED","message":"token expired"}`, domain.KindCredential, "AUTHORITY_TOKEN_EXPIRED"},
		{http.StatusForbidden, ``, domain.KindCredential, "AUTHORITY_403"},
		{http.StatusUnprocessableEntity, `{"code":"SCHEMA","message":"niezgodność ze schematem"}`, domain.KindRejected, "SCHEMA"},
		{http.StatusBadRequest, `bad request`, domain.KindRejected, "400"},
		{http.StatusServiceUnavailable, `maintenance`, domain.KindTransient, "HTTP_503"},
		{http.StatusTooManyRequests, ``, domain.KindTransient, "HTTP_429"},
		{http.StatusNotFound, ``, domain.KindTransient, "HTTP_404"},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			_, err := c.CheckStatus(context.Background(), "REF")
			require.Error(t, err)
			assert.Equal(t, tt.want, domain.KindOf(err))
			var de *domain.Error
			require.ErrorAs(t, err, &de)
			assert.Equal(t, tt.code, de.Code)
		})
	}
}

func TestClient_NetworkFailureIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	c, err := authority.New(authority.Config{BaseURL: srv.URL}, zerolog.Nop())
	require.NoError(t, err)

	_, err = c.Upload(context.Background(), []byte("x"), domain.UploadMetadata{})
	require.Error(t, err)
	assert.True(t, domain.IsRetryable(err))
}

func TestClient_BreakerOpensOnTransportFailures(t *testing.T) {
	var hits atomic.Int32
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))

	for i := 0; i < 5; i++ {
		_, err := c.CheckStatus(context.Background(), "REF")
		require.Error(t, err)
	}
	_, err := c.CheckStatus(context.Background(), "REF")
	var de *domain.Error
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "CIRCUIT_OPEN", de.Code)
	assert.True(t, domain.IsRetryable(err))
	assert.Equal(t, int32(5), hits.Load())
	assert.Equal(t, "open", c.State())
}

func TestClient_RejectionsDoNotTripBreaker(t *testing.T) {
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	for i := 0; i < 8; i++ {
		_, err := c.CheckStatus(context.Background(), "REF")
		assert.Equal(t, domain.KindRejected, domain.KindOf(err))
	}
	assert.Equal(t, "closed", c.State())
}

func TestNew_InvalidBaseURL(t *testing.T) {
	_, err := authority.New(authority.Config{BaseURL: "not a url"}, zerolog.Nop())
	assert.Error(t, err)
}

func TestProofParser(t *testing.T) {
	received := time.Date(2024, 4, 20, 9, 15, 0, 0, time.UTC)
	raw := authority.ProofDocument("REF-1", "ABCDEF", "1471", received)

	p, err := authority.ProofParser{}.ParseProof(raw)
	require.NoError(t, err)
	assert.Equal(t, "REF-1", p.ReferenceNumber)
	assert.Equal(t, "abcdef", p.DocumentDigest)
	assert.Equal(t, "1471", p.OfficeCode)
	assert.True(t, received.Equal(p.ReceivedAt))
	assert.Equal(t, raw, p.Raw)

	local := []byte(`<Potwierdzenie xmlns="http://e-deklaracje.mf.gov.pl/Repozytorium/Definicje/Potwierdzenie/">
  <NumerReferencyjny>REF-2</NumerReferencyjny>
  <DataWplyniecia>2024-04-20T11:15:00</DataWplyniecia>
</Potwierdzenie>`)
	p, err = authority.ProofParser{}.ParseProof(local)
	require.NoError(t, err)
	assert.Equal(t, "REF-2", p.ReferenceNumber)
	assert.Equal(t, 11, p.ReceivedAt.Hour())

	for name, bad := range map[string]string{
		"malformed":    "<Potwierdzenie>",
		"no reference": "<Potwierdzenie><KodUrzedu>1471</KodUrzedu></Potwierdzenie>",
		"bad time":     "<Potwierdzenie><NumerReferencyjny>R</NumerReferencyjny><DataWplyniecia>wczoraj</DataWplyniecia></Potwierdzenie>",
		"wrong root":   "<Deklaracja><NumerReferencyjny>R</NumerReferencyjny></Deklaracja>",
	} {
		_, err := authority.ProofParser{}.ParseProof([]byte(bad))
		assert.Equal(t, domain.KindValidation, domain.KindOf(err), name)
	}
}

func TestWebhookVerifier(t *testing.T) {
	v, err := authority.NewWebhookVerifier("0123456789abcdef0123")
	require.NoError(t, err)
	ev := domain.WebhookEvent{
		ID:              "ev-1",
		Type:            domain.WebhookProofReady,
		ReferenceNumber: "REF-1",
		OccurredAt:      time.Date(2024, 4, 20, 9, 0, 0, 0, time.UTC),
	}
	signed, err := v.Sign(ev)
	require.NoError(t, err)

	got, err := v.Verify(append(signed, '\n'))
	require.NoError(t, err)
	assert.Equal(t, ev, got)

	t.Run("wrong secret", func(t *testing.T) {
		other, err := authority.NewWebhookVerifier("another-secret-of-20")
		require.NoError(t, err)
		_, err = other.Verify(signed)
		assert.ErrorIs(t, err, domain.ErrInvalidSignature)
	})

	t.Run("tampered payload", func(t *testing.T) {
		parts := strings.Split(string(signed), ".")
		require.Len(t, parts, 3)
		forged, err := v.Sign(domain.WebhookEvent{Type: domain.WebhookRejected, ReferenceNumber: "REF-1"})
		require.NoError(t, err)
		parts[1] = strings.Split(string(forged), ".")[1]
		_, err = v.Verify([]byte(strings.Join(parts, ".")))
		assert.ErrorIs(t, err, domain.ErrInvalidSignature)
	})

	t.Run("unknown type", func(t *testing.T) {
		signed, err := v.Sign(domain.WebhookEvent{Type: "DELETED", ReferenceNumber: "REF-1"})
		require.NoError(t, err)
		_, err = v.Verify(signed)
		assert.Equal(t, domain.KindValidation, domain.KindOf(err))
	})

	t.Run("short secret", func(t *testing.T) {
		_, err := authority.NewWebhookVerifier("short")
		assert.Error(t, err)
	})
}
