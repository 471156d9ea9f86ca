// Package authority talks to the tax authority's submission gateway:
// document upload, status checks, proof-of-receipt download and signed
// webhook notifications.
package authority

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"github.com/csg33k/jpk-vat/internal/domain"
)

// maxBody caps how much of a response is read.
const maxBody = 8 << 20

// BreakerConfig tunes the circuit breaker in front of the gateway.
type BreakerConfig struct {
	MaxRequests         uint32
	Interval            time.Duration
	Timeout             time.Duration
	ConsecutiveFailures uint32
}

// DefaultBreakerConfig suits a remote government gateway: trip after five
// straight transport failures, let a trial call through after ten seconds.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:         3,
		Interval:            2 * time.Minute,
		Timeout:             10 * time.Second,
		ConsecutiveFailures: 5,
	}
}

type Config struct {
	BaseURL string
	// Token is sent as a bearer credential when set.
	Token      string
	HTTPClient *http.Client
	Breaker    BreakerConfig
}

// Client implements ports.AuthorityClient over HTTP.
type Client struct {
	base    *url.URL
	token   string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
	log     zerolog.Logger
}

func New(cfg Config, log zerolog.Logger) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid authority base URL %q", cfg.BaseURL)
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	bc := cfg.Breaker
	if bc.ConsecutiveFailures == 0 {
		bc = DefaultBreakerConfig()
	}

	c := &Client{
		base:  base,
		token: cfg.Token,
		http:  hc,
		log:   log.With().Str("component", "authority").Logger(),
	}
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "authority",
		MaxRequests: bc.MaxRequests,
		Interval:    bc.Interval,
		Timeout:     bc.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= bc.ConsecutiveFailures
		},
		// Rejections and credential problems say nothing about gateway health.
		IsSuccessful: func(err error) bool {
			return err == nil || !domain.IsRetryable(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
		},
	})
	return c, nil
}

// State reports the breaker state for health pages.
func (c *Client) State() string { return c.breaker.State().String() }

type uploadResponse struct {
	ReferenceNumber string `json:"referenceNumber"`
}

type statusResponse struct {
	Code        int       `json:"code"`
	Description string    `json:"description"`
	Details     string    `json:"details"`
	Timestamp   time.Time `json:"timestamp"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Upload posts the document and returns the authority's reference number.
func (c *Client) Upload(ctx context.Context, document []byte, meta domain.UploadMetadata) (string, error) {
	header := http.Header{}
	header.Set("Content-Type", "application/xml")
	header.Set("X-Form-Code", meta.FormCode)
	header.Set("X-Schema-Version", meta.SchemaVersion)
	header.Set("X-Document-Digest", meta.Digest)
	header.Set("X-Submission-Id", meta.SubmissionID)
	header.Set("X-Attempt", strconv.Itoa(meta.Attempt))

	body, err := c.do(ctx, http.MethodPost, "documents", header, document)
	if err != nil {
		return "", err
	}
	var out uploadResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", domain.NewTransient("BAD_RESPONSE", fmt.Errorf("decode upload response: %w", err))
	}
	if out.ReferenceNumber == "" {
		return "", domain.NewTransient("BAD_RESPONSE", errors.New("upload response has no reference number"))
	}
	return out.ReferenceNumber, nil
}

// CheckStatus returns the raw status; interpretation is the orchestrator's.
func (c *Client) CheckStatus(ctx context.Context, ref string) (domain.AuthorityStatus, error) {
	body, err := c.do(ctx, http.MethodGet, "documents/"+url.PathEscape(ref)+"/status", nil, nil)
	if err != nil {
		return domain.AuthorityStatus{}, err
	}
	var out statusResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return domain.AuthorityStatus{}, domain.NewTransient("BAD_RESPONSE", fmt.Errorf("decode status response: %w", err))
	}
	return domain.AuthorityStatus{
		Code:        out.Code,
		Description: out.Description,
		Details:     out.Details,
		Timestamp:   out.Timestamp,
	}, nil
}

// RetrieveProof downloads the proof-of-receipt document.
func (c *Client) RetrieveProof(ctx context.Context, ref string) ([]byte, error) {
	header := http.Header{}
	header.Set("Accept", "application/xml")
	return c.do(ctx, http.MethodGet, "documents/"+url.PathEscape(ref)+"/upo", header, nil)
}

func (c *Client) do(ctx context.Context, method, path string, header http.Header, payload []byte) ([]byte, error) {
	res, err := c.breaker.Execute(func() (any, error) {
		return c.roundTrip(ctx, method, path, header, payload)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, domain.NewTransient("CIRCUIT_OPEN", fmt.Errorf("authority gateway unavailable: %w", err))
	}
	if err != nil {
		return nil, err
	}
	return res.([]byte), nil
}

func (c *Client) roundTrip(ctx context.Context, method, path string, header http.Header, payload []byte) ([]byte, error) {
	endpoint := c.base.JoinPath(path)
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), body)
	if err != nil {
		return nil, fmt.Errorf("request creation failed: %w", err)
	}
	for k, v := range header {
		req.Header[k] = v
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, domain.NewTransient("NETWORK", fmt.Errorf("%s %s: %w", method, path, err))
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, domain.NewTransient("NETWORK", fmt.Errorf("read %s response: %w", path, err))
	}
	c.log.Debug().Str("method", method).Str("path", path).Int("status", resp.StatusCode).Dur("duration", time.Since(start)).Msg("authority call")

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return data, nil
	}
	return nil, classify(resp.StatusCode, data)
}

// classify turns a non-2xx gateway response into the error taxonomy.
func classify(status int, body []byte) error {
	var er errorResponse
	_ = json.Unmarshal(body, &er)
	msg := er.Message
	if msg == "" {
		msg = strings.TrimSpace(string(body))
	}
	if msg == "" {
		msg = http.StatusText(status)
	}
	code := er.Code
	if code == "" {
		code = strconv.Itoa(status)
	}

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return domain.NewCredential("AUTHORITY_"+code, msg, nil)
	case status == http.StatusRequestTimeout || status == http.StatusTooManyRequests || status == http.StatusNotFound:
		return domain.NewTransient("HTTP_"+strconv.Itoa(status), errors.New(msg))
	case status >= 500:
		return domain.NewTransient("HTTP_"+strconv.Itoa(status), errors.New(msg))
	default:
		return domain.NewRejected(code, msg)
	}
}
