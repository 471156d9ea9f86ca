package submission_test

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/csg33k/jpk-vat/internal/adapters/memory"
	"github.com/csg33k/jpk-vat/internal/domain"
	"github.com/csg33k/jpk-vat/internal/ports/mocks"
	"github.com/csg33k/jpk-vat/internal/submission"
)

const tenant = domain.TenantID("biuro-1")

var (
	docBytes   = []byte(`<?xml version="1.0" encoding="UTF-8"?><JPK></JPK>`)
	proofBytes = []byte(`<Potwierdzenie><NumerReferencyjny>REF-1</NumerReferencyjny></Potwierdzenie>`)
	errNetwork = domain.NewTransient("NETWORK", errors.New("connection reset by peer"))
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

// until moves the clock to t when t is in the future.
func (c *fakeClock) until(t *time.Time) {
	if t != nil && t.After(c.now) {
		c.now = *t
	}
}

type fixture struct {
	ctx       context.Context
	store     *memory.Store
	authority *mocks.MockAuthorityClient
	signer    *mocks.MockSigner
	proofs    *mocks.MockProofParser
	clock     *fakeClock
	orch      *submission.Orchestrator
	doc       *domain.DeclarationDocument
}

type fixtureOption func(*fixture, *submission.Deps)

func withSigner() fixtureOption {
	return func(f *fixture, d *submission.Deps) { d.Signer = f.signer }
}

func newFixture(t *testing.T, p submission.Policy, opts ...fixtureOption) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	ctx := context.Background()
	store := memory.New()

	obj, err := store.Put(ctx, tenant, "jpk/2024-03.xml", "application/xml", docBytes)
	require.NoError(t, err)
	doc := &domain.DeclarationDocument{
		ClientID:      "client-1",
		Period:        domain.Monthly(2024, 3),
		SchemaVersion: "JPK_V7M(2)",
		Purpose:       domain.PurposeOriginal,
		Digest:        obj.Hash,
		Locator:       obj.Locator,
		Size:          obj.Size,
	}
	require.NoError(t, store.CreateDocument(ctx, tenant, doc))

	f := &fixture{
		ctx:       ctx,
		store:     store,
		authority: mocks.NewMockAuthorityClient(ctrl),
		signer:    mocks.NewMockSigner(ctrl),
		proofs:    mocks.NewMockProofParser(ctrl),
		clock:     &fakeClock{now: time.Date(2024, 4, 20, 9, 0, 0, 0, time.UTC)},
		doc:       doc,
	}
	deps := submission.Deps{
		Submissions: store,
		Documents:   store,
		Store:       store,
		Authority:   f.authority,
		Proofs:      f.proofs,
		Clock:       f.clock,
	}
	for _, o := range opts {
		o(f, &deps)
	}
	f.orch = submission.New(deps, p, zerolog.Nop()).WithSleeper(func(ctx context.Context, d time.Duration) error {
		f.clock.Advance(d)
		return ctx.Err()
	})
	return f
}

func (f *fixture) create(t *testing.T) *domain.Submission {
	t.Helper()
	s, err := f.orch.Create(f.ctx, tenant, f.doc.ID)
	require.NoError(t, err)
	return s
}

func (f *fixture) reload(t *testing.T, id string) *domain.Submission {
	t.Helper()
	s, err := f.store.GetSubmission(f.ctx, tenant, id)
	require.NoError(t, err)
	return s
}

func (f *fixture) submitted(t *testing.T) *domain.Submission {
	t.Helper()
	s := f.create(t)
	f.authority.EXPECT().Upload(gomock.Any(), docBytes, gomock.Any()).Return("REF-1", nil)
	s, err := f.orch.Upload(f.ctx, tenant, s.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusSubmitted, s.Status)
	return s
}

func (f *fixture) expectProof() {
	f.authority.EXPECT().RetrieveProof(gomock.Any(), "REF-1").Return(proofBytes, nil)
	f.proofs.EXPECT().ParseProof(proofBytes).Return(domain.Proof{
		ReferenceNumber: "REF-1",
		DocumentDigest:  f.doc.Digest,
		ReceivedAt:      f.clock.Now(),
		Raw:             proofBytes,
	}, nil)
}

func statuses(h []domain.StatusEvent) []domain.SubmissionStatus {
	out := make([]domain.SubmissionStatus, len(h))
	for i, e := range h {
		out[i] = e.To
	}
	return out
}

// ---------------------------------------------------------------------------
// Upload and retry
// ---------------------------------------------------------------------------

func TestUpload_ThreeFailuresThenSuccess(t *testing.T) {
	f := newFixture(t, submission.DefaultPolicy())
	s := f.create(t)

	var seen []int
	record := func(_ context.Context, _ []byte, meta domain.UploadMetadata) {
		seen = append(seen, meta.Attempt)
	}
	gomock.InOrder(
		f.authority.EXPECT().Upload(gomock.Any(), docBytes, gomock.Any()).
			Do(record).Return("", errNetwork).Times(3),
		f.authority.EXPECT().Upload(gomock.Any(), docBytes, gomock.Any()).
			Do(record).Return("REF-1", nil),
	)

	s, err := f.orch.Upload(f.ctx, tenant, s.ID)
	require.ErrorIs(t, err, errNetwork)
	lastCount := s.RetryCount
	for i := 0; i < 3; i++ {
		require.Equal(t, domain.StatusFailed, s.Status)
		require.NotNil(t, s.NextRetryAt)
		last := s.Attempts[len(s.Attempts)-1]
		assert.True(t, s.NextRetryAt.After(last.StartedAt), "nextRetryAt must be strictly after the failed attempt")

		f.clock.until(s.NextRetryAt)
		s, err = f.orch.Retry(f.ctx, tenant, s.ID)
		assert.GreaterOrEqual(t, s.RetryCount, lastCount)
		lastCount = s.RetryCount
	}
	require.NoError(t, err)

	got := f.reload(t, s.ID)
	assert.Equal(t, domain.StatusSubmitted, got.Status)
	assert.Equal(t, 3, got.RetryCount)
	assert.Equal(t, "REF-1", got.ReferenceNumber)
	assert.Nil(t, got.NextRetryAt)
	assert.Empty(t, got.LastError)
	require.Len(t, got.Attempts, 4)
	for i, a := range got.Attempts {
		assert.Equal(t, domain.OpUpload, a.Operation)
		assert.Equal(t, i+1, a.Number)
		assert.Equal(t, i == 3, a.Success)
	}
	assert.Equal(t, domain.KindTransient, got.Attempts[0].ErrorKind)
	assert.Equal(t, []int{1, 2, 3, 4}, seen)
}

func TestUpload_BackoffFollowsSchedule(t *testing.T) {
	f := newFixture(t, submission.DefaultPolicy())
	s := f.create(t)
	f.authority.EXPECT().Upload(gomock.Any(), gomock.Any(), gomock.Any()).Return("", errNetwork).Times(3)

	want := []time.Duration{time.Second, time.Minute, 5 * time.Minute}
	s, _ = f.orch.Upload(f.ctx, tenant, s.ID)
	for i, d := range want {
		started := s.Attempts[len(s.Attempts)-1].StartedAt
		require.NotNil(t, s.NextRetryAt)
		assert.Equal(t, d, s.NextRetryAt.Sub(started), "retry %d", i)
		if i < len(want)-1 {
			f.clock.until(s.NextRetryAt)
			s, _ = f.orch.Retry(f.ctx, tenant, s.ID)
		}
	}
}

func TestRetry_NotDue(t *testing.T) {
	f := newFixture(t, submission.DefaultPolicy())
	s := f.create(t)
	f.authority.EXPECT().Upload(gomock.Any(), gomock.Any(), gomock.Any()).Return("", errNetwork).Times(2)

	s, _ = f.orch.Upload(f.ctx, tenant, s.ID)
	f.clock.until(s.NextRetryAt)
	s, _ = f.orch.Retry(f.ctx, tenant, s.ID)

	_, err := f.orch.Retry(f.ctx, tenant, s.ID)
	require.ErrorIs(t, err, domain.ErrRetryNotDue)
	assert.Equal(t, 1, f.reload(t, s.ID).RetryCount)
}

func TestRetry_CapRequiresForce(t *testing.T) {
	p := submission.DefaultPolicy()
	p.MaxAttempts = 2
	f := newFixture(t, p)
	s := f.create(t)
	gomock.InOrder(
		f.authority.EXPECT().Upload(gomock.Any(), gomock.Any(), gomock.Any()).Return("", errNetwork).Times(2),
		f.authority.EXPECT().Upload(gomock.Any(), gomock.Any(), gomock.Any()).Return("REF-9", nil),
	)

	s, _ = f.orch.Upload(f.ctx, tenant, s.ID)
	f.clock.until(s.NextRetryAt)
	s, _ = f.orch.Retry(f.ctx, tenant, s.ID)
	require.Equal(t, domain.StatusFailed, s.Status)
	assert.Nil(t, s.NextRetryAt, "no automatic retry past the cap")

	f.clock.Advance(24 * time.Hour)
	_, err := f.orch.Retry(f.ctx, tenant, s.ID)
	require.ErrorIs(t, err, domain.ErrRetryCapExceeded)
	_, err = f.orch.Advance(f.ctx, tenant, s.ID)
	require.ErrorIs(t, err, domain.ErrRetryCapExceeded)

	s, err = f.orch.ForceRetry(f.ctx, tenant, s.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSubmitted, s.Status)
	assert.Equal(t, 2, s.RetryCount)
	assert.False(t, s.ForcedRetry)
	assert.Len(t, f.reload(t, s.ID).Attempts, 3)
}

func TestUpload_DocumentTampered(t *testing.T) {
	f := newFixture(t, submission.DefaultPolicy())
	s := f.create(t)
	f.store.Tamper(tenant, f.doc.Locator, []byte("<JPK>changed</JPK>"))

	_, err := f.orch.Upload(f.ctx, tenant, s.ID)
	require.Error(t, err)
	assert.Equal(t, domain.KindConflict, domain.KindOf(err))

	got := f.reload(t, s.ID)
	assert.Equal(t, domain.StatusPending, got.Status)
	assert.Empty(t, got.Attempts)
}

func TestUpload_Signing(t *testing.T) {
	t.Run("signed bytes are uploaded", func(t *testing.T) {
		f := newFixture(t, submission.DefaultPolicy(), withSigner())
		s := f.create(t)
		f.signer.EXPECT().Sign(gomock.Any(), docBytes, f.doc.Digest).Return(domain.SignatureEnvelope{
			Signed:    []byte("signed"),
			Digest:    f.doc.Digest,
			NotBefore: f.clock.Now().Add(-time.Hour),
			NotAfter:  f.clock.Now().Add(time.Hour),
		}, nil)
		f.authority.EXPECT().Upload(gomock.Any(), []byte("signed"), gomock.Any()).Return("REF-1", nil)

		s, err := f.orch.Upload(f.ctx, tenant, s.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusSubmitted, s.Status)
	})

	t.Run("expired certificate is a credential failure", func(t *testing.T) {
		f := newFixture(t, submission.DefaultPolicy(), withSigner())
		s := f.create(t)
		f.signer.EXPECT().Sign(gomock.Any(), docBytes, f.doc.Digest).Return(domain.SignatureEnvelope{
			Signed:      []byte("signed"),
			Digest:      f.doc.Digest,
			CertSubject: "CN=Jan Kowalski",
			NotBefore:   f.clock.Now().AddDate(-2, 0, 0),
			NotAfter:    f.clock.Now().AddDate(0, 0, -1),
		}, nil)

		s, err := f.orch.Upload(f.ctx, tenant, s.ID)
		require.Error(t, err)
		assert.Equal(t, domain.KindCredential, domain.KindOf(err))
		assert.ErrorIs(t, err, domain.ErrInvalidSignature)
		assert.Equal(t, domain.StatusFailed, s.Status)
		assert.Equal(t, domain.KindCredential, s.LastErrorKind)
		assert.Nil(t, s.NextRetryAt, "credential failures are not retried automatically")
		require.Len(t, s.Attempts, 1)
		assert.Equal(t, domain.KindCredential, s.Attempts[0].ErrorKind)
	})

	t.Run("envelope for another digest", func(t *testing.T) {
		f := newFixture(t, submission.DefaultPolicy(), withSigner())
		s := f.create(t)
		f.signer.EXPECT().Sign(gomock.Any(), gomock.Any(), gomock.Any()).Return(domain.SignatureEnvelope{Digest: "deadbeef"}, nil)

		_, err := f.orch.Upload(f.ctx, tenant, s.ID)
		assert.Equal(t, domain.KindCredential, domain.KindOf(err))
	})
}

// ---------------------------------------------------------------------------
// Polling, proof and rejection
// ---------------------------------------------------------------------------

func TestCheckStatus_ProcessingThenAccepted(t *testing.T) {
	f := newFixture(t, submission.DefaultPolicy())
	s := f.submitted(t)

	gomock.InOrder(
		f.authority.EXPECT().CheckStatus(gomock.Any(), "REF-1").Return(domain.AuthorityStatus{Code: 302, Description: "Dokument w trakcie weryfikacji"}, nil).Times(2),
		f.authority.EXPECT().CheckStatus(gomock.Any(), "REF-1").Return(domain.AuthorityStatus{Code: 200, Description: "Przetwarzanie dokumentu zakończone poprawnie"}, nil),
	)
	f.expectProof()

	s, err := f.orch.CheckStatus(f.ctx, tenant, s.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusProcessing, s.Status)
	require.NotNil(t, s.NextPollAt)
	assert.Equal(t, f.clock.Now().Add(time.Minute), *s.NextPollAt)

	f.clock.Advance(time.Minute)
	s, err = f.orch.CheckStatus(f.ctx, tenant, s.ID)
	require.NoError(t, err)
	assert.Len(t, s.History, 4, "an unchanged status does not grow the history")

	f.clock.Advance(time.Minute)
	s, err = f.orch.CheckStatus(f.ctx, tenant, s.ID)
	require.NoError(t, err)

	got := f.reload(t, s.ID)
	assert.Equal(t, domain.StatusAccepted, got.Status)
	assert.Equal(t, []domain.SubmissionStatus{
		domain.StatusPending, domain.StatusUploading, domain.StatusSubmitted,
		domain.StatusProcessing, domain.StatusProcessing, domain.StatusAccepted,
	}, statuses(got.History))
	sum := sha256.Sum256(proofBytes)
	assert.Equal(t, hex.EncodeToString(sum[:]), got.ProofDigest)
	stored, err := f.store.Get(f.ctx, tenant, got.ProofLocator)
	require.NoError(t, err)
	assert.Equal(t, proofBytes, stored)
	assert.False(t, got.ProofPending)

	again, err := f.orch.RetrieveProof(f.ctx, tenant, s.ID)
	require.NoError(t, err, "retrieving an already stored proof is a no-op")
	assert.Equal(t, got.ProofLocator, again.ProofLocator)
}

func TestCheckStatus_RejectionIsTerminal(t *testing.T) {
	f := newFixture(t, submission.DefaultPolicy())
	s := f.submitted(t)
	f.authority.EXPECT().CheckStatus(gomock.Any(), "REF-1").Return(domain.AuthorityStatus{
		Code:        408,
		Description: "Dokument zawiera błędy uniemożliwiające jego przetworzenie",
	}, nil)

	s, err := f.orch.CheckStatus(f.ctx, tenant, s.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRejected, s.Status)
	assert.Equal(t, "408", s.RejectionCode)
	assert.Equal(t, "Dokument zawiera błędy uniemożliwiające jego przetworzenie", s.RejectionMessage)
	assert.Nil(t, s.NextPollAt)
	assert.Nil(t, s.NextRetryAt)

	_, err = f.orch.Retry(f.ctx, tenant, s.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	_, err = f.orch.ForceRetry(f.ctx, tenant, s.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	_, err = f.orch.Cancel(f.ctx, tenant, s.ID, "too late")
	assert.ErrorIs(t, err, domain.ErrCancelNotAllowed)

	got, err := f.orch.Advance(f.ctx, tenant, s.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRejected, got.Status)

	n, err := f.orch.Tick(f.ctx, tenant)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCheckStatus_TransportFailureResumesPolling(t *testing.T) {
	f := newFixture(t, submission.DefaultPolicy())
	s := f.submitted(t)
	gomock.InOrder(
		f.authority.EXPECT().CheckStatus(gomock.Any(), "REF-1").Return(domain.AuthorityStatus{}, errNetwork),
		f.authority.EXPECT().CheckStatus(gomock.Any(), "REF-1").Return(domain.AuthorityStatus{Code: 301}, nil),
	)

	deadline := *s.PollDeadline
	s, err := f.orch.CheckStatus(f.ctx, tenant, s.ID)
	require.ErrorIs(t, err, errNetwork)
	assert.Equal(t, domain.StatusFailed, s.Status)
	require.NotNil(t, s.NextRetryAt)

	f.clock.until(s.NextRetryAt)
	s, err = f.orch.Retry(f.ctx, tenant, s.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusProcessing, s.Status)
	assert.Equal(t, 1, s.RetryCount, "resuming polling is a retry")
	require.NotNil(t, s.PollDeadline)
	assert.Equal(t, deadline, *s.PollDeadline, "the polling window is not reopened")
}

func TestCheckStatus_RepeatedTransportFailuresHitCap(t *testing.T) {
	f := newFixture(t, submission.DefaultPolicy())
	s := f.submitted(t)
	deadline := *s.PollDeadline
	gomock.InOrder(
		f.authority.EXPECT().CheckStatus(gomock.Any(), "REF-1").Return(domain.AuthorityStatus{}, errNetwork).Times(5),
		f.authority.EXPECT().CheckStatus(gomock.Any(), "REF-1").Return(domain.AuthorityStatus{Code: 302}, nil),
	)

	s, err := f.orch.CheckStatus(f.ctx, tenant, s.ID)
	require.ErrorIs(t, err, errNetwork)

	want := []time.Duration{time.Second, time.Minute, 5 * time.Minute, 15 * time.Minute}
	for i, d := range want {
		require.Equal(t, domain.StatusFailed, s.Status)
		require.NotNil(t, s.NextRetryAt, "retry %d", i)
		assert.Equal(t, d, s.NextRetryAt.Sub(f.clock.Now()), "retry %d", i)
		assert.Equal(t, i, s.RetryCount)

		f.clock.until(s.NextRetryAt)
		s, err = f.orch.Retry(f.ctx, tenant, s.ID)
		require.ErrorIs(t, err, errNetwork)
	}

	got := f.reload(t, s.ID)
	assert.Equal(t, domain.StatusFailed, got.Status)
	assert.Equal(t, 4, got.RetryCount)
	assert.Nil(t, got.NextRetryAt, "no automatic retry past the cap")
	assert.Equal(t, deadline, *got.PollDeadline)

	f.clock.Advance(time.Hour)
	_, err = f.orch.Retry(f.ctx, tenant, s.ID)
	require.ErrorIs(t, err, domain.ErrRetryCapExceeded)
	n, err := f.orch.Tick(f.ctx, tenant)
	require.NoError(t, err)
	assert.Zero(t, n)

	s, err = f.orch.ForceRetry(f.ctx, tenant, s.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusProcessing, s.Status)
	assert.Equal(t, 5, s.RetryCount)
	assert.Equal(t, f.clock.Now().Add(72*time.Hour), *s.PollDeadline)
}

func TestCheckStatus_UnknownCodeFails(t *testing.T) {
	f := newFixture(t, submission.DefaultPolicy())
	s := f.submitted(t)
	f.authority.EXPECT().CheckStatus(gomock.Any(), "REF-1").Return(domain.AuthorityStatus{Code: 0}, nil)

	s, err := f.orch.CheckStatus(f.ctx, tenant, s.ID)
	require.Error(t, err)
	assert.True(t, domain.IsRetryable(err))
	assert.Equal(t, domain.StatusFailed, s.Status)
	assert.NotNil(t, s.NextRetryAt)
}

func TestCheckStatus_PollTimeout(t *testing.T) {
	p := submission.DefaultPolicy()
	p.MaxPollDuration = time.Hour
	f := newFixture(t, p)
	s := f.submitted(t)

	f.clock.Advance(2 * time.Hour)
	s, err := f.orch.CheckStatus(f.ctx, tenant, s.ID)
	require.Error(t, err)
	assert.Equal(t, domain.StatusFailed, s.Status)
	assert.Equal(t, "POLL_TIMEOUT", s.History[len(s.History)-1].Code)
	assert.Nil(t, s.NextRetryAt)

	_, err = f.orch.Retry(f.ctx, tenant, s.ID)
	require.ErrorIs(t, err, domain.ErrRetryCapExceeded)

	f.authority.EXPECT().CheckStatus(gomock.Any(), "REF-1").Return(domain.AuthorityStatus{Code: 302}, nil)
	s, err = f.orch.ForceRetry(f.ctx, tenant, s.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusProcessing, s.Status)
	require.NotNil(t, s.PollDeadline)
	assert.Equal(t, f.clock.Now().Add(time.Hour), *s.PollDeadline)
}

func TestRetrieveProof_FailureKeepsProcessing(t *testing.T) {
	f := newFixture(t, submission.DefaultPolicy())
	s := f.submitted(t)
	f.authority.EXPECT().CheckStatus(gomock.Any(), "REF-1").Return(domain.AuthorityStatus{Code: 200}, nil).Times(1)
	f.authority.EXPECT().RetrieveProof(gomock.Any(), "REF-1").Return(nil, errNetwork)

	s, err := f.orch.CheckStatus(f.ctx, tenant, s.ID)
	require.ErrorIs(t, err, domain.ErrProofRetrieval)
	assert.True(t, domain.IsRetryable(err))
	assert.Equal(t, domain.StatusProcessing, s.Status)
	assert.True(t, s.ProofPending)

	// The next poll only retries the fetch: no status call, no upload.
	f.expectProof()
	f.clock.Advance(time.Minute)
	s, err = f.orch.Advance(f.ctx, tenant, s.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAccepted, s.Status)
	assert.False(t, s.ProofPending)
	assert.Equal(t, 0, s.RetryCount)
}

func TestRetrieveProof_ForeignProofRejected(t *testing.T) {
	f := newFixture(t, submission.DefaultPolicy())
	s := f.submitted(t)
	f.authority.EXPECT().CheckStatus(gomock.Any(), "REF-1").Return(domain.AuthorityStatus{Code: 200}, nil)
	f.authority.EXPECT().RetrieveProof(gomock.Any(), "REF-1").Return(proofBytes, nil)
	f.proofs.EXPECT().ParseProof(proofBytes).Return(domain.Proof{ReferenceNumber: "REF-2"}, nil)

	s, err := f.orch.CheckStatus(f.ctx, tenant, s.ID)
	require.ErrorIs(t, err, domain.ErrProofRetrieval)
	assert.Equal(t, domain.StatusProcessing, s.Status)
	assert.Empty(t, s.ProofLocator)
}

// ---------------------------------------------------------------------------
// Webhook
// ---------------------------------------------------------------------------

func TestHandleWebhook(t *testing.T) {
	f := newFixture(t, submission.DefaultPolicy())
	s := f.submitted(t)

	s, err := f.orch.HandleWebhook(f.ctx, tenant, domain.WebhookEvent{
		ID: "ev-1", Type: domain.WebhookStatusChanged, ReferenceNumber: "REF-1", StatusCode: 302,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusProcessing, s.Status)
	assert.True(t, s.WebhookSeen)
	require.NotNil(t, s.NextPollAt)
	assert.Equal(t, f.clock.Now().Add(10*time.Minute), *s.NextPollAt, "polling is relaxed, not stopped")

	f.expectProof()
	proofReady := domain.WebhookEvent{ID: "ev-2", Type: domain.WebhookProofReady, ReferenceNumber: "REF-1"}
	s, err = f.orch.HandleWebhook(f.ctx, tenant, proofReady)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAccepted, s.Status)

	// Redelivery and a late poll result are harmless.
	s, err = f.orch.HandleWebhook(f.ctx, tenant, proofReady)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAccepted, s.Status)
	_, err = f.orch.RetrieveProof(f.ctx, tenant, s.ID)
	require.NoError(t, err)
	assert.Len(t, f.reload(t, s.ID).Attempts, 2, "upload and one proof fetch")
}

func TestHandleWebhook_Rejected(t *testing.T) {
	f := newFixture(t, submission.DefaultPolicy())
	f.submitted(t)

	s, err := f.orch.HandleWebhook(f.ctx, tenant, domain.WebhookEvent{
		Type: domain.WebhookRejected, ReferenceNumber: "REF-1", StatusCode: 413, Message: "Nieprawidłowy podpis",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRejected, s.Status)
	assert.Equal(t, "413", s.RejectionCode)
	assert.Equal(t, "Nieprawidłowy podpis", s.RejectionMessage)
}

func TestHandleWebhook_UnknownReference(t *testing.T) {
	f := newFixture(t, submission.DefaultPolicy())
	_, err := f.orch.HandleWebhook(f.ctx, tenant, domain.WebhookEvent{Type: domain.WebhookProofReady, ReferenceNumber: "nope"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ---------------------------------------------------------------------------
// Create, cancel and drivers
// ---------------------------------------------------------------------------

func TestCreate_OneActivePerDocument(t *testing.T) {
	f := newFixture(t, submission.DefaultPolicy())
	s := f.create(t)
	assert.Equal(t, domain.StatusPending, s.Status)
	assert.Equal(t, f.doc.Digest, s.DocumentDigest)

	_, err := f.orch.Create(f.ctx, tenant, f.doc.ID)
	require.ErrorIs(t, err, domain.ErrActiveSubmission)
	assert.Equal(t, domain.KindConflict, domain.KindOf(err))

	_, err = f.orch.Cancel(f.ctx, tenant, s.ID, "duplicate")
	require.NoError(t, err)
	_, err = f.orch.Create(f.ctx, tenant, f.doc.ID)
	require.NoError(t, err)
}

func TestCancel(t *testing.T) {
	t.Run("pending", func(t *testing.T) {
		f := newFixture(t, submission.DefaultPolicy())
		s := f.create(t)
		s, err := f.orch.Cancel(f.ctx, tenant, s.ID, "client withdrew")
		require.NoError(t, err)
		assert.Equal(t, domain.StatusCancelled, s.Status)
		assert.Equal(t, "client withdrew", s.History[len(s.History)-1].Message)
	})

	t.Run("failed before upload", func(t *testing.T) {
		f := newFixture(t, submission.DefaultPolicy())
		s := f.create(t)
		f.authority.EXPECT().Upload(gomock.Any(), gomock.Any(), gomock.Any()).Return("", errNetwork)
		s, _ = f.orch.Upload(f.ctx, tenant, s.ID)
		s, err := f.orch.Cancel(f.ctx, tenant, s.ID, "operator")
		require.NoError(t, err)
		assert.Equal(t, domain.StatusCancelled, s.Status)
		assert.Nil(t, s.NextRetryAt)
	})

	t.Run("failed after polling timed out", func(t *testing.T) {
		p := submission.DefaultPolicy()
		p.MaxPollDuration = time.Hour
		f := newFixture(t, p)
		s := f.submitted(t)
		f.clock.Advance(2 * time.Hour)
		s, _ = f.orch.CheckStatus(f.ctx, tenant, s.ID)
		require.Equal(t, domain.StatusFailed, s.Status)

		s, err := f.orch.Cancel(f.ctx, tenant, s.ID, "filed on paper")
		require.NoError(t, err)
		assert.Equal(t, domain.StatusCancelled, s.Status)
		assert.Equal(t, "REF-1", s.ReferenceNumber)

		n, err := f.orch.Tick(f.ctx, tenant)
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("submitted", func(t *testing.T) {
		f := newFixture(t, submission.DefaultPolicy())
		s := f.submitted(t)
		_, err := f.orch.Cancel(f.ctx, tenant, s.ID, "operator")
		require.ErrorIs(t, err, domain.ErrCancelNotAllowed)
		assert.Equal(t, domain.StatusSubmitted, f.reload(t, s.ID).Status)
	})
}

func TestDrive_ToAcceptance(t *testing.T) {
	f := newFixture(t, submission.DefaultPolicy())
	s := f.create(t)
	gomock.InOrder(
		f.authority.EXPECT().Upload(gomock.Any(), docBytes, gomock.Any()).Return("", errNetwork),
		f.authority.EXPECT().Upload(gomock.Any(), docBytes, gomock.Any()).Return("REF-1", nil),
	)
	gomock.InOrder(
		f.authority.EXPECT().CheckStatus(gomock.Any(), "REF-1").Return(domain.AuthorityStatus{Code: 301}, nil),
		f.authority.EXPECT().CheckStatus(gomock.Any(), "REF-1").Return(domain.AuthorityStatus{Code: 200}, nil),
	)
	f.expectProof()

	s, err := f.orch.Drive(f.ctx, tenant, s.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAccepted, s.Status)
	assert.Equal(t, 1, s.RetryCount)
	assert.Len(t, f.reload(t, s.ID).Attempts, 5)
}

func TestDrive_StopsOnCredentialFailure(t *testing.T) {
	f := newFixture(t, submission.DefaultPolicy())
	s := f.create(t)
	f.authority.EXPECT().Upload(gomock.Any(), gomock.Any(), gomock.Any()).
		Return("", domain.NewCredential("UNAUTHORIZED", "token rejected", nil))

	s, err := f.orch.Drive(f.ctx, tenant, s.ID)
	require.Error(t, err)
	assert.Equal(t, domain.StatusFailed, s.Status)
	assert.Equal(t, domain.KindCredential, s.LastErrorKind)
}

func TestTick(t *testing.T) {
	f := newFixture(t, submission.DefaultPolicy())
	s := f.create(t)
	f.authority.EXPECT().Upload(gomock.Any(), gomock.Any(), gomock.Any()).Return("REF-1", nil)

	n, err := f.orch.Tick(f.ctx, tenant)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, domain.StatusSubmitted, f.reload(t, s.ID).Status)

	n, err = f.orch.Tick(f.ctx, tenant)
	require.NoError(t, err)
	assert.Zero(t, n, "nothing is due before the poll interval")

	f.authority.EXPECT().CheckStatus(gomock.Any(), "REF-1").Return(domain.AuthorityStatus{Code: 302}, nil)
	f.clock.Advance(time.Minute)
	n, err = f.orch.Tick(f.ctx, tenant)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, domain.StatusProcessing, f.reload(t, s.ID).Status)
}

func TestUpload_DeadlineTracksInFlightCall(t *testing.T) {
	f := newFixture(t, submission.DefaultPolicy())
	s := f.create(t)
	f.authority.EXPECT().Upload(gomock.Any(), docBytes, gomock.Any()).
		DoAndReturn(func(context.Context, []byte, domain.UploadMetadata) (string, error) {
			inFlight := f.reload(t, s.ID)
			assert.Equal(t, domain.StatusUploading, inFlight.Status)
			require.NotNil(t, inFlight.UploadDeadline)
			assert.Equal(t, f.clock.Now().Add(time.Minute), *inFlight.UploadDeadline)
			return "REF-1", nil
		})

	s, err := f.orch.Upload(f.ctx, tenant, s.ID)
	require.NoError(t, err)
	assert.Nil(t, f.reload(t, s.ID).UploadDeadline)
}

func TestTick_RecoversInterruptedUpload(t *testing.T) {
	f := newFixture(t, submission.DefaultPolicy())
	s := f.create(t)

	// A process died after marking the submission UPLOADING.
	deadline := f.clock.Now().Add(time.Minute)
	s.Status = domain.StatusUploading
	s.UploadDeadline = &deadline
	require.NoError(t, f.store.UpdateSubmission(f.ctx, tenant, s))

	n, err := f.orch.Tick(f.ctx, tenant)
	require.NoError(t, err)
	assert.Zero(t, n, "an upload inside its deadline is left alone")

	f.clock.Advance(2 * time.Minute)
	n, err = f.orch.Tick(f.ctx, tenant)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got := f.reload(t, s.ID)
	assert.Equal(t, domain.StatusFailed, got.Status)
	assert.Equal(t, "UPLOAD_INTERRUPTED", got.History[len(got.History)-1].Code)
	assert.Nil(t, got.UploadDeadline)
	require.NotNil(t, got.NextRetryAt)

	f.clock.until(got.NextRetryAt)
	f.authority.EXPECT().Upload(gomock.Any(), docBytes, gomock.Any()).Return("REF-1", nil)
	n, err = f.orch.Tick(f.ctx, tenant)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got = f.reload(t, s.ID)
	assert.Equal(t, domain.StatusSubmitted, got.Status)
	assert.Equal(t, "REF-1", got.ReferenceNumber)
	assert.Equal(t, 1, got.RetryCount)
}

func TestDrive_WaitsOutInFlightUpload(t *testing.T) {
	f := newFixture(t, submission.DefaultPolicy())
	s := f.create(t)
	deadline := f.clock.Now().Add(time.Minute)
	s.Status = domain.StatusUploading
	s.UploadDeadline = &deadline
	require.NoError(t, f.store.UpdateSubmission(f.ctx, tenant, s))

	f.authority.EXPECT().Upload(gomock.Any(), docBytes, gomock.Any()).Return("REF-1", nil)
	f.authority.EXPECT().CheckStatus(gomock.Any(), "REF-1").Return(domain.AuthorityStatus{Code: 200}, nil)
	f.expectProof()

	s, err := f.orch.Drive(f.ctx, tenant, s.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAccepted, s.Status)
	assert.Equal(t, 1, s.RetryCount)
	assert.False(t, f.clock.Now().Before(deadline))
}

func TestRun_StopsWithContext(t *testing.T) {
	f := newFixture(t, submission.DefaultPolicy())
	ctx, cancel := context.WithCancel(f.ctx)
	ticks := 0
	f.orch.WithSleeper(func(ctx context.Context, d time.Duration) error {
		ticks++
		if ticks == 3 {
			cancel()
		}
		return ctx.Err()
	})

	err := f.orch.Run(ctx, tenant)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 3, ticks)
}
