package submission

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/csg33k/jpk-vat/internal/domain"
	"github.com/csg33k/jpk-vat/internal/ports"
)

// Deps are the collaborators an Orchestrator drives. Signer may be nil, in
// which case the document is uploaded as generated. Clock defaults to the
// wall clock.
type Deps struct {
	Submissions ports.SubmissionRepository
	Documents   ports.DocumentRepository
	Store       ports.DocumentStore
	Authority   ports.AuthorityClient
	Signer      ports.Signer
	Proofs      ports.ProofParser
	Clock       ports.Clock
}

// Orchestrator moves submissions through
//
//	PENDING -> UPLOADING -> SUBMITTED -> PROCESSING -> ACCEPTED | REJECTED
//
// with FAILED reachable from any call and CANCELLED from PENDING or FAILED.
// Tick also recovers an UPLOADING submission whose upload deadline passed.
// Callers guarantee a single writer per submission.
type Orchestrator struct {
	subs      ports.SubmissionRepository
	docs      ports.DocumentRepository
	store     ports.DocumentStore
	authority ports.AuthorityClient
	signer    ports.Signer
	proofs    ports.ProofParser
	clock     ports.Clock
	policy    Policy
	log       zerolog.Logger

	sleep func(ctx context.Context, d time.Duration) error
}

// New builds an Orchestrator. Zero fields of p take DefaultPolicy values.
func New(d Deps, p Policy, log zerolog.Logger) *Orchestrator {
	clock := d.Clock
	if clock == nil {
		clock = SystemClock{}
	}
	return &Orchestrator{
		subs:      d.Submissions,
		docs:      d.Documents,
		store:     d.Store,
		authority: d.Authority,
		signer:    d.Signer,
		proofs:    d.Proofs,
		clock:     clock,
		policy:    p.withDefaults(),
		log:       log.With().Str("component", "orchestrator").Logger(),
		sleep:     sleepWithContext,
	}
}

// WithSleeper replaces the wait used by Run and Drive.
func (o *Orchestrator) WithSleeper(fn func(ctx context.Context, d time.Duration) error) *Orchestrator {
	o.sleep = fn
	return o
}

// Policy returns the effective policy.
func (o *Orchestrator) Policy() Policy { return o.policy }

// ---------------------------------------------------------------------------
// Operations
// ---------------------------------------------------------------------------

// Create opens a PENDING submission for a stored declaration document.
func (o *Orchestrator) Create(ctx context.Context, tenant domain.TenantID, documentID string) (*domain.Submission, error) {
	doc, err := o.docs.GetDocument(ctx, tenant, documentID)
	if err != nil {
		return nil, err
	}
	active, err := o.subs.ActiveForDocument(ctx, tenant, documentID)
	if err != nil {
		return nil, err
	}
	if active != nil {
		return nil, &domain.Error{
			Kind:    domain.KindConflict,
			Code:    "ACTIVE_SUBMISSION",
			Message: fmt.Sprintf("submission %s is %s", active.ID, active.Status),
			Cause:   domain.ErrActiveSubmission,
		}
	}

	now := o.clock.Now()
	s := &domain.Submission{
		ID:             uuid.NewString(),
		Tenant:         tenant,
		ClientID:       doc.ClientID,
		DocumentID:     doc.ID,
		DocumentDigest: doc.Digest,
		Status:         domain.StatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := o.subs.CreateSubmission(ctx, tenant, s); err != nil {
		return nil, err
	}
	ev := domain.StatusEvent{To: domain.StatusPending, At: now, Source: "create"}
	if err := o.subs.AppendStatus(ctx, tenant, s.ID, ev); err != nil {
		return nil, err
	}
	s.History = append(s.History, ev)

	o.log.Info().Str("submission_id", s.ID).Str("document_id", doc.ID).Msg("submission created")
	return s, nil
}

// Upload sends the document for a PENDING submission, or re-sends it for a
// FAILED one that never obtained a reference number.
func (o *Orchestrator) Upload(ctx context.Context, tenant domain.TenantID, id string) (*domain.Submission, error) {
	s, err := o.subs.GetSubmission(ctx, tenant, id)
	if err != nil {
		return nil, err
	}
	return o.upload(ctx, s)
}

// Retry resumes a FAILED submission. Without a reference number the document
// is uploaded again; with one, status polling resumes instead.
func (o *Orchestrator) Retry(ctx context.Context, tenant domain.TenantID, id string) (*domain.Submission, error) {
	s, err := o.subs.GetSubmission(ctx, tenant, id)
	if err != nil {
		return nil, err
	}
	if s.Status != domain.StatusFailed {
		return s, domain.NewBusinessRule(domain.ErrInvalidTransition, "retry requires FAILED, submission is %s", s.Status)
	}
	if s.ReferenceNumber == "" {
		return o.upload(ctx, s)
	}
	return o.resumePolling(ctx, s)
}

// ForceRetry lifts the retry gate (attempt cap, schedule, non-retryable last
// error) for one more attempt. The retry counter keeps growing.
func (o *Orchestrator) ForceRetry(ctx context.Context, tenant domain.TenantID, id string) (*domain.Submission, error) {
	s, err := o.subs.GetSubmission(ctx, tenant, id)
	if err != nil {
		return nil, err
	}
	if s.Status != domain.StatusFailed {
		return s, domain.NewBusinessRule(domain.ErrInvalidTransition, "forced retry requires FAILED, submission is %s", s.Status)
	}
	s.ForcedRetry = true
	s.UpdatedAt = o.clock.Now()
	if err := o.subs.UpdateSubmission(ctx, tenant, s); err != nil {
		return s, err
	}
	o.log.Warn().Str("submission_id", s.ID).Int("retry_count", s.RetryCount).Msg("forced retry requested")

	if s.ReferenceNumber == "" {
		return o.upload(ctx, s)
	}
	return o.resumePolling(ctx, s)
}

// CheckStatus polls the authority once for a SUBMITTED or PROCESSING
// submission. A submission waiting on its proof retries the proof fetch.
func (o *Orchestrator) CheckStatus(ctx context.Context, tenant domain.TenantID, id string) (*domain.Submission, error) {
	s, err := o.subs.GetSubmission(ctx, tenant, id)
	if err != nil {
		return nil, err
	}
	return o.checkStatus(ctx, s)
}

// RetrieveProof fetches, verifies and stores the proof of receipt. It is
// idempotent: an ACCEPTED submission with a stored proof is returned as is.
func (o *Orchestrator) RetrieveProof(ctx context.Context, tenant domain.TenantID, id string) (*domain.Submission, error) {
	s, err := o.subs.GetSubmission(ctx, tenant, id)
	if err != nil {
		return nil, err
	}
	return o.retrieveProof(ctx, s, "proof")
}

// HandleWebhook applies a verified authority event. Events for terminal
// submissions are ignored, so redelivery is harmless.
func (o *Orchestrator) HandleWebhook(ctx context.Context, tenant domain.TenantID, ev domain.WebhookEvent) (*domain.Submission, error) {
	if ev.ReferenceNumber == "" {
		return nil, domain.NewValidation("referenceNumber", "webhook event carries no reference number")
	}
	s, err := o.subs.FindByReference(ctx, tenant, ev.ReferenceNumber)
	if err != nil {
		return nil, err
	}
	log := o.log.With().Str("submission_id", s.ID).Str("event_id", ev.ID).Str("event_type", string(ev.Type)).Logger()
	if s.Status.IsTerminal() {
		log.Debug().Str("status", s.Status.String()).Msg("webhook ignored for terminal submission")
		return s, nil
	}

	s.WebhookSeen = true
	if s.Status == domain.StatusSubmitted || s.Status == domain.StatusProcessing {
		next := o.clock.Now().Add(o.policy.pollEvery(true))
		s.NextPollAt = &next
	}

	switch ev.Type {
	case domain.WebhookStatusChanged:
		log.Info().Int("code", ev.StatusCode).Msg("status change pushed")
		return o.applyStatus(ctx, s, domain.AuthorityStatus{Code: ev.StatusCode, Description: ev.Message, Timestamp: ev.OccurredAt}, "webhook")
	case domain.WebhookProofReady:
		log.Info().Msg("proof ready pushed")
		if s.ProofLocator != "" {
			return s, nil
		}
		if err := o.markProcessing(ctx, s, "200", ev.Message, "webhook"); err != nil {
			return s, err
		}
		return o.retrieveProof(ctx, s, "webhook")
	case domain.WebhookRejected:
		code := ev.StatusCode
		if MapAuthorityStatus(code) != OutcomeRejected {
			code = 400
		}
		log.Info().Int("code", code).Msg("rejection pushed")
		return o.applyStatus(ctx, s, domain.AuthorityStatus{Code: code, Description: ev.Message, Timestamp: ev.OccurredAt}, "webhook")
	default:
		return s, domain.NewValidation("type", "unknown webhook event type %q", ev.Type)
	}
}

// Cancel stops a PENDING or FAILED submission. For a FAILED one that holds a
// reference number only local tracking stops; the authority keeps its copy.
func (o *Orchestrator) Cancel(ctx context.Context, tenant domain.TenantID, id, reason string) (*domain.Submission, error) {
	s, err := o.subs.GetSubmission(ctx, tenant, id)
	if err != nil {
		return nil, err
	}
	if s.Status != domain.StatusPending && s.Status != domain.StatusFailed {
		return s, domain.NewBusinessRule(domain.ErrCancelNotAllowed, "submission %s is %s", s.ID, s.Status)
	}
	s.NextRetryAt = nil
	s.NextPollAt = nil
	if err := o.transition(ctx, s, domain.StatusCancelled, "cancel", "", reason); err != nil {
		return s, err
	}
	o.log.Info().Str("submission_id", s.ID).Str("reason", reason).Msg("submission cancelled")
	return s, nil
}

// Advance performs the one step a submission's state calls for.
func (o *Orchestrator) Advance(ctx context.Context, tenant domain.TenantID, id string) (*domain.Submission, error) {
	s, err := o.subs.GetSubmission(ctx, tenant, id)
	if err != nil {
		return nil, err
	}
	return o.advance(ctx, s)
}

// Tick advances every submission that is due now and returns how many it
// touched. Per-submission failures are recorded on the submission and
// logged; only repository and context errors are returned.
func (o *Orchestrator) Tick(ctx context.Context, tenant domain.TenantID) (int, error) {
	due, err := o.subs.ListActionable(ctx, tenant, o.clock.Now())
	if err != nil {
		return 0, err
	}
	for i := range due {
		if err := ctx.Err(); err != nil {
			return i, err
		}
		s := due[i]
		if _, err := o.advance(ctx, &s); err != nil {
			o.log.Warn().Err(err).Str("submission_id", s.ID).Str("status", s.Status.String()).Msg("advance failed")
		}
	}
	return len(due), nil
}

// Run ticks until ctx is done.
func (o *Orchestrator) Run(ctx context.Context, tenant domain.TenantID) error {
	o.log.Info().Str("tenant", string(tenant)).Dur("tick", o.policy.TickInterval).Msg("orchestrator started")
	for {
		if _, err := o.Tick(ctx, tenant); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			o.log.Error().Err(err).Msg("tick failed")
		}
		if err := o.sleep(ctx, o.policy.TickInterval); err != nil {
			o.log.Info().Msg("orchestrator stopped")
			return err
		}
	}
}

// Drive steps one submission until it is terminal or needs a human: a
// FAILED state with no scheduled retry.
func (o *Orchestrator) Drive(ctx context.Context, tenant domain.TenantID, id string) (*domain.Submission, error) {
	for {
		s, err := o.Advance(ctx, tenant, id)
		if s == nil {
			return nil, err
		}
		if s.Status.IsTerminal() {
			return s, err
		}
		if s.Status == domain.StatusFailed && s.NextRetryAt == nil {
			if err == nil {
				err = fmt.Errorf("submission %s needs a forced retry: %s", s.ID, s.LastError)
			}
			return s, err
		}
		if err != nil && !domain.IsRetryable(err) && !errors.Is(err, domain.ErrProofRetrieval) {
			return s, err
		}
		if err := o.sleep(ctx, o.waitFor(s)); err != nil {
			return s, err
		}
	}
}

// ---------------------------------------------------------------------------
// Steps
// ---------------------------------------------------------------------------

func (o *Orchestrator) advance(ctx context.Context, s *domain.Submission) (*domain.Submission, error) {
	switch s.Status {
	case domain.StatusPending:
		return o.upload(ctx, s)
	case domain.StatusFailed:
		if s.ReferenceNumber == "" {
			return o.upload(ctx, s)
		}
		return o.resumePolling(ctx, s)
	case domain.StatusUploading:
		// A previous process stopped mid-upload.
		now := o.clock.Now()
		if s.UploadDeadline != nil && now.Before(*s.UploadDeadline) {
			return s, nil
		}
		err := domain.NewTransient("UPLOAD_INTERRUPTED", errors.New("upload did not complete"))
		o.log.Warn().Str("submission_id", s.ID).Int("retry_count", s.RetryCount).Msg("interrupted upload recovered")
		return s, o.fail(ctx, s, err, now, "recover", true)
	case domain.StatusSubmitted, domain.StatusProcessing:
		return o.checkStatus(ctx, s)
	default:
		return s, nil
	}
}

func (o *Orchestrator) upload(ctx context.Context, s *domain.Submission) (*domain.Submission, error) {
	now := o.clock.Now()
	switch s.Status {
	case domain.StatusPending:
	case domain.StatusFailed:
		if s.ReferenceNumber != "" {
			return s, domain.NewBusinessRule(domain.ErrInvalidTransition, "submission %s already holds reference %s", s.ID, s.ReferenceNumber)
		}
		if err := o.retryGate(s, now); err != nil {
			return s, err
		}
	default:
		return s, domain.NewBusinessRule(domain.ErrInvalidTransition, "cannot upload a %s submission", s.Status)
	}

	doc, data, err := o.loadDocument(ctx, s)
	if err != nil {
		return s, err
	}

	if s.Status == domain.StatusFailed {
		s.RetryCount++
		s.ForcedRetry = false
	}
	s.NextRetryAt = nil
	// Signing and the upload call each get up to one call timeout.
	uploadDeadline := o.clock.Now().Add(2 * o.policy.CallTimeout)
	s.UploadDeadline = &uploadDeadline
	if err := o.transition(ctx, s, domain.StatusUploading, "upload", "", ""); err != nil {
		return s, err
	}

	number := s.RetryCount + 1
	log := o.log.With().Str("submission_id", s.ID).Int("attempt", number).Logger()
	start := o.clock.Now()
	attempt := domain.Attempt{
		Number:    number,
		Operation: domain.OpUpload,
		StartedAt: start,
		Request: map[string]string{
			"document_id":    doc.ID,
			"schema_version": doc.SchemaVersion,
			"digest":         s.DocumentDigest,
			"size":           strconv.Itoa(len(data)),
		},
	}

	ref, err := o.sendDocument(ctx, s, doc, data, number, start)
	attempt.Duration = o.clock.Now().Sub(start)
	if err == nil && ref == "" {
		err = domain.NewTransient("EMPTY_REFERENCE", errors.New("authority returned no reference number"))
	}
	if err != nil {
		attempt.ErrorKind = domain.KindOf(err)
		attempt.Error = err.Error()
		if aerr := o.recordAttempt(ctx, s, attempt); aerr != nil {
			return s, aerr
		}
		log.Warn().Err(err).Dur("duration", attempt.Duration).Str("outcome", "failed").Str("kind", string(attempt.ErrorKind)).Msg("upload attempt")
		if ferr := o.fail(ctx, s, err, start, "upload", true); ferr != nil {
			return s, ferr
		}
		return s, err
	}

	attempt.Success = true
	attempt.Response = map[string]string{"reference_number": ref}
	if err := o.recordAttempt(ctx, s, attempt); err != nil {
		return s, err
	}
	log.Info().Dur("duration", attempt.Duration).Str("outcome", "submitted").Str("reference", ref).Msg("upload attempt")

	done := o.clock.Now()
	deadline := done.Add(o.policy.MaxPollDuration)
	nextPoll := done.Add(o.policy.pollEvery(s.WebhookSeen))
	s.ReferenceNumber = ref
	s.UploadDeadline = nil
	s.UploadedAt = &done
	s.PollDeadline = &deadline
	s.NextPollAt = &nextPoll
	s.LastError = ""
	s.LastErrorKind = ""
	if err := o.transition(ctx, s, domain.StatusSubmitted, "upload", "", ref); err != nil {
		return s, err
	}
	return s, nil
}

// sendDocument signs (when a signer is configured) and uploads.
func (o *Orchestrator) sendDocument(ctx context.Context, s *domain.Submission, doc *domain.DeclarationDocument, data []byte, number int, now time.Time) (string, error) {
	payload := data
	if o.signer != nil {
		env, err := o.signer.Sign(ctx, data, s.DocumentDigest)
		if err != nil {
			if domain.KindOf(err) == domain.KindTransient {
				return "", err
			}
			return "", domain.NewCredential("SIGNING_FAILED", "document could not be signed", err)
		}
		if err := checkEnvelope(env, s.DocumentDigest, now); err != nil {
			return "", err
		}
		if len(env.Signed) > 0 {
			payload = env.Signed
		}
	}

	meta := domain.UploadMetadata{
		SubmissionID:  s.ID,
		FormCode:      formCode(doc.SchemaVersion),
		SchemaVersion: doc.SchemaVersion,
		Digest:        s.DocumentDigest,
		Attempt:       number,
	}
	callCtx, cancel := context.WithTimeout(ctx, o.policy.CallTimeout)
	defer cancel()
	return o.authority.Upload(callCtx, payload, meta)
}

func checkEnvelope(env domain.SignatureEnvelope, digest string, now time.Time) error {
	if !strings.EqualFold(env.Digest, digest) {
		return domain.NewCredential("SIGNATURE_DIGEST_MISMATCH", "signature does not cover this document", domain.ErrInvalidSignature)
	}
	if !env.NotBefore.IsZero() && now.Before(env.NotBefore) {
		return domain.NewCredential("CERT_NOT_YET_VALID", fmt.Sprintf("certificate %s valid from %s", env.CertSubject, env.NotBefore.Format(time.RFC3339)), domain.ErrInvalidSignature)
	}
	if !env.NotAfter.IsZero() && now.After(env.NotAfter) {
		return domain.NewCredential("CERT_EXPIRED", fmt.Sprintf("certificate %s expired %s", env.CertSubject, env.NotAfter.Format(time.RFC3339)), domain.ErrInvalidSignature)
	}
	return nil
}

// resumePolling counts as a retry. The polling window keeps its original
// deadline unless the retry was forced.
func (o *Orchestrator) resumePolling(ctx context.Context, s *domain.Submission) (*domain.Submission, error) {
	now := o.clock.Now()
	if err := o.retryGate(s, now); err != nil {
		return s, err
	}
	if s.ForcedRetry || s.PollDeadline == nil {
		deadline := now.Add(o.policy.MaxPollDuration)
		s.PollDeadline = &deadline
	}
	s.RetryCount++
	s.NextPollAt = &now
	s.NextRetryAt = nil
	s.ForcedRetry = false
	if err := o.transition(ctx, s, domain.StatusProcessing, "retry", "", "polling resumed"); err != nil {
		return s, err
	}
	return o.checkStatus(ctx, s)
}

// retryGate decides whether a FAILED submission may be tried again now.
// Upload retries and resumed polling share one attempt cap.
func (o *Orchestrator) retryGate(s *domain.Submission, now time.Time) error {
	if s.ForcedRetry {
		return nil
	}
	if s.RetryCount+1 >= o.policy.MaxAttempts {
		return domain.NewBusinessRule(domain.ErrRetryCapExceeded, "%d of %d attempts used, force a retry to continue", s.RetryCount+1, o.policy.MaxAttempts)
	}
	if s.NextRetryAt == nil {
		return domain.NewBusinessRule(domain.ErrRetryCapExceeded, "last failure (%s) is not retried automatically, force a retry to continue", s.LastErrorKind)
	}
	if now.Before(*s.NextRetryAt) {
		return domain.NewBusinessRule(domain.ErrRetryNotDue, "next retry at %s", s.NextRetryAt.Format(time.RFC3339))
	}
	return nil
}

func (o *Orchestrator) checkStatus(ctx context.Context, s *domain.Submission) (*domain.Submission, error) {
	if s.Status != domain.StatusSubmitted && s.Status != domain.StatusProcessing {
		return s, domain.NewBusinessRule(domain.ErrInvalidTransition, "cannot poll a %s submission", s.Status)
	}
	if s.ProofPending {
		return o.retrieveProof(ctx, s, "poll")
	}

	start := o.clock.Now()
	if s.PollDeadline != nil && start.After(*s.PollDeadline) {
		err := domain.NewTransient("POLL_TIMEOUT", fmt.Errorf("no final status by %s", s.PollDeadline.Format(time.RFC3339)))
		o.log.Warn().Str("submission_id", s.ID).Str("reference", s.ReferenceNumber).Msg("polling window exhausted")
		if ferr := o.fail(ctx, s, err, start, "poll", false); ferr != nil {
			return s, ferr
		}
		return s, err
	}

	callCtx, cancel := context.WithTimeout(ctx, o.policy.CallTimeout)
	st, err := o.authority.CheckStatus(callCtx, s.ReferenceNumber)
	cancel()

	attempt := domain.Attempt{
		Number:    len(s.Attempts) + 1,
		Operation: domain.OpCheckStatus,
		StartedAt: start,
		Duration:  o.clock.Now().Sub(start),
		Request:   map[string]string{"reference_number": s.ReferenceNumber},
	}
	log := o.log.With().Str("submission_id", s.ID).Int("attempt", attempt.Number).Logger()
	if err != nil {
		attempt.ErrorKind = domain.KindOf(err)
		attempt.Error = err.Error()
		if aerr := o.recordAttempt(ctx, s, attempt); aerr != nil {
			return s, aerr
		}
		log.Warn().Err(err).Dur("duration", attempt.Duration).Str("outcome", "failed").Msg("status check")
		if ferr := o.fail(ctx, s, err, start, "poll", true); ferr != nil {
			return s, ferr
		}
		return s, err
	}

	attempt.Success = true
	attempt.Response = map[string]string{
		"code":        strconv.Itoa(st.Code),
		"description": st.Description,
	}
	if err := o.recordAttempt(ctx, s, attempt); err != nil {
		return s, err
	}
	log.Info().Dur("duration", attempt.Duration).Int("code", st.Code).Str("outcome", MapAuthorityStatus(st.Code).String()).Msg("status check")
	return o.applyStatus(ctx, s, st, "poll")
}

// applyStatus moves s according to an authority status, polled or pushed.
func (o *Orchestrator) applyStatus(ctx context.Context, s *domain.Submission, st domain.AuthorityStatus, source string) (*domain.Submission, error) {
	code := strconv.Itoa(st.Code)
	switch MapAuthorityStatus(st.Code) {
	case OutcomeProcessing:
		return s, o.markProcessing(ctx, s, code, st.Description, source)
	case OutcomeAccepted:
		if err := o.markProcessing(ctx, s, code, st.Description, source); err != nil {
			return s, err
		}
		return o.retrieveProof(ctx, s, source)
	case OutcomeRejected:
		if err := o.markProcessing(ctx, s, code, st.Description, source); err != nil {
			return s, err
		}
		s.RejectionCode = code
		s.RejectionMessage = st.Description
		s.NextPollAt = nil
		s.NextRetryAt = nil
		if err := o.transition(ctx, s, domain.StatusRejected, source, code, st.Description); err != nil {
			return s, err
		}
		o.log.Warn().Str("submission_id", s.ID).Str("code", code).Str("message", st.Description).Msg("submission rejected")
		return s, nil
	case OutcomeUnknown:
		err := domain.NewTransient("UNMAPPED_STATUS", fmt.Errorf("authority status %d %q", st.Code, st.Description))
		if s.Status == domain.StatusFailed {
			return s, err
		}
		if ferr := o.fail(ctx, s, err, o.clock.Now(), source, true); ferr != nil {
			return s, ferr
		}
		return s, err
	}
	panic(fmt.Sprintf("submission: unhandled outcome for status %d", st.Code))
}

// markProcessing records an intermediate status. History grows only when
// the status or the authority code changes.
func (o *Orchestrator) markProcessing(ctx context.Context, s *domain.Submission, code, message, source string) error {
	next := o.clock.Now().Add(o.policy.pollEvery(s.WebhookSeen))
	s.NextPollAt = &next
	if s.Status == domain.StatusProcessing && lastCode(s) == code {
		s.UpdatedAt = o.clock.Now()
		return o.subs.UpdateSubmission(ctx, s.Tenant, s)
	}
	if s.Status == domain.StatusFailed {
		deadline := o.clock.Now().Add(o.policy.MaxPollDuration)
		s.PollDeadline = &deadline
		s.NextRetryAt = nil
	}
	return o.transition(ctx, s, domain.StatusProcessing, source, code, message)
}

func (o *Orchestrator) retrieveProof(ctx context.Context, s *domain.Submission, source string) (*domain.Submission, error) {
	if s.Status == domain.StatusAccepted && s.ProofLocator != "" {
		return s, nil
	}
	if s.Status != domain.StatusProcessing {
		return s, domain.NewBusinessRule(domain.ErrInvalidTransition, "cannot fetch proof for a %s submission", s.Status)
	}

	start := o.clock.Now()
	attempt := domain.Attempt{
		Number:    len(s.Attempts) + 1,
		Operation: domain.OpRetrieveUPO,
		StartedAt: start,
		Request:   map[string]string{"reference_number": s.ReferenceNumber},
	}
	proof, stored, err := o.fetchProof(ctx, s)
	attempt.Duration = o.clock.Now().Sub(start)
	log := o.log.With().Str("submission_id", s.ID).Int("attempt", attempt.Number).Str("source", source).Logger()

	if err != nil {
		attempt.ErrorKind = domain.KindOf(err)
		attempt.Error = err.Error()
		if aerr := o.recordAttempt(ctx, s, attempt); aerr != nil {
			return s, aerr
		}
		next := o.clock.Now().Add(o.policy.PollInterval)
		s.ProofPending = true
		s.NextPollAt = &next
		s.LastErrorKind = attempt.ErrorKind
		s.LastError = attempt.Error
		s.UpdatedAt = o.clock.Now()
		if uerr := o.subs.UpdateSubmission(ctx, s.Tenant, s); uerr != nil {
			return s, uerr
		}
		log.Warn().Err(err).Dur("duration", attempt.Duration).Str("outcome", "proof_pending").Msg("proof retrieval")
		return s, &domain.Error{
			Kind:      domain.KindTransient,
			Code:      "PROOF_RETRIEVAL",
			Message:   "accepted by the authority, proof not stored yet",
			Retryable: true,
			Cause:     errors.Join(domain.ErrProofRetrieval, err),
		}
	}

	attempt.Success = true
	attempt.Response = map[string]string{"locator": stored.Locator, "digest": stored.Hash}
	if err := o.recordAttempt(ctx, s, attempt); err != nil {
		return s, err
	}
	s.ProofLocator = stored.Locator
	s.ProofDigest = stored.Hash
	s.ProofPending = false
	s.NextPollAt = nil
	s.LastError = ""
	s.LastErrorKind = ""
	received := proof.ReceivedAt.Format(time.RFC3339)
	if err := o.transition(ctx, s, domain.StatusAccepted, source, "200", "proof received "+received); err != nil {
		return s, err
	}
	log.Info().Dur("duration", attempt.Duration).Str("outcome", "accepted").Str("proof", stored.Locator).Msg("proof retrieval")
	return s, nil
}

func (o *Orchestrator) fetchProof(ctx context.Context, s *domain.Submission) (domain.Proof, domain.StoredObject, error) {
	callCtx, cancel := context.WithTimeout(ctx, o.policy.CallTimeout)
	raw, err := o.authority.RetrieveProof(callCtx, s.ReferenceNumber)
	cancel()
	if err != nil {
		return domain.Proof{}, domain.StoredObject{}, err
	}
	proof, err := o.proofs.ParseProof(raw)
	if err != nil {
		return domain.Proof{}, domain.StoredObject{}, err
	}
	if proof.ReferenceNumber != s.ReferenceNumber {
		return proof, domain.StoredObject{}, fmt.Errorf("proof is for reference %q, expected %q", proof.ReferenceNumber, s.ReferenceNumber)
	}
	if proof.DocumentDigest != "" && !strings.EqualFold(proof.DocumentDigest, s.DocumentDigest) {
		return proof, domain.StoredObject{}, fmt.Errorf("proof digest %s does not match document %s", proof.DocumentDigest, s.DocumentDigest)
	}

	stored, err := o.store.Put(ctx, s.Tenant, "upo/"+s.ID+".xml", "application/xml", raw)
	if err != nil {
		return proof, domain.StoredObject{}, err
	}
	sum := sha256.Sum256(raw)
	if want := hex.EncodeToString(sum[:]); !strings.EqualFold(stored.Hash, want) {
		return proof, domain.StoredObject{}, fmt.Errorf("stored proof hash %s, expected %s", stored.Hash, want)
	}
	return proof, stored, nil
}

// fail records cause on s and moves it to FAILED. A transient failure under
// the attempt cap gets a nextRetryAt strictly after the attempt started.
func (o *Orchestrator) fail(ctx context.Context, s *domain.Submission, cause error, started time.Time, source string, autoRetry bool) error {
	kind := domain.KindOf(cause)
	s.LastErrorKind = kind
	s.LastError = cause.Error()
	s.NextRetryAt = nil
	s.NextPollAt = nil
	s.UploadDeadline = nil

	retryable := kind == domain.KindTransient
	if autoRetry && retryable && s.RetryCount+1 < o.policy.MaxAttempts {
		next := started.Add(o.policy.Delay(s.RetryCount))
		s.NextRetryAt = &next
	}

	code := ""
	var de *domain.Error
	if errors.As(cause, &de) {
		code = de.Code
	}
	if s.Status == domain.StatusFailed {
		s.UpdatedAt = o.clock.Now()
		return o.subs.UpdateSubmission(ctx, s.Tenant, s)
	}
	return o.transition(ctx, s, domain.StatusFailed, source, code, s.LastError)
}

// ---------------------------------------------------------------------------
// Bookkeeping
// ---------------------------------------------------------------------------

func (o *Orchestrator) transition(ctx context.Context, s *domain.Submission, to domain.SubmissionStatus, source, code, message string) error {
	if !s.Status.CanTransitionTo(to) {
		return domain.NewBusinessRule(domain.ErrInvalidTransition, "%s -> %s", s.Status, to)
	}
	now := o.clock.Now()
	ev := domain.StatusEvent{From: s.Status, To: to, At: now, Source: source, Code: code, Message: message}
	s.Status = to
	s.UpdatedAt = now
	if err := o.subs.UpdateSubmission(ctx, s.Tenant, s); err != nil {
		return err
	}
	if err := o.subs.AppendStatus(ctx, s.Tenant, s.ID, ev); err != nil {
		return err
	}
	s.History = append(s.History, ev)
	return nil
}

func (o *Orchestrator) recordAttempt(ctx context.Context, s *domain.Submission, a domain.Attempt) error {
	if err := o.subs.AppendAttempt(ctx, s.Tenant, s.ID, a); err != nil {
		return err
	}
	s.Attempts = append(s.Attempts, a)
	return nil
}

func (o *Orchestrator) loadDocument(ctx context.Context, s *domain.Submission) (*domain.DeclarationDocument, []byte, error) {
	doc, err := o.docs.GetDocument(ctx, s.Tenant, s.DocumentID)
	if err != nil {
		return nil, nil, err
	}
	data, err := o.store.Get(ctx, s.Tenant, doc.Locator)
	if err != nil {
		return nil, nil, err
	}
	sum := sha256.Sum256(data)
	if got := hex.EncodeToString(sum[:]); !strings.EqualFold(got, s.DocumentDigest) {
		return nil, nil, &domain.Error{
			Kind:    domain.KindConflict,
			Code:    "DOCUMENT_DIGEST_MISMATCH",
			Message: fmt.Sprintf("stored document hashes to %s, submission expects %s", got, s.DocumentDigest),
		}
	}
	return doc, data, nil
}

// waitFor returns how long Drive sleeps before the next step.
func (o *Orchestrator) waitFor(s *domain.Submission) time.Duration {
	var due *time.Time
	switch s.Status {
	case domain.StatusUploading:
		due = s.UploadDeadline
	case domain.StatusFailed:
		due = s.NextRetryAt
	case domain.StatusSubmitted, domain.StatusProcessing:
		due = s.NextPollAt
	}
	if due == nil {
		return 0
	}
	return due.Sub(o.clock.Now())
}

func lastCode(s *domain.Submission) string {
	if len(s.History) == 0 {
		return ""
	}
	return s.History[len(s.History)-1].Code
}

// formCode turns "JPK_V7M(2)" into "JPK_V7M".
func formCode(schemaVersion string) string {
	if i := strings.IndexByte(schemaVersion, '('); i > 0 {
		return schemaVersion[:i]
	}
	return schemaVersion
}
