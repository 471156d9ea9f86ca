package service

import (
	"context"
	"errors"

	"github.com/csg33k/jpk-vat/internal/domain"
)

// Submission returns a submission with its attempt and status logs.
func (s *DeclarationService) Submission(ctx context.Context, tenant domain.TenantID, id string) (*domain.Submission, error) {
	return s.subs.GetSubmission(ctx, tenant, id)
}

// Submissions lists the tenant's submissions, newest first.
func (s *DeclarationService) Submissions(ctx context.Context, tenant domain.TenantID) ([]domain.Submission, error) {
	return s.subs.ListSubmissions(ctx, tenant)
}

func (s *DeclarationService) CancelSubmission(ctx context.Context, tenant domain.TenantID, id, reason string) (*domain.Submission, error) {
	return s.orch.Cancel(ctx, tenant, id, reason)
}

// RetrySubmission resumes a FAILED submission. force lifts the retry gate,
// which a rejected upload or an expired certificate needs after an operator
// has dealt with the cause.
func (s *DeclarationService) RetrySubmission(ctx context.Context, tenant domain.TenantID, id string, force bool) (*domain.Submission, error) {
	var (
		sub *domain.Submission
		err error
	)
	if force {
		sub, err = s.orch.ForceRetry(ctx, tenant, id)
	} else {
		sub, err = s.orch.Retry(ctx, tenant, id)
	}
	if sub == nil {
		return nil, err
	}
	return sub, errors.Join(err, s.SyncSettlement(ctx, tenant, sub))
}

// HandleWebhook applies a verified authority event and records an acceptance
// on the settlement.
func (s *DeclarationService) HandleWebhook(ctx context.Context, tenant domain.TenantID, ev domain.WebhookEvent) (*domain.Submission, error) {
	sub, err := s.orch.HandleWebhook(ctx, tenant, ev)
	if sub == nil {
		return nil, err
	}
	return sub, errors.Join(err, s.SyncSettlement(ctx, tenant, sub))
}

// Poll runs one scheduler pass over due submissions and syncs the
// settlements of those that ended ACCEPTED.
func (s *DeclarationService) Poll(ctx context.Context, tenant domain.TenantID) (int, error) {
	n, err := s.orch.Tick(ctx, tenant)
	subs, listErr := s.subs.ListSubmissions(ctx, tenant)
	if listErr != nil {
		return n, errors.Join(err, listErr)
	}
	var errs []error
	for i := range subs {
		errs = append(errs, s.SyncSettlement(ctx, tenant, &subs[i]))
	}
	return n, errors.Join(append(errs, err)...)
}

// Receipt returns what the proof-of-receipt sheet needs: the client, the
// submission and its parsed proof.
func (s *DeclarationService) Receipt(ctx context.Context, tenant domain.TenantID, id string) (*domain.ClientProfile, *domain.Submission, domain.Proof, error) {
	sub, err := s.subs.GetSubmission(ctx, tenant, id)
	if err != nil {
		return nil, nil, domain.Proof{}, err
	}
	if sub.ProofLocator == "" {
		return nil, nil, domain.Proof{}, domain.NewNotFound("proof of receipt for submission", id)
	}
	raw, err := s.store.Get(ctx, tenant, sub.ProofLocator)
	if err != nil {
		return nil, nil, domain.Proof{}, err
	}
	proof, err := s.proofs.ParseProof(raw)
	if err != nil {
		return nil, nil, domain.Proof{}, err
	}
	client, err := s.clients.GetClient(ctx, tenant, sub.ClientID)
	if err != nil {
		return nil, nil, domain.Proof{}, err
	}
	return client, sub, proof, nil
}
