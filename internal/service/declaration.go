// Package service wires the pure components into the declaration workflow:
// post → settle → declare → submit.
package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/csg33k/jpk-vat/internal/adapters/jpk"
	"github.com/csg33k/jpk-vat/internal/adapters/jpk/schema"
	"github.com/csg33k/jpk-vat/internal/classify"
	"github.com/csg33k/jpk-vat/internal/domain"
	"github.com/csg33k/jpk-vat/internal/ports"
	"github.com/csg33k/jpk-vat/internal/rates"
	"github.com/csg33k/jpk-vat/internal/settlement"
	"github.com/csg33k/jpk-vat/internal/submission"
)

type Deps struct {
	// Tx makes each settlement version atomic. Without it writes are applied
	// one by one.
	Tx            ports.UnitOfWork
	Transactions  ports.TransactionRepository
	Settlements   ports.SettlementRepository
	CarryForwards ports.CarryForwardRepository
	Clients       ports.ClientRepository
	Documents     ports.DocumentRepository
	Store         ports.DocumentStore
	Submissions   ports.SubmissionRepository
	Proofs        ports.ProofParser
	Rates         *rates.Resolver
	Classifier    *classify.Classifier
	Serializer    *jpk.Serializer
	Aggregator    *settlement.Aggregator
	Orchestrator  *submission.Orchestrator
	Clock         ports.Clock
}

// DeclareOptions select the schema and shape of one generated document.
type DeclareOptions struct {
	// SchemaVersion defaults by period kind when empty.
	SchemaVersion string
	// Interim omits the declaration part. Corrections of the evidence alone
	// are filed this way.
	Interim bool
}

type Options struct {
	// SchemaVersion is used for monthly periods when the caller names none.
	// Quarterly periods always default to JPK_V7K(2).
	SchemaVersion string
	SystemName    string
}

type DeclarationService struct {
	tx         ports.UnitOfWork
	txs        ports.TransactionRepository
	settles    ports.SettlementRepository
	carry      ports.CarryForwardRepository
	clients    ports.ClientRepository
	docs       ports.DocumentRepository
	store      ports.DocumentStore
	subs       ports.SubmissionRepository
	proofs     ports.ProofParser
	rates      *rates.Resolver
	classifier *classify.Classifier
	serializer *jpk.Serializer
	aggregator *settlement.Aggregator
	orch       *submission.Orchestrator
	clock      ports.Clock
	opts       Options
	log        zerolog.Logger
}

func New(d Deps, opts Options, log zerolog.Logger) *DeclarationService {
	if d.Rates == nil {
		d.Rates = rates.Default()
	}
	if d.Classifier == nil {
		d.Classifier = classify.New()
	}
	if d.Serializer == nil {
		d.Serializer = jpk.New()
	}
	if d.Aggregator == nil {
		d.Aggregator = settlement.NewAggregator()
	}
	if d.Clock == nil {
		d.Clock = submission.SystemClock{}
	}
	if opts.SchemaVersion == "" {
		opts.SchemaVersion = schema.V7M2
	}
	return &DeclarationService{
		tx:         d.Tx,
		txs:        d.Transactions,
		settles:    d.Settlements,
		carry:      d.CarryForwards,
		clients:    d.Clients,
		docs:       d.Documents,
		store:      d.Store,
		subs:       d.Submissions,
		proofs:     d.Proofs,
		rates:      d.Rates,
		classifier: d.Classifier,
		serializer: d.Serializer,
		aggregator: d.Aggregator,
		orch:       d.Orchestrator,
		clock:      d.Clock,
		opts:       opts,
		log:        log.With().Str("component", "declarations").Logger(),
	}
}

// ── Transactions ──────────────────────────────────────────────────────────────

// PostTransaction resolves the rate in force on the transaction date,
// completes whichever of net/VAT/gross is missing, classifies the line items
// and stores the record. A Classification already present is kept.
func (s *DeclarationService) PostTransaction(ctx context.Context, tenant domain.TenantID, t *domain.Transaction) (*domain.Transaction, error) {
	if _, err := s.clients.GetClient(ctx, tenant, t.ClientID); err != nil {
		return nil, err
	}
	if t.Date.IsZero() {
		return nil, domain.NewValidation("date", "transaction date is required")
	}
	rate, err := s.rates.Resolve(t.RateCode, t.Date)
	if err != nil {
		return nil, err
	}
	t.RateCode, t.RateValue = rate.Code, rate.Value

	switch {
	case !t.Net.IsZero() && t.VAT.IsZero() && t.Gross.IsZero():
		t.VAT, t.Gross = domain.VATFromNet(t.Net, t.RateValue)
	case t.Net.IsZero() && t.VAT.IsZero() && !t.Gross.IsZero():
		t.Net, t.VAT = domain.SplitGross(t.Gross, t.RateValue)
	}
	if t.Period == (domain.PeriodKey{}) {
		t.Period = domain.PeriodOf(t.Date)
	}
	if t.Classification == nil {
		c := s.classifier.Classify(classify.InputFor(t))
		t.Classification = &c
	}
	if err := domain.ValidateTransaction(*t).Err(); err != nil {
		return nil, err
	}
	if err := s.txs.InsertTransaction(ctx, tenant, t); err != nil {
		return nil, err
	}
	s.log.Debug().Str("tenant", string(tenant)).Str("transaction_id", t.ID).Int64("seq", t.Sequence).
		Str("period", t.Period.String()).Msg("transaction posted")
	return t, nil
}

// CorrectTransaction posts a delta against originalID into the period of
// req.Date.
func (s *DeclarationService) CorrectTransaction(ctx context.Context, tenant domain.TenantID, originalID string, req settlement.CorrectionRequest) (*domain.Transaction, error) {
	orig, err := s.txs.GetTransaction(ctx, tenant, originalID)
	if err != nil {
		return nil, err
	}
	n, err := s.txs.CountCorrections(ctx, tenant, originalID)
	if err != nil {
		return nil, err
	}
	req.Seq = n + 1
	corr, err := settlement.Correct(orig, req)
	if err != nil {
		return nil, err
	}
	return corr, s.txs.InsertTransaction(ctx, tenant, corr)
}

// CancelTransaction posts the full reversal of originalID.
func (s *DeclarationService) CancelTransaction(ctx context.Context, tenant domain.TenantID, originalID, reason string) (*domain.Transaction, error) {
	orig, err := s.txs.GetTransaction(ctx, tenant, originalID)
	if err != nil {
		return nil, err
	}
	return s.CorrectTransaction(ctx, tenant, originalID, settlement.CorrectionRequest{
		NetDelta: orig.Net.Neg(),
		Reason:   reason,
		Date:     s.clock.Now(),
	})
}

// VoidTransaction withdraws a posting entered in error. Once its period has
// a settlement only a correction can change it.
func (s *DeclarationService) VoidTransaction(ctx context.Context, tenant domain.TenantID, id string) error {
	t, err := s.txs.GetTransaction(ctx, tenant, id)
	if err != nil {
		return err
	}
	if _, err := s.settles.LatestSettlement(ctx, tenant, t.ClientID, t.Period); err == nil {
		return domain.NewBusinessRule(domain.ErrInvalidTransition, "period %s is settled, post a correction instead", t.Period)
	} else if domain.KindOf(err) != domain.KindNotFound {
		return err
	}
	return s.txs.MarkSuperseded(ctx, tenant, id)
}

// ── Settlement ────────────────────────────────────────────────────────────────

// Settle computes a new settlement version for the client period. The
// carry-forward entering a period is fixed by its first version; later
// versions allocate only additional consumption. A refund the client elected
// to roll forward opens a new balance.
func (s *DeclarationService) Settle(ctx context.Context, tenant domain.TenantID, clientID string, period domain.PeriodKey) (*domain.PeriodSettlement, error) {
	client, err := s.clients.GetClient(ctx, tenant, clientID)
	if err != nil {
		return nil, err
	}
	if period.Filing() != client.Filing {
		return nil, domain.NewBusinessRule(domain.ErrFilingMismatch, "client %s files %s, period %s is %s",
			clientID, client.Filing, period, period.Filing())
	}

	var st *domain.PeriodSettlement
	err = s.atomically(ctx, func(ctx context.Context) error {
		var err error
		st, err = s.settle(ctx, tenant, client, period)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("tenant", string(tenant)).Str("client_id", clientID).Str("period", period.String()).
		Int("version", st.Version).Int("transactions", len(st.TransactionIDs)).
		Str("final_due", st.FinalDue.String()).Str("final_refund", st.FinalRefund.String()).
		Msg("settlement calculated")
	return st, nil
}

// settle reads and writes everything for one version. Run it inside a unit
// of work so a failed write leaves no partial version behind.
func (s *DeclarationService) settle(ctx context.Context, tenant domain.TenantID, client *domain.ClientProfile, period domain.PeriodKey) (*domain.PeriodSettlement, error) {
	prev, err := s.settles.LatestSettlement(ctx, tenant, client.ID, period)
	if err != nil && domain.KindOf(err) != domain.KindNotFound {
		return nil, err
	}
	txs, err := s.txs.Snapshot(ctx, tenant, client.ID, period)
	if err != nil {
		return nil, err
	}
	open, err := s.carry.ListOpenCarryForwards(ctx, tenant, client.ID, period)
	if err != nil {
		return nil, err
	}

	cfIn, prevConsumed := settlement.OpenBalance(open), decimal.Zero
	if prev != nil {
		cfIn, prevConsumed = prev.CarryForwardIn, prev.CarryForwardConsumed
	}
	st, err := s.aggregator.Aggregate(period, txs, cfIn)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	st.ID = uuid.NewString()
	st.ClientID = client.ID
	st.Version = 1
	st.CalculatedAt = now
	if prev != nil {
		st.Version = prev.Version + 1
		st.Supersedes = prev.ID
		st.AmendsFiled = prev.AmendsFiled || filed(prev.Status)
	}
	settlement.ElectRefundDisposition(st, client.Refund)
	if err := settlement.CheckInvariant(st); err != nil {
		return nil, err
	}

	var touched []domain.CarryForward
	if extra := st.CarryForwardConsumed.Sub(prevConsumed); extra.IsPositive() {
		if touched, err = settlement.Allocate(open, extra, st.ID, period, now); err != nil {
			return nil, err
		}
	}

	if err := s.settles.SaveSettlement(ctx, tenant, st); err != nil {
		return nil, err
	}
	for i := range touched {
		if err := s.carry.UpdateCarryForward(ctx, tenant, &touched[i]); err != nil {
			return nil, err
		}
	}
	if prev != nil {
		if err := s.retireCarryForward(ctx, tenant, prev, now); err != nil {
			return nil, err
		}
		if filed(prev.Status) {
			if err := s.settles.UpdateSettlementStatus(ctx, tenant, prev.ID, domain.SettlementCorrected); err != nil {
				return nil, err
			}
		}
	}
	if cf := settlement.NewCarryForward(st, now); cf != nil {
		if err := s.carry.CreateCarryForward(ctx, tenant, cf); err != nil {
			return nil, err
		}
	}
	return st, nil
}

// atomically runs fn in a unit of work when one is configured.
func (s *DeclarationService) atomically(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.tx == nil {
		return fn(ctx)
	}
	return s.tx.WithinTx(ctx, fn)
}

// retireCarryForward expires the untouched balance opened by a superseded
// version. A balance a later period already drew on stays.
func (s *DeclarationService) retireCarryForward(ctx context.Context, tenant domain.TenantID, prev *domain.PeriodSettlement, at time.Time) error {
	if !prev.RefundCarried.IsPositive() {
		return nil
	}
	next := domain.PeriodKey{Year: prev.Period.End().Year(), Month: int(prev.Period.End().Month())}
	open, err := s.carry.ListOpenCarryForwards(ctx, tenant, prev.ClientID, next)
	if err != nil {
		return err
	}
	for i := range open {
		cf := &open[i]
		if cf.SourceSettlementID != prev.ID || len(cf.Applications) > 0 {
			continue
		}
		if err := settlement.Expire(cf, at); err != nil {
			return err
		}
		return s.carry.UpdateCarryForward(ctx, tenant, cf)
	}
	return nil
}

func filed(st domain.SettlementStatus) bool {
	return st == domain.SettlementSubmitted || st == domain.SettlementAccepted || st == domain.SettlementCorrected
}

// ── Declaration ───────────────────────────────────────────────────────────────

// Declare serializes a settlement into a stored, content-addressed document.
// The transaction set is re-read and must match the one the settlement was
// computed from.
func (s *DeclarationService) Declare(ctx context.Context, tenant domain.TenantID, settlementID string, opts DeclareOptions) (*domain.DeclarationDocument, error) {
	st, err := s.settles.GetSettlement(ctx, tenant, settlementID)
	if err != nil {
		return nil, err
	}
	client, err := s.clients.GetClient(ctx, tenant, st.ClientID)
	if err != nil {
		return nil, err
	}
	txs, err := s.txs.Snapshot(ctx, tenant, st.ClientID, st.Period)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(txs))
	for i := range txs {
		ids[i] = txs[i].ID
	}
	if !slices.Equal(ids, st.TransactionIDs) {
		return nil, domain.NewBusinessRule(domain.ErrStaleSnapshot,
			"settlement %s covers %d transactions, period now has %d; settle again", st.ID, len(st.TransactionIDs), len(ids))
	}

	version := s.schemaFor(st.Period, opts.SchemaVersion)
	purpose := domain.PurposeOriginal
	if st.AmendsFiled {
		purpose = domain.PurposeCorrection
	}
	now := s.clock.Now()
	res, err := s.serializer.Serialize(*client, st, txs, jpk.Options{
		SchemaVersion:   version,
		Purpose:         purpose,
		GeneratedAt:     now,
		WithDeclaration: !opts.Interim,
		SystemName:      s.opts.SystemName,
	})
	if err != nil {
		return nil, err
	}

	name := fmt.Sprintf("%s_%s_v%d.xml", domain.CleanNIP(client.NIP), st.Period, st.Version)
	if opts.Interim {
		name = fmt.Sprintf("%s_%s_v%d_ewidencja.xml", domain.CleanNIP(client.NIP), st.Period, st.Version)
	}
	obj, err := s.store.Put(ctx, tenant, name, "application/xml", res.Bytes)
	if err != nil {
		return nil, domain.NewTransient("DOCUMENT_STORE", err)
	}
	if obj.Hash != res.Digest {
		return nil, &domain.Error{Kind: domain.KindConflict, Code: "DOCUMENT_DIGEST_MISMATCH",
			Message: fmt.Sprintf("store hashed %s as %s, serializer computed %s", name, obj.Hash, res.Digest)}
	}

	doc := &domain.DeclarationDocument{
		ClientID:          st.ClientID,
		SettlementID:      st.ID,
		SettlementVersion: st.Version,
		Period:            st.Period,
		SchemaVersion:     res.SchemaVersion,
		Purpose:           purpose,
		Interim:           opts.Interim,
		Digest:            res.Digest,
		Locator:           obj.Locator,
		Size:              obj.Size,
		GeneratedAt:       now,
	}
	if err := s.docs.CreateDocument(ctx, tenant, doc); err != nil {
		return nil, err
	}
	s.log.Info().Str("tenant", string(tenant)).Str("document_id", doc.ID).Str("schema", doc.SchemaVersion).
		Str("digest", doc.Digest).Bool("interim", doc.Interim).Int("sale_rows", res.SaleRows).Int("purchase_rows", res.PurchaseRows).
		Msg("declaration generated")
	return doc, nil
}

func (s *DeclarationService) schemaFor(period domain.PeriodKey, requested string) string {
	if requested != "" {
		return requested
	}
	if period.IsQuarterly() {
		return schema.V7K2
	}
	return s.opts.SchemaVersion
}

// Document returns a stored declaration and its bytes, verified against the
// recorded digest.
func (s *DeclarationService) Document(ctx context.Context, tenant domain.TenantID, id string) (*domain.DeclarationDocument, []byte, error) {
	doc, err := s.docs.GetDocument(ctx, tenant, id)
	if err != nil {
		return nil, nil, err
	}
	data, err := s.store.Get(ctx, tenant, doc.Locator)
	if err != nil {
		return nil, nil, err
	}
	if got := jpk.Digest(data); got != doc.Digest {
		return nil, nil, &domain.Error{Kind: domain.KindConflict, Code: "DOCUMENT_DIGEST_MISMATCH",
			Message: fmt.Sprintf("document %s hashes to %s, recorded %s", id, got, doc.Digest)}
	}
	return doc, data, nil
}

// SettlementSummary returns a settlement with its client, for rendering.
func (s *DeclarationService) SettlementSummary(ctx context.Context, tenant domain.TenantID, id string) (*domain.ClientProfile, *domain.PeriodSettlement, error) {
	st, err := s.settles.GetSettlement(ctx, tenant, id)
	if err != nil {
		return nil, nil, err
	}
	client, err := s.clients.GetClient(ctx, tenant, st.ClientID)
	if err != nil {
		return nil, nil, err
	}
	return client, st, nil
}

// ── Submission ────────────────────────────────────────────────────────────────

// Submit opens a submission for the document and marks its settlement
// SUBMITTED. The upload itself happens on the next Advance or Tick.
func (s *DeclarationService) Submit(ctx context.Context, tenant domain.TenantID, documentID string) (*domain.Submission, error) {
	doc, err := s.docs.GetDocument(ctx, tenant, documentID)
	if err != nil {
		return nil, err
	}
	sub, err := s.orch.Create(ctx, tenant, documentID)
	if err != nil {
		return nil, err
	}
	if err := s.settles.UpdateSettlementStatus(ctx, tenant, doc.SettlementID, domain.SettlementSubmitted); err != nil {
		return sub, err
	}
	return sub, nil
}

// Follow drives a submission as far as it can go now and records an
// acceptance on the settlement.
func (s *DeclarationService) Follow(ctx context.Context, tenant domain.TenantID, submissionID string) (*domain.Submission, error) {
	sub, err := s.orch.Drive(ctx, tenant, submissionID)
	if sub == nil {
		return nil, err
	}
	if syncErr := s.SyncSettlement(ctx, tenant, sub); syncErr != nil {
		return sub, errors.Join(err, syncErr)
	}
	return sub, err
}

// SyncSettlement moves the SUBMITTED settlement behind an accepted
// submission to ACCEPTED. Anything else is left alone, so a version that was
// since corrected stays CORRECTED.
func (s *DeclarationService) SyncSettlement(ctx context.Context, tenant domain.TenantID, sub *domain.Submission) error {
	if sub.Status != domain.StatusAccepted {
		return nil
	}
	doc, err := s.docs.GetDocument(ctx, tenant, sub.DocumentID)
	if err != nil {
		return err
	}
	st, err := s.settles.GetSettlement(ctx, tenant, doc.SettlementID)
	if err != nil || st.Status != domain.SettlementSubmitted {
		return err
	}
	return s.settles.UpdateSettlementStatus(ctx, tenant, st.ID, domain.SettlementAccepted)
}

// ── Clients ───────────────────────────────────────────────────────────────────

// RegisterClient validates and stores a taxpayer profile.
func (s *DeclarationService) RegisterClient(ctx context.Context, tenant domain.TenantID, c *domain.ClientProfile) error {
	if err := domain.ValidateClientProfile(*c).Err(); err != nil {
		return err
	}
	if c.Refund == "" {
		c.Refund = domain.RefundPayout
	}
	return s.clients.SaveClient(ctx, tenant, c)
}

func (s *DeclarationService) Clients(ctx context.Context, tenant domain.TenantID) ([]domain.ClientProfile, error) {
	return s.clients.ListClients(ctx, tenant)
}
