package ports

import (
	"context"
	"time"

	"github.com/csg33k/jpk-vat/internal/domain"
)

//go:generate mockgen -source=ports.go -destination=mocks/ports_mock.go -package=mocks

// RateTable is the read-only, effective-dated rate source.
type RateTable interface {
	// Entries returns every validity interval known for code.
	Entries(code string) []domain.RateEntry
}

// TransactionRepository defines persistence operations for posted transactions.
type TransactionRepository interface {
	// InsertTransaction assigns ID (if empty) and the ingestion Sequence.
	InsertTransaction(ctx context.Context, tenant domain.TenantID, t *domain.Transaction) error
	GetTransaction(ctx context.Context, tenant domain.TenantID, id string) (*domain.Transaction, error)
	// Snapshot returns all POSTED transactions of a client whose period falls
	// inside period, ordered by Sequence, read in a single consistent view.
	Snapshot(ctx context.Context, tenant domain.TenantID, clientID string, period domain.PeriodKey) ([]domain.Transaction, error)
	// CountCorrections returns how many corrections already reference originalID.
	CountCorrections(ctx context.Context, tenant domain.TenantID, originalID string) (int, error)
	MarkSuperseded(ctx context.Context, tenant domain.TenantID, id string) error
}

// SettlementRepository stores settlement versions.
type SettlementRepository interface {
	// SaveSettlement inserts s as a new version.
	SaveSettlement(ctx context.Context, tenant domain.TenantID, s *domain.PeriodSettlement) error
	GetSettlement(ctx context.Context, tenant domain.TenantID, id string) (*domain.PeriodSettlement, error)
	// LatestSettlement returns the highest version for the client period.
	LatestSettlement(ctx context.Context, tenant domain.TenantID, clientID string, period domain.PeriodKey) (*domain.PeriodSettlement, error)
	UpdateSettlementStatus(ctx context.Context, tenant domain.TenantID, id string, status domain.SettlementStatus) error
}

// CarryForwardRepository stores carry-forward balances and their ledgers.
type CarryForwardRepository interface {
	CreateCarryForward(ctx context.Context, tenant domain.TenantID, cf *domain.CarryForward) error
	// ListOpenCarryForwards returns ACTIVE or PARTIALLY_APPLIED balances
	// whose source period precedes before, oldest first.
	ListOpenCarryForwards(ctx context.Context, tenant domain.TenantID, clientID string, before domain.PeriodKey) ([]domain.CarryForward, error)
	UpdateCarryForward(ctx context.Context, tenant domain.TenantID, cf *domain.CarryForward) error
}

// UnitOfWork runs fn so that every repository call made with the ctx it
// receives commits together or not at all. Nested calls join the outer one.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// ClientRepository looks up taxpayer profiles.
type ClientRepository interface {
	GetClient(ctx context.Context, tenant domain.TenantID, id string) (*domain.ClientProfile, error)
	ListClients(ctx context.Context, tenant domain.TenantID) ([]domain.ClientProfile, error)
	SaveClient(ctx context.Context, tenant domain.TenantID, c *domain.ClientProfile) error
}

// DocumentRepository stores declaration document metadata.
type DocumentRepository interface {
	CreateDocument(ctx context.Context, tenant domain.TenantID, d *domain.DeclarationDocument) error
	GetDocument(ctx context.Context, tenant domain.TenantID, id string) (*domain.DeclarationDocument, error)
}

// SubmissionRepository stores submissions with their append-only logs.
type SubmissionRepository interface {
	CreateSubmission(ctx context.Context, tenant domain.TenantID, s *domain.Submission) error
	GetSubmission(ctx context.Context, tenant domain.TenantID, id string) (*domain.Submission, error)
	FindByReference(ctx context.Context, tenant domain.TenantID, ref string) (*domain.Submission, error)
	// ListSubmissions returns submissions newest first, without their logs.
	ListSubmissions(ctx context.Context, tenant domain.TenantID) ([]domain.Submission, error)
	// ActiveForDocument returns the non-cancelled submission of a document,
	// or nil when there is none.
	ActiveForDocument(ctx context.Context, tenant domain.TenantID, documentID string) (*domain.Submission, error)
	// UpdateSubmission persists mutable fields. Attempts and History are
	// written only through the Append methods.
	UpdateSubmission(ctx context.Context, tenant domain.TenantID, s *domain.Submission) error
	AppendAttempt(ctx context.Context, tenant domain.TenantID, submissionID string, a domain.Attempt) error
	AppendStatus(ctx context.Context, tenant domain.TenantID, submissionID string, e domain.StatusEvent) error
	// ListActionable returns non-terminal submissions whose next retry or
	// poll is due at now.
	ListActionable(ctx context.Context, tenant domain.TenantID, now time.Time) ([]domain.Submission, error)
}

// DocumentStore keeps document and proof bytes. It returns an opaque locator
// and the SHA-256 of what it stored.
type DocumentStore interface {
	Put(ctx context.Context, tenant domain.TenantID, name, contentType string, data []byte) (domain.StoredObject, error)
	Get(ctx context.Context, tenant domain.TenantID, locator string) ([]byte, error)
}

// AuthorityClient is the filing authority's submission protocol.
type AuthorityClient interface {
	Upload(ctx context.Context, document []byte, meta domain.UploadMetadata) (string, error)
	CheckStatus(ctx context.Context, referenceNumber string) (domain.AuthorityStatus, error)
	RetrieveProof(ctx context.Context, referenceNumber string) ([]byte, error)
}

// ProofParser decodes the authority's proof-of-receipt document.
type ProofParser interface {
	ParseProof(raw []byte) (domain.Proof, error)
}

// Signer attaches a signature to a document before upload. The signature
// algorithm lives behind this port.
type Signer interface {
	Sign(ctx context.Context, document []byte, digest string) (domain.SignatureEnvelope, error)
}

// Clock is injected so retry and polling schedules are testable.
type Clock interface {
	Now() time.Time
}
