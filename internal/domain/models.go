package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TenantID scopes every repository call. There is no ambient tenant; callers
// pass it explicitly.
type TenantID string

type Direction string

const (
	DirectionOutput Direction = "OUTPUT"
	DirectionInput  Direction = "INPUT"
	DirectionBoth   Direction = "BOTH"
)

// HasOutput reports whether the transaction contributes output (sales) VAT.
func (d Direction) HasOutput() bool { return d == DirectionOutput || d == DirectionBoth }

// HasInput reports whether the transaction contributes input (purchase) VAT.
func (d Direction) HasInput() bool { return d == DirectionInput || d == DirectionBoth }

// TransactionType drives which type sub-total a transaction lands in.
type TransactionType string

const (
	TypeDomestic      TransactionType = "DOMESTIC"
	TypeWDT           TransactionType = "WDT" // intra-EU supply
	TypeWNT           TransactionType = "WNT" // intra-EU acquisition
	TypeExport        TransactionType = "EXPORT"
	TypeImport        TransactionType = "IMPORT"
	TypeReverseCharge TransactionType = "REVERSE_CHARGE"
	TypeFixedAsset    TransactionType = "FIXED_ASSET"
	TypeOSS           TransactionType = "OSS"
)

type TransactionStatus string

const (
	TransactionPosted     TransactionStatus = "POSTED"
	TransactionSuperseded TransactionStatus = "SUPERSEDED"
)

// LineItem is one position of the source invoice. CNCode is the harmonised
// commodity (CN) code; PKWiU is the Polish goods/services tariff code.
type LineItem struct {
	Description string
	CNCode      string
	PKWiU       string
	Net         decimal.Decimal
}

// Classification is the set of flags derived by the classifier. Slices are
// kept sorted so two classifications of the same input compare equal.
type Classification struct {
	GTU          []string
	Procedures   []string
	SplitPayment bool
}

// Has reports whether code is present in either GTU or procedure flags.
func (c Classification) Has(code string) bool {
	for _, g := range c.GTU {
		if g == code {
			return true
		}
	}
	for _, p := range c.Procedures {
		if p == code {
			return true
		}
	}
	return false
}

// Transaction is immutable once posted. Corrections are new records linked
// through CorrectsID.
type Transaction struct {
	ID       string
	ClientID string
	// Sequence is the ingestion order within the tenant. Declaration records
	// are emitted in this order.
	Sequence       int64
	DocumentNumber string
	Type           TransactionType
	Direction      Direction
	RateCode       string
	RateValue      decimal.Decimal
	Net            decimal.Decimal
	VAT            decimal.Decimal
	Gross          decimal.Decimal
	Date           time.Time
	ReceivedDate   *time.Time
	Period         PeriodKey

	Items        []LineItem
	ServiceType  string
	RelatedParty bool
	MailOrder    bool
	Triangular   bool

	// Classification is nil until the classifier has run.
	Classification *Classification

	CounterpartyID      string
	CounterpartyName    string
	CounterpartyCountry string
	CrossBorder         bool
	ForeignVATID        string
	ForeignVATVerified  bool

	CorrectsID       string
	CorrectionReason string
	CorrectionSeq    int

	Status    TransactionStatus
	CreatedAt time.Time
}

// IsCorrection reports whether the transaction is a delta against another one.
func (t *Transaction) IsCorrection() bool { return t.CorrectsID != "" }

type FilingFrequency string

const (
	FilingMonthly   FilingFrequency = "MONTHLY"
	FilingQuarterly FilingFrequency = "QUARTERLY"
)

type TaxpayerKind string

const (
	TaxpayerLegalEntity   TaxpayerKind = "LEGAL_ENTITY"
	TaxpayerNaturalPerson TaxpayerKind = "NATURAL_PERSON"
)

// RefundDisposition says what happens to a refund position: paid out or
// rolled forward into a later period.
type RefundDisposition string

const (
	RefundPayout       RefundDisposition = "REFUND"
	RefundCarryForward RefundDisposition = "CARRY_FORWARD"
)

// ClientProfile is the taxpayer a declaration is filed for.
type ClientProfile struct {
	ID            string
	Kind          TaxpayerKind
	NIP           string
	FullName      string // legal entity
	FirstName     string // natural person
	LastName      string // natural person
	BirthDate     time.Time
	Email         string
	Phone         string
	TaxOfficeCode string
	Filing        FilingFrequency
	Refund        RefundDisposition
}

// DisplayName returns the name printed on summaries.
func (c ClientProfile) DisplayName() string {
	if c.Kind == TaxpayerNaturalPerson {
		return c.FirstName + " " + c.LastName
	}
	return c.FullName
}

type SettlementStatus string

const (
	SettlementDraft      SettlementStatus = "DRAFT"
	SettlementCalculated SettlementStatus = "CALCULATED"
	SettlementSubmitted  SettlementStatus = "SUBMITTED"
	SettlementAccepted   SettlementStatus = "ACCEPTED"
	SettlementCorrected  SettlementStatus = "CORRECTED"
)

// Bucket is a net/VAT pair accumulated under a key (rate code or category).
type Bucket struct {
	Key   string
	Net   decimal.Decimal
	VAT   decimal.Decimal
	Count int
}

// PeriodSettlement is one computed settlement version for a client period.
// A recompute produces a new version; existing versions are never mutated
// apart from their status.
type PeriodSettlement struct {
	ID       string
	ClientID string
	Period   PeriodKey
	Version  int
	Status   SettlementStatus

	OutputByRate []Bucket
	InputByRate  []Bucket
	OutputByType []Bucket
	InputByType  []Bucket

	OutputTotal decimal.Decimal
	InputTotal  decimal.Decimal
	NetPosition decimal.Decimal

	CarryForwardIn       decimal.Decimal
	CarryForwardConsumed decimal.Decimal
	CarryForwardOut      decimal.Decimal
	FinalDue             decimal.Decimal
	FinalRefund          decimal.Decimal
	// RefundCarried is the part of FinalRefund rolled into a new carry-forward.
	RefundCarried decimal.Decimal

	TransactionIDs []string
	CalculatedAt   time.Time

	// Supersedes is the previous version's ID. AmendsFiled is set when an
	// earlier version of the period was already filed, which makes the
	// declaration a correction.
	Supersedes  string
	AmendsFiled bool
}

// BucketFor returns the bucket with key from list, or a zero bucket.
func BucketFor(list []Bucket, key string) Bucket {
	for _, b := range list {
		if b.Key == key {
			return b
		}
	}
	return Bucket{Key: key, Net: decimal.Zero, VAT: decimal.Zero}
}

type CarryForwardStatus string

const (
	CarryForwardActive           CarryForwardStatus = "ACTIVE"
	CarryForwardPartiallyApplied CarryForwardStatus = "PARTIALLY_APPLIED"
	CarryForwardFullyApplied     CarryForwardStatus = "FULLY_APPLIED"
	CarryForwardRefunded         CarryForwardStatus = "REFUNDED"
	CarryForwardExpired          CarryForwardStatus = "EXPIRED"
)

// Open reports whether the carry-forward still has an amount to apply.
func (s CarryForwardStatus) Open() bool {
	return s == CarryForwardActive || s == CarryForwardPartiallyApplied
}

type CarryForwardApplication struct {
	TargetSettlementID string
	TargetPeriod       PeriodKey
	Amount             decimal.Decimal
	AppliedAt          time.Time
}

type CarryForward struct {
	ID                 string
	ClientID           string
	SourceSettlementID string
	SourcePeriod       PeriodKey
	Original           decimal.Decimal
	Remaining          decimal.Decimal
	Status             CarryForwardStatus
	Applications       []CarryForwardApplication
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Purpose is the declaration's CelZlozenia value.
type Purpose string

const (
	PurposeOriginal   Purpose = "1"
	PurposeCorrection Purpose = "2"
)

// DeclarationDocument is an immutable, content-addressed serialized snapshot.
type DeclarationDocument struct {
	ID                string
	ClientID          string
	SettlementID      string
	SettlementVersion int
	Period            PeriodKey
	SchemaVersion     string
	Purpose           Purpose
	Interim           bool // evidence part only, no declaration
	Digest            string
	Locator           string
	Size              int
	GeneratedAt       time.Time
}

// StoredObject is what the document store hands back after a write.
type StoredObject struct {
	Locator string
	Hash    string
	Size    int
}
