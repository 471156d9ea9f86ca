// Package memory keeps every record in process memory. It backs tests and
// the CLI's --dry-run mode; nothing survives a restart.
package memory

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"maps"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/csg33k/jpk-vat/internal/domain"
)

type Store struct {
	mu   sync.RWMutex
	txMu sync.Mutex

	seq          map[domain.TenantID]int64
	transactions map[domain.TenantID]map[string]domain.Transaction
	settlements  map[domain.TenantID]map[string]domain.PeriodSettlement
	carry        map[domain.TenantID]map[string]domain.CarryForward
	clients      map[domain.TenantID]map[string]domain.ClientProfile
	documents    map[domain.TenantID]map[string]domain.DeclarationDocument
	submissions  map[domain.TenantID]map[string]domain.Submission
	blobs        map[domain.TenantID]map[string][]byte
}

func New() *Store {
	return &Store{
		seq:          map[domain.TenantID]int64{},
		transactions: map[domain.TenantID]map[string]domain.Transaction{},
		settlements:  map[domain.TenantID]map[string]domain.PeriodSettlement{},
		carry:        map[domain.TenantID]map[string]domain.CarryForward{},
		clients:      map[domain.TenantID]map[string]domain.ClientProfile{},
		documents:    map[domain.TenantID]map[string]domain.DeclarationDocument{},
		submissions:  map[domain.TenantID]map[string]domain.Submission{},
		blobs:        map[domain.TenantID]map[string][]byte{},
	}
}

func bucket[T any](m map[domain.TenantID]map[string]T, tenant domain.TenantID) map[string]T {
	b, ok := m[tenant]
	if !ok {
		b = map[string]T{}
		m[tenant] = b
	}
	return b
}

// ── Unit of work ─────────────────────────────────────────────────────────────

type txKey struct{}

type snapshot struct {
	seq          map[domain.TenantID]int64
	transactions map[domain.TenantID]map[string]domain.Transaction
	settlements  map[domain.TenantID]map[string]domain.PeriodSettlement
	carry        map[domain.TenantID]map[string]domain.CarryForward
	clients      map[domain.TenantID]map[string]domain.ClientProfile
	documents    map[domain.TenantID]map[string]domain.DeclarationDocument
	submissions  map[domain.TenantID]map[string]domain.Submission
	blobs        map[domain.TenantID]map[string][]byte
}

// WithinTx runs fn against a snapshot taken up front and restores it when fn
// fails. Units of work are serialized with each other but not with plain
// calls: a rollback also discards writes other goroutines made meanwhile.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()

	snap := s.snapshot()
	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

// snapshot clones the bucket maps. Stored values are replaced on write, never
// mutated, so a shallow copy per bucket is enough.
func (s *Store) snapshot() snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshot{
		seq:          maps.Clone(s.seq),
		transactions: cloneBuckets(s.transactions),
		settlements:  cloneBuckets(s.settlements),
		carry:        cloneBuckets(s.carry),
		clients:      cloneBuckets(s.clients),
		documents:    cloneBuckets(s.documents),
		submissions:  cloneBuckets(s.submissions),
		blobs:        cloneBuckets(s.blobs),
	}
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq = snap.seq
	s.transactions = snap.transactions
	s.settlements = snap.settlements
	s.carry = snap.carry
	s.clients = snap.clients
	s.documents = snap.documents
	s.submissions = snap.submissions
	s.blobs = snap.blobs
}

func cloneBuckets[T any](m map[domain.TenantID]map[string]T) map[domain.TenantID]map[string]T {
	out := make(map[domain.TenantID]map[string]T, len(m))
	for tenant, b := range m {
		out[tenant] = maps.Clone(b)
	}
	return out
}

// ── Transactions ─────────────────────────────────────────────────────────────

func (s *Store) InsertTransaction(_ context.Context, tenant domain.TenantID, t *domain.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	b := bucket(s.transactions, tenant)
	if _, dup := b[t.ID]; dup {
		return &domain.Error{Kind: domain.KindConflict, Code: "DUPLICATE_TRANSACTION", Message: fmt.Sprintf("transaction %s exists", t.ID)}
	}
	s.seq[tenant]++
	t.Sequence = s.seq[tenant]
	if t.Status == "" {
		t.Status = domain.TransactionPosted
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	b[t.ID] = copyTransaction(*t)
	return nil
}

func (s *Store) GetTransaction(_ context.Context, tenant domain.TenantID, id string) (*domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.transactions[tenant][id]
	if !ok {
		return nil, domain.NewNotFound("transaction", id)
	}
	out := copyTransaction(t)
	return &out, nil
}

func (s *Store) Snapshot(_ context.Context, tenant domain.TenantID, clientID string, period domain.PeriodKey) ([]domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Transaction
	for _, t := range s.transactions[tenant] {
		if t.ClientID == clientID && t.Status == domain.TransactionPosted && period.Contains(t.Period) {
			out = append(out, copyTransaction(t))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Sequence < out[j].Sequence })
	return out, nil
}

func (s *Store) CountCorrections(_ context.Context, tenant domain.TenantID, originalID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, t := range s.transactions[tenant] {
		if t.CorrectsID == originalID {
			n++
		}
	}
	return n, nil
}

func (s *Store) MarkSuperseded(_ context.Context, tenant domain.TenantID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.transactions[tenant][id]
	if !ok {
		return domain.NewNotFound("transaction", id)
	}
	t.Status = domain.TransactionSuperseded
	s.transactions[tenant][id] = t
	return nil
}

// ── Settlements ──────────────────────────────────────────────────────────────

func (s *Store) SaveSettlement(_ context.Context, tenant domain.TenantID, st *domain.PeriodSettlement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st.ID == "" {
		st.ID = uuid.NewString()
	}
	b := bucket(s.settlements, tenant)
	for _, other := range b {
		if other.ClientID == st.ClientID && other.Period == st.Period && other.Version == st.Version {
			return &domain.Error{Kind: domain.KindConflict, Code: "SETTLEMENT_VERSION_EXISTS",
				Message: fmt.Sprintf("settlement %s v%d exists", st.Period, st.Version)}
		}
	}
	b[st.ID] = copySettlement(*st)
	return nil
}

func (s *Store) GetSettlement(_ context.Context, tenant domain.TenantID, id string) (*domain.PeriodSettlement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.settlements[tenant][id]
	if !ok {
		return nil, domain.NewNotFound("settlement", id)
	}
	out := copySettlement(st)
	return &out, nil
}

func (s *Store) LatestSettlement(_ context.Context, tenant domain.TenantID, clientID string, period domain.PeriodKey) (*domain.PeriodSettlement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var best *domain.PeriodSettlement
	for _, st := range s.settlements[tenant] {
		if st.ClientID != clientID || st.Period != period {
			continue
		}
		if best == nil || st.Version > best.Version {
			c := copySettlement(st)
			best = &c
		}
	}
	if best == nil {
		return nil, domain.NewNotFound("settlement", clientID+"/"+period.String())
	}
	return best, nil
}

func (s *Store) UpdateSettlementStatus(_ context.Context, tenant domain.TenantID, id string, status domain.SettlementStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.settlements[tenant][id]
	if !ok {
		return domain.NewNotFound("settlement", id)
	}
	st.Status = status
	s.settlements[tenant][id] = st
	return nil
}

// ── Carry-forward ────────────────────────────────────────────────────────────

func (s *Store) CreateCarryForward(_ context.Context, tenant domain.TenantID, cf *domain.CarryForward) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cf.ID == "" {
		cf.ID = uuid.NewString()
	}
	bucket(s.carry, tenant)[cf.ID] = copyCarryForward(*cf)
	return nil
}

func (s *Store) ListOpenCarryForwards(_ context.Context, tenant domain.TenantID, clientID string, before domain.PeriodKey) ([]domain.CarryForward, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.CarryForward
	for _, cf := range s.carry[tenant] {
		if cf.ClientID == clientID && cf.Status.Open() && cf.SourcePeriod.Before(before) {
			out = append(out, copyCarryForward(cf))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SourcePeriod != out[j].SourcePeriod {
			return out[i].SourcePeriod.Before(out[j].SourcePeriod)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) UpdateCarryForward(_ context.Context, tenant domain.TenantID, cf *domain.CarryForward) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.carry[tenant][cf.ID]; !ok {
		return domain.NewNotFound("carry-forward", cf.ID)
	}
	s.carry[tenant][cf.ID] = copyCarryForward(*cf)
	return nil
}

// ── Clients ──────────────────────────────────────────────────────────────────

func (s *Store) GetClient(_ context.Context, tenant domain.TenantID, id string) (*domain.ClientProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.clients[tenant][id]
	if !ok {
		return nil, domain.NewNotFound("client", id)
	}
	return &c, nil
}

func (s *Store) ListClients(_ context.Context, tenant domain.TenantID) ([]domain.ClientProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.ClientProfile, 0, len(s.clients[tenant]))
	for _, c := range s.clients[tenant] {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) SaveClient(_ context.Context, tenant domain.TenantID, c *domain.ClientProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	bucket(s.clients, tenant)[c.ID] = *c
	return nil
}

// ── Documents ────────────────────────────────────────────────────────────────

func (s *Store) CreateDocument(_ context.Context, tenant domain.TenantID, d *domain.DeclarationDocument) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	bucket(s.documents, tenant)[d.ID] = *d
	return nil
}

func (s *Store) GetDocument(_ context.Context, tenant domain.TenantID, id string) (*domain.DeclarationDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.documents[tenant][id]
	if !ok {
		return nil, domain.NewNotFound("document", id)
	}
	return &d, nil
}

// Put stores data under a content-addressed locator.
func (s *Store) Put(_ context.Context, tenant domain.TenantID, name, _ string, data []byte) (domain.StoredObject, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sum := sha256.Sum256(data)
	hash := hex.EncodeToString(sum[:])
	locator := "mem://" + string(tenant) + "/" + name + "@" + hash[:12]
	bucket(s.blobs, tenant)[locator] = append([]byte(nil), data...)
	return domain.StoredObject{Locator: locator, Hash: hash, Size: len(data)}, nil
}

func (s *Store) Get(_ context.Context, tenant domain.TenantID, locator string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.blobs[tenant][locator]
	if !ok {
		return nil, domain.NewNotFound("object", locator)
	}
	return append([]byte(nil), b...), nil
}

// Tamper overwrites stored bytes in place. Tests use it to simulate
// corruption behind the store's back.
func (s *Store) Tamper(tenant domain.TenantID, locator string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	bucket(s.blobs, tenant)[locator] = data
}

// ── Submissions ──────────────────────────────────────────────────────────────

func (s *Store) CreateSubmission(_ context.Context, tenant domain.TenantID, sub *domain.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	c := copySubmission(*sub)
	c.Attempts, c.History = nil, nil
	bucket(s.submissions, tenant)[sub.ID] = c
	return nil
}

func (s *Store) GetSubmission(_ context.Context, tenant domain.TenantID, id string) (*domain.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sub, ok := s.submissions[tenant][id]
	if !ok {
		return nil, domain.NewNotFound("submission", id)
	}
	out := copySubmission(sub)
	return &out, nil
}

func (s *Store) FindByReference(_ context.Context, tenant domain.TenantID, ref string) (*domain.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sub := range s.submissions[tenant] {
		if sub.ReferenceNumber == ref {
			out := copySubmission(sub)
			return &out, nil
		}
	}
	return nil, domain.NewNotFound("submission with reference", ref)
}

func (s *Store) ListSubmissions(_ context.Context, tenant domain.TenantID) ([]domain.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Submission, 0, len(s.submissions[tenant]))
	for _, sub := range s.submissions[tenant] {
		c := copySubmission(sub)
		c.Attempts, c.History = nil, nil
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) ActiveForDocument(_ context.Context, tenant domain.TenantID, documentID string) (*domain.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sub := range s.submissions[tenant] {
		if sub.DocumentID == documentID && sub.Status != domain.StatusCancelled {
			out := copySubmission(sub)
			return &out, nil
		}
	}
	return nil, nil
}

func (s *Store) UpdateSubmission(_ context.Context, tenant domain.TenantID, sub *domain.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.submissions[tenant][sub.ID]
	if !ok {
		return domain.NewNotFound("submission", sub.ID)
	}
	if cur.RetryCount > sub.RetryCount {
		return &domain.Error{Kind: domain.KindConflict, Code: "RETRY_COUNT_DECREASED",
			Message: fmt.Sprintf("retry count %d -> %d", cur.RetryCount, sub.RetryCount)}
	}
	next := copySubmission(*sub)
	next.Attempts, next.History = cur.Attempts, cur.History
	s.submissions[tenant][sub.ID] = next
	return nil
}

func (s *Store) AppendAttempt(_ context.Context, tenant domain.TenantID, submissionID string, a domain.Attempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.submissions[tenant][submissionID]
	if !ok {
		return domain.NewNotFound("submission", submissionID)
	}
	cur.Attempts = append(append([]domain.Attempt(nil), cur.Attempts...), a)
	s.submissions[tenant][submissionID] = cur
	return nil
}

func (s *Store) AppendStatus(_ context.Context, tenant domain.TenantID, submissionID string, e domain.StatusEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.submissions[tenant][submissionID]
	if !ok {
		return domain.NewNotFound("submission", submissionID)
	}
	cur.History = append(append([]domain.StatusEvent(nil), cur.History...), e)
	s.submissions[tenant][submissionID] = cur
	return nil
}

func (s *Store) ListActionable(_ context.Context, tenant domain.TenantID, now time.Time) ([]domain.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Submission
	for _, sub := range s.submissions[tenant] {
		if sub.Due(now) {
			out = append(out, copySubmission(sub))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// ── copies ───────────────────────────────────────────────────────────────────

func copyTransaction(t domain.Transaction) domain.Transaction {
	t.Items = append([]domain.LineItem(nil), t.Items...)
	if t.Classification != nil {
		c := *t.Classification
		c.GTU = append([]string(nil), c.GTU...)
		c.Procedures = append([]string(nil), c.Procedures...)
		t.Classification = &c
	}
	if t.ReceivedDate != nil {
		d := *t.ReceivedDate
		t.ReceivedDate = &d
	}
	return t
}

func copySettlement(st domain.PeriodSettlement) domain.PeriodSettlement {
	st.OutputByRate = append([]domain.Bucket(nil), st.OutputByRate...)
	st.InputByRate = append([]domain.Bucket(nil), st.InputByRate...)
	st.OutputByType = append([]domain.Bucket(nil), st.OutputByType...)
	st.InputByType = append([]domain.Bucket(nil), st.InputByType...)
	st.TransactionIDs = append([]string(nil), st.TransactionIDs...)
	return st
}

func copyCarryForward(cf domain.CarryForward) domain.CarryForward {
	cf.Applications = append([]domain.CarryForwardApplication(nil), cf.Applications...)
	return cf
}

func copySubmission(sub domain.Submission) domain.Submission {
	sub.Attempts = append([]domain.Attempt(nil), sub.Attempts...)
	sub.History = append([]domain.StatusEvent(nil), sub.History...)
	sub.NextRetryAt = copyTime(sub.NextRetryAt)
	sub.UploadDeadline = copyTime(sub.UploadDeadline)
	sub.UploadedAt = copyTime(sub.UploadedAt)
	sub.PollDeadline = copyTime(sub.PollDeadline)
	sub.NextPollAt = copyTime(sub.NextPollAt)
	return sub
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
