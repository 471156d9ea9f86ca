package sqlite

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"

	"github.com/csg33k/jpk-vat/internal/domain"
)

// Repository implements every repository port and the document store on a
// single SQLite database. Columns hold what queries filter on; the rest of
// each record is a JSON body.
type Repository struct {
	db  *sql.DB
	now func() time.Time
}

// New opens the SQLite database. Call Migrate (or run `dbmate up`) before
// use. Transactions take the write lock up front so the per-tenant sequence
// and append-only logs never race.
func New(dsn string) (*Repository, error) {
	db, err := sql.Open("sqlite3", dsn+"?_foreign_keys=on&_busy_timeout=5000&_txlock=immediate")
	if err != nil {
		return nil, err
	}
	return &Repository{db: db, now: func() time.Time { return time.Now().UTC() }}, nil
}

func (r *Repository) Close() error { return r.db.Close() }

func (r *Repository) Ping(ctx context.Context) error { return r.db.PingContext(ctx) }

// ── Transactions ──────────────────────────────────────────────────────────────

func (r *Repository) InsertTransaction(ctx context.Context, tenant domain.TenantID, t *domain.Transaction) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Status == "" {
		t.Status = domain.TransactionPosted
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = r.now()
	}
	return r.inTx(ctx, func(tx *sql.Tx) error {
		if err := tx.QueryRowContext(ctx,
			`SELECT COALESCE(MAX(seq), 0) + 1 FROM transactions WHERE tenant=?`, tenant,
		).Scan(&t.Sequence); err != nil {
			return err
		}
		body, err := json.Marshal(t)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO transactions (tenant, id, seq, client_id, period, status, corrects_id, created_at, body)
			VALUES (?,?,?,?,?,?,?,?,?)`,
			tenant, t.ID, t.Sequence, t.ClientID, t.Period.String(), t.Status, t.CorrectsID,
			t.CreatedAt.UnixNano(), body,
		)
		return conflict(err, "DUPLICATE_TRANSACTION", "transaction "+t.ID+" exists")
	})
}

func (r *Repository) GetTransaction(ctx context.Context, tenant domain.TenantID, id string) (*domain.Transaction, error) {
	var status, body string
	err := r.conn(ctx).QueryRowContext(ctx,
		`SELECT status, body FROM transactions WHERE tenant=? AND id=?`, tenant, id,
	).Scan(&status, &body)
	if err != nil {
		return nil, notFound(err, "transaction", id)
	}
	return decodeTransaction(status, body)
}

// Snapshot reads inside one transaction so the set and its order are a
// single consistent view.
func (r *Repository) Snapshot(ctx context.Context, tenant domain.TenantID, clientID string, period domain.PeriodKey) ([]domain.Transaction, error) {
	keys := periodKeys(period)
	args := []any{tenant, clientID, domain.TransactionPosted}
	for _, k := range keys {
		args = append(args, k)
	}
	var out []domain.Transaction
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, `
			SELECT status, body FROM transactions
			WHERE tenant=? AND client_id=? AND status=? AND period IN (`+placeholders(len(keys))+`)
			ORDER BY seq`, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var status, body string
			if err := rows.Scan(&status, &body); err != nil {
				return err
			}
			t, err := decodeTransaction(status, body)
			if err != nil {
				return err
			}
			out = append(out, *t)
		}
		return rows.Err()
	})
	return out, err
}

func (r *Repository) CountCorrections(ctx context.Context, tenant domain.TenantID, originalID string) (int, error) {
	var n int
	err := r.conn(ctx).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transactions WHERE tenant=? AND corrects_id=?`, tenant, originalID,
	).Scan(&n)
	return n, err
}

func (r *Repository) MarkSuperseded(ctx context.Context, tenant domain.TenantID, id string) error {
	res, err := r.conn(ctx).ExecContext(ctx,
		`UPDATE transactions SET status=? WHERE tenant=? AND id=?`, domain.TransactionSuperseded, tenant, id)
	return affected(res, err, "transaction", id)
}

// ── Settlements ───────────────────────────────────────────────────────────────

func (r *Repository) SaveSettlement(ctx context.Context, tenant domain.TenantID, s *domain.PeriodSettlement) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	body, err := json.Marshal(s)
	if err != nil {
		return err
	}
	_, err = r.conn(ctx).ExecContext(ctx, `
		INSERT INTO settlements (tenant, id, client_id, period, version, status, calculated_at, body)
		VALUES (?,?,?,?,?,?,?,?)`,
		tenant, s.ID, s.ClientID, s.Period.String(), s.Version, s.Status, s.CalculatedAt.UnixNano(), body,
	)
	return conflict(err, "SETTLEMENT_VERSION_EXISTS", fmt.Sprintf("settlement %s v%d exists", s.Period, s.Version))
}

func (r *Repository) GetSettlement(ctx context.Context, tenant domain.TenantID, id string) (*domain.PeriodSettlement, error) {
	var status, body string
	err := r.conn(ctx).QueryRowContext(ctx,
		`SELECT status, body FROM settlements WHERE tenant=? AND id=?`, tenant, id,
	).Scan(&status, &body)
	if err != nil {
		return nil, notFound(err, "settlement", id)
	}
	return decodeSettlement(status, body)
}

func (r *Repository) LatestSettlement(ctx context.Context, tenant domain.TenantID, clientID string, period domain.PeriodKey) (*domain.PeriodSettlement, error) {
	var status, body string
	err := r.conn(ctx).QueryRowContext(ctx, `
		SELECT status, body FROM settlements
		WHERE tenant=? AND client_id=? AND period=?
		ORDER BY version DESC LIMIT 1`, tenant, clientID, period.String(),
	).Scan(&status, &body)
	if err != nil {
		return nil, notFound(err, "settlement", clientID+"/"+period.String())
	}
	return decodeSettlement(status, body)
}

func (r *Repository) UpdateSettlementStatus(ctx context.Context, tenant domain.TenantID, id string, status domain.SettlementStatus) error {
	res, err := r.conn(ctx).ExecContext(ctx,
		`UPDATE settlements SET status=? WHERE tenant=? AND id=?`, status, tenant, id)
	return affected(res, err, "settlement", id)
}

// ── Carry-forward ─────────────────────────────────────────────────────────────

func (r *Repository) CreateCarryForward(ctx context.Context, tenant domain.TenantID, cf *domain.CarryForward) error {
	if cf.ID == "" {
		cf.ID = uuid.NewString()
	}
	if cf.CreatedAt.IsZero() {
		cf.CreatedAt = r.now()
	}
	body, err := json.Marshal(cf)
	if err != nil {
		return err
	}
	_, err = r.conn(ctx).ExecContext(ctx, `
		INSERT INTO carry_forwards (tenant, id, client_id, source_start, status, created_at, body)
		VALUES (?,?,?,?,?,?,?)`,
		tenant, cf.ID, cf.ClientID, cf.SourcePeriod.Start().Unix(), cf.Status, cf.CreatedAt.UnixNano(), body,
	)
	return conflict(err, "DUPLICATE_CARRY_FORWARD", "carry-forward "+cf.ID+" exists")
}

func (r *Repository) ListOpenCarryForwards(ctx context.Context, tenant domain.TenantID, clientID string, before domain.PeriodKey) ([]domain.CarryForward, error) {
	rows, err := r.conn(ctx).QueryContext(ctx, `
		SELECT body FROM carry_forwards
		WHERE tenant=? AND client_id=? AND status IN (?, ?) AND source_start < ?
		ORDER BY source_start, created_at`,
		tenant, clientID, domain.CarryForwardActive, domain.CarryForwardPartiallyApplied, before.Start().Unix(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.CarryForward
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, err
		}
		var cf domain.CarryForward
		if err := json.Unmarshal([]byte(body), &cf); err != nil {
			return nil, err
		}
		out = append(out, cf)
	}
	return out, rows.Err()
}

func (r *Repository) UpdateCarryForward(ctx context.Context, tenant domain.TenantID, cf *domain.CarryForward) error {
	body, err := json.Marshal(cf)
	if err != nil {
		return err
	}
	res, err := r.conn(ctx).ExecContext(ctx,
		`UPDATE carry_forwards SET status=?, body=? WHERE tenant=? AND id=?`, cf.Status, body, tenant, cf.ID)
	return affected(res, err, "carry-forward", cf.ID)
}

// ── Clients ───────────────────────────────────────────────────────────────────

func (r *Repository) GetClient(ctx context.Context, tenant domain.TenantID, id string) (*domain.ClientProfile, error) {
	var body string
	err := r.conn(ctx).QueryRowContext(ctx, `SELECT body FROM clients WHERE tenant=? AND id=?`, tenant, id).Scan(&body)
	if err != nil {
		return nil, notFound(err, "client", id)
	}
	c := &domain.ClientProfile{}
	return c, json.Unmarshal([]byte(body), c)
}

func (r *Repository) ListClients(ctx context.Context, tenant domain.TenantID) ([]domain.ClientProfile, error) {
	rows, err := r.conn(ctx).QueryContext(ctx, `SELECT body FROM clients WHERE tenant=? ORDER BY id`, tenant)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []domain.ClientProfile
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, err
		}
		var c domain.ClientProfile
		if err := json.Unmarshal([]byte(body), &c); err != nil {
			return nil, err
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

// SaveClient inserts or replaces the profile.
func (r *Repository) SaveClient(ctx context.Context, tenant domain.TenantID, c *domain.ClientProfile) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	body, err := json.Marshal(c)
	if err != nil {
		return err
	}
	_, err = r.conn(ctx).ExecContext(ctx, `
		INSERT INTO clients (tenant, id, nip, body) VALUES (?,?,?,?)
		ON CONFLICT (tenant, id) DO UPDATE SET nip=excluded.nip, body=excluded.body`,
		tenant, c.ID, c.NIP, body,
	)
	return err
}

// ── Documents ─────────────────────────────────────────────────────────────────

func (r *Repository) CreateDocument(ctx context.Context, tenant domain.TenantID, d *domain.DeclarationDocument) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.GeneratedAt.IsZero() {
		d.GeneratedAt = r.now()
	}
	body, err := json.Marshal(d)
	if err != nil {
		return err
	}
	_, err = r.conn(ctx).ExecContext(ctx, `
		INSERT INTO documents (tenant, id, client_id, settlement_id, digest, created_at, body)
		VALUES (?,?,?,?,?,?,?)`,
		tenant, d.ID, d.ClientID, d.SettlementID, d.Digest, d.GeneratedAt.UnixNano(), body,
	)
	return conflict(err, "DUPLICATE_DOCUMENT", "document "+d.ID+" exists")
}

func (r *Repository) GetDocument(ctx context.Context, tenant domain.TenantID, id string) (*domain.DeclarationDocument, error) {
	var body string
	err := r.conn(ctx).QueryRowContext(ctx, `SELECT body FROM documents WHERE tenant=? AND id=?`, tenant, id).Scan(&body)
	if err != nil {
		return nil, notFound(err, "document", id)
	}
	d := &domain.DeclarationDocument{}
	return d, json.Unmarshal([]byte(body), d)
}

// ── Blobs ─────────────────────────────────────────────────────────────────────

const locatorPrefix = "sqlite:"

// Put stores data content-addressed by its SHA-256. Storing identical bytes
// twice keeps the first row.
func (r *Repository) Put(ctx context.Context, tenant domain.TenantID, name, contentType string, data []byte) (domain.StoredObject, error) {
	sum := sha256.Sum256(data)
	hash := hex.EncodeToString(sum[:])
	_, err := r.conn(ctx).ExecContext(ctx, `
		INSERT INTO blobs (tenant, hash, name, content_type, size, data, created_at)
		VALUES (?,?,?,?,?,?,?)
		ON CONFLICT (tenant, hash) DO NOTHING`,
		tenant, hash, name, contentType, len(data), data, r.now().UnixNano(),
	)
	if err != nil {
		return domain.StoredObject{}, err
	}
	return domain.StoredObject{Locator: locatorPrefix + hash, Hash: hash, Size: len(data)}, nil
}

func (r *Repository) Get(ctx context.Context, tenant domain.TenantID, locator string) ([]byte, error) {
	hash, ok := strings.CutPrefix(locator, locatorPrefix)
	if !ok {
		return nil, domain.NewNotFound("object", locator)
	}
	var data []byte
	err := r.conn(ctx).QueryRowContext(ctx, `SELECT data FROM blobs WHERE tenant=? AND hash=?`, tenant, hash).Scan(&data)
	if err != nil {
		return nil, notFound(err, "object", locator)
	}
	return data, nil
}

// ── Submissions ───────────────────────────────────────────────────────────────

func (r *Repository) CreateSubmission(ctx context.Context, tenant domain.TenantID, s *domain.Submission) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = r.now()
	}
	body, err := submissionBody(s)
	if err != nil {
		return err
	}
	_, err = r.conn(ctx).ExecContext(ctx, `
		INSERT INTO submissions (tenant, id, document_id, reference_number, status, retry_count, created_at, updated_at, body)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		tenant, s.ID, s.DocumentID, s.ReferenceNumber, s.Status, s.RetryCount,
		s.CreatedAt.UnixNano(), s.CreatedAt.UnixNano(), body,
	)
	return conflict(err, "DUPLICATE_SUBMISSION", "submission "+s.ID+" exists")
}

func (r *Repository) GetSubmission(ctx context.Context, tenant domain.TenantID, id string) (*domain.Submission, error) {
	return r.loadSubmission(ctx, tenant, `tenant=? AND id=?`, "submission", id)
}

func (r *Repository) FindByReference(ctx context.Context, tenant domain.TenantID, ref string) (*domain.Submission, error) {
	return r.loadSubmission(ctx, tenant, `tenant=? AND reference_number=? AND reference_number<>''`, "submission with reference", ref)
}

func (r *Repository) ListSubmissions(ctx context.Context, tenant domain.TenantID) ([]domain.Submission, error) {
	return r.querySubmissions(ctx, `
		SELECT status, body FROM submissions WHERE tenant=? ORDER BY created_at DESC`, tenant)
}

func (r *Repository) ActiveForDocument(ctx context.Context, tenant domain.TenantID, documentID string) (*domain.Submission, error) {
	var id string
	err := r.conn(ctx).QueryRowContext(ctx, `
		SELECT id FROM submissions WHERE tenant=? AND document_id=? AND status<>?
		ORDER BY created_at DESC LIMIT 1`, tenant, documentID, domain.StatusCancelled,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return r.GetSubmission(ctx, tenant, id)
}

// UpdateSubmission refuses to lower retry_count.
func (r *Repository) UpdateSubmission(ctx context.Context, tenant domain.TenantID, s *domain.Submission) error {
	body, err := submissionBody(s)
	if err != nil {
		return err
	}
	res, err := r.conn(ctx).ExecContext(ctx, `
		UPDATE submissions
		SET reference_number=?, status=?, retry_count=?, updated_at=?, body=?
		WHERE tenant=? AND id=? AND retry_count<=?`,
		s.ReferenceNumber, s.Status, s.RetryCount, r.now().UnixNano(), body,
		tenant, s.ID, s.RetryCount,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	var cur int
	err = r.conn(ctx).QueryRowContext(ctx,
		`SELECT retry_count FROM submissions WHERE tenant=? AND id=?`, tenant, s.ID).Scan(&cur)
	if err != nil {
		return notFound(err, "submission", s.ID)
	}
	return &domain.Error{Kind: domain.KindConflict, Code: "RETRY_COUNT_DECREASED",
		Message: fmt.Sprintf("retry count %d -> %d", cur, s.RetryCount)}
}

func (r *Repository) AppendAttempt(ctx context.Context, tenant domain.TenantID, submissionID string, a domain.Attempt) error {
	return r.appendLog(ctx, "submission_attempts", tenant, submissionID, a)
}

func (r *Repository) AppendStatus(ctx context.Context, tenant domain.TenantID, submissionID string, e domain.StatusEvent) error {
	return r.appendLog(ctx, "submission_history", tenant, submissionID, e)
}

// ListActionable returns due submissions with their logs, oldest first.
func (r *Repository) ListActionable(ctx context.Context, tenant domain.TenantID, now time.Time) ([]domain.Submission, error) {
	candidates, err := r.querySubmissions(ctx, `
		SELECT status, body FROM submissions
		WHERE tenant=? AND status IN (?, ?, ?, ?, ?)
		ORDER BY created_at`,
		tenant, domain.StatusPending, domain.StatusUploading, domain.StatusFailed, domain.StatusSubmitted, domain.StatusProcessing,
	)
	if err != nil {
		return nil, err
	}
	var out []domain.Submission
	for i := range candidates {
		s := &candidates[i]
		if !s.Due(now) {
			continue
		}
		if err := r.loadLogs(ctx, tenant, s); err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, nil
}

func (r *Repository) loadSubmission(ctx context.Context, tenant domain.TenantID, where, what, key string) (*domain.Submission, error) {
	var status, body string
	err := r.conn(ctx).QueryRowContext(ctx,
		`SELECT status, body FROM submissions WHERE `+where, tenant, key,
	).Scan(&status, &body)
	if err != nil {
		return nil, notFound(err, what, key)
	}
	s, err := decodeSubmission(status, body)
	if err != nil {
		return nil, err
	}
	if err := r.loadLogs(ctx, tenant, s); err != nil {
		return nil, err
	}
	return s, nil
}

func (r *Repository) querySubmissions(ctx context.Context, query string, args ...any) ([]domain.Submission, error) {
	rows, err := r.conn(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []domain.Submission
	for rows.Next() {
		var status, body string
		if err := rows.Scan(&status, &body); err != nil {
			return nil, err
		}
		s, err := decodeSubmission(status, body)
		if err != nil {
			return nil, err
		}
		list = append(list, *s)
	}
	return list, rows.Err()
}

func (r *Repository) loadLogs(ctx context.Context, tenant domain.TenantID, s *domain.Submission) error {
	attempts, err := readLog[domain.Attempt](ctx, r.conn(ctx), "submission_attempts", tenant, s.ID)
	if err != nil {
		return err
	}
	history, err := readLog[domain.StatusEvent](ctx, r.conn(ctx), "submission_history", tenant, s.ID)
	if err != nil {
		return err
	}
	s.Attempts, s.History = attempts, history
	return nil
}

// appendLog inserts only when the parent submission exists.
func (r *Repository) appendLog(ctx context.Context, table string, tenant domain.TenantID, submissionID string, entry any) error {
	body, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	res, err := r.conn(ctx).ExecContext(ctx, `
		INSERT INTO `+table+` (tenant, submission_id, body)
		SELECT ?, ?, ? WHERE EXISTS (SELECT 1 FROM submissions WHERE tenant=? AND id=?)`,
		tenant, submissionID, body, tenant, submissionID,
	)
	return affected(res, err, "submission", submissionID)
}

func readLog[T any](ctx context.Context, db querier, table string, tenant domain.TenantID, submissionID string) ([]T, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT body FROM `+table+` WHERE tenant=? AND submission_id=? ORDER BY seq`, tenant, submissionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []T
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, err
		}
		var v T
		if err := json.Unmarshal([]byte(body), &v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// ── Helpers ───────────────────────────────────────────────────────────────────

type txKey struct{}

// querier is what *sql.DB and *sql.Tx have in common.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// conn returns the transaction opened by WithinTx, if ctx carries one.
func (r *Repository) conn(ctx context.Context) querier {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return tx
	}
	return r.db
}

// WithinTx runs fn in one database transaction. Repository calls made with
// the ctx passed to fn join it; any error rolls all of them back.
func (r *Repository) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return fn(ctx)
	}
	return r.inTx(ctx, func(tx *sql.Tx) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

// inTx joins the ambient transaction or opens its own.
func (r *Repository) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return fn(tx)
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func submissionBody(s *domain.Submission) ([]byte, error) {
	c := *s
	c.Attempts, c.History = nil, nil
	return json.Marshal(c)
}

func decodeTransaction(status, body string) (*domain.Transaction, error) {
	t := &domain.Transaction{}
	if err := json.Unmarshal([]byte(body), t); err != nil {
		return nil, err
	}
	t.Status = domain.TransactionStatus(status)
	return t, nil
}

func decodeSettlement(status, body string) (*domain.PeriodSettlement, error) {
	s := &domain.PeriodSettlement{}
	if err := json.Unmarshal([]byte(body), s); err != nil {
		return nil, err
	}
	s.Status = domain.SettlementStatus(status)
	return s, nil
}

func decodeSubmission(status, body string) (*domain.Submission, error) {
	s := &domain.Submission{}
	if err := json.Unmarshal([]byte(body), s); err != nil {
		return nil, err
	}
	s.Status = domain.SubmissionStatus(status)
	return s, nil
}

// periodKeys lists the stored period strings a snapshot of p covers.
func periodKeys(p domain.PeriodKey) []string {
	if !p.IsQuarterly() {
		return []string{p.String()}
	}
	keys := []string{p.String()}
	for _, m := range p.Months() {
		keys = append(keys, domain.Monthly(p.Year, m).String())
	}
	return keys
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func notFound(err error, what, id string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NewNotFound(what, id)
	}
	return err
}

func affected(res sql.Result, err error, what, id string) error {
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.NewNotFound(what, id)
	}
	return nil
}

func conflict(err error, code, msg string) error {
	var se sqlite3.Error
	if errors.As(err, &se) &&
		(se.ExtendedCode == sqlite3.ErrConstraintUnique || se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey) {
		return &domain.Error{Kind: domain.KindConflict, Code: code, Message: msg, Cause: err}
	}
	return err
}
