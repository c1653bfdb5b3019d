/*
Package sqlite provides a SQLite-backed implementation of the store contracts.

PURPOSE:
  Implements engine.PolicyStore, engine.AdvanceStore, and engine.RefundStore
  using SQLite. In production the same patterns apply to PostgreSQL - only
  minor SQL dialect differences.

KEY TABLES:
  policies:  Policy records (dates, gross/current premium, admin state)
  advances:  The installment schedule, one row per advance
  refunds:   Append-only refund records

WRITE DISCIPLINE:
  - advances: upserted only when stamped with a payment; a paid advance is
    never rewritten because the ledger refuses before the store is reached
  - refunds: INSERT only. No UPDATE or DELETE statements exist for this
    table - a refund record is written exactly once per transition

MONEY:
  Amounts are stored as TEXT in decimal string form ("413.04"), never as
  REAL. Parsing back goes through engine.NewMoneyFromString so the
  two-decimal normalization holds on the way out of the database too.

WAL MODE:
  SQLite is opened with WAL for better concurrency: readers don't block,
  single writer at a time, better crash recovery.

USAGE:
  store, err := sqlite.New("./data/backoffice.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()
  svc := engine.NewService(store, store, store, engine.SystemClock{})

SEE ALSO:
  - engine/store.go: contract definitions
  - engine/store/memory.go: in-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/courtier/policy-engine/engine"
	_ "github.com/mattn/go-sqlite3"
)

const dayFormat = "2006-01-02"

// Store implements all three store contracts using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Compile-time interface checks.
var (
	_ engine.PolicyStore  = (*Store)(nil)
	_ engine.AdvanceStore = (*Store)(nil)
	_ engine.RefundStore  = (*Store)(nil)
)

// New creates a SQLite store at the given path. Use ":memory:" for an
// in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS policies (
		id TEXT PRIMARY KEY,
		policy_number TEXT NOT NULL UNIQUE,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		premium_gross TEXT NOT NULL,
		premium_current TEXT,
		administrative_state TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS advances (
		policy_id TEXT NOT NULL,
		advance_number INTEGER NOT NULL,
		amount TEXT NOT NULL,
		payment_date TEXT,
		payment_method TEXT,
		reference TEXT,
		notes TEXT,
		PRIMARY KEY (policy_id, advance_number),
		FOREIGN KEY (policy_id) REFERENCES policies(id)
	);

	CREATE INDEX IF NOT EXISTS idx_advances_policy
		ON advances(policy_id, advance_number);

	-- Append-only: refund records are written once and never touched again
	CREATE TABLE IF NOT EXISTS refunds (
		id TEXT PRIMARY KEY,
		policy_id TEXT NOT NULL,
		amount TEXT NOT NULL,
		method TEXT,
		reason TEXT NOT NULL,
		penalty_percentage REAL,
		created_at TEXT NOT NULL,
		FOREIGN KEY (policy_id) REFERENCES policies(id)
	);

	CREATE INDEX IF NOT EXISTS idx_refunds_policy
		ON refunds(policy_id, created_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// POLICY STORE
// =============================================================================

func (s *Store) Load(ctx context.Context, id engine.PolicyID) (engine.Policy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, policy_number, start_date, end_date,
		       premium_gross, premium_current, administrative_state, created_at
		FROM policies WHERE id = ?`, string(id))

	return scanPolicy(row)
}

func (s *Store) Save(ctx context.Context, p engine.Policy) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var current sql.NullString
	if p.PremiumCurrent != nil {
		current = sql.NullString{String: p.PremiumCurrent.String(), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO policies
			(id, policy_number, start_date, end_date,
			 premium_gross, premium_current, administrative_state, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			premium_current = excluded.premium_current,
			administrative_state = excluded.administrative_state`,
		string(p.ID), p.PolicyNumber,
		p.StartDate.Format(dayFormat), p.EndDate.Format(dayFormat),
		p.PremiumGross.String(), current,
		string(p.AdministrativeState), p.CreatedAt.Format(time.RFC3339))
	return err
}

func (s *Store) List(ctx context.Context) ([]engine.Policy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, policy_number, start_date, end_date,
		       premium_gross, premium_current, administrative_state, created_at
		FROM policies ORDER BY policy_number`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var policies []engine.Policy
	for rows.Next() {
		p, err := scanPolicy(rows)
		if err != nil {
			return nil, err
		}
		policies = append(policies, p)
	}
	return policies, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPolicy(row rowScanner) (engine.Policy, error) {
	var (
		id, number, start, end, gross, state, created string
		current                                       sql.NullString
	)
	err := row.Scan(&id, &number, &start, &end, &gross, &current, &state, &created)
	if err == sql.ErrNoRows {
		return engine.Policy{}, engine.ErrPolicyNotFound
	}
	if err != nil {
		return engine.Policy{}, err
	}

	p := engine.Policy{
		ID:                  engine.PolicyID(id),
		PolicyNumber:        number,
		AdministrativeState: engine.AdministrativeState(state),
	}
	if p.StartDate, err = time.Parse(dayFormat, start); err != nil {
		return engine.Policy{}, fmt.Errorf("corrupt start_date for policy %s: %w", id, err)
	}
	if p.EndDate, err = time.Parse(dayFormat, end); err != nil {
		return engine.Policy{}, fmt.Errorf("corrupt end_date for policy %s: %w", id, err)
	}
	if p.PremiumGross, err = engine.NewMoneyFromString(gross); err != nil {
		return engine.Policy{}, fmt.Errorf("corrupt premium_gross for policy %s: %w", id, err)
	}
	if current.Valid {
		m, err := engine.NewMoneyFromString(current.String)
		if err != nil {
			return engine.Policy{}, fmt.Errorf("corrupt premium_current for policy %s: %w", id, err)
		}
		p.PremiumCurrent = &m
	}
	if p.CreatedAt, err = time.Parse(time.RFC3339, created); err != nil {
		return engine.Policy{}, fmt.Errorf("corrupt created_at for policy %s: %w", id, err)
	}
	return p, nil
}

// =============================================================================
// ADVANCE STORE
// =============================================================================

func (s *Store) LoadAdvances(ctx context.Context, id engine.PolicyID) ([]engine.Advance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT advance_number, amount, payment_date, payment_method, reference, notes
		FROM advances WHERE policy_id = ? ORDER BY advance_number`, string(id))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var advances []engine.Advance
	for rows.Next() {
		var (
			a                       engine.Advance
			amount                  string
			date, method, ref, note sql.NullString
		)
		if err := rows.Scan(&a.Number, &amount, &date, &method, &ref, &note); err != nil {
			return nil, err
		}
		if a.Amount, err = engine.NewMoneyFromString(amount); err != nil {
			return nil, fmt.Errorf("corrupt amount for advance %d of %s: %w", a.Number, id, err)
		}
		if date.Valid {
			d, err := time.Parse(dayFormat, date.String)
			if err != nil {
				return nil, fmt.Errorf("corrupt payment_date for advance %d of %s: %w", a.Number, id, err)
			}
			a.PaymentDate = &d
		}
		a.PaymentMethod = method.String
		a.Reference = ref.String
		a.Notes = note.String
		advances = append(advances, a)
	}
	return advances, rows.Err()
}

func (s *Store) SaveSchedule(ctx context.Context, id engine.PolicyID, advances []engine.Advance) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM advances WHERE policy_id = ?`, string(id)); err != nil {
		return err
	}
	for _, a := range advances {
		if err := upsertAdvance(ctx, tx, id, a); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *Store) SaveAdvance(ctx context.Context, id engine.PolicyID, a engine.Advance) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := upsertAdvance(ctx, tx, id, a); err != nil {
		return err
	}
	return tx.Commit()
}

func upsertAdvance(ctx context.Context, tx *sql.Tx, id engine.PolicyID, a engine.Advance) error {
	var date sql.NullString
	if a.PaymentDate != nil {
		date = sql.NullString{String: a.PaymentDate.Format(dayFormat), Valid: true}
	}

	_, err := tx.ExecContext(ctx, `
		INSERT INTO advances
			(policy_id, advance_number, amount, payment_date, payment_method, reference, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(policy_id, advance_number) DO UPDATE SET
			amount = excluded.amount,
			payment_date = excluded.payment_date,
			payment_method = excluded.payment_method,
			reference = excluded.reference,
			notes = excluded.notes`,
		string(id), a.Number, a.Amount.String(), date,
		a.PaymentMethod, a.Reference, a.Notes)
	return err
}

// =============================================================================
// REFUND STORE - Append-only
// =============================================================================

func (s *Store) SaveRefund(ctx context.Context, r engine.RefundRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var penalty sql.NullFloat64
	if r.PenaltyPercentage != nil {
		penalty = sql.NullFloat64{Float64: *r.PenaltyPercentage, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO refunds (id, policy_id, amount, method, reason, penalty_percentage, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.ID, string(r.PolicyID), r.Amount.String(), r.Method,
		string(r.Reason), penalty, r.CreatedAt.Format(time.RFC3339))
	return err
}

func (s *Store) LoadRefunds(ctx context.Context, id engine.PolicyID) ([]engine.RefundRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, amount, method, reason, penalty_percentage, created_at
		FROM refunds WHERE policy_id = ? ORDER BY created_at`, string(id))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var refunds []engine.RefundRecord
	for rows.Next() {
		var (
			r               engine.RefundRecord
			amount, created string
			method          sql.NullString
			penalty         sql.NullFloat64
		)
		if err := rows.Scan(&r.ID, &amount, &method, &r.Reason, &penalty, &created); err != nil {
			return nil, err
		}
		r.PolicyID = id
		r.Method = method.String
		if r.Amount, err = engine.NewMoneyFromString(amount); err != nil {
			return nil, fmt.Errorf("corrupt amount for refund %s: %w", r.ID, err)
		}
		if penalty.Valid {
			p := penalty.Float64
			r.PenaltyPercentage = &p
		}
		if r.CreatedAt, err = time.Parse(time.RFC3339, created); err != nil {
			return nil, fmt.Errorf("corrupt created_at for refund %s: %w", r.ID, err)
		}
		refunds = append(refunds, r)
	}
	return refunds, rows.Err()
}
