/*
Package sqlite is the coordinator's persistence layer.

PURPOSE:
  The ledger owns vesting state; this store only keeps what the
  coordinator itself needs:

  registry: which schedules this coordinator manages, on which ledger,
            with display metadata the chain does not carry (name, asset
            decimals).
  payouts:  an append-only journal of executed transfers, one row per
            recipient payout, for audit and dashboard listings.

APPEND-ONLY ENFORCEMENT:
  The payouts table is never updated or deleted from. A payout that was
  recorded wrongly is a ledger-level problem; the journal reflects what
  actually executed, including mistakes.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/vesting.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - api/handlers.go: the only writer
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/warp/vesting-engine/vesting"
)

// ScheduleRecord is one registry row.
type ScheduleRecord struct {
	ID            vesting.ScheduleID
	LedgerKind    string // "memory" or "solana"
	Name          string
	AssetDecimals int
	CreatedAt     time.Time
}

// PayoutRecord is one journal row: a single executed transfer.
type PayoutRecord struct {
	ID         string
	Schedule   vesting.ScheduleID
	Wallet     vesting.Address
	Amount     uint64
	Kind       string // "distribute" or "claim"
	Caller     vesting.Address
	ExecutedAt time.Time
}

// Payout kinds.
const (
	PayoutDistribute = "distribute"
	PayoutClaim      = "claim"
)

// Store implements the registry and journal over SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

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
	-- Registry of schedules this coordinator manages
	CREATE TABLE IF NOT EXISTS schedules (
		id TEXT PRIMARY KEY,
		ledger_kind TEXT NOT NULL,
		name TEXT NOT NULL DEFAULT '',
		asset_decimals INTEGER NOT NULL DEFAULT 9,
		created_at TEXT NOT NULL
	);

	-- Payout journal (append-only; no UPDATE, no DELETE)
	CREATE TABLE IF NOT EXISTS payouts (
		id TEXT PRIMARY KEY,
		schedule_id TEXT NOT NULL,
		wallet TEXT NOT NULL,
		amount INTEGER NOT NULL,
		kind TEXT NOT NULL,
		caller TEXT NOT NULL,
		executed_at TEXT NOT NULL
	);

	-- Journal listings by schedule, newest first (hot path)
	CREATE INDEX IF NOT EXISTS idx_payouts_schedule_time
		ON payouts(schedule_id, executed_at DESC);

	-- Per-wallet history
	CREATE INDEX IF NOT EXISTS idx_payouts_wallet
		ON payouts(wallet);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// REGISTRY
// =============================================================================

// RegisterSchedule records a newly configured schedule.
func (s *Store) RegisterSchedule(ctx context.Context, rec ScheduleRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO schedules (id, ledger_kind, name, asset_decimals, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		rec.ID.String(), rec.LedgerKind, rec.Name, rec.AssetDecimals,
		rec.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to register schedule: %w", err)
	}
	return nil
}

// ListSchedules returns every registered schedule, newest first.
func (s *Store) ListSchedules(ctx context.Context) ([]ScheduleRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, ledger_kind, name, asset_decimals, created_at
		FROM schedules ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list schedules: %w", err)
	}
	defer rows.Close()

	var out []ScheduleRecord
	for rows.Next() {
		var rec ScheduleRecord
		var id, createdAt string
		if err := rows.Scan(&id, &rec.LedgerKind, &rec.Name, &rec.AssetDecimals, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan schedule: %w", err)
		}
		if rec.ID, err = vesting.ParseAddress(id); err != nil {
			return nil, fmt.Errorf("corrupt schedule id %q: %w", id, err)
		}
		if rec.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
			return nil, fmt.Errorf("corrupt created_at %q: %w", createdAt, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// GetSchedule returns one registry row, or sql.ErrNoRows.
func (s *Store) GetSchedule(ctx context.Context, id vesting.ScheduleID) (*ScheduleRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var rec ScheduleRecord
	var createdAt string
	err := s.db.QueryRowContext(ctx, `
		SELECT ledger_kind, name, asset_decimals, created_at
		FROM schedules WHERE id = ?`, id.String(),
	).Scan(&rec.LedgerKind, &rec.Name, &rec.AssetDecimals, &createdAt)
	if err != nil {
		return nil, err
	}
	rec.ID = id
	if rec.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return nil, fmt.Errorf("corrupt created_at %q: %w", createdAt, err)
	}
	return &rec, nil
}

// =============================================================================
// PAYOUT JOURNAL
// =============================================================================

// RecordPayouts appends one journal row per executed transfer, in a
// single transaction. IDs are assigned here.
func (s *Store) RecordPayouts(ctx context.Context, id vesting.ScheduleID, kind string, caller vesting.Address, executedAt time.Time, payouts []vesting.RecipientPayout) error {
	if len(payouts) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO payouts (id, schedule_id, wallet, amount, kind, caller, executed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	at := executedAt.UTC().Format(time.RFC3339)
	for _, p := range payouts {
		if _, err := stmt.ExecContext(ctx,
			uuid.NewString(), id.String(), p.Wallet.String(),
			int64(p.Amount), kind, caller.String(), at,
		); err != nil {
			return fmt.Errorf("failed to record payout: %w", err)
		}
	}
	return tx.Commit()
}

// ListPayouts returns a schedule's journal, newest first.
func (s *Store) ListPayouts(ctx context.Context, id vesting.ScheduleID, limit int) ([]PayoutRecord, error) {
	if limit <= 0 {
		limit = 100
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, wallet, amount, kind, caller, executed_at
		FROM payouts WHERE schedule_id = ?
		ORDER BY executed_at DESC, id LIMIT ?`, id.String(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list payouts: %w", err)
	}
	defer rows.Close()

	var out []PayoutRecord
	for rows.Next() {
		var rec PayoutRecord
		var wallet, caller, executedAt string
		var amount int64
		if err := rows.Scan(&rec.ID, &wallet, &amount, &rec.Kind, &caller, &executedAt); err != nil {
			return nil, fmt.Errorf("failed to scan payout: %w", err)
		}
		rec.Schedule = id
		rec.Amount = uint64(amount)
		if rec.Wallet, err = vesting.ParseAddress(wallet); err != nil {
			return nil, fmt.Errorf("corrupt wallet %q: %w", wallet, err)
		}
		if rec.Caller, err = vesting.ParseAddress(caller); err != nil {
			return nil, fmt.Errorf("corrupt caller %q: %w", caller, err)
		}
		if rec.ExecutedAt, err = time.Parse(time.RFC3339, executedAt); err != nil {
			return nil, fmt.Errorf("corrupt executed_at %q: %w", executedAt, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
