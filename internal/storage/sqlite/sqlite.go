// Package sqlite implements the transaction store on SQLite using the
// pure-Go driver. It also carries the pending-sync queue consumed by
// the export worker; that queue is deliberately not part of the
// storage.Store interface.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"risparmio/internal/core"

	_ "modernc.org/sqlite"
)

// Sync statuses for the export queue.
const (
	SyncPending = "pending"
	SyncDone    = "synced"
	SyncError   = "error"
)

type Repository struct {
	db *sql.DB
}

func New(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// InsertTransaction stores a transaction and returns its id. The row
// enters the export queue as pending.
func (r *Repository) InsertTransaction(ctx context.Context, tx core.Transaction) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (user_id, date, category, amount_cents, description, sync_status)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		tx.UserID, tx.Date.String(), string(tx.Category), tx.Amount.Cents, tx.Description, SyncPending)
	if err != nil {
		return 0, fmt.Errorf("insert transaction: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved to SQLite",
		"id", id,
		"user_id", tx.UserID,
		"category", tx.Category,
		"amount_cents", tx.Amount.Cents)

	return id, nil
}

// Transactions returns a user's rows ordered by date descending, with
// optional inclusive calendar-day bounds.
func (r *Repository) Transactions(ctx context.Context, userID string, from, to *core.Date) ([]core.Transaction, error) {
	query := `SELECT id, user_id, date, category, amount_cents, description
		FROM transactions WHERE user_id = ?`
	args := []any{userID}

	if from != nil {
		query += ` AND date >= ?`
		args = append(args, from.String())
	}
	if to != nil {
		query += ` AND date <= ?`
		args = append(args, to.String())
	}
	query += ` ORDER BY date DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var txs []core.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}

	return txs, nil
}

// TransactionByID fetches a single transaction; used by the export
// worker to resolve queue messages.
func (r *Repository) TransactionByID(ctx context.Context, id int64) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, date, category, amount_cents, description
		 FROM transactions WHERE id = ?`, id)

	tx, err := scanTransaction(row)
	if err != nil {
		return core.Transaction{}, err
	}
	return tx, nil
}

func (r *Repository) Profile(ctx context.Context, userID string) (core.Profile, error) {
	var p core.Profile
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id, age, dependents, occupation FROM user_profiles WHERE user_id = ?`,
		userID).Scan(&p.UserID, &p.Age, &p.Dependents, &p.Occupation)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Profile{}, core.ErrProfileNotFound
	}
	if err != nil {
		return core.Profile{}, fmt.Errorf("query profile: %w", err)
	}
	return p, nil
}

func (r *Repository) UpsertProfile(ctx context.Context, p core.Profile) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO user_profiles (user_id, age, dependents, occupation, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (user_id) DO UPDATE SET
		   age = excluded.age,
		   dependents = excluded.dependents,
		   occupation = excluded.occupation,
		   updated_at = excluded.updated_at`,
		p.UserID, p.Age, p.Dependents, p.Occupation, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}

	slog.InfoContext(ctx, "Profile upserted", "user_id", p.UserID)
	return nil
}

// PendingTransaction is the minimal row the export queue needs.
type PendingTransaction struct {
	ID        int64
	CreatedAt time.Time
}

// PendingSync returns up to limit transactions that still await export.
func (r *Repository) PendingSync(ctx context.Context, limit int) ([]PendingTransaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, created_at FROM transactions
		 WHERE sync_status = ? ORDER BY id ASC LIMIT ?`, SyncPending, limit)
	if err != nil {
		return nil, fmt.Errorf("query pending transactions: %w", err)
	}
	defer rows.Close()

	var pending []PendingTransaction
	for rows.Next() {
		var p PendingTransaction
		if err := rows.Scan(&p.ID, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan pending transaction: %w", err)
		}
		pending = append(pending, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending transactions: %w", err)
	}

	return pending, nil
}

// MarkSynced marks a transaction as successfully exported.
func (r *Repository) MarkSynced(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET sync_status = ? WHERE id = ?`, SyncDone, id); err != nil {
		return fmt.Errorf("mark transaction synced: %w", err)
	}
	slog.InfoContext(ctx, "Transaction marked as synced", "id", id)
	return nil
}

// MarkSyncError marks a transaction as failed to export; the periodic
// scan will not retry it until the status is reset manually.
func (r *Repository) MarkSyncError(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET sync_status = ? WHERE id = ?`, SyncError, id); err != nil {
		return fmt.Errorf("mark transaction sync error: %w", err)
	}
	slog.WarnContext(ctx, "Transaction marked with sync error", "id", id)
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		tx       core.Transaction
		date     string
		category string
		cents    int64
	)
	if err := row.Scan(&tx.ID, &tx.UserID, &date, &category, &cents, &tx.Description); err != nil {
		return core.Transaction{}, fmt.Errorf("scan transaction: %w", err)
	}

	parsed, err := core.ParseDate(date)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse stored date %q: %w", date, err)
	}
	tx.Date = parsed
	tx.Category = core.Category(category)
	tx.Amount = core.Money{Cents: cents}
	return tx, nil
}
