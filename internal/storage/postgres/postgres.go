// Package postgres implements the transaction store on PostgreSQL via
// pgx. It mirrors the sqlite implementation minus the export queue;
// deployments that need Sheets export run on sqlite.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"risparmio/internal/core"
)

type Repository struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, url string) (*Repository, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	repo := &Repository{pool: pool}
	if err := repo.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return repo, nil
}

func (r *Repository) ensureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS transactions (
			id BIGSERIAL PRIMARY KEY,
			user_id TEXT NOT NULL,
			date DATE NOT NULL,
			category TEXT NOT NULL,
			amount_cents BIGINT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_user_date ON transactions (user_id, date)`,
		`CREATE TABLE IF NOT EXISTS user_profiles (
			user_id TEXT PRIMARY KEY,
			age INTEGER NOT NULL,
			dependents INTEGER NOT NULL DEFAULT 0,
			occupation TEXT NOT NULL DEFAULT '',
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
	}

	for _, stmt := range statements {
		if _, err := r.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

func (r *Repository) Close() error {
	r.pool.Close()
	return nil
}

func (r *Repository) InsertTransaction(ctx context.Context, tx core.Transaction) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO transactions (user_id, date, category, amount_cents, description)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		tx.UserID, tx.Date.Time, string(tx.Category), tx.Amount.Cents, tx.Description).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved to Postgres",
		"id", id,
		"user_id", tx.UserID,
		"category", tx.Category,
		"amount_cents", tx.Amount.Cents)

	return id, nil
}

func (r *Repository) Transactions(ctx context.Context, userID string, from, to *core.Date) ([]core.Transaction, error) {
	query := `SELECT id, user_id, date, category, amount_cents, description
		FROM transactions WHERE user_id = $1`
	args := []any{userID}

	if from != nil {
		args = append(args, from.Time)
		query += fmt.Sprintf(` AND date >= $%d`, len(args))
	}
	if to != nil {
		args = append(args, to.Time)
		query += fmt.Sprintf(` AND date <= $%d`, len(args))
	}
	query += ` ORDER BY date DESC, id DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var txs []core.Transaction
	for rows.Next() {
		var (
			tx       core.Transaction
			date     time.Time
			category string
			cents    int64
		)
		if err := rows.Scan(&tx.ID, &tx.UserID, &date, &category, &cents, &tx.Description); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		tx.Date = core.DateOf(date)
		tx.Category = core.Category(category)
		tx.Amount = core.Money{Cents: cents}
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}

	return txs, nil
}

func (r *Repository) Profile(ctx context.Context, userID string) (core.Profile, error) {
	var p core.Profile
	err := r.pool.QueryRow(ctx,
		`SELECT user_id, age, dependents, occupation FROM user_profiles WHERE user_id = $1`,
		userID).Scan(&p.UserID, &p.Age, &p.Dependents, &p.Occupation)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.Profile{}, core.ErrProfileNotFound
	}
	if err != nil {
		return core.Profile{}, fmt.Errorf("query profile: %w", err)
	}
	return p, nil
}

func (r *Repository) UpsertProfile(ctx context.Context, p core.Profile) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO user_profiles (user_id, age, dependents, occupation, updated_at)
		 VALUES ($1, $2, $3, $4, now())
		 ON CONFLICT (user_id) DO UPDATE SET
		   age = EXCLUDED.age,
		   dependents = EXCLUDED.dependents,
		   occupation = EXCLUDED.occupation,
		   updated_at = EXCLUDED.updated_at`,
		p.UserID, p.Age, p.Dependents, p.Occupation)
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}

	slog.InfoContext(ctx, "Profile upserted", "user_id", p.UserID)
	return nil
}
