// Package storage defines the transaction store boundary. The core
// pipeline only reads through this interface; implementations live in
// the sqlite and postgres subpackages.
package storage

import (
	"context"

	"risparmio/internal/core"
)

// Store is the durable home of transactions and user profiles.
//
// Transactions returns rows ordered by date descending; from and to are
// optional inclusive calendar-day bounds. Profile returns
// core.ErrProfileNotFound when the user has no profile.
type Store interface {
	InsertTransaction(ctx context.Context, tx core.Transaction) (int64, error)
	Transactions(ctx context.Context, userID string, from, to *core.Date) ([]core.Transaction, error)
	Profile(ctx context.Context, userID string) (core.Profile, error)
	UpsertProfile(ctx context.Context, p core.Profile) error
	Close() error
}
