package memory

import (
	"context"
	"fmt"
	"sync"

	"risparmio/internal/core"
)

// Store is an in-memory TransactionWriter for tests and local runs
// without spreadsheet credentials.
type Store struct {
	mu   sync.Mutex
	rows []core.Transaction
	fail error
}

func New() *Store { return &Store{} }

// FailWith makes every subsequent Append return err.
func (s *Store) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = err
}

// Append stores the transaction and returns a synthetic row reference.
func (s *Store) Append(_ context.Context, tx core.Transaction) (string, error) {
	if err := tx.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return "", s.fail
	}
	s.rows = append(s.rows, tx)
	return fmt.Sprintf("mem:%d", len(s.rows)), nil
}

// Rows returns a copy of everything appended so far.
func (s *Store) Rows() []core.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Transaction(nil), s.rows...)
}
