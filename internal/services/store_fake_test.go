package services

import (
	"context"
	"sort"

	"risparmio/internal/core"
)

// fakeStore is an in-memory storage.Store for pipeline tests. It
// mimics the real stores' contract: date-descending order, inclusive
// bounds, core.ErrProfileNotFound for missing profiles.
type fakeStore struct {
	profiles map[string]core.Profile
	txs      []core.Transaction
	err      error
}

func newFakeStore() *fakeStore {
	return &fakeStore{profiles: make(map[string]core.Profile)}
}

func (s *fakeStore) InsertTransaction(_ context.Context, tx core.Transaction) (int64, error) {
	if s.err != nil {
		return 0, s.err
	}
	tx.ID = int64(len(s.txs) + 1)
	s.txs = append(s.txs, tx)
	return tx.ID, nil
}

func (s *fakeStore) Transactions(_ context.Context, userID string, from, to *core.Date) ([]core.Transaction, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []core.Transaction
	for _, tx := range s.txs {
		if tx.UserID != userID {
			continue
		}
		if from != nil && tx.Date.Before(from.Time) {
			continue
		}
		if to != nil && tx.Date.After(to.Time) {
			continue
		}
		out = append(out, tx)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date.Time) })
	return out, nil
}

func (s *fakeStore) Profile(_ context.Context, userID string) (core.Profile, error) {
	if s.err != nil {
		return core.Profile{}, s.err
	}
	p, ok := s.profiles[userID]
	if !ok {
		return core.Profile{}, core.ErrProfileNotFound
	}
	return p, nil
}

func (s *fakeStore) UpsertProfile(_ context.Context, p core.Profile) error {
	if s.err != nil {
		return s.err
	}
	s.profiles[p.UserID] = p
	return nil
}

func (s *fakeStore) Close() error { return nil }

func (s *fakeStore) addTx(userID string, date core.Date, cat core.Category, cents int64) {
	s.txs = append(s.txs, core.Transaction{
		ID:          int64(len(s.txs) + 1),
		UserID:      userID,
		Date:        date,
		Category:    cat,
		Amount:      core.Money{Cents: cents},
		Description: "test",
	})
}
