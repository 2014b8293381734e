// Package services holds the expense-to-prediction pipeline: windowed
// aggregation, feature preparation, per-category prediction assembly,
// spending trends, and the free-text transaction parser.
package services

import (
	"context"
	"fmt"
	"time"

	"risparmio/internal/core"
	"risparmio/internal/storage"
)

// Aggregator reduces a user's transactions into per-category totals.
// It holds no state beyond its collaborators; every call derives fresh
// results from the store.
type Aggregator struct {
	store storage.Store
	now   func() time.Time
}

func NewAggregator(store storage.Store) *Aggregator {
	return &Aggregator{store: store, now: time.Now}
}

// Aggregate sums amounts grouped by category for the given window.
// Categories without transactions are absent from the result; callers
// that need the full fixed set reconcile against core.Categories().
func (a *Aggregator) Aggregate(ctx context.Context, userID string, window core.Window) (core.ExpenseSummary, error) {
	from := windowStart(window, a.now())

	txs, err := a.store.Transactions(ctx, userID, from, nil)
	if err != nil {
		return nil, fmt.Errorf("aggregate expenses: %w", err)
	}

	summary := make(core.ExpenseSummary)
	for _, tx := range txs {
		summary[tx.Category] = summary[tx.Category].Add(tx.Amount)
	}
	return summary, nil
}

// windowStart computes the inclusive lower bound for a window, or nil
// for the unbounded "all" window. The week starts on Monday.
func windowStart(window core.Window, now time.Time) *core.Date {
	var start core.Date
	switch window {
	case core.WindowDay:
		start = core.DateOf(now)
	case core.WindowWeek:
		today := core.DateOf(now)
		// time.Weekday counts from Sunday; shift so Monday is 0.
		offset := (int(today.Weekday()) + 6) % 7
		start = core.DateOf(today.AddDate(0, 0, -offset))
	case core.WindowMonth:
		today := core.DateOf(now)
		start = core.NewDate(today.Year(), int(today.Month()), 1)
	default:
		return nil
	}
	return &start
}
