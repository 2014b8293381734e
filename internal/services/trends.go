package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"risparmio/internal/core"
	"risparmio/internal/storage"
)

// TrendAnalyzer produces daily and per-category spend series for a
// trailing window. Independent of the prediction path; shares only the
// store.
type TrendAnalyzer struct {
	store storage.Store
	now   func() time.Time
}

func NewTrendAnalyzer(store storage.Store) *TrendAnalyzer {
	return &TrendAnalyzer{store: store, now: time.Now}
}

// Trends returns a contiguous, zero-seeded daily series of days+1
// buckets ending today, plus per-category totals over the same window.
// The category series only lists categories that occur and is sorted by
// amount descending for stable output. A user with no transactions gets
// a structurally complete report.
func (t *TrendAnalyzer) Trends(ctx context.Context, userID string, days int) (core.TrendReport, error) {
	end := core.DateOf(t.now())
	start := core.DateOf(end.AddDate(0, 0, -days))

	txs, err := t.store.Transactions(ctx, userID, &start, &end)
	if err != nil {
		return core.TrendReport{}, fmt.Errorf("spending trends: %w", err)
	}

	daily := make([]core.DailySpend, days+1)
	bucket := make(map[string]int, days+1)
	for i := 0; i <= days; i++ {
		date := core.DateOf(start.AddDate(0, 0, i)).String()
		daily[i] = core.DailySpend{Date: date}
		bucket[date] = i
	}

	dailyCents := make([]int64, days+1)
	categoryCents := make(map[core.Category]int64)
	for _, tx := range txs {
		// Dates outside the seeded range are dropped; the store should
		// not return them, but a misbehaving backend must not panic us.
		if i, ok := bucket[tx.Date.String()]; ok {
			dailyCents[i] += tx.Amount.Cents
		}
		categoryCents[tx.Category] += tx.Amount.Cents
	}

	for i := range daily {
		daily[i].Amount = core.Money{Cents: dailyCents[i]}.Units()
	}

	categories := make([]core.CategorySpend, 0, len(categoryCents))
	for category, cents := range categoryCents {
		categories = append(categories, core.CategorySpend{
			Category: category,
			Amount:   core.Money{Cents: cents}.Units(),
		})
	}
	sort.Slice(categories, func(i, j int) bool {
		if categories[i].Amount != categories[j].Amount {
			return categories[i].Amount > categories[j].Amount
		}
		return categories[i].Category < categories[j].Category
	})

	return core.TrendReport{Daily: daily, Category: categories}, nil
}
