package main

import (
	"context"
	"flag"
	"math/rand"
	"os"
	"time"

	"github.com/joho/godotenv"

	"risparmio/internal/config"
	"risparmio/internal/core"
	"risparmio/internal/log"
	"risparmio/internal/storage"
)

// Sample descriptions per category for generated transactions.
var descriptions = map[core.Category][]string{
	core.Groceries:     {"Supermarket shopping", "Weekly groceries", "Fresh produce", "Pantry items"},
	core.Transport:     {"Fuel refill", "Metro pass", "Train tickets", "Bus fare", "Cab ride"},
	core.EatingOut:     {"Restaurant dinner", "Lunch with friends", "Coffee shop", "Take-out food"},
	core.Entertainment: {"Movie tickets", "Concert", "Streaming subscription", "Game purchase"},
	core.Utilities:     {"Electricity bill", "Water bill", "Internet bill", "Gas bill", "Phone bill"},
	core.Healthcare:    {"Doctor visit", "Medications", "Health insurance", "Gym membership"},
	core.Education:     {"Online course", "Books", "Tuition fee", "School supplies"},
	core.Miscellaneous: {"Gift purchase", "Home repair", "Donation", "Household items"},
}

// amountRange mirrors typical spend levels per category, in major units.
func amountRange(c core.Category) (low, high float64) {
	switch c {
	case core.Groceries, core.Utilities:
		return 500, 3000
	case core.Healthcare, core.Education:
		return 1000, 5000
	case core.Entertainment, core.EatingOut:
		return 200, 1500
	default:
		return 100, 2000
	}
}

func main() {
	_ = godotenv.Load()

	logger := log.New(log.DefaultConfig()).WithComponent(log.ComponentSeed)
	log.SetDefault(logger)

	userID := flag.String("user", "user123", "user to seed")
	count := flag.Int("count", 100, "number of transactions to generate")
	spanDays := flag.Int("days", 90, "spread transactions over the trailing N days")
	age := flag.Int("age", 32, "profile age")
	dependents := flag.Int("dependents", 1, "profile dependents")
	occupation := flag.String("occupation", "Self_Employed", "profile occupation")
	flag.Parse()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	store, err := storage.Open(ctx, cfg)
	if err != nil {
		logger.Error("Failed to open storage", "error", err, "backend", cfg.StorageBackend)
		os.Exit(1)
	}
	defer store.Close()

	profile := core.Profile{
		UserID:     *userID,
		Age:        *age,
		Dependents: *dependents,
		Occupation: *occupation,
	}
	if err := profile.Validate(); err != nil {
		logger.Error("Invalid profile", "error", err)
		os.Exit(1)
	}
	if err := store.UpsertProfile(ctx, profile); err != nil {
		logger.Error("Failed to upsert profile", "error", err, "user_id", *userID)
		os.Exit(1)
	}
	logger.Info("Seeded profile",
		"user_id", *userID,
		"age", *age,
		"dependents", *dependents,
		"occupation", *occupation)

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	categories := core.Categories()
	now := time.Now()

	inserted := 0
	for i := 0; i < *count; i++ {
		category := categories[rng.Intn(len(categories))]
		samples := descriptions[category]
		low, high := amountRange(category)

		tx := core.Transaction{
			UserID:      *userID,
			Date:        core.DateOf(now.AddDate(0, 0, -rng.Intn(*spanDays+1))),
			Category:    category,
			Amount:      core.MoneyFromUnits(low + rng.Float64()*(high-low)),
			Description: samples[rng.Intn(len(samples))],
		}
		if _, err := store.InsertTransaction(ctx, tx); err != nil {
			logger.Error("Failed to insert transaction", "error", err, "category", category)
			os.Exit(1)
		}
		inserted++
	}

	// Per-category counts, for a quick sanity check of the spread.
	summary := make(map[core.Category]int)
	txs, err := store.Transactions(ctx, *userID, nil, nil)
	if err != nil {
		logger.Error("Failed to read back transactions", "error", err)
		os.Exit(1)
	}
	for _, tx := range txs {
		summary[tx.Category]++
	}
	for _, c := range categories {
		logger.Info("Category count", "category", c, "count", summary[c])
	}

	logger.Info("Seeding complete", "user_id", *userID, "inserted", inserted, "total", len(txs))
}
