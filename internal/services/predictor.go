package services

import (
	"context"
	"log/slog"
	"math"

	"risparmio/internal/core"
	"risparmio/internal/model"
)

// PredictionService assembles the per-user savings report: one model
// invocation per loaded category, reconciled against actual spend.
type PredictionService struct {
	registry *model.Registry
	agg      *Aggregator
	features *FeatureBuilder

	// clampNegative floors negative raw predictions at zero before they
	// enter the report. The pass-through alternative reproduces the
	// training pipeline's original behavior, where a negative estimate
	// flows into the totals.
	clampNegative bool
}

func NewPredictionService(registry *model.Registry, agg *Aggregator, features *FeatureBuilder, clampNegative bool) *PredictionService {
	return &PredictionService{
		registry:      registry,
		agg:           agg,
		features:      features,
		clampNegative: clampNegative,
	}
}

// Predict builds the savings report for a user.
//
// Hard failures: core.ErrNoModels when the registry is empty and
// core.ErrProfileNotFound from feature building. A failing individual
// model only costs its own category. Categories with zero spend are
// skipped, and a report with zero included categories is a valid
// result with zero totals.
func (s *PredictionService) Predict(ctx context.Context, userID string) (core.PredictionReport, error) {
	if s.registry.Empty() {
		return core.PredictionReport{}, core.ErrNoModels
	}

	features, err := s.features.Build(ctx, userID)
	if err != nil {
		return core.PredictionReport{}, err
	}

	expenses, err := s.agg.Aggregate(ctx, userID, core.WindowAll)
	if err != nil {
		return core.PredictionReport{}, err
	}

	report := core.PredictionReport{
		Predictions: make(map[core.Category]core.CategoryPrediction),
	}

	for _, category := range s.registry.Categories() {
		actual := expenses[category].Units()
		if actual <= 0 {
			continue
		}

		predictor, _ := s.registry.PredictorFor(category)
		raw, err := predictor.Predict(features)
		if err != nil {
			slog.ErrorContext(ctx, "Model prediction failed, skipping category",
				"category", category, "user_id", userID, "error", err)
			continue
		}

		if s.clampNegative && raw < 0 {
			raw = 0
		}
		// Never predict saving more than was spent.
		savings := math.Min(raw, actual)

		report.Predictions[category] = core.CategoryPrediction{
			ActualExpense:     actual,
			PotentialSavings:  savings,
			SavingsPercentage: core.SavingsPercentage(savings, actual),
		}

		report.Totals.ActualExpenses += actual
		report.Totals.PotentialSavings += savings
	}

	report.Totals.SavingsPercentage = core.SavingsPercentage(
		report.Totals.PotentialSavings, report.Totals.ActualExpenses)

	slog.InfoContext(ctx, "Generated savings prediction",
		"user_id", userID,
		"categories", len(report.Predictions),
		"total_potential_savings", report.Totals.PotentialSavings)

	return report, nil
}
