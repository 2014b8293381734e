package services

import (
	"context"
	"fmt"
	"log/slog"

	"risparmio/internal/core"
	"risparmio/internal/storage"
)

// occupationOneHot maps profile occupations to their one-hot feature
// column. The table is part of the training contract; occupations
// outside it (Salaried included) leave every one-hot column at zero.
var occupationOneHot = map[string]string{
	"Business":      "Occupation_Self_Employed",
	"Freelancer":    "Occupation_Self_Employed",
	"Self_Employed": "Occupation_Self_Employed",
	"Student":       "Occupation_Student",
	"Retired":       "Occupation_Retired",
}

// DefaultSchema is the feature order the models were originally trained
// with: demographics, occupation one-hots, then the fixed categories.
// Used when neither configuration nor a loaded artifact declares one.
func DefaultSchema() []string {
	schema := []string{
		"Age", "Dependents",
		"Occupation_Self_Employed", "Occupation_Student", "Occupation_Retired",
	}
	for _, c := range core.Categories() {
		schema = append(schema, string(c))
	}
	return schema
}

// FeatureBuilder turns a profile plus aggregated expenses into the
// fixed-order numeric vector the models consume. The schema is resolved
// once at construction; Build is deterministic for unchanged store state.
type FeatureBuilder struct {
	store  storage.Store
	agg    *Aggregator
	schema []string
}

// NewFeatureBuilder resolves the active schema with the precedence:
// explicit configuration, then the schema declared by loaded model
// artifacts, then the hardcoded default.
func NewFeatureBuilder(store storage.Store, agg *Aggregator, configured, declared []string) *FeatureBuilder {
	schema := configured
	if len(schema) == 0 {
		schema = declared
	}
	if len(schema) == 0 {
		schema = DefaultSchema()
	}
	return &FeatureBuilder{store: store, agg: agg, schema: schema}
}

// Schema returns the active feature schema in order.
func (b *FeatureBuilder) Schema() []string {
	return b.schema
}

// Build produces the feature vector for a user. The only hard failure
// is a missing profile; schema/column mismatches are logged and the
// column skipped, matching the tolerance of the training pipeline.
func (b *FeatureBuilder) Build(ctx context.Context, userID string) (core.FeatureVector, error) {
	profile, err := b.store.Profile(ctx, userID)
	if err != nil {
		return core.FeatureVector{}, fmt.Errorf("build features for %s: %w", userID, err)
	}

	expenses, err := b.agg.Aggregate(ctx, userID, core.WindowAll)
	if err != nil {
		return core.FeatureVector{}, err
	}

	// Every schema column starts at zero; only known columns get set,
	// so categories outside the fixed set never reach a model.
	index := make(map[string]int, len(b.schema))
	values := make([]float64, len(b.schema))
	for i, name := range b.schema {
		index[name] = i
	}

	set := func(column string, value float64) {
		i, ok := index[column]
		if !ok {
			slog.WarnContext(ctx, "Feature column not in active schema, skipping",
				"column", column, "user_id", userID)
			return
		}
		values[i] = value
	}

	set("Age", float64(profile.Age))
	set("Dependents", float64(profile.Dependents))

	if column, ok := occupationOneHot[profile.Occupation]; ok {
		set(column, 1)
	} else {
		slog.DebugContext(ctx, "Occupation has no one-hot mapping, all occupation columns stay zero",
			"occupation", profile.Occupation, "user_id", userID)
	}

	for _, category := range core.Categories() {
		set(string(category), expenses[category].Units())
	}

	return core.FeatureVector{
		Names:  append([]string(nil), b.schema...),
		Values: values,
	}, nil
}
