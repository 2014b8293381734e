package model

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"risparmio/internal/core"
)

// ArtifactSuffix selects model files within the artifact directory.
const ArtifactSuffix = "_model.json"

// Registry holds the loaded per-category predictors. It is built once
// at startup and never mutated afterwards, so concurrent prediction
// requests share it without locking. Retraining replaces the whole
// registry, not individual entries.
type Registry struct {
	models map[core.Category]Predictor
	schema []string
}

// NewRegistry builds a registry from an explicit category→predictor
// map; used by tests and embedders.
func NewRegistry(models map[core.Category]Predictor, schema []string) *Registry {
	copied := make(map[core.Category]Predictor, len(models))
	for c, p := range models {
		copied[c] = p
	}
	return &Registry{models: copied, schema: append([]string(nil), schema...)}
}

// Load reads every *_model.json artifact in dir. A missing directory
// yields an empty registry (predictions become unavailable, loading
// does not fail); a malformed artifact or an unknown category key fails
// the whole load, so a bad deployment is caught at startup rather than
// silently shrinking coverage.
func Load(dir string) (*Registry, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		slog.Warn("Model directory not found, predictions unavailable", "dir", dir)
		return &Registry{models: map[core.Category]Predictor{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read model directory: %w", err)
	}

	models := make(map[core.Category]Predictor)
	var schema []string

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ArtifactSuffix) {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		artifact, err := ReadArtifact(path)
		if err != nil {
			return nil, err
		}

		key := artifact.CategoryKey
		if key == "" {
			key = strings.TrimSuffix(entry.Name(), ArtifactSuffix)
		}

		category, ok := CategoryForKey(key)
		if !ok {
			return nil, fmt.Errorf("artifact %s: unknown category key %q", entry.Name(), key)
		}
		if _, dup := models[category]; dup {
			return nil, fmt.Errorf("artifact %s: duplicate model for category %s", entry.Name(), category)
		}

		predictor, err := artifact.Build()
		if err != nil {
			return nil, fmt.Errorf("artifact %s: %w", entry.Name(), err)
		}

		models[category] = predictor
		if schema == nil && len(artifact.Features) > 0 {
			schema = append([]string(nil), artifact.Features...)
		}

		slog.Info("Loaded model artifact",
			"file", entry.Name(),
			"category", category,
			"declares_schema", len(artifact.Features) > 0)
	}

	if len(models) == 0 {
		slog.Warn("No model artifacts found, predictions unavailable", "dir", dir)
	}

	return &Registry{models: models, schema: schema}, nil
}

// Empty reports whether no models are loaded.
func (r *Registry) Empty() bool {
	return len(r.models) == 0
}

// Len returns the number of loaded models.
func (r *Registry) Len() int {
	return len(r.models)
}

// Categories lists the categories with a loaded model, sorted for
// deterministic iteration.
func (r *Registry) Categories() []core.Category {
	cats := make([]core.Category, 0, len(r.models))
	for c := range r.models {
		cats = append(cats, c)
	}
	sort.Slice(cats, func(i, j int) bool { return cats[i] < cats[j] })
	return cats
}

// PredictorFor returns the model for a category, if one is loaded.
func (r *Registry) PredictorFor(c core.Category) (Predictor, bool) {
	p, ok := r.models[c]
	return p, ok
}

// Schema returns the input schema declared by the loaded artifacts, or
// nil when none declared one. Callers fall back to their own default;
// an explicitly configured schema always wins over this convenience.
func (r *Registry) Schema() []string {
	return r.schema
}
