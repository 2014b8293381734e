// Package model loads serialized per-category regressors and exposes
// them behind an immutable registry. Training happens elsewhere; this
// package only consumes its artifacts.
package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"risparmio/internal/core"
)

// Predictor is the contract a trained per-category regressor fulfils:
// a pure function from a feature vector to a predicted savings amount
// in major currency units.
type Predictor interface {
	Predict(features core.FeatureVector) (float64, error)
}

// ErrFeatureMissing signals a shape mismatch between the feature vector
// and what the model was trained on. Callers skip the category.
var ErrFeatureMissing = errors.New("feature missing from vector")

// Artifact is the on-disk JSON form of a trained model. Features is the
// ordered input schema the model was trained with; it is optional, and
// when present the first loaded artifact's schema doubles as the
// registry's declared schema.
type Artifact struct {
	CategoryKey  string             `json:"category_key"`
	Kind         string             `json:"kind"`
	Features     []string           `json:"features,omitempty"`
	Intercept    float64            `json:"intercept"`
	Coefficients map[string]float64 `json:"coefficients"`
}

// ReadArtifact parses a single artifact file.
func ReadArtifact(path string) (Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Artifact{}, fmt.Errorf("read artifact: %w", err)
	}

	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return Artifact{}, fmt.Errorf("parse artifact %s: %w", path, err)
	}
	return a, nil
}

// Build turns the artifact into a predictor.
func (a Artifact) Build() (Predictor, error) {
	switch a.Kind {
	case "linear", "":
		if len(a.Coefficients) == 0 {
			return nil, fmt.Errorf("artifact %q has no coefficients", a.CategoryKey)
		}
		return &LinearModel{intercept: a.Intercept, coefficients: a.Coefficients}, nil
	default:
		return nil, fmt.Errorf("unsupported model kind %q", a.Kind)
	}
}

// LinearModel is a linear regressor: intercept plus the weighted sum of
// the named features. Coefficients address features by name, never by
// position, so a reordered schema stays correct as long as the names
// are present.
type LinearModel struct {
	intercept    float64
	coefficients map[string]float64
}

// NewLinearModel builds a linear predictor directly; used by tests and
// by callers that construct models programmatically.
func NewLinearModel(intercept float64, coefficients map[string]float64) *LinearModel {
	return &LinearModel{intercept: intercept, coefficients: coefficients}
}

func (m *LinearModel) Predict(features core.FeatureVector) (float64, error) {
	sum := m.intercept
	for name, coef := range m.coefficients {
		value, ok := features.Value(name)
		if !ok {
			return 0, fmt.Errorf("%w: %s", ErrFeatureMissing, name)
		}
		sum += coef * value
	}
	return sum, nil
}
