package model

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"risparmio/internal/core"
)

func writeArtifact(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatalf("write artifact: %v", err)
	}
}

func TestLoad(t *testing.T) {
	t.Run("missing directory yields empty registry", func(t *testing.T) {
		reg, err := Load(filepath.Join(t.TempDir(), "nope"))
		if err != nil {
			t.Fatalf("Load() error: %v", err)
		}
		if !reg.Empty() {
			t.Errorf("registry not empty: %d models", reg.Len())
		}
	})

	t.Run("loads artifacts and declared schema", func(t *testing.T) {
		dir := t.TempDir()
		writeArtifact(t, dir, "groceries_model.json", `{
			"category_key": "potential_savings_groceries",
			"kind": "linear",
			"features": ["Age", "Dependents", "Groceries"],
			"intercept": 10,
			"coefficients": {"Groceries": 0.1}
		}`)
		writeArtifact(t, dir, "transport_model.json", `{
			"kind": "linear",
			"intercept": 0,
			"coefficients": {"Transport": 0.2}
		}`)
		writeArtifact(t, dir, "notes.txt", "ignored")

		reg, err := Load(dir)
		if err != nil {
			t.Fatalf("Load() error: %v", err)
		}
		if reg.Len() != 2 {
			t.Fatalf("Len() = %d, want 2", reg.Len())
		}
		if _, ok := reg.PredictorFor(core.Groceries); !ok {
			t.Error("missing Groceries predictor")
		}
		// transport_model.json has no category_key; the filename stem
		// "transport" must resolve through the key table.
		if _, ok := reg.PredictorFor(core.Transport); !ok {
			t.Error("missing Transport predictor (filename-derived key)")
		}
		schema := reg.Schema()
		if len(schema) != 3 || schema[0] != "Age" {
			t.Errorf("Schema() = %v, want declared [Age Dependents Groceries]", schema)
		}
	})

	t.Run("unknown category key fails load", func(t *testing.T) {
		dir := t.TempDir()
		writeArtifact(t, dir, "rent_model.json", `{"coefficients": {"Rent": 1}}`)

		if _, err := Load(dir); err == nil {
			t.Error("Load() = nil error, want unknown category key failure")
		}
	})

	t.Run("malformed artifact fails load", func(t *testing.T) {
		dir := t.TempDir()
		writeArtifact(t, dir, "groceries_model.json", `{not json`)

		if _, err := Load(dir); err == nil {
			t.Error("Load() = nil error, want parse failure")
		}
	})

	t.Run("duplicate category fails load", func(t *testing.T) {
		dir := t.TempDir()
		writeArtifact(t, dir, "groceries_model.json", `{"coefficients": {"Groceries": 1}}`)
		writeArtifact(t, dir, "potential_savings_groceries_model.json", `{"coefficients": {"Groceries": 2}}`)

		if _, err := Load(dir); err == nil {
			t.Error("Load() = nil error, want duplicate category failure")
		}
	})
}

func TestCategoryForKey(t *testing.T) {
	tests := []struct {
		key  string
		want core.Category
		ok   bool
	}{
		{key: "groceries", want: core.Groceries, ok: true},
		{key: "potential_savings_groceries", want: core.Groceries, ok: true},
		{key: "eating_out", want: core.EatingOut, ok: true},
		{key: "potential_savings_eating_out", want: core.EatingOut, ok: true},
		{key: "Groceries", ok: false},
		{key: "rent", ok: false},
		{key: "", ok: false},
	}

	for _, tt := range tests {
		got, ok := CategoryForKey(tt.key)
		if ok != tt.ok || got != tt.want {
			t.Errorf("CategoryForKey(%q) = (%v, %v), want (%v, %v)", tt.key, got, ok, tt.want, tt.ok)
		}
	}
}

func TestKeyFor_RoundTrips(t *testing.T) {
	for _, c := range core.Categories() {
		got, ok := CategoryForKey(KeyFor(c))
		if !ok || got != c {
			t.Errorf("CategoryForKey(KeyFor(%v)) = (%v, %v)", c, got, ok)
		}
	}
}

func TestLinearModelPredict(t *testing.T) {
	m := NewLinearModel(100, map[string]float64{"Groceries": 0.5, "Age": 2})
	features := core.FeatureVector{
		Names:  []string{"Age", "Groceries", "Transport"},
		Values: []float64{30, 1000, 50},
	}

	got, err := m.Predict(features)
	if err != nil {
		t.Fatalf("Predict() error: %v", err)
	}
	want := 100 + 0.5*1000 + 2*30
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("Predict() = %v, want %v", got, want)
	}
}

func TestLinearModelPredict_MissingFeature(t *testing.T) {
	m := NewLinearModel(0, map[string]float64{"Healthcare": 1})
	features := core.FeatureVector{Names: []string{"Age"}, Values: []float64{30}}

	_, err := m.Predict(features)
	if !errors.Is(err, ErrFeatureMissing) {
		t.Errorf("Predict() error = %v, want ErrFeatureMissing", err)
	}
}
