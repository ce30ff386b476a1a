package ml

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeModelFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "model.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write model file: %v", err)
	}
	return path
}

// fullModelYAML returns a model file with every column's coefficient set to
// the given value.
func fullModelYAML(intercept, coef float64) string {
	var b strings.Builder
	fmt.Fprintf(&b, "intercept: %g\n", intercept)
	b.WriteString("coefficients:\n")
	for _, col := range FeatureColumns() {
		fmt.Fprintf(&b, "  %q: %g\n", col, coef)
	}
	return b.String()
}

func TestLoad(t *testing.T) {
	path := writeModelFile(t, fullModelYAML(50000, 2))

	m, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if m.Intercept != 50000 {
		t.Errorf("intercept = %v, want 50000", m.Intercept)
	}
	if len(m.Coefficients) != len(FeatureColumns()) {
		t.Errorf("coefficient count = %d, want %d", len(m.Coefficients), len(FeatureColumns()))
	}
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
			t.Error("expected error for missing file")
		}
	})

	t.Run("invalid yaml", func(t *testing.T) {
		path := writeModelFile(t, "intercept: [not a number")
		if _, err := Load(path); err == nil {
			t.Error("expected error for invalid yaml")
		}
	})

	t.Run("no coefficients", func(t *testing.T) {
		path := writeModelFile(t, "intercept: 1\n")
		if _, err := Load(path); err == nil {
			t.Error("expected error for empty coefficients")
		}
	})

	t.Run("missing column", func(t *testing.T) {
		path := writeModelFile(t, "intercept: 1\ncoefficients:\n  longitude: 2\n")
		if _, err := Load(path); err == nil {
			t.Error("expected error for missing columns")
		}
	})

	t.Run("zero scale", func(t *testing.T) {
		content := fullModelYAML(0, 1) + "scales:\n  longitude: 0\n"
		path := writeModelFile(t, content)
		if _, err := Load(path); err == nil {
			t.Error("expected error for zero scale")
		}
	})
}

func TestPredict(t *testing.T) {
	m := &Model{
		Intercept:    100,
		Coefficients: map[string]float64{},
	}
	for _, col := range FeatureColumns() {
		m.Coefficients[col] = 1
	}

	f := HouseFeatures{
		Longitude:        -120,
		Latitude:         34,
		HousingMedianAge: 30,
		TotalRooms:       2000,
		TotalBedrooms:    400,
		Population:       900,
		Households:       350,
		MedianIncome:     4,
		OceanProximity:   "ISLAND",
	}

	// Unit coefficients: intercept + numeric sum + 1 for the ISLAND column.
	want := 100.0 + (-120 + 34 + 30 + 2000 + 400 + 900 + 350 + 4) + 1
	if got := m.Predict(f); got != want {
		t.Errorf("Predict = %v, want %v", got, want)
	}
}

func TestPredict_Standardized(t *testing.T) {
	m := &Model{
		Intercept:    0,
		Coefficients: map[string]float64{},
		Means:        map[string]float64{"median_income": 3},
		Scales:       map[string]float64{"median_income": 2},
	}
	for _, col := range FeatureColumns() {
		m.Coefficients[col] = 0
	}
	m.Coefficients["median_income"] = 10

	f := HouseFeatures{MedianIncome: 7, OceanProximity: "INLAND"}

	// (7 - 3) / 2 * 10 = 20
	if got := m.Predict(f); got != 20 {
		t.Errorf("Predict = %v, want 20", got)
	}
}
