// Package ml holds the pre-trained housing price regression model: feature
// encoding, a YAML model-file codec, and the pure inference function.
package ml

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Model is a linear regression over the encoded feature columns, with
// optional per-column standardization (x - mean) / scale applied before the
// dot product. It is immutable after Load and safe for concurrent use.
type Model struct {
	Intercept    float64            `yaml:"intercept"`
	Coefficients map[string]float64 `yaml:"coefficients"`
	Means        map[string]float64 `yaml:"means,omitempty"`
	Scales       map[string]float64 `yaml:"scales,omitempty"`
}

// Load reads and validates a model file. Every feature column must carry a
// coefficient, and any provided scale must be non-zero.
func Load(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model file: %w", err)
	}

	var m Model
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse model file: %w", err)
	}
	if err := m.validate(); err != nil {
		return nil, fmt.Errorf("invalid model file %s: %w", path, err)
	}
	return &m, nil
}

func (m *Model) validate() error {
	if len(m.Coefficients) == 0 {
		return fmt.Errorf("no coefficients")
	}
	for _, col := range FeatureColumns() {
		if _, ok := m.Coefficients[col]; !ok {
			return fmt.Errorf("missing coefficient for column %q", col)
		}
		if scale, ok := m.Scales[col]; ok && scale == 0 {
			return fmt.Errorf("zero scale for column %q", col)
		}
	}
	return nil
}

// Predict computes the price estimate for one validated feature set.
func (m *Model) Predict(f HouseFeatures) float64 {
	x := f.Encode()
	sum := m.Intercept
	for _, col := range FeatureColumns() {
		v := x[col]
		if mean, ok := m.Means[col]; ok {
			v -= mean
		}
		if scale, ok := m.Scales[col]; ok {
			v /= scale
		}
		sum += m.Coefficients[col] * v
	}
	return sum
}
