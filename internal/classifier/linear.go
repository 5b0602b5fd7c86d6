// SPDX-License-Identifier: MIT
package classifier

import (
	"fmt"
	"math"
	"os"

	"beewatch/internal/analysis"
	applog "beewatch/internal/log"

	"gopkg.in/yaml.v3"
)

// scaleEpsilon matches the normalisation baked into the exported models.
const scaleEpsilon = 1e-6

// Linear is a small model stored as YAML. Inputs are min/scale normalised
// first. Summer models are a softmax over one weight row per label. Winter
// models score the distance to a centroid of normal behaviour.
type Linear struct {
	Model    string      `yaml:"model"`    // "summer" or "winter".
	Min      []float64   `yaml:"min"`      // Per-feature offset.
	Scale    []float64   `yaml:"scale"`    // Per-feature range.
	Labels   []string    `yaml:"labels"`   // Summer class names.
	Weights  [][]float64 `yaml:"weights"`  // Summer, one row per label.
	Bias     []float64   `yaml:"bias"`     // Summer, one per label.
	Centroid []float64   `yaml:"centroid"` // Winter centroid in normalised space.
	Radius   float64     `yaml:"radius"`   // Winter distance scoring 0.5.

	model   analysis.Model
	scratch []float64
}

// LoadLinear reads and validates a model file.
func LoadLinear(path string) (*Linear, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model file: %w", err)
	}
	var m Linear
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse model file: %w", err)
	}
	if err := m.init(); err != nil {
		return nil, fmt.Errorf("invalid model %s: %w", path, err)
	}
	applog.Infof("[AI] Loaded %s model from %s", m.Model, path)
	return &m, nil
}

func (m *Linear) init() error {
	var n int
	switch m.Model {
	case analysis.ModelSummer.String():
		m.model, n = analysis.ModelSummer, analysis.SummerFeatures
		if len(m.Labels) == 0 {
			return fmt.Errorf("summer model needs labels")
		}
		if len(m.Weights) != len(m.Labels) || len(m.Bias) != len(m.Labels) {
			return fmt.Errorf("need %d weight rows and biases, got %d and %d", len(m.Labels), len(m.Weights), len(m.Bias))
		}
		for i, row := range m.Weights {
			if len(row) != n {
				return fmt.Errorf("weight row %d has %d values, want %d", i, len(row), n)
			}
		}
	case analysis.ModelWinter.String():
		m.model, n = analysis.ModelWinter, analysis.WinterFeatures
		if len(m.Centroid) != n {
			return fmt.Errorf("centroid has %d values, want %d", len(m.Centroid), n)
		}
		if m.Radius <= 0 {
			return fmt.Errorf("radius must be positive")
		}
	default:
		return fmt.Errorf("unknown model type %q", m.Model)
	}
	if m.Min == nil {
		m.Min = make([]float64, n)
	}
	if m.Scale == nil {
		m.Scale = make([]float64, n)
		for i := range m.Scale {
			m.Scale[i] = 1 - scaleEpsilon
		}
	}
	if len(m.Min) != n || len(m.Scale) != n {
		return fmt.Errorf("min/scale need %d values", n)
	}
	m.scratch = make([]float64, n)
	return nil
}

// Infer implements Classifier.
func (m *Linear) Infer(v analysis.Vector) (Result, error) {
	if v.Model != m.model {
		return Result{}, fmt.Errorf("%s vector given to %s model: %w", v.Model, m.model, ErrNoModel)
	}
	if len(v.Values) != len(m.scratch) {
		return Result{}, fmt.Errorf("got %d features, want %d", len(v.Values), len(m.scratch))
	}
	x := m.scratch
	for i, f := range v.Values {
		x[i] = (float64(f) - m.Min[i]) / (m.Scale[i] + scaleEpsilon)
	}

	if m.model == analysis.ModelWinter {
		var d2 float64
		for i := range x {
			d := x[i] - m.Centroid[i]
			d2 += d * d
		}
		d := math.Sqrt(d2)
		return Result{Anomaly: float32(d / (d + m.Radius)), HasAnomaly: true}, nil
	}

	logits := make([]float64, len(m.Labels))
	peak := math.Inf(-1)
	for j, row := range m.Weights {
		z := m.Bias[j]
		for i, w := range row {
			z += w * x[i]
		}
		logits[j] = z
		peak = max(peak, z)
	}
	var sum float64
	for j := range logits {
		logits[j] = math.Exp(logits[j] - peak)
		sum += logits[j]
	}
	labels := make([]Label, len(m.Labels))
	for j, name := range m.Labels {
		labels[j] = Label{Name: name, Score: float32(logits[j] / sum)}
	}
	return Result{Labels: labels}, nil
}

// Set routes each vector to the classifier for its model.
type Set struct {
	Summer Classifier
	Winter Classifier
}

// Infer implements Classifier.
func (s Set) Infer(v analysis.Vector) (Result, error) {
	var c Classifier
	switch v.Model {
	case analysis.ModelSummer:
		c = s.Summer
	case analysis.ModelWinter:
		c = s.Winter
	}
	if c == nil {
		return None{}.Infer(v)
	}
	return c.Infer(v)
}
