// SPDX-License-Identifier: MIT

// Package classifier runs the trained hive models on feature vectors.
package classifier

import (
	"errors"
	"fmt"

	"beewatch/internal/analysis"
)

// ErrNoModel is returned when no model is loaded for a vector.
var ErrNoModel = errors.New("no model loaded")

// Label is one class probability.
type Label struct {
	Name  string
	Score float32
}

// Result is the outcome of one inference.
type Result struct {
	Labels     []Label // Class probabilities, summer models
	Anomaly    float32 // Anomaly score in [0, 1), winter models
	HasAnomaly bool
}

// Best returns the highest scoring label and its index. The first label wins
// ties. ok is false when there are no labels.
func (r Result) Best() (best Label, idx int, ok bool) {
	best = Label{Name: "Unknown", Score: -1}
	for i, l := range r.Labels {
		if l.Score > best.Score {
			best, idx, ok = l, i, true
		}
	}
	return best, idx, ok
}

// Classifier infers a result from a feature vector.
type Classifier interface {
	Infer(v analysis.Vector) (Result, error)
}

// None is a classifier without a model.
type None struct{}

// Infer always fails with ErrNoModel.
func (None) Infer(v analysis.Vector) (Result, error) {
	return Result{}, fmt.Errorf("%s: %w", v.Model, ErrNoModel)
}

// Open loads the model file at path, or returns None when path is empty.
func Open(path string) (Classifier, error) {
	if path == "" {
		return None{}, nil
	}
	return LoadLinear(path)
}
