// SPDX-License-Identifier: MIT
package classifier

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"beewatch/internal/analysis"
)

func summerVector(spike float32) analysis.Vector {
	v := make([]float32, analysis.SummerFeatures)
	v[0], v[1], v[2], v[3] = 25, 50, 14, spike
	return analysis.Vector{Model: analysis.ModelSummer, Values: v}
}

func TestNone(t *testing.T) {
	_, err := None{}.Infer(summerVector(1))
	if !errors.Is(err, ErrNoModel) {
		t.Errorf("None.Infer() error = %v, want ErrNoModel", err)
	}

	c, err := Open("")
	if err != nil {
		t.Fatalf("Open(\"\") error = %v", err)
	}
	if _, ok := c.(None); !ok {
		t.Errorf("Open(\"\") = %T, want None", c)
	}
}

func TestSummerModel(t *testing.T) {
	m, err := LoadLinear(filepath.Join("testdata", "summer.yaml"))
	if err != nil {
		t.Fatalf("LoadLinear() error = %v", err)
	}

	tests := []struct {
		spike    float32
		wantName string
		wantIdx  int
	}{
		{1.0, "Normal", 0},
		{3.0, "Event", 1},
	}
	for _, tt := range tests {
		res, err := m.Infer(summerVector(tt.spike))
		if err != nil {
			t.Fatalf("Infer() error = %v", err)
		}
		if res.HasAnomaly {
			t.Error("summer result should not carry an anomaly score")
		}
		var sum float32
		for _, l := range res.Labels {
			sum += l.Score
		}
		if math.Abs(float64(sum-1)) > 1e-5 {
			t.Errorf("probabilities sum to %v, want 1", sum)
		}
		best, idx, ok := res.Best()
		if !ok || best.Name != tt.wantName || idx != tt.wantIdx {
			t.Errorf("spike %.1f: Best() = %v, %d, %v, want %s, %d", tt.spike, best, idx, ok, tt.wantName, tt.wantIdx)
		}
	}
}

func TestWinterModel(t *testing.T) {
	m, err := LoadLinear(filepath.Join("testdata", "winter.yaml"))
	if err != nil {
		t.Fatalf("LoadLinear() error = %v", err)
	}

	normal := analysis.Vector{Model: analysis.ModelWinter, Values: []float32{34, 60, 0, 0, 0}}
	res, err := m.Infer(normal)
	if err != nil {
		t.Fatalf("Infer() error = %v", err)
	}
	if !res.HasAnomaly || res.Anomaly > 0.05 {
		t.Errorf("normal cluster anomaly = %v (has=%v), want near 0", res.Anomaly, res.HasAnomaly)
	}

	cold := analysis.Vector{Model: analysis.ModelWinter, Values: []float32{5, 90, 8, 0.5, 50}}
	res, err = m.Infer(cold)
	if err != nil {
		t.Fatalf("Infer() error = %v", err)
	}
	if res.Anomaly < 0.6 || res.Anomaly >= 1 {
		t.Errorf("cold cluster anomaly = %v, want in [0.6, 1)", res.Anomaly)
	}

	if _, err := m.Infer(summerVector(1)); !errors.Is(err, ErrNoModel) {
		t.Errorf("summer vector on winter model: err = %v, want ErrNoModel", err)
	}
}

func TestLoadLinearErrors(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		body string
	}{
		{"unknown model", "model: spring\n"},
		{"missing labels", "model: summer\n"},
		{"short weights", "model: summer\nlabels: [a]\nweights: [[1, 2]]\nbias: [0]\n"},
		{"bad centroid", "model: winter\ncentroid: [1]\nradius: 1\n"},
		{"zero radius", "model: winter\ncentroid: [0, 0, 0, 0, 0]\n"},
		{"not yaml", "model: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, "m.yaml")
			if err := os.WriteFile(path, []byte(tt.body), 0o644); err != nil {
				t.Fatal(err)
			}
			if _, err := LoadLinear(path); err == nil {
				t.Error("LoadLinear() expected an error")
			}
		})
	}

	if _, err := LoadLinear(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("LoadLinear(missing) expected an error")
	}
}

func TestSetRouting(t *testing.T) {
	summer, err := LoadLinear(filepath.Join("testdata", "summer.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	s := Set{Summer: summer}
	if _, err := s.Infer(summerVector(1)); err != nil {
		t.Errorf("summer via Set: %v", err)
	}
	winter := analysis.Vector{Model: analysis.ModelWinter, Values: make([]float32, analysis.WinterFeatures)}
	if _, err := s.Infer(winter); !errors.Is(err, ErrNoModel) {
		t.Errorf("winter via Set without model: err = %v, want ErrNoModel", err)
	}
}

func TestBestEmpty(t *testing.T) {
	best, _, ok := Result{}.Best()
	if ok || best.Name != "Unknown" {
		t.Errorf("Best() on empty result = %v, %v", best, ok)
	}
}
