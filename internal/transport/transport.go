// SPDX-License-Identifier: MIT

// Package transport publishes pipeline results to live monitors.
package transport

import (
	"time"

	"beewatch/internal/analysis"
)

// Transport defines a generic interface for sending processed data or events.
// Implementations should be thread-safe.
type Transport interface {
	Send(data any) error
	Close() error
}

// Frame is a copy of one pipeline pass for monitors. It shares no memory
// with the pipeline.
type Frame struct {
	Type       string             `json:"type"` // "pass"
	Timestamp  time.Time          `json:"timestamp"`
	NodeID     string             `json:"node_id"`
	Model      string             `json:"model,omitempty"`
	Mock       bool               `json:"mock"`
	Bins       []float32          `json:"bins"`
	Bands      map[string]float32 `json:"bands"`
	Density    float32            `json:"density"`
	DCOffset   float32            `json:"dc_offset"`
	Windows    int                `json:"windows"`
	Features   []float32          `json:"features,omitempty"`
	Status     string             `json:"status,omitempty"`
	Confidence float32            `json:"confidence,omitempty"`
	Anomaly    *float32           `json:"anomaly,omitempty"`
}

// NewFrame copies r into a frame stamped with ts.
func NewFrame(r *analysis.Result, ts time.Time) Frame {
	bins := make([]float32, len(r.Bins))
	for i, b := range r.Bins {
		bins[i] = float32(b)
	}
	return Frame{
		Type:      "pass",
		Timestamp: ts,
		Bins:      bins,
		Bands:     analysis.BandEnergies(&r.Bins),
		Density:   r.Density,
		DCOffset:  r.DCOffset,
		Windows:   r.Windows,
	}
}

// Multi sends to every transport and returns the first error.
type Multi []Transport

// Send implements Transport.
func (m Multi) Send(data any) error {
	var first error
	for _, t := range m {
		if err := t.Send(data); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Close implements Transport.
func (m Multi) Close() error {
	var first error
	for _, t := range m {
		if err := t.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

var _ Transport = Multi(nil)
