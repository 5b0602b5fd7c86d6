// SPDX-License-Identifier: MIT

// Package report defines the messages a node sends upstream and fans them
// out to every configured sink.
package report

import (
	"context"
	"errors"
	"time"
)

// Telemetry is a climate reading.
type Telemetry struct {
	NodeID       string  `json:"node_id"`
	TemperatureC float32 `json:"temperature_c"`
	HumidityPct  float32 `json:"humidity_pct"`
	BatteryMV    int     `json:"battery_mv"`
}

// Inference is a classifier outcome.
type Inference struct {
	NodeID         string    `json:"node_id"`
	ModelType      string    `json:"model_type"`
	Classification string    `json:"classification"`
	Confidence     float32   `json:"confidence"`
	AnomalyScore   *float32  `json:"anomaly_score,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

// Log is a free text message.
type Log struct {
	NodeID  string `json:"node_id"`
	Message string `json:"message"`
}

// Reporter delivers reports. Delivery is best effort and at most once.
type Reporter interface {
	Telemetry(ctx context.Context, t Telemetry) error
	Inference(ctx context.Context, i Inference) error
	Log(ctx context.Context, l Log) error
}

// Multi sends every report to all of its reporters.
type Multi []Reporter

// Telemetry implements Reporter.
func (m Multi) Telemetry(ctx context.Context, t Telemetry) error {
	var errs []error
	for _, r := range m {
		errs = append(errs, r.Telemetry(ctx, t))
	}
	return errors.Join(errs...)
}

// Inference implements Reporter.
func (m Multi) Inference(ctx context.Context, i Inference) error {
	var errs []error
	for _, r := range m {
		errs = append(errs, r.Inference(ctx, i))
	}
	return errors.Join(errs...)
}

// Log implements Reporter.
func (m Multi) Log(ctx context.Context, l Log) error {
	var errs []error
	for _, r := range m {
		errs = append(errs, r.Log(ctx, l))
	}
	return errors.Join(errs...)
}

// Discard drops every report.
type Discard struct{}

func (Discard) Telemetry(context.Context, Telemetry) error { return nil }
func (Discard) Inference(context.Context, Inference) error { return nil }
func (Discard) Log(context.Context, Log) error { return nil }
