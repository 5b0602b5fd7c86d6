// SPDX-License-Identifier: MIT
package report

import (
	"context"
	"fmt"
	"time"

	"beewatch/internal/config"
	applog "beewatch/internal/log"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Influx mirrors telemetry and inference reports into an InfluxDB bucket.
// Log messages are not mirrored.
type Influx struct {
	client influxdb2.Client
	writer api.WriteAPIBlocking
	now    func() time.Time
}

// NewInflux connects to the server in cfg.
func NewInflux(cfg config.InfluxConfig) *Influx {
	client := influxdb2.NewClient(cfg.URL, cfg.Token)
	applog.Infof("[NET] Mirroring reports to InfluxDB %s (org=%s, bucket=%s)", cfg.URL, cfg.Org, cfg.Bucket)
	return newInflux(client, client.WriteAPIBlocking(cfg.Org, cfg.Bucket))
}

func newInflux(client influxdb2.Client, writer api.WriteAPIBlocking) *Influx {
	return &Influx{client: client, writer: writer, now: time.Now}
}

// TelemetryPoint converts t to a line protocol point.
func TelemetryPoint(t Telemetry, ts time.Time) *write.Point {
	return influxdb2.NewPoint("telemetry",
		map[string]string{"node_id": t.NodeID},
		map[string]any{
			"temperature_c": t.TemperatureC,
			"humidity_pct":  t.HumidityPct,
			"battery_mv":    t.BatteryMV,
		},
		ts)
}

// InferencePoint converts i to a line protocol point.
func InferencePoint(i Inference) *write.Point {
	fields := map[string]any{
		"classification": i.Classification,
		"confidence":     i.Confidence,
	}
	if i.AnomalyScore != nil {
		fields["anomaly_score"] = *i.AnomalyScore
	}
	return influxdb2.NewPoint("inference",
		map[string]string{"node_id": i.NodeID, "model_type": i.ModelType},
		fields,
		i.Timestamp)
}

// Telemetry implements Reporter.
func (m *Influx) Telemetry(ctx context.Context, t Telemetry) error {
	if err := m.writer.WritePoint(ctx, TelemetryPoint(t, m.now())); err != nil {
		return fmt.Errorf("influx telemetry: %w", err)
	}
	return nil
}

// Inference implements Reporter.
func (m *Influx) Inference(ctx context.Context, i Inference) error {
	if err := m.writer.WritePoint(ctx, InferencePoint(i)); err != nil {
		return fmt.Errorf("influx inference: %w", err)
	}
	return nil
}

// Log implements Reporter.
func (m *Influx) Log(context.Context, Log) error { return nil }

// Close releases the client.
func (m *Influx) Close() {
	if m.client != nil {
		m.client.Close()
	}
}
