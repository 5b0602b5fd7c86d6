// SPDX-License-Identifier: MIT

// Package metrics exposes node counters and gauges in Prometheus format.
package metrics

import (
	"net/http"
	"strconv"

	"beewatch/internal/analysis"
	"beewatch/internal/command"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "beewatch"

// Metrics holds the node's collectors in a private registry.
type Metrics struct {
	registry *prometheus.Registry

	commands    *prometheus.CounterVec
	requests    *prometheus.CounterVec
	passes      prometheus.Counter
	inferences  *prometheus.CounterVec
	density     prometheus.Gauge
	bins        *prometheus.GaugeVec
	temperature prometheus.Gauge
	humidity    prometheus.Gauge
	anomaly     prometheus.Gauge
	gain        prometheus.Gauge
	mock        prometheus.Gauge
}

// New registers every collector.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "commands_total", Help: "Commands executed.",
		}, []string{"kind", "origin"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "requests_total", Help: "Server requests by outcome.",
		}, []string{"kind", "result"}),
		passes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "pipeline_passes_total", Help: "Completed DSP passes.",
		}),
		inferences: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "inferences_total", Help: "Inferences by model and classification.",
		}, []string{"model", "classification"}),
		density: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "audio_density", Help: "RMS density of the last capture.",
		}),
		bins: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Name: "bin_magnitude", Help: "Mean magnitude per analysis bin.",
		}, []string{"bin"}),
		temperature: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "temperature_celsius", Help: "Last climate temperature.",
		}),
		humidity: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "humidity_percent", Help: "Last climate humidity.",
		}),
		anomaly: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "winter_anomaly_score", Help: "Last winter anomaly score.",
		}),
		gain: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "gain_compensation", Help: "Current gain compensation.",
		}),
		mock: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "mock_mode", Help: "1 when mock mode is on.",
		}),
	}
	m.registry.MustRegister(m.commands, m.requests, m.passes, m.inferences, m.density,
		m.bins, m.temperature, m.humidity, m.anomaly, m.gain, m.mock)
	return m
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Command counts an executed command.
func (m *Metrics) Command(c command.Command) {
	m.commands.WithLabelValues(c.Kind.String(), c.Origin.String()).Inc()
}

// Request counts a server request of kind ("poll", "telemetry", ...).
func (m *Metrics) Request(kind string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.requests.WithLabelValues(kind, result).Inc()
}

// Pass records a pipeline result.
func (m *Metrics) Pass(r *analysis.Result) {
	m.passes.Inc()
	m.density.Set(float64(r.Density))
	for i, v := range r.Bins {
		m.bins.WithLabelValues(strconv.Itoa(i)).Set(v)
	}
}

// Inference counts a classification.
func (m *Metrics) Inference(model, classification string) {
	m.inferences.WithLabelValues(model, classification).Inc()
}

// Anomaly records a winter anomaly score.
func (m *Metrics) Anomaly(score float32) { m.anomaly.Set(float64(score)) }

// Climate records a reading.
func (m *Metrics) Climate(temperature, humidity float32) {
	m.temperature.Set(float64(temperature))
	m.humidity.Set(float64(humidity))
}

// Settings records the runtime settings.
func (m *Metrics) Settings(gain float32, mock bool) {
	m.gain.Set(float64(gain))
	if mock {
		m.mock.Set(1)
	} else {
		m.mock.Set(0)
	}
}
