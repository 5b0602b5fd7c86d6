// SPDX-License-Identifier: MIT

// Package node is the hive node controller. It owns the DSP pipeline, the
// command queue and every runtime setting, and drives them from a single
// control loop.
package node

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"beewatch/internal/analysis"
	"beewatch/internal/audio"
	"beewatch/internal/classifier"
	"beewatch/internal/climate"
	"beewatch/internal/command"
	"beewatch/internal/config"
	"beewatch/internal/console"
	applog "beewatch/internal/log"
	"beewatch/internal/metrics"
	"beewatch/internal/netsync"
	"beewatch/internal/report"
	"beewatch/internal/store"
	"beewatch/internal/transport"
)

// Options wires a Node to its collaborators. Config, Out and Storage are
// required; everything else has a usable default.
type Options struct {
	Config     *config.Config
	Out        io.Writer        // Console output
	Input      console.Input    // Local command lines, nil for none
	Live       audio.Source     // Capture source outside mock mode
	MockAudio  audio.Source     // Capture source in mock mode, defaults to silence
	Sensor     climate.Sensor   // Defaults to climate.Unavailable
	Classifier classifier.Classifier
	Storage    store.Storage
	Client     *netsync.Client   // Nil disables sync and reporting
	Mirrors    []report.Reporter // Extra sinks for remote reports
	Monitor    transport.Transport
	Recorder   *audio.Recorder // Nil skips writing stream captures to disk
	Metrics    *metrics.Metrics
	StreamRaw  bool // Write stream payloads to Out after the HDR line
	Version    string
	Now        func() time.Time
}

// Node is the single owner of the pipeline state. It is not safe for
// concurrent use; every method runs on the control loop.
type Node struct {
	cfg *config.Config
	out io.Writer
	in  console.Input

	queue      command.Queue
	cond       *analysis.Conditioner
	aggregator *analysis.Aggregator
	features   *analysis.Builder
	gate       *audio.Gate

	mock     bool
	mockTemp float32
	mockHum  float32
	mockHour float32

	live      audio.Source
	mockAudio audio.Source
	sensor    climate.Sensor
	models    classifier.Classifier

	storage store.Storage
	sys     store.SystemConfig

	client   *netsync.Client
	syncer   *netsync.Syncer
	reporter report.Reporter

	monitor   transport.Transport
	recorder  *audio.Recorder
	metrics   *metrics.Metrics
	streamRaw bool
	version   string
	now       func() time.Time
}

// New builds a node, loading the persisted SystemConfig from storage.
func New(opts Options) (*Node, error) {
	if opts.Config == nil {
		return nil, errors.New("node: config is required")
	}
	if opts.Out == nil {
		return nil, errors.New("node: output is required")
	}
	if opts.Storage == nil {
		return nil, errors.New("node: storage is required")
	}
	cfg := opts.Config

	cond, err := analysis.NewConditioner(cfg.DSP.Gain)
	if err != nil {
		return nil, fmt.Errorf("failed to create conditioner: %w", err)
	}
	agg, err := analysis.NewAggregator(cond)
	if err != nil {
		return nil, err
	}

	n := &Node{
		cfg:        cfg,
		out:        opts.Out,
		in:         opts.Input,
		cond:       cond,
		aggregator: agg,
		features:   analysis.NewBuilder(),
		gate:       audio.NewGate(audio.DefaultGateThreshold),
		mock:       cfg.Mock.Enabled,
		mockTemp:   float32(cfg.Mock.Temperature),
		mockHum:    float32(cfg.Mock.Humidity),
		mockHour:   float32(cfg.Mock.Hour),
		live:       opts.Live,
		mockAudio:  opts.MockAudio,
		sensor:     opts.Sensor,
		models:     opts.Classifier,
		storage:    opts.Storage,
		client:     opts.Client,
		monitor:    opts.Monitor,
		recorder:   opts.Recorder,
		metrics:    opts.Metrics,
		streamRaw:  opts.StreamRaw,
		version:    opts.Version,
		now:        opts.Now,
	}
	if n.mockAudio == nil {
		n.mockAudio = audio.Silence{}
	}
	if n.live == nil {
		n.live = n.mockAudio
	}
	if n.sensor == nil {
		n.sensor = climate.Unavailable{}
	}
	if n.models == nil {
		n.models = classifier.None{}
	}
	if n.monitor == nil {
		n.monitor = transport.NewLoggingTransport()
	}
	if n.metrics == nil {
		n.metrics = metrics.New()
	}
	if n.now == nil {
		n.now = time.Now
	}
	if n.version == "" {
		n.version = "dev"
	}

	n.sys = n.storage.Load()
	reporters := report.Multi(opts.Mirrors)
	if n.client != nil {
		n.client.SetAddr(n.sys.ServerAddr())
		if cfg.Network.Enabled {
			n.syncer = netsync.NewSyncer(n.client, cfg.Network.SyncInterval)
		}
		reporters = append(report.Multi{netsync.NewReporter(n.client)}, reporters...)
	}
	if len(reporters) > 0 {
		n.reporter = reporters
	}

	n.metrics.Settings(n.cond.Gain(), n.mock)
	applog.Infof("[NODE] %s ready, server %s, mock=%s, gain=%.3f",
		n.sys.NodeID, n.sys.ServerAddr(), onOff(n.mock), n.cond.Gain())
	return n, nil
}

// Enqueue appends c to the command queue.
func (n *Node) Enqueue(c command.Command) { n.queue.Push(c) }

// Pending returns the number of queued commands.
func (n *Node) Pending() int { return n.queue.Len() }

// SystemConfig returns the persisted identity and server settings in use.
func (n *Node) SystemConfig() store.SystemConfig { return n.sys }

// Mock reports whether mock mode is on.
func (n *Node) Mock() bool { return n.mock }

// Gain returns the current gain compensation.
func (n *Node) Gain() float32 { return n.cond.Gain() }

// Features returns the feature builder and its histories.
func (n *Node) Features() *analysis.Builder { return n.features }

// printf writes a console line. Console write failures are not actionable.
func (n *Node) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(n.out, format, args...)
}

// climateInputs resolves temperature, humidity and hour for a feature vector.
// Mock mode uses the mock values and never touches the sensor.
func (n *Node) climateInputs(ctx context.Context) analysis.Inputs {
	if n.mock {
		return analysis.Inputs{Temperature: n.mockTemp, Humidity: n.mockHum, Hour: n.mockHour}
	}
	r, _ := climate.ReadOrFallback(ctx, n.sensor)
	n.metrics.Climate(r.Temperature, r.Humidity)
	return analysis.Inputs{Temperature: r.Temperature, Humidity: r.Humidity, Hour: n.hour()}
}

func (n *Node) hour() float32 {
	if n.cfg.Features.HourSource == config.HourClock {
		t := n.now()
		return float32(t.Hour()) + float32(t.Minute())/60
	}
	return float32(n.cfg.Features.FixedHour)
}

// source returns the capture source for the current mode.
func (n *Node) source() audio.Source {
	if n.mock {
		return n.mockAudio
	}
	return n.live
}

// capture records samples from the current source and logs their statistics.
func (n *Node) capture(ctx context.Context, samples int) ([]uint16, error) {
	src := n.source()
	applog.Infof("[REC] Capturing %d samples (%.1f seconds) from %s...",
		samples, float64(samples)/float64(n.cfg.Audio.SampleRate), src.Name())

	buf, err := src.Capture(ctx, samples)
	if err != nil {
		return nil, fmt.Errorf("capture from %s: %w", src.Name(), err)
	}
	st := audio.ComputeStats(buf)
	applog.Infof("[REC] Complete. Min=%d, Max=%d, Mean=%.1f", st.Min, st.Max, st.Mean)
	if !n.mock && !n.gate.Open(buf) {
		applog.Warnf("[REC] Capture is flat (peak at or below %.1f%% of half scale), check the microphone",
			n.gate.Threshold()*100)
	}
	return buf, nil
}

// pass captures one buffer and runs it through the DSP chain.
func (n *Node) pass(ctx context.Context) (analysis.Result, error) {
	buf, err := n.capture(ctx, n.cfg.BufferLength())
	if err != nil {
		return analysis.Result{}, err
	}
	applog.Infof("[DSP] Processing audio...")
	r, err := n.aggregator.Process(buf)
	if err != nil {
		return analysis.Result{}, err
	}
	n.metrics.Pass(&r)
	return r, nil
}

// publish sends a copy of a pass to the monitors.
func (n *Node) publish(f transport.Frame) {
	f.NodeID = n.sys.NodeID
	f.Mock = n.mock
	if err := n.monitor.Send(f); err != nil {
		applog.Debugf("[MON] Dropped frame: %v", err)
	}
}

// Close releases the monitor.
func (n *Node) Close() error {
	return n.monitor.Close()
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
