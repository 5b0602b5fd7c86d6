// SPDX-License-Identifier: MIT
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"beewatch/internal/analysis"
	"beewatch/internal/audio"
	"beewatch/internal/audio/device"
	"beewatch/internal/classifier"
	"beewatch/internal/climate"
	"beewatch/internal/config"
	"beewatch/internal/console"
	applog "beewatch/internal/log"
	"beewatch/internal/metrics"
	"beewatch/internal/netsync"
	"beewatch/internal/node"
	"beewatch/internal/report"
	"beewatch/internal/store"
	"beewatch/internal/transport"
	"beewatch/internal/transport/udp"
	"beewatch/pkg/build"
)

// closers releases resources in reverse order of acquisition.
type closers []func() error

func (c *closers) add(f func() error) { *c = append(*c, f) }

func (c closers) close() {
	for i := len(c) - 1; i >= 0; i-- {
		if err := c[i](); err != nil {
			applog.Warnf("[NODE] Shutdown: %v", err)
		}
	}
}

// runNode wires the node from cfg and runs its control loop until ctx is
// cancelled.
func runNode(ctx context.Context, cfg *config.Config) error {
	var cleanup closers
	defer cleanup.close()

	con, err := console.Open(cfg.Console)
	if err != nil {
		return err
	}
	cleanup.add(con.Close)

	live, err := openLiveSource(cfg, &cleanup)
	if err != nil {
		return err
	}
	mockAudio, err := openMockSource(cfg)
	if err != nil {
		return err
	}

	sensor, bus, err := climate.Open(cfg.Climate)
	if err != nil {
		return err
	}
	cleanup.add(bus.Close)

	models, err := openClassifiers(cfg.Classifier)
	if err != nil {
		return err
	}

	m := metrics.New()
	monitor, err := openMonitor(cfg, m)
	if err != nil {
		return err
	}

	var mirrors []report.Reporter
	if cfg.Influx.URL != "" {
		influx := report.NewInflux(cfg.Influx)
		cleanup.add(func() error { influx.Close(); return nil })
		mirrors = append(mirrors, influx)
	}

	var client *netsync.Client
	if cfg.Network.Enabled {
		client = netsync.NewClient("", cfg.Network)
	}

	var recorder *audio.Recorder
	if cfg.Audio.RecordingsDir != "" {
		recorder = audio.NewRecorder(cfg.Audio.RecordingsDir, cfg.Audio.SampleRate)
	}

	n, err := node.New(node.Options{
		Config:     cfg,
		Out:        con.Out,
		Input:      con.Input,
		Live:       live,
		MockAudio:  mockAudio,
		Sensor:     sensor,
		Classifier: models,
		Storage:    store.NewFlashFile(cfg.Storage.Path),
		Client:     client,
		Mirrors:    mirrors,
		Monitor:    monitor,
		Recorder:   recorder,
		Metrics:    m,
		StreamRaw:  cfg.Console.SerialPort != "",
		Version:    build.Version(),
	})
	if err != nil {
		monitor.Close()
		return err
	}
	cleanup.add(n.Close)

	if err := n.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// openLiveSource opens the capture source used outside mock mode.
func openLiveSource(cfg *config.Config, cleanup *closers) (audio.Source, error) {
	a := cfg.Audio
	switch a.Source {
	case config.SourceMicrophone:
		if err := device.Initialize(); err != nil {
			return nil, err
		}
		cleanup.add(device.Terminate)
		mic, err := device.OpenMicrophone(a.InputDevice, a.SampleRate)
		if err != nil {
			return nil, err
		}
		cleanup.add(mic.Close)
		return mic, nil
	case config.SourceWav:
		return audio.NewWavSource(a.WavPath, a.SampleRate)
	case config.SourceTone:
		return audio.NewTone(a.SampleRate, a.ToneHz), nil
	case config.SourceSilence:
		return audio.Silence{}, nil
	default:
		return nil, fmt.Errorf("unknown audio source %q", a.Source)
	}
}

// openMockSource opens the deterministic source used in mock mode.
func openMockSource(cfg *config.Config) (audio.Source, error) {
	switch cfg.Mock.Audio {
	case config.SourceSilence, "":
		return audio.Silence{}, nil
	case config.SourceTone:
		return audio.NewTone(cfg.Audio.SampleRate, cfg.Audio.ToneHz), nil
	case config.SourceWav:
		return audio.NewWavSource(cfg.Mock.WavPath, cfg.Audio.SampleRate)
	default:
		return nil, fmt.Errorf("unknown mock audio %q", cfg.Mock.Audio)
	}
}

func openClassifiers(cfg config.ClassifierConfig) (classifier.Classifier, error) {
	summer, err := classifier.Open(cfg.SummerModel)
	if err != nil {
		return nil, fmt.Errorf("failed to load summer model: %w", err)
	}
	winter, err := classifier.Open(cfg.WinterModel)
	if err != nil {
		return nil, fmt.Errorf("failed to load winter model: %w", err)
	}
	return classifier.Set{Summer: summer, Winter: winter}, nil
}

// openMonitor builds the monitor fan-out: the websocket feed with metrics,
// UDP spectrum packets and the debug log.
func openMonitor(cfg *config.Config, m *metrics.Metrics) (transport.Transport, error) {
	monitors := transport.Multi{transport.NewLoggingTransport()}

	if cfg.Monitor.WebSocketAddr != "" {
		handlers := map[string]http.Handler{}
		if cfg.Monitor.Metrics {
			handlers["/metrics"] = m.Handler()
		}
		monitors = append(monitors, transport.NewWebSocketTransport(cfg.Monitor.WebSocketAddr, handlers))
	}

	if cfg.Transport.UDPEnabled {
		sender, err := udp.NewUDPSender(cfg.Transport.UDPTargetAddress)
		if err != nil {
			monitors.Close()
			return nil, err
		}
		publisher, err := udp.NewUDPPublisher(sender)
		if err != nil {
			sender.Close()
			monitors.Close()
			return nil, err
		}
		monitors = append(monitors, publisher)
	}
	return monitors, nil
}

// replay runs one pass over a WAV file in mock mode and prints the feature
// vector the models would see.
func replay(ctx context.Context, w io.Writer, cfg *config.Config, path string, model analysis.Model) error {
	src, err := audio.NewWavSource(path, cfg.Audio.SampleRate)
	if err != nil {
		return err
	}
	cond, err := analysis.NewConditioner(cfg.DSP.Gain)
	if err != nil {
		return err
	}
	agg, err := analysis.NewAggregator(cond)
	if err != nil {
		return err
	}

	buf, err := src.Capture(ctx, cfg.BufferLength())
	if err != nil {
		return err
	}
	r, err := agg.Process(buf)
	if err != nil {
		return err
	}

	in := analysis.Inputs{
		Temperature: float32(cfg.Mock.Temperature),
		Humidity:    float32(cfg.Mock.Humidity),
		Hour:        float32(cfg.Mock.Hour),
	}
	b := analysis.NewBuilder()
	var v analysis.Vector
	if model == analysis.ModelWinter {
		v = b.Winter(r, in)
	} else {
		v = b.Summer(r, in)
	}

	fmt.Fprintf(w, "%s: %d samples, %d windows, density=%.6f, dc=%.1f, gain=%.3f\n",
		src.Name(), r.Samples, r.Windows, r.Density, r.DCOffset, cond.Gain())
	fmt.Fprintf(w, "--- %s features (%d) ---\n", v.Model, len(v.Values))
	for i, x := range v.Values {
		name := fmt.Sprintf("f%d", i)
		if model == analysis.ModelSummer {
			name = analysis.SummerFeatureName(i)
		}
		fmt.Fprintf(w, "f[%d] %-10s %.6f\n", i, name, x)
	}

	models, err := openClassifiers(cfg.Classifier)
	if err != nil {
		return err
	}
	res, err := models.Infer(v)
	if errors.Is(err, classifier.ErrNoModel) {
		return nil
	}
	if err != nil {
		return err
	}
	if res.HasAnomaly {
		fmt.Fprintf(w, "anomaly score: %.3f\n", res.Anomaly)
		return nil
	}
	best, _, _ := res.Best()
	fmt.Fprintf(w, "classification: %s (%.3f)\n", best.Name, best.Score)
	return nil
}
