// SPDX-License-Identifier: MIT
package node

import (
	"context"
	"encoding/binary"
	"fmt"

	"beewatch/internal/analysis"
	"beewatch/internal/audio"
	"beewatch/internal/climate"
	"beewatch/internal/command"
	applog "beewatch/internal/log"
	"beewatch/internal/report"
	"beewatch/internal/store"
	"beewatch/internal/transport"
	"beewatch/internal/tui"
)

// Winter inference classifications.
const (
	ClassAnomaly = "anomaly"
	ClassNormal  = "normal"
)

// Execute runs one command to completion. Failures are printed and logged
// and never reach the caller, so the next command always runs.
func (n *Node) Execute(ctx context.Context, c command.Command) {
	n.metrics.Command(c)
	applog.Debugf("[CMD] %s", c)

	var summary string
	switch c.Kind {
	case command.ReadClimate:
		n.readClimate(ctx, c)
		return
	case command.RunInference:
		n.runInference(ctx, c)
		return
	case command.CaptureAudioStream:
		summary = n.streamAudio(ctx, c.Params)
	case command.ToggleMock:
		summary = n.toggleMock()
	case command.SetMockValues:
		summary = n.setMockValues(c.Params)
	case command.ClearHistory:
		summary = n.clearHistory()
	case command.SetGain:
		summary = n.setGain(c.Params)
	case command.DebugDump:
		summary = n.debugDump(ctx)
	case command.Ping:
		summary = n.ping()
	case command.SetWifi:
		n.setWifi(c.Params)
		return
	case command.SetServer:
		n.setServer(c.Params)
		return
	default:
		applog.Warnf("[CMD] Ignoring %s", c)
		return
	}

	if c.Origin == command.Remote && summary != "" {
		n.reportLog(ctx, summary)
	}
}

func (n *Node) remote(c command.Command) bool {
	return c.Origin == command.Remote && n.reporter != nil
}

func (n *Node) reportLog(ctx context.Context, msg string) {
	if n.reporter == nil {
		return
	}
	err := n.reporter.Log(ctx, report.Log{NodeID: n.sys.NodeID, Message: msg})
	n.metrics.Request("log", err)
	if err != nil {
		applog.Warnf("[NET] Log report failed: %v", err)
	}
}

func (n *Node) readClimate(ctx context.Context, c command.Command) {
	var r climate.Reading
	if n.mock {
		r = climate.Reading{Temperature: n.mockTemp, Humidity: n.mockHum}
		n.printf("[SENSOR] MOCK MODE: Temp=%.2f C, Humidity=%.2f %%\n", r.Temperature, r.Humidity)
	} else {
		var ok bool
		r, ok = climate.ReadOrFallback(ctx, n.sensor)
		if !ok {
			n.printf("[WARN] Climate sensor not connected, using defaults\n")
		}
		n.printf("[SENSOR] Temp: %.2f C, Humidity: %.2f %%\n", r.Temperature, r.Humidity)
	}
	n.metrics.Climate(r.Temperature, r.Humidity)

	if !n.remote(c) {
		return
	}
	err := n.reporter.Telemetry(ctx, report.Telemetry{
		NodeID:       n.sys.NodeID,
		TemperatureC: r.Temperature,
		HumidityPct:  r.Humidity,
		BatteryMV:    n.cfg.Node.BatteryMV,
	})
	n.metrics.Request("telemetry", err)
	if err != nil {
		applog.Warnf("[NET] Telemetry report failed: %v", err)
	}
}

func (n *Node) runInference(ctx context.Context, c command.Command) {
	in := n.climateInputs(ctx)
	r, err := n.pass(ctx)
	if err != nil {
		applog.Errorf("[ERR] Pipeline pass failed: %v", err)
		n.printf("[ERR] Capture failed: %v\n", err)
		return
	}
	frame := transport.NewFrame(&r, n.now().UTC())

	var inf report.Inference
	var ok bool
	if c.Params == command.ModelWinter {
		inf, ok = n.inferWinter(r, in, &frame)
	} else {
		inf, ok = n.inferSummer(r, in, &frame)
	}
	n.publish(frame)
	if !ok || !n.remote(c) {
		return
	}

	inf.NodeID = n.sys.NodeID
	inf.Timestamp = n.now().UTC()
	err = n.reporter.Inference(ctx, inf)
	n.metrics.Request("inference", err)
	if err != nil {
		applog.Warnf("[NET] Inference report failed: %v", err)
	}
}

func (n *Node) inferSummer(r analysis.Result, in analysis.Inputs, frame *transport.Frame) (report.Inference, bool) {
	applog.Infof("[AI] Building feature vector...")
	v := n.features.Summer(r, in)
	frame.Model = v.Model.String()
	frame.Features = append([]float32(nil), v.Values...)

	res, err := n.models.Infer(v)
	if err != nil {
		applog.Errorf("[ERR] Classifier failed: %v", err)
		n.printf("[ERR] Classifier failed: %v\n", err)
		return report.Inference{}, false
	}

	best, idx, found := res.Best()
	status := tui.HiveStatus{
		Alert:      best.Name == "Event" || (found && idx == 1),
		Confidence: best.Score,
		Spike:      v.Values[3],
		Mock:       n.mock,
		MockTemp:   n.mockTemp,
		MockHum:    n.mockHum,
		Labels:     res.Labels,
	}
	n.printf("%s\n", tui.RenderHiveStatus(status))
	n.printf("JSON_OUT:{\"status\":%q,\"conf\":%.3f,\"spike\":%.3f,\"mock\":%t}\n",
		status.State(), best.Score, status.Spike, n.mock)

	frame.Status = status.State()
	frame.Confidence = best.Score
	n.metrics.Inference(v.Model.String(), best.Name)
	return report.Inference{
		ModelType:      v.Model.String(),
		Classification: best.Name,
		Confidence:     best.Score,
	}, true
}

func (n *Node) inferWinter(r analysis.Result, in analysis.Inputs, frame *transport.Frame) (report.Inference, bool) {
	applog.Infof("[AI] Running winter model...")
	v := n.features.Winter(r, in)
	frame.Model = v.Model.String()
	frame.Features = append([]float32(nil), v.Values...)

	res, err := n.models.Infer(v)
	if err == nil && !res.HasAnomaly {
		err = fmt.Errorf("%s model returned no anomaly score", v.Model)
	}
	if err != nil {
		applog.Errorf("[ERR] Classifier failed: %v", err)
		n.printf("[ERR] Classifier failed: %v\n", err)
		return report.Inference{}, false
	}

	score := res.Anomaly
	class := ClassNormal
	if float64(score) >= n.cfg.Classifier.AnomalyThreshold {
		class = ClassAnomaly
	}
	n.printf("INF:{\"model\":\"winter\",\"anomaly\":%.2f,\"mock\":%t}\n", score, n.mock)

	frame.Status = class
	frame.Anomaly = &score
	n.metrics.Inference(v.Model.String(), class)
	n.metrics.Anomaly(score)
	return report.Inference{
		ModelType:      v.Model.String(),
		Classification: class,
		Confidence:     score,
		AnomalyScore:   &score,
	}, true
}

func (n *Node) streamAudio(ctx context.Context, params string) string {
	secs := command.StreamSeconds(params)
	samples := secs * n.cfg.Audio.SampleRate
	n.printf("[STREAM] Capturing %d samples...\n", samples)

	buf, err := n.capture(ctx, samples)
	if err != nil {
		applog.Errorf("[ERR] Stream capture failed: %v", err)
		n.printf("[ERR] Capture failed: %v\n", err)
		return fmt.Sprintf("stream failed: %v", err)
	}
	st := audio.ComputeStats(buf)
	n.printf("[STREAM] Stats: Min=%d, Max=%d, StdDev=%.1f\n", st.Min, st.Max, st.StdDev)
	n.printf("HDR:%d:%d:%.1f\n", len(buf)*2, len(buf), st.StdDev)
	if n.streamRaw {
		if err := binary.Write(n.out, binary.LittleEndian, buf); err != nil {
			applog.Errorf("[ERR] Stream transfer failed: %v", err)
		}
		n.printf("\nEND\n")
	}
	if n.recorder != nil {
		path, err := n.recorder.Save(buf)
		if err != nil {
			applog.Errorf("[ERR] Failed to save recording: %v", err)
		} else {
			n.printf("[STREAM] Saved %s\n", path)
		}
	}
	n.printf("[STREAM] Transfer complete.\n")
	return fmt.Sprintf("stream %ds: min=%d max=%d stddev=%.1f", secs, st.Min, st.Max, st.StdDev)
}

func (n *Node) toggleMock() string {
	n.mock = !n.mock
	n.metrics.Settings(n.cond.Gain(), n.mock)
	if !n.mock {
		n.printf("[CONFIG] Mock mode DISABLED (using real sensors)\n")
		return "mock mode disabled"
	}
	n.printf("[CONFIG] Mock mode ENABLED\n")
	n.printf("  Temp: %.1f C, Humidity: %.1f %%, Hour: %.1f\n", n.mockTemp, n.mockHum, n.mockHour)
	return "mock mode enabled"
}

func (n *Node) setMockValues(params string) string {
	t, h, hr, err := command.MockValues(params)
	if err != nil {
		n.printf("%s\n", command.UsageMockValues)
		return ""
	}
	n.mockTemp, n.mockHum, n.mockHour = t, h, hr
	n.printf("[CONFIG] Mock values updated: temp=%.1f, hum=%.1f, hour=%.1f\n", t, h, hr)
	return fmt.Sprintf("mock values temp=%.1f hum=%.1f hour=%.1f", t, h, hr)
}

func (n *Node) clearHistory() string {
	n.features.Clear()
	n.printf("[CONFIG] History cleared. Ready for fresh parity test.\n")
	return "history cleared"
}

func (n *Node) setGain(params string) string {
	v, show, err := command.Gain(params)
	if show {
		n.printf("Current gain compensation: %.3f\n", n.cond.Gain())
		n.printf("%s\n", command.UsageGain)
		return fmt.Sprintf("gain %.3f", n.cond.Gain())
	}
	if err == nil {
		err = n.cond.SetGain(v)
	}
	if err != nil {
		n.printf("Gain must be greater than 0 and at most 2.0\n")
		return ""
	}
	n.metrics.Settings(n.cond.Gain(), n.mock)
	n.printf("[CONFIG] Gain compensation set to: %.3f\n", n.cond.Gain())
	return fmt.Sprintf("gain set to %.3f", n.cond.Gain())
}

func (n *Node) debugDump(ctx context.Context) string {
	in := n.climateInputs(ctx)
	r, err := n.pass(ctx)
	if err != nil {
		applog.Errorf("[ERR] Pipeline pass failed: %v", err)
		n.printf("[ERR] Capture failed: %v\n", err)
		return fmt.Sprintf("debug dump failed: %v", err)
	}
	v := n.features.Debug(r, in)

	mode := "REAL SENSOR"
	if n.mock {
		mode = "MOCK"
	}
	n.printf("[DEBUG] Full feature dump:\n")
	n.printf("--- FEATURE VECTOR (%d elements) ---\n", len(v.Values))
	n.printf("MODE: %s\n", mode)
	for i, x := range v.Values {
		name := analysis.SummerFeatureName(i) + ":"
		if i == 3 {
			n.printf("f[%d] %-11s %.4f (density=%.6f)\n", i, name, x, r.Density)
			continue
		}
		if i < 3 {
			n.printf("f[%d] %-11s %.4f\n", i, name, x)
			continue
		}
		n.printf("f[%d] %-11s %.6f\n", i, name, x)
	}
	n.printf("-----------------------------------\n")

	frame := transport.NewFrame(&r, n.now().UTC())
	frame.Model = v.Model.String()
	frame.Features = append([]float32(nil), v.Values...)
	n.publish(frame)
	return fmt.Sprintf("debug dump: density=%.6f", r.Density)
}

func (n *Node) ping() string {
	reply := fmt.Sprintf("PONG %s mock=%s gain=%.2f", n.version, onOff(n.mock), n.cond.Gain())
	n.printf("%s\n", reply)
	return reply
}

func (n *Node) setWifi(params string) {
	ssid, pass, err := command.Wifi(params)
	if err != nil {
		n.printf("%s\n", command.UsageWifi)
		return
	}
	next := n.sys
	next.WifiSSID, next.WifiPass = ssid, pass
	if !n.persist(next) {
		return
	}
	n.printf("[CONFIG] WiFi credentials saved (SSID: %s). Restart to connect.\n", n.sys.WifiSSID)
}

func (n *Node) setServer(params string) {
	ip, port, err := command.Server(params)
	if err != nil {
		n.printf("%s\n", command.UsageServer)
		return
	}
	next := n.sys
	next.ServerIP = ip
	if port != 0 {
		next.ServerPort = port
	}
	if !n.persist(next) {
		return
	}
	if n.client != nil {
		n.client.SetAddr(n.sys.ServerAddr())
	}
	n.printf("[CONFIG] Server set to %s\n", n.sys.ServerAddr())
}

// persist saves cfg and adopts it. On failure the running settings are kept.
func (n *Node) persist(cfg store.SystemConfig) bool {
	if err := n.storage.Save(cfg); err != nil {
		applog.Errorf("[ERR] Failed to save config: %v", err)
		n.printf("[ERR] Failed to save config: %v\n", err)
		return false
	}
	n.sys = cfg
	return true
}
