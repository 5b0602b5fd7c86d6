// SPDX-License-Identifier: MIT
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	applog "beewatch/internal/log"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the node configuration, loaded from YAML.
//
// Node identity, server address and WiFi credentials are not part of this
// file. They live in the persisted SystemConfig image (see internal/store) so
// that the console commands can change them at runtime.
type Config struct {
	Debug      bool             `yaml:"debug"`      // Enable debug logging.
	LogLevel   string           `yaml:"log_level"`  // Logging level (e.g., "debug", "info", "warn", "error").
	LogFile    string           `yaml:"log_file"`   // Optional rotated log file.
	Audio      AudioConfig      `yaml:"audio"`      // Audio acquisition settings.
	DSP        DSPConfig        `yaml:"dsp"`        // Signal conditioning settings.
	Features   FeatureConfig    `yaml:"features"`   // Feature vector settings.
	Mock       MockConfig       `yaml:"mock"`       // Deterministic mock inputs.
	Climate    ClimateConfig    `yaml:"climate"`    // Temperature and humidity sensor.
	Network    NetworkConfig    `yaml:"network"`    // Server sync settings.
	Storage    StorageConfig    `yaml:"storage"`    // Persisted SystemConfig image.
	Classifier ClassifierConfig `yaml:"classifier"` // Model files.
	Console    ConsoleConfig    `yaml:"console"`    // Local command input.
	Monitor    MonitorConfig    `yaml:"monitor"`    // Live websocket feed and metrics.
	Transport  TransportConfig  `yaml:"transport"`  // UDP spectrum packets.
	Influx     InfluxConfig     `yaml:"influx"`     // Optional telemetry mirror.
	Node       NodeConfig       `yaml:"node"`       // Static node facts.
	Loop       LoopConfig       `yaml:"loop"`       // Control loop pacing.
}

// AudioConfig holds settings related to audio acquisition.
type AudioConfig struct {
	Source         string  `yaml:"source"`          // "microphone", "wav", "silence" or "tone".
	InputDevice    int     `yaml:"input_device"`    // PortAudio device index (-1 for default).
	SampleRate     int     `yaml:"sample_rate"`     // Sample rate in Hz.
	CaptureSeconds int     `yaml:"capture_seconds"` // Seconds per capture.
	WavPath        string  `yaml:"wav_path"`        // Input file when source is "wav".
	ToneHz         float64 `yaml:"tone_hz"`         // Frequency when source is "tone".
	RecordingsDir  string  `yaml:"recordings_dir"`  // Where the stream command writes WAV files.
}

// DSPConfig holds the signal conditioner settings.
type DSPConfig struct {
	Gain float64 `yaml:"gain"` // Gain compensation, valid range (0, 2.0].
}

// FeatureConfig selects where the hour-of-day feature comes from.
type FeatureConfig struct {
	HourSource string  `yaml:"hour_source"` // "fixed" or "clock".
	FixedHour  float64 `yaml:"fixed_hour"`  // Used when hour_source is "fixed".
}

// MockConfig holds the deterministic inputs used in mock mode.
type MockConfig struct {
	Enabled     bool    `yaml:"enabled"`     // Start in mock mode.
	Temperature float64 `yaml:"temperature"` // Mock temperature in C.
	Humidity    float64 `yaml:"humidity"`    // Mock relative humidity in %.
	Hour        float64 `yaml:"hour"`        // Mock hour of day.
	Audio       string  `yaml:"audio"`       // Mock audio: "silence", "tone" or "wav".
	WavPath     string  `yaml:"wav_path"`    // Fixture file when audio is "wav".
}

// ClimateConfig selects the temperature and humidity sensor.
type ClimateConfig struct {
	Sensor  string `yaml:"sensor"`  // "none" or "sht3x".
	I2CBus  string `yaml:"i2c_bus"` // e.g. "/dev/i2c-1".
	Address int    `yaml:"address"` // 7-bit I2C address.
}

// NetworkConfig holds the server sync settings.
type NetworkConfig struct {
	Enabled      bool          `yaml:"enabled"`       // Poll and report when true.
	SyncInterval time.Duration `yaml:"sync_interval"` // Interval between command polls.
	Timeout      time.Duration `yaml:"timeout"`       // Per request timeout.
	PollSlice    time.Duration `yaml:"poll_slice"`    // Read slice while waiting for a response.
}

// StorageConfig points at the SystemConfig image.
type StorageConfig struct {
	Path string `yaml:"path"`
}

// ClassifierConfig holds the model files.
type ClassifierConfig struct {
	SummerModel      string  `yaml:"summer_model"`
	WinterModel      string  `yaml:"winter_model"`
	AnomalyThreshold float64 `yaml:"anomaly_threshold"` // Winter score reported as "anomaly" at or above this.
}

// ConsoleConfig selects the local command input.
type ConsoleConfig struct {
	SerialPort string `yaml:"serial_port"` // Empty means stdin/stdout.
	BaudRate   int    `yaml:"baud_rate"`
}

// MonitorConfig configures the live monitor server.
type MonitorConfig struct {
	WebSocketAddr string `yaml:"websocket_addr"` // e.g. ":8080", empty disables the server.
	Metrics       bool   `yaml:"metrics"`        // Serve /metrics on the same server.
}

// TransportConfig holds settings related to sending spectrum packets.
type TransportConfig struct {
	UDPEnabled       bool   `yaml:"udp_enabled"`        // Enable sending spectrum data over UDP.
	UDPTargetAddress string `yaml:"udp_target_address"` // Target address and port (e.g., "127.0.0.1:9090").
}

// InfluxConfig configures the optional InfluxDB telemetry mirror.
type InfluxConfig struct {
	URL    string `yaml:"url"` // Empty disables the mirror.
	Token  string `yaml:"token"`
	Org    string `yaml:"org"`
	Bucket string `yaml:"bucket"`
}

// NodeConfig holds static facts reported with telemetry.
type NodeConfig struct {
	BatteryMV int `yaml:"battery_mv"`
}

// LoopConfig paces the control loop.
type LoopConfig struct {
	Yield time.Duration `yaml:"yield"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		LogLevel: "info",
		Audio: AudioConfig{
			Source:         SourceMicrophone,
			InputDevice:    -1,
			SampleRate:     SampleRateHz,
			CaptureSeconds: CaptureSeconds,
			ToneHz:         250,
			RecordingsDir:  "./recordings",
		},
		DSP: DSPConfig{Gain: DefaultGain},
		Features: FeatureConfig{
			HourSource: HourFixed,
			FixedHour:  DefaultFixedHour,
		},
		Mock: MockConfig{
			Temperature: DefaultMockTemperature,
			Humidity:    DefaultMockHumidity,
			Hour:        DefaultMockHour,
			Audio:       SourceSilence,
		},
		Climate: ClimateConfig{
			Sensor:  SensorNone,
			I2CBus:  "/dev/i2c-1",
			Address: 0x44,
		},
		Network: NetworkConfig{
			Enabled:      true,
			SyncInterval: DefaultSyncInterval,
			Timeout:      DefaultHTTPTimeout,
			PollSlice:    DefaultPollSlice,
		},
		Storage:    StorageConfig{Path: "./beewatch.flash"},
		Classifier: ClassifierConfig{AnomalyThreshold: DefaultAnomalyThreshold},
		Console:    ConsoleConfig{BaudRate: 115200},
		Transport:  TransportConfig{UDPTargetAddress: "127.0.0.1:9090"},
		Node:       NodeConfig{BatteryMV: DefaultBatteryMV},
		Loop:       LoopConfig{Yield: DefaultLoopYield},
	}
}

// LoadConfig loads configuration from a YAML file specified by path. If path is
// empty, it searches "config.yaml" in the working directory and falls back to
// built-in defaults when none is found. A ".env" file, when present, is loaded
// into the environment first; ENV_* overrides are applied after the file and
// the result is validated.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		applog.Warnf("[CONF] ignoring unreadable .env file: %v", err)
	}

	if path == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			path = "config.yaml"
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate checks ranges and enumerations.
func (c *Config) Validate() error {
	if c.Audio.SampleRate <= 0 {
		return fmt.Errorf("audio.sample_rate must be positive, got %d", c.Audio.SampleRate)
	}
	if c.Audio.CaptureSeconds <= 0 {
		return fmt.Errorf("audio.capture_seconds must be positive, got %d", c.Audio.CaptureSeconds)
	}
	if c.BufferLength() < FFTSize {
		return fmt.Errorf("capture of %d samples is shorter than one %d sample window", c.BufferLength(), FFTSize)
	}
	switch c.Audio.Source {
	case SourceMicrophone, SourceSilence, SourceTone:
	case SourceWav:
		if c.Audio.WavPath == "" {
			return fmt.Errorf("audio.wav_path must be set when audio.source is %q", SourceWav)
		}
	default:
		return fmt.Errorf("unknown audio.source %q", c.Audio.Source)
	}
	switch c.Mock.Audio {
	case SourceSilence, SourceTone:
	case SourceWav:
		if c.Mock.WavPath == "" {
			return fmt.Errorf("mock.wav_path must be set when mock.audio is %q", SourceWav)
		}
	default:
		return fmt.Errorf("unknown mock.audio %q", c.Mock.Audio)
	}
	if c.DSP.Gain <= 0 || c.DSP.Gain > MaxGain {
		return fmt.Errorf("dsp.gain must be in (0, %.1f], got %g", MaxGain, c.DSP.Gain)
	}
	switch c.Climate.Sensor {
	case SensorNone:
	case SensorSHT3x:
		if c.Climate.I2CBus == "" || c.Climate.Address <= 0 || c.Climate.Address > 0x7f {
			return fmt.Errorf("climate.i2c_bus and a 7-bit climate.address are required for %q", SensorSHT3x)
		}
	default:
		return fmt.Errorf("unknown climate.sensor %q", c.Climate.Sensor)
	}
	switch c.Features.HourSource {
	case HourFixed, HourClock:
	default:
		return fmt.Errorf("unknown features.hour_source %q", c.Features.HourSource)
	}
	if c.Network.SyncInterval <= 0 || c.Network.Timeout <= 0 || c.Network.PollSlice <= 0 {
		return fmt.Errorf("network intervals must be positive")
	}
	if c.Transport.UDPEnabled && c.Transport.UDPTargetAddress == "" {
		return fmt.Errorf("transport.udp_target_address must be set when UDP is enabled")
	}
	if c.Loop.Yield < 0 {
		return fmt.Errorf("loop.yield must not be negative")
	}
	return nil
}

// applyEnvOverrides applies ENV_* variables on top of the file values.
func (cfg *Config) applyEnvOverrides() {
	// ENV_DEBUG
	if val, ok := os.LookupEnv("ENV_DEBUG"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			cfg.Debug = bVal
			applog.Infof("[CONF] Overriding debug from env: %v", bVal)
		}
	}
	// ENV_LOG_LEVEL
	if val, ok := os.LookupEnv("ENV_LOG_LEVEL"); ok {
		cfg.LogLevel = val
		applog.Infof("[CONF] Overriding log_level from env: %s", val)
	}
	// ENV_GAIN
	if val, ok := os.LookupEnv("ENV_GAIN"); ok {
		if fVal, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.DSP.Gain = fVal
			applog.Infof("[CONF] Overriding dsp.gain from env: %g", fVal)
		}
	}
	// ENV_MOCK
	if val, ok := os.LookupEnv("ENV_MOCK"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			cfg.Mock.Enabled = bVal
			applog.Infof("[CONF] Overriding mock.enabled from env: %v", bVal)
		}
	}
	// ENV_NETWORK_ENABLED
	if val, ok := os.LookupEnv("ENV_NETWORK_ENABLED"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			cfg.Network.Enabled = bVal
			applog.Infof("[CONF] Overriding network.enabled from env: %v", bVal)
		}
	}
	// ENV_UDP_ENABLED
	if val, ok := os.LookupEnv("ENV_UDP_ENABLED"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			cfg.Transport.UDPEnabled = bVal
			applog.Infof("[CONF] Overriding transport.udp_enabled from env: %v", bVal)
		}
	}
	// ENV_UDP_TARGET_ADDRESS
	if val, ok := os.LookupEnv("ENV_UDP_TARGET_ADDRESS"); ok {
		cfg.Transport.UDPTargetAddress = val
		applog.Infof("[CONF] Overriding transport.udp_target_address from env: %s", val)
	}
	// ENV_INFLUX_TOKEN is never logged.
	if val, ok := os.LookupEnv("ENV_INFLUX_TOKEN"); ok {
		cfg.Influx.Token = val
	}
}
