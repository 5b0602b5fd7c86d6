// SPDX-License-Identifier: MIT
package config

import "time"

// Core constants of the capture and feature pipeline. The analysis values are
// fixed by the trained models and are not configurable.
const (
	SampleRateHz   = 16000 // ADC sample rate
	CaptureSeconds = 6     // Length of one capture
	FFTSize        = 512   // Analysis window length
	FFTHop         = 512   // Non-overlapping windows
	NumFreqBins    = 20    // Bins 0-19 are analysed, models use 4-19
	HistorySize    = 12    // Rolling history capacity

	MaxStreamSeconds = 6 // Upper bound for the audio stream command

	// Gain compensation for the op-amp front end. Valid range is (0, MaxGain].
	DefaultGain = 0.15
	MaxGain     = 2.0

	DefaultFixedHour = 14.0 // Hour-of-day feature when no clock is used

	// Mock mode defaults match the desktop reference shim.
	DefaultMockTemperature = 25.0
	DefaultMockHumidity    = 50.0
	DefaultMockHour        = 14.0

	// Safe climate values used when the sensor does not answer.
	FallbackTemperature = 25.0
	FallbackHumidity    = 50.0

	DefaultAnomalyThreshold = 0.6
	DefaultBatteryMV        = 0

	DefaultSyncInterval = 2000 * time.Millisecond // Poll server every 2 seconds
	DefaultHTTPTimeout  = 3000 * time.Millisecond // Network request timeout
	DefaultPollSlice    = 10 * time.Millisecond   // Read slice while waiting on the network
	DefaultLoopYield    = 10 * time.Millisecond   // Sleep at the end of each loop iteration
)

// Audio source names.
const (
	SourceMicrophone = "microphone"
	SourceWav        = "wav"
	SourceSilence    = "silence"
	SourceTone       = "tone"
)

// Hour-of-day sources for the summer feature vector.
const (
	HourFixed = "fixed"
	HourClock = "clock"
)

// Climate sensor kinds.
const (
	SensorNone  = "none"
	SensorSHT3x = "sht3x"
)
