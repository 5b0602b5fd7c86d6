// SPDX-License-Identifier: MIT
package audio

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// DefaultGateThreshold is the fraction of half scale a capture must swing to
// count as live (about 4 ADC counts).
const DefaultGateThreshold = 0.002

// Gate flags captures whose peak deviation from their own mean stays at or
// below a threshold. A stuck or disconnected microphone produces such a flat
// buffer at any DC level.
type Gate struct {
	enabled   bool
	threshold int32 // ADC counts, 0 to ADCMidpoint
}

// NewGate returns an enabled gate with the given threshold ratio.
func NewGate(ratio float64) *Gate {
	g := &Gate{enabled: true}
	g.SetThreshold(ratio)
	return g
}

func (g *Gate) Enable() {
	g.enabled = true
}

func (g *Gate) Disable() {
	g.enabled = false
}

// SetThreshold adjusts the gate threshold.
// The value is in the range of 0.0-1.0 of half scale, where 0 = only a
// perfectly flat buffer is closed and 1 = always closed.
func (g *Gate) SetThreshold(ratio float64) {
	if ratio < 0.0 {
		ratio = 0.0
	}
	if ratio > 1.0 {
		ratio = 1.0
	}

	g.threshold = int32(math.Round(ratio * ADCMidpoint))
}

// Threshold returns the current threshold as a ratio of half scale.
func (g *Gate) Threshold() float64 {
	return float64(g.threshold) / ADCMidpoint
}

// Open reports whether buf carries signal. A disabled gate is always open.
func (g *Gate) Open(buf []uint16) bool {
	if !g.enabled {
		return true
	}
	if len(buf) == 0 {
		return false
	}
	var sum int64
	for _, s := range buf {
		sum += int64(s)
	}
	center := int32(sum / int64(len(buf)))
	return PeakAmplitude(buf, center) > g.threshold
}

// PeakAmplitude returns the largest absolute deviation of buf from center.
func PeakAmplitude(buf []uint16, center int32) int32 {
	var maxAmplitude int32
	for _, s := range buf {
		// Get absolute value without branching.
		sample := int32(s) - center
		mask := sample >> 31
		amplitude := (sample ^ mask) - mask

		// Update max using math instead of branching.
		diff := amplitude - maxAmplitude
		maxAmplitude += (diff & (diff >> 31)) ^ diff
	}
	return maxAmplitude
}

// Stats summarises a capture.
type Stats struct {
	Min, Max uint16
	Mean     float64
	StdDev   float64 // Population standard deviation
}

// ComputeStats returns min, max, mean and standard deviation of buf.
func ComputeStats(buf []uint16) Stats {
	if len(buf) == 0 {
		return Stats{}
	}
	st := Stats{Min: buf[0], Max: buf[0]}
	x := make([]float64, len(buf))
	for i, s := range buf {
		st.Min = min(st.Min, s)
		st.Max = max(st.Max, s)
		x[i] = float64(s)
	}
	mean, variance := stat.PopMeanVariance(x, nil)
	st.Mean = mean
	st.StdDev = math.Sqrt(variance)
	return st
}
