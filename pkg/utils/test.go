// SPDX-License-Identifier: MIT

// Package utils holds signal generators and fakes shared by tests and the
// mock audio sources.
package utils

import (
	"math"
	"sync"
)

// ADC layout of the 12-bit microphone front end.
const (
	ADCMidpoint = 2048
	ADCMax      = 4095
)

// MockTransport records everything sent to it instead of transmitting.
type MockTransport struct {
	mu     sync.Mutex
	Sent   []any
	Closed bool
}

// Send stores data for later inspection.
func (m *MockTransport) Send(data any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, data)
	return nil
}

// Close marks the transport closed.
func (m *MockTransport) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Closed = true
	return nil
}

// Messages returns a copy of everything sent so far.
func (m *MockTransport) Messages() []any {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]any, len(m.Sent))
	copy(out, m.Sent)
	return out
}

// GenerateConstant returns size samples of value.
func GenerateConstant(size int, value uint16) []uint16 {
	buffer := make([]uint16, size)
	for i := range buffer {
		buffer[i] = value
	}
	return buffer
}

// GenerateSineWave returns size ADC samples of a sine at frequency Hz with
// the given peak amplitude in ADC counts, centred on the ADC midpoint.
func GenerateSineWave(size int, sampleRate, frequency, amplitude float64) []uint16 {
	buffer := make([]uint16, size)
	for i := range buffer {
		t := float64(i) / sampleRate
		buffer[i] = toADC(amplitude * math.Sin(2*math.Pi*frequency*t))
	}
	return buffer
}

// GenerateHiveHum returns a colony-like hum: a 250 Hz fundamental with its
// second and third harmonics.
func GenerateHiveHum(size int, sampleRate, amplitude float64) []uint16 {
	buffer := make([]uint16, size)
	for i := range buffer {
		tm := float64(i) / sampleRate
		signal := math.Sin(2*math.Pi*250*tm)*0.5 +
			math.Sin(2*math.Pi*500*tm)*0.3 +
			math.Sin(2*math.Pi*750*tm)*0.2
		buffer[i] = toADC(amplitude * signal)
	}
	return buffer
}

// toADC offsets v around the midpoint and clamps it to the 12-bit range.
func toADC(v float64) uint16 {
	s := math.Round(ADCMidpoint + v)
	if s < 0 {
		return 0
	}
	if s > ADCMax {
		return ADCMax
	}
	return uint16(s)
}

// FindPeakBin returns the index of the largest magnitude in
// [startBin, endBin].
func FindPeakBin[T float32 | float64](magnitudes []T, startBin, endBin int) int {
	if len(magnitudes) == 0 {
		return 0
	}

	if startBin < 0 {
		startBin = 0
	}

	if endBin >= len(magnitudes) {
		endBin = len(magnitudes) - 1
	}

	peakBin := startBin
	peakValue := magnitudes[startBin]

	for bin := startBin + 1; bin <= endBin; bin++ {
		if magnitudes[bin] > peakValue {
			peakValue = magnitudes[bin]
			peakBin = bin
		}
	}

	return peakBin
}
