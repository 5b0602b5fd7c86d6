// SPDX-License-Identifier: MIT
/*
Package audio provides the capture side of the node:
- Sources producing raw 12-bit offset-binary ADC samples (mid-scale 2048)
- Deterministic sources for mock mode and parity tests
- WAV recording of captures for the stream command
- A liveness gate that flags a flat or dead microphone

The hardware microphone lives in the device subpackage so that everything
here builds without PortAudio.
*/
package audio

import (
	"context"
	"fmt"
	"math"
)

// ADC layout of the microphone front end.
const (
	ADCBits     = 12
	ADCMidpoint = 1 << (ADCBits - 1)
	ADCMax      = 1<<ADCBits - 1
)

// Source produces captures of raw ADC samples.
type Source interface {
	// Capture blocks until n samples are available or ctx is done.
	Capture(ctx context.Context, n int) ([]uint16, error)
	// Name identifies the source in logs.
	Name() string
}

// Silence returns all-zero captures.
type Silence struct{}

// Capture returns n zero samples.
func (Silence) Capture(ctx context.Context, n int) ([]uint16, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return make([]uint16, n), nil
}

// Name implements Source.
func (Silence) Name() string { return "silence" }

// Tone returns a sine around the ADC midpoint. Every capture starts at phase
// zero so repeated captures are identical.
type Tone struct {
	SampleRate int
	Frequency  float64
	Amplitude  float64 // Peak deviation in ADC counts
}

// NewTone returns a tone with a fixed amplitude of a quarter of full scale.
func NewTone(sampleRate int, frequency float64) *Tone {
	return &Tone{SampleRate: sampleRate, Frequency: frequency, Amplitude: ADCMidpoint / 4}
}

// Capture returns n samples of the tone.
func (t *Tone) Capture(ctx context.Context, n int) ([]uint16, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if t.SampleRate <= 0 {
		return nil, fmt.Errorf("tone sample rate must be positive, got %d", t.SampleRate)
	}
	buf := make([]uint16, n)
	for i := range buf {
		v := t.Amplitude * math.Sin(2*math.Pi*t.Frequency*float64(i)/float64(t.SampleRate))
		buf[i] = clampADC(math.Round(ADCMidpoint + v))
	}
	return buf, nil
}

// Name implements Source.
func (t *Tone) Name() string { return fmt.Sprintf("tone(%.0f Hz)", t.Frequency) }

// FromPCM16 maps a signed 16-bit PCM sample onto the 12-bit ADC range.
func FromPCM16(s int16) uint16 {
	return uint16((int32(s) >> (16 - ADCBits)) + ADCMidpoint)
}

// ToPCM16 maps a 12-bit ADC sample back onto signed 16-bit PCM.
func ToPCM16(s uint16) int16 {
	return int16((int32(s) - ADCMidpoint) << (16 - ADCBits))
}

func clampADC(v float64) uint16 {
	if v < 0 {
		return 0
	}
	if v > ADCMax {
		return ADCMax
	}
	return uint16(v)
}
