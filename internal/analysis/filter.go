// SPDX-License-Identifier: MIT
package analysis

import (
	"errors"
	"fmt"
	"math"

	"beewatch/internal/config"
)

// ErrGainOutOfRange is returned when a gain outside (0, MaxGain] is requested.
var ErrGainOutOfRange = errors.New("gain out of range")

// Coefficients of one Direct-Form-II-Transposed section, a0 normalised to 1.
type Coefficients struct {
	B0, B1, B2 float32
	A1, A2     float32
}

// Filter cascade of the signal conditioner. The models were trained on audio
// shaped by exactly these sections, so they are not configurable.
var (
	// HighPass is a 2nd order Butterworth at 100 Hz.
	HighPass = Coefficients{B0: 0.9726139, B1: -1.9452278, B2: 0.9726139, A1: -1.9444777, A2: 0.9459779}
	// LowPassFirst and LowPassSecond together form a 3rd order Butterworth
	// low pass at 6 kHz.
	LowPassFirst  = Coefficients{B0: 0.4459029, B1: 0.4459029, B2: 0, A1: 0.4142136, A2: 0}
	LowPassSecond = Coefficients{B0: 0.3913, B1: 0.7827, B2: 0.3913, A1: -0.3695, A2: -0.1958}
)

// section is one biquad and its delay line.
type section struct {
	c      Coefficients
	w1, w2 float32
}

// step filters a single sample. Every product is converted to float32
// explicitly so the compiler cannot fuse it into a multiply-add.
func (s *section) step(x float32) float32 {
	y := float32(s.c.B0*x) + s.w1
	s.w1 = float32(s.c.B1*x) - float32(s.c.A1*y) + s.w2
	s.w2 = float32(s.c.B2*x) - float32(s.c.A2*y)
	return y
}

func (s *section) reset() {
	s.w1, s.w2 = 0, 0
}

// Conditioner turns raw 12-bit ADC samples into gain compensated, band
// limited float32 samples. It keeps filter state between calls to Step; the
// caller resets it once before each pass over a capture.
type Conditioner struct {
	gain float32
	hp   section
	lp1  section
	lp2  section
}

// NewConditioner returns a conditioner with zeroed filter state.
func NewConditioner(gain float64) (*Conditioner, error) {
	c := &Conditioner{
		hp:  section{c: HighPass},
		lp1: section{c: LowPassFirst},
		lp2: section{c: LowPassSecond},
	}
	if err := c.SetGain(gain); err != nil {
		return nil, err
	}
	return c, nil
}

// SetGain changes the gain compensation. Values outside (0, MaxGain] are
// rejected and leave the current gain untouched.
func (c *Conditioner) SetGain(gain float64) error {
	if math.IsNaN(gain) || gain <= 0 || gain > config.MaxGain {
		return fmt.Errorf("%w: %g not in (0, %.1f]", ErrGainOutOfRange, gain, config.MaxGain)
	}
	c.gain = float32(gain)
	return nil
}

// Gain returns the current gain compensation.
func (c *Conditioner) Gain() float32 { return c.gain }

// Reset zeroes all filter state.
func (c *Conditioner) Reset() {
	c.hp.reset()
	c.lp1.reset()
	c.lp2.reset()
}

// Step normalises raw around dc to [-1, 1], applies the gain and runs the
// high pass and both low pass sections.
func (c *Conditioner) Step(raw uint16, dc float32) float32 {
	x := (float32(raw) - dc) / 2048
	x = float32(x * c.gain)
	return c.lp2.step(c.lp1.step(c.hp.step(x)))
}

// DCOffset returns the mean of buf, summed in float64.
func DCOffset(buf []uint16) float32 {
	if len(buf) == 0 {
		return 0
	}
	var sum float64
	for _, v := range buf {
		sum += float64(v)
	}
	return float32(sum / float64(len(buf)))
}
