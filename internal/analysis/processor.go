// SPDX-License-Identifier: MIT
package analysis

import (
	"errors"
	"fmt"
	"math"

	"beewatch/internal/config"
	"beewatch/internal/fft"
	applog "beewatch/internal/log"
)

// ErrShortBuffer is returned when a capture holds less than one window.
var ErrShortBuffer = errors.New("capture shorter than one analysis window")

// Result is the outcome of one pass over a capture.
type Result struct {
	Bins     [config.NumFreqBins]float64 // Mean magnitude per bin over all windows
	Density  float32                     // RMS of the conditioned signal
	DCOffset float32                     // Mean raw ADC value
	Windows  int                         // Number of analysis windows
	Samples  int                         // Number of raw samples
}

// Aggregator runs the conditioner and the spectral analyzer over a whole
// capture. Buffers are allocated once and reused for every pass.
type Aggregator struct {
	cond     *Conditioner
	analyzer *fft.Analyzer
	hop      int

	filtered []float32
	windowed []float32
	mags     []float32
	acc      [config.NumFreqBins]float64
}

// NewAggregator returns an aggregator using cond for conditioning.
func NewAggregator(cond *Conditioner) (*Aggregator, error) {
	analyzer, err := fft.NewAnalyzer(config.FFTSize, config.NumFreqBins)
	if err != nil {
		return nil, fmt.Errorf("failed to build spectral analyzer: %w", err)
	}
	return &Aggregator{
		cond:     cond,
		analyzer: analyzer,
		hop:      config.FFTHop,
		windowed: make([]float32, config.FFTSize),
		mags:     make([]float32, config.NumFreqBins),
	}, nil
}

// Conditioner returns the conditioner used by the aggregator.
func (a *Aggregator) Conditioner() *Conditioner { return a.cond }

// Analyzer returns the spectral analyzer used by the aggregator.
func (a *Aggregator) Analyzer() *fft.Analyzer { return a.analyzer }

// Process computes the DC offset, conditions every sample of buf with filter
// state reset once up front, averages the bin magnitudes of all complete
// windows and computes the RMS density over the whole buffer.
func (a *Aggregator) Process(buf []uint16) (Result, error) {
	size := a.analyzer.Size()
	if len(buf) < size {
		return Result{}, fmt.Errorf("%w: %d < %d samples", ErrShortBuffer, len(buf), size)
	}

	res := Result{
		DCOffset: DCOffset(buf),
		Windows:  (len(buf)-size)/a.hop + 1,
		Samples:  len(buf),
	}
	applog.Debugf("[DSP] DC offset: %.1f (gain compensation: %.2f)", res.DCOffset, a.cond.Gain())
	applog.Debugf("[DSP] Windows: %d", res.Windows)

	if cap(a.filtered) < len(buf) {
		a.filtered = make([]float32, len(buf))
	}
	filtered := a.filtered[:len(buf)]

	a.cond.Reset()
	var sumSquares float64
	for i, raw := range buf {
		y := a.cond.Step(raw, res.DCOffset)
		filtered[i] = y
		sumSquares += float64(float32(y * y))
	}

	for k := range a.acc {
		a.acc[k] = 0
	}
	for w := range res.Windows {
		offset := w * a.hop
		a.analyzer.ApplyWindow(a.windowed, filtered[offset:offset+size])
		a.analyzer.Magnitudes(a.windowed, a.mags)
		for k, m := range a.mags {
			a.acc[k] += float64(m)
		}
	}

	res.Density = float32(math.Sqrt(float64(float32(sumSquares / float64(len(buf))))))
	for k := range a.acc {
		res.Bins[k] = a.acc[k] / float64(res.Windows)
	}

	applog.Debugf("[DSP] RMS density: %.6f", res.Density)
	applog.Debugf("[DSP] Bins[4-7]: %.6f, %.6f, %.6f, %.6f", res.Bins[4], res.Bins[5], res.Bins[6], res.Bins[7])
	return res, nil
}
