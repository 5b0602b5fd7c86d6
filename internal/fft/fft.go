// SPDX-License-Identifier: MIT

// Package fft computes magnitudes of the lowest bins of a fixed-size DFT.
//
// Only a handful of low bins are ever needed, so instead of running a full
// transform the Analyzer correlates each window against precomputed twiddle
// factors. Arithmetic precision is fixed: products are float32, sums are
// float64. Results are reproducible bit for bit across platforms.
package fft

import (
	"fmt"
	"math"

	"beewatch/pkg/bitint"

	"gonum.org/v1/gonum/dsp/window"
)

// Analyzer holds the read-only tables for one window size. It is safe for
// concurrent use once constructed.
type Analyzer struct {
	size   int
	bins   int
	window []float32   // Hann coefficients
	cos    [][]float32 // cos[k][n] for angle -2πkn/size
	sin    [][]float32 // sin[k][n] for angle -2πkn/size
}

// NewAnalyzer builds the Hann window and twiddle tables for a window of size
// samples and the first bins DFT bins.
func NewAnalyzer(size, bins int) (*Analyzer, error) {
	if !bitint.IsPowerOfTwo(size) {
		return nil, fmt.Errorf("window size must be a power of 2, got %d", size)
	}
	if bins <= 0 || bins > size/2+1 {
		return nil, fmt.Errorf("bin count must be in [1, %d], got %d", size/2+1, bins)
	}

	a := &Analyzer{
		size:   size,
		bins:   bins,
		window: hann(size),
		cos:    make([][]float32, bins),
		sin:    make([][]float32, bins),
	}

	for k := range bins {
		a.cos[k] = make([]float32, size)
		a.sin[k] = make([]float32, size)
		for n := range size {
			angle := -2.0 * math.Pi * float64(k) * float64(n) / float64(size)
			a.cos[k][n] = float32(math.Cos(angle))
			a.sin[k][n] = float32(math.Sin(angle))
		}
	}

	return a, nil
}

// hann returns the symmetric Hann window 0.5(1 - cos(2πi/(N-1))).
func hann(size int) []float32 {
	seq := make([]float64, size)
	for i := range seq {
		seq[i] = 1
	}
	window.Hann(seq)

	out := make([]float32, size)
	for i, v := range seq {
		out[i] = float32(v)
	}
	return out
}

// Size returns the window length in samples.
func (a *Analyzer) Size() int { return a.size }

// Bins returns the number of bins Magnitudes writes.
func (a *Analyzer) Bins() int { return a.bins }

// Window returns coefficient i of the Hann window.
func (a *Analyzer) Window(i int) float32 { return a.window[i] }

// ApplyWindow writes src multiplied by the Hann window into dst. Both slices
// must hold at least Size() samples.
func (a *Analyzer) ApplyWindow(dst, src []float32) {
	w := a.window
	_ = dst[len(w)-1]
	_ = src[len(w)-1]
	for i, c := range w {
		dst[i] = src[i] * c
	}
}

// Magnitudes writes |X[k]| for k in [0, Bins()) of the windowed frame into
// out. It does not allocate.
func (a *Analyzer) Magnitudes(frame []float32, out []float32) {
	if len(frame) < a.size || len(out) < a.bins {
		panic(fmt.Sprintf("fft: frame %d/%d or output %d/%d too short", len(frame), a.size, len(out), a.bins))
	}
	frame = frame[:a.size]
	for k := range a.bins {
		out[k] = magnitude(frame, a.cos[k], a.sin[k])
	}
}

// magnitude correlates one frame against one bin's twiddle row.
func magnitude(frame, cos, sin []float32) float32 {
	var re, im float64
	for n, x := range frame {
		re += float64(float32(x * cos[n]))
		im += float64(float32(x * sin[n]))
	}
	return float32(math.Sqrt(float64(re*re) + float64(im*im)))
}

// Frequency returns the centre frequency in Hz of bin k at sampleRate.
func (a *Analyzer) Frequency(k int, sampleRate float64) float64 {
	if k < 0 || k > a.size/2 {
		return 0
	}
	return float64(k) * sampleRate / float64(a.size)
}
