// SPDX-License-Identifier: MIT
package audio

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-audio/wav"
)

// WavSource replays the first channel of a PCM WAV file. Every capture starts
// at the beginning of the file; captures longer than the file are padded with
// mid-scale samples.
type WavSource struct {
	path    string
	samples []uint16
}

// NewWavSource decodes path and checks that it was recorded at sampleRate.
func NewWavSource(path string, sampleRate int) (*WavSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open wav file: %w", err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%s is not a valid wav file", path)
	}
	if int(dec.SampleRate) != sampleRate {
		return nil, fmt.Errorf("%s is sampled at %d Hz, want %d Hz", path, dec.SampleRate, sampleRate)
	}
	depth := int(dec.BitDepth)
	if depth != 16 && depth != 24 && depth != 32 {
		return nil, fmt.Errorf("unsupported wav bit depth %d", depth)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to decode wav file: %w", err)
	}

	channels := max(int(dec.NumChans), 1)
	samples := make([]uint16, 0, len(buf.Data)/channels)
	for i := 0; i < len(buf.Data); i += channels {
		s := int16(buf.Data[i] >> (depth - 16))
		samples = append(samples, FromPCM16(s))
	}

	return &WavSource{path: path, samples: samples}, nil
}

// Len returns the number of decoded samples.
func (w *WavSource) Len() int { return len(w.samples) }

// Capture returns the first n samples of the file.
func (w *WavSource) Capture(ctx context.Context, n int) ([]uint16, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	buf := make([]uint16, n)
	copied := copy(buf, w.samples)
	for i := copied; i < n; i++ {
		buf[i] = ADCMidpoint
	}
	return buf, nil
}

// Name implements Source.
func (w *WavSource) Name() string { return "wav(" + filepath.Base(w.path) + ")" }
