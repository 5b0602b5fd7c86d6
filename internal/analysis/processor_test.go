// SPDX-License-Identifier: MIT
package analysis

import (
	"errors"
	"math"
	"testing"

	"beewatch/internal/config"
	"beewatch/pkg/utils"
)

const testBufferLength = config.SampleRateHz * config.CaptureSeconds

func newTestAggregator(t testing.TB, gain float64) *Aggregator {
	t.Helper()
	c, err := NewConditioner(gain)
	if err != nil {
		t.Fatalf("NewConditioner() error: %v", err)
	}
	a, err := NewAggregator(c)
	if err != nil {
		t.Fatalf("NewAggregator() error: %v", err)
	}
	return a
}

func TestAggregator_ZeroBuffer(t *testing.T) {
	a := newTestAggregator(t, config.DefaultGain)
	res, err := a.Process(make([]uint16, testBufferLength))
	if err != nil {
		t.Fatalf("Process() error: %v", err)
	}
	if res.Windows != 187 {
		t.Errorf("Windows = %d, want 187", res.Windows)
	}
	if res.Samples != testBufferLength {
		t.Errorf("Samples = %d, want %d", res.Samples, testBufferLength)
	}
	if res.DCOffset != 0 || res.Density != 0 {
		t.Errorf("DCOffset = %g, Density = %g, want 0, 0", res.DCOffset, res.Density)
	}
	for k, v := range res.Bins {
		if v != 0 {
			t.Errorf("bin %d = %g, want 0", k, v)
		}
	}
}

func TestAggregator_ConstantBufferIsSilent(t *testing.T) {
	a := newTestAggregator(t, config.DefaultGain)
	res, err := a.Process(utils.GenerateConstant(testBufferLength, 3000))
	if err != nil {
		t.Fatalf("Process() error: %v", err)
	}
	if res.DCOffset != 3000 {
		t.Errorf("DCOffset = %g, want 3000", res.DCOffset)
	}
	if res.Density != 0 {
		t.Errorf("Density = %g, want 0", res.Density)
	}
}

func TestAggregator_ShortBuffer(t *testing.T) {
	a := newTestAggregator(t, config.DefaultGain)
	_, err := a.Process(make([]uint16, config.FFTSize-1))
	if !errors.Is(err, ErrShortBuffer) {
		t.Errorf("Process() error = %v, want ErrShortBuffer", err)
	}

	res, err := a.Process(make([]uint16, config.FFTSize))
	if err != nil || res.Windows != 1 {
		t.Errorf("Process(one window) = %d windows, err %v", res.Windows, err)
	}
}

func TestAggregator_TonePeak(t *testing.T) {
	a := newTestAggregator(t, config.DefaultGain)
	// 250 Hz is bin 8 at 16 kHz / 512.
	buf := utils.GenerateSineWave(testBufferLength, config.SampleRateHz, 250, 600)
	res, err := a.Process(buf)
	if err != nil {
		t.Fatalf("Process() error: %v", err)
	}
	if peak := utils.FindPeakBin(res.Bins[:], 4, config.NumFreqBins-1); peak != 8 {
		t.Errorf("peak bin = %d, want 8 (bins %v)", peak, res.Bins)
	}
	if res.Density <= 0 {
		t.Errorf("Density = %g, want > 0", res.Density)
	}
}

// Every pass starts from reset filter state, so the same capture always
// produces the same result.
func TestAggregator_Repeatable(t *testing.T) {
	a := newTestAggregator(t, config.DefaultGain)
	buf := utils.GenerateHiveHum(testBufferLength, config.SampleRateHz, 700)

	first, err := a.Process(buf)
	if err != nil {
		t.Fatalf("Process() error: %v", err)
	}
	second, err := a.Process(buf)
	if err != nil {
		t.Fatalf("Process() error: %v", err)
	}
	if first != second {
		t.Errorf("second pass differs from first:\n%+v\n%+v", first, second)
	}
}

func TestAggregator_DensityMatchesConditionedRMS(t *testing.T) {
	a := newTestAggregator(t, config.DefaultGain)
	// Length with a tail beyond the last full window.
	buf := utils.GenerateHiveHum(config.FFTSize*3+100, config.SampleRateHz, 700)
	res, err := a.Process(buf)
	if err != nil {
		t.Fatalf("Process() error: %v", err)
	}

	c, _ := NewConditioner(config.DefaultGain)
	dc := DCOffset(buf)
	var sum float64
	for _, v := range buf {
		y := c.Step(v, dc)
		sum += float64(float32(y * y))
	}
	want := float32(math.Sqrt(float64(float32(sum / float64(len(buf))))))
	if res.Density != want {
		t.Errorf("Density = %g, want %g", res.Density, want)
	}
	if res.Windows != 3 {
		t.Errorf("Windows = %d, want 3", res.Windows)
	}
}

func TestAggregator_GainScalesOutput(t *testing.T) {
	buf := utils.GenerateHiveHum(testBufferLength, config.SampleRateHz, 700)
	lo, err := newTestAggregator(t, 0.15).Process(buf)
	if err != nil {
		t.Fatal(err)
	}
	hi, err := newTestAggregator(t, 0.3).Process(buf)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(float64(hi.Density)-2*float64(lo.Density)) > 1e-6 {
		t.Errorf("density at double gain = %g, want %g", hi.Density, 2*lo.Density)
	}
	for k := range lo.Bins {
		if math.Abs(hi.Bins[k]-2*lo.Bins[k]) > 1e-6 {
			t.Errorf("bin %d at double gain = %g, want %g", k, hi.Bins[k], 2*lo.Bins[k])
		}
	}
}

func BenchmarkAggregatorProcess(b *testing.B) {
	a := newTestAggregator(b, config.DefaultGain)
	buf := utils.GenerateHiveHum(testBufferLength, config.SampleRateHz, 700)

	b.ReportAllocs()

	for b.Loop() {
		_, _ = a.Process(buf)
	}
}
