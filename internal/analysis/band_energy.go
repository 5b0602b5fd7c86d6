// SPDX-License-Identifier: MIT
package analysis

import "beewatch/internal/config"

// FrequencyBand is an inclusive range of analysis bins.
type FrequencyBand struct {
	Name    string
	LowBin  int
	HighBin int
}

// HeaterBand covers the bins where clustered winter bees shiver to heat the
// colony (about 190-250 Hz).
var HeaterBand = FrequencyBand{Name: "heater", LowBin: 6, HighBin: 8}

// DisplayBands splits the model bins into coarse bands for the live monitor.
var DisplayBands = []FrequencyBand{
	{Name: "low", LowBin: 4, HighBin: 7},
	{Name: "hum", LowBin: 8, HighBin: 13},
	{Name: "piping", LowBin: 14, HighBin: 19},
}

// Sum adds the band's bin magnitudes in float64 and returns the float32 total.
func (b FrequencyBand) Sum(bins *[config.NumFreqBins]float64) float32 {
	var sum float64
	for k := max(b.LowBin, 0); k <= b.HighBin && k < len(bins); k++ {
		sum += bins[k]
	}
	return float32(sum)
}

// Range returns the band edges in Hz at sampleRate.
func (b FrequencyBand) Range(sampleRate float64) (lowHz, highHz float64) {
	step := sampleRate / float64(config.FFTSize)
	return float64(b.LowBin) * step, float64(b.HighBin) * step
}

// BandEnergies returns the summed magnitude of every display band, keyed by
// band name.
func BandEnergies(bins *[config.NumFreqBins]float64) map[string]float32 {
	out := make(map[string]float32, len(DisplayBands))
	for _, b := range DisplayBands {
		out[b.Name] = b.Sum(bins)
	}
	return out
}
