// SPDX-License-Identifier: MIT
package analysis

import (
	"fmt"

	"beewatch/internal/config"
	applog "beewatch/internal/log"
)

// Model identifies which classifier a feature vector is built for.
type Model int

const (
	ModelSummer Model = iota // Swarming / piping detection
	ModelWinter              // Cluster heating anomaly detection
)

// String returns the lower case model name used on the wire.
func (m Model) String() string {
	switch m {
	case ModelSummer:
		return "summer"
	case ModelWinter:
		return "winter"
	default:
		return fmt.Sprintf("model(%d)", int(m))
	}
}

// Feature vector lengths.
const (
	SummerFeatures = 20
	WinterFeatures = 5
)

// firstModelBin is the lowest bin fed to the summer model.
const firstModelBin = 4

// Vector is an ordered feature vector for one model.
type Vector struct {
	Model  Model
	Values []float32
}

// Inputs are the non-audio values of a feature vector, already resolved
// against mock mode by the caller.
type Inputs struct {
	Temperature float32
	Humidity    float32
	Hour        float32
}

// Builder assembles feature vectors and owns the rolling histories they
// depend on.
type Builder struct {
	density     *History[float32]
	temperature *History[float32]
}

// NewBuilder returns a builder with empty histories of HistorySize entries.
func NewBuilder() *Builder {
	return &Builder{
		density:     NewHistory[float32](config.HistorySize),
		temperature: NewHistory[float32](config.HistorySize),
	}
}

// Clear empties both histories.
func (b *Builder) Clear() {
	b.density.Clear()
	b.temperature.Clear()
}

// DensityHistory returns the density history.
func (b *Builder) DensityHistory() *History[float32] { return b.density }

// TemperatureHistory returns the temperature history.
func (b *Builder) TemperatureHistory() *History[float32] { return b.temperature }

// Summer records the density and returns
// [temp, hum, hour, spike, bin4..bin19] where spike is the density relative to
// the rolling average including it.
func (b *Builder) Summer(r Result, in Inputs) Vector {
	b.density.Insert(r.Density)
	avg := float32(b.density.Mean())
	spike := r.Density / (avg + 1e-6)

	v := summerLayout(r, in, spike)
	applog.Infof("[AI] Features: temp=%.1f, hum=%.1f, hour=%.1f, spike=%.3f", v.Values[0], v.Values[1], v.Values[2], v.Values[3])
	applog.Debugf("[AI] FFT[4-7]: %.6f, %.6f, %.6f, %.6f", v.Values[4], v.Values[5], v.Values[6], v.Values[7])
	return v
}

// Debug returns the summer layout without touching any history. Its spike is
// the density relative to itself.
func (b *Builder) Debug(r Result, in Inputs) Vector {
	return summerLayout(r, in, r.Density/(r.Density+1e-6))
}

// Winter records the temperature and returns
// [temp, hum, variance, heater, ratio].
func (b *Builder) Winter(r Result, in Inputs) Vector {
	b.temperature.Insert(in.Temperature)
	variance := float32(b.temperature.Variance())
	heater := HeaterBand.Sum(&r.Bins)
	ratio := heater / (r.Density + 1e-6)

	applog.Infof("[AI] Winter features: temp=%.1f, hum=%.1f, var=%.4f, heater=%.6f, ratio=%.3f",
		in.Temperature, in.Humidity, variance, heater, ratio)
	return Vector{
		Model:  ModelWinter,
		Values: []float32{in.Temperature, in.Humidity, variance, heater, ratio},
	}
}

func summerLayout(r Result, in Inputs, spike float32) Vector {
	values := make([]float32, SummerFeatures)
	values[0] = in.Temperature
	values[1] = in.Humidity
	values[2] = in.Hour
	values[3] = spike
	for i := range SummerFeatures - firstModelBin {
		values[firstModelBin+i] = float32(r.Bins[firstModelBin+i])
	}
	return Vector{Model: ModelSummer, Values: values}
}

// SummerFeatureName returns a printable label for summer feature i.
func SummerFeatureName(i int) string {
	switch i {
	case 0:
		return "temp"
	case 1:
		return "humidity"
	case 2:
		return "hour"
	case 3:
		return "spike"
	}
	return fmt.Sprintf("hz_%.0f", float64(i)*config.SampleRateHz/config.FFTSize)
}
