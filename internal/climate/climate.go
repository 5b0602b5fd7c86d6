// SPDX-License-Identifier: MIT

// Package climate reads hive temperature and humidity.
package climate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"beewatch/internal/config"
	applog "beewatch/internal/log"
)

// ErrNoSensor is returned by Unavailable.
var ErrNoSensor = errors.New("no climate sensor connected")

// Reading is one temperature and humidity measurement.
type Reading struct {
	Temperature float32 // Degrees Celsius
	Humidity    float32 // Relative humidity, 0-100 %
}

// Fallback is used whenever the sensor cannot be read.
var Fallback = Reading{Temperature: config.FallbackTemperature, Humidity: config.FallbackHumidity}

// Sensor measures the climate inside the hive.
type Sensor interface {
	Read(ctx context.Context) (Reading, error)
}

// Fixed always returns the same reading.
type Fixed Reading

// Read implements Sensor.
func (f Fixed) Read(ctx context.Context) (Reading, error) {
	if err := ctx.Err(); err != nil {
		return Reading{}, err
	}
	return Reading(f), nil
}

// Unavailable stands in for a sensor that is not wired up.
type Unavailable struct{}

// Read always fails with ErrNoSensor.
func (Unavailable) Read(context.Context) (Reading, error) {
	return Reading{}, ErrNoSensor
}

// ReadOrFallback reads s and substitutes Fallback on failure, logging a
// warning. The returned bool reports whether the sensor answered.
func ReadOrFallback(ctx context.Context, s Sensor) (Reading, bool) {
	r, err := s.Read(ctx)
	if err != nil {
		applog.Warnf("[SENSOR] Read failed (%v), using defaults %.1f C / %.1f %%", err, Fallback.Temperature, Fallback.Humidity)
		return Fallback, false
	}
	applog.Infof("[SENSOR] Temp: %.2f C, Humidity: %.2f %%", r.Temperature, r.Humidity)
	return r, true
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// String formats the reading for logs.
func (r Reading) String() string {
	return fmt.Sprintf("%.2f C / %.2f %%", r.Temperature, r.Humidity)
}
