// SPDX-License-Identifier: MIT
package climate

import (
	"fmt"
	"io"

	"beewatch/internal/config"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Open builds the sensor selected by cfg. The returned closer releases any
// bus the sensor holds.
func Open(cfg config.ClimateConfig) (Sensor, io.Closer, error) {
	switch cfg.Sensor {
	case config.SensorNone, "":
		return Unavailable{}, nopCloser{}, nil
	case config.SensorSHT3x:
		bus, err := OpenI2C(cfg.I2CBus)
		if err != nil {
			return nil, nil, err
		}
		return NewSHT3x(bus, uint8(cfg.Address)), bus, nil
	default:
		return nil, nil, fmt.Errorf("unknown climate sensor %q", cfg.Sensor)
	}
}
