// SPDX-License-Identifier: MIT
package climate

import (
	"context"
	"fmt"
	"time"
)

// SHT3x defaults.
const (
	SHT3xAddress = 0x44
	// Single shot, clock stretching disabled, high repeatability.
	sht3xCmdMSB = 0x24
	sht3xCmdLSB = 0x00
	// Maximum measurement duration at high repeatability.
	sht3xMeasureTime = 15 * time.Millisecond
)

// Bus is a minimal I2C controller.
type Bus interface {
	Write(addr uint8, data []byte) error
	Read(addr uint8, buf []byte) error
}

// SHT3x reads a Sensirion SHT3x over I2C.
type SHT3x struct {
	bus  Bus
	addr uint8
	wait time.Duration
}

// NewSHT3x returns a sensor at addr on bus.
func NewSHT3x(bus Bus, addr uint8) *SHT3x {
	return &SHT3x{bus: bus, addr: addr, wait: sht3xMeasureTime}
}

// Read triggers a single shot measurement and decodes it.
func (s *SHT3x) Read(ctx context.Context) (Reading, error) {
	if err := s.bus.Write(s.addr, []byte{sht3xCmdMSB, sht3xCmdLSB}); err != nil {
		return Reading{}, fmt.Errorf("sht3x: trigger measurement: %w", err)
	}
	if err := sleep(ctx, s.wait); err != nil {
		return Reading{}, err
	}
	var data [6]byte
	if err := s.bus.Read(s.addr, data[:]); err != nil {
		return Reading{}, fmt.Errorf("sht3x: read measurement: %w", err)
	}
	return DecodeSHT3x(data), nil
}

// DecodeSHT3x converts a raw measurement (temperature word, CRC, humidity
// word, CRC) into a Reading. Humidity is clamped to 0-100 %.
func DecodeSHT3x(data [6]byte) Reading {
	tRaw := uint16(data[0])<<8 | uint16(data[1])
	hRaw := uint16(data[3])<<8 | uint16(data[4])

	temp := -45.0 + 175.0*float32(tRaw)/65535.0
	hum := 100.0 * (float32(hRaw) / 65535.0)
	hum = min(100, max(0, hum))
	return Reading{Temperature: temp, Humidity: hum}
}
