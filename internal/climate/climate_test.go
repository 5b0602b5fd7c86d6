// SPDX-License-Identifier: MIT
package climate

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"beewatch/internal/config"
)

type fakeBus struct {
	written  []byte
	addr     uint8
	data     [6]byte
	writeErr error
	readErr  error
}

func (b *fakeBus) Write(addr uint8, data []byte) error {
	b.addr = addr
	b.written = append([]byte(nil), data...)
	return b.writeErr
}

func (b *fakeBus) Read(addr uint8, buf []byte) error {
	if b.readErr != nil {
		return b.readErr
	}
	copy(buf, b.data[:])
	return nil
}

func approx(a, b, tol float32) bool {
	return math.Abs(float64(a-b)) <= float64(tol)
}

func TestDecodeSHT3x(t *testing.T) {
	tests := []struct {
		name     string
		data     [6]byte
		wantTemp float32
		wantHum  float32
	}{
		{"minimum", [6]byte{0x00, 0x00, 0, 0x00, 0x00, 0}, -45, 0},
		{"maximum", [6]byte{0xFF, 0xFF, 0, 0xFF, 0xFF, 0}, 130, 100},
		{"midscale", [6]byte{0x80, 0x00, 0, 0x80, 0x00, 0}, -45 + 175*32768.0/65535.0, 100 * 32768.0 / 65535.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DecodeSHT3x(tt.data)
			if !approx(got.Temperature, tt.wantTemp, 1e-3) {
				t.Errorf("Temperature = %v, want %v", got.Temperature, tt.wantTemp)
			}
			if !approx(got.Humidity, tt.wantHum, 1e-3) {
				t.Errorf("Humidity = %v, want %v", got.Humidity, tt.wantHum)
			}
			if got.Humidity < 0 || got.Humidity > 100 {
				t.Errorf("Humidity %v out of range", got.Humidity)
			}
		})
	}
}

func TestSHT3xRead(t *testing.T) {
	bus := &fakeBus{data: [6]byte{0x66, 0x66, 0, 0x80, 0x00, 0}}
	s := NewSHT3x(bus, SHT3xAddress)
	s.wait = time.Millisecond

	got, err := s.Read(context.Background())
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if bus.addr != SHT3xAddress {
		t.Errorf("address = 0x%02x, want 0x%02x", bus.addr, SHT3xAddress)
	}
	if len(bus.written) != 2 || bus.written[0] != 0x24 || bus.written[1] != 0x00 {
		t.Errorf("command = % x, want 24 00", bus.written)
	}
	if !approx(got.Temperature, 25, 0.01) {
		t.Errorf("Temperature = %v, want ~25", got.Temperature)
	}
}

func TestSHT3xErrors(t *testing.T) {
	boom := errors.New("nack")

	s := NewSHT3x(&fakeBus{writeErr: boom}, SHT3xAddress)
	if _, err := s.Read(context.Background()); !errors.Is(err, boom) {
		t.Errorf("write failure: err = %v, want %v", err, boom)
	}

	s = NewSHT3x(&fakeBus{readErr: boom}, SHT3xAddress)
	s.wait = time.Millisecond
	if _, err := s.Read(context.Background()); !errors.Is(err, boom) {
		t.Errorf("read failure: err = %v, want %v", err, boom)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s = NewSHT3x(&fakeBus{}, SHT3xAddress)
	if _, err := s.Read(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled: err = %v, want context.Canceled", err)
	}
}

func TestReadOrFallback(t *testing.T) {
	got, ok := ReadOrFallback(context.Background(), Unavailable{})
	if ok {
		t.Error("ReadOrFallback() reported success for an unavailable sensor")
	}
	if got != Fallback {
		t.Errorf("ReadOrFallback() = %v, want %v", got, Fallback)
	}
	if Fallback.Temperature != 25 || Fallback.Humidity != 50 {
		t.Errorf("Fallback = %v, want 25 C / 50 %%", Fallback)
	}

	want := Reading{Temperature: 33.5, Humidity: 61}
	got, ok = ReadOrFallback(context.Background(), Fixed(want))
	if !ok || got != want {
		t.Errorf("ReadOrFallback(Fixed) = %v, %v, want %v, true", got, ok, want)
	}
}

func TestOpen(t *testing.T) {
	s, c, err := Open(config.ClimateConfig{Sensor: config.SensorNone})
	if err != nil {
		t.Fatalf("Open(none) error = %v", err)
	}
	defer c.Close()
	if _, ok := s.(Unavailable); !ok {
		t.Errorf("Open(none) = %T, want Unavailable", s)
	}

	if _, _, err := Open(config.ClimateConfig{Sensor: "bme280"}); err == nil {
		t.Error("Open(bme280) expected an error")
	}
}
