// SPDX-License-Identifier: MIT
package device

import (
	"testing"

	"beewatch/internal/audio"
)

func TestAppendFrame(t *testing.T) {
	frame := []int16{-32768, 0, 32767, 16}

	got := appendFrame(nil, frame, 10)
	want := []uint16{0, audio.ADCMidpoint, audio.ADCMax, audio.ADCMidpoint + 1}
	if len(got) != len(want) {
		t.Fatalf("appendFrame() length = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sample %d = %d, want %d", i, got[i], want[i])
		}
	}

	limited := appendFrame(make([]uint16, 0, 3), frame, 3)
	if len(limited) != 3 {
		t.Errorf("appendFrame() ignored limit, got %d samples", len(limited))
	}
}

// TestAppendFrameHotPath verifies that converting a frame into a buffer with
// enough capacity does not allocate.
func TestAppendFrameHotPath(t *testing.T) {
	frame := make([]int16, framesPerBuffer)
	for i := range frame {
		frame[i] = int16((i%100 - 50) * 600)
	}
	dst := make([]uint16, 0, framesPerBuffer)

	allocs := testing.AllocsPerRun(100, func() {
		dst = appendFrame(dst[:0], frame, framesPerBuffer)
	})
	if allocs > 0 {
		t.Errorf("Expected zero allocations in appendFrame, got %.1f", allocs)
	}
}

func TestDeviceKind(t *testing.T) {
	tests := []struct {
		d    Device
		want string
	}{
		{Device{MaxInputChannels: 2, MaxOutputChannels: 2}, "Input/Output"},
		{Device{MaxInputChannels: 1}, "Input"},
		{Device{MaxOutputChannels: 2}, "Output"},
		{Device{}, "Unknown"},
	}
	for _, tt := range tests {
		if got := tt.d.Kind(); got != tt.want {
			t.Errorf("Kind() = %q, want %q", got, tt.want)
		}
	}
}

func BenchmarkAppendFrame(b *testing.B) {
	frame := make([]int16, framesPerBuffer)
	dst := make([]uint16, 0, framesPerBuffer)

	b.ReportAllocs()

	for b.Loop() {
		dst = appendFrame(dst[:0], frame, framesPerBuffer)
	}
}
