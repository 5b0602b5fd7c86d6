// SPDX-License-Identifier: MIT
package audio

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const testSampleRate = 16000

func TestPCMConversion(t *testing.T) {
	tests := []struct {
		pcm int16
		adc uint16
	}{
		{-32768, 0},
		{0, ADCMidpoint},
		{32767, ADCMax},
		{16, ADCMidpoint + 1},
	}
	for _, tt := range tests {
		if got := FromPCM16(tt.pcm); got != tt.adc {
			t.Errorf("FromPCM16(%d) = %d, want %d", tt.pcm, got, tt.adc)
		}
	}
	for s := uint16(0); s <= ADCMax; s++ {
		if got := FromPCM16(ToPCM16(s)); got != s {
			t.Fatalf("round trip of %d gave %d", s, got)
		}
	}
}

func TestRecorderSaveAndReplay(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "recordings")
	rec := NewRecorder(dir, testSampleRate)
	rec.now = func() time.Time { return time.Date(2026, 5, 1, 12, 30, 0, 0, time.UTC) }

	samples := sineBuffer(testSampleRate/2, 700)
	path, err := rec.Save(samples)
	if err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	if !strings.HasSuffix(path, "stream-20260501-123000.000.wav") {
		t.Errorf("Save() path = %q", path)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("recording not created: %v", err)
	}

	src, err := NewWavSource(path, testSampleRate)
	if err != nil {
		t.Fatalf("NewWavSource() error: %v", err)
	}
	if src.Len() != len(samples) {
		t.Fatalf("decoded %d samples, want %d", src.Len(), len(samples))
	}

	got, err := src.Capture(context.Background(), len(samples)+10)
	if err != nil {
		t.Fatalf("Capture() error: %v", err)
	}
	for i, s := range samples {
		if got[i] != s {
			t.Fatalf("sample %d = %d, want %d", i, got[i], s)
		}
	}
	for i := len(samples); i < len(got); i++ {
		if got[i] != ADCMidpoint {
			t.Errorf("padding sample %d = %d, want midpoint", i, got[i])
		}
	}
}

func TestWavSourceErrors(t *testing.T) {
	dir := t.TempDir()

	if _, err := NewWavSource(filepath.Join(dir, "missing.wav"), testSampleRate); err == nil {
		t.Error("expected error for missing file")
	}

	junk := filepath.Join(dir, "junk.wav")
	if err := os.WriteFile(junk, []byte("not a wav file at all"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewWavSource(junk, testSampleRate); err == nil {
		t.Error("expected error for invalid file")
	}

	wrongRate := filepath.Join(dir, "44k.wav")
	if err := WriteWAV(wrongRate, sineBuffer(1024, 100), 44100); err != nil {
		t.Fatal(err)
	}
	_, err := NewWavSource(wrongRate, testSampleRate)
	if err == nil || !strings.Contains(err.Error(), "44100") {
		t.Errorf("expected sample rate error, got %v", err)
	}
}

func TestWriteWAV_InvalidPath(t *testing.T) {
	if err := WriteWAV("/nonexistent/path/file.wav", sineBuffer(16, 1), testSampleRate); err == nil {
		t.Error("expected error for invalid path")
	}
}

func TestDeterministicSources(t *testing.T) {
	ctx := context.Background()

	silence, err := Silence{}.Capture(ctx, 512)
	if err != nil || len(silence) != 512 {
		t.Fatalf("Silence.Capture() = %d samples, %v", len(silence), err)
	}
	for i, s := range silence {
		if s != 0 {
			t.Fatalf("silence sample %d = %d", i, s)
		}
	}

	tone := NewTone(testSampleRate, 250)
	a, err := tone.Capture(ctx, 1024)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := tone.Capture(ctx, 1024)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("tone capture not repeatable at %d", i)
		}
	}
	if !NewGate(DefaultGateThreshold).Open(a) {
		t.Error("tone should pass the liveness gate")
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := tone.Capture(cancelled, 16); err == nil {
		t.Error("expected error from cancelled context")
	}
}
