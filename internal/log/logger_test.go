// SPDX-License-Identifier: MIT
package log

import (
	"bytes"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
		ok   bool
	}{
		{"debug", LevelDebug, true},
		{"INFO", LevelInfo, true},
		{"warning", LevelWarn, true},
		{"Error", LevelError, true},
		{"fatal", LevelFatal, true},
		{"loud", LevelInfo, false},
	}
	for _, tt := range tests {
		got, ok := ParseLevel(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseLevel(%q) = %v,%v want %v,%v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestLevelGating(t *testing.T) {
	var buf bytes.Buffer
	Configure(Options{Level: "warn", Output: &buf})
	t.Cleanup(func() { Configure(Options{Level: "info"}) })

	Infof("[DSP] hidden %d", 1)
	Warnf("[NET] shown %d", 2)
	_ = Sync()

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info message leaked at warn level: %q", out)
	}
	if !strings.Contains(out, "[NET] shown 2") {
		t.Errorf("warn message missing: %q", out)
	}
	if GetLevel() != LevelWarn {
		t.Errorf("GetLevel() = %v, want WARN", GetLevel())
	}

	SetLevel(LevelDebug)
	Debugf("now visible")
	_ = Sync()
	if !strings.Contains(buf.String(), "now visible") {
		t.Errorf("debug message missing after SetLevel(DEBUG)")
	}
}
