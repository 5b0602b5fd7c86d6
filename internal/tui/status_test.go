// SPDX-License-Identifier: MIT
package tui

import (
	"strings"
	"testing"

	"beewatch/internal/classifier"
)

func TestRenderHiveStatus(t *testing.T) {
	tests := []struct {
		name   string
		status HiveStatus
		want   []string
		absent []string
	}{
		{
			name: "swarming",
			status: HiveStatus{
				Alert:      true,
				Confidence: 0.912,
				Spike:      3.5,
				Labels:     []classifier.Label{{Name: "Normal", Score: 0.088}, {Name: "Event", Score: 0.912}},
			},
			want:   []string{"HIVE STATUS", "[!!] SWARMING / PIPING", "91.2%", "3.50", "Normal: 0.088", "Event: 0.912"},
			absent: []string{"MOCK"},
		},
		{
			name: "normal in mock mode",
			status: HiveStatus{
				Confidence: 1,
				Mock:       true,
				MockTemp:   25,
				MockHum:    50,
				Labels:     []classifier.Label{{Name: "Normal", Score: 1}},
			},
			want: []string{"[OK] NORMAL STATE", "100.0%", "MOCK (temp=25.0, hum=50.0)"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RenderHiveStatus(tt.status)
			for _, w := range tt.want {
				if !strings.Contains(got, w) {
					t.Errorf("panel missing %q:\n%s", w, got)
				}
			}
			for _, a := range tt.absent {
				if strings.Contains(got, a) {
					t.Errorf("panel unexpectedly contains %q:\n%s", a, got)
				}
			}
		})
	}
}
