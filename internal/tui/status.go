// SPDX-License-Identifier: MIT
package tui

import (
	"fmt"
	"strings"

	"beewatch/internal/classifier"

	"github.com/charmbracelet/lipgloss"
)

// Hive states shown by the status panel.
const (
	StateSwarming = "SWARMING / PIPING"
	StateNormal   = "NORMAL STATE"
)

var (
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("#25A065")).
			Padding(0, 1)

	alertStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5F5F")).
			Bold(true)

	okStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#25A065")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888"))
)

// HiveStatus is one summer classification as shown to the beekeeper.
type HiveStatus struct {
	Alert      bool
	Confidence float32 // Best label score, 0-1
	Spike      float32
	Mock       bool
	MockTemp   float32
	MockHum    float32
	Labels     []classifier.Label
}

// State returns the hive state label.
func (s HiveStatus) State() string {
	if s.Alert {
		return StateSwarming
	}
	return StateNormal
}

// RenderHiveStatus draws the status panel.
func RenderHiveStatus(s HiveStatus) string {
	marker, style := "OK", okStyle
	if s.Alert {
		marker, style = "!!", alertStyle
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("HIVE STATUS"))
	b.WriteString("\n")
	fmt.Fprintf(&b, "State:           %s\n", style.Render("["+marker+"] "+s.State()))
	fmt.Fprintf(&b, "Confidence:      %.1f%%\n", s.Confidence*100)
	fmt.Fprintf(&b, "Activity(Spike): %.2f\n", s.Spike)
	if s.Mock {
		fmt.Fprintf(&b, "Mode:            MOCK (temp=%.1f, hum=%.1f)\n", s.MockTemp, s.MockHum)
	}

	probs := make([]string, len(s.Labels))
	for i, l := range s.Labels {
		probs[i] = fmt.Sprintf("%s: %.3f", l.Name, l.Score)
	}
	b.WriteString(dimStyle.Render("Raw Probs:       [" + strings.Join(probs, ", ") + "]"))

	return panelStyle.Render(b.String())
}
