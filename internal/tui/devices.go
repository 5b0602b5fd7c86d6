// SPDX-License-Identifier: MIT

// Package tui holds the terminal views: the microphone picker and the hive
// status panel.
package tui

import (
	"fmt"
	"strings"

	"beewatch/internal/audio/device"
	"beewatch/internal/config"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5")).
			Background(lipgloss.Color("#25A065")).
			Padding(0, 1).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5"))

	highlightStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#25A065")).
			Bold(true)
)

var (
	keyQuit   = key.NewBinding(key.WithKeys("q", "ctrl+c"))
	keyUp     = key.NewBinding(key.WithKeys("up", "k"))
	keyDown   = key.NewBinding(key.WithKeys("down", "j"))
	keySelect = key.NewBinding(key.WithKeys("enter"))
)

// DevicePickerModel lists the input devices and lets the user pick the
// microphone the node captures from.
type DevicePickerModel struct {
	fetch         func() ([]device.Device, error)
	devices       []device.Device
	selectedIndex int
	chosen        *device.Device
	viewport      viewport.Model
	ready         bool
	err           error
}

type devicesMsg struct {
	devices []device.Device
}

type errMsg struct {
	err error
}

// NewDevicePickerModel returns a picker listing the PortAudio input devices.
func NewDevicePickerModel() DevicePickerModel {
	return newDevicePickerModel(device.GetDevices)
}

func newDevicePickerModel(fetch func() ([]device.Device, error)) DevicePickerModel {
	return DevicePickerModel{fetch: fetch}
}

// Init fetches the devices.
func (m DevicePickerModel) Init() tea.Cmd {
	fetch := m.fetch
	return func() tea.Msg {
		devices, err := fetch()
		if err != nil {
			return errMsg{err}
		}
		return devicesMsg{inputsOnly(devices)}
	}
}

// inputsOnly drops devices without input channels.
func inputsOnly(devices []device.Device) []device.Device {
	var out []device.Device
	for _, d := range devices {
		if d.MaxInputChannels > 0 {
			out = append(out, d)
		}
	}
	return out
}

// Update handles input and updates the model.
func (m DevicePickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-4)
			m.viewport.Style = lipgloss.NewStyle()
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - 4
		}
		m.viewport.SetContent(m.renderDevices())

	case devicesMsg:
		m.devices = msg.devices
		if m.ready {
			m.viewport.SetContent(m.renderDevices())
		}

	case errMsg:
		m.err = msg.err

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keyQuit):
			return m, tea.Quit
		case m.err != nil:
			return m, tea.Quit
		case key.Matches(msg, keyUp):
			if m.selectedIndex > 0 {
				m.selectedIndex--
			}
		case key.Matches(msg, keyDown):
			if m.selectedIndex < len(m.devices)-1 {
				m.selectedIndex++
			}
		case key.Matches(msg, keySelect):
			if len(m.devices) > 0 {
				d := m.devices[m.selectedIndex]
				m.chosen = &d
				return m, tea.Quit
			}
		}
		if m.ready {
			m.viewport.SetContent(m.renderDevices())
		}
	}

	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the UI.
func (m DevicePickerModel) View() string {
	if m.err != nil {
		return fmt.Sprintf("Error: %v\n\nPress any key to exit.", m.err)
	}
	if !m.ready {
		return "Initializing..."
	}

	title := titleStyle.Render("Select Hive Microphone")
	help := infoStyle.Render("↑/↓: Navigate • Enter: Select • q: Quit")
	return fmt.Sprintf("%s\n\n%s\n\n%s", title, m.viewport.View(), help)
}

// Chosen returns the selected device once the user pressed enter.
func (m DevicePickerModel) Chosen() (device.Device, bool) {
	if m.chosen == nil {
		return device.Device{}, false
	}
	return *m.chosen, true
}

func (m DevicePickerModel) renderDevices() string {
	if len(m.devices) == 0 {
		return "No input devices found."
	}

	var sb strings.Builder
	for i, d := range m.devices {
		info := fmt.Sprintf("[%d] %s\n", d.ID, d.Name)
		info += fmt.Sprintf("    Input channels: %d, default rate %.0f Hz", d.MaxInputChannels, d.DefaultSampleRate)
		if d.DefaultSampleRate != config.SampleRateHz {
			info += fmt.Sprintf(" (opened at %d Hz)", config.SampleRateHz)
		}
		info += "\n"

		if i == m.selectedIndex {
			info = highlightStyle.Render("▶ " + info)
		} else {
			info = "  " + info
		}
		sb.WriteString(info)
		sb.WriteString("\n")
	}
	return sb.String()
}

// ConfigSnippet returns the YAML selecting d as the node microphone.
func ConfigSnippet(d device.Device) string {
	return fmt.Sprintf("audio:\n  source: %s\n  input_device: %d # %s\n", config.SourceMicrophone, d.ID, d.Name)
}

// PickDevice runs the picker and returns the chosen device. ok is false when
// the user quit without choosing.
func PickDevice() (d device.Device, ok bool, err error) {
	p := tea.NewProgram(NewDevicePickerModel(), tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return device.Device{}, false, err
	}
	if m, isPicker := final.(DevicePickerModel); isPicker {
		if m.err != nil {
			return device.Device{}, false, m.err
		}
		d, ok = m.Chosen()
	}
	return d, ok, nil
}
