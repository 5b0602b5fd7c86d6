// SPDX-License-Identifier: MIT
package command

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"unicode"

	"beewatch/internal/config"
)

// MaxLineLength is the longest console line; extra characters are dropped.
const MaxLineLength = 63

var (
	// ErrUsage reports malformed command arguments.
	ErrUsage = errors.New("usage")
	// ErrUnknown reports an unrecognised command.
	ErrUnknown = errors.New("unknown command")
	// ErrEmpty reports a blank line.
	ErrEmpty = errors.New("empty command")
)

// Usage lines printed for malformed input.
const (
	UsageMockValues = "Usage: v<temp>,<hum>,<hour> e.g. v25.0,50.0,14.0"
	UsageGain       = "Usage: g<value> e.g. g0.4"
	UsageWifi       = "Usage: wifi <ssid> <password>"
	UsageServer     = "Usage: server <ip>[:port]"
	UsageCommands   = "Type 's', 'w', 't', 'd', 'a', 'm', 'c', 'g', 'p', 'v', 'wifi' or 'server'"
)

// Help lists the console commands.
const Help = `Commands:
  's' - Run Summer model inference
  'w' - Run Winter model inference
  't' - Read temperature/humidity
  'd' - Debug feature dump
  'a' - Stream audio to PC (a<seconds>, max 6)
  'm' - Toggle mock mode (for parity testing)
  'c' - Clear history (fresh start)
  'g' - Show/set gain compensation (e.g. g0.4)
  'v' - Set mock values (e.g. v25.0,50.0,14.0)
  'p' - Ping
  'wifi <ssid> <pass>' - Save WiFi credentials
  'server <ip>[:port]' - Save server address`

// Parse turns a console line into a Local command. Single letter commands
// are case-insensitive and take their argument directly after the letter.
func Parse(line string) (Command, error) {
	if len(line) > MaxLineLength {
		line = line[:MaxLineLength]
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return Command{}, ErrEmpty
	}

	word, rest, _ := strings.Cut(line, " ")
	switch strings.ToLower(word) {
	case "wifi":
		return Command{Kind: SetWifi, Params: strings.TrimSpace(rest), Origin: Local}, nil
	case "server":
		return Command{Kind: SetServer, Params: strings.TrimSpace(rest), Origin: Local}, nil
	}

	letter := rune(line[0])
	args := strings.TrimSpace(line[1:])
	c := Command{Origin: Local, Params: args}
	switch unicode.ToLower(letter) {
	case 's':
		c.Kind, c.Params = RunInference, ModelSummer
	case 'w':
		c.Kind, c.Params = RunInference, ModelWinter
	case 't':
		c.Kind, c.Params = ReadClimate, ""
	case 'a':
		c.Kind = CaptureAudioStream
	case 'm':
		c.Kind, c.Params = ToggleMock, ""
	case 'v':
		c.Kind = SetMockValues
	case 'c':
		c.Kind, c.Params = ClearHistory, ""
	case 'g':
		c.Kind = SetGain
	case 'd':
		c.Kind, c.Params = DebugDump, ""
	case 'p':
		c.Kind, c.Params = Ping, ""
	default:
		return Command{}, fmt.Errorf("%w: %c", ErrUnknown, letter)
	}
	return c, nil
}

// StreamSeconds returns the capture length for an audio stream command.
// Missing, non-positive or too long values select the maximum.
func StreamSeconds(params string) int {
	secs := config.MaxStreamSeconds
	if params != "" {
		secs = leadingInt(params)
	}
	if secs <= 0 || secs > config.MaxStreamSeconds {
		secs = config.MaxStreamSeconds
	}
	return secs
}

// leadingInt parses the integer prefix of s, returning 0 when there is none.
func leadingInt(s string) int {
	end := 0
	for end < len(s) && (s[end] >= '0' && s[end] <= '9' || end == 0 && (s[end] == '-' || s[end] == '+')) {
		end++
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return n
}

// Gain parses a gain argument. show is true when no value was given.
func Gain(params string) (value float64, show bool, err error) {
	if params == "" {
		return 0, true, nil
	}
	v, err := strconv.ParseFloat(params, 32)
	if err != nil {
		return 0, false, fmt.Errorf("%w: gain %q", ErrUsage, params)
	}
	return v, false, nil
}

// MockValues parses "<temp> <hum> <hour>"; commas and spaces both separate.
func MockValues(params string) (temp, hum, hour float32, err error) {
	fields := strings.FieldsFunc(params, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
	if len(fields) != 3 {
		return 0, 0, 0, fmt.Errorf("%w: mock values %q", ErrUsage, params)
	}
	var v [3]float32
	for i, f := range fields {
		x, err := strconv.ParseFloat(f, 32)
		if err != nil {
			return 0, 0, 0, fmt.Errorf("%w: mock value %q", ErrUsage, f)
		}
		v[i] = float32(x)
	}
	return v[0], v[1], v[2], nil
}

// Wifi parses "<ssid> <password>". The password may contain spaces.
func Wifi(params string) (ssid, pass string, err error) {
	ssid, pass, ok := strings.Cut(strings.TrimSpace(params), " ")
	pass = strings.TrimSpace(pass)
	if !ok || ssid == "" || pass == "" {
		return "", "", fmt.Errorf("%w: wifi %q", ErrUsage, params)
	}
	return ssid, pass, nil
}

// Server parses "<ip>[:port]". port is zero when not given.
func Server(params string) (ip string, port uint16, err error) {
	params = strings.TrimSpace(params)
	host := params
	if h, p, splitErr := net.SplitHostPort(params); splitErr == nil {
		n, convErr := strconv.ParseUint(p, 10, 16)
		if convErr != nil || n == 0 {
			return "", 0, fmt.Errorf("%w: server port %q", ErrUsage, p)
		}
		host, port = h, uint16(n)
	}
	addr := net.ParseIP(host)
	if addr == nil || addr.To4() == nil {
		return "", 0, fmt.Errorf("%w: server address %q", ErrUsage, params)
	}
	return host, port, nil
}
