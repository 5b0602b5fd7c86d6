// SPDX-License-Identifier: MIT

// Package command defines the node's commands and the queue that feeds them
// to the control loop.
package command

import "fmt"

// Kind is the operation a command performs.
type Kind int

const (
	ReadClimate Kind = iota
	RunInference
	CaptureAudioStream
	ToggleMock
	SetMockValues
	ClearHistory
	SetGain
	DebugDump
	Ping
	SetWifi
	SetServer
)

var kindNames = [...]string{
	ReadClimate:        "read_climate",
	RunInference:       "run_inference",
	CaptureAudioStream: "capture_audio_stream",
	ToggleMock:         "toggle_mock",
	SetMockValues:      "set_mock_values",
	ClearHistory:       "clear_history",
	SetGain:            "set_gain",
	DebugDump:          "debug_dump",
	Ping:               "ping",
	SetWifi:            "set_wifi",
	SetServer:          "set_server",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Origin tells where a command came from.
type Origin int

const (
	Local  Origin = iota // Console input
	Remote               // Polled from the server
)

func (o Origin) String() string {
	if o == Remote {
		return "remote"
	}
	return "local"
}

// Inference model parameters.
const (
	ModelSummer = "summer"
	ModelWinter = "winter"
)

// Command is one queued operation. Params is the raw argument text; the
// helpers in this package parse it for each kind.
type Command struct {
	Kind   Kind
	Params string
	Origin Origin
}

func (c Command) String() string {
	if c.Params == "" {
		return fmt.Sprintf("%s(%s)", c.Kind, c.Origin)
	}
	return fmt.Sprintf("%s[%s](%s)", c.Kind, c.Params, c.Origin)
}

// Queue is an unbounded FIFO of commands. It is owned by the control loop and
// is not safe for concurrent use.
type Queue struct {
	items []Command
	head  int
}

// Push appends c.
func (q *Queue) Push(c Command) {
	q.items = append(q.items, c)
}

// Pop removes and returns the oldest command.
func (q *Queue) Pop() (Command, bool) {
	if q.head >= len(q.items) {
		return Command{}, false
	}
	c := q.items[q.head]
	q.items[q.head] = Command{}
	q.head++
	if q.head == len(q.items) {
		q.items = q.items[:0]
		q.head = 0
	}
	return c, true
}

// Len returns the number of queued commands.
func (q *Queue) Len() int { return len(q.items) - q.head }
