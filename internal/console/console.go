// SPDX-License-Identifier: MIT

// Package console provides the local command line: a non-blocking line
// input and the writer user-visible replies go to.
package console

import (
	"bufio"
	"io"
	"os"
	"strings"

	"beewatch/internal/config"
	applog "beewatch/internal/log"
)

// Input yields complete lines without blocking.
type Input interface {
	Poll() (line string, ok bool)
}

// Console pairs an input with the writer for replies.
type Console struct {
	Input
	Out    io.Writer
	closer io.Closer
}

// Close releases the underlying device.
func (c *Console) Close() error {
	if c.closer == nil {
		return nil
	}
	return c.closer.Close()
}

// Open returns the serial console in cfg, or stdin/stdout when no port is
// set.
func Open(cfg config.ConsoleConfig) (*Console, error) {
	if cfg.SerialPort == "" {
		return &Console{Input: NewReaderInput(os.Stdin), Out: os.Stdout}, nil
	}
	port, err := OpenSerial(cfg.SerialPort, cfg.BaudRate)
	if err != nil {
		return nil, err
	}
	return &Console{Input: port, Out: port, closer: port}, nil
}

// ReaderInput reads lines from r on its own goroutine, since a terminal
// cannot be polled portably. Poll never blocks.
type ReaderInput struct {
	lines chan string
}

// NewReaderInput starts reading r until EOF.
func NewReaderInput(r io.Reader) *ReaderInput {
	in := &ReaderInput{lines: make(chan string, 16)}
	go in.run(r)
	return in
}

func (in *ReaderInput) run(r io.Reader) {
	defer close(in.lines)
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		in.lines <- line
	}
	if err := sc.Err(); err != nil {
		applog.Warnf("[CONSOLE] Input closed: %v", err)
	}
}

// Poll implements Input.
func (in *ReaderInput) Poll() (string, bool) {
	select {
	case line, ok := <-in.lines:
		return line, ok
	default:
		return "", false
	}
}

// Assembler collects bytes into lines the way the firmware's command buffer
// does: CR or LF ends a line, blank lines are dropped and characters past
// MaxLine are discarded.
type Assembler struct {
	MaxLine int
	buf     []byte
	ready   []string
}

// Feed adds received bytes.
func (a *Assembler) Feed(p []byte) {
	for _, b := range p {
		switch b {
		case '\r', '\n':
			if line := strings.TrimSpace(string(a.buf)); line != "" {
				a.ready = append(a.ready, line)
			}
			a.buf = a.buf[:0]
		default:
			if a.MaxLine <= 0 || len(a.buf) < a.MaxLine {
				a.buf = append(a.buf, b)
			}
		}
	}
}

// Next pops the oldest complete line.
func (a *Assembler) Next() (string, bool) {
	if len(a.ready) == 0 {
		return "", false
	}
	line := a.ready[0]
	a.ready = a.ready[1:]
	return line, true
}

// defaultMaxLine matches the firmware's 64 byte command buffer.
const defaultMaxLine = 63
