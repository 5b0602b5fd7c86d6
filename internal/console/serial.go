// SPDX-License-Identifier: MIT
package console

import (
	"errors"
	"fmt"
	"io"
	"time"

	applog "beewatch/internal/log"

	"github.com/tarm/serial"
)

// serialReadTimeout bounds each Poll on the port.
const serialReadTimeout = 100 * time.Millisecond

// port is the part of *serial.Port the console uses.
type port interface {
	io.ReadWriteCloser
}

// SerialConsole reads commands from and writes replies to a serial port.
// Polls read directly from the port with a short timeout, so no goroutine is
// involved.
type SerialConsole struct {
	port  port
	asm   Assembler
	chunk [64]byte
}

// OpenSerial opens name at baud.
func OpenSerial(name string, baud int) (*SerialConsole, error) {
	p, err := serial.OpenPort(&serial.Config{Name: name, Baud: baud, ReadTimeout: serialReadTimeout})
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", name, err)
	}
	applog.Infof("[CONSOLE] Listening on %s at %d baud", name, baud)
	return newSerialConsole(p), nil
}

func newSerialConsole(p port) *SerialConsole {
	return &SerialConsole{port: p, asm: Assembler{MaxLine: defaultMaxLine}}
}

// Poll implements Input.
func (s *SerialConsole) Poll() (string, bool) {
	if line, ok := s.asm.Next(); ok {
		return line, true
	}
	n, err := s.port.Read(s.chunk[:])
	if n > 0 {
		s.asm.Feed(s.chunk[:n])
	}
	if err != nil && !errors.Is(err, io.EOF) {
		applog.Warnf("[CONSOLE] Serial read error: %v", err)
	}
	return s.asm.Next()
}

// Write sends p to the port, translating nothing.
func (s *SerialConsole) Write(p []byte) (int, error) {
	return s.port.Write(p)
}

// Close closes the port.
func (s *SerialConsole) Close() error {
	return s.port.Close()
}
