// SPDX-License-Identifier: MIT

// Package netsync talks to the hive server: it polls for pending commands
// and posts reports over short lived HTTP connections.
package netsync

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	applog "beewatch/internal/log"
)

var (
	// ErrConnect reports a failed dial or request write.
	ErrConnect = errors.New("connect failed")
	// ErrTimeout reports a request that received nothing before its deadline.
	ErrTimeout = errors.New("request timed out")
	// ErrTransport reports a connection error while receiving.
	ErrTransport = errors.New("transport error")
)

// State is the progress of one request.
type State int

const (
	Idle State = iota
	Connecting
	Receiving
	Complete
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Connecting:
		return "connecting"
	case Receiving:
		return "receiving"
	case Complete:
		return "complete"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Dialer opens connections to the server.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// Exchange is a single request/response over its own connection. Poll moves
// it through Idle, Connecting, Receiving and finally Complete or Failed. The
// response buffer belongs to the exchange.
type Exchange struct {
	state    State
	dialer   Dialer
	addr     string
	request  []byte
	deadline time.Time
	slice    time.Duration
	now      func() time.Time

	conn    net.Conn
	buf     bytes.Buffer
	chunk   [512]byte
	partial bool
	err     error
}

// State returns the current state.
func (e *Exchange) State() State { return e.state }

// Done reports whether the exchange reached Complete or Failed.
func (e *Exchange) Done() bool { return e.state == Complete || e.state == Failed }

// Received returns the bytes read so far.
func (e *Exchange) Received() []byte { return e.buf.Bytes() }

// Partial reports whether the exchange completed on timeout with a truncated
// response.
func (e *Exchange) Partial() bool { return e.partial }

// Err returns the failure cause once the exchange failed.
func (e *Exchange) Err() error { return e.err }

// Poll advances the exchange by one step. Each step blocks for at most one
// read slice, or the dial, which is bounded by the request deadline.
func (e *Exchange) Poll(ctx context.Context) State {
	if e.Done() {
		return e.state
	}
	if err := ctx.Err(); err != nil {
		e.fail(err)
		return e.state
	}

	switch e.state {
	case Idle:
		e.state = Connecting
	case Connecting:
		e.connect(ctx)
	case Receiving:
		e.receive()
	}
	return e.state
}

func (e *Exchange) connect(ctx context.Context) {
	dctx, cancel := context.WithDeadline(ctx, e.deadline)
	defer cancel()

	conn, err := e.dialer.DialContext(dctx, "tcp", e.addr)
	if err != nil {
		e.fail(fmt.Errorf("%w: %s: %v", ErrConnect, e.addr, err))
		return
	}
	e.conn = conn

	if err := conn.SetWriteDeadline(e.deadline); err != nil {
		e.fail(fmt.Errorf("%w: %v", ErrConnect, err))
		return
	}
	if _, err := conn.Write(e.request); err != nil {
		e.fail(fmt.Errorf("%w: write request: %v", ErrConnect, err))
		return
	}
	e.state = Receiving
}

func (e *Exchange) receive() {
	now := e.now()
	if !now.Before(e.deadline) {
		e.expire()
		return
	}

	readBy := now.Add(e.slice)
	if readBy.After(e.deadline) {
		readBy = e.deadline
	}
	if err := e.conn.SetReadDeadline(readBy); err != nil {
		e.fail(fmt.Errorf("%w: %v", ErrTransport, err))
		return
	}

	n, err := e.conn.Read(e.chunk[:])
	e.buf.Write(e.chunk[:n])

	switch {
	case err == nil:
	case errors.Is(err, io.EOF):
		e.finish()
	case isTimeout(err):
		// Nothing this slice, keep waiting.
	default:
		e.fail(fmt.Errorf("%w: %v", ErrTransport, err))
	}
}

// expire handles the request deadline. A response that already started is
// accepted as is.
func (e *Exchange) expire() {
	if e.buf.Len() > 0 {
		applog.Warnf("[NET] Timeout after %d bytes, accepting partial response", e.buf.Len())
		e.partial = true
		e.finish()
		return
	}
	e.fail(ErrTimeout)
}

func (e *Exchange) finish() {
	e.close()
	e.state = Complete
}

func (e *Exchange) fail(err error) {
	e.close()
	e.err = err
	e.state = Failed
}

func (e *Exchange) close() {
	if e.conn != nil {
		e.conn.Close()
		e.conn = nil
	}
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
