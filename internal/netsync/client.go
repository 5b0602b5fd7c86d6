// SPDX-License-Identifier: MIT
package netsync

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"runtime"
	"strconv"
	"time"

	"beewatch/internal/config"
	applog "beewatch/internal/log"
)

// Response is what came back from the server. StatusCode is zero when the
// status line never arrived.
type Response struct {
	StatusCode int
	Body       []byte
	Partial    bool
}

// OK reports whether the response should be treated as accepted.
func (r Response) OK() bool {
	return r.StatusCode == 0 || r.StatusCode/100 == 2
}

// Client performs blocking requests against one server. Requests are
// serialised by the caller; the client holds no connection between them.
type Client struct {
	dialer  Dialer
	addr    string
	timeout time.Duration
	slice   time.Duration
	now     func() time.Time
	yield   func()
}

// NewClient returns a client for the server at addr (host:port).
func NewClient(addr string, cfg config.NetworkConfig) *Client {
	return &Client{
		dialer:  &net.Dialer{},
		addr:    addr,
		timeout: cfg.Timeout,
		slice:   cfg.PollSlice,
		now:     time.Now,
		yield:   runtime.Gosched,
	}
}

// Addr returns the server address.
func (c *Client) Addr() string { return c.addr }

// SetAddr points later requests at a new server.
func (c *Client) SetAddr(addr string) { c.addr = addr }

// Start prepares an exchange without running it.
func (c *Client) Start(method, path string, body []byte) (*Exchange, error) {
	raw, err := encodeRequest(method, c.addr, path, body)
	if err != nil {
		return nil, err
	}
	return &Exchange{
		state:    Idle,
		dialer:   c.dialer,
		addr:     c.addr,
		request:  raw,
		deadline: c.now().Add(c.timeout),
		slice:    c.slice,
		now:      c.now,
	}, nil
}

// PerformRequest sends one request and waits for the server to close the
// connection, the transport to fail, or the timeout to pass. A timeout after
// some bytes arrived still counts as success.
func (c *Client) PerformRequest(ctx context.Context, method, path string, body []byte) (Response, error) {
	ex, err := c.Start(method, path, body)
	if err != nil {
		return Response{}, err
	}
	for !ex.Done() {
		ex.Poll(ctx)
		c.yield()
	}
	if ex.State() == Failed {
		applog.Debugf("[NET] %s %s failed: %v", method, path, ex.Err())
		return Response{}, ex.Err()
	}
	resp := parseResponse(ex.Received())
	resp.Partial = ex.Partial()
	applog.Debugf("[NET] %s %s -> %d (%d bytes)", method, path, resp.StatusCode, len(resp.Body))
	return resp, nil
}

func encodeRequest(method, addr, path string, body []byte) ([]byte, error) {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequest(method, "http://"+addr+path, rd)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Close = true
	req.Header.Set("User-Agent", "beewatch")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	var buf bytes.Buffer
	if err := req.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}
	return buf.Bytes(), nil
}

// parseResponse splits raw bytes into status and body. Truncated responses
// keep whatever body bytes arrived.
func parseResponse(raw []byte) Response {
	if resp, err := http.ReadResponse(bufio.NewReader(bytes.NewReader(raw)), nil); err == nil {
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		if err == nil {
			return Response{StatusCode: resp.StatusCode, Body: body}
		}
	}

	var r Response
	head, body, found := bytes.Cut(raw, []byte("\r\n\r\n"))
	if !found {
		r.Body = raw
		return r
	}
	r.Body = body
	line, _, _ := bytes.Cut(head, []byte("\r\n"))
	if fields := bytes.Fields(line); len(fields) >= 2 && bytes.HasPrefix(fields[0], []byte("HTTP/")) {
		r.StatusCode, _ = strconv.Atoi(string(fields[1]))
	}
	return r
}
