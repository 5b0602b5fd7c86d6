// SPDX-License-Identifier: MIT
package netsync

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"beewatch/internal/command"
	applog "beewatch/internal/log"
)

// API paths.
const (
	PathPending   = "/api/v1/commands/pending"
	PathTelemetry = "/api/v1/telemetry/"
	PathInference = "/api/v1/inference/"
	PathLogs      = "/api/v1/logs/"
)

// Command markers recognised in a pending commands response.
const (
	MarkerInference = "RUN_INFERENCE"
	MarkerClimate   = "READ_CLIMATE"
	MarkerPing      = "PING"
	markerWinter    = "winter"
)

// ScanCommands finds the recognised markers in body and returns one Remote
// command per marker, in a fixed order. This is a substring search, not a
// parse of the response.
func ScanCommands(body []byte) []command.Command {
	var cmds []command.Command
	if bytes.Contains(body, []byte(MarkerInference)) {
		model := command.ModelSummer
		if bytes.Contains(body, []byte(markerWinter)) {
			model = command.ModelWinter
		}
		cmds = append(cmds, command.Command{Kind: command.RunInference, Params: model, Origin: command.Remote})
	}
	if bytes.Contains(body, []byte(MarkerClimate)) {
		cmds = append(cmds, command.Command{Kind: command.ReadClimate, Origin: command.Remote})
	}
	if bytes.Contains(body, []byte(MarkerPing)) {
		cmds = append(cmds, command.Command{Kind: command.Ping, Origin: command.Remote})
	}
	return cmds
}

// Syncer polls the server for pending commands on a fixed interval.
type Syncer struct {
	client   *Client
	interval time.Duration
	last     time.Time
}

// NewSyncer returns a syncer that is due immediately.
func NewSyncer(client *Client, interval time.Duration) *Syncer {
	return &Syncer{client: client, interval: interval}
}

// Due reports whether a poll should run at now.
func (s *Syncer) Due(now time.Time) bool {
	return s.last.IsZero() || now.Sub(s.last) >= s.interval
}

// Sync fetches the pending commands for nodeID. Failures are logged and
// yield no commands; the next interval tries again.
func (s *Syncer) Sync(ctx context.Context, now time.Time, nodeID string) ([]command.Command, error) {
	s.last = now

	path := PathPending + "?" + url.Values{"node_id": {nodeID}}.Encode()
	resp, err := s.client.PerformRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		applog.Debugf("[NET] Command poll skipped: %v", err)
		return nil, err
	}
	if !resp.OK() {
		applog.Warnf("[NET] Command poll returned HTTP %d", resp.StatusCode)
		return nil, fmt.Errorf("command poll: HTTP %d", resp.StatusCode)
	}
	cmds := ScanCommands(resp.Body)
	for _, c := range cmds {
		applog.Infof("[NET] Remote command: %s", c)
	}
	return cmds, nil
}
