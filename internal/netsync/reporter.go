// SPDX-License-Identifier: MIT
package netsync

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"beewatch/internal/report"
)

// Reporter posts reports to the server with Client.
type Reporter struct {
	client *Client
}

// NewReporter returns a reporter using client.
func NewReporter(client *Client) *Reporter {
	return &Reporter{client: client}
}

func (r *Reporter) post(ctx context.Context, path string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	resp, err := r.client.PerformRequest(ctx, http.MethodPost, path, body)
	if err != nil {
		return fmt.Errorf("post %s: %w", path, err)
	}
	if !resp.OK() {
		return fmt.Errorf("post %s: HTTP %d", path, resp.StatusCode)
	}
	return nil
}

// Telemetry implements report.Reporter.
func (r *Reporter) Telemetry(ctx context.Context, t report.Telemetry) error {
	return r.post(ctx, PathTelemetry, t)
}

// Inference implements report.Reporter.
func (r *Reporter) Inference(ctx context.Context, i report.Inference) error {
	return r.post(ctx, PathInference, i)
}

// Log implements report.Reporter.
func (r *Reporter) Log(ctx context.Context, l report.Log) error {
	return r.post(ctx, PathLogs, l)
}

var _ report.Reporter = (*Reporter)(nil)
