// Package notify delivers the outbound heartbeat and alert messages.
// Both paths are best-effort with a bounded timeout; failures are for
// the caller to log, never to abort a cycle over.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const requestTimeout = 10 * time.Second

// Status is the heartbeat payload.
type Status struct {
	Timestamp           string `json:"timestamp"`
	Status              string `json:"status"`
	Running             bool   `json:"sdrtrunk_running"`
	AudioFilesProcessed int    `json:"audio_files_processed"`
	Username            string `json:"username"`
	Hostname            string `json:"hostname"`
	AgentID             string `json:"agent_id"`
}

// Heartbeat posts the healthy-status document to the configured
// endpoint. Only HTTP 200 counts as delivered.
type Heartbeat struct {
	url    string
	client *http.Client
}

// NewHeartbeat returns a Heartbeat sender for the given endpoint.
func NewHeartbeat(url string) *Heartbeat {
	return &Heartbeat{
		url:    url,
		client: newClient(),
	}
}

// Send posts the status document. The request is bounded by the
// package timeout regardless of the caller's context.
func (h *Heartbeat) Send(ctx context.Context, status Status) error {
	body, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("marshal heartbeat: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("post heartbeat: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("heartbeat unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(excerpt)))
	}

	if _, err := io.Copy(io.Discard, resp.Body); err != nil {
		return fmt.Errorf("drain response body: %w", err)
	}
	return nil
}

func newClient() *http.Client {
	return &http.Client{
		Timeout:   requestTimeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
}
