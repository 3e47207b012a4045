// Package notify delivers progress events to the external socket relay.
// Delivery is best-effort: failures are logged, never retried, and never
// surfaced to the end user.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// Event is the relay payload. DatasetID keys the event to the entity the
// client is watching, typically a node id.
type Event struct {
	IsSuccess bool        `json:"isSuccess"`
	Action    string      `json:"action"`
	DatasetID string      `json:"datasetId"`
	Data      interface{} `json:"data,omitempty"`
}

// Sender posts events to an external notification endpoint.
type Sender interface {
	PostEvent(ctx context.Context, event *Event) error
}

// SocketSender posts events to the socket relay over HTTP.
type SocketSender struct {
	url    string
	client *http.Client
	logger *slog.Logger
}

// NewSocketSender creates a sender targeting the given relay URL.
func NewSocketSender(url string, logger *slog.Logger) *SocketSender {
	return &SocketSender{
		url: url,
		client: &http.Client{
			Timeout: 5 * time.Second,
		},
		logger: logger,
	}
}

// PostEvent delivers one event. A non-2xx response counts as failure so
// callers can log it, but callers are expected to drop the error.
func (s *SocketSender) PostEvent(ctx context.Context, event *Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build relay request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("post event: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("post event: relay responded %d", resp.StatusCode)
	}

	return nil
}
