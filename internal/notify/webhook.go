package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/vietddude/seqproxy/internal/core/domain"
)

// WebhookConfig holds the spreadsheet/webhook endpoint settings.
type WebhookConfig struct {
	URL string `yaml:"url"`
}

// WebhookSink posts each notification as JSON to a fixed URL.
type WebhookSink struct {
	url        string
	httpClient *http.Client
}

// NewWebhookSink creates a webhook sink. The per-call deadline comes from the
// dispatcher's context.
func NewWebhookSink(cfg WebhookConfig) *WebhookSink {
	return &WebhookSink{
		url:        cfg.URL,
		httpClient: &http.Client{},
	}
}

// Name implements Sink.
func (s *WebhookSink) Name() string { return "webhook" }

// Write implements Sink.
func (s *WebhookSink) Write(ctx context.Context, n domain.Notification) error {
	jsonData, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("webhook call: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook returned status: %d", resp.StatusCode)
	}
	return nil
}

// Close releases idle connections.
func (s *WebhookSink) Close() error {
	s.httpClient.CloseIdleConnections()
	return nil
}
