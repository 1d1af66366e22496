package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// WebhookAdapter POSTs notification events as JSON to a single URL.
type WebhookAdapter struct {
	url    string
	client *http.Client
}

// NewWebhookAdapter validates the target URL and returns the adapter.
func NewWebhookAdapter(url string) (*WebhookAdapter, error) {
	if strings.TrimSpace(url) == "" {
		return nil, errors.New("webhook URL is required")
	}
	return &WebhookAdapter{
		url: url,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

func (w *WebhookAdapter) Name() string {
	return "webhook"
}

// Send delivers one event. Any non-2xx response is an error carrying the
// response body for diagnosis.
func (w *WebhookAdapter) Send(ctx context.Context, event *Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewBuffer(payload))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("webhook error: %s: %s", resp.Status, string(body))
	}
	return nil
}

func (w *WebhookAdapter) Close() error {
	return nil
}
