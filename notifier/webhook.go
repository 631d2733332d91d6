package notifier

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/segmentio/encoding/json"
)

// Notifier posts a rendered notification body through the channel. Any
// channel that reports success or failure qualifies.
type Notifier interface {
	Post(ctx context.Context, text string) error
}

// WebhookNotifier posts status updates to a webhook endpoint.
type WebhookNotifier struct {
	url    string
	client *http.Client
}

type statusPayload struct {
	Status string `json:"status"`
}

// NewWebhookNotifier creates a new WebhookNotifier
func NewWebhookNotifier(config NotifierConfig) *WebhookNotifier {
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &WebhookNotifier{
		url:    config.WebhookURL,
		client: &http.Client{Timeout: timeout},
	}
}

// Post sends the text as a JSON status payload. Non-2xx responses are
// channel errors; the caller retries via queue redelivery.
func (n *WebhookNotifier) Post(ctx context.Context, text string) error {
	body, err := json.Marshal(statusPayload{Status: text})
	if err != nil {
		return fmt.Errorf("notifier: marshal status: %v: %w", err, ErrChannel)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("notifier: %v: %w", err, ErrChannel)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("notifier: %v: %w", err, ErrChannel)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("notifier: status %d: %w", resp.StatusCode, ErrChannel)
	}

	return nil
}
