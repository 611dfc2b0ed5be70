package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// Sender posts a visit payload and returns the response status code.
type Sender interface {
	Send(ctx context.Context, correlationID string, payload VisitPayload) (int, error)
}

// WebhookClient delivers visits to the sales system over HTTP.
type WebhookClient struct {
	httpClient *resty.Client
	url        string
}

func NewWebhookClient(url, token string, timeout time.Duration) *WebhookClient {
	client := resty.New().
		SetTimeout(timeout).
		SetAuthToken(token).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &WebhookClient{httpClient: client, url: url}
}

// Send treats any non-2xx response as a failure.
func (c *WebhookClient) Send(ctx context.Context, correlationID string, payload VisitPayload) (int, error) {
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetHeader("Idempotency-Key", correlationID).
		SetBody(payload).
		Post(c.url)
	if err != nil {
		return 0, fmt.Errorf("failed to post visit: %w", err)
	}
	if !resp.IsSuccess() {
		return resp.StatusCode(), fmt.Errorf("visit webhook returned %d: %s", resp.StatusCode(), truncate(resp.String(), 300))
	}
	return resp.StatusCode(), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
