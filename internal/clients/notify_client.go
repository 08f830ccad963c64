// internal/clients/notify_client.go
package clients

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// NotifyClient delivers reminder messages to an external notification
// service over HTTP. It satisfies reminders.Notifier.
type NotifyClient struct {
	baseURL string
}

func NewNotifyClient(baseURL string) *NotifyClient {
	return &NotifyClient{baseURL: baseURL}
}

func (c *NotifyClient) Send(ctx context.Context, recipient, subject, body string) error {
	payload, err := json.Marshal(map[string]string{
		"recipient": recipient,
		"subject":   subject,
		"body":      body,
	})
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/notifications", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("send notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	return nil
}

// LogNotifier writes notifications to the log instead of sending them.
// Used for local runs without a notification service.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n LogNotifier) Send(ctx context.Context, recipient, subject, body string) error {
	logger := n.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "notification (not sent)",
		"recipient", recipient, "subject", subject, "body", body)
	return nil
}
