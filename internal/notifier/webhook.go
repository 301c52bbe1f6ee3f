package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Lutefd/logpulse/internal/model"
)

type webhookPayload struct {
	Recipient string      `json:"recipient"`
	Alert     model.Alert `json:"alert"`
	Text      string      `json:"text"`
}

type WebhookNotifier struct {
	client *http.Client
	url    string
}

func NewWebhookNotifier(url string, timeout time.Duration) *WebhookNotifier {
	return &WebhookNotifier{
		client: &http.Client{Timeout: timeout},
		url:    url,
	}
}

func (n *WebhookNotifier) Send(ctx context.Context, recipient model.Recipient, alert model.Alert) error {
	body, err := json.Marshal(webhookPayload{Recipient: recipient.ID, Alert: alert, Text: alert.Text()})
	if err != nil {
		return fmt.Errorf("failed to encode alert: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send webhook: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook responded with %s", resp.Status)
	}
	return nil
}
