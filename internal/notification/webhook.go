package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// WebhookChannel posts notifications to an external endpoint. Used as the
// fallback when email delivery fails or is disabled.
type WebhookChannel struct {
	url    string
	client *http.Client
}

func NewWebhookChannel(url string) *WebhookChannel {
	return &WebhookChannel{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (w *WebhookChannel) Name() string { return "webhook" }

type webhookPayload struct {
	AgentID   string     `json:"agentId"`
	EventType string     `json:"eventType"`
	Subject   string     `json:"subject"`
	Body      string     `json:"body"`
	ActionURL string     `json:"actionUrl,omitempty"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

func (w *WebhookChannel) Send(ctx context.Context, msg Message) error {
	if w.url == "" {
		return fmt.Errorf("webhook url not configured")
	}

	body, err := json.Marshal(webhookPayload{
		AgentID:   msg.AgentID,
		EventType: msg.EventType,
		Subject:   msg.Subject,
		Body:      msg.Body,
		ActionURL: msg.ActionURL,
		ExpiresAt: msg.ExpiresAt,
	})
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	return nil
}
