package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// WebhookMailer POSTs each message as JSON to a mail relay.
type WebhookMailer struct {
	url    string
	client *http.Client
}

func NewWebhookMailer(url string, timeout time.Duration) *WebhookMailer {
	return &WebhookMailer{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

func (m *WebhookMailer) Send(ctx context.Context, msg Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("mail relay unreachable: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("mail relay answered %d", resp.StatusCode)
	}
	return nil
}
