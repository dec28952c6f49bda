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
)

const defaultTelegramBaseURL = "https://api.telegram.org"

// Telegram sends markdown alerts to a bot channel. A disabled sender is
// a successful no-op so callers never branch on configuration.
type Telegram struct {
	enabled     bool
	token       string
	chatID      string
	displayName string
	baseURL     string
	client      *http.Client
}

// NewTelegram returns an alert sender. baseURL overrides the Telegram
// API host and exists for tests; pass "" for the real endpoint.
func NewTelegram(enabled bool, token, chatID, displayName, baseURL string) *Telegram {
	if baseURL == "" {
		baseURL = defaultTelegramBaseURL
	}
	if displayName == "" {
		displayName = "SDRTrunk-Monitor"
	}
	return &Telegram{
		enabled:     enabled,
		token:       token,
		chatID:      chatID,
		displayName: displayName,
		baseURL:     baseURL,
		client:      newClient(),
	}
}

// Send posts text to the configured channel, prefixed with the display
// name. Only HTTP 200 counts as delivered.
func (t *Telegram) Send(ctx context.Context, text string) error {
	if !t.enabled {
		return nil
	}
	if strings.TrimSpace(t.token) == "" || strings.TrimSpace(t.chatID) == "" {
		return errors.New("telegram bot token or chat id not configured")
	}

	payload := map[string]string{
		"chat_id":    t.chatID,
		"text":       fmt.Sprintf("🚨 **%s**\n\n%s", t.displayName, text),
		"parse_mode": "Markdown",
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal telegram message: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	url := strings.TrimRight(t.baseURL, "/") + "/bot" + t.token + "/sendMessage"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("post telegram message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("telegram unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(excerpt)))
	}

	if _, err := io.Copy(io.Discard, resp.Body); err != nil {
		return fmt.Errorf("drain response body: %w", err)
	}
	return nil
}
