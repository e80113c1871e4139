// Package notify sends usage threshold alerts through the Telegram bot API.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultBaseURL is the Telegram bot API endpoint.
const DefaultBaseURL = "https://api.telegram.org"

// TelegramClient sends messages through the Telegram bot API.
type TelegramClient struct {
	baseURL    string
	httpClient *http.Client
}

// TelegramOption configures a TelegramClient.
type TelegramOption func(*TelegramClient)

// WithBaseURL sets a custom API base URL (used for testing).
func WithBaseURL(url string) TelegramOption {
	return func(c *TelegramClient) {
		c.baseURL = url
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) TelegramOption {
	return func(c *TelegramClient) {
		c.httpClient = client
	}
}

// NewTelegramClient creates a Telegram bot API client.
func NewTelegramClient(opts ...TelegramOption) *TelegramClient {
	c := &TelegramClient{
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type sendMessageRequest struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
}

// SendMessage posts a text message to the given chat.
// POST /bot<token>/sendMessage
func (c *TelegramClient) SendMessage(ctx context.Context, botToken, chatID, text string) error {
	body, err := json.Marshal(sendMessageRequest{ChatID: chatID, Text: text})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", c.baseURL, botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		//nolint:errcheck
		resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("telegram: sendMessage failed (status %d): %s", resp.StatusCode, respBody)
	}
	return nil
}
