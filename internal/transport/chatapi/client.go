package chatapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"time"

	"github.com/bankdesk/bankdesk/internal/transport"
)

// Client delivers outbound messages through the chat gateway HTTP API.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	logger     *slog.Logger
}

type sendTextRequest struct {
	ChatID   int64           `json:"chat_id"`
	Text     string          `json:"text"`
	Keyboard []transport.Row `json:"keyboard,omitempty"`
}

type sendPhotoRequest struct {
	ChatID   int64           `json:"chat_id"`
	Photo    string          `json:"photo"`
	Caption  string          `json:"caption,omitempty"`
	Keyboard []transport.Row `json:"keyboard,omitempty"`
}

type answerCallbackRequest struct {
	CallbackID string `json:"callback_id"`
	Text       string `json:"text,omitempty"`
}

// New creates a chat API client with a default timeout.
func New(baseURL string, logger *slog.Logger) (*Client, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse chat api url: %w", err)
	}
	if !parsed.IsAbs() {
		return nil, fmt.Errorf("chat api url must be absolute")
	}
	return &Client{
		baseURL: parsed,
		logger:  logger,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}, nil
}

// SendText posts a text message, optionally with an inline keyboard.
func (c *Client) SendText(ctx context.Context, chatID int64, text string, keyboard ...transport.Row) error {
	return c.post(ctx, "/sendText", sendTextRequest{ChatID: chatID, Text: text, Keyboard: keyboard})
}

// SendPhoto posts a photo by media reference with caption and keyboard.
func (c *Client) SendPhoto(ctx context.Context, chatID int64, mediaRef, caption string, keyboard ...transport.Row) error {
	return c.post(ctx, "/sendPhoto", sendPhotoRequest{ChatID: chatID, Photo: mediaRef, Caption: caption, Keyboard: keyboard})
}

// AnswerCallback acknowledges an inline button press with short feedback.
func (c *Client) AnswerCallback(ctx context.Context, callbackID, text string) error {
	return c.post(ctx, "/answerCallback", answerCallbackRequest{CallbackID: callbackID, Text: text})
}

func (c *Client) post(ctx context.Context, endpoint string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", endpoint, err)
	}

	target := *c.baseURL
	target.Path = path.Join(target.Path, endpoint)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target.String(), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		c.logger.Error("chat api request failed",
			slog.String("endpoint", endpoint),
			slog.Int("status", resp.StatusCode),
			slog.String("body", string(raw)),
		)
		return fmt.Errorf("chat api %s: %s", endpoint, resp.Status)
	}

	return nil
}
