package notify

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
)

// TelegramConfig configures the admin chat transport.
type TelegramConfig struct {
	BotToken string
	ChatID   string
	// BaseURL overrides the Bot API endpoint, primarily for tests.
	BaseURL string
}

// TelegramClient posts messages to an admin chat via the Telegram Bot API.
type TelegramClient struct {
	cfg    TelegramConfig
	client *http.Client
}

var _ Messenger = (*TelegramClient)(nil)

// NewTelegramClient creates a TelegramClient for the given bot credentials.
func NewTelegramClient(cfg TelegramConfig) *TelegramClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.telegram.org"
	}
	return &TelegramClient{
		cfg:    cfg,
		client: &http.Client{Timeout: 5 * time.Second},
	}
}

// Send posts one plain-text message to the configured chat.
func (t *TelegramClient) Send(ctx context.Context, text string) error {
	if t.cfg.BotToken == "" || t.cfg.ChatID == "" {
		return errors.New("telegram transport not configured")
	}

	var e jx.Encoder
	e.Obj(func(e *jx.Encoder) {
		e.Field("chat_id", func(e *jx.Encoder) { e.Str(t.cfg.ChatID) })
		e.Field("text", func(e *jx.Encoder) { e.Str(text) })
		e.Field("disable_web_page_preview", func(e *jx.Encoder) { e.Bool(true) })
	})

	url := fmt.Sprintf("%s/bot%s/sendMessage", t.cfg.BaseURL, t.cfg.BotToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(e.Bytes()))
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "post message")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return errors.Errorf("telegram api status %d: %s", resp.StatusCode, payload)
	}
	return nil
}
