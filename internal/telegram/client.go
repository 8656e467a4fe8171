package telegram

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/p2p-exchange-bot/internal/config"
)

// Client is an outbound Telegram Bot API client. The webhook reply covers
// answering the acting user; the client covers everything else: webhook
// registration, callback acknowledgement, counterparty notifications.
type Client struct {
	http   *resty.Client
	token  string
	logger *zap.Logger
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description,omitempty"`
}

// NewClient builds a client against the configured Bot API base URL.
func NewClient(cfg config.TelegramConfig, logger *zap.Logger) *Client {
	httpClient := resty.New().
		SetBaseURL(fmt.Sprintf("%s/bot%s", cfg.APIBaseURL, cfg.BotToken)).
		SetTimeout(10 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond)

	return &Client{http: httpClient, token: cfg.BotToken, logger: logger}
}

// Configured reports whether a bot token is available.
func (c *Client) Configured() bool {
	return c != nil && c.token != ""
}

// SendMessage delivers a message to a chat.
func (c *Client) SendMessage(ctx context.Context, msg SendMessage) error {
	msg.Method = ""
	return c.call(ctx, "sendMessage", msg)
}

// SetWebhook registers the webhook URL and secret token with Telegram.
func (c *Client) SetWebhook(ctx context.Context, url, secret string) error {
	payload := map[string]string{"url": url}
	if secret != "" {
		payload["secret_token"] = secret
	}
	return c.call(ctx, "setWebhook", payload)
}

// AnswerCallbackQuery acknowledges a button press so the client stops
// showing the progress indicator.
func (c *Client) AnswerCallbackQuery(ctx context.Context, callbackID string) error {
	return c.call(ctx, "answerCallbackQuery", map[string]string{"callback_query_id": callbackID})
}

func (c *Client) call(ctx context.Context, method string, body any) error {
	if !c.Configured() {
		return errors.New("telegram bot token not configured")
	}

	var result apiResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&result).
		Post("/" + method)
	if err != nil {
		return fmt.Errorf("telegram %s: %w", method, err)
	}
	if resp.IsError() || !result.OK {
		return fmt.Errorf("telegram %s: status=%d description=%q", method, resp.StatusCode(), result.Description)
	}
	return nil
}
