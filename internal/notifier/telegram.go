package notifier

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"MarketDigest/internal/errors"
)

// DefaultTelegramAPI is the Bot API endpoint.
const DefaultTelegramAPI = "https://api.telegram.org"

// TelegramNotifier sends messages via the Telegram Bot API.
type TelegramNotifier struct {
	botToken string
	chatID   string
	client   *resty.Client
	backoff  time.Duration
	logger   *zap.Logger
}

// TelegramOption customizes a TelegramNotifier.
type TelegramOption func(*TelegramNotifier)

// WithAPIBaseURL points the notifier at another Bot API host.
func WithAPIBaseURL(url string) TelegramOption {
	return func(t *TelegramNotifier) { t.client.SetBaseURL(url) }
}

// WithProxy routes requests through proxyURL.
func WithProxy(proxyURL string) TelegramOption {
	return func(t *TelegramNotifier) {
		if proxyURL != "" {
			t.client.SetProxy(proxyURL)
		}
	}
}

// WithBackoff sets the first retry delay of SendWithRetry; it doubles per attempt.
func WithBackoff(d time.Duration) TelegramOption {
	return func(t *TelegramNotifier) { t.backoff = d }
}

// NewTelegramNotifier creates a notifier for one chat.
func NewTelegramNotifier(botToken, chatID string, logger *zap.Logger, opts ...TelegramOption) *TelegramNotifier {
	t := &TelegramNotifier{
		botToken: botToken,
		chatID:   chatID,
		client: resty.New().
			SetBaseURL(DefaultTelegramAPI).
			SetTimeout(30 * time.Second).
			SetLogger(logger.Sugar()),
		backoff: time.Second,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

type sendMessageRequest struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// Send sends a message to the configured chat.
func (t *TelegramNotifier) Send(ctx context.Context, text string) error {
	var out apiResponse
	resp, err := t.client.R().
		SetContext(ctx).
		SetBody(sendMessageRequest{ChatID: t.chatID, Text: text, ParseMode: "HTML"}).
		SetResult(&out).
		SetError(&out).
		Post("/bot" + t.botToken + "/sendMessage")
	if err != nil {
		return errors.Wrap(errors.ErrCodeNotificationFailed, "send message", err)
	}
	if resp.IsError() || !out.OK {
		return errors.Newf(errors.ErrCodeNotificationFailed,
			"telegram API error: status %d, description: %s", resp.StatusCode(), out.Description)
	}
	return nil
}

// SendWithRetry sends a message with exponential backoff retry.
func (t *TelegramNotifier) SendWithRetry(ctx context.Context, text string, maxRetries int) error {
	var lastErr error
	for i := 0; i <= maxRetries; i++ {
		err := t.Send(ctx, text)
		if err == nil {
			return nil
		}
		lastErr = err
		if i == maxRetries {
			break
		}

		backoff := t.backoff << uint(i)
		t.logger.Warn("telegram send failed",
			zap.Int("attempt", i+1),
			zap.Int("attempts", maxRetries+1),
			zap.Duration("retry_in", backoff),
			zap.Error(err),
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
	return errors.Wrapf(errors.ErrCodeNotificationFailed, lastErr, "all %d attempts exhausted", maxRetries+1)
}
