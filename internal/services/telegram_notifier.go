package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type Notifier interface {
	Enabled() bool
	Send(ctx context.Context, chatID string, message string) error
}

var ErrTelegramChatIDMissing = errors.New("telegram chat id is missing")

const telegramAPIBaseURL = "https://api.telegram.org"

type TelegramNotifier struct {
	botToken string
	baseURL  string
	client   *http.Client
}

// NewTelegramNotifier returns a notifier that is disabled without a bot
// token. Each message names the chat it goes to.
func NewTelegramNotifier(botToken string) *TelegramNotifier {
	return &TelegramNotifier{
		botToken: strings.TrimSpace(botToken),
		baseURL:  telegramAPIBaseURL,
		client: &http.Client{
			Timeout: 8 * time.Second,
		},
	}
}

func (notifier *TelegramNotifier) Enabled() bool {
	return notifier.botToken != ""
}

func (notifier *TelegramNotifier) Send(ctx context.Context, chatID string, message string) error {
	if !notifier.Enabled() {
		return nil
	}
	chatID = strings.TrimSpace(chatID)
	if chatID == "" {
		return ErrTelegramChatIDMissing
	}

	values := url.Values{}
	values.Set("chat_id", chatID)
	values.Set("text", message)

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", strings.TrimRight(notifier.baseURL, "/"), notifier.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(values.Encode()))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := notifier.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("telegram status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}
