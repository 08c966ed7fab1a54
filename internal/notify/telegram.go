package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	// retryAttempts - количество попыток отправки при ошибке
	retryAttempts = 3
	// retryDelay - базовая задержка между попытками
	retryDelay = 2 * time.Second
)

// telegramNotifier доставляет сообщения через Telegram Bot API.
type telegramNotifier struct {
	chatID string
	client *http.Client
	apiURL string
}

func newTelegramNotifier(token, chatID string, client *http.Client) *telegramNotifier {
	return &telegramNotifier{
		chatID: chatID,
		client: client,
		apiURL: fmt.Sprintf("https://api.telegram.org/bot%s", token),
	}
}

func (t *telegramNotifier) Name() string {
	return "telegram:" + t.chatID
}

// Send отправляет сообщение с retry-логикой. Заголовок встраивается
// в текст: Bot API не разделяет title и body.
func (t *telegramNotifier) Send(ctx context.Context, title, text string) error {
	body := text
	if title != "" {
		body = "*" + title + "*\n\n" + text
	}

	var lastErr error
	for attempt := 0; attempt < retryAttempts; attempt++ {
		if attempt > 0 {
			delay := retryDelay * time.Duration(attempt)
			if delay > 10*time.Second {
				delay = 10 * time.Second
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		err := t.sendMessage(ctx, body)
		if err == nil {
			return nil
		}
		lastErr = err

		// Для некоторых ошибок (чат не найден, бот заблокирован) повтор не поможет.
		if !isRetryableError(err) {
			return err
		}
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

func (t *telegramNotifier) sendMessage(ctx context.Context, text string) error {
	payload := map[string]string{
		"chat_id":    t.chatID,
		"text":       text,
		"parse_mode": "Markdown",
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.apiURL+"/sendMessage", bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		// Тело ответа Telegram содержит description с причиной отказа.
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("telegram api status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	return nil
}

// isRetryableError определяет, можно ли повторить отправку при данной ошибке.
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	errStr := strings.ToLower(err.Error())

	nonRetryable := []string{
		"chat not found",
		"bot was blocked",
		"user is deactivated",
		"message is too long",
		"bad request",
	}
	for _, marker := range nonRetryable {
		if strings.Contains(errStr, marker) {
			return false
		}
	}

	// Сетевые ошибки и временные проблемы API считаем повторяемыми.
	return true
}
