// Package notify доставляет готовый текст в настроенные каналы.
package notify

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/maine/trendradar/internal/config"
)

// Notifier - один канал уведомлений. Send либо доставляет сообщение,
// либо возвращает ошибку; частичных успехов внутри канала нет.
type Notifier interface {
	Name() string
	Send(ctx context.Context, title, text string) error
}

// BuildOptions - внешние секреты, которые не живут в YAML.
type BuildOptions struct {
	TelegramBotToken string
}

// Build создаёт канал из записи конфигурации.
func Build(cfg config.Channel, client *http.Client, opts BuildOptions) (Notifier, error) {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}

	switch cfg.Type {
	case "telegram":
		if opts.TelegramBotToken == "" {
			return nil, fmt.Errorf("telegram channel requires TELEGRAM_BOT_TOKEN")
		}
		if cfg.ChatID == "" {
			return nil, fmt.Errorf("telegram channel requires chat_id")
		}
		return newTelegramNotifier(opts.TelegramBotToken, cfg.ChatID, client), nil
	case "webhook":
		return newWebhookNotifier(cfg, client)
	case "ntfy":
		return newNtfyNotifier(cfg, client)
	default:
		return nil, fmt.Errorf("unknown channel type %q", cfg.Type)
	}
}

// BuildAll создаёт все каналы конфигурации.
func BuildAll(cfgs []config.Channel, client *http.Client, opts BuildOptions) ([]Notifier, error) {
	notifiers := make([]Notifier, 0, len(cfgs))
	for _, cfg := range cfgs {
		n, err := Build(cfg, client, opts)
		if err != nil {
			return nil, err
		}
		notifiers = append(notifiers, n)
	}
	return notifiers, nil
}
