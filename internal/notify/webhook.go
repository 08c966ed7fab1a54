package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/maine/trendradar/internal/config"
)

// webhookNotifier отправляет JSON-пейлоад на произвольный URL.
// Формат пейлоада выбирается полем flavor: slack, feishu, dingtalk
// или generic (по умолчанию).
type webhookNotifier struct {
	url    string
	flavor string
	client *http.Client
}

func newWebhookNotifier(cfg config.Channel, client *http.Client) (*webhookNotifier, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("webhook channel requires url")
	}

	flavor := cfg.Flavor
	if flavor == "" {
		flavor = "generic"
	}
	switch flavor {
	case "generic", "slack", "feishu", "dingtalk":
	default:
		return nil, fmt.Errorf("unknown webhook flavor %q", cfg.Flavor)
	}

	return &webhookNotifier{url: cfg.URL, flavor: flavor, client: client}, nil
}

func (w *webhookNotifier) Name() string {
	return "webhook:" + w.flavor
}

func (w *webhookNotifier) Send(ctx context.Context, title, text string) error {
	payload, err := json.Marshal(w.payload(title, text))
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("webhook status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	return nil
}

func (w *webhookNotifier) payload(title, text string) interface{} {
	body := text
	if title != "" {
		body = title + "\n\n" + text
	}

	switch w.flavor {
	case "slack":
		return map[string]string{"text": body}
	case "feishu":
		return map[string]interface{}{
			"msg_type": "text",
			"content":  map[string]string{"text": body},
		}
	case "dingtalk":
		return map[string]interface{}{
			"msgtype": "text",
			"text":    map[string]string{"content": body},
		}
	default:
		return map[string]string{"title": title, "text": text}
	}
}
