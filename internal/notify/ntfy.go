package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/maine/trendradar/internal/config"
)

// ntfyNotifier публикует сообщение в топик сервера ntfy.
// Тело запроса - обычный текст, заголовок передаётся HTTP-заголовком Title.
type ntfyNotifier struct {
	server string
	topic  string
	client *http.Client
}

func newNtfyNotifier(cfg config.Channel, client *http.Client) (*ntfyNotifier, error) {
	if cfg.Topic == "" {
		return nil, fmt.Errorf("ntfy channel requires topic")
	}

	server := strings.TrimRight(cfg.Server, "/")
	if server == "" {
		server = "https://ntfy.sh"
	}

	return &ntfyNotifier{server: server, topic: cfg.Topic, client: client}, nil
}

func (n *ntfyNotifier) Name() string {
	return "ntfy:" + n.topic
}

func (n *ntfyNotifier) Send(ctx context.Context, title, text string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.server+"/"+n.topic, strings.NewReader(text))
	if err != nil {
		return err
	}
	if title != "" {
		req.Header.Set("Title", title)
	}
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")

	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("ntfy status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	return nil
}
