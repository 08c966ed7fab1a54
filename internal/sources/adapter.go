package sources

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/maine/trendradar/internal/config"
	"github.com/maine/trendradar/internal/news"
)

// Adapter получает текущий рейтинг одной платформы. Реализация обязана
// завершиться или вернуть ошибку в пределах переданного контекста.
type Adapter interface {
	ID() string
	Fetch(ctx context.Context) ([]news.Item, error)
}

// builder создаёт адаптер из записи конфигурации.
type builder func(cfg config.Source, client *http.Client) (Adapter, error)

// registry - таблица поддерживаемых типов источников. Новые платформы
// добавляются записью в таблицу, а не наследованием.
var registry = map[string]builder{
	"rss":        newRSSAdapter,
	"hackernews": newHackerNewsAdapter,
	"html":       newHTMLAdapter,
}

// Build создаёт адаптер по типу из конфигурации источника.
func Build(cfg config.Source, client *http.Client) (Adapter, error) {
	if cfg.ID == "" {
		return nil, fmt.Errorf("source without id")
	}
	b, ok := registry[cfg.Type]
	if !ok {
		return nil, fmt.Errorf("source %s: unknown type %q", cfg.ID, cfg.Type)
	}
	return b(cfg, client)
}

// BuildAll создаёт адаптеры для всех записей конфигурации.
func BuildAll(cfgs []config.Source, client *http.Client) ([]Adapter, error) {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	adapters := make([]Adapter, 0, len(cfgs))
	for _, cfg := range cfgs {
		a, err := Build(cfg, client)
		if err != nil {
			return nil, err
		}
		adapters = append(adapters, a)
	}
	return adapters, nil
}

// browserUserAgent - единый User-Agent для всех адаптеров. Часть платформ
// отдаёт 403 на дефолтный Go-клиент.
const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

func defaultLimit(limit int) int {
	if limit <= 0 {
		return 30
	}
	return limit
}
