package sources

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/mmcdole/gofeed"

	"github.com/maine/trendradar/internal/config"
	"github.com/maine/trendradar/internal/news"
)

// rssAdapter читает рейтинг из RSS/Atom-ленты. Порядок элементов ленты
// трактуется как ранг платформы.
type rssAdapter struct {
	id     string
	url    string
	limit  int
	parser *gofeed.Parser
}

func newRSSAdapter(cfg config.Source, client *http.Client) (Adapter, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("source %s: rss adapter requires url", cfg.ID)
	}

	parser := gofeed.NewParser()
	parser.Client = client
	parser.UserAgent = browserUserAgent

	return &rssAdapter{
		id:     cfg.ID,
		url:    cfg.URL,
		limit:  defaultLimit(cfg.Limit),
		parser: parser,
	}, nil
}

func (a *rssAdapter) ID() string { return a.id }

// Fetch реализует Adapter.
func (a *rssAdapter) Fetch(ctx context.Context) ([]news.Item, error) {
	feed, err := a.parser.ParseURLWithContext(a.url, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	entries := feed.Items
	if len(entries) > a.limit {
		entries = entries[:a.limit]
	}

	items := make([]news.Item, 0, len(entries))
	for i, entry := range entries {
		title := strings.TrimSpace(entry.Title)
		if title == "" {
			continue
		}
		items = append(items, news.Item{
			SourceID: a.id,
			Title:    title,
			URL:      strings.TrimSpace(entry.Link),
			Rank:     i + 1,
		})
	}
	return items, nil
}
