package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/maine/trendradar/internal/config"
	"github.com/maine/trendradar/internal/news"
)

const hackerNewsAPI = "https://hacker-news.firebaseio.com/v0"

// hackerNewsAdapter читает топ историй через официальный Firebase API.
type hackerNewsAdapter struct {
	id     string
	base   string
	limit  int
	client *http.Client
}

func newHackerNewsAdapter(cfg config.Source, client *http.Client) (Adapter, error) {
	base := cfg.URL
	if base == "" {
		base = hackerNewsAPI
	}
	return &hackerNewsAdapter{
		id:     cfg.ID,
		base:   base,
		limit:  defaultLimit(cfg.Limit),
		client: client,
	}, nil
}

func (a *hackerNewsAdapter) ID() string { return a.id }

type hnStory struct {
	Title string `json:"title"`
	URL   string `json:"url"`
	Type  string `json:"type"`
}

// Fetch реализует Adapter. API отдаёт список ID, поэтому на каждую историю
// нужен отдельный запрос; ошибки отдельных историй пропускаются, чтобы не
// терять весь источник из-за одной записи.
func (a *hackerNewsAdapter) Fetch(ctx context.Context) ([]news.Item, error) {
	var ids []int64
	if err := a.getJSON(ctx, a.base+"/topstories.json", &ids); err != nil {
		return nil, fmt.Errorf("top stories: %w", err)
	}
	if len(ids) > a.limit {
		ids = ids[:a.limit]
	}

	items := make([]news.Item, 0, len(ids))
	for i, id := range ids {
		var story hnStory
		if err := a.getJSON(ctx, fmt.Sprintf("%s/item/%d.json", a.base, id), &story); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			continue
		}
		if story.Title == "" {
			continue
		}
		items = append(items, news.Item{
			SourceID: a.id,
			Title:    story.Title,
			URL:      story.URL,
			Rank:     i + 1,
		})
	}

	if len(items) == 0 {
		return nil, fmt.Errorf("no stories fetched")
	}
	return items, nil
}

func (a *hackerNewsAdapter) getJSON(ctx context.Context, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", browserUserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
