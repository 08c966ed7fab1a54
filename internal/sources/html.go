package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/maine/trendradar/internal/config"
	"github.com/maine/trendradar/internal/news"
)

// htmlAdapter собирает рейтинг со страницы по CSS-селектору. Подходит для
// платформ без API и RSS: селектор указывает на элементы списка в порядке
// убывания ранга.
type htmlAdapter struct {
	id       string
	url      string
	selector string
	limit    int
	client   *http.Client
}

func newHTMLAdapter(cfg config.Source, client *http.Client) (Adapter, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("source %s: html adapter requires url", cfg.ID)
	}
	if strings.TrimSpace(cfg.ItemSelector) == "" {
		return nil, fmt.Errorf("source %s: html adapter requires item_selector", cfg.ID)
	}
	return &htmlAdapter{
		id:       cfg.ID,
		url:      cfg.URL,
		selector: cfg.ItemSelector,
		limit:    defaultLimit(cfg.Limit),
		client:   client,
	}, nil
}

func (a *htmlAdapter) ID() string { return a.id }

// Fetch реализует Adapter.
func (a *htmlAdapter) Fetch(ctx context.Context) ([]news.Item, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", browserUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var items []news.Item
	doc.Find(a.selector).EachWithBreak(func(i int, sel *goquery.Selection) bool {
		if len(items) >= a.limit {
			return false
		}
		title := strings.TrimSpace(sel.Text())
		if title == "" {
			return true
		}
		items = append(items, news.Item{
			SourceID: a.id,
			Title:    title,
			URL:      a.extractLink(sel),
			Rank:     len(items) + 1,
		})
		return true
	})

	if len(items) == 0 {
		return nil, fmt.Errorf("selector %q matched nothing", a.selector)
	}
	return items, nil
}

// extractLink берёт href с самого элемента, его ссылки-потомка или
// ближайшего предка и приводит к абсолютному URL.
func (a *htmlAdapter) extractLink(sel *goquery.Selection) string {
	href, ok := sel.Attr("href")
	if !ok {
		if inner := sel.Find("a").First(); inner.Length() > 0 {
			href, ok = inner.Attr("href")
		}
	}
	if !ok {
		if parent := sel.Closest("a"); parent.Length() > 0 {
			href, _ = parent.Attr("href")
		}
	}
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}

	base, err := url.Parse(a.url)
	if err != nil {
		return href
	}
	rel, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(rel).String()
}
