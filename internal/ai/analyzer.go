package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/maine/trendradar/internal/news"
)

// Analyzer строит короткую сводку по отобранным новостям.
// Сводка - необязательное дополнение к дайджесту: при ошибке
// пайплайн продолжает работу без неё.
type Analyzer struct {
	client TextGenerator
	model  string
}

// NewAnalyzer создаёт анализатор для указанной модели.
func NewAnalyzer(client TextGenerator, model string) *Analyzer {
	if model == "" {
		model = "gemini-2.5-flash"
	}
	return &Analyzer{client: client, model: model}
}

// Brief возвращает аналитическую сводку по списку новостей.
// Пустой список даёт пустую сводку без обращения к API.
func (a *Analyzer) Brief(ctx context.Context, matches []news.MatchResult) (string, error) {
	if len(matches) == 0 {
		return "", nil
	}

	prompt := a.buildPrompt(matches)
	text, err := a.client.GenerateText(ctx, a.model, prompt)
	if err != nil {
		return "", fmt.Errorf("generate brief: %w", err)
	}

	return strings.TrimSpace(text), nil
}

func (a *Analyzer) buildPrompt(matches []news.MatchResult) string {
	var b strings.Builder
	for _, m := range matches {
		fmt.Fprintf(&b, "- [%s] %s\n", m.Item.SourceID, m.Item.Title)
	}

	return fmt.Sprintf(`Ты — редактор новостной ленты о технологиях.
Ниже список заголовков новостей, отобранных по ключевым словам за текущий прогон.
Напиши короткую сводку из 2–3 предложений: какие темы сегодня доминируют и что заслуживает внимания.
Используй нейтральный, информативный стиль. Не придумывай факты, которых нет в заголовках.
Верни только текст сводки, без списков и без дополнительных комментариев.

Заголовки:
%s`, b.String())
}
