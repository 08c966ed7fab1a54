// Package ranking упорядочивает отобранные новости по взвешенной оценке.
package ranking

import (
	"sort"

	"github.com/maine/trendradar/internal/config"
	"github.com/maine/trendradar/internal/news"
)

// maxRank - позиции ниже этой не различаются по весу позиции.
const maxRank = 50

// Ranker сортирует новости детерминированно: позиция на площадке
// и частота заголовка на разных источниках, с весами из конфигурации.
type Ranker struct {
	rankWeight      float64
	frequencyWeight float64
	sourceCount     int
}

// NewRanker создаёт ранкер. sourceCount - число опрошенных источников,
// используется для нормализации частоты.
func NewRanker(cfg config.Report, sourceCount int) *Ranker {
	rankWeight := cfg.RankWeight
	frequencyWeight := cfg.FrequencyWeight
	if rankWeight <= 0 && frequencyWeight <= 0 {
		rankWeight = 0.6
		frequencyWeight = 0.4
	}
	if sourceCount <= 0 {
		sourceCount = 1
	}
	return &Ranker{
		rankWeight:      rankWeight,
		frequencyWeight: frequencyWeight,
		sourceCount:     sourceCount,
	}
}

// Rank возвращает новый срез, отсортированный по убыванию оценки.
// При равных оценках сохраняется исходный порядок, поэтому результат
// детерминирован для одного и того же входа.
func (r *Ranker) Rank(matches []news.MatchResult) []news.MatchResult {
	if len(matches) == 0 {
		return nil
	}

	// Частота нормализованного заголовка по всем источникам батча.
	frequency := make(map[string]int, len(matches))
	for _, m := range matches {
		frequency[news.NormalizeTitle(m.Item.Title)]++
	}

	type scored struct {
		match news.MatchResult
		score float64
	}

	items := make([]scored, 0, len(matches))
	for _, m := range matches {
		items = append(items, scored{match: m, score: r.score(m.Item, frequency)})
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].score > items[j].score
	})

	out := make([]news.MatchResult, 0, len(items))
	for _, s := range items {
		out = append(out, s.match)
	}
	return out
}

func (r *Ranker) score(item news.Item, frequency map[string]int) float64 {
	// Чем выше позиция на площадке, тем выше оценка; отсутствие
	// позиции трактуем как худшую.
	rank := item.Rank
	if rank <= 0 || rank > maxRank {
		rank = maxRank
	}
	rankScore := float64(maxRank-rank) / maxRank

	freq := frequency[news.NormalizeTitle(item.Title)]
	if freq < 1 {
		freq = 1
	}
	frequencyScore := float64(freq) / float64(r.sourceCount)
	if frequencyScore > 1 {
		frequencyScore = 1
	}

	return r.rankWeight*rankScore + r.frequencyWeight*frequencyScore
}
