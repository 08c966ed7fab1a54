package keyword

import (
	"sort"
	"strings"

	"github.com/maine/trendradar/internal/news"
)

// matchGroup проверяет, подходит ли нормализованный заголовок группе.
// Порядок проверок: сначала запрещающие термины, затем обязательные,
// затем базовые. Запрет всегда сильнее совпадения.
func matchGroup(g Group, title string) (terms []string, ok bool) {
	if title == "" {
		return nil, false
	}

	for _, w := range g.Exclude {
		if strings.Contains(title, w) {
			return nil, false
		}
	}

	for _, w := range g.Required {
		if !strings.Contains(title, w) {
			return nil, false
		}
		terms = append(terms, w)
	}

	baseHit := false
	for _, w := range g.Base {
		if strings.Contains(title, w) {
			baseHit = true
			terms = append(terms, w)
		}
	}

	// Группа без базовых терминов держится на одних обязательных
	if len(g.Base) > 0 && !baseHit {
		return nil, false
	}
	return terms, true
}

// candidate хранит промежуточную атрибуцию позиции до применения лимитов.
type candidate struct {
	item   news.Item
	order  int   // позиция в батче, разрешает ничьи по рангу
	groups []int // индексы подошедших групп в порядке объявления
	terms  [][]string
}

// Apply вычисляет совпадения батча против грамматики.
//
// Каждая позиция атрибутируется самой ранней подошедшей группе и попадает
// в результат не более одного раза. Группа с лимитом @N удерживает N лучших
// по рангу позиций (отсутствующий ранг после всех ранговых, ничьи - в порядке
// батча); вытесненные позиции переходят в первую подошедшую позднюю группу
// без лимита, иначе отбрасываются. Результат детерминирован и сохраняет
// порядок батча.
func (g Grammar) Apply(items []news.Item) []news.MatchResult {
	cands := make([]candidate, 0, len(items))
	for i, item := range items {
		title := news.NormalizeTitle(item.Title)
		if title == "" || item.SourceID == "" {
			continue
		}

		c := candidate{item: item, order: i}
		for gi, group := range g.Groups {
			terms, ok := matchGroup(group, title)
			if !ok {
				continue
			}
			c.groups = append(c.groups, gi)
			c.terms = append(c.terms, terms)
		}
		if len(c.groups) > 0 {
			cands = append(cands, c)
		}
	}

	// Первичная атрибуция: самая ранняя подошедшая группа
	assigned := make([]int, len(cands)) // индекс в c.groups
	byGroup := make(map[int][]int)      // группа -> индексы кандидатов
	for ci := range cands {
		assigned[ci] = 0
		gi := cands[ci].groups[0]
		byGroup[gi] = append(byGroup[gi], ci)
	}

	dropped := make([]bool, len(cands))
	for gi, group := range g.Groups {
		if group.Limit <= 0 {
			continue
		}
		members := byGroup[gi]
		if len(members) <= group.Limit {
			continue
		}

		ranked := append([]int(nil), members...)
		sort.SliceStable(ranked, func(a, b int) bool {
			return rankLess(cands[ranked[a]], cands[ranked[b]])
		})

		for _, ci := range ranked[group.Limit:] {
			// Вытесненная позиция может уйти в позднюю группу без лимита
			reassigned := false
			for k := assigned[ci] + 1; k < len(cands[ci].groups); k++ {
				next := cands[ci].groups[k]
				if g.Groups[next].Limit > 0 {
					continue
				}
				assigned[ci] = k
				reassigned = true
				break
			}
			if !reassigned {
				dropped[ci] = true
			}
		}
	}

	results := make([]news.MatchResult, 0, len(cands))
	for ci, c := range cands {
		if dropped[ci] {
			continue
		}
		k := assigned[ci]
		results = append(results, news.MatchResult{
			Item:    c.item,
			GroupID: g.Groups[c.groups[k]].ID,
			Terms:   c.terms[k],
		})
	}
	return results
}

// rankLess упорядочивает кандидатов для усечения лимитом: меньший ранг
// лучше, позиции без ранга после всех ранговых, ничьи - по порядку батча.
func rankLess(a, b candidate) bool {
	ar, br := a.item.Rank, b.item.Rank
	switch {
	case ar > 0 && br > 0 && ar != br:
		return ar < br
	case ar > 0 && br <= 0:
		return true
	case ar <= 0 && br > 0:
		return false
	}
	return a.order < b.order
}
