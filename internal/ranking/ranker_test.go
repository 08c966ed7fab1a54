package ranking

import (
	"reflect"
	"testing"

	"github.com/maine/trendradar/internal/config"
	"github.com/maine/trendradar/internal/news"
)

func match(source, title string, rank int) news.MatchResult {
	return news.MatchResult{Item: news.Item{SourceID: source, Title: title, Rank: rank}}
}

func orderedTitles(matches []news.MatchResult) []string {
	titles := make([]string, 0, len(matches))
	for _, m := range matches {
		titles = append(titles, m.Item.Title)
	}
	return titles
}

func TestRanker_RankWeightPrefersTopPositions(t *testing.T) {
	r := NewRanker(config.Report{RankWeight: 1.0, FrequencyWeight: 0}, 3)

	got := r.Rank([]news.MatchResult{
		match("a", "low story", 30),
		match("b", "top story", 1),
		match("c", "mid story", 10),
	})

	want := []string{"top story", "mid story", "low story"}
	if !reflect.DeepEqual(orderedTitles(got), want) {
		t.Errorf("order = %v, want %v", orderedTitles(got), want)
	}
}

func TestRanker_FrequencyWeightPrefersCrossSourceStories(t *testing.T) {
	r := NewRanker(config.Report{RankWeight: 0, FrequencyWeight: 1.0}, 3)

	got := r.Rank([]news.MatchResult{
		match("a", "unique story", 1),
		match("b", "Shared Story", 20),
		match("c", "shared  story", 25),
	})

	// Заголовок, встретившийся на двух площадках, выходит вперёд
	// несмотря на худшие позиции.
	if got[0].Item.Title == "unique story" {
		t.Errorf("unique story ranked first: %v", orderedTitles(got))
	}
}

func TestRanker_MissingRankTreatedAsWorst(t *testing.T) {
	r := NewRanker(config.Report{RankWeight: 1.0, FrequencyWeight: 0}, 2)

	got := r.Rank([]news.MatchResult{
		match("a", "unranked", 0),
		match("b", "ranked", 5),
	})

	if got[0].Item.Title != "ranked" {
		t.Errorf("order = %v, want ranked first", orderedTitles(got))
	}
}

func TestRanker_StableForEqualScores(t *testing.T) {
	r := NewRanker(config.Report{RankWeight: 1.0, FrequencyWeight: 0.5}, 2)

	in := []news.MatchResult{
		match("a", "first", 3),
		match("b", "second", 3),
		match("c", "third", 3),
	}

	first := r.Rank(in)
	for i := 0; i < 10; i++ {
		if !reflect.DeepEqual(r.Rank(in), first) {
			t.Fatal("ranking is not deterministic")
		}
	}
	// Одинаковые оценки сохраняют порядок батча.
	if !reflect.DeepEqual(orderedTitles(first), []string{"first", "second", "third"}) {
		t.Errorf("equal scores reordered: %v", orderedTitles(first))
	}
}

func TestRanker_DefaultWeights(t *testing.T) {
	r := NewRanker(config.Report{}, 0)
	if r.rankWeight != 0.6 || r.frequencyWeight != 0.4 {
		t.Errorf("defaults = %v/%v, want 0.6/0.4", r.rankWeight, r.frequencyWeight)
	}

	got := r.Rank(nil)
	if got != nil {
		t.Errorf("Rank(nil) = %v, want nil", got)
	}
}
