package formatter

import (
	"fmt"
	"strings"
	"testing"

	"github.com/maine/trendradar/internal/config"
	"github.com/maine/trendradar/internal/news"
)

func match(group int, terms []string, source, title, url string, rank int) news.MatchResult {
	return news.MatchResult{
		GroupID: group,
		Terms:   terms,
		Item:    news.Item{SourceID: source, Title: title, URL: url, Rank: rank},
	}
}

func TestFormatter_BuildMessages_GroupsAndOrder(t *testing.T) {
	f := NewFormatter(config.Report{MaxMessages: 5})

	messages := f.BuildMessages([]news.MatchResult{
		match(1, []string{"gpu"}, "hn", "GPU prices fall", "https://a", 3),
		match(0, []string{"ai", "llm"}, "verge", "New LLM ships", "https://b", 1),
		match(0, []string{"ai", "llm"}, "hn", "AI agents everywhere", "https://c", 0),
	}, "")

	if len(messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(messages))
	}
	msg := messages[0]

	// Группы идут по возрастанию GroupID, внутри группы - порядок входа.
	aiIdx := strings.Index(msg, "*ai / llm*")
	gpuIdx := strings.Index(msg, "*gpu*")
	if aiIdx < 0 || gpuIdx < 0 || aiIdx > gpuIdx {
		t.Errorf("group order wrong:\n%s", msg)
	}
	if !strings.Contains(msg, "[New LLM ships](https://b) — verge #1") {
		t.Errorf("ranked line formatted wrong:\n%s", msg)
	}
	if strings.Contains(msg, "AI agents everywhere](https://c) — hn #") {
		t.Errorf("unranked item must have no rank marker:\n%s", msg)
	}
}

func TestFormatter_BuildMessages_BriefGoesFirst(t *testing.T) {
	f := NewFormatter(config.Report{})

	messages := f.BuildMessages([]news.MatchResult{
		match(0, []string{"ai"}, "hn", "Story", "https://a", 1),
	}, "Сегодня тихо.")

	if len(messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(messages))
	}
	if !strings.HasPrefix(messages[0], "_Сегодня тихо._") {
		t.Errorf("brief not at the top:\n%s", messages[0])
	}
}

func TestFormatter_BuildMessages_Empty(t *testing.T) {
	f := NewFormatter(config.Report{})
	if got := f.BuildMessages(nil, "brief"); got != nil {
		t.Errorf("expected nil for empty input, got %v", got)
	}
}

func TestFormatter_BuildMessages_SplitsLongDigest(t *testing.T) {
	f := NewFormatter(config.Report{MaxMessages: 10})

	var matches []news.MatchResult
	for i := 0; i < 60; i++ {
		matches = append(matches, match(i, []string{fmt.Sprintf("topic%02d", i)},
			"src", strings.Repeat("long headline ", 10)+fmt.Sprint(i), "https://example.com/x", i+1))
	}

	messages := f.BuildMessages(matches, "")
	if len(messages) < 2 {
		t.Fatalf("expected digest to split, got %d message(s)", len(messages))
	}
	for i, msg := range messages {
		if len(msg) > 4096 {
			t.Errorf("message %d exceeds limit: %d chars", i, len(msg))
		}
		want := fmt.Sprintf("Дайджест (%d/%d)", i+1, len(messages))
		if !strings.HasPrefix(msg, want) {
			t.Errorf("message %d missing header %q", i, want)
		}
	}
}

func TestFormatter_BuildMessages_RespectsMaxMessages(t *testing.T) {
	f := NewFormatter(config.Report{MaxMessages: 2})

	var matches []news.MatchResult
	for i := 0; i < 200; i++ {
		matches = append(matches, match(i, []string{fmt.Sprintf("t%03d", i)},
			"src", strings.Repeat("headline ", 20)+fmt.Sprint(i), "https://example.com/x", 1))
	}

	messages := f.BuildMessages(matches, "")
	if len(messages) > 2 {
		t.Errorf("expected at most 2 messages, got %d", len(messages))
	}
}

func TestFormatter_BuildMessages_OversizedBlockSplitByLines(t *testing.T) {
	f := NewFormatter(config.Report{MaxMessages: 5})

	// Одна группа, которая сама по себе больше лимита сообщения.
	var matches []news.MatchResult
	for i := 0; i < 80; i++ {
		matches = append(matches, match(0, []string{"ai"},
			"src", strings.Repeat("verbose headline ", 8)+fmt.Sprint(i), "https://example.com/x", i+1))
	}

	messages := f.BuildMessages(matches, "")
	if len(messages) < 2 {
		t.Fatalf("expected oversized group to split, got %d message(s)", len(messages))
	}
	for i, msg := range messages {
		if len(msg) > 4096 {
			t.Errorf("message %d exceeds limit: %d chars", i, len(msg))
		}
	}
}
