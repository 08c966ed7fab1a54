// Package formatter превращает отобранные новости в готовые сообщения.
package formatter

import (
	"fmt"
	"sort"
	"strings"

	"github.com/maine/trendradar/internal/config"
	"github.com/maine/trendradar/internal/news"
)

const (
	// maxMessageLength - лимит длины одного сообщения (лимит Telegram)
	maxMessageLength = 4096
	// headerTemplate - шаблон для нумерации сообщений
	headerTemplate = "Дайджест (%d/%d)\n\n"
	// ellipsis - символы, добавляемые при обрезке сообщения
	ellipsis = "..."
	// blockSeparator - разделитель между блоками групп
	blockSeparator = "\n\n"
	// headerReserve - запас под заголовок нумерации
	headerReserve = 30
)

// Formatter группирует новости по сработавшим группам ключевых слов
// и разбивает результат на сообщения с учётом лимита длины.
type Formatter struct {
	maxMessages int
}

// NewFormatter создаёт форматтер с ограничением числа сообщений.
func NewFormatter(cfg config.Report) *Formatter {
	maxMessages := cfg.MaxMessages
	if maxMessages <= 0 {
		maxMessages = 5
	}
	return &Formatter{maxMessages: maxMessages}
}

// BuildMessages форматирует дайджест. brief - необязательная сводка,
// она попадает в начало первого сообщения.
func (f *Formatter) BuildMessages(matches []news.MatchResult, brief string) []string {
	if len(matches) == 0 {
		return nil
	}

	blocks := f.groupBlocks(matches)
	if brief != "" {
		blocks = append([]string{"_" + brief + "_"}, blocks...)
	}

	return f.splitIntoMessages(blocks)
}

// groupBlocks форматирует каждую группу ключевых слов отдельным блоком.
// Порядок блоков следует порядку групп в грамматике, новости внутри
// блока сохраняют порядок входа.
func (f *Formatter) groupBlocks(matches []news.MatchResult) []string {
	byGroup := make(map[int][]news.MatchResult)
	for _, m := range matches {
		byGroup[m.GroupID] = append(byGroup[m.GroupID], m)
	}

	groupIDs := make([]int, 0, len(byGroup))
	for id := range byGroup {
		groupIDs = append(groupIDs, id)
	}
	sort.Ints(groupIDs)

	blocks := make([]string, 0, len(groupIDs))
	for _, id := range groupIDs {
		group := byGroup[id]

		var sb strings.Builder
		sb.WriteString(fmt.Sprintf("*%s*\n", groupLabel(group[0].Terms)))

		for j, m := range group {
			line := fmt.Sprintf("[%s](%s) — %s", m.Item.Title, m.Item.URL, m.Item.SourceID)
			if m.Item.Rank > 0 {
				line += fmt.Sprintf(" #%d", m.Item.Rank)
			}
			sb.WriteString(line)
			if j < len(group)-1 {
				sb.WriteString("\n")
			}
		}

		blocks = append(blocks, sb.String())
	}

	return blocks
}

// groupLabel - человекочитаемое имя группы по её терминам.
func groupLabel(terms []string) string {
	if len(terms) == 0 {
		return "Прочее"
	}
	return strings.Join(terms, " / ")
}

// splitIntoMessages собирает блоки в сообщения, не разрывая блоки,
// пока это возможно. Слишком длинный блок разрывается построчно.
func (f *Formatter) splitIntoMessages(blocks []string) []string {
	var messages []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			messages = append(messages, strings.TrimSuffix(current.String(), "\n"))
			current.Reset()
		}
	}

	for _, block := range blocks {
		if len(messages) >= f.maxMessages {
			break
		}

		// Блок не влезает даже в пустое сообщение: режем построчно.
		if len(block)+headerReserve > maxMessageLength {
			flush()
			for _, line := range strings.Split(block, "\n") {
				if len(messages) >= f.maxMessages {
					break
				}
				if current.Len()+len(line)+1+headerReserve > maxMessageLength {
					flush()
				}
				current.WriteString(line)
				current.WriteString("\n")
			}
			continue
		}

		sep := ""
		if current.Len() > 0 {
			sep = blockSeparator
		}
		if current.Len()+len(sep)+len(block)+headerReserve > maxMessageLength {
			flush()
			sep = ""
		}
		current.WriteString(sep)
		current.WriteString(block)
	}

	if len(messages) < f.maxMessages {
		flush()
	}

	return f.numbered(messages)
}

// numbered добавляет нумерацию "Дайджест (i/n)", когда сообщений больше одного.
func (f *Formatter) numbered(messages []string) []string {
	if len(messages) <= 1 {
		return messages
	}

	total := len(messages)
	result := make([]string, 0, total)
	for i, msg := range messages {
		header := fmt.Sprintf(headerTemplate, i+1, total)
		full := header + msg
		if len(full) > maxMessageLength {
			maxContent := maxMessageLength - len(header) - len(ellipsis)
			if maxContent > 0 && len(msg) > maxContent {
				msg = msg[:maxContent] + ellipsis
			}
			full = header + msg
		}
		result = append(result, full)
	}
	return result
}
