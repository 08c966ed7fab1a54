// Package keyword реализует грамматику фильтрации заголовков.
//
// Исходный текст грамматики построчный: пустые строки разделяют группы,
// строки с # или // - комментарии. Голое слово - базовый термин (OR),
// префикс + делает термин обязательным (AND), префикс ! - запрещающим,
// суффикс @N ограничивает число позиций, удерживаемых группой за запуск.
package keyword

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/maine/trendradar/internal/news"
)

// Group - одна скомпилированная группа ключевых слов.
type Group struct {
	ID       int
	Base     []string
	Required []string
	Exclude  []string
	Limit    int // 0 = без ограничения
}

// Grammar - скомпилированный набор групп в порядке объявления.
// Компилируется заново на каждом запуске: правки файла с ключевыми
// словами не требуют рестарта процесса.
type Grammar struct {
	Groups []Group
}

// GrammarError сообщает о некорректной грамматике. Ошибка фатальна
// для запуска и обнаруживается до любых сетевых обращений.
type GrammarError struct {
	Line int
	Msg  string
}

func (e *GrammarError) Error() string {
	return fmt.Sprintf("keyword grammar: line %d: %s", e.Line, e.Msg)
}

// Compile разбирает исходный текст грамматики.
// Ошибки: группа без единого позитивного (базового или обязательного)
// термина; суффикс @N, где N не является положительным целым.
func Compile(raw string) (Grammar, error) {
	var (
		grammar Grammar
		current Group
		started bool
		lastAt  int // строка последнего термина текущей группы, для ошибок
	)

	flush := func() error {
		if !started {
			return nil
		}
		if len(current.Base) == 0 && len(current.Required) == 0 {
			return &GrammarError{Line: lastAt, Msg: "group has no base or required terms"}
		}
		current.ID = len(grammar.Groups) + 1
		grammar.Groups = append(grammar.Groups, current)
		current = Group{}
		started = false
		return nil
	}

	for i, line := range strings.Split(raw, "\n") {
		lineNo := i + 1
		line = strings.TrimSpace(line)

		if strings.HasPrefix(line, "#") || strings.HasPrefix(line, "//") {
			continue
		}
		if line == "" {
			// Пустая строка закрывает группу, если в ней были термины
			if err := flush(); err != nil {
				return Grammar{}, err
			}
			continue
		}

		word, limit, err := parseTerm(line, lineNo)
		if err != nil {
			return Grammar{}, err
		}
		if word == "" {
			continue
		}

		started = true
		lastAt = lineNo
		if limit > 0 {
			current.Limit = limit
		}

		switch {
		case strings.HasPrefix(word, "+"):
			if w := normalizeTerm(word[1:]); w != "" {
				current.Required = append(current.Required, w)
			}
		case strings.HasPrefix(word, "!"):
			if w := normalizeTerm(word[1:]); w != "" {
				current.Exclude = append(current.Exclude, w)
			}
		default:
			current.Base = append(current.Base, normalizeTerm(word))
		}
	}

	if err := flush(); err != nil {
		return Grammar{}, err
	}
	return grammar, nil
}

// parseTerm отделяет суффикс @N от слова. Суффикс относится ко всей группе;
// при нескольких ограничениях в одной группе действует последнее.
func parseTerm(line string, lineNo int) (word string, limit int, err error) {
	at := strings.LastIndex(line, "@")
	if at < 0 {
		return line, 0, nil
	}

	suffix := line[at+1:]
	n, convErr := strconv.Atoi(suffix)
	if convErr != nil || n <= 0 {
		return "", 0, &GrammarError{Line: lineNo, Msg: fmt.Sprintf("count limit %q is not a positive integer", suffix)}
	}

	word = strings.TrimSpace(line[:at])
	if word == "" {
		return "", 0, &GrammarError{Line: lineNo, Msg: "count limit without a term"}
	}
	return word, n, nil
}

func normalizeTerm(word string) string {
	return news.NormalizeTitle(word)
}
