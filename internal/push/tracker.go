// Package push вычисляет дельту рассылки по режиму и истории отправок.
package push

import (
	"fmt"
	"time"

	"github.com/maine/trendradar/internal/news"
)

// Tracker применяет режим рассылки к совпадениям текущего запуска.
// Трекер ничего не сохраняет сам: он возвращает обновлённое состояние,
// а фиксация происходит в пайплайне только после подтверждённой доставки.
// Неудачная отправка не помечает позиции как отправленные.
type Tracker struct {
	clock func() time.Time
}

// NewTracker создаёт трекер. clock подменяется в тестах.
func NewTracker(clock func() time.Time) *Tracker {
	if clock == nil {
		clock = time.Now
	}
	return &Tracker{clock: clock}
}

// ComputeDelta возвращает совпадения, подлежащие доставке в этом запуске,
// и состояние, которое следует зафиксировать после успешной доставки.
//
//   - daily: всё, что ещё не отправлялось за сегодняшний день;
//   - current: все совпадения без фильтрации, состояние ведётся только
//     для учёта и никогда не подавляет вывод;
//   - incremental: только identity, отсутствующие во всём известном
//     состоянии - однажды отправленная позиция не повторится и через
//     границу дня, пока состояние не сброшено извне.
//
// Переданное состояние не модифицируется.
func (t *Tracker) ComputeDelta(matches []news.MatchResult, mode news.PushMode, state news.PushState) ([]news.MatchResult, news.PushState, error) {
	if !mode.Valid() {
		return nil, news.PushState{}, fmt.Errorf("unknown push mode %q", mode)
	}

	now := t.clock()
	today := now.Format(news.DayKeyFormat)

	next := state.Clone()
	next.LastRun = now

	delta := make([]news.MatchResult, 0, len(matches))
	seen := map[string]struct{}{} // дубликаты внутри одного батча

	for _, m := range matches {
		identity := m.Item.Identity()
		if _, dup := seen[identity]; dup {
			continue
		}
		seen[identity] = struct{}{}

		switch mode {
		case news.ModeDaily:
			if state.HasOnDay(today, identity) {
				continue
			}
		case news.ModeIncremental:
			if state.HasAnywhere(identity) {
				continue
			}
		case news.ModeCurrent:
			// история не подавляет текущий срез
		}

		delta = append(delta, m)
		next.Append(today, identity)
	}

	return delta, next, nil
}
