package sources

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/maine/trendradar/internal/news"
)

// ErrAllSourcesFailed возвращается, когда не ответил ни один источник.
// Такой цикл фатален: батча нет, рассылка и изменение состояния не выполняются.
// Следующий запланированный запуск ошибка не затрагивает.
var ErrAllSourcesFailed = errors.New("all sources failed")

// Aggregator опрашивает все адаптеры параллельно и собирает единый батч.
type Aggregator struct {
	adapters []Adapter
	timeout  time.Duration
	clock    func() time.Time
}

// NewAggregator создаёт агрегатор. timeout ограничивает каждый адаптер
// независимо; clock подменяется в тестах.
func NewAggregator(adapters []Adapter, timeout time.Duration, clock func() time.Time) *Aggregator {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if clock == nil {
		clock = time.Now
	}
	return &Aggregator{adapters: adapters, timeout: timeout, clock: clock}
}

// FetchAll опрашивает источники и возвращает объединённый батч вместе со
// списком отказов. Отказ части источников не прерывает цикл: батч собирается
// из ответивших. Если отказали все - ErrAllSourcesFailed.
//
// Все позиции батча получают единый FetchedAt - момент старта агрегации,
// а не завершения конкретного запроса, чтобы позиции одного запуска были
// сравнимы по времени.
func (a *Aggregator) FetchAll(ctx context.Context) ([]news.Item, []news.FetchError, error) {
	if len(a.adapters) == 0 {
		return nil, nil, ErrAllSourcesFailed
	}

	startedAt := a.clock()

	type result struct {
		items []news.Item
		err   error
	}
	results := make([]result, len(a.adapters))

	var wg sync.WaitGroup
	for i, adapter := range a.adapters {
		wg.Add(1)
		go func(i int, adapter Adapter) {
			defer wg.Done()

			fetchCtx, cancel := context.WithTimeout(ctx, a.timeout)
			defer cancel()

			items, err := adapter.Fetch(fetchCtx)
			results[i] = result{items: items, err: err}
		}(i, adapter)
	}
	wg.Wait()

	// Батч собирается в порядке реестра адаптеров: порядок детерминирован
	// и не зависит от того, кто ответил раньше.
	var (
		batch  []news.Item
		errs   []news.FetchError
		failed int
	)
	for i, adapter := range a.adapters {
		res := results[i]
		if res.err != nil {
			failed++
			errs = append(errs, news.FetchError{SourceID: adapter.ID(), Err: res.err})
			log.Printf("source %s failed: %v", adapter.ID(), res.err)
			continue
		}
		for _, item := range res.items {
			item.FetchedAt = startedAt
			batch = append(batch, item)
		}
	}

	if failed == len(a.adapters) {
		return nil, errs, ErrAllSourcesFailed
	}
	return batch, errs, nil
}

// Len возвращает число зарегистрированных адаптеров.
func (a *Aggregator) Len() int { return len(a.adapters) }
