// Package app связывает этапы обработки в один прогон.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/maine/trendradar/internal/keyword"
	"github.com/maine/trendradar/internal/news"
)

// ErrNotConfigured возвращается, когда пайплайн запущен без обязательных зависимостей.
var ErrNotConfigured = errors.New("pipeline dependencies not configured")

// Clock определяет источник времени (удобно подменять в тестах).
type Clock func() time.Time

// Fetcher агрегирует новости из подключённых источников.
type Fetcher interface {
	FetchAll(ctx context.Context) ([]news.Item, []news.FetchError, error)
	Len() int
}

// KeywordSource отдаёт сырой текст правил ключевых слов.
// Текст читается на каждом прогоне: правила меняются без перезапуска.
type KeywordSource interface {
	Load() (string, error)
}

// Ranker упорядочивает отобранные новости для выдачи.
type Ranker interface {
	Rank(matches []news.MatchResult) []news.MatchResult
}

// DeltaTracker вычисляет, что из совпавшего ещё не отправлялось.
type DeltaTracker interface {
	ComputeDelta(matches []news.MatchResult, mode news.PushMode, state news.PushState) ([]news.MatchResult, news.PushState, error)
}

// StateStore хранит состояние отправок между прогонами.
type StateStore interface {
	Load(ctx context.Context) (news.PushState, error)
	Commit(ctx context.Context, state news.PushState) error
}

// WindowGate решает, разрешена ли отправка в данный момент.
type WindowGate interface {
	Allow(now time.Time, force bool) bool
}

// Formatter превращает дельту в готовые сообщения.
type Formatter interface {
	BuildMessages(matches []news.MatchResult, brief string) []string
}

// Briefer строит необязательную аналитическую сводку.
type Briefer interface {
	Brief(ctx context.Context, matches []news.MatchResult) (string, error)
}

// Dispatcher рассылает сообщения по каналам.
type Dispatcher interface {
	SendAll(ctx context.Context, title string, messages []string) ([]news.ChannelResult, error)
}

// PipelineDeps перечисляет зависимости пайплайна.
type PipelineDeps struct {
	Fetcher    Fetcher
	Keywords   KeywordSource
	Ranker     Ranker
	Tracker    DeltaTracker
	StateStore StateStore
	Gate       WindowGate
	Formatter  Formatter
	Briefer    Briefer // опционален: nil отключает сводку
	Dispatcher Dispatcher
	Clock      Clock
	Mode       news.PushMode
	Force      bool
}

// Pipeline инкапсулирует один прогон: сбор, отбор, дельта, доставка.
type Pipeline struct {
	fetcher    Fetcher
	keywords   KeywordSource
	ranker     Ranker
	tracker    DeltaTracker
	stateStore StateStore
	gate       WindowGate
	formatter  Formatter
	briefer    Briefer
	dispatcher Dispatcher
	clock      Clock
	mode       news.PushMode
	force      bool
}

// NewPipeline создаёт новый экземпляр пайплайна.
func NewPipeline(deps PipelineDeps) *Pipeline {
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	return &Pipeline{
		fetcher:    deps.Fetcher,
		keywords:   deps.Keywords,
		ranker:     deps.Ranker,
		tracker:    deps.Tracker,
		stateStore: deps.StateStore,
		gate:       deps.Gate,
		formatter:  deps.Formatter,
		briefer:    deps.Briefer,
		dispatcher: deps.Dispatcher,
		clock:      clock,
		mode:       deps.Mode,
		force:      deps.Force,
	}
}

// Run исполняет полный цикл. Итог прогона возвращается всегда,
// в том числе при ошибке: частичные отказы видны вызывающему.
func (p *Pipeline) Run(ctx context.Context) (news.RunSummary, error) {
	summary := news.RunSummary{Mode: p.mode}

	if err := p.validateDeps(); err != nil {
		return summary, err
	}
	summary.StartedAt = p.clock()

	// Правила компилируются до любых сетевых запросов: сломанный
	// файл правил валит прогон сразу, а не после сбора.
	raw, err := p.keywords.Load()
	if err != nil {
		return summary, fmt.Errorf("load keywords: %w", err)
	}
	grammar, err := keyword.Compile(raw)
	if err != nil {
		return summary, fmt.Errorf("compile keywords: %w", err)
	}

	log.Println("Step 1: Fetching sources...")
	summary.SourcesAttempted = p.fetcher.Len()
	items, fetchErrs, err := p.fetcher.FetchAll(ctx)
	summary.SourcesSucceeded = summary.SourcesAttempted - len(fetchErrs)
	summary.ItemsFetched = len(items)
	if err != nil {
		return summary, fmt.Errorf("fetch sources: %w", err)
	}
	log.Printf("Fetched %d items from %d/%d sources", len(items), summary.SourcesSucceeded, summary.SourcesAttempted)

	log.Println("Step 2: Matching keywords...")
	matches := grammar.Apply(items)
	summary.ItemsMatched = len(matches)
	log.Printf("Matched %d items", len(matches))

	state, err := p.stateStore.Load(ctx)
	if err != nil {
		return summary, fmt.Errorf("load state: %w", err)
	}

	log.Printf("Step 3: Computing delta (mode: %s)...", p.mode)
	delta, nextState, err := p.tracker.ComputeDelta(matches, p.mode, state)
	if err != nil {
		return summary, fmt.Errorf("compute delta: %w", err)
	}
	log.Printf("Delta: %d new items", len(delta))

	if len(delta) == 0 {
		log.Println("Nothing new to push, skipping dispatch")
		return summary, nil
	}

	summary.WindowOpen = p.gate.Allow(p.clock(), p.force)
	if !summary.WindowOpen {
		log.Println("Push window closed, skipping dispatch")
		return summary, nil
	}

	log.Println("Step 4: Ranking delta...")
	ranked := p.ranker.Rank(delta)

	brief := ""
	if p.briefer != nil {
		log.Println("Step 5: Generating AI brief...")
		brief, err = p.briefer.Brief(ctx, ranked)
		if err != nil {
			// Сводка необязательна: дайджест уходит без неё.
			log.Printf("AI brief failed, continuing without it: %v", err)
			brief = ""
		}
	}

	log.Println("Step 6: Formatting messages...")
	messages := p.formatter.BuildMessages(ranked, brief)
	if len(messages) == 0 {
		log.Println("Formatter produced no messages, skipping dispatch")
		return summary, nil
	}

	if err := ctx.Err(); err != nil {
		return summary, err
	}

	log.Println("Step 7: Dispatching...")
	title := fmt.Sprintf("TrendRadar %s", summary.StartedAt.Format(news.DayKeyFormat))
	results, err := p.dispatcher.SendAll(ctx, title, messages)
	summary.Channels = results
	for _, r := range results {
		if r.OK {
			summary.ChannelsSucceeded++
		} else {
			summary.ChannelsFailed++
		}
	}
	if err != nil {
		// Ни один канал не принял сообщения: состояние не двигаем,
		// следующий прогон попробует ту же дельту снова.
		return summary, fmt.Errorf("dispatch: %w", err)
	}
	summary.ItemsDelivered = len(delta)

	// Хотя бы один канал доставил - фиксируем состояние. Отказ записи
	// после доставки - отказ прогона: иначе дельта уйдёт повторно.
	if err := p.stateStore.Commit(ctx, nextState); err != nil {
		return summary, fmt.Errorf("commit state: %w", err)
	}

	return summary, nil
}

func (p *Pipeline) validateDeps() error {
	// briefer опционален: без него дайджест уходит без сводки
	switch {
	case p.fetcher == nil,
		p.keywords == nil,
		p.ranker == nil,
		p.tracker == nil,
		p.stateStore == nil,
		p.gate == nil,
		p.formatter == nil,
		p.dispatcher == nil,
		p.clock == nil:
		return ErrNotConfigured
	default:
		return nil
	}
}
