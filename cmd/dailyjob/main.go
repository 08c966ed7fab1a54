package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/joho/godotenv"

	"github.com/maine/trendradar/internal/ai"
	"github.com/maine/trendradar/internal/app"
	"github.com/maine/trendradar/internal/config"
	"github.com/maine/trendradar/internal/formatter"
	"github.com/maine/trendradar/internal/news"
	"github.com/maine/trendradar/internal/notify"
	"github.com/maine/trendradar/internal/push"
	"github.com/maine/trendradar/internal/ranking"
	"github.com/maine/trendradar/internal/sources"
	"github.com/maine/trendradar/internal/state"
	"github.com/maine/trendradar/internal/window"
)

const (
	configPath   = "configs/config.yaml"
	sourcesPath  = "configs/sources.yaml"
	keywordsPath = "configs/frequency_words.txt"
)

func main() {
	ctx := context.Background()

	// .env необязателен: в CI переменные приходят из окружения.
	_ = godotenv.Load()

	rootCfg, err := config.LoadRoot(configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	sourcesCfg, err := config.LoadSources(sourcesPath)
	if err != nil {
		log.Fatalf("load sources config: %v", err)
	}

	envCfg, err := config.LoadEnvConfig()
	if err != nil {
		log.Fatalf("load env config: %v", err)
	}

	httpClient := &http.Client{Timeout: 15 * time.Second}

	// Лимит из crawler действует как дефолт для источников без своего limit.
	for i := range sourcesCfg.Sources {
		if sourcesCfg.Sources[i].Limit <= 0 {
			sourcesCfg.Sources[i].Limit = rootCfg.Crawler.MaxItemsPerSource
		}
	}
	adapters, err := sources.BuildAll(sourcesCfg.Sources, httpClient)
	if err != nil {
		log.Fatalf("build source adapters: %v", err)
	}
	aggregator := sources.NewAggregator(adapters,
		time.Duration(rootCfg.Crawler.TimeoutSeconds)*time.Second, time.Now)

	stateStore, closeStore, err := buildStateStore(rootCfg.State)
	if err != nil {
		log.Fatalf("open state store: %v", err)
	}
	defer closeStore()

	gate, err := window.New(rootCfg.Notification.Window)
	if err != nil {
		log.Fatalf("bad notification window: %v", err)
	}

	dispatcher, err := buildDispatcher(rootCfg.Notification, httpClient, envCfg)
	if err != nil {
		log.Fatalf("build channels: %v", err)
	}

	var briefer app.Briefer
	if rootCfg.AI.Enabled && !envCfg.SkipAI {
		client, err := ai.NewClient(ctx, envCfg.GeminiAPIKey)
		if err != nil {
			log.Fatalf("create AI client: %v", err)
		}
		briefer = ai.NewAnalyzer(client, rootCfg.AI.Model)
	}

	mode := rootCfg.Report.Mode
	if envCfg.PushModeOverride != "" {
		mode = envCfg.PushModeOverride
		log.Printf("Push mode overridden via PUSH_MODE: %s", mode)
	}

	p := app.NewPipeline(app.PipelineDeps{
		Fetcher:    aggregator,
		Keywords:   config.KeywordFile(keywordsPath),
		Ranker:     ranking.NewRanker(rootCfg.Report, len(adapters)),
		Tracker:    push.NewTracker(time.Now),
		StateStore: stateStore,
		Gate:       gate,
		Formatter:  formatter.NewFormatter(rootCfg.Report),
		Briefer:    briefer,
		Dispatcher: dispatcher,
		Clock:      nil, // time.Now по умолчанию
		Mode:       mode,
		Force:      envCfg.ForceDispatch,
	})

	summary, runErr := p.Run(ctx)
	if data, err := json.Marshal(summary); err == nil {
		log.Printf("Run summary: %s", data)
	}
	if runErr != nil {
		log.Fatalf("pipeline failed: %v", runErr)
	}

	if store, ok := stateStore.(*state.SQLiteStore); ok && rootCfg.State.KeepDays > 0 {
		n, err := store.Prune(ctx, time.Now(), rootCfg.State.KeepDays)
		if err != nil {
			log.Printf("prune state history: %v", err)
		} else if n > 0 {
			log.Printf("Pruned %d old state entries", n)
		}
	}

	log.Println("pipeline completed successfully")
}

// buildStateStore выбирает бэкенд состояния по конфигурации.
func buildStateStore(cfg config.State) (app.StateStore, func(), error) {
	switch cfg.Backend {
	case "sqlite":
		store, err := state.NewSQLiteStore(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {
			if err := store.Close(); err != nil {
				log.Printf("close state store: %v", err)
			}
		}, nil
	case "file":
		return state.NewFileStore(cfg.Path), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown state backend %q", cfg.Backend)
	}
}

// buildDispatcher собирает каналы доставки. Когда уведомления выключены,
// дайджест печатается в лог: полезно при отладке правил.
func buildDispatcher(cfg config.Notification, client *http.Client, env *config.EnvConfig) (app.Dispatcher, error) {
	if !cfg.Enabled || len(cfg.Channels) == 0 {
		log.Println("Notifications disabled, digest goes to the log")
		return consoleDispatcher{}, nil
	}

	notifiers, err := notify.BuildAll(cfg.Channels, client, notify.BuildOptions{
		TelegramBotToken: env.TelegramBotToken,
	})
	if err != nil {
		return nil, err
	}
	return notify.NewManager(notifiers, cfg.RatePerSecond), nil
}

// consoleDispatcher выводит сообщения в лог вместо внешних каналов.
type consoleDispatcher struct{}

func (consoleDispatcher) SendAll(ctx context.Context, title string, messages []string) ([]news.ChannelResult, error) {
	for i, msg := range messages {
		log.Printf("--- %s (%d/%d) ---\n%s", title, i+1, len(messages), msg)
	}
	return []news.ChannelResult{{Channel: "console", OK: true}}, nil
}
