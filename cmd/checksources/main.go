// Утилита проверки конфигурации источников: опрашивает каждый источник
// из configs/sources.yaml один раз и печатает, что удалось получить.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/maine/trendradar/internal/config"
	"github.com/maine/trendradar/internal/sources"
)

func main() {
	sourcesFile := flag.String("sources", "configs/sources.yaml", "путь к файлу источников")
	timeout := flag.Duration("timeout", 15*time.Second, "таймаут одного источника")
	sample := flag.Int("sample", 3, "сколько заголовков показать на источник")
	flag.Parse()

	cfg, err := config.LoadSources(*sourcesFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Не удалось прочитать %s: %v\n", *sourcesFile, err)
		os.Exit(1)
	}

	fmt.Printf("🚀 Проверяю %d источников из %s\n\n", len(cfg.Sources), *sourcesFile)

	client := &http.Client{Timeout: *timeout}
	failed := 0

	for _, src := range cfg.Sources {
		fmt.Printf("🌐 %s (%s)\n", src.ID, src.Type)

		adapter, err := sources.Build(src, client)
		if err != nil {
			fmt.Printf("   ❌ Конфигурация: %v\n\n", err)
			failed++
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), *timeout)
		items, err := adapter.Fetch(ctx)
		cancel()
		if err != nil {
			fmt.Printf("   ❌ Запрос: %v\n\n", err)
			failed++
			continue
		}

		fmt.Printf("   ✅ Получено %d записей\n", len(items))
		for i, item := range items {
			if i >= *sample {
				break
			}
			fmt.Printf("      %d. %s\n", item.Rank, item.Title)
		}
		fmt.Println()
	}

	if failed > 0 {
		fmt.Printf("📊 ИТОГО: %d из %d источников с ошибками\n", failed, len(cfg.Sources))
		os.Exit(1)
	}
	fmt.Printf("📊 ИТОГО: все %d источников отвечают\n", len(cfg.Sources))
}
