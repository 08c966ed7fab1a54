package config

import (
	"fmt"
	"os"

	"github.com/maine/trendradar/internal/news"
)

// EnvConfig содержит токены и переключатели из переменных окружения.
type EnvConfig struct {
	TelegramBotToken string
	GeminiAPIKey     string
	ForceDispatch    bool          // Отправить, игнорируя окно времени (ручной запуск)
	SkipAI           bool          // Пропустить этап Gemini без ошибки
	PushModeOverride news.PushMode // Переопределение report.mode на один запуск
}

// LoadEnvConfig читает переменные окружения. Обязательность токенов зависит
// от конфигурации каналов и AI, поэтому проверяется на стороне вызывающего.
func LoadEnvConfig() (*EnvConfig, error) {
	cfg := &EnvConfig{
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		GeminiAPIKey:     os.Getenv("GEMINI_API_KEY"),
		ForceDispatch:    os.Getenv("FORCE_DISPATCH") == "1",
		SkipAI:           os.Getenv("SKIP_AI") == "1",
	}

	if mode := os.Getenv("PUSH_MODE"); mode != "" {
		override := news.PushMode(mode)
		if !override.Valid() {
			return nil, fmt.Errorf("PUSH_MODE must be one of daily|current|incremental, got %q", mode)
		}
		cfg.PushModeOverride = override
	}

	return cfg, nil
}
