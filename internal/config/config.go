package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/maine/trendradar/internal/news"
)

type (
	// Root объединяет все конфигурационные блоки пайплайна.
	Root struct {
		Crawler      Crawler      `yaml:"crawler"`
		Report       Report       `yaml:"report"`
		Notification Notification `yaml:"notification"`
		AI           AI           `yaml:"ai"`
		State        State        `yaml:"state"`
	}

	// Crawler описывает параметры этапа сбора.
	Crawler struct {
		TimeoutSeconds    int `yaml:"timeout_seconds"`     // таймаут одного источника
		MaxItemsPerSource int `yaml:"max_items_per_source"`
	}

	// Report задаёт режим рассылки и веса сортировки дайджеста.
	Report struct {
		Mode            news.PushMode `yaml:"mode"` // daily | current | incremental
		RankWeight      float64       `yaml:"rank_weight"`
		FrequencyWeight float64       `yaml:"frequency_weight"`
		MaxMessages     int           `yaml:"max_messages"`
	}

	// Notification описывает каналы доставки и окно отправки.
	Notification struct {
		Enabled       bool      `yaml:"enabled"`
		Window        Window    `yaml:"window"`
		Channels      []Channel `yaml:"channels"`
		RatePerSecond float64   `yaml:"rate_per_second"`
	}

	// Window - окно времени суток, в котором разрешена отправка.
	Window struct {
		Enabled bool   `yaml:"enabled"`
		Start   string `yaml:"start"` // HH:MM
		End     string `yaml:"end"`   // HH:MM, исключается из окна
	}

	// Channel - один канал уведомлений. Какие поля обязательны,
	// зависит от type (см. notify.Build).
	Channel struct {
		Type   string `yaml:"type"` // telegram | webhook | ntfy
		ChatID string `yaml:"chat_id,omitempty"`
		Flavor string `yaml:"flavor,omitempty"` // slack | feishu | dingtalk
		URL    string `yaml:"url,omitempty"`
		Server string `yaml:"server,omitempty"`
		Topic  string `yaml:"topic,omitempty"`
	}

	// AI управляет необязательным этапом обогащения через Gemini.
	AI struct {
		Enabled bool   `yaml:"enabled"`
		Model   string `yaml:"model"`
	}

	// State задаёт хранилище состояния рассылки.
	State struct {
		Backend  string `yaml:"backend"` // file | sqlite
		Path     string `yaml:"path"`
		KeepDays int    `yaml:"keep_days,omitempty"` // 0 - история не чистится (только sqlite)
	}

	// SourcesRoot описывает список источников для агрегатора.
	SourcesRoot struct {
		Sources []Source `yaml:"sources"`
	}

	// Source соответствует одной записи реестра адаптеров.
	Source struct {
		ID           string `yaml:"id"`
		Type         string `yaml:"type"` // rss | hackernews | html
		Name         string `yaml:"name,omitempty"`
		URL          string `yaml:"url,omitempty"`
		ItemSelector string `yaml:"item_selector,omitempty"` // только для html
		Limit        int    `yaml:"limit,omitempty"`
	}
)

// LoadRoot читает основной файл конфигурации. Файл перечитывается на каждом
// запуске: конфигурация - явное значение, а не скрытое состояние процесса.
func LoadRoot(path string) (Root, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Root{}, fmt.Errorf("read config: %w", err)
	}

	var cfg Root
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Root{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.Report.Mode == "" {
		cfg.Report.Mode = news.ModeDaily
	}
	if !cfg.Report.Mode.Valid() {
		return Root{}, fmt.Errorf("unknown report mode %q", cfg.Report.Mode)
	}
	if cfg.Crawler.TimeoutSeconds <= 0 {
		cfg.Crawler.TimeoutSeconds = 10
	}
	if cfg.State.Backend == "" {
		cfg.State.Backend = "file"
	}
	if cfg.State.Path == "" {
		cfg.State.Path = "state/push_state.json"
	}
	return cfg, nil
}

// LoadSources читает конфиг со списком источников.
func LoadSources(path string) (SourcesRoot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return SourcesRoot{}, fmt.Errorf("read sources config: %w", err)
	}

	var cfg SourcesRoot
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return SourcesRoot{}, fmt.Errorf("unmarshal sources config: %w", err)
	}
	return cfg, nil
}

// LoadKeywords читает текст грамматики ключевых слов. Текст перечитывается
// на каждом запуске, чтобы правки файла подхватывались без рестарта.
func LoadKeywords(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read keywords: %w", err)
	}
	return string(data), nil
}

// KeywordFile - источник правил ключевых слов для пайплайна.
type KeywordFile string

// Load возвращает текущее содержимое файла правил.
func (f KeywordFile) Load() (string, error) {
	return LoadKeywords(string(f))
}
