package news

import (
	"strings"
	"time"
)

// Item описывает одну позицию из рейтинга платформы после нормализации.
type Item struct {
	SourceID  string    `json:"source_id"`
	Title     string    `json:"title"`
	URL       string    `json:"url,omitempty"`
	Rank      int       `json:"rank,omitempty"` // 0 = ранг неизвестен
	FetchedAt time.Time `json:"fetched_at"`
}

// Identity возвращает стабильный идентификатор позиции для дедупликации.
// Платформы не отдают постоянные ID, поэтому ключом служит пара
// (источник, нормализованный заголовок).
func (i Item) Identity() string {
	return i.SourceID + "|" + NormalizeTitle(i.Title)
}

// NormalizeTitle приводит заголовок к канонической форме: нижний регистр,
// схлопнутые пробелы. Дрейф ранга между запусками на идентичность не влияет.
func NormalizeTitle(title string) string {
	return strings.Join(strings.Fields(strings.ToLower(title)), " ")
}

// MatchResult связывает позицию с группой ключевых слов, которой она
// атрибутирована. Позиция попадает в результат ровно один раз за запуск,
// даже если подошла нескольким группам.
type MatchResult struct {
	Item    Item     `json:"item"`
	GroupID int      `json:"group_id"`
	Terms   []string `json:"terms,omitempty"`
}

// PushMode определяет, какие совпадения попадают в рассылку текущего запуска.
type PushMode string

const (
	// ModeDaily - полный дневной дайджест: всё, что ещё не отправлялось сегодня.
	ModeDaily PushMode = "daily"
	// ModeCurrent - текущий срез: все совпадения без фильтрации по истории.
	ModeCurrent PushMode = "current"
	// ModeIncremental - только новое: identity не встречался ни в один из дней.
	ModeIncremental PushMode = "incremental"
)

// Valid сообщает, входит ли режим в перечень поддерживаемых.
func (m PushMode) Valid() bool {
	switch m {
	case ModeDaily, ModeCurrent, ModeIncremental:
		return true
	}
	return false
}

// DayKeyFormat - формат ключа календарного дня в состоянии.
const DayKeyFormat = "2006-01-02"

// PushState хранит идентификаторы уже отправленных позиций по дням.
// Внутри дня допускается только добавление, записи никогда не удаляются
// самим трекером (ротацию старых дней выполняет хранилище).
type PushState struct {
	LastRun time.Time           `json:"last_run"`
	Pushed  map[string][]string `json:"pushed"` // день -> identities
}

// NewPushState возвращает пустое состояние с инициализированной картой.
func NewPushState() PushState {
	return PushState{Pushed: map[string][]string{}}
}

// HasOnDay проверяет наличие identity в записях конкретного дня.
func (s PushState) HasOnDay(day, identity string) bool {
	for _, id := range s.Pushed[day] {
		if id == identity {
			return true
		}
	}
	return false
}

// HasAnywhere проверяет наличие identity во всём известном состоянии.
func (s PushState) HasAnywhere(identity string) bool {
	for day := range s.Pushed {
		if s.HasOnDay(day, identity) {
			return true
		}
	}
	return false
}

// Append добавляет identity в записи дня, пропуская дубликаты.
func (s *PushState) Append(day, identity string) {
	if s.Pushed == nil {
		s.Pushed = map[string][]string{}
	}
	if s.HasOnDay(day, identity) {
		return
	}
	s.Pushed[day] = append(s.Pushed[day], identity)
}

// Clone возвращает глубокую копию состояния. Трекер работает с копией,
// чтобы неудачная отправка не затронула загруженное состояние.
func (s PushState) Clone() PushState {
	out := PushState{LastRun: s.LastRun, Pushed: make(map[string][]string, len(s.Pushed))}
	for day, ids := range s.Pushed {
		out.Pushed[day] = append([]string(nil), ids...)
	}
	return out
}

// FetchError описывает отказ одного источника. Одиночный отказ не фатален:
// агрегатор просто исключает источник из батча текущего цикла.
type FetchError struct {
	SourceID string
	Err      error
}

func (e FetchError) Error() string {
	return "fetch " + e.SourceID + ": " + e.Err.Error()
}

func (e FetchError) Unwrap() error { return e.Err }

// ChannelResult - результат доставки в один канал уведомлений.
type ChannelResult struct {
	Channel string `json:"channel"`
	OK      bool   `json:"ok"`
	Error   string `json:"error,omitempty"`
}

// RunSummary - итог одного запуска пайплайна. Формируется всегда,
// независимо от исхода: частичные отказы видны оператору, а не скрыты.
type RunSummary struct {
	StartedAt         time.Time       `json:"started_at"`
	Mode              PushMode        `json:"mode"`
	SourcesAttempted  int             `json:"sources_attempted"`
	SourcesSucceeded  int             `json:"sources_succeeded"`
	ItemsFetched      int             `json:"items_fetched"`
	ItemsMatched      int             `json:"items_matched"`
	ItemsDelivered    int             `json:"items_delivered"`
	WindowOpen        bool            `json:"window_open"`
	Channels          []ChannelResult `json:"channels,omitempty"`
	ChannelsSucceeded int             `json:"channels_succeeded"`
	ChannelsFailed    int             `json:"channels_failed"`
}
