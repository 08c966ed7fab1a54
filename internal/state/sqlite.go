package state

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/maine/trendradar/internal/news"
)

// SQLiteStore хранит состояние в SQLite. Альтернатива файловому стору для
// инсталляций, где история рассылки живёт долго и нужна выборка по дням
// без чтения всего файла.
type SQLiteStore struct {
	db *sql.DB
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS pushed (
	day      TEXT NOT NULL,
	identity TEXT NOT NULL,
	PRIMARY KEY (day, identity)
);
CREATE TABLE IF NOT EXISTS meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

// NewSQLiteStore открывает (при необходимости создаёт) базу по пути path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create state directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// Одного писателя достаточно: запуски сериализуются снаружи
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")

	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close закрывает базу.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Load реализует Store.
func (s *SQLiteStore) Load(ctx context.Context) (news.PushState, error) {
	state := news.NewPushState()

	rows, err := s.db.QueryContext(ctx, `SELECT day, identity FROM pushed ORDER BY day, rowid`)
	if err != nil {
		return news.PushState{}, fmt.Errorf("query pushed: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var day, identity string
		if err := rows.Scan(&day, &identity); err != nil {
			return news.PushState{}, fmt.Errorf("scan pushed row: %w", err)
		}
		state.Pushed[day] = append(state.Pushed[day], identity)
	}
	if err := rows.Err(); err != nil {
		return news.PushState{}, fmt.Errorf("iterate pushed rows: %w", err)
	}

	var lastRun string
	err = s.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = 'last_run'`).Scan(&lastRun)
	switch {
	case err == sql.ErrNoRows:
	case err != nil:
		return news.PushState{}, fmt.Errorf("query last_run: %w", err)
	default:
		if t, perr := time.Parse(time.RFC3339Nano, lastRun); perr == nil {
			state.LastRun = t
		}
	}

	return state, nil
}

// Commit реализует Store. Запись только добавляет: уже известные пары
// (day, identity) не перезаписываются и не удаляются.
func (s *SQLiteStore) Commit(ctx context.Context, state news.PushState) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for day, identities := range state.Pushed {
		for _, identity := range identities {
			if _, err := tx.ExecContext(ctx,
				`INSERT OR IGNORE INTO pushed(day, identity) VALUES(?, ?)`, day, identity); err != nil {
				return fmt.Errorf("insert pushed: %w", err)
			}
		}
	}

	if !state.LastRun.IsZero() {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO meta(key, value) VALUES('last_run', ?)
			 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
			state.LastRun.Format(time.RFC3339Nano)); err != nil {
			return fmt.Errorf("update last_run: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Prune удаляет дни старше keepDays, чтобы база не росла без ограничений.
// Вызывается из cmd по расписанию оператора, не из пайплайна.
func (s *SQLiteStore) Prune(ctx context.Context, now time.Time, keepDays int) (int64, error) {
	if keepDays <= 0 {
		return 0, nil
	}
	cutoff := now.AddDate(0, 0, -keepDays).Format(news.DayKeyFormat)
	res, err := s.db.ExecContext(ctx, `DELETE FROM pushed WHERE day < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune pushed: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
