// Package state хранит историю рассылки между запусками.
package state

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/maine/trendradar/internal/news"
)

// Store - узкий интерфейс хранилища состояния рассылки. Пайплайн вызывает
// Commit только после подтверждённой доставки; ошибка Commit трактуется как
// ошибка запуска, даже если доставка прошла (истории дедупликации нельзя
// доверять без надёжной записи).
type Store interface {
	Load(ctx context.Context) (news.PushState, error)
	Commit(ctx context.Context, state news.PushState) error
}

// FileStore хранит состояние в JSON-файле. Рассчитан на одного писателя:
// параллельные запуски должны сериализоваться снаружи.
type FileStore struct {
	path string
}

// NewFileStore создаёт новый файловый стор.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load читает состояние из файла.
func (s *FileStore) Load(ctx context.Context) (news.PushState, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return news.NewPushState(), nil
		}
		return news.PushState{}, fmt.Errorf("read state file: %w", err)
	}

	var state news.PushState
	if err := json.Unmarshal(data, &state); err != nil {
		// Повреждённый JSON откладывается в .broken для диагностики,
		// пайплайн продолжает с пустым состоянием
		brokenPath := s.path + ".broken"
		_ = os.WriteFile(brokenPath, data, 0644)
		return news.NewPushState(), nil
	}

	if state.Pushed == nil {
		state.Pushed = map[string][]string{}
	}
	return state, nil
}

// Commit записывает состояние атомарно (через временный файл и rename).
func (s *FileStore) Commit(ctx context.Context, state news.PushState) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("write temp state file: %w", err)
	}

	// Rename атомарен на большинстве файловых систем
	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename temp state file: %w", err)
	}

	return nil
}
