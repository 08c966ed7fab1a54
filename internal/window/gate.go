// Package window решает, разрешена ли отправка в текущее время суток.
package window

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/maine/trendradar/internal/config"
)

// Gate проверяет попадание локального времени в настроенное окно.
type Gate struct {
	enabled bool
	start   int // минуты от полуночи
	end     int
}

// New создаёт гейт из конфигурации. Некорректный формат HH:MM - ошибка
// загрузки, а не молчаливое разрешение отправки.
func New(cfg config.Window) (*Gate, error) {
	g := &Gate{enabled: cfg.Enabled}
	if !cfg.Enabled {
		return g, nil
	}

	var err error
	if g.start, err = parseClock(cfg.Start); err != nil {
		return nil, fmt.Errorf("window start: %w", err)
	}
	if g.end, err = parseClock(cfg.End); err != nil {
		return nil, fmt.Errorf("window end: %w", err)
	}
	if g.start == g.end {
		return nil, fmt.Errorf("window start equals end (%s), window would be empty", cfg.Start)
	}
	return g, nil
}

// Allow сообщает, разрешена ли отправка в момент now. force обходит окно
// полностью - это явное намерение вызывающего (ручной запуск), а не
// выведенное из настроек.
//
// Окно [start, end): начало включается, конец исключается. Окно через
// полночь (start > end) трактуется как два диапазона: [start, 24:00)
// и [00:00, end).
func (g *Gate) Allow(now time.Time, force bool) bool {
	if force || !g.enabled {
		return true
	}

	minute := now.Hour()*60 + now.Minute()
	if g.start < g.end {
		return minute >= g.start && minute < g.end
	}
	return minute >= g.start || minute < g.end
}

func parseClock(value string) (int, error) {
	parts := strings.Split(strings.TrimSpace(value), ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("%q is not HH:MM", value)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("%q has invalid hour", value)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("%q has invalid minute", value)
	}
	return h*60 + m, nil
}
