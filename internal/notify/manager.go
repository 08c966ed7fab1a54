package notify

import (
	"context"
	"errors"
	"fmt"
	"log"

	"golang.org/x/time/rate"

	"github.com/maine/trendradar/internal/news"
)

// ErrAllChannelsFailed возвращается, когда ни один канал не принял сообщения.
var ErrAllChannelsFailed = errors.New("all channels failed")

// Manager рассылает набор сообщений каждому каналу. Ошибка одного канала
// не прерывает доставку остальным: каналы независимы.
type Manager struct {
	notifiers []Notifier
	limiter   *rate.Limiter
}

// NewManager создаёт диспетчер. ratePerSecond ограничивает общий темп
// исходящих сообщений; 0 отключает ограничение.
func NewManager(notifiers []Notifier, ratePerSecond float64) *Manager {
	var limiter *rate.Limiter
	if ratePerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(ratePerSecond), 1)
	}
	return &Manager{notifiers: notifiers, limiter: limiter}
}

// SendAll отправляет все сообщения во все каналы. Канал считается
// успешным, только если принял каждое сообщение. Результаты возвращаются
// в порядке каналов. Если отказали все каналы - ErrAllChannelsFailed.
func (m *Manager) SendAll(ctx context.Context, title string, messages []string) ([]news.ChannelResult, error) {
	if len(m.notifiers) == 0 {
		return nil, fmt.Errorf("no channels configured")
	}
	if len(messages) == 0 {
		return nil, fmt.Errorf("no messages to send")
	}

	results := make([]news.ChannelResult, 0, len(m.notifiers))
	succeeded := 0

	for _, n := range m.notifiers {
		err := m.sendChannel(ctx, n, title, messages)
		if err != nil {
			log.Printf("Channel %s failed: %v", n.Name(), err)
			results = append(results, news.ChannelResult{Channel: n.Name(), Error: err.Error()})
			// Отмена контекста касается всех каналов сразу.
			if ctx.Err() != nil {
				return results, ctx.Err()
			}
			continue
		}
		results = append(results, news.ChannelResult{Channel: n.Name(), OK: true})
		succeeded++
	}

	if succeeded == 0 {
		return results, ErrAllChannelsFailed
	}

	log.Printf("Dispatched %d messages to %d/%d channels", len(messages), succeeded, len(m.notifiers))
	return results, nil
}

func (m *Manager) sendChannel(ctx context.Context, n Notifier, title string, messages []string) error {
	for i, msg := range messages {
		if m.limiter != nil {
			if err := m.limiter.Wait(ctx); err != nil {
				return err
			}
		}
		// Заголовок несёт только первое сообщение, продолжения идут без него.
		msgTitle := ""
		if i == 0 {
			msgTitle = title
		}
		if err := n.Send(ctx, msgTitle, msg); err != nil {
			return fmt.Errorf("message %d/%d: %w", i+1, len(messages), err)
		}
	}
	return nil
}
