// Package ai добавляет к дайджесту краткую аналитическую сводку через Gemini API.
package ai

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"google.golang.org/genai"
)

// TextGenerator определяет интерфейс для работы с Gemini API.
// Это позволяет легко создавать моки для тестирования.
type TextGenerator interface {
	GenerateText(ctx context.Context, model string, prompt string) (string, error)
}

// Client инкапсулирует работу с Gemini API через официальный SDK.
type Client struct {
	client *genai.Client
}

// Убеждаемся, что Client реализует интерфейс TextGenerator.
var _ TextGenerator = (*Client)(nil)

// NewClient создаёт клиент. apiKey обязателен.
func NewClient(ctx context.Context, apiKey string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &Client{client: client}, nil
}

// GenerateText отправляет запрос к Gemini API и возвращает текстовый ответ.
// Временные ошибки (429 RPM, 500, 502, 503, 504) повторяются с задержкой;
// исчерпанная квота (RPD) возвращается сразу.
func (c *Client) GenerateText(ctx context.Context, model string, prompt string) (string, error) {
	const maxRetries = 3
	const baseDelay = 12 * time.Second // RPM=5 на бесплатном тарифе

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			delay := baseDelay * time.Duration(attempt)
			if delay > time.Minute {
				delay = time.Minute
			}
			log.Printf("Retrying Gemini API request (attempt %d/%d) after %v...", attempt+1, maxRetries, delay)
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(delay):
			}
		}

		result, err := c.client.Models.GenerateContent(ctx, model, genai.Text(prompt), nil)
		if err == nil {
			text, textErr := result.Text()
			if textErr != nil {
				return "", fmt.Errorf("get text from result: %w", textErr)
			}
			return text, nil
		}

		lastErr = err
		errStr := strings.ToLower(err.Error())

		if isQuotaExceeded(errStr) {
			return "", fmt.Errorf("gemini API quota exceeded: %w", err)
		}
		if isRetryable(errStr) {
			continue
		}
		return "", fmt.Errorf("generate content: %w", err)
	}

	return "", fmt.Errorf("max retries exceeded: %w", lastErr)
}

// isQuotaExceeded - дневной лимит (RPD): повторы не помогут.
func isQuotaExceeded(errStr string) bool {
	return strings.Contains(errStr, "quota") ||
		strings.Contains(errStr, "daily limit") ||
		strings.Contains(errStr, "generate_content_free_tier_requests")
}

// isRetryable - временные ошибки API и лимит запросов в минуту.
func isRetryable(errStr string) bool {
	markers := []string{
		"429", "too many requests", "resource exhausted",
		"500", "internal server error",
		"502", "bad gateway",
		"503", "service unavailable", "overloaded",
		"504", "gateway timeout",
	}
	for _, m := range markers {
		if strings.Contains(errStr, m) {
			return true
		}
	}
	return false
}
