package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"weather-forecast/models"
)

// HandoffStore передает ответ от формы к странице результатов.
// Каждый токен читается ровно один раз; невостребованные записи истекают.
type HandoffStore struct {
	entries map[string]handoffEntry
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
}

type handoffEntry struct {
	data      *models.ForecastResponse
	timestamp time.Time
}

func NewHandoffStore(ttlMinutes int) *HandoffStore {
	return &HandoffStore{
		entries: make(map[string]handoffEntry),
		ttl:     time.Duration(ttlMinutes) * time.Minute,
		now:     time.Now,
	}
}

// Put сохраняет ответ и возвращает токен для перехода на /forecast
func (s *HandoffStore) Put(data *models.ForecastResponse) (string, error) {
	token, err := newToken()
	if err != nil {
		return "", fmt.Errorf("ошибка генерации токена: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[token] = handoffEntry{
		data:      data,
		timestamp: s.now(),
	}
	return token, nil
}

// Take возвращает ответ и удаляет его из хранилища
func (s *HandoffStore) Take(token string) (*models.ForecastResponse, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, found := s.entries[token]
	if !found {
		return nil, false
	}
	delete(s.entries, token)

	// Проверяем TTL
	if s.now().Sub(entry.timestamp) > s.ttl {
		return nil, false
	}

	return entry.data, true
}

// Sweep удаляет истекшие записи и возвращает их количество
func (s *HandoffStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for token, entry := range s.entries {
		if s.now().Sub(entry.timestamp) > s.ttl {
			delete(s.entries, token)
			removed++
		}
	}
	return removed
}

// RunSweeper периодически чистит хранилище до отмены контекста
func (s *HandoffStore) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				slog.Debug("удалены невостребованные прогнозы", "count", n)
			}
		}
	}
}

func (s *HandoffStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.entries)
}

// Clear очищает хранилище
func (s *HandoffStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make(map[string]handoffEntry)
}

func newToken() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
