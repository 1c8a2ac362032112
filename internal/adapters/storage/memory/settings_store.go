package memory

import (
	"context"
	"sync"

	"rosie/internal/ports/settings"
)

type settingsStore struct {
	mu     sync.RWMutex
	byUser map[string]settings.Settings
}

func NewSettingsStore() settings.Store {
	return &settingsStore{byUser: make(map[string]settings.Settings)}
}

func (s *settingsStore) Get(ctx context.Context, userID string) (settings.Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.byUser[userID]
	if !ok {
		return settings.Defaults(), nil
	}
	return v, nil
}

func (s *settingsStore) Save(ctx context.Context, userID string, v settings.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byUser[userID] = v
	return nil
}
