package server

import (
	"sync"

	"github.com/Agash/StreamWeaver-sub002/internal/domain"
)

// SettingsStore holds the overlay settings snapshot in memory. Durable
// persistence is an external collaborator concern; this is the live copy
// pushed to overlay clients.
type SettingsStore struct {
	mu       sync.RWMutex
	settings domain.Settings
}

func NewSettingsStore(initial domain.Settings) *SettingsStore {
	return &SettingsStore{settings: initial}
}

func (s *SettingsStore) Get() domain.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

func (s *SettingsStore) Update(settings domain.Settings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = settings
}
