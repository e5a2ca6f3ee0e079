package session

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wricardo/vector-race/game/service"
)

var (
	ErrRaceNotFound      = service.ErrRaceNotFound
	ErrRaceAlreadyExists = errors.New("race already exists")
)

// Manager is the in-memory race registry
type Manager struct {
	races map[string]*service.Race
	mu    sync.RWMutex
}

// NewManager creates a new race registry
func NewManager() *Manager {
	return &Manager{
		races: make(map[string]*service.Race),
	}
}

// Create stores race under id, generating a UUID when id is empty
func (m *Manager) Create(id string, race *service.Race) (*service.Race, error) {
	if id == "" {
		id = uuid.NewString()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	key := strings.ToLower(id)
	if _, exists := m.races[key]; exists {
		return nil, ErrRaceAlreadyExists
	}

	race.ID = id
	m.races[key] = race
	return race, nil
}

// Get retrieves a race by ID (case-insensitive)
func (m *Manager) Get(id string) (*service.Race, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	race, exists := m.races[strings.ToLower(id)]
	if !exists {
		return nil, ErrRaceNotFound
	}
	return race, nil
}

// List returns all races
func (m *Manager) List() []*service.Race {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*service.Race, 0, len(m.races))
	for _, race := range m.races {
		result = append(result, race)
	}
	return result
}

// Delete removes a race
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := strings.ToLower(id)
	if _, exists := m.races[key]; !exists {
		return ErrRaceNotFound
	}
	delete(m.races, key)
	return nil
}

// UpdateLastAccessed updates the last accessed time for a race
func (m *Manager) UpdateLastAccessed(id string) error {
	race, err := m.Get(id)
	if err != nil {
		return err
	}
	race.Touch()
	return nil
}

// CleanupExpiredRaces removes races that haven't been accessed in the given
// duration. Expired races that are still running are cancelled.
func (m *Manager) CleanupExpiredRaces(maxAge time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	removed := 0

	for id, race := range m.races {
		if race.LastAccessed().Before(cutoff) {
			race.Cancel()
			delete(m.races, id)
			removed++
		}
	}

	return removed
}

// Count returns the number of stored races
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.races)
}
