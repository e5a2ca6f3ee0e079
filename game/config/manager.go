package config

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/wricardo/vector-race/game/engine"
	"github.com/wricardo/vector-race/game/service"
)

var (
	ErrTrackNotFound = service.ErrTrackNotFound
	ErrInvalidTrack  = service.ErrInvalidTrack
)

// DefaultTrackID names the track used when a race does not pick one. The
// built-in track stands in for it until a default.json exists.
const DefaultTrackID = "default"

const maxIDLength = 64

// Manager handles track configuration loading and caching
type Manager struct {
	configDir     string
	defaultConfig *engine.TrackConfig
	configs       map[string]*engine.TrackConfig
	mu            sync.RWMutex
}

// NewManager creates a new configuration manager
func NewManager(configDir string) (*Manager, error) {
	// Ensure config directory exists
	if _, err := os.Stat(configDir); os.IsNotExist(err) {
		return nil, fmt.Errorf("config directory does not exist: %s", configDir)
	}

	m := &Manager{
		configDir: configDir,
		configs:   make(map[string]*engine.TrackConfig),
	}
	m.loadDefaultConfig()
	return m, nil
}

// LoadConfig loads a track configuration by ID
func (m *Manager) LoadConfig(name string) (*engine.TrackConfig, error) {
	name = strings.TrimSuffix(name, ".json")
	if !validID(name) {
		return nil, fmt.Errorf("%w: invalid track id %q", ErrInvalidTrack, name)
	}

	m.mu.RLock()
	// Check cache first
	if config, exists := m.configs[name]; exists {
		m.mu.RUnlock()
		return config, nil
	}
	m.mu.RUnlock()

	// Load from file
	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock
	if config, exists := m.configs[name]; exists {
		return config, nil
	}

	data, err := os.ReadFile(filepath.Join(m.configDir, name+".json"))
	if err != nil {
		if os.IsNotExist(err) {
			if name == DefaultTrackID {
				config := engine.DefaultTrack()
				m.configs[name] = config
				return config, nil
			}
			return nil, fmt.Errorf("%w: %s", ErrTrackNotFound, name)
		}
		return nil, fmt.Errorf("failed to read track file: %w", err)
	}

	var config engine.TrackConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse %s: %v", ErrInvalidTrack, name, err)
	}
	if err := engine.ValidateTrackConfig(&config); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTrack, err)
	}

	m.configs[name] = &config
	return &config, nil
}

// ListConfigs returns information about all available tracks
func (m *Manager) ListConfigs() ([]*service.TrackInfo, error) {
	entries, err := os.ReadDir(m.configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read config directory: %w", err)
	}

	var tracks []*service.TrackInfo
	hasDefault := false

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		// Remove .json extension for the track ID
		id := strings.TrimSuffix(entry.Name(), ".json")

		config, err := m.LoadConfig(id)
		if err != nil {
			log.Printf("Skipping track %s: %v", entry.Name(), err)
			continue
		}
		if id == DefaultTrackID {
			hasDefault = true
		}
		tracks = append(tracks, service.NewTrackInfo(id, entry.Name(), config))
	}

	if !hasDefault {
		builtin := service.NewTrackInfo(DefaultTrackID, "", engine.DefaultTrack())
		builtin.Builtin = true
		tracks = append([]*service.TrackInfo{builtin}, tracks...)
	}

	return tracks, nil
}

// GetDefault returns the default track configuration
func (m *Manager) GetDefault() *engine.TrackConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultConfig
}

// SetDefault sets the default track by ID
func (m *Manager) SetDefault(name string) error {
	config, err := m.LoadConfig(name)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultConfig = config
	return nil
}

// RefreshCache drops all cached tracks and reloads the default from disk
func (m *Manager) RefreshCache() {
	m.mu.Lock()
	m.configs = make(map[string]*engine.TrackConfig)
	m.mu.Unlock()

	m.loadDefaultConfig()
}

// loadDefaultConfig falls back to the built-in track when default.json is
// unusable.
func (m *Manager) loadDefaultConfig() {
	config, err := m.LoadConfig(DefaultTrackID)
	if err != nil {
		log.Printf("Default track unusable, using the built-in track: %v", err)
		config = engine.DefaultTrack()
	}

	m.mu.Lock()
	m.defaultConfig = config
	m.mu.Unlock()
}

// SaveConfig validates a track configuration and writes it to disk
func (m *Manager) SaveConfig(name string, config *engine.TrackConfig) error {
	name = strings.TrimSuffix(name, ".json")
	if !validID(name) {
		return fmt.Errorf("%w: invalid track id %q", ErrInvalidTrack, name)
	}
	if err := engine.ValidateTrackConfig(config); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidTrack, err)
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal track: %w", err)
	}
	if err := os.WriteFile(filepath.Join(m.configDir, name+".json"), data, 0644); err != nil {
		return fmt.Errorf("failed to write track file: %w", err)
	}

	m.mu.Lock()
	m.configs[name] = config
	if name == DefaultTrackID {
		m.defaultConfig = config
	}
	m.mu.Unlock()

	return nil
}

// validID accepts IDs that are safe to use as file names.
func validID(id string) bool {
	if id == "" || len(id) > maxIDLength {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return false
		}
	}
	return true
}
