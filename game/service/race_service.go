package service

import (
	"context"
	"errors"

	"github.com/wricardo/vector-race/game/engine"
	"github.com/wricardo/vector-race/game/geom"
)

var (
	ErrRaceNotFound   = errors.New("race not found")
	ErrTrackNotFound  = errors.New("track not found")
	ErrInvalidTrack   = errors.New("invalid track")
	ErrInvalidRequest = errors.New("invalid request")
)

// RaceService defines all race-related operations
type RaceService interface {
	// Tracks
	ListTracks(ctx context.Context) ([]*TrackInfo, error)
	GetTrack(ctx context.Context, trackID string) (*TrackDetail, error)
	SaveTrack(ctx context.Context, trackID string, config *engine.TrackConfig) error
	GenerateTrack(ctx context.Context, gen engine.GeneratorConfig) (*TrackDetail, error)
	LegalMoves(ctx context.Context, trackID string, pos geom.Position, velocity geom.Vector) (*engine.Options, error)

	// Races
	StartRace(ctx context.Context, req StartRaceRequest) (*RaceInfo, error)
	GetRace(ctx context.Context, raceID string) (*RaceInfo, error)
	ListRaces(ctx context.Context) ([]*RaceInfo, error)
	CancelRace(ctx context.Context, raceID string) error
}

// RaceStore defines race registry operations
type RaceStore interface {
	Create(id string, race *Race) (*Race, error)
	Get(id string) (*Race, error)
	List() []*Race
	Delete(id string) error
	UpdateLastAccessed(id string) error
}

// ConfigManager handles track configuration loading
type ConfigManager interface {
	LoadConfig(name string) (*engine.TrackConfig, error)
	ListConfigs() ([]*TrackInfo, error)
	GetDefault() *engine.TrackConfig
	SaveConfig(name string, config *engine.TrackConfig) error
}

// Broadcaster pushes race events to spectators
type Broadcaster interface {
	BroadcastEvent(raceID string, event string, data interface{})
}
