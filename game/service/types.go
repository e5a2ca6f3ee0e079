package service

import (
	"time"

	"github.com/wricardo/vector-race/game/engine"
	"github.com/wricardo/vector-race/game/geom"
)

// Driver kinds
const (
	DriverBot      = "bot"
	DriverOptimal  = "optimal"
	DriverScripted = "scripted"
)

// TrackInfo provides information about a track configuration
type TrackInfo struct {
	TrackID     string `json:"track_id"` // The identifier to use for races
	Filename    string `json:"filename,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Generated   bool   `json:"generated"`
	Builtin     bool   `json:"builtin,omitempty"`
}

// NewTrackInfo summarizes config without building it.
func NewTrackInfo(trackID, filename string, config *engine.TrackConfig) *TrackInfo {
	info := &TrackInfo{
		TrackID:     trackID,
		Filename:    filename,
		Name:        config.Name,
		Description: config.Description,
	}
	switch {
	case config.Generator != nil:
		info.Generated = true
		info.Width, info.Height = config.Generator.Width, config.Generator.Height
	case len(config.Layout) > 0:
		info.Width, info.Height = len(config.Layout[0]), len(config.Layout)
	}
	return info
}

// TrackDetail is a built track ready to be shown or raced on
type TrackDetail struct {
	TrackInfo
	Rows   []string            `json:"rows"`
	Start  []geom.Position     `json:"start"`
	Finish []geom.Position     `json:"finish"`
	Config *engine.TrackConfig `json:"config"`
}

// Driver describes one entrant of a race request
type Driver struct {
	Name       string         `json:"name,omitempty"`
	Kind       string         `json:"kind"` // "bot" (default), "optimal" or "scripted"
	Velocities []geom.Vector  `json:"velocities,omitempty"`
	Start      *geom.Position `json:"start,omitempty"`
}

// StartRaceRequest asks for a race on a track
type StartRaceRequest struct {
	TrackID   string   `json:"track_id"`
	Drivers   []Driver `json:"drivers"`
	TurnLimit int      `json:"turn_limit,omitempty"`
}

// RaceStatus is the lifecycle state of a race
type RaceStatus string

const (
	RaceRunning   RaceStatus = "running"
	RaceFinished  RaceStatus = "finished"
	RaceFailed    RaceStatus = "failed"
	RaceCancelled RaceStatus = "cancelled"
)

// RaceInfo provides information about a race
type RaceInfo struct {
	ID             string               `json:"id"`
	TrackID        string               `json:"track_id"`
	Status         RaceStatus           `json:"status"`
	Turn           int                  `json:"turn"`
	Players        []engine.PlayerState `json:"players"`
	Winners        []int                `json:"winners,omitempty"`
	Error          string               `json:"error,omitempty"`
	Rows           []string             `json:"rows"`
	CreatedAt      time.Time            `json:"created_at"`
	LastAccessedAt time.Time            `json:"last_accessed_at"`
}
