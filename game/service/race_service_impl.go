package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/wricardo/vector-race/game/engine"
	"github.com/wricardo/vector-race/game/geom"
	"github.com/wricardo/vector-race/game/players"
	"github.com/wricardo/vector-race/game/render"
	"github.com/wricardo/vector-race/game/track"
)

// DefaultTurnLimit stops races that nobody wins.
const DefaultTurnLimit = 1000

// raceServiceImpl implements the RaceService interface
type raceServiceImpl struct {
	races       RaceStore
	configs     ConfigManager
	broadcaster Broadcaster
	moveTimeout time.Duration
	turnLimit   int
}

// Option configures the race service
type Option func(*raceServiceImpl)

// WithBroadcaster sends every race event to b.
func WithBroadcaster(b Broadcaster) Option {
	return func(s *raceServiceImpl) { s.broadcaster = b }
}

// WithMoveTimeout bounds how long a driver may think each turn.
func WithMoveTimeout(d time.Duration) Option {
	return func(s *raceServiceImpl) { s.moveTimeout = d }
}

// WithTurnLimit sets the turn limit for requests that do not choose one.
func WithTurnLimit(n int) Option {
	return func(s *raceServiceImpl) { s.turnLimit = n }
}

// NewRaceService creates a new race service instance
func NewRaceService(races RaceStore, configs ConfigManager, opts ...Option) RaceService {
	s := &raceServiceImpl{
		races:     races,
		configs:   configs,
		turnLimit: DefaultTurnLimit,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListTracks returns all available tracks
func (s *raceServiceImpl) ListTracks(ctx context.Context) ([]*TrackInfo, error) {
	return s.configs.ListConfigs()
}

// GetTrack builds a track and describes it
func (s *raceServiceImpl) GetTrack(ctx context.Context, trackID string) (*TrackDetail, error) {
	config, err := s.loadTrack(trackID)
	if err != nil {
		return nil, err
	}
	t, starts, err := buildTrack(config)
	if err != nil {
		return nil, err
	}
	return detail(trackID, config, t, starts), nil
}

// SaveTrack validates and stores a track configuration
func (s *raceServiceImpl) SaveTrack(ctx context.Context, trackID string, config *engine.TrackConfig) error {
	if config == nil {
		return fmt.Errorf("%w: track config is required", ErrInvalidRequest)
	}
	if trackID == "" {
		trackID = config.Name
	}
	if err := s.configs.SaveConfig(trackID, config); err != nil {
		return fmt.Errorf("failed to save track %s: %w", trackID, err)
	}
	log.Printf("Track %s saved", trackID)
	return nil
}

// GenerateTrack builds a track around a curve without storing it
func (s *raceServiceImpl) GenerateTrack(ctx context.Context, gen engine.GeneratorConfig) (*TrackDetail, error) {
	config := &engine.TrackConfig{Name: "generated", Generator: &gen}
	if err := engine.ValidateTrackConfig(config); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTrack, err)
	}
	t, starts, err := buildTrack(config)
	if err != nil {
		return nil, err
	}
	return detail("", config, t, starts), nil
}

// LegalMoves lists the moves open to a car at pos travelling at velocity
func (s *raceServiceImpl) LegalMoves(ctx context.Context, trackID string, pos geom.Position, velocity geom.Vector) (*engine.Options, error) {
	config, err := s.loadTrack(trackID)
	if err != nil {
		return nil, err
	}
	t, _, err := buildTrack(config)
	if err != nil {
		return nil, err
	}
	current := geom.NewMove(pos.Plus(velocity.Multiply(-1)), velocity)
	opts := engine.NextMoves(t, current)
	return &opts, nil
}

// StartRace registers a race and runs it in the background
func (s *raceServiceImpl) StartRace(ctx context.Context, req StartRaceRequest) (*RaceInfo, error) {
	config, err := s.loadTrack(req.TrackID)
	if err != nil {
		return nil, err
	}
	t, starts, err := buildTrack(config)
	if err != nil {
		return nil, err
	}
	if len(req.Drivers) == 0 {
		return nil, fmt.Errorf("%w: at least one driver is required", engine.ErrNoEntrants)
	}

	entrants := make([]engine.Entrant, len(req.Drivers))
	for i, d := range req.Drivers {
		e, err := newEntrant(t, starts, i, d)
		if err != nil {
			return nil, err
		}
		entrants[i] = e
	}

	turnLimit := s.turnLimit
	if req.TurnLimit > 0 {
		turnLimit = req.TurnLimit
	}
	raceOpts := []engine.RaceOption{engine.WithTurnLimit(turnLimit)}
	if s.moveTimeout > 0 {
		raceOpts = append(raceOpts, engine.WithMoveTimeout(s.moveTimeout))
	}
	race, err := engine.NewRace(t, entrants, raceOpts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	trackID := req.TrackID
	if trackID == "" {
		trackID = config.Name
	}
	runCtx, cancel := context.WithCancel(context.Background())
	r, err := s.races.Create("", NewRace(trackID, t, race.InitialState(), cancel))
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to register race: %w", err)
	}

	log.Printf("Race %s started on track %s with %d drivers", r.ID, trackID, len(entrants))
	go s.run(runCtx, r, race)
	return r.Info(), nil
}

func (s *raceServiceImpl) run(ctx context.Context, r *Race, race *engine.Race) {
	defer r.Cancel()
	for ev := range race.Run(ctx) {
		r.apply(ev)
		s.broadcast(r.ID, string(ev.Type), r.Info())
		switch ev.Type {
		case engine.EventFinish:
			log.Printf("Race %s finished on turn %d (winners: %v)", r.ID, ev.Turn, ev.Winners)
		case engine.EventError:
			log.Printf("Race %s stopped on turn %d: %s", r.ID, ev.Turn, ev.Error)
		}
	}
	r.finish()
}

func (s *raceServiceImpl) broadcast(raceID, event string, data interface{}) {
	if s.broadcaster != nil {
		s.broadcaster.BroadcastEvent(raceID, event, data)
	}
}

// GetRace retrieves race information
func (s *raceServiceImpl) GetRace(ctx context.Context, raceID string) (*RaceInfo, error) {
	r, err := s.races.Get(raceID)
	if err != nil {
		return nil, fmt.Errorf("race %s: %w", raceID, err)
	}
	s.races.UpdateLastAccessed(raceID)
	return r.Info(), nil
}

// ListRaces returns all races, oldest first
func (s *raceServiceImpl) ListRaces(ctx context.Context) ([]*RaceInfo, error) {
	races := s.races.List()
	sort.Slice(races, func(i, j int) bool {
		return races[i].CreatedAt.Before(races[j].CreatedAt)
	})
	result := make([]*RaceInfo, 0, len(races))
	for _, r := range races {
		result = append(result, r.Info())
	}
	return result, nil
}

// CancelRace stops a race if it is still running and forgets it
func (s *raceServiceImpl) CancelRace(ctx context.Context, raceID string) error {
	r, err := s.races.Get(raceID)
	if err != nil {
		return fmt.Errorf("race %s: %w", raceID, err)
	}
	if r.Running() {
		r.Cancel()
		log.Printf("Race %s cancelled", r.ID)
	}
	return s.races.Delete(raceID)
}

func (s *raceServiceImpl) loadTrack(trackID string) (*engine.TrackConfig, error) {
	if trackID == "" {
		return s.configs.GetDefault(), nil
	}
	config, err := s.configs.LoadConfig(trackID)
	if err != nil {
		if errors.Is(err, ErrTrackNotFound) {
			return nil, s.notFound(trackID)
		}
		return nil, fmt.Errorf("failed to load track %s: %w", trackID, err)
	}
	return config, nil
}

// notFound lists the available tracks in the error.
func (s *raceServiceImpl) notFound(trackID string) error {
	tracks, err := s.configs.ListConfigs()
	if err != nil || len(tracks) == 0 {
		return fmt.Errorf("track '%s': %w", trackID, ErrTrackNotFound)
	}
	ids := make([]string, 0, len(tracks))
	for _, t := range tracks {
		ids = append(ids, t.TrackID)
	}
	return fmt.Errorf("track '%s': %w. Available tracks: %v", trackID, ErrTrackNotFound, ids)
}

func buildTrack(config *engine.TrackConfig) (*track.Track, []geom.Position, error) {
	t, starts, err := config.Build()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidTrack, err)
	}
	return t, starts, nil
}

func detail(trackID string, config *engine.TrackConfig, t *track.Track, starts []geom.Position) *TrackDetail {
	return &TrackDetail{
		TrackInfo: *NewTrackInfo(trackID, "", config),
		Rows:      render.Rows(t),
		Start:     starts,
		Finish:    t.FinishLine(),
		Config:    config,
	}
}

func newEntrant(t *track.Track, starts []geom.Position, i int, d Driver) (engine.Entrant, error) {
	e := engine.Entrant{Name: d.Name}
	if e.Name == "" {
		e.Name = fmt.Sprintf("driver %d", i+1)
	}

	switch {
	case d.Start != nil:
		e.Start = *d.Start
	case len(starts) > 0:
		e.Start = starts[i%len(starts)]
	default:
		return e, fmt.Errorf("%w: track has no start positions", ErrInvalidTrack)
	}
	if !t.InBounds(e.Start) {
		return e, fmt.Errorf("%w: driver %d starts off the track at %s", ErrInvalidRequest, i+1, e.Start)
	}

	switch d.Kind {
	case DriverBot, "":
		e.Player = players.Greedy(t)
	case DriverOptimal:
		e.Player = players.Optimal(t)
	case DriverScripted:
		e.Player = players.Scripted(d.Velocities...)
	default:
		return e, fmt.Errorf("%w: unknown driver kind %q", ErrInvalidRequest, d.Kind)
	}
	return e, nil
}
