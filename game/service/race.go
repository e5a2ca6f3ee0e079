package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/wricardo/vector-race/game/engine"
	"github.com/wricardo/vector-race/game/render"
	"github.com/wricardo/vector-race/game/track"
)

// Race is a race in progress or finished, as kept by a RaceStore. The ID
// is assigned by the store.
type Race struct {
	ID        string
	TrackID   string
	Track     *track.Track
	CreatedAt time.Time

	mu           sync.RWMutex
	lastAccessed time.Time
	status       RaceStatus
	state        engine.GameState
	winners      []int
	err          string
	cancel       context.CancelFunc
	done         chan struct{}
	doneOnce     sync.Once
}

// NewRace tracks a race starting from initial. cancel stops it.
func NewRace(trackID string, t *track.Track, initial engine.GameState, cancel context.CancelFunc) *Race {
	now := time.Now()
	return &Race{
		TrackID:      trackID,
		Track:        t,
		CreatedAt:    now,
		lastAccessed: now,
		status:       RaceRunning,
		state:        initial,
		cancel:       cancel,
		done:         make(chan struct{}),
	}
}

// Touch records an access.
func (r *Race) Touch() {
	r.mu.Lock()
	r.lastAccessed = time.Now()
	r.mu.Unlock()
}

func (r *Race) LastAccessed() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastAccessed
}

func (r *Race) Running() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.status == RaceRunning
}

// Done is closed once the race has stopped for any reason.
func (r *Race) Done() <-chan struct{} {
	return r.done
}

// Cancel stops a running race.
func (r *Race) Cancel() {
	if r.cancel != nil {
		r.cancel()
	}
}

// apply folds an engine event into the race.
func (r *Race) apply(ev engine.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = ev.State
	switch ev.Type {
	case engine.EventFinish:
		r.status = RaceFinished
		r.winners = ev.Winners
	case engine.EventError:
		r.status = RaceFailed
		if errors.Is(ev.Err, context.Canceled) {
			r.status = RaceCancelled
		}
		r.err = ev.Error
	}
}

// finish marks the race as stopped. A race still running at this point
// had its terminal event dropped by cancellation.
func (r *Race) finish() {
	r.mu.Lock()
	if r.status == RaceRunning {
		r.status = RaceCancelled
		r.err = context.Canceled.Error()
	}
	r.mu.Unlock()
	r.doneOnce.Do(func() { close(r.done) })
}

// Info snapshots the race. Player i is drawn as the digit i on the rows.
func (r *Race) Info() *RaceInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	players := append([]engine.PlayerState(nil), r.state.Players...)
	marks := make([]render.Mark, 0, len(players))
	for i, p := range players {
		if i < 10 {
			marks = append(marks, render.Mark{Position: p.Move.End, Rune: rune('0' + i)})
		}
	}
	return &RaceInfo{
		ID:             r.ID,
		TrackID:        r.TrackID,
		Status:         r.status,
		Turn:           r.state.Turn,
		Players:        players,
		Winners:        append([]int(nil), r.winners...),
		Error:          r.err,
		Rows:           render.Rows(r.Track, marks...),
		CreatedAt:      r.CreatedAt,
		LastAccessedAt: r.lastAccessed,
	}
}
