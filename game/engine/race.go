package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wricardo/vector-race/game/geom"
	"github.com/wricardo/vector-race/game/track"
)

// Race runs the turn loop for a set of entrants on a track.
type Race struct {
	track       *track.Track
	entrants    []Entrant
	moveTimeout time.Duration
	turnLimit   int
}

// RaceOption configures a Race.
type RaceOption func(*Race)

// WithMoveTimeout bounds how long a single player may take to choose.
// A player that runs out of time aborts the race.
func WithMoveTimeout(d time.Duration) RaceOption {
	return func(r *Race) { r.moveTimeout = d }
}

// WithTurnLimit aborts the race with ErrTurnLimit once n turns have been
// played without a result.
func WithTurnLimit(n int) RaceOption {
	return func(r *Race) { r.turnLimit = n }
}

// NewRace validates the entrants and returns a race ready to run.
func NewRace(t *track.Track, entrants []Entrant, opts ...RaceOption) (*Race, error) {
	if t == nil {
		return nil, ErrNoTrack
	}
	if len(entrants) == 0 {
		return nil, ErrNoEntrants
	}
	for i, e := range entrants {
		if e.Player == nil {
			return nil, fmt.Errorf("entrant %d: %w", i, ErrNoPlayer)
		}
	}
	r := &Race{
		track:    t,
		entrants: append([]Entrant(nil), entrants...),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

func (r *Race) Track() *track.Track {
	return r.track
}

// InitialState places every entrant on its start with zero velocity.
func (r *Race) InitialState() GameState {
	players := make([]PlayerState, len(r.entrants))
	for i, e := range r.entrants {
		players[i] = PlayerState{
			PlayerNo: i,
			Name:     e.Name,
			Live:     true,
			Move:     geom.NewMove(e.Start, geom.Vector{}),
		}
	}
	return GameState{Players: players}
}

// Run starts the race and returns its event stream. The channel is closed
// after the terminal event. Cancelling ctx aborts the race; if nobody is
// reading at that point the terminal event may be dropped.
func (r *Race) Run(ctx context.Context) <-chan Event {
	events := make(chan Event, 1)
	go func() {
		defer close(events)
		r.loop(ctx, events)
	}()
	return events
}

// Play runs the race to completion, calling onTurn for each turn event.
func (r *Race) Play(ctx context.Context, onTurn func(Event)) (*Result, error) {
	var last Event
	for ev := range r.Run(ctx) {
		if ev.Type == EventTurn {
			if onTurn != nil {
				onTurn(ev)
			}
			continue
		}
		last = ev
	}
	switch last.Type {
	case EventFinish:
		return &Result{Turn: last.Turn, Winners: last.Winners, Final: last.State.Players}, nil
	case EventError:
		return nil, last.Err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return nil, errors.New("race ended without a result")
}

func (r *Race) loop(ctx context.Context, events chan<- Event) {
	state := r.InitialState()
	for turn := 1; ; turn++ {
		next, err := r.playTurn(ctx, turn, state)
		if err != nil {
			send(ctx, events, Event{Type: EventError, Turn: turn, State: state, Err: err, Error: err.Error()})
			return
		}

		if winners := r.winners(next); len(winners) > 0 {
			for _, w := range winners {
				next.Players[w].Finished = true
			}
			send(ctx, events, Event{Type: EventFinish, Turn: turn, State: next, Winners: winners})
			return
		}
		if next.Live() == 0 {
			send(ctx, events, Event{Type: EventFinish, Turn: turn, State: next, Winners: []int{}})
			return
		}

		if !send(ctx, events, Event{Type: EventTurn, Turn: turn, State: next}) {
			return
		}
		if r.turnLimit > 0 && turn >= r.turnLimit {
			err := fmt.Errorf("%w: %d turns", ErrTurnLimit, turn)
			send(ctx, events, Event{Type: EventError, Turn: turn, State: next, Err: err, Error: err.Error()})
			return
		}
		state = next
	}
}

// playTurn queries every live player at once and folds the answers into a
// fresh state. The first failure cancels the other queries.
func (r *Race) playTurn(ctx context.Context, turn int, prev GameState) (GameState, error) {
	next := GameState{Turn: turn, Players: make([]PlayerState, len(prev.Players))}
	copy(next.Players, prev.Players)

	g, gctx := errgroup.WithContext(ctx)
	for i := range prev.Players {
		if !prev.Players[i].Live {
			continue
		}
		g.Go(func() error {
			opts := NextMoves(r.track, prev.Players[i].Move)
			opts.Turn, opts.PlayerNo = turn, i

			choice, err := r.ask(gctx, r.entrants[i].Player, opts)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return &PlayerError{PlayerNo: i, Turn: turn, Err: err}
			}
			next.Players[i] = classify(prev.Players[i], opts, choice)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return GameState{}, err
	}
	return next, nil
}

// ask waits for the player's choice, giving up when ctx is done even if
// the player ignores it.
func (r *Race) ask(ctx context.Context, p Player, opts Options) (*geom.Move, error) {
	if r.moveTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.moveTimeout)
		defer cancel()
	}

	type answer struct {
		move *geom.Move
		err  error
	}
	done := make(chan answer, 1)
	go func() {
		m, err := p.Choose(ctx, opts)
		done <- answer{m, err}
	}()

	select {
	case a := <-done:
		return a.move, a.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func classify(prev PlayerState, opts Options, choice *geom.Move) PlayerState {
	s := prev
	switch {
	case len(opts.PossibleMoves) == 0:
		s.Live, s.DNF = false, ReasonCrashed
	case choice == nil || !opts.Contains(*choice):
		s.Live, s.DSQ = false, ReasonIllegal
	default:
		s.Move = *choice
	}
	return s
}

func (r *Race) winners(s GameState) []int {
	var winners []int
	for i, p := range s.Players {
		if p.Live && r.track.Finish(p.Move) {
			winners = append(winners, i)
		}
	}
	return winners
}

func send(ctx context.Context, events chan<- Event, ev Event) bool {
	select {
	case events <- ev:
		return true
	default:
	}
	select {
	case events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
