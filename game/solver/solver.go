// Package solver finds the fastest way to the finish line by breadth-first
// search over car states.
package solver

import (
	"context"
	"errors"

	"github.com/wricardo/vector-race/game/engine"
	"github.com/wricardo/vector-race/game/geom"
	"github.com/wricardo/vector-race/game/track"
)

// DefaultMaxStates bounds a search when no limit is given.
const DefaultMaxStates = 1 << 20

var (
	ErrNoRoute     = errors.New("no route to the finish line")
	ErrSearchLimit = errors.New("search state limit reached")
)

// Route is a sequence of legal moves whose last move finishes the race.
type Route struct {
	Moves []geom.Move `json:"moves"`
}

// Turns is the number of turns the route takes.
func (r *Route) Turns() int {
	return len(r.Moves)
}

// Velocities returns the velocity of every move, ready for a scripted
// driver.
func (r *Route) Velocities() []geom.Vector {
	out := make([]geom.Vector, len(r.Moves))
	for i, m := range r.Moves {
		out[i] = m.Velocity
	}
	return out
}

type options struct {
	maxStates int
}

// Option tunes a search.
type Option func(*options)

// WithMaxStates stops the search with ErrSearchLimit after n states.
func WithMaxStates(n int) Option {
	return func(o *options) { o.maxStates = n }
}

// state is a car between turns. The cell it came from follows from the two.
type state struct {
	pos      geom.Position
	velocity geom.Vector
}

type step struct {
	move geom.Move
	prev state
	root bool
}

// Solve finds a fastest route for a car standing still at start.
func Solve(ctx context.Context, t *track.Track, start geom.Position, opts ...Option) (*Route, error) {
	return SolveFrom(ctx, t, geom.NewMove(start, geom.Vector{}), opts...)
}

// SolveFrom finds a fastest route for a car that has just made current.
// Moves are explored in engine.Deltas order, so equal-length routes are
// resolved the same way every time.
func SolveFrom(ctx context.Context, t *track.Track, current geom.Move, opts ...Option) (*Route, error) {
	o := options{maxStates: DefaultMaxStates}
	for _, opt := range opts {
		opt(&o)
	}

	origin := state{current.End, current.Velocity}
	visited := map[state]step{origin: {move: current, root: true}}
	queue := []geom.Move{current}

	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		m := queue[0]
		queue = queue[1:]
		from := state{m.End, m.Velocity}

		for _, next := range engine.NextMoves(t, m).PossibleMoves {
			if t.Finish(next) {
				return &Route{Moves: unwind(visited, from, next)}, nil
			}
			s := state{next.End, next.Velocity}
			if _, seen := visited[s]; seen {
				continue
			}
			if len(visited) >= o.maxStates {
				return nil, ErrSearchLimit
			}
			visited[s] = step{move: next, prev: from}
			queue = append(queue, next)
		}
	}
	return nil, ErrNoRoute
}

// unwind rebuilds the route ending with last, whose predecessor is at.
func unwind(visited map[state]step, at state, last geom.Move) []geom.Move {
	moves := []geom.Move{last}
	for {
		st := visited[at]
		if st.root {
			break
		}
		moves = append(moves, st.move)
		at = st.prev
	}
	for i, j := 0, len(moves)-1; i < j; i, j = i+1, j-1 {
		moves[i], moves[j] = moves[j], moves[i]
	}
	return moves
}
