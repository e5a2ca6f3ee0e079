// Package players provides engine.Player implementations that need no
// human: scripted drivers for tests and replays, a greedy bot and a bot
// that follows the fastest route.
package players

import (
	"context"
	"math"
	"sync"

	"github.com/wricardo/vector-race/game/engine"
	"github.com/wricardo/vector-race/game/geom"
	"github.com/wricardo/vector-race/game/solver"
	"github.com/wricardo/vector-race/game/track"
)

// script hands out velocities one at a time.
type script struct {
	mu         sync.Mutex
	velocities []geom.Vector
	next       int
}

func (s *script) pop() (geom.Vector, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.next >= len(s.velocities) {
		return geom.Vector{}, false
	}
	v := s.velocities[s.next]
	s.next++
	return v, true
}

// Scripted drives with the given velocities, one per turn. It abstains
// when it has no legal moves or runs out of script.
func Scripted(velocities ...geom.Vector) engine.Player {
	s := &script{velocities: velocities}
	return engine.PlayerFunc(func(ctx context.Context, opts engine.Options) (*geom.Move, error) {
		if len(opts.PossibleMoves) == 0 {
			return nil, nil
		}
		v, ok := s.pop()
		if !ok {
			return nil, nil
		}
		m := geom.NewMove(opts.DefaultMove.Start, v)
		return &m, nil
	})
}

// Failing drives like Scripted and returns err once the script is used up.
func Failing(err error, velocities ...geom.Vector) engine.Player {
	s := &script{velocities: velocities}
	return engine.PlayerFunc(func(ctx context.Context, opts engine.Options) (*geom.Move, error) {
		v, ok := s.pop()
		if !ok {
			return nil, err
		}
		m := geom.NewMove(opts.DefaultMove.Start, v)
		return &m, nil
	})
}

// Recording calls sink with every set of options before asking inner.
func Recording(inner engine.Player, sink func(engine.Options)) engine.Player {
	return engine.PlayerFunc(func(ctx context.Context, opts engine.Options) (*geom.Move, error) {
		sink(opts)
		return inner.Choose(ctx, opts)
	})
}

// greedy heads for the finish line along the shortest on-track path.
type greedy struct {
	track *track.Track
	dist  map[geom.Position]int
}

// Greedy returns a bot for t. It takes a finishing move whenever it has
// one. Otherwise it picks the move whose end is closest to the finish line
// in on-track steps, among the moves that still leave a legal move on the
// following turn, preferring higher speed on ties.
func Greedy(t *track.Track) engine.Player {
	return &greedy{track: t, dist: t.Distances(t.FinishLine())}
}

func (g *greedy) Choose(ctx context.Context, opts engine.Options) (*geom.Move, error) {
	if len(opts.PossibleMoves) == 0 {
		return nil, nil
	}
	for _, m := range opts.PossibleMoves {
		if g.track.Finish(m) {
			m := m
			return &m, nil
		}
	}

	best := -1
	bestScore, bestSpeed := math.MaxInt, -1.0
	for i, m := range opts.PossibleMoves {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if len(engine.NextMoves(g.track, m).PossibleMoves) == 0 {
			continue
		}
		score, ok := g.dist[m.End]
		if !ok {
			score = math.MaxInt - 1
		}
		speed := m.Velocity.Length()
		if score < bestScore || (score == bestScore && speed > bestSpeed) {
			best, bestScore, bestSpeed = i, score, speed
		}
	}
	if best < 0 {
		// Every move is a dead end; take one anyway rather than abstain.
		best = 0
	}
	m := opts.PossibleMoves[best]
	return &m, nil
}

// optimal replays a fastest route and plans again when the race leaves it.
type optimal struct {
	track    *track.Track
	opts     []solver.Option
	fallback engine.Player

	mu    sync.Mutex
	route []geom.Move
}

// Optimal returns a bot for t that follows a fastest route to the finish
// line. When no route can be found it drives like Greedy.
func Optimal(t *track.Track, opts ...solver.Option) engine.Player {
	return &optimal{track: t, opts: opts, fallback: Greedy(t)}
}

func (o *optimal) Choose(ctx context.Context, opts engine.Options) (*geom.Move, error) {
	if len(opts.PossibleMoves) == 0 {
		return nil, nil
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if len(o.route) == 0 || !opts.Contains(o.route[0]) {
		v := opts.DefaultMove.Velocity
		current := geom.NewMove(opts.DefaultMove.Start.Plus(v.Multiply(-1)), v)
		route, err := solver.SolveFrom(ctx, o.track, current, o.opts...)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			o.route = nil
			return o.fallback.Choose(ctx, opts)
		}
		o.route = route.Moves
	}

	m := o.route[0]
	o.route = o.route[1:]
	return &m, nil
}
