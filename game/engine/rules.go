package engine

import (
	"github.com/wricardo/vector-race/game/geom"
	"github.com/wricardo/vector-race/game/track"
)

// Deltas are the accelerations a car may apply in one turn, in keypad
// order: top row first, left to right.
var Deltas = [9]geom.Vector{
	{DX: -1, DY: 1}, {DX: 0, DY: 1}, {DX: 1, DY: 1},
	{DX: -1, DY: 0}, {DX: 0, DY: 0}, {DX: 1, DY: 0},
	{DX: -1, DY: -1}, {DX: 0, DY: -1}, {DX: 1, DY: -1},
}

// IsLegal reports whether m finishes the race or stays on the track.
func IsLegal(t *track.Track, m geom.Move) bool {
	return t.Finish(m) || !t.Intersects(m)
}

// Options is what a player is offered at the start of a turn.
type Options struct {
	// PossibleMoves are the legal continuations, in Deltas order.
	PossibleMoves []geom.Move `json:"possible_moves"`
	// DefaultMove keeps the current velocity. It need not be legal.
	DefaultMove geom.Move `json:"default_move"`
	Turn        int       `json:"turn,omitempty"`
	PlayerNo    int       `json:"player_no"`
}

// Contains reports whether m is one of the possible moves.
func (o Options) Contains(m geom.Move) bool {
	for _, pm := range o.PossibleMoves {
		if pm == m {
			return true
		}
	}
	return false
}

// NextMoves lists the legal moves following current.
func NextMoves(t *track.Track, current geom.Move) Options {
	opts := Options{
		PossibleMoves: make([]geom.Move, 0, len(Deltas)),
		DefaultMove:   geom.NewMove(current.End, current.Velocity),
	}
	for _, d := range Deltas {
		m := current.Then(d)
		if IsLegal(t, m) {
			opts.PossibleMoves = append(opts.PossibleMoves, m)
		}
	}
	return opts
}
