package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/wricardo/vector-race/game/geom"
)

// Player status reasons.
const (
	ReasonCrashed = "Crashed"
	ReasonIllegal = "Illegal move"
)

var (
	ErrNoTrack    = errors.New("race has no track")
	ErrNoEntrants = errors.New("race has no entrants")
	ErrNoPlayer   = errors.New("entrant has no player")
	ErrTurnLimit  = errors.New("turn limit reached")
)

// Player chooses a move each turn. Returning a nil move abstains, which
// disqualifies the player whenever a legal move existed. Returning an error
// aborts the whole race.
type Player interface {
	Choose(ctx context.Context, opts Options) (*geom.Move, error)
}

// PlayerFunc adapts a function to the Player interface.
type PlayerFunc func(ctx context.Context, opts Options) (*geom.Move, error)

func (f PlayerFunc) Choose(ctx context.Context, opts Options) (*geom.Move, error) {
	return f(ctx, opts)
}

// Entrant is a player registered for a race.
type Entrant struct {
	Name   string
	Player Player
	Start  geom.Position
}

// PlayerState is one player's standing after a turn. Players that are no
// longer live keep the last move they made.
type PlayerState struct {
	PlayerNo int       `json:"player_no"`
	Name     string    `json:"name,omitempty"`
	Live     bool      `json:"live"`
	Finished bool      `json:"finished,omitempty"`
	Move     geom.Move `json:"move"`
	DNF      string    `json:"dnf,omitempty"`
	DSQ      string    `json:"dsq,omitempty"`
}

// Status summarizes the player's state in one word.
func (s PlayerState) Status() string {
	switch {
	case s.Finished:
		return "finished"
	case s.DNF != "":
		return "dnf"
	case s.DSQ != "":
		return "dsq"
	case s.Live:
		return "racing"
	}
	return "out"
}

// GameState is the standing of every player after a turn, in
// registration order.
type GameState struct {
	Turn    int           `json:"turn"`
	Players []PlayerState `json:"players"`
}

// Live counts the players still racing.
func (g GameState) Live() int {
	n := 0
	for _, p := range g.Players {
		if p.Live {
			n++
		}
	}
	return n
}

// EventType distinguishes race events.
type EventType string

const (
	EventTurn   EventType = "turn"
	EventFinish EventType = "finish"
	EventError  EventType = "error"
)

// Event is emitted by a running race. A race emits zero or more turn
// events and then exactly one finish or error event.
type Event struct {
	Type    EventType `json:"type"`
	Turn    int       `json:"turn"`
	State   GameState `json:"state"`
	Winners []int     `json:"winners,omitempty"`
	Err     error     `json:"-"`
	Error   string    `json:"error,omitempty"`
}

// Result is the outcome of a finished race.
type Result struct {
	Turn    int           `json:"turn"`
	Winners []int         `json:"winners"`
	Final   []PlayerState `json:"final"`
}

// PlayerError is a player failure that aborted a race.
type PlayerError struct {
	PlayerNo int
	Turn     int
	Err      error
}

func (e *PlayerError) Error() string {
	return fmt.Sprintf("player %d failed on turn %d: %v", e.PlayerNo, e.Turn, e.Err)
}

func (e *PlayerError) Unwrap() error {
	return e.Err
}
