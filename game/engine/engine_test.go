package engine_test

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/wricardo/vector-race/game/engine"
	"github.com/wricardo/vector-race/game/geom"
	"github.com/wricardo/vector-race/game/players"
	"github.com/wricardo/vector-race/game/track"
)

func testTrack() *track.Track {
	return track.FromRows([]string{
		"XXXXXXXXXX",
		"XXXXXXXXXX",
		"XXX    XXX",
		"XXX    XXX",
		"XX      XX",
		"XX      XX",
		"X   XX   X",
		"X   XX   X",
		"X  XXXX  X",
		"X  XXXX  X",
	}, []geom.Position{geom.Pos(7, 0), geom.Pos(8, 0)})
}

var start = geom.Pos(2, 0)

func vecs(pairs ...[2]int) []geom.Vector {
	out := make([]geom.Vector, len(pairs))
	for i, p := range pairs {
		out[i] = geom.Vec(p[0], p[1])
	}
	return out
}

var (
	winnerScript   = vecs([2]int{0, 1}, [2]int{1, 2}, [2]int{1, 1}, [2]int{1, 0}, [2]int{1, -1}, [2]int{1, -2}, [2]int{0, -3})
	runnerUpScript = vecs([2]int{0, 1}, [2]int{1, 2}, [2]int{1, 1}, [2]int{1, 0}, [2]int{0, 0}, [2]int{1, -1}, [2]int{1, -2}, [2]int{0, -3})
	dnfScript      = vecs([2]int{0, 1}, [2]int{1, 2}, [2]int{2, 3}, [2]int{2, 3}, [2]int{1, 2}, [2]int{0, 1}, [2]int{0, 0})
	lateDNFScript  = vecs([2]int{0, 1}, [2]int{1, 2}, [2]int{1, 1}, [2]int{1, 0}, [2]int{1, -1}, [2]int{2, 0}, [2]int{2, -1})
	cheaterScript  = vecs([2]int{0, 1}, [2]int{1, 2}, [2]int{4, 6})
)

func entrant(name string, p engine.Player) engine.Entrant {
	return engine.Entrant{Name: name, Player: p, Start: start}
}

func run(t *testing.T, entrants ...engine.Entrant) (*engine.Result, []engine.Event) {
	t.Helper()
	race, err := engine.NewRace(testTrack(), entrants, engine.WithTurnLimit(50))
	if err != nil {
		t.Fatalf("NewRace: %v", err)
	}
	var turns []engine.Event
	res, err := race.Play(context.Background(), func(ev engine.Event) {
		turns = append(turns, ev)
	})
	if err != nil {
		t.Fatalf("Play: %v", err)
	}
	return res, turns
}

func TestIsLegal(t *testing.T) {
	tr := testTrack()
	tests := []struct {
		name string
		move geom.Move
		want bool
	}{
		{"stays put", geom.NewMove(geom.Pos(3, 5), geom.Vec(0, 0)), true},
		{"up two", geom.NewMove(geom.Pos(3, 5), geom.Vec(0, 2)), true},
		{"diagonal", geom.NewMove(geom.Pos(3, 5), geom.Vec(2, 2)), true},
		{"right one", geom.NewMove(geom.Pos(3, 5), geom.Vec(1, 0)), true},
		{"too high", geom.NewMove(geom.Pos(3, 5), geom.Vec(1, 3)), false},
		{"too high right", geom.NewMove(geom.Pos(3, 5), geom.Vec(3, 3)), false},
		{"starts off track", geom.NewMove(geom.Pos(3, 0), geom.Vec(5, 0)), false},
		{"starts off grid", geom.NewMove(geom.Pos(0, 0), geom.Vec(1, 0)), false},
		{"into wall", geom.NewMove(geom.Pos(1, 0), geom.Vec(-1, 0)), false},
		{"through finish", geom.NewMove(geom.Pos(7, 1), geom.Vec(0, -4)), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := engine.IsLegal(tr, tt.move); got != tt.want {
				t.Errorf("IsLegal(%v) = %v, want %v", tt.move, got, tt.want)
			}
		})
	}
}

func TestNextMoves(t *testing.T) {
	tr := testTrack()
	tests := []struct {
		name        string
		current     geom.Move
		wantDefault geom.Move
		wantCount   int
		wantVel     []geom.Vector
	}{
		{
			name:        "open space",
			current:     geom.NewMove(geom.Pos(2, 4), geom.Vec(1, 1)),
			wantDefault: geom.NewMove(geom.Pos(3, 5), geom.Vec(1, 1)),
			wantCount:   9,
		},
		{
			name:        "near the top wall",
			current:     geom.NewMove(geom.Pos(1, 3), geom.Vec(2, 2)),
			wantDefault: geom.NewMove(geom.Pos(3, 5), geom.Vec(2, 2)),
			wantCount:   6,
			wantVel:     vecs([2]int{1, 2}, [2]int{2, 2}, [2]int{3, 2}, [2]int{1, 1}, [2]int{2, 1}, [2]int{3, 1}),
		},
		{
			name:        "off the grid",
			current:     geom.NewMove(geom.Pos(0, 0), geom.Vec(0, 0)),
			wantDefault: geom.NewMove(geom.Pos(0, 0), geom.Vec(0, 0)),
		},
		{
			name:        "inside a wall",
			current:     geom.NewMove(geom.Pos(3, 2), geom.Vec(2, 0)),
			wantDefault: geom.NewMove(geom.Pos(5, 2), geom.Vec(2, 0)),
		},
		{
			name:        "facing a wall",
			current:     geom.NewMove(geom.Pos(1, 2), geom.Vec(2, 0)),
			wantDefault: geom.NewMove(geom.Pos(3, 2), geom.Vec(2, 0)),
		},
		{
			name:        "every move finishes",
			current:     geom.NewMove(geom.Pos(7, 4), geom.Vec(0, -3)),
			wantDefault: geom.NewMove(geom.Pos(7, 1), geom.Vec(0, -3)),
			wantCount:   9,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := engine.NextMoves(tr, tt.current)
			if opts.DefaultMove != tt.wantDefault {
				t.Errorf("DefaultMove = %v, want %v", opts.DefaultMove, tt.wantDefault)
			}
			if len(opts.PossibleMoves) != tt.wantCount {
				t.Fatalf("got %d moves, want %d: %v", len(opts.PossibleMoves), tt.wantCount, opts.PossibleMoves)
			}
			for i, v := range tt.wantVel {
				want := geom.NewMove(tt.current.End, v)
				if opts.PossibleMoves[i] != want {
					t.Errorf("move %d = %v, want %v", i, opts.PossibleMoves[i], want)
				}
			}
			for _, m := range opts.PossibleMoves {
				if m.Start != tt.current.End {
					t.Errorf("move %v does not start at %v", m, tt.current.End)
				}
				if !engine.IsLegal(tr, m) {
					t.Errorf("move %v offered but illegal", m)
				}
			}
		})
	}
}

func TestNewRace(t *testing.T) {
	tr := testTrack()
	tests := []struct {
		name     string
		track    *track.Track
		entrants []engine.Entrant
		wantErr  error
	}{
		{"no track", nil, []engine.Entrant{entrant("a", players.Scripted())}, engine.ErrNoTrack},
		{"no entrants", tr, nil, engine.ErrNoEntrants},
		{"nil player", tr, []engine.Entrant{{Name: "a", Start: start}}, engine.ErrNoPlayer},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := engine.NewRace(tt.track, tt.entrants)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestInitialState(t *testing.T) {
	race, err := engine.NewRace(testTrack(), []engine.Entrant{
		entrant("a", players.Scripted()),
		{Name: "b", Player: players.Scripted(), Start: geom.Pos(1, 0)},
	})
	if err != nil {
		t.Fatal(err)
	}
	s := race.InitialState()
	if s.Turn != 0 || s.Live() != 2 {
		t.Fatalf("state = %+v", s)
	}
	if s.Players[1].Move != geom.NewMove(geom.Pos(1, 0), geom.Vec(0, 0)) {
		t.Errorf("player 1 move = %v", s.Players[1].Move)
	}
	if s.Players[0].Status() != "racing" {
		t.Errorf("status = %q", s.Players[0].Status())
	}
}

func TestSinglePlayerWins(t *testing.T) {
	res, turns := run(t, entrant("winner", players.Scripted(winnerScript...)))

	if res.Turn != 7 {
		t.Errorf("finished on turn %d, want 7", res.Turn)
	}
	if !reflect.DeepEqual(res.Winners, []int{0}) {
		t.Errorf("winners = %v, want [0]", res.Winners)
	}
	if len(turns) != 6 {
		t.Errorf("got %d turn events, want 6", len(turns))
	}
	for i, ev := range turns {
		if ev.Turn != i+1 || ev.State.Turn != i+1 {
			t.Errorf("event %d has turn %d/%d", i, ev.Turn, ev.State.Turn)
		}
	}
	if f := res.Final[0]; !f.Finished || f.Status() != "finished" {
		t.Errorf("final = %+v", f)
	}
	if got := res.Final[0].Move; got != geom.NewMove(geom.Pos(7, 1), geom.Vec(0, -3)) {
		t.Errorf("final move = %v", got)
	}
}

func TestCheaterIsDisqualified(t *testing.T) {
	var defaults []geom.Move
	cheater := players.Recording(players.Scripted(cheaterScript...), func(o engine.Options) {
		defaults = append(defaults, o.DefaultMove)
	})
	res, _ := run(t, entrant("cheater", cheater))

	if res.Turn != 3 || len(res.Winners) != 0 {
		t.Errorf("result = turn %d winners %v, want turn 3 no winners", res.Turn, res.Winners)
	}
	if res.Final[0].DSQ != engine.ReasonIllegal || res.Final[0].Live {
		t.Errorf("final = %+v", res.Final[0])
	}
	want := []geom.Move{
		geom.NewMove(geom.Pos(2, 0), geom.Vec(0, 0)),
		geom.NewMove(geom.Pos(2, 1), geom.Vec(0, 1)),
		geom.NewMove(geom.Pos(3, 3), geom.Vec(1, 2)),
	}
	if !reflect.DeepEqual(defaults, want) {
		t.Errorf("default moves = %v, want %v", defaults, want)
	}
}

func TestIllegalFirstMoves(t *testing.T) {
	tests := []struct {
		name string
		move geom.Move
	}{
		{"into a wall", geom.NewMove(geom.Pos(1, 0), geom.Vec(-1, 0))},
		{"too fast", geom.NewMove(geom.Pos(1, 0), geom.Vec(0, 2))},
		{"teleport", geom.NewMove(geom.Pos(1, 1), geom.Vec(0, 2))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := engine.PlayerFunc(func(ctx context.Context, o engine.Options) (*geom.Move, error) {
				m := tt.move
				return &m, nil
			})
			res, _ := run(t, engine.Entrant{Name: "p", Player: p, Start: geom.Pos(1, 0)})
			if res.Turn != 1 || len(res.Winners) != 0 {
				t.Errorf("result = turn %d winners %v", res.Turn, res.Winners)
			}
			if res.Final[0].Status() != "dsq" {
				t.Errorf("status = %q, want dsq", res.Final[0].Status())
			}
		})
	}
}

func TestCrash(t *testing.T) {
	res, turns := run(t, entrant("dnf", players.Scripted(dnfScript...)))
	if res.Turn != 4 || len(res.Winners) != 0 {
		t.Errorf("result = turn %d winners %v, want turn 4 no winners", res.Turn, res.Winners)
	}
	if len(turns) != 3 {
		t.Errorf("got %d turn events, want 3", len(turns))
	}
	f := res.Final[0]
	if f.DNF != engine.ReasonCrashed || f.Live {
		t.Errorf("final = %+v", f)
	}
	if f.Move != geom.NewMove(geom.Pos(3, 3), geom.Vec(2, 3)) {
		t.Errorf("crashed player should keep its last move, got %v", f.Move)
	}
}

func TestFailingPlayerAbortsRace(t *testing.T) {
	done := errors.New("Done")
	race, err := engine.NewRace(testTrack(), []engine.Entrant{
		entrant("winner", players.Scripted(winnerScript...)),
		entrant("failing", players.Failing(done, winnerScript[:2]...)),
	})
	if err != nil {
		t.Fatal(err)
	}

	var events []engine.Event
	for ev := range race.Run(context.Background()) {
		events = append(events, ev)
	}
	if len(events) != 3 {
		t.Fatalf("got %d events, want 3", len(events))
	}
	last := events[2]
	if last.Type != engine.EventError || last.Turn != 3 {
		t.Errorf("last event = %s turn %d", last.Type, last.Turn)
	}
	var pe *engine.PlayerError
	if !errors.As(last.Err, &pe) {
		t.Fatalf("err = %v, want *PlayerError", last.Err)
	}
	if pe.PlayerNo != 1 || pe.Turn != 3 || !errors.Is(last.Err, done) {
		t.Errorf("player error = %+v", pe)
	}
	if last.Error == "" {
		t.Error("error text not set")
	}
	if last.State.Turn != 2 {
		t.Errorf("error event should carry the last good state, got turn %d", last.State.Turn)
	}
}

func TestMultiplayerRaces(t *testing.T) {
	tests := []struct {
		name        string
		scripts     [][]geom.Vector
		wantTurn    int
		wantWinners []int
		wantStatus  []string
	}{
		{
			name:        "more players",
			scripts:     [][]geom.Vector{winnerScript, runnerUpScript, dnfScript, cheaterScript},
			wantTurn:    7,
			wantWinners: []int{0},
			wantStatus:  []string{"finished", "racing", "dnf", "dsq"},
		},
		{
			name:        "tie",
			scripts:     [][]geom.Vector{winnerScript, winnerScript},
			wantTurn:    7,
			wantWinners: []int{0, 1},
			wantStatus:  []string{"finished", "finished"},
		},
		{
			name:        "no winners",
			scripts:     [][]geom.Vector{dnfScript, cheaterScript},
			wantTurn:    4,
			wantWinners: []int{},
			wantStatus:  []string{"dnf", "dsq"},
		},
		{
			name:        "crashing at different times",
			scripts:     [][]geom.Vector{dnfScript, lateDNFScript},
			wantTurn:    7,
			wantWinners: []int{},
			wantStatus:  []string{"dnf", "dnf"},
		},
		{
			name:        "crashing while someone wins",
			scripts:     [][]geom.Vector{winnerScript, lateDNFScript},
			wantTurn:    7,
			wantWinners: []int{0},
			wantStatus:  []string{"finished", "dnf"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var entrants []engine.Entrant
			for _, s := range tt.scripts {
				entrants = append(entrants, entrant("p", players.Scripted(s...)))
			}
			res, _ := run(t, entrants...)
			if res.Turn != tt.wantTurn {
				t.Errorf("turn = %d, want %d", res.Turn, tt.wantTurn)
			}
			if !reflect.DeepEqual(res.Winners, tt.wantWinners) {
				t.Errorf("winners = %v, want %v", res.Winners, tt.wantWinners)
			}
			for i, want := range tt.wantStatus {
				if got := res.Final[i].Status(); got != want {
					t.Errorf("player %d status = %q, want %q", i, got, want)
				}
			}
		})
	}
}

func TestTurnLimit(t *testing.T) {
	idle := engine.PlayerFunc(func(ctx context.Context, o engine.Options) (*geom.Move, error) {
		m := geom.NewMove(o.DefaultMove.Start, geom.Vector{})
		return &m, nil
	})
	race, err := engine.NewRace(testTrack(), []engine.Entrant{entrant("idle", idle)}, engine.WithTurnLimit(3))
	if err != nil {
		t.Fatal(err)
	}
	turns := 0
	_, err = race.Play(context.Background(), func(engine.Event) { turns++ })
	if !errors.Is(err, engine.ErrTurnLimit) {
		t.Errorf("err = %v, want ErrTurnLimit", err)
	}
	if turns != 3 {
		t.Errorf("got %d turns, want 3", turns)
	}
}

func TestMoveTimeout(t *testing.T) {
	stuck := engine.PlayerFunc(func(ctx context.Context, o engine.Options) (*geom.Move, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	race, err := engine.NewRace(testTrack(), []engine.Entrant{entrant("stuck", stuck)},
		engine.WithMoveTimeout(20*time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}
	_, err = race.Play(context.Background(), nil)
	var pe *engine.PlayerError
	if !errors.As(err, &pe) || !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want a player timeout", err)
	}
}

func TestCancel(t *testing.T) {
	started := make(chan struct{})
	var once bool
	stuck := engine.PlayerFunc(func(ctx context.Context, o engine.Options) (*geom.Move, error) {
		if !once {
			once = true
			close(started)
		}
		<-ctx.Done()
		return nil, ctx.Err()
	})
	race, err := engine.NewRace(testTrack(), []engine.Entrant{entrant("stuck", stuck)})
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()
	_, err = race.Play(ctx, nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
