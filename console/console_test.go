package console

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/gdamore/tcell/v2"

	"github.com/wricardo/vector-race/game/engine"
	"github.com/wricardo/vector-race/game/geom"
	"github.com/wricardo/vector-race/game/track"
)

type fakeScreen struct {
	mu    sync.Mutex
	cells map[[2]int]rune
	shown int
}

func newFakeScreen() *fakeScreen {
	return &fakeScreen{cells: make(map[[2]int]rune)}
}

func (s *fakeScreen) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cells = make(map[[2]int]rune)
}

func (s *fakeScreen) SetContent(x, y int, primary rune, combining []rune, style tcell.Style) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cells[[2]int{x, y}] = primary
}

func (s *fakeScreen) Show() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shown++
}

func (s *fakeScreen) at(x, y int) rune {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cells[[2]int{x, y}]
}

func (s *fakeScreen) line(y int) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var b strings.Builder
	for x := 0; ; x++ {
		r, ok := s.cells[[2]int{x, y}]
		if !ok {
			return b.String()
		}
		b.WriteRune(r)
	}
}

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

func keys(runes string) chan Key {
	ch := make(chan Key, len(runes)+1)
	for _, r := range runes {
		ch <- Key{Rune: r}
	}
	return ch
}

func TestKeypad(t *testing.T) {
	for _, d := range engine.Deltas {
		k, ok := KeyFor(d)
		if !ok {
			t.Fatalf("no key for %v", d)
		}
		back, ok := DeltaFor(k)
		if !ok || back != d {
			t.Errorf("DeltaFor(%q) = %v, want %v", k, back, d)
		}
	}
	if k, _ := KeyFor(geom.Vec(0, 1)); k != '8' {
		t.Errorf("north is %q, want '8'", k)
	}
	if _, ok := KeyFor(geom.Vec(2, 0)); ok {
		t.Error("KeyFor should reject non unit deltas")
	}
	if _, ok := DeltaFor('0'); ok {
		t.Error("DeltaFor should reject '0'")
	}
}

func TestPlayerChoose(t *testing.T) {
	tr := testTrack()
	screen := newFakeScreen()
	p := NewPlayer(screen, keys("38"), tr)

	opts := engine.NextMoves(tr, geom.NewMove(geom.Pos(2, 0), geom.Vec(0, 0)))
	m, err := p.Choose(context.Background(), opts)
	if err != nil {
		t.Fatalf("Choose: %v", err)
	}
	if want := geom.NewMove(geom.Pos(2, 0), geom.Vec(0, 1)); m == nil || *m != want {
		t.Fatalf("move = %v, want %v", m, want)
	}

	if got := screen.at(2, 9); got != carRune {
		t.Errorf("car cell = %q, want %q", got, carRune)
	}
	if got := screen.at(2, 8); got != '8' {
		t.Errorf("candidate cell = %q, want '8'", got)
	}
	if got := screen.at(1, 8); got != '7' {
		t.Errorf("candidate cell = %q, want '7'", got)
	}
	if got := screen.line(12); got != promptInvalid {
		t.Errorf("prompt = %q, want %q", got, promptInvalid)
	}
	if screen.shown != 2 {
		t.Errorf("screen shown %d times, want 2", screen.shown)
	}
}

func TestPlayerNoMoves(t *testing.T) {
	tr := testTrack()
	// The car at (3,2) heads for (5,2) with nowhere legal to go.
	opts := engine.NextMoves(tr, geom.NewMove(geom.Pos(1, 2), geom.Vec(2, 0)))
	if len(opts.PossibleMoves) != 0 {
		t.Fatalf("expected no legal moves, got %v", opts.PossibleMoves)
	}

	t.Run("any key abstains", func(t *testing.T) {
		screen := newFakeScreen()
		p := NewPlayer(screen, keys("5"), tr)
		m, err := p.Choose(context.Background(), opts)
		if err != nil || m != nil {
			t.Fatalf("Choose = %v, %v, want nil, nil", m, err)
		}
		for _, d := range engine.Deltas {
			cell := geom.Pos(5, 2).Plus(d)
			if got := screen.at(cell.X, 9-cell.Y); got != crashRune {
				t.Errorf("cell %v = %q, want %q", cell, got, crashRune)
			}
		}
		if got := screen.at(3, 7); got != carRune {
			t.Errorf("car cell = %q, want %q", got, carRune)
		}
		if got := screen.line(12); got != promptDanger {
			t.Errorf("prompt = %q, want %q", got, promptDanger)
		}
	})

	t.Run("waits for a key", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		p := NewPlayer(newFakeScreen(), make(chan Key), tr)
		if _, err := p.Choose(ctx, opts); !errors.Is(err, context.Canceled) {
			t.Errorf("err = %v, want context.Canceled", err)
		}
	})

	t.Run("escape quits", func(t *testing.T) {
		ch := make(chan Key, 1)
		ch <- Key{Cancel: true}
		p := NewPlayer(newFakeScreen(), ch, tr)
		if _, err := p.Choose(context.Background(), opts); !errors.Is(err, ErrCancelled) {
			t.Errorf("err = %v, want ErrCancelled", err)
		}
	})
}

func TestPlayerCancel(t *testing.T) {
	tr := testTrack()
	opts := engine.NextMoves(tr, geom.NewMove(geom.Pos(2, 0), geom.Vec(0, 0)))

	cancelKey := make(chan Key, 1)
	cancelKey <- Key{Cancel: true}
	closed := make(chan Key)
	close(closed)

	tests := []struct {
		name string
		keys chan Key
	}{
		{"escape", cancelKey},
		{"screen gone", closed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPlayer(newFakeScreen(), tt.keys, tr)
			if _, err := p.Choose(context.Background(), opts); !errors.Is(err, ErrCancelled) {
				t.Errorf("err = %v, want ErrCancelled", err)
			}
		})
	}
}

func TestPlayerContextDone(t *testing.T) {
	tr := testTrack()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := NewPlayer(newFakeScreen(), make(chan Key), tr)
	opts := engine.NextMoves(tr, geom.NewMove(geom.Pos(2, 0), geom.Vec(0, 0)))
	if _, err := p.Choose(ctx, opts); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestGamePlay(t *testing.T) {
	tests := []struct {
		name    string
		keys    string
		cancel  bool
		want    string
		wantErr error
	}{
		{name: "win", keys: "8922221", want: "You won in 7 turn(s)"},
		{name: "crash", keys: "8991", want: "You crashed after 4 turns"},
		{name: "quit", cancel: true, wantErr: ErrCancelled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ch := keys(tt.keys)
			if tt.cancel {
				ch <- Key{Cancel: true}
			}
			screen := newFakeScreen()
			msg, err := NewGame(screen, ch).Play(context.Background(), testTrack(), geom.Pos(2, 0))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Play: %v", err)
			}
			if msg != tt.want {
				t.Errorf("message = %q, want %q", msg, tt.want)
			}
			if got := screen.line(13); got != tt.want {
				t.Errorf("screen message = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestOutcome(t *testing.T) {
	dsq := &engine.Result{Turn: 2, Winners: []int{}, Final: []engine.PlayerState{{DSQ: engine.ReasonIllegal}}}
	if got, want := Outcome(dsq), "You were disqualified after 2 turns"; got != want {
		t.Errorf("Outcome = %q, want %q", got, want)
	}
}
