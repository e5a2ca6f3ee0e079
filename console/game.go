package console

import (
	"context"
	"fmt"

	"github.com/wricardo/vector-race/game/engine"
	"github.com/wricardo/vector-race/game/geom"
	"github.com/wricardo/vector-race/game/track"
)

// Game is a single player race in the terminal.
type Game struct {
	screen Screen
	keys   <-chan Key
}

func NewGame(screen Screen, keys <-chan Key) *Game {
	return &Game{screen: screen, keys: keys}
}

// Play races the human from start on t and returns the closing message,
// which is also shown on screen.
func (g *Game) Play(ctx context.Context, t *track.Track, start geom.Position) (string, error) {
	race, err := engine.NewRace(t, []engine.Entrant{
		{Name: "you", Player: NewPlayer(g.screen, g.keys, t), Start: start},
	})
	if err != nil {
		return "", err
	}

	res, err := race.Play(ctx, nil)
	var msg string
	if err != nil {
		msg = err.Error()
	} else {
		msg = Outcome(res)
	}
	rows := t.Size().Height
	drawText(g.screen, 0, rows+3, msg, styleText)
	g.screen.Show()
	return msg, err
}

// Outcome describes how the first player's race ended.
func Outcome(res *engine.Result) string {
	if len(res.Winners) > 0 {
		return fmt.Sprintf("You won in %d turn(s)", res.Turn)
	}
	if len(res.Final) > 0 && res.Final[0].DSQ != "" {
		return fmt.Sprintf("You were disqualified after %d turns", res.Turn)
	}
	return fmt.Sprintf("You crashed after %d turns", res.Turn)
}
