// Package console lets a human race from the terminal.
package console

import (
	"context"
	"errors"
	"fmt"

	"github.com/gdamore/tcell/v2"

	"github.com/wricardo/vector-race/game/engine"
	"github.com/wricardo/vector-race/game/geom"
	"github.com/wricardo/vector-race/game/render"
	"github.com/wricardo/vector-race/game/track"
)

// ErrCancelled is returned when the human quits mid race.
var ErrCancelled = errors.New("cancelled by player")

const (
	carRune   = '@'
	crashRune = '¤'

	promptSelect  = "Select move (1-9, Esc to quit)"
	promptInvalid = "Not a valid move. Please select move"
	promptDanger  = "Danger, danger, danger ..."
)

// Player asks a human for every move.
type Player struct {
	screen Screen
	keys   <-chan Key
	track  *track.Track
}

func NewPlayer(screen Screen, keys <-chan Key, t *track.Track) *Player {
	return &Player{screen: screen, keys: keys, track: t}
}

// Choose shows the candidate moves and waits for a valid key. With no legal
// move left it shows the cells around where the car is heading, waits for
// any key and abstains. Esc quits instead.
func (p *Player) Choose(ctx context.Context, opts engine.Options) (*geom.Move, error) {
	car := render.Mark{Position: opts.DefaultMove.Start, Rune: carRune}
	if len(opts.PossibleMoves) == 0 {
		marks := []render.Mark{car}
		for _, d := range engine.Deltas {
			marks = append(marks, render.Mark{Position: opts.DefaultMove.End.Plus(d), Rune: crashRune})
		}
		p.draw(opts, marks, promptDanger)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case k, ok := <-p.keys:
			if !ok || k.Cancel {
				return nil, ErrCancelled
			}
			return nil, nil
		}
	}

	marks := make([]render.Mark, 0, len(opts.PossibleMoves)+1)
	for _, m := range opts.PossibleMoves {
		if k, ok := KeyFor(m.Velocity.Minus(opts.DefaultMove.Velocity)); ok {
			marks = append(marks, render.Mark{Position: m.End, Rune: k})
		}
	}
	marks = append(marks, car)
	prompt := promptSelect
	for {
		p.draw(opts, marks, prompt)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case k, ok := <-p.keys:
			if !ok || k.Cancel {
				return nil, ErrCancelled
			}
			if d, ok := DeltaFor(k.Rune); ok {
				m := geom.NewMove(opts.DefaultMove.Start, opts.DefaultMove.Velocity.Plus(d))
				if opts.Contains(m) {
					return &m, nil
				}
			}
			prompt = promptInvalid
		}
	}
}

// draw paints the track under marks, later marks on top.
func (p *Player) draw(opts engine.Options, marks []render.Mark, prompt string) {
	rows := render.Rows(p.track, marks...)

	p.screen.Clear()
	for y, row := range rows {
		x := 0
		for _, r := range row {
			p.screen.SetContent(x, y, r, nil, styleFor(r))
			x++
		}
	}
	status := fmt.Sprintf("Turn %d  position %s  velocity %s",
		opts.Turn, opts.DefaultMove.Start, opts.DefaultMove.Velocity)
	drawText(p.screen, 0, len(rows)+1, status, styleText)
	drawText(p.screen, 0, len(rows)+2, prompt, styleText)
	p.screen.Show()
}

func styleFor(r rune) tcell.Style {
	switch r {
	case render.Wall:
		return styleWall
	case render.Finish:
		return styleFinish
	case carRune:
		return styleCar
	case crashRune:
		return styleCrash
	case render.Open:
		return styleText
	}
	return styleKey
}
