package console

import (
	"context"

	"github.com/gdamore/tcell/v2"
)

// Screen is the part of tcell.Screen the console draws on.
type Screen interface {
	Clear()
	SetContent(x, y int, primary rune, combining []rune, style tcell.Style)
	Show()
}

// Key is a key press relevant to the game.
type Key struct {
	Rune   rune
	Cancel bool
}

// Keys polls s for key presses until ctx is done or the screen is
// finalized. Escape and Ctrl-C are reported as Cancel.
func Keys(ctx context.Context, s tcell.Screen) <-chan Key {
	keys := make(chan Key)
	go func() {
		defer close(keys)
		for {
			ev := s.PollEvent()
			if ev == nil {
				return
			}
			kev, ok := ev.(*tcell.EventKey)
			if !ok {
				continue
			}
			var k Key
			switch kev.Key() {
			case tcell.KeyEscape, tcell.KeyCtrlC:
				k.Cancel = true
			case tcell.KeyRune:
				k.Rune = kev.Rune()
			default:
				continue
			}
			select {
			case keys <- k:
			case <-ctx.Done():
				return
			}
		}
	}()
	return keys
}

var (
	styleWall   = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleFinish = tcell.StyleDefault.Foreground(tcell.ColorGreen)
	styleCar    = tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)
	styleKey    = tcell.StyleDefault.Foreground(tcell.ColorBlue)
	styleCrash  = tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true)
	styleText   = tcell.StyleDefault
)

func drawText(s Screen, x, y int, text string, style tcell.Style) {
	for _, r := range text {
		s.SetContent(x, y, r, nil, style)
		x++
	}
}
