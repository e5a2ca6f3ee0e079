// Package render draws tracks as text, top row first.
package render

import (
	"strings"

	"github.com/wricardo/vector-race/game/geom"
	"github.com/wricardo/vector-race/game/track"
)

// Cell runes.
const (
	Open   = ' '
	Wall   = 'X'
	Finish = '-'
)

// Mark overlays a rune on one cell.
type Mark struct {
	Position geom.Position
	Rune     rune
}

// Rows renders t as text rows, top row first, so that y = 0 is the last
// row. Later marks win over earlier ones; marks off the grid are ignored.
func Rows(t *track.Track, marks ...Mark) []string {
	size := t.Size()
	grid := make([][]rune, size.Height)
	for row := range grid {
		y := size.Height - 1 - row
		line := make([]rune, size.Width)
		for x := range line {
			p := geom.Pos(x, y)
			switch {
			case t.IsFinish(p):
				line[x] = Finish
			case t.InBounds(p):
				line[x] = Open
			default:
				line[x] = Wall
			}
		}
		grid[row] = line
	}
	for _, m := range marks {
		if !size.Contains(m.Position) {
			continue
		}
		grid[size.Height-1-m.Position.Y][m.Position.X] = m.Rune
	}

	rows := make([]string, len(grid))
	for i, line := range grid {
		rows[i] = string(line)
	}
	return rows
}

// String renders t as a single newline separated block.
func String(t *track.Track, marks ...Mark) string {
	return strings.Join(Rows(t, marks...), "\n")
}
