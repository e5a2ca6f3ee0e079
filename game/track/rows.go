package track

import "github.com/wricardo/vector-race/game/geom"

// FromRows builds a track from text rows written top row first.
// A space is on the track, any other character is off it. The last row
// holds y = 0. The rows are copied so later changes to the slice have no
// effect. Rows shorter than the first are padded with off-track cells.
func FromRows(rows []string, finishLine []geom.Position) *Track {
	if len(rows) == 0 {
		return New(Size{}, func(geom.Position) bool { return false }, finishLine)
	}
	grid := make([]string, len(rows))
	copy(grid, rows)
	size := Size{Width: len(grid[0]), Height: len(grid)}
	return New(size, func(p geom.Position) bool {
		row := grid[len(grid)-1-p.Y]
		return p.X < len(row) && row[p.X] == ' '
	}, finishLine)
}
