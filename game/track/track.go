package track

import (
	"github.com/wricardo/vector-race/game/geom"
)

// Size is the extent of a track grid.
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Contains reports whether p lies inside [0,Width) x [0,Height).
func (s Size) Contains(p geom.Position) bool {
	return p.X >= 0 && p.X < s.Width && p.Y >= 0 && p.Y < s.Height
}

// Track is a bounded region of the grid with a finish line.
// It is immutable once built and safe for concurrent use.
type Track struct {
	size       Size
	inBounds   func(geom.Position) bool
	finishLine []geom.Position
}

// New builds a track. The predicate is only consulted for positions inside
// the size rectangle; a nil predicate accepts every such position.
func New(size Size, inBounds func(geom.Position) bool, finishLine []geom.Position) *Track {
	if inBounds == nil {
		inBounds = func(geom.Position) bool { return true }
	}
	return &Track{
		size:       size,
		inBounds:   inBounds,
		finishLine: append([]geom.Position(nil), finishLine...),
	}
}

func (t *Track) Size() Size {
	return t.size
}

// FinishLine returns a copy of the finish positions.
func (t *Track) FinishLine() []geom.Position {
	return append([]geom.Position(nil), t.finishLine...)
}

// IsFinish reports whether p is one of the finish positions.
func (t *Track) IsFinish(p geom.Position) bool {
	for _, f := range t.finishLine {
		if f == p {
			return true
		}
	}
	return false
}

func (t *Track) InBounds(p geom.Position) bool {
	return t.size.Contains(p) && t.inBounds(p)
}

// Intersects reports whether the move collides with the track edge.
// A move that starts or ends out of bounds always collides.
func (t *Track) Intersects(m geom.Move) bool {
	if !t.InBounds(m.Start) || !t.InBounds(m.End) {
		return true
	}
	x0, x1 := minMax(m.Start.X, m.End.X)
	y0, y1 := minMax(m.Start.Y, m.End.Y)
	line := m.Line()
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			p := geom.Pos(x, y)
			if !t.InBounds(p) && p.Tile().Intersects(line) {
				return true
			}
		}
	}
	return false
}

// Finish reports whether the move crosses the finish line without
// crashing before it gets there.
func (t *Track) Finish(m geom.Move) bool {
	if m.Velocity.IsZero() || !t.InBounds(m.Start) {
		return false
	}
	line := m.Line()
	for _, f := range t.finishLine {
		if f.Tile().Intersects(line) && !t.Intersects(m.Start.To(f)) {
			return true
		}
	}
	return false
}

// IsConnected reports whether a 4-connected in-bounds path joins p0 and p1.
func (t *Track) IsConnected(p0, p1 geom.Position) bool {
	if !t.InBounds(p0) || !t.InBounds(p1) {
		return false
	}
	seen := map[geom.Position]bool{p0: true}
	stack := []geom.Position{p0}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if p == p1 {
			return true
		}
		for _, n := range p.Neighbours() {
			if !seen[n] && t.InBounds(n) {
				seen[n] = true
				stack = append(stack, n)
			}
		}
	}
	return false
}

// Distances returns the 4-connected step count from every reachable
// in-bounds position to the nearest of targets.
func (t *Track) Distances(targets []geom.Position) map[geom.Position]int {
	dist := make(map[geom.Position]int)
	queue := make([]geom.Position, 0, len(targets))
	for _, p := range targets {
		if _, ok := dist[p]; ok || !t.InBounds(p) {
			continue
		}
		dist[p] = 0
		queue = append(queue, p)
	}
	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		for _, n := range p.Neighbours() {
			if _, ok := dist[n]; ok || !t.InBounds(n) {
				continue
			}
			dist[n] = dist[p] + 1
			queue = append(queue, n)
		}
	}
	return dist
}

func minMax(a, b int) (int, int) {
	if a > b {
		return b, a
	}
	return a, b
}
