// Package trackgen builds tracks from a centerline curve.
//
// The corridor is every cell lying between the curve offset half the width
// to the left and the curve offset half the width to the right. The start
// and finish lines are the corridor cross-sections at either end of the
// centerline. Where a cross-section leaves the grid while the corridor
// continues, it follows the grid border instead, so a track that starts in
// a corner gets an L-shaped starting line.
package trackgen

import (
	"errors"
	"fmt"
	"math"

	"github.com/wricardo/vector-race/game/curve"
	"github.com/wricardo/vector-race/game/geom"
	"github.com/wricardo/vector-race/game/track"
)

var (
	ErrInvalidSize  = errors.New("track size must be positive")
	ErrInvalidWidth = errors.New("corridor width must be positive")
	ErrOffTrack     = errors.New("centerline is not inside the corridor")
)

// axisEpsilon is the smallest tangent component treated as nonzero.
const axisEpsilon = 1e-6

// Result is a generated track and the cells cars may start from.
type Result struct {
	Track             *track.Track
	StartingPositions []geom.Position
}

// FromCurve builds a track of the given size around the centerline.
func FromCurve(size track.Size, c curve.Curve, width float64) (*Result, error) {
	if size.Width <= 0 || size.Height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, size.Width, size.Height)
	}
	if width <= 0 || math.IsNaN(width) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWidth, width)
	}

	outer := c.Outer(width / 2)
	inner := c.Inner(width / 2)
	corridor := func(p geom.Position) bool {
		return outer.IsRight(p) && inner.IsLeft(p)
	}

	g := &generator{size: size, corridor: corridor}
	starts := g.crossSection(c.Start(), c.StartTangent(), 1)
	if len(starts) == 0 {
		return nil, fmt.Errorf("%w: start %v", ErrOffTrack, c.Start())
	}
	finish := g.crossSection(c.End(), c.EndTangent(), -1)
	if len(finish) == 0 {
		return nil, fmt.Errorf("%w: end %v", ErrOffTrack, c.End())
	}

	return &Result{
		Track:             track.New(size, corridor, finish),
		StartingPositions: starts,
	}, nil
}

type generator struct {
	size     track.Size
	corridor func(geom.Position) bool
}

func (g *generator) inBounds(p geom.Position) bool {
	return g.size.Contains(p) && g.corridor(p)
}

// crossSection collects the in-bounds cells through origin perpendicular to
// tangent. Walks that hit the grid border while the corridor continues turn
// along the border in the direction of travel times along.
func (g *generator) crossSection(origin geom.Position, tangent geom.Vec2, along int) []geom.Position {
	if !g.inBounds(origin) {
		return nil
	}
	normal, turn := axes(tangent, along)
	seen := map[geom.Position]bool{origin: true}

	left := g.walk(origin, normal, turn, seen)
	right := g.walk(origin, normal.Multiply(-1), turn, seen)

	cells := make([]geom.Position, 0, len(left)+len(right)+1)
	for i := len(left) - 1; i >= 0; i-- {
		cells = append(cells, left[i])
	}
	cells = append(cells, origin)
	return append(cells, right...)
}

func (g *generator) walk(p geom.Position, dir, turn geom.Vector, seen map[geom.Position]bool) []geom.Position {
	var cells []geom.Position
	turned := false
	for {
		next := p.Plus(dir)
		if !g.size.Contains(next) && g.corridor(next) && !turned && !turn.IsZero() {
			dir, turned = turn, true
			next = p.Plus(dir)
		}
		if seen[next] || !g.inBounds(next) {
			return cells
		}
		seen[next] = true
		cells = append(cells, next)
		p = next
	}
}

// axes picks the grid axis closest to the left normal of tangent, and the
// unit step along the other axis that follows the direction of travel.
// Ties go to the vertical axis.
func axes(tangent geom.Vec2, along int) (normal, turn geom.Vector) {
	n := tangent.Normal()
	if math.Abs(n.X) > math.Abs(n.Y) {
		return geom.Vec(sign(n.X), 0), geom.Vec(0, along*sign(tangent.Y))
	}
	dy := sign(n.Y)
	if dy == 0 {
		dy = 1
	}
	return geom.Vec(0, dy), geom.Vec(along*sign(tangent.X), 0)
}

func sign(x float64) int {
	switch {
	case x > axisEpsilon:
		return 1
	case x < -axisEpsilon:
		return -1
	}
	return 0
}
