package geom

import "math"

// Line is a continuous segment from (X, Y) to (X+DX, Y+DY).
type Line struct {
	X, Y   float64
	DX, DY float64
}

func (l Line) Length() float64 {
	return math.Hypot(l.DX, l.DY)
}

// Origin is the first point of the segment.
func (l Line) Origin() Vec2 {
	return Vec2{l.X, l.Y}
}

// Direction is the displacement from the first to the last point.
func (l Line) Direction() Vec2 {
	return Vec2{l.DX, l.DY}
}

// DistanceTo returns the distance from p to the nearest point of the segment.
func (l Line) DistanceTo(p Vec2) float64 {
	d := l.Direction()
	w := p.Sub(l.Origin())
	lenSq := d.Dot(d)
	if lenSq == 0 {
		return w.Len()
	}
	u := math.Max(0, math.Min(1, w.Dot(d)/lenSq))
	return w.Sub(d.Scale(u)).Len()
}

// Rectangle is an axis-aligned box in continuous coordinates.
type Rectangle struct {
	Left, Bottom, Right, Top float64
}

// NewRectangle builds the box with lower-left corner (x, y).
func NewRectangle(x, y, w, h float64) Rectangle {
	return Rectangle{Left: x, Bottom: y, Right: x + w, Top: y + h}
}

func (r Rectangle) Width() float64  { return r.Right - r.Left }
func (r Rectangle) Height() float64 { return r.Top - r.Bottom }

// Intersects reports whether the segment crosses the interior of r.
// Touching an edge or a corner does not count. Uses Liang-Barsky clipping.
func (r Rectangle) Intersects(l Line) bool {
	pq := [4][2]float64{
		{-l.DX, l.X - r.Left},
		{l.DX, r.Right - l.X},
		{l.DY, r.Top - l.Y},
		{-l.DY, l.Y - r.Bottom},
	}
	u1, u2 := math.Inf(-1), math.Inf(1)
	for _, e := range pq {
		p, q := e[0], e[1]
		switch {
		case p == 0:
			if q <= 0 {
				return false
			}
		case p < 0:
			u1 = math.Max(u1, q/p)
		default:
			u2 = math.Min(u2, q/p)
		}
	}
	return u1 < u2 && 0 < u2 && u1 < 1
}
