package curve

import (
	"math"

	"github.com/wricardo/vector-race/game/geom"
)

// Straight is the segment from one continuous point to another.
type Straight struct {
	from, to geom.Vec2
	points   []geom.Position
}

var _ Curve = (*Straight)(nil)

// Line is the straight curve joining two grid cells.
func Line(from, to geom.Position) *Straight {
	return NewStraight(geom.Point(from), geom.Point(to))
}

// NewStraight samples the segment once per unit of length. The step is
// stretched so that the last sample lands on to.
func NewStraight(from, to geom.Vec2) *Straight {
	base := to.Sub(from)
	n := int(math.Floor(base.Len()))
	points := make([]geom.Position, n+1)
	points[0] = from.Round()
	for i := 1; i <= n; i++ {
		points[i] = from.Add(base.Scale(float64(i) / float64(n))).Round()
	}
	return &Straight{from: from, to: to, points: points}
}

func (s *Straight) Points() []geom.Position {
	return append([]geom.Position(nil), s.points...)
}

func (s *Straight) Len() int {
	return len(s.points)
}

func (s *Straight) Start() geom.Position {
	return s.from.Round()
}

func (s *Straight) End() geom.Position {
	return s.to.Round()
}

func (s *Straight) Contains(p geom.Position) bool {
	for _, q := range s.points {
		if q == p {
			return true
		}
	}
	return false
}

func (s *Straight) DistanceTo(p geom.Position) float64 {
	b := s.base()
	l := geom.Line{X: s.from.X, Y: s.from.Y, DX: b.X, DY: b.Y}
	return l.DistanceTo(geom.Point(p))
}

func (s *Straight) IsLeft(p geom.Position) bool {
	_, v, ok := s.relative(p)
	return ok && v >= 0
}

func (s *Straight) IsRight(p geom.Position) bool {
	_, v, ok := s.relative(p)
	return ok && v <= 0
}

// NextTo reports whether p projects onto the segment itself.
func (s *Straight) NextTo(p geom.Position) bool {
	u, _, ok := s.relative(p)
	return ok && 0 <= u && u <= 1
}

// IsBefore reports whether p projects before the start.
func (s *Straight) IsBefore(p geom.Position) bool {
	u, _, ok := s.relative(p)
	return ok && u < 0
}

// IsAfter reports whether p projects beyond the end.
func (s *Straight) IsAfter(p geom.Position) bool {
	u, _, ok := s.relative(p)
	return ok && u > 1
}

// BoundingBox is the smallest box holding both endpoints.
func (s *Straight) BoundingBox() geom.Rectangle {
	return geom.Rectangle{
		Left:   math.Min(s.from.X, s.to.X),
		Bottom: math.Min(s.from.Y, s.to.Y),
		Right:  math.Max(s.from.X, s.to.X),
		Top:    math.Max(s.from.Y, s.to.Y),
	}
}

// Displace shifts the whole segment by v.
func (s *Straight) Displace(v geom.Vector) *Straight {
	return s.shift(v.Float())
}

func (s *Straight) Outer(d float64) Curve {
	return s.offset(d)
}

func (s *Straight) Inner(d float64) Curve {
	return s.offset(-d)
}

func (s *Straight) StartTangent() geom.Vec2 {
	return s.base().Normalize()
}

func (s *Straight) EndTangent() geom.Vec2 {
	return s.base().Normalize()
}

func (s *Straight) base() geom.Vec2 {
	return s.to.Sub(s.from)
}

func (s *Straight) shift(v geom.Vec2) *Straight {
	return NewStraight(s.from.Add(v), s.to.Add(v))
}

func (s *Straight) offset(d float64) *Straight {
	b := s.base()
	if b.Len() == 0 {
		return s
	}
	return s.shift(b.Normal().Scale(d / b.Len()))
}

// relative expresses p in the frame spanned by the segment and its normal,
// both scaled to the segment length.
func (s *Straight) relative(p geom.Position) (u, v float64, ok bool) {
	b := s.base()
	bb := b.Dot(b)
	if bb == 0 {
		return 0, 0, false
	}
	w := geom.Point(p).Sub(s.from)
	return w.Dot(b) / bb, w.Dot(b.Normal()) / bb, true
}
