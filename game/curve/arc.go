package curve

import (
	"math"

	"github.com/wricardo/vector-race/game/geom"
)

// Direction of travel along an arc.
const (
	Clockwise        = -1
	CounterClockwise = 1
)

const (
	tangentStep      = 1e-4
	minAxis          = 1.0
	searchDensity    = 4
	refineIterations = 40
	distanceEpsilon  = 1e-9
)

// Arc is a section of an axis-aligned ellipse, walked from the start angle
// to the end angle in its direction.
type Arc struct {
	center     geom.Vec2
	a, b       float64
	start, end float64
	direction  int
	span       float64
	points     []geom.Position
}

var _ Curve = (*Arc)(nil)

// NewArc builds the arc of the ellipse with semi-axes a (along x) and b
// (along y). A negative direction walks clockwise, anything else
// counter-clockwise. Angles are in radians.
func NewArc(center geom.Vec2, a, b, startAngle, endAngle float64, direction int) *Arc {
	dir := CounterClockwise
	if direction < 0 {
		dir = Clockwise
	}
	arc := &Arc{
		center:    center,
		a:         a,
		b:         b,
		start:     startAngle,
		end:       endAngle,
		direction: dir,
	}
	arc.span = normalizeAngle(float64(dir) * (endAngle - startAngle))
	if arc.span == 0 && endAngle != startAngle {
		arc.span = 2 * math.Pi
	}

	n := int(math.Ceil(math.Sqrt(a*b) * arc.span))
	arc.points = make([]geom.Position, n+1)
	for i := 0; i <= n; i++ {
		phi := startAngle
		if n > 0 {
			phi += float64(dir) * arc.span * float64(i) / float64(n)
		}
		arc.points[i] = arc.at(phi).Round()
	}
	return arc
}

// Radius is the vector from the center to the ellipse at polar angle phi.
func (c *Arc) Radius(phi float64) geom.Vec2 {
	r := c.radiusAt(phi)
	return geom.Vec2{X: r * math.Cos(phi), Y: r * math.Sin(phi)}
}

func (c *Arc) Direction() int {
	return c.direction
}

func (c *Arc) Points() []geom.Position {
	return append([]geom.Position(nil), c.points...)
}

func (c *Arc) Len() int {
	return len(c.points)
}

func (c *Arc) Start() geom.Position {
	return c.points[0]
}

func (c *Arc) End() geom.Position {
	return c.points[len(c.points)-1]
}

// Contains reports whether p is within half a cell diagonal of the arc
// section.
func (c *Arc) Contains(p geom.Position) bool {
	return c.DistanceTo(p) <= halfDiagonal+distanceEpsilon
}

// DistanceTo is the Euclidean distance from p to the nearest point of the
// arc section. The search grid includes every sample angle, then the best
// cell is refined locally.
func (c *Arc) DistanceTo(p geom.Position) float64 {
	q := geom.Point(p)
	steps := searchDensity * (len(c.points) - 1)
	if steps == 0 {
		return q.Sub(c.at(c.start)).Len()
	}
	dist := func(k float64) float64 {
		return q.Sub(c.at(c.start + float64(c.direction)*c.span*k/float64(steps))).Len()
	}

	best, bestDist := 0, math.Inf(1)
	for k := 0; k <= steps; k++ {
		if d := dist(float64(k)); d < bestDist {
			best, bestDist = k, d
		}
	}

	lo, hi := float64(max(best-1, 0)), float64(min(best+1, steps))
	for i := 0; i < refineIterations; i++ {
		m1, m2 := lo+(hi-lo)/3, hi-(hi-lo)/3
		if dist(m1) < dist(m2) {
			hi = m2
		} else {
			lo = m1
		}
	}
	return math.Min(bestDist, dist((lo+hi)/2))
}

// IsLeft is the inside of the ellipse when walking counter-clockwise and
// the outside when walking clockwise.
func (c *Arc) IsLeft(p geom.Position) bool {
	if c.direction == Clockwise {
		return c.rho(p) >= 1
	}
	return c.rho(p) <= 1
}

func (c *Arc) IsRight(p geom.Position) bool {
	if c.direction == Clockwise {
		return c.rho(p) <= 1
	}
	return c.rho(p) >= 1
}

func (c *Arc) Outer(d float64) Curve {
	return c.grow(-float64(c.direction) * d)
}

func (c *Arc) Inner(d float64) Curve {
	return c.grow(float64(c.direction) * d)
}

func (c *Arc) StartTangent() geom.Vec2 {
	return c.tangent(c.start)
}

func (c *Arc) EndTangent() geom.Vec2 {
	return c.tangent(c.start + float64(c.direction)*c.span)
}

func (c *Arc) at(phi float64) geom.Vec2 {
	return c.center.Add(c.Radius(phi))
}

func (c *Arc) tangent(phi float64) geom.Vec2 {
	step := float64(c.direction) * tangentStep
	return c.at(phi + step).Sub(c.at(phi - step)).Normalize()
}

// radiusAt is the polar radius of the ellipse at angle phi.
func (c *Arc) radiusAt(phi float64) float64 {
	bc := c.b * math.Cos(phi)
	as := c.a * math.Sin(phi)
	return c.a * c.b / math.Sqrt(bc*bc+as*as)
}

// rho is 1 on the ellipse, below 1 inside and above 1 outside.
func (c *Arc) rho(p geom.Position) float64 {
	d := geom.Point(p).Sub(c.center)
	return math.Hypot(d.X/c.a, d.Y/c.b)
}

func (c *Arc) grow(d float64) *Arc {
	return NewArc(c.center, math.Max(minAxis, c.a+d), math.Max(minAxis, c.b+d), c.start, c.end, c.direction)
}

// normalizeAngle maps phi into [0, 2*pi).
func normalizeAngle(phi float64) float64 {
	phi = math.Mod(phi, 2*math.Pi)
	if phi < 0 {
		phi += 2 * math.Pi
	}
	return phi
}
