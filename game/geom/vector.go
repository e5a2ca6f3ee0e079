package geom

import "math"

// Vec2 is a continuous 2D vector.
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add adds two vectors.
func (v Vec2) Add(other Vec2) Vec2 {
	return Vec2{v.X + other.X, v.Y + other.Y}
}

// Sub subtracts other from v.
func (v Vec2) Sub(other Vec2) Vec2 {
	return Vec2{v.X - other.X, v.Y - other.Y}
}

// Scale multiplies the vector by a scalar.
func (v Vec2) Scale(s float64) Vec2 {
	return Vec2{v.X * s, v.Y * s}
}

func (v Vec2) Dot(other Vec2) float64 {
	return v.X*other.X + v.Y*other.Y
}

// Len returns the length (magnitude) of the vector.
func (v Vec2) Len() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y)
}

// Normalize returns a unit vector in the same direction.
func (v Vec2) Normalize() Vec2 {
	l := v.Len()
	if l == 0 {
		return Vec2{}
	}
	return v.Scale(1 / l)
}

// Normal rotates v 90 degrees counter-clockwise.
func (v Vec2) Normal() Vec2 {
	return Vec2{-v.Y, v.X}
}

// Round returns the nearest grid cell. Halves round up.
func (v Vec2) Round() Position {
	return Position{X: int(math.Floor(v.X + 0.5)), Y: int(math.Floor(v.Y + 0.5))}
}

// Point converts a cell to its integer coordinates as a continuous point.
func Point(p Position) Vec2 {
	return Vec2{float64(p.X), float64(p.Y)}
}
