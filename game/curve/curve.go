// Package curve describes track centerlines as sequences of grid cells.
//
// A Curve is traversed from Start to End. Left and right are taken with
// respect to that direction of travel, so Outer offsets a curve to its left
// and Inner to its right.
package curve

import (
	"math"

	"github.com/wricardo/vector-race/game/geom"
)

// Curve is a centerline the track generator can bound a corridor around.
type Curve interface {
	// Points returns the sampled cells in order of travel. Each call
	// returns a fresh slice.
	Points() []geom.Position
	// Len is the number of sampled cells.
	Len() int
	Start() geom.Position
	End() geom.Position
	Contains(p geom.Position) bool
	DistanceTo(p geom.Position) float64
	IsLeft(p geom.Position) bool
	IsRight(p geom.Position) bool
	// Outer returns the curve offset by d to the left.
	Outer(d float64) Curve
	// Inner returns the curve offset by d to the right.
	Inner(d float64) Curve
	// StartTangent and EndTangent are unit directions of travel.
	StartTangent() geom.Vec2
	EndTangent() geom.Vec2
}

// halfDiagonal is the largest distance between a point and its grid cell.
var halfDiagonal = math.Sqrt(0.5)
