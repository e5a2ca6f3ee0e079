package geom

import (
	"fmt"
	"math"
)

// Position is a grid cell. X grows to the east, Y grows to the north.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Pos is shorthand for Position{X: x, Y: y}.
func Pos(x, y int) Position {
	return Position{X: x, Y: y}
}

func (p Position) North() Position { return Position{p.X, p.Y + 1} }
func (p Position) South() Position { return Position{p.X, p.Y - 1} }
func (p Position) East() Position  { return Position{p.X + 1, p.Y} }
func (p Position) West() Position  { return Position{p.X - 1, p.Y} }

// Neighbours returns the four orthogonal neighbours.
func (p Position) Neighbours() [4]Position {
	return [4]Position{p.North(), p.East(), p.South(), p.West()}
}

// Minus returns the vector from o to p.
func (p Position) Minus(o Position) Vector {
	return Vector{DX: p.X - o.X, DY: p.Y - o.Y}
}

// Plus shifts p by v.
func (p Position) Plus(v Vector) Position {
	return Position{X: p.X + v.DX, Y: p.Y + v.DY}
}

// Tile is the unit square occupied by the cell.
func (p Position) Tile() Rectangle {
	return NewRectangle(float64(p.X), float64(p.Y), 1, 1)
}

// Center is the middle of the cell.
func (p Position) Center() Vec2 {
	return Vec2{X: float64(p.X) + 0.5, Y: float64(p.Y) + 0.5}
}

// To returns the move that takes p straight to target.
func (p Position) To(target Position) Move {
	return NewMove(p, target.Minus(p))
}

func (p Position) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// Vector is an integer displacement, used both as velocity and acceleration.
type Vector struct {
	DX int `json:"dx"`
	DY int `json:"dy"`
}

// Vec is shorthand for Vector{DX: dx, DY: dy}.
func Vec(dx, dy int) Vector {
	return Vector{DX: dx, DY: dy}
}

func (v Vector) Length() float64 {
	return math.Hypot(float64(v.DX), float64(v.DY))
}

func (v Vector) Plus(o Vector) Vector {
	return Vector{DX: v.DX + o.DX, DY: v.DY + o.DY}
}

func (v Vector) Minus(o Vector) Vector {
	return Vector{DX: v.DX - o.DX, DY: v.DY - o.DY}
}

func (v Vector) Multiply(k int) Vector {
	return Vector{DX: v.DX * k, DY: v.DY * k}
}

func (v Vector) Dot(o Vector) int {
	return v.DX*o.DX + v.DY*o.DY
}

// Normal rotates v 90 degrees counter-clockwise.
func (v Vector) Normal() Vector {
	return Vector{DX: -v.DY, DY: v.DX}
}

func (v Vector) IsZero() bool {
	return v.DX == 0 && v.DY == 0
}

// Float converts v to a continuous vector.
func (v Vector) Float() Vec2 {
	return Vec2{X: float64(v.DX), Y: float64(v.DY)}
}

func (v Vector) String() string {
	return fmt.Sprintf("<%d,%d>", v.DX, v.DY)
}

// Move is one turn of a car: the cell it leaves, the velocity it travels
// with and the cell it lands on. End is always Start.Plus(Velocity).
type Move struct {
	Start    Position `json:"start"`
	Velocity Vector   `json:"velocity"`
	End      Position `json:"end"`
}

func NewMove(start Position, velocity Vector) Move {
	return Move{Start: start, Velocity: velocity, End: start.Plus(velocity)}
}

// Line is the segment joining the centers of the start and end cells.
func (m Move) Line() Line {
	c := m.Start.Center()
	return Line{X: c.X, Y: c.Y, DX: float64(m.Velocity.DX), DY: float64(m.Velocity.DY)}
}

// Then continues m with its own velocity changed by acceleration.
func (m Move) Then(acceleration Vector) Move {
	return NewMove(m.End, m.Velocity.Plus(acceleration))
}

func (m Move) String() string {
	return fmt.Sprintf("%s%s%s", m.Start, m.Velocity, m.End)
}

// Path chains moves from origin, one per velocity.
func Path(origin Position, velocities ...Vector) []Move {
	moves := make([]Move, 0, len(velocities))
	p := origin
	for _, v := range velocities {
		m := NewMove(p, v)
		moves = append(moves, m)
		p = m.End
	}
	return moves
}
