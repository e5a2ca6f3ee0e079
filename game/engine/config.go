package engine

import (
	"errors"
	"fmt"
	"math"

	"github.com/wricardo/vector-race/game/curve"
	"github.com/wricardo/vector-race/game/geom"
	"github.com/wricardo/vector-race/game/track"
	"github.com/wricardo/vector-race/game/trackgen"
)

// Curve types understood by generator configs.
const (
	CurveStraight = "straight"
	CurveArc      = "arc"
)

// MaxTrackSize bounds both dimensions of a track.
const MaxTrackSize = 200

// maxCurveExtent bounds curve coordinates and semi-axes so sampling stays
// proportional to the grid.
const maxCurveExtent = 2 * MaxTrackSize

// TrackConfig describes a track as stored in a JSON file. A track is either
// drawn by hand in Layout (top row first, space is track) or generated
// around a curve.
type TrackConfig struct {
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	Layout      []string         `json:"layout,omitempty"`
	Generator   *GeneratorConfig `json:"generator,omitempty"`
	Start       []geom.Position  `json:"start,omitempty"`
	Finish      []geom.Position  `json:"finish,omitempty"`
}

// GeneratorConfig builds a corridor of CorridorWidth cells around Curve.
type GeneratorConfig struct {
	Width         int         `json:"width"`
	Height        int         `json:"height"`
	CorridorWidth float64     `json:"corridor_width"`
	Curve         CurveConfig `json:"curve"`
}

// CurveConfig selects a centerline. Straight lines use From and To; arcs
// use Center, the semi-axes A and B, angles in radians and Direction
// (-1 clockwise, 1 counter-clockwise).
type CurveConfig struct {
	Type       string    `json:"type"`
	From       geom.Vec2 `json:"from"`
	To         geom.Vec2 `json:"to"`
	Center     geom.Vec2 `json:"center"`
	A          float64   `json:"a,omitempty"`
	B          float64   `json:"b,omitempty"`
	StartAngle float64   `json:"start_angle,omitempty"`
	EndAngle   float64   `json:"end_angle,omitempty"`
	Direction  int       `json:"direction,omitempty"`
}

// Build returns the centerline described by c.
func (c CurveConfig) Build() (curve.Curve, error) {
	switch c.Type {
	case CurveStraight:
		if !withinExtent(c.From.X, c.From.Y, c.To.X, c.To.Y) {
			return nil, fmt.Errorf("straight curve %v to %v lies too far outside the grid", c.From, c.To)
		}
		return curve.NewStraight(c.From, c.To), nil
	case CurveArc:
		if c.A <= 0 || c.B <= 0 {
			return nil, fmt.Errorf("arc semi-axes must be positive, got %g and %g", c.A, c.B)
		}
		if !withinExtent(c.Center.X, c.Center.Y, c.A, c.B) {
			return nil, fmt.Errorf("arc at %v with semi-axes %g and %g lies too far outside the grid", c.Center, c.A, c.B)
		}
		if math.IsNaN(c.StartAngle) || math.IsInf(c.StartAngle, 0) || math.IsNaN(c.EndAngle) || math.IsInf(c.EndAngle, 0) {
			return nil, fmt.Errorf("arc angles must be finite, got %g and %g", c.StartAngle, c.EndAngle)
		}
		return curve.NewArc(c.Center, c.A, c.B, c.StartAngle, c.EndAngle, c.Direction), nil
	}
	return nil, fmt.Errorf("unknown curve type %q", c.Type)
}

func withinExtent(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.Abs(v) > maxCurveExtent {
			return false
		}
	}
	return true
}

// Build generates the track.
func (g GeneratorConfig) Build() (*trackgen.Result, error) {
	if g.Width > MaxTrackSize || g.Height > MaxTrackSize {
		return nil, fmt.Errorf("track size %dx%d exceeds %d", g.Width, g.Height, MaxTrackSize)
	}
	c, err := g.Curve.Build()
	if err != nil {
		return nil, err
	}
	return trackgen.FromCurve(track.Size{Width: g.Width, Height: g.Height}, c, g.CorridorWidth)
}

// Build turns the config into a track and its starting positions.
func (c *TrackConfig) Build() (*track.Track, []geom.Position, error) {
	hasLayout, hasGenerator := len(c.Layout) > 0, c.Generator != nil
	switch {
	case hasLayout && hasGenerator:
		return nil, nil, errors.New("layout and generator are mutually exclusive")
	case hasGenerator:
		return c.buildGenerated()
	case hasLayout:
		return c.buildLayout()
	}
	return nil, nil, errors.New("either layout or generator is required")
}

func (c *TrackConfig) buildLayout() (*track.Track, []geom.Position, error) {
	width := len(c.Layout[0])
	if len(c.Layout) > MaxTrackSize || width > MaxTrackSize {
		return nil, nil, fmt.Errorf("track size %dx%d exceeds %d", width, len(c.Layout), MaxTrackSize)
	}
	for i, row := range c.Layout {
		if len(row) != width {
			return nil, nil, fmt.Errorf("layout row %d has length %d, expected %d", i, len(row), width)
		}
	}
	if width == 0 {
		return nil, nil, errors.New("layout rows are empty")
	}
	if len(c.Finish) == 0 {
		return nil, nil, errors.New("finish line is required")
	}
	if len(c.Start) == 0 {
		return nil, nil, errors.New("at least one start position is required")
	}

	t := track.FromRows(c.Layout, c.Finish)
	for _, f := range c.Finish {
		if !t.InBounds(f) {
			return nil, nil, fmt.Errorf("finish position %s is off the track", f)
		}
	}
	if err := checkStarts(t, c.Start); err != nil {
		return nil, nil, err
	}
	return t, append([]geom.Position(nil), c.Start...), nil
}

func (c *TrackConfig) buildGenerated() (*track.Track, []geom.Position, error) {
	if len(c.Finish) > 0 {
		return nil, nil, errors.New("generated tracks take their finish line from the curve")
	}
	res, err := c.Generator.Build()
	if err != nil {
		return nil, nil, err
	}
	starts := res.StartingPositions
	if len(c.Start) > 0 {
		starts = append([]geom.Position(nil), c.Start...)
	}
	if err := checkStarts(res.Track, starts); err != nil {
		return nil, nil, err
	}
	return res.Track, starts, nil
}

func checkStarts(t *track.Track, starts []geom.Position) error {
	for _, s := range starts {
		if !t.InBounds(s) {
			return fmt.Errorf("start position %s is off the track", s)
		}
	}
	return nil
}

// ValidateTrackConfig checks that the config builds and that every start
// can reach the finish line.
func ValidateTrackConfig(c *TrackConfig) error {
	if c == nil {
		return errors.New("track validation: config is nil")
	}
	if c.Name == "" {
		return errors.New("track validation: name is required")
	}
	t, starts, err := c.Build()
	if err != nil {
		return fmt.Errorf("track validation: %w", err)
	}

	dist := t.Distances(t.FinishLine())
	for _, s := range starts {
		if _, ok := dist[s]; !ok {
			return fmt.Errorf("track validation: start %s cannot reach the finish line", s)
		}
	}
	return nil
}

// DefaultTrack is the built-in 10x10 loop used when no track files exist.
func DefaultTrack() *TrackConfig {
	return &TrackConfig{
		Name:        "default",
		Description: "Built-in 10x10 loop: up the left side, across the top and down to the finish",
		Layout: []string{
			"XXXXXXXXXX",
			"XXXXXXXXXX",
			"XXX    XXX",
			"XXX    XXX",
			"XX      XX",
			"XX      XX",
			"X   XX   X",
			"X   XX   X",
			"X  XXXX  X",
			"X  XXXX  X",
		},
		Start:  []geom.Position{geom.Pos(2, 0), geom.Pos(1, 0)},
		Finish: []geom.Position{geom.Pos(7, 0), geom.Pos(8, 0)},
	}
}
