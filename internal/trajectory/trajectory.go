// Package trajectory builds asymmetric quadratic Bezier control points for
// origin-destination flow lines. Each OD pair gets a three-point path whose
// control point is derived by rotating the scaled origin-minus-destination
// vector about the destination, so opposite directions of the same pair bow
// to opposite sides of the straight line between the two zones.
package trajectory

import "math"

// Point is a planar coordinate in projected units (meters on a national
// grid), not geographic degrees.
type Point struct {
	East  float64 `json:"east"`
	North float64 `json:"north"`
}

// Add returns p translated by q.
func (p Point) Add(q Point) Point {
	return Point{East: p.East + q.East, North: p.North + q.North}
}

// Sub returns p minus q.
func (p Point) Sub(q Point) Point {
	return Point{East: p.East - q.East, North: p.North - q.North}
}

// Scale returns p with both components divided by d.
func (p Point) Scale(d float64) Point {
	return Point{East: p.East / d, North: p.North / d}
}

// Rotate returns p rotated by theta radians about the origin.
func (p Point) Rotate(theta float64) Point {
	sin, cos := math.Sincos(theta)
	return Point{
		East:  p.East*cos - p.North*sin,
		North: p.North*cos + p.East*sin,
	}
}

// ToRadians converts degrees to radians.
func ToRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

// ODRecord is one aggregated origin-destination flow, already joined to
// projected zone centroids. Weight is a non-negative flow count; the builder
// passes it through without validating it.
type ODRecord struct {
	Origin      Point
	Destination Point
	PairID      string
	Weight      float64
}

// Path is an ordered three-point quadratic Bezier path. Points holds
// [origin, control, destination].
type Path struct {
	Points [3]Point `json:"points"`
	PairID string   `json:"pair_id"`
	Weight float64  `json:"weight"`
}

// Origin returns the first point of the path.
func (p Path) Origin() Point { return p.Points[0] }

// Control returns the Bezier control point.
func (p Path) Control() Point { return p.Points[1] }

// Destination returns the last point of the path.
func (p Path) Destination() Point { return p.Points[2] }

// Builder derives Bezier control points. Both knobs are visual-tuning
// parameters, not physical constants.
type Builder struct {
	// CurveAngleDeg is the rotation applied to the scaled OD offset vector.
	// Negative values bow the curve clockwise relative to travel direction.
	CurveAngleDeg float64

	// Divisor scales the origin-minus-destination vector before rotation.
	// Larger values pull the control point toward the destination,
	// flattening the curve.
	Divisor float64
}

// Default tuning, chosen to match the visual convention of the source maps.
const (
	DefaultCurveAngleDeg = -90
	DefaultDivisor       = 6
)

// NewBuilder returns a Builder with the default curve angle and divisor.
func NewBuilder() Builder {
	return Builder{CurveAngleDeg: DefaultCurveAngleDeg, Divisor: DefaultDivisor}
}

// Build computes the trajectory for one OD record. The control point is the
// destination plus the rotation of (origin-destination)/Divisor by
// CurveAngleDeg. A record with origin == destination yields a control point
// coincident with the destination; that is degenerate but not an error.
func (b Builder) Build(rec ODRecord) Path {
	theta := ToRadians(b.CurveAngleDeg)
	v := rec.Origin.Sub(rec.Destination).Scale(b.Divisor)
	control := rec.Destination.Add(v.Rotate(theta))

	return Path{
		Points: [3]Point{rec.Origin, control, rec.Destination},
		PairID: rec.PairID,
		Weight: rec.Weight,
	}
}
