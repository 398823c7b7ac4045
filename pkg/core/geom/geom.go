// Package geom provides the small set of 2D primitives shared by layouts,
// the bundling engine, and renderers: points, polar conversion, and cubic
// Bézier segments.
//
// All coordinates are in user units (typically SVG pixels). The package has
// no notion of a coordinate origin; layouts decide where (0, 0) lies.
package geom

import "math"

// Point is a position in the plane.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y float64) Point { return Point{X: x, Y: y} }

// Add returns p+q.
func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y} }

// Sub returns p-q.
func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y} }

// Scale returns p scaled by s.
func (p Point) Scale(s float64) Point { return Point{p.X * s, p.Y * s} }

// Lerp returns the point at fraction t on the segment p→q.
// t=0 yields p and t=1 yields q.
func (p Point) Lerp(q Point, t float64) Point {
	return Point{p.X + (q.X-p.X)*t, p.Y + (q.Y-p.Y)*t}
}

// Dist returns the Euclidean distance between p and q.
func (p Point) Dist(q Point) float64 { return math.Hypot(q.X-p.X, q.Y-p.Y) }

// ApproxEqual reports whether p and q differ by at most eps on both axes.
func (p Point) ApproxEqual(q Point, eps float64) bool {
	return math.Abs(p.X-q.X) <= eps && math.Abs(p.Y-q.Y) <= eps
}

// Polar returns the point at angle (radians, 0 pointing up, clockwise) and
// radius around center. This matches the orientation used by radial
// dendrograms, where the first leaf sits at twelve o'clock.
func Polar(center Point, angle, radius float64) Point {
	return Point{
		X: center.X + radius*math.Sin(angle),
		Y: center.Y - radius*math.Cos(angle),
	}
}

// Rect is an axis-aligned bounding box.
type Rect struct {
	Min, Max Point
}

// Width returns the horizontal extent of r.
func (r Rect) Width() float64 { return r.Max.X - r.Min.X }

// Height returns the vertical extent of r.
func (r Rect) Height() float64 { return r.Max.Y - r.Min.Y }

// Bounds returns the bounding box of pts. The zero Rect is returned for an
// empty slice.
func Bounds(pts []Point) Rect {
	if len(pts) == 0 {
		return Rect{}
	}
	r := Rect{Min: pts[0], Max: pts[0]}
	for _, p := range pts[1:] {
		r.Min.X = math.Min(r.Min.X, p.X)
		r.Min.Y = math.Min(r.Min.Y, p.Y)
		r.Max.X = math.Max(r.Max.X, p.X)
		r.Max.Y = math.Max(r.Max.Y, p.Y)
	}
	return r
}

// CubicBez is a cubic Bézier segment from P0 to P3 with control points P1, P2.
type CubicBez struct {
	P0, P1, P2, P3 Point
}

// Eval returns the point on the segment at parameter t ∈ [0, 1].
func (c CubicBez) Eval(t float64) Point {
	mt := 1 - t
	a := mt * mt * mt
	b := 3 * mt * mt * t
	d := 3 * mt * t * t
	e := t * t * t
	return Point{
		X: a*c.P0.X + b*c.P1.X + d*c.P2.X + e*c.P3.X,
		Y: a*c.P0.Y + b*c.P1.Y + d*c.P2.Y + e*c.P3.Y,
	}
}

// IsDegenerate reports whether all four points coincide.
func (c CubicBez) IsDegenerate() bool {
	return c.P0 == c.P1 && c.P1 == c.P2 && c.P2 == c.P3
}
