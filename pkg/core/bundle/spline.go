package bundle

import (
	"math"
	"strconv"
	"strings"

	"github.com/matzehuels/hierbundle/pkg/core/geom"
)

// Smooth fits spline s through pts and returns its Bézier segments. Fewer
// than two points yield no segments.
func Smooth(pts []geom.Point, s Spline) []geom.CubicBez {
	if len(pts) < 2 {
		return nil
	}
	if s == SplineBasis {
		return basis(pts)
	}
	return catmullRom(pts)
}

// catmullRom converts a uniform Catmull-Rom spline through pts into Bézier
// segments, one per consecutive pair. The first and last point are
// duplicated to supply the missing neighbours.
func catmullRom(pts []geom.Point) []geom.CubicBez {
	n := len(pts)
	at := func(i int) geom.Point {
		return pts[max(0, min(n-1, i))]
	}
	segs := make([]geom.CubicBez, 0, n-1)
	for i := 0; i < n-1; i++ {
		p0, p1, p2, p3 := at(i-1), at(i), at(i+1), at(i+2)
		segs = append(segs, geom.CubicBez{
			P0: p1,
			P1: p1.Add(p2.Sub(p0).Scale(1.0 / 6)),
			P2: p2.Sub(p3.Sub(p1).Scale(1.0 / 6)),
			P3: p2,
		})
	}
	return segs
}

// basis converts a uniform cubic B-spline with pts as de Boor points into
// Bézier segments. Endpoints are tripled so the curve starts and ends
// exactly on them.
func basis(pts []geom.Point) []geom.CubicBez {
	q := make([]geom.Point, 0, len(pts)+4)
	q = append(q, pts[0], pts[0])
	q = append(q, pts...)
	q = append(q, pts[len(pts)-1], pts[len(pts)-1])

	segs := make([]geom.CubicBez, 0, len(q)-3)
	for i := 0; i+3 < len(q); i++ {
		q0, q1, q2, q3 := q[i], q[i+1], q[i+2], q[i+3]
		segs = append(segs, geom.CubicBez{
			P0: q0.Add(q1.Scale(4)).Add(q2).Scale(1.0 / 6),
			P1: q1.Scale(2).Add(q2).Scale(1.0 / 3),
			P2: q1.Add(q2.Scale(2)).Scale(1.0 / 3),
			P3: q1.Add(q2.Scale(4)).Add(q3).Scale(1.0 / 6),
		})
	}
	return segs
}

// Start returns the first point of the curve.
func (c Curve) Start() geom.Point {
	if len(c.Segments) > 0 {
		return c.Segments[0].P0
	}
	if len(c.Control) > 0 {
		return c.Control[0]
	}
	return geom.Point{}
}

// End returns the last point of the curve.
func (c Curve) End() geom.Point {
	if len(c.Segments) > 0 {
		return c.Segments[len(c.Segments)-1].P3
	}
	if len(c.Control) > 0 {
		return c.Control[len(c.Control)-1]
	}
	return geom.Point{}
}

// PathData returns the curve as an SVG path "d" attribute. Coordinates are
// rounded to two decimals.
func (c Curve) PathData() string {
	if len(c.Segments) == 0 {
		return ""
	}
	var b strings.Builder
	p := c.Segments[0].P0
	b.WriteString("M")
	writePoint(&b, p)
	for _, s := range c.Segments {
		b.WriteString("C")
		writePoint(&b, s.P1)
		b.WriteByte(' ')
		writePoint(&b, s.P2)
		b.WriteByte(' ')
		writePoint(&b, s.P3)
	}
	return b.String()
}

func writePoint(b *strings.Builder, p geom.Point) {
	b.WriteString(num(p.X))
	b.WriteByte(',')
	b.WriteString(num(p.Y))
}

func num(v float64) string {
	r := math.Round(v*100) / 100
	if r == 0 {
		r = 0 // drop negative zero
	}
	return strconv.FormatFloat(r, 'f', -1, 64)
}

// Sample returns n points evenly spaced in curve parameter, including both
// endpoints. n below 2 is treated as 2.
func (c Curve) Sample(n int) []geom.Point {
	if len(c.Segments) == 0 {
		return nil
	}
	n = max(n, 2)
	out := make([]geom.Point, n)
	span := float64(len(c.Segments))
	for i := range n {
		s := span * float64(i) / float64(n-1)
		k := min(int(s), len(c.Segments)-1)
		out[i] = c.Segments[k].Eval(s - float64(k))
	}
	return out
}
