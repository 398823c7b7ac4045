package bundle

import (
	"testing"

	"github.com/matzehuels/hierbundle/pkg/core/geom"
)

func TestCatmullRomInterpolates(t *testing.T) {
	pts := []geom.Point{geom.Pt(0, 0), geom.Pt(10, 10), geom.Pt(20, 0), geom.Pt(30, 10)}
	segs := catmullRom(pts)
	if len(segs) != len(pts)-1 {
		t.Fatalf("got %d segments, want %d", len(segs), len(pts)-1)
	}
	for i, s := range segs {
		if s.P0 != pts[i] || s.P3 != pts[i+1] {
			t.Errorf("segment %d runs %v→%v, want %v→%v", i, s.P0, s.P3, pts[i], pts[i+1])
		}
	}
	// Tangent continuity: the joint is colinear with both neighbouring
	// control points.
	for i := 0; i+1 < len(segs); i++ {
		in := segs[i].P3.Sub(segs[i].P2)
		out := segs[i+1].P1.Sub(segs[i+1].P0)
		if cross := in.X*out.Y - in.Y*out.X; cross > 1e-9 || cross < -1e-9 {
			t.Errorf("joint %d is not smooth", i)
		}
	}
}

func TestBasisClampsEndpoints(t *testing.T) {
	pts := []geom.Point{geom.Pt(0, 0), geom.Pt(10, 10), geom.Pt(20, 0)}
	segs := basis(pts)
	if len(segs) != len(pts)+1 {
		t.Fatalf("got %d segments, want %d", len(segs), len(pts)+1)
	}
	if !segs[0].P0.ApproxEqual(pts[0], 1e-12) {
		t.Errorf("start = %v, want %v", segs[0].P0, pts[0])
	}
	if last := segs[len(segs)-1].P3; !last.ApproxEqual(pts[2], 1e-12) {
		t.Errorf("end = %v, want %v", last, pts[2])
	}
	for i := 0; i+1 < len(segs); i++ {
		if !segs[i].P3.ApproxEqual(segs[i+1].P0, 1e-12) {
			t.Errorf("segments %d and %d are not joined", i, i+1)
		}
	}
}

func TestPathData(t *testing.T) {
	c := Curve{Segments: []geom.CubicBez{{
		P0: geom.Pt(0, 0),
		P1: geom.Pt(1.004, 2),
		P2: geom.Pt(3, -0.001),
		P3: geom.Pt(4.5, 0),
	}}}
	if got, want := c.PathData(), "M0,0C1,2 3,0 4.5,0"; got != want {
		t.Errorf("PathData() = %q, want %q", got, want)
	}
	if (Curve{}).PathData() != "" {
		t.Error("empty curve should have empty path data")
	}
}

func TestSample(t *testing.T) {
	c := Curve{Segments: catmullRom([]geom.Point{geom.Pt(0, 0), geom.Pt(10, 0), geom.Pt(20, 0)})}
	pts := c.Sample(5)
	if len(pts) != 5 {
		t.Fatalf("got %d samples, want 5", len(pts))
	}
	if pts[0] != geom.Pt(0, 0) || !pts[4].ApproxEqual(geom.Pt(20, 0), 1e-12) {
		t.Errorf("samples span %v→%v", pts[0], pts[4])
	}
	if !pts[2].ApproxEqual(geom.Pt(10, 0), 1e-12) {
		t.Errorf("midpoint = %v, want (10, 0)", pts[2])
	}
	if got := c.Sample(0); len(got) != 2 {
		t.Errorf("Sample(0) returned %d points, want 2", len(got))
	}
}
