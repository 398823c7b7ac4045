package bundle

import (
	"errors"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/hierbundle/pkg/core/geom"
	"github.com/matzehuels/hierbundle/pkg/core/hierarchy"
	"github.com/matzehuels/hierbundle/pkg/core/render/layout"
)

var (
	// ErrUnknownLeaf is returned when an edge endpoint is not a leaf of the
	// tree.
	ErrUnknownLeaf = errors.New("unknown leaf")

	// ErrMissingCoordinate is returned when a routed node has no coordinate.
	ErrMissingCoordinate = errors.New("missing coordinate")

	// ErrInvalidTension is returned when tension is NaN or outside [0, 1].
	ErrInvalidTension = errors.New("tension must be in [0, 1]")
)

// EdgeError reports why a single edge could not be bundled.
type EdgeError struct {
	Index int    // Position of the edge in the input
	Edge  Edge   // The offending edge
	Node  string // Identifier of the node that caused the failure
	Err   error
}

func (e *EdgeError) Error() string {
	return fmt.Sprintf("edge %d (%s -> %s): %v: %q", e.Index, e.Edge.Source, e.Edge.Target, e.Err, e.Node)
}

func (e *EdgeError) Unwrap() error { return e.Err }

// Edge is a relation between two leaves. Bundling treats it as unordered;
// Directed and Weight are carried through for renderers.
type Edge struct {
	Source   string  `json:"source"`
	Target   string  `json:"target"`
	Weight   float64 `json:"weight,omitempty"`
	Directed bool    `json:"directed,omitempty"`
}

// IsSelfLoop reports whether the edge starts and ends at the same leaf.
func (e Edge) IsSelfLoop() bool { return e.Source == e.Target }

// Curve is the bundled geometry of one edge.
type Curve struct {
	Edge     Edge               // Input edge
	Index    int                // Position of Edge in the input
	Route    []hierarchy.NodeID // Source, ..., LCA, ..., target
	LCA      hierarchy.NodeID   // Lowest common ancestor of both endpoints
	SelfLoop bool               // Source equals target
	Polygon  []geom.Point       // Coordinates of Route
	Control  []geom.Point       // Polygon straightened by tension
	Segments []geom.CubicBez    // Smoothed curve
}

// Failure is an edge skipped in lenient mode.
type Failure struct {
	Index int
	Edge  Edge
	Err   error
}

// Result is the output of [Bundle].
type Result struct {
	Curves   []Curve   // Input order; failed edges are absent in lenient mode
	Failures []Failure // Lenient mode only, input order
	Tension  float64
	Spline   Spline
}

// Bundle routes every edge through t and smooths it under the configured
// tension. coords must contain every node any route passes through.
//
// In strict mode the error of the first failing edge (by input order) is
// returned together with a nil result.
func Bundle(t *hierarchy.Tree, coords layout.Coordinates, edges []Edge, opts ...Option) (*Result, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if math.IsNaN(o.tension) || o.tension < 0 || o.tension > 1 {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidTension, o.tension)
	}
	if o.spline != SplineCatmullRom && o.spline != SplineBasis {
		return nil, fmt.Errorf("unknown spline %q", o.spline)
	}

	curves := make([]Curve, len(edges))
	errs := make([]error, len(edges))

	compute := func(i int) error {
		c, err := bundleEdge(t, coords, edges[i], o)
		if err != nil {
			var ee *EdgeError
			if errors.As(err, &ee) {
				ee.Index = i
			}
			errs[i] = err
			return err
		}
		c.Index = i
		curves[i] = c
		return nil
	}

	if o.workers > 1 && len(edges) > 1 {
		var g errgroup.Group
		g.SetLimit(o.workers)
		for i := range edges {
			g.Go(func() error { return compute(i) })
		}
		_ = g.Wait() // every edge runs; the lowest failing index wins below
	} else {
		for i := range edges {
			if err := compute(i); err != nil && !o.lenient {
				return nil, err
			}
		}
	}

	res := &Result{Tension: o.tension, Spline: o.spline, Curves: make([]Curve, 0, len(edges))}
	for i := range edges {
		if errs[i] != nil {
			if !o.lenient {
				return nil, errs[i]
			}
			res.Failures = append(res.Failures, Failure{Index: i, Edge: edges[i], Err: errs[i]})
			continue
		}
		res.Curves = append(res.Curves, curves[i])
	}
	return res, nil
}

func bundleEdge(t *hierarchy.Tree, coords layout.Coordinates, e Edge, o options) (Curve, error) {
	route, lca, err := Route(t, e.Source, e.Target)
	if err != nil {
		var ee *EdgeError
		if errors.As(err, &ee) {
			ee.Edge = e
		}
		return Curve{}, err
	}

	poly := make([]geom.Point, len(route))
	for i, n := range route {
		p, ok := coords[n]
		if !ok {
			return Curve{}, &EdgeError{Edge: e, Node: t.MustNode(n).ID, Err: ErrMissingCoordinate}
		}
		poly[i] = p
	}

	c := Curve{Edge: e, Route: route, LCA: lca, Polygon: poly}
	if e.IsSelfLoop() {
		c.SelfLoop = true
		c.Control = []geom.Point{poly[0], poly[0]}
	} else {
		c.Control = Straighten(poly, o.tension)
	}
	c.Segments = Smooth(c.Control, o.spline)
	return c, nil
}

// Route returns the nodes an edge between two leaves passes through, and
// their lowest common ancestor. For a self-loop the route is the leaf alone.
func Route(t *hierarchy.Tree, source, target string) ([]hierarchy.NodeID, hierarchy.NodeID, error) {
	src, ok := t.Leaf(source)
	if !ok {
		return nil, hierarchy.NoNode, &EdgeError{Node: source, Err: ErrUnknownLeaf}
	}
	dst, ok := t.Leaf(target)
	if !ok {
		return nil, hierarchy.NoNode, &EdgeError{Node: target, Err: ErrUnknownLeaf}
	}
	if src == dst {
		return []hierarchy.NodeID{src}, src, nil
	}

	pa, err := t.AncestorPath(src)
	if err != nil {
		return nil, hierarchy.NoNode, &EdgeError{Node: source, Err: err}
	}
	pb, err := t.AncestorPath(dst)
	if err != nil {
		return nil, hierarchy.NoNode, &EdgeError{Node: target, Err: err}
	}
	lca, common := hierarchy.LCA(pa, pb)
	if common == 0 {
		return nil, hierarchy.NoNode, &EdgeError{Node: source, Err: hierarchy.ErrDetachedNode}
	}

	route := make([]hierarchy.NodeID, 0, len(pa)+len(pb)-2*common+1)
	for i := len(pa) - 1; i >= common; i-- {
		route = append(route, pa[i])
	}
	route = append(route, lca)
	route = append(route, pb[common:]...)
	return route, lca, nil
}

// Straighten pulls every point of poly towards the chord between its first
// and last point. beta=1 returns a copy of poly; beta=0 places every point on
// the chord at its normalized arc-length position.
func Straighten(poly []geom.Point, beta float64) []geom.Point {
	out := make([]geom.Point, len(poly))
	n := len(poly)
	if n == 0 {
		return out
	}
	if n == 1 {
		out[0] = poly[0]
		return out
	}

	cum := make([]float64, n)
	for i := 1; i < n; i++ {
		cum[i] = cum[i-1] + poly[i-1].Dist(poly[i])
	}
	total := cum[n-1]

	first, last := poly[0], poly[n-1]
	for i, p := range poly {
		var f float64
		if total > 0 {
			f = cum[i] / total
		} else {
			f = float64(i) / float64(n-1)
		}
		out[i] = first.Lerp(last, f).Lerp(p, beta)
	}
	// Endpoints are exact regardless of floating point drift.
	out[0], out[n-1] = first, last
	return out
}
