package graph

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"

	"github.com/matzehuels/hierbundle/pkg/core/bundle"
	"github.com/matzehuels/hierbundle/pkg/core/geom"
	"github.com/matzehuels/hierbundle/pkg/core/hierarchy"
	"github.com/matzehuels/hierbundle/pkg/core/render/layout"
)

// Visualization types.
const (
	VizTypeBundle   = "bundle"
	VizTypeTree     = "tree"
	VizTypeProject  = "project"
	VizTypeNodelink = "nodelink"
)

// VizTypes lists every visualization type.
var VizTypes = []string{VizTypeBundle, VizTypeTree, VizTypeProject, VizTypeNodelink}

// ValidVizType reports whether v names a visualization type.
func ValidVizType(v string) bool { return slices.Contains(VizTypes, v) }

// Layout is the unified serialization format for all visualizations.
//
// This is a discriminated union type - check VizType to determine which
// fields are populated:
//
//	Bundle, tree, project:
//	  - Nodes: every node in pre-order with its coordinate
//	  - Curves: bundled curves (bundle only)
//	  - Tension, Spline, Failures: bundling parameters and skipped edges
//
//	Nodelink ("nodelink"):
//	  - DOT: Graphviz DOT string for rendering
//	  - Nodes: structure only
type Layout struct {
	// Discriminator
	VizType string `json:"viz_type"`
	ID      string `json:"id,omitempty"`

	// Common dimensions
	Width     float64     `json:"width"`
	Height    float64     `json:"height"`
	Delimiter string      `json:"delimiter"`
	Center    *geom.Point `json:"center,omitempty"` // Radial layouts only

	Nodes []Node `json:"nodes"`

	// Bundle-specific
	Tension  float64   `json:"tension,omitempty"`
	Spline   string    `json:"spline,omitempty"`
	Curves   []Curve   `json:"curves,omitempty"`
	Failures []Failure `json:"failures,omitempty"`

	// Nodelink-specific
	DOT   string       `json:"dot,omitempty"`
	Edges []EdgeRecord `json:"edges,omitempty"`
}

// Node is a serialized tree node. Nodes are stored in pre-order, so Parent
// always refers to an earlier entry.
type Node struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Kind   string  `json:"kind"`
	Parent int     `json:"parent"` // Index into Layout.Nodes; -1 for the root
	Depth  int     `json:"depth"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
}

// Curve is a serialized bundled curve.
type Curve struct {
	Source   string       `json:"source"`
	Target   string       `json:"target"`
	Weight   float64      `json:"weight,omitempty"`
	Directed bool         `json:"directed,omitempty"`
	Index    int          `json:"index"`
	LCA      string       `json:"lca"`
	Route    []string     `json:"route"`
	SelfLoop bool         `json:"self_loop,omitempty"`
	Control  []geom.Point `json:"control"`
	Path     string       `json:"path"`
}

// Failure is an edge that could not be bundled in lenient mode.
type Failure struct {
	Index  int    `json:"index"`
	Source string `json:"source"`
	Target string `json:"target"`
	Error  string `json:"error"`
}

// IsNodelink returns true if this is a nodelink layout.
func (l *Layout) IsNodelink() bool { return l.VizType == VizTypeNodelink }

// IsBundle returns true if this is a bundle layout.
func (l *Layout) IsBundle() bool { return l.VizType == VizTypeBundle }

// FromResult packages a computed visualization for serialization. coords
// and res may be nil; res is only consulted for bundle layouts.
func FromResult(vizType string, t *hierarchy.Tree, coords layout.Coordinates, res *bundle.Result) Layout {
	l := Layout{VizType: vizType, Delimiter: t.Delimiter()}

	index := make(map[hierarchy.NodeID]int, t.Len())
	t.Walk(func(id hierarchy.NodeID, n hierarchy.Node) bool {
		parent := -1
		if n.Parent != hierarchy.NoNode {
			parent = index[n.Parent]
		}
		index[id] = len(l.Nodes)
		p := coords[id]
		l.Nodes = append(l.Nodes, Node{
			ID:     n.ID,
			Name:   n.Name,
			Kind:   n.Kind.String(),
			Parent: parent,
			Depth:  n.Depth,
			X:      p.X,
			Y:      p.Y,
		})
		return true
	})

	if coords != nil {
		b := layout.Bounds(coords)
		l.Width, l.Height = b.Width(), b.Height()
	}

	if res == nil {
		return l
	}
	l.Tension = res.Tension
	l.Spline = string(res.Spline)
	for _, c := range res.Curves {
		route := make([]string, len(c.Route))
		for i, n := range c.Route {
			route[i] = t.MustNode(n).ID
		}
		l.Curves = append(l.Curves, Curve{
			Source:   c.Edge.Source,
			Target:   c.Edge.Target,
			Weight:   c.Edge.Weight,
			Directed: c.Edge.Directed,
			Index:    c.Index,
			LCA:      t.MustNode(c.LCA).ID,
			Route:    route,
			SelfLoop: c.SelfLoop,
			Control:  c.Control,
			Path:     c.PathData(),
		})
	}
	for _, f := range res.Failures {
		l.Failures = append(l.Failures, Failure{
			Index:  f.Index,
			Source: f.Edge.Source,
			Target: f.Edge.Target,
			Error:  f.Err.Error(),
		})
	}
	return l
}

// Restore rebuilds the tree, coordinates and curves of a saved layout so it
// can be rendered again. The restored tree lists leaves in tree order.
func (l *Layout) Restore() (*hierarchy.Tree, layout.Coordinates, []bundle.Curve, error) {
	var leaves []string
	for _, n := range l.Nodes {
		if n.Kind == hierarchy.KindLeaf.String() {
			leaves = append(leaves, n.ID)
		}
	}
	t, err := hierarchy.Build(leaves, l.Delimiter)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("restore hierarchy: %w", err)
	}
	if t.Len() != len(l.Nodes) {
		return nil, nil, nil, fmt.Errorf("restore hierarchy: %d nodes, layout has %d", t.Len(), len(l.Nodes))
	}

	lookup := func(id string) (hierarchy.NodeID, bool) {
		if id == t.MustNode(t.Root()).ID {
			return t.Root(), true
		}
		return t.Lookup(id)
	}

	coords := make(layout.Coordinates, len(l.Nodes))
	for _, n := range l.Nodes {
		id, ok := lookup(n.ID)
		if !ok {
			return nil, nil, nil, fmt.Errorf("restore coordinates: unknown node %q", n.ID)
		}
		coords[id] = geom.Pt(n.X, n.Y)
	}

	spline := bundle.Spline(l.Spline)
	if spline == "" {
		spline = bundle.SplineCatmullRom
	}
	curves := make([]bundle.Curve, 0, len(l.Curves))
	for _, c := range l.Curves {
		route := make([]hierarchy.NodeID, len(c.Route))
		poly := make([]geom.Point, len(c.Route))
		for i, rid := range c.Route {
			id, ok := lookup(rid)
			if !ok {
				return nil, nil, nil, fmt.Errorf("restore curve %d: unknown node %q", c.Index, rid)
			}
			route[i] = id
			poly[i] = coords[id]
		}
		lca, _ := lookup(c.LCA)
		curves = append(curves, bundle.Curve{
			Edge:     bundle.Edge{Source: c.Source, Target: c.Target, Weight: c.Weight, Directed: c.Directed},
			Index:    c.Index,
			Route:    route,
			LCA:      lca,
			SelfLoop: c.SelfLoop,
			Polygon:  poly,
			Control:  c.Control,
			Segments: bundle.Smooth(c.Control, spline),
		})
	}
	return t, coords, curves, nil
}

// MarshalLayout serializes a Layout to pretty-printed JSON bytes.
func MarshalLayout(l Layout) ([]byte, error) {
	return json.MarshalIndent(l, "", "  ")
}

// UnmarshalLayout deserializes JSON bytes into a Layout.
// Validates that required fields are present for the viz type.
func UnmarshalLayout(data []byte) (Layout, error) {
	var l Layout
	if err := json.Unmarshal(data, &l); err != nil {
		return Layout{}, fmt.Errorf("unmarshal layout: %w", err)
	}

	if l.VizType == "" {
		l.VizType = VizTypeBundle
	}
	if !ValidVizType(l.VizType) {
		return Layout{}, fmt.Errorf("unknown viz_type %q", l.VizType)
	}
	if l.IsNodelink() && l.DOT == "" {
		return Layout{}, fmt.Errorf("nodelink layout must contain DOT string")
	}
	if !l.IsNodelink() && len(l.Nodes) == 0 {
		return Layout{}, fmt.Errorf("%s layout must contain nodes", l.VizType)
	}

	return l, nil
}

// WriteLayoutFile writes a Layout to a JSON file.
func WriteLayoutFile(l Layout, path string) error {
	data, err := MarshalLayout(l)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ReadLayoutFile reads a Layout from a JSON file.
func ReadLayoutFile(path string) (Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Layout{}, fmt.Errorf("read %s: %w", path, err)
	}
	return UnmarshalLayout(data)
}
