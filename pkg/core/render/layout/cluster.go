package layout

import (
	"github.com/matzehuels/hierbundle/pkg/core/geom"
	"github.com/matzehuels/hierbundle/pkg/core/hierarchy"
)

// Default frame sizes for [Cluster] and row metrics for [Indented].
const (
	DefaultWidth     = 800
	DefaultHeight    = 600
	DefaultIndent    = 20
	DefaultRowHeight = 24
)

// Cluster lays a tree out as a top-down dendrogram in a Width×Height frame
// anchored at the origin. All leaves share the bottom edge.
type Cluster struct {
	Width, Height float64
}

// Layout implements [Layouter].
func (c Cluster) Layout(t *hierarchy.Tree) (Coordinates, error) {
	if t == nil {
		return nil, ErrNilTree
	}
	w, h := c.Width, c.Height
	if w <= 0 {
		w = DefaultWidth
	}
	if h <= 0 {
		h = DefaultHeight
	}
	across, down := dendrogram(t, false)
	out := make(Coordinates, len(across))
	for id, a := range across {
		out[id] = geom.Pt(a*w, down[id]*h)
	}
	return out, nil
}

// Indented lays a tree out like a file browser: one row per node in
// pre-order, indented by depth.
type Indented struct {
	Indent    float64
	RowHeight float64
}

// Layout implements [Layouter].
func (in Indented) Layout(t *hierarchy.Tree) (Coordinates, error) {
	if t == nil {
		return nil, ErrNilTree
	}
	indent, row := in.Indent, in.RowHeight
	if indent <= 0 {
		indent = DefaultIndent
	}
	if row <= 0 {
		row = DefaultRowHeight
	}
	out := make(Coordinates, t.Len())
	i := 0
	t.Walk(func(id hierarchy.NodeID, n hierarchy.Node) bool {
		out[id] = geom.Pt(float64(n.Depth)*indent, float64(i)*row)
		i++
		return true
	})
	return out, nil
}
