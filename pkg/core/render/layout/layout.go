package layout

import (
	"errors"
	"math"

	"github.com/matzehuels/hierbundle/pkg/core/geom"
	"github.com/matzehuels/hierbundle/pkg/core/hierarchy"
)

// ErrNilTree is returned when a layout is requested for a nil tree.
var ErrNilTree = errors.New("layout: nil tree")

// Coordinates maps every node of a tree to its position.
type Coordinates map[hierarchy.NodeID]geom.Point

// Layouter computes coordinates for every node of a tree.
type Layouter interface {
	Layout(t *hierarchy.Tree) (Coordinates, error)
}

// Func adapts a plain function to [Layouter].
type Func func(t *hierarchy.Tree) (Coordinates, error)

// Layout calls f(t).
func (f Func) Layout(t *hierarchy.Tree) (Coordinates, error) { return f(t) }

// Bounds returns the bounding box of all coordinates.
func Bounds(c Coordinates) geom.Rect {
	pts := make([]geom.Point, 0, len(c))
	for _, p := range c {
		pts = append(pts, p)
	}
	return geom.Bounds(pts)
}

// ByID re-keys coordinates by node identifier. The synthetic root, whose
// identifier is empty, is keyed as "".
func ByID(t *hierarchy.Tree, c Coordinates) map[string]geom.Point {
	out := make(map[string]geom.Point, len(c))
	for id, p := range c {
		if n, ok := t.Node(id); ok {
			out[n.ID] = p
		}
	}
	return out
}

// Complete reports the first node of t that has no coordinate, if any.
func Complete(t *hierarchy.Tree, c Coordinates) (hierarchy.NodeID, bool) {
	missing := hierarchy.NoNode
	t.Walk(func(id hierarchy.NodeID, _ hierarchy.Node) bool {
		if missing != hierarchy.NoNode {
			return false
		}
		if _, ok := c[id]; !ok {
			missing = id
			return false
		}
		return true
	})
	return missing, missing == hierarchy.NoNode
}

// dendrogram computes the shared shape of [Radial] and [Cluster]: each
// node's horizontal fraction in [0, 1] and its depth fraction in [0, 1].
//
// Leaves are spaced by pre-order index; groups take the mean of their
// children. Leaves always sit at depth fraction 1.
func dendrogram(t *hierarchy.Tree, closed bool) (across, down map[hierarchy.NodeID]float64) {
	var order []hierarchy.NodeID
	var leaves []hierarchy.NodeID
	t.Walk(func(id hierarchy.NodeID, n hierarchy.Node) bool {
		order = append(order, id)
		if n.IsLeaf() {
			leaves = append(leaves, id)
		}
		return true
	})

	across = make(map[hierarchy.NodeID]float64, len(order))
	down = make(map[hierarchy.NodeID]float64, len(order))

	// closed layouts wrap around, so the last leaf must not meet the first.
	slots := float64(len(leaves))
	if !closed {
		slots = math.Max(1, float64(len(leaves)-1))
	}
	for i, id := range leaves {
		if len(leaves) == 1 && !closed {
			across[id] = 0.5
			continue
		}
		across[id] = float64(i) / slots
	}

	height := float64(max(t.Height(), 1))
	for i := len(order) - 1; i >= 0; i-- {
		id := order[i]
		n := t.MustNode(id)
		if n.IsLeaf() {
			down[id] = 1
			continue
		}
		down[id] = float64(n.Depth) / height
		if len(n.Children) == 0 {
			continue
		}
		var sum float64
		for _, c := range n.Children {
			sum += across[c]
		}
		across[id] = sum / float64(len(n.Children))
	}
	return across, down
}
