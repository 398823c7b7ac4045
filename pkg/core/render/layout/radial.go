package layout

import (
	"math"

	"github.com/matzehuels/hierbundle/pkg/core/geom"
	"github.com/matzehuels/hierbundle/pkg/core/hierarchy"
)

// DefaultRadius is the outer radius used by a zero [Radial].
const DefaultRadius = 300

// Radial lays a tree out as a radial dendrogram around Center. Leaves sit
// on the circle of radius Radius; the root sits at Center.
type Radial struct {
	Radius float64
	Center geom.Point
}

// Layout implements [Layouter].
func (r Radial) Layout(t *hierarchy.Tree) (Coordinates, error) {
	if t == nil {
		return nil, ErrNilTree
	}
	radius := r.Radius
	if radius <= 0 {
		radius = DefaultRadius
	}
	across, down := dendrogram(t, true)
	out := make(Coordinates, len(across))
	for id, a := range across {
		out[id] = geom.Polar(r.Center, a*2*math.Pi, down[id]*radius)
	}
	return out, nil
}

// Angle returns the angle of p around the layout's center in [0, 2π),
// measured clockwise from twelve o'clock.
func (r Radial) Angle(p geom.Point) float64 {
	a := math.Atan2(p.X-r.Center.X, r.Center.Y-p.Y)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a
}
