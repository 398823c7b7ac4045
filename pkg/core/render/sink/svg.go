package sink

import (
	"bufio"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"math"

	"github.com/matzehuels/hierbundle/pkg/core/bundle"
	"github.com/matzehuels/hierbundle/pkg/core/geom"
	"github.com/matzehuels/hierbundle/pkg/core/hierarchy"
	"github.com/matzehuels/hierbundle/pkg/core/render/layout"
)

// Renderer draws a tree, its coordinates and bundled curves to w.
type Renderer interface {
	Draw(w io.Writer, t *hierarchy.Tree, coords layout.Coordinates, curves []bundle.Curve) error
}

// Theme holds the colours of an SVG rendering.
type Theme struct {
	Background string
	Link       string
	Node       string
	Text       string
	Palette    []string // Curve colours, indexed by top-level group
	CurveAlpha float64
}

var (
	// Light is the default theme.
	Light = Theme{
		Background: "#ffffff",
		Link:       "#cccccc",
		Node:       "#555555",
		Text:       "#333333",
		Palette:    []string{"#1f77b4", "#ff7f0e", "#2ca02c", "#d62728", "#9467bd", "#8c564b", "#e377c2", "#7f7f7f", "#bcbd22", "#17becf"},
		CurveAlpha: 0.45,
	}
	// Dark suits dark terminals and slides.
	Dark = Theme{
		Background: "#1e1e1e",
		Link:       "#444444",
		Node:       "#bbbbbb",
		Text:       "#dddddd",
		Palette:    []string{"#4e79a7", "#f28e2b", "#59a14f", "#e15759", "#b07aa1", "#9c755f", "#ff9da7", "#bab0ac", "#edc948", "#76b7b2"},
		CurveAlpha: 0.6,
	}
)

type linkStyle int

const (
	noLinks linkStyle = iota
	straightLinks
	elbowLinks
)

// SVGOption configures an [SVG] renderer.
type SVGOption func(*SVG)

// SVG renders to a standalone SVG document.
type SVG struct {
	links         linkStyle
	labels        bool
	radial        bool
	center        geom.Point
	theme         Theme
	width, height float64
}

func WithLinks() SVGOption      { return func(s *SVG) { s.links = straightLinks } }
func WithElbowLinks() SVGOption { return func(s *SVG) { s.links = elbowLinks } }
func WithLabels() SVGOption     { return func(s *SVG) { s.labels = true } }
func WithTheme(t Theme) SVGOption {
	return func(s *SVG) { s.theme = t }
}
func WithSize(w, h float64) SVGOption {
	return func(s *SVG) { s.width, s.height = w, h }
}

// WithRadialLabels labels leaves along the ray from center, flipping text on
// the left half so it stays upright.
func WithRadialLabels(center geom.Point) SVGOption {
	return func(s *SVG) {
		s.labels = true
		s.radial = true
		s.center = center
	}
}

// NewSVG returns an SVG renderer.
func NewSVG(opts ...SVGOption) *SVG {
	s := &SVG{theme: Light}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RenderSVG draws with a fresh [SVG] renderer and returns the document.
func RenderSVG(t *hierarchy.Tree, coords layout.Coordinates, curves []bundle.Curve, opts ...SVGOption) ([]byte, error) {
	var buf bytes.Buffer
	if err := NewSVG(opts...).Draw(&buf, t, coords, curves); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

const (
	padding     = 20.0
	labelMargin = 140.0
	nodeRadius  = 2.5
	fontSize    = 10.0
)

// Draw implements [Renderer]. Every node of t must have a coordinate.
func (s *SVG) Draw(w io.Writer, t *hierarchy.Tree, coords layout.Coordinates, curves []bundle.Curve) error {
	if t == nil {
		return layout.ErrNilTree
	}
	if id, ok := layout.Complete(t, coords); !ok {
		return fmt.Errorf("%w: node %q", bundle.ErrMissingCoordinate, t.MustNode(id).ID)
	}

	box := s.viewBox(coords)
	width, height := s.width, s.height
	if width <= 0 || height <= 0 {
		width, height = box.Width(), box.Height()
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="%.1f %.1f %.1f %.1f" width="%.0f" height="%.0f">`+"\n",
		box.Min.X, box.Min.Y, box.Width(), box.Height(), width, height)
	fmt.Fprintf(bw, `  <rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="%s"/>`+"\n",
		box.Min.X, box.Min.Y, box.Width(), box.Height(), s.theme.Background)

	if s.links != noLinks {
		s.drawLinks(bw, t, coords)
	}
	s.drawCurves(bw, t, curves)
	s.drawNodes(bw, t, coords)
	if s.labels {
		s.drawLabels(bw, t, coords)
	}

	bw.WriteString("</svg>\n")
	return bw.Flush()
}

func (s *SVG) viewBox(coords layout.Coordinates) geom.Rect {
	b := layout.Bounds(coords)
	switch {
	case s.radial:
		b.Min = b.Min.Sub(geom.Pt(labelMargin, labelMargin))
		b.Max = b.Max.Add(geom.Pt(labelMargin, labelMargin))
	case s.labels:
		// Labels only extend to the right.
		b.Min = b.Min.Sub(geom.Pt(padding, padding))
		b.Max = b.Max.Add(geom.Pt(labelMargin, padding))
	default:
		b.Min = b.Min.Sub(geom.Pt(padding, padding))
		b.Max = b.Max.Add(geom.Pt(padding, padding))
	}
	return b
}

func (s *SVG) drawLinks(w *bufio.Writer, t *hierarchy.Tree, coords layout.Coordinates) {
	fmt.Fprintf(w, `  <g class="links" fill="none" stroke="%s" stroke-width="1">`+"\n", s.theme.Link)
	t.Walk(func(id hierarchy.NodeID, n hierarchy.Node) bool {
		if n.Parent == hierarchy.NoNode {
			return true
		}
		p, c := coords[n.Parent], coords[id]
		if s.links == elbowLinks {
			fmt.Fprintf(w, `    <path d="M%.2f,%.2fV%.2fH%.2f"/>`+"\n", p.X, p.Y, c.Y, c.X)
		} else {
			fmt.Fprintf(w, `    <line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f"/>`+"\n", p.X, p.Y, c.X, c.Y)
		}
		return true
	})
	w.WriteString("  </g>\n")
}

func (s *SVG) drawCurves(w *bufio.Writer, t *hierarchy.Tree, curves []bundle.Curve) {
	if len(curves) == 0 {
		return
	}
	groups := topLevelGroups(t)
	fmt.Fprintf(w, `  <g class="curves" fill="none" stroke-width="1.2" stroke-opacity="%.2f">`+"\n", s.theme.CurveAlpha)
	for _, c := range curves {
		if c.SelfLoop || len(c.Segments) == 0 {
			continue
		}
		color := s.theme.Link
		if len(s.theme.Palette) > 0 && len(c.Route) > 0 {
			color = s.theme.Palette[groups[c.Route[0]]%len(s.theme.Palette)]
		}
		fmt.Fprintf(w, `    <path class="curve" data-source="%s" data-target="%s" stroke="%s" d="%s"/>`+"\n",
			escapeXML(c.Edge.Source), escapeXML(c.Edge.Target), color, c.PathData())
	}
	w.WriteString("  </g>\n")
}

func (s *SVG) drawNodes(w *bufio.Writer, t *hierarchy.Tree, coords layout.Coordinates) {
	fmt.Fprintf(w, `  <g class="nodes" fill="%s">`+"\n", s.theme.Node)
	t.Walk(func(id hierarchy.NodeID, n hierarchy.Node) bool {
		p := coords[id]
		r := nodeRadius
		if !n.IsLeaf() {
			r = nodeRadius * 0.8
		}
		fmt.Fprintf(w, `    <circle class="%s" id="node-%d" cx="%.2f" cy="%.2f" r="%.1f"/>`+"\n", n.Kind, id, p.X, p.Y, r)
		return true
	})
	w.WriteString("  </g>\n")
}

func (s *SVG) drawLabels(w *bufio.Writer, t *hierarchy.Tree, coords layout.Coordinates) {
	fmt.Fprintf(w, `  <g class="labels" fill="%s" font-family="sans-serif" font-size="%.0f">`+"\n", s.theme.Text, fontSize)
	radial := layout.Radial{Center: s.center}
	t.Walk(func(id hierarchy.NodeID, n hierarchy.Node) bool {
		p := coords[id]
		label := escapeXML(n.Name)
		if !s.radial {
			if label != "" {
				fmt.Fprintf(w, `    <text x="%.2f" y="%.2f" dy="0.32em">%s</text>`+"\n", p.X+2*nodeRadius+2, p.Y, label)
			}
			return true
		}
		if !n.IsLeaf() {
			return true
		}
		deg := radial.Angle(p)*180/math.Pi - 90
		anchor, flip := "start", ""
		if deg > 90 {
			anchor, flip = "end", " rotate(180)"
		}
		fmt.Fprintf(w, `    <text transform="translate(%.2f,%.2f) rotate(%.2f) translate(%.0f,0)%s" dy="0.32em" text-anchor="%s">%s</text>`+"\n",
			p.X, p.Y, deg, 2*nodeRadius+2, flip, anchor, label)
		return true
	})
	w.WriteString("  </g>\n")
}

// topLevelGroups maps every node to the index of the root child it
// descends from.
func topLevelGroups(t *hierarchy.Tree) map[hierarchy.NodeID]int {
	out := make(map[hierarchy.NodeID]int, t.Len())
	for i, c := range t.Children(t.Root()) {
		mark(t, c, i, out)
	}
	return out
}

func mark(t *hierarchy.Tree, id hierarchy.NodeID, group int, out map[hierarchy.NodeID]int) {
	out[id] = group
	for _, c := range t.Children(id) {
		mark(t, c, group, out)
	}
}

func escapeXML(s string) string {
	var buf bytes.Buffer
	xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
