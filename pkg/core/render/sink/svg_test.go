package sink

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/matzehuels/hierbundle/pkg/core/bundle"
	"github.com/matzehuels/hierbundle/pkg/core/geom"
	"github.com/matzehuels/hierbundle/pkg/core/hierarchy"
	"github.com/matzehuels/hierbundle/pkg/core/render/layout"
)

func fixture(t *testing.T) (*hierarchy.Tree, layout.Coordinates, []bundle.Curve) {
	t.Helper()
	tr, err := hierarchy.Build([]string{"a/x", "a/y", "b/z", "b/<w>"}, "/")
	if err != nil {
		t.Fatal(err)
	}
	coords, err := layout.Radial{Radius: 100}.Layout(tr)
	if err != nil {
		t.Fatal(err)
	}
	res, err := bundle.Bundle(tr, coords, []bundle.Edge{
		{Source: "a/x", Target: "b/z"},
		{Source: "b/z", Target: "a/y"},
		{Source: "a/x", Target: "a/x"},
	})
	if err != nil {
		t.Fatal(err)
	}
	return tr, coords, res.Curves
}

func TestSVGDraw(t *testing.T) {
	tr, coords, curves := fixture(t)
	svg, err := RenderSVG(tr, coords, curves, WithRadialLabels(geom.Point{}))
	if err != nil {
		t.Fatal(err)
	}
	s := string(svg)

	if !strings.HasPrefix(s, "<svg") || !strings.HasSuffix(s, "</svg>\n") {
		t.Error("output is not a complete SVG document")
	}
	if got := strings.Count(s, `class="curve"`); got != 2 {
		t.Errorf("got %d curves, want 2 (self-loop skipped)", got)
	}
	if got := strings.Count(s, "<circle"); got != tr.Len() {
		t.Errorf("got %d node markers, want %d", got, tr.Len())
	}
	if got := strings.Count(s, "<text"); got != 4 {
		t.Errorf("got %d labels, want one per leaf", got)
	}
	if !strings.Contains(s, "&lt;w&gt;") {
		t.Error("labels are not XML-escaped")
	}
	if !strings.Contains(s, Light.Palette[0]) || !strings.Contains(s, Light.Palette[1]) {
		t.Error("curves should be coloured by source group")
	}
}

func TestSVGOrdering(t *testing.T) {
	tr, coords, curves := fixture(t)
	svg, _ := RenderSVG(tr, coords, curves, WithLinks(), WithLabels())
	s := string(svg)
	links := strings.Index(s, `class="links"`)
	cs := strings.Index(s, `class="curves"`)
	nodes := strings.Index(s, `class="nodes"`)
	labels := strings.Index(s, `class="labels"`)
	if !(links < cs && cs < nodes && nodes < labels) {
		t.Errorf("draw order = links %d, curves %d, nodes %d, labels %d", links, cs, nodes, labels)
	}
	if got := strings.Count(s, "<line"); got != tr.Len()-1 {
		t.Errorf("got %d links, want %d", got, tr.Len()-1)
	}
}

func TestSVGElbowLinks(t *testing.T) {
	tr, err := hierarchy.Build([]string{"a/x", "b/z"}, "/")
	if err != nil {
		t.Fatal(err)
	}
	coords, _ := layout.Indented{}.Layout(tr)
	svg, err := RenderSVG(tr, coords, nil, WithElbowLinks(), WithTheme(Dark), WithSize(300, 200))
	if err != nil {
		t.Fatal(err)
	}
	s := string(svg)
	if strings.Contains(s, `class="curves"`) {
		t.Error("no curves group expected without curves")
	}
	if !strings.Contains(s, `<path d="M0.00,0.00V24.00H20.00"/>`) {
		t.Error("missing elbow link from root to a")
	}
	if !strings.Contains(s, Dark.Background) {
		t.Error("theme not applied")
	}
	if !strings.Contains(s, `width="300" height="200"`) {
		t.Error("size not applied")
	}
}

func TestSVGMissingCoordinate(t *testing.T) {
	tr, coords, _ := fixture(t)
	delete(coords, tr.Root())
	var buf bytes.Buffer
	err := NewSVG().Draw(&buf, tr, coords, nil)
	if !errors.Is(err, bundle.ErrMissingCoordinate) {
		t.Errorf("err = %v, want ErrMissingCoordinate", err)
	}
	if buf.Len() != 0 {
		t.Error("nothing should be written on error")
	}
}

func TestSVGImplementsRenderer(t *testing.T) {
	var _ Renderer = NewSVG()
}
