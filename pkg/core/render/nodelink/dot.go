package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/hierbundle/pkg/core/bundle"
	"github.com/matzehuels/hierbundle/pkg/core/hierarchy"
	"github.com/matzehuels/hierbundle/pkg/core/render"
	"github.com/matzehuels/hierbundle/pkg/core/render/layout"
)

// Options configures node-link diagram rendering.
type Options struct {
	// Detailed adds each leaf's full identifier and depth to its label.
	// When false, only the last segment is shown.
	Detailed bool
	// Flat omits group clusters and draws leaves only.
	Flat bool
}

// ToDOT converts a tree and its relations to Graphviz DOT format.
// The resulting DOT string can be rendered using [RenderSVG], [RenderPDF],
// or [RenderPNG].
//
// Edges whose endpoints are not leaves of t are skipped.
func ToDOT(t *hierarchy.Tree, edges []bundle.Edge, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  compound=true;\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	if opts.Flat {
		for _, leaf := range t.Leaves() {
			writeLeaf(&buf, t.MustNode(leaf), opts, "  ")
		}
	} else {
		writeGroup(&buf, t, t.Root(), opts, "  ")
	}

	buf.WriteString("\n")
	for _, e := range edges {
		if _, ok := t.Leaf(e.Source); !ok {
			continue
		}
		if _, ok := t.Leaf(e.Target); !ok {
			continue
		}
		fmt.Fprintf(&buf, "  %q -> %q%s;\n", e.Source, e.Target, fmtEdgeAttrs(e))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func writeGroup(buf *bytes.Buffer, t *hierarchy.Tree, id hierarchy.NodeID, opts Options, indent string) {
	n := t.MustNode(id)
	if n.IsLeaf() {
		writeLeaf(buf, n, opts, indent)
		return
	}
	inner := indent
	// The root is the graph itself rather than a cluster.
	if n.Parent != hierarchy.NoNode {
		fmt.Fprintf(buf, "%ssubgraph \"cluster_%d\" {\n", indent, id)
		fmt.Fprintf(buf, "%s  label=%q;\n", indent, n.Name)
		fmt.Fprintf(buf, "%s  style=\"rounded,dashed\";\n", indent)
		fmt.Fprintf(buf, "%s  color=grey;\n", indent)
		inner = indent + "  "
	}
	for _, c := range n.Children {
		writeGroup(buf, t, c, opts, inner)
	}
	if n.Parent != hierarchy.NoNode {
		fmt.Fprintf(buf, "%s}\n", indent)
	}
}

func writeLeaf(buf *bytes.Buffer, n hierarchy.Node, opts Options, indent string) {
	fmt.Fprintf(buf, "%s%q [label=%q];\n", indent, n.ID, fmtLabel(n, opts.Detailed))
}

func fmtLabel(n hierarchy.Node, detailed bool) string {
	if !detailed {
		return n.Name
	}
	return n.Name + "\n" + strings.Join([]string{
		"id: " + n.ID,
		fmt.Sprintf("depth: %d", n.Depth),
	}, "\n")
}

func fmtEdgeAttrs(e bundle.Edge) string {
	var attrs []string
	if !e.Directed {
		attrs = append(attrs, "dir=none")
	}
	if e.Weight > 0 {
		attrs = append(attrs, fmt.Sprintf("penwidth=%.2f", 1+e.Weight))
	}
	if len(attrs) == 0 {
		return ""
	}
	return " [" + strings.Join(attrs, ", ") + "]"
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
// Returns the SVG bytes ready for display or further conversion with
// [render.ToPDF] or [render.ToPNG].
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(tag))
}

// RenderPDF renders a DOT graph as PDF via SVG conversion. It fails with
// [render.ErrConverterMissing] when librsvg is not installed.
func RenderPDF(ctx context.Context, dot string) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPDF(ctx, svg)
}

// RenderPNG renders a DOT graph as PNG via SVG conversion. A scale of 2.0
// produces a 2x resolution image.
func RenderPNG(ctx context.Context, dot string, scale float64) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPNG(ctx, svg, scale)
}

// Renderer draws through Graphviz. Coordinates are ignored; only the tree
// and the edges of the curves are used.
type Renderer struct {
	Options Options
}

// Draw writes the Graphviz SVG of t and the curves' edges to w.
func (r Renderer) Draw(w io.Writer, t *hierarchy.Tree, _ layout.Coordinates, curves []bundle.Curve) error {
	edges := make([]bundle.Edge, len(curves))
	for i, c := range curves {
		edges[i] = c.Edge
	}
	svg, err := RenderSVG(context.Background(), ToDOT(t, edges, r.Options))
	if err != nil {
		return err
	}
	_, err = w.Write(svg)
	return err
}
