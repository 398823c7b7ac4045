package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/matzehuels/hierbundle/pkg/core/bundle"
	"github.com/matzehuels/hierbundle/pkg/core/geom"
	"github.com/matzehuels/hierbundle/pkg/core/hierarchy"
	"github.com/matzehuels/hierbundle/pkg/core/render/layout"
	"github.com/matzehuels/hierbundle/pkg/core/render/nodelink"
	"github.com/matzehuels/hierbundle/pkg/graph"
	"github.com/matzehuels/hierbundle/pkg/observability"
)

// labelRoom is the space kept free around a radial layout for leaf labels.
const labelRoom = 120.0

// =============================================================================
// Layout Generation
// =============================================================================

// GenerateLayout computes the serializable layout of t for opts.VizType.
// Bundle layouts also route and smooth every edge; the other types ignore
// edges except nodelink, which embeds them in its DOT source.
func GenerateLayout(ctx context.Context, t *hierarchy.Tree, edges []bundle.Edge, opts Options) (graph.Layout, error) {
	switch opts.VizType {
	case graph.VizTypeNodelink:
		return generateNodelinkLayout(t, edges, opts), nil
	case graph.VizTypeTree:
		return generateStaticLayout(t, layout.Cluster{Width: opts.Width, Height: opts.Height}, opts)
	case graph.VizTypeProject:
		return generateStaticLayout(t, layout.Indented{}, opts)
	}
	return generateBundleLayout(ctx, t, edges, opts)
}

// =============================================================================
// Bundle
// =============================================================================

// RadialFrame returns the radial layout that fits a width×height frame,
// leaving room for labels when the frame is large enough.
func RadialFrame(width, height float64) layout.Radial {
	half := min(width, height) / 2
	radius := half - labelRoom
	if radius < half/2 {
		radius = half / 2
	}
	return layout.Radial{Radius: radius, Center: geom.Pt(width/2, height/2)}
}

func generateBundleLayout(ctx context.Context, t *hierarchy.Tree, edges []bundle.Edge, opts Options) (graph.Layout, error) {
	radial := RadialFrame(opts.Width, opts.Height)
	coords, err := radial.Layout(t)
	if err != nil {
		return graph.Layout{}, err
	}

	start := time.Now()
	res, err := bundle.Bundle(t, coords, edges, opts.BundleOptions()...)
	curves, failures := 0, 0
	if res != nil {
		curves, failures = len(res.Curves), len(res.Failures)
	}
	observability.Pipeline().OnBundleComplete(ctx, curves, failures, time.Since(start), err)
	if err != nil {
		return graph.Layout{}, fmt.Errorf("bundle: %w", err)
	}

	for _, f := range res.Failures {
		opts.Logger.Warn("skipped edge", "index", f.Index, "source", f.Edge.Source, "target", f.Edge.Target, "err", f.Err)
	}

	l := graph.FromResult(graph.VizTypeBundle, t, coords, res)
	l.Width, l.Height = opts.Width, opts.Height
	center := radial.Center
	l.Center = &center
	return l, nil
}

// =============================================================================
// Tree and project
// =============================================================================

func generateStaticLayout(t *hierarchy.Tree, lay layout.Layouter, opts Options) (graph.Layout, error) {
	coords, err := lay.Layout(t)
	if err != nil {
		return graph.Layout{}, err
	}
	return graph.FromResult(opts.VizType, t, coords, nil), nil
}

// =============================================================================
// Nodelink
// =============================================================================

// generateNodelinkLayout stores the Graphviz source; Graphviz positions the
// nodes at render time.
func generateNodelinkLayout(t *hierarchy.Tree, edges []bundle.Edge, opts Options) graph.Layout {
	l := graph.FromResult(graph.VizTypeNodelink, t, nil, nil)
	l.Width, l.Height = opts.Width, opts.Height
	l.DOT = nodelink.ToDOT(t, edges, nodelink.Options{})
	for _, e := range edges {
		l.Edges = append(l.Edges, graph.EdgeRecord{From: e.Source, To: e.Target, Weight: e.Weight, Directed: e.Directed})
	}
	return l
}
