package pipeline

import (
	"context"
	"fmt"

	"github.com/matzehuels/hierbundle/pkg/core/bundle"
	"github.com/matzehuels/hierbundle/pkg/core/geom"
	"github.com/matzehuels/hierbundle/pkg/core/render"
	"github.com/matzehuels/hierbundle/pkg/core/render/nodelink"
	"github.com/matzehuels/hierbundle/pkg/core/render/sink"
	"github.com/matzehuels/hierbundle/pkg/graph"
)

// pngScale is the resolution multiplier for PNG output.
const pngScale = 2.0

// RenderFromLayout renders a graph.Layout in every requested format.
// This is the preferred entry point when you have a graph.Layout, whether
// freshly computed or read back from JSON.
func RenderFromLayout(ctx context.Context, l graph.Layout, opts Options) (map[string][]byte, error) {
	if l.IsNodelink() {
		return RenderNodelink(ctx, l, opts)
	}

	t, coords, curves, err := l.Restore()
	if err != nil {
		return nil, fmt.Errorf("restore layout: %w", err)
	}

	var svg []byte
	drawSVG := func() ([]byte, error) {
		if svg == nil {
			out, err := sink.RenderSVG(t, coords, curves, buildSVGOptions(l, opts)...)
			if err != nil {
				return nil, err
			}
			svg = out
		}
		return svg, nil
	}

	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		var data []byte
		var err error

		switch format {
		case FormatSVG:
			data, err = drawSVG()
		case FormatPNG:
			if data, err = drawSVG(); err == nil {
				data, err = render.ToPNG(ctx, data, pngScale)
			}
		case FormatPDF:
			if data, err = drawSVG(); err == nil {
				data, err = render.ToPDF(ctx, data)
			}
		case FormatJSON:
			data, err = graph.MarshalLayout(l)
		case FormatDOT:
			edges := make([]bundle.Edge, len(curves))
			for i, c := range curves {
				edges[i] = c.Edge
			}
			data = []byte(nodelink.ToDOT(t, edges, nodelink.Options{}))
		default:
			return nil, fmt.Errorf("unsupported %s format: %s", l.VizType, format)
		}

		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}
	return artifacts, nil
}

// RenderNodelink generates nodelink outputs from a layout.
// The layout must be a nodelink layout (VizType = "nodelink") with a DOT string.
func RenderNodelink(ctx context.Context, l graph.Layout, opts Options) (map[string][]byte, error) {
	if l.DOT == "" {
		return nil, fmt.Errorf("nodelink layout missing DOT string")
	}

	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		var data []byte
		var err error

		switch format {
		case FormatSVG:
			data, err = nodelink.RenderSVG(ctx, l.DOT)
		case FormatPNG:
			data, err = nodelink.RenderPNG(ctx, l.DOT, pngScale)
		case FormatPDF:
			data, err = nodelink.RenderPDF(ctx, l.DOT)
		case FormatJSON:
			data, err = graph.MarshalLayout(l)
		case FormatDOT:
			data = []byte(l.DOT)
		default:
			return nil, fmt.Errorf("unsupported nodelink format: %s", format)
		}

		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}
	return artifacts, nil
}

// buildSVGOptions picks links and labels to match the visualization type.
func buildSVGOptions(l graph.Layout, opts Options) []sink.SVGOption {
	var svgOpts []sink.SVGOption

	switch l.VizType {
	case graph.VizTypeBundle:
		if opts.Labels {
			center := geom.Pt(l.Width/2, l.Height/2)
			if l.Center != nil {
				center = *l.Center
			}
			svgOpts = append(svgOpts, sink.WithRadialLabels(center))
		}
	case graph.VizTypeTree:
		svgOpts = append(svgOpts, sink.WithLinks())
		if opts.Labels {
			svgOpts = append(svgOpts, sink.WithLabels())
		}
	case graph.VizTypeProject:
		// Project trees are always labelled.
		svgOpts = append(svgOpts, sink.WithElbowLinks(), sink.WithLabels())
	}

	if opts.Theme == ThemeDark {
		svgOpts = append(svgOpts, sink.WithTheme(sink.Dark))
	}
	return svgOpts
}
