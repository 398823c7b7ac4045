// Package nodelink renders a hierarchy and its relations using Graphviz.
//
// Leaves become boxes, groups become nested clusters, and every relation
// becomes an edge between two leaves. Graphviz computes positions itself, so
// the coordinates of a layout are ignored:
//
//	Bundle:   Tree → layout.Radial → bundle.Bundle → sink.SVG → SVG
//	Nodelink: Tree → ToDOT() → DOT → RenderSVG() → SVG
//
// The DOT text is the intermediate representation and can be saved or
// cached to re-render without rebuilding the tree.
//
// # Usage
//
//	dot := nodelink.ToDOT(tree, edges, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// [RenderPDF] and [RenderPNG] convert the SVG with rsvg-convert.
//
// Self-loop edges are drawn as loops; Graphviz handles them natively.
package nodelink
