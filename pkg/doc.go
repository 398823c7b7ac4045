// Package pkg provides the core libraries for hierbundle.
//
// # Overview
//
// Hierbundle draws relations between the leaves of a hierarchy as bundled
// curves. Every edge is routed through the tree, from its source leaf up to
// the lowest common ancestor of both endpoints and back down to its target,
// so edges that share ancestors are pulled together. The pkg directory is
// organized into these areas:
//
//  1. [core] - Domain logic (hierarchy, bundling, geometry, layout, drawing)
//  2. [graph] - Input documents and serialized layouts
//  3. [pipeline] - Orchestration (parse → layout → bundle → render)
//  4. [cache] - File, Redis and null caches for layouts and artifacts
//  5. [observability] - Hooks for metrics, with a Prometheus implementation
//
// # Architecture
//
// The typical data flow:
//
//	JSON / YAML / TOML document
//	         ↓
//	    [graph] package (decode records and edges)
//	         ↓
//	    [core/hierarchy] package (build the tree from delimited identifiers)
//	         ↓
//	    [core/render/layout] package (radial or cluster coordinates)
//	         ↓
//	    [core/bundle] package (route, straighten and smooth every edge)
//	         ↓
//	    SVG/PDF/PNG/JSON/DOT output
//
// # Quick Start
//
//	import (
//	    "github.com/matzehuels/hierbundle/pkg/core/bundle"
//	    "github.com/matzehuels/hierbundle/pkg/core/hierarchy"
//	    "github.com/matzehuels/hierbundle/pkg/core/render/layout"
//	)
//
//	// 1. Build the hierarchy
//	t, _ := hierarchy.Build([]string{"a/x", "a/w", "b/y"}, "/")
//
//	// 2. Lay it out
//	coords, _ := layout.Radial{Radius: 300}.Layout(t)
//
//	// 3. Bundle the edges
//	res, _ := bundle.Bundle(t, coords, []bundle.Edge{{Source: "a/x", Target: "b/y"}},
//	    bundle.WithTension(0.85))
//
//	// 4. Draw each curve
//	for _, c := range res.Curves {
//	    fmt.Println(c.PathData())
//	}
//
// # Main Packages
//
// [core/hierarchy] - Arena tree of groups and leaves built from identifiers
// such as "flare.vis.data.DataList". Ancestor paths are cached per node.
//
// [core/bundle] - Hierarchical edge bundling: routes, tension, Catmull-Rom and
// B-spline smoothing. Lenient mode skips edges naming unknown leaves.
//
// [core/render/layout] - Radial dendrogram, cluster and indented layouts.
//
// [core/render/sink] - SVG drawing of nodes, labels and curves.
//
// [core/render/nodelink] - Graphviz node-link diagrams of the hierarchy.
//
// [core/render] - Format conversion (SVG to PDF/PNG).
//
// [pipeline] - The complete pipeline used by the CLI and the HTTP server.
// Ensures consistent defaults, validation and caching for every entry point.
//
// # Testing
//
//	go test ./pkg/...            # All tests
//	go test ./pkg/core/bundle    # Specific package
//	go test -run Example ./...   # Examples only
//
// [core]: https://pkg.go.dev/github.com/matzehuels/hierbundle/pkg/core
// [core/hierarchy]: https://pkg.go.dev/github.com/matzehuels/hierbundle/pkg/core/hierarchy
// [core/bundle]: https://pkg.go.dev/github.com/matzehuels/hierbundle/pkg/core/bundle
// [core/render]: https://pkg.go.dev/github.com/matzehuels/hierbundle/pkg/core/render
// [core/render/layout]: https://pkg.go.dev/github.com/matzehuels/hierbundle/pkg/core/render/layout
// [core/render/sink]: https://pkg.go.dev/github.com/matzehuels/hierbundle/pkg/core/render/sink
// [core/render/nodelink]: https://pkg.go.dev/github.com/matzehuels/hierbundle/pkg/core/render/nodelink
// [graph]: https://pkg.go.dev/github.com/matzehuels/hierbundle/pkg/graph
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/hierbundle/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/matzehuels/hierbundle/pkg/cache
// [observability]: https://pkg.go.dev/github.com/matzehuels/hierbundle/pkg/observability
package pkg
