// Package graph provides the input document format and the layout
// serialization format of hierbundle.
//
// This package defines the canonical wire formats used for input files, API
// requests and responses, caching, and saved layouts.
//
// # Architecture
//
// The package sits at the serialization boundary between internal
// representations and external formats:
//
//   - [Document]: hierarchical input, one record per leaf
//   - [Layout]: a computed visualization (positions, curves, DOT)
//   - pkg/core/hierarchy.Tree, layout.Coordinates, bundle.Curve: internal
//
// Use [FromResult] and [Layout.Restore] to convert between them.
//
// # Constants
//
// This package is the single source of truth for visualization constants:
//
//	graph.VizTypeBundle    // "bundle"
//	graph.VizTypeTree      // "tree"
//	graph.VizTypeProject   // "project"
//	graph.VizTypeNodelink  // "nodelink"
//
// # Documents
//
// The flare-imports style is accepted as is, a list of records naming each
// leaf and the leaves it relates to:
//
//	[
//	  {"name": "flare.vis.Axis", "size": 1302, "imports": ["flare.util.Arrays"]},
//	  {"name": "flare.util.Arrays", "size": 8258, "imports": []}
//	]
//
// The object form adds a delimiter, nested children and explicit edges:
//
//	delimiter: /
//	nodes:
//	  - name: src
//	    children:
//	      - name: main.go
//	        imports: [src/util.go]
//	      - name: util.go
//	edges:
//	  - {from: src/util.go, to: src/main.go, weight: 2}
//
// Child names are joined to their parent's with the delimiter. JSON, YAML and
// TOML are supported; see [ParseDocument].
//
// # Layout Serialization
//
// Layouts are discriminated by VizType. Bundle, tree and project layouts
// carry nodes with coordinates and curves; nodelink layouts carry a DOT
// string:
//
//	l, _ := graph.ReadLayoutFile("layout.json")
//	if l.IsNodelink() {
//	    // Use l.DOT for Graphviz rendering
//	}
//
// # Concurrency
//
// All functions are safe for concurrent use.
package graph
