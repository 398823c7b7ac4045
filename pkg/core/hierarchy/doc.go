// Package hierarchy builds and queries the tree that edge bundling routes
// over.
//
// # Overview
//
// Input to hierbundle is a flat list of delimited identifiers such as
// "flare.analytics.cluster.AgglomerativeCluster". This package turns that
// list into a tree of named groups, with one leaf per identifier. Relations
// between leaves are later routed through this tree by the [bundle] package.
//
// # Building
//
// [Build] splits every identifier into segments once and inserts the
// segment sequence into a trie. Intermediate groups are created on demand
// and reused whenever identifiers share a prefix; the final segment becomes
// a leaf:
//
//	t, err := hierarchy.Build([]string{"a/x", "a/y", "b/z"}, "/")
//	// root ("")
//	// ├── a
//	// │   ├── a/x
//	// │   └── a/y
//	// └── b
//	//     └── b/z
//
// When every identifier starts with the same group segment, that group is
// the root; otherwise a synthetic root with an empty identifier is created.
// Use [Builder] to insert identifiers one at a time, or [BuildSegments] when
// the caller already holds segment sequences.
//
// Construction is all-or-nothing: on [ErrMalformedIdentifier] or
// [ErrDuplicateLeaf] no tree is returned.
//
// # Storage
//
// Nodes live in a flat arena indexed by [NodeID]. Children are stored as
// indices in insertion order; the parent is a plain index used only to walk
// upward when resolving ancestor paths.
//
// # Ancestor paths
//
// [Tree.AncestorPath] returns the root-to-node sequence of a node. Paths are
// cached for the lifetime of the tree, which never changes after it is
// built. [LCA] compares two paths by plain prefix iteration.
//
// # Concurrency
//
// A built [Tree] is safe for concurrent readers. The path cache is guarded
// internally. [Builder] is not safe for concurrent use.
//
// [bundle]: github.com/matzehuels/hierbundle/pkg/core/bundle
package hierarchy
