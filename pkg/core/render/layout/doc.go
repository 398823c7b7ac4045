// Package layout assigns coordinates to every node of a hierarchy.
//
// # Overview
//
// Layouts are the geometry source for bundling and rendering. A [Layouter]
// receives a built [hierarchy.Tree] and returns [Coordinates] holding a
// point for every node, groups and leaves alike. The same tree always yields
// the same coordinates.
//
// Three layouts are provided, one per visualization type:
//
//   - [Radial]: a radial dendrogram. Leaves sit evenly spaced on the outer
//     circle in tree order; groups are placed at the mean angle of their
//     children, at a radius proportional to their depth. This is the layout
//     hierarchical edge bundling is usually drawn on.
//   - [Cluster]: the same dendrogram unrolled top-down into a rectangle.
//   - [Indented]: a file-browser style tree, one row per node.
//
// # Orientation
//
// Radial angles start at twelve o'clock and grow clockwise, see
// [geom.Polar]. Cluster and Indented place the root at the top, growing
// downward as SVG does.
package layout
