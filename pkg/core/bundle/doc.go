// Package bundle implements hierarchical edge bundling.
//
// # Overview
//
// Every relation between two leaves of a [hierarchy.Tree] is drawn as a
// curve routed through the tree: up from the source leaf to the lowest
// common ancestor (LCA) of both endpoints, then down to the target. Curves
// between leaves of the same subtrees share their upper route and therefore
// visually merge into bundles.
//
// # Algorithm
//
// For each [Edge], [Bundle]:
//
//  1. Resolves both endpoints to leaves and fetches their ancestor paths.
//  2. Finds the LCA as the last element of the paths' common prefix.
//  3. Builds the route: source up to (excluding) the LCA, the LCA, then down
//     to the target. Its length is len(pA)+len(pB)-2·common+1.
//  4. Maps each routed node to its coordinate, giving the control polygon.
//  5. Straightens the polygon by tension β: each point moves to
//     β·p + (1-β)·chord(f), where f is the point's normalized arc-length
//     position and chord is the straight segment between the endpoints.
//  6. Fits a cubic spline through the straightened points ([SplineCatmullRom]
//     by default, or [SplineBasis]).
//
// Tension 0 therefore yields a straight line between the two leaves, and
// tension 1 follows the hierarchy exactly.
//
// # Self-loops
//
// An edge whose source equals its target produces a degenerate curve whose
// control points are the leaf coordinate repeated. Only that coordinate is
// required. Renderers typically skip such curves; see [Curve.SelfLoop].
//
// # Failures
//
// Strict mode (the default) aborts on the first failing edge in input order.
// With [Lenient], failing edges are reported in [Result.Failures] and the
// remaining curves are still returned. Tension outside [0, 1] always fails
// the whole batch with [ErrInvalidTension].
//
// # Concurrency
//
// Bundle is a pure function. [WithWorkers] computes edges in parallel;
// output order always equals input order.
package bundle
