// Package sink draws hierarchies and bundled curves.
//
// # Overview
//
// A sink consumes a built [hierarchy.Tree], its [layout.Coordinates] and the
// [bundle.Curve] values computed over them, and writes a final output
// format. Curves are assumed to be in the same coordinate space as the
// coordinates.
//
// # SVG Output
//
// [SVG] implements [Renderer]. Drawing order is tree links, curves, nodes,
// then labels, so that curves never hide node markers:
//
//	r := sink.NewSVG(
//	    sink.WithRadialLabels(center),
//	    sink.WithTheme(sink.Dark),
//	)
//	err := r.Draw(w, tree, coords, res.Curves)
//
// [RenderSVG] is a shorthand returning the document as bytes.
//
// # SVG Options
//
//   - [WithLinks]: draw parent-child links (straight lines)
//   - [WithElbowLinks]: draw parent-child links as right-angle elbows
//   - [WithLabels]: label nodes to the right of their marker
//   - [WithRadialLabels]: label leaves outward from a radial layout center
//   - [WithTheme]: colours ([Light] by default)
//   - [WithSize]: output width and height; the viewBox always fits content
//
// Curves are coloured by the top-level group of their source leaf. Self-loop
// curves are skipped.
package sink
