// Package render holds conversions between rendered output formats.
//
// The drawing itself lives in [sink]: SVG and PNG are produced natively from
// a [scene.Layout]. PDF has no native writer; [ToPDF] hands the SVG to the
// external rsvg-convert tool (from librsvg):
//
//	svg := sink.RenderSVG(layout)
//	pdf, err := render.ToPDF(ctx, svg)
//
// When rsvg-convert is missing, ToPDF fails with an UNSUPPORTED error, which
// the HTTP API reports as 501. [Available] lets callers check up front.
//
// [sink]: github.com/matzehuels/treepack/pkg/render/sink
// [scene.Layout]: github.com/matzehuels/treepack/pkg/scene#Layout
package render
