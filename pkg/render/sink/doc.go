// Package sink renders a [scene.Layout] to output formats.
//
// [RenderSVG] produces a standalone SVG document: folders as white outlined
// circles with their names set along the top of the rim, files as filled
// dots with centered labels when there is room, and a legend in the lower
// right corner. [RenderPNG] draws the same picture natively with
// fogleman/gg, and [RenderJSON] emits the layout itself.
//
// Change highlights replace the fill colors: deleted files turn red, created
// files green and modified files amber, while unchanged files fade to a
// neutral gray. Changed files glow and always show their label. The legend is
// hidden while highlights are active.
//
//	svg := sink.RenderSVG(l, sink.WithChanges(changes))
//	png, err := sink.RenderPNG(l, sink.WithScale(2))
package sink
