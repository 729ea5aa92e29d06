// Package pkg provides the core libraries for treepack file-tree
// visualization.
//
// # Overview
//
// Treepack draws a file tree as nested circles. Each circle is sized by the
// files below it and colored by file type or commit history. Layouts are
// stabilized: a pass starts from the positions and sibling orders of the
// previous pass, so files that did not change keep their place.
//
// The pkg directory is organized into these areas:
//
//  1. [tree] - The input file tree, its change lists and JSON/YAML codecs
//  2. [source/local] - Directory scanning, .gitignore, git history, watching
//  3. [core] - The layout algorithm (annotate, pack, reflow, palette)
//  4. [scene] - The serialized layout handed to renderers and clients
//  5. [render] - SVG, PNG, PDF and JSON output
//  6. [pipeline] - Orchestration (scan → layout → render) with caching
//  7. [session], [cache], [config] - Stored contexts, results, settings
//
// # Architecture
//
// The typical data flow through treepack:
//
//	Directory or tree file
//	         ↓
//	    [source/local] package (scan, ignore rules, history)
//	         ↓
//	    [core/layout] package (annotate → pack → reflow, against the context)
//	         ↓
//	    [scene] package (positioned nodes + legend)
//	         ↓
//	    SVG/PNG/PDF/JSON output
//
// The context produced by a pass is stored in a [session] and fed into the
// next one.
//
// # Quick Start
//
//	import (
//	    "context"
//
//	    "github.com/matzehuels/treepack/pkg/core/annotate"
//	    "github.com/matzehuels/treepack/pkg/core/history"
//	    "github.com/matzehuels/treepack/pkg/core/layout"
//	    "github.com/matzehuels/treepack/pkg/render/sink"
//	    "github.com/matzehuels/treepack/pkg/scene"
//	    "github.com/matzehuels/treepack/pkg/source/local"
//	)
//
//	func main() {
//	    ctx := context.Background()
//	    root, _ := local.Scan(ctx, local.Options{Root: "."})
//
//	    opts := layout.DefaultOptions()
//	    res, _ := layout.Compute(root, history.Empty(), opts)
//	    l := scene.FromResult(res, annotate.BuildLegend(root, opts.Encoding), opts)
//
//	    svg, _ := sink.Render(ctx, sink.FormatSVG, l)
//	    _ = svg // pass res.Context to the next Compute call
//	}
//
// Most callers go through [pipeline.Runner], which adds caching and session
// handling on top of these steps.
//
// [tree]: https://pkg.go.dev/github.com/matzehuels/treepack/pkg/tree
// [source/local]: https://pkg.go.dev/github.com/matzehuels/treepack/pkg/source/local
// [core]: https://pkg.go.dev/github.com/matzehuels/treepack/pkg/core
// [scene]: https://pkg.go.dev/github.com/matzehuels/treepack/pkg/scene
// [render]: https://pkg.go.dev/github.com/matzehuels/treepack/pkg/render
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/treepack/pkg/pipeline
// [pipeline.Runner]: https://pkg.go.dev/github.com/matzehuels/treepack/pkg/pipeline#Runner
// [session]: https://pkg.go.dev/github.com/matzehuels/treepack/pkg/session
// [cache]: https://pkg.go.dev/github.com/matzehuels/treepack/pkg/cache
// [config]: https://pkg.go.dev/github.com/matzehuels/treepack/pkg/config
package pkg
