// Package layout runs the full layout pass: annotate, pack, reflow and
// flatten.
//
// A pass is a pure function of the raw tree, the previous [history.Context]
// and the options. It returns the flattened nodes to draw and a brand-new
// context describing every node of the tree, including those cut from the
// output by the depth limit or the node cap. Feeding that context into the
// next pass keeps unchanged parts of the picture where they were.
//
//	res, err := layout.Compute(root, history.Empty(), layout.DefaultOptions())
//	if err != nil {
//	    return err
//	}
//	next, err := layout.Compute(root, res.Context, opts) // stays put
package layout

import (
	"github.com/matzehuels/treepack/pkg/core/annotate"
	"github.com/matzehuels/treepack/pkg/core/circle"
	"github.com/matzehuels/treepack/pkg/core/history"
	"github.com/matzehuels/treepack/pkg/core/pack"
	"github.com/matzehuels/treepack/pkg/core/palette"
	"github.com/matzehuels/treepack/pkg/core/reflow"
	"github.com/matzehuels/treepack/pkg/errors"
	"github.com/matzehuels/treepack/pkg/tree"
)

const (
	// DefaultWidth is the default canvas width.
	DefaultWidth = 1600.0
	// DefaultHeight is the default canvas height.
	DefaultHeight = 1200.0
	// DefaultMaxDepth is the default depth limit for output and relaxation.
	DefaultMaxDepth = 9
	// DefaultMaxNodes caps the number of nodes returned.
	DefaultMaxNodes = 9000
)

// Options configures a layout pass.
type Options struct {
	Width    float64          `json:"width"`
	Height   float64          `json:"height"`
	MaxDepth int              `json:"max_depth"`
	MaxNodes int              `json:"max_nodes"`
	Encoding palette.Encoding `json:"color_encoding"`
}

// DefaultOptions returns the default configuration.
func DefaultOptions() Options {
	return Options{
		Width:    DefaultWidth,
		Height:   DefaultHeight,
		MaxDepth: DefaultMaxDepth,
		MaxNodes: DefaultMaxNodes,
		Encoding: palette.EncodingType,
	}
}

// Validate rejects options no pass can honor.
func (o Options) Validate() error {
	if o.MaxDepth < 1 {
		return errors.New(errors.ErrCodeInvalidDepth, "max depth must be at least 1, got %d", o.MaxDepth)
	}
	if !o.Encoding.Valid() {
		return errors.New(errors.ErrCodeInvalidEncoding, "unknown color encoding %q (must be one of: type, change-frequency, recency)", o.Encoding)
	}
	if !(o.Width > 0) || !(o.Height > 0) {
		return errors.New(errors.ErrCodeInvalidCanvas, "canvas must be positive, got %gx%g", o.Width, o.Height)
	}
	if o.MaxNodes < 1 {
		return errors.New(errors.ErrCodeInvalidInput, "max nodes must be at least 1, got %d", o.MaxNodes)
	}
	return nil
}

// Result is the outcome of a layout pass.
type Result struct {
	// Nodes are the positioned nodes in depth-first order, root first,
	// limited to MaxDepth and capped to MaxNodes.
	Nodes []*circle.Node
	// Context describes every node of the tree and replaces the previous
	// context.
	Context history.Context
	// Total is the number of nodes in the laid-out tree before filtering.
	Total int
}

// Compute runs one layout pass. A nil root yields an empty result and an
// empty context.
func Compute(root *tree.Node, prev history.Context, opts Options) (Result, error) {
	if err := opts.Validate(); err != nil {
		return Result{}, err
	}
	if root == nil {
		return Result{Context: history.Empty()}, nil
	}

	annotated := annotate.Annotate(root, prev, opts.Encoding)
	packed := pack.Pack(annotated, pack.Options{Width: opts.Width, Height: opts.Height})
	reflow.Reflow(packed, prev, reflow.Options{
		Width:    opts.Width,
		Height:   opts.Height,
		MaxDepth: opts.MaxDepth,
	})

	all := packed.Descendants()
	res := Result{
		Context: capture(all),
		Total:   len(all),
	}
	for _, n := range all {
		if n.Depth > opts.MaxDepth {
			continue
		}
		if len(res.Nodes) == opts.MaxNodes {
			break
		}
		res.Nodes = append(res.Nodes, n)
	}
	return res, nil
}

// capture builds the next context from every laid-out node.
func capture(nodes []*circle.Node) history.Context {
	ctx := history.Context{
		Positions: make(map[string]circle.Point, len(nodes)),
		Orders:    make(map[string]float64, len(nodes)),
		Radii:     make(map[string]float64, len(nodes)),
	}
	for _, n := range nodes {
		ctx.Positions[n.Path] = n.Center()
		ctx.Orders[n.Path] = n.Order
		ctx.Radii[n.Path] = n.R
	}
	return ctx
}
