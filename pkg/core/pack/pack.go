// Package pack computes area-proportional nested circle packings.
//
// Leaves get a radius proportional to the square root of their value, siblings
// are packed tangentially with a front-chain algorithm and every folder is
// sized to the smallest circle enclosing its children plus padding. The whole
// packing is then scaled to fit the requested extent. The result is fully
// determined by the input: identical annotated trees always yield identical
// layouts.
package pack

import (
	"math"

	"github.com/matzehuels/treepack/pkg/core/annotate"
	"github.com/matzehuels/treepack/pkg/core/circle"
)

// HeightStretch enlarges the vertical extent of the packing relative to the
// canvas. The reflow stage later squeezes the circles back onto the canvas,
// which leaves the layout wider than tall with larger bubbles.
const HeightStretch = 1.3

// Padding constants, in unscaled packing units.
const (
	// LeafGroupPadding separates the children of folders holding more than
	// one file.
	LeafGroupPadding = 5
	// FolderPadding separates the children of all other folders.
	FolderPadding = 13
)

// PaddingFunc returns the gap kept between the children of n.
type PaddingFunc func(n *circle.Node) float64

// DefaultPadding is 0 at the root, LeafGroupPadding when the folder holds
// more than one file and FolderPadding otherwise.
func DefaultPadding(n *circle.Node) float64 {
	if n.Depth <= 0 {
		return 0
	}
	files := 0
	for _, c := range n.Children {
		if c.IsLeaf() {
			files++
		}
	}
	if files > 1 {
		return LeafGroupPadding
	}
	return FolderPadding
}

// Options configures a packing.
type Options struct {
	// Width and Height are the canvas dimensions. The packing extent is
	// Width × Height·HeightStretch.
	Width, Height float64
	// Padding defaults to DefaultPadding.
	Padding PaddingFunc
}

// Pack lays out the annotated tree. Children are packed in sort order
// (see annotate.Less). Pack returns nil for a nil root and never modifies
// its input.
func Pack(root *annotate.Node, opts Options) *circle.Node {
	if root == nil {
		return nil
	}
	if opts.Padding == nil {
		opts.Padding = DefaultPadding
	}
	dx, dy := opts.Width, opts.Height*HeightStretch

	out := build(root, nil, 0)
	out.X, out.Y = dx/2, dy/2

	out.Each(func(n *circle.Node) {
		if n.IsLeaf() {
			n.R = math.Sqrt(n.Value)
		}
	})
	eachAfter(out, packChildren(opts.Padding, 0.5))
	out.Each(translateChild(1))
	k := out.R / math.Min(dx, dy)
	eachAfter(out, packChildren(opts.Padding, k))
	out.Each(translateChild(math.Min(dx, dy) / (2 * out.R)))
	return out
}

func build(a *annotate.Node, parent *circle.Node, depth int) *circle.Node {
	n := &circle.Node{
		Path:      a.Path,
		Name:      a.Name,
		Label:     a.Label,
		Extension: a.Extension,
		Color:     a.Color,
		Kind:      a.Kind,
		Value:     a.Value,
		Order:     a.SortOrder,
		Depth:     depth,
		Parent:    parent,
	}
	if len(a.Children) == 0 {
		return n
	}
	kids := append([]*annotate.Node(nil), a.Children...)
	sorted := &annotate.Node{Children: kids}
	annotate.SortChildren(sorted)
	n.Children = make([]*circle.Node, len(kids))
	for i, c := range sorted.Children {
		n.Children[i] = build(c, n, depth+1)
	}
	return n
}

func eachAfter(n *circle.Node, fn func(*circle.Node)) {
	for _, c := range n.Children {
		eachAfter(c, fn)
	}
	fn(n)
}

func packChildren(padding PaddingFunc, k float64) func(*circle.Node) {
	return func(n *circle.Node) {
		if n.IsLeaf() {
			return
		}
		r := padding(n) * k
		if r != 0 {
			for _, c := range n.Children {
				c.R += r
			}
		}
		e := Siblings(n.Children)
		if r != 0 {
			for _, c := range n.Children {
				c.R -= r
			}
		}
		n.R = e + r
	}
}

func translateChild(k float64) func(*circle.Node) {
	return func(n *circle.Node) {
		n.R *= k
		if p := n.Parent; p != nil {
			n.X = p.X + k*n.X
			n.Y = p.Y + k*n.Y
		}
	}
}
