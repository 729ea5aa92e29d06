// Package annotate derives the packing inputs from a raw file tree.
//
// [Annotate] walks a [tree.Node] and produces an [Node] tree carrying, for
// every entry, its extension, display label, fill color, packing weight and
// sibling sort priority. Along the way it collapses chains of single-folder
// directories ("a" containing only "b" becomes "a/b") and gathers the loose
// files at the root under one synthetic group with the fixed path
// [LooseFilesPath].
//
// Annotation is pure: it reads the sort orders of a previous layout pass but
// never writes to them.
package annotate

import (
	"sort"
	"strings"
	"time"

	"github.com/matzehuels/treepack/pkg/core/circle"
	"github.com/matzehuels/treepack/pkg/core/history"
	"github.com/matzehuels/treepack/pkg/core/palette"
	"github.com/matzehuels/treepack/pkg/tree"
)

// LooseFilesPath identifies the synthetic group holding root-level files.
const LooseFilesPath = "__loose_files__"

// Packing weights.
const (
	// BinaryWeight is the nominal weight of images and fonts.
	BinaryWeight = 100
	// RecognizedCap bounds files with a known extension.
	RecognizedCap = 15000
	// UnrecognizedCap bounds files with an unknown extension.
	UnrecognizedCap = 9000
	// MinValue replaces non-positive weights.
	MinValue = 1
)

// Sort priorities.
const (
	// DemotedOrder is assigned to new entries of an already laid-out folder
	// so they settle after their established siblings.
	DemotedOrder = -1e8
	// PinnedOrder keeps "public" folders first.
	PinnedOrder = 1e9
	pinnedName  = "public"
)

var binaryExtensions = map[string]bool{
	"woff": true, "woff2": true, "ttf": true, "otf": true,
	"png": true, "jpg": true, "jpeg": true, "gif": true, "ico": true, "svg": true,
}

// Node is an annotated tree entry.
type Node struct {
	Name      string
	Path      string
	Label     string
	Extension string
	Color     string
	Kind      circle.Kind
	Size      int64
	// Value is the packing weight. For folders it is the sum of the
	// children's values.
	Value     float64
	SortOrder float64
	// Index is the position among the raw siblings.
	Index       int
	CommitCount int
	LastChange  time.Time
	Children    []*Node
}

// IsLeaf reports whether n has no children.
func (n *Node) IsLeaf() bool { return len(n.Children) == 0 }

// Each visits n and its descendants depth-first.
func (n *Node) Each(fn func(*Node)) {
	if n == nil {
		return
	}
	fn(n)
	for _, c := range n.Children {
		c.Each(fn)
	}
}

// Extension returns the substring after the final "." of name, or "".
func Extension(name string) string {
	i := strings.LastIndex(name, ".")
	if i < 0 || i == len(name)-1 {
		return ""
	}
	return name[i+1:]
}

// Weight returns the packing weight of a file of the given size and
// extension at sibling index i.
func Weight(size int64, ext string, i int) float64 {
	var v float64
	switch {
	case binaryExtensions[strings.ToLower(ext)]:
		v = BinaryWeight
	case palette.Recognized(ext):
		v = float64(min(size, RecognizedCap))
	default:
		v = float64(min(size, UnrecognizedCap))
	}
	v += float64(i)
	if v <= 0 {
		return MinValue
	}
	return v
}

// SortOrder resolves the sibling priority of a node whose enclosing folder
// has the path parent. A cached order for the exact path wins. An uncached
// node inside a cached folder is demoted behind its established siblings.
// "public" is pinned first. Otherwise larger values come first with the
// sibling index as tie-breaker.
func SortOrder(path, parent, name string, value float64, i int, orders map[string]float64) float64 {
	if o, ok := orders[path]; ok {
		return o
	}
	if _, ok := orders[parent]; ok && path != parent {
		return DemotedOrder
	}
	if name == pinnedName {
		return PinnedOrder
	}
	return value - float64(i)
}

// Less orders siblings by sort order descending, then name descending.
func Less(a, b *Node) bool {
	if a.SortOrder != b.SortOrder {
		return a.SortOrder > b.SortOrder
	}
	return a.Name > b.Name
}

// SortChildren sorts n's children in packing order. It does not recurse.
func SortChildren(n *Node) {
	sort.SliceStable(n.Children, func(i, j int) bool { return Less(n.Children[i], n.Children[j]) })
}

// Annotate builds the annotated tree for root. A nil root yields nil.
func Annotate(root *tree.Node, prev history.Context, enc palette.Encoding) *Node {
	if root == nil {
		return nil
	}
	a := &annotator{
		orders: prev.Orders,
		color:  newColorer(root, enc),
	}
	n := a.annotate(root, 0, true)
	a.order(n, "")
	return n
}

type annotator struct {
	orders map[string]float64
	color  *colorer
}

func (a *annotator) annotate(raw *tree.Node, i int, isRoot bool) *Node {
	n := &Node{
		Name:        raw.Name,
		Path:        raw.Path,
		Size:        raw.Size,
		Index:       i,
		CommitCount: raw.CommitCount(),
		LastChange:  raw.LastChange(),
	}
	for ci, c := range raw.Children {
		n.Children = append(n.Children, a.annotate(c, ci, false))
	}
	if !isRoot {
		compress(n)
	}
	if isRoot && len(n.Children) > 0 {
		a.bucket(n)
	}
	a.finish(n)
	return n
}

// compress merges a folder whose only child is a folder into that child.
func compress(n *Node) {
	if len(n.Children) != 1 || n.Children[0].IsLeaf() {
		return
	}
	only := n.Children[0]
	n.Name = n.Name + "/" + only.Name
	n.Path = only.Path
	n.Children = only.Children
}

// bucket moves the root's leaf children under the synthetic loose-files
// group.
func (a *annotator) bucket(root *Node) {
	var folders, loose []*Node
	for _, c := range root.Children {
		if c.IsLeaf() {
			loose = append(loose, c)
		} else {
			folders = append(folders, c)
		}
	}
	if len(loose) == 0 {
		return
	}
	group := &Node{
		Name:     LooseFilesPath,
		Path:     LooseFilesPath,
		Kind:     circle.SyntheticGroup,
		Index:    len(folders),
		Children: loose,
	}
	a.finish(group)
	root.Children = append(folders, group)
}

// finish fills in the derived fields once n's children are final.
func (a *annotator) finish(n *Node) {
	n.Extension = Extension(n.Name)
	switch {
	case n.Kind == circle.SyntheticGroup:
	case n.IsLeaf():
		n.Kind = circle.Leaf
	default:
		n.Kind = circle.Folder
	}
	if n.Kind != circle.SyntheticGroup {
		n.Label = n.Name
	}

	if n.IsLeaf() {
		n.Value = Weight(n.Size, n.Extension, n.Index)
	} else {
		n.Value = 0
		for _, c := range n.Children {
			n.Value += c.Value
		}
		if n.Value <= 0 {
			n.Value = MinValue
		}
	}
	n.Color = a.color.color(n)
}

// order assigns sort priorities once the tree shape is final, so that
// compressed folders are seen under their merged paths.
func (a *annotator) order(n *Node, parent string) {
	n.SortOrder = SortOrder(n.Path, parent, n.Name, n.Value, n.Index, a.orders)
	for _, c := range n.Children {
		a.order(c, n.Path)
	}
}
