package annotate

import (
	"sort"
	"time"

	"github.com/matzehuels/treepack/pkg/core/circle"
	"github.com/matzehuels/treepack/pkg/core/palette"
	"github.com/matzehuels/treepack/pkg/tree"
)

// colorer resolves fills for one encoding. Scale encodings compute their
// domain once from the leaves of the raw tree.
type colorer struct {
	enc   palette.Encoding
	scale *palette.Scale
}

func newColorer(root *tree.Node, enc palette.Encoding) *colorer {
	c := &colorer{enc: enc}
	switch enc {
	case palette.EncodingChangeFrequency:
		var counts []float64
		for _, leaf := range root.Leaves() {
			counts = append(counts, float64(leaf.CommitCount()))
		}
		c.scale = palette.FrequencyScale(counts)
	case palette.EncodingRecency:
		var dates []time.Time
		for _, leaf := range root.Leaves() {
			dates = append(dates, leaf.LastChange())
		}
		c.scale = palette.RecencyScale(dates)
	}
	return c
}

// Scale returns the color scale in use, or nil for the type encoding.
func (c *colorer) Scale() *palette.Scale { return c.scale }

func (c *colorer) color(n *Node) string {
	switch c.enc {
	case palette.EncodingChangeFrequency:
		if n.Kind != circle.Leaf {
			return palette.Floor
		}
		return c.scale.At(float64(n.CommitCount))
	case palette.EncodingRecency:
		if n.Kind != circle.Leaf || n.LastChange.IsZero() {
			return palette.Floor
		}
		return c.scale.At(palette.TimeValue(n.LastChange))
	}
	if n.IsLeaf() {
		return palette.TypeColor(n.Extension)
	}
	// Only files vote; a dotted folder name is not a file type.
	exts := make([]string, 0, len(n.Children))
	for _, ch := range n.Children {
		if ch.IsLeaf() {
			exts = append(exts, ch.Extension)
		}
	}
	return palette.TypeColor(palette.DominantExtension(exts))
}

// Legend describes how colors map to data for one encoding.
type Legend struct {
	Encoding palette.Encoding
	// Extensions lists, in lexical order, the recognized extensions present
	// in the tree. Set for the type encoding only.
	Extensions []string
	// Scale is set for the scale encodings.
	Scale *palette.Scale
}

// BuildLegend returns the legend for root under enc.
func BuildLegend(root *tree.Node, enc palette.Encoding) Legend {
	l := Legend{Encoding: enc}
	if root == nil {
		return l
	}
	if enc != palette.EncodingType {
		l.Scale = newColorer(root, enc).Scale()
		return l
	}
	seen := map[string]bool{}
	for _, leaf := range root.Leaves() {
		ext := Extension(leaf.Name)
		if palette.Recognized(ext) && !seen[ext] {
			seen[ext] = true
			l.Extensions = append(l.Extensions, ext)
		}
	}
	sort.Strings(l.Extensions)
	return l
}
