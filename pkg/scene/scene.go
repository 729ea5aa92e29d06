package scene

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/matzehuels/treepack/pkg/core/annotate"
	"github.com/matzehuels/treepack/pkg/core/circle"
	"github.com/matzehuels/treepack/pkg/core/layout"
	"github.com/matzehuels/treepack/pkg/core/palette"
)

// LegendDateFormat formats recency legend extents.
const LegendDateFormat = "Jan 2006"

// =============================================================================
// Layout - Renderer Input
// =============================================================================

// Layout is a flattened, positioned circle packing.
type Layout struct {
	Width    float64 `json:"width" bson:"width"`
	Height   float64 `json:"height" bson:"height"`
	MaxDepth int     `json:"max_depth" bson:"max_depth"`
	Encoding string  `json:"encoding" bson:"encoding"`
	// Total counts the nodes of the full tree, before depth filtering and
	// the node cap.
	Total  int    `json:"total" bson:"total"`
	Nodes  []Node `json:"nodes" bson:"nodes"`
	Legend Legend `json:"legend" bson:"legend"`
}

// Node is one positioned circle.
type Node struct {
	Path      string  `json:"path" bson:"path"`
	Label     string  `json:"label,omitempty" bson:"label,omitempty"`
	Extension string  `json:"extension,omitempty" bson:"extension,omitempty"`
	Color     string  `json:"color,omitempty" bson:"color,omitempty"`
	Kind      string  `json:"kind" bson:"kind"`
	Depth     int     `json:"depth" bson:"depth"`
	X         float64 `json:"x" bson:"x"`
	Y         float64 `json:"y" bson:"y"`
	R         float64 `json:"r" bson:"r"`
	// Parent is the parent's path; empty for the root and top-level nodes.
	Parent string `json:"parent,omitempty" bson:"parent,omitempty"`
	// Children is the number of children in the full tree.
	Children int `json:"children,omitempty" bson:"children,omitempty"`
}

// IsLeaf reports whether the node is a file.
func (n *Node) IsLeaf() bool { return n.Kind == circle.Leaf.String() }

// IsGroup reports whether the node is the synthetic loose-files group.
func (n *Node) IsGroup() bool { return n.Kind == circle.SyntheticGroup.String() }

// Legend explains the fill colors.
type Legend struct {
	Encoding string        `json:"encoding" bson:"encoding"`
	Entries  []LegendEntry `json:"entries,omitempty" bson:"entries,omitempty"`
	// Stops, Min and Max describe a color scale; MinLabel and MaxLabel are
	// the formatted extents.
	Stops    []string `json:"stops,omitempty" bson:"stops,omitempty"`
	Min      float64  `json:"min,omitempty" bson:"min,omitempty"`
	Max      float64  `json:"max,omitempty" bson:"max,omitempty"`
	MinLabel string   `json:"min_label,omitempty" bson:"min_label,omitempty"`
	MaxLabel string   `json:"max_label,omitempty" bson:"max_label,omitempty"`
}

// LegendEntry pairs an extension with its color.
type LegendEntry struct {
	Extension string `json:"extension" bson:"extension"`
	Color     string `json:"color" bson:"color"`
}

// IsScale reports whether the legend is a gradient.
func (l Legend) IsScale() bool { return len(l.Stops) > 0 }

// Find returns the node with the given path.
func (l *Layout) Find(path string) (*Node, bool) {
	for i := range l.Nodes {
		if l.Nodes[i].Path == path {
			return &l.Nodes[i], true
		}
	}
	return nil, false
}

// =============================================================================
// Layout Pass → Layout
// =============================================================================

// FromResult converts a layout pass into its serialization format.
func FromResult(res layout.Result, legend annotate.Legend, opts layout.Options) Layout {
	out := Layout{
		Width:    opts.Width,
		Height:   opts.Height,
		MaxDepth: opts.MaxDepth,
		Encoding: string(opts.Encoding),
		Total:    res.Total,
		Nodes:    make([]Node, len(res.Nodes)),
		Legend:   legendFrom(legend),
	}
	for i, n := range res.Nodes {
		out.Nodes[i] = nodeFrom(n)
	}
	return out
}

func nodeFrom(n *circle.Node) Node {
	out := Node{
		Path:      n.Path,
		Label:     n.Label,
		Extension: n.Extension,
		Color:     n.Color,
		Kind:      n.Kind.String(),
		Depth:     n.Depth,
		X:         n.X,
		Y:         n.Y,
		R:         n.R,
		Children:  len(n.Children),
	}
	if n.Parent != nil {
		out.Parent = n.Parent.Path
	}
	return out
}

func legendFrom(l annotate.Legend) Legend {
	out := Legend{Encoding: string(l.Encoding)}
	if l.Scale == nil {
		for _, ext := range l.Extensions {
			out.Entries = append(out.Entries, LegendEntry{Extension: ext, Color: palette.TypeColor(ext)})
		}
		return out
	}
	out.Stops = l.Scale.Stops()
	out.Min, out.Max = l.Scale.Extent()
	if l.Encoding == palette.EncodingRecency {
		out.MinLabel = formatDate(out.Min)
		out.MaxLabel = formatDate(out.Max)
	} else {
		out.MinLabel = strconv.FormatFloat(math.Round(out.Min), 'f', -1, 64)
		out.MaxLabel = strconv.FormatFloat(math.Round(out.Max), 'f', -1, 64)
	}
	return out
}

func formatDate(v float64) string {
	if v == 0 {
		return ""
	}
	return time.Unix(int64(v), 0).UTC().Format(LegendDateFormat)
}

// =============================================================================
// Layout Serialization API
// =============================================================================

// MarshalLayout serializes a Layout to pretty-printed JSON bytes.
func MarshalLayout(l Layout) ([]byte, error) {
	return json.MarshalIndent(l, "", "  ")
}

// UnmarshalLayout deserializes JSON bytes into a Layout.
func UnmarshalLayout(data []byte) (Layout, error) {
	var l Layout
	if err := json.Unmarshal(data, &l); err != nil {
		return Layout{}, fmt.Errorf("unmarshal layout: %w", err)
	}
	if l.Width <= 0 || l.Height <= 0 {
		return Layout{}, fmt.Errorf("layout must have a positive canvas, got %gx%g", l.Width, l.Height)
	}
	for _, n := range l.Nodes {
		if !(n.R > 0) {
			return Layout{}, fmt.Errorf("node %q has non-positive radius %g", n.Path, n.R)
		}
	}
	return l, nil
}

// WriteLayoutFile writes a Layout to a JSON file.
func WriteLayoutFile(l Layout, path string) error {
	data, err := MarshalLayout(l)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ReadLayoutFile reads a Layout from a JSON file.
func ReadLayoutFile(path string) (Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Layout{}, fmt.Errorf("read %s: %w", path, err)
	}
	return UnmarshalLayout(data)
}
