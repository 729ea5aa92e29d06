package sink

import (
	"math"
	"unicode/utf8"

	"github.com/matzehuels/treepack/pkg/core/palette"
	"github.com/matzehuels/treepack/pkg/scene"
	"github.com/matzehuels/treepack/pkg/tree"
)

// Highlight fills.
const (
	ColorDeleted   = "#a84032"
	ColorCreated   = "#32a852"
	ColorModified  = "#FCE68A"
	ColorUnchanged = "#ECEAEB"
)

const (
	folderStroke        = "#290819"
	folderStrokeOpacity = 0.2
	labelColor          = "#374151"
	leafLabelColor      = "#4B5563"
	selectedStroke      = "#374151"
	legendNoteColor     = "#9CA3AF"

	minFolderLabelR = 16.0
	minLeafLabelR   = 22.0
	leafFontSize    = 14.0
	legendNote      = "each dot sized by file size"
)

// Options shared by all sinks.
type Options struct {
	changes  tree.ChangeIndex
	selected string
	noLegend bool
	scale    float64
}

// Option configures a sink.
type Option func(*Options)

// WithChanges highlights the given paths.
func WithChanges(changes []tree.Change) Option {
	return func(o *Options) {
		if len(changes) > 0 {
			o.changes = tree.IndexChanges(changes)
		}
	}
}

// WithSelected outlines the node at path.
func WithSelected(path string) Option { return func(o *Options) { o.selected = path } }

// WithoutLegend hides the legend.
func WithoutLegend() Option { return func(o *Options) { o.noLegend = true } }

// WithScale sets the raster scale factor. Vector sinks ignore it.
func WithScale(s float64) Option { return func(o *Options) { o.scale = s } }

func newOptions(opts []Option) Options {
	o := Options{scale: 1}
	for _, opt := range opts {
		opt(&o)
	}
	if o.scale <= 0 {
		o.scale = 1
	}
	return o
}

func (o Options) highlighting() bool { return len(o.changes) > 0 }

// highlight returns the highlight fill for path and whether it changed.
func (o Options) highlight(path string) (string, bool) {
	switch kind, _ := o.changes.Lookup(path); kind {
	case tree.ChangeDelete:
		return ColorDeleted, true
	case tree.ChangeCreate:
		return ColorCreated, true
	case tree.ChangeModify:
		return ColorModified, true
	}
	return ColorUnchanged, false
}

// fill returns the leaf fill for n.
func (o Options) fill(n *scene.Node) string {
	if o.highlighting() {
		c, _ := o.highlight(n.Path)
		return c
	}
	return n.Color
}

// drawable reports whether n is drawn at all. The root and the loose-files
// group are never drawn.
func drawable(l *scene.Layout, n *scene.Node) bool {
	return n.Depth > 0 && n.Depth <= l.MaxDepth && !n.IsGroup()
}

// folderLabel returns the rim label of a folder and whether it is shown.
func folderLabel(l *scene.Layout, n *scene.Node, selected string) (string, bool) {
	if n.IsLeaf() || n.Depth == l.MaxDepth {
		return "", false
	}
	if n.R < minFolderLabelR && n.Path != selected {
		return "", false
	}
	if float64(utf8.RuneCountInString(n.Label)) > n.R*0.5 {
		return "", false
	}
	limit := 100
	if n.R < 30 {
		limit = int(math.Floor(n.R/2.7)) + 3
	}
	return truncate(n.Label, limit), true
}

// folderLabelGeometry returns the text radius and font size for a folder
// label at depth.
func folderLabelGeometry(n *scene.Node) (radius, fontSize float64) {
	offset := n.R + 12 - float64(n.Depth)*4
	return math.Max(20, offset-3), 16 - float64(n.Depth)
}

// leafLabel returns the centered label of a file and whether it is shown.
// Changed files always show their full name; otherwise only large files are
// labeled, and only while no highlights are active.
func leafLabel(n *scene.Node, o Options) (string, bool) {
	if !n.IsLeaf() {
		return "", false
	}
	if o.highlighting() {
		if _, changed := o.highlight(n.Path); changed {
			return n.Label, true
		}
		return "", false
	}
	if n.R <= minLeafLabelR {
		return "", false
	}
	return truncate(n.Label, int(math.Floor(n.R/4))+3), true
}

// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}

const (
	scaleWidth  = 100.0
	scaleHeight = 13.0
)

func typeLegendOrigin(l *scene.Layout) (x, y float64) {
	return l.Width - 60, l.Height - float64(len(l.Legend.Entries))*15 - 20
}

func scaleLegendOrigin(l *scene.Layout) (x, y float64) {
	return l.Width - 160, l.Height - 90
}

func scaleTitle(encoding string) string {
	switch palette.Encoding(encoding) {
	case palette.EncodingChangeFrequency:
		return "Number of changes"
	case palette.EncodingRecency:
		return "Last change date"
	}
	return ""
}
