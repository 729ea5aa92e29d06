package reflow

import (
	"math"
	"sort"

	"github.com/matzehuels/treepack/pkg/core/circle"
	"github.com/matzehuels/treepack/pkg/core/history"
	"github.com/matzehuels/treepack/pkg/core/pack"
)

// Tunables of the relaxation.
const (
	// Steps is the number of relaxation steps per sibling group.
	Steps = 280
	// CollideIterations is the number of collision sub-passes per step.
	CollideIterations = 8
	// CollideStrength scales each collision correction.
	CollideStrength = 1.0
	// VelocityDecay is the fraction of velocity lost per step.
	VelocityDecay = 0.4
	// AlphaMin is the cooling target reached after 300 steps.
	AlphaMin = 0.001

	// CanvasPull attracts groups at depth <= CanvasPullMaxDepth to the
	// canvas center.
	CanvasPull         = 0.01
	CanvasPullMaxDepth = 2

	// ParentPullX and ParentPullY attract children to their parent's
	// center. The vertical pull is stronger to flatten deep subtrees.
	ParentPullX = 0.3
	ParentPullY = 0.8

	// AnchorPull attracts a node to its previous position.
	AnchorPull = 0.5
	// FallbackPull attracts unanchored nodes to the group center. It is
	// scaled by the canvas aspect ratio per axis.
	FallbackPull = 0.3

	// LeafGap is the collision gap around files.
	LeafGap = 1.6
	// FolderGapMin and FolderGapMax bound the collision gap around folders,
	// which shrinks with depth.
	FolderGapMin = 3.0
	FolderGapMax = 8.0

	// MinRelaxChildren is the child count a folder must exceed for its
	// children to be relaxed.
	MinRelaxChildren = 4

	// LeafBulge is the fraction of its radius a file may stick out of its
	// folder.
	LeafBulge = 0.2

	// SettleIterations bounds each round of the final overlap projection.
	SettleIterations = 128

	// RadiusTolerance is the relative radius change, after the global
	// rescale, below which a cached node counts as unchanged.
	RadiusTolerance = 0.01
)

var alphaDecay = 1 - math.Pow(AlphaMin, 1.0/300)

// Options configures a relaxation.
type Options struct {
	Width, Height float64
	MaxDepth      int
}

// Reflow relaxes the packed tree in place. prev supplies the anchors;
// it is only read. After Reflow the root is resized to the smallest circle
// enclosing its children.
func Reflow(root *circle.Node, prev history.Context, opts Options) {
	if root == nil || root.IsLeaf() {
		return
	}
	r := &reflower{
		opts:   opts,
		prev:   prev,
		gap:    folderGapScale(opts.MaxDepth),
		scale:  radiusScale(root, prev),
		held:   make(map[*circle.Node]bool),
		packed: packedOffsets(root),
	}

	anchors := make([]anchor, len(root.Children))
	for i, c := range root.Children {
		if p, ok := prev.Position(c.Path); ok {
			anchors[i] = anchor{p: p, ok: true, cached: true}
		}
	}
	r.group(root.Children, anchors, nil)
	r.settle(root, true)

	e := pack.Enclose(root.Children)
	root.X, root.Y, root.R = e.X, e.Y, e.R
}

// anchor is the start and attraction point of a node. cached is set when
// it comes from the previous context.
type anchor struct {
	p      circle.Point
	ok     bool
	cached bool
}

type reflower struct {
	opts Options
	prev history.Context
	gap  func(depth int) float64
	// scale is the ratio of current to cached leaf radii, 0 when unknown.
	scale float64
	// held nodes keep their anchor for the whole pass.
	held map[*circle.Node]bool
	// packed is each node's packed offset from its parent.
	packed map[*circle.Node]circle.Point
}

// group relaxes one sibling group and then recurses into its folders.
// parent is nil for the top level.
func (r *reflower) group(items []*circle.Node, anchors []anchor, parent *circle.Node) {
	if len(items) == 0 {
		return
	}
	packed := make([]circle.Point, len(items))
	for i, it := range items {
		packed[i] = it.Center()
		if anchors[i].ok {
			it.X, it.Y = anchors[i].p.X, anchors[i].p.Y
		}
	}

	held := r.hold(items, anchors, parent)
	r.simulate(items, anchors, held, parent)

	for i, it := range items {
		if it.IsLeaf() {
			continue
		}
		base := it.Center()
		if anchors[i].ok {
			base = anchors[i].p
		}
		drift := it.Center().Sub(base)
		shift := it.Center().Sub(packed[i])
		for _, c := range it.Children {
			c.Translate(shift)
		}

		if len(it.Children) <= MinRelaxChildren || it.Depth > r.opts.MaxDepth {
			continue
		}
		childAnchors := make([]anchor, len(it.Children))
		for j, c := range it.Children {
			if p, ok := r.prev.Position(c.Path); ok {
				childAnchors[j] = anchor{p: p.Add(drift), ok: true, cached: true}
			} else {
				childAnchors[j] = anchor{p: c.Center(), ok: true}
			}
		}
		r.group(it.Children, childAnchors, it)
	}
}

// hold reports which items keep their anchor untouched: cached items whose
// radius is unchanged, that sit inside their container and that overlap no
// other held item. An unchanged tree fed its own context is therefore laid
// out exactly where it was.
func (r *reflower) hold(items []*circle.Node, anchors []anchor, parent *circle.Node) []bool {
	held := make([]bool, len(items))
	for i, it := range items {
		held[i] = anchors[i].cached && r.sameRadius(it) && r.contained(it, parent)
	}
	for i := range items {
		for j := i + 1; j < len(items) && held[i]; j++ {
			if held[j] && overlaps(items[i], items[j]) {
				held[i], held[j] = false, false
			}
		}
	}
	for i, it := range items {
		if held[i] {
			r.held[it] = true
		}
	}
	return held
}

// sameRadius compares n's radius with its cached one after removing the
// global rescale. Contexts without radii accept every node.
func (r *reflower) sameRadius(n *circle.Node) bool {
	if len(r.prev.Radii) == 0 {
		return true
	}
	pr, ok := r.prev.Radius(n.Path)
	if !ok || pr <= 0 || r.scale == 0 {
		return false
	}
	return math.Abs(n.R/(pr*r.scale)-1) <= RadiusTolerance
}

// contained reports whether n satisfies the canvas constraint, or with a
// parent the containment constraint. The tolerance grows with the global
// rescale so that a node which fitted before the rescale still counts as
// fitting.
func (r *reflower) contained(n, parent *circle.Node) bool {
	rescale := 0.0
	if r.scale > 0 {
		rescale = math.Abs(1 - r.scale)
	}
	if parent == nil {
		slack := fitSlack + rescale*n.R
		return fits(n.X, n.R, r.opts.Width, slack) && fits(n.Y, n.R, r.opts.Height, slack)
	}
	limit := parent.R - n.R
	if n.IsLeaf() {
		limit += n.R * LeafBulge
	}
	return n.Center().Dist(parent.Center()) <= math.Max(limit, 0)+fitSlack+rescale*parent.R
}

func fits(v, r, extent, slack float64) bool {
	return math.Abs(circle.KeepBetween(r, v, extent)-v) <= slack
}

// radiusScale is the median ratio of current to cached leaf radii. Leaf
// radii only change with the global rescale of the packing, so the median
// isolates it from leaves whose size changed.
func radiusScale(root *circle.Node, prev history.Context) float64 {
	var ratios []float64
	root.Each(func(n *circle.Node) {
		if !n.IsLeaf() {
			return
		}
		if pr, ok := prev.Radius(n.Path); ok && pr > 0 {
			ratios = append(ratios, n.R/pr)
		}
	})
	if len(ratios) == 0 {
		return 0
	}
	sort.Float64s(ratios)
	return ratios[len(ratios)/2]
}

// packedOffsets records where the packing put every node relative to its
// parent, before anything moves.
func packedOffsets(root *circle.Node) map[*circle.Node]circle.Point {
	out := make(map[*circle.Node]circle.Point)
	root.Each(func(n *circle.Node) {
		if n.Parent != nil {
			out[n] = n.Center().Sub(n.Parent.Center())
		}
	})
	return out
}

// collideRadius is the radius used by the collision force.
func (r *reflower) collideRadius(n *circle.Node) float64 {
	if n.IsLeaf() {
		return n.R + LeafGap
	}
	return n.R + r.gap(n.Depth)
}

// folderGapScale maps depth to a gap on a square-root scale from
// FolderGapMax at depth 1 down to FolderGapMin at maxDepth, clamped.
func folderGapScale(maxDepth int) func(int) float64 {
	d0, d1 := math.Sqrt(float64(maxDepth)), 1.0
	return func(depth int) float64 {
		if d0 == d1 {
			return (FolderGapMin + FolderGapMax) / 2
		}
		t := (math.Sqrt(math.Max(0, float64(depth))) - d0) / (d1 - d0)
		t = circle.Clamp(t, 0, 1)
		return FolderGapMin + t*(FolderGapMax-FolderGapMin)
	}
}
