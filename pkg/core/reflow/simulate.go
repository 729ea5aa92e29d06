package reflow

import (
	"math"
	"sort"

	"github.com/matzehuels/treepack/pkg/core/circle"
)

// body is the simulation state of one node.
type body struct {
	n      *circle.Node
	vx, vy float64
	radius float64
	target circle.Point
	pullX  float64
	pullY  float64
	held   bool
}

// simulate runs the fixed-length relaxation for one sibling group. Held
// items neither feel forces nor move; the others collide with them as with
// walls. A group that is held entirely is left as it is.
func (r *reflower) simulate(items []*circle.Node, anchors []anchor, held []bool, parent *circle.Node) {
	free := 0
	for _, h := range held {
		if !h {
			free++
		}
	}
	if free == 0 {
		return
	}

	w, h := r.opts.Width, r.opts.Height
	canvas := circle.Point{X: w / 2, Y: h / 2}
	center := canvas
	if parent != nil {
		center = parent.Center()
	}

	bodies := make([]body, len(items))
	maxRadius := 0.0
	for i, it := range items {
		b := body{n: it, radius: r.collideRadius(it), held: held[i]}
		if anchors[i].ok {
			b.target = anchors[i].p
			b.pullX, b.pullY = AnchorPull, AnchorPull
		} else {
			b.target = center
			b.pullX = FallbackPull * w / h
			b.pullY = FallbackPull * h / w
		}
		bodies[i] = b
		maxRadius = math.Max(maxRadius, b.radius)
	}

	canvasPull := 0.0
	if items[0].Depth <= CanvasPullMaxDepth {
		canvasPull = CanvasPull
	}
	sw := newSweep(len(bodies))

	alpha := 1.0
	for step := 0; step < Steps; step++ {
		alpha += (0 - alpha) * alphaDecay

		for i := range bodies {
			b := &bodies[i]
			if b.held {
				continue
			}
			x, y := b.n.X, b.n.Y
			if canvasPull != 0 {
				b.vx += (canvas.X - x) * canvasPull * alpha
				b.vy += (canvas.Y - y) * canvasPull * alpha
			}
			if parent != nil {
				b.vx += (parent.X - x) * ParentPullX * alpha
				b.vy += (parent.Y - y) * ParentPullY * alpha
			}
			b.vx += (b.target.X - x) * b.pullX * alpha
			b.vy += (b.target.Y - y) * b.pullY * alpha
		}

		for k := 0; k < CollideIterations; k++ {
			collide(bodies, sw, maxRadius)
		}

		for i := range bodies {
			b := &bodies[i]
			if b.held {
				continue
			}
			b.vx *= 1 - VelocityDecay
			b.vy *= 1 - VelocityDecay
			b.n.X += b.vx
			b.n.Y += b.vy
			constrain(b.n, parent, w, h)
		}
	}
}

// constrain keeps n on the canvas and, with a parent, inside it.
func constrain(n *circle.Node, parent *circle.Node, w, h float64) {
	n.X = circle.KeepBetween(n.R, n.X, w)
	n.Y = circle.KeepBetween(n.R, n.Y, h)
	if parent == nil {
		return
	}
	p := circle.KeepInside(n.Center(), n.R, parent.Center(), parent.R, n.IsLeaf(), n.R*LeafBulge)
	n.X, n.Y = p.X, p.Y
}

// collide applies one collision sub-pass. Each overlapping pair is pushed
// apart along the line between their predicted centers, the smaller circle
// taking the larger share of the correction. A held body takes none.
func collide(bodies []body, sw *sweep, maxRadius float64) {
	sw.reset(bodies)
	for i := range bodies {
		bi := &bodies[i]
		ri := bi.radius
		ri2 := ri * ri
		xi := bi.n.X + bi.vx
		yi := bi.n.Y + bi.vy
		sw.neighbors(i, ri+maxRadius, func(j int) {
			if j <= i {
				return
			}
			bj := &bodies[j]
			if bi.held && bj.held {
				return
			}
			rj := bj.radius
			rr := ri + rj
			x := xi - bj.n.X - bj.vx
			y := yi - bj.n.Y - bj.vy
			l := x*x + y*y
			if l >= rr*rr {
				return
			}
			if x == 0 {
				x = jiggle(i, j)
				l += x * x
			}
			if y == 0 {
				y = jiggle(j, i)
				l += y * y
			}
			d := math.Sqrt(l)
			f := (rr - d) / d * CollideStrength
			x *= f
			y *= f
			share := rj * rj / (ri2 + rj*rj)
			switch {
			case bi.held:
				share = 0
			case bj.held:
				share = 1
			}
			bi.vx += x * share
			bi.vy += y * share
			bj.vx -= x * (1 - share)
			bj.vy -= y * (1 - share)
		})
	}
}

// jiggle separates exactly coincident centers without randomness.
func jiggle(i, j int) float64 {
	if (i+j)%2 == 0 {
		return 1e-6
	}
	return -1e-6
}

// sweep finds candidate pairs by sorting predicted x coordinates.
type sweep struct {
	order []int
	rank  []int
	xs    []float64
}

func newSweep(n int) *sweep {
	return &sweep{order: make([]int, n), rank: make([]int, n), xs: make([]float64, n)}
}

func (s *sweep) reset(bodies []body) {
	for i := range bodies {
		s.order[i] = i
		s.xs[i] = bodies[i].n.X + bodies[i].vx
	}
	sort.SliceStable(s.order, func(a, b int) bool { return s.xs[s.order[a]] < s.xs[s.order[b]] })
	for k, i := range s.order {
		s.rank[i] = k
	}
}

// neighbors calls fn for every body whose predicted x lies within reach of
// body i's.
func (s *sweep) neighbors(i int, reach float64, fn func(j int)) {
	x := s.xs[i]
	for k := s.rank[i] - 1; k >= 0 && x-s.xs[s.order[k]] <= reach; k-- {
		fn(s.order[k])
	}
	for k := s.rank[i] + 1; k < len(s.order) && s.xs[s.order[k]]-x <= reach; k++ {
		fn(s.order[k])
	}
}
