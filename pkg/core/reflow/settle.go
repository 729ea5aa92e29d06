package reflow

import (
	"math"
	"sort"

	"github.com/matzehuels/treepack/pkg/core/circle"
)

const (
	// overlapSlack is the overlap below which siblings count as separated.
	overlapSlack = 1e-7
	// fitSlack is the distance by which a circle may miss its container
	// and still count as inside.
	fitSlack = 1e-6
)

// settle removes residual sibling overlap under n and re-applies the
// canvas or parent constraint, moving subtrees rigidly. It recurses into
// every folder.
//
// Held children stay put while the others make room. If that does not
// resolve the group every child is released, and if that fails too the
// group falls back to its packed arrangement, which is overlap-free and
// contained by construction. At the top level, where no packed arrangement
// fits the canvas, separation wins over the canvas bounds instead.
func (r *reflower) settle(n *circle.Node, top bool) {
	kids := n.Children
	if len(kids) == 0 {
		return
	}
	start := make([]circle.Point, len(kids))
	for i, c := range kids {
		start[i] = c.Center()
	}

	if !r.project(n, top, func(c *circle.Node) bool { return r.held[c] }) && !r.project(n, top, nil) {
		if top {
			spread(kids)
		} else {
			r.repack(n)
		}
	}

	for i, c := range kids {
		d := c.Center().Sub(start[i])
		for _, gc := range c.Children {
			gc.Translate(d)
		}
	}
	for _, c := range kids {
		r.settle(c, false)
	}
}

// project alternates the container clamp with one separation sweep over
// the children of n and reports whether the group came out clean. Children
// for which fixed reports true are neither clamped nor pushed.
func (r *reflower) project(n *circle.Node, top bool, fixed func(*circle.Node) bool) bool {
	for iter := 0; iter < SettleIterations; iter++ {
		for _, c := range n.Children {
			if fixed != nil && fixed(c) {
				continue
			}
			if top {
				c.X = circle.KeepBetween(c.R, c.X, r.opts.Width)
				c.Y = circle.KeepBetween(c.R, c.Y, r.opts.Height)
			} else {
				p := circle.KeepInside(c.Center(), c.R, n.Center(), n.R, c.IsLeaf(), c.R*LeafBulge)
				c.X, c.Y = p.X, p.Y
			}
		}
		if !separate(n.Children, fixed) {
			return true
		}
	}
	return false
}

// repack puts the children of n back where the packing placed them
// relative to n.
func (r *reflower) repack(n *circle.Node) {
	for _, c := range n.Children {
		p := n.Center().Add(r.packed[c])
		c.X, c.Y = p.X, p.Y
	}
}

// spread separates cs with no container at all.
func spread(cs []*circle.Node) {
	for iter := 0; iter < 8*SettleIterations; iter++ {
		if !separate(cs, nil) {
			return
		}
	}
}

// overlaps reports whether a and b overlap by more than overlapSlack.
func overlaps(a, b *circle.Node) bool {
	return a.R+b.R-a.Center().Dist(b.Center()) > overlapSlack
}

// separate pushes overlapping circles apart once and reports whether any
// pair overlapped. A circle for which fixed reports true only moves when
// its partner is fixed as well.
func separate(cs []*circle.Node, fixed func(*circle.Node) bool) bool {
	order := make([]int, len(cs))
	maxR := 0.0
	for i, c := range cs {
		order[i] = i
		maxR = math.Max(maxR, c.R)
	}
	sort.SliceStable(order, func(a, b int) bool { return cs[order[a]].X < cs[order[b]].X })

	moved := false
	for a := 0; a < len(order); a++ {
		ci := cs[order[a]]
		for b := a + 1; b < len(order); b++ {
			cj := cs[order[b]]
			if cj.X-ci.X > ci.R+maxR {
				break
			}
			dx, dy := cj.X-ci.X, cj.Y-ci.Y
			d := math.Hypot(dx, dy)
			overlap := ci.R + cj.R - d
			if overlap <= overlapSlack {
				continue
			}
			moved = true
			if d == 0 {
				dx, dy, d = 1, 0, 1
			}
			push := overlap + overlapSlack
			wi := cj.R * cj.R / (ci.R*ci.R + cj.R*cj.R)
			if fixed != nil {
				fi, fj := fixed(ci), fixed(cj)
				switch {
				case fi && !fj:
					wi = 0
				case fj && !fi:
					wi = 1
				}
			}
			ux, uy := dx/d, dy/d
			ci.X -= ux * push * wi
			ci.Y -= uy * push * wi
			cj.X += ux * push * (1 - wi)
			cj.Y += uy * push * (1 - wi)
		}
	}
	return moved
}
