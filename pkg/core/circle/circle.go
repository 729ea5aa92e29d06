// Package circle defines the geometry shared by the packing and reflow stages:
// points, circles and the positioned layout tree.
package circle

import "math"

// Kind is the closed set of node categories in an annotated tree.
type Kind int

const (
	// Leaf is a file.
	Leaf Kind = iota
	// Folder is a directory.
	Folder
	// SyntheticGroup is the container that gathers loose files at the root.
	SyntheticGroup
)

func (k Kind) String() string {
	switch k {
	case Folder:
		return "folder"
	case SyntheticGroup:
		return "group"
	default:
		return "leaf"
	}
}

// ParseKind is the inverse of Kind.String. Unknown values map to Leaf.
func ParseKind(s string) Kind {
	switch s {
	case "folder":
		return Folder
	case "group":
		return SyntheticGroup
	}
	return Leaf
}

// Point is a 2D coordinate.
type Point struct {
	X float64 `json:"x" bson:"x"`
	Y float64 `json:"y" bson:"y"`
}

// Add returns p + q.
func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y} }

// Sub returns p - q.
func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y} }

// Dist returns the Euclidean distance between p and q.
func (p Point) Dist(q Point) float64 { return math.Hypot(p.X-q.X, p.Y-q.Y) }

// Node is a positioned circle in the layout tree.
type Node struct {
	Path      string
	Name      string
	Label     string
	Extension string
	Color     string
	Kind      Kind
	Value     float64
	// Order is the sort priority the node was packed with.
	Order float64
	Depth int
	R     float64
	X, Y  float64

	Parent   *Node
	Children []*Node
}

// Center returns the node's center.
func (n *Node) Center() Point { return Point{n.X, n.Y} }

// IsLeaf reports whether n has no children.
func (n *Node) IsLeaf() bool { return len(n.Children) == 0 }

// Translate moves n and all of its descendants by d.
func (n *Node) Translate(d Point) {
	if d.X == 0 && d.Y == 0 {
		return
	}
	n.Each(func(c *Node) {
		c.X += d.X
		c.Y += d.Y
	})
}

// Each visits n and its descendants depth-first, parents before children.
func (n *Node) Each(fn func(*Node)) {
	if n == nil {
		return
	}
	fn(n)
	for _, c := range n.Children {
		c.Each(fn)
	}
}

// Descendants returns every node under n (n included) in depth-first order.
func (n *Node) Descendants() []*Node {
	var out []*Node
	n.Each(func(c *Node) { out = append(out, c) })
	return out
}

// MaxDepth returns the deepest depth found under n.
func (n *Node) MaxDepth() int {
	max := 0
	n.Each(func(c *Node) {
		if c.Depth > max {
			max = c.Depth
		}
	})
	return max
}

// Clamp limits v to [lo, hi]. When the interval is empty (lo > hi) the
// midpoint is returned.
func Clamp(v, lo, hi float64) float64 {
	if lo > hi {
		return (lo + hi) / 2
	}
	return math.Max(lo, math.Min(hi, v))
}

// KeepBetween clamps a coordinate so that a circle of radius r stays within
// [0, extent].
func KeepBetween(r, v, extent float64) float64 {
	return Clamp(v, r, extent-r)
}

// KeepInside pulls the circle (c, r) back inside the circle (pc, pr). With
// soft set, the child may bulge past the border by slack before being
// corrected. If r exceeds pr, c is placed at pc.
func KeepInside(c Point, r float64, pc Point, pr float64, soft bool, slack float64) Point {
	limit := pr - r
	if soft {
		limit += slack
	}
	if limit <= 0 {
		return pc
	}
	d := c.Dist(pc)
	if d <= limit {
		return c
	}
	scale := limit / d
	return Point{
		X: pc.X + (c.X-pc.X)*scale,
		Y: pc.Y + (c.Y-pc.Y)*scale,
	}
}
