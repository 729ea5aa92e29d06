package pack

import (
	"math"

	"github.com/matzehuels/treepack/pkg/core/circle"
)

// Circle is a bare circle.
type Circle struct {
	X, Y, R float64
}

func asCircle(n *circle.Node) Circle { return Circle{n.X, n.Y, n.R} }

// Enclose returns the smallest circle enclosing all of circles, found with
// the move-to-front variant of Welzl's algorithm. Input order is used as is,
// so the result is deterministic.
func Enclose(circles []*circle.Node) Circle {
	if len(circles) == 0 {
		return Circle{}
	}
	cs := make([]Circle, len(circles))
	for i, n := range circles {
		cs[i] = asCircle(n)
	}

	var (
		basis    []Circle
		e        Circle
		have     bool
		restarts int
	)
	limit := 4*len(cs)*len(cs) + 16
	for i := 0; i < len(cs); {
		p := cs[i]
		if have && enclosesWeak(e, p) {
			i++
			continue
		}
		next, ok := extendBasis(basis, p)
		if restarts++; !ok || restarts > limit {
			return boundingCircle(cs)
		}
		basis = next
		e = encloseBasis(basis)
		if math.IsNaN(e.X) || math.IsNaN(e.Y) || math.IsNaN(e.R) {
			return boundingCircle(cs)
		}
		have = true
		i = 0
	}
	return e
}

func extendBasis(basis []Circle, p Circle) ([]Circle, bool) {
	if enclosesWeakAll(p, basis) {
		return []Circle{p}, true
	}
	for i := range basis {
		if enclosesNot(p, basis[i]) && enclosesWeakAll(encloseBasis2(basis[i], p), basis) {
			return []Circle{basis[i], p}, true
		}
	}
	for i := 0; i < len(basis)-1; i++ {
		for j := i + 1; j < len(basis); j++ {
			if enclosesNot(encloseBasis2(basis[i], basis[j]), p) &&
				enclosesNot(encloseBasis2(basis[i], p), basis[j]) &&
				enclosesNot(encloseBasis2(basis[j], p), basis[i]) &&
				enclosesWeakAll(encloseBasis3(basis[i], basis[j], p), basis) {
				return []Circle{basis[i], basis[j], p}, true
			}
		}
	}
	return nil, false
}

// boundingCircle is a loose enclosure used when floating point error defeats
// the exact construction.
func boundingCircle(cs []Circle) Circle {
	var cx, cy float64
	for _, c := range cs {
		cx += c.X
		cy += c.Y
	}
	cx /= float64(len(cs))
	cy /= float64(len(cs))
	r := 0.0
	for _, c := range cs {
		r = math.Max(r, math.Hypot(c.X-cx, c.Y-cy)+c.R)
	}
	return Circle{cx, cy, r}
}

func enclosesNot(a, b Circle) bool {
	dr := a.R - b.R
	dx, dy := b.X-a.X, b.Y-a.Y
	return dr < 0 || dr*dr < dx*dx+dy*dy
}

func enclosesWeak(a, b Circle) bool {
	dr := a.R - b.R + math.Max(math.Max(a.R, b.R), 1)*1e-9
	dx, dy := b.X-a.X, b.Y-a.Y
	return dr > 0 && dr*dr > dx*dx+dy*dy
}

func enclosesWeakAll(a Circle, basis []Circle) bool {
	for _, b := range basis {
		if !enclosesWeak(a, b) {
			return false
		}
	}
	return true
}

func encloseBasis(basis []Circle) Circle {
	switch len(basis) {
	case 1:
		return basis[0]
	case 2:
		return encloseBasis2(basis[0], basis[1])
	default:
		return encloseBasis3(basis[0], basis[1], basis[2])
	}
}

func encloseBasis2(a, b Circle) Circle {
	x21, y21, r21 := b.X-a.X, b.Y-a.Y, b.R-a.R
	l := math.Sqrt(x21*x21 + y21*y21)
	return Circle{
		X: (a.X + b.X + x21/l*r21) / 2,
		Y: (a.Y + b.Y + y21/l*r21) / 2,
		R: (l + a.R + b.R) / 2,
	}
}

func encloseBasis3(a, b, c Circle) Circle {
	x1, y1, r1 := a.X, a.Y, a.R
	x2, y2, r2 := b.X, b.Y, b.R
	x3, y3, r3 := c.X, c.Y, c.R

	a2, a3 := x1-x2, x1-x3
	b2, b3 := y1-y2, y1-y3
	c2, c3 := r2-r1, r3-r1
	d1 := x1*x1 + y1*y1 - r1*r1
	d2 := d1 - x2*x2 - y2*y2 + r2*r2
	d3 := d1 - x3*x3 - y3*y3 + r3*r3
	ab := a3*b2 - a2*b3
	xa := (b2*d3-b3*d2)/(ab*2) - x1
	xb := (b3*c2 - b2*c3) / ab
	ya := (a3*d2-a2*d3)/(ab*2) - y1
	yb := (a2*c3 - a3*c2) / ab
	A := xb*xb + yb*yb - 1
	B := 2 * (r1 + xa*xb + ya*yb)
	C := xa*xa + ya*ya - r1*r1

	var r float64
	if math.Abs(A) > 1e-6 {
		r = -(B + math.Sqrt(B*B-4*A*C)) / (2 * A)
	} else {
		r = -C / B
	}
	return Circle{X: x1 + xa + xb*r, Y: y1 + ya + yb*r, R: r}
}
