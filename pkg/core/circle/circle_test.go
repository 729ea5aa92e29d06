package circle

import (
	"math"
	"testing"
)

func TestClamp(t *testing.T) {
	tests := []struct {
		name      string
		v, lo, hi float64
		want      float64
	}{
		{"inside", 5, 0, 10, 5},
		{"below", -1, 0, 10, 0},
		{"above", 11, 0, 10, 10},
		{"empty interval", 3, 10, 0, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Clamp(tt.v, tt.lo, tt.hi); got != tt.want {
				t.Errorf("Clamp(%v, %v, %v) = %v, want %v", tt.v, tt.lo, tt.hi, got, tt.want)
			}
		})
	}
}

func TestKeepBetween(t *testing.T) {
	if got := KeepBetween(10, 5, 100); got != 10 {
		t.Errorf("got %v, want 10", got)
	}
	if got := KeepBetween(10, 95, 100); got != 90 {
		t.Errorf("got %v, want 90", got)
	}
	// Circle larger than the canvas is centered.
	if got := KeepBetween(80, 0, 100); got != 50 {
		t.Errorf("got %v, want 50", got)
	}
}

func TestKeepInside(t *testing.T) {
	pc := Point{0, 0}

	got := KeepInside(Point{3, 0}, 1, pc, 10, false, 0)
	if got != (Point{3, 0}) {
		t.Errorf("inside point moved to %v", got)
	}

	got = KeepInside(Point{20, 0}, 2, pc, 10, false, 0)
	if math.Abs(got.X-8) > 1e-9 || got.Y != 0 {
		t.Errorf("hard clamp = %v, want (8,0)", got)
	}

	got = KeepInside(Point{20, 0}, 2, pc, 10, true, 1.5)
	if math.Abs(got.X-9.5) > 1e-9 {
		t.Errorf("soft clamp = %v, want (9.5,0)", got)
	}

	got = KeepInside(Point{5, 5}, 12, pc, 10, false, 0)
	if got != pc {
		t.Errorf("oversized child = %v, want parent center", got)
	}
}

func TestNodeTranslate(t *testing.T) {
	child := &Node{Path: "a/b", X: 1, Y: 1}
	root := &Node{Path: "a", X: 0, Y: 0, Children: []*Node{child}}
	child.Parent = root

	root.Translate(Point{2, 3})
	if root.X != 2 || root.Y != 3 || child.X != 3 || child.Y != 4 {
		t.Errorf("translate moved root to (%v,%v) and child to (%v,%v)", root.X, root.Y, child.X, child.Y)
	}
	if n := len(root.Descendants()); n != 2 {
		t.Errorf("Descendants() = %d, want 2", n)
	}
}

func TestKindString(t *testing.T) {
	for _, k := range []Kind{Leaf, Folder, SyntheticGroup} {
		if ParseKind(k.String()) != k {
			t.Errorf("ParseKind(%q) != %v", k.String(), k)
		}
	}
}
