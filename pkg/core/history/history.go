// Package history holds the layout context threaded between successive layout
// passes: the last known center and radius of every path and the sibling
// order it was packed in.
//
// A [Context] is a plain value. Layout passes read the previous context and
// return a brand-new one; nothing in this package mutates a context that has
// been handed to a caller.
package history

import (
	"sort"
	"strings"

	"github.com/matzehuels/treepack/pkg/core/circle"
)

// Context maps stable node paths to their previous layout state.
type Context struct {
	Positions map[string]circle.Point `json:"positions" bson:"positions"`
	Orders    map[string]float64      `json:"orders" bson:"orders"`
	// Radii is absent from contexts written before radii were recorded.
	Radii map[string]float64 `json:"radii" bson:"radii"`
}

// Empty returns a context with no history.
func Empty() Context {
	return Context{
		Positions: map[string]circle.Point{},
		Orders:    map[string]float64{},
		Radii:     map[string]float64{},
	}
}

// Position returns the cached center for path.
func (c Context) Position(path string) (circle.Point, bool) {
	p, ok := c.Positions[path]
	return p, ok
}

// Order returns the cached sort order for path.
func (c Context) Order(path string) (float64, bool) {
	o, ok := c.Orders[path]
	return o, ok
}

// Radius returns the cached radius for path.
func (c Context) Radius(path string) (float64, bool) {
	r, ok := c.Radii[path]
	return r, ok
}

// Len returns the number of positioned paths.
func (c Context) Len() int { return len(c.Positions) }

// IsEmpty reports whether c carries no history at all.
func (c Context) IsEmpty() bool { return len(c.Positions) == 0 && len(c.Orders) == 0 }

// Clone returns a deep copy of c.
func (c Context) Clone() Context {
	out := Context{
		Positions: make(map[string]circle.Point, len(c.Positions)),
		Orders:    make(map[string]float64, len(c.Orders)),
		Radii:     make(map[string]float64, len(c.Radii)),
	}
	for k, v := range c.Positions {
		out.Positions[k] = v
	}
	for k, v := range c.Orders {
		out.Orders[k] = v
	}
	for k, v := range c.Radii {
		out.Radii[k] = v
	}
	return out
}

// Paths returns the positioned paths in lexical order.
func (c Context) Paths() []string {
	paths := make([]string, 0, len(c.Positions))
	for p := range c.Positions {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Summary describes a context without exposing every entry.
type Summary struct {
	Positions int      `json:"positions"`
	Orders    int      `json:"orders"`
	TopLevel  []string `json:"top_level,omitempty"`
}

// Summarize reports entry counts and the cached top-level paths.
func (c Context) Summarize() Summary {
	s := Summary{Positions: len(c.Positions), Orders: len(c.Orders)}
	for _, p := range c.Paths() {
		if p != "" && !strings.Contains(p, "/") {
			s.TopLevel = append(s.TopLevel, p)
		}
	}
	return s
}
