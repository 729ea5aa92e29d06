package tree

import (
	"strings"
	"time"
)

// Node is one entry of a raw file tree.
type Node struct {
	Name     string   `json:"name" yaml:"name"`
	Path     string   `json:"path" yaml:"path"`
	Size     int64    `json:"size,omitempty" yaml:"size,omitempty"`
	Children []*Node  `json:"children,omitempty" yaml:"children,omitempty"`
	History  *History `json:"history,omitempty" yaml:"history,omitempty"`
}

// History is the commit metadata attached to a file.
type History struct {
	Count      int       `json:"count" yaml:"count"`
	LastChange time.Time `json:"last_change,omitempty" yaml:"last_change,omitempty"`
}

// IsLeaf reports whether n has no children.
func (n *Node) IsLeaf() bool { return len(n.Children) == 0 }

// CommitCount returns the number of commits touching n, or 0 without history.
func (n *Node) CommitCount() int {
	if n == nil || n.History == nil {
		return 0
	}
	return n.History.Count
}

// LastChange returns the last commit date of n, or the zero time.
func (n *Node) LastChange() time.Time {
	if n == nil || n.History == nil {
		return time.Time{}
	}
	return n.History.LastChange
}

// Walk visits n and its descendants in depth-first pre-order.
// Returning false from fn skips the children of the visited node.
func (n *Node) Walk(fn func(*Node) bool) {
	if n == nil {
		return
	}
	if !fn(n) {
		return
	}
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// Count returns the number of nodes in the tree rooted at n.
func (n *Node) Count() int {
	count := 0
	n.Walk(func(*Node) bool {
		count++
		return true
	})
	return count
}

// Leaves returns every leaf under n in depth-first order.
func (n *Node) Leaves() []*Node {
	var leaves []*Node
	n.Walk(func(c *Node) bool {
		if c.IsLeaf() {
			leaves = append(leaves, c)
		}
		return true
	})
	return leaves
}

// Find returns the node with the given path, or nil.
func (n *Node) Find(path string) *Node {
	var found *Node
	n.Walk(func(c *Node) bool {
		if found != nil {
			return false
		}
		if c.Path == path {
			found = c
			return false
		}
		return true
	})
	return found
}

// Clone returns a deep copy of n.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	out := *n
	if n.History != nil {
		h := *n.History
		out.History = &h
	}
	if n.Children != nil {
		out.Children = make([]*Node, len(n.Children))
		for i, c := range n.Children {
			out.Children[i] = c.Clone()
		}
	}
	return &out
}

// ApplyHistory attaches commit metadata to every leaf whose path is a key
// of byPath. Leaves without an entry keep their existing history.
func (n *Node) ApplyHistory(byPath map[string]History) {
	n.Walk(func(c *Node) bool {
		if !c.IsLeaf() {
			return true
		}
		if h, ok := byPath[c.Path]; ok {
			h := h
			c.History = &h
		}
		return true
	})
}

// ParentPath returns the path of the folder containing path ("" for the root
// level).
func ParentPath(path string) string {
	i := strings.LastIndex(path, "/")
	if i < 0 {
		return ""
	}
	return path[:i]
}
