package tree

import (
	"fmt"
	"strings"
)

// ChangeKind classifies how a file changed in a commit.
type ChangeKind string

// Change kinds produced by commit diffing.
const (
	ChangeDelete ChangeKind = "DELETE"
	ChangeCreate ChangeKind = "CREATE"
	ChangeModify ChangeKind = "MODIFY"
)

// Change marks a path for highlighting.
type Change struct {
	Path string     `json:"path" yaml:"path"`
	Kind ChangeKind `json:"type" yaml:"type"`
}

// ParseChangeKind parses a change kind case-insensitively.
func ParseChangeKind(s string) (ChangeKind, error) {
	switch k := ChangeKind(strings.ToUpper(strings.TrimSpace(s))); k {
	case ChangeDelete, ChangeCreate, ChangeModify:
		return k, nil
	}
	return "", fmt.Errorf("unknown change kind %q", s)
}

// ChangeIndex maps normalized paths to their change kind.
type ChangeIndex map[string]ChangeKind

// IndexChanges builds a lookup from a change list. Windows separators are
// normalized to forward slashes so that diffs from either platform match
// tree paths. Later entries win.
func IndexChanges(changes []Change) ChangeIndex {
	idx := make(ChangeIndex, len(changes))
	for _, c := range changes {
		idx[normalizePath(c.Path)] = c.Kind
	}
	return idx
}

// Lookup returns the change kind for path, if any.
func (idx ChangeIndex) Lookup(path string) (ChangeKind, bool) {
	k, ok := idx[normalizePath(path)]
	return k, ok
}

func normalizePath(p string) string {
	return strings.ReplaceAll(p, `\`, "/")
}
