// Package tree defines the raw file tree consumed by the layout engine.
//
// A [Node] is a file or folder with a byte size, an identity path that must
// stay stable across successive scans of the same repository, and optional
// per-file commit [History]. Folders are nodes with children; a node with no
// children is a leaf. The root of a tree has an empty path.
//
// Trees are usually produced by a source provider (see
// [github.com/matzehuels/treepack/pkg/source/local]) and exchanged as JSON or
// YAML:
//
//	{
//	  "name": "repo",
//	  "path": "",
//	  "children": [
//	    {"name": "main.go", "path": "main.go", "size": 1200,
//	     "history": {"count": 14, "last_change": "2024-05-01T10:00:00Z"}}
//	  ]
//	}
//
// The package also defines [Change], the per-path highlight entries a
// renderer overlays on a finished layout.
package tree
