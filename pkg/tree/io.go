package tree

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format is a tree serialization format.
type Format string

// Supported tree formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath infers the format from a file extension, defaulting to JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatJSON
}

// =============================================================================
// Tree Serialization API
// =============================================================================

// Marshal encodes a tree as indented JSON.
func Marshal(n *Node) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(n, &buf, FormatJSON); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes a JSON tree.
func Unmarshal(data []byte) (*Node, error) {
	return Read(bytes.NewReader(data), FormatJSON)
}

// Write encodes a tree to w in the given format.
func Write(n *Node, w io.Writer, format Format) error {
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(n); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(n); err != nil {
			return fmt.Errorf("encode: %w", err)
		}
		return nil
	}
}

// Read decodes a tree from r in the given format.
// Missing paths are filled in from names so hand-written inputs work, and
// null children are dropped.
func Read(r io.Reader, format Format) (*Node, error) {
	var root Node
	switch format {
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&root); err != nil {
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
	default:
		if err := json.NewDecoder(r).Decode(&root); err != nil {
			return nil, fmt.Errorf("decode: %w", err)
		}
	}
	fillPaths(&root, "", true)
	return &root, nil
}

// WriteFile writes a tree to path, choosing the format from its extension.
func WriteFile(n *Node, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return Write(n, f, FormatFromPath(path))
}

// ReadFile reads a tree from path, choosing the format from its extension.
func ReadFile(path string) (*Node, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Read(f, FormatFromPath(path))
}

func fillPaths(n *Node, parent string, isRoot bool) {
	if n.Path == "" && !isRoot {
		if parent == "" {
			n.Path = n.Name
		} else {
			n.Path = parent + "/" + n.Name
		}
	}
	kept := n.Children[:0]
	for _, c := range n.Children {
		if c == nil {
			continue
		}
		fillPaths(c, n.Path, false)
		kept = append(kept, c)
	}
	if len(kept) == 0 {
		n.Children = nil
	} else {
		n.Children = kept
	}
}
