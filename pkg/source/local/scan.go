package local

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/matzehuels/treepack/pkg/tree"
)

// Options configures a scan.
type Options struct {
	// Root is the directory to scan.
	Root string
	// Exclude lists doublestar globs to skip.
	Exclude []string
	// RespectGitignore skips paths matched by the root .gitignore.
	RespectGitignore bool
	// History attaches per-file commit counts and dates from git.
	History bool
}

// Scan walks opts.Root into a tree. The root node has an empty path and is
// named after the directory; children are sorted by name. Directories have
// size 0 and an empty directory is indistinguishable from an empty file.
// Symlinks are not followed.
func Scan(ctx context.Context, opts Options) (*tree.Node, error) {
	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", opts.Root, err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", opts.Root)
	}

	m, err := NewMatcher(root, opts.Exclude, opts.RespectGitignore)
	if err != nil {
		return nil, err
	}

	out := &tree.Node{Name: filepath.Base(root)}
	if err := scanDir(ctx, m, root, out); err != nil {
		return nil, err
	}

	if opts.History {
		hist, err := History(ctx, root)
		if err != nil {
			return nil, err
		}
		out.ApplyHistory(hist)
	}
	return out, nil
}

func scanDir(ctx context.Context, m *Matcher, abs string, dir *tree.Node) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		return fmt.Errorf("read %s: %w", abs, err)
	}
	for _, e := range entries {
		if e.Type()&fs.ModeSymlink != 0 {
			continue
		}
		rel := e.Name()
		if dir.Path != "" {
			rel = dir.Path + "/" + e.Name()
		}
		if m.Ignored(rel, e.IsDir()) {
			continue
		}

		child := &tree.Node{Name: e.Name(), Path: rel}
		if e.IsDir() {
			if err := scanDir(ctx, m, filepath.Join(abs, e.Name()), child); err != nil {
				return err
			}
		} else {
			info, err := e.Info()
			if err != nil {
				// removed between ReadDir and Info
				continue
			}
			child.Size = info.Size()
		}
		dir.Children = append(dir.Children, child)
	}
	return nil
}
