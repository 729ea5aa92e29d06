package pipeline

import (
	"context"

	"github.com/matzehuels/treepack/pkg/source/local"
	"github.com/matzehuels/treepack/pkg/tree"
)

// Scan reads the file tree named by opts, either by walking opts.Root or by
// decoding opts.TreeFile.
func Scan(ctx context.Context, opts Options) (*tree.Node, error) {
	if opts.TreeFile != "" {
		return tree.ReadFile(opts.TreeFile)
	}
	return local.Scan(ctx, local.Options{
		Root:             opts.Root,
		Exclude:          opts.Exclude,
		RespectGitignore: opts.RespectGitignore,
		History:          opts.History,
	})
}

// source names the input for logs and sessions.
func (o *Options) source() string {
	if o.TreeFile != "" {
		return o.TreeFile
	}
	return o.Root
}
