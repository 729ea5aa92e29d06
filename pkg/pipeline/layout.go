package pipeline

import (
	"github.com/matzehuels/treepack/pkg/core/annotate"
	"github.com/matzehuels/treepack/pkg/core/history"
	"github.com/matzehuels/treepack/pkg/core/layout"
	"github.com/matzehuels/treepack/pkg/scene"
	"github.com/matzehuels/treepack/pkg/tree"
)

// ComputeLayout runs one layout pass and flattens it for rendering. The
// returned context replaces prev for the next pass.
func ComputeLayout(root *tree.Node, prev history.Context, opts Options) (scene.Layout, history.Context, error) {
	lopts := opts.LayoutOptions()
	res, err := layout.Compute(root, prev, lopts)
	if err != nil {
		return scene.Layout{}, history.Context{}, err
	}
	legend := annotate.BuildLegend(root, lopts.Encoding)
	return scene.FromResult(res, legend, lopts), res.Context, nil
}

// layoutEntry is the cached form of a layout pass.
type layoutEntry struct {
	Layout  scene.Layout    `json:"layout"`
	Context history.Context `json:"context"`
}
