package pipeline

import (
	"context"
	"fmt"

	"github.com/matzehuels/treepack/pkg/render/sink"
	"github.com/matzehuels/treepack/pkg/scene"
)

// RenderFromLayout generates output artifacts in the requested formats.
func RenderFromLayout(ctx context.Context, l scene.Layout, opts Options) (map[string][]byte, error) {
	artifacts := make(map[string][]byte, len(opts.Formats))
	sinkOpts := opts.SinkOptions()
	for _, format := range opts.Formats {
		data, err := sink.Render(ctx, format, l, sinkOpts...)
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}
	return artifacts, nil
}
