package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/treepack/pkg/pipeline"
	"github.com/matzehuels/treepack/pkg/source/local"
	"github.com/matzehuels/treepack/pkg/tree"
)

// watchCommand creates the watch command, which re-renders a directory on
// every change and highlights what changed.
func (c *CLI) watchCommand() *cobra.Command {
	var (
		rf          renderFlags
		sf          sessionFlags
		debounce    time.Duration
		noHighlight bool
	)
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "watch [dir]",
		Short: "Re-render a directory whenever it changes",
		Long: `Watch a directory and re-render it after every burst of changes.

Every pass starts from the previous one, so the picture only moves where
files were added, removed or resized. Changed files are highlighted until
the next burst. Press Ctrl+C to stop.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Root = "."
			if len(args) == 1 {
				opts.Root = args[0]
			}
			if err := rf.apply(&opts); err != nil {
				return err
			}
			cfg, err := c.Config()
			if err != nil {
				return err
			}
			applyConfig(cmd, &opts, cfg)
			if err := resolveSession(&opts, sf.noSession); err != nil {
				return err
			}
			return c.runWatch(cmd.Context(), opts, rf.output, debounce, !noHighlight)
		},
	}

	addSourceFlags(cmd, &opts)
	addLayoutFlags(cmd, &opts)
	addSessionFlags(cmd, &opts, &sf)
	addRenderFlags(cmd, &opts, &rf)
	cmd.Flags().DurationVar(&debounce, "debounce", local.DefaultDebounce, "quiet period before re-rendering")
	cmd.Flags().BoolVar(&noHighlight, "no-highlight", false, "do not highlight changed files")

	return cmd
}

func (c *CLI) runWatch(ctx context.Context, opts pipeline.Options, output string, debounce time.Duration, highlight bool) error {
	runner, err := c.newRunner(ctx, false)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()
	opts.Logger = c.Logger

	// Our own output lands in the watched tree; keep it out of both the scan
	// and the event stream.
	outputs := outputPaths(opts.Formats, opts.Root, output)
	for _, p := range outputs {
		opts.Exclude = append(opts.Exclude, filepath.Base(p))
	}

	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return err
	}
	matcher, err := local.NewMatcher(root, opts.Exclude, opts.RespectGitignore)
	if err != nil {
		return err
	}
	watcher, err := local.NewWatcher(root, matcher, debounce, c.Logger)
	if err != nil {
		return fmt.Errorf("watch %s: %w", opts.Root, err)
	}
	defer watcher.Close()
	go watcher.Run(ctx)

	pass := func(changes []tree.Change) error {
		passOpts := opts
		if highlight {
			passOpts.Changes = append(append([]tree.Change(nil), opts.Changes...), changes...)
		}
		result, err := runner.Execute(ctx, passOpts)
		if err != nil {
			return err
		}
		if _, err := writeArtifacts(artifactWriteParams{
			artifacts: result.Artifacts,
			formats:   passOpts.Formats,
			input:     opts.Root,
			output:    output,
		}); err != nil {
			return err
		}
		printSuccess("Pass %d  %s", result.Session.Passes, summarizeChanges(changes))
		printStats(result.Stats.NodeCount, result.Stats.Placed, result.CacheInfo.SessionHit, result.CacheInfo.LayoutHit)
		return nil
	}

	if err := pass(nil); err != nil {
		return err
	}
	opts.Reset = false
	for _, p := range outputs {
		printFile(p)
	}
	printInfo("Watching %s (Ctrl+C to stop)", opts.Root)

	for {
		select {
		case <-ctx.Done():
			printNewline()
			return nil
		case batch, ok := <-watcher.Events():
			if !ok {
				return nil
			}
			c.Logger.Debug("changes", "count", len(batch))
			if err := pass(batch); err != nil {
				printError("%v", err)
			}
		}
	}
}

// outputPaths lists the files writeArtifacts will produce.
func outputPaths(formats []string, input, output string) []string {
	if len(formats) == 1 && output != "" {
		return []string{output}
	}
	base := basePath(output, input)
	paths := make([]string, len(formats))
	for i, f := range formats {
		paths[i] = base + "." + f
	}
	return paths
}
