package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/treepack/pkg/pipeline"
	"github.com/matzehuels/treepack/pkg/tree"
)

// renderCommand creates the render command: scan, lay out and render in
// one step.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		rf      renderFlags
		sf      sessionFlags
		noCache bool
		commit  string
	)
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "render [dir|tree.json]",
		Short: "Scan, lay out and render in one step",
		Long: `Scan a directory (or read a tree file), lay it out against the stored
context and render it.

Examples:
  treepack render .
  treepack render . -f svg,png -o repo
  treepack render . --history -c recency
  treepack render . --commit HEAD      # highlight what HEAD changed`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := setInput(&opts, args[0]); err != nil {
				return err
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
			if commit != "" {
				changes, err := commitChanges(cmd.Context(), opts, commit)
				if err != nil {
					return err
				}
				opts.Changes = append(opts.Changes, changes...)
			}
			return c.runRender(cmd.Context(), args[0], opts, rf.output, noCache)
		},
	}

	addSourceFlags(cmd, &opts)
	addLayoutFlags(cmd, &opts)
	addSessionFlags(cmd, &opts, &sf)
	addRenderFlags(cmd, &opts, &rf)
	cmd.Flags().StringVar(&commit, "commit", "", "highlight the files changed by this git revision")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "recompute even if cached")

	return cmd
}

func (c *CLI) runRender(ctx context.Context, input string, opts pipeline.Options, output string, noCache bool) error {
	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()
	opts.Logger = c.Logger

	spinner := newSpinner(ctx, "Rendering "+input+"...")
	spinner.Start()

	result, err := runner.Execute(ctx, opts)
	if err != nil {
		spinner.StopWithError("Render failed")
		return err
	}
	spinner.Stop()

	paths, err := writeArtifacts(artifactWriteParams{
		artifacts: result.Artifacts,
		formats:   opts.Formats,
		input:     input,
		output:    output,
	})
	if err != nil {
		return err
	}

	printSuccess("Render complete")
	for _, p := range paths {
		printFile(p)
	}
	printStats(result.Stats.NodeCount, result.Stats.Placed, result.CacheInfo.SessionHit && !opts.Reset, result.CacheInfo.LayoutHit)
	if len(opts.Changes) > 0 {
		printDetail("highlighted %s", summarizeChanges(opts.Changes))
	}
	return nil
}

// summarizeChanges renders a change list as colored per-kind counts.
func summarizeChanges(changes []tree.Change) string {
	var created, modified, deleted int
	for _, ch := range changes {
		switch ch.Kind {
		case tree.ChangeCreate:
			created++
		case tree.ChangeModify:
			modified++
		case tree.ChangeDelete:
			deleted++
		}
	}
	return changeSummary(created, modified, deleted)
}

// trimLayoutSuffix maps "repo.layout.json" to "repo".
func trimLayoutSuffix(path string) string {
	return strings.TrimSuffix(path, ".layout.json")
}
