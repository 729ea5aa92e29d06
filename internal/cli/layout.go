package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/treepack/pkg/core/history"
	"github.com/matzehuels/treepack/pkg/pipeline"
	"github.com/matzehuels/treepack/pkg/scene"
)

// layoutCommand creates the layout command for computing a stabilized
// layout without rendering it.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		output  string
		noCache bool
		sf      sessionFlags
	)
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "layout [dir|tree.json]",
		Short: "Compute a stabilized layout",
		Long: `Compute a stabilized layout of a directory or tree file.

The layout starts from the positions stored in the session for this input,
so unchanged files keep their place between runs. The result is written as
layout.json, which 'visualize' renders without laying out again.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := setInput(&opts, args[0]); err != nil {
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
			return c.runLayout(cmd.Context(), args[0], opts, output, noCache)
		},
	}

	addSourceFlags(cmd, &opts)
	addLayoutFlags(cmd, &opts)
	addSessionFlags(cmd, &opts, &sf)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.layout.json)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "recompute even if cached")

	return cmd
}

func (c *CLI) runLayout(ctx context.Context, input string, opts pipeline.Options, output string, noCache bool) error {
	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts.Logger = c.Logger
	if err := opts.ValidateForScan(); err != nil {
		return err
	}

	spinner := newSpinner(ctx, "Scanning...")
	spinner.Start()

	root, err := runner.Scan(ctx, opts)
	if err != nil {
		spinner.StopWithError("Scan failed")
		return fmt.Errorf("scan: %w", err)
	}

	spinner.SetMessage("Packing circles...")
	sess, found, err := runner.LoadSession(ctx, opts.SessionID, opts.SessionTTL)
	if err != nil {
		spinner.StopWithError("Session unavailable")
		return err
	}
	prev := sess.Context
	if opts.Reset {
		prev = history.Empty()
	}

	l, next, cacheHit, err := runner.LayoutWithCacheInfo(ctx, root, prev, opts)
	if err != nil {
		spinner.StopWithError("Layout failed")
		return fmt.Errorf("compute layout: %w", err)
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	if opts.SessionID != "" {
		sess.Source = input
		sess.Update(next)
		if err := runner.SaveSession(ctx, sess); err != nil {
			return fmt.Errorf("save session: %w", err)
		}
	}

	outputPath := output
	if outputPath == "" {
		outputPath = basePath("", input) + ".layout.json"
	}
	if err := scene.WriteLayoutFile(l, outputPath); err != nil {
		return fmt.Errorf("write output %s: %w", outputPath, err)
	}

	printSuccess("Layout complete")
	printFile(outputPath)
	printStats(l.Total, len(l.Nodes), found && !opts.Reset, cacheHit)
	printNewline()
	printNextStep("Render", appName+" visualize "+outputPath)
	return nil
}
