package cli

import (
	"context"
	"fmt"
	"io"
	"slices"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/treepack/pkg/pipeline"
)

// exploreCommand creates the interactive explorer.
func (c *CLI) exploreCommand() *cobra.Command {
	var (
		rf renderFlags
		sf sessionFlags
	)
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "explore [dir|tree.json]",
		Short: "Explore a layout interactively",
		Long: `Explore a layout in the terminal.

Change the depth and color encoding and watch the drawn node count react.
Every change is a new layout pass against the same context, so what you
save stays consistent with earlier renders. Press s to write the current
view, q to quit.`,
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
			return c.runExplore(cmd.Context(), args[0], opts, rf.output)
		},
	}

	addSourceFlags(cmd, &opts)
	addLayoutFlags(cmd, &opts)
	addSessionFlags(cmd, &opts, &sf)
	addRenderFlags(cmd, &opts, &rf)

	return cmd
}

func (c *CLI) runExplore(ctx context.Context, input string, opts pipeline.Options, output string) error {
	runner, err := c.newRunner(ctx, false)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	// The TUI owns the terminal; keep log lines out of it.
	quiet := newLogger(io.Discard, LogInfo)
	runner.Logger = quiet
	opts.Logger = quiet

	if err := opts.ValidateAndSetDefaults(); err != nil {
		return err
	}
	root, err := runner.Scan(ctx, opts)
	if err != nil {
		return fmt.Errorf("scan: %w", err)
	}
	sess, _, err := runner.LoadSession(ctx, opts.SessionID, opts.SessionTTL)
	if err != nil {
		return err
	}

	m := newExploreModel(ctx, runner, root, sess, opts)
	m.input = input
	m.output = output

	final, err := tea.NewProgram(m, tea.WithContext(ctx), tea.WithAltScreen()).Run()
	if err != nil {
		return err
	}
	if em, ok := final.(exploreModel); ok {
		for _, p := range em.saved {
			printFile(p)
		}
		if em.err != nil {
			return em.err
		}
	}
	return nil
}

// nextEncoding cycles through the color encodings.
func nextEncoding(current string) string {
	i := slices.Index(encodingNames, current)
	return encodingNames[(i+1)%len(encodingNames)]
}
