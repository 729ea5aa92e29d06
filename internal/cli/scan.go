package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/treepack/pkg/pipeline"
	"github.com/matzehuels/treepack/pkg/tree"
)

// scanCommand creates the scan command for writing a directory's tree.
func (c *CLI) scanCommand() *cobra.Command {
	var (
		output string
		format string
	)
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "scan [dir]",
		Short: "Walk a directory and write its file tree",
		Long: `Walk a directory and write its file tree as JSON or YAML.

.git and node_modules are always skipped. The output can be fed to 'layout'
or 'render' in place of a directory, or edited by hand.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Root = "."
			if len(args) == 1 {
				opts.Root = args[0]
			}
			cfg, err := c.Config()
			if err != nil {
				return err
			}
			applyConfig(cmd, &opts, cfg)
			return c.runScan(cmd.Context(), opts, output, format)
		},
	}

	addSourceFlags(cmd, &opts)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().StringVar(&format, "format", "", "json or yaml (default: from the output extension, else json)")

	return cmd
}

func (c *CLI) runScan(ctx context.Context, opts pipeline.Options, output, format string) error {
	prog := newProgress(c.Logger)
	root, err := pipeline.Scan(ctx, opts)
	if err != nil {
		return fmt.Errorf("scan %s: %w", opts.Root, err)
	}
	prog.done("scanned tree", "root", opts.Root, "nodes", root.Count(), "files", len(root.Leaves()))

	f := tree.Format(format)
	if f == "" {
		f = tree.FormatFromPath(output)
	}
	if f != tree.FormatJSON && f != tree.FormatYAML {
		return fmt.Errorf("invalid tree format %q (must be json or yaml)", format)
	}

	out, err := openOutput(output)
	if err != nil {
		return err
	}
	defer out.Close()
	if err := tree.Write(root, out, f); err != nil {
		return err
	}

	if output != "" && output != "-" {
		printSuccess("Scan complete")
		printFile(output)
		printNewline()
		printNextStep("Lay out", appName+" layout "+output)
	}
	return nil
}
