package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/treepack/pkg/pipeline"
	"github.com/matzehuels/treepack/pkg/source/local"
	"github.com/matzehuels/treepack/pkg/tree"
)

func addSourceFlags(cmd *cobra.Command, opts *pipeline.Options) {
	cmd.Flags().StringSliceVarP(&opts.Exclude, "exclude", "x", nil, "exclude glob, matched against names or paths (repeatable)")
	cmd.Flags().BoolVar(&opts.RespectGitignore, "gitignore", false, "skip files matched by .gitignore")
	cmd.Flags().BoolVar(&opts.History, "history", false, "attach git commit history (needed by change-frequency and recency)")
}

func addLayoutFlags(cmd *cobra.Command, opts *pipeline.Options) {
	cmd.Flags().Float64Var(&opts.Width, "width", 0, "canvas width (default 1600)")
	cmd.Flags().Float64Var(&opts.Height, "height", 0, "canvas height (default 1200)")
	cmd.Flags().IntVarP(&opts.MaxDepth, "max-depth", "d", 0, "deepest level to draw (default 9)")
	cmd.Flags().IntVar(&opts.MaxNodes, "max-nodes", 0, "maximum number of circles (default 9000)")
	cmd.Flags().StringVarP(&opts.Encoding, "color-encoding", "c", "", "leaf colors: type (default), change-frequency, recency")
}

// sessionFlags are the session-related flags shared by commands that run a
// layout pass.
type sessionFlags struct {
	noSession bool
}

func addSessionFlags(cmd *cobra.Command, opts *pipeline.Options, sf *sessionFlags) {
	cmd.Flags().StringVar(&opts.SessionID, "session", "", "session id (default: derived from the input path)")
	cmd.Flags().BoolVar(&opts.Reset, "reset", false, "ignore the stored context and lay out from scratch")
	cmd.Flags().BoolVar(&sf.noSession, "no-session", false, "neither read nor store a context")
}

// renderFlags are the output flags shared by render-capable commands.
type renderFlags struct {
	formats     string
	output      string
	changesFile string
}

func addRenderFlags(cmd *cobra.Command, opts *pipeline.Options, rf *renderFlags) {
	cmd.Flags().StringVarP(&rf.formats, "format", "f", "", "output format(s): svg (default), png, pdf, json (comma-separated)")
	cmd.Flags().StringVarP(&rf.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVar(&rf.changesFile, "changes", "", "JSON or YAML list of {path, type} changes to highlight")
	cmd.Flags().StringVar(&opts.Selected, "selected", "", "path of a node to outline")
	cmd.Flags().BoolVar(&opts.NoLegend, "no-legend", false, "omit the legend")
	cmd.Flags().Float64Var(&opts.Scale, "scale", 0, "PNG scale factor (default 2)")
}

// apply parses the format list and loads the change file into opts.
func (rf *renderFlags) apply(opts *pipeline.Options) error {
	formats, err := parseFormats(rf.formats)
	if err != nil {
		return err
	}
	opts.Formats = formats
	if rf.changesFile != "" {
		changes, err := readChanges(rf.changesFile)
		if err != nil {
			return err
		}
		opts.Changes = append(opts.Changes, changes...)
	}
	return nil
}

// readChanges loads a change list. YAML is a superset of JSON, so one
// decoder serves both.
func readChanges(path string) ([]tree.Change, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read changes: %w", err)
	}
	var changes []tree.Change
	if err := yaml.Unmarshal(data, &changes); err != nil {
		return nil, fmt.Errorf("parse changes %s: %w", path, err)
	}
	for i, c := range changes {
		kind, err := tree.ParseChangeKind(string(c.Kind))
		if err != nil {
			return nil, fmt.Errorf("%s: change %d: %w", path, i, err)
		}
		changes[i].Kind = kind
	}
	return changes, nil
}

// commitChanges returns the changes of rev in the directory being scanned.
func commitChanges(ctx context.Context, opts pipeline.Options, rev string) ([]tree.Change, error) {
	if opts.Root == "" {
		return nil, fmt.Errorf("--commit needs a directory, not a tree file")
	}
	return local.CommitChanges(ctx, opts.Root, rev)
}
