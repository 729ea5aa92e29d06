// Package cli implements the treepack command-line interface.
//
// Commands share one [CLI] value holding the logger and the loaded
// configuration file. Flags given on the command line win over the file;
// anything left unset falls back to the pipeline defaults.
//
// # Commands
//
//   - scan: Walk a directory and write its tree as JSON or YAML
//   - layout: Compute a stabilized layout and write layout.json
//   - visualize: Render a layout.json to SVG, PNG, PDF
//   - render: Scan, lay out and render in one step
//   - watch: Re-render on every filesystem change, highlighting it
//   - explore: Interactive terminal explorer
//   - serve: Run the HTTP API
//   - session, cache: Manage stored contexts and cached results
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/matzehuels/treepack/pkg/cache"
	"github.com/matzehuels/treepack/pkg/config"
	"github.com/matzehuels/treepack/pkg/observability"
	"github.com/matzehuels/treepack/pkg/pipeline"
	"github.com/matzehuels/treepack/pkg/render/sink"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "treepack"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// ConfigPath is the --config flag; empty means the default location.
	ConfigPath string
	config     *config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level. At debug level the pipeline,
// cache and session events are logged too.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
	if level <= log.DebugLevel {
		observability.LogAll(c.Logger)
	}
}

// Config loads the configuration file once and returns it.
func (c *CLI) Config() (config.Config, error) {
	if c.config != nil {
		return *c.config, nil
	}
	cfg, err := config.Load(c.ConfigPath)
	if err != nil {
		return config.Config{}, err
	}
	c.config = &cfg
	return cfg, nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner wired to the configured cache and
// session store.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	cfg, err := c.Config()
	if err != nil {
		return nil, err
	}

	var ch cache.Cache = cache.NewNullCache()
	if !noCache {
		ch, err = cfg.OpenCache(ctx)
		if err != nil {
			c.Logger.Warn("cache disabled", "error", err)
			ch = cache.NewNullCache()
		}
	}

	store, err := cfg.OpenSessions(ctx)
	if err != nil {
		ch.Close()
		return nil, fmt.Errorf("open session store: %w", err)
	}

	runner := pipeline.NewRunner(ch, nil, c.Logger)
	runner.Sessions = store
	return runner, nil
}

// =============================================================================
// Options Helpers
// =============================================================================

// applyConfig fills options the user did not set on the command line from
// the configuration file.
func applyConfig(cmd *cobra.Command, opts *pipeline.Options, cfg config.Config) {
	flags := cmd.Flags()
	if opts.Width == 0 {
		opts.Width = cfg.Layout.Width
	}
	if opts.Height == 0 {
		opts.Height = cfg.Layout.Height
	}
	if opts.MaxDepth == 0 {
		opts.MaxDepth = cfg.Layout.MaxDepth
	}
	if opts.MaxNodes == 0 {
		opts.MaxNodes = cfg.Layout.MaxNodes
	}
	if opts.Encoding == "" {
		opts.Encoding = cfg.Layout.ColorEncoding
	}
	opts.Exclude = append(opts.Exclude, cfg.Source.Exclude...)
	if flags.Lookup("gitignore") != nil && !flags.Changed("gitignore") {
		opts.RespectGitignore = cfg.Source.RespectGitignore
	}
	if flags.Lookup("history") != nil && !flags.Changed("history") {
		opts.History = opts.History || cfg.Source.History
	}
	if opts.SessionTTL == 0 {
		opts.SessionTTL = cfg.SessionTTL()
	}
}

// setInput points opts at a directory or a tree file.
func setInput(opts *pipeline.Options, arg string) error {
	info, err := os.Stat(arg)
	if err != nil {
		return err
	}
	if info.IsDir() {
		opts.Root = arg
	} else {
		opts.TreeFile = arg
	}
	return nil
}

// sourceSessionID derives a stable session id from the input, so repeated
// runs over the same directory share a context without bookkeeping.
func sourceSessionID(opts pipeline.Options) (string, error) {
	src := opts.Root
	if src == "" {
		src = opts.TreeFile
	}
	abs, err := filepath.Abs(src)
	if err != nil {
		return "", err
	}
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("file://"+filepath.ToSlash(abs))).String(), nil
}

// resolveSession fills opts.SessionID unless --no-session was given.
func resolveSession(opts *pipeline.Options, noSession bool) error {
	if noSession || opts.SessionID != "" {
		return nil
	}
	id, err := sourceSessionID(*opts)
	if err != nil {
		return err
	}
	opts.SessionID = id
	return nil
}

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) ([]string, error) {
	if s == "" {
		return []string{sink.FormatSVG}, nil
	}
	return sink.ParseFormats(s)
}

// basePath derives the output path without extension. If output is empty
// the input name is used; a known format extension on output is stripped.
func basePath(output, input string) string {
	if output == "" {
		input = strings.TrimRight(input, `/\`)
		if info, err := os.Stat(input); err == nil && info.IsDir() {
			abs, err := filepath.Abs(input)
			if err == nil {
				input = abs
			}
			return filepath.Base(input)
		}
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	ext := filepath.Ext(output)
	if sink.ValidFormat(strings.TrimPrefix(ext, ".")) {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

// nopCloser wraps an io.Writer with a no-op Close method.
type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// openOutput returns os.Stdout for "" or "-", and creates path otherwise.
func openOutput(path string) (io.WriteCloser, error) {
	if path == "" || path == "-" {
		return nopCloser{os.Stdout}, nil
	}
	return os.Create(path)
}

// artifactWriteParams describes where rendered artifacts go.
type artifactWriteParams struct {
	artifacts map[string][]byte
	formats   []string
	input     string
	output    string
}

// writeArtifacts writes one file per format. A single format goes to
// output verbatim when given; several formats share output as base path.
func writeArtifacts(p artifactWriteParams) ([]string, error) {
	if len(p.formats) == 1 && p.output != "" {
		if err := os.WriteFile(p.output, p.artifacts[p.formats[0]], 0o644); err != nil {
			return nil, err
		}
		return []string{p.output}, nil
	}

	base := basePath(p.output, p.input)
	paths := make([]string, 0, len(p.formats))
	for _, format := range p.formats {
		path := base + "." + format
		if err := os.WriteFile(path, p.artifacts[format], 0o644); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}
