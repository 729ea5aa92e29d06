// Package pipeline provides the scan → layout → render pipeline for treepack.
//
// The CLI, the HTTP server and the watch loop all go through this package so
// that caching, session handling and defaults behave the same everywhere.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Scan: Read a file tree from a directory or a JSON/YAML tree file
//  2. Layout: Run a stabilized layout pass against the session's context
//  3. Render: Generate output in various formats (SVG, PNG, PDF, JSON)
//
// Between layout and render the new context is written back to the session,
// so the next run starts where this one ended.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	runner.Sessions = store
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Root:      ".",
//	    SessionID: id,
//	    Formats:   []string{"svg"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/treepack/pkg/cache"
	"github.com/matzehuels/treepack/pkg/core/layout"
	"github.com/matzehuels/treepack/pkg/core/palette"
	"github.com/matzehuels/treepack/pkg/errors"
	"github.com/matzehuels/treepack/pkg/render/sink"
	"github.com/matzehuels/treepack/pkg/scene"
	"github.com/matzehuels/treepack/pkg/session"
	"github.com/matzehuels/treepack/pkg/tree"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

const (
	// DefaultScale is the PNG scale factor.
	DefaultScale = 2.0

	// DefaultEncoding is the default color encoding.
	DefaultEncoding = palette.EncodingType
)

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Source options
	Root             string   `json:"root,omitempty"`      // directory to scan
	TreeFile         string   `json:"tree_file,omitempty"` // JSON or YAML tree instead of a scan
	Exclude          []string `json:"exclude,omitempty"`
	RespectGitignore bool     `json:"respect_gitignore,omitempty"`
	History          bool     `json:"history,omitempty"` // attach git commit history

	// Session options
	SessionID  string        `json:"session_id,omitempty"`
	Reset      bool          `json:"reset,omitempty"` // ignore the stored context
	SessionTTL time.Duration `json:"-"`

	// Layout options
	Width    float64 `json:"width,omitempty"`
	Height   float64 `json:"height,omitempty"`
	MaxDepth int     `json:"max_depth,omitempty"`
	MaxNodes int     `json:"max_nodes,omitempty"`
	Encoding string  `json:"color_encoding,omitempty"`

	// Render options
	Formats  []string      `json:"formats,omitempty"`
	Changes  []tree.Change `json:"changes,omitempty"`
	Selected string        `json:"selected,omitempty"`
	NoLegend bool          `json:"no_legend,omitempty"`
	Scale    float64       `json:"scale,omitempty"`

	// Refresh skips cache reads; results are still written back.
	Refresh bool `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Tree is the scanned file tree.
	Tree *tree.Node

	// TreeHash is the content hash of the tree.
	TreeHash string

	// Layout is the positioned output of the layout pass.
	Layout scene.Layout

	// Session holds the updated context.
	Session *session.Session

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount  int // nodes in the scanned tree
	Placed     int // nodes in the layout output
	ScanTime   time.Duration
	LayoutTime time.Duration
	RenderTime time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	SessionHit bool // Whether a stored context was found
	LayoutHit  bool // Whether layout result came from cache
	RenderHit  bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormats checks that all formats are supported.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if !sink.ValidFormat(f) {
			return errors.New(errors.ErrCodeInvalidFormat, "invalid format: %q (must be one of: svg, png, pdf, json)", f)
		}
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults for the full pipeline.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForScan(); err != nil {
		return err
	}
	if o.SessionID != "" {
		if err := errors.ValidateSessionID(o.SessionID); err != nil {
			return err
		}
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForScan checks the source options.
func (o *Options) ValidateForScan() error {
	if o.Root == "" && o.TreeFile == "" {
		return errors.New(errors.ErrCodeInvalidInput, "a directory or tree file is required")
	}
	if o.Root != "" && o.TreeFile != "" {
		return errors.New(errors.ErrCodeInvalidInput, "give either a directory or a tree file, not both")
	}
	for _, p := range o.Exclude {
		if err := errors.ValidateGlob(p); err != nil {
			return err
		}
	}
	o.setLogger()
	return nil
}

// SetLayoutDefaults sets default values for layout computation.
func (o *Options) SetLayoutDefaults() {
	if o.Width == 0 {
		o.Width = layout.DefaultWidth
	}
	if o.Height == 0 {
		o.Height = layout.DefaultHeight
	}
	if o.MaxDepth == 0 {
		o.MaxDepth = layout.DefaultMaxDepth
	}
	if o.MaxNodes == 0 {
		o.MaxNodes = layout.DefaultMaxNodes
	}
	if o.Encoding == "" {
		o.Encoding = string(DefaultEncoding)
	}
	o.setLogger()
}

// ValidateForLayout validates and sets defaults for layout computation.
// Legacy encoding names are normalized.
func (o *Options) ValidateForLayout() error {
	o.SetLayoutDefaults()
	enc, err := palette.ParseEncoding(o.Encoding)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidEncoding, err, "invalid color encoding %q", o.Encoding)
	}
	o.Encoding = string(enc)
	return o.LayoutOptions().Validate()
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{sink.FormatSVG}
	}
	if o.Scale == 0 {
		o.Scale = DefaultScale
	}
	o.setLogger()
}

// ValidateForRender validates and sets defaults for rendering.
func (o *Options) ValidateForRender() error {
	if err := o.ValidateForLayout(); err != nil {
		return err
	}
	o.SetRenderDefaults()
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if o.Selected != "" {
		if err := errors.ValidatePath(o.Selected); err != nil {
			return err
		}
	}
	if o.Scale < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "scale must be positive, got %g", o.Scale)
	}
	return nil
}

func (o *Options) setLogger() {
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// LayoutOptions returns the options of one layout pass.
func (o *Options) LayoutOptions() layout.Options {
	return layout.Options{
		Width:    o.Width,
		Height:   o.Height,
		MaxDepth: o.MaxDepth,
		MaxNodes: o.MaxNodes,
		Encoding: palette.Encoding(o.Encoding),
	}
}

// SinkOptions returns the renderer options.
func (o *Options) SinkOptions() []sink.Option {
	opts := []sink.Option{sink.WithScale(o.Scale)}
	if len(o.Changes) > 0 {
		opts = append(opts, sink.WithChanges(o.Changes))
	}
	if o.Selected != "" {
		opts = append(opts, sink.WithSelected(o.Selected))
	}
	if o.NoLegend {
		opts = append(opts, sink.WithoutLegend())
	}
	return opts
}

// LayoutKeyOpts returns cache key options for layout computation.
func (o *Options) LayoutKeyOpts(contextHash string) cache.LayoutKeyOpts {
	return cache.LayoutKeyOpts{
		ContextHash: contextHash,
		Width:       o.Width,
		Height:      o.Height,
		MaxDepth:    o.MaxDepth,
		MaxNodes:    o.MaxNodes,
		Encoding:    o.Encoding,
	}
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	opts := cache.ArtifactKeyOpts{
		Format:   format,
		Selected: o.Selected,
		NoLegend: o.NoLegend,
	}
	if format == sink.FormatPNG {
		opts.Scale = o.Scale
	}
	if len(o.Changes) > 0 {
		opts.ChangesHash, _ = cache.HashJSON(tree.IndexChanges(o.Changes))
	}
	return opts
}
