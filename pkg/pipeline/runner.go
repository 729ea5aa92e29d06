package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/treepack/pkg/cache"
	"github.com/matzehuels/treepack/pkg/core/history"
	"github.com/matzehuels/treepack/pkg/observability"
	"github.com/matzehuels/treepack/pkg/scene"
	"github.com/matzehuels/treepack/pkg/session"
	"github.com/matzehuels/treepack/pkg/tree"
)

// Runner encapsulates pipeline execution with caching and sessions.
// Both CLI and API use this to avoid duplicating caching logic.
//
// The Runner is stateless except for its cache, session store and logger.
// Multiple goroutines can safely use the same Runner; callers that update
// the same session concurrently must serialize themselves (see
// [session.Locks]).
type Runner struct {
	Cache    cache.Cache
	Keyer    cache.Keyer
	Sessions session.Store
	Logger   *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
// Sessions default to an in-memory store.
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:    c,
		Keyer:    keyer,
		Sessions: session.NewMemoryStore(),
		Logger:   logger,
	}
}

// Execute runs the complete scan → layout → render pipeline, reading the
// previous context from the session and writing the new one back.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	r.applyLogger(&opts)

	result := &Result{}

	// Stage 1: Scan
	scanStart := time.Now()
	root, err := r.Scan(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}
	result.Tree = root
	result.Stats.ScanTime = time.Since(scanStart)
	result.Stats.NodeCount = root.Count()

	r.Logger.Info("scanned tree",
		"source", opts.source(),
		"nodes", result.Stats.NodeCount,
		"duration", result.Stats.ScanTime)

	// Stage 2: Layout against the session's context
	sess, found, err := r.LoadSession(ctx, opts.SessionID, opts.SessionTTL)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	result.CacheInfo.SessionHit = found
	prev := sess.Context
	if opts.Reset {
		prev = history.Empty()
	}

	layoutStart := time.Now()
	l, next, hit, err := r.LayoutWithCacheInfo(ctx, root, prev, opts)
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	result.Layout = l
	result.Stats.Placed = len(l.Nodes)
	result.Stats.LayoutTime = time.Since(layoutStart)
	result.CacheInfo.LayoutHit = hit

	r.Logger.Info("computed layout",
		"placed", len(l.Nodes),
		"total", l.Total,
		"duration", result.Stats.LayoutTime)

	sess.Source = opts.source()
	sess.Update(next)
	if err := r.SaveSession(ctx, sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	result.Session = sess

	if h, err := cache.HashJSON(root); err == nil {
		result.TreeHash = h
	}

	// Stage 3: Render
	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, l, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// Scan reads the input tree.
func (r *Runner) Scan(ctx context.Context, opts Options) (root *tree.Node, err error) {
	if err := opts.ValidateForScan(); err != nil {
		return nil, err
	}
	hooks := observability.Pipeline()
	start := time.Now()
	hooks.OnScanStart(ctx, opts.source())
	defer func() {
		hooks.OnScanComplete(ctx, opts.source(), root.Count(), time.Since(start), err)
	}()
	return Scan(ctx, opts)
}

// LoadSession returns the session with the given id, or a new empty one if
// it does not exist. An empty id always starts a new session.
func (r *Runner) LoadSession(ctx context.Context, id string, ttl time.Duration) (*session.Session, bool, error) {
	if id == "" {
		return session.New(ttl), false, nil
	}
	sess, err := r.Sessions.Get(ctx, id)
	if err != nil {
		return nil, false, err
	}
	found := sess != nil
	observability.Session().OnSessionLoad(ctx, id, found)
	if !found {
		r.Logger.Debug("new session", "id", id)
		return session.NewWithID(id, ttl), false, nil
	}
	r.Logger.Debug("loaded session", "id", id, "positions", sess.Context.Len(), "passes", sess.Passes)
	return sess, true, nil
}

// SaveSession persists a session.
func (r *Runner) SaveSession(ctx context.Context, sess *session.Session) error {
	if err := r.Sessions.Set(ctx, sess); err != nil {
		return err
	}
	observability.Session().OnSessionSave(ctx, sess.ID, sess.Context.Len())
	return nil
}

// LayoutWithCacheInfo runs a layout pass with caching and returns cache hit
// info. Passes are deterministic, so a pass is keyed by the tree, the
// previous context and the layout options.
func (r *Runner) LayoutWithCacheInfo(ctx context.Context, root *tree.Node, prev history.Context, opts Options) (scene.Layout, history.Context, bool, error) {
	if err := opts.ValidateForLayout(); err != nil {
		return scene.Layout{}, history.Context{}, false, err
	}
	r.applyLogger(&opts)

	treeHash, err := cache.HashJSON(root)
	if err != nil {
		return scene.Layout{}, history.Context{}, false, err
	}
	ctxHash, err := cache.HashJSON(prev)
	if err != nil {
		return scene.Layout{}, history.Context{}, false, err
	}
	cacheKey := r.Keyer.LayoutKey(treeHash, opts.LayoutKeyOpts(ctxHash))

	// Try cache first (unless refresh requested)
	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			var entry layoutEntry
			if err := json.Unmarshal(data, &entry); err == nil {
				observability.Cache().OnCacheHit(ctx, "layout")
				return entry.Layout, entry.Context.Clone(), true, nil
			}
			// If deserialization fails, fall through to recompute
		}
		observability.Cache().OnCacheMiss(ctx, "layout")
	}

	hooks := observability.Pipeline()
	start := time.Now()
	hooks.OnLayoutStart(ctx, root.Count())
	l, next, err := ComputeLayout(root, prev, opts)
	hooks.OnLayoutComplete(ctx, len(l.Nodes), time.Since(start), err)
	if err != nil {
		return scene.Layout{}, history.Context{}, false, err
	}

	if data, err := json.Marshal(layoutEntry{Layout: l, Context: next}); err == nil {
		if err := r.Cache.Set(ctx, cacheKey, data, cache.LayoutTTL); err != nil {
			r.Logger.Warn("cache write failed", "type", "layout", "error", err)
		} else {
			observability.Cache().OnCacheSet(ctx, "layout", len(data))
		}
	}
	return l, next, false, nil
}

// Layout is a convenience wrapper that discards the cache hit info.
func (r *Runner) Layout(ctx context.Context, root *tree.Node, prev history.Context, opts Options) (scene.Layout, history.Context, error) {
	l, next, _, err := r.LayoutWithCacheInfo(ctx, root, prev, opts)
	return l, next, err
}

// RenderWithCacheInfo generates artifacts with caching and returns cache hit info.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, l scene.Layout, opts Options) (map[string][]byte, bool, error) {
	if err := opts.ValidateForRender(); err != nil {
		return nil, false, err
	}
	r.applyLogger(&opts)

	layoutData, err := scene.MarshalLayout(l)
	if err != nil {
		return nil, false, fmt.Errorf("serialize layout for cache key: %w", err)
	}
	layoutHash := cache.Hash(layoutData)

	artifacts := make(map[string][]byte, len(opts.Formats))
	var missing []string
	for _, format := range opts.Formats {
		if !opts.Refresh {
			key := r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format))
			if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
				observability.Cache().OnCacheHit(ctx, "artifact")
				artifacts[format] = data
				continue
			}
			observability.Cache().OnCacheMiss(ctx, "artifact")
		}
		missing = append(missing, format)
	}
	if len(missing) == 0 {
		return artifacts, true, nil
	}

	renderOpts := opts
	renderOpts.Formats = missing
	hooks := observability.Pipeline()
	start := time.Now()
	hooks.OnRenderStart(ctx, missing)
	rendered, err := RenderFromLayout(ctx, l, renderOpts)
	hooks.OnRenderComplete(ctx, missing, time.Since(start), err)
	if err != nil {
		return nil, false, err
	}

	for format, data := range rendered {
		artifacts[format] = data
		key := r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format))
		if err := r.Cache.Set(ctx, key, data, cache.ArtifactTTL); err != nil {
			r.Logger.Warn("cache write failed", "type", "artifact", "format", format, "error", err)
			continue
		}
		observability.Cache().OnCacheSet(ctx, "artifact", len(data))
	}
	return artifacts, false, nil
}

// Render is a convenience wrapper that discards the cache hit info.
func (r *Runner) Render(ctx context.Context, l scene.Layout, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, l, opts)
	return artifacts, err
}

// Close releases resources held by the runner.
func (r *Runner) Close() error {
	var firstErr error
	if r.Cache != nil {
		firstErr = r.Cache.Close()
	}
	if r.Sessions != nil {
		if err := r.Sessions.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
