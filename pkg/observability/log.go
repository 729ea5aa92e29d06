package observability

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// LogPipelineHooks writes pipeline events to a logger at debug level.
type LogPipelineHooks struct {
	Logger *log.Logger
}

func (h LogPipelineHooks) OnScanStart(_ context.Context, root string) {
	h.Logger.Debug("scan started", "root", root)
}

func (h LogPipelineHooks) OnScanComplete(_ context.Context, root string, nodeCount int, d time.Duration, err error) {
	if err != nil {
		h.Logger.Debug("scan failed", "root", root, "error", err)
		return
	}
	h.Logger.Debug("scan complete", "root", root, "nodes", nodeCount, "duration", d.Round(time.Millisecond))
}

func (h LogPipelineHooks) OnLayoutStart(_ context.Context, nodeCount int) {
	h.Logger.Debug("layout started", "nodes", nodeCount)
}

func (h LogPipelineHooks) OnLayoutComplete(_ context.Context, placed int, d time.Duration, err error) {
	if err != nil {
		h.Logger.Debug("layout failed", "error", err)
		return
	}
	h.Logger.Debug("layout complete", "placed", placed, "duration", d.Round(time.Millisecond))
}

func (h LogPipelineHooks) OnRenderStart(_ context.Context, formats []string) {
	h.Logger.Debug("render started", "formats", formats)
}

func (h LogPipelineHooks) OnRenderComplete(_ context.Context, formats []string, d time.Duration, err error) {
	if err != nil {
		h.Logger.Debug("render failed", "formats", formats, "error", err)
		return
	}
	h.Logger.Debug("render complete", "formats", formats, "duration", d.Round(time.Millisecond))
}

// LogCacheHooks writes cache events to a logger at debug level.
type LogCacheHooks struct {
	Logger *log.Logger
}

func (h LogCacheHooks) OnCacheHit(_ context.Context, keyType string) {
	h.Logger.Debug("cache hit", "type", keyType)
}

func (h LogCacheHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.Logger.Debug("cache miss", "type", keyType)
}

func (h LogCacheHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.Logger.Debug("cache set", "type", keyType, "bytes", size)
}

// LogSessionHooks writes session events to a logger at debug level.
type LogSessionHooks struct {
	Logger *log.Logger
}

func (h LogSessionHooks) OnSessionLoad(_ context.Context, id string, found bool) {
	h.Logger.Debug("session loaded", "id", id, "found", found)
}

func (h LogSessionHooks) OnSessionSave(_ context.Context, id string, positions int) {
	h.Logger.Debug("session saved", "id", id, "positions", positions)
}

func (h LogSessionHooks) OnSessionDelete(_ context.Context, id string) {
	h.Logger.Debug("session deleted", "id", id)
}

// LogAll registers the log hooks for every event family.
func LogAll(logger *log.Logger) {
	SetPipelineHooks(LogPipelineHooks{Logger: logger})
	SetCacheHooks(LogCacheHooks{Logger: logger})
	SetSessionHooks(LogSessionHooks{Logger: logger})
}

var (
	_ PipelineHooks = LogPipelineHooks{}
	_ CacheHooks    = LogCacheHooks{}
	_ SessionHooks  = LogSessionHooks{}
)
