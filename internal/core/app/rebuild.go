package app

import (
	"context"
	"log/slog"
	"path/filepath"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"manifold/internal/core/watcher"
	"manifold/internal/engine/segment"
	"manifold/internal/shared/observability"
	"manifold/internal/shared/util"
)

// HandleChanges applies one debounced watcher batch. Every changed path is
// evicted from the file cache first; then the batch is classified once:
// a batch containing any create/remove/rename, or touching any entry marker,
// is structural and forces a full re-discovery, while a pure content batch
// rebuilds exactly the segments whose closures contain a changed file.
func (e *Engine) HandleChanges(events []watcher.Event) {
	ctx, span := observability.Tracer.Start(context.Background(), "engine.HandleChanges", trace.WithAttributes(
		attribute.Int("batch_size", len(events)),
	))
	defer span.End()

	e.mu.Lock()
	defer e.mu.Unlock()

	paths := make([]string, 0, len(events))
	structural := false
	for _, ev := range events {
		// Manifest-storage events are request signals, never source changes.
		// They arrive via the cache-root watcher; anything that still lands
		// here (cache root inside the source tree, excludes overridden) is
		// dropped so manifest writes cannot feed back into rebuilds.
		if e.underCacheRoot(ev.Path) {
			continue
		}
		paths = append(paths, ev.Path)
		e.cache.Invalidate(ev.Path)
		if ev.IsStructural() || e.discovery.IsEntryMarker(ev.Path) {
			structural = true
		}
	}
	if len(paths) == 0 {
		return
	}

	if structural {
		e.resyncLocked(ctx)
		return
	}

	impacted := e.index.SegmentsForFiles(paths)
	if len(impacted) == 0 {
		slog.Debug("change batch touched no tracked segment", "files", len(paths))
		return
	}
	slog.Debug("content change", "files", len(paths), "segments", len(impacted))
	e.rebuildLocked(ctx, impacted, "change")
}

// resyncLocked re-discovers the segment set, drops segments whose marker
// vanished (index membership and on-disk manifest both), and rebuilds every
// surviving segment. Membership may have shifted arbitrarily after a
// structural change, so nothing narrower is safe. Callers hold e.mu.
func (e *Engine) resyncLocked(ctx context.Context) {
	defs, err := e.discovery.Discover()
	if err != nil {
		slog.Error("segment re-discovery failed", "error", err)
		return
	}

	_, removed := segment.Diff(e.segments, defs)
	for _, id := range removed {
		e.index.Remove(id)
		if err := e.writer.Remove(id); err != nil {
			slog.Warn("failed to remove manifest of vanished segment", "segment", id, "error", err)
		}
		slog.Info("segment removed", "segment", id)
	}

	e.segments = defs
	observability.SegmentsTracked.Set(float64(len(defs)))
	e.rebuildLocked(ctx, sortedIDs(defs), "structural")
}

func (e *Engine) underCacheRoot(path string) bool {
	return util.HasPathPrefix(filepath.ToSlash(path), filepath.ToSlash(e.cfg.Paths.CacheRoot))
}
