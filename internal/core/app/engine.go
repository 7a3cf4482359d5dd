package app

import (
	"context"
	"log/slog"
	"os"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"manifold/internal/core/config"
	"manifold/internal/core/watcher"
	"manifold/internal/data/history"
	"manifold/internal/engine/filecache"
	"manifold/internal/engine/manifest"
	"manifold/internal/engine/parser"
	"manifold/internal/engine/resolver"
	"manifold/internal/engine/segment"
	"manifold/internal/shared/observability"
)

// Stats exposes engine counters for tests and diagnostics.
type Stats struct {
	Rebuilds      int64
	RebuildErrors int64
	Requests      int64
	RequestNoops  int64
}

// Engine owns the long-lived state: the file cache, segment definitions,
// and segment index. Every mutation is serialized; watcher batches and
// manifest requests are processed one at a time, each to completion.
type Engine struct {
	cfg       *config.Config
	parser    *parser.Parser
	cache     *filecache.Cache
	discovery *segment.Discovery
	index     *segment.Index
	writer    *manifest.Writer
	history   *history.Store

	mu       sync.Mutex
	segments map[string]segment.Definition
	stats    Stats

	changeCh  chan []watcher.Event
	requestCh chan Request
	running   bool
	runningMu sync.Mutex

	sourceWatcher  *watcher.Watcher
	requestWatcher *watcher.Watcher
}

func New(cfg *config.Config) (*Engine, error) {
	p := parser.NewParser()
	r := resolver.NewResolver(cfg.Paths.SourceRoot, cfg.Resolve.Aliases, cfg.Resolve.Extensions)

	discovery, err := segment.NewDiscovery(
		cfg.Paths.SourceRoot,
		cfg.Paths.AppDirAbs(),
		cfg.Segments.EntryMarker,
		cfg.Segments.PageFile,
		cfg.Exclude.Dirs,
	)
	if err != nil {
		return nil, err
	}

	var store *history.Store
	if cfg.History.Enabled {
		store, err = history.Open(cfg.HistoryPath())
		if err != nil {
			return nil, err
		}
	}

	return &Engine{
		cfg:       cfg,
		parser:    p,
		cache:     filecache.New(p, r),
		discovery: discovery,
		index:     segment.NewIndex(),
		writer:    manifest.NewWriter(cfg.Paths.SourceRoot, cfg.Paths.CacheRoot),
		history:   store,
		segments:  make(map[string]segment.Definition),
		changeCh:  make(chan []watcher.Event, 16),
		requestCh: make(chan Request, 16),
	}, nil
}

// Bootstrap runs one full discovery pass, builds every discovered segment,
// and fulfills any placeholder manifests left behind by consumers that raced
// ahead of the engine. An absent source tree does nothing gracefully.
func (e *Engine) Bootstrap(ctx context.Context) {
	ctx, span := observability.Tracer.Start(ctx, "engine.Bootstrap")
	defer span.End()

	e.mu.Lock()
	defs, err := e.discovery.Discover()
	if err != nil {
		e.mu.Unlock()
		slog.Error("initial segment discovery failed", "error", err)
		return
	}
	e.segments = defs
	observability.SegmentsTracked.Set(float64(len(defs)))
	e.rebuildLocked(ctx, sortedIDs(defs), "bootstrap")
	e.mu.Unlock()

	e.fulfillPendingPlaceholders(ctx)
	slog.Info("bootstrap complete", "segments", len(defs))
}

// Run starts the source and cache-root watchers and processes change batches
// and manifest requests on a single loop until the context is cancelled.
// Cancellation unsubscribes cleanly; a build already in flight finishes.
func (e *Engine) Run(ctx context.Context) error {
	if err := e.startWatchers(); err != nil {
		return err
	}
	e.setRunning(true)
	defer e.setRunning(false)
	defer e.Close()

	for {
		select {
		case <-ctx.Done():
			return nil
		case batch := <-e.changeCh:
			e.HandleChanges(batch)
		case req := <-e.requestCh:
			e.HandleRequest(req)
		}
	}
}

func (e *Engine) startWatchers() error {
	sw, err := watcher.NewWatcher(
		e.cfg.Watch.Debounce,
		e.cfg.Exclude.Dirs,
		e.cfg.Exclude.Files,
		func(events []watcher.Event) { e.changeCh <- events },
	)
	if err != nil {
		return err
	}
	// No extension filter here: closure membership is open-ended (a specifier
	// carrying an extension admits any file kind), so every member must be
	// able to invalidate. Excludes keep the noise down.
	if err := sw.Watch([]string{e.cfg.Paths.SourceRoot}); err != nil {
		sw.Close()
		return err
	}
	e.sourceWatcher = sw

	// The cache root gets its own watcher: manifest placeholders appearing
	// there are request signals, never source-tree events. It may not exist
	// before the first build.
	if err := os.MkdirAll(e.cfg.Paths.CacheRoot, 0o755); err != nil {
		sw.Close()
		return err
	}
	rw, err := watcher.NewWatcher(
		e.cfg.Watch.Debounce,
		nil,
		nil,
		func(events []watcher.Event) {
			for _, ev := range events {
				e.requestCh <- NewRequest(ev.Path)
			}
		},
	)
	if err != nil {
		sw.Close()
		return err
	}
	rw.SetFileFilters(nil, []string{manifest.FileName})
	if err := rw.Watch([]string{e.cfg.Paths.CacheRoot}); err != nil {
		sw.Close()
		rw.Close()
		return err
	}
	e.requestWatcher = rw

	return nil
}

// Close unsubscribes the watchers and releases the history store. On-disk
// manifests are never touched on shutdown.
func (e *Engine) Close() {
	if e.sourceWatcher != nil {
		_ = e.sourceWatcher.Close()
		e.sourceWatcher = nil
	}
	if e.requestWatcher != nil {
		_ = e.requestWatcher.Close()
		e.requestWatcher = nil
	}
	if e.history != nil {
		_ = e.history.Close()
	}
}

// Stats returns a snapshot of the engine counters.
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stats
}

// Segments returns the sorted ids of currently tracked segments.
func (e *Engine) Segments() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return sortedIDs(e.segments)
}

// ManifestPath returns the manifest location for a segment id.
func (e *Engine) ManifestPath(id string) string {
	return e.writer.Path(id)
}

// CacheRoot returns the directory manifests are written under.
func (e *Engine) CacheRoot() string {
	return e.cfg.Paths.CacheRoot
}

// History returns the rebuild history store, or nil when disabled.
func (e *Engine) History() *history.Store {
	return e.history
}

func (e *Engine) setRunning(v bool) {
	e.runningMu.Lock()
	e.running = v
	e.runningMu.Unlock()
}

func (e *Engine) isRunning() bool {
	e.runningMu.Lock()
	defer e.runningMu.Unlock()
	return e.running
}

// rebuildLocked rebuilds the given segments in order. A single segment's
// failure is logged and skipped; it never terminates the pass. Callers hold
// e.mu.
func (e *Engine) rebuildLocked(ctx context.Context, ids []string, trigger string) {
	for _, id := range ids {
		def, ok := e.segments[id]
		if !ok {
			continue
		}
		if err := e.buildSegmentLocked(ctx, def, trigger); err != nil {
			e.stats.RebuildErrors++
			observability.RebuildErrorsTotal.Inc()
			slog.Error("segment rebuild failed", "segment", id, "trigger", trigger, "error", err)
		}
	}
}

// buildSegmentLocked runs one closure build and commits it: index membership
// is replaced first, then the manifest is written. Callers hold e.mu.
func (e *Engine) buildSegmentLocked(ctx context.Context, def segment.Definition, trigger string) error {
	_, span := observability.Tracer.Start(ctx, "engine.buildSegment", trace.WithAttributes(
		attribute.String("segment", def.ID),
		attribute.String("trigger", trigger),
	))
	defer span.End()

	start := time.Now()

	closure := segment.BuildClosure(def.Entries, e.cache)
	e.index.ReplaceMembership(def.ID, closure.Members())

	if _, err := e.writer.Write(def, closure); err != nil {
		return err
	}

	e.stats.Rebuilds++
	observability.RebuildsTotal.WithLabelValues(trigger).Inc()
	duration := time.Since(start)
	observability.RebuildDuration.Observe(duration.Seconds())

	if e.history != nil {
		if err := e.history.RecordRebuild(history.Rebuild{
			Segment:  def.ID,
			Trigger:  trigger,
			Members:  len(closure.Files),
			Duration: duration,
		}); err != nil {
			slog.Warn("failed to record rebuild history", "segment", def.ID, "error", err)
		}
	}

	slog.Debug("segment rebuilt", "segment", def.ID, "trigger", trigger, "files", len(closure.Files), "duration", duration)
	return nil
}

func sortedIDs(defs map[string]segment.Definition) []string {
	ids := make([]string, 0, len(defs))
	for id := range defs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
