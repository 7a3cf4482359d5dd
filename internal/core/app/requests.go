package app

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"manifold/internal/engine/manifest"
	"manifold/internal/engine/segment"
	"manifold/internal/shared/observability"
)

// Request asks the engine to materialize one segment manifest.
type Request struct {
	ID           string
	ManifestPath string
}

func NewRequest(manifestPath string) Request {
	return Request{ID: uuid.NewString(), ManifestPath: manifestPath}
}

// Request submits a manifest request for processing. While the event loop is
// running the request is queued and serialized with change batches; before
// Run it is fulfilled inline.
func (e *Engine) Request(manifestPath string) {
	req := NewRequest(manifestPath)
	if e.isRunning() {
		e.requestCh <- req
		return
	}
	e.HandleRequest(req)
}

// HandleRequest fulfills one manifest request. Fulfillment is idempotent: a
// tracked segment whose manifest is already populated on disk is absorbed as
// a no-op, so duplicate deliveries (in-process call plus the cache-root
// watcher seeing the same placeholder) cost nothing.
func (e *Engine) HandleRequest(req Request) {
	ctx, span := observability.Tracer.Start(context.Background(), "engine.HandleRequest", trace.WithAttributes(
		attribute.String("request_id", req.ID),
		attribute.String("manifest", req.ManifestPath),
	))
	defer span.End()

	e.mu.Lock()
	defer e.mu.Unlock()

	e.stats.Requests++
	observability.RequestsTotal.Inc()

	id, ok := manifest.SegmentIDFor(e.cfg.Paths.CacheRoot, req.ManifestPath)
	if !ok {
		slog.Warn("ignoring manifest request outside the cache root", "path", req.ManifestPath)
		return
	}

	if _, tracked := e.segments[id]; tracked {
		if _, populated := manifest.ReadFile(req.ManifestPath); populated {
			e.noopLocked(id, "already populated")
			return
		}
	}

	def, ok := e.discovery.DiscoverOne(id)
	if !ok {
		// The requested directory carries no entry marker. Consumers hit
		// their own timeout; the engine does not invent segments.
		e.noopLocked(id, "no entry marker")
		return
	}

	e.trackLocked(def)
	if err := e.buildSegmentLocked(ctx, def, "request"); err != nil {
		e.stats.RebuildErrors++
		observability.RebuildErrorsTotal.Inc()
		slog.Error("requested segment build failed", "segment", id, "error", err)
	}
}

func (e *Engine) noopLocked(id, reason string) {
	e.stats.RequestNoops++
	observability.RequestNoopsTotal.Inc()
	slog.Debug("manifest request absorbed", "segment", id, "reason", reason)
}

func (e *Engine) trackLocked(def segment.Definition) {
	e.segments[def.ID] = def
	observability.SegmentsTracked.Set(float64(len(e.segments)))
}

// fulfillPendingPlaceholders scans the cache root for placeholder manifests
// written by consumers before the engine came up and routes each through the
// normal request path.
func (e *Engine) fulfillPendingPlaceholders(ctx context.Context) {
	_, span := observability.Tracer.Start(ctx, "engine.fulfillPendingPlaceholders")
	defer span.End()

	root := e.cfg.Paths.CacheRoot
	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		return
	}

	_ = filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil || entry.IsDir() || entry.Name() != manifest.FileName {
			return nil
		}
		if _, populated := manifest.ReadFile(path); !populated {
			e.HandleRequest(NewRequest(path))
		}
		return nil
	})
}
