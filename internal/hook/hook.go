// Package hook is the consumer side of the manifest contract: it signals that
// a segment's manifest is needed and waits, bounded, for the engine to
// populate it.
package hook

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"manifold/internal/core/errors"
	"manifold/internal/engine/manifest"
	"manifold/internal/shared/util"
)

// Requester delivers a manifest request to the engine. app.Engine implements
// it; consumers in a separate process leave it nil and rely on the
// placeholder file the engine's cache-root watcher picks up.
type Requester interface {
	Request(manifestPath string)
}

// Options bounds the wait loop.
type Options struct {
	PollInterval time.Duration
	Timeout      time.Duration
}

func (o Options) withDefaults() Options {
	if o.PollInterval <= 0 {
		o.PollInterval = 50 * time.Millisecond
	}
	if o.Timeout <= 0 {
		o.Timeout = 5 * time.Second
	}
	return o
}

// EnsureManifest returns the populated manifest for segmentID, requesting a
// build when none exists yet. Requests are fire-and-forget; the result is
// observed solely through the manifest file, so malformed or partially
// written reads simply keep the loop polling until the deadline.
func EnsureManifest(ctx context.Context, requester Requester, cacheRoot, segmentID string, opts Options) (manifest.Manifest, error) {
	opts = opts.withDefaults()
	path := manifest.PathFor(cacheRoot, segmentID)

	if m, ok := manifest.ReadFile(path); ok {
		return m, nil
	}

	if requester != nil {
		requester.Request(path)
	} else if err := writePlaceholder(path, segmentID); err != nil {
		return manifest.Manifest{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	limiter := util.NewIntervalLimiter(opts.PollInterval)
	for {
		if err := limiter.Wait(ctx, 1); err != nil {
			return manifest.Manifest{}, errors.AddContext(
				errors.Wrap(err, errors.CodeTimeout, "manifest was not populated in time"),
				errors.CtxManifest, path,
			)
		}
		if m, ok := manifest.ReadFile(path); ok {
			return m, nil
		}
	}
}

// writePlaceholder drops an unpopulated manifest at path. The engine treats
// its appearance as a request. An existing file is left alone; the engine may
// already be writing the real manifest there.
func writePlaceholder(path, segmentID string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	data, err := json.Marshal(map[string]string{"segment": segmentID})
	if err != nil {
		return errors.Wrap(err, errors.CodeInternal, "serialize placeholder")
	}
	return util.WriteFileWithDirs(path, append(data, '\n'), 0o644)
}
