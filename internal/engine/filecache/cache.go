package filecache

import (
	"os"
	"sync"

	"manifold/internal/engine/parser"
	"manifold/internal/engine/resolver"
	"manifold/internal/shared/observability"
	"manifold/internal/shared/util"
)

// Record is the cached view of one file: its resolved in-root imports and its
// line count.
type Record struct {
	// Imports holds resolved absolute paths, sorted and unique. Targets may
	// have vanished since resolution; traversal drops them.
	Imports []string
	Lines   int
}

// Cache memoizes per-file records keyed by normalized absolute path. Records
// are computed lazily on first access and evicted on filesystem change
// events; a missing file caches a zero record rather than failing, and is
// re-checked after the next invalidation.
type Cache struct {
	mu       sync.Mutex
	parser   *parser.Parser
	resolver *resolver.Resolver
	records  map[string]Record
}

func New(p *parser.Parser, r *resolver.Resolver) *Cache {
	return &Cache{
		parser:   p,
		resolver: r,
		records:  make(map[string]Record),
	}
}

// Get returns the record for path, computing and caching it if needed.
func (c *Cache) Get(path string) Record {
	c.mu.Lock()
	defer c.mu.Unlock()

	if rec, ok := c.records[path]; ok {
		return rec
	}

	rec := c.compute(path)
	c.records[path] = rec
	observability.FileCacheSize.Set(float64(len(c.records)))
	return rec
}

// Invalidate evicts the record unconditionally; the next Get recomputes from
// disk.
func (c *Cache) Invalidate(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.records, path)
	observability.FileCacheSize.Set(float64(len(c.records)))
}

// Len returns the number of cached records.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.records)
}

func (c *Cache) compute(path string) Record {
	content, err := os.ReadFile(path)
	if err != nil {
		// Dangling entry: zero imports, zero lines. Never a build failure.
		return Record{}
	}

	resolved := make([]string, 0, 4)
	for _, raw := range c.parser.ParseImports(path, content) {
		if target, ok := c.resolver.Resolve(raw, path); ok {
			resolved = append(resolved, target)
		}
	}

	return Record{
		Imports: util.SortedUnique(resolved),
		Lines:   util.CountLines(content),
	}
}
