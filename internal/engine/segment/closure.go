package segment

import (
	"os"

	"manifold/internal/engine/filecache"
)

// Closure is the transitive set of files reachable from a segment's entries,
// with each member's cached record. Edges may point at files that dropped out
// of the closure; the manifest writer restricts them to membership.
type Closure struct {
	Files map[string]filecache.Record
}

// Members returns the closure's member paths, unordered.
func (c Closure) Members() []string {
	out := make([]string, 0, len(c.Files))
	for path := range c.Files {
		out = append(out, path)
	}
	return out
}

// Contains reports closure membership.
func (c Closure) Contains(path string) bool {
	_, ok := c.Files[path]
	return ok
}

// BuildClosure walks the dependency graph from the entry files using the file
// cache's adjacency records. Files missing on disk are dropped silently;
// broken import edges never abort a build. The visited set and recorded
// edges are traversal-order-independent.
func BuildClosure(entries []string, cache *filecache.Cache) Closure {
	closure := Closure{Files: make(map[string]filecache.Record)}

	frontier := make([]string, len(entries))
	copy(frontier, entries)

	for len(frontier) > 0 {
		path := frontier[len(frontier)-1]
		frontier = frontier[:len(frontier)-1]

		if closure.Contains(path) {
			continue
		}
		if info, err := os.Stat(path); err != nil || info.IsDir() {
			continue
		}

		rec := cache.Get(path)
		closure.Files[path] = rec

		for _, imp := range rec.Imports {
			if !closure.Contains(imp) {
				frontier = append(frontier, imp)
			}
		}
	}

	return closure
}
