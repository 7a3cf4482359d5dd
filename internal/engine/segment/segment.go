package segment

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"
)

// markerExtensions are the extensions an entry marker or page file may carry.
// Layouts and pages are components, so only module kinds qualify.
var markerExtensions = []string{".tsx", ".ts", ".jsx", ".js"}

// Definition identifies one segment: the source-root-relative path of its
// directory and its sorted entry files.
type Definition struct {
	ID      string
	Entries []string
}

// Discovery scans the application directory for entry markers and derives
// segment definitions.
type Discovery struct {
	sourceRoot  string
	appDir      string
	marker      string
	page        string
	excludeDirs []glob.Glob
}

func NewDiscovery(sourceRoot, appDir, marker, page string, excludeDirs []string) (*Discovery, error) {
	compiled := make([]glob.Glob, 0, len(excludeDirs))
	for _, pattern := range excludeDirs {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, err
		}
		compiled = append(compiled, g)
	}
	return &Discovery{
		sourceRoot:  filepath.Clean(sourceRoot),
		appDir:      filepath.Clean(appDir),
		marker:      marker,
		page:        page,
		excludeDirs: compiled,
	}, nil
}

// Discover walks the application directory and returns the full current map
// of segment id to definition. An absent application directory yields an
// empty map, not an error.
func (d *Discovery) Discover() (map[string]Definition, error) {
	defs := make(map[string]Definition)

	if info, err := os.Stat(d.appDir); err != nil || !info.IsDir() {
		return defs, nil
	}

	err := filepath.WalkDir(d.appDir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !entry.IsDir() {
			return nil
		}
		if path != d.appDir && d.excludedDir(path) {
			return filepath.SkipDir
		}
		if def, ok := d.defineDir(path); ok {
			defs[def.ID] = def
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return defs, nil
}

// DiscoverOne derives the definition for a single segment id, or reports that
// no entry marker exists for it.
func (d *Discovery) DiscoverOne(id string) (Definition, bool) {
	dir := filepath.Join(d.sourceRoot, filepath.FromSlash(id))
	def, ok := d.defineDir(dir)
	if !ok || def.ID != id {
		return Definition{}, false
	}
	return def, true
}

// defineDir checks one directory for an entry marker and builds its
// definition: the marker plus the sibling page file when present.
func (d *Discovery) defineDir(dir string) (Definition, bool) {
	entries := make([]string, 0, 2)
	for _, base := range []string{d.marker, d.page} {
		for _, ext := range markerExtensions {
			candidate := filepath.Join(dir, base+ext)
			if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
				entries = append(entries, candidate)
			}
		}
	}

	// The marker defines the segment; a page alone does not.
	hasMarker := false
	for _, e := range entries {
		if strings.HasPrefix(filepath.Base(e), d.marker+".") {
			hasMarker = true
			break
		}
	}
	if !hasMarker {
		return Definition{}, false
	}

	rel, err := filepath.Rel(d.sourceRoot, dir)
	if err != nil {
		return Definition{}, false
	}
	sort.Strings(entries)
	return Definition{ID: filepath.ToSlash(rel), Entries: entries}, true
}

// IsEntryMarker reports whether the path names a file that can define or
// extend a segment (layout or page with a module extension).
func (d *Discovery) IsEntryMarker(path string) bool {
	base := filepath.Base(path)
	for _, ext := range markerExtensions {
		if base == d.marker+ext || base == d.page+ext {
			return true
		}
	}
	return false
}

func (d *Discovery) excludedDir(path string) bool {
	base := filepath.Base(path)
	for _, g := range d.excludeDirs {
		if g.Match(base) {
			return true
		}
	}
	return false
}

// Diff compares two discovery passes. Changed contains ids present in next
// (new or updated definitions); removed contains ids whose marker vanished.
func Diff(prev, next map[string]Definition) (changed, removed []string) {
	for id := range next {
		changed = append(changed, id)
	}
	for id := range prev {
		if _, ok := next[id]; !ok {
			removed = append(removed, id)
		}
	}
	sort.Strings(changed)
	sort.Strings(removed)
	return changed, removed
}
