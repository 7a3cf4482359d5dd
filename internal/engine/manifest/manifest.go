package manifest

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
)

// FileName is the manifest file name under each segment's cache directory.
const FileName = "manifest.json"

// FileInfo describes one closure member: its intra-closure import edges and
// its line count. Paths are source-root-relative with forward slashes.
type FileInfo struct {
	Imports []string `json:"imports"`
	Lines   int      `json:"lines"`
}

// Manifest is the persisted form of a segment closure. A manifest without a
// "files" key is an unpopulated placeholder, not a valid manifest.
type Manifest struct {
	Entries   []string            `json:"entries"`
	Files     map[string]FileInfo `json:"files"`
	Segment   string              `json:"segment"`
	UpdatedAt int64               `json:"updatedAt"`
}

// Populated reports whether the manifest carries the files mapping.
func (m Manifest) Populated() bool {
	return m.Files != nil
}

// PathFor returns the deterministic manifest location for a segment id.
func PathFor(cacheRoot, id string) string {
	return filepath.Join(cacheRoot, filepath.FromSlash(id), FileName)
}

// SegmentIDFor inverts PathFor: it derives the segment id from a manifest
// path under the cache root, or reports failure for paths outside it or with
// the wrong file name.
func SegmentIDFor(cacheRoot, manifestPath string) (string, bool) {
	if filepath.Base(manifestPath) != FileName {
		return "", false
	}
	rel, err := filepath.Rel(filepath.Clean(cacheRoot), filepath.Dir(manifestPath))
	if err != nil {
		return "", false
	}
	rel = filepath.ToSlash(rel)
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", false
	}
	return rel, true
}

// ReadFile parses the manifest at path. The second return reports whether the
// file exists and parses into a populated manifest. A missing file, a parse
// failure, or a placeholder without "files" all yield false, never an error;
// consumers keep polling until their own deadline.
func ReadFile(path string) (Manifest, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, false
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return Manifest{}, false
	}
	return m, m.Populated()
}
