package manifest

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"time"

	"manifold/internal/core/errors"
	"manifold/internal/engine/segment"
	"manifold/internal/shared/util"
)

// Writer serializes segment closures into manifests under the cache root.
type Writer struct {
	sourceRoot string
	cacheRoot  string
}

func NewWriter(sourceRoot, cacheRoot string) *Writer {
	return &Writer{
		sourceRoot: filepath.Clean(sourceRoot),
		cacheRoot:  filepath.Clean(cacheRoot),
	}
}

// Build converts a closure into its manifest form: root-relative slash paths,
// lexicographic file order (JSON object keys sort on encoding), imports
// restricted to closure membership, and a fresh timestamp.
func (w *Writer) Build(def segment.Definition, closure segment.Closure) Manifest {
	files := make(map[string]FileInfo, len(closure.Files))
	for path, rec := range closure.Files {
		imports := make([]string, 0, len(rec.Imports))
		for _, imp := range rec.Imports {
			if closure.Contains(imp) {
				imports = append(imports, w.relative(imp))
			}
		}
		sort.Strings(imports)
		files[w.relative(path)] = FileInfo{Imports: imports, Lines: rec.Lines}
	}

	entries := make([]string, 0, len(def.Entries))
	for _, entry := range def.Entries {
		if closure.Contains(entry) {
			entries = append(entries, w.relative(entry))
		}
	}
	sort.Strings(entries)

	return Manifest{
		Entries:   entries,
		Files:     files,
		Segment:   def.ID,
		UpdatedAt: time.Now().UnixMilli(),
	}
}

// Write builds the manifest and persists it atomically: the full content is
// serialized before any visible filesystem mutation, so readers observe the
// manifest either fully formed or not yet existing.
func (w *Writer) Write(def segment.Definition, closure segment.Closure) (Manifest, error) {
	m := w.Build(def, closure)

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return Manifest{}, errors.Wrap(err, errors.CodeInternal, "serialize manifest")
	}
	data = append(data, '\n')

	path := PathFor(w.cacheRoot, def.ID)
	if err := util.WriteFileAtomic(path, data, 0o644); err != nil {
		return Manifest{}, errors.AddContext(
			errors.Wrap(err, errors.CodeInternal, "write manifest"),
			errors.CtxManifest, path,
		)
	}
	return m, nil
}

// Remove deletes a removed segment's manifest. A manifest that never existed
// is not an error.
func (w *Writer) Remove(id string) error {
	path := PathFor(w.cacheRoot, id)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, errors.CodeInternal, "remove manifest")
	}
	return nil
}

// Path returns the manifest location for a segment id.
func (w *Writer) Path(id string) string {
	return PathFor(w.cacheRoot, id)
}

func (w *Writer) relative(path string) string {
	rel, err := filepath.Rel(w.sourceRoot, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}
