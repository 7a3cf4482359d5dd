package manifest

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"manifold/internal/engine/filecache"
	"manifold/internal/engine/segment"
)

func TestPathDerivationRoundTrips(t *testing.T) {
	cacheRoot := "/proj/.manifold/manifests"

	for _, id := range []string{"app", "app/blog", "app/shop/[id]", "."} {
		path := PathFor(cacheRoot, id)
		got, ok := SegmentIDFor(cacheRoot, path)
		if !ok || got != id {
			t.Errorf("round trip failed for %q: got %q ok=%v (path %s)", id, got, ok, path)
		}
	}
}

func TestSegmentIDForRejectsForeignPaths(t *testing.T) {
	cacheRoot := "/proj/.manifold/manifests"

	if _, ok := SegmentIDFor(cacheRoot, "/proj/src/app/manifest.json"); ok {
		t.Error("path outside cache root must not derive an id")
	}
	if _, ok := SegmentIDFor(cacheRoot, filepath.Join(cacheRoot, "app", "other.json")); ok {
		t.Error("wrong file name must not derive an id")
	}
}

func TestReadFileDistinguishesPlaceholder(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)

	if _, ok := ReadFile(path); ok {
		t.Error("missing file must read as unpopulated")
	}

	if err := os.WriteFile(path, []byte(`{`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, ok := ReadFile(path); ok {
		t.Error("malformed manifest must read as unpopulated")
	}

	if err := os.WriteFile(path, []byte(`{"segment":"app"}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, ok := ReadFile(path); ok {
		t.Error("manifest without files key must read as unpopulated")
	}

	populated := `{"entries":[],"files":{},"segment":"app","updatedAt":1}`
	if err := os.WriteFile(path, []byte(populated), 0o644); err != nil {
		t.Fatal(err)
	}
	m, ok := ReadFile(path)
	if !ok || m.Segment != "app" {
		t.Errorf("populated manifest misread: %+v ok=%v", m, ok)
	}
}

func TestBuildRestrictsImportsToClosure(t *testing.T) {
	sourceRoot := "/proj/src"
	w := NewWriter(sourceRoot, "/proj/.cache")

	layout := filepath.Join(sourceRoot, "app", "layout.tsx")
	lib := filepath.Join(sourceRoot, "lib", "util.ts")
	ghost := filepath.Join(sourceRoot, "lib", "ghost.ts")

	closure := segment.Closure{Files: map[string]filecache.Record{
		layout: {Imports: []string{lib, ghost}, Lines: 10},
		lib:    {Imports: nil, Lines: 3},
	}}
	def := segment.Definition{ID: "app", Entries: []string{layout}}

	m := w.Build(def, closure)

	if len(m.Entries) != 1 || m.Entries[0] != "app/layout.tsx" {
		t.Errorf("entries = %v", m.Entries)
	}
	info, ok := m.Files["app/layout.tsx"]
	if !ok {
		t.Fatalf("files = %v", m.Files)
	}
	if len(info.Imports) != 1 || info.Imports[0] != "lib/util.ts" {
		t.Errorf("ghost edge leaked into manifest: %v", info.Imports)
	}
	if info.Lines != 10 {
		t.Errorf("lines = %d", info.Lines)
	}
	if m.Segment != "app" || m.UpdatedAt == 0 {
		t.Errorf("manifest header wrong: %+v", m)
	}
}

func TestWritePersistsAtomically(t *testing.T) {
	dir := t.TempDir()
	sourceRoot := filepath.Join(dir, "src")
	cacheRoot := filepath.Join(dir, "cache")
	w := NewWriter(sourceRoot, cacheRoot)

	layout := filepath.Join(sourceRoot, "app", "layout.tsx")
	def := segment.Definition{ID: "app", Entries: []string{layout}}
	closure := segment.Closure{Files: map[string]filecache.Record{
		layout: {Lines: 2},
	}}

	if _, err := w.Write(def, closure); err != nil {
		t.Fatal(err)
	}

	m, ok := ReadFile(w.Path("app"))
	if !ok {
		t.Fatal("written manifest should be populated")
	}
	if m.Files["app/layout.tsx"].Lines != 2 {
		t.Errorf("files = %v", m.Files)
	}

	// No temp residue in the segment's cache directory.
	entries, err := os.ReadDir(filepath.Dir(w.Path("app")))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("unexpected residue: %v", entries)
	}
}

func TestWriteIsIdempotentModuloTimestamp(t *testing.T) {
	dir := t.TempDir()
	sourceRoot := filepath.Join(dir, "src")
	w := NewWriter(sourceRoot, filepath.Join(dir, "cache"))

	layout := filepath.Join(sourceRoot, "app", "layout.tsx")
	def := segment.Definition{ID: "app", Entries: []string{layout}}
	closure := segment.Closure{Files: map[string]filecache.Record{layout: {Lines: 5}}}

	first, err := w.Write(def, closure)
	if err != nil {
		t.Fatal(err)
	}
	second, err := w.Write(def, closure)
	if err != nil {
		t.Fatal(err)
	}

	a, _ := json.Marshal(struct {
		E []string
		F map[string]FileInfo
	}{first.Entries, first.Files})
	b, _ := json.Marshal(struct {
		E []string
		F map[string]FileInfo
	}{second.Entries, second.Files})
	if string(a) != string(b) {
		t.Errorf("rebuild without source change must be identical: %s vs %s", a, b)
	}
}

func TestRemoveMissingManifestIsNoError(t *testing.T) {
	w := NewWriter("/src", t.TempDir())
	if err := w.Remove("never/built"); err != nil {
		t.Fatal(err)
	}
}
