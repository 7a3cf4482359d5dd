package segment

import (
	"os"
	"path/filepath"
	"testing"
)

func write(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func newTestDiscovery(t *testing.T, root, appDir string) *Discovery {
	t.Helper()
	d, err := NewDiscovery(root, appDir, "layout", "page", []string{"node_modules", ".git"})
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func TestDiscoverFindsSegments(t *testing.T) {
	root := t.TempDir()
	app := filepath.Join(root, "app")
	write(t, filepath.Join(app, "layout.tsx"), "export {}\n")
	write(t, filepath.Join(app, "page.tsx"), "export {}\n")
	write(t, filepath.Join(app, "blog", "layout.tsx"), "export {}\n")
	// A page without a layout is not a segment.
	write(t, filepath.Join(app, "about", "page.tsx"), "export {}\n")

	defs, err := newTestDiscovery(t, root, app).Discover()
	if err != nil {
		t.Fatal(err)
	}

	if len(defs) != 2 {
		t.Fatalf("expected 2 segments, got %v", defs)
	}

	rootSeg, ok := defs["app"]
	if !ok {
		t.Fatalf("missing segment 'app': %v", defs)
	}
	if len(rootSeg.Entries) != 2 {
		t.Errorf("root segment entries = %v", rootSeg.Entries)
	}

	blog, ok := defs["app/blog"]
	if !ok {
		t.Fatalf("missing segment 'app/blog': %v", defs)
	}
	if len(blog.Entries) != 1 || filepath.Base(blog.Entries[0]) != "layout.tsx" {
		t.Errorf("blog entries = %v", blog.Entries)
	}
}

func TestDiscoverAbsentTreeIsGraceful(t *testing.T) {
	root := t.TempDir()
	defs, err := newTestDiscovery(t, root, filepath.Join(root, "does-not-exist")).Discover()
	if err != nil {
		t.Fatal(err)
	}
	if len(defs) != 0 {
		t.Fatalf("expected no segments, got %v", defs)
	}
}

func TestDiscoverSkipsExcludedDirs(t *testing.T) {
	root := t.TempDir()
	app := filepath.Join(root, "app")
	write(t, filepath.Join(app, "layout.tsx"), "export {}\n")
	write(t, filepath.Join(app, "node_modules", "pkg", "layout.tsx"), "export {}\n")

	defs, err := newTestDiscovery(t, root, app).Discover()
	if err != nil {
		t.Fatal(err)
	}
	if len(defs) != 1 {
		t.Fatalf("excluded dir leaked segments: %v", defs)
	}
}

func TestDiscoverOne(t *testing.T) {
	root := t.TempDir()
	app := filepath.Join(root, "app")
	write(t, filepath.Join(app, "shop", "layout.tsx"), "export {}\n")

	d := newTestDiscovery(t, root, app)

	def, ok := d.DiscoverOne("app/shop")
	if !ok || def.ID != "app/shop" {
		t.Fatalf("DiscoverOne failed: %+v ok=%v", def, ok)
	}

	if _, ok := d.DiscoverOne("app/missing"); ok {
		t.Error("DiscoverOne should fail for a directory without a marker")
	}
}

func TestIsEntryMarker(t *testing.T) {
	d := newTestDiscovery(t, "/src", "/src/app")
	for _, p := range []string{"/src/app/layout.tsx", "/src/app/x/page.js", "/src/app/layout.ts"} {
		if !d.IsEntryMarker(p) {
			t.Errorf("%s should classify as entry marker", p)
		}
	}
	for _, p := range []string{"/src/app/component.tsx", "/src/app/layout.css", "/src/app/pages.tsx"} {
		if d.IsEntryMarker(p) {
			t.Errorf("%s should not classify as entry marker", p)
		}
	}
}

func TestDiff(t *testing.T) {
	prev := map[string]Definition{
		"app":      {ID: "app"},
		"app/old":  {ID: "app/old"},
		"app/keep": {ID: "app/keep"},
	}
	next := map[string]Definition{
		"app":      {ID: "app"},
		"app/keep": {ID: "app/keep"},
		"app/new":  {ID: "app/new"},
	}

	changed, removed := Diff(prev, next)
	if len(changed) != 3 {
		t.Errorf("changed = %v", changed)
	}
	if len(removed) != 1 || removed[0] != "app/old" {
		t.Errorf("removed = %v", removed)
	}
}
