package resolver

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("export {}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func newTestResolver(root string) *Resolver {
	return NewResolver(root, map[string]string{"@/": ""}, []string{".tsx", ".ts", ".js", ".css"})
}

func TestBuiltinsResolveToNothing(t *testing.T) {
	r := newTestResolver(t.TempDir())
	for _, spec := range []string{"fs", "node:path", "fs/promises", "node:fs/promises"} {
		if _, ok := r.Resolve(spec, "/src/a.ts"); ok {
			t.Errorf("builtin %q should not resolve", spec)
		}
	}
}

func TestBarePackagesResolveToNothing(t *testing.T) {
	r := newTestResolver(t.TempDir())
	for _, spec := range []string{"react", "lodash/merge", "@scope/pkg"} {
		if _, ok := r.Resolve(spec, "/src/a.ts"); ok {
			t.Errorf("bare package %q should not resolve", spec)
		}
	}
}

func TestRelativeWithExtension(t *testing.T) {
	root := t.TempDir()
	from := filepath.Join(root, "app", "page.tsx")
	writeFile(t, from)

	// Carrying an extension is the single candidate, no existence check.
	got, ok := r0(t, root).Resolve("./styles.css", from)
	if !ok || got != filepath.Join(root, "app", "styles.css") {
		t.Fatalf("got %q ok=%v", got, ok)
	}
}

func r0(t *testing.T, root string) *Resolver {
	t.Helper()
	return newTestResolver(root)
}

func TestExtensionProbingOrder(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "lib", "util.ts"))
	writeFile(t, filepath.Join(root, "lib", "util.js"))

	got, ok := newTestResolver(root).Resolve("./lib/util", filepath.Join(root, "main.ts"))
	if !ok {
		t.Fatal("expected resolution")
	}
	if got != filepath.Join(root, "lib", "util.ts") {
		t.Errorf(".ts should win over .js in probe order, got %s", got)
	}
}

func TestIndexFileProbing(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "components", "index.tsx"))

	got, ok := newTestResolver(root).Resolve("./components", filepath.Join(root, "page.tsx"))
	if !ok || got != filepath.Join(root, "components", "index.tsx") {
		t.Fatalf("index probing failed: %q ok=%v", got, ok)
	}
}

func TestDirectFileBeatsIndex(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "api.ts"))
	writeFile(t, filepath.Join(root, "api", "index.ts"))

	got, ok := newTestResolver(root).Resolve("./api", filepath.Join(root, "page.tsx"))
	if !ok || got != filepath.Join(root, "api.ts") {
		t.Fatalf("direct file should beat index: %q ok=%v", got, ok)
	}
}

func TestAliasRewriting(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "shared", "theme.ts"))

	got, ok := newTestResolver(root).Resolve("@/shared/theme", filepath.Join(root, "app", "deep", "page.tsx"))
	if !ok || got != filepath.Join(root, "shared", "theme.ts") {
		t.Fatalf("alias resolution failed: %q ok=%v", got, ok)
	}
}

func TestLongestAliasWins(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "design", "button.ts"))
	r := NewResolver(root, map[string]string{
		"@/":            "",
		"@/components/": "design",
	}, []string{".ts"})

	got, ok := r.Resolve("@/components/button", filepath.Join(root, "page.ts"))
	if !ok || got != filepath.Join(root, "design", "button.ts") {
		t.Fatalf("longest alias prefix should win: %q ok=%v", got, ok)
	}
}

func TestOutOfRootRejected(t *testing.T) {
	parent := t.TempDir()
	root := filepath.Join(parent, "src")
	outside := filepath.Join(parent, "secrets.ts")
	writeFile(t, outside)
	writeFile(t, filepath.Join(root, "page.ts"))

	if _, ok := newTestResolver(root).Resolve("../secrets", filepath.Join(root, "page.ts")); ok {
		t.Error("out-of-root import must not resolve")
	}
	// With an extension it is still subject to the boundary check.
	if _, ok := newTestResolver(root).Resolve("../secrets.ts", filepath.Join(root, "page.ts")); ok {
		t.Error("out-of-root import with extension must not resolve")
	}
}

func TestUnresolvableOmitsEdge(t *testing.T) {
	root := t.TempDir()
	if _, ok := newTestResolver(root).Resolve("./missing", filepath.Join(root, "page.ts")); ok {
		t.Error("probing with no match should resolve to nothing")
	}
}
