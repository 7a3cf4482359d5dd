package util

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCountLines(t *testing.T) {
	cases := []struct {
		name string
		data string
		want int
	}{
		{"empty", "", 0},
		{"single line no terminator", "hello", 1},
		{"single line with terminator", "hello\n", 2},
		{"two lines", "a\nb", 2},
		{"three segments", "a\nb\nc", 3},
	}
	for _, tc := range cases {
		if got := CountLines([]byte(tc.data)); got != tc.want {
			t.Errorf("%s: CountLines = %d, want %d", tc.name, got, tc.want)
		}
	}
}

func TestSortedUnique(t *testing.T) {
	got := SortedUnique([]string{"b", "a", "b", "", "c", "a"})
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestHasPathPrefix(t *testing.T) {
	if !HasPathPrefix("src/app/page.tsx", "src/app") {
		t.Error("expected containment")
	}
	if HasPathPrefix("src/application/page.tsx", "src/app") {
		t.Error("sibling directory must not match as prefix")
	}
	if !HasPathPrefix("src/app", "src/app") {
		t.Error("path must match itself")
	}
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "nested", "out.json")

	if err := WriteFileAtomic(target, []byte(`{"ok":true}`), 0o644); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"ok":true}` {
		t.Fatalf("unexpected content: %s", data)
	}

	// No temp residue left behind.
	entries, err := os.ReadDir(filepath.Dir(target))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected only the target file, found %d entries", len(entries))
	}

	// Overwrite replaces wholesale.
	if err := WriteFileAtomic(target, []byte("v2"), 0o644); err != nil {
		t.Fatal(err)
	}
	data, _ = os.ReadFile(target)
	if string(data) != "v2" {
		t.Fatalf("overwrite failed: %s", data)
	}
}
