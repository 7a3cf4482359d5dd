package segment

import (
	"reflect"
	"testing"
)

func TestReplaceMembershipKeepsInverses(t *testing.T) {
	ix := NewIndex()
	ix.ReplaceMembership("app", []string{"/src/a.ts", "/src/b.ts"})
	ix.ReplaceMembership("app/blog", []string{"/src/b.ts", "/src/c.ts"})

	if got := ix.SegmentsOf("/src/b.ts"); !reflect.DeepEqual(got, []string{"app", "app/blog"}) {
		t.Errorf("SegmentsOf(b) = %v", got)
	}
	if got := ix.Members("app"); !reflect.DeepEqual(got, []string{"/src/a.ts", "/src/b.ts"}) {
		t.Errorf("Members(app) = %v", got)
	}

	// Shrinking membership drops stale facts from both sides.
	ix.ReplaceMembership("app", []string{"/src/a.ts"})
	if got := ix.SegmentsOf("/src/b.ts"); !reflect.DeepEqual(got, []string{"app/blog"}) {
		t.Errorf("stale membership survived: %v", got)
	}
}

func TestRemoveClearsBothSides(t *testing.T) {
	ix := NewIndex()
	ix.ReplaceMembership("app", []string{"/src/a.ts"})
	ix.Remove("app")

	if got := ix.SegmentsOf("/src/a.ts"); len(got) != 0 {
		t.Errorf("SegmentsOf after remove = %v", got)
	}
	if got := ix.Members("app"); len(got) != 0 {
		t.Errorf("Members after remove = %v", got)
	}
}

func TestSegmentsForFilesUnions(t *testing.T) {
	ix := NewIndex()
	ix.ReplaceMembership("app", []string{"/src/a.ts"})
	ix.ReplaceMembership("app/blog", []string{"/src/b.ts"})
	ix.ReplaceMembership("app/shop", []string{"/src/a.ts", "/src/c.ts"})

	got := ix.SegmentsForFiles([]string{"/src/a.ts", "/src/b.ts", "/src/unknown.ts"})
	want := []string{"app", "app/blog", "app/shop"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("impacted = %v, want %v", got, want)
	}
}
