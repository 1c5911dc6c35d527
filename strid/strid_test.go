package strid

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/carbonfmt/carbon/archive"
)

func buildOpen(t *testing.T, json string, baked bool) *archive.Archive {
	t.Helper()
	data, err := archive.Build([]byte(json), archive.BuildOptions{BakeSidIndex: baked})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	path := filepath.Join(t.TempDir(), "doc.carbon")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	a, err := archive.Open(path, archive.OpenOptions{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a
}

func testResolve(t *testing.T, baked bool) {
	t.Helper()
	a := buildOpen(t, `{"name":"hello"}`, baked)
	entries, err := a.Strings()
	if err != nil {
		t.Fatalf("Strings: %v", err)
	}

	idx, err := NewIndex(a, 0)
	if err != nil {
		t.Fatalf("NewIndex: %v", err)
	}
	for _, e := range entries {
		s, err := idx.String(e.Sid)
		if err != nil {
			t.Fatalf("String(%d): %v", e.Sid, err)
		}
		if s != e.String {
			t.Errorf("String(%d) = %q, want %q", e.Sid, s, e.String)
		}
	}
	// Second pass should hit the cache.
	for _, e := range entries {
		if _, err := idx.String(e.Sid); err != nil {
			t.Fatalf("String(%d) second pass: %v", e.Sid, err)
		}
	}
	hits, misses, _ := idx.Stats()
	if hits == 0 {
		t.Errorf("expected at least one cache hit, got hits=%d misses=%d", hits, misses)
	}
}

func TestIndexResolveBaked(t *testing.T)   { testResolve(t, true) }
func TestIndexResolveUnbaked(t *testing.T) { testResolve(t, false) }
