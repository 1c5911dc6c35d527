package archive

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/carbonfmt/carbon"
)

func buildAndOpen(t *testing.T, json string, opts BuildOptions) *Archive {
	t.Helper()
	data, err := Build([]byte(json), opts)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	path := filepath.Join(t.TempDir(), "doc.carbon")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	a, err := Open(path, OpenOptions{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a
}

func TestBuildOpenHeader(t *testing.T) {
	a := buildAndOpen(t, `{"a":1,"b":true,"c":null}`, BuildOptions{})
	if a.Header.Magic != carbon.ArchiveMagic {
		t.Fatalf("bad magic: %v", a.Header.Magic)
	}
	if a.Header.Version != carbon.ArchiveVersion {
		t.Fatalf("bad version: %d", a.Header.Version)
	}

	root := a.RootObject()
	oh, err := carbon.DecodeObjectHeader(root)
	if err != nil {
		t.Fatalf("DecodeObjectHeader: %v", err)
	}
	if oh.Marker != carbon.MarkerObjectBegin {
		t.Fatalf("bad object marker: %v", oh.Marker)
	}
	if !oh.Flags.Has(carbon.GroupIndex(carbon.TypeUint8, false)) {
		t.Fatal("expected uint8 scalar group flag set")
	}
	if !oh.Flags.Has(carbon.GroupIndex(carbon.TypeBool, false)) {
		t.Fatal("expected bool scalar group flag set")
	}
	if !oh.Flags.Has(carbon.GroupIndex(carbon.TypeNull, false)) {
		t.Fatal("expected null scalar group flag set")
	}
}

func TestBuildOpenStringTableRoundTrip(t *testing.T) {
	a := buildAndOpen(t, `{"name":"hello","nested":{"name":"world"}}`, BuildOptions{})
	entries, err := a.Strings()
	if err != nil {
		t.Fatalf("Strings: %v", err)
	}
	seen := map[string]bool{}
	for _, e := range entries {
		seen[e.String] = true
	}
	for _, want := range []string{"name", "hello", "nested", "world"} {
		if !seen[want] {
			t.Errorf("missing string %q in string table, got %+v", want, entries)
		}
	}
}

func TestBuildOpenHuffmanPacker(t *testing.T) {
	a := buildAndOpen(t, `{"a":"aaa","b":"aab"}`, BuildOptions{Packer: "huffman"})
	entries, err := a.Strings()
	if err != nil {
		t.Fatalf("Strings: %v", err)
	}
	if len(entries) == 0 {
		t.Fatal("expected at least one string table entry")
	}
}

func TestBuildOpenSidIndex(t *testing.T) {
	a := buildAndOpen(t, `{"a":1}`, BuildOptions{BakeSidIndex: true})
	if a.Header.SidIndexOffset == 0 {
		t.Fatal("expected a non-zero sid index offset")
	}
	entries, err := a.Strings()
	if err != nil {
		t.Fatalf("Strings: %v", err)
	}
	for _, e := range entries {
		off, ok := a.SidOffset(e.Sid)
		if !ok {
			t.Fatalf("sid %d missing from baked index", e.Sid)
		}
		s, sid, err := a.DecodeStringAt(off)
		if err != nil {
			t.Fatalf("DecodeStringAt: %v", err)
		}
		if s != e.String || sid != e.Sid {
			t.Errorf("got (%q, %d), want (%q, %d)", s, sid, e.String, e.Sid)
		}
	}
}

func TestBuildColumnGroupRoundTrip(t *testing.T) {
	a := buildAndOpen(t, `{"os":[{"a":1},{"a":2,"b":"x"}]}`, BuildOptions{})
	root := a.RootObject()
	oh, err := carbon.DecodeObjectHeader(root)
	if err != nil {
		t.Fatalf("DecodeObjectHeader: %v", err)
	}
	if !oh.Flags.Has(carbon.GroupIndex(carbon.TypeObject, true)) {
		t.Fatal("expected object-array group flag set")
	}
}
