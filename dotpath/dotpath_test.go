package dotpath

import (
	"testing"

	"github.com/carbonfmt/carbon"
	"github.com/carbonfmt/carbon/cdoc"
)

func TestParseSegments(t *testing.T) {
	segs, err := Parse(`a.b[2]."quoted.key"`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := []Segment{
		{Key: "a"},
		{Key: "b"},
		{Index: 2, IsIndex: true},
		{Key: "quoted.key"},
	}
	if len(segs) != len(want) {
		t.Fatalf("got %d segments, want %d: %+v", len(segs), len(want), segs)
	}
	for i := range want {
		if segs[i] != want[i] {
			t.Errorf("segment %d = %+v, want %+v", i, segs[i], want[i])
		}
	}
}

func TestParseEmptyPathIsRoot(t *testing.T) {
	segs, err := Parse("")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(segs) != 0 {
		t.Errorf("expected 0 segments for empty path, got %d", len(segs))
	}
}

func TestFindNestedObject(t *testing.T) {
	d, err := cdoc.FromJSON([]byte(`{"a":{"b":7}}`), cdoc.KeyNone, 0)
	if err != nil {
		t.Fatalf("FromJSON: %v", err)
	}
	res, err := Find(d.Root(), "a.b")
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if res.State != Resolved {
		t.Fatalf("expected Resolved, got %s", res.State)
	}
	if res.Value.Kind != cdoc.KindInt64 || res.Value.I64 != 7 {
		t.Errorf("unexpected value: %+v", res.Value)
	}
}

func TestFindNoSuchKey(t *testing.T) {
	d, err := cdoc.FromJSON([]byte(`{"a":1}`), cdoc.KeyNone, 0)
	if err != nil {
		t.Fatalf("FromJSON: %v", err)
	}
	res, _ := Find(d.Root(), "missing")
	if res.State != NoSuchKey {
		t.Errorf("expected NOSUCHKEY, got %s", res.State)
	}
}

func TestFindEmptyDoc(t *testing.T) {
	d := cdoc.CreateEmpty(cdoc.KeyNone, 0)
	res, _ := Find(d.Root(), "a")
	if res.State != EmptyDoc {
		t.Errorf("expected EMPTY_DOC, got %s", res.State)
	}
}

func TestFindNoContainer(t *testing.T) {
	d, err := cdoc.FromJSON([]byte(`{"a":null}`), cdoc.KeyNone, 0)
	if err != nil {
		t.Fatalf("FromJSON: %v", err)
	}
	res, _ := Find(d.Root(), "a[0]")
	if res.State != NoContainer {
		t.Errorf("expected NOCONTAINER, got %s", res.State)
	}
}

// TestFindColumnIndex mirrors spec.md §8 scenario S6: a column "v" of
// [10,20,30]; find("v.[1]") resolves to 20, find("v.[9]") is
// NOSUCHINDEX.
func TestFindColumnIndex(t *testing.T) {
	d := cdoc.CreateEmpty(cdoc.KeyNone, 0)
	col, err := cdoc.NewColumn(carbon.TypeUint8, 0)
	if err != nil {
		t.Fatalf("NewColumn: %v", err)
	}
	for _, n := range []uint8{10, 20, 30} {
		if err := col.Append(cdoc.Value{Kind: cdoc.KindUint8, U8: n}); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	d.Root().Obj.Set("v", cdoc.Value{Kind: cdoc.KindColumn, Col: col})

	res, err := Find(d.Root(), "v.[1]")
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if res.State != Resolved || res.Value.U8 != 20 {
		t.Fatalf("Find(v.[1]) = (%s, %+v), want (RESOLVED, 20)", res.State, res.Value)
	}

	res2, _ := Find(d.Root(), "v.[9]")
	if res2.State != NoSuchIndex {
		t.Errorf("Find(v.[9]) = %s, want NOSUCHINDEX", res2.State)
	}
}

func TestUpdateInPlacePreservesPosition(t *testing.T) {
	d, err := cdoc.FromJSON([]byte(`{"a":1,"n":300,"z":9}`), cdoc.KeyNone, 0)
	if err != nil {
		t.Fatalf("FromJSON: %v", err)
	}
	rev := cdoc.Begin(d)
	state, err := Update(rev, "n", cdoc.Value{Kind: cdoc.KindUint16, U16: 5})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if state != Resolved {
		t.Fatalf("Update state = %s, want RESOLVED", state)
	}
	if err := rev.End(0); err != nil {
		t.Fatalf("End: %v", err)
	}

	res, err := Find(d.Root(), "n")
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if res.Value.U16 != 5 {
		t.Errorf("Find(n) = %+v, want U16=5", res.Value)
	}
	// Position in field order should be unchanged: "n" remains between
	// "a" and "z".
	keys := make([]string, len(d.Root().Obj.Fields))
	for i, f := range d.Root().Obj.Fields {
		keys[i] = f.Key
	}
	if keys[1] != "n" {
		t.Errorf("expected n to stay at index 1 after in-place update, got order %v", keys)
	}
}

func TestUpdateWidensMovesToEnd(t *testing.T) {
	d, err := cdoc.FromJSON([]byte(`{"n":1,"z":9}`), cdoc.KeyNone, 0)
	if err != nil {
		t.Fatalf("FromJSON: %v", err)
	}
	// "n" decodes as KindInt64 (fastjson has no narrower int kinds); start
	// from an explicit int16 field instead so a true width increase to
	// int32 is exercised.
	d.Root().Obj.Set("n", cdoc.Value{Kind: cdoc.KindInt16, I16: 1})

	rev := cdoc.Begin(d)
	if _, err := Update(rev, "n", cdoc.Value{Kind: cdoc.KindInt32, I32: 70000}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if err := rev.End(0); err != nil {
		t.Fatalf("End: %v", err)
	}

	keys := make([]string, len(d.Root().Obj.Fields))
	for i, f := range d.Root().Obj.Fields {
		keys[i] = f.Key
	}
	if keys[len(keys)-1] != "n" {
		t.Errorf("expected widened field n to move to the end, got order %v", keys)
	}
}
