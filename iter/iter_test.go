package iter

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/carbonfmt/carbon"
	"github.com/carbonfmt/carbon/archive"
)

func openArchive(t *testing.T, json string) *archive.Archive {
	t.Helper()
	data, err := archive.Build([]byte(json), archive.BuildOptions{})
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

func TestPropIterPrimitives(t *testing.T) {
	a := openArchive(t, `{"a":1,"b":true,"c":null}`)
	it, err := NewPropIter(a, a.Header.RootObjectOffset)
	if err != nil {
		t.Fatalf("NewPropIter: %v", err)
	}

	seen := map[carbon.BasicType]int{}
	for it.Next(MaskAny) {
		typ, isArray := it.Type()
		if isArray {
			t.Fatalf("unexpected array group for type %s", typ)
		}
		vv, err := it.Group()
		if err != nil {
			t.Fatalf("Group: %v", err)
		}
		seen[typ] = vv.Len()
	}
	if seen[carbon.TypeUint8] != 1 || seen[carbon.TypeBool] != 1 || seen[carbon.TypeNull] != 1 {
		t.Fatalf("unexpected group counts: %+v", seen)
	}
}

func TestPropIterArray(t *testing.T) {
	a := openArchive(t, `{"xs":[1,2,3]}`)
	it, err := NewPropIter(a, a.Header.RootObjectOffset)
	if err != nil {
		t.Fatalf("NewPropIter: %v", err)
	}
	found := false
	for it.Next(MaskAny) {
		typ, isArray := it.Type()
		if typ == carbon.TypeUint8 && isArray {
			found = true
			vv, err := it.Group()
			if err != nil {
				t.Fatalf("Group: %v", err)
			}
			vals := vv.Values[0].([]uint8)
			if len(vals) != 3 || vals[0] != 1 || vals[1] != 2 || vals[2] != 3 {
				t.Fatalf("got %v, want [1 2 3]", vals)
			}
		}
	}
	if !found {
		t.Fatal("expected a uint8 array group")
	}
}

func TestPropIterNestedObject(t *testing.T) {
	a := openArchive(t, `{"child":{"a":1}}`)
	it, err := NewPropIter(a, a.Header.RootObjectOffset)
	if err != nil {
		t.Fatalf("NewPropIter: %v", err)
	}
	var childOff uint64
	for it.Next(MaskAny) {
		typ, isArray := it.Type()
		if typ == carbon.TypeObject && !isArray {
			vv, err := it.Group()
			if err != nil {
				t.Fatalf("Group: %v", err)
			}
			childOff = vv.Values[0].(uint64)
		}
	}
	if childOff == 0 {
		t.Fatal("expected a nested object offset")
	}

	childIt, err := NewPropIter(a, childOff)
	if err != nil {
		t.Fatalf("NewPropIter(child): %v", err)
	}
	found := false
	for childIt.Next(MaskAny) {
		typ, isArray := childIt.Type()
		if typ == carbon.TypeUint8 && !isArray {
			found = true
		}
	}
	if !found {
		t.Fatal("expected child object to expose its uint8 property")
	}
}

func TestPropIterMaskFiltersByKindAndType(t *testing.T) {
	a := openArchive(t, `{"a":1,"b":true,"xs":[1,2,3]}`)

	it, err := NewPropIter(a, a.Header.RootObjectOffset)
	if err != nil {
		t.Fatalf("NewPropIter: %v", err)
	}
	primitivesOnly := Mask{Kind: KindPrimitives, Type: TypeMaskAny}
	var sawArray bool
	count := 0
	for it.Next(primitivesOnly) {
		count++
		if _, isArray := it.Type(); isArray {
			sawArray = true
		}
	}
	if sawArray {
		t.Fatal("KindPrimitives mask should never yield an array group")
	}
	if count != 2 {
		t.Fatalf("expected 2 primitive groups (uint8, bool), got %d", count)
	}

	it, err = NewPropIter(a, a.Header.RootObjectOffset)
	if err != nil {
		t.Fatalf("NewPropIter: %v", err)
	}
	arraysOnly := Mask{Kind: KindArrays, Type: TypeMaskAny}
	found := false
	for it.Next(arraysOnly) {
		typ, isArray := it.Type()
		if !isArray {
			t.Fatalf("KindArrays mask yielded a scalar group of type %s", typ)
		}
		found = true
	}
	if !found {
		t.Fatal("expected the uint8 array group under a KindArrays mask")
	}

	it, err = NewPropIter(a, a.Header.RootObjectOffset)
	if err != nil {
		t.Fatalf("NewPropIter: %v", err)
	}
	boolOnly := Mask{Kind: KindAny, Type: TypeMaskBool}
	count = 0
	for it.Next(boolOnly) {
		typ, _ := it.Type()
		if typ != carbon.TypeBool {
			t.Fatalf("TypeMaskBool mask yielded group of type %s", typ)
		}
		count++
	}
	if count != 1 {
		t.Fatalf("expected exactly 1 bool group, got %d", count)
	}
}

func TestCollectionIterColumnGroup(t *testing.T) {
	a := openArchive(t, `{"os":[{"a":1},{"a":2,"b":"x"}]}`)
	it, err := NewPropIter(a, a.Header.RootObjectOffset)
	if err != nil {
		t.Fatalf("NewPropIter: %v", err)
	}
	var ci *CollectionIter
	for it.Next(MaskAny) {
		typ, isArray := it.Type()
		if typ == carbon.TypeObject && isArray {
			ci, err = it.Collection()
			if err != nil {
				t.Fatalf("Collection: %v", err)
			}
		}
	}
	if ci == nil {
		t.Fatal("expected an object-array collection")
	}
	if !ci.Next() {
		t.Fatal("expected at least one array-of-objects property")
	}
	cg, err := ci.ColumnGroup()
	if err != nil {
		t.Fatalf("ColumnGroup: %v", err)
	}
	if len(cg.ObjectIDs) != 2 {
		t.Fatalf("expected 2 object ids, got %d", len(cg.ObjectIDs))
	}
	if cg.NumColumns() != 2 {
		t.Fatalf("expected 2 columns, got %d", cg.NumColumns())
	}

	var aCol, bCol *ColumnView
	for i := 0; i < cg.NumColumns(); i++ {
		col, err := cg.Column(i)
		if err != nil {
			t.Fatalf("Column(%d): %v", i, err)
		}
		if col.Type == carbon.TypeUint8 {
			aCol = col
		} else if col.Type == carbon.TypeString {
			bCol = col
		}
	}
	if aCol == nil || len(aCol.SourceIndices) != 2 {
		t.Fatalf("expected column a with 2 entries, got %+v", aCol)
	}
	if bCol == nil || len(bCol.SourceIndices) != 1 || bCol.SourceIndices[0] != 1 {
		t.Fatalf("expected column b with 1 entry at source index 1, got %+v", bCol)
	}
}
