package coldoc

import (
	"testing"

	"github.com/carbonfmt/carbon"
	"github.com/carbonfmt/carbon/dict"
)

func TestFromJSONPrimitives(t *testing.T) {
	d := dict.NewSync()
	obj, err := FromJSON([]byte(`{"a":1,"b":true,"c":null}`), d)
	if err != nil {
		t.Fatalf("FromJSON: %v", err)
	}

	g := obj.Groups[carbon.GroupIndex(carbon.TypeUint8, false)]
	if g == nil || g.Len() != 1 || g.Values[0].(uint8) != 1 {
		t.Fatalf("expected one uint8 property with value 1, got %+v", g)
	}
	bg := obj.Groups[carbon.GroupIndex(carbon.TypeBool, false)]
	if bg == nil || bg.Values[0].(bool) != true {
		t.Fatalf("expected bool property true, got %+v", bg)
	}
	ng := obj.Groups[carbon.GroupIndex(carbon.TypeNull, false)]
	if ng == nil || ng.Len() != 1 {
		t.Fatalf("expected one null property, got %+v", ng)
	}
}

func TestFromJSONArray(t *testing.T) {
	d := dict.NewSync()
	obj, err := FromJSON([]byte(`{"xs":[1,2,3]}`), d)
	if err != nil {
		t.Fatalf("FromJSON: %v", err)
	}
	g := obj.Groups[carbon.GroupIndex(carbon.TypeUint8, true)]
	if g == nil {
		t.Fatal("expected a uint8 array group")
	}
	vals := g.Values[0].([]uint8)
	if len(vals) != 3 || vals[0] != 1 || vals[1] != 2 || vals[2] != 3 {
		t.Fatalf("got %v, want [1 2 3]", vals)
	}
}

func TestFromJSONColumnGroup(t *testing.T) {
	d := dict.NewSync()
	obj, err := FromJSON([]byte(`{"os":[{"a":1},{"a":2,"b":"x"}]}`), d)
	if err != nil {
		t.Fatalf("FromJSON: %v", err)
	}
	if len(obj.ColumnGroups) != 1 {
		t.Fatalf("expected 1 column group, got %d", len(obj.ColumnGroups))
	}
	cg := obj.ColumnGroups[0]
	if len(cg.ObjectIDs) != 2 {
		t.Fatalf("expected 2 object ids, got %d", len(cg.ObjectIDs))
	}
	if len(cg.Columns) != 2 {
		t.Fatalf("expected 2 columns (a, b), got %d", len(cg.Columns))
	}
	var aCol, bCol *Column
	for i := range cg.Columns {
		c := &cg.Columns[i]
		keys := d.Extract([]uint64{c.KeySid})
		switch keys[0] {
		case "a":
			aCol = c
		case "b":
			bCol = c
		}
	}
	if aCol == nil || len(aCol.Entries) != 2 {
		t.Fatalf("expected column a with 2 entries, got %+v", aCol)
	}
	if bCol == nil || len(bCol.Entries) != 1 || bCol.Entries[0].SourceIndex != 1 {
		t.Fatalf("expected column b with 1 entry at source index 1, got %+v", bCol)
	}
}

func TestFromJSONNestedColumnGroup(t *testing.T) {
	d := dict.NewSync()
	obj, err := FromJSON([]byte(`{"outer":[{"a":1,"inner":[{"x":5},{"x":6}]}]}`), d)
	if err != nil {
		t.Fatalf("FromJSON: %v", err)
	}
	if len(obj.ColumnGroups) != 1 {
		t.Fatalf("expected 1 outer column group, got %d", len(obj.ColumnGroups))
	}
	outer := obj.ColumnGroups[0]
	if len(outer.NestedGroups) != 1 {
		t.Fatalf("expected 1 nested group for 'inner', got %d", len(outer.NestedGroups))
	}
	ng := outer.NestedGroups[0]
	if keys := d.Extract([]uint64{ng.KeySid}); keys[0] != "inner" {
		t.Fatalf("expected nested group keyed by 'inner', got %q", keys[0])
	}
	if len(ng.Entries) != 1 || ng.Entries[0].SourceIndex != 0 {
		t.Fatalf("expected 1 nested entry at source index 0, got %+v", ng.Entries)
	}
	innerGroup := ng.Entries[0].Group
	if len(innerGroup.ObjectIDs) != 2 {
		t.Fatalf("expected inner group with 2 objects, got %d", len(innerGroup.ObjectIDs))
	}
	if len(innerGroup.Columns) != 1 {
		t.Fatalf("expected inner group with 1 column (x), got %d", len(innerGroup.Columns))
	}
	xCol := innerGroup.Columns[0]
	if len(xCol.Entries) != 2 {
		t.Fatalf("expected column x with 2 entries, got %+v", xCol.Entries)
	}
}

func TestFromJSONMixedTypeArrayRejected(t *testing.T) {
	d := dict.NewSync()
	_, err := FromJSON([]byte(`{"xs":[1,"two"]}`), d)
	if err == nil {
		t.Fatal("expected an error for a mixed-type array")
	}
}

func TestFromJSONArrayOfArraysRejected(t *testing.T) {
	d := dict.NewSync()
	_, err := FromJSON([]byte(`{"xs":[[1],[2]]}`), d)
	if err == nil {
		t.Fatal("expected an error for an array of arrays")
	}
}
