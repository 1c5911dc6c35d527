package iter

import (
	"github.com/carbonfmt/carbon"
	"github.com/carbonfmt/carbon/archive"
)

// CollectionIter walks an object-array property group: one entry per
// array-of-objects property, each exposing its ColumnGroup (spec.md §3,
// §4.9 "next_column_group").
type CollectionIter struct {
	a            *archive.Archive
	keys         []uint64
	groupOffsets []uint64
	cursor       int
}

func newCollectionIter(a *archive.Archive, off uint64) (*CollectionIter, error) {
	data := a.Bytes()
	hdr, err := carbon.DecodePropGroupHeader(data[off:])
	if err != nil {
		return nil, err
	}
	n := int(hdr.Count)
	cur := off + uint64(carbon.PropGroupHeaderSize)

	keys := make([]uint64, n)
	for i := 0; i < n; i++ {
		keys[i] = carbon.LE64(data[cur : cur+8])
		cur += 8
	}
	base := uint64(a.RecordTableStart())
	groupOffsets := make([]uint64, n)
	for i := 0; i < n; i++ {
		rel := carbon.LE64(data[cur : cur+8])
		groupOffsets[i] = base + rel
		cur += 8
	}
	return &CollectionIter{a: a, keys: keys, groupOffsets: groupOffsets, cursor: -1}, nil
}

// Next advances to the next array-of-objects property.
func (c *CollectionIter) Next() bool {
	c.cursor++
	return c.cursor < len(c.groupOffsets)
}

// Key returns the current property's key sid.
func (c *CollectionIter) Key() uint64 { return c.keys[c.cursor] }

// ColumnGroup opens the current property's column group.
func (c *CollectionIter) ColumnGroup() (*ColumnGroupView, error) {
	return newColumnGroupView(c.a, c.groupOffsets[c.cursor])
}

// ColumnGroupView exposes one array-of-objects property's columnar
// decomposition: the member object ids, each (key, type) column, and any
// nested array-of-objects property found among the member objects
// (spec.md §4.4 step 3, recursive case).
type ColumnGroupView struct {
	a             *archive.Archive
	ObjectIDs     []uint64
	columnOffsets []uint64
	nestedOffsets []uint64
}

func newColumnGroupView(a *archive.Archive, off uint64) (*ColumnGroupView, error) {
	data := a.Bytes()
	hdr, err := carbon.DecodeColumnGroupHeader(data[off:])
	if err != nil {
		return nil, err
	}
	cur := off + uint64(carbon.ColumnGroupHeaderSize)
	objectIDs := make([]uint64, hdr.NumObjects)
	for i := range objectIDs {
		objectIDs[i] = carbon.LE64(data[cur : cur+8])
		cur += 8
	}
	base := uint64(a.RecordTableStart())
	columnOffsets := make([]uint64, hdr.NumColumns)
	for i := range columnOffsets {
		rel := carbon.LE64(data[cur : cur+8])
		columnOffsets[i] = base + rel
		cur += 8
	}
	nestedOffsets := make([]uint64, hdr.NumNestedGroups)
	for i := range nestedOffsets {
		rel := carbon.LE64(data[cur : cur+8])
		nestedOffsets[i] = base + rel
		cur += 8
	}
	return &ColumnGroupView{a: a, ObjectIDs: objectIDs, columnOffsets: columnOffsets, nestedOffsets: nestedOffsets}, nil
}

// NumColumns returns the number of columns in the group.
func (cg *ColumnGroupView) NumColumns() int { return len(cg.columnOffsets) }

// Column opens the i-th column, in the sorted-key-order the serializer
// wrote them in (spec.md §4.5).
func (cg *ColumnGroupView) Column(i int) (*ColumnView, error) {
	return newColumnView(cg.a, cg.columnOffsets[i])
}

// NumNestedGroups returns the number of nested array-of-objects
// properties found among this group's member objects.
func (cg *ColumnGroupView) NumNestedGroups() int { return len(cg.nestedOffsets) }

// NestedGroup opens the i-th nested group, in the sorted-key-order the
// serializer wrote them in.
func (cg *ColumnGroupView) NestedGroup(i int) (*NestedColumnGroupView, error) {
	return newNestedColumnGroupView(cg.a, cg.nestedOffsets[i])
}

// NestedColumnGroupView exposes one nested array-of-objects property
// collected across a column group's member objects: the subset of source
// indices that carried it, and each one's own ColumnGroupView.
type NestedColumnGroupView struct {
	a             *archive.Archive
	KeySid        uint64
	SourceIndices []uint32
	groupOffsets  []uint64
}

func newNestedColumnGroupView(a *archive.Archive, off uint64) (*NestedColumnGroupView, error) {
	data := a.Bytes()
	hdr, err := carbon.DecodeNestedGroupHeader(data[off:])
	if err != nil {
		return nil, err
	}
	n := int(hdr.NumEntries)
	cur := off + uint64(carbon.NestedGroupHeaderSize)

	indices := make([]uint32, n)
	for i := 0; i < n; i++ {
		indices[i] = carbon.LE32(data[cur : cur+4])
		cur += 4
	}

	base := uint64(a.RecordTableStart())
	groupOffsets := make([]uint64, n)
	for i := 0; i < n; i++ {
		rel := carbon.LE64(data[cur : cur+8])
		groupOffsets[i] = base + rel
		cur += 8
	}

	return &NestedColumnGroupView{a: a, KeySid: hdr.KeySid, SourceIndices: indices, groupOffsets: groupOffsets}, nil
}

// NumEntries returns the number of member objects that carried this
// nested property.
func (ng *NestedColumnGroupView) NumEntries() int { return len(ng.groupOffsets) }

// Group opens the i-th entry's nested ColumnGroupView.
func (ng *NestedColumnGroupView) Group(i int) (*ColumnGroupView, error) {
	return newColumnGroupView(ng.a, ng.groupOffsets[i])
}

// ColumnView is one homogeneous typed array inside a column group
// (spec.md glossary). Entries are exposed in source-array index order.
// Object-typed entries expose the nested object's file-absolute offset in
// Values, for NewPropIter; every other type exposes its decoded value.
type ColumnView struct {
	KeySid        uint64
	Type          carbon.BasicType
	SourceIndices []uint32
	Values        []interface{}
}

func newColumnView(a *archive.Archive, off uint64) (*ColumnView, error) {
	data := a.Bytes()
	hdr, err := carbon.DecodeColumnHeader(data[off:])
	if err != nil {
		return nil, err
	}
	n := int(hdr.NumEntries)
	cur := off + uint64(carbon.ColumnHeaderSize)

	indices := make([]uint32, n)
	for i := 0; i < n; i++ {
		indices[i] = carbon.LE32(data[cur : cur+4])
		cur += 4
	}

	values := make([]interface{}, n)
	if hdr.ValueType == carbon.TypeObject {
		base := uint64(a.RecordTableStart())
		for i := 0; i < n; i++ {
			rel := carbon.LE64(data[cur : cur+8])
			values[i] = base + rel
			cur += 8
		}
	} else {
		for i := 0; i < n; i++ {
			v, consumed, err := archive.DecodeScalar(data[cur:], hdr.ValueType)
			if err != nil {
				return nil, err
			}
			values[i] = v
			cur += uint64(consumed)
		}
	}

	return &ColumnView{KeySid: hdr.KeySid, Type: hdr.ValueType, SourceIndices: indices, Values: values}, nil
}
