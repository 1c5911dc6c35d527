package archive

import (
	"bytes"
	"sort"

	"github.com/carbonfmt/carbon"
	"github.com/carbonfmt/carbon/coldoc"
	"github.com/carbonfmt/carbon/dict"
	"github.com/carbonfmt/carbon/pack"
)

// BuildOptions configures Build. The zero value builds with a single-
// threaded dictionary, the identity packer, and no baked sid index —
// matching saferwall-pe's file.go convention of an Options struct whose
// zero value is a sane default.
type BuildOptions struct {
	// Dict, if non-nil, is used instead of constructing a fresh one. Build
	// still performs the full insert pass against it.
	Dict dict.Dictionary

	// Packer names the string-table packer ("none" or "huffman"); ""
	// defaults to "none".
	Packer string

	// BakeSidIndex writes a sid index section after the record table
	// (spec.md §4.8) so Open can load it instead of scanning the string
	// table linearly.
	BakeSidIndex bool
}

// Build columnarizes json into a single archive and returns its bytes.
func Build(json []byte, opts BuildOptions) ([]byte, error) {
	d := opts.Dict
	if d == nil {
		d = dict.NewSync()
	}
	obj, err := coldoc.FromJSON(json, d)
	if err != nil {
		return nil, err
	}

	packerName := opts.Packer
	if packerName == "" {
		packerName = "none"
	}
	packer, err := pack.ByName(packerName)
	if err != nil {
		return nil, err
	}

	entries := d.Contents()

	var out bytes.Buffer
	out.Write(make([]byte, carbon.ArchiveHeaderSize)) // patched at the end

	stEntryOffsets, err := writeStringTable(&out, entries, packer)
	if err != nil {
		return nil, err
	}

	recordTableOff := out.Len()
	rw := &recordWriter{}
	var rh carbon.RecordHeader
	rh.Marker = carbon.MarkerRecord
	rh.Flags = rh.Flags.WithSorted(false)
	rw.Reserve(carbon.RecordHeaderSize) // patched with final size below
	writeObject(rw, obj)
	rh.Size = uint64(len(rw.Bytes()) - carbon.RecordHeaderSize)
	rh.Encode(rw.Bytes()[0:carbon.RecordHeaderSize])
	out.Write(rw.Bytes())

	var sidIndexOff uint64
	if opts.BakeSidIndex {
		sidIndexOff = uint64(out.Len())
		writeSidIndex(&out, entries, stEntryOffsets)
	}

	hdr := carbon.ArchiveHeader{
		Magic:            carbon.ArchiveMagic,
		Version:          carbon.ArchiveVersion,
		RootObjectOffset: uint64(recordTableOff + carbon.RecordHeaderSize),
		SidIndexOffset:   sidIndexOff,
	}
	final := out.Bytes()
	hdr.Encode(final[0:carbon.ArchiveHeaderSize])
	return final, nil
}

// writeStringTable serializes the string-table header, the packer's extra
// section, and every entry; it returns each entry's file-absolute offset
// in dictionary (sid) order, for use by writeSidIndex.
func writeStringTable(out *bytes.Buffer, entries []dict.Entry, packer pack.Packer) ([]uint64, error) {
	hdrOff := out.Len()
	out.Write(make([]byte, carbon.StringTableHeaderSize)) // patched below

	var extra bytes.Buffer
	strs := make([]string, len(entries))
	for i, e := range entries {
		strs[i] = e.String
	}
	if err := packer.WriteExtra(&extra, strs); err != nil {
		return nil, err
	}
	out.Write(extra.Bytes())

	firstEntryOff := out.Len() - hdrOff
	offsets := make([]uint64, len(entries))
	for i, e := range entries {
		entOff := out.Len()
		offsets[i] = uint64(entOff)

		var body bytes.Buffer
		if err := packer.EncodeString(&body, e.String); err != nil {
			return nil, err
		}

		var eh carbon.StringEntryHeader
		eh.Marker = carbon.MarkerStringEntry
		eh.Sid = e.Sid
		eh.Len = uint32(len(e.String))
		if i < len(entries)-1 {
			// NextEntryOff is relative to the string-table section start,
			// matching FirstEntryOff's convention.
			eh.NextEntryOff = uint64(entOff + carbon.StringEntryHeaderSize + body.Len() - hdrOff)
		}
		var ehBuf [carbon.StringEntryHeaderSize]byte
		eh.Encode(ehBuf[:])
		out.Write(ehBuf[:])
		out.Write(body.Bytes())
	}

	sth := carbon.StringTableHeader{
		Marker:         carbon.MarkerStringDictEmbedded,
		NumEntries:     uint32(len(entries)),
		PackerFlags:    packer.Flag(),
		FirstEntryOff:  uint64(firstEntryOff),
		PackerExtraLen: uint64(extra.Len()),
	}
	var sthBuf [carbon.StringTableHeaderSize]byte
	sth.Encode(sthBuf[:])
	copy(out.Bytes()[hdrOff:hdrOff+carbon.StringTableHeaderSize], sthBuf[:])

	return offsets, nil
}

// writeSidIndex appends a flat (sid, file-absolute string-entry offset)
// table: a u32 count followed by that many (u64, u64) pairs, sorted by
// sid (spec.md §4.8 "reversible sid -> string-entry offset index").
func writeSidIndex(out *bytes.Buffer, entries []dict.Entry, offsets []uint64) {
	var b [4]byte
	putLE32(b[:], uint32(len(entries)))
	out.Write(b[:])
	for i, e := range entries {
		var pair [16]byte
		putLE64(pair[0:8], e.Sid)
		putLE64(pair[8:16], offsets[i])
		out.Write(pair[:])
	}
}

// typeFromIndex reverses carbon.GroupIndex.
func typeFromIndex(idx int) (carbon.BasicType, bool) {
	if idx < int(carbon.TypeObject)+1 {
		return carbon.BasicType(idx), false
	}
	return carbon.BasicType(idx - (int(carbon.TypeObject) + 1)), true
}

// writeObject emits one ObjectHeader, its offset table, and every present
// property group's body, returning the offset the object started at.
func writeObject(w *recordWriter, obj *coldoc.Object) int {
	selfOff := w.Offset()

	flags := carbon.ObjectFlags(0)
	for idx := 0; idx < carbon.NumGroups; idx++ {
		flags = flags.Set(idx, groupPresent(obj, idx))
	}
	hdr := carbon.ObjectHeader{Marker: carbon.MarkerObjectBegin, ObjectID: obj.ObjectID, Flags: flags}
	var hdrBuf [carbon.ObjectHeaderSize]byte
	hdr.Encode(hdrBuf[:])
	w.Write(hdrBuf[:])

	offTableOff := w.Reserve(carbon.ObjectOffsetTableSize)

	objectArrayIdx := carbon.GroupIndex(carbon.TypeObject, true)
	for idx := 0; idx < carbon.NumGroups; idx++ {
		if !flags.Has(idx) {
			continue
		}
		off := w.Offset()
		w.PatchU64(offTableOff+idx*8, uint64(off))

		if idx == objectArrayIdx {
			writeObjectArrayGroup(w, obj.ColumnGroups)
			continue
		}
		t, isArray := typeFromIndex(idx)
		writeGroup(w, t, isArray, obj.Groups[idx])
	}
	return selfOff
}

func groupPresent(obj *coldoc.Object, idx int) bool {
	if idx == carbon.GroupIndex(carbon.TypeObject, true) {
		return len(obj.ColumnGroups) > 0
	}
	g := obj.Groups[idx]
	return g != nil && g.Len() > 0
}

// writeGroup emits one scalar or array property group (spec.md §3): a
// PropGroupHeader, the group's keys, then per-shape payload.
func writeGroup(w *recordWriter, t carbon.BasicType, isArray bool, g *coldoc.PropGroup) {
	marker := t.ScalarMarker()
	if isArray {
		marker = t.ArrayMarker()
	}
	hdr := carbon.PropGroupHeader{Marker: marker, Count: uint32(g.Len())}
	var hdrBuf [carbon.PropGroupHeaderSize]byte
	hdr.Encode(hdrBuf[:])
	w.Write(hdrBuf[:])
	for _, k := range g.Keys {
		var b [8]byte
		putLE64(b[:], k)
		w.Write(b[:])
	}

	switch {
	case t == carbon.TypeNull && !isArray:
		// No payload beyond the keys.
	case t == carbon.TypeNull && isArray:
		for _, v := range g.Values {
			writeU32(w, uint32(v.(int)))
		}
	case t == carbon.TypeObject && !isArray:
		offTableOff := w.Reserve(8 * g.Len())
		for i, v := range g.Values {
			childOff := writeObject(w, v.(*coldoc.Object))
			w.PatchU64(offTableOff+i*8, uint64(childOff))
		}
	case isArray:
		for _, v := range g.Values {
			_ = encodeArray(w, t, v)
		}
	default:
		for _, v := range g.Values {
			_ = encodeScalar(w, t, v)
		}
	}
}

// writeObjectArrayGroup emits the object-array root group: a
// PropGroupHeader, one key + one offset per array-of-objects property
// (spec.md §3 "header + N keys + N column-group offsets").
func writeObjectArrayGroup(w *recordWriter, groups []coldoc.ColumnGroup) {
	hdr := carbon.PropGroupHeader{Marker: carbon.MarkerObjectArray, Count: uint32(len(groups))}
	var hdrBuf [carbon.PropGroupHeaderSize]byte
	hdr.Encode(hdrBuf[:])
	w.Write(hdrBuf[:])
	for _, cg := range groups {
		var b [8]byte
		putLE64(b[:], cg.KeySid)
		w.Write(b[:])
	}
	offTableOff := w.Reserve(8 * len(groups))
	for i := range groups {
		off := w.Offset()
		w.PatchU64(offTableOff+i*8, uint64(off))
		writeColumnGroup(w, &groups[i])
	}
}

// writeColumnGroup emits a ColumnGroupHeader, the member object ids, every
// column sorted by key sid (spec.md §4.5 "Columns within a group are
// emitted in sorted-key order"), then every nested group (also sorted by
// key sid) for member objects that themselves have an array-of-objects
// property (spec.md §4.4 step 3, recursive case).
func writeColumnGroup(w *recordWriter, cg *coldoc.ColumnGroup) {
	hdr := carbon.ColumnGroupHeader{
		Marker:          carbon.MarkerColumnGroup,
		NumColumns:      uint32(len(cg.Columns)),
		NumObjects:      uint32(len(cg.ObjectIDs)),
		NumNestedGroups: uint32(len(cg.NestedGroups)),
	}
	var hdrBuf [carbon.ColumnGroupHeaderSize]byte
	hdr.Encode(hdrBuf[:])
	w.Write(hdrBuf[:])
	for _, id := range cg.ObjectIDs {
		var b [8]byte
		putLE64(b[:], id)
		w.Write(b[:])
	}

	cols := make([]coldoc.Column, len(cg.Columns))
	copy(cols, cg.Columns)
	sort.Slice(cols, func(i, j int) bool { return cols[i].KeySid < cols[j].KeySid })

	offTableOff := w.Reserve(8 * len(cols))
	for i := range cols {
		off := w.Offset()
		w.PatchU64(offTableOff+i*8, uint64(off))
		writeColumn(w, &cols[i])
	}

	nested := make([]coldoc.NestedColumnGroup, len(cg.NestedGroups))
	copy(nested, cg.NestedGroups)
	sort.Slice(nested, func(i, j int) bool { return nested[i].KeySid < nested[j].KeySid })

	nestedOffTableOff := w.Reserve(8 * len(nested))
	for i := range nested {
		off := w.Offset()
		w.PatchU64(nestedOffTableOff+i*8, uint64(off))
		writeNestedGroup(w, &nested[i])
	}
}

// writeNestedGroup emits a NestedGroupHeader, the per-entry source-array
// indices, then each entry's nested ColumnGroup body in turn (spec.md
// §4.4 step 3, recursive case). Entries are sorted by source index, the
// same convention writeColumn uses for its entries.
func writeNestedGroup(w *recordWriter, ng *coldoc.NestedColumnGroup) {
	entries := make([]coldoc.NestedColumnGroupEntry, len(ng.Entries))
	copy(entries, ng.Entries)
	sort.Slice(entries, func(i, j int) bool { return entries[i].SourceIndex < entries[j].SourceIndex })

	hdr := carbon.NestedGroupHeader{
		Marker:     carbon.MarkerNestedGroup,
		KeySid:     ng.KeySid,
		NumEntries: uint32(len(entries)),
	}
	var hdrBuf [carbon.NestedGroupHeaderSize]byte
	hdr.Encode(hdrBuf[:])
	w.Write(hdrBuf[:])
	for _, e := range entries {
		writeU32(w, e.SourceIndex)
	}

	offTableOff := w.Reserve(8 * len(entries))
	for i, e := range entries {
		off := w.Offset()
		w.PatchU64(offTableOff+i*8, uint64(off))
		writeColumnGroup(w, &e.Group)
	}
}

// writeColumn emits a ColumnHeader, the per-entry source-array indices
// (spec.md §3 "per-element source-object index"), then the values
// themselves in the same order. Object-typed columns store a direct
// per-entry offset table to the nested objects rather than the source's
// next-offset linked chain, trading one field of indirection for O(1)
// random access to any entry — the format everywhere else in this archive
// already prefers direct offset tables over chains.
func writeColumn(w *recordWriter, col *coldoc.Column) {
	entries := make([]coldoc.ColumnEntry, len(col.Entries))
	copy(entries, col.Entries)
	sort.Slice(entries, func(i, j int) bool { return entries[i].SourceIndex < entries[j].SourceIndex })

	hdr := carbon.ColumnHeader{
		Marker:     carbon.MarkerColumn,
		KeySid:     col.KeySid,
		ValueType:  col.Type,
		NumEntries: uint32(len(entries)),
	}
	var hdrBuf [carbon.ColumnHeaderSize]byte
	hdr.Encode(hdrBuf[:])
	w.Write(hdrBuf[:])
	for _, e := range entries {
		writeU32(w, e.SourceIndex)
	}

	if col.Type == carbon.TypeObject {
		offTableOff := w.Reserve(8 * len(entries))
		for i, e := range entries {
			childOff := writeObject(w, e.Value.(*coldoc.Object))
			w.PatchU64(offTableOff+i*8, uint64(childOff))
		}
		return
	}
	for _, e := range entries {
		_ = encodeScalar(w, col.Type, e.Value)
	}
}
