package carbon

// ArchiveMagic is the 9-byte file magic (spec.md §6). Grounded on the
// multi-byte signature checks of dosheader.go/ntheader.go, generalized to a
// textual magic (analogous to "MZ"/"PE00") sized for a single-pass strings.Index-free
// compare.
var ArchiveMagic = [9]byte{'M', 'P', '/', 'C', 'A', 'R', 'B', 'O', 'N'}

// ArchiveVersion is the only version this package writes and the only one
// it accepts on read (spec.md §6 "currently 1").
const ArchiveVersion uint8 = 1

// ArchiveHeaderSize is sizeof(archive_header): 9 magic + 1 version + 8 root
// offset + 8 sid-index offset.
const ArchiveHeaderSize = 9 + 1 + 8 + 8

// ArchiveHeader is the fixed, packed 26-byte file header (spec.md §6).
type ArchiveHeader struct {
	Magic             [9]byte
	Version           uint8
	RootObjectOffset  uint64
	SidIndexOffset    uint64 // 0 if absent
}

// Encode writes h into dst (must be at least ArchiveHeaderSize bytes).
func (h *ArchiveHeader) Encode(dst []byte) {
	copy(dst[0:9], h.Magic[:])
	dst[9] = h.Version
	putLE64(dst[10:18], h.RootObjectOffset)
	putLE64(dst[18:26], h.SidIndexOffset)
}

// DecodeArchiveHeader parses an ArchiveHeader from src and validates the
// magic and version, mirroring the dosheader/ntheader signature checks in
// dosheader.go.
func DecodeArchiveHeader(src []byte) (ArchiveHeader, error) {
	var h ArchiveHeader
	if len(src) < ArchiveHeaderSize {
		return h, ErrCorruptPayload
	}
	copy(h.Magic[:], src[0:9])
	if h.Magic != ArchiveMagic {
		return h, ErrBadMagic
	}
	h.Version = src[9]
	if h.Version != ArchiveVersion {
		return h, ErrVersionMismatch
	}
	h.RootObjectOffset = le64(src[10:18])
	h.SidIndexOffset = le64(src[18:26])
	return h, nil
}

// StringTableHeader precedes the string table (spec.md §6).
type StringTableHeader struct {
	Marker         Marker // MarkerStringDictEmbedded
	NumEntries     uint32
	PackerFlags    uint8
	FirstEntryOff  uint64
	PackerExtraLen uint64
}

// StringTableHeaderSize is sizeof(StringTableHeader), packed.
const StringTableHeaderSize = 1 + 4 + 1 + 8 + 8

// Encode writes h into dst.
func (h *StringTableHeader) Encode(dst []byte) {
	dst[0] = byte(h.Marker)
	putLE32(dst[1:5], h.NumEntries)
	dst[5] = h.PackerFlags
	putLE64(dst[6:14], h.FirstEntryOff)
	putLE64(dst[14:22], h.PackerExtraLen)
}

// DecodeStringTableHeader parses a StringTableHeader from src.
func DecodeStringTableHeader(src []byte) (StringTableHeader, error) {
	var h StringTableHeader
	if len(src) < StringTableHeaderSize {
		return h, ErrCorruptPayload
	}
	h.Marker = Marker(src[0])
	if h.Marker != MarkerStringDictEmbedded {
		return h, ErrUnknownMarker
	}
	h.NumEntries = le32(src[1:5])
	h.PackerFlags = src[5]
	h.FirstEntryOff = le64(src[6:14])
	h.PackerExtraLen = le64(src[14:22])
	return h, nil
}

// StringEntryHeader precedes each string-table entry (spec.md §6).
type StringEntryHeader struct {
	Marker      Marker // MarkerStringEntry
	NextEntryOff uint64 // 0 for the last entry
	Sid         uint64
	Len         uint32
}

// StringEntryHeaderSize is sizeof(StringEntryHeader), packed.
const StringEntryHeaderSize = 1 + 8 + 8 + 4

// Encode writes h into dst.
func (h *StringEntryHeader) Encode(dst []byte) {
	dst[0] = byte(h.Marker)
	putLE64(dst[1:9], h.NextEntryOff)
	putLE64(dst[9:17], h.Sid)
	putLE32(dst[17:21], h.Len)
}

// DecodeStringEntryHeader parses a StringEntryHeader from src.
func DecodeStringEntryHeader(src []byte) (StringEntryHeader, error) {
	var h StringEntryHeader
	if len(src) < StringEntryHeaderSize {
		return h, ErrCorruptPayload
	}
	h.Marker = Marker(src[0])
	if h.Marker != MarkerStringEntry {
		return h, ErrUnknownMarker
	}
	h.NextEntryOff = le64(src[1:9])
	h.Sid = le64(src[9:17])
	h.Len = le32(src[17:21])
	return h, nil
}

// RecordFlags is the 1-byte flag field of a RecordHeader. Only bit 0
// (IsSorted) is defined; the rest are reserved and must be zero on write,
// ignored on read (spec.md §9 open question).
type RecordFlags uint8

const recordFlagSorted RecordFlags = 1 << 0

// IsSorted reports whether the informational sorted-flag bit is set. The
// source never enforces sortedness from this bit; neither does this
// package (spec.md §9).
func (f RecordFlags) IsSorted() bool { return f&recordFlagSorted != 0 }

// WithSorted returns f with the sorted bit set to v.
func (f RecordFlags) WithSorted(v bool) RecordFlags {
	if v {
		return f | recordFlagSorted
	}
	return f &^ recordFlagSorted
}

// RecordHeader begins the record table (spec.md §3, §6).
type RecordHeader struct {
	Marker Marker // MarkerRecord
	Flags  RecordFlags
	Size   uint64
}

// RecordHeaderSize is sizeof(RecordHeader), packed.
const RecordHeaderSize = 1 + 1 + 8

// Encode writes h into dst.
func (h *RecordHeader) Encode(dst []byte) {
	dst[0] = byte(h.Marker)
	dst[1] = byte(h.Flags)
	putLE64(dst[2:10], h.Size)
}

// DecodeRecordHeader parses a RecordHeader from src.
func DecodeRecordHeader(src []byte) (RecordHeader, error) {
	var h RecordHeader
	if len(src) < RecordHeaderSize {
		return h, ErrCorruptPayload
	}
	h.Marker = Marker(src[0])
	if h.Marker != MarkerRecord {
		return h, ErrUnknownMarker
	}
	h.Flags = RecordFlags(src[1])
	h.Size = le64(src[2:10])
	return h, nil
}

// ObjectFlags is the 32-bit flag word of an object: bit i set means
// property group i (in GroupIndex order) is present.
type ObjectFlags uint32

// NumGroups is the number of distinct property-group kinds (13 types x 2
// shapes = 26), spec.md §3 "up to 26 property groups".
const NumGroups = 2 * numBasicTypes

// GroupIndex returns the flag-bit index for (t, isArray).
func GroupIndex(t BasicType, isArray bool) int {
	if isArray {
		return numBasicTypes + int(t)
	}
	return int(t)
}

// Has reports whether group i is present.
func (f ObjectFlags) Has(i int) bool { return f&(1<<uint(i)) != 0 }

// Set returns f with group i marked present (or absent, if v is false).
func (f ObjectFlags) Set(i int, v bool) ObjectFlags {
	if v {
		return f | ObjectFlags(1<<uint(i))
	}
	return f &^ ObjectFlags(1<<uint(i))
}

// ObjectHeader begins every object (spec.md §3).
type ObjectHeader struct {
	Marker   Marker // MarkerObjectBegin
	ObjectID uint64
	Flags    ObjectFlags
}

// ObjectHeaderSize is sizeof(ObjectHeader), packed: 1 marker + 8 id + 4 flags.
const ObjectHeaderSize = 1 + 8 + 4

// Encode writes h into dst.
func (h *ObjectHeader) Encode(dst []byte) {
	dst[0] = byte(h.Marker)
	putLE64(dst[1:9], h.ObjectID)
	putLE32(dst[9:13], uint32(h.Flags))
}

// DecodeObjectHeader parses an ObjectHeader from src.
func DecodeObjectHeader(src []byte) (ObjectHeader, error) {
	var h ObjectHeader
	if len(src) < ObjectHeaderSize {
		return h, ErrCorruptPayload
	}
	h.Marker = Marker(src[0])
	if h.Marker != MarkerObjectBegin {
		return h, ErrUnknownMarker
	}
	h.ObjectID = le64(src[1:9])
	h.Flags = ObjectFlags(le32(src[9:13]))
	return h, nil
}

// PropGroupHeader is the generic leading header shared by every property
// group shape (spec.md §3 "header {marker, entry count}"): the marker
// distinguishes the group's basic type and scalar/array shape, Count is
// the number of properties (or, for the object-array root group, the
// number of array-of-object properties) in the group.
type PropGroupHeader struct {
	Marker Marker
	Count  uint32
}

// PropGroupHeaderSize is sizeof(PropGroupHeader), packed.
const PropGroupHeaderSize = 1 + 4

// Encode writes h into dst.
func (h *PropGroupHeader) Encode(dst []byte) {
	dst[0] = byte(h.Marker)
	putLE32(dst[1:5], h.Count)
}

// DecodePropGroupHeader parses a PropGroupHeader from src.
func DecodePropGroupHeader(src []byte) (PropGroupHeader, error) {
	var h PropGroupHeader
	if len(src) < PropGroupHeaderSize {
		return h, ErrCorruptPayload
	}
	h.Marker = Marker(src[0])
	h.Count = le32(src[1:5])
	return h, nil
}

// ObjectOffsetTableSize is the size in bytes of the per-group offset table
// that follows an ObjectHeader: one u64 offset per possible group, whether
// or not that group's flag bit is set (spec.md §3 "per-group offset
// table"). Absent groups record offset 0.
const ObjectOffsetTableSize = NumGroups * 8

// ColumnGroupHeader precedes a column group inside an object-array property
// (spec.md §3, §4.4). NumColumns columns follow, each with its own
// ColumnHeader, then NumNestedGroups nested object-array groups, one per
// distinct array-of-objects property found among the column group's member
// objects (spec.md §4.4 step 3, applied recursively when a member object
// itself has an array-of-objects property).
type ColumnGroupHeader struct {
	Marker          Marker // MarkerColumnGroup
	NumColumns      uint32
	NumObjects      uint32
	NumNestedGroups uint32
}

// ColumnGroupHeaderSize is sizeof(ColumnGroupHeader), packed.
const ColumnGroupHeaderSize = 1 + 4 + 4 + 4

// Encode writes h into dst.
func (h *ColumnGroupHeader) Encode(dst []byte) {
	dst[0] = byte(h.Marker)
	putLE32(dst[1:5], h.NumColumns)
	putLE32(dst[5:9], h.NumObjects)
	putLE32(dst[9:13], h.NumNestedGroups)
}

// DecodeColumnGroupHeader parses a ColumnGroupHeader from src.
func DecodeColumnGroupHeader(src []byte) (ColumnGroupHeader, error) {
	var h ColumnGroupHeader
	if len(src) < ColumnGroupHeaderSize {
		return h, ErrCorruptPayload
	}
	h.Marker = Marker(src[0])
	if h.Marker != MarkerColumnGroup {
		return h, ErrUnknownMarker
	}
	h.NumColumns = le32(src[1:5])
	h.NumObjects = le32(src[5:9])
	h.NumNestedGroups = le32(src[9:13])
	return h, nil
}

// NestedGroupHeader precedes one nested array-of-objects property inside a
// column group (spec.md §4.4 step 3, recursive case): KeySid identifies
// the property, NumEntries is the number of member objects (by source
// index) that actually carried it — absent member objects contribute no
// entry, mirroring Column's per-key sparsity.
type NestedGroupHeader struct {
	Marker     Marker // MarkerNestedGroup
	KeySid     uint64
	NumEntries uint32
}

// NestedGroupHeaderSize is sizeof(NestedGroupHeader), packed.
const NestedGroupHeaderSize = 1 + 8 + 4

// Encode writes h into dst.
func (h *NestedGroupHeader) Encode(dst []byte) {
	dst[0] = byte(h.Marker)
	putLE64(dst[1:9], h.KeySid)
	putLE32(dst[9:13], h.NumEntries)
}

// DecodeNestedGroupHeader parses a NestedGroupHeader from src.
func DecodeNestedGroupHeader(src []byte) (NestedGroupHeader, error) {
	var h NestedGroupHeader
	if len(src) < NestedGroupHeaderSize {
		return h, ErrCorruptPayload
	}
	h.Marker = Marker(src[0])
	if h.Marker != MarkerNestedGroup {
		return h, ErrUnknownMarker
	}
	h.KeySid = le64(src[1:9])
	h.NumEntries = le32(src[9:13])
	return h, nil
}

// ColumnHeader precedes one column's entries (spec.md §3, §4.9).
type ColumnHeader struct {
	Marker     Marker // MarkerColumn
	KeySid     uint64
	ValueType  BasicType
	NumEntries uint32
}

// ColumnHeaderSize is sizeof(ColumnHeader), packed.
const ColumnHeaderSize = 1 + 8 + 1 + 4

// Encode writes h into dst.
func (h *ColumnHeader) Encode(dst []byte) {
	dst[0] = byte(h.Marker)
	putLE64(dst[1:9], h.KeySid)
	dst[9] = byte(h.ValueType)
	putLE32(dst[10:14], h.NumEntries)
}

// DecodeColumnHeader parses a ColumnHeader from src.
func DecodeColumnHeader(src []byte) (ColumnHeader, error) {
	var h ColumnHeader
	if len(src) < ColumnHeaderSize {
		return h, ErrCorruptPayload
	}
	h.Marker = Marker(src[0])
	if h.Marker != MarkerColumn {
		return h, ErrUnknownMarker
	}
	h.KeySid = le64(src[1:9])
	h.ValueType = BasicType(src[9])
	h.NumEntries = le32(src[10:14])
	return h, nil
}
