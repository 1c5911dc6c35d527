// Copyright 2024 The Carbon Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package cdoc implements the mutable Carbon document (spec.md §4.12): a
// binary format mirror supporting in-place update/insert/delete behind a
// revise/commit protocol, independent of the read-only archive package.
package cdoc

import "github.com/carbonfmt/carbon"

// KeyType selects the key variant a Carbon record carries (spec.md §4.12,
// §6 "one of '?','*','+','-','!'").
type KeyType byte

const (
	KeyNone       KeyType = '?' // no key
	KeyAutoU64    KeyType = '*' // u64, assigned at creation
	KeyUserU64    KeyType = '+' // u64, supplied by caller
	KeyUserI64    KeyType = '-' // i64, supplied by caller
	KeyUserString KeyType = '!' // string, supplied by caller
)

// HasCommitHash reports whether records of this key type carry a commit
// hash field (spec.md §4.12 "followed by ... a 64-bit commit hash, unless
// no-key").
func (k KeyType) HasCommitHash() bool { return k != KeyNone }

// FieldMarker is the one-byte tag preceding every container element and
// every field value (spec.md §6 "a 1-byte type marker").
type FieldMarker byte

const (
	FieldNull   FieldMarker = 'n'
	FieldTrue   FieldMarker = 't'
	FieldFalse  FieldMarker = 'z'
	FieldInt8   FieldMarker = '1'
	FieldInt16  FieldMarker = '2'
	FieldInt32  FieldMarker = '4'
	FieldInt64  FieldMarker = '8'
	FieldUint8  FieldMarker = 'u'
	FieldUint16 FieldMarker = 'v'
	FieldUint32 FieldMarker = 'w'
	FieldUint64 FieldMarker = 'x'
	FieldFloat  FieldMarker = 'f'

	FieldString       FieldMarker = 's' // varint length prefix + UTF-8 bytes
	FieldBinary       FieldMarker = 'y' // varint mime-type length + mime + varint payload length + bytes
	FieldCustomBinary FieldMarker = 'Y' // as FieldBinary, with a caller-supplied mime type

	FieldObjectBegin FieldMarker = '{'
	FieldObjectEnd   FieldMarker = '}'
	FieldArrayBegin  FieldMarker = '['
	FieldArrayEnd    FieldMarker = ']'
	FieldColumnBegin FieldMarker = 'C'

	// Column element markers, one per basic type (spec.md §4.12 "10 column
	// types"): null is not a column element type, boolean columns use
	// carbon.NullBoolColumn for their null sentinel, leaving 10 of the 13
	// basic types valid as column element types (bool + 8 ints + float;
	// string and object columns are not representable as a fixed-width
	// column and must use a variable array instead).
	FieldColumnBool   FieldMarker = 'B'
	FieldColumnInt8   FieldMarker = '!'
	FieldColumnInt16  FieldMarker = '@'
	FieldColumnInt32  FieldMarker = '$'
	FieldColumnInt64  FieldMarker = '%'
	FieldColumnUint8  FieldMarker = 'U'
	FieldColumnUint16 FieldMarker = 'V'
	FieldColumnUint32 FieldMarker = 'W'
	FieldColumnUint64 FieldMarker = 'X'
	FieldColumnFloat  FieldMarker = 'F'
)

var columnMarkerByType = map[carbon.BasicType]FieldMarker{
	carbon.TypeBool:   FieldColumnBool,
	carbon.TypeInt8:   FieldColumnInt8,
	carbon.TypeInt16:  FieldColumnInt16,
	carbon.TypeInt32:  FieldColumnInt32,
	carbon.TypeInt64:  FieldColumnInt64,
	carbon.TypeUint8:  FieldColumnUint8,
	carbon.TypeUint16: FieldColumnUint16,
	carbon.TypeUint32: FieldColumnUint32,
	carbon.TypeUint64: FieldColumnUint64,
	carbon.TypeFloat:  FieldColumnFloat,
}

var typeByColumnMarker = func() map[FieldMarker]carbon.BasicType {
	m := make(map[FieldMarker]carbon.BasicType, len(columnMarkerByType))
	for t, marker := range columnMarkerByType {
		m[marker] = t
	}
	return m
}()

// ColumnMarker returns the column-element marker for t, and ok=false if t
// cannot be stored in a column (string, object, null).
func ColumnMarker(t carbon.BasicType) (FieldMarker, bool) {
	m, ok := columnMarkerByType[t]
	return m, ok
}

// TypeByColumnMarker reverses ColumnMarker.
func TypeByColumnMarker(m FieldMarker) (carbon.BasicType, bool) {
	t, ok := typeByColumnMarker[m]
	return t, ok
}

// scalarFieldMarkerByType maps a non-container BasicType to its
// FieldMarker. encodeValue does not consult it; it writes each Kind's
// marker directly.
var scalarFieldMarkerByType = map[carbon.BasicType]FieldMarker{
	carbon.TypeBool:   FieldTrue, // encodeValue picks FieldTrue or FieldFalse per value
	carbon.TypeInt8:   FieldInt8,
	carbon.TypeInt16:  FieldInt16,
	carbon.TypeInt32:  FieldInt32,
	carbon.TypeInt64:  FieldInt64,
	carbon.TypeUint8:  FieldUint8,
	carbon.TypeUint16: FieldUint16,
	carbon.TypeUint32: FieldUint32,
	carbon.TypeUint64: FieldUint64,
	carbon.TypeFloat:  FieldFloat,
	carbon.TypeString: FieldString,
	carbon.TypeNull:   FieldNull,
}
