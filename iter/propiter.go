// Copyright 2024 The Carbon Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package iter implements the property iterator, value vector, and
// collection iterator (spec.md §4.7-§4.9), read directly off an opened
// archive's mapped bytes rather than through any intermediate decoded
// tree.
//
// PropIter's state machine is grounded on original_source's
// archive_iter.c: prop_cursor walks NG5_PROP_ITER_STATE_INIT through
// NG5_PROP_ITER_STATE_OBJECT_ARRAYS (27 states, one per property-group
// kind plus the initial state) before reaching DONE, skipping any state
// whose group is absent from the object (offset_by_state /
// prop_iter_state_next).
package iter

import (
	"fmt"

	"github.com/carbonfmt/carbon"
	"github.com/carbonfmt/carbon/archive"
)

// stateInit and stateDone bookend the 26 per-group states (cursor values
// 0..carbon.NumGroups-1), mirroring NG5_PROP_ITER_STATE_INIT/_DONE.
const (
	stateInit = -1
	stateDone = carbon.NumGroups
)

// Kind is the kind axis of a property-iterator mask (spec.md §4.7): scalar
// property groups, array property groups, or both.
type Kind uint8

const (
	KindPrimitives Kind = 1 << iota
	KindArrays
)

// KindAny accepts both scalar and array groups.
const KindAny = KindPrimitives | KindArrays

// TypeMask is the type axis of a property-iterator mask (spec.md §4.7):
// either an individual basic-type bit or one of the named composites
// (Integer, Number, String, Boolean, Null, Object).
type TypeMask uint32

const (
	TypeMaskNull TypeMask = 1 << iota
	TypeMaskBool
	TypeMaskInt8
	TypeMaskInt16
	TypeMaskInt32
	TypeMaskInt64
	TypeMaskUint8
	TypeMaskUint16
	TypeMaskUint32
	TypeMaskUint64
	TypeMaskFloat
	TypeMaskString
	TypeMaskObject
)

// Composite type-axis masks (spec.md §4.7 "a type axis ... individual
// type bits or composite INTEGER | NUMBER | STRING | BOOLEAN | NULL |
// OBJECT").
const (
	TypeMaskInteger = TypeMaskInt8 | TypeMaskInt16 | TypeMaskInt32 | TypeMaskInt64 |
		TypeMaskUint8 | TypeMaskUint16 | TypeMaskUint32 | TypeMaskUint64
	TypeMaskNumber  = TypeMaskInteger | TypeMaskFloat
	TypeMaskBoolean = TypeMaskBool
	TypeMaskAny     = TypeMaskNull | TypeMaskBool | TypeMaskInt8 | TypeMaskInt16 | TypeMaskInt32 | TypeMaskInt64 |
		TypeMaskUint8 | TypeMaskUint16 | TypeMaskUint32 | TypeMaskUint64 | TypeMaskFloat | TypeMaskString | TypeMaskObject
)

// typeMaskByBasicType maps each carbon.BasicType to its TypeMask bit.
var typeMaskByBasicType = [...]TypeMask{
	carbon.TypeNull: TypeMaskNull, carbon.TypeBool: TypeMaskBool, carbon.TypeInt8: TypeMaskInt8,
	carbon.TypeInt16: TypeMaskInt16, carbon.TypeInt32: TypeMaskInt32, carbon.TypeInt64: TypeMaskInt64,
	carbon.TypeUint8: TypeMaskUint8, carbon.TypeUint16: TypeMaskUint16, carbon.TypeUint32: TypeMaskUint32,
	carbon.TypeUint64: TypeMaskUint64, carbon.TypeFloat: TypeMaskFloat, carbon.TypeString: TypeMaskString,
	carbon.TypeObject: TypeMaskObject,
}

// Mask gates which property groups Next yields: a group is emitted iff
// both its kind (scalar/array) and its basic type are accepted (spec.md
// §4.7 "A type is emitted iff both axes accept it").
type Mask struct {
	Kind Kind
	Type TypeMask
}

// MaskAny accepts every property group, matching spec.md's scenario S1
// "Property iterator with mask=ANY".
var MaskAny = Mask{Kind: KindAny, Type: TypeMaskAny}

// accepts reports whether m permits the group identified by (t, isArray).
func (m Mask) accepts(t carbon.BasicType, isArray bool) bool {
	k := KindPrimitives
	if isArray {
		k = KindArrays
	}
	if m.Kind&k == 0 {
		return false
	}
	return m.Type&typeMaskByBasicType[t] != 0
}

// PropIter walks the up to 26 present property groups of one object, in
// the fixed group order (scalars NULLS..OBJECTS, then arrays
// NULL_ARRAYS..OBJECT_ARRAYS).
type PropIter struct {
	a            *archive.Archive
	objOffset    uint64
	header       carbon.ObjectHeader
	groupOffsets [carbon.NumGroups]uint64 // file-absolute; 0 if absent
	cursor       int
}

// NewPropIter opens a property iterator over the object whose
// ObjectHeader starts at the file-absolute offset objOffset.
func NewPropIter(a *archive.Archive, objOffset uint64) (*PropIter, error) {
	data := a.Bytes()
	if objOffset >= uint64(len(data)) {
		return nil, carbon.ErrCorruptPayload
	}
	hdr, err := carbon.DecodeObjectHeader(data[objOffset:])
	if err != nil {
		return nil, err
	}

	it := &PropIter{a: a, objOffset: objOffset, header: hdr, cursor: stateInit}
	offTableOff := objOffset + carbon.ObjectHeaderSize
	base := uint64(a.RecordTableStart())
	for i := 0; i < carbon.NumGroups; i++ {
		entryOff := offTableOff + uint64(i*8)
		if entryOff+8 > uint64(len(data)) {
			return nil, carbon.ErrCorruptPayload
		}
		rel := carbon.LE64(data[entryOff : entryOff+8])
		if rel != 0 {
			it.groupOffsets[i] = base + rel
		}
	}
	return it, nil
}

// ObjectID returns the id of the object being iterated.
func (it *PropIter) ObjectID() uint64 { return it.header.ObjectID }

// Next advances to the next present group accepted by mask, mirroring
// prop_iter_state_next's skip-if-absent fall-through chain but additionally
// skipping groups the mask's kind/type axes reject (spec.md §4.7 "a type is
// emitted iff both axes accept it"). It returns false once the DONE state
// is reached. Pass MaskAny to visit every present group, matching the prior
// unconditional behavior.
func (it *PropIter) Next(mask Mask) bool {
	for it.cursor < stateDone-1 {
		it.cursor++
		if !it.header.Flags.Has(it.cursor) {
			continue
		}
		t, isArray := typeFromIndex(it.cursor)
		if mask.accepts(t, isArray) {
			return true
		}
	}
	it.cursor = stateDone
	return false
}

// Type returns the BasicType and scalar/array shape of the current group.
func (it *PropIter) Type() (carbon.BasicType, bool) {
	return typeFromIndex(it.cursor)
}

// typeFromIndex reverses carbon.GroupIndex, mirroring archive.typeFromIndex.
func typeFromIndex(idx int) (carbon.BasicType, bool) {
	if idx < int(carbon.TypeObject)+1 {
		return carbon.BasicType(idx), false
	}
	return carbon.BasicType(idx - (int(carbon.TypeObject) + 1)), true
}

// Group opens a ValueVector over the current group's keys/values, or (for
// the object-array group) reports that Collection should be used instead.
func (it *PropIter) Group() (*ValueVector, error) {
	if it.cursor < 0 || it.cursor >= carbon.NumGroups {
		return nil, fmt.Errorf("%w: property iterator not positioned on a group", carbon.ErrIllegalState)
	}
	if it.cursor == carbon.GroupIndex(carbon.TypeObject, true) {
		return nil, fmt.Errorf("%w: object-array groups are read via Collection, not Group", carbon.ErrIllegalState)
	}
	t, isArray := it.Type()
	return newValueVector(it.a, it.groupOffsets[it.cursor], t, isArray)
}

// Collection opens a CollectionIter over the current object-array group.
// Valid only when Type() reports (TypeObject, true).
func (it *PropIter) Collection() (*CollectionIter, error) {
	idx := carbon.GroupIndex(carbon.TypeObject, true)
	if it.cursor != idx {
		return nil, fmt.Errorf("%w: not positioned on the object-array group", carbon.ErrIllegalState)
	}
	return newCollectionIter(it.a, it.groupOffsets[it.cursor])
}
