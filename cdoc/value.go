// Copyright 2024 The Carbon Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package cdoc

import "github.com/carbonfmt/carbon"

// Kind discriminates the payload a Value carries. It is richer than
// carbon.BasicType because the mutable document also has to represent
// containers and the binary/custom-binary field variants (spec.md §4.12).
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt8
	KindInt16
	KindInt32
	KindInt64
	KindUint8
	KindUint16
	KindUint32
	KindUint64
	KindFloat
	KindString
	KindBinary
	KindCustomBinary
	KindObject
	KindArray
	KindColumn
)

// Value is a tagged union holding one container-element payload. Only the
// field matching Kind is meaningful.
type Value struct {
	Kind Kind

	Bool bool
	I8   int8
	I16  int16
	I32  int32
	I64  int64
	U8   uint8
	U16  uint16
	U32  uint32
	U64  uint64
	F32  float32
	Str  string
	Bin  []byte
	Mime string // FieldBinary/FieldCustomBinary mime type

	Obj *Object
	Arr *Array
	Col *Column
}

// BasicType reports the carbon.BasicType a scalar Value corresponds to, for
// callers that need to cross-reference against the archive-side type
// system (dotpath's type/width checks). ok is false for container kinds.
func (v Value) BasicType() (carbon.BasicType, bool) {
	switch v.Kind {
	case KindNull:
		return carbon.TypeNull, true
	case KindBool:
		return carbon.TypeBool, true
	case KindInt8:
		return carbon.TypeInt8, true
	case KindInt16:
		return carbon.TypeInt16, true
	case KindInt32:
		return carbon.TypeInt32, true
	case KindInt64:
		return carbon.TypeInt64, true
	case KindUint8:
		return carbon.TypeUint8, true
	case KindUint16:
		return carbon.TypeUint16, true
	case KindUint32:
		return carbon.TypeUint32, true
	case KindUint64:
		return carbon.TypeUint64, true
	case KindFloat:
		return carbon.TypeFloat, true
	case KindString:
		return carbon.TypeString, true
	default:
		return 0, false
	}
}

// Field is one (key, value) pair inside an Object, stored in insertion
// order (spec.md §3 "keys ... in insertion order").
type Field struct {
	Key   string
	Value Value
}

// Object is an ordered, mutable key/value container.
type Object struct {
	Fields []Field
}

// NewObject returns an empty Object.
func NewObject() *Object { return &Object{} }

// indexOf returns the index of key in o.Fields, or -1.
func (o *Object) indexOf(key string) int {
	for i, f := range o.Fields {
		if f.Key == key {
			return i
		}
	}
	return -1
}

// Get returns the value stored at key.
func (o *Object) Get(key string) (Value, bool) {
	if i := o.indexOf(key); i >= 0 {
		return o.Fields[i].Value, true
	}
	return Value{}, false
}

// Set inserts key=v, or overwrites it in place if already present,
// preserving its original position (spec.md §4.13 "in-place... otherwise
// remove then insert").
func (o *Object) Set(key string, v Value) {
	if i := o.indexOf(key); i >= 0 {
		o.Fields[i].Value = v
		return
	}
	o.Fields = append(o.Fields, Field{Key: key, Value: v})
}

// Delete removes key, if present, shifting later fields left.
func (o *Object) Delete(key string) bool {
	i := o.indexOf(key)
	if i < 0 {
		return false
	}
	o.Fields = append(o.Fields[:i], o.Fields[i+1:]...)
	return true
}

// Array is an ordered, mutable, heterogeneous value list.
type Array struct {
	Elems []Value
}

// NewArray returns an empty Array.
func NewArray() *Array { return &Array{} }

// Insert places v at index idx, growing the underlying slice as needed
// (spec.md §4.12 "inserts ensure-space by growing ... and shifting bytes",
// modeled here with Go's native append/copy slice-growth semantics).
func (a *Array) Insert(idx int, v Value) error {
	if idx < 0 || idx > len(a.Elems) {
		return carbon.ErrOutOfBounds
	}
	a.Elems = append(a.Elems, Value{})
	copy(a.Elems[idx+1:], a.Elems[idx:])
	a.Elems[idx] = v
	return nil
}

// RemoveAt deletes the element at idx, shifting later elements left.
func (a *Array) RemoveAt(idx int) error {
	if idx < 0 || idx >= len(a.Elems) {
		return carbon.ErrOutOfBounds
	}
	a.Elems = append(a.Elems[:idx], a.Elems[idx+1:]...)
	return nil
}

// Column is a homogeneous, fixed-element-type array (spec.md §6 "header
// {type marker, capacity varint, count varint}"); capacity is modeled by
// Go's native slice capacity rather than a tracked field, so ensure-space
// is just append.
type Column struct {
	Type   carbon.BasicType
	Values []Value
}

// NewColumn returns an empty column of element type t, reserving capacity
// for at least capacity elements up front (spec.md CreationOptions KEEP "preserve
// container capacities").
func NewColumn(t carbon.BasicType, capacity int) (*Column, error) {
	if _, ok := ColumnMarker(t); !ok {
		return nil, carbon.ErrUnsupportedType
	}
	return &Column{Type: t, Values: make([]Value, 0, capacity)}, nil
}

// Append adds v to the column. v must carry c.Type, or
// ErrInsertTooDangerous is returned (spec.md §8 "Insert into a column whose
// element type differs ... fails with INSERT_TOO_DANGEROUS").
func (c *Column) Append(v Value) error {
	t, ok := v.BasicType()
	if !ok || t != c.Type {
		return carbon.ErrInsertTooDangerous
	}
	c.Values = append(c.Values, v)
	return nil
}

// At returns the value at idx, or NOSUCHINDEX-equivalent error.
func (c *Column) At(idx int) (Value, error) {
	if idx < 0 || idx >= len(c.Values) {
		return Value{}, carbon.ErrOutOfBounds
	}
	return c.Values[idx], nil
}

// Len returns the column's element count.
func (c *Column) Len() int { return len(c.Values) }
