// Copyright 2024 The Carbon Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package cdoc

import (
	"bytes"
	"fmt"
	"math"

	"github.com/carbonfmt/carbon"
)

// encodeValue appends the wire encoding of v to buf (spec.md §6 "container
// element framing ... a 1-byte type marker followed by the value
// encoding").
func encodeValue(buf *bytes.Buffer, v Value) error {
	switch v.Kind {
	case KindNull:
		buf.WriteByte(byte(FieldNull))
	case KindBool:
		if v.Bool {
			buf.WriteByte(byte(FieldTrue))
		} else {
			buf.WriteByte(byte(FieldFalse))
		}
	case KindInt8:
		buf.WriteByte(byte(FieldInt8))
		buf.WriteByte(byte(v.I8))
	case KindUint8:
		buf.WriteByte(byte(FieldUint8))
		buf.WriteByte(v.U8)
	case KindInt16:
		buf.WriteByte(byte(FieldInt16))
		writeLE16(buf, uint16(v.I16))
	case KindUint16:
		buf.WriteByte(byte(FieldUint16))
		writeLE16(buf, v.U16)
	case KindInt32:
		buf.WriteByte(byte(FieldInt32))
		writeLE32(buf, uint32(v.I32))
	case KindUint32:
		buf.WriteByte(byte(FieldUint32))
		writeLE32(buf, v.U32)
	case KindInt64:
		buf.WriteByte(byte(FieldInt64))
		writeLE64(buf, uint64(v.I64))
	case KindUint64:
		buf.WriteByte(byte(FieldUint64))
		writeLE64(buf, v.U64)
	case KindFloat:
		buf.WriteByte(byte(FieldFloat))
		writeLE32(buf, math.Float32bits(v.F32))
	case KindString:
		buf.WriteByte(byte(FieldString))
		writeVarintString(buf, v.Str)
	case KindBinary, KindCustomBinary:
		if v.Kind == KindBinary {
			buf.WriteByte(byte(FieldBinary))
		} else {
			buf.WriteByte(byte(FieldCustomBinary))
		}
		writeVarintString(buf, v.Mime)
		writeVarintBytes(buf, v.Bin)
	case KindObject:
		return encodeObject(buf, v.Obj)
	case KindArray:
		return encodeArray(buf, v.Arr)
	case KindColumn:
		return encodeColumn(buf, v.Col)
	default:
		return fmt.Errorf("%w: cdoc value kind %d", carbon.ErrUnsupportedType, v.Kind)
	}
	return nil
}

func encodeObject(buf *bytes.Buffer, o *Object) error {
	buf.WriteByte(byte(FieldObjectBegin))
	writeVarint(buf, uint64(len(o.Fields)))
	for _, f := range o.Fields {
		writeVarintString(buf, f.Key)
		if err := encodeValue(buf, f.Value); err != nil {
			return err
		}
	}
	buf.WriteByte(byte(FieldObjectEnd))
	return nil
}

func encodeArray(buf *bytes.Buffer, a *Array) error {
	buf.WriteByte(byte(FieldArrayBegin))
	writeVarint(buf, uint64(len(a.Elems)))
	for _, e := range a.Elems {
		if err := encodeValue(buf, e); err != nil {
			return err
		}
	}
	buf.WriteByte(byte(FieldArrayEnd))
	return nil
}

func encodeColumn(buf *bytes.Buffer, c *Column) error {
	marker, ok := ColumnMarker(c.Type)
	if !ok {
		return fmt.Errorf("%w: column of type %s", carbon.ErrUnsupportedType, c.Type)
	}
	buf.WriteByte(byte(FieldColumnBegin))
	buf.WriteByte(byte(marker))
	writeVarint(buf, uint64(cap(c.Values))) // capacity
	writeVarint(buf, uint64(len(c.Values))) // count
	for _, v := range c.Values {
		if err := encodeValue(buf, v); err != nil {
			return err
		}
	}
	return nil
}

// EncodedSize returns the on-wire byte length of v, including its marker
// and any length prefix (spec.md §9 "the width comparison is on the
// encoded width including the type marker and any length prefix").
func EncodedSize(v Value) int {
	var buf bytes.Buffer
	if err := encodeValue(&buf, v); err != nil {
		return -1
	}
	return buf.Len()
}

// decodeValue reads one marker-prefixed value from src, returning the
// value and the number of bytes consumed.
func decodeValue(src []byte) (Value, int, error) {
	if len(src) < 1 {
		return Value{}, 0, carbon.ErrCorruptPayload
	}
	m := FieldMarker(src[0])
	switch m {
	case FieldNull:
		return Value{Kind: KindNull}, 1, nil
	case FieldTrue:
		return Value{Kind: KindBool, Bool: true}, 1, nil
	case FieldFalse:
		return Value{Kind: KindBool, Bool: false}, 1, nil
	case FieldInt8:
		if len(src) < 2 {
			return Value{}, 0, carbon.ErrCorruptPayload
		}
		return Value{Kind: KindInt8, I8: int8(src[1])}, 2, nil
	case FieldUint8:
		if len(src) < 2 {
			return Value{}, 0, carbon.ErrCorruptPayload
		}
		return Value{Kind: KindUint8, U8: src[1]}, 2, nil
	case FieldInt16:
		if len(src) < 3 {
			return Value{}, 0, carbon.ErrCorruptPayload
		}
		return Value{Kind: KindInt16, I16: int16(carbon.LE16(src[1:3]))}, 3, nil
	case FieldUint16:
		if len(src) < 3 {
			return Value{}, 0, carbon.ErrCorruptPayload
		}
		return Value{Kind: KindUint16, U16: carbon.LE16(src[1:3])}, 3, nil
	case FieldInt32:
		if len(src) < 5 {
			return Value{}, 0, carbon.ErrCorruptPayload
		}
		return Value{Kind: KindInt32, I32: int32(carbon.LE32(src[1:5]))}, 5, nil
	case FieldUint32:
		if len(src) < 5 {
			return Value{}, 0, carbon.ErrCorruptPayload
		}
		return Value{Kind: KindUint32, U32: carbon.LE32(src[1:5])}, 5, nil
	case FieldInt64:
		if len(src) < 9 {
			return Value{}, 0, carbon.ErrCorruptPayload
		}
		return Value{Kind: KindInt64, I64: int64(carbon.LE64(src[1:9]))}, 9, nil
	case FieldUint64:
		if len(src) < 9 {
			return Value{}, 0, carbon.ErrCorruptPayload
		}
		return Value{Kind: KindUint64, U64: carbon.LE64(src[1:9])}, 9, nil
	case FieldFloat:
		if len(src) < 5 {
			return Value{}, 0, carbon.ErrCorruptPayload
		}
		return Value{Kind: KindFloat, F32: math.Float32frombits(carbon.LE32(src[1:5]))}, 5, nil
	case FieldString:
		s, n, err := readVarintString(src[1:])
		if err != nil {
			return Value{}, 0, err
		}
		return Value{Kind: KindString, Str: s}, 1 + n, nil
	case FieldBinary, FieldCustomBinary:
		mime, n1, err := readVarintString(src[1:])
		if err != nil {
			return Value{}, 0, err
		}
		b, n2, err := readVarintBytes(src[1+n1:])
		if err != nil {
			return Value{}, 0, err
		}
		kind := KindBinary
		if m == FieldCustomBinary {
			kind = KindCustomBinary
		}
		return Value{Kind: kind, Mime: mime, Bin: b}, 1 + n1 + n2, nil
	case FieldObjectBegin:
		o, n, err := decodeObject(src)
		if err != nil {
			return Value{}, 0, err
		}
		return Value{Kind: KindObject, Obj: o}, n, nil
	case FieldArrayBegin:
		a, n, err := decodeArray(src)
		if err != nil {
			return Value{}, 0, err
		}
		return Value{Kind: KindArray, Arr: a}, n, nil
	case FieldColumnBegin:
		c, n, err := decodeColumn(src)
		if err != nil {
			return Value{}, 0, err
		}
		return Value{Kind: KindColumn, Col: c}, n, nil
	default:
		return Value{}, 0, fmt.Errorf("%w: field marker %q", carbon.ErrUnknownMarker, byte(m))
	}
}

func decodeObject(src []byte) (*Object, int, error) {
	if len(src) < 1 || FieldMarker(src[0]) != FieldObjectBegin {
		return nil, 0, carbon.ErrCorruptPayload
	}
	off := 1
	count, n := carbon.Uvarint(src[off:])
	if n <= 0 {
		return nil, 0, carbon.ErrCorruptPayload
	}
	off += n
	o := &Object{Fields: make([]Field, 0, count)}
	for i := uint64(0); i < count; i++ {
		key, n, err := readVarintString(src[off:])
		if err != nil {
			return nil, 0, err
		}
		off += n
		v, n, err := decodeValue(src[off:])
		if err != nil {
			return nil, 0, err
		}
		off += n
		o.Fields = append(o.Fields, Field{Key: key, Value: v})
	}
	if off >= len(src) || FieldMarker(src[off]) != FieldObjectEnd {
		return nil, 0, carbon.ErrCorruptPayload
	}
	off++
	return o, off, nil
}

func decodeArray(src []byte) (*Array, int, error) {
	if len(src) < 1 || FieldMarker(src[0]) != FieldArrayBegin {
		return nil, 0, carbon.ErrCorruptPayload
	}
	off := 1
	count, n := carbon.Uvarint(src[off:])
	if n <= 0 {
		return nil, 0, carbon.ErrCorruptPayload
	}
	off += n
	a := &Array{Elems: make([]Value, 0, count)}
	for i := uint64(0); i < count; i++ {
		v, n, err := decodeValue(src[off:])
		if err != nil {
			return nil, 0, err
		}
		off += n
		a.Elems = append(a.Elems, v)
	}
	if off >= len(src) || FieldMarker(src[off]) != FieldArrayEnd {
		return nil, 0, carbon.ErrCorruptPayload
	}
	off++
	return a, off, nil
}

func decodeColumn(src []byte) (*Column, int, error) {
	if len(src) < 2 || FieldMarker(src[0]) != FieldColumnBegin {
		return nil, 0, carbon.ErrCorruptPayload
	}
	t, ok := TypeByColumnMarker(FieldMarker(src[1]))
	if !ok {
		return nil, 0, carbon.ErrUnknownMarker
	}
	off := 2
	capacity, n := carbon.Uvarint(src[off:])
	if n <= 0 {
		return nil, 0, carbon.ErrCorruptPayload
	}
	off += n
	count, n := carbon.Uvarint(src[off:])
	if n <= 0 {
		return nil, 0, carbon.ErrCorruptPayload
	}
	off += n
	c := &Column{Type: t, Values: make([]Value, 0, capacity)}
	for i := uint64(0); i < count; i++ {
		v, n, err := decodeValue(src[off:])
		if err != nil {
			return nil, 0, err
		}
		off += n
		c.Values = append(c.Values, v)
	}
	return c, off, nil
}

func writeLE16(buf *bytes.Buffer, v uint16) {
	var b [2]byte
	carbon.PutLE16(b[:], v)
	buf.Write(b[:])
}

func writeLE32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	carbon.PutLE32(b[:], v)
	buf.Write(b[:])
}

func writeLE64(buf *bytes.Buffer, v uint64) {
	var b [8]byte
	carbon.PutLE64(b[:], v)
	buf.Write(b[:])
}

func writeVarint(buf *bytes.Buffer, v uint64) {
	var b [10]byte
	n := carbon.PutUvarint(b[:], v)
	buf.Write(b[:n])
}

func writeVarintString(buf *bytes.Buffer, s string) {
	writeVarint(buf, uint64(len(s)))
	buf.WriteString(s)
}

func writeVarintBytes(buf *bytes.Buffer, b []byte) {
	writeVarint(buf, uint64(len(b)))
	buf.Write(b)
}

func readVarintString(src []byte) (string, int, error) {
	n, nn := carbon.Uvarint(src)
	if nn <= 0 {
		return "", 0, carbon.ErrCorruptPayload
	}
	if nn+int(n) > len(src) {
		return "", 0, carbon.ErrCorruptPayload
	}
	return string(src[nn : nn+int(n)]), nn + int(n), nil
}

func readVarintBytes(src []byte) ([]byte, int, error) {
	n, nn := carbon.Uvarint(src)
	if nn <= 0 {
		return nil, 0, carbon.ErrCorruptPayload
	}
	if nn+int(n) > len(src) {
		return nil, 0, carbon.ErrCorruptPayload
	}
	out := make([]byte, n)
	copy(out, src[nn:nn+int(n)])
	return out, nn + int(n), nil
}
