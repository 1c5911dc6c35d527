// Copyright 2024 The Carbon Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package archive implements the on-disk archive format (spec.md §6): the
// serializer that walks a coldoc.Object tree into the fixed record-table
// layout, and the mmap-backed loader that opens an archive for read.
package archive

import (
	"fmt"
	"math"

	"github.com/carbonfmt/carbon"
)

// encodeScalar appends the fixed-width on-disk form of a single scalar
// value of basic type t to w. Null carries no payload; every other type's
// width matches carbon.BasicType.FixedWidth.
func encodeScalar(w *recordWriter, t carbon.BasicType, v interface{}) error {
	switch t {
	case carbon.TypeNull:
		return nil
	case carbon.TypeBool:
		if v.(bool) {
			w.WriteByte(1)
		} else {
			w.WriteByte(0)
		}
	case carbon.TypeInt8:
		w.WriteByte(byte(v.(int8)))
	case carbon.TypeInt16:
		var b [2]byte
		putLE16(b[:], uint16(v.(int16)))
		w.Write(b[:])
	case carbon.TypeInt32:
		var b [4]byte
		putLE32(b[:], uint32(v.(int32)))
		w.Write(b[:])
	case carbon.TypeInt64:
		var b [8]byte
		putLE64(b[:], uint64(v.(int64)))
		w.Write(b[:])
	case carbon.TypeUint8:
		w.WriteByte(v.(uint8))
	case carbon.TypeUint16:
		var b [2]byte
		putLE16(b[:], v.(uint16))
		w.Write(b[:])
	case carbon.TypeUint32:
		var b [4]byte
		putLE32(b[:], v.(uint32))
		w.Write(b[:])
	case carbon.TypeUint64:
		var b [8]byte
		putLE64(b[:], v.(uint64))
		w.Write(b[:])
	case carbon.TypeFloat:
		var b [4]byte
		putLE32(b[:], math.Float32bits(v.(float32)))
		w.Write(b[:])
	case carbon.TypeString:
		var b [8]byte
		putLE64(b[:], v.(uint64))
		w.Write(b[:])
	default:
		return fmt.Errorf("%w: cannot encode scalar of type %s", carbon.ErrUnsupportedType, t)
	}
	return nil
}

// DecodeScalar reads one fixed-width scalar value of type t from the front
// of src, returning the decoded Go value and the number of bytes consumed.
func DecodeScalar(src []byte, t carbon.BasicType) (interface{}, int, error) {
	need := t.FixedWidth()
	if need < 0 {
		return nil, 0, fmt.Errorf("%w: type %s has no fixed scalar width", carbon.ErrUnsupportedType, t)
	}
	if len(src) < need {
		return nil, 0, carbon.ErrCorruptPayload
	}
	switch t {
	case carbon.TypeNull:
		return nil, 0, nil
	case carbon.TypeBool:
		return src[0] != 0, 1, nil
	case carbon.TypeInt8:
		return int8(src[0]), 1, nil
	case carbon.TypeInt16:
		return int16(le16(src)), 2, nil
	case carbon.TypeInt32:
		return int32(le32(src)), 4, nil
	case carbon.TypeInt64:
		return int64(le64(src)), 8, nil
	case carbon.TypeUint8:
		return src[0], 1, nil
	case carbon.TypeUint16:
		return le16(src), 2, nil
	case carbon.TypeUint32:
		return le32(src), 4, nil
	case carbon.TypeUint64:
		return le64(src), 8, nil
	case carbon.TypeFloat:
		return math.Float32frombits(le32(src)), 4, nil
	case carbon.TypeString:
		return le64(src), 8, nil
	default:
		return nil, 0, fmt.Errorf("%w: type %s", carbon.ErrUnsupportedType, t)
	}
}

// encodeArray appends a length-prefixed, fixed-width-packed array payload:
// a u32 element count followed by that many back-to-back fixed-width
// values (spec.md §3 "array group").
func encodeArray(w *recordWriter, t carbon.BasicType, v interface{}) error {
	switch t {
	case carbon.TypeBool:
		vals := v.([]bool)
		writeU32(w, uint32(len(vals)))
		for _, b := range vals {
			if b {
				w.WriteByte(1)
			} else {
				w.WriteByte(0)
			}
		}
	case carbon.TypeInt8:
		vals := v.([]int8)
		writeU32(w, uint32(len(vals)))
		for _, x := range vals {
			w.WriteByte(byte(x))
		}
	case carbon.TypeInt16:
		vals := v.([]int16)
		writeU32(w, uint32(len(vals)))
		for _, x := range vals {
			var b [2]byte
			putLE16(b[:], uint16(x))
			w.Write(b[:])
		}
	case carbon.TypeInt32:
		vals := v.([]int32)
		writeU32(w, uint32(len(vals)))
		for _, x := range vals {
			var b [4]byte
			putLE32(b[:], uint32(x))
			w.Write(b[:])
		}
	case carbon.TypeInt64:
		vals := v.([]int64)
		writeU32(w, uint32(len(vals)))
		for _, x := range vals {
			var b [8]byte
			putLE64(b[:], uint64(x))
			w.Write(b[:])
		}
	case carbon.TypeUint8:
		vals := v.([]uint8)
		writeU32(w, uint32(len(vals)))
		w.Write(vals)
	case carbon.TypeUint16:
		vals := v.([]uint16)
		writeU32(w, uint32(len(vals)))
		for _, x := range vals {
			var b [2]byte
			putLE16(b[:], x)
			w.Write(b[:])
		}
	case carbon.TypeUint32:
		vals := v.([]uint32)
		writeU32(w, uint32(len(vals)))
		for _, x := range vals {
			var b [4]byte
			putLE32(b[:], x)
			w.Write(b[:])
		}
	case carbon.TypeUint64:
		vals := v.([]uint64)
		writeU32(w, uint32(len(vals)))
		for _, x := range vals {
			var b [8]byte
			putLE64(b[:], x)
			w.Write(b[:])
		}
	case carbon.TypeFloat:
		vals := v.([]float32)
		writeU32(w, uint32(len(vals)))
		for _, x := range vals {
			var b [4]byte
			putLE32(b[:], math.Float32bits(x))
			w.Write(b[:])
		}
	case carbon.TypeString:
		vals := v.([]uint64)
		writeU32(w, uint32(len(vals)))
		for _, x := range vals {
			var b [8]byte
			putLE64(b[:], x)
			w.Write(b[:])
		}
	default:
		return fmt.Errorf("%w: cannot encode array of type %s", carbon.ErrUnsupportedType, t)
	}
	return nil
}

// DecodeArray mirrors encodeArray.
func DecodeArray(src []byte, t carbon.BasicType) (interface{}, int, error) {
	if len(src) < 4 {
		return nil, 0, carbon.ErrCorruptPayload
	}
	n := int(le32(src))
	off := 4
	width := t.FixedWidth()
	if width < 0 {
		return nil, 0, fmt.Errorf("%w: type %s has no fixed array width", carbon.ErrUnsupportedType, t)
	}
	if len(src) < off+n*width {
		return nil, 0, carbon.ErrCorruptPayload
	}
	switch t {
	case carbon.TypeBool:
		out := make([]bool, n)
		for i := 0; i < n; i++ {
			out[i] = src[off+i] != 0
		}
		return out, off + n*width, nil
	case carbon.TypeInt8:
		out := make([]int8, n)
		for i := 0; i < n; i++ {
			out[i] = int8(src[off+i])
		}
		return out, off + n*width, nil
	case carbon.TypeInt16:
		out := make([]int16, n)
		for i := 0; i < n; i++ {
			out[i] = int16(le16(src[off+i*2:]))
		}
		return out, off + n*width, nil
	case carbon.TypeInt32:
		out := make([]int32, n)
		for i := 0; i < n; i++ {
			out[i] = int32(le32(src[off+i*4:]))
		}
		return out, off + n*width, nil
	case carbon.TypeInt64:
		out := make([]int64, n)
		for i := 0; i < n; i++ {
			out[i] = int64(le64(src[off+i*8:]))
		}
		return out, off + n*width, nil
	case carbon.TypeUint8:
		out := make([]uint8, n)
		copy(out, src[off:off+n])
		return out, off + n*width, nil
	case carbon.TypeUint16:
		out := make([]uint16, n)
		for i := 0; i < n; i++ {
			out[i] = le16(src[off+i*2:])
		}
		return out, off + n*width, nil
	case carbon.TypeUint32:
		out := make([]uint32, n)
		for i := 0; i < n; i++ {
			out[i] = le32(src[off+i*4:])
		}
		return out, off + n*width, nil
	case carbon.TypeUint64:
		out := make([]uint64, n)
		for i := 0; i < n; i++ {
			out[i] = le64(src[off+i*8:])
		}
		return out, off + n*width, nil
	case carbon.TypeFloat:
		out := make([]float32, n)
		for i := 0; i < n; i++ {
			out[i] = math.Float32frombits(le32(src[off+i*4:]))
		}
		return out, off + n*width, nil
	case carbon.TypeString:
		out := make([]uint64, n)
		for i := 0; i < n; i++ {
			out[i] = le64(src[off+i*8:])
		}
		return out, off + n*width, nil
	default:
		return nil, 0, fmt.Errorf("%w: type %s", carbon.ErrUnsupportedType, t)
	}
}

func writeU32(w *recordWriter, v uint32) {
	var b [4]byte
	putLE32(b[:], v)
	w.Write(b[:])
}

func putLE16(b []byte, v uint16) { carbon.PutLE16(b, v) }
func putLE32(b []byte, v uint32) { carbon.PutLE32(b, v) }
func putLE64(b []byte, v uint64) { carbon.PutLE64(b, v) }
func le16(b []byte) uint16       { return carbon.LE16(b) }
func le32(b []byte) uint32       { return carbon.LE32(b) }
func le64(b []byte) uint64       { return carbon.LE64(b) }
