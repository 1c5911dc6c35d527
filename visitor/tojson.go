// Copyright 2024 The Carbon Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package visitor

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/carbonfmt/carbon"
	"github.com/carbonfmt/carbon/archive"
	"github.com/carbonfmt/carbon/strid"
)

// jsonObject is an insertion-ordered JSON object under construction: the
// walk discovers keys in wire order, not sorted order, and to_json_compact
// reproduces that order (spec.md §8 Property #1).
type jsonObject struct {
	keys []string
	vals map[string]interface{}
}

func newJSONObject() *jsonObject {
	return &jsonObject{vals: map[string]interface{}{}}
}

func (o *jsonObject) set(key string, v interface{}) {
	if _, ok := o.vals[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.vals[key] = v
}

// jsonArray is a sparse, index-addressed JSON array: array-of-objects
// elements are filled in property-by-property, in whatever order their
// column entries are visited, not necessarily index order.
type jsonArray struct {
	vals []interface{}
}

func (a *jsonArray) ensure(i int) {
	for len(a.vals) <= i {
		a.vals = append(a.vals, nil)
	}
}

func (a *jsonArray) set(i int, v interface{}) {
	a.ensure(i)
	a.vals[i] = v
}

func (a *jsonArray) get(i int) interface{} {
	a.ensure(i)
	return a.vals[i]
}

// jsonBuilder is a Visitor that reconstructs a JSON value tree from a
// depth-first archive walk. It is the inverse of coldoc.FromJSON: where
// FromJSON columnarizes a JSON document into an archive, jsonBuilder
// flattens the archive's object/column-group structure back into nested
// objects and arrays (spec.md §8 Property #1,
// "to_json_compact(open(write(build(J)))) is semantically equal to J").
type jsonBuilder struct {
	root *jsonObject
}

func newJSONBuilder() *jsonBuilder {
	return &jsonBuilder{root: newJSONObject()}
}

// container returns the object living at path, creating intermediate
// object and array containers as needed. Every path the driver reports
// either names an object explicitly visited via BeforeObject (including
// array-of-objects elements, which receive no such call and so are
// created lazily here on their first property) or an array created by
// BeforeArrayOfObjects before its elements are walked.
func (b *jsonBuilder) container(path []string) *jsonObject {
	var cur interface{} = b.root
	for _, seg := range path {
		switch c := cur.(type) {
		case *jsonObject:
			v, ok := c.vals[seg]
			if !ok {
				v = newJSONObject()
				c.set(seg, v)
			}
			cur = v
		case *jsonArray:
			i, err := strconv.Atoi(seg)
			if err != nil {
				i = 0
			}
			v := c.get(i)
			if v == nil {
				v = newJSONObject()
				c.set(i, v)
			}
			cur = v
		}
	}
	return cur.(*jsonObject)
}

func (b *jsonBuilder) BeforeObject(path []string, objectID uint64) Decision {
	b.container(path)
	return Include
}

func (b *jsonBuilder) OnProperty(path []string, key string, t carbon.BasicType, isArray bool, value interface{}) {
	b.container(path).set(key, value)
}

func (b *jsonBuilder) BeforeArrayOfObjects(path []string, key string) Decision {
	obj := b.container(path)
	if _, ok := obj.vals[key]; !ok {
		obj.set(key, &jsonArray{})
	}
	return Include
}

// ToJSONCompact walks the archive's object tree starting at
// a.Header.RootObjectOffset and renders it as single-line JSON, resolving
// the same document that coldoc.FromJSON originally columnarized.
func ToJSONCompact(a *archive.Archive, idx *strid.Index) ([]byte, error) {
	b := newJSONBuilder()
	d := NewDriver(a, idx)
	if err := d.Walk(a.Header.RootObjectOffset, b); err != nil {
		return nil, fmt.Errorf("walking archive: %w", err)
	}
	var buf bytes.Buffer
	if err := writeJSONValue(&buf, b.root); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeJSONValue(buf *bytes.Buffer, v interface{}) error {
	switch vv := v.(type) {
	case nil:
		buf.WriteString("null")
	case bool:
		if vv {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case int8:
		buf.WriteString(strconv.FormatInt(int64(vv), 10))
	case int16:
		buf.WriteString(strconv.FormatInt(int64(vv), 10))
	case int32:
		buf.WriteString(strconv.FormatInt(int64(vv), 10))
	case int64:
		buf.WriteString(strconv.FormatInt(vv, 10))
	case uint8:
		buf.WriteString(strconv.FormatUint(uint64(vv), 10))
	case uint16:
		buf.WriteString(strconv.FormatUint(uint64(vv), 10))
	case uint32:
		buf.WriteString(strconv.FormatUint(uint64(vv), 10))
	case uint64:
		buf.WriteString(strconv.FormatUint(vv, 10))
	case float32:
		buf.WriteString(strconv.FormatFloat(float64(vv), 'g', -1, 32))
	case string:
		buf.WriteString(strconv.Quote(vv))
	case []bool:
		return writeJSONScalarArray(buf, len(vv), func(i int) interface{} { return vv[i] })
	case []int8:
		return writeJSONScalarArray(buf, len(vv), func(i int) interface{} { return vv[i] })
	case []int16:
		return writeJSONScalarArray(buf, len(vv), func(i int) interface{} { return vv[i] })
	case []int32:
		return writeJSONScalarArray(buf, len(vv), func(i int) interface{} { return vv[i] })
	case []int64:
		return writeJSONScalarArray(buf, len(vv), func(i int) interface{} { return vv[i] })
	case []uint8:
		return writeJSONScalarArray(buf, len(vv), func(i int) interface{} { return vv[i] })
	case []uint16:
		return writeJSONScalarArray(buf, len(vv), func(i int) interface{} { return vv[i] })
	case []uint32:
		return writeJSONScalarArray(buf, len(vv), func(i int) interface{} { return vv[i] })
	case []uint64:
		return writeJSONScalarArray(buf, len(vv), func(i int) interface{} { return vv[i] })
	case []float32:
		return writeJSONScalarArray(buf, len(vv), func(i int) interface{} { return vv[i] })
	case []string:
		return writeJSONScalarArray(buf, len(vv), func(i int) interface{} { return vv[i] })
	case int:
		// A null-array property decodes as its element count, not a
		// payload (spec.md §3 "null arrays carry no payload"); render
		// that many null elements.
		return writeJSONScalarArray(buf, vv, func(i int) interface{} { return nil })
	case *jsonObject:
		return writeJSONObject(buf, vv)
	case *jsonArray:
		return writeJSONArray(buf, vv)
	default:
		return fmt.Errorf("%w: unsupported value %T in json renderer", carbon.ErrUnsupportedType, v)
	}
	return nil
}

func writeJSONScalarArray(buf *bytes.Buffer, n int, at func(int) interface{}) error {
	buf.WriteByte('[')
	for i := 0; i < n; i++ {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeJSONValue(buf, at(i)); err != nil {
			return err
		}
	}
	buf.WriteByte(']')
	return nil
}

func writeJSONObject(buf *bytes.Buffer, o *jsonObject) error {
	buf.WriteByte('{')
	for i, k := range o.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(strconv.Quote(k))
		buf.WriteByte(':')
		if err := writeJSONValue(buf, o.vals[k]); err != nil {
			return err
		}
	}
	buf.WriteByte('}')
	return nil
}

func writeJSONArray(buf *bytes.Buffer, a *jsonArray) error {
	buf.WriteByte('[')
	for i, v := range a.vals {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeJSONValue(buf, v); err != nil {
			return err
		}
	}
	buf.WriteByte(']')
	return nil
}
