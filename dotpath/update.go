// Copyright 2024 The Carbon Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package dotpath

import (
	"github.com/carbonfmt/carbon"
	"github.com/carbonfmt/carbon/cdoc"
)

// Update resolves path against rev's shadow root and sets it to v, running
// inside a revise context (spec.md §4.13 "update_* runs inside a revise
// context"). If path resolves to an existing object field and v's encoded
// width does not exceed the existing value's, the field is overwritten in
// place, preserving its position; otherwise the field is removed and
// re-inserted, matching spec.md §9's "width comparison is on the encoded
// width" and §8's "replacing i32 with i16 keeps the wider slot" boundary
// behavior (modeled here as position-preserving in-place vs append-at-end,
// since this tree holds decoded values rather than a raw byte buffer).
func Update(rev *cdoc.Revision, path string, v cdoc.Value) (EvalState, error) {
	segs, err := Parse(path)
	if err != nil {
		return Internal, err
	}
	if len(segs) == 0 {
		*rev.Root() = v
		return Resolved, nil
	}

	parentSegs, last := segs[:len(segs)-1], segs[len(segs)-1]
	var parent cdoc.Value
	if len(parentSegs) == 0 {
		parent = *rev.Root()
	} else {
		res, err := evalSegments(*rev.Root(), parentSegs)
		if res.State != Resolved {
			return res.State, err
		}
		parent = res.Value
	}

	if last.IsIndex {
		switch parent.Kind {
		case cdoc.KindArray:
			if last.Index < 0 || last.Index >= len(parent.Arr.Elems) {
				return NoSuchIndex, nil
			}
			parent.Arr.Elems[last.Index] = v
			return Resolved, nil
		case cdoc.KindColumn:
			t, ok := v.BasicType()
			if !ok || t != parent.Col.Type {
				return Internal, carbon.ErrInsertTooDangerous
			}
			if last.Index < 0 || last.Index >= len(parent.Col.Values) {
				return NoSuchIndex, nil
			}
			parent.Col.Values[last.Index] = v
			return Resolved, nil
		default:
			return NotTraversable, nil
		}
	}

	if parent.Kind != cdoc.KindObject {
		return NotAnObject, nil
	}
	updateObjectField(parent.Obj, last.Key, v)
	return Resolved, nil
}

// updateObjectField implements the in-place-vs-remove+insert decision for
// a single object field.
func updateObjectField(o *cdoc.Object, key string, v cdoc.Value) {
	old, existed := o.Get(key)
	if !existed || cdoc.EncodedSize(v) <= cdoc.EncodedSize(old) {
		o.Set(key, v)
		return
	}
	o.Delete(key)
	o.Fields = append(o.Fields, cdoc.Field{Key: key, Value: v})
}
