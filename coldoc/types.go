// Copyright 2024 The Carbon Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package coldoc implements the columnarizer (spec.md §4.4): it ingests a
// parsed JSON document and regroups each object's properties into
// per-type property groups and object-array column groups.
//
// The JSON tokenizer/parser itself is explicitly out-of-scope generic
// infrastructure (spec.md §1), consumed here as a black box via
// github.com/valyala/fastjson (surfaced by the AKJUS-bsc-erigon dependency
// set), which already returns a generic document tree analogous to the
// source's jak_doc.
package coldoc

import "github.com/carbonfmt/carbon"

// PropGroup is one of an object's up to 26 property groups: a run of
// properties sharing BasicType and scalar/array shape (spec.md §3).
type PropGroup struct {
	Type    carbon.BasicType
	IsArray bool

	// Keys holds the sid of each property in insertion order. Keys must
	// be unique within a single group (spec.md §3 invariant).
	Keys []uint64

	// Values[i] corresponds to Keys[i]. Its concrete type depends on
	// Type/IsArray:
	//   scalar, non-object: the Go value of the matching width
	//     (bool, int8..int64, uint8..uint64, float32, uint64 sid for
	//     string, carbon.NullSid-width null has no payload)
	//   scalar, object:     *Object (nested object)
	//   array, non-object:  a slice of the matching width, or for
	//                       TypeNull an int (element count)
	//   array, object:      never populated here — routed to
	//                       Object.ColumnGroups instead (spec.md §4.4 step 2)
	Values []interface{}
}

// Len returns the number of properties in the group.
func (g *PropGroup) Len() int { return len(g.Keys) }

// ColumnEntry is one value inside a Column, annotated with the index of
// the source object within the owning array (spec.md §3 "per-element
// source-object index").
type ColumnEntry struct {
	SourceIndex uint32
	Value       interface{} // same per-type convention as PropGroup.Values
}

// Column is a homogeneous typed array for a single (key, type) inside a
// column group (spec.md glossary).
type Column struct {
	KeySid  uint64
	Type    carbon.BasicType
	Entries []ColumnEntry
}

// ColumnGroup is the columnar decomposition of one array-of-objects
// property: one Column per distinct (nested key, type) pair that occurs
// across the array's member objects (spec.md §3, §4.4), plus one
// NestedColumnGroup per distinct array-of-objects property that occurs
// nested inside those same member objects (spec.md §4.4 step 3 applied
// recursively, e.g. `{"outer":[{"inner":[{"x":1}]}]}`).
type ColumnGroup struct {
	KeySid       uint64
	ObjectIDs    []uint64
	Columns      []Column
	NestedGroups []NestedColumnGroup
}

// NestedColumnGroupEntry is one member object's contribution to a
// NestedColumnGroup: the index of that member within the owning array
// (spec.md §3 "per-element source-object index"), and its own nested
// ColumnGroup.
type NestedColumnGroupEntry struct {
	SourceIndex uint32
	Group       ColumnGroup
}

// NestedColumnGroup collects, across a column group's member objects, the
// array-of-objects property identified by KeySid. Member objects that did
// not carry this property contribute no entry.
type NestedColumnGroup struct {
	KeySid  uint64
	Entries []NestedColumnGroupEntry
}

// Object is the columnarizer's output for one JSON object: up to 26
// PropGroups indexed by carbon.GroupIndex, plus any object-array column
// groups.
type Object struct {
	ObjectID uint64
	Groups   [carbon.NumGroups]*PropGroup
	// ColumnGroups holds one entry per array-of-objects property, in the
	// order the property first appeared.
	ColumnGroups []ColumnGroup
}

// groupFor returns (creating if needed) the PropGroup for (t, isArray).
func (o *Object) groupFor(t carbon.BasicType, isArray bool) *PropGroup {
	idx := carbon.GroupIndex(t, isArray)
	if o.Groups[idx] == nil {
		o.Groups[idx] = &PropGroup{Type: t, IsArray: isArray}
	}
	return o.Groups[idx]
}
