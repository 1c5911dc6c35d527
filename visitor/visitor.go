// Copyright 2024 The Carbon Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package visitor implements the depth-first document visitor driver
// (spec.md §4.10): it walks an archive's object tree via the iter
// package's PropIter/CollectionIter, resolving key sids to strings along
// the way, and calls back into a Visitor with a running dot-path stack.
// A before_* callback returning Exclude prunes that subtree.
package visitor

import (
	"strconv"

	"github.com/carbonfmt/carbon"
	"github.com/carbonfmt/carbon/archive"
	"github.com/carbonfmt/carbon/iter"
	"github.com/carbonfmt/carbon/strid"
)

// Decision is the result of a before_* pruning callback.
type Decision int

const (
	// Include descends into the subtree.
	Include Decision = iota
	// Exclude skips the subtree entirely.
	Exclude
)

// Visitor receives callbacks during a depth-first document walk. path
// never includes the root; it is the dot-path of keys (and array indices,
// as decimal strings) leading to the current node.
type Visitor interface {
	// BeforeObject is called on entering the root (with an empty path)
	// and every object-valued property. Members of an array-of-objects
	// get no BeforeObject call; their properties arrive through
	// OnProperty with the member's index in the path.
	BeforeObject(path []string, objectID uint64) Decision

	// OnProperty is called for every scalar or array-of-scalars property.
	OnProperty(path []string, key string, t carbon.BasicType, isArray bool, value interface{})

	// BeforeArrayOfObjects is called on entering an array-of-objects
	// property, before any of its member objects are visited.
	BeforeArrayOfObjects(path []string, key string) Decision
}

// Driver runs a depth-first walk over one archive.
type Driver struct {
	a   *archive.Archive
	idx *strid.Index
}

// NewDriver returns a Driver resolving key sids against idx.
func NewDriver(a *archive.Archive, idx *strid.Index) *Driver {
	return &Driver{a: a, idx: idx}
}

// Walk visits the object starting at objOffset (typically
// a.Header.RootObjectOffset).
func (d *Driver) Walk(objOffset uint64, v Visitor) error {
	return d.walkObject(nil, objOffset, v)
}

func (d *Driver) walkObject(path []string, objOffset uint64, v Visitor) error {
	it, err := iter.NewPropIter(d.a, objOffset)
	if err != nil {
		return err
	}
	if v.BeforeObject(path, it.ObjectID()) == Exclude {
		return nil
	}

	for it.Next(iter.MaskAny) {
		t, isArray := it.Type()
		if t == carbon.TypeObject && isArray {
			if err := d.walkCollection(path, it, v); err != nil {
				return err
			}
			continue
		}

		vv, err := it.Group()
		if err != nil {
			return err
		}
		for i, keySid := range vv.Keys {
			key, err := d.idx.String(keySid)
			if err != nil {
				return err
			}
			if t == carbon.TypeObject {
				childOff := vv.Values[i].(uint64)
				if err := d.walkObject(append(path, key), childOff, v); err != nil {
					return err
				}
				continue
			}
			resolved, err := d.resolveValue(t, isArray, vv.Values[i])
			if err != nil {
				return err
			}
			v.OnProperty(path, key, t, isArray, resolved)
		}
	}
	return nil
}

func (d *Driver) walkCollection(path []string, it *iter.PropIter, v Visitor) error {
	ci, err := it.Collection()
	if err != nil {
		return err
	}
	for ci.Next() {
		key, err := d.idx.String(ci.Key())
		if err != nil {
			return err
		}
		if v.BeforeArrayOfObjects(path, key) == Exclude {
			continue
		}
		cg, err := ci.ColumnGroup()
		if err != nil {
			return err
		}
		if err := d.walkColumnGroup(append(path, key), cg, v); err != nil {
			return err
		}
	}
	return nil
}

// resolveValue turns a string-identifier value decoded off the wire into
// the string it names, leaving every other type untouched. String scalars
// decode as a single sid (uint64); string arrays decode as []uint64.
func (d *Driver) resolveValue(t carbon.BasicType, isArray bool, value interface{}) (interface{}, error) {
	if t != carbon.TypeString {
		return value, nil
	}
	if !isArray {
		s, err := d.idx.String(value.(uint64))
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	sids := value.([]uint64)
	out := make([]string, len(sids))
	for i, sid := range sids {
		s, err := d.idx.String(sid)
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}

// walkColumnGroup reassembles each array element from its columnar
// decomposition (spec.md §3 "per-element source-object index"): for array
// index i, every column's entry whose SourceIndex equals i belongs to
// that element.
func (d *Driver) walkColumnGroup(path []string, cg *iter.ColumnGroupView, v Visitor) error {
	cols := make([]*iter.ColumnView, cg.NumColumns())
	for i := 0; i < cg.NumColumns(); i++ {
		c, err := cg.Column(i)
		if err != nil {
			return err
		}
		cols[i] = c
	}

	nested := make([]*iter.NestedColumnGroupView, cg.NumNestedGroups())
	for i := 0; i < cg.NumNestedGroups(); i++ {
		n, err := cg.NestedGroup(i)
		if err != nil {
			return err
		}
		nested[i] = n
	}

	for elemIdx := range cg.ObjectIDs {
		elemPath := append(append([]string{}, path...), strconv.Itoa(elemIdx))
		for _, col := range cols {
			for j, si := range col.SourceIndices {
				if int(si) != elemIdx {
					continue
				}
				colKey, err := d.idx.String(col.KeySid)
				if err != nil {
					return err
				}
				if col.Type == carbon.TypeObject {
					childOff := col.Values[j].(uint64)
					if err := d.walkObject(append(elemPath, colKey), childOff, v); err != nil {
						return err
					}
					continue
				}
				resolved, err := d.resolveValue(col.Type, false, col.Values[j])
				if err != nil {
					return err
				}
				v.OnProperty(elemPath, colKey, col.Type, false, resolved)
			}
		}
		// A member object's own array-of-objects property, collected
		// into ng across every member that carried it (spec.md §4.4
		// step 3, recursive case).
		for _, ng := range nested {
			for j, si := range ng.SourceIndices {
				if int(si) != elemIdx {
					continue
				}
				ngKey, err := d.idx.String(ng.KeySid)
				if err != nil {
					return err
				}
				if v.BeforeArrayOfObjects(elemPath, ngKey) == Exclude {
					continue
				}
				childGroup, err := ng.Group(j)
				if err != nil {
					return err
				}
				if err := d.walkColumnGroup(append(elemPath, ngKey), childGroup, v); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
