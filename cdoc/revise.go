// Copyright 2024 The Carbon Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package cdoc

import (
	"bytes"
	"fmt"

	"github.com/carbonfmt/carbon"
)

// Revision is a transient handle owning a shadow copy of a Document while
// mutations are applied (spec.md §4.12 steps 1-4, glossary "Revise
// context"). The zero value is not usable; obtain one via Begin/TryBegin.
type Revision struct {
	doc    *Document
	shadow Value
	opts   Options
	done   bool
}

// TryBegin attempts to acquire doc's write lock without blocking
// (spec.md §4.12 "try_begin returns false without blocking"). ok is false
// if the lock is already held.
func TryBegin(doc *Document) (*Revision, bool) {
	if !doc.mu.TryLock() {
		return nil, false
	}
	return &Revision{doc: doc, shadow: deepCopy(doc.root), opts: doc.opts}, true
}

// Begin acquires doc's write lock, blocking until it is available
// (spec.md §4.12 step 1).
func Begin(doc *Document) *Revision {
	doc.mu.Lock()
	return &Revision{doc: doc, shadow: deepCopy(doc.root), opts: doc.opts}
}

// Root returns the shadow root, mutable in place.
func (r *Revision) Root() *Value { return &r.shadow }

// Abort discards the shadow and releases the write lock, leaving the
// original document unchanged (spec.md §4.12 step 4).
func (r *Revision) Abort() {
	if r.done {
		return
	}
	r.done = true
	r.doc.mu.Unlock()
}

// End finalizes the revision: recomputes the commit hash chained off the
// previous one, optionally compacts per opts, and publishes the shadow as
// the document's new root under the write lock before releasing it
// (spec.md §4.12 step 3). Passing opts=0 keeps the document's creation
// options.
func (r *Revision) End(opts Options) error {
	if r.done {
		return fmt.Errorf("%w: revision already ended", carbon.ErrIllegalState)
	}
	r.done = true
	defer r.doc.mu.Unlock()

	effective := opts
	if effective == 0 {
		effective = r.doc.opts
	}
	if effective&Compact != 0 {
		compact(&r.shadow)
	}

	if r.doc.keyType.HasCommitHash() {
		var buf bytes.Buffer
		if err := encodeValue(&buf, r.shadow); err != nil {
			return err
		}
		seed := r.doc.commitHash
		newHash := bernsteinHash(seed, buf.Bytes())
		if newHash == r.doc.commitHash {
			return fmt.Errorf("%w: commit hash did not advance", carbon.ErrIllegalState)
		}
		r.doc.commitHash = newHash
	}
	r.doc.root = r.shadow
	return nil
}

// deepCopy returns an independent copy of v, recursively copying
// containers so the shadow can be mutated without affecting the
// original document (spec.md §4.12 step 1 "memcpys the original's
// bytes").
func deepCopy(v Value) Value {
	switch v.Kind {
	case KindObject:
		o := &Object{Fields: make([]Field, len(v.Obj.Fields))}
		for i, f := range v.Obj.Fields {
			o.Fields[i] = Field{Key: f.Key, Value: deepCopy(f.Value)}
		}
		return Value{Kind: KindObject, Obj: o}
	case KindArray:
		a := &Array{Elems: make([]Value, len(v.Arr.Elems))}
		for i, e := range v.Arr.Elems {
			a.Elems[i] = deepCopy(e)
		}
		return Value{Kind: KindArray, Arr: a}
	case KindColumn:
		c := &Column{Type: v.Col.Type, Values: make([]Value, len(v.Col.Values), cap(v.Col.Values))}
		copy(c.Values, v.Col.Values)
		return Value{Kind: KindColumn, Col: c}
	case KindBinary, KindCustomBinary:
		b := make([]byte, len(v.Bin))
		copy(b, v.Bin)
		nv := v
		nv.Bin = b
		return nv
	default:
		return v
	}
}

// compact drops reserved container capacities (spec.md §4.12 "COMPACT —
// drop intra-container reserved capacities on commit"), reallocating each
// array's and column's backing slice to exactly its live length. Object
// field slices are recursed into but not reallocated.
func compact(v *Value) {
	switch v.Kind {
	case KindObject:
		for i := range v.Obj.Fields {
			compact(&v.Obj.Fields[i].Value)
		}
	case KindArray:
		shrunk := make([]Value, len(v.Arr.Elems))
		copy(shrunk, v.Arr.Elems)
		v.Arr.Elems = shrunk
		for i := range v.Arr.Elems {
			compact(&v.Arr.Elems[i])
		}
	case KindColumn:
		shrunk := make([]Value, len(v.Col.Values))
		copy(shrunk, v.Col.Values)
		v.Col.Values = shrunk
	}
}
