// Copyright 2024 The Carbon Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package dotpath

import "github.com/carbonfmt/carbon/cdoc"

// EvalState is the outcome of evaluating a dot-path against a document
// (spec.md §4.13).
type EvalState int

const (
	Resolved EvalState = iota
	EmptyDoc
	NoSuchIndex
	NoSuchKey
	NotTraversable
	NoContainer
	NotAnObject
	NoNesting
	Internal
)

// String implements fmt.Stringer for diagnostics.
func (s EvalState) String() string {
	switch s {
	case Resolved:
		return "RESOLVED"
	case EmptyDoc:
		return "EMPTY_DOC"
	case NoSuchIndex:
		return "NOSUCHINDEX"
	case NoSuchKey:
		return "NOSUCHKEY"
	case NotTraversable:
		return "NOTTRAVERSABLE"
	case NoContainer:
		return "NOCONTAINER"
	case NotAnObject:
		return "NOTANOBJECT"
	case NoNesting:
		return "NONESTING"
	default:
		return "INTERNAL"
	}
}

// Result is the typed handle produced by Find.
type Result struct {
	State EvalState
	Value cdoc.Value
}

// Find resolves path against root (spec.md §4.13 "find produces a typed
// handle on the resolved node").
func Find(root cdoc.Value, path string) (Result, error) {
	segs, err := Parse(path)
	if err != nil {
		return Result{State: Internal}, err
	}
	if len(segs) == 0 {
		return Result{State: Resolved, Value: root}, nil
	}
	return evalSegments(root, segs)
}

func evalSegments(cur cdoc.Value, segs []Segment) (Result, error) {
	for i, seg := range segs {
		next, state, err := step(cur, seg, i == 0)
		if state != Resolved {
			return Result{State: state}, err
		}
		cur = next
	}
	return Result{State: Resolved, Value: cur}, nil
}

// step resolves one segment against cur, returning the child value and an
// EvalState describing why resolution stopped if it did not succeed. atRoot
// is true while resolving the first segment, the only point at which an
// empty object is the document itself rather than some empty sub-object
// reached partway down the path.
func step(cur cdoc.Value, seg Segment, atRoot bool) (cdoc.Value, EvalState, error) {
	if seg.IsIndex {
		switch cur.Kind {
		case cdoc.KindArray:
			if seg.Index < 0 || seg.Index >= len(cur.Arr.Elems) {
				return cdoc.Value{}, NoSuchIndex, nil
			}
			return cur.Arr.Elems[seg.Index], Resolved, nil
		case cdoc.KindColumn:
			v, err := cur.Col.At(seg.Index)
			if err != nil {
				return cdoc.Value{}, NoSuchIndex, nil
			}
			return v, Resolved, nil
		case cdoc.KindNull:
			// Nothing was ever stored here, as opposed to NotTraversable
			// below where a concrete non-container value is in the way.
			return cdoc.Value{}, NoContainer, nil
		default:
			return cdoc.Value{}, NotTraversable, nil
		}
	}

	if cur.Kind != cdoc.KindObject {
		if cur.Kind == cdoc.KindArray || cur.Kind == cdoc.KindColumn {
			return cdoc.Value{}, NoNesting, nil
		}
		return cdoc.Value{}, NotAnObject, nil
	}
	if atRoot && len(cur.Obj.Fields) == 0 {
		return cdoc.Value{}, EmptyDoc, nil
	}
	v, ok := cur.Obj.Get(seg.Key)
	if !ok {
		return cdoc.Value{}, NoSuchKey, nil
	}
	return v, Resolved, nil
}
