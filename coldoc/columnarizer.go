package coldoc

import (
	"encoding/binary"
	"fmt"

	"github.com/carbonfmt/carbon"
	"github.com/carbonfmt/carbon/dict"
	"github.com/google/uuid"
	"github.com/valyala/fastjson"
	"golang.org/x/sync/errgroup"
)

// newObjectID mints the 64-bit unique id every Object carries (spec.md §3
// "an object also carries a 64-bit unique id"), derived from a random UUID
// rather than a counter so ids stay unique across independently-built
// documents that are later merged.
func newObjectID() uint64 {
	id := uuid.New()
	return binary.LittleEndian.Uint64(id[:8])
}

// FromJSON parses json and columnarizes the resulting document into an
// Object tree, interning every key and string value into d.
//
// Algorithm (spec.md §4.4): keys and string values are pre-interned in one
// pass so that the columnarizing pass below only ever does map lookups,
// never dictionary round trips.
func FromJSON(json []byte, d dict.Dictionary) (*Object, error) {
	var p fastjson.Parser
	v, err := p.ParseBytes(json)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", carbon.ErrJSONParse, err)
	}
	if v.Type() != fastjson.TypeObject {
		return nil, fmt.Errorf("%w: root must be a JSON object", carbon.ErrIllegalArgument)
	}

	strs := collectStrings(v, nil)
	ids := d.Insert(strs)
	sidOf := make(map[string]uint64, len(strs))
	for i, s := range strs {
		sidOf[s] = ids[i]
	}

	return buildObject(v, sidOf)
}

// collectStrings walks v, appending every object key and string value
// (document order, duplicates allowed — the dictionary dedupes).
func collectStrings(v *fastjson.Value, out []string) []string {
	switch v.Type() {
	case fastjson.TypeObject:
		obj := v.GetObject()
		obj.Visit(func(key []byte, vv *fastjson.Value) {
			out = append(out, string(key))
			out = collectStrings(vv, out)
		})
	case fastjson.TypeArray:
		for _, e := range v.GetArray() {
			out = collectStrings(e, out)
		}
	case fastjson.TypeString:
		sb, _ := v.StringBytes()
		out = append(out, string(sb))
	}
	return out
}

func buildObject(v *fastjson.Value, sidOf map[string]uint64) (*Object, error) {
	obj := &Object{ObjectID: newObjectID()}

	var walkErr error
	o := v.GetObject()
	o.Visit(func(keyBytes []byte, val *fastjson.Value) {
		if walkErr != nil {
			return
		}
		key := string(keyBytes)
		keySid := sidOf[key]

		switch val.Type() {
		case fastjson.TypeArray:
			elems := val.GetArray()
			if err := routeArray(obj, keySid, elems, sidOf); err != nil {
				walkErr = err
			}
		case fastjson.TypeObject:
			child, err := buildObject(val, sidOf)
			if err != nil {
				walkErr = err
				return
			}
			g := obj.groupFor(carbon.TypeObject, false)
			g.Keys = append(g.Keys, keySid)
			g.Values = append(g.Values, child)
		default:
			t, value := scalarOf(val, sidOf)
			g := obj.groupFor(t, false)
			g.Keys = append(g.Keys, keySid)
			g.Values = append(g.Values, value)
		}
	})
	if walkErr != nil {
		return nil, walkErr
	}
	return obj, nil
}

// routeArray implements spec.md §4.4 step 2/3 for one array-valued
// property: arrays of primitives become an array PropGroup, arrays of
// objects become a ColumnGroup, mixed-type or nested arrays are rejected.
func routeArray(obj *Object, keySid uint64, elems []*fastjson.Value, sidOf map[string]uint64) error {
	if len(elems) == 0 {
		// An empty array has no element type to infer; record it as an
		// empty null-array so it still round-trips (spec.md §8 "Empty
		// object, empty array, and empty column are representable").
		g := obj.groupFor(carbon.TypeNull, true)
		g.Keys = append(g.Keys, keySid)
		g.Values = append(g.Values, 0)
		return nil
	}

	first := elems[0].Type()
	for _, e := range elems {
		if e.Type() != first {
			return fmt.Errorf("%w: key has mixed element types", carbon.ErrMixedTypeArray)
		}
		if e.Type() == fastjson.TypeArray {
			return fmt.Errorf("%w", carbon.ErrArrayOfArrays)
		}
	}

	if first == fastjson.TypeObject {
		return buildColumnGroup(obj, keySid, elems, sidOf)
	}

	t, values := scalarArrayOf(elems, sidOf)
	g := obj.groupFor(t, true)
	g.Keys = append(g.Keys, keySid)
	g.Values = append(g.Values, values)
	return nil
}

// buildColumnGroup implements spec.md §4.4 step 3: for an array of
// objects, compute the set of (nested key, type) pairs across all member
// objects and build one Column per pair.
func buildColumnGroup(obj *Object, keySid uint64, elems []*fastjson.Value, sidOf map[string]uint64) error {
	type colKey struct {
		sid uint64
		t   carbon.BasicType
	}
	order := []colKey{}
	seen := map[colKey]int{} // colKey -> index into order/cols
	var cols []*Column
	objectIDs := make([]uint64, len(elems))

	// Each element's subtree is independent of its siblings (sidOf is
	// read-only at this point), so the per-element columnarization fans
	// out across an errgroup rather than running strictly in sequence;
	// the column-group assembly below still walks children in original
	// index order to keep source-index assignment deterministic.
	children := make([]*Object, len(elems))
	var eg errgroup.Group
	for idx, elem := range elems {
		idx, elem := idx, elem
		eg.Go(func() error {
			child, err := buildObject(elem, sidOf)
			if err != nil {
				return err
			}
			children[idx] = child
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}

	nestedSeen := map[uint64]int{} // keySid -> index into nestedGroups
	var nestedGroups []*NestedColumnGroup

	for idx, child := range children {
		objectIDs[idx] = child.ObjectID

		for gi, g := range child.Groups {
			if g == nil || g.IsArray {
				continue // object-array-of-object-arrays is not modeled by the source either
			}
			_ = gi
			for i, ksid := range g.Keys {
				ck := colKey{sid: ksid, t: g.Type}
				ci, ok := seen[ck]
				if !ok {
					ci = len(cols)
					seen[ck] = ci
					order = append(order, ck)
					cols = append(cols, &Column{KeySid: ksid, Type: g.Type})
				}
				cols[ci].Entries = append(cols[ci].Entries, ColumnEntry{
					SourceIndex: uint32(idx),
					Value:       g.Values[i],
				})
			}
		}

		// A member object's own array-of-objects properties (spec.md
		// §4.4 step 3, recursive case) were already columnarized into
		// child.ColumnGroups by the buildObject call above; fold each
		// one into the outer group's NestedGroups instead of letting it
		// go out of scope with child.
		for _, cg := range child.ColumnGroups {
			ni, ok := nestedSeen[cg.KeySid]
			if !ok {
				ni = len(nestedGroups)
				nestedSeen[cg.KeySid] = ni
				nestedGroups = append(nestedGroups, &NestedColumnGroup{KeySid: cg.KeySid})
			}
			nestedGroups[ni].Entries = append(nestedGroups[ni].Entries, NestedColumnGroupEntry{
				SourceIndex: uint32(idx),
				Group:       cg,
			})
		}
	}

	columns := make([]Column, len(cols))
	for i, c := range cols {
		columns[i] = *c
	}
	nested := make([]NestedColumnGroup, len(nestedGroups))
	for i, ng := range nestedGroups {
		nested[i] = *ng
	}
	obj.ColumnGroups = append(obj.ColumnGroups, ColumnGroup{
		KeySid:       keySid,
		ObjectIDs:    objectIDs,
		Columns:      columns,
		NestedGroups: nested,
	})
	return nil
}

// scalarOf classifies a non-array, non-object fastjson value into its
// BasicType and Go-typed value.
func scalarOf(v *fastjson.Value, sidOf map[string]uint64) (carbon.BasicType, interface{}) {
	switch v.Type() {
	case fastjson.TypeNull:
		return carbon.TypeNull, nil
	case fastjson.TypeTrue:
		return carbon.TypeBool, true
	case fastjson.TypeFalse:
		return carbon.TypeBool, false
	case fastjson.TypeString:
		sb, _ := v.StringBytes()
		return carbon.TypeString, sidOf[string(sb)]
	case fastjson.TypeNumber:
		f, _ := v.Float64()
		return classifyNumber(f)
	default:
		return carbon.TypeNull, nil
	}
}

// classifyNumber infers the narrowest basic type for a JSON number:
// non-negative integers map to the narrowest unsigned width, negative
// integers to the narrowest signed width, and anything with a fractional
// part maps to float32 (spec.md §3, test scenario S1: {"a":1} -> UINT8S).
func classifyNumber(f float64) (carbon.BasicType, interface{}) {
	if f != float64(int64(f)) {
		return carbon.TypeFloat, float32(f)
	}
	i := int64(f)
	if i >= 0 {
		u := uint64(i)
		switch {
		case u <= 0xff:
			return carbon.TypeUint8, uint8(u)
		case u <= 0xffff:
			return carbon.TypeUint16, uint16(u)
		case u <= 0xffffffff:
			return carbon.TypeUint32, uint32(u)
		default:
			return carbon.TypeUint64, u
		}
	}
	switch {
	case i >= -0x80:
		return carbon.TypeInt8, int8(i)
	case i >= -0x8000:
		return carbon.TypeInt16, int16(i)
	case i >= -0x80000000:
		return carbon.TypeInt32, int32(i)
	default:
		return carbon.TypeInt64, i
	}
}

// scalarArrayOf classifies a homogeneous element list into a single
// BasicType and a Go slice of that width. For numeric elements the column
// type is the narrowest type that fits every element: any negative value
// forces a signed column, any fractional value forces float32, and the
// required width is the max over all elements.
func scalarArrayOf(elems []*fastjson.Value, sidOf map[string]uint64) (carbon.BasicType, interface{}) {
	if len(elems) == 0 {
		return carbon.TypeNull, 0
	}
	switch elems[0].Type() {
	case fastjson.TypeNull:
		return carbon.TypeNull, len(elems)
	case fastjson.TypeTrue, fastjson.TypeFalse:
		out := make([]bool, len(elems))
		for i, e := range elems {
			out[i] = e.Type() == fastjson.TypeTrue
		}
		return carbon.TypeBool, out
	case fastjson.TypeString:
		out := make([]uint64, len(elems))
		for i, e := range elems {
			sb, _ := e.StringBytes()
			out[i] = sidOf[string(sb)]
		}
		return carbon.TypeString, out
	case fastjson.TypeNumber:
		return numericArrayOf(elems)
	default:
		return carbon.TypeNull, len(elems)
	}
}

// numericArrayOf reconciles the narrowest shared numeric type across a
// homogeneous-kind numeric array: any fractional element forces float32;
// otherwise any negative element forces a signed width sized to the
// largest magnitude present.
func numericArrayOf(elems []*fastjson.Value) (carbon.BasicType, interface{}) {
	hasFraction, hasNegative := false, false
	var maxNeg, maxPos uint64 // largest magnitude among negative / non-negative elements
	for _, e := range elems {
		f, _ := e.Float64()
		if f != float64(int64(f)) {
			hasFraction = true
			continue
		}
		i := int64(f)
		if i < 0 {
			hasNegative = true
			if uint64(-i) > maxNeg {
				maxNeg = uint64(-i)
			}
		} else if uint64(i) > maxPos {
			maxPos = uint64(i)
		}
	}
	if hasFraction {
		out := make([]float32, len(elems))
		for i, e := range elems {
			f, _ := e.Float64()
			out[i] = float32(f)
		}
		return carbon.TypeFloat, out
	}

	var widest carbon.BasicType
	switch {
	case hasNegative && maxNeg <= 0x80 && maxPos <= 0x7f:
		widest = carbon.TypeInt8
	case hasNegative && maxNeg <= 0x8000 && maxPos <= 0x7fff:
		widest = carbon.TypeInt16
	case hasNegative && maxNeg <= 0x80000000 && maxPos <= 0x7fffffff:
		widest = carbon.TypeInt32
	case hasNegative:
		widest = carbon.TypeInt64
	case maxPos <= 0xff:
		widest = carbon.TypeUint8
	case maxPos <= 0xffff:
		widest = carbon.TypeUint16
	case maxPos <= 0xffffffff:
		widest = carbon.TypeUint32
	default:
		widest = carbon.TypeUint64
	}
	return widestIntArray(widest, elems)
}

func widestIntArray(widest carbon.BasicType, elems []*fastjson.Value) (carbon.BasicType, interface{}) {
	switch widest {
	case carbon.TypeUint8:
		out := make([]uint8, len(elems))
		for i, e := range elems {
			f, _ := e.Float64()
			out[i] = uint8(int64(f))
		}
		return widest, out
	case carbon.TypeUint16:
		out := make([]uint16, len(elems))
		for i, e := range elems {
			f, _ := e.Float64()
			out[i] = uint16(int64(f))
		}
		return widest, out
	case carbon.TypeUint32:
		out := make([]uint32, len(elems))
		for i, e := range elems {
			f, _ := e.Float64()
			out[i] = uint32(int64(f))
		}
		return widest, out
	case carbon.TypeUint64:
		out := make([]uint64, len(elems))
		for i, e := range elems {
			f, _ := e.Float64()
			out[i] = uint64(int64(f))
		}
		return widest, out
	case carbon.TypeInt8:
		out := make([]int8, len(elems))
		for i, e := range elems {
			f, _ := e.Float64()
			out[i] = int8(int64(f))
		}
		return widest, out
	case carbon.TypeInt16:
		out := make([]int16, len(elems))
		for i, e := range elems {
			f, _ := e.Float64()
			out[i] = int16(int64(f))
		}
		return widest, out
	case carbon.TypeInt32:
		out := make([]int32, len(elems))
		for i, e := range elems {
			f, _ := e.Float64()
			out[i] = int32(int64(f))
		}
		return widest, out
	default: // TypeInt64
		out := make([]int64, len(elems))
		for i, e := range elems {
			f, _ := e.Float64()
			out[i] = int64(f)
		}
		return carbon.TypeInt64, out
	}
}
