package iter

import (
	"github.com/carbonfmt/carbon"
	"github.com/carbonfmt/carbon/archive"
)

// ValueVector is a typed cursor over one property group's keys and values
// (spec.md §4.8). Object-scalar values are exposed as the file-absolute
// offset of the nested object's header, for the caller to hand to
// NewPropIter; every other type is exposed as its decoded Go value.
type ValueVector struct {
	Type    carbon.BasicType
	IsArray bool
	Keys    []uint64
	Values  []interface{}
}

// Len returns the number of properties in the group.
func (v *ValueVector) Len() int { return len(v.Keys) }

func newValueVector(a *archive.Archive, off uint64, t carbon.BasicType, isArray bool) (*ValueVector, error) {
	data := a.Bytes()
	if off+uint64(carbon.PropGroupHeaderSize) > uint64(len(data)) {
		return nil, carbon.ErrCorruptPayload
	}
	hdr, err := carbon.DecodePropGroupHeader(data[off:])
	if err != nil {
		return nil, err
	}
	n := int(hdr.Count)
	cur := off + uint64(carbon.PropGroupHeaderSize)

	keys := make([]uint64, n)
	for i := 0; i < n; i++ {
		if cur+8 > uint64(len(data)) {
			return nil, carbon.ErrCorruptPayload
		}
		keys[i] = carbon.LE64(data[cur : cur+8])
		cur += 8
	}

	values := make([]interface{}, n)
	switch {
	case t == carbon.TypeNull && !isArray:
		// No payload.
	case t == carbon.TypeNull && isArray:
		for i := 0; i < n; i++ {
			if cur+4 > uint64(len(data)) {
				return nil, carbon.ErrCorruptPayload
			}
			values[i] = int(carbon.LE32(data[cur : cur+4]))
			cur += 4
		}
	case t == carbon.TypeObject && !isArray:
		for i := 0; i < n; i++ {
			if cur+8 > uint64(len(data)) {
				return nil, carbon.ErrCorruptPayload
			}
			rel := carbon.LE64(data[cur : cur+8])
			values[i] = uint64(a.RecordTableStart()) + rel
			cur += 8
		}
	case isArray:
		for i := 0; i < n; i++ {
			v, consumed, err := archive.DecodeArray(data[cur:], t)
			if err != nil {
				return nil, err
			}
			values[i] = v
			cur += uint64(consumed)
		}
	default:
		for i := 0; i < n; i++ {
			v, consumed, err := archive.DecodeScalar(data[cur:], t)
			if err != nil {
				return nil, err
			}
			values[i] = v
			cur += uint64(consumed)
		}
	}

	return &ValueVector{Type: t, IsArray: isArray, Keys: keys, Values: values}, nil
}
