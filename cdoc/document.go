// Copyright 2024 The Carbon Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package cdoc

import (
	"bytes"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/carbonfmt/carbon"
	"github.com/valyala/fastjson"
)

// Options are the creation bit flags controlling what a commit preserves
// (spec.md §4.12).
type Options uint8

const (
	// Keep preserves container capacities and trailing free space.
	Keep Options = 1 << iota
	// Shrink drops trailing free space on commit.
	Shrink
	// Compact drops intra-container reserved capacities on commit.
	Compact
)

// Optimize is the combination that both shrinks and compacts.
const Optimize = Shrink | Compact

// BernsteinSeed is the seed used for the very first commit hash of a
// document, before any prior commit exists to seed off of. It is the
// classical djb2 initial value.
const BernsteinSeed uint64 = 5381

// bernsteinHash computes the 64-bit Bernstein hash of data seeded with
// seed (spec.md §4.12 "64-bit Bernstein hash with seed = previous commit
// hash").
func bernsteinHash(seed uint64, data []byte) uint64 {
	h := seed
	for _, b := range data {
		h = h*33 + uint64(b)
	}
	return h
}

var autoKeyCounter uint64

func nextAutoKey() uint64 { return atomic.AddUint64(&autoKeyCounter, 1) }

// Document is a mutable, in-memory Carbon record (spec.md §4.12). A single
// write spinlock per document serializes revise/commit; sync.Mutex stands
// in here for the out-of-scope generic spinlock primitive named in
// spec.md §1 ("spinlock" is listed among the black-box infrastructure
// types), since spec.md §5 only asks that acquisition be cheap under the
// short-held-lock contention this document sees.
type Document struct {
	mu sync.Mutex

	keyType KeyType
	keyU64  uint64
	keyI64  int64
	keyStr  string

	hasCommit  bool
	commitHash uint64

	root Value
	opts Options
}

// CreateEmpty returns a new Document with an empty object root and the
// given key type. For KeyAutoU64 the key is assigned here.
func CreateEmpty(keyType KeyType, opts Options) *Document {
	d := &Document{keyType: keyType, opts: opts, root: Value{Kind: KindObject, Obj: NewObject()}}
	if keyType == KeyAutoU64 {
		d.keyU64 = nextAutoKey()
	}
	if keyType.HasCommitHash() {
		d.hasCommit = true
		d.commitHash = bernsteinHash(BernsteinSeed, nil)
	}
	return d
}

// KeyType returns the document's key variant.
func (d *Document) KeyType() KeyType { return d.keyType }

// Key returns the document's key, interpreted per its KeyType; callers
// should type-switch on KeyType first.
func (d *Document) Key() (u64 uint64, i64 int64, s string) {
	return d.keyU64, d.keyI64, d.keyStr
}

// SetUserKey sets a user-supplied key; keyType must be KeyUserU64,
// KeyUserI64, or KeyUserString and must match d.KeyType().
func (d *Document) SetUserKey(keyType KeyType, u64 uint64, i64 int64, s string) error {
	if keyType != d.keyType {
		return fmt.Errorf("%w: key type %c does not match document key type %c", carbon.ErrIllegalArgument, keyType, d.keyType)
	}
	switch keyType {
	case KeyUserU64:
		d.keyU64 = u64
	case KeyUserI64:
		d.keyI64 = i64
	case KeyUserString:
		d.keyStr = s
	default:
		return fmt.Errorf("%w: key type %c does not take a user value", carbon.ErrIllegalArgument, keyType)
	}
	return nil
}

// CommitHash returns the document's current commit hash, and false if its
// key type carries none (KeyNone).
func (d *Document) CommitHash() (uint64, bool) {
	return d.commitHash, d.hasCommit
}

// CommitHashHex renders the commit hash as 16 lowercase hex chars without
// a "0x" prefix (spec.md §4.12 "hex without 0x, fixed 16 chars").
func (d *Document) CommitHashHex() string {
	return fmt.Sprintf("%016x", d.commitHash)
}

// Root returns the document's root container value.
func (d *Document) Root() Value { return d.root }

// FromJSON parses json and builds a Document whose root mirrors its
// structure (spec.md §6 "Carbon: from_json(doc, json, key_type, key,
// err)"). The out-of-scope JSON tokenizer/parser is consumed here via
// valyala/fastjson, the same black-box parser coldoc.FromJSON uses.
func FromJSON(json []byte, keyType KeyType, opts Options) (*Document, error) {
	var p fastjson.Parser
	jv, err := p.ParseBytes(json)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", carbon.ErrJSONParse, err)
	}
	root, err := valueFromJSON(jv)
	if err != nil {
		return nil, err
	}
	d := &Document{keyType: keyType, opts: opts, root: root}
	if keyType == KeyAutoU64 {
		d.keyU64 = nextAutoKey()
	}
	if keyType.HasCommitHash() {
		d.hasCommit = true
		var buf bytes.Buffer
		if err := encodeValue(&buf, root); err != nil {
			return nil, err
		}
		d.commitHash = bernsteinHash(BernsteinSeed, buf.Bytes())
	}
	return d, nil
}

func valueFromJSON(jv *fastjson.Value) (Value, error) {
	switch jv.Type() {
	case fastjson.TypeNull:
		return Value{Kind: KindNull}, nil
	case fastjson.TypeTrue:
		return Value{Kind: KindBool, Bool: true}, nil
	case fastjson.TypeFalse:
		return Value{Kind: KindBool, Bool: false}, nil
	case fastjson.TypeNumber:
		f := jv.GetFloat64()
		if f == float64(int64(f)) {
			return Value{Kind: KindInt64, I64: int64(f)}, nil
		}
		return Value{Kind: KindFloat, F32: float32(f)}, nil
	case fastjson.TypeString:
		return Value{Kind: KindString, Str: string(jv.GetStringBytes())}, nil
	case fastjson.TypeObject:
		o := NewObject()
		var walkErr error
		jv.GetObject().Visit(func(key []byte, val *fastjson.Value) {
			if walkErr != nil {
				return
			}
			v, err := valueFromJSON(val)
			if err != nil {
				walkErr = err
				return
			}
			o.Set(string(key), v)
		})
		if walkErr != nil {
			return Value{}, walkErr
		}
		return Value{Kind: KindObject, Obj: o}, nil
	case fastjson.TypeArray:
		arr := NewArray()
		for _, e := range jv.GetArray() {
			v, err := valueFromJSON(e)
			if err != nil {
				return Value{}, err
			}
			arr.Elems = append(arr.Elems, v)
		}
		return Value{Kind: KindArray, Arr: arr}, nil
	default:
		return Value{}, fmt.Errorf("%w: unsupported json value type %v", carbon.ErrUnsupportedType, jv.Type())
	}
}

// ToJSONCompact renders the document as single-line JSON.
func (d *Document) ToJSONCompact() (string, error) {
	var buf bytes.Buffer
	if err := writeJSON(&buf, d.root, false, 0); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// ToJSONExtended renders the document as indented, multi-line JSON.
func (d *Document) ToJSONExtended() (string, error) {
	var buf bytes.Buffer
	if err := writeJSON(&buf, d.root, true, 0); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func writeJSON(buf *bytes.Buffer, v Value, pretty bool, depth int) error {
	indent := func(d int) {
		if pretty {
			buf.WriteByte('\n')
			for i := 0; i < d; i++ {
				buf.WriteString("  ")
			}
		}
	}
	switch v.Kind {
	case KindNull:
		buf.WriteString("null")
	case KindBool:
		if v.Bool {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case KindInt8:
		buf.WriteString(strconv.FormatInt(int64(v.I8), 10))
	case KindInt16:
		buf.WriteString(strconv.FormatInt(int64(v.I16), 10))
	case KindInt32:
		buf.WriteString(strconv.FormatInt(int64(v.I32), 10))
	case KindInt64:
		buf.WriteString(strconv.FormatInt(v.I64, 10))
	case KindUint8:
		buf.WriteString(strconv.FormatUint(uint64(v.U8), 10))
	case KindUint16:
		buf.WriteString(strconv.FormatUint(uint64(v.U16), 10))
	case KindUint32:
		buf.WriteString(strconv.FormatUint(uint64(v.U32), 10))
	case KindUint64:
		buf.WriteString(strconv.FormatUint(v.U64, 10))
	case KindFloat:
		buf.WriteString(strconv.FormatFloat(float64(v.F32), 'g', -1, 32))
	case KindString:
		buf.WriteString(strconv.Quote(v.Str))
	case KindBinary, KindCustomBinary:
		buf.WriteString(strconv.Quote(string(v.Bin)))
	case KindObject:
		buf.WriteByte('{')
		for i, f := range v.Obj.Fields {
			if i > 0 {
				buf.WriteByte(',')
			}
			indent(depth + 1)
			buf.WriteString(strconv.Quote(f.Key))
			buf.WriteByte(':')
			if pretty {
				buf.WriteByte(' ')
			}
			if err := writeJSON(buf, f.Value, pretty, depth+1); err != nil {
				return err
			}
		}
		if len(v.Obj.Fields) > 0 {
			indent(depth)
		}
		buf.WriteByte('}')
	case KindArray:
		buf.WriteByte('[')
		for i, e := range v.Arr.Elems {
			if i > 0 {
				buf.WriteByte(',')
			}
			indent(depth + 1)
			if err := writeJSON(buf, e, pretty, depth+1); err != nil {
				return err
			}
		}
		if len(v.Arr.Elems) > 0 {
			indent(depth)
		}
		buf.WriteByte(']')
	case KindColumn:
		buf.WriteByte('[')
		for i, e := range v.Col.Values {
			if i > 0 {
				buf.WriteByte(',')
			}
			indent(depth + 1)
			if err := writeJSON(buf, e, pretty, depth+1); err != nil {
				return err
			}
		}
		if len(v.Col.Values) > 0 {
			indent(depth)
		}
		buf.WriteByte(']')
	default:
		return fmt.Errorf("%w: cdoc value kind %d", carbon.ErrUnsupportedType, v.Kind)
	}
	return nil
}
