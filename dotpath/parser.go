// Copyright 2024 The Carbon Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package dotpath implements the dot-path grammar, evaluator, and
// find/update semantics of spec.md §4.13 over a cdoc.Document's in-memory
// tree.
package dotpath

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/carbonfmt/carbon"
)

// Segment is one step of a parsed dot-path: either a key name or a
// bracketed array/column index (spec.md §4.13 "segment is either an
// unquoted key name, a quoted key name ..., or a bracketed array index").
type Segment struct {
	Key     string
	Index   int
	IsIndex bool
}

// Parse parses a dot-path expression into its segments. An empty path
// denotes the root and parses to a nil, zero-length slice (spec.md §4.13
// "Empty path denotes the root").
func Parse(path string) ([]Segment, error) {
	if path == "" {
		return nil, nil
	}
	var segs []Segment
	i := 0
	n := len(path)
	for i < n {
		if path[i] == '[' {
			end := strings.IndexByte(path[i:], ']')
			if end < 0 {
				return nil, fmt.Errorf("%w: unterminated '[' in dot-path %q", carbon.ErrDotPathParse, path)
			}
			end += i
			idxStr := path[i+1 : end]
			idx, err := strconv.Atoi(idxStr)
			if err != nil {
				return nil, fmt.Errorf("%w: invalid array index %q", carbon.ErrDotPathParse, idxStr)
			}
			segs = append(segs, Segment{Index: idx, IsIndex: true})
			i = end + 1
			if i < n {
				if path[i] != '.' {
					return nil, fmt.Errorf("%w: expected '.' after ']' at position %d in %q", carbon.ErrDotPathParse, i, path)
				}
				i++
			}
			continue
		}

		var key string
		var consumed int
		var err error
		if path[i] == '"' {
			key, consumed, err = parseQuotedKey(path[i:])
			if err != nil {
				return nil, err
			}
		} else {
			key, consumed = parseUnquotedKey(path[i:])
			if consumed == 0 {
				return nil, fmt.Errorf("%w: empty key segment at position %d in %q", carbon.ErrDotPathParse, i, path)
			}
		}
		segs = append(segs, Segment{Key: key})
		i += consumed
		if i < n {
			switch path[i] {
			case '.':
				i++
			case '[':
				// adjacent bracket, e.g. "key[0]" — treat like "key.[0]".
			default:
				return nil, fmt.Errorf("%w: unexpected %q at position %d in %q", carbon.ErrDotPathParse, path[i], i, path)
			}
		}
	}
	return segs, nil
}

// parseUnquotedKey reads up to the next '.' or '[', returning the
// key text and bytes consumed.
func parseUnquotedKey(s string) (string, int) {
	i := 0
	for i < len(s) && s[i] != '.' && s[i] != '[' {
		i++
	}
	return s[:i], i
}

// parseQuotedKey reads a `"..."` key with backslash escapes (spec.md §4.13
// "quoted key name (arbitrary UTF-8 with backslash escapes)"), returning
// the unescaped key text and the number of bytes consumed including both
// quotes.
func parseQuotedKey(s string) (string, int, error) {
	if len(s) < 2 || s[0] != '"' {
		return "", 0, fmt.Errorf("%w: expected opening quote", carbon.ErrDotPathParse)
	}
	var b strings.Builder
	i := 1
	for i < len(s) {
		switch s[i] {
		case '"':
			return b.String(), i + 1, nil
		case '\\':
			if i+1 >= len(s) {
				return "", 0, fmt.Errorf("%w: dangling escape in quoted key", carbon.ErrDotPathParse)
			}
			b.WriteByte(s[i+1])
			i += 2
		default:
			b.WriteByte(s[i])
			i++
		}
	}
	return "", 0, fmt.Errorf("%w: unterminated quoted key", carbon.ErrDotPathParse)
}

// String renders segs back into dot-path text.
func String(segs []Segment) string {
	var b strings.Builder
	for i, s := range segs {
		if s.IsIndex {
			fmt.Fprintf(&b, "[%d]", s.Index)
			continue
		}
		if i > 0 {
			b.WriteByte('.')
		}
		if strings.ContainsAny(s.Key, `."[]\`) {
			b.WriteByte('"')
			for _, r := range s.Key {
				if r == '"' || r == '\\' {
					b.WriteByte('\\')
				}
				b.WriteRune(r)
			}
			b.WriteByte('"')
		} else {
			b.WriteString(s.Key)
		}
	}
	return b.String()
}
