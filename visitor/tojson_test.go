// Copyright 2024 The Carbon Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package visitor

import (
	"encoding/json"
	"reflect"
	"testing"
)

// semanticJSON decodes s the way encoding/json does for a bare interface{}
// (objects as map[string]interface{}, numbers as float64), so two
// byte-different but semantically equal documents compare equal regardless
// of property order.
func semanticJSON(t *testing.T, s []byte) interface{} {
	t.Helper()
	var v interface{}
	if err := json.Unmarshal(s, &v); err != nil {
		t.Fatalf("json.Unmarshal(%s): %v", s, err)
	}
	return v
}

// TestToJSONCompactRoundTrip exercises the build/write/open/render pipeline
// against the documented round-trip scenarios (spec.md §8 Property #1,
// scenarios S1-S3), plus the doubly-nested array-of-objects case a
// maintainer review found silently dropped by the columnarizer.
func TestToJSONCompactRoundTrip(t *testing.T) {
	cases := []struct {
		name string
		json string
	}{
		{"primitives", `{"a":1,"b":true,"c":null}`},             // S1
		{"array of primitives", `{"xs":[1,2,3]}`},               // S2
		{"array of objects", `{"os":[{"a":1},{"a":2,"b":"x"}]}`}, // S3
		{"nested array of objects", `{"outer":[{"a":1,"inner":[{"x":5},{"x":6}]}]}`},
		{"empty object", `{}`},
		{"string property", `{"name":"carbon"}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a, idx := buildOpenIdx(t, tc.json)
			got, err := ToJSONCompact(a, idx)
			if err != nil {
				t.Fatalf("ToJSONCompact: %v", err)
			}
			want := semanticJSON(t, []byte(tc.json))
			have := semanticJSON(t, got)
			if !reflect.DeepEqual(want, have) {
				t.Fatalf("ToJSONCompact round-trip mismatch:\n got  %s\n want %s", got, tc.json)
			}
		})
	}
}
