// Copyright 2024 The Carbon Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package dict implements the Carbon string dictionary (spec.md §4.2): a
// reversible mapping from strings to monotonically-assigned 64-bit ids,
// in a single-threaded ("Sync") and a sharded, concurrency-friendly
// ("Sharded") flavor.
//
// The generic open-addressing hash table named by the original source is
// explicitly out-of-scope infrastructure (spec.md §1) consumed as a black
// box here by Go's built-in map, the idiomatic equivalent in this corpus.
package dict

import "github.com/carbonfmt/carbon"

// Dictionary is the contract both implementations satisfy.
type Dictionary interface {
	// Insert assigns (or reuses) an id for each string in strs, returning
	// ids in input order.
	Insert(strs []string) []uint64

	// LocateSafe looks up ids for keys without inserting. found[i] reports
	// whether keys[i] was present; missing counts the misses.
	LocateSafe(keys []string) (ids []uint64, found []bool, missing int)

	// LocateFast asserts every key is present and returns only ids. It
	// panics if any key is missing — callers that cannot guarantee
	// presence must use LocateSafe.
	LocateFast(keys []string) []uint64

	// Extract reverses Insert: returns the string for each id. A missing
	// id yields the zero value at that position.
	Extract(ids []uint64) []string

	// Remove drops the given ids; their strings may be recycled, but the
	// id counter never rewinds.
	Remove(ids []uint64)

	// NumDistinct returns the number of live distinct strings.
	NumDistinct() int

	// Contents returns every (sid, string) pair in id order.
	Contents() []Entry
}

// Entry is one (sid, string) pair.
type Entry struct {
	Sid    uint64
	String string
}

// NullSid is the reserved id for the null string; it is never assigned by
// Insert and never appears in Contents.
const NullSid = carbon.NullSid
