// Copyright 2024 The Carbon Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package strid implements the sid-to-string index and decode cache
// (spec.md §4.8): a reversible sid -> string-entry offset lookup, backed
// either by an archive's baked sid index or by a one-time linear scan of
// its string table, fronted by a bounded LRU of already-decoded strings.
package strid

import (
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/carbonfmt/carbon"
	"github.com/carbonfmt/carbon/archive"
)

// DefaultCacheSize is used when Index is constructed with a non-positive
// cache size.
const DefaultCacheSize = 1024

// Index resolves sids to decoded strings.
type Index struct {
	a       *archive.Archive
	cache   *lru.Cache[uint64, string]
	strings map[uint64]string // sid -> string; populated only without a baked index

	hits      uint64
	misses    uint64
	evictions uint64
}

// NewIndex builds an Index over a. If a was opened with a baked sid index
// (spec.md §4.8 "archives may optionally bake a sid index"), lookups use
// it directly; otherwise the string table is scanned once up front.
func NewIndex(a *archive.Archive, cacheSize int) (*Index, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	idx := &Index{a: a}
	cache, err := lru.NewWithEvict[uint64, string](cacheSize, func(uint64, string) {
		atomic.AddUint64(&idx.evictions, 1)
	})
	if err != nil {
		return nil, err
	}
	idx.cache = cache

	if !a.HasSidIndex() {
		entries, err := a.Strings()
		if err != nil {
			return nil, err
		}
		idx.strings = make(map[uint64]string, len(entries))
		for _, e := range entries {
			idx.strings[e.Sid] = e.String
		}
	}
	return idx, nil
}

// String resolves sid to its decoded string, consulting the LRU cache
// first.
func (idx *Index) String(sid uint64) (string, error) {
	if sid == carbon.NullSid {
		return "", nil
	}
	if s, ok := idx.cache.Get(sid); ok {
		atomic.AddUint64(&idx.hits, 1)
		return s, nil
	}
	atomic.AddUint64(&idx.misses, 1)

	if idx.strings != nil {
		s, ok := idx.strings[sid]
		if !ok {
			return "", carbon.ErrNotFound
		}
		idx.cache.Add(sid, s)
		return s, nil
	}

	off, ok := idx.a.SidOffset(sid)
	if !ok {
		return "", carbon.ErrNotFound
	}
	s, _, err := idx.a.DecodeStringAt(off)
	if err != nil {
		return "", err
	}
	idx.cache.Add(sid, s)
	return s, nil
}

// Stats returns the cache's cumulative hit, miss, and eviction counts.
func (idx *Index) Stats() (hits, misses, evictions uint64) {
	return atomic.LoadUint64(&idx.hits), atomic.LoadUint64(&idx.misses), atomic.LoadUint64(&idx.evictions)
}
