// Copyright 2024 The Carbon Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package carbon implements a columnar, self-describing binary archive
// format for schema-free JSON-like data, plus a mutable in-memory document
// model ("Carbon") with a revise/commit protocol.
//
// The package root holds the wire-format primitives shared by every
// subsystem: marker bytes, fixed header layouts, and varint framing
// (sections 3 and 4.1 of the format definition). The subsystems that build
// on top of these primitives live in sibling packages:
//
//	dict     string dictionary (sync and sharded-async)
//	pack     string-table packers (none, huffman)
//	coldoc   JSON -> columnar document model
//	archive  archive serializer, loader, info
//	iter     property iterator, value vector, collection iterator
//	visitor  depth-first archive visitor
//	strid    string-id index and LRU decode cache
//	cdoc     mutable Carbon document, revise/commit
//	dotpath  dot-path parsing, find, update
package carbon
