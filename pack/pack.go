// Copyright 2024 The Carbon Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package pack implements pluggable string-table compressors (spec.md
// §4.3): the identity packer ("none") and a canonical-Huffman packer.
package pack

import (
	"bytes"
	"fmt"
)

// Flag bits identifying a packer in the string-table header's packer-flags
// byte (spec.md §6). At most one bit is set per archive.
const (
	FlagNone    uint8 = 1 << 0
	FlagHuffman uint8 = 1 << 1
)

// Packer is the capability set every string-table compressor implements.
type Packer interface {
	// WriteExtra serializes any packer-specific side table (e.g. a Huffman
	// code table) computed over the full string set, appending it to dst.
	WriteExtra(dst *bytes.Buffer, strs []string) error

	// ReadExtra reconstructs packer state from a previously-written extra
	// section of nbytes length.
	ReadExtra(src []byte, nbytes int) error

	// EncodeString appends the encoded form of s to dst.
	EncodeString(dst *bytes.Buffer, s string) error

	// DecodeString decodes strlen characters of the packed representation
	// starting at src, returning the decoded string and the number of
	// source bytes consumed.
	DecodeString(src []byte, strlen int) (string, int, error)

	// Flag identifies this packer for the string-table header.
	Flag() uint8
}

// ByName returns the packer registered under name ("none" or "huffman").
func ByName(name string) (Packer, error) {
	switch name {
	case "none":
		return NewNone(), nil
	case "huffman":
		return NewHuffman(), nil
	default:
		return nil, fmt.Errorf("pack: unknown packer %q", name)
	}
}

// ByFlag returns the packer matching the given string-table flags byte.
func ByFlag(flags uint8) (Packer, error) {
	switch flags {
	case FlagNone:
		return NewNone(), nil
	case FlagHuffman:
		return NewHuffman(), nil
	default:
		return nil, fmt.Errorf("pack: unknown packer flag 0x%02x", flags)
	}
}
