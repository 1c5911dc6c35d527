package pack

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// None is the identity packer: strings are stored as a length-prefixed
// byte run, spec.md §4.3.
type None struct{}

// NewNone returns a None packer.
func NewNone() *None { return &None{} }

// WriteExtra implements Packer; the identity packer needs no side table.
func (p *None) WriteExtra(dst *bytes.Buffer, strs []string) error { return nil }

// ReadExtra implements Packer; a non-zero extra section is an error since
// None never writes one.
func (p *None) ReadExtra(src []byte, nbytes int) error {
	if nbytes != 0 {
		return fmt.Errorf("pack: none packer given %d-byte extra section, want 0", nbytes)
	}
	return nil
}

// EncodeString implements Packer.
func (p *None) EncodeString(dst *bytes.Buffer, s string) error {
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(s)))
	dst.Write(lenBuf[:])
	dst.WriteString(s)
	return nil
}

// DecodeString implements Packer.
func (p *None) DecodeString(src []byte, strlen int) (string, int, error) {
	if len(src) < 4 {
		return "", 0, fmt.Errorf("pack: none: truncated length prefix")
	}
	n := int(binary.LittleEndian.Uint32(src))
	if len(src) < 4+n {
		return "", 0, fmt.Errorf("pack: none: truncated payload")
	}
	return string(src[4 : 4+n]), 4 + n, nil
}

// Flag implements Packer.
func (p *None) Flag() uint8 { return FlagNone }
