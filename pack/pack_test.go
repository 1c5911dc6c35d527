package pack

import (
	"bytes"
	"strings"
	"testing"
)

func TestNoneRoundTrip(t *testing.T) {
	p := NewNone()
	var buf bytes.Buffer
	if err := p.EncodeString(&buf, "hello world"); err != nil {
		t.Fatalf("EncodeString: %v", err)
	}
	got, n, err := p.DecodeString(buf.Bytes(), len("hello world"))
	if err != nil {
		t.Fatalf("DecodeString: %v", err)
	}
	if got != "hello world" || n != buf.Len() {
		t.Fatalf("got (%q, %d), want (%q, %d)", got, n, "hello world", buf.Len())
	}
}

func TestHuffmanRoundTrip(t *testing.T) {
	strs := []string{"aaa", "aab", "abc"}
	p := NewHuffman()
	var extra bytes.Buffer
	if err := p.WriteExtra(&extra, strs); err != nil {
		t.Fatalf("WriteExtra: %v", err)
	}

	// Reload from the serialized extra section like a fresh archive open would.
	reader := NewHuffman()
	if err := reader.ReadExtra(extra.Bytes(), extra.Len()); err != nil {
		t.Fatalf("ReadExtra: %v", err)
	}

	for _, s := range strs {
		var buf bytes.Buffer
		if err := reader.EncodeString(&buf, s); err != nil {
			t.Fatalf("EncodeString(%q): %v", s, err)
		}
		got, _, err := reader.DecodeString(buf.Bytes(), len(s))
		if err != nil {
			t.Fatalf("DecodeString(%q): %v", s, err)
		}
		if got != s {
			t.Errorf("round trip: got %q, want %q", got, s)
		}
	}

	// 'a' is far more frequent than 'c'; its code must be no longer.
	if reader.codes['a'].length > reader.codes['c'].length {
		t.Errorf("expected code('a') <= code('c') in length, got %d > %d",
			reader.codes['a'].length, reader.codes['c'].length)
	}
}

func TestHuffmanPrefixFree(t *testing.T) {
	p := NewHuffman()
	var extra bytes.Buffer
	if err := p.WriteExtra(&extra, []string{"the quick brown fox jumps over the lazy dog"}); err != nil {
		t.Fatalf("WriteExtra: %v", err)
	}
	var codes []string
	for _, c := range p.codes {
		codes = append(codes, bitString(c.bits, c.length))
	}
	for i := range codes {
		for j := range codes {
			if i == j {
				continue
			}
			if strings.HasPrefix(codes[j], codes[i]) {
				t.Fatalf("code %q is a prefix of %q", codes[i], codes[j])
			}
		}
	}
}

func TestHuffmanMissingSymbol(t *testing.T) {
	p := NewHuffman()
	var extra bytes.Buffer
	_ = p.WriteExtra(&extra, []string{"ab"})
	var buf bytes.Buffer
	err := p.EncodeString(&buf, "z")
	if err == nil {
		t.Fatal("expected error encoding a symbol absent from the code table")
	}
}
