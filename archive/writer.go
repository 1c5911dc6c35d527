package archive

// recordWriter accumulates the record-table byte stream. All offsets
// handed out by Offset/Reserve are relative to the start of the record
// table (spec.md §6 "absolute byte positions into the record-table memory
// block"), not to the whole file; Build translates them to file-absolute
// positions only where the archive header requires it.
type recordWriter struct {
	buf []byte
}

// Offset returns the current write position.
func (w *recordWriter) Offset() int { return len(w.buf) }

// WriteByte appends a single byte.
func (w *recordWriter) WriteByte(b byte) { w.buf = append(w.buf, b) }

// Write appends p.
func (w *recordWriter) Write(p []byte) { w.buf = append(w.buf, p...) }

// Reserve appends n zero bytes and returns the offset they start at, for a
// later PatchU64 once the real value is known (used for offset tables
// that precede the bodies they point into).
func (w *recordWriter) Reserve(n int) int {
	off := len(w.buf)
	w.buf = append(w.buf, make([]byte, n)...)
	return off
}

// PatchU64 overwrites the 8 bytes at off with v, little-endian.
func (w *recordWriter) PatchU64(off int, v uint64) {
	putLE64(w.buf[off:off+8], v)
}

// Bytes returns the accumulated buffer.
func (w *recordWriter) Bytes() []byte { return w.buf }
