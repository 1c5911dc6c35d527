package archive

import (
	"fmt"
	"os"
	"sort"

	"github.com/carbonfmt/carbon"
	"github.com/carbonfmt/carbon/pack"
	"github.com/edsrzf/mmap-go"
)

// OpenOptions configures Open. The zero value opens read-only via mmap,
// matching file.go's Options{} default in the teacher repo.
type OpenOptions struct {
	// ReadFull, if true, reads the whole file into memory instead of
	// mapping it — spec.md §4.6 "mmap or fully read" names both as valid
	// strategies; mmap is the default because it avoids the copy for
	// archives larger than available RAM.
	ReadFull bool
}

// Archive is an opened, read-only archive file (spec.md §4.6, §6).
type Archive struct {
	f    *os.File
	mm   mmap.MMap
	data []byte // the full file contents, whichever backing was used

	Header      carbon.ArchiveHeader
	StringTable carbon.StringTableHeader
	Packer      pack.Packer

	stringTableStart int
	recordTableStart int

	// sidOffsets maps a sid to the file-absolute offset of its
	// StringEntryHeader, populated from the baked sid index when present
	// (spec.md §4.8); nil otherwise, forcing strid.Index to scan.
	sidOffsets map[uint64]uint64
}

// Open maps (or reads) path and parses its header, string table, and
// optional sid index.
func Open(path string, opts OpenOptions) (*Archive, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", carbon.ErrOpenFailed, err)
	}

	a := &Archive{f: f}
	if opts.ReadFull {
		data, err := os.ReadFile(path)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("%w: %v", carbon.ErrReadFailed, err)
		}
		a.data = data
	} else {
		m, err := mmap.Map(f, mmap.RDONLY, 0)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("%w: %v", carbon.ErrOpenFailed, err)
		}
		a.mm = m
		a.data = m
	}

	if err := a.parse(); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *Archive) parse() error {
	hdr, err := carbon.DecodeArchiveHeader(a.data)
	if err != nil {
		return err
	}
	a.Header = hdr
	a.stringTableStart = carbon.ArchiveHeaderSize

	sth, err := carbon.DecodeStringTableHeader(a.data[a.stringTableStart:])
	if err != nil {
		return err
	}
	a.StringTable = sth

	packer, err := pack.ByFlag(sth.PackerFlags)
	if err != nil {
		return err
	}
	extraOff := a.stringTableStart + carbon.StringTableHeaderSize
	extraEnd := extraOff + int(sth.PackerExtraLen)
	if extraEnd > len(a.data) {
		return carbon.ErrCorruptPayload
	}
	if err := packer.ReadExtra(a.data[extraOff:extraEnd], int(sth.PackerExtraLen)); err != nil {
		return err
	}
	a.Packer = packer

	a.recordTableStart = int(hdr.RootObjectOffset) - carbon.RecordHeaderSize

	if hdr.SidIndexOffset != 0 {
		if err := a.loadSidIndex(int(hdr.SidIndexOffset)); err != nil {
			return err
		}
	}
	return nil
}

func (a *Archive) loadSidIndex(off int) error {
	if off+4 > len(a.data) {
		return carbon.ErrCorruptPayload
	}
	n := int(le32(a.data[off:]))
	off += 4
	a.sidOffsets = make(map[uint64]uint64, n)
	for i := 0; i < n; i++ {
		if off+16 > len(a.data) {
			return carbon.ErrCorruptPayload
		}
		sid := le64(a.data[off:])
		entryOff := le64(a.data[off+8:])
		a.sidOffsets[sid] = entryOff
		off += 16
	}
	return nil
}

// RootObject returns the byte slice starting at the root object's
// ObjectHeader.
func (a *Archive) RootObject() []byte {
	return a.data[a.Header.RootObjectOffset:]
}

// RecordTableStart returns the file-absolute offset the record table
// begins at (where its RecordHeader starts); every offset stored inside
// the record table is relative to this position.
func (a *Archive) RecordTableStart() int { return a.recordTableStart }

// Bytes returns the entire archive's backing bytes.
func (a *Archive) Bytes() []byte { return a.data }

// SidOffset returns the file-absolute StringEntryHeader offset for sid
// from the baked sid index, if one was loaded.
func (a *Archive) SidOffset(sid uint64) (uint64, bool) {
	off, ok := a.sidOffsets[sid]
	return off, ok
}

// HasSidIndex reports whether the archive carries a baked sid index
// (spec.md §4.8), i.e. whether SidOffset can answer without a string-table
// scan.
func (a *Archive) HasSidIndex() bool { return a.sidOffsets != nil }

// DecodeStringAt decodes the string-table entry whose StringEntryHeader
// starts at the file-absolute offset off.
func (a *Archive) DecodeStringAt(off uint64) (string, uint64, error) {
	if off >= uint64(len(a.data)) {
		return "", 0, carbon.ErrCorruptPayload
	}
	eh, err := carbon.DecodeStringEntryHeader(a.data[off:])
	if err != nil {
		return "", 0, err
	}
	bodyOff := off + carbon.StringEntryHeaderSize
	s, _, err := a.Packer.DecodeString(a.data[bodyOff:], int(eh.Len))
	if err != nil {
		return "", 0, err
	}
	return s, eh.Sid, nil
}

// Strings returns every (sid, string) pair in the string table, sorted by
// sid, by walking the string-table entry chain from FirstEntryOff.
func (a *Archive) Strings() ([]StringEntry, error) {
	out := make([]StringEntry, 0, a.StringTable.NumEntries)
	if a.StringTable.NumEntries == 0 {
		return out, nil
	}
	// FirstEntryOff is relative to the string-table section start.
	off := a.stringTableStart + int(a.StringTable.FirstEntryOff)
	for {
		eh, err := carbon.DecodeStringEntryHeader(a.data[off:])
		if err != nil {
			return nil, err
		}
		bodyOff := off + carbon.StringEntryHeaderSize
		s, _, err := a.Packer.DecodeString(a.data[bodyOff:], int(eh.Len))
		if err != nil {
			return nil, err
		}
		out = append(out, StringEntry{Sid: eh.Sid, String: s})
		if eh.NextEntryOff == 0 {
			break
		}
		off = a.stringTableStart + int(eh.NextEntryOff)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Sid < out[j].Sid })
	return out, nil
}

// StringEntry is one decoded (sid, string) pair.
type StringEntry struct {
	Sid    uint64
	String string
}

// Close unmaps (or releases) the archive's backing storage.
func (a *Archive) Close() error {
	var err error
	if a.mm != nil {
		err = a.mm.Unmap()
	}
	if cerr := a.f.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("%w: %v", carbon.ErrWriteFailed, err)
	}
	return nil
}
