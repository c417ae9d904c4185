package storage

import (
	"bytes"
	"encoding/binary"
)

// HeaderSize is the fixed size in bytes of the file header occupying the
// first 100 bytes of page 1.
const HeaderSize = 100

// DefaultPageSize is used when a new database file is initialized.
const DefaultPageSize = 1024

// magicBytes is the fixed 16-byte file identifier, grounded on the
// teacher's storage/file_header.go.
var magicBytes = []byte("SQLite format 3\000")

// constantTail is the fixed 6-byte constant region at offsets 18..23.
var constantTail = []byte{0x01, 0x01, 0x00, 0x40, 0x20, 0x20}

// FileHeader is the parsed form of the 100-byte database file header.
// Grounded on storage/file_header.go's field set, rewritten to the exact
// byte layout §3 specifies (which fixes the constant region and the set
// of zero-checked u32 slots the teacher's version does not validate at
// all).
type FileHeader struct {
	// PageSize is the full page size, 512..65536, a power of two.
	PageSize int
}

// NewFileHeader builds the default header written for a freshly
// initialized database file.
func NewFileHeader(pageSize int) FileHeader {
	return FileHeader{PageSize: pageSize}
}

// Bytes serializes the header to its on-disk 100-byte representation.
// A page size of 65536 does not fit a u16 field, so SQLite's magic
// value 0x0001 is written instead (equivalently read as page_size/256
// little-endian); ParseFileHeader reverses this.
func (h FileHeader) Bytes() []byte {
	buf := make([]byte, HeaderSize)
	copy(buf, magicBytes)

	encoded := uint16(h.PageSize)
	if h.PageSize == 65536 {
		encoded = 1
	}
	binary.BigEndian.PutUint16(buf[16:18], encoded)
	copy(buf[18:24], constantTail)

	// Fixed constants the spec calls out by offset; every other u32 slot
	// in 0x18..0x43 is left zero.
	binary.BigEndian.PutUint32(buf[0x2C:0x30], 1)
	binary.BigEndian.PutUint32(buf[0x30:0x34], 20000)
	binary.BigEndian.PutUint32(buf[0x38:0x3C], 1)

	return buf
}

// ParseFileHeader validates and decodes a 100-byte header buffer.
// Any deviation from the fixed layout in §3 is reported as
// ErrCorruptHeader: the magic bytes, the constant tail, and every
// u32 slot in 0x18..0x43 other than the three fixed constants must be
// exactly as written by Bytes.
func ParseFileHeader(buf []byte) (FileHeader, error) {
	if len(buf) != HeaderSize {
		return FileHeader{}, ErrCorruptHeader
	}
	if !bytes.Equal(buf[0:16], magicBytes) {
		return FileHeader{}, ErrCorruptHeader
	}
	if !bytes.Equal(buf[18:24], constantTail) {
		return FileHeader{}, ErrCorruptHeader
	}

	for off := 0x18; off+4 <= 0x44; off += 4 {
		want := uint32(0)
		switch off {
		case 0x2C:
			want = 1
		case 0x30:
			want = 20000
		case 0x38:
			want = 1
		}
		got := binary.BigEndian.Uint32(buf[off : off+4])
		if got != want {
			return FileHeader{}, ErrCorruptHeader
		}
	}

	rawPageSize := binary.BigEndian.Uint16(buf[16:18])
	pageSize := int(rawPageSize)
	if rawPageSize == 1 {
		pageSize = 65536
	}
	if !isValidPageSize(pageSize) {
		return FileHeader{}, ErrCorruptHeader
	}

	return FileHeader{PageSize: pageSize}, nil
}

func isValidPageSize(sz int) bool {
	if sz < 512 || sz > 65536 {
		return false
	}
	return sz&(sz-1) == 0
}
