package storage

import (
	"fmt"
	"io"
)

// varint32 is SQLite's MSB-continuation big-endian encoding of a uint32 in
// 1 to 5 bytes: each byte contributes 7 bits, high bit set means "more
// bytes follow". Grounded on the teacher's storage/varint.go, narrowed
// from a 64-bit varint to the 32-bit key domain the spec requires and
// reworked to read/write directly against a byte slice the way cell
// parsing needs (the teacher always goes through an io.ByteReader).

// getVarint32 decodes a varint32 starting at data[0] and returns the
// value and the number of bytes consumed (1-5).
func getVarint32(data []byte) (uint32, int, error) {
	var x uint32
	for i := 0; i < 5 && i < len(data); i++ {
		b := data[i]
		x = (x << 7) | uint32(b&0x7f)
		if b&0x80 == 0 {
			return x, i + 1, nil
		}
	}
	return 0, 0, fmt.Errorf("storage: malformed varint32")
}

// putVarint32 encodes v into dst and returns the number of bytes written.
// dst must have room for at least 5 bytes.
func putVarint32(dst []byte, v uint32) int {
	var tmp [5]byte
	n := 0
	tmp[0] = byte(v & 0x7f)
	n = 1
	v >>= 7
	for v != 0 {
		tmp[n] = byte(v & 0x7f)
		n++
		v >>= 7
	}
	// tmp is little-endian 7-bit groups; write out big-endian with
	// continuation bits set on every byte but the last.
	for i := 0; i < n; i++ {
		b := tmp[n-1-i]
		if i < n-1 {
			b |= 0x80
		}
		dst[i] = b
	}
	return n
}

// sizeVarint32 returns the number of bytes putVarint32 would write for v.
func sizeVarint32(v uint32) int {
	n := 1
	v >>= 7
	for v != 0 {
		n++
		v >>= 7
	}
	return n
}

// readVarint32 decodes a varint32 from r, for callers holding an
// io.ByteReader rather than a byte slice. The record codec (record.go)
// decodes from slices with getVarint32 and does not call it.
func readVarint32(r io.ByteReader) (uint32, int, error) {
	var buf [5]byte
	n := 0
	for n < 5 {
		b, err := r.ReadByte()
		if err != nil {
			return 0, n, err
		}
		buf[n] = b
		n++
		if b&0x80 == 0 {
			break
		}
	}
	v, consumed, err := getVarint32(buf[:n])
	if err != nil {
		return 0, 0, err
	}
	return v, consumed, nil
}
