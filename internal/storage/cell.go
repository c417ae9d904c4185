package storage

import (
	"bytes"
	"encoding/binary"
	"math"
)

// indexMagic is the fixed 4-byte placeholder every index cell carries,
// meaning "one-column record of a 4-byte integer" (§9 Design Notes). It
// must be written verbatim and rejected on read if any other value is
// found.
var indexMagic = [4]byte{0x0B, 0x03, 0x04, 0x04}

// Cell is a discriminated union over the four on-disk cell layouts,
// keyed by the owning node's PageType. Modeling it this way (rather than
// a generic struct with optional fields) matches the spec's Design Notes
// guidance and the teacher's interior_node.go/record.go split, unified
// into one type so btree.go can move a cell between leaf and internal
// representations during a split without juggling two Go types.
type Cell struct {
	Type PageType

	// Key is the cell's ordering key: the table row's primary key for
	// table cells, or the index key for index cells.
	Key uint32

	// ChildPage is set for TABLE_INTERNAL/INDEX_INTERNAL cells.
	ChildPage uint32

	// KeyPk is set for INDEX_INTERNAL/INDEX_LEAF cells: the primary key
	// of the row the indexed field resolves to.
	KeyPk uint32

	// Payload is the TABLE_LEAF record bytes. Unused by other variants.
	Payload []byte
}

// cellSize returns the serialized byte length of the cell, per §4.1:
// TABLE_INTERNAL 8, TABLE_LEAF 8+len(Payload), INDEX_INTERNAL 16,
// INDEX_LEAF 12. The cell-layout table in §3 labels the key/data-size
// fields "varint32", but pins them to the fixed 4-byte columns 0..3/4..7
// — unlike the record header (record.go), where the same varint32
// codec genuinely produces a 1-5 byte field, a cell's own key and data
// size are fixed-width u32 fields so every variant's size is a
// constant the caller can predict before serializing.
func (c Cell) cellSize() int {
	switch c.Type {
	case PageTypeTableInternal:
		return 8
	case PageTypeTableLeaf:
		return 8 + len(c.Payload)
	case PageTypeIndexInternal:
		return 16
	case PageTypeIndexLeaf:
		return 12
	default:
		return 0
	}
}

// writeCell serializes c into dst (which must be at least cellSize()
// bytes) and returns the number of bytes written.
func writeCell(dst []byte, c Cell) (int, error) {
	switch c.Type {
	case PageTypeTableInternal:
		binary.BigEndian.PutUint32(dst[0:4], c.ChildPage)
		binary.BigEndian.PutUint32(dst[4:8], c.Key)
		return 8, nil

	case PageTypeTableLeaf:
		dataSize := uint64(len(c.Payload))
		if dataSize > math.MaxUint32-8 {
			return 0, ErrIO
		}
		binary.BigEndian.PutUint32(dst[0:4], uint32(dataSize))
		binary.BigEndian.PutUint32(dst[4:8], c.Key)
		copy(dst[8:], c.Payload)
		return 8 + len(c.Payload), nil

	case PageTypeIndexInternal:
		binary.BigEndian.PutUint32(dst[0:4], c.ChildPage)
		copy(dst[4:8], indexMagic[:])
		binary.BigEndian.PutUint32(dst[8:12], c.Key)
		binary.BigEndian.PutUint32(dst[12:16], c.KeyPk)
		return 16, nil

	case PageTypeIndexLeaf:
		copy(dst[0:4], indexMagic[:])
		binary.BigEndian.PutUint32(dst[4:8], c.Key)
		binary.BigEndian.PutUint32(dst[8:12], c.KeyPk)
		return 12, nil

	default:
		return 0, ErrCorruptHeader
	}
}

// readCell parses a cell of the given type starting at data[0]. data may
// be longer than the cell; readCell only reads the bytes the variant
// needs, returning a Payload slice for TABLE_LEAF that is an owned copy
// (per §3's "a register owns its string/binary payload" ownership rule,
// mirrored for cell payloads read off disk).
func readCell(t PageType, data []byte) (Cell, error) {
	switch t {
	case PageTypeTableInternal:
		if len(data) < 8 {
			return Cell{}, ErrCorruptHeader
		}
		childPage := binary.BigEndian.Uint32(data[0:4])
		key := binary.BigEndian.Uint32(data[4:8])
		return Cell{Type: t, ChildPage: childPage, Key: key}, nil

	case PageTypeTableLeaf:
		if len(data) < 8 {
			return Cell{}, ErrCorruptHeader
		}
		size := binary.BigEndian.Uint32(data[0:4])
		key := binary.BigEndian.Uint32(data[4:8])
		end := 8 + int(size)
		if end > len(data) {
			return Cell{}, ErrIO
		}
		payload := make([]byte, size)
		copy(payload, data[8:end])
		return Cell{Type: t, Key: key, Payload: payload}, nil

	case PageTypeIndexInternal:
		if len(data) < 16 {
			return Cell{}, ErrCorruptHeader
		}
		childPage := binary.BigEndian.Uint32(data[0:4])
		if !bytes.Equal(data[4:8], indexMagic[:]) {
			return Cell{}, ErrCorruptHeader
		}
		key := binary.BigEndian.Uint32(data[8:12])
		keyPk := binary.BigEndian.Uint32(data[12:16])
		return Cell{Type: t, ChildPage: childPage, Key: key, KeyPk: keyPk}, nil

	case PageTypeIndexLeaf:
		if len(data) < 12 {
			return Cell{}, ErrCorruptHeader
		}
		if !bytes.Equal(data[0:4], indexMagic[:]) {
			return Cell{}, ErrCorruptHeader
		}
		key := binary.BigEndian.Uint32(data[4:8])
		keyPk := binary.BigEndian.Uint32(data[8:12])
		return Cell{Type: t, Key: key, KeyPk: keyPk}, nil

	default:
		return Cell{}, ErrCorruptHeader
	}
}

// asInternal converts a leaf-median cell into the internal variant with
// the same ordering key, used when a split promotes a median cell into
// the parent: TABLE_LEAF -> TABLE_INTERNAL, INDEX_LEAF -> INDEX_INTERNAL
// (carrying KeyPk). An internal median keeps its variant. In every case
// the returned cell's ChildPage is childPage.
func (c Cell) asInternal(childPage uint32) Cell {
	switch c.Type {
	case PageTypeTableLeaf:
		return Cell{Type: PageTypeTableInternal, Key: c.Key, ChildPage: childPage}
	case PageTypeIndexLeaf:
		return Cell{Type: PageTypeIndexInternal, Key: c.Key, KeyPk: c.KeyPk, ChildPage: childPage}
	default:
		c.ChildPage = childPage
		return c
	}
}
