package storage

import (
	"bytes"
	"encoding/binary"
)

// FieldType tags the SQL type a record's column holds, mirroring the
// Register kinds of §4.4 so a Field can be lifted straight into a
// register by Column and lowered straight from one by MakeRecord.
type FieldType byte

const (
	FieldNull FieldType = iota
	FieldInt32
	FieldString
	FieldBinary
)

// serial type codes in the record header, grounded on the teacher's
// record.go SQLType constants (themselves SQLite's column-affinity
// serial types): 0 is NULL, 4 is a 4-byte big-endian integer, and text
// is encoded as an odd value >= 13 with the string byte length derived
// as (code-13)/2. Binary fields reuse the same size encoding one value
// below it (even, >= 12) so the two are distinguishable on parse.
const (
	serialNull   = 0
	serialInt32  = 4
	textBase     = 13
	textStride   = 2
	binaryBase   = 12
	binaryStride = 2
)

// Field is one column of a Record.
type Field struct {
	Type FieldType
	Int  int32
	Str  string
	Bin  []byte
}

func NullField() Field           { return Field{Type: FieldNull} }
func IntField(v int32) Field     { return Field{Type: FieldInt32, Int: v} }
func StringField(s string) Field { return Field{Type: FieldString, Str: s} }
func BinaryField(b []byte) Field { return Field{Type: FieldBinary, Bin: append([]byte(nil), b...)} }

func serialCode(f Field) uint32 {
	switch f.Type {
	case FieldNull:
		return serialNull
	case FieldInt32:
		return serialInt32
	case FieldString:
		return uint32(textBase + textStride*len(f.Str))
	case FieldBinary:
		return uint32(binaryBase + binaryStride*len(f.Bin))
	default:
		return serialNull
	}
}

func fieldFromSerial(code uint32, payload []byte) Field {
	switch {
	case code == serialNull:
		return Field{Type: FieldNull}
	case code == serialInt32:
		return Field{Type: FieldInt32, Int: int32(binary.BigEndian.Uint32(payload))}
	case code >= textBase && (code-textBase)%textStride == 0:
		return Field{Type: FieldString, Str: string(payload)}
	default:
		return Field{Type: FieldBinary, Bin: append([]byte(nil), payload...)}
	}
}

// Record is the decoded form of a TABLE_LEAF cell payload: a record
// header of varint32 serial-type codes (preceded by the header's own
// varint32 byte length) followed by the concatenated column bodies.
// Grounded on the teacher's record.go Write/ReadRecord pair, narrowed to
// the four Register kinds of §4.4 instead of the teacher's SQL-type
// affinities.
type Record struct {
	Fields []Field
}

// NewRecord builds a Record from a set of fields in column order.
func NewRecord(fields ...Field) Record {
	return Record{Fields: fields}
}

// Marshal serializes the record into its TABLE_LEAF payload bytes.
func (r Record) Marshal() []byte {
	var header bytes.Buffer
	for _, f := range r.Fields {
		var tmp [5]byte
		n := putVarint32(tmp[:], serialCode(f))
		header.Write(tmp[:n])
	}

	// The header-length varint counts itself, so its own encoded size
	// feeds back into the value it encodes; iterate to the fixed point
	// (converges in one step for all but pathological header sizes that
	// straddle a varint size boundary).
	var headerLenBuf [5]byte
	hn := 1
	for {
		total := uint32(header.Len() + hn)
		n := putVarint32(headerLenBuf[:], total)
		if n == hn {
			break
		}
		hn = n
	}

	var out bytes.Buffer
	out.Write(headerLenBuf[:hn])
	out.Write(header.Bytes())
	for _, f := range r.Fields {
		switch f.Type {
		case FieldNull:
		case FieldInt32:
			var b [4]byte
			binary.BigEndian.PutUint32(b[:], uint32(f.Int))
			out.Write(b[:])
		case FieldString:
			out.WriteString(f.Str)
		case FieldBinary:
			out.Write(f.Bin)
		}
	}
	return out.Bytes()
}

// UnmarshalRecord parses a TABLE_LEAF payload back into a Record.
func UnmarshalRecord(data []byte) (Record, error) {
	headerLen, n, err := getVarint32(data)
	if err != nil {
		return Record{}, ErrCorruptHeader
	}
	if int(headerLen) > len(data) {
		return Record{}, ErrCorruptHeader
	}

	var codes []uint32
	pos := n
	end := int(headerLen)
	for pos < end {
		code, cn, err := getVarint32(data[pos:])
		if err != nil {
			return Record{}, ErrCorruptHeader
		}
		codes = append(codes, code)
		pos += cn
	}

	fields := make([]Field, 0, len(codes))
	bodyPos := end
	for _, code := range codes {
		size := serialPayloadLen(code)
		if bodyPos+size > len(data) {
			return Record{}, ErrCorruptHeader
		}
		fields = append(fields, fieldFromSerial(code, data[bodyPos:bodyPos+size]))
		bodyPos += size
	}
	return Record{Fields: fields}, nil
}

func serialPayloadLen(code uint32) int {
	switch {
	case code == serialNull:
		return 0
	case code == serialInt32:
		return 4
	case code >= textBase && (code-textBase)%textStride == 0:
		return int(code-textBase) / textStride
	case code >= binaryBase:
		return int(code-binaryBase) / binaryStride
	default:
		return 0
	}
}
