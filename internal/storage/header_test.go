package storage

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFileHeader_RoundTrip(t *testing.T) {
	assert := require.New(t)

	h := NewFileHeader(1024)
	buf := h.Bytes()

	assert.Equal("SQLite format 3\000", string(buf[0:16]))
	assert.Equal([]byte{0x04, 0x00}, buf[16:18])

	parsed, err := ParseFileHeader(buf)
	assert.NoError(err)
	assert.Equal(1024, parsed.PageSize)
}

func TestFileHeader_MaxPageSizeMagicValue(t *testing.T) {
	assert := require.New(t)

	h := NewFileHeader(65536)
	buf := h.Bytes()
	assert.Equal([]byte{0x00, 0x01}, buf[16:18])

	parsed, err := ParseFileHeader(buf)
	assert.NoError(err)
	assert.Equal(65536, parsed.PageSize)
}

func TestParseFileHeader_RejectsBadMagic(t *testing.T) {
	assert := require.New(t)

	buf := NewFileHeader(1024).Bytes()
	buf[0] = 'X'

	_, err := ParseFileHeader(buf)
	assert.ErrorIs(err, ErrCorruptHeader)
}

func TestParseFileHeader_RejectsNonZeroReservedSlot(t *testing.T) {
	assert := require.New(t)

	buf := NewFileHeader(1024).Bytes()
	buf[0x40] = 0x01

	_, err := ParseFileHeader(buf)
	assert.ErrorIs(err, ErrCorruptHeader)
}
