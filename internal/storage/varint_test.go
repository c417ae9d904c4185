package storage

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVarint32_RoundTrip(t *testing.T) {
	assert := require.New(t)

	cases := []uint32{0, 1, 127, 128, 999, 16383, 16384, 2097151, 4294967295}
	for _, v := range cases {
		buf := make([]byte, 5)
		n := putVarint32(buf, v)
		assert.Equal(sizeVarint32(v), n)

		got, consumed, err := getVarint32(buf)
		assert.NoError(err)
		assert.Equal(v, got)
		assert.Equal(n, consumed)
	}
}

func TestVarint32_999EncodesTwoBytes(t *testing.T) {
	assert := require.New(t)
	buf := make([]byte, 5)
	n := putVarint32(buf, 999)
	assert.Equal([]byte{0x87, 0x67}, buf[:n])
}

func TestReadVarint32_FromReader(t *testing.T) {
	assert := require.New(t)
	buf := make([]byte, 5)
	n := putVarint32(buf, 999)

	v, consumed, err := readVarint32(bytes.NewReader(buf[:n]))
	assert.NoError(err)
	assert.Equal(uint32(999), v)
	assert.Equal(n, consumed)
}
