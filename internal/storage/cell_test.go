package storage

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCell_RoundTrip_AllVariants(t *testing.T) {
	cases := []Cell{
		{Type: PageTypeTableInternal, Key: 999, ChildPage: 2},
		{Type: PageTypeTableLeaf, Key: 7, Payload: []byte("a")},
		{Type: PageTypeTableLeaf, Key: 11, Payload: []byte("ccc")},
		{Type: PageTypeIndexInternal, Key: 42, KeyPk: 7, ChildPage: 3},
		{Type: PageTypeIndexLeaf, Key: 42, KeyPk: 7},
	}

	for _, c := range cases {
		assert := require.New(t)
		buf := make([]byte, c.cellSize())
		n, err := writeCell(buf, c)
		assert.NoError(err)
		assert.Equal(len(buf), n)

		got, err := readCell(c.Type, buf)
		assert.NoError(err)
		assert.Equal(c.Type, got.Type)
		assert.Equal(c.Key, got.Key)
		assert.Equal(c.ChildPage, got.ChildPage)
		assert.Equal(c.KeyPk, got.KeyPk)
		assert.Equal(c.Payload, got.Payload)
	}
}

func TestCell_IndexCellsCarryFixedMagicBytes(t *testing.T) {
	assert := require.New(t)
	c := Cell{Type: PageTypeIndexLeaf, Key: 1, KeyPk: 2}
	buf := make([]byte, c.cellSize())
	_, err := writeCell(buf, c)
	assert.NoError(err)
	assert.Equal([]byte{0x0B, 0x03, 0x04, 0x04}, buf[0:4])
}

func TestCell_IndexLeafRejectsBadMagic(t *testing.T) {
	assert := require.New(t)
	buf := []byte{0x0B, 0x03, 0x04, 0x05, 0, 0, 0, 1, 0, 0, 0, 2}
	_, err := readCell(PageTypeIndexLeaf, buf)
	assert.ErrorIs(err, ErrCorruptHeader)
}

func TestCell_Sizes(t *testing.T) {
	assert := require.New(t)
	assert.Equal(8, Cell{Type: PageTypeTableInternal, Key: 1}.cellSize())
	assert.Equal(9, Cell{Type: PageTypeTableLeaf, Key: 1, Payload: []byte("a")}.cellSize())
	assert.Equal(16, Cell{Type: PageTypeIndexInternal}.cellSize())
	assert.Equal(12, Cell{Type: PageTypeIndexLeaf}.cellSize())
}
