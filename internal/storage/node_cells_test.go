package storage

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNode_InsertCell_KeepsAscendingOrder(t *testing.T) {
	assert := require.New(t)
	node := newEmptyNode(2, 4096, PageTypeTableLeaf)

	keys := []uint32{7, 3, 11, 5}
	for _, k := range keys {
		idx, exact, err := node.findInsertIndex(k)
		assert.NoError(err)
		assert.False(exact)
		assert.NoError(node.InsertCell(idx, Cell{Type: PageTypeTableLeaf, Key: k, Payload: []byte{byte(k)}}))
	}

	assert.Equal(uint16(4), node.NumCells)
	var seen []uint32
	for i := 0; i < int(node.NumCells); i++ {
		c, err := node.GetCell(i)
		assert.NoError(err)
		seen = append(seen, c.Key)
	}
	assert.Equal([]uint32{3, 5, 7, 11}, seen)
}

func TestNode_GetCell_OutOfRange(t *testing.T) {
	assert := require.New(t)
	node := newEmptyNode(2, 4096, PageTypeTableLeaf)
	_, err := node.GetCell(0)
	assert.ErrorIs(err, ErrCellNumber)
}

func TestNode_InsertCell_OutOfRange(t *testing.T) {
	assert := require.New(t)
	node := newEmptyNode(2, 4096, PageTypeTableLeaf)
	err := node.InsertCell(1, Cell{Type: PageTypeTableLeaf, Key: 1, Payload: []byte("x")})
	assert.ErrorIs(err, ErrCellNumber)
}

func TestNode_Full_ReportsSpaceExhaustion(t *testing.T) {
	assert := require.New(t)
	node := newEmptyNode(2, 64, PageTypeTableLeaf)

	for i := 0; i < 100; i++ {
		idx, _, _ := node.findInsertIndex(uint32(i))
		if node.full(Cell{Type: PageTypeTableLeaf, Key: uint32(i), Payload: make([]byte, 10)}.cellSize()) {
			break
		}
		assert.NoError(node.InsertCell(idx, Cell{Type: PageTypeTableLeaf, Key: uint32(i), Payload: make([]byte, 10)}))
	}

	assert.True(int(node.FreeOffset) <= int(node.CellsOffset))
}
