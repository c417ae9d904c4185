package storage

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func buildTableTree(t *testing.T, pageSize int, keys []uint32) *BTree {
	t.Helper()
	pager := newTestPager(t, pageSize)
	tree, err := NewTree(pager, false)
	require.NoError(t, err)
	for _, k := range keys {
		require.NoError(t, tree.Insert(Cell{Type: PageTypeTableLeaf, Key: k, Payload: []byte{byte(k), byte(k >> 8)}}))
	}
	return tree
}

func sequentialKeys(n int) []uint32 {
	keys := make([]uint32, n)
	for i := range keys {
		keys[i] = uint32(i + 1)
	}
	return keys
}

// TestCursor_NextAcrossSubtrees is scenario S5 on 512-byte pages: keys
// 1..1000 with 2-byte payloads build a two-level tree of about 45
// leaves; rewinding and calling next 999 times yields keys
// 2..1000, and the 1000th next call returns ErrNoNext without moving.
func TestCursor_NextAcrossSubtrees(t *testing.T) {
	assert := require.New(t)
	tree := buildTableTree(t, 512, sequentialKeys(1000))

	cur := NewCursor(tree)
	assert.NoError(cur.Rewind())

	first, err := cur.CurrentCell()
	assert.NoError(err)
	assert.Equal(uint32(1), first.Key)

	for i := 2; i <= 1000; i++ {
		assert.NoError(cur.Next(), "next to key %d", i)
		cell, err := cur.CurrentCell()
		assert.NoError(err)
		assert.Equal(uint32(i), cell.Key)
	}

	lastBefore, _ := cur.CurrentCell()
	err = cur.Next()
	assert.Equal(ErrNoNext, err)
	lastAfter, _ := cur.CurrentCell()
	assert.Equal(lastBefore, lastAfter)
}

func TestCursor_PrevIsSymmetricToNext(t *testing.T) {
	assert := require.New(t)
	tree := buildTableTree(t, 512, sequentialKeys(200))

	cur := NewCursor(tree)
	assert.NoError(cur.Rewind())
	for i := 0; i < 199; i++ {
		assert.NoError(cur.Next())
	}
	last, err := cur.CurrentCell()
	assert.NoError(err)
	assert.Equal(uint32(200), last.Key)

	for i := 199; i >= 1; i-- {
		assert.NoError(cur.Prev())
		cell, err := cur.CurrentCell()
		assert.NoError(err)
		assert.Equal(uint32(i), cell.Key)
	}

	assert.Equal(ErrNoPrev, cur.Prev())
}

// TestCursor_SeekGeBeyondAllKeys is scenario S2: SeekGe with a key
// greater than every entry reports ErrKeyNotFound.
func TestCursor_SeekGeBeyondAllKeys(t *testing.T) {
	assert := require.New(t)
	tree := buildTableTree(t, 512, []uint32{1024, 2377, 4399, 7266, 8648})

	cur := NewCursor(tree)
	err := cur.SeekGe(9980)
	assert.ErrorIs(err, ErrKeyNotFound)
}

func TestCursor_SeekFamily(t *testing.T) {
	assert := require.New(t)
	tree := buildTableTree(t, 512, []uint32{10, 20, 30, 40, 50})

	cur := NewCursor(tree)
	assert.NoError(cur.Seek(30))
	cell, _ := cur.CurrentCell()
	assert.Equal(uint32(30), cell.Key)

	assert.ErrorIs(cur.Seek(25), ErrKeyNotFound)

	assert.NoError(cur.SeekGe(25))
	cell, _ = cur.CurrentCell()
	assert.Equal(uint32(30), cell.Key)

	assert.NoError(cur.SeekGe(30))
	cell, _ = cur.CurrentCell()
	assert.Equal(uint32(30), cell.Key)

	assert.NoError(cur.SeekGt(30))
	cell, _ = cur.CurrentCell()
	assert.Equal(uint32(40), cell.Key)

	assert.NoError(cur.SeekLe(25))
	cell, _ = cur.CurrentCell()
	assert.Equal(uint32(20), cell.Key)

	assert.NoError(cur.SeekLe(30))
	cell, _ = cur.CurrentCell()
	assert.Equal(uint32(30), cell.Key)

	assert.NoError(cur.SeekLt(30))
	cell, _ = cur.CurrentCell()
	assert.Equal(uint32(20), cell.Key)

	assert.ErrorIs(cur.SeekLt(10), ErrKeyNotFound)
	assert.ErrorIs(cur.SeekGt(50), ErrKeyNotFound)
}

func TestCursor_PrevOverIndexInternal(t *testing.T) {
	assert := require.New(t)
	pager := newTestPager(t, 512)
	tree, err := NewTree(pager, true)
	assert.NoError(err)

	for i := uint32(1); i <= 200; i++ {
		assert.NoError(tree.Insert(Cell{Type: PageTypeIndexLeaf, Key: i, KeyPk: i * 10}))
	}

	root, err := pager.ReadPage(tree.Root())
	assert.NoError(err)
	assert.True(root.Type == PageTypeIndexInternal)

	cur := NewCursor(tree)
	assert.NoError(cur.Rewind())
	for i := 0; i < 199; i++ {
		assert.NoError(cur.Next())
	}

	var keys []uint32
	cell, err := cur.CurrentCell()
	assert.NoError(err)
	keys = append(keys, cell.Key)
	for i := 0; i < 199; i++ {
		assert.NoError(cur.Prev())
		cell, err := cur.CurrentCell()
		assert.NoError(err)
		keys = append(keys, cell.Key)
	}
	assert.Equal(ErrNoPrev, cur.Prev())

	for i, k := range keys {
		assert.Equal(uint32(200-i), k)
	}
}
