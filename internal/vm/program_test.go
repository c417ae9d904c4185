package vm

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"tinydb/internal/storage"
)

func newTestPager(t *testing.T) *storage.Pager {
	t.Helper()
	path := filepath.Join(t.TempDir(), "t.db")
	p, err := storage.Open(path, storage.DefaultPageSize)
	require.NoError(t, err)
	p.SetMode(storage.ModeWrite)
	t.Cleanup(func() { p.Close() })
	return p
}

// drainResults runs prog to completion while concurrently draining its
// Results channel, the way a caller (the teacher's backend, consuming
// virtualmachine.Program.Results) must: ResultRow blocks on an
// unbuffered send.
func drainResults(t *testing.T, prog *Program) (rows [][]interface{}, exitCode int32, err error) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		for row := range prog.Results() {
			rows = append(rows, row)
		}
		close(done)
	}()
	exitCode, err = prog.Run()
	<-done
	return rows, exitCode, err
}

func TestProgram_RegisterLiteralsAndResultRow(t *testing.T) {
	assert := require.New(t)
	prog := NewProgram(newTestPager(t), []Instruction{
		{Op: OpInteger, P1: 7, P2: 0},
		{Op: OpString, P2: 1, P4: "hi"},
		{Op: OpNull, P2: 2},
		{Op: OpSCopy, P1: 0, P2: 3},
		{Op: OpResultRow, P1: 0, P2: 4},
		{Op: OpHalt},
	}, nil)

	rows, exitCode, err := drainResults(t, prog)
	assert.NoError(err)
	assert.Equal(int32(0), exitCode)
	assert.Len(rows, 1)
	assert.Equal([]interface{}{int32(7), "hi", nil, int32(7)}, rows[0])
}

// TestProgram_NullEqualsNull is the first half of scenario S6: two Null
// registers compare equal under Eq.
func TestProgram_NullEqualsNull(t *testing.T) {
	assert := require.New(t)
	prog := NewProgram(newTestPager(t), []Instruction{
		{Op: OpNull, P2: 0},
		{Op: OpNull, P2: 1},
		{Op: OpEq, P1: 0, P2: 5, P3: 1},
		{Op: OpInteger, P1: 111, P2: 2},
		{Op: OpHalt},
		{Op: OpInteger, P1: 222, P2: 2},
		{Op: OpResultRow, P1: 2, P2: 1},
		{Op: OpHalt},
	}, nil)

	rows, _, err := drainResults(t, prog)
	assert.NoError(err)
	assert.Equal([]interface{}{int32(222)}, rows[0])
}

// TestProgram_Int32Lt is the second half of scenario S6: Lt fires for
// register pair Int32(3), Int32(7).
func TestProgram_Int32Lt(t *testing.T) {
	assert := require.New(t)
	prog := NewProgram(newTestPager(t), []Instruction{
		{Op: OpInteger, P1: 3, P2: 0},
		{Op: OpInteger, P1: 7, P2: 1},
		{Op: OpLt, P1: 0, P2: 5, P3: 1},
		{Op: OpInteger, P1: 0, P2: 2},
		{Op: OpHalt},
		{Op: OpInteger, P1: 1, P2: 2},
		{Op: OpResultRow, P1: 2, P2: 1},
		{Op: OpHalt},
	}, nil)

	rows, _, err := drainResults(t, prog)
	assert.NoError(err)
	assert.Equal([]interface{}{int32(1)}, rows[0])
}

// TestProgram_Int32GtFallsThrough is scenario S6's negative case: Gt
// does not fire for the same register pair.
func TestProgram_Int32GtFallsThrough(t *testing.T) {
	assert := require.New(t)
	prog := NewProgram(newTestPager(t), []Instruction{
		{Op: OpInteger, P1: 3, P2: 0},
		{Op: OpInteger, P1: 7, P2: 1},
		{Op: OpGt, P1: 0, P2: 6, P3: 1},
		{Op: OpInteger, P1: 1, P2: 2},
		{Op: OpResultRow, P1: 2, P2: 1},
		{Op: OpHalt},
		{Op: OpInteger, P1: 2, P2: 2},
		{Op: OpResultRow, P1: 2, P2: 1},
		{Op: OpHalt},
	}, nil)

	rows, _, err := drainResults(t, prog)
	assert.NoError(err)
	assert.Equal([]interface{}{int32(1)}, rows[0])
}

func buildTableForScan(t *testing.T, keys []uint32) *storage.Pager {
	t.Helper()
	pager := newTestPager(t)
	tree, err := storage.NewTree(pager, false)
	require.NoError(t, err)
	require.Equal(t, 2, tree.Root())

	for _, k := range keys {
		payload := storage.NewRecord(
			storage.IntField(0),
			storage.IntField(0),
			storage.IntField(int32(k)),
		).Marshal()
		require.NoError(t, tree.Insert(storage.Cell{Type: storage.PageTypeTableLeaf, Key: k, Payload: payload}))
	}
	return pager
}

// TestProgram_SeekGeBeyondAllKeys is scenario S2's literal instruction
// sequence: `Integer 2 0; OpenRead 0 0 4; Integer 9980 1; SeekGe 0 7 1;
// Column 0 2 2; ResultRow 2 1; Next 0 4; Close 0; Halt` against a table
// rooted at page 2 whose keys never reach 9980.
func TestProgram_SeekGeBeyondAllKeys(t *testing.T) {
	assert := require.New(t)
	pager := buildTableForScan(t, []uint32{1024, 2377, 4399, 7266, 8648})

	prog := NewProgram(pager, []Instruction{
		{Op: OpInteger, P1: 2, P2: 0},
		{Op: OpOpenRead, P1: 0, P2: 0, P3: 4},
		{Op: OpInteger, P1: 9980, P2: 1},
		{Op: OpSeekGe, P1: 0, P2: 7, P3: 1},
		{Op: OpColumn, P1: 0, P2: 2, P3: 2},
		{Op: OpResultRow, P1: 2, P2: 1},
		{Op: OpNext, P1: 0, P2: 4},
		{Op: OpClose, P1: 0},
		{Op: OpHalt},
	}, nil)

	rows, exitCode, err := drainResults(t, prog)
	assert.NoError(err)
	assert.Equal(int32(0), exitCode)
	assert.Empty(rows)
}

// TestProgram_ScanAllRows exercises the same program shape as S2 but
// with a key the SeekGe lands on, confirming the loop emits a row per
// matching and subsequent key via Next's jump-on-success semantics.
func TestProgram_ScanAllRows(t *testing.T) {
	assert := require.New(t)
	keys := []uint32{1024, 2377, 4399, 7266, 8648}
	pager := buildTableForScan(t, keys)

	prog := NewProgram(pager, []Instruction{
		{Op: OpInteger, P1: 2, P2: 0},
		{Op: OpOpenRead, P1: 0, P2: 0, P3: 4},
		{Op: OpInteger, P1: 4399, P2: 1},
		{Op: OpSeekGe, P1: 0, P2: 7, P3: 1},
		{Op: OpColumn, P1: 0, P2: 2, P3: 2},
		{Op: OpResultRow, P1: 2, P2: 1},
		{Op: OpNext, P1: 0, P2: 4},
		{Op: OpClose, P1: 0},
		{Op: OpHalt},
	}, nil)

	rows, _, err := drainResults(t, prog)
	assert.NoError(err)
	assert.Len(rows, 3)
	assert.Equal([]interface{}{int32(4399)}, rows[0])
	assert.Equal([]interface{}{int32(7266)}, rows[1])
	assert.Equal([]interface{}{int32(8648)}, rows[2])
}

// TestProgram_CreateTableInsertScan drives CreateTable, MakeRecord and
// Insert end to end, then rewinds a fresh read cursor over the same
// root and confirms every inserted row comes back out in key order.
func TestProgram_CreateTableInsertScan(t *testing.T) {
	assert := require.New(t)
	pager := newTestPager(t)

	prog := NewProgram(pager, []Instruction{
		{Op: OpCreateTable, P1: 0},
		{Op: OpOpenWrite, P1: 0, P2: 0, P3: 1},

		{Op: OpInteger, P1: 10, P2: 1},
		{Op: OpString, P2: 2, P4: "alice"},
		{Op: OpMakeRecord, P1: 1, P2: 2, P3: 3},
		{Op: OpInteger, P1: 1, P2: 4},
		{Op: OpInsert, P1: 0, P2: 3, P3: 4},

		{Op: OpInteger, P1: 20, P2: 1},
		{Op: OpString, P2: 2, P4: "bob"},
		{Op: OpMakeRecord, P1: 1, P2: 2, P3: 3},
		{Op: OpInteger, P1: 2, P2: 4},
		{Op: OpInsert, P1: 0, P2: 3, P3: 4},

		{Op: OpClose, P1: 0},

		{Op: OpOpenRead, P1: 1, P2: 0, P3: 1},
		{Op: OpRewind, P1: 1, P2: 20},
		{Op: OpColumn, P1: 1, P2: 0, P3: 5},
		{Op: OpResultRow, P1: 5, P2: 1},
		{Op: OpNext, P1: 1, P2: 15},
		{Op: OpClose, P1: 1},
		{Op: OpHalt},
	}, nil)

	rows, exitCode, err := drainResults(t, prog)
	assert.NoError(err)
	assert.Equal(int32(0), exitCode)
	assert.Equal([]interface{}{int32(10)}, rows[0])
	assert.Equal([]interface{}{int32(20)}, rows[1])
}

// TestProgram_IndexInsertAndIdxGt drives CreateIndex, IdxInsert and the
// IdxGt/IdxPKey opcodes against a fresh index B-tree.
func TestProgram_IndexInsertAndIdxGt(t *testing.T) {
	assert := require.New(t)
	pager := newTestPager(t)

	prog := NewProgram(pager, []Instruction{
		{Op: OpCreateIndex, P1: 0},
		{Op: OpOpenWrite, P1: 0, P2: 0, P3: 0},
		{Op: OpInteger, P1: 100, P2: 1},
		{Op: OpInteger, P1: 1, P2: 2},
		{Op: OpIdxInsert, P1: 0, P2: 1, P3: 2},
		{Op: OpInteger, P1: 200, P2: 1},
		{Op: OpInteger, P1: 2, P2: 2},
		{Op: OpIdxInsert, P1: 0, P2: 1, P3: 2},
		{Op: OpClose, P1: 0},

		{Op: OpOpenRead, P1: 1, P2: 0, P3: 0},
		{Op: OpRewind, P1: 1, P2: 16}, // empty -> Close; not taken here
		{Op: OpInteger, P1: 150, P2: 3},
		{Op: OpIdxGt, P1: 1, P2: 16, P3: 3}, // key > 150 ends the scan
		{Op: OpIdxPKey, P1: 1, P2: 5},
		{Op: OpResultRow, P1: 5, P2: 1},
		{Op: OpNext, P1: 1, P2: 12}, // success loops back to the IdxGt check
		{Op: OpClose, P1: 1},
		{Op: OpHalt},
	}, nil)

	rows, _, err := drainResults(t, prog)
	assert.NoError(err)
	// Only the (100, pk=1) entry is <= 150; the scan stops before (200, pk=2).
	assert.Len(rows, 1)
	assert.Equal([]interface{}{int32(1)}, rows[0])
}
