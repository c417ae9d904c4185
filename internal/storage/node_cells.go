package storage

// GetCell decodes the i'th cell referenced by the offset array. Returns
// ErrCellNumber if i is outside [0, NumCells).
func (n *Node) GetCell(i int) (Cell, error) {
	if i < 0 || i >= int(n.NumCells) {
		return Cell{}, ErrCellNumber
	}
	off := n.offsetAt(i)
	return readCell(n.Type, n.Data[off:])
}

// InsertCell inserts cell so it becomes the i'th entry of the offset
// array, shifting entries i..NumCells-1 up by one slot first. i must be
// in [0, NumCells]; passing NumCells appends.
//
// The teacher's AddCell (mem_page.go) only ever appends at NumCells and
// never shifts existing entries, which cannot keep a node's keys in
// ascending order once more than one insert happens out of sequence.
// Every caller in this package (insertNonFull, split) locates the correct
// index first and relies on InsertCell to make room for it in place, so
// the shift here is not optional the way it was in the teacher's version.
func (n *Node) InsertCell(i int, cell Cell) error {
	if i < 0 || i > int(n.NumCells) {
		return ErrCellNumber
	}
	size := cell.cellSize()
	if n.full(size) {
		return ErrIO
	}

	newCellsOffset := n.CellsOffset - uint16(size)
	if _, err := writeCell(n.Data[newCellsOffset:], cell); err != nil {
		return err
	}

	// Shift offset-array entries [i, NumCells) up by one slot, from the
	// tail down, to open a gap at i.
	for j := int(n.NumCells); j > i; j-- {
		n.setOffsetAt(j, n.offsetAt(j-1))
	}
	n.setOffsetAt(i, newCellsOffset)

	n.CellsOffset = newCellsOffset
	n.NumCells++
	n.FreeOffset += 2
	n.writeHeader()
	return nil
}

// findInsertIndex returns the offset-array index at which a cell with
// the given key should be inserted to keep cells in ascending key order
// (invariant 2), along with whether a cell with that exact key already
// exists at the returned index.
func (n *Node) findInsertIndex(key uint32) (int, bool, error) {
	lo, hi := 0, int(n.NumCells)
	for lo < hi {
		mid := (lo + hi) / 2
		c, err := n.GetCell(mid)
		if err != nil {
			return 0, false, err
		}
		if c.Key < key {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if lo < int(n.NumCells) {
		c, err := n.GetCell(lo)
		if err != nil {
			return 0, false, err
		}
		if c.Key == key {
			return lo, true, nil
		}
	}
	return lo, false, nil
}
