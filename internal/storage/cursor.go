package storage

import "fmt"

// pathFrame is one level of a Cursor's root-to-leaf path: the node
// loaded at that depth and the cell index currently selected within it.
type pathFrame struct {
	node      *Node
	cellIndex int
}

// Cursor is a materialized root-to-leaf path over a BTree, giving O(h)
// neighbor navigation without re-descending from the root on every
// step. Grounded on the teacher's pager/cursor.go, which only ever
// tracked a single (node, parent) pair; this rewrite keeps the full
// path stack §4.3 requires so Next/Prev can walk back up through
// arbitrarily many ancestors instead of just one.
type Cursor struct {
	tree *BTree
	path []pathFrame
}

// NewCursor returns a cursor over tree, not yet positioned; call Rewind
// or one of the Seek variants before reading.
func NewCursor(tree *BTree) *Cursor {
	return &Cursor{tree: tree}
}

func (c *Cursor) currentFrame() *pathFrame {
	return &c.path[len(c.path)-1]
}

// CurrentNode returns the node at the cursor's current depth.
func (c *Cursor) CurrentNode() *Node {
	if len(c.path) == 0 {
		return nil
	}
	return c.currentFrame().node
}

// CurrentCellIndex returns the selected cell index at the current depth.
func (c *Cursor) CurrentCellIndex() int {
	if len(c.path) == 0 {
		return -1
	}
	return c.currentFrame().cellIndex
}

// CurrentCell decodes the cell at the cursor's current position.
func (c *Cursor) CurrentCell() (Cell, error) {
	node := c.CurrentNode()
	if node == nil {
		return Cell{}, fmt.Errorf("storage: cursor is not positioned")
	}
	return node.GetCell(c.CurrentCellIndex())
}

func (c *Cursor) loadPage(pageNo int) (*Node, error) {
	return c.tree.pager.ReadPage(pageNo)
}

// goDownCurrentCell descends from the current internal-node position
// into its child: the child referenced by the current cell, or
// right_page if cell_index == n_cells. A fresh frame is pushed with
// cell_index = 0.
func (c *Cursor) goDownCurrentCell() error {
	frame := c.currentFrame()
	node := frame.node

	var childNo int
	if frame.cellIndex == int(node.NumCells) {
		childNo = int(node.RightPage)
	} else {
		cell, err := node.GetCell(frame.cellIndex)
		if err != nil {
			return err
		}
		childNo = int(cell.ChildPage)
	}

	child, err := c.loadPage(childNo)
	if err != nil {
		return err
	}
	c.path = append(c.path, pathFrame{node: child, cellIndex: 0})
	return nil
}

// goToParent pops the deepest frame, releasing it.
func (c *Cursor) goToParent() {
	if len(c.path) == 0 {
		return
	}
	c.path = c.path[:len(c.path)-1]
}

// descendLeftmost repeatedly follows cell 0 until a leaf is reached.
func (c *Cursor) descendLeftmost() error {
	for {
		node := c.CurrentNode()
		if !node.Type.IsInternal() {
			return nil
		}
		c.currentFrame().cellIndex = 0
		if err := c.goDownCurrentCell(); err != nil {
			return err
		}
	}
}

// descendRightmost repeatedly follows right_page (cell_index = n_cells)
// until a leaf is reached, used by Prev and by seek_partial's symmetric
// counterpart.
func (c *Cursor) descendRightmost() error {
	for {
		node := c.CurrentNode()
		if !node.Type.IsInternal() {
			return nil
		}
		c.currentFrame().cellIndex = int(node.NumCells)
		if err := c.goDownCurrentCell(); err != nil {
			return err
		}
	}
}

// IsEmpty reports whether the underlying B-tree's root has no cells
// (and is a leaf), used by the Rewind opcode to decide whether to jump
// over the traversal loop entirely.
func (c *Cursor) IsEmpty() (bool, error) {
	root, err := c.loadPage(c.tree.root)
	if err != nil {
		return false, err
	}
	return !root.Type.IsInternal() && root.NumCells == 0, nil
}

// Rewind resets the path to the root and descends leftmost to the
// first leaf cell.
func (c *Cursor) Rewind() error {
	root, err := c.loadPage(c.tree.root)
	if err != nil {
		return err
	}
	c.path = []pathFrame{{node: root, cellIndex: 0}}
	return c.descendLeftmost()
}

// Next advances the cursor to its in-order successor. Returns
// ErrNoNext when the cursor is already at the last entry; the cursor's
// position is left unchanged in that case.
//
// Precondition: the current node is not TABLE_INTERNAL (callers only
// ever stop at a leaf or an INDEX_INTERNAL node, per §4.3).
func (c *Cursor) Next() error {
	node := c.CurrentNode()
	if node.Type == PageTypeTableInternal {
		return fmt.Errorf("storage: cursor invariant violated: Next called on a table-internal node")
	}

	frame := c.currentFrame()
	if frame.cellIndex+1 < int(node.NumCells) {
		frame.cellIndex++
		if node.Type == PageTypeIndexInternal {
			return c.descendLeftmostAfterDown()
		}
		return nil
	}

	if !node.Type.IsInternal() {
		// Leaf exhausted: walk up while every ancestor step took the
		// right_page edge (cell_index == n_cells at that level). Work
		// on a saved copy of the path so a failed climb (every ancestor
		// exhausted, up to the root) leaves the cursor's position
		// unchanged, per this function's own doc comment and §4.3.
		saved := append([]pathFrame(nil), c.path...)
		for len(c.path) > 1 {
			c.goToParent()
			anc := c.currentFrame()
			ancNode := anc.node
			if anc.cellIndex < int(ancNode.NumCells) {
				if ancNode.Type == PageTypeIndexInternal {
					return nil
				}
				anc.cellIndex++
				return c.descendLeftmostAfterDown()
			}
		}
		c.path = saved
		return ErrNoNext
	}

	// INDEX_INTERNAL with cells exhausted: take right_page.
	frame.cellIndex = int(node.NumCells)
	return c.descendLeftmostAfterDown()
}

func (c *Cursor) descendLeftmostAfterDown() error {
	if err := c.goDownCurrentCell(); err != nil {
		return err
	}
	return c.descendLeftmost()
}

// Prev moves the cursor to its in-order predecessor, symmetric to Next.
// Returns ErrNoPrev when already at the first entry.
func (c *Cursor) Prev() error {
	node := c.CurrentNode()
	if node.Type == PageTypeTableInternal {
		return fmt.Errorf("storage: cursor invariant violated: Prev called on a table-internal node")
	}

	// INDEX_INTERNAL: the predecessor of cell i is the last entry of the
	// subtree under cell i's child page.
	if node.Type == PageTypeIndexInternal {
		if err := c.goDownCurrentCell(); err != nil {
			return err
		}
		return c.descendRightmostThenLast()
	}

	frame := c.currentFrame()
	if frame.cellIndex > 0 {
		frame.cellIndex--
		return nil
	}

	// Leaf exhausted: same saved-path discipline as Next's symmetric
	// branch, so a failed climb leaves the cursor unmoved.
	saved := append([]pathFrame(nil), c.path...)
	for len(c.path) > 1 {
		c.goToParent()
		anc := c.currentFrame()
		ancNode := anc.node
		if anc.cellIndex > 0 {
			anc.cellIndex--
			if ancNode.Type == PageTypeIndexInternal {
				return nil
			}
			if err := c.goDownCurrentCell(); err != nil {
				return err
			}
			return c.descendRightmostThenLast()
		}
	}
	c.path = saved
	return ErrNoPrev
}

// descendRightmostThenLast descends rightmost to a leaf and leaves the
// cursor on its last cell.
func (c *Cursor) descendRightmostThenLast() error {
	if err := c.descendRightmost(); err != nil {
		return err
	}
	leaf := c.CurrentNode()
	c.currentFrame().cellIndex = int(leaf.NumCells) - 1
	return nil
}

// seekPartial is the shared descent helper for Seek/SeekGe/SeekGt/
// SeekLe/SeekLt: it rewinds the path to root, then at every internal
// node lands on the smallest cell with cell.key >= key (stopping early
// at an exact INDEX_INTERNAL match), descending via goDownCurrentCell
// until a leaf is reached, where it again lands on the smallest
// cell.key >= key.
func (c *Cursor) seekPartial(key uint32) error {
	root, err := c.loadPage(c.tree.root)
	if err != nil {
		return err
	}
	c.path = []pathFrame{{node: root, cellIndex: 0}}

	for {
		node := c.CurrentNode()
		idx, exact, err := node.findInsertIndex(key)
		if err != nil {
			return err
		}
		c.currentFrame().cellIndex = idx

		if !node.Type.IsInternal() {
			return nil
		}
		if node.Type == PageTypeIndexInternal && exact {
			return nil
		}
		if err := c.goDownCurrentCell(); err != nil {
			return err
		}
	}
}

// landingCell returns the cell at the cursor's current position and
// whether the position is past the last cell of its node (cell_index
// == n_cells, the "ran off the end" case every seek variant branches
// on).
func (c *Cursor) landingCell() (cell Cell, pastEnd bool, err error) {
	node := c.CurrentNode()
	idx := c.CurrentCellIndex()
	if idx == int(node.NumCells) {
		return Cell{}, true, nil
	}
	cell, err = node.GetCell(idx)
	return cell, false, err
}

// Seek positions the cursor exactly on key, returning ErrKeyNotFound
// (leaving the cursor positioned at the nearest landing spot, per
// §4.3) if no such key exists.
func (c *Cursor) Seek(key uint32) error {
	if err := c.seekPartial(key); err != nil {
		return err
	}
	cell, pastEnd, err := c.landingCell()
	if err != nil {
		return err
	}
	if pastEnd || cell.Key != key {
		return ErrKeyNotFound
	}
	return nil
}

func mapNoNext(err error) error {
	if err == ErrNoNext {
		return ErrKeyNotFound
	}
	return err
}

func mapNoPrev(err error) error {
	if err == ErrNoPrev {
		return ErrKeyNotFound
	}
	return err
}

// SeekGe positions the cursor on the smallest key >= key.
func (c *Cursor) SeekGe(key uint32) error {
	if err := c.seekPartial(key); err != nil {
		return err
	}
	cell, pastEnd, err := c.landingCell()
	if err != nil {
		return err
	}
	node := c.CurrentNode()

	if pastEnd {
		if node.Type == PageTypeTableLeaf {
			return ErrKeyNotFound
		}
		return mapNoNext(c.Next())
	}

	if node.Type == PageTypeTableLeaf || node.Type == PageTypeIndexInternal {
		return nil
	}
	// INDEX_LEAF landed short of key.
	if cell.Key < key {
		return mapNoNext(c.Next())
	}
	return nil
}

// SeekGt positions the cursor on the smallest key > key.
func (c *Cursor) SeekGt(key uint32) error {
	if err := c.seekPartial(key); err != nil {
		return err
	}
	cell, pastEnd, err := c.landingCell()
	if err != nil {
		return err
	}
	if pastEnd || cell.Key == key {
		return mapNoNext(c.Next())
	}
	return nil
}

// SeekLe positions the cursor on the largest key <= key, symmetric to
// SeekGe. seekPartial always lands on the smallest cell.key >= key, so
// an exact match is already the answer; anything else has its answer
// (if any) strictly before the landing spot, found by Prev.
func (c *Cursor) SeekLe(key uint32) error {
	if err := c.seekPartial(key); err != nil {
		return err
	}
	cell, pastEnd, err := c.landingCell()
	if err != nil {
		return err
	}
	if !pastEnd && cell.Key == key {
		return nil
	}
	return mapNoPrev(c.Prev())
}

// SeekLt positions the cursor on the largest key < key, symmetric to
// SeekGt.
func (c *Cursor) SeekLt(key uint32) error {
	if err := c.seekPartial(key); err != nil {
		return err
	}
	return mapNoPrev(c.Prev())
}
