package storage

// BTree is a handle onto one B-tree root page within a Pager. A single
// Pager hosts many BTrees (the schema table at page 1 plus one per
// user table/index); BTree itself is stateless beyond the root page
// number and the leaf cell flavor it stores.
//
// Grounded on the teacher's storage/btree.go (BTreeTable), rewritten
// against the single Node/Cell/Pager types in this package instead of
// the teacher's separate MemPage/Pager split, and extended with index
// B-tree support (the teacher's btree.go only ever handles table
// B-trees; index insertion/find here share the same split/scan logic
// parameterized on PageType per §4.2).
type BTree struct {
	pager    *Pager
	root     int
	leafType PageType
}

// OpenTable returns a handle onto the table B-tree rooted at rootPage.
func OpenTable(pager *Pager, rootPage int) *BTree {
	return &BTree{pager: pager, root: rootPage, leafType: PageTypeTableLeaf}
}

// OpenIndex returns a handle onto the index B-tree rooted at rootPage.
func OpenIndex(pager *Pager, rootPage int) *BTree {
	return &BTree{pager: pager, root: rootPage, leafType: PageTypeIndexLeaf}
}

// Root returns the page number of this B-tree's root node.
func (t *BTree) Root() int { return t.root }

// IsIndex reports whether this handle is over an index B-tree.
func (t *BTree) IsIndex() bool { return t.leafType.IsIndex() }

func (t *BTree) internalType() PageType {
	if t.IsIndex() {
		return PageTypeIndexInternal
	}
	return PageTypeTableInternal
}

// NewTree allocates a fresh root page of the appropriate leaf type and
// returns a handle over it, used by CreateTable/CreateIndex.
func NewTree(pager *Pager, index bool) (*BTree, error) {
	leafType := PageTypeTableLeaf
	if index {
		leafType = PageTypeIndexLeaf
	}
	node, err := pager.AllocatePage(leafType)
	if err != nil {
		return nil, err
	}
	if err := pager.WritePage(node); err != nil {
		return nil, err
	}
	return &BTree{pager: pager, root: node.PageNumber, leafType: leafType}, nil
}

// Find descends from the root looking for key, returning the leaf
// payload (a copy of a TABLE_LEAF's data, or an INDEX_LEAF's keyPk
// encoded as 4 bytes) or ErrNotFound.
func (t *BTree) Find(key uint32) ([]byte, error) {
	pageNo := t.root
	for {
		node, err := t.pager.ReadPage(pageNo)
		if err != nil {
			return nil, err
		}

		if node.Type.IsInternal() {
			idx, exact, err := node.findInsertIndex(key)
			if err != nil {
				return nil, err
			}
			if node.Type == PageTypeIndexInternal && exact {
				cell, err := node.GetCell(idx)
				if err != nil {
					return nil, err
				}
				return keyPkBytes(cell.KeyPk), nil
			}
			if idx == int(node.NumCells) {
				pageNo = int(node.RightPage)
				continue
			}
			cell, err := node.GetCell(idx)
			if err != nil {
				return nil, err
			}
			pageNo = int(cell.ChildPage)
			continue
		}

		idx, exact, err := node.findInsertIndex(key)
		if err != nil {
			return nil, err
		}
		if !exact {
			return nil, ErrNotFound
		}
		cell, err := node.GetCell(idx)
		if err != nil {
			return nil, err
		}
		if node.Type == PageTypeTableLeaf {
			return cell.Payload, nil
		}
		return keyPkBytes(cell.KeyPk), nil
	}
}

func keyPkBytes(keyPk uint32) []byte {
	return []byte{byte(keyPk >> 24), byte(keyPk >> 16), byte(keyPk >> 8), byte(keyPk)}
}

// Insert inserts cell into the tree, splitting the root first if it
// cannot fit the new cell.
//
// The root-fullness check is against the cell actually destined for
// the root page, not necessarily `cell` itself: if the root is still a
// leaf (height-1 tree), `cell` goes directly into it and its own size
// is what matters; once the root is internal, it only ever receives a
// promoted internal cell from a child split (fixed 8 or 16 bytes), so
// that fixed size — not the much larger leaf-shaped `cell` passed in
// here — is what determines whether the root itself needs to split.
func (t *BTree) Insert(cell Cell) error {
	root, err := t.pager.ReadPage(t.root)
	if err != nil {
		return err
	}

	checkSize := cell.cellSize()
	if root.Type.IsInternal() {
		checkSize = Cell{Type: t.internalType()}.cellSize()
	}
	if root.full(checkSize) {
		if _, err := t.split(0, root.PageNumber, 0); err != nil {
			return err
		}
	}

	return t.insertNonFull(t.root, cell)
}

// insertNonFull scans page for the insertion point of cell, recursing
// into (and pre-splitting) a full child before descending, and
// restarting the scan on page after a child split since the split
// inserted a new median cell into page that the scan must reconsider.
func (t *BTree) insertNonFull(pageNo int, cell Cell) error {
	for {
		page, err := t.pager.ReadPage(pageNo)
		if err != nil {
			return err
		}

		idx, exact, err := page.findInsertIndex(cell.Key)
		if err != nil {
			return err
		}

		if !page.Type.IsInternal() {
			if exact {
				return ErrDuplicate
			}
			if err := page.InsertCell(idx, cell); err != nil {
				return err
			}
			return t.pager.WritePage(page)
		}

		if page.Type == PageTypeIndexInternal && exact {
			return ErrDuplicate
		}

		var childNo int
		if idx == int(page.NumCells) {
			childNo = int(page.RightPage)
		} else {
			c, err := page.GetCell(idx)
			if err != nil {
				return err
			}
			childNo = int(c.ChildPage)
		}

		child, err := t.pager.ReadPage(childNo)
		if err != nil {
			return err
		}

		if child.full(cell.cellSize()) {
			if _, err := t.split(pageNo, childNo, idx); err != nil {
				return err
			}
			continue
		}

		pageNo = childNo
	}
}

// split implements §4.2's split routine. parentPage == 0 signals a root
// split: child IS the root, and the routine re-initializes it in place
// as the new internal root after moving both halves to fresh pages.
// Otherwise child is reinitialized in place as the post-median half so
// the parent's existing pointer to it stays valid, and a fresh page
// holds the pre-median half; the median is promoted into parent at
// parentNCell.
func (t *BTree) split(parentPageNo, childPageNo, parentNCell int) (int, error) {
	child, err := t.pager.ReadPage(childPageNo)
	if err != nil {
		return 0, err
	}

	n := int(child.NumCells)
	m := n / 2

	cells := make([]Cell, n)
	for i := 0; i < n; i++ {
		cells[i], err = child.GetCell(i)
		if err != nil {
			return 0, err
		}
	}

	median := cells[m]
	leftCells := cells[:m]
	// Only TABLE_LEAF duplicates its median into the left half: the row
	// payload lives solely at the leaf, so the promoted parent cell
	// (key only, no payload) doesn't make the leaf's own copy
	// redundant. INDEX_LEAF's median is fully represented by the
	// promoted INDEX_INTERNAL cell (key + keyPk, §4.2's "an equality
	// hit terminates at the internal node itself"), so it is not
	// duplicated, and plain internal nodes never duplicate either
	// (their cells are pure routing entries already).
	if child.Type == PageTypeTableLeaf {
		leftCells = cells[:m+1]
	}
	rightCells := cells[m+1:]

	if parentPageNo == 0 {
		leftPage, err := t.pager.AllocatePage(child.Type)
		if err != nil {
			return 0, err
		}
		for _, c := range leftCells {
			if err := leftPage.InsertCell(int(leftPage.NumCells), c); err != nil {
				return 0, err
			}
		}
		if child.Type.IsInternal() {
			leftPage.RightPage = median.ChildPage
			leftPage.writeHeader()
		}

		rightPage, err := t.pager.AllocatePage(child.Type)
		if err != nil {
			return 0, err
		}
		for _, c := range rightCells {
			if err := rightPage.InsertCell(int(rightPage.NumCells), c); err != nil {
				return 0, err
			}
		}
		rightPage.RightPage = child.RightPage
		rightPage.writeHeader()

		newRoot := newEmptyNode(child.PageNumber, child.PageSize, t.internalType())
		promoted := median.asInternal(uint32(leftPage.PageNumber))
		if err := newRoot.InsertCell(0, promoted); err != nil {
			return 0, err
		}
		newRoot.RightPage = uint32(rightPage.PageNumber)
		newRoot.writeHeader()

		if err := t.pager.WritePage(leftPage); err != nil {
			return 0, err
		}
		if err := t.pager.WritePage(rightPage); err != nil {
			return 0, err
		}
		if err := t.pager.WritePage(newRoot); err != nil {
			return 0, err
		}
		return leftPage.PageNumber, nil
	}

	parent, err := t.pager.ReadPage(parentPageNo)
	if err != nil {
		return 0, err
	}

	leftPage, err := t.pager.AllocatePage(child.Type)
	if err != nil {
		return 0, err
	}
	for _, c := range leftCells {
		if err := leftPage.InsertCell(int(leftPage.NumCells), c); err != nil {
			return 0, err
		}
	}
	if child.Type.IsInternal() {
		leftPage.RightPage = median.ChildPage
		leftPage.writeHeader()
	}

	rightRightPage := child.RightPage
	newChild := newEmptyNode(child.PageNumber, child.PageSize, child.Type)
	for _, c := range rightCells {
		if err := newChild.InsertCell(int(newChild.NumCells), c); err != nil {
			return 0, err
		}
	}
	if child.Type.IsInternal() {
		newChild.RightPage = rightRightPage
		newChild.writeHeader()
	}

	promoted := median.asInternal(uint32(leftPage.PageNumber))
	if err := parent.InsertCell(parentNCell, promoted); err != nil {
		return 0, err
	}

	if err := t.pager.WritePage(leftPage); err != nil {
		return 0, err
	}
	if err := t.pager.WritePage(newChild); err != nil {
		return 0, err
	}
	if err := t.pager.WritePage(parent); err != nil {
		return 0, err
	}
	return leftPage.PageNumber, nil
}
