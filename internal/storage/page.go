package storage

import "encoding/binary"

// PageType identifies the four B-tree node layouts a page can hold.
// Values match the historical SQLite/chidb on-disk encoding the spec
// carries forward, grounded on storage/page_header.go.
type PageType byte

const (
	PageTypeTableInternal PageType = 0x05
	PageTypeTableLeaf     PageType = 0x0D
	PageTypeIndexInternal PageType = 0x02
	PageTypeIndexLeaf     PageType = 0x0A
)

func (t PageType) String() string {
	switch t {
	case PageTypeTableInternal:
		return "table-internal"
	case PageTypeTableLeaf:
		return "table-leaf"
	case PageTypeIndexInternal:
		return "index-internal"
	case PageTypeIndexLeaf:
		return "index-leaf"
	default:
		return "unknown"
	}
}

// IsInternal reports whether the page type carries a right_page pointer
// and child cells rather than leaf payloads.
func (t PageType) IsInternal() bool {
	return t == PageTypeTableInternal || t == PageTypeIndexInternal
}

// IsIndex reports whether the page type belongs to an index B-tree.
func (t PageType) IsIndex() bool {
	return t == PageTypeIndexInternal || t == PageTypeIndexLeaf
}

const (
	// leafHeaderLen is the fixed node header size for leaf types: type(1)
	// + free_offset(2) + n_cells(2) + cells_offset(2) = 7, rounded by the
	// spec's byte table to the conventional 8-byte leaf header.
	leafHeaderLen = 8

	// internalHeaderLen additionally carries the 4-byte right_page
	// pointer.
	internalHeaderLen = 12
)

// headerLen returns the node header size for a page type.
func headerLen(t PageType) int {
	if t.IsInternal() {
		return internalHeaderLen
	}
	return leafHeaderLen
}

// headerStart returns the byte offset at which the node header begins:
// byte 100 on page 1 (after the file header), byte 0 elsewhere.
func headerStart(pageNumber int) int {
	if pageNumber == 1 {
		return HeaderSize
	}
	return 0
}

// Node is the in-memory, decoded view of a single B-tree page. Modifying
// the header scalars (Type, FreeOffset, NumCells, CellsOffset,
// RightPage) only takes effect on disk once Pager.WritePage and
// Pager.Flush are called; the cell offset array and cell area are
// mutated directly in Data by InsertCell.
type Node struct {
	Type        PageType
	FreeOffset  uint16
	NumCells    uint16
	CellsOffset uint16
	RightPage   uint32

	PageNumber int
	PageSize   int
	Data       []byte
}

// newEmptyNode builds the in-memory header for a freshly initialized,
// empty node of the given type. Grounded on mem_page.go's NewPageHeader.
func newEmptyNode(pageNumber, pageSize int, t PageType) *Node {
	n := &Node{
		Type:        t,
		FreeOffset:  uint16(headerStart(pageNumber) + headerLen(t)),
		NumCells:    0,
		CellsOffset: uint16(pageSize),
		RightPage:   0,
		PageNumber:  pageNumber,
		PageSize:    pageSize,
		Data:        make([]byte, pageSize),
	}
	n.writeHeader()
	return n
}

// parseNode decodes a Node's header from a raw page buffer. data must be
// exactly pageSize bytes and is owned by the returned Node.
func parseNode(pageNumber int, data []byte) (*Node, error) {
	start := headerStart(pageNumber)
	if start+leafHeaderLen > len(data) {
		return nil, ErrPageNumber
	}

	t := PageType(data[start])
	switch t {
	case PageTypeTableInternal, PageTypeTableLeaf, PageTypeIndexInternal, PageTypeIndexLeaf:
	default:
		return nil, ErrCorruptHeader
	}

	n := &Node{
		Type:        t,
		FreeOffset:  binary.BigEndian.Uint16(data[start+1 : start+3]),
		NumCells:    binary.BigEndian.Uint16(data[start+3 : start+5]),
		CellsOffset: binary.BigEndian.Uint16(data[start+5 : start+7]),
		PageNumber:  pageNumber,
		PageSize:    len(data),
		Data:        data,
	}
	if t.IsInternal() {
		if start+internalHeaderLen > len(data) {
			return nil, ErrPageNumber
		}
		n.RightPage = binary.BigEndian.Uint32(data[start+7 : start+11])
	}
	return n, nil
}

// writeHeader re-serializes the header scalars into Data. Called by
// Pager.WritePage (and by newEmptyNode at construction); the cell area and offset
// array are already in Data since InsertCell writes them there directly.
func (n *Node) writeHeader() {
	start := headerStart(n.PageNumber)
	data := n.Data
	data[start] = byte(n.Type)
	binary.BigEndian.PutUint16(data[start+1:start+3], n.FreeOffset)
	binary.BigEndian.PutUint16(data[start+3:start+5], n.NumCells)
	binary.BigEndian.PutUint16(data[start+5:start+7], n.CellsOffset)
	if n.Type.IsInternal() {
		binary.BigEndian.PutUint32(data[start+7:start+11], n.RightPage)
	}
}

// cellOffsetArrayStart is the byte offset of the first entry of the
// cell-offset array (immediately after the node header).
func (n *Node) cellOffsetArrayStart() int {
	return headerStart(n.PageNumber) + headerLen(n.Type)
}

// offsetAt reads the i'th entry of the cell-offset array.
func (n *Node) offsetAt(i int) uint16 {
	pos := n.cellOffsetArrayStart() + i*2
	return binary.BigEndian.Uint16(n.Data[pos : pos+2])
}

// setOffsetAt writes the i'th entry of the cell-offset array.
func (n *Node) setOffsetAt(i int, offset uint16) {
	pos := n.cellOffsetArrayStart() + i*2
	binary.BigEndian.PutUint16(n.Data[pos:pos+2], offset)
}

// full reports whether there is insufficient free space between the
// offset array and the cell area to admit a new cell of cellSize bytes
// plus its 2-byte offset-array entry.
func (n *Node) full(cellSize int) bool {
	required := int(n.FreeOffset) + 2 + cellSize
	return required > int(n.CellsOffset)
}
