package storage

import "errors"

// Sentinel errors surfaced at the storage/B-tree boundary. The spec
// describes these as flat numeric kinds (OK, ECORRUPTHEADER, EPAGENO, ...);
// the idiomatic Go rendition is typed sentinels callers check with
// errors.Is, rather than an integer code.
var (
	// ErrCorruptHeader is returned when the 100-byte file header does not
	// match the fixed layout §3 requires.
	ErrCorruptHeader = errors.New("storage: corrupt file header")

	// ErrPageNumber is returned for a page number outside the file's
	// current bounds.
	ErrPageNumber = errors.New("storage: invalid page number")

	// ErrCellNumber is returned by GetCell/InsertCell when the requested
	// cell index is out of range for the node.
	ErrCellNumber = errors.New("storage: invalid cell index")

	// ErrNotFound is returned by BTree.Find when no cell with the
	// requested key exists.
	ErrNotFound = errors.New("storage: key not found")

	// ErrDuplicate is returned by Insert when a cell with the same key
	// already exists in a table or index B-tree.
	ErrDuplicate = errors.New("storage: duplicate key")

	// ErrIO marks a pager read/write fault as fatal. Per §7, partially
	// constructed state must be unwound before this is returned; the
	// engine does not attempt recovery once it is.
	ErrIO = errors.New("storage: fatal i/o error")

	// ErrNoNext is returned by Cursor.Next when already at the last entry.
	ErrNoNext = errors.New("storage: cursor has no next entry")

	// ErrNoPrev is returned by Cursor.Prev when already at the first entry.
	ErrNoPrev = errors.New("storage: cursor has no previous entry")

	// ErrKeyNotFound is returned by the Cursor seek family when no cell
	// satisfies the requested ordering relation.
	ErrKeyNotFound = errors.New("storage: key not found by seek")
)
