// Package registry tracks the database files a single process has
// open, keyed by absolute path. §5 of the core spec notes "a process
// may host multiple open databases, each with its own file handle and
// header; the engine does not coordinate between them" — this package
// is that bookkeeping layer, letting a CLI or server enumerate and
// reuse already-open handles instead of reopening (and re-flock'ing) a
// file a second time from the same process.
package registry

import (
	"fmt"
	"path/filepath"
	"sync"

	radix "github.com/armon/go-radix"
	"github.com/google/uuid"

	"tinydb/internal/storage"
)

// Handle is one process-local record of an open database file: its
// generated session id (printed by the open command, so multiple opens
// of the same path are distinguishable; it is not added to log fields)
// and the Pager owning its file descriptor.
type Handle struct {
	ID    uuid.UUID
	Path  string
	Pager *storage.Pager
}

// Registry is a path-indexed, radix-tree-backed table of open Handles.
// The radix tree is what makes WalkPrefix ("every open db under
// /var/data") an efficient operation instead of a linear scan.
type Registry struct {
	mu   sync.Mutex
	tree *radix.Tree
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{tree: radix.New()}
}

// Open opens path via storage.Open (formatting it if new) and records
// a Handle for it, keyed by its absolute path. Calling Open again for
// a path already in the registry returns an error instead of opening a
// second file handle — the pager's own flock already forbids a second
// OS-level owner, but failing fast here avoids the flock error's less
// specific message.
func (r *Registry) Open(path string, pageSize int) (*Handle, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("registry: resolving %s: %w", path, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tree.Get(abs); ok {
		return nil, fmt.Errorf("registry: %s is already open in this process", abs)
	}

	pager, err := storage.Open(abs, pageSize)
	if err != nil {
		return nil, err
	}

	h := &Handle{ID: uuid.New(), Path: abs, Pager: pager}
	r.tree.Insert(abs, h)
	return h, nil
}

// Get returns the Handle open for path, if any.
func (r *Registry) Get(path string) (*Handle, bool) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	v, ok := r.tree.Get(abs)
	if !ok {
		return nil, false
	}
	return v.(*Handle), true
}

// Close closes and forgets the Handle open for path.
func (r *Registry) Close(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("registry: resolving %s: %w", path, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	v, ok := r.tree.Delete(abs)
	if !ok {
		return fmt.Errorf("registry: %s is not open", abs)
	}
	return v.(*Handle).Pager.Close()
}

// WalkPrefix calls fn for every open Handle whose absolute path begins
// with prefix, stopping early if fn returns true.
func (r *Registry) WalkPrefix(prefix string, fn func(path string, h *Handle) bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.tree.WalkPrefix(prefix, func(s string, v interface{}) bool {
		return fn(s, v.(*Handle))
	})
}

// CloseAll closes every Handle currently registered, used for clean
// process shutdown.
func (r *Registry) CloseAll() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var firstErr error
	r.tree.Walk(func(s string, v interface{}) bool {
		if err := v.(*Handle).Pager.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		return false
	})
	r.tree = radix.New()
	return firstErr
}
