// Package snapshot implements the Shared Snapshot Store: one versioned,
// mutex-protected cell per module, holding a fully-owned neutral value that
// crosses thread boundaries by deep copy rather than by reference.
//
// Critical sections here contain only a value swap or clone — script code
// never runs while a cell's mutex is held. That invariant is what lets the
// host loop and worker goroutines read and publish concurrently without
// racing each other or blocking on arbitrary user code.
package snapshot

import (
	"errors"
	"fmt"
	"sync"

	"github.com/kestrelscript/kestrel/neutral"
)

var ErrUnknownCell = errors.New("snapshot store: unknown cell")

// Cell is one module's shared-state slot: a versioned neutral value guarded
// by its own mutex so that publishing one module's state never blocks a
// reader of another module's state.
type Cell struct {
	mu      sync.Mutex
	value   neutral.Value
	version uint64
}

func newCell(initial neutral.Value) *Cell {
	return &Cell{value: neutral.Clone(initial), version: 0}
}

// publish replaces the cell's value with a deep clone of v and bumps the
// version. The caller's v is never retained.
func (c *Cell) publish(v neutral.Value) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value = neutral.Clone(v)
	c.version++
	return c.version
}

// read returns a deep clone of the cell's current value along with the
// version observed at the moment of the read.
func (c *Cell) read() (neutral.Value, uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return neutral.Clone(c.value), c.version
}

// Store holds one Cell per registered module name. Cells are added by
// Register; Read and Publish look the name up under the store's read lock
// and fail with ErrUnknownCell for a name that was never registered.
type Store struct {
	mu    sync.RWMutex
	cells map[string]*Cell
}

// NewStore creates an empty store. Cells are added with Register as modules
// are finalized by the registry.
func NewStore() *Store {
	return &Store{cells: make(map[string]*Cell)}
}

// Register creates a cell for name seeded with initial. Calling Register
// twice for the same name replaces the cell — callers should only do this
// during bootstrap, before any reader or publisher exists.
func (s *Store) Register(name string, initial neutral.Value) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cells[name] = newCell(initial)
}

// Publish acquires the named cell's mutex, replaces its value with a deep
// clone of v, and bumps its version. It returns the new version, or
// ErrUnknownCell if name was never registered.
func (s *Store) Publish(name string, v neutral.Value) (uint64, error) {
	cell, err := s.lookup(name)
	if err != nil {
		return 0, err
	}
	return cell.publish(v), nil
}

// Read returns a deep clone of the named cell's current value and the
// version observed at read time. ErrUnknownCell if name was never
// registered.
func (s *Store) Read(name string) (neutral.Value, uint64, error) {
	cell, err := s.lookup(name)
	if err != nil {
		return neutral.Value{}, 0, err
	}
	v, ver := cell.read()
	return v, ver, nil
}

// ReadMany snapshots several cells by name. This is a convenience for
// building a module's dependency context; it is explicitly NOT atomic
// across names — each cell is read independently and two entries in the
// returned map may have been published at different wall-clock moments.
func (s *Store) ReadMany(names []string) (map[string]neutral.Value, error) {
	out := make(map[string]neutral.Value, len(names))
	for _, name := range names {
		v, _, err := s.Read(name)
		if err != nil {
			return nil, fmt.Errorf("read dependency %q: %w", name, err)
		}
		out[name] = v
	}
	return out, nil
}

// Version returns the current version of the named cell without cloning
// its value. Useful for tests asserting monotonicity (P4).
func (s *Store) Version(name string) (uint64, error) {
	cell, err := s.lookup(name)
	if err != nil {
		return 0, err
	}
	cell.mu.Lock()
	defer cell.mu.Unlock()
	return cell.version, nil
}

func (s *Store) lookup(name string) (*Cell, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cell, ok := s.cells[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCell, name)
	}
	return cell, nil
}
