// Package state holds the latest and immediately prior frame per CAN ID.
//
// The store is pure map semantics with no time logic: pruning and recency
// live in the ledger package. It is not safe for concurrent use on its own;
// the engine serializes access (see engine.Monitor).
package state

import (
	"sort"

	"github.com/simonwood/canmon/internal/frame"
)

// Entry is the per-ID record pair.
//
// INVARIANT: Previous, when non-nil, is exactly the value Latest held
// immediately before the current Latest was installed - never older. On the
// very first frame for an ID, Previous is nil (not "equal to Latest").
type Entry struct {
	Latest   frame.Frame
	Previous *frame.Frame
}

// Store maps CAN IDs to their current and prior frames.
//
// Entries are created on first update for an ID and never deleted for the
// life of the store: the ID space is bounded by the protocol, so unbounded
// growth is not a concern.
type Store struct {
	entries map[uint32]Entry
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{entries: make(map[uint32]Entry)}
}

// Update installs f as the latest frame for its ID and returns the dethroned
// previous latest, or nil if the ID is new.
//
// The returned pointer refers to a private copy; callers may retain it.
func (s *Store) Update(f frame.Frame) *frame.Frame {
	var dethroned *frame.Frame
	if cur, ok := s.entries[f.ID]; ok {
		prev := cur.Latest // copy before overwrite
		dethroned = &prev
	}
	s.entries[f.ID] = Entry{Latest: f, Previous: dethroned}
	return dethroned
}

// Get returns the entry for an ID. Read-only; does not mutate.
func (s *Store) Get(id uint32) (Entry, bool) {
	e, ok := s.entries[id]
	return e, ok
}

// IDs returns all known IDs in ascending order.
func (s *Store) IDs() []uint32 {
	ids := make([]uint32, 0, len(s.entries))
	for id := range s.entries {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Len returns the number of known IDs.
func (s *Store) Len() int {
	return len(s.entries)
}
