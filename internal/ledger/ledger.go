// Package ledger records byte-level change events per CAN ID and answers
// "which bytes changed, how recently" queries over a fixed retention window.
//
// Events are append-only and expire: once now - ObservedAt exceeds the
// retention window they are physically removed, and an ID whose event list
// drains is removed from the ledger entirely (no empty placeholder entries).
// The ledger is not safe for concurrent use on its own; the engine
// serializes access.
package ledger

import (
	"sort"
	"time"

	"github.com/simonwood/canmon/internal/frame"
)

// DefaultRetention is how long a change event stays live before it is
// pruned. Matches the highlight window of the web view.
const DefaultRetention = 10 * time.Second

// Event is one recorded byte-level transition.
type Event struct {
	ID         uint32
	ByteIndex  uint8
	Old        byte
	New        byte
	ObservedAt time.Time
}

// Ledger holds per-ID change event lists with time-based expiry.
type Ledger struct {
	retention time.Duration
	events    map[uint32][]Event
}

// New creates a ledger with the given retention window. A zero or negative
// retention falls back to DefaultRetention.
func New(retention time.Duration) *Ledger {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &Ledger{
		retention: retention,
		events:    make(map[uint32][]Event),
	}
}

// Retention returns the configured retention window.
func (l *Ledger) Retention() time.Duration {
	return l.retention
}

// RecordTransition compares next against prev and appends one event per
// changed byte, stamped with now. prev is nil on the first frame for an ID.
//
// A byte counts as changed when prev is absent, the frame length changed,
// the index lies beyond prev's payload, or the byte value differs. The
// length-change case deliberately marks every byte of next: a length change
// invalidates byte-position alignment, so positional equality is
// meaningless.
//
// For indices that had no prior value, Old is synthesized as the new value
// rather than zero, so consumers see "no prior contrast" instead of a
// spurious 0x00 -> value transition.
//
// Expired events for the ID are pruned before appending.
func (l *Ledger) RecordTransition(next frame.Frame, prev *frame.Frame, now time.Time) {
	l.pruneID(next.ID, now)

	lengthChanged := prev == nil || prev.Length != next.Length
	for i := uint8(0); i < next.Length; i++ {
		changed := lengthChanged || i >= prev.Length || prev.Data[i] != next.Data[i]
		if !changed {
			continue
		}

		old := next.Data[i]
		if prev != nil && i < prev.Length {
			old = prev.Data[i]
		}
		l.events[next.ID] = append(l.events[next.ID], Event{
			ID:         next.ID,
			ByteIndex:  i,
			Old:        old,
			New:        next.Data[i],
			ObservedAt: now,
		})
	}
}

// Summarize prunes expired events for the ID and reports which byte indices
// still have a live change and when the most recent one happened.
//
// When no events survive, the ID's ledger entry is removed and Summarize
// returns a zero mask with ok=false.
func (l *Ledger) Summarize(id uint32, now time.Time) (mask [frame.MaxPayload]bool, lastChangeAt time.Time, ok bool) {
	l.pruneID(id, now)

	evs := l.events[id]
	if len(evs) == 0 {
		return mask, time.Time{}, false
	}
	for _, ev := range evs {
		mask[ev.ByteIndex] = true
		if ev.ObservedAt.After(lastChangeAt) {
			lastChangeAt = ev.ObservedAt
		}
	}
	return mask, lastChangeAt, true
}

// PruneAll sweeps every ID, evicting expired events and dropping IDs left
// with empty lists. Call before enumerating "currently tracked" IDs so the
// result reflects only IDs with a still-live change.
//
// Pruning is idempotent for a fixed now and monotonic in now: a later sweep
// never re-admits an event an earlier sweep removed.
func (l *Ledger) PruneAll(now time.Time) {
	for id := range l.events {
		l.pruneID(id, now)
	}
}

// IDs returns, in ascending order, every ID that currently has at least one
// recorded event. Callers wanting only unexpired IDs run PruneAll first.
func (l *Ledger) IDs() []uint32 {
	ids := make([]uint32, 0, len(l.events))
	for id := range l.events {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// EventCount returns the number of live events for an ID without pruning.
// Test hook.
func (l *Ledger) EventCount(id uint32) int {
	return len(l.events[id])
}

// pruneID drops events for one ID older than the retention window and
// deletes the ID's entry when nothing survives.
//
// Events are appended in non-decreasing ObservedAt order, so the surviving
// suffix starts at the first unexpired event.
func (l *Ledger) pruneID(id uint32, now time.Time) {
	evs, ok := l.events[id]
	if !ok {
		return
	}

	// An event expires once now-ObservedAt strictly exceeds the window, so
	// an event sitting exactly on the cutoff still survives.
	cutoff := now.Add(-l.retention)
	first := len(evs)
	for i, ev := range evs {
		if !ev.ObservedAt.Before(cutoff) {
			first = i
			break
		}
	}

	switch {
	case first == 0:
		// Nothing expired.
	case first == len(evs):
		delete(l.events, id)
	default:
		survivors := make([]Event, len(evs)-first)
		copy(survivors, evs[first:])
		l.events[id] = survivors
	}
}
