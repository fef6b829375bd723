package engine

import (
	"log/slog"
	"sync"
	"time"

	"github.com/simonwood/canmon/internal/frame"
	"github.com/simonwood/canmon/internal/keyset"
	"github.com/simonwood/canmon/internal/ledger"
	"github.com/simonwood/canmon/internal/state"
)

// Row is one ID's view as returned by Snapshot and FilteredDiff.
//
// Changed is the per-byte highlight mask: the union of the ledger's
// time-windowed mask and a direct comparison of Latest against Previous.
// A byte can therefore stay highlighted for the retention window even
// after a later frame restores its old value, and a just-changed byte is
// highlighted even before any ledger query ran.
type Row struct {
	ID           uint32
	Latest       frame.Frame
	Previous     *frame.Frame
	Changed      [frame.MaxPayload]bool
	LastChangeAt time.Time // zero when no live ledger event
	Age          time.Duration
}

// Monitor owns the state store and change ledger and enforces their
// pairing invariants. See the package comment for the concurrency model.
type Monitor struct {
	mu     sync.Mutex // guards store, ledger and frames as one unit
	clock  Clock
	store  *state.Store
	ledger *ledger.Ledger
	frames uint64 // total frames ingested
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithClock injects the timestamp source used by IngestNow.
func WithClock(c Clock) Option {
	return func(m *Monitor) { m.clock = c }
}

// WithRetention sets the change-event retention window. Zero or negative
// falls back to ledger.DefaultRetention.
func WithRetention(d time.Duration) Option {
	return func(m *Monitor) { m.ledger = ledger.New(d) }
}

// New creates a Monitor with a system clock and the default retention
// window unless overridden by options.
func New(opts ...Option) *Monitor {
	m := &Monitor{
		clock:  SystemClock{},
		store:  state.NewStore(),
		ledger: ledger.New(ledger.DefaultRetention),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Clock returns the injected timestamp source, for collaborators that
// stamp their own frames (e.g. the demo feeder) and for query callers
// needing a now consistent with ingestion.
func (m *Monitor) Clock() Clock {
	return m.clock
}

// Retention returns the configured change-event retention window.
func (m *Monitor) Retention() time.Duration {
	return m.ledger.Retention()
}

// Ingest records one frame: the store's latest/previous pair rolls over
// and the ledger receives the byte-level transition, both under one
// critical section so readers always see a consistent pairing.
//
// PRECONDITION: f.Length <= frame.MaxPayload. frame.New is the validation
// boundary; behavior for violating frames is undefined here.
func (m *Monitor) Ingest(f frame.Frame) {
	m.mu.Lock()
	defer m.mu.Unlock()

	prev := m.store.Update(f)
	m.ledger.RecordTransition(f, prev, f.ObservedAt)
	m.frames++

	slog.Debug("frame ingested",
		"id", f.ID,
		"length", f.Length,
		"new", prev == nil,
	)
}

// IngestNow validates a raw payload, stamps it with the injected clock and
// ingests it. This is the inbound boundary for transport collaborators.
func (m *Monitor) IngestNow(id uint32, payload []byte) error {
	f, err := frame.New(id, payload, m.clock.Now())
	if err != nil {
		return err
	}
	m.Ingest(f)
	return nil
}

// Snapshot returns one Row per known ID, in ascending ID order,
// regardless of how recently each changed.
//
// now must be non-decreasing across engine calls.
func (m *Monitor) Snapshot(now time.Time) []Row {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := m.store.IDs()
	rows := make([]Row, 0, len(ids))
	for _, id := range ids {
		rows = append(rows, m.rowLocked(id, now))
	}
	return rows
}

// TrackedIDs prunes expired events and returns, in ascending order, the
// IDs that still have a live change event in the retention window.
//
// Unlike Snapshot, which lists every ID ever seen, this is the "recently
// active" subset backing the filtered view.
func (m *Monitor) TrackedIDs(now time.Time) []uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ledger.PruneAll(now)
	ids := make([]uint32, 0)
	for _, id := range m.ledger.IDs() {
		if _, ok := m.store.Get(id); ok {
			ids = append(ids, id)
		}
	}
	return ids
}

// FilteredDiff returns Rows for the requested IDs, restricted to those
// with a live (unexpired) change. IDs that are unknown, or whose changes
// all expired, are silently omitted; an empty result is an empty slice,
// not an error - rendering a placeholder is the caller's concern.
//
// An empty keys set means "no filter": every tracked ID is a candidate.
func (m *Monitor) FilteredDiff(keys keyset.Set, now time.Time) []Row {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ledger.PruneAll(now)
	rows := make([]Row, 0)
	for _, id := range m.ledger.IDs() {
		if len(keys) > 0 && !keys.Contains(id) {
			continue
		}
		if _, ok := m.store.Get(id); !ok {
			continue
		}
		row := m.rowLocked(id, now)
		if row.LastChangeAt.IsZero() {
			continue
		}
		rows = append(rows, row)
	}
	return rows
}

// DiffFor returns the Row for a single known ID. Unknown IDs are not an
// error: ok is false and the Row is zero.
func (m *Monitor) DiffFor(id uint32, now time.Time) (Row, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.store.Get(id); !ok {
		return Row{}, false
	}
	return m.rowLocked(id, now), true
}

// Stats is a point-in-time summary for the status endpoint.
type Stats struct {
	Frames    uint64
	KnownIDs  int
	Tracked   int
	Retention time.Duration
}

// Stats reports ingest and tracking counters under one critical section.
func (m *Monitor) Stats(now time.Time) Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ledger.PruneAll(now)
	tracked := 0
	for _, id := range m.ledger.IDs() {
		if _, ok := m.store.Get(id); ok {
			tracked++
		}
	}
	return Stats{
		Frames:    m.frames,
		KnownIDs:  m.store.Len(),
		Tracked:   tracked,
		Retention: m.ledger.Retention(),
	}
}

// rowLocked builds the Row for one known ID. Caller holds the lock.
func (m *Monitor) rowLocked(id uint32, now time.Time) Row {
	entry, _ := m.store.Get(id)
	mask, lastChangeAt, _ := m.ledger.Summarize(id, now)

	// Union in the one-step comparison against the immediately prior
	// frame, independent of the ledger's time window.
	prev := entry.Previous
	for i := uint8(0); i < entry.Latest.Length; i++ {
		if prev == nil || i >= prev.Length || prev.Data[i] != entry.Latest.Data[i] {
			mask[i] = true
		}
	}

	return Row{
		ID:           id,
		Latest:       entry.Latest,
		Previous:     prev,
		Changed:      mask,
		LastChangeAt: lastChangeAt,
		Age:          now.Sub(entry.Latest.ObservedAt),
	}
}
