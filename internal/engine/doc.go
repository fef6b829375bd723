// Package engine implements the canmon state/diff monitor.
//
// The Monitor is the composition root: it owns the per-ID state store and
// the byte-level change ledger and is the only component that mutates them.
//
// ARCHITECTURE:
//
// Single-Writer Ingestion:
// Exactly one ingestion path feeds Monitor.Ingest - frames arrive serially
// from the transport. Queries (Snapshot, TrackedIDs, FilteredDiff) may be
// issued concurrently from other goroutines, typically HTTP handlers.
//
// One coarse mutex guards the store/ledger pair. This is deliberate:
//   - An ingestion must update the store and the ledger atomically; a
//     reader must never observe a new latest frame paired with a stale
//     ledger mask for the same ID, or vice versa.
//   - Queries prune the ledger as they go, so "reads" mutate too - a
//     read/write lock would not help.
//   - Ingestion rates are bounded by the physical bus (tens to low
//     hundreds of frames per second), so contention is a non-issue.
//
// Time never comes from the wall clock inside the engine. Frames carry
// their observation timestamp from the injected Clock at the transport
// boundary, and every query takes an explicit now. Callers must pass
// non-decreasing now values across calls or expiry monotonicity breaks.
//
// No operation blocks indefinitely: everything is O(known IDs) or
// O(events for one ID) and completes without I/O.
package engine
