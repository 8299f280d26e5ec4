// Package state holds the single client-side copy of the engine snapshot.
//
// # Overview
//
// Two producers write into the Store independently: the poller (periodic
// GET /api/torrents) and the live channel (snapshots pushed over the
// WebSocket). Neither coordinates with the other. Whichever Replace runs last
// wins; there is no merge, no diffing, and no rejection path.
//
//	Poller ───┐
//	          ├──> store.Replace() ──> observers (UI redraw, metrics)
//	Live   ───┘
//
// # Core Types
//
// Store:
//   - Zero value is ready to use
//   - Replace overwrites and notifies observers synchronously, once per call
//   - Current returns a copy; Loaded == false before the first load
//   - RecordFailure tracks poll health without touching the snapshot
//
// View:
//   - Snapshot, Source (poll or live), UpdatedAt
//   - Version counts accepted replacements. It is informational only and is
//     never used to drop an out-of-order arrival.
//
// # Concurrency Model
//
// Data is guarded by an RWMutex held only while copying. A second mutex
// serializes replace-then-notify, so observers see replacements in the order
// they were written and no reader ever sees a torn snapshot. Observers may
// call Current but must not call Replace.
//
// Renders are not batched or deduplicated: replacing with an identical
// snapshot twice produces two notifications.
package state
