// Package app is the composition root.
//
// # Components
//
//   - poller.go: Poller, the fixed-period GET /api/torrents loop. Also the
//     Refresher behind post-action and manual refreshes.
//   - session.go: Session, which builds the engine client, store,
//     notification hub, metrics, poller, dispatcher and live manager from a
//     config.Config and runs them under one errgroup.
//   - app.go: Run, which attaches a Bubble Tea program to a Session.
//
// # Data Flow
//
//	Poller.Run ──FetchOnce──┐
//	Dispatcher (success) ───┤
//	                        ├──> Store.Replace ──> observers
//	live.Manager (message) ─┘                       ├─> program.Send(SnapshotMsg)
//	                                                └─> metrics
//
//	Poller / Dispatcher / live.Manager ──> notify.Hub ──> program.Send(ToastMsg)
//
// The poller and the live channel never coordinate: whichever writes last
// wins. Cancelling the context (the UI quitting, or SIGINT) stops the
// poller, the live channel and the metrics server together.
//
// # Polling Behavior
//
// Run fetches once immediately, then on every tick (default 8s). A failed
// fetch keeps the previous snapshot, bumps the store's failure count and
// raises a "Failed to load torrents" toast. There is no backoff.
package app
