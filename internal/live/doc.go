// Package live keeps the push channel to the engine open.
//
// A Manager is a small actor: one goroutine (Run) owns the connection, the
// per-attempt context and the reconnect timer, and everything else talks to
// it through channels. Each attempt is tagged with a generation number so
// events from a superseded connection are dropped instead of racing the
// current one.
//
//	Disconnected --Connect--> Connecting --dial ok--> Open
//	                              |                     |
//	                          dial error          read error / close
//	                              v                     v
//	                         ReconnectPending <---------+
//	                              |
//	                    timer (fixed delay) or Connect
//	                              v
//	                          Connecting
//
// Every frame is decoded as a full snapshot and written to the state store.
// Frames that fail to decode are logged and skipped; the connection stays
// open. There is no backoff and no retry limit.
package live
