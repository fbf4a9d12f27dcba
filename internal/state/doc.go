// Package state holds the client's view of the server's orders.
//
// # Overview
//
// Store is the single in-memory order set for one view. The sync engine and
// the command dispatcher are its only writers; the UI reads snapshots and
// never mutates them.
//
//	Writers:                          Readers:
//	┌──────────────────────┐         ┌────────────────────┐
//	│ syncer: ReplaceAll() │         │ ui: Snapshot()     │
//	│ syncer: RecordFailure│────────→│ ui: ByStatus()     │
//	│ dispatch: Upsert()   │ (mutex) │ dispatch: Get()    │
//	│ dispatch: Attach...  │         │                    │
//	└──────────────────────┘         └────────────────────┘
//
// # Write Semantics
//
// ReplaceAll is the authoritative primitive. It builds a new id index and
// swaps it in under the write lock, so a reader sees either the previous
// snapshot or the new one. Orders missing from a snapshot leave the store;
// nothing else removes them. Orders without an id or without items are
// dropped and counted in ReplaceResult.
//
// Upsert merges one order by id. It refuses to move an order back to an
// earlier lifecycle status than the one already held, so a late command
// response cannot undo a newer refetch:
//
//	store.ReplaceAll([]orders.Order{{ID: 1, Status: "ready", ...}})
//	store.Upsert(orders.Order{ID: 1, Status: "preparing", ...}) // false, ignored
//
// Unknown statuses are kept verbatim and never ordered against others.
//
// Feedback is sticky: once known for an order it is reattached to later
// snapshots that omit it, until a snapshot carries a non-null value.
//
// # Filters
//
// A Filter decides what a store keeps from a full snapshot. The kitchen view
// uses ActiveOnly; history keeps everything. Filters apply to ReplaceAll
// only, so an order completed from the kitchen stays visible until the next
// refetch evicts it.
//
// # Sync Health
//
// RecordFailure keeps the held orders and counts consecutive failures.
// Health.Offline reports two or more failures in a row; the next successful
// ReplaceAll resets the count.
//
// # Change Notification
//
// OnChange listeners receive a Snapshot after every mutation, on the writer's
// goroutine and outside the store lock.
package state
