// Package orders defines the order data model shared by every galley
// component and the pure status machine that drives the kitchen workflow.
//
// # Data Model
//
// Order mirrors one element of the GET /api/orders payload. Timestamps are
// kept as the server sent them and parsed on demand (ParsedCreatedAt,
// StatusChangedAt), the same way unknown or missing values degrade to the
// zero time instead of failing the whole payload.
//
// Item customizations are a map of option name to Value. A Value is either a
// scalar ("size": "large") or a sequence ("extras": ["cheese", "bacon"]). The
// "instructions" key is a free-text note and is kept out of Options.
//
// # Status Machine
//
// The lifecycle is fixed:
//
//	pending → preparing → ready → completed
//
// Status methods are pure and never fail:
//
//   - Group: display bucket (GroupUnknown for unrecognized values)
//   - Next: the one status the primary action advances to
//   - Label / ActionLabel: display text; unknown statuses display verbatim
//     and offer no action
//   - Before: lifecycle ordering, used by the store to avoid moving an order
//     back into an earlier column
//
// # Supporting Types
//
//   - Station routing (StationFor, StationLoad) for the kitchen station map
//   - Cart and NewOrder for building POST /api/orders requests
package orders
