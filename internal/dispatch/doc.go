// Package dispatch turns user actions into server commands.
//
// # Commands
//
//   - Advance(id): PUT /api/orders/{id}/status with the single next status
//     of the order's lifecycle, computed from the store's copy.
//   - Create(req): POST /api/orders.
//   - SubmitFeedback(id, fb): POST /api/orders/{id}/feedback.
//
// Each command slot (per order for advance and feedback, one for create)
// moves through Idle → Pending → Succeeded | Failed. Views read State or
// CanAdvance to render the action disabled while it is Pending; a second
// attempt meanwhile fails with ErrInFlight. Both outcomes leave the slot
// enabled, and failures are never retried automatically.
//
// # Reconciliation
//
// Nothing is written to the store before the server answers. A successful
// response is upserted (the store ignores it if a refetch already showed a
// later status) and the refresher is triggered, so every command is followed
// by at least one full refetch whether or not a push event arrives. When a
// status command and a refetch race, both sides write server data through
// the same store primitives and the refetch has the last word.
//
// # Logging
//
// Every command gets a uuid request id. It is logged as request_id and sent
// as the X-Request-ID header.
package dispatch
