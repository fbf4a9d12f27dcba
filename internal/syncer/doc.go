// Package syncer keeps a state.Store eventually consistent with the server.
//
// # Overview
//
// Engine.Run owns a single goroutine loop. Every stimulus funnels into the
// same action, an unconditional full refetch applied with Store.ReplaceAll:
//
//	timer tick ──────────┐
//	push OrderUpdated ───┤
//	push StatusChanged ──┼──→ start() ──→ FetchOrders ──→ ReplaceAll
//	push Connected ──────┤
//	Trigger() ───────────┘
//
// Push payloads are never applied directly; they only mean "something
// changed". The interval is per view: 10s for the kitchen, 30s for history.
//
// # Single Flight
//
// At most one fetch is in flight. A stimulus arriving meanwhile sets a
// pending flag, so a burst of any size produces exactly one trailing fetch.
// Results are applied in the order fetches were started, and a result is
// applied even when a newer stimulus is already pending.
//
// # Failures
//
// A failed fetch (transport error, non-2xx, malformed payload) leaves the
// store's orders untouched, records the failure in the store's Health and
// raises a keyed warning notice. There is no retry loop; the next tick or
// push event retries. The next success clears the warning.
//
// # Reconnects
//
// Connected forces a fetch right away, since events published while the
// channel was down are lost. Disconnected and Error raise a warning and
// otherwise wait for the reconnect.
//
// # Commands
//
// The dispatcher calls Trigger after every successful command so the
// result is confirmed by a refetch even if no push event arrives.
package syncer
