// Package push delivers order change notifications from the backend.
//
// The stream is a closed set of Event kinds. OrderUpdated and StatusChanged
// only signal that something changed; the sync engine answers both with a
// full refetch and never reads the payload beyond an optional order id.
// Connected, Disconnected and Error describe the transport so the engine can
// force a refetch after a reconnect.
//
// # Transports
//
// AMQPSource binds a private, server-named, auto-delete queue to a fanout
// exchange (default "orders.events"), so every client sees every event. The
// AMQP message Type carries the event name:
//
//	order_update          → OrderUpdated
//	new_order             → OrderUpdated
//	order_status_changed  → StatusChanged
//
// Unknown types are ignored. A dropped connection emits Disconnected, a failed
// dial emits Error, and each successful subscribe emits Connected. Reconnect
// attempts back off from 1s, doubling up to 30s.
//
// AMQPPublisher is the sending side used by galley-mock, with publisher
// confirms. Hub is an in-process Publisher whose subscribers are ChanSources;
// it replaces the broker in tests and when no broker URL is configured.
package push
