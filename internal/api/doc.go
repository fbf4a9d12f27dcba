// Package api provides an HTTP client for the ordering backend.
//
// # Overview
//
// Client covers the order endpoints the sync core depends on and the stats
// endpoints behind the dashboard view:
//
//   - GET  /api/orders                  full order snapshot
//   - PUT  /api/orders/{id}/status      body {"status": ...}, returns the order
//   - POST /api/orders                  body orders.NewOrder, returns the order
//   - POST /api/orders/{id}/feedback    body {"rating": n, "comment": ...}
//   - GET  /api/stats/daily             today's aggregate
//   - GET  /api/stats/weekly            last seven daily aggregates
//   - POST /api/stats/regenerate        rebuild aggregates
//
// OrderAPI and StatsAPI let the rest of galley depend on interfaces so tests
// can substitute fakes.
//
// # Usage
//
//	client, err := api.NewClient("127.0.0.1:5000")
//	if err != nil {
//		return err
//	}
//	list, err := client.FetchOrders(ctx)
//
// # Errors
//
// Non-2xx responses return *HTTPError. The backend reports failures as
// {"error": "..."}; that text becomes HTTPError.Message, otherwise the raw
// body is used. A 2xx body that does not decode into the expected shape (an
// object where an array belongs, a nested object inside customizations) wraps
// ErrMalformedPayload. Nothing is returned alongside an error, so callers
// cannot partially apply a bad snapshot.
//
// # Request IDs
//
// A context tagged with WithRequestID makes the request carry an X-Request-ID
// header, matching the request_id the dispatcher logs for the command.
//
// # Timeouts
//
// Requests use a 5 second client timeout in addition to any context deadline.
package api
