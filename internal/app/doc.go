// Package app is galley's composition root.
//
// Run loads the config file, opens the JSON log, reads saved preferences
// and builds the API client. NewServices then wires the parts every view
// reads from:
//
//	config.Load ──> logging.New ──> api.NewClient
//	                                   │
//	     push.AMQPSource (optional) ──> push.Fanout
//	                                   │            │
//	  kitchen: state.Store(ActiveOnly) <── syncer.Engine (10s)
//	  history: state.Store             <── syncer.Engine (30s)
//	  stats:   stats.Store             <── stats.Poller  (5m)
//
//	  dispatch.Dispatcher writes to both order stores and triggers both
//	  engines after every successful command.
//
// The kitchen and history views behave like separate screens: each keeps its
// own copy of the orders on its own cadence, and a push event invalidates
// both. The UI runs on the calling goroutine; when it returns the context
// is cancelled and Run waits for every engine to stop.
//
// Fatal errors are a bad config file, an unusable log path and an invalid
// API base. Everything after startup is recoverable: failed refreshes are
// logged and shown in the header, and the engines keep trying.
package app
