// Package api talks to the remote content-management GraphQL endpoint.
//
// All remote calls go through a single Manager: a queue drained by a 5ms ticker
// with an adaptive concurrency limit. The limit starts at one worker, grows by one
// after twenty consecutive successes, shrinks after more than five errors in the
// window and collapses to one whenever the endpoint answers 429.
//
// # Failure Classes
//
//   - Rate limited (HTTP 429): wait five seconds, stay queued, retry.
//   - Transient (network errors, socket hang up, connection reset, 502): wait
//     failCount seconds, stay queued, retry.
//   - Query errors: resolved immediately with the error list, never retried.
//
// # Usage
//
//	mgr := api.NewManager(api.NewHTTPTransport(cfg.API), api.WithLogger(l))
//	defer mgr.Kill()
//	res, err := mgr.Call(ctx, api.Request{Query: q, Variables: vars})
package api
