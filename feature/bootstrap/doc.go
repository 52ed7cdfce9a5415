// Package bootstrap coordinates a complete tenant bootstrap and reports on it.
//
// The Orchestrator runs the areas of a spec in dependency order: shapes,
// languages, the catalog settings (price variants, stock locations, vat types,
// subscription plans), topic maps, grids and finally items. Every area ends
// with an area-done event and the run ends with a done event carrying its
// duration. An area that fails is reported and the run moves on; only
// cancellation aborts it.
//
// # HTTP Endpoints
//
//   - GET /bootstrap/status : Snapshot of the current run (state, per-area progress, counters).
//   - GET /bootstrap/events : Journaled events of the run (supports ?type=, ?code= and ?limit=).
package bootstrap
