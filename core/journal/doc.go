// Package journal records the lifecycle events of bootstrap runs in the
// database opened by core/database, so the status API can answer queries
// about a run while it is still going.
//
// Progress ticks are not journaled; the latest progress is tracked by the
// bootstrap status instead.
package journal
