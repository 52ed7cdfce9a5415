// Package events defines the progress and error events emitted during a bootstrap run.
//
// Every area of the bootstrapper reports through a Sink. The orchestrator fans
// events out to the zap logger, the run journal, the live status tracker and any
// caller-supplied callback.
//
// # Event Types
//
//   - status-update, progress, area-done and done describe run progress.
//   - item-created, item-updated and item-published describe remote item mutations.
//   - error and warning carry a Code and, when an item was involved, its reference.
//
// # Usage
//
//	rec := events.NewRecorder()
//	sink := events.Multi(rec, events.LogSink(logger))
//	sink.Emit(events.Event{Type: events.TypeWarning, Code: events.CodeFFmpegUnavailable})
package events
