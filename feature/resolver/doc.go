// Package resolver maps spec references (external reference, catalogue path)
// to remote item ids.
//
// Every item created or updated during a run is registered, so later lookups
// are answered from memory. Lookups in ModeQuery fall back to the API; lookups
// in ModePreferCache, used while wiring item relations, never leave memory.
// Concurrent identical remote lookups are collapsed with singleflight.
package resolver
