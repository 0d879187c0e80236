// Package state holds the one piece of data shared between the background
// poller and the display: the latest known-good board snapshot.
//
// # Overview
//
// The poller is the only writer. The refresh scheduler and the status server
// are readers. Everything that crosses the goroutine boundary goes through
// Store, which guards a single Snapshot value with one lock.
//
//	Poller (writer)                     Display (reader)
//	┌──────────────────────┐            ┌──────────────────────┐
//	│ FetchDepartures()    │            │ ticker fires         │
//	│ store.ReplaceServices│───────────→│ store.Snapshot()     │
//	│ FetchForecast()      │  (mutex)   │ renderer.Render(v)   │
//	│ store.ReplaceForecast│            │                      │
//	└──────────────────────┘            └──────────────────────┘
//
// # Replace semantics
//
// Each provider owns one slot. A replace swaps the whole slot; there are no
// incremental updates. A slot is either absent (HasServices/HasForecast false)
// or holds exactly one complete fetch result.
//
//	store.ReplaceServices(entries)
//	→ Services    = copy(entries)
//	→ HasServices = true
//	→ LastUpdated = now (strictly later than the previous value)
//
//	store.ReplaceForecast(points)
//	→ Forecast    = first MaxForecast of copy(points), earliest first
//	→ HasForecast = true
//
// Failed fetches never reach the store. Stale data stays in place and the
// display shows it together with LastUpdated.
//
// # Copying
//
// Inputs are cloned and sorted before the lock is taken, so the critical
// section is a handful of assignments. Snapshot clones the slices under a
// read lock; the caller may keep the returned value as long as it likes.
// Entries are plain values, so a slice copy is a deep copy.
//
// # Programming errors
//
// Replace with data of the wrong type for the slot panics with a
// *StoreConsistencyError. The typed helpers cannot trigger it.
package state
