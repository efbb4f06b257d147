// Package engine is the session object the presentation layer talks to.
//
// An Engine ties together the shadow registry (registry.Store), the host
// adapter (host.Host), reconciliation, usage analysis and, optionally,
// persistence. Every public method is synchronous.
//
// CONTROL FLOW:
//
//	intent → Engine → registry.Store (mutate shadow)
//	                → reconcile.Push* (bring host in step)
//	                → RefreshHook (after rename)
//	                → journal entry (pending until Save)
//
// INVARIANTS:
//   - Shadow is authoritative for ids; the host is brought in step after
//     every mutation and never the other way round, except via Adopt
//   - Id allocation always scans shadow and live together
//   - Usage counts are never cached
//   - Add, Rename and Remove either succeed or return one *Error and leave
//     the shadow registry unchanged
//   - No host panic crosses the Engine boundary
//
// CONCURRENCY:
//
// The engine is single-writer. A mutex serializes public methods so one
// Engine may be shared, but the host is assumed to be touched only through it.
//
// LOGICAL CLOCK:
//
// Journal entries are stamped with a monotonic seq from Clock. After Open
// the clock resumes from the highest persisted seq. Wall-clock time is never
// used for ordering.
package engine
