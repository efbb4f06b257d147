// Package harness runs scenario files against a real engine session.
//
// Each scenario carries an inline workspace document, a list of steps that
// call the engine the way the CLI does, and assertions over the resulting
// trace, registries and database. Runs are deterministic: session tokens come
// from testutil.SessionSequence, steps are numbered by testutil.StepClock, and
// the database is an isolated in-memory SQLite store, so the trace of a
// scenario is byte-identical across runs and can be compared with a golden
// file.
//
// # Scenario Format
//
//	name: nested_usage
//	description: "A getter nested in a setter counts once"
//	capacity: 16            # optional, 0 = unlimited
//	workspace:
//	  variables:
//	    - {id: EV_0001, name: score, category: Global}
//	  blocks:
//	    - {id: set, variable: EV_0001, children: [get]}
//	    - {id: get, variable: EV_0001}
//	steps:
//	  - op: usage
//	    id: EV_0001
//	    expect: {count: 1}
//	  - op: add
//	    category: Global
//	    name: Score
//	    expect: {error: DUPLICATE_NAME}
//	assertions:
//	  - type: shadow_contains
//	    id: EV_0001
//	    name: score
//	  - type: final_state
//	    table: shadow_variables
//	    where: {id: EV_0001}
//	    expect: {name: score}
//
// # Step Operations
//
//   - add (category, name), rename (id, name), remove (id)
//   - sync, resync, adopt
//   - usage (id), details (id)
//   - merge (records): import records as a snapshot would
//   - fail (failures): switch host operations into failure mode
//   - save: persist the shadow registry and journal
//   - reopen: save, then start a new engine session over the same store and host
//
// # Assertion Types
//
//   - shadow_contains, live_contains: a record with the given fields exists
//   - shadow_count, live_count: number of records, optionally per category
//   - trace_order: step operations appear in the given order
//   - trace_count: a step operation appears exactly N times
//   - journal_count: saved journal entries, optionally for one op
//   - replay_matches: replaying the saved journal reproduces the saved digest
//   - final_state: query a table of the store and compare one row
package harness
