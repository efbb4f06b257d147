// Package store provides SQLite-backed persistence for shadow registries.
//
// Each project key owns:
//   - projects: one row with the registry digest and the last journal seq
//   - shadow_variables: the shadow registry, ordered by (category, position)
//   - journal: append-only log of mutations, ordered by seq
//
// # Critical Patterns
//
// Logical time:
//   - Journal ordering uses seq INTEGER from the engine's logical clock,
//     never timestamps, so replay is independent of wall time
//
// Deterministic reads:
//   - Every query has an ORDER BY; registries and journals read back in the
//     order they were written
//
// Atomic saves:
//   - Save replaces the registry and appends the journal in one transaction;
//     a failed save leaves the previous state intact
//
// Idempotent journal:
//   - Appending an entry whose (project, seq) already exists is a no-op
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks instead of failing
//   - foreign_keys=ON: deleting a project cascades
package store
