// Package ir provides the canonical data types shared by every extvars package.
//
// This package contains type definitions and pure helpers only. All other
// internal packages import ir; ir imports nothing internal. This keeps the
// variable model the foundational layer with no circular dependencies.
//
// Key design constraints:
//   - Variable identifiers are opaque strings; only the allocator gives the
//     EV_NNNN shape any meaning
//   - Name comparisons always go through NameKey (NFC + case folding)
//   - All JSON tags use snake_case
//   - Journal ordering uses logical clocks (seq) only, never wall-clock time
package ir
