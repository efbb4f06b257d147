// Package registry owns variable records and identifier allocation.
//
// A Store holds the canonical ordered record list per category and enforces
// per-category name uniqueness. Identifiers are allocated by scanning the
// union of every registry view the system maintains:
//
//	id := registry.NextID(shadow.View(), liveHostStore)
//
// Scanning only one side is the classic way to hand out an id that the other
// side already uses, so Store.Add always scans its own records plus every
// view registered with WithViews.
package registry
