// Package reconcile keeps the host's live variable store in step with the
// shadow registry.
//
// The shadow registry is authoritative for ids. Every push is best effort:
// a record the host rejects is logged, recorded as a Failure, and the batch
// moves on. Callers receive the Report of what happened together with a
// *PartialReconciliationError when anything failed.
//
// Pushes are idempotent. Running PushShadowToLive twice against an unchanged
// host creates nothing the second time.
package reconcile
