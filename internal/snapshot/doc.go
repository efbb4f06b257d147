// Package snapshot reads and writes portable shadow registry snapshots.
//
// A snapshot file is one ASCII header line followed by a zstd frame:
//
//	EXTVARS1 <blake3-256 hex of the uncompressed body>\n
//	<zstd(canonical JSON of Document)>
//
// The body is RFC 8785 canonical JSON (ir.MarshalCanonical), so two
// snapshots of the same registry are byte-identical. Read verifies both the
// checksum and the registry digest recorded in the document.
package snapshot
