// Package store provides a SQLite-backed log of translations.
//
// Each call to the CLI's translate command with --log records one row:
// the SQL text, the canonical IR and its fingerprint, both renderings, and
// the error code and message when translation failed.
//
// # Ordering
//
//   - Rows carry a seq INTEGER assigned at insert time
//   - All listings order by seq, never by created_at, so results are
//     deterministic even when the wall clock moves backwards
//
// # Idempotency
//
// Translation IDs are UUIDv7. Writing the same ID twice is a no-op.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - A single connection serializes writers
//
// Fingerprints are computed by ir.Fingerprint over RFC 8785 canonical JSON.
package store
