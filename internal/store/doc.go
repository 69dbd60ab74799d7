// Package store provides SQLite-backed history of analysis runs.
//
// Each run is one report.Report. The store keeps:
//   - Runs: one row per report, with summary columns and the full report JSON
//   - Diagnostics: one row per diagnostic, for cross-run queries by code
//   - Deadlocks: one row per hard or conditional deadlock with its trace
//
// # Conventions
//
// Runs are append-only and identified by their run id. Writing the same run
// twice is a no-op.
//
// Listing orders by created_at DESC, id DESC COLLATE BINARY, so ties on the
// timestamp still produce a stable order.
//
// Variable valuations and traces are stored as canonical JSON (see
// ir.MarshalCanonical), so equal valuations compare equal as text.
//
// The database runs in WAL mode with foreign keys on, so deleting a run
// removes its child rows.
package store
