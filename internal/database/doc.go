// Package database provides SQLite-based storage for extraction results.
//
// This package implements the PolicyDB, which stores:
//   - Extraction runs with their full result JSON and summary counters
//   - Individual policy records in queryable columns
//
// Design decision: We use SQLite (via modernc.org/sqlite) instead of other
// databases because:
// 1. No external dependencies - the database is a single file
// 2. CGO-free implementation allows easy cross-compilation
// 3. Sufficient performance for our use case
// 4. WAL mode provides good concurrent read performance
//
// Results are stored twice on purpose: the full JSON blob round-trips the
// exact result for historical comparison, while the policies table exposes
// the fields reviewers actually filter on (category, confidence,
// needs_review) to plain SQL.
package database
