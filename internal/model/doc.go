// Package model defines the core data structures used throughout benchscan.
//
// This package contains the following main types:
//   - Document: An ordered sequence of page texts for one benchmark document
//   - PolicyRecord: A structured unit of extracted configuration guidance
//   - ExtractionSummary: Per-document counters and timing for one pipeline run
//   - ExtractionResult: The deduplicated record list plus its summary
//   - BatchResult: The aggregate of many per-document results
//
// Design decision: We separate models into their own package to avoid circular
// dependencies. Multiple packages (scanner, table, validate, dedup, pipeline,
// report, database) need to use these types, so centralizing them prevents
// import cycles.
//
// The models are designed to be serializable to JSON for report output and
// database storage. The field names and types of PolicyRecord are the
// serialization contract with downstream consumers (dashboard import, script
// generation, reporting) and must stay stable.
package model
