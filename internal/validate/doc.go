// Package validate implements the validation/enrichment stage: it scores
// completeness, recovers missing fields by re-running pattern matchers
// against the record's own raw text, infers the value type, applies the
// documented level default, and computes the weighted confidence score.
//
// Design decision: The validator never rejects a record. Every input comes
// back mutated in place with warnings attached; an incomplete record is a
// low-confidence record, not an error. This keeps partial extractions
// visible to reviewers instead of silently dropping them.
//
// Field inference deliberately re-scans raw_text only - never unrelated
// fields - because the raw span is the only text the record is accountable
// for. Inferring a registry path from, say, another record's description
// would fabricate provenance.
package validate
