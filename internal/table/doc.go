// Package table implements the tabular extraction pass: an independent full
// pass over a document that converts table rows into the same raw-record
// shape the prose scanner produces, tagged with table provenance.
//
// Column-to-field mapping is positional with heuristics: the first cell is
// the policy name (or a section number followed by the name), and later
// cells are claimed as level markers, section numbers, or the required
// value. Rows that look like headers or carry no identifiable policy name
// are rejected before a record is built.
//
// Design decision: Table extraction is skipped entirely above a configured
// page-count limit. On very large documents the quadratic-ish cost of row
// detection buys little precision, so the guard is a deliberate
// precision/cost tradeoff exposed as a setting (Config.TablePageLimit),
// never a hard-coded constant. A skipped pass is reported to the caller so
// the document summary can carry a warning instead of silently losing the
// table pass.
package table
