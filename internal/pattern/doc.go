// Package pattern provides the data-driven matcher library used to recover
// structured policy fields from semi-structured benchmark text.
//
// The library is a named, versioned, ordered collection of matchers grouped
// by field (section, title, registry path, GPO path, value, level, risk,
// plus the structural category/subcategory headers the scanner keys on).
// For each field, matchers are evaluated in priority order and the first
// match wins. That precedence is a documented contract, not an
// implementation detail: benchmark formatting variants overlap, and the
// ordering decides which variant is recovered.
//
// Design decision: Matchers are plain data (name, field, regular
// expression, capture group) rather than code. New format variants are
// supported by adding matcher entries - via Extend or a YAML matcher file -
// without touching calling code. The library is immutable after
// construction and safe for concurrent use; Extend returns a new library.
package pattern
