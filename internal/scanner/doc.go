// Package scanner implements the prose-text extraction pass: a single-pass,
// single-threaded state machine over the page-ordered line stream of one
// benchmark document.
//
// The scanner has two states: seeking (no open policy block) and in-block
// (accumulating lines for the current policy). Detection per line runs in a
// fixed priority: category header, then section header, then subcategory
// header, then plain content. A section header flushes the open block as a
// raw PolicyRecord and opens a new one; end of document flushes the final
// block. Page boundaries carry no meaning to the state machine, so a policy
// whose text spans pages is extracted intact.
//
// Design decision: The scan context (current category, subcategory, section,
// line buffer) is a private struct owned by one Scan call and discarded when
// it returns. Scanner itself holds only immutable configuration, so a single
// Scanner is safe to share across concurrent document pipelines.
package scanner
