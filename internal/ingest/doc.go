// Package ingest turns source files into pipeline documents.
//
// Two readers are provided: a plain-text reader that splits pages on form
// feeds, and a PDF reader built on pdfcpu that extracts text show
// operators from each page's content stream. Both produce the same
// page-ordered document shape; the pipeline never touches source files
// itself.
//
// Design decision: Loading is deferred into FileSource.Load rather than
// done eagerly, so a corrupted file fails inside its own batch task and
// never aborts sibling documents.
package ingest
