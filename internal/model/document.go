package model

import "strings"

// Document is the pipeline input: an ordered sequence of page texts for one
// benchmark document. The pipeline never decodes source files itself; a
// collaborator (the ingest package or an external caller) supplies
// already-extracted page text.
type Document struct {
	// ID identifies the document in summaries, progress reporting, and
	// policy IDs. Typically the source file name without extension.
	ID string `json:"id"`

	// Pages holds the page texts in page order. Page boundaries carry no
	// meaning to the scanner; they exist only for progress reporting and
	// the table-extraction page-count guard.
	Pages []string `json:"-"`
}

// PageCount returns the number of pages in the document.
func (d Document) PageCount() int {
	return len(d.Pages)
}

// Lines returns all page texts as one page-ordered line stream.
// Blank trailing whitespace is trimmed per line; empty lines are preserved
// because the scanner uses them to separate content inside a block.
func (d Document) Lines() []string {
	var lines []string
	for _, page := range d.Pages {
		for _, line := range strings.Split(page, "\n") {
			lines = append(lines, strings.TrimRight(line, " \t\r"))
		}
	}
	return lines
}
