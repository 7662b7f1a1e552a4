package table

import (
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/nao1215/benchscan/internal/model"
	"github.com/nao1215/benchscan/internal/pattern"
)

// Merger extracts policy records from tabular regions of a document.
// Like the scanner, it holds only immutable configuration and is safe for
// concurrent use.
type Merger struct {
	// lib is the matcher library used for context headers and level cells.
	lib *pattern.Library

	// pageLimit is the page count above which the table pass is skipped.
	pageLimit int

	// logger is used for structured logging.
	logger *slog.Logger
}

// Option configures a Merger.
type Option func(*Merger)

// WithPageLimit sets the page count above which table extraction is skipped.
// Values below 1 are ignored.
func WithPageLimit(limit int) Option {
	return func(m *Merger) {
		if limit > 0 {
			m.pageLimit = limit
		}
	}
}

// WithLogger sets a custom logger for the merger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Merger) {
		m.logger = logger
	}
}

// defaultPageLimit mirrors config.DefaultTablePageLimit. Kept local so the
// package has no config dependency; the pipeline wires the configured value.
const defaultPageLimit = 500

// New creates a Merger backed by the given matcher library.
func New(lib *pattern.Library, opts ...Option) *Merger {
	m := &Merger{lib: lib, pageLimit: defaultPageLimit}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	return m
}

// Merge runs the table pass over the document. The skipped return is true
// when the page-count guard suppressed the pass; the caller records it as a
// document-level warning.
func (m *Merger) Merge(doc model.Document) (records []*model.PolicyRecord, skipped bool) {
	if doc.PageCount() > m.pageLimit {
		m.logger.Warn("table extraction skipped by page-count guard",
			"document", doc.ID,
			"pages", doc.PageCount(),
			"limit", m.pageLimit,
		)
		return nil, true
	}

	// Grouping context tracked across the pass, so rows inherit the
	// category that was current where their table appears.
	var category, subcategory, section string

	for _, rawLine := range doc.Lines() {
		line := strings.TrimSpace(rawLine)
		if line == "" {
			continue
		}

		cells := splitCells(line)
		if cells == nil {
			// Not a table row: keep the grouping context current.
			if c, ok := m.lib.Extract(pattern.FieldCategory, line); ok {
				category, subcategory = c, ""
			} else if sec, ok := m.lib.Extract(pattern.FieldSection, line); ok {
				section = sec
			} else if sub, ok := m.lib.Extract(pattern.FieldSubcategory, line); ok {
				subcategory = sub
			}
			continue
		}

		rec := m.buildRecord(cells, line, category, subcategory, section)
		if rec != nil {
			records = append(records, rec)
		}
	}

	m.logger.Debug("table scan complete",
		"document", doc.ID,
		"records", len(records),
	)
	return records, false
}

// cellSplitRe splits space-aligned rows on runs of two or more spaces.
var cellSplitRe = regexp.MustCompile(`\s{2,}|\t+`)

// splitCells splits a line into table cells, or returns nil when the line
// does not look like a table row. Pipe-delimited rows win over whitespace
// alignment because pipes are unambiguous.
func splitCells(line string) []string {
	var parts []string
	switch {
	case strings.Contains(line, "|"):
		parts = strings.Split(line, "|")
	case cellSplitRe.MatchString(line):
		parts = cellSplitRe.Split(line, -1)
	default:
		return nil
	}

	cells := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			cells = append(cells, p)
		}
	}
	if len(cells) < 2 {
		return nil
	}
	return cells
}

// headerWords are first-cell values that identify a table header row.
var headerWords = map[string]bool{
	"policy":           true,
	"policy name":      true,
	"name":             true,
	"setting":          true,
	"setting name":     true,
	"title":            true,
	"recommendation":   true,
	"recommendation #": true,
	"control":          true,
	"section":          true,
	"section #":        true,
	"#":                true,
}

// separatorRe matches markdown-style separator rows like "--- | ---".
var separatorRe = regexp.MustCompile(`^[-=:\s|+]+$`)

// pureSectionRe matches a cell that is only a dotted section number.
var pureSectionRe = regexp.MustCompile(`^\d+(?:\.\d+)+$`)

// buildRecord validates a row and maps its cells onto a raw record.
// Returns nil for header rows, separator rows, and rows with no
// identifiable policy name.
func (m *Merger) buildRecord(cells []string, line, category, subcategory, section string) *model.PolicyRecord {
	if separatorRe.MatchString(line) {
		return nil
	}
	if headerWords[strings.ToLower(cells[0])] {
		return nil
	}

	// A leading pure-section cell shifts the name to the next cell.
	rowSection := section
	if pureSectionRe.MatchString(cells[0]) {
		if len(cells) < 2 {
			return nil
		}
		rowSection = cells[0]
		cells = cells[1:]
	}

	name := strings.TrimSpace(cells[0])
	if name == "" || !containsLetter(name) {
		return nil
	}
	// "1.1.1 Ensure ..." packed into one cell.
	if sec, ok := m.lib.Extract(pattern.FieldSection, name); ok {
		rowSection = sec
		name = strings.TrimSpace(strings.TrimPrefix(name, sec))
		if name == "" {
			return nil
		}
	}

	rec := &model.PolicyRecord{
		SectionNumber: rowSection,
		Category:      category,
		Subcategory:   subcategory,
		PolicyName:    name,
		RawText:       line,
		Provenance:    model.ProvenanceTable,
	}

	// Positional heuristics over the remaining cells: level markers and
	// section numbers are claimed first, the first leftover cell becomes
	// the required value.
	for _, cell := range cells[1:] {
		if lvl, ok := m.lib.Extract(pattern.FieldLevel, cell); ok {
			if n, err := strconv.Atoi(lvl); err == nil {
				rec.Level = n
				continue
			}
		}
		if pureSectionRe.MatchString(cell) && rec.SectionNumber == section {
			rec.SectionNumber = cell
			continue
		}
		if rec.RequiredValue == "" {
			rec.RequiredValue = cell
		}
	}

	return rec
}

// containsLetter reports whether s contains at least one letter.
func containsLetter(s string) bool {
	for _, r := range s {
		if ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') {
			return true
		}
	}
	return false
}
