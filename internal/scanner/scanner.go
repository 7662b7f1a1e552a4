package scanner

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/nao1215/benchscan/internal/model"
	"github.com/nao1215/benchscan/internal/pattern"
)

// Scanner extracts raw policy records from the prose text of one document.
// It holds only immutable configuration and is safe for concurrent use;
// all per-pass state lives in a scanContext created inside Scan.
type Scanner struct {
	// lib is the matcher library used for header detection and field
	// recovery at flush time.
	lib *pattern.Library

	// logger is used for structured logging.
	logger *slog.Logger
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithLogger sets a custom logger for the scanner.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scanner) {
		s.logger = logger
	}
}

// New creates a Scanner backed by the given matcher library.
func New(lib *pattern.Library, opts ...Option) *Scanner {
	s := &Scanner{lib: lib}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// scanContext is the transient state for one document pass: the current
// grouping headers and the accumulation buffer of unflushed lines.
// It exists only for the duration of one Scan call.
type scanContext struct {
	category    string
	subcategory string
	section     string
	buf         []string
	open        bool
}

// Scan runs the full prose-text pass over the document and returns the raw
// records in section order. See ScanPages for progress reporting.
func (s *Scanner) Scan(doc model.Document) []*model.PolicyRecord {
	return s.ScanPages(doc, nil)
}

// ScanPages is Scan with a per-page callback, invoked after each page's
// lines have been consumed. The callback is used by the pipeline for
// progress reporting; pass nil when progress is not needed.
//
// Detection priority per line is fixed: category header, section header,
// subcategory header, plain content. A category or subcategory header also
// flushes any open block, because buffered lines always belong to the
// grouping that was current when the block opened.
func (s *Scanner) ScanPages(doc model.Document, onPage func(pageIndex, pageCount int)) []*model.PolicyRecord {
	ctx := &scanContext{}
	var records []*model.PolicyRecord

	for i, page := range doc.Pages {
		for _, rawLine := range strings.Split(page, "\n") {
			line := strings.TrimSpace(rawLine)
			if line == "" {
				continue
			}
			s.consume(ctx, line, &records)
		}
		if onPage != nil {
			onPage(i, len(doc.Pages))
		}
	}

	// A non-empty buffer at end of document is flushed as the final record.
	if rec := s.flush(ctx); rec != nil {
		records = append(records, rec)
	}

	s.logger.Debug("text scan complete",
		"document", doc.ID,
		"records", len(records),
	)
	return records
}

// consume applies the detection priority to one non-empty line.
func (s *Scanner) consume(ctx *scanContext, line string, records *[]*model.PolicyRecord) {
	// Category header: set category, clear subcategory.
	if category, ok := s.lib.Extract(pattern.FieldCategory, line); ok {
		if rec := s.flush(ctx); rec != nil {
			*records = append(*records, rec)
		}
		ctx.category = category
		ctx.subcategory = ""
		return
	}

	// Section header: flush the open block, open a new one. The header line
	// itself is buffered so title/value recovery can see it.
	if section, ok := s.lib.Extract(pattern.FieldSection, line); ok {
		if rec := s.flush(ctx); rec != nil {
			*records = append(*records, rec)
		}
		ctx.section = section
		ctx.buf = append(ctx.buf[:0:0], line)
		ctx.open = true
		return
	}

	// Subcategory header.
	if sub, ok := s.lib.Extract(pattern.FieldSubcategory, line); ok {
		if rec := s.flush(ctx); rec != nil {
			*records = append(*records, rec)
		}
		ctx.subcategory = sub
		return
	}

	// Plain content: buffered only while a block is open. Content seen
	// before the first section header has no block to belong to.
	if ctx.open {
		ctx.buf = append(ctx.buf, line)
	}
}

// flush emits the current buffer as a raw record and closes the block.
// Returns nil when no block is open or the buffer is empty.
func (s *Scanner) flush(ctx *scanContext) *model.PolicyRecord {
	if !ctx.open || len(ctx.buf) == 0 {
		return nil
	}

	raw := strings.Join(ctx.buf, "\n")
	rec := &model.PolicyRecord{
		SectionNumber: ctx.section,
		Category:      ctx.category,
		Subcategory:   ctx.subcategory,
		RawText:       raw,
		Provenance:    model.ProvenanceText,
	}

	if name, ok := s.lib.Extract(pattern.FieldTitle, raw); ok {
		rec.PolicyName = name
	} else if fallback := s.headerRemainder(ctx); fallback != "" {
		// No title form matched; fall back to the header line with the
		// section number stripped rather than losing the record's name.
		rec.PolicyName = fallback
	}
	rec.RequiredValue, _ = s.lib.Extract(pattern.FieldValue, raw)
	rec.RegistryPath, _ = s.lib.Extract(pattern.FieldRegistryPath, raw)
	rec.GPOPath, _ = s.lib.Extract(pattern.FieldGPOPath, raw)

	rec.Description, rec.Rationale = splitSegments(ctx.buf[1:])

	ctx.buf = nil
	ctx.open = false
	return rec
}

// headerRemainder returns the first buffered line with the leading section
// number removed.
func (s *Scanner) headerRemainder(ctx *scanContext) string {
	header := strings.TrimSpace(strings.TrimPrefix(ctx.buf[0], ctx.section))
	return header
}

// segmentLabelRe matches labeled paragraph headers inside a policy block.
// Group 1 is the label, group 2 the inline remainder (may be empty).
var segmentLabelRe = regexp.MustCompile(`(?i)^(description|rationale|impact|audit|remediation|references|default value)\s*:\s*(.*)$`)

// metadataLineRe matches field-locator lines (registry paths, GPO paths,
// recommended values) that belong to the structured fields, not to the
// description or rationale prose.
var metadataLineRe = regexp.MustCompile(`(?i)^(registry\s+(?:path|key|hive)|group\s+policy(?:\s+path)?|gpo(?:\s+path)?|recommended\s+(?:value|state)|required\s+value|value|risk|severity|policy\s+name|title|setting)\s*:`)

// splitSegments collects the description and rationale paragraphs from the
// content lines of a block. Unlabeled lines before the first label belong to
// the description, which is the dominant benchmark layout. Labels other than
// description/rationale switch to an ignored segment so audit or remediation
// text never bleeds into either field.
func splitSegments(lines []string) (description, rationale string) {
	var desc, rat []string
	current := &desc

	for _, line := range lines {
		if m := segmentLabelRe.FindStringSubmatch(line); m != nil {
			switch strings.ToLower(m[1]) {
			case "description":
				current = &desc
			case "rationale":
				current = &rat
			default:
				current = nil
			}
			if current != nil && strings.TrimSpace(m[2]) != "" {
				*current = append(*current, strings.TrimSpace(m[2]))
			}
			continue
		}
		if metadataLineRe.MatchString(line) {
			continue
		}
		if current != nil {
			*current = append(*current, line)
		}
	}

	return strings.Join(desc, " "), strings.Join(rat, " ")
}
