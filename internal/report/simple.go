package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nao1215/benchscan/internal/model"
)

// SimpleWriter outputs human-readable text reports.
// This format is designed for terminal display with clear section
// formatting.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors by default because:
// 1. It works in all terminals without compatibility issues
// 2. It's easier to pipe to files or other tools
// 3. Color can be added as an option later if needed
type SimpleWriter struct {
	baseWriter

	// showRecords controls whether per-policy rows are printed.
	// When false only the summaries are shown.
	showRecords bool

	// verbose enables additional detail in the output.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowRecords configures the writer to list individual policy records.
func WithShowRecords(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showRecords = show
	}
}

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter:  newBaseWriter(output),
		showRecords: false,
		verbose:     false,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the batch report in human-readable format.
func (w *SimpleWriter) Write(batch *model.BatchResult) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, batch)
	for _, result := range batch.Results {
		if result == nil {
			continue
		}
		w.writeDocument(&sb, result)
	}
	w.writeFooter(&sb)

	return w.output.Write([]byte(sb.String()))
}

// WriteResult outputs a single document's result in human-readable format.
func (w *SimpleWriter) WriteResult(result *model.ExtractionResult) (int, error) {
	return w.Write(singleBatch(result))
}

// writeHeader writes the report header with batch totals.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, batch *model.BatchResult) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                         BENCHSCAN REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("Documents:      %d\n", len(batch.Results)))
	sb.WriteString(fmt.Sprintf("Succeeded:      %d\n", batch.Succeeded))
	sb.WriteString(fmt.Sprintf("Failed:         %d\n", batch.Failed))
	sb.WriteString(fmt.Sprintf("Total Records:  %d\n", batch.TotalRecords))
	sb.WriteString(fmt.Sprintf("Elapsed:        %s\n", batch.Elapsed.Round(time.Millisecond)))
	sb.WriteString("\n")
}

// writeDocument writes one document's section.
func (w *SimpleWriter) writeDocument(sb *strings.Builder, result *model.ExtractionResult) {
	summary := result.Summary

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("DOCUMENT: %s\n", summary.DocumentID))
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	if summary.Failed() {
		sb.WriteString(fmt.Sprintf("  Status:     FAILED - %s\n\n", summary.ErrorMessage))
		return
	}

	sb.WriteString(fmt.Sprintf("  Matched:    %d\n", summary.Matched))
	sb.WriteString(fmt.Sprintf("  Validated:  %d\n", summary.Validated))
	sb.WriteString(fmt.Sprintf("  Duplicates: %d merged\n", summary.Duplicates))
	sb.WriteString(fmt.Sprintf("  Flagged:    %d for review\n", summary.Flagged))
	sb.WriteString(fmt.Sprintf("  Records:    %d\n", len(result.Records)))

	if len(summary.Warnings) > 0 {
		sb.WriteString("\n  Warnings:\n")
		for _, warning := range summary.Warnings {
			sb.WriteString(fmt.Sprintf("    ! %s\n", warning))
		}
	}
	sb.WriteString("\n")

	if w.showRecords {
		w.writeRecords(sb, result.Records)
	}
}

// writeRecords lists individual policy records.
func (w *SimpleWriter) writeRecords(sb *strings.Builder, records []*model.PolicyRecord) {
	for _, rec := range records {
		marker := " "
		if rec.NeedsReview {
			marker = "?"
		}
		sb.WriteString(fmt.Sprintf("  [%s] %s  %s\n", marker, rec.PolicyID, rec.PolicyName))

		if w.verbose {
			if rec.SectionNumber != "" {
				sb.WriteString(fmt.Sprintf("      Section:    %s\n", rec.SectionNumber))
			}
			if rec.Category != "" {
				sb.WriteString(fmt.Sprintf("      Category:   %s\n", rec.Category))
			}
			if rec.RegistryPath != "" {
				sb.WriteString(fmt.Sprintf("      Registry:   %s\n", rec.RegistryPath))
			}
			if rec.RequiredValue != "" {
				sb.WriteString(fmt.Sprintf("      Value:      %s (%s)\n", rec.RequiredValue, rec.ValueType))
			}
			sb.WriteString(fmt.Sprintf("      Level:      %d\n", rec.Level))
			sb.WriteString(fmt.Sprintf("      Confidence: %.2f\n", rec.Confidence))
			for _, warning := range rec.Warnings {
				sb.WriteString(fmt.Sprintf("      Warning:    %s\n", warning))
			}
			if len(rec.SimilarTo) > 0 {
				sb.WriteString(fmt.Sprintf("      Similar To: %s\n", strings.Join(rec.SimilarTo, ", ")))
			}
		}
	}
	sb.WriteString("\n")
}

// writeFooter writes the report footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("Report generated by benchscan\n")
	sb.WriteString("https://github.com/nao1215/benchscan\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}
