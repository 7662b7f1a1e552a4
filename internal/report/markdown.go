package report

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/benchscan/internal/model"
)

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for documentation and review handoff.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the batch report in Markdown format.
func (w *MarkdownWriter) Write(batch *model.BatchResult) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, batch)
	for _, result := range batch.Results {
		if result == nil {
			continue
		}
		w.writeDocument(md, result)
	}
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// WriteResult outputs a single document's result in Markdown format.
func (w *MarkdownWriter) WriteResult(result *model.ExtractionResult) (int, error) {
	return w.Write(singleBatch(result))
}

// writeHeader writes the report header with batch totals.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, batch *model.BatchResult) {
	md.H1("Benchscan Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Documents", strconv.Itoa(len(batch.Results))},
			{"Succeeded", strconv.Itoa(batch.Succeeded)},
			{"Failed", strconv.Itoa(batch.Failed)},
			{"Total Records", strconv.Itoa(batch.TotalRecords)},
			{"Elapsed", batch.Elapsed.String()},
		},
	})
	md.PlainText("")

	w.writeAlert(md, batch)
}

// writeAlert writes an appropriate alert based on batch state.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, batch *model.BatchResult) {
	flagged := 0
	for _, result := range batch.Results {
		if result != nil {
			flagged += result.Summary.Flagged
		}
	}

	switch {
	case batch.Failed > 0:
		md.Cautionf(
			"%d document(s) failed to extract. Their errors are listed below.",
			batch.Failed,
		)
	case flagged > 0:
		md.Warningf(
			"%d record(s) are flagged as suspected near-duplicates and need human review.",
			flagged,
		)
	case batch.TotalRecords > 0:
		md.Tip("All documents extracted cleanly with no records flagged for review.")
	default:
		md.Note("No policy records were extracted.")
	}
	md.PlainText("")
}

// writeDocument writes one document's section.
func (w *MarkdownWriter) writeDocument(md *markdown.Markdown, result *model.ExtractionResult) {
	summary := result.Summary

	md.H2(summary.DocumentID)
	md.PlainText("")

	if summary.Failed() {
		md.Cautionf("Extraction failed: %s", summary.ErrorMessage)
		md.PlainText("")
		return
	}

	md.Table(markdown.TableSet{
		Header: []string{"Counter", "Value"},
		Rows: [][]string{
			{"Matched", strconv.Itoa(summary.Matched)},
			{"Validated", strconv.Itoa(summary.Validated)},
			{"Duplicates merged", strconv.Itoa(summary.Duplicates)},
			{"Flagged for review", strconv.Itoa(summary.Flagged)},
			{"Final records", strconv.Itoa(len(result.Records))},
			{"Elapsed", summary.Elapsed.String()},
		},
	})
	md.PlainText("")

	if len(summary.Warnings) > 0 {
		md.Importantf("%s", strings.Join(summary.Warnings, "; "))
		md.PlainText("")
	}

	if len(result.Records) > 0 {
		w.writeCategoryChart(md, result.Records)
		w.writeRecordsTable(md, result.Records)
	}
}

// writeCategoryChart writes a mermaid pie chart of records per category.
func (w *MarkdownWriter) writeCategoryChart(md *markdown.Markdown, records []*model.PolicyRecord) {
	counts := make(map[string]int)
	for _, rec := range records {
		category := rec.Category
		if category == "" {
			category = "Uncategorized"
		}
		counts[category]++
	}
	if len(counts) < 2 {
		return
	}

	categories := make([]string, 0, len(counts))
	for category := range counts {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Records per Category"),
		piechart.WithShowData(true),
	)
	for _, category := range categories {
		chart.LabelAndIntValue(category, uint64(counts[category])) //nolint:gosec // Counts are non-negative
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeRecordsTable writes the policy records table with review details.
func (w *MarkdownWriter) writeRecordsTable(md *markdown.Markdown, records []*model.PolicyRecord) {
	headers := []string{"ID", "Section", "Policy", "Value", "Level", "Confidence", "Review"}

	rows := make([][]string, len(records))
	for i, rec := range records {
		section := rec.SectionNumber
		if section == "" {
			section = "-"
		}
		value := rec.RequiredValue
		if value == "" {
			value = "-"
		}
		review := "-"
		if rec.NeedsReview {
			review = "yes"
		}

		rows[i] = []string{
			rec.PolicyID,
			section,
			truncateString(rec.PolicyName, 60),
			truncateString(value, 30),
			strconv.Itoa(rec.Level),
			fmt.Sprintf("%.2f", rec.Confidence),
			review,
		}
	}

	md.Table(markdown.TableSet{
		Header: headers,
		Rows:   rows,
	})
	md.PlainText("")

	// Expandable details for records that need attention.
	for _, rec := range records {
		if !rec.NeedsReview && len(rec.Warnings) == 0 {
			continue
		}
		var details []string
		if len(rec.SimilarTo) > 0 {
			details = append(details, "Similar to: "+strings.Join(rec.SimilarTo, ", "))
		}
		details = append(details, rec.Warnings...)
		md.Details(rec.PolicyID+" "+rec.PolicyName, strings.Join(details, "<br>"))
	}
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [benchscan](https://github.com/nao1215/benchscan)*")
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
