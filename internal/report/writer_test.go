package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/benchscan/internal/model"
)

// createTestBatch creates a batch with sample data for testing.
func createTestBatch() *model.BatchResult {
	ok := model.NewExtractionResult("cis-win11")
	ok.Records = []*model.PolicyRecord{
		{
			PolicyID:      "cis-win11-0001",
			SectionNumber: "1.1.1",
			Category:      "Account Policies",
			PolicyName:    "Ensure 'Enforce password history' is set to '24 or more password(s)'",
			RegistryPath:  `HKLM\SOFTWARE\Policies`,
			RequiredValue: "24",
			ValueType:     model.ValueTypeNumeric,
			Level:         1,
			Confidence:    0.9,
		},
		{
			PolicyID:    "cis-win11-0002",
			Category:    "System Services",
			PolicyName:  "Ensure 'Guest account status' is set to 'Disabled'",
			Level:       1,
			Confidence:  0.5,
			NeedsReview: true,
			SimilarTo:   []string{"cis-win11-0001"},
		},
	}
	ok.Summary.Matched = 3
	ok.Summary.Validated = 3
	ok.Summary.Duplicates = 1
	ok.Summary.Flagged = 1
	ok.Summary.Elapsed = 150 * time.Millisecond
	ok.Summary.AddWarning("table extraction skipped: document has 600 pages, over the limit")

	failed := model.NewExtractionResult("stig-rhel9")
	failed.Summary.SetError(errors.New("decode pdf: malformed xref table"))

	batch := &model.BatchResult{
		Results: []*model.ExtractionResult{ok, failed},
		Elapsed: 200 * time.Millisecond,
	}
	batch.Aggregate()
	return batch
}

// TestSimpleWriter tests the human-readable report writer.
func TestSimpleWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes report header", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)

		if _, err := w.Write(createTestBatch()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "BENCHSCAN REPORT") {
			t.Error("expected output to contain header")
		}
		if !strings.Contains(output, "Succeeded:      1") {
			t.Error("expected output to contain succeeded count")
		}
		if !strings.Contains(output, "Failed:         1") {
			t.Error("expected output to contain failed count")
		}
	})

	t.Run("writes document summaries", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)

		if _, err := w.Write(createTestBatch()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "DOCUMENT: cis-win11") {
			t.Error("expected output to contain the document section")
		}
		if !strings.Contains(output, "Duplicates: 1 merged") {
			t.Error("expected output to contain the duplicates counter")
		}
		if !strings.Contains(output, "table extraction skipped") {
			t.Error("expected output to contain the warning")
		}
	})

	t.Run("shows failed documents with error text", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)

		if _, err := w.Write(createTestBatch()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "FAILED - decode pdf: malformed xref table") {
			t.Error("expected output to contain the failure message")
		}
	})

	t.Run("lists records when enabled", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf, WithShowRecords(true))

		if _, err := w.Write(createTestBatch()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "cis-win11-0001") {
			t.Error("expected output to list policy records")
		}
		if !strings.Contains(output, "[?] cis-win11-0002") {
			t.Error("expected the review marker on flagged records")
		}
	})

	t.Run("verbose mode includes record details", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf, WithShowRecords(true), WithVerbose(true))

		if _, err := w.Write(createTestBatch()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, `HKLM\SOFTWARE\Policies`) {
			t.Error("expected verbose output to contain registry path")
		}
		if !strings.Contains(output, "Similar To: cis-win11-0001") {
			t.Error("expected verbose output to contain similar-to references")
		}
	})

	t.Run("hides records by default", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)

		if _, err := w.Write(createTestBatch()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if strings.Contains(buf.String(), "cis-win11-0001") {
			t.Error("expected records to be hidden without WithShowRecords")
		}
	})
}

// TestJSONWriter tests the JSON report writer.
func TestJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("outputs valid JSON", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewJSONWriter(&buf)

		if _, err := w.Write(createTestBatch()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var parsed model.BatchResult
		if err := json.Unmarshal(buf.Bytes(), &parsed); err != nil {
			t.Fatalf("output is not valid JSON: %v", err)
		}

		if parsed.Succeeded != 1 || parsed.Failed != 1 {
			t.Errorf("counters: got %d/%d, expected 1/1", parsed.Succeeded, parsed.Failed)
		}
		if parsed.TotalRecords != 2 {
			t.Errorf("total records: got %d, expected 2", parsed.TotalRecords)
		}
	})

	t.Run("compact output by default", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewJSONWriter(&buf)

		if _, err := w.Write(createTestBatch()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		if len(lines) > 1 {
			t.Errorf("expected compact output (1 line), got %d lines", len(lines))
		}
	})

	t.Run("pretty print with indent", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewJSONWriter(&buf, WithPrettyPrint())

		if _, err := w.Write(createTestBatch()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		if len(lines) < 5 {
			t.Errorf("expected multi-line output, got %d lines", len(lines))
		}
	})

	t.Run("WriteResult outputs a single result", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewJSONWriter(&buf)
		result := createTestBatch().Results[0]

		if _, err := w.WriteResult(result); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var parsed model.ExtractionResult
		if err := json.Unmarshal(buf.Bytes(), &parsed); err != nil {
			t.Fatalf("output is not valid JSON: %v", err)
		}
		if parsed.Summary.DocumentID != "cis-win11" {
			t.Errorf("document id: got %q", parsed.Summary.DocumentID)
		}
	})
}

// TestWithIndent tests the WithIndent JSON option.
func TestWithIndent(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	w := NewJSONWriter(&buf, WithIndent(">>", "\t"))

	if _, err := w.Write(createTestBatch()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, ">>") {
		t.Error("expected custom prefix '>>' in output")
	}
	if !strings.Contains(output, "\t") {
		t.Error("expected tab indentation in output")
	}
}

// TestFullJSONWriter tests the full JSON writer with metadata.
func TestFullJSONWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	w := NewFullJSONWriter(&buf, "1.2.0", WithPrettyPrint())

	if _, err := w.Write(createTestBatch()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var parsed JSONReport
	if err := json.Unmarshal(buf.Bytes(), &parsed); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}

	if parsed.Version != "1.2.0" {
		t.Errorf("expected version %q, got %q", "1.2.0", parsed.Version)
	}
	if parsed.Batch == nil || parsed.Batch.TotalRecords != 2 {
		t.Errorf("expected wrapped batch, got %+v", parsed.Batch)
	}
}

// TestMultiWriter tests writing to multiple outputs.
func TestMultiWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes to all writers", func(t *testing.T) {
		t.Parallel()

		var buf1, buf2 bytes.Buffer
		multi := NewMultiWriter(NewSimpleWriter(&buf1), NewJSONWriter(&buf2))

		if _, err := multi.Write(createTestBatch()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if buf1.Len() == 0 {
			t.Error("expected buf1 to have content")
		}
		if buf2.Len() == 0 {
			t.Error("expected buf2 to have content")
		}
		if strings.Contains(buf1.String(), "{") {
			t.Error("expected buf1 (simple) to not be JSON")
		}
		if !strings.Contains(buf2.String(), "{") {
			t.Error("expected buf2 (JSON) to contain JSON")
		}
	})

	t.Run("handles empty writers list", func(t *testing.T) {
		t.Parallel()

		multi := NewMultiWriter()
		n, err := multi.Write(createTestBatch())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != 0 {
			t.Errorf("expected 0 bytes written for empty writers, got %d", n)
		}
	})
}

// TestMarkdownWriter tests the Markdown report writer.
func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes report header", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)

		if _, err := w.Write(createTestBatch()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "# Benchscan Report") {
			t.Error("expected output to contain H1 header")
		}
		if !strings.Contains(output, "## cis-win11") {
			t.Error("expected output to contain a document section")
		}
	})

	t.Run("includes alert for failed documents", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)

		if _, err := w.Write(createTestBatch()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "[!CAUTION]") {
			t.Error("expected CAUTION alert when documents failed")
		}
		if !strings.Contains(output, "decode pdf: malformed xref table") {
			t.Error("expected the failure message in output")
		}
	})

	t.Run("includes warning alert for flagged records", func(t *testing.T) {
		t.Parallel()

		batch := createTestBatch()
		batch.Results = batch.Results[:1] // Drop the failed document.
		batch.Aggregate()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)

		if _, err := w.Write(batch); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !strings.Contains(buf.String(), "[!WARNING]") {
			t.Error("expected WARNING alert for flagged records")
		}
	})

	t.Run("writes records table", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)

		if _, err := w.Write(createTestBatch()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "cis-win11-0001") {
			t.Error("expected records table in output")
		}
		if !strings.Contains(output, "Confidence") {
			t.Error("expected Confidence column in output")
		}
	})

	t.Run("includes pie chart for multi-category documents", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)

		if _, err := w.Write(createTestBatch()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !strings.Contains(buf.String(), "pie") {
			t.Error("expected output to contain mermaid pie chart")
		}
	})

	t.Run("includes details for flagged records", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)

		if _, err := w.Write(createTestBatch()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "<details>") {
			t.Error("expected output to contain details tags")
		}
		if !strings.Contains(output, "Similar to: cis-win11-0001") {
			t.Error("expected similar-to reference in details")
		}
	})

	t.Run("tip alert when nothing is flagged", func(t *testing.T) {
		t.Parallel()

		result := model.NewExtractionResult("clean-doc")
		result.Records = []*model.PolicyRecord{
			{PolicyID: "clean-doc-0001", PolicyName: "Ensure 'X' is set to '1'", Level: 1},
		}
		result.Summary.Matched = 1
		result.Summary.Validated = 1

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)

		if _, err := w.WriteResult(result); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !strings.Contains(buf.String(), "[!TIP]") {
			t.Error("expected TIP alert for a clean batch")
		}
	})

	t.Run("writes footer with link", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)

		if _, err := w.Write(createTestBatch()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !strings.Contains(buf.String(), "https://github.com/nao1215/benchscan") {
			t.Error("expected footer with repository link")
		}
	})
}

// TestWriteResultSingleDocument tests the single-document convenience path.
func TestWriteResultSingleDocument(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	w := NewSimpleWriter(&buf)
	result := createTestBatch().Results[0]

	if _, err := w.WriteResult(result); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "Documents:      1") {
		t.Error("expected a one-document batch header")
	}
	if !strings.Contains(output, "DOCUMENT: cis-win11") {
		t.Error("expected the document section")
	}
}

// TestTruncateString tests the string truncation helper.
func TestTruncateString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		maxLen   int
		expected string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"this is a longer string", 10, "this is..."},
		{"abc", 3, "abc"},
		{"abcd", 3, "abc"},
		{"ab", 5, "ab"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			result := truncateString(tt.input, tt.maxLen)
			if result != tt.expected {
				t.Errorf("truncateString(%q, %d) = %q, want %q",
					tt.input, tt.maxLen, result, tt.expected)
			}
		})
	}
}
