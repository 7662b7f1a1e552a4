package report

import (
	"io"

	"github.com/nao1215/benchscan/internal/model"
)

// Writer defines the interface for report output.
// Implementations write extraction results in various formats.
//
// Design decision: We use an interface to allow different output formats
// and destinations. This enables writing to files, stdout, or network
// connections with the same API.
type Writer interface {
	// Write outputs the whole batch report to the configured destination.
	// Returns the number of bytes written and any error encountered.
	Write(batch *model.BatchResult) (int, error)

	// WriteResult outputs a single document's extraction result.
	// This is useful when only one document was processed.
	WriteResult(result *model.ExtractionResult) (int, error)
}

// MultiWriter writes to multiple Writers simultaneously.
// This is useful for outputting to both terminal and file.
//
// Design decision: We implement this as a separate type rather than
// using io.MultiWriter because our Writer interface is different
// from io.Writer - we write reports, not raw bytes.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the batch report to all configured Writers.
// Returns the total bytes written across all writers.
// Stops on first error encountered.
func (m *MultiWriter) Write(batch *model.BatchResult) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(batch)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// WriteResult outputs the single-document result to all configured Writers.
func (m *MultiWriter) WriteResult(result *model.ExtractionResult) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.WriteResult(result)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// singleBatch wraps one result in a batch so the per-format batch code
// paths serve the single-document case too.
func singleBatch(result *model.ExtractionResult) *model.BatchResult {
	batch := &model.BatchResult{
		Results: []*model.ExtractionResult{result},
		Elapsed: result.Summary.Elapsed,
	}
	batch.Aggregate()
	return batch
}
