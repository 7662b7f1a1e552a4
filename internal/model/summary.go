package model

import (
	"time"
)

// Phase identifies a pipeline phase for progress reporting.
//
// The percent ranges attached to each phase are a documented contract:
// downstream progress displays partition their bars by these exact ranges.
//
//	scan      10-60
//	table     60-80
//	validate  80-95
//	finalize  95-100
type Phase int

const (
	// PhaseScan is the prose-text scanning phase (10-60%).
	PhaseScan Phase = iota

	// PhaseTable is the tabular extraction phase (60-80%).
	PhaseTable

	// PhaseValidate is the validation/enrichment phase (80-95%).
	PhaseValidate

	// PhaseFinalize is the deduplication and ID-assignment phase (95-100%).
	PhaseFinalize
)

// String returns the serialized phase name.
func (p Phase) String() string {
	switch p {
	case PhaseScan:
		return "scan"
	case PhaseTable:
		return "table"
	case PhaseValidate:
		return "validate"
	case PhaseFinalize:
		return "finalize"
	default:
		return "unknown"
	}
}

// ExtractionSummary holds per-document counters and timing for one pipeline
// run. It is created when the document's task starts, mutated only by that
// task, and read-only afterward.
type ExtractionSummary struct {
	// DocumentID identifies the source document.
	DocumentID string `json:"document_id"`

	// Matched is the number of raw records produced by both extraction
	// passes before validation.
	Matched int `json:"matched"`

	// Validated is the number of records that passed through the
	// validator/enricher. Equal to Matched unless the task failed mid-run.
	Validated int `json:"validated"`

	// Duplicates is the number of exact duplicates merged away.
	Duplicates int `json:"duplicates"`

	// Flagged is the number of records flagged as near-duplicates.
	Flagged int `json:"flagged"`

	// Elapsed is the wall-clock duration of the document's pipeline run.
	Elapsed time.Duration `json:"elapsed"`

	// Warnings lists document-level issues (e.g. table pass skipped by the
	// page-count guard, capped near-duplicate comparison).
	Warnings []string `json:"warnings,omitempty"`

	// Error contains the fatal error if the document's task failed.
	// Only an unreadable document aborts its own task.
	Error error `json:"-"`

	// ErrorMessage is the string form of Error for serialization.
	ErrorMessage string `json:"error,omitempty"`
}

// SetError records a fatal error on the summary.
func (s *ExtractionSummary) SetError(err error) {
	s.Error = err
	if err != nil {
		s.ErrorMessage = err.Error()
	}
}

// Failed reports whether the document's task failed.
func (s *ExtractionSummary) Failed() bool {
	return s.Error != nil || s.ErrorMessage != ""
}

// AddWarning appends a document-level warning, skipping exact repeats.
func (s *ExtractionSummary) AddWarning(warning string) {
	for _, w := range s.Warnings {
		if w == warning {
			return
		}
	}
	s.Warnings = append(s.Warnings, warning)
}

// ExtractionResult is the pipeline's final artifact for one document:
// the deduplicated record list plus the summary. It is assembled once by
// the deduplication step and merged (not re-deduplicated) into a
// BatchResult by the orchestrator.
type ExtractionResult struct {
	// Records is the deduplicated policy record list.
	Records []*PolicyRecord `json:"records"`

	// Summary holds the per-document counters.
	Summary ExtractionSummary `json:"summary"`
}

// NewExtractionResult creates an empty result for the given document.
func NewExtractionResult(documentID string) *ExtractionResult {
	return &ExtractionResult{
		Records: make([]*PolicyRecord, 0),
		Summary: ExtractionSummary{DocumentID: documentID},
	}
}

// BatchResult aggregates per-document results for one orchestrator run.
// Partial failure is always visible: failed documents keep their summaries
// (with error text) alongside successful ones.
type BatchResult struct {
	// Results holds one entry per document, in input order.
	Results []*ExtractionResult `json:"results"`

	// Succeeded is the number of documents extracted without fatal error.
	Succeeded int `json:"succeeded"`

	// Failed is the number of documents whose task failed.
	Failed int `json:"failed"`

	// TotalRecords is the record count across successful documents.
	TotalRecords int `json:"total_records"`

	// Elapsed is the wall-clock duration of the whole batch.
	Elapsed time.Duration `json:"elapsed"`
}

// Aggregate recomputes the batch counters from the per-document results.
func (b *BatchResult) Aggregate() {
	b.Succeeded = 0
	b.Failed = 0
	b.TotalRecords = 0
	for _, r := range b.Results {
		if r == nil {
			continue
		}
		if r.Summary.Failed() {
			b.Failed++
			continue
		}
		b.Succeeded++
		b.TotalRecords += len(r.Records)
	}
}

// FailedResults returns the results whose tasks failed, in input order.
func (b *BatchResult) FailedResults() []*ExtractionResult {
	var failed []*ExtractionResult
	for _, r := range b.Results {
		if r != nil && r.Summary.Failed() {
			failed = append(failed, r)
		}
	}
	return failed
}
