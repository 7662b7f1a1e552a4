package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nao1215/benchscan/internal/config"
	"github.com/nao1215/benchscan/internal/dedup"
	"github.com/nao1215/benchscan/internal/model"
	"github.com/nao1215/benchscan/internal/pattern"
	"github.com/nao1215/benchscan/internal/scanner"
	"github.com/nao1215/benchscan/internal/table"
	"github.com/nao1215/benchscan/internal/validate"
)

// Progress band boundaries per phase. The partition is a documented
// contract with downstream progress displays.
const (
	scanStart   = 10
	scanEnd     = 60
	tableEnd    = 80
	validateEnd = 95
	finalizeEnd = 100
)

// ScanStep runs the prose-text scanner over the document.
// This step produces the bulk of the raw records and reports per-page
// progress across the 10-60 band.
//
// Design decision: Text scanning is a separate step from tabular
// extraction because:
// 1. The two passes read the document independently
// 2. They produce the same record shape but with different provenance
// 3. The tabular pass can be skipped by the page-count guard
type ScanStep struct {
	// scanner is the stateful line scanner.
	scanner *scanner.Scanner

	// logger for structured logging.
	logger *slog.Logger
}

// ScanStepOption configures a ScanStep.
type ScanStepOption func(*ScanStep)

// WithScanLogger sets a custom logger for the scan step.
func WithScanLogger(logger *slog.Logger) ScanStepOption {
	return func(s *ScanStep) {
		s.logger = logger
	}
}

// NewScanStep creates a new prose-text scanning step.
func NewScanStep(sc *scanner.Scanner, opts ...ScanStepOption) *ScanStep {
	s := &ScanStep{
		scanner: sc,
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *ScanStep) Name() string {
	return "scan"
}

// Do executes the prose-text scan step.
func (s *ScanStep) Do(_ context.Context, ex *Extraction) error {
	ex.ReportProgress(scanStart, model.PhaseScan, "scanning text")

	records := s.scanner.ScanPages(ex.Document, func(pageIndex, pageCount int) {
		percent := scanStart + (scanEnd-scanStart)*(pageIndex+1)/pageCount
		ex.ReportProgress(percent, model.PhaseScan,
			fmt.Sprintf("page %d/%d", pageIndex+1, pageCount))
	})

	ex.Raw = append(ex.Raw, records...)
	ex.Result.Summary.Matched += len(records)

	s.logger.Debug("text scan completed",
		"document", ex.Document.ID,
		"records", len(records),
	)
	return nil
}

// TableStep runs the tabular extraction pass over the document.
// Rows are parsed into the same record shape as text-derived records so
// the deduplicator can fold the two passes together.
type TableStep struct {
	// merger is the tabular row extractor.
	merger *table.Merger

	// disabled skips the pass entirely, e.g. per-document configuration.
	disabled bool

	// logger for structured logging.
	logger *slog.Logger
}

// TableStepOption configures a TableStep.
type TableStepOption func(*TableStep)

// WithTableLogger sets a custom logger for the table step.
func WithTableLogger(logger *slog.Logger) TableStepOption {
	return func(s *TableStep) {
		s.logger = logger
	}
}

// WithTableDisabled skips the tabular pass. The skip is still recorded as
// a document-level warning so reports show the omission.
func WithTableDisabled(disabled bool) TableStepOption {
	return func(s *TableStep) {
		s.disabled = disabled
	}
}

// NewTableStep creates a new tabular extraction step.
func NewTableStep(m *table.Merger, opts ...TableStepOption) *TableStep {
	s := &TableStep{
		merger: m,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *TableStep) Name() string {
	return "table"
}

// Do executes the tabular extraction step.
func (s *TableStep) Do(_ context.Context, ex *Extraction) error {
	ex.ReportProgress(scanEnd, model.PhaseTable, "extracting tables")

	if s.disabled {
		ex.Result.Summary.AddWarning("table extraction skipped: disabled by configuration")
		ex.ReportProgress(tableEnd, model.PhaseTable, "tables skipped")
		s.logger.Debug("table extraction disabled", "document", ex.Document.ID)
		return nil
	}

	records, skipped := s.merger.Merge(ex.Document)
	if skipped {
		// The guard skipped the pass; the document-level warning keeps
		// the omission visible in every report format.
		ex.Result.Summary.AddWarning(fmt.Sprintf(
			"table extraction skipped: document has %d pages, over the limit",
			ex.Document.PageCount()))
	}

	ex.Raw = append(ex.Raw, records...)
	ex.Result.Summary.Matched += len(records)

	ex.ReportProgress(tableEnd, model.PhaseTable, "tables extracted")
	s.logger.Debug("table extraction completed",
		"document", ex.Document.ID,
		"records", len(records),
		"skipped", skipped,
	)
	return nil
}

// ValidateStep runs every raw record through the validator/enricher.
// Records are never rejected here: gaps become warnings and lower the
// confidence score.
type ValidateStep struct {
	// validator scores and enriches records in place.
	validator *validate.Validator

	// logger for structured logging.
	logger *slog.Logger
}

// ValidateStepOption configures a ValidateStep.
type ValidateStepOption func(*ValidateStep)

// WithValidateLogger sets a custom logger for the validate step.
func WithValidateLogger(logger *slog.Logger) ValidateStepOption {
	return func(s *ValidateStep) {
		s.logger = logger
	}
}

// NewValidateStep creates a new validation/enrichment step.
func NewValidateStep(v *validate.Validator, opts ...ValidateStepOption) *ValidateStep {
	s := &ValidateStep{
		validator: v,
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *ValidateStep) Name() string {
	return "validate"
}

// Do executes the validation step.
func (s *ValidateStep) Do(_ context.Context, ex *Extraction) error {
	ex.ReportProgress(tableEnd, model.PhaseValidate, "validating records")

	for i, rec := range ex.Raw {
		s.validator.Validate(rec)
		percent := tableEnd + (validateEnd-tableEnd)*(i+1)/len(ex.Raw)
		ex.ReportProgress(percent, model.PhaseValidate,
			fmt.Sprintf("record %d/%d", i+1, len(ex.Raw)))
	}
	ex.Result.Summary.Validated = len(ex.Raw)

	s.logger.Debug("validation completed",
		"document", ex.Document.ID,
		"records", len(ex.Raw),
	)
	return nil
}

// FinalizeStep deduplicates the validated records, assigns policy IDs,
// and assembles the extraction result.
type FinalizeStep struct {
	// deduplicator resolves exact and near duplicates.
	deduplicator *dedup.Deduplicator

	// logger for structured logging.
	logger *slog.Logger
}

// FinalizeStepOption configures a FinalizeStep.
type FinalizeStepOption func(*FinalizeStep)

// WithFinalizeLogger sets a custom logger for the finalize step.
func WithFinalizeLogger(logger *slog.Logger) FinalizeStepOption {
	return func(s *FinalizeStep) {
		s.logger = logger
	}
}

// NewFinalizeStep creates a new deduplication/finalize step.
func NewFinalizeStep(d *dedup.Deduplicator, opts ...FinalizeStepOption) *FinalizeStep {
	s := &FinalizeStep{
		deduplicator: d,
		logger:       slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *FinalizeStep) Name() string {
	return "finalize"
}

// Do executes the finalize step.
func (s *FinalizeStep) Do(_ context.Context, ex *Extraction) error {
	ex.ReportProgress(validateEnd, model.PhaseFinalize, "deduplicating")

	unique, stats := s.deduplicator.Deduplicate(ex.Document.ID, ex.Raw)
	ex.Result.Records = unique
	ex.Result.Summary.Duplicates = stats.Merged
	ex.Result.Summary.Flagged = stats.Flagged
	if stats.Capped {
		ex.Result.Summary.AddWarning(
			"near-duplicate comparison capped: records compared within category batches only")
	}

	ex.ReportProgress(finalizeEnd, model.PhaseFinalize, "complete")
	s.logger.Debug("finalize completed",
		"document", ex.Document.ID,
		"unique", len(unique),
		"merged", stats.Merged,
		"flagged", stats.Flagged,
	)
	return nil
}

// DefaultPipelineConfig holds configuration for the default pipeline.
type DefaultPipelineConfig struct {
	// TablePageLimit is the page count above which the tabular pass is
	// skipped with a warning.
	TablePageLimit int

	// SkipTables disables the tabular pass entirely, with a warning.
	SkipTables bool

	// SimilarityThreshold is the near-duplicate flagging threshold.
	SimilarityThreshold float64

	// MaxCompareRecords caps the all-pairs near-duplicate comparison.
	MaxCompareRecords int

	// Weights are the confidence-score coefficients.
	Weights validate.Weights

	// ValueLiterals maps boolean-style required values to numeric form.
	// Nil keeps the documented default mapping.
	ValueLiterals map[string]string
}

// DefaultPipelineOption configures a DefaultPipelineConfig.
type DefaultPipelineOption func(*DefaultPipelineConfig)

// WithPipelineTablePageLimit sets the tabular-pass page-count guard.
func WithPipelineTablePageLimit(limit int) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.TablePageLimit = limit
	}
}

// WithPipelineSkipTables disables the tabular pass entirely.
func WithPipelineSkipTables(skip bool) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.SkipTables = skip
	}
}

// WithPipelineSimilarityThreshold sets the near-duplicate threshold.
func WithPipelineSimilarityThreshold(threshold float64) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.SimilarityThreshold = threshold
	}
}

// WithPipelineMaxCompareRecords sets the near-duplicate comparison cap.
func WithPipelineMaxCompareRecords(n int) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.MaxCompareRecords = n
	}
}

// WithPipelineWeights sets the confidence-score coefficients.
func WithPipelineWeights(w validate.Weights) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.Weights = w
	}
}

// WithPipelineValueLiterals sets the boolean-literal mapping table.
func WithPipelineValueLiterals(literals map[string]string) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.ValueLiterals = literals
	}
}

// DefaultPipeline creates a pipeline with all default steps configured.
// This is the standard pipeline for full-document policy extraction.
//
// Design decision: We provide a default pipeline because:
// 1. Most callers want all four phases
// 2. It reduces boilerplate in the CLI
// 3. It ensures the documented step ordering
//
// The first variadic parameter accepts pipeline options (WithLogger, etc).
// The second accepts pipeline config options (WithPipelineTablePageLimit,
// etc). All steps share the given matcher library.
func DefaultPipeline(lib *pattern.Library, pipelineOpts []Option, configOpts ...DefaultPipelineOption) *Pipeline {
	p := New(pipelineOpts...)

	cfg := &DefaultPipelineConfig{
		TablePageLimit:      config.DefaultTablePageLimit,
		SimilarityThreshold: config.DefaultSimilarityThreshold,
		MaxCompareRecords:   config.DefaultMaxCompareRecords,
		Weights:             validate.DefaultWeights(),
	}
	for _, opt := range configOpts {
		opt(cfg)
	}

	validateOpts := []validate.Option{
		validate.WithWeights(cfg.Weights),
		validate.WithLogger(p.logger),
	}
	if cfg.ValueLiterals != nil {
		validateOpts = append(validateOpts, validate.WithValueLiterals(cfg.ValueLiterals))
	}

	p.AddSteps(
		NewScanStep(scanner.New(lib, scanner.WithLogger(p.logger))),
		NewTableStep(table.New(lib,
			table.WithPageLimit(cfg.TablePageLimit),
			table.WithLogger(p.logger),
		), WithTableDisabled(cfg.SkipTables)),
		NewValidateStep(validate.New(lib, validateOpts...)),
		NewFinalizeStep(dedup.New(
			dedup.WithThreshold(cfg.SimilarityThreshold),
			dedup.WithMaxCompare(cfg.MaxCompareRecords),
			dedup.WithLogger(p.logger),
		)),
	)

	return p
}
