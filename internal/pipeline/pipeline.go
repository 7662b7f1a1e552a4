package pipeline

import (
	"context"
	"log/slog"

	"github.com/nao1215/benchscan/internal/model"
)

// ProgressFunc receives progress updates during a document's extraction.
// percent follows the documented phase partition (scan 10-60, table 60-80,
// validate 80-95, finalize 95-100); detail is a short human-readable note.
//
// Callbacks run on the goroutine executing the document's pipeline, so an
// implementation shared across documents must be safe for concurrent use.
type ProgressFunc func(documentID string, percent int, phase model.Phase, detail string)

// Extraction is the unit of work flowing through the pipeline: one
// document, the raw records accumulated by the extraction passes, and the
// result under construction. It is owned by a single document task and is
// not safe for concurrent use.
type Extraction struct {
	// Document is the input document.
	Document model.Document

	// Raw accumulates pre-validation records from the scanning and
	// tabular passes. The finalize step consumes it to build the result.
	Raw []*model.PolicyRecord

	// Result is the artifact under construction. Its summary collects
	// counters, warnings, and the fatal error if the task fails.
	Result *model.ExtractionResult

	// progress receives phase updates. Nil disables reporting.
	progress ProgressFunc
}

// NewExtraction creates the extraction state for one document.
// progress may be nil.
func NewExtraction(doc model.Document, progress ProgressFunc) *Extraction {
	return &Extraction{
		Document: doc,
		Raw:      make([]*model.PolicyRecord, 0),
		Result:   model.NewExtractionResult(doc.ID),
		progress: progress,
	}
}

// ReportProgress forwards a progress update to the configured callback.
func (e *Extraction) ReportProgress(percent int, phase model.Phase, detail string) {
	if e.progress == nil {
		return
	}
	e.progress(e.Document.ID, percent, phase, detail)
}

// Step defines the interface that all pipeline steps must implement.
// Steps are executed in sequence, with each step receiving the accumulated
// extraction state from previous steps.
//
// Design decision: We use an interface rather than function types because:
// 1. It allows steps to carry configuration state
// 2. It provides a Name() method for logging and debugging
// 3. It's more extensible for future features (e.g., priority, dependencies)
type Step interface {
	// Do executes the pipeline step.
	// It receives the context for cancellation, and the extraction state
	// to modify. Returns an error if the step fails critically;
	// non-critical issues should be recorded as warnings and return nil.
	Do(ctx context.Context, ex *Extraction) error

	// Name returns the step's name for logging purposes.
	Name() string
}

// Pipeline orchestrates the execution of multiple steps.
// It maintains a list of steps and executes them in order.
type Pipeline struct {
	// steps contains the ordered list of steps to execute.
	steps []Step

	// logger is used for structured logging during execution.
	logger *slog.Logger

	// continueOnError determines whether to continue executing steps
	// after one fails. If false, the pipeline stops on first error.
	continueOnError bool
}

// Option is a function that configures a Pipeline.
// This follows the functional options pattern for clean API design.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
// If not set, a default logger is created.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithContinueOnError configures the pipeline to continue execution
// even when a step fails. Failed steps are logged and their errors
// are recorded in the summary, but subsequent steps still execute.
//
// Design decision: The default is to stop on error because the steps are
// strictly ordered - validation has nothing to do if scanning failed. The
// option exists for callers that want partial results from whatever steps
// still can run.
func WithContinueOnError(continueOnError bool) Option {
	return func(p *Pipeline) {
		p.continueOnError = continueOnError
	}
}

// New creates a new Pipeline with the given options.
// Steps should be added using AddStep after creation.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		steps:           make([]Step, 0),
		continueOnError: false,
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.logger == nil {
		p.logger = slog.Default()
	}

	return p
}

// AddStep appends a step to the pipeline.
// Steps are executed in the order they are added.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends multiple steps to the pipeline.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs all pipeline steps in sequence.
// It respects context cancellation and logs each step's execution.
//
// Design decision: We check context.Done() before each step rather than
// during, because steps are CPU-bound over in-memory text and finish
// quickly. This keeps cancellation points at step boundaries where the
// extraction state is consistent.
//
// Returns the first error encountered if continueOnError is false,
// or nil if all steps complete (errors are recorded in the summary).
func (p *Pipeline) Execute(ctx context.Context, ex *Extraction) error {
	for _, step := range p.steps {
		select {
		case <-ctx.Done():
			p.logger.Warn("pipeline cancelled",
				"step", step.Name(),
				"document", ex.Document.ID,
				"reason", ctx.Err(),
			)
			ex.Result.Summary.SetError(ctx.Err())
			return ctx.Err()
		default:
		}

		p.logger.Debug("executing step",
			"step", step.Name(),
			"document", ex.Document.ID,
		)

		if err := step.Do(ctx, ex); err != nil {
			p.logger.Error("step failed",
				"step", step.Name(),
				"document", ex.Document.ID,
				"error", err,
			)

			ex.Result.Summary.SetError(err)

			if !p.continueOnError {
				return err
			}
			continue
		}

		p.logger.Debug("step completed",
			"step", step.Name(),
			"document", ex.Document.ID,
		)
	}

	return nil
}

// StepCount returns the number of steps in the pipeline.
func (p *Pipeline) StepCount() int {
	return len(p.steps)
}

// StepNames returns the names of all steps in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}
