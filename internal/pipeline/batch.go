package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/nao1215/benchscan/internal/config"
	"github.com/nao1215/benchscan/internal/dedup"
	"github.com/nao1215/benchscan/internal/model"
	"golang.org/x/sync/errgroup"
)

// DocumentSource supplies one document to the batch processor. Loading is
// deferred into the document's own task so a corrupted or unreadable file
// fails that task alone instead of aborting the batch setup.
type DocumentSource interface {
	// ID identifies the document before it is loaded, for summaries and
	// progress reporting.
	ID() string

	// Load reads and decodes the document.
	Load(ctx context.Context) (model.Document, error)
}

// BatchProcessor handles concurrent extraction of multiple documents.
// It uses errgroup to manage goroutines and respect concurrency limits.
//
// Design decision: We use a separate BatchProcessor rather than adding batch
// functionality to Pipeline because:
// 1. It keeps the Pipeline focused on single-document execution
// 2. It allows different batch strategies (e.g., rate limiting, retries)
// 3. It provides cleaner separation of concerns
type BatchProcessor struct {
	// pipelineFactory creates a new pipeline for each document.
	// We use a factory to ensure each document gets a fresh pipeline
	// instance.
	pipelineFactory func() *Pipeline

	// concurrency is the maximum number of documents extracted at once.
	concurrency int

	// progress receives per-document progress updates. Callbacks run on
	// worker goroutines.
	progress ProgressFunc

	// crossDedup, when set, runs a flag-only near-duplicate pass across
	// all successful documents after the batch completes.
	crossDedup *dedup.Deduplicator

	// logger is used for batch-level logging.
	logger *slog.Logger

	// results stores completed extraction results.
	// Access is synchronized via mutex.
	results []*model.ExtractionResult
	mu      sync.Mutex
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent documents.
// Default is config.DefaultWorkers if not specified.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// WithProgress sets the progress callback passed to every document's
// extraction. The callback must be safe for concurrent use.
func WithProgress(progress ProgressFunc) BatchOption {
	return func(b *BatchProcessor) {
		b.progress = progress
	}
}

// WithCrossDocumentDedup enables a flag-only near-duplicate pass across
// all successful documents after the batch completes. Records flagged by
// the pass stay in their own document's result; nothing is merged across
// documents.
func WithCrossDocumentDedup(d *dedup.Deduplicator) BatchOption {
	return func(b *BatchProcessor) {
		b.crossDedup = d
	}
}

// NewBatchProcessor creates a new BatchProcessor.
//
// The pipelineFactory function is called for each document to create a
// fresh pipeline instance. This ensures that pipeline state doesn't leak
// between documents and allows for per-document customization if needed.
func NewBatchProcessor(pipelineFactory func() *Pipeline, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		pipelineFactory: pipelineFactory,
		concurrency:     config.DefaultWorkers,
		results:         make([]*model.ExtractionResult, 0),
	}

	for _, opt := range opts {
		opt(bp)
	}

	if bp.logger == nil {
		bp.logger = slog.Default()
	}

	return bp
}

// ProcessBatch extracts multiple documents concurrently.
// It respects the configured concurrency limit and context cancellation.
//
// Design decision: We use errgroup.SetLimit rather than a worker pool
// because it's simpler and errgroup handles the concurrency correctly.
// Each document gets its own goroutine, but only 'concurrency' goroutines
// run simultaneously.
//
// Failures are isolated: a document that cannot be loaded or extracted
// keeps its summary (with the error recorded) in the batch result and
// never cancels sibling documents. The error return indicates batch-level
// cancellation only.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, sources []DocumentSource) (*model.BatchResult, error) {
	bp.logger.Info("starting batch extraction",
		"total_documents", len(sources),
		"concurrency", bp.concurrency,
	)

	startTime := time.Now()

	// Pre-allocate results slice to maintain input order
	bp.results = make([]*model.ExtractionResult, len(sources))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, src := range sources {
		i, src := i, src
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			bp.logger.Info("extracting document",
				"document", src.ID(),
				"index", i+1,
				"total", len(sources),
			)

			result := bp.extractOne(ctx, src)

			bp.mu.Lock()
			bp.results[i] = result
			bp.mu.Unlock()

			if result.Summary.Failed() {
				bp.logger.Warn("extraction failed",
					"document", src.ID(),
					"error", result.Summary.ErrorMessage,
				)
				// Don't return the error to errgroup - sibling documents
				// must keep running. The error lives in the summary.
				return nil
			}

			bp.logger.Info("extraction completed",
				"document", src.ID(),
				"records", len(result.Records),
			)
			return nil
		})
	}

	err := g.Wait()

	batch := &model.BatchResult{
		Results: bp.results,
		Elapsed: time.Since(startTime),
	}
	batch.Aggregate()

	if bp.crossDedup != nil && err == nil {
		bp.flagAcrossDocuments(batch)
	}

	bp.logger.Info("batch extraction complete",
		"total_documents", len(sources),
		"succeeded", batch.Succeeded,
		"failed", batch.Failed,
		"records", batch.TotalRecords,
		"elapsed", batch.Elapsed,
	)

	return batch, err
}

// extractOne loads and extracts a single document, always returning a
// result. Load failures are recorded on the summary, not returned.
func (bp *BatchProcessor) extractOne(ctx context.Context, src DocumentSource) *model.ExtractionResult {
	start := time.Now()

	doc, err := src.Load(ctx)
	if err != nil {
		result := model.NewExtractionResult(src.ID())
		result.Summary.SetError(err)
		result.Summary.Elapsed = time.Since(start)
		return result
	}

	ex := NewExtraction(doc, bp.progress)
	// Execute records its own errors on the summary.
	_ = bp.pipelineFactory().Execute(ctx, ex) //nolint:errcheck // Error is stored in the summary
	ex.Result.Summary.Elapsed = time.Since(start)
	return ex.Result
}

// flagAcrossDocuments runs the flag-only near-duplicate pass over every
// record from successful documents.
func (bp *BatchProcessor) flagAcrossDocuments(batch *model.BatchResult) {
	var records []*model.PolicyRecord
	for _, r := range batch.Results {
		if r == nil || r.Summary.Failed() {
			continue
		}
		records = append(records, r.Records...)
	}

	flagged, capped := bp.crossDedup.FlagNearDuplicates(records)
	if capped {
		for _, r := range batch.Results {
			if r != nil && !r.Summary.Failed() {
				r.Summary.AddWarning(
					"cross-document comparison capped: records compared within category batches only")
			}
		}
	}

	bp.logger.Info("cross-document near-duplicate pass complete",
		"records", len(records),
		"flagged", flagged,
	)
}

// ProcessBatchWithCallback extracts multiple documents and calls a callback
// for each completed document. This is useful for streaming results.
//
// The callback receives the result and the index of the source in the
// original slice. The callback is called from the goroutine that completed
// the extraction, so it should be thread-safe if it accesses shared state.
func (bp *BatchProcessor) ProcessBatchWithCallback(
	ctx context.Context,
	sources []DocumentSource,
	callback func(result *model.ExtractionResult, index int),
) error {
	bp.logger.Info("starting batch extraction with callback",
		"total_documents", len(sources),
		"concurrency", bp.concurrency,
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, src := range sources {
		i, src := i, src
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			callback(bp.extractOne(ctx, src), i)
			return nil
		})
	}

	return g.Wait()
}
