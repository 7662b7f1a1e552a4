package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/benchscan/internal/config"
	"github.com/nao1215/benchscan/internal/database"
	"github.com/nao1215/benchscan/internal/dedup"
	"github.com/nao1215/benchscan/internal/ingest"
	"github.com/nao1215/benchscan/internal/log"
	"github.com/nao1215/benchscan/internal/model"
	"github.com/nao1215/benchscan/internal/pattern"
	"github.com/nao1215/benchscan/internal/pipeline"
	"github.com/nao1215/benchscan/internal/report"
)

// NewExtractCmd creates the extract command.
func NewExtractCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract [file or directory]...",
		Short: "Extract policy records from benchmark documents",
		Long: `Extract parses security benchmark documents and produces a deduplicated
policy record inventory.

For each document it runs four phases:
- Scan prose recommendations line by line
- Extract tabular policy layouts
- Validate and enrich the records (registry paths, values, levels)
- Merge exact duplicates and flag suspected near-duplicates for review

Directories contribute every .pdf and text file they contain (non-recursive).

Examples:
  # Extract a single benchmark
  benchscan extract cis-windows-11.pdf

  # Extract every benchmark in a directory, 8 at a time
  benchscan extract --workers 8 benchmarks/

  # Output a Markdown report to a file
  benchscan extract --markdown -o report.md cis-windows-11.pdf

  # Flag near-duplicates across all documents of the batch
  benchscan extract --cross-dedup stig-rhel9.txt cis-rhel9.txt

  # Use custom extraction patterns
  benchscan extract --patterns site-matchers.yaml benchmark.pdf

Configuration file (.benchscan) example:
  workers: 8
  similarityThreshold: 0.9
  documents:
    cis-windows-11:
      tablePageLimit: 800
    legacy-benchmark:
      skipTables: true`,
		Args: cobra.ArbitraryArgs,
		RunE: runExtractCmd,
	}

	// Extraction behavior flags
	cmd.Flags().IntP("workers", "w", config.DefaultWorkers,
		"Number of documents extracted concurrently")
	cmd.Flags().Int("table-page-limit", config.DefaultTablePageLimit,
		"Page count above which the tabular pass is skipped with a warning")
	cmd.Flags().Float64("threshold", config.DefaultSimilarityThreshold,
		"Near-duplicate flagging threshold in (0, 1]")
	cmd.Flags().Int("max-compare", config.DefaultMaxCompareRecords,
		"Record count above which near-duplicate comparison runs per category")
	cmd.Flags().Bool("cross-dedup", false,
		"Flag near-duplicates across all documents after the batch completes")

	// Pattern library flags
	cmd.Flags().StringP("patterns", "p", "",
		"YAML file of custom matchers extending the built-in pattern library")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .benchscan in current or home directory)")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")

	// Storage flags
	cmd.Flags().String("db-dir", "",
		"Directory for the results database (default: XDG data directory)")
	cmd.Flags().Bool("no-save", false,
		"Do not save extraction results to the database")

	return cmd
}

// runExtractCmd executes the extract command.
func runExtractCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := log.NewLogger(os.Stderr, cfg.Verbose)
	slog.SetDefault(logger)

	// Set up context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	return runExtract(ctx, cfg, logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from cobra command flags.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()

	var err error

	cfg.Workers, err = cmd.Flags().GetInt("workers")
	if err != nil {
		return nil, err
	}

	cfg.TablePageLimit, err = cmd.Flags().GetInt("table-page-limit")
	if err != nil {
		return nil, err
	}

	cfg.SimilarityThreshold, err = cmd.Flags().GetFloat64("threshold")
	if err != nil {
		return nil, err
	}

	cfg.MaxCompareRecords, err = cmd.Flags().GetInt("max-compare")
	if err != nil {
		return nil, err
	}

	cfg.CrossDocumentDedup, err = cmd.Flags().GetBool("cross-dedup")
	if err != nil {
		return nil, err
	}

	cfg.PatternsFile, err = cmd.Flags().GetString("patterns")
	if err != nil {
		return nil, err
	}

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// Load the configuration file.
	// If user explicitly specified a config file path, error if not found.
	// If no path specified, silently use empty config if no file found.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	if configPath != "" {
		cfg.FileConfig, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		cfg.FileConfig.Apply(cfg)
	} else if explicitConfigPath {
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	} else {
		cfg.FileConfig = &config.File{
			Documents: make(map[string]config.DocumentConfig),
		}
	}

	cfg.JSONReport, err = cmd.Flags().GetBool("json")
	if err != nil {
		return nil, err
	}

	cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, err
	}

	cfg.ReportFile, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}

	cfg.DBDir, err = cmd.Flags().GetString("db-dir")
	if err != nil {
		return nil, err
	}

	noSave, err := cmd.Flags().GetBool("no-save")
	if err != nil {
		return nil, err
	}
	cfg.SaveToDB = !noSave
	if cfg.SaveToDB && cfg.DBDir == "" {
		cfg.DBDir = config.XDGDataDir()
	}

	cfg.Verbose = getVerboseFlag(cmd)

	// Positional arguments are the input documents
	cfg.Inputs = args

	return cfg, nil
}

// runExtract executes the extraction.
func runExtract(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	logger.Info("starting extraction",
		"inputs", cfg.Inputs,
		"workers", cfg.Workers,
		"crossDedup", cfg.CrossDocumentDedup,
		"saveToDB", cfg.SaveToDB,
	)

	// Open database connection if saving is enabled
	var db *database.PolicyDB
	if cfg.SaveToDB {
		var err error
		db, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close() //nolint:errcheck // Best effort cleanup
		logger.Info("database opened", "dir", cfg.DBDir)
	}

	// Expand inputs into document sources
	fileSources, err := ingest.Expand(cfg.Inputs)
	if err != nil {
		return err
	}
	if len(fileSources) == 0 {
		return fmt.Errorf("no extractable documents found in %v", cfg.Inputs)
	}

	sources := make([]pipeline.DocumentSource, len(fileSources))
	for i, s := range fileSources {
		sources[i] = s
	}

	// Build the matcher library, extended by custom matchers if configured
	lib, err := loadPatternLibrary(cfg.PatternsFile)
	if err != nil {
		return err
	}
	logger.Info("pattern library ready", "version", lib.Version())

	fmt.Printf("Extracting %d document(s) (workers: %d)...\n\n", len(sources), cfg.Workers)
	startTime := time.Now()

	batch, err := extractBatch(ctx, cfg, lib, logger, sources)
	if err != nil {
		return err
	}

	fmt.Printf("Extraction completed in %s\n", time.Since(startTime).Round(time.Millisecond))

	if err := outputReport(cfg, batch); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	if err := saveBatch(ctx, db, batch, logger); err != nil {
		logger.Error("failed to save extraction results", "error", err)
	}

	if batch.Failed > 0 {
		return fmt.Errorf("%d of %d document(s) failed to extract", batch.Failed, len(batch.Results))
	}
	return nil
}

// loadPatternLibrary returns the built-in library, extended by the given
// matcher file when one is configured.
func loadPatternLibrary(patternsFile string) (*pattern.Library, error) {
	if patternsFile == "" {
		return pattern.Default(), nil
	}
	lib, err := pattern.Load(patternsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load patterns: %w", err)
	}
	return lib, nil
}

// extractBatch extracts all sources and returns the aggregated batch.
//
// Design decision: The batch processor takes one pipeline factory for the
// whole batch, so document-specific configuration (tablePageLimit,
// skipTables, valueLiterals) cannot flow into concurrent extraction. When
// the config file carries per-document settings, or only one document is
// being extracted anyway, we run sequentially and build each document's
// pipeline from its own resolved config. Concurrency and per-document
// overrides are traded against each other explicitly rather than silently
// dropping the overrides.
func extractBatch(ctx context.Context, cfg *config.Config, lib *pattern.Library, logger *slog.Logger, sources []pipeline.DocumentSource) (*model.BatchResult, error) {
	startTime := time.Now()

	var batch *model.BatchResult
	var err error

	sequential := len(sources) == 1 || cfg.Workers == 1 || len(cfg.FileConfig.Documents) > 0
	if sequential {
		if len(sources) > 1 && cfg.Workers > 1 {
			logger.Info("document-specific configs present; extracting sequentially",
				"documents", len(cfg.FileConfig.Documents))
		}
		batch, err = extractSequential(ctx, cfg, lib, logger, sources)
	} else {
		batch, err = extractConcurrent(ctx, cfg, lib, logger, sources)
	}
	if batch == nil {
		batch = &model.BatchResult{}
	}
	batch.Elapsed = time.Since(startTime)
	batch.Aggregate()

	if cfg.CrossDocumentDedup && err == nil {
		flagAcrossBatch(cfg, logger, batch)
	}

	return batch, err
}

// extractSequential extracts sources one at a time, honoring per-document
// configuration from the config file.
func extractSequential(ctx context.Context, cfg *config.Config, lib *pattern.Library, logger *slog.Logger, sources []pipeline.DocumentSource) (*model.BatchResult, error) {
	results := make([]*model.ExtractionResult, len(sources))
	progress := debugProgress(logger)

	for i, src := range sources {
		if err := ctx.Err(); err != nil {
			return &model.BatchResult{Results: results}, err
		}

		docCfg := cfg.FileConfig.GetDocumentConfig(src.ID())
		p := createPipeline(cfg, lib, logger, docCfg)

		start := time.Now()
		doc, err := src.Load(ctx)
		if err != nil {
			result := model.NewExtractionResult(src.ID())
			result.Summary.SetError(err)
			result.Summary.Elapsed = time.Since(start)
			results[i] = result
			printResult(result, i, len(sources))
			continue
		}

		ex := pipeline.NewExtraction(doc, progress)
		_ = p.Execute(ctx, ex) //nolint:errcheck // Error is stored in the summary
		ex.Result.Summary.Elapsed = time.Since(start)
		results[i] = ex.Result
		printResult(ex.Result, i, len(sources))
	}

	return &model.BatchResult{Results: results}, nil
}

// extractConcurrent extracts sources through the batch processor with the
// configured worker count. Per-document overrides do not apply on this
// path; the defaults section of the config file still does.
func extractConcurrent(ctx context.Context, cfg *config.Config, lib *pattern.Library, logger *slog.Logger, sources []pipeline.DocumentSource) (*model.BatchResult, error) {
	results := make([]*model.ExtractionResult, len(sources))

	bp := pipeline.NewBatchProcessor(
		func() *pipeline.Pipeline {
			return createPipeline(cfg, lib, logger, cfg.FileConfig.Defaults)
		},
		pipeline.WithBatchLogger(logger),
		pipeline.WithConcurrency(cfg.Workers),
		pipeline.WithProgress(debugProgress(logger)),
	)

	err := bp.ProcessBatchWithCallback(ctx, sources, func(result *model.ExtractionResult, index int) {
		results[index] = result
		printResult(result, index, len(sources))
	})

	return &model.BatchResult{Results: results}, err
}

// debugProgress returns a progress callback that logs phase updates at
// debug level. Safe for concurrent use because slog loggers are.
func debugProgress(logger *slog.Logger) pipeline.ProgressFunc {
	return func(documentID string, percent int, phase model.Phase, detail string) {
		logger.Debug("progress",
			"document", documentID,
			"percent", percent,
			"phase", phase.String(),
			"detail", detail,
		)
	}
}

// printResult prints a one-line completion notice for a document.
func printResult(result *model.ExtractionResult, index, total int) {
	if result.Summary.Failed() {
		fmt.Fprintf(os.Stderr, "[%d/%d] FAILED %s: %s\n",
			index+1, total, result.Summary.DocumentID, result.Summary.ErrorMessage)
		return
	}
	fmt.Printf("[%d/%d] %s: %d record(s)\n",
		index+1, total, result.Summary.DocumentID, len(result.Records))
}

// createPipeline creates a pipeline honoring global and document settings.
func createPipeline(cfg *config.Config, lib *pattern.Library, logger *slog.Logger, docCfg config.DocumentConfig) *pipeline.Pipeline {
	pipelineOpts := []pipeline.Option{
		pipeline.WithLogger(logger),
	}

	tablePageLimit := cfg.TablePageLimit
	if docCfg.TablePageLimit > 0 {
		tablePageLimit = docCfg.TablePageLimit
	}

	configOpts := []pipeline.DefaultPipelineOption{
		pipeline.WithPipelineTablePageLimit(tablePageLimit),
		pipeline.WithPipelineSkipTables(docCfg.SkipTables),
		pipeline.WithPipelineSimilarityThreshold(cfg.SimilarityThreshold),
		pipeline.WithPipelineMaxCompareRecords(cfg.MaxCompareRecords),
	}

	literals := mergeValueLiterals(cfg.FileConfig.ValueLiterals, docCfg.ValueLiterals)
	if len(literals) > 0 {
		configOpts = append(configOpts, pipeline.WithPipelineValueLiterals(literals))
	}

	return pipeline.DefaultPipeline(lib, pipelineOpts, configOpts...)
}

// mergeValueLiterals merges global and document literal mappings; the
// document entries win.
func mergeValueLiterals(global, doc map[string]string) map[string]string {
	if len(global) == 0 && len(doc) == 0 {
		return nil
	}
	merged := make(map[string]string, len(global)+len(doc))
	for k, v := range global {
		merged[k] = v
	}
	for k, v := range doc {
		merged[k] = v
	}
	return merged
}

// flagAcrossBatch runs the flag-only near-duplicate pass over every record
// of the batch's successful documents.
func flagAcrossBatch(cfg *config.Config, logger *slog.Logger, batch *model.BatchResult) {
	var records []*model.PolicyRecord
	for _, r := range batch.Results {
		if r == nil || r.Summary.Failed() {
			continue
		}
		records = append(records, r.Records...)
	}

	d := dedup.New(
		dedup.WithThreshold(cfg.SimilarityThreshold),
		dedup.WithMaxCompare(cfg.MaxCompareRecords),
		dedup.WithLogger(logger),
	)
	flagged, capped := d.FlagNearDuplicates(records)
	if capped {
		for _, r := range batch.Results {
			if r != nil && !r.Summary.Failed() {
				r.Summary.AddWarning(
					"cross-document comparison capped: records compared within category batches only")
			}
		}
	}

	logger.Info("cross-document near-duplicate pass complete",
		"records", len(records),
		"flagged", flagged,
	)
}

// outputReport writes the batch report in the requested format.
func outputReport(cfg *config.Config, batch *model.BatchResult) error {
	var output *os.File
	if cfg.ReportFile != "" {
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:gosec // User-provided report path is intentional
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close() //nolint:errcheck // Flushed on close
		output = f
	} else {
		output = os.Stdout
	}

	var writer report.Writer
	switch {
	case cfg.JSONReport:
		writer = report.NewFullJSONWriter(output, getVersion(), report.WithPrettyPrint())
	case cfg.MarkdownReport:
		writer = report.NewMarkdownWriter(output)
	default:
		writer = report.NewSimpleWriter(output,
			report.WithShowRecords(true),
			report.WithVerbose(cfg.Verbose),
		)
	}

	_, err := writer.Write(batch)
	return err
}

// saveBatch stores the batch results in the database if enabled.
// If db is nil, this function is a no-op.
func saveBatch(ctx context.Context, db *database.PolicyDB, batch *model.BatchResult, logger *slog.Logger) error {
	if db == nil {
		return nil
	}

	if err := db.SaveBatch(ctx, batch); err != nil {
		return fmt.Errorf("failed to save extraction results: %w", err)
	}

	logger.Info("extraction results saved to database",
		"documents", len(batch.Results))
	return nil
}
