package config

import (
	"path/filepath"

	"github.com/adrg/xdg"
)

// Default configuration values.
// These values are heuristic starting points tuned on real benchmark
// documents; every one of them is overridable via CLI flags or the
// configuration file.
const (
	// DefaultWorkers is the number of documents extracted concurrently.
	// Extraction is CPU-bound over in-memory text, so a small fixed
	// default behaves predictably; users with many large documents can
	// raise it via the --workers CLI flag.
	DefaultWorkers = 4

	// DefaultTablePageLimit is the page count above which the tabular
	// extraction pass is skipped with a warning. Table detection re-reads
	// every line, which gets expensive on very long documents where the
	// prose scanner already finds the same records.
	DefaultTablePageLimit = 500

	// DefaultSimilarityThreshold is the near-duplicate flagging threshold.
	// 0.85 flags single-word typos in typical policy names without
	// flagging genuinely distinct policies that share a common prefix.
	DefaultSimilarityThreshold = 0.85

	// DefaultMaxCompareRecords caps the all-pairs near-duplicate
	// comparison. Above the cap, comparison runs within category batches
	// and a warning is recorded on the summary.
	DefaultMaxCompareRecords = 2000

	// AppName is the application name used for XDG directory paths.
	AppName = "benchscan"
)

// Config holds all configuration options for the extraction pipeline.
// This struct is designed to be populated from CLI flags and passed through
// the application via dependency injection rather than global state.
//
// Design decision: We use a single flat struct instead of nested structs
// (e.g., DedupConfig, ReportConfig) for simplicity. The number of options
// is manageable, and nesting would add complexity without significant
// benefit. If the configuration grows significantly, consider refactoring
// into sub-structs.
type Config struct {
	// Inputs is the list of document paths to extract.
	// Must contain at least one readable text or PDF file.
	Inputs []string

	// Workers is the number of documents extracted concurrently.
	Workers int

	// TablePageLimit is the page count above which the tabular pass is
	// skipped. The skip is recorded as a document-level warning, never a
	// silent omission.
	TablePageLimit int

	// SimilarityThreshold is the near-duplicate flagging threshold in
	// (0, 1]. Higher values flag fewer pairs.
	SimilarityThreshold float64

	// MaxCompareRecords caps the all-pairs near-duplicate comparison.
	MaxCompareRecords int

	// CrossDocumentDedup enables the flag-only near-duplicate pass across
	// all documents after the batch completes.
	CrossDocumentDedup bool

	// PatternsFile is the path to a YAML file of custom matchers that
	// extend the built-in pattern library. Custom matchers take priority
	// over built-in ones for the same field.
	PatternsFile string

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool

	// ConfigFilePath is the path to the configuration file.
	// If empty, the tool searches for .benchscan in the current directory
	// and then in the user's home directory.
	ConfigFilePath string

	// FileConfig holds settings loaded from the configuration file.
	// This is populated by LoadConfigFile and merged by Apply.
	FileConfig *File

	// JSONReport enables JSON report output instead of human-readable
	// format. Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport enables Markdown report output instead of
	// human-readable format. When true, outputs GitHub Flavored Markdown
	// with summary tables. Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the output file path for the report.
	// When set, the report is written to this file instead of stdout.
	// Directories are created automatically if they don't exist.
	ReportFile string

	// DBDir is the directory path for storing the SQLite database.
	// When set, extraction results are saved for historical comparison.
	// When empty, results are not persisted.
	// Defaults to the XDG data directory when --save is used alone.
	DBDir string

	// SaveToDB indicates whether to save extraction results to the
	// database. This is automatically set to true when DBDir is
	// configured.
	SaveToDB bool
}

// NewConfig creates a new Config with default values.
// All fields are set to safe, sensible defaults that work for most use
// cases. Users can override specific values after creation.
//
// Design decision: We use a constructor function instead of relying on
// zero values because many defaults are non-zero (e.g., worker count,
// similarity threshold). This also serves as documentation of what the
// defaults are.
func NewConfig() *Config {
	return &Config{
		Workers:             DefaultWorkers,
		TablePageLimit:      DefaultTablePageLimit,
		SimilarityThreshold: DefaultSimilarityThreshold,
		MaxCompareRecords:   DefaultMaxCompareRecords,
	}
}

// XDGDataDir returns the XDG data directory for the application.
// This follows the XDG Base Directory Specification.
// On Linux: ~/.local/share/benchscan
// On macOS: ~/Library/Application Support/benchscan
// On Windows: %LOCALAPPDATA%\benchscan
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for the application.
// This follows the XDG Base Directory Specification.
// On Linux: ~/.config/benchscan
// On macOS: ~/Library/Application Support/benchscan
// On Windows: %APPDATA%\benchscan
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// XDGCacheDir returns the XDG cache directory for the application.
// This follows the XDG Base Directory Specification.
// On Linux: ~/.cache/benchscan
// On macOS: ~/Library/Caches/benchscan
// On Windows: %LOCALAPPDATA%\benchscan\cache
func XDGCacheDir() string {
	return filepath.Join(xdg.CacheHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns a specific error describing what is invalid.
//
// Design decision: We validate at the config level rather than at each
// point of use to fail fast and provide clear error messages upfront.
// This is called once after CLI parsing, before any extraction begins.
//
// We chose to return the first error found rather than collecting all
// errors because fixing one error often makes others irrelevant.
func (c *Config) Validate() error {
	if len(c.Inputs) == 0 {
		return ErrNoInput
	}

	if c.Workers <= 0 {
		return ErrInvalidWorkers
	}

	if c.TablePageLimit <= 0 {
		return ErrInvalidTablePageLimit
	}

	if c.SimilarityThreshold <= 0 || c.SimilarityThreshold > 1 {
		return ErrInvalidThreshold
	}

	if c.MaxCompareRecords <= 0 {
		return ErrInvalidMaxCompare
	}

	// JSONReport and MarkdownReport are mutually exclusive
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	return nil
}
