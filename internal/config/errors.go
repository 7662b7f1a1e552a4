package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and provide specific
// information about what is wrong with the configuration.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate(). This allows callers to use
// errors.Is() for programmatic error handling while still providing
// human-readable messages. Using errors.New() here rather than fmt.Errorf()
// because we don't need to include dynamic values in these messages.
var (
	// ErrNoInput is returned when no input document is specified.
	// At least one document path must be provided as a positional argument.
	ErrNoInput = errors.New("no input specified: provide at least one document path")

	// ErrInvalidWorkers is returned when the worker count is not positive.
	// Zero workers would mean no document is ever processed.
	ErrInvalidWorkers = errors.New("invalid workers: must be positive")

	// ErrInvalidTablePageLimit is returned when the table page limit is
	// not positive. Use a large value rather than zero to effectively
	// disable the guard.
	ErrInvalidTablePageLimit = errors.New("invalid table page limit: must be positive")

	// ErrInvalidThreshold is returned when the similarity threshold is
	// outside (0, 1]. A threshold of zero would flag every record pair.
	ErrInvalidThreshold = errors.New("invalid similarity threshold: must be in (0, 1]")

	// ErrInvalidMaxCompare is returned when the comparison cap is not
	// positive. The cap bounds the O(n^2) near-duplicate pass.
	ErrInvalidMaxCompare = errors.New("invalid max compare records: must be positive")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified. Only one output format can be used at a time.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")
)
