// Package log provides logging functionality with automatic truncation of
// oversized attribute values, built on top of the standard slog package.
//
// This package extends slog to provide:
//   - Truncation of long attribute values (raw document text, record dumps)
//   - Configurable log levels with verbose mode support
//   - Consistent log formatting across the application
//
// Extraction pipelines routinely log records that carry verbatim source
// text. A single benchmark recommendation can span several kilobytes, and
// one unguarded Debug call would make the log unreadable. The
// TruncatingHandler caps every string attribute at a fixed rune count so
// log lines stay one-screen wide no matter what gets attached.
//
// # Usage
//
//	// Create a logger
//	logger := log.NewLogger(os.Stderr, true) // verbose=true
//
//	// Use as a standard slog.Logger
//	logger.Debug("record scanned",
//	    "policy_name", rec.PolicyName,
//	    "raw_text", rec.RawText, // Truncated if oversized
//	)
//
//	// Set as default logger
//	slog.SetDefault(logger)
package log
