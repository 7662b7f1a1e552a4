package log

import (
	"context"
	"io"
	"log/slog"
)

// DefaultMaxValueLen is the default rune limit for string attribute values.
// Long enough to keep a full policy title, short enough that a raw text
// dump never floods the log.
const DefaultMaxValueLen = 256

// Ellipsis marks truncated values so readers know the value continues.
const Ellipsis = "..."

// TruncatingHandler wraps an slog.Handler to cap string attribute lengths.
// It intercepts log records and truncates attribute values that exceed the
// configured limit before passing them to the underlying handler.
//
// Design decision: We use a handler wrapper rather than a custom logger
// because:
//  1. It integrates seamlessly with standard slog APIs
//  2. It works with any underlying handler (text, JSON, etc.)
//  3. Callers keep logging full values; the cap is an output concern
type TruncatingHandler struct {
	// handler is the underlying slog handler that receives capped records.
	handler slog.Handler

	// maxLen is the rune limit for string attribute values.
	maxLen int
}

// TruncatingHandlerOption configures a TruncatingHandler.
type TruncatingHandlerOption func(*TruncatingHandler)

// WithMaxValueLen sets the rune limit for string attribute values.
// Non-positive values are ignored.
func WithMaxValueLen(n int) TruncatingHandlerOption {
	return func(h *TruncatingHandler) {
		if n > 0 {
			h.maxLen = n
		}
	}
}

// NewTruncatingHandler creates a new TruncatingHandler wrapping the given
// handler. If handler is nil, the returned TruncatingHandler will use
// slog.Default().Handler().
func NewTruncatingHandler(handler slog.Handler, opts ...TruncatingHandlerOption) *TruncatingHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}

	h := &TruncatingHandler{
		handler: handler,
		maxLen:  DefaultMaxValueLen,
	}

	for _, opt := range opts {
		opt(h)
	}

	return h
}

// Enabled reports whether the handler handles records at the given level.
// It delegates to the underlying handler.
func (h *TruncatingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle caps the record's attributes and passes it to the underlying handler.
func (h *TruncatingHandler) Handle(ctx context.Context, r slog.Record) error {
	capped := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)

	r.Attrs(func(a slog.Attr) bool {
		capped.AddAttrs(h.truncateAttr(a))
		return true
	})

	return h.handler.Handle(ctx, capped)
}

// WithAttrs returns a new handler with the given attributes added.
// Attributes are capped before being added.
func (h *TruncatingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	cappedAttrs := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		cappedAttrs[i] = h.truncateAttr(a)
	}
	return &TruncatingHandler{handler: h.handler.WithAttrs(cappedAttrs), maxLen: h.maxLen}
}

// WithGroup returns a new handler with the given group name.
func (h *TruncatingHandler) WithGroup(name string) slog.Handler {
	return &TruncatingHandler{handler: h.handler.WithGroup(name), maxLen: h.maxLen}
}

// truncateAttr caps a single attribute, recursively handling groups.
func (h *TruncatingHandler) truncateAttr(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		cappedAttrs := make([]slog.Attr, len(attrs))
		for i, groupAttr := range attrs {
			cappedAttrs[i] = h.truncateAttr(groupAttr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(cappedAttrs...)}
	}

	if a.Value.Kind() == slog.KindString {
		if capped, ok := truncate(a.Value.String(), h.maxLen); ok {
			return slog.String(a.Key, capped)
		}
	}

	return a
}

// truncate caps s at maxLen runes, appending the ellipsis marker.
// The second return value reports whether truncation happened.
func truncate(s string, maxLen int) (string, bool) {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s, false
	}
	return string(runes[:maxLen]) + Ellipsis, true
}

// NewLogger creates a new slog.Logger with value truncation.
//
// Parameters:
//   - w: The io.Writer to write log output to (typically os.Stderr)
//   - verbose: If true, sets log level to Debug; otherwise Warn
//
// Returns a *slog.Logger that can be used with slog.SetDefault() or passed
// to components that accept *slog.Logger.
func NewLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	textHandler := slog.NewTextHandler(w, opts)

	return slog.New(NewTruncatingHandler(textHandler))
}

// NewJSONLogger creates a new slog.Logger with value truncation that
// outputs JSON format. Useful for structured log aggregation.
//
// Parameters:
//   - w: The io.Writer to write log output to
//   - verbose: If true, sets log level to Debug; otherwise Warn
//
// Returns a *slog.Logger configured for JSON output with truncation.
func NewJSONLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	jsonHandler := slog.NewJSONHandler(w, opts)

	return slog.New(NewTruncatingHandler(jsonHandler))
}
