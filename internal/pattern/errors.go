package pattern

import "errors"

// Matcher compilation errors.
//
// Design decision: We use package-level sentinel errors rather than creating
// new error instances at each failure site. This allows callers to use
// errors.Is() for programmatic handling while the wrapping fmt.Errorf adds
// the matcher name and offending value.
var (
	// ErrUnknownField is returned when a matcher spec names a field the
	// record model does not have.
	ErrUnknownField = errors.New("unknown matcher field")

	// ErrEmptyPattern is returned when a matcher spec has no pattern.
	ErrEmptyPattern = errors.New("empty matcher pattern")

	// ErrBadGroup is returned when a matcher spec's capture group index is
	// out of range for its pattern.
	ErrBadGroup = errors.New("capture group out of range")
)
