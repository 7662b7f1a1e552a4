package pattern

import (
	"fmt"
	"regexp"
	"strings"
)

// Field identifies which record attribute a matcher recovers.
type Field string

const (
	// FieldCategory matches top-level category header lines.
	FieldCategory Field = "category"

	// FieldSubcategory matches second-level header lines.
	FieldSubcategory Field = "subcategory"

	// FieldSection matches dotted section numbers on header lines.
	FieldSection Field = "section"

	// FieldTitle recovers the policy name from a block of text.
	FieldTitle Field = "title"

	// FieldRegistryPath recovers a registry locator.
	FieldRegistryPath Field = "registry_path"

	// FieldGPOPath recovers a group policy locator.
	FieldGPOPath Field = "gpo_path"

	// FieldValue recovers the required value expression.
	FieldValue Field = "value"

	// FieldLevel recovers the benchmark profile level marker.
	FieldLevel Field = "level"

	// FieldRisk recovers a risk/severity marker.
	FieldRisk Field = "risk"
)

// knownFields lists all fields in display order.
var knownFields = []Field{
	FieldCategory,
	FieldSubcategory,
	FieldSection,
	FieldTitle,
	FieldRegistryPath,
	FieldGPOPath,
	FieldValue,
	FieldLevel,
	FieldRisk,
}

// Spec is the data form of one matcher. This is what a YAML matcher file
// contains and what Extend accepts.
type Spec struct {
	// Name identifies the matcher in listings and logs.
	Name string `yaml:"name"`

	// Field is the record attribute this matcher recovers.
	Field Field `yaml:"field"`

	// Pattern is the regular expression, RE2 syntax.
	Pattern string `yaml:"pattern"`

	// Group is the capture group index holding the extracted value.
	// Group 0 means the whole match.
	Group int `yaml:"group"`
}

// Matcher is one compiled extraction pattern.
type Matcher struct {
	name  string
	field Field
	re    *regexp.Regexp
	group int
}

// Name returns the matcher's name.
func (m Matcher) Name() string { return m.name }

// Field returns the field the matcher recovers.
func (m Matcher) Field() Field { return m.field }

// Pattern returns the matcher's regular expression source.
func (m Matcher) Pattern() string { return m.re.String() }

// Extract attempts extraction against the given text span.
// It returns the matched value with surrounding whitespace and trailing
// sentence punctuation trimmed, and whether the matcher matched.
func (m Matcher) Extract(text string) (string, bool) {
	sub := m.re.FindStringSubmatch(text)
	if sub == nil || m.group >= len(sub) {
		return "", false
	}
	value := strings.TrimSpace(sub[m.group])
	value = strings.TrimRight(value, ".,;:")
	if value == "" {
		return "", false
	}
	return value, true
}

// compile turns a Spec into a Matcher, validating field, pattern, and group.
func compile(spec Spec) (Matcher, error) {
	if !validField(spec.Field) {
		return Matcher{}, fmt.Errorf("matcher %q: %w: %q", spec.Name, ErrUnknownField, spec.Field)
	}
	if spec.Pattern == "" {
		return Matcher{}, fmt.Errorf("matcher %q: %w", spec.Name, ErrEmptyPattern)
	}
	re, err := regexp.Compile(spec.Pattern)
	if err != nil {
		return Matcher{}, fmt.Errorf("matcher %q: invalid pattern: %w", spec.Name, err)
	}
	if spec.Group < 0 || spec.Group > re.NumSubexp() {
		return Matcher{}, fmt.Errorf("matcher %q: %w: group %d of %d", spec.Name, ErrBadGroup, spec.Group, re.NumSubexp())
	}
	return Matcher{name: spec.Name, field: spec.Field, re: re, group: spec.Group}, nil
}

// validField reports whether f is a known field.
func validField(f Field) bool {
	for _, k := range knownFields {
		if k == f {
			return true
		}
	}
	return false
}

// Library is an immutable, versioned set of matchers grouped by field.
// Construct one with Default, Load, or Extend; it is then safe for
// concurrent use by every pipeline component.
type Library struct {
	version string
	fields  map[Field][]Matcher
}

// Version returns the library version string.
func (l *Library) Version() string { return l.version }

// Extract evaluates the matchers for the given field in priority order
// against the text span and returns the first match.
func (l *Library) Extract(field Field, text string) (string, bool) {
	for _, m := range l.fields[field] {
		if value, ok := m.Extract(text); ok {
			return value, true
		}
	}
	return "", false
}

// ExtractWith is like Extract but also reports which matcher won.
// Used by verbose logging to explain precedence decisions.
func (l *Library) ExtractWith(field Field, text string) (value, matcher string, ok bool) {
	for _, m := range l.fields[field] {
		if v, matched := m.Extract(text); matched {
			return v, m.name, true
		}
	}
	return "", "", false
}

// Matchers returns a copy of the matcher list for a field, in priority order.
func (l *Library) Matchers(field Field) []Matcher {
	ms := l.fields[field]
	out := make([]Matcher, len(ms))
	copy(out, ms)
	return out
}

// Fields returns all fields that have at least one matcher, in display order.
func (l *Library) Fields() []Field {
	var out []Field
	for _, f := range knownFields {
		if len(l.fields[f]) > 0 {
			out = append(out, f)
		}
	}
	return out
}

// Extend returns a new library with the given matchers registered ahead of
// the existing matchers for their fields. Custom matchers take precedence
// over built-ins so a deployment can override a format variant without
// forking the defaults. The receiver is not modified.
func (l *Library) Extend(specs ...Spec) (*Library, error) {
	extra := make(map[Field][]Matcher)
	for _, spec := range specs {
		m, err := compile(spec)
		if err != nil {
			return nil, err
		}
		extra[m.field] = append(extra[m.field], m)
	}

	fields := make(map[Field][]Matcher, len(l.fields))
	for f, ms := range l.fields {
		fields[f] = ms
	}
	for f, ms := range extra {
		merged := make([]Matcher, 0, len(ms)+len(fields[f]))
		merged = append(merged, ms...)
		merged = append(merged, fields[f]...)
		fields[f] = merged
	}

	return &Library{version: l.version, fields: fields}, nil
}
