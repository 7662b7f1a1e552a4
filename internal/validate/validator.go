package validate

import (
	"log/slog"
	"strconv"
	"strings"

	"github.com/nao1215/benchscan/internal/model"
	"github.com/nao1215/benchscan/internal/pattern"
)

// Weights are the confidence-score coefficients. They are configuration,
// not design: the defaults below are starting points, and deployments tune
// them through the config surface.
type Weights struct {
	// Completeness weights the required-field completeness score.
	Completeness float64

	// Path weights the presence of a configuration-path field
	// (registry path or GPO path).
	Path float64

	// Value weights the presence of a required value.
	Value float64
}

// DefaultWeights returns the default confidence coefficients.
func DefaultWeights() Weights {
	return Weights{Completeness: 0.5, Path: 0.25, Value: 0.25}
}

// DefaultValueLiterals returns the default literal-to-numeric mapping for
// boolean-style required values. The mapping is explicit and documented
// (Enabled maps to "1", Disabled to "0") rather than leaving the literals
// as free text, because the script-generation consumer writes these values
// into numeric registry data. Keys are matched case-insensitively.
func DefaultValueLiterals() map[string]string {
	return map[string]string{
		"enabled":  "1",
		"disabled": "0",
	}
}

// Validator scores, enriches, and never rejects raw policy records.
// It holds only immutable configuration and is safe for concurrent use.
type Validator struct {
	// lib is the matcher library used for fallback field inference.
	lib *pattern.Library

	// weights are the confidence coefficients.
	weights Weights

	// literals maps lowercase boolean-style values to their numeric form.
	literals map[string]string

	// logger is used for structured logging.
	logger *slog.Logger
}

// Option configures a Validator.
type Option func(*Validator)

// WithWeights sets custom confidence coefficients.
func WithWeights(w Weights) Option {
	return func(v *Validator) {
		v.weights = w
	}
}

// WithValueLiterals sets a custom literal mapping table. Keys are matched
// case-insensitively against the required value.
func WithValueLiterals(literals map[string]string) Option {
	return func(v *Validator) {
		if len(literals) == 0 {
			return
		}
		m := make(map[string]string, len(literals))
		for k, val := range literals {
			m[strings.ToLower(k)] = val
		}
		v.literals = m
	}
}

// WithLogger sets a custom logger for the validator.
func WithLogger(logger *slog.Logger) Option {
	return func(v *Validator) {
		v.logger = logger
	}
}

// New creates a Validator backed by the given matcher library.
func New(lib *pattern.Library, opts ...Option) *Validator {
	v := &Validator{
		lib:      lib,
		weights:  DefaultWeights(),
		literals: DefaultValueLiterals(),
	}
	for _, opt := range opts {
		opt(v)
	}
	if v.logger == nil {
		v.logger = slog.Default()
	}
	return v
}

// Validate scores and enriches one raw record, mutating it in place.
// The record is always returned, with warnings for anything that could not
// be recovered.
func (v *Validator) Validate(rec *model.PolicyRecord) *model.PolicyRecord {
	completeness := v.scoreCompleteness(rec)
	v.inferMissingFields(rec)
	v.inferValueType(rec)
	v.applyLevelDefault(rec)
	rec.Confidence = v.confidence(rec, completeness)
	return rec
}

// scoreCompleteness returns the fraction of required fields present and
// attaches an incomplete warning per missing field.
func (v *Validator) scoreCompleteness(rec *model.PolicyRecord) float64 {
	required := []struct {
		name  string
		value string
	}{
		{"policy_name", rec.PolicyName},
		{"category", rec.Category},
		{"description", rec.Description},
	}

	present := 0
	for _, f := range required {
		if strings.TrimSpace(f.value) != "" {
			present++
			continue
		}
		rec.AddWarning("incomplete: missing " + f.name)
	}
	return float64(present) / float64(len(required))
}

// inferMissingFields re-runs the relevant matchers against the record's own
// raw text for each missing implementation field. A failed inference is a
// warning, not an error.
func (v *Validator) inferMissingFields(rec *model.PolicyRecord) {
	if rec.RegistryPath == "" {
		if path, ok := v.lib.Extract(pattern.FieldRegistryPath, rec.RawText); ok {
			rec.RegistryPath = path
		} else {
			rec.AddWarning("registry_path: no pattern matched")
		}
	}

	if rec.GPOPath == "" {
		if path, ok := v.lib.Extract(pattern.FieldGPOPath, rec.RawText); ok {
			rec.GPOPath = path
		} else {
			rec.AddWarning("gpo_path: no pattern matched")
		}
	}

	if rec.RequiredValue == "" {
		if value, ok := v.lib.Extract(pattern.FieldValue, rec.RawText); ok {
			rec.RequiredValue = value
		} else {
			rec.AddWarning("required_value: no pattern matched")
		}
	}

	if rec.Level == 0 {
		if lvl, ok := v.lib.Extract(pattern.FieldLevel, rec.RawText); ok {
			if n, err := strconv.Atoi(lvl); err == nil {
				rec.Level = n
			}
		}
	}

	if rec.Risk == model.RiskUnknown {
		if marker, ok := v.lib.Extract(pattern.FieldRisk, rec.RawText); ok {
			rec.Risk = model.ParseRiskLevel(marker)
		}
	}
}

// allDigits reports whether s is non-empty and consists only of digits.
func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// inferValueType classifies the required value and applies the literal
// mapping for boolean-style values.
func (v *Validator) inferValueType(rec *model.PolicyRecord) {
	value := strings.TrimSpace(rec.RequiredValue)
	switch {
	case value == "":
		rec.ValueType = model.ValueTypeString
	case allDigits(value):
		rec.ValueType = model.ValueTypeNumeric
	default:
		if mapped, ok := v.literals[strings.ToLower(value)]; ok {
			rec.RequiredValue = mapped
			rec.ValueType = model.ValueTypeBooleanNumeric
			return
		}
		rec.ValueType = model.ValueTypeString
	}
}

// applyLevelDefault applies the documented level default: records without
// an explicit level marker are level 1. The default is a documented
// contract, never inferred from content.
func (v *Validator) applyLevelDefault(rec *model.PolicyRecord) {
	switch rec.Level {
	case 1, 2:
		// Explicit marker, keep it.
	case 0:
		rec.AddWarning("level: no marker found, defaulting to 1")
		rec.Level = 1
	default:
		rec.AddWarning("level: out of range " + strconv.Itoa(rec.Level) + ", defaulting to 1")
		rec.Level = 1
	}
}

// confidence combines the completeness score with path and value presence
// under the configured weights, normalized to [0,1].
func (v *Validator) confidence(rec *model.PolicyRecord, completeness float64) float64 {
	w := v.weights
	total := w.Completeness + w.Path + w.Value
	if total <= 0 {
		return clamp01(completeness)
	}

	var pathPresent, valuePresent float64
	if rec.RegistryPath != "" || rec.GPOPath != "" {
		pathPresent = 1
	}
	if rec.RequiredValue != "" {
		valuePresent = 1
	}

	score := (w.Completeness*completeness + w.Path*pathPresent + w.Value*valuePresent) / total
	return clamp01(score)
}

// clamp01 clamps x into [0,1].
func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
