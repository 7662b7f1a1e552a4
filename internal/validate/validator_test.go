package validate

import (
	"math"
	"strings"
	"testing"

	"github.com/nao1215/benchscan/internal/model"
	"github.com/nao1215/benchscan/internal/pattern"
)

// TestValidateCompleteRecord tests a record with every required field.
func TestValidateCompleteRecord(t *testing.T) {
	t.Parallel()

	rec := &model.PolicyRecord{
		PolicyName:   "Ensure 'X' is set to '1'",
		Category:     "Account Policies",
		Description:  "some description",
		RegistryPath: "HKLM\\SOFTWARE\\X",
		RequiredValue: "1",
		Level:        2,
		RawText:      "1.1.1 Ensure 'X' is set to '1'",
	}

	v := New(pattern.Default())
	out := v.Validate(rec)

	if out != rec {
		t.Fatal("expected the same record back")
	}
	if math.Abs(rec.Confidence-1.0) > 1e-9 {
		t.Errorf("confidence: got %f, expected 1.0", rec.Confidence)
	}
	if rec.ValueType != model.ValueTypeNumeric {
		t.Errorf("value type: got %v, expected numeric", rec.ValueType)
	}
	if rec.Level != 2 {
		t.Errorf("level: got %d, expected explicit 2 to be kept", rec.Level)
	}
	if rec.HasWarning("incomplete:") {
		t.Errorf("unexpected incomplete warning: %v", rec.Warnings)
	}
}

// TestValidateFieldInference tests missing-field recovery from raw text.
func TestValidateFieldInference(t *testing.T) {
	t.Parallel()

	rec := &model.PolicyRecord{
		PolicyName:  "Ensure 'Telemetry' is set to 'Disabled'",
		Category:    "Administrative Templates",
		Description: "limits diagnostic data",
		RawText: strings.Join([]string{
			"18.1.1 (L2) Ensure 'Telemetry' is set to 'Disabled'",
			"Registry Path: SOFTWARE\\Policies\\DataCollection",
			"Computer Configuration\\Administrative Templates\\Data Collection",
		}, "\n"),
	}

	New(pattern.Default()).Validate(rec)

	if rec.RegistryPath != "SOFTWARE\\Policies\\DataCollection" {
		t.Errorf("registry path: got %q", rec.RegistryPath)
	}
	if rec.GPOPath != "Computer Configuration\\Administrative Templates\\Data Collection" {
		t.Errorf("gpo path: got %q", rec.GPOPath)
	}
	if rec.Level != 2 {
		t.Errorf("level: got %d, expected 2 from (L2) marker", rec.Level)
	}
	// Disabled maps to "0" with the boolean-as-numeric type.
	if rec.RequiredValue != "0" {
		t.Errorf("required value: got %q, expected mapped %q", rec.RequiredValue, "0")
	}
	if rec.ValueType != model.ValueTypeBooleanNumeric {
		t.Errorf("value type: got %v, expected boolean-as-numeric", rec.ValueType)
	}
}

// TestValidateFailedInference tests that failed inference warns, not errors.
func TestValidateFailedInference(t *testing.T) {
	t.Parallel()

	rec := &model.PolicyRecord{
		PolicyName: "Some policy",
		RawText:    "no recoverable fields here",
	}

	New(pattern.Default()).Validate(rec)

	for _, prefix := range []string{"registry_path:", "gpo_path:", "required_value:", "incomplete:"} {
		if !rec.HasWarning(prefix) {
			t.Errorf("expected warning with prefix %q, got %v", prefix, rec.Warnings)
		}
	}
	if rec.Level != 1 {
		t.Errorf("level: got %d, expected default 1", rec.Level)
	}
	if rec.Confidence < 0 || rec.Confidence > 1 {
		t.Errorf("confidence %f out of range", rec.Confidence)
	}
}

// TestValueTypeInference tests the value-type classification table.
func TestValueTypeInference(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name          string
		value         string
		expectedType  model.ValueType
		expectedValue string
	}{
		{"all digits", "14", model.ValueTypeNumeric, "14"},
		{"enabled literal", "Enabled", model.ValueTypeBooleanNumeric, "1"},
		{"disabled literal", "disabled", model.ValueTypeBooleanNumeric, "0"},
		{"free text", "Success and Failure", model.ValueTypeString, "Success and Failure"},
		{"mixed digits", "0x7", model.ValueTypeString, "0x7"},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			rec := &model.PolicyRecord{
				PolicyName:    "p",
				Category:      "c",
				Description:   "d",
				RequiredValue: tc.value,
				Level:         1,
				RawText:       "irrelevant",
			}
			New(pattern.Default()).Validate(rec)

			if rec.ValueType != tc.expectedType {
				t.Errorf("value type: got %v, expected %v", rec.ValueType, tc.expectedType)
			}
			if rec.RequiredValue != tc.expectedValue {
				t.Errorf("required value: got %q, expected %q", rec.RequiredValue, tc.expectedValue)
			}
		})
	}
}

// TestCustomValueLiterals tests an extended literal mapping table.
func TestCustomValueLiterals(t *testing.T) {
	t.Parallel()

	literals := map[string]string{
		"Enabled":  "1",
		"Disabled": "0",
		"Aktiviert": "1",
	}

	rec := &model.PolicyRecord{
		PolicyName:    "p",
		Category:      "c",
		Description:   "d",
		RequiredValue: "aktiviert",
		Level:         1,
		RawText:       "x",
	}
	New(pattern.Default(), WithValueLiterals(literals)).Validate(rec)

	if rec.RequiredValue != "1" || rec.ValueType != model.ValueTypeBooleanNumeric {
		t.Errorf("got (%q, %v), expected mapped boolean", rec.RequiredValue, rec.ValueType)
	}
}

// TestConfidenceWeights tests the weighted confidence combination.
func TestConfidenceWeights(t *testing.T) {
	t.Parallel()

	t.Run("custom weights shift the score", func(t *testing.T) {
		t.Parallel()

		// Only the path is present; with all weight on the path the
		// confidence must be 1 regardless of completeness.
		rec := &model.PolicyRecord{
			RegistryPath: "HKLM\\X",
			RawText:      "HKLM\\X",
			Level:        1,
		}
		New(pattern.Default(), WithWeights(Weights{Path: 1})).Validate(rec)

		if math.Abs(rec.Confidence-1.0) > 1e-9 {
			t.Errorf("confidence: got %f, expected 1.0", rec.Confidence)
		}
	})

	t.Run("zero weights fall back to completeness", func(t *testing.T) {
		t.Parallel()

		rec := &model.PolicyRecord{
			PolicyName:  "p",
			Category:    "c",
			Description: "d",
			RawText:     "x",
			Level:       1,
		}
		New(pattern.Default(), WithWeights(Weights{})).Validate(rec)

		if math.Abs(rec.Confidence-1.0) > 1e-9 {
			t.Errorf("confidence: got %f, expected completeness fallback 1.0", rec.Confidence)
		}
	})
}
