package model

import "strings"

// Provenance identifies which extraction pass produced a record.
type Provenance string

const (
	// ProvenanceText marks records produced by the prose-text scanner.
	ProvenanceText Provenance = "text"

	// ProvenanceTable marks records produced by the table merger.
	ProvenanceTable Provenance = "table"
)

// ValueType classifies the required value of a policy record.
//
// Design decision: We use iota-based constants rather than string constants
// for efficiency in comparisons. The String() method provides the stable
// serialized names that downstream consumers depend on.
type ValueType int

const (
	// ValueTypeString is the default type for free-text required values.
	ValueTypeString ValueType = iota

	// ValueTypeNumeric is used when the required value is all digits.
	ValueTypeNumeric

	// ValueTypeBooleanNumeric is used for Enabled/Disabled style values that
	// have been mapped to their numeric registry representation ("1"/"0").
	ValueTypeBooleanNumeric
)

// String returns the serialized name of the value type.
func (v ValueType) String() string {
	switch v {
	case ValueTypeNumeric:
		return "numeric"
	case ValueTypeBooleanNumeric:
		return "boolean-as-numeric"
	case ValueTypeString:
		return "string"
	default:
		return "string"
	}
}

// RiskLevel represents the stated risk of not applying a policy.
// RiskUnknown means the source document carried no risk marker.
type RiskLevel int

const (
	// RiskUnknown indicates no risk marker was found in the source text.
	RiskUnknown RiskLevel = iota

	// RiskLow indicates a low-impact policy.
	RiskLow

	// RiskMedium indicates a moderate-impact policy.
	RiskMedium

	// RiskHigh indicates a high-impact policy.
	RiskHigh

	// RiskCritical indicates a policy whose absence is a severe exposure.
	RiskCritical
)

// String returns a human-readable representation of the risk level.
func (r RiskLevel) String() string {
	switch r {
	case RiskLow:
		return "LOW"
	case RiskMedium:
		return "MEDIUM"
	case RiskHigh:
		return "HIGH"
	case RiskCritical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// ParseRiskLevel converts a risk marker string (as matched in source text)
// to a RiskLevel. Unrecognized markers map to RiskUnknown.
func ParseRiskLevel(s string) RiskLevel {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "LOW":
		return RiskLow
	case "MEDIUM", "MODERATE":
		return RiskMedium
	case "HIGH":
		return RiskHigh
	case "CRITICAL":
		return RiskCritical
	default:
		return RiskUnknown
	}
}

// PolicyRecord is the unit of extraction output: one hardening policy with
// enough implementation metadata to drive downstream automation.
//
// Design decision: We use a single flat struct with explicit optional fields
// (empty string / zero value means absent) rather than a map-backed payload.
// Every field has a documented default, and the JSON tags form the stable
// schema consumed by the dashboard importer and the script generator.
type PolicyRecord struct {
	// PolicyID is the stable identifier, assigned at finalize time.
	// Unique within a deduplicated result set.
	PolicyID string `json:"policy_id"`

	// SectionNumber is the dotted numeric section string (e.g. "1.1.1").
	// Empty if the record came from a table row without a section cell.
	SectionNumber string `json:"section_number,omitempty"`

	// Category is the top-level grouping (e.g. "Account Policies").
	// Non-empty unless the record carries an incomplete warning.
	Category string `json:"category,omitempty"`

	// Subcategory is the second-level grouping (e.g. "Password Policy").
	Subcategory string `json:"subcategory,omitempty"`

	// PolicyName is the policy title (e.g. "Ensure 'X' is set to '1'").
	PolicyName string `json:"policy_name"`

	// Description is the prose description of the policy, if present.
	Description string `json:"description,omitempty"`

	// Rationale explains why the policy matters, if present.
	Rationale string `json:"rationale,omitempty"`

	// RegistryPath is the registry locator (HKLM\... style), if recovered.
	RegistryPath string `json:"registry_path,omitempty"`

	// GPOPath is the group policy locator, if recovered.
	GPOPath string `json:"gpo_path,omitempty"`

	// RequiredValue is the value the policy must be set to.
	RequiredValue string `json:"required_value,omitempty"`

	// ValueType classifies RequiredValue. Defaults to string.
	ValueType ValueType `json:"value_type"`

	// Level is the benchmark profile level, 1 or 2. Defaults to 1 when the
	// source text carries no explicit level marker.
	Level int `json:"level"`

	// Risk is the stated risk level, RiskUnknown when absent.
	Risk RiskLevel `json:"risk,omitempty"`

	// Confidence is the weighted extraction-reliability estimate in [0,1].
	Confidence float64 `json:"confidence"`

	// RawText is the verbatim source span, retained for audit. When exact
	// duplicates are merged their raw text is concatenated, never replaced.
	RawText string `json:"raw_text,omitempty"`

	// Provenance records which pass produced the record (text or table).
	Provenance Provenance `json:"provenance"`

	// Warnings lists non-fatal extraction issues. A record is never dropped
	// for incompleteness; it is retained with warnings instead.
	Warnings []string `json:"warnings,omitempty"`

	// NeedsReview is set when the record is a suspected near-duplicate.
	// Near-duplicates are flagged for human review, never auto-merged.
	NeedsReview bool `json:"needs_review,omitempty"`

	// SimilarTo holds the policy IDs of suspected near-duplicates.
	SimilarTo []string `json:"similar_to,omitempty"`
}

// AddWarning appends a warning to the record, skipping exact repeats.
func (r *PolicyRecord) AddWarning(warning string) {
	for _, w := range r.Warnings {
		if w == warning {
			return
		}
	}
	r.Warnings = append(r.Warnings, warning)
}

// HasWarning reports whether the record carries a warning with the given
// prefix. Used by reports to surface incomplete records.
func (r *PolicyRecord) HasWarning(prefix string) bool {
	for _, w := range r.Warnings {
		if strings.HasPrefix(w, prefix) {
			return true
		}
	}
	return false
}
