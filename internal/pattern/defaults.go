package pattern

import "fmt"

// LibraryVersion is the version of the built-in matcher set.
// Bump when matchers are added or reordered, because precedence is part of
// the extraction contract.
const LibraryVersion = "1.2.0"

// defaultSpecs is the built-in matcher set, in priority order per field.
//
// The ordering encodes which formatting convention wins when variants
// overlap. For example, a "1.1 Ensure ..." line is a section header
// (section_directive) and must never be read as a subcategory header, so
// the scanner consults FieldSection before FieldSubcategory.
var defaultSpecs = []Spec{
	// Structural headers. These run against single lines.
	{
		Name:    "category_numbered",
		Field:   FieldCategory,
		Pattern: `^(\d+)\s+([A-Za-z][^\r\n]*?)\s*$`,
		Group:   2,
	},
	{
		Name:    "category_caps",
		Field:   FieldCategory,
		Pattern: `^([A-Z][A-Z0-9&/ -]{3,48})$`,
		Group:   1,
	},
	{
		Name:    "subcategory_numbered",
		Field:   FieldSubcategory,
		Pattern: `^\d+\.\d+\s+([A-Za-z][^\r\n]*?)\s*$`,
		Group:   1,
	},
	{
		Name:    "section_deep",
		Field:   FieldSection,
		Pattern: `^(\d+(?:\.\d+){2,})(?:\s|$)`,
		Group:   1,
	},
	{
		Name:    "section_directive",
		Field:   FieldSection,
		Pattern: `(?i)^(\d+(?:\.\d+)+)\s+(?:\(L[12]\)\s+)?(?:ensure|configure|set|enable|disable|verify)\b`,
		Group:   1,
	},

	// Title forms. These run against the whole buffered block.
	{
		Name:    "title_directive",
		Field:   FieldTitle,
		Pattern: `(?mi)^(?:\d+(?:\.\d+)*\s+)?(?:\(L[12]\)\s+)?((?:ensure|configure|set|enable|disable|verify)\b[^\r\n]*?)\s*(?:\((?:automated|manual|scored|not scored)\))?\s*$`,
		Group:   1,
	},
	{
		Name:    "title_labeled",
		Field:   FieldTitle,
		Pattern: `(?mi)^(?:policy|title|setting)\s*(?:name)?\s*:\s*([^\r\n]+)$`,
		Group:   1,
	},
	{
		Name:    "title_numbered_line",
		Field:   FieldTitle,
		Pattern: `(?m)^\d+(?:\.\d+)+\s+([^\r\n]{4,})$`,
		Group:   1,
	},

	// Registry path variants.
	{
		Name:    "registry_hive_short",
		Field:   FieldRegistryPath,
		Pattern: `(?i)\b(HK(?:LM|CU|CR|U|CC)\\[^\r\n]+)`,
		Group:   1,
	},
	{
		Name:    "registry_hive_full",
		Field:   FieldRegistryPath,
		Pattern: `(?i)\b(HKEY_[A-Z_]+\\[^\r\n]+)`,
		Group:   1,
	},
	{
		Name:    "registry_labeled",
		Field:   FieldRegistryPath,
		Pattern: `(?mi)^\s*registry\s+(?:path|key|hive)\s*:\s*([^\r\n]+)$`,
		Group:   1,
	},

	// Group policy path variants.
	{
		Name:    "gpo_tree",
		Field:   FieldGPOPath,
		Pattern: `((?:Computer|User) Configuration\\[^\r\n]+)`,
		Group:   1,
	},
	{
		Name:    "gpo_labeled",
		Field:   FieldGPOPath,
		Pattern: `(?mi)^\s*(?:group\s+policy|gpo)\s*(?:path)?\s*:\s*([^\r\n]+)$`,
		Group:   1,
	},

	// Required value expressions.
	{
		Name:    "value_quoted",
		Field:   FieldValue,
		Pattern: `(?i)\bis set to\s+'([^']+)'`,
		Group:   1,
	},
	{
		Name:    "value_labeled",
		Field:   FieldValue,
		Pattern: `(?mi)^\s*(?:recommended\s+(?:value|state)|required\s+value|value)\s*:\s*([^\r\n]+)$`,
		Group:   1,
	},
	{
		Name:    "value_enabled_literal",
		Field:   FieldValue,
		Pattern: `(?i)\bto\s+'?(enabled|disabled)'?\b`,
		Group:   1,
	},
	{
		Name:    "value_unquoted",
		Field:   FieldValue,
		Pattern: `(?i)\bis set to\s+([^\s'][^\r\n.]*)`,
		Group:   1,
	},

	// Level markers.
	{
		Name:    "level_parenthesized",
		Field:   FieldLevel,
		Pattern: `\(L([12])\)`,
		Group:   1,
	},
	{
		Name:    "level_labeled",
		Field:   FieldLevel,
		Pattern: `(?i)\blevel\s*[:\-]?\s*([12])\b`,
		Group:   1,
	},

	// Risk markers.
	{
		Name:    "risk_labeled",
		Field:   FieldRisk,
		Pattern: `(?mi)^\s*(?:risk|severity)\s*:\s*(critical|high|medium|moderate|low)\b`,
		Group:   1,
	},
	{
		Name:    "risk_inline",
		Field:   FieldRisk,
		Pattern: `(?i)\b(critical|high|medium|low)\s+(?:risk|severity)\b`,
		Group:   1,
	},
}

// Default returns the built-in matcher library.
// The built-in specs are static data; a compile failure is a programming
// error, so Default panics rather than returning an error every caller
// would have to thread through.
func Default() *Library {
	fields := make(map[Field][]Matcher)
	for _, spec := range defaultSpecs {
		m, err := compile(spec)
		if err != nil {
			panic(fmt.Sprintf("pattern: built-in spec: %v", err))
		}
		fields[m.field] = append(fields[m.field], m)
	}
	return &Library{version: LibraryVersion, fields: fields}
}
