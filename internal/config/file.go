package config

// DocumentConfig holds document-specific configuration for a single
// benchmark document. This allows tuning extraction per document without
// changing the global settings.
type DocumentConfig struct {
	// TablePageLimit overrides the global table page limit for this
	// document. If zero, the global limit is used.
	TablePageLimit int `yaml:"tablePageLimit,omitempty"`

	// SkipTables disables the tabular extraction pass for this document.
	// The skip is still recorded as a document-level warning.
	SkipTables bool `yaml:"skipTables,omitempty"`

	// ValueLiterals extends the boolean-literal mapping for this
	// document, e.g. for benchmarks published in other languages.
	ValueLiterals map[string]string `yaml:"valueLiterals,omitempty"`
}

// File represents the structure of the .benchscan configuration file.
type File struct {
	// Workers overrides the number of concurrent documents. Zero keeps
	// the default.
	Workers int `yaml:"workers,omitempty"`

	// TablePageLimit overrides the tabular-pass page-count guard.
	// Zero keeps the default.
	TablePageLimit int `yaml:"tablePageLimit,omitempty"`

	// SimilarityThreshold overrides the near-duplicate threshold.
	// Zero keeps the default.
	SimilarityThreshold float64 `yaml:"similarityThreshold,omitempty"`

	// MaxCompareRecords overrides the near-duplicate comparison cap.
	// Zero keeps the default.
	MaxCompareRecords int `yaml:"maxCompareRecords,omitempty"`

	// Patterns is the path to a YAML file of custom matchers.
	Patterns string `yaml:"patterns,omitempty"`

	// ValueLiterals extends the boolean-literal mapping globally.
	ValueLiterals map[string]string `yaml:"valueLiterals,omitempty"`

	// Documents maps document IDs to their document-specific
	// configurations. Keys are the document ID (file name without
	// extension).
	Documents map[string]DocumentConfig `yaml:"documents,omitempty"`

	// Defaults contains default document configuration applied to all
	// documents unless overridden in the document-specific configuration.
	Defaults DocumentConfig `yaml:"defaults,omitempty"`
}

// Apply merges file settings into the config. File values only fill
// settings still at their defaults, so CLI flags keep precedence.
func (cf *File) Apply(c *Config) {
	if cf.Workers != 0 && c.Workers == DefaultWorkers {
		c.Workers = cf.Workers
	}
	if cf.TablePageLimit != 0 && c.TablePageLimit == DefaultTablePageLimit {
		c.TablePageLimit = cf.TablePageLimit
	}
	if cf.SimilarityThreshold != 0 && c.SimilarityThreshold == DefaultSimilarityThreshold {
		c.SimilarityThreshold = cf.SimilarityThreshold
	}
	if cf.MaxCompareRecords != 0 && c.MaxCompareRecords == DefaultMaxCompareRecords {
		c.MaxCompareRecords = cf.MaxCompareRecords
	}
	if cf.Patterns != "" && c.PatternsFile == "" {
		c.PatternsFile = cf.Patterns
	}
}

// GetDocumentConfig returns the configuration for a specific document ID.
// It merges the document-specific configuration with defaults.
func (cf *File) GetDocumentConfig(documentID string) DocumentConfig {
	// Start with defaults
	result := cf.Defaults

	// Override with document-specific configuration if present
	if docConfig, ok := cf.Documents[documentID]; ok {
		if docConfig.TablePageLimit != 0 {
			result.TablePageLimit = docConfig.TablePageLimit
		}
		if docConfig.SkipTables {
			result.SkipTables = true
		}
		if len(docConfig.ValueLiterals) > 0 {
			// Merge into a fresh map so the shared defaults stay untouched.
			merged := make(map[string]string, len(result.ValueLiterals)+len(docConfig.ValueLiterals))
			for k, v := range result.ValueLiterals {
				merged[k] = v
			}
			for k, v := range docConfig.ValueLiterals {
				merged[k] = v
			}
			result.ValueLiterals = merged
		}
	}

	return result
}
