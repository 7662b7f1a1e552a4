// Package config provides configuration structures and utilities for the
// policy extraction pipeline. It defines the main options for document
// scanning, deduplication tuning, and report generation preferences.
package config
