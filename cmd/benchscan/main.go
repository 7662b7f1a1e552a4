// Package main provides the entry point for the benchscan CLI.
//
// Benchscan extracts hardening-policy records from security benchmark
// documents (CIS benchmarks, DISA STIGs, and similar). It parses prose and
// tabular layouts, validates and enriches the records, and deduplicates
// the result into a stable policy inventory.
//
// Usage:
//
//	benchscan extract <document>...
//	benchscan extract --json benchmarks/
//
// See --help for all available options.
package main

// main is the entry point for benchscan.
func main() {
	Execute()
}
