// Package main provides the entry point for the benchscan CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for benchscan.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "benchscan",
		Short: "Policy extraction tool for security benchmark documents",
		Long: `Benchscan extracts hardening-policy records from security benchmark
documents (CIS benchmarks, DISA STIGs, and similar PDF or text files).

It scans prose recommendations and tabular layouts, validates and enriches
the extracted records, merges exact duplicates, and flags suspected
near-duplicates for human review.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewExtractCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewPatternsCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
