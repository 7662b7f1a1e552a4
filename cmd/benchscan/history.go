package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/benchscan/internal/config"
	"github.com/nao1215/benchscan/internal/database"
	"github.com/nao1215/benchscan/internal/model"
)

// Constants for inventory direction and summary messages.
const (
	inventoryDirectionGrew      = "grew"
	inventoryDirectionShrank    = "shrank"
	inventoryDirectionUnchanged = "unchanged"
)

// NewHistoryCmd creates the history command.
// This command compares extraction runs with historical data stored in the
// database.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [document-id]",
		Short: "Compare extraction runs with historical data",
		Long: `History displays differences between the current and previous extraction runs.

This command retrieves historical extraction data from the database and shows:
- Policies that appeared since the previous run
- Policies that disappeared since the previous run
- Changes in record, duplicate, and review-flag counts

The comparison requires at least two runs in the database for the specified
document. Use 'benchscan extract' to run extractions and save results.

Examples:
  # Compare latest two runs for a document
  benchscan history cis-windows-11

  # List all extraction runs for a document
  benchscan history --list cis-windows-11

  # Compare with a specific historical run by ID
  benchscan history --with-run-id 5 cis-windows-11

  # Output comparison in JSON format
  benchscan history --json cis-windows-11

  # List all extracted documents in the database
  benchscan history --list-documents`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	// History listing flags
	cmd.Flags().BoolP("list", "l", false,
		"List extraction run history for the specified document")
	cmd.Flags().BoolP("list-documents", "L", false,
		"List all extracted documents in the database")

	// Comparison target flags
	cmd.Flags().Int64P("with-run-id", "i", 0,
		"Compare with a specific run by ID (use --list to see available IDs)")

	// Output format flags
	cmd.Flags().BoolP("json", "j", false,
		"Output comparison result in JSON format")

	// Storage flags
	cmd.Flags().String("db-dir", "",
		"Directory of the results database (default: XDG data directory)")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	// Handle --list-documents flag first (requires database but no document)
	listDocuments, err := cmd.Flags().GetBool("list-documents")
	if err != nil {
		return err
	}

	// Validate arguments before opening database (unless --list-documents)
	var documentID string
	if !listDocuments {
		if len(args) == 0 {
			return errors.New("document ID is required (use --list-documents to see available documents)")
		}
		documentID = args[0]
	}

	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return err
	}
	if dbDir == "" {
		dbDir = config.XDGDataDir()
	}

	// Open read-only: history never creates a database
	opts := database.DefaultOptions()
	opts.CreateIfNotExists = false
	db, err := database.Open(dbDir, opts)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close() //nolint:errcheck // Best effort cleanup

	ctx := context.Background()

	if listDocuments {
		return listExtractedDocuments(ctx, db)
	}

	listHistory, err := cmd.Flags().GetBool("list")
	if err != nil {
		return err
	}
	if listHistory {
		return listRunHistory(ctx, db, documentID)
	}

	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	withRunID, err := cmd.Flags().GetInt64("with-run-id")
	if err != nil {
		return err
	}

	return runComparison(ctx, db, documentID, withRunID, jsonOutput)
}

// listExtractedDocuments lists all documents that have extraction records in
// the database.
func listExtractedDocuments(ctx context.Context, db *database.PolicyDB) error {
	documents, err := db.ListDocuments(ctx)
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	if len(documents) == 0 {
		fmt.Println("No extracted documents found in the database.")
		fmt.Println("\nUse 'benchscan extract <document>' to extract a benchmark.")
		return nil
	}

	fmt.Printf("Extracted documents (%d):\n\n", len(documents))
	for _, doc := range documents {
		fmt.Printf("  • %s\n", doc)
	}
	fmt.Println("\nUse 'benchscan history --list <document-id>' to see run history for a document.")

	return nil
}

// listRunHistory lists all extraction runs for a specific document.
func listRunHistory(ctx context.Context, db *database.PolicyDB, documentID string) error {
	runs, err := db.GetHistory(ctx, documentID)
	if err != nil {
		return fmt.Errorf("failed to get run history: %w", err)
	}

	if len(runs) == 0 {
		fmt.Printf("No run history found for %s\n", documentID)
		fmt.Println("\nUse 'benchscan extract' to extract this document.")
		return nil
	}

	fmt.Printf("Run history for %s (%d runs):\n\n", documentID, len(runs))
	fmt.Printf("  %-6s  %-20s  %s\n", "ID", "Date", "Summary")
	fmt.Println("  " + strings.Repeat("-", 60))

	for _, meta := range runs {
		fmt.Printf("  %-6d  %-20s  %s\n",
			meta.ID,
			meta.Timestamp.Format("2006-01-02 15:04:05"),
			formatRunSummary(meta),
		)
	}

	fmt.Println("\nUse 'benchscan history <document-id>' to compare the latest two runs.")
	fmt.Println("Use 'benchscan history --with-run-id <id> <document-id>' to compare with a specific run.")

	return nil
}

// formatRunSummary formats an extraction run's counters into a short
// human-readable string.
func formatRunSummary(meta database.ExtractionMetadata) string {
	if meta.Error != "" {
		return "FAILED: " + meta.Error
	}

	var parts []string
	parts = append(parts, fmt.Sprintf("M:%d", meta.Matched))
	parts = append(parts, fmt.Sprintf("V:%d", meta.Validated))
	if meta.Duplicates > 0 {
		parts = append(parts, fmt.Sprintf("D:%d", meta.Duplicates))
	}
	if meta.Flagged > 0 {
		parts = append(parts, fmt.Sprintf("F:%d", meta.Flagged))
	}
	return strings.Join(parts, " ")
}

// runComparison performs the actual comparison between extraction runs.
func runComparison(ctx context.Context, db *database.PolicyDB, documentID string, withRunID int64, jsonOutput bool) error {
	runs, err := db.GetHistory(ctx, documentID)
	if err != nil {
		return fmt.Errorf("failed to get run history: %w", err)
	}

	if len(runs) == 0 {
		return fmt.Errorf("no run history found for %s", documentID)
	}

	if len(runs) < 2 && withRunID == 0 {
		return fmt.Errorf("at least 2 runs are required for comparison (found %d)", len(runs))
	}

	// Latest run is always the current one
	current, err := db.GetResultByID(ctx, runs[0].ID)
	if err != nil {
		return fmt.Errorf("failed to get run with ID %d: %w", runs[0].ID, err)
	}
	if current == nil {
		return fmt.Errorf("run with ID %d not found", runs[0].ID)
	}

	var previous *model.ExtractionResult
	var previousMeta database.ExtractionMetadata

	if withRunID > 0 {
		previous, err = db.GetResultByID(ctx, withRunID)
		if err != nil {
			return fmt.Errorf("failed to get run with ID %d: %w", withRunID, err)
		}
		if previous == nil {
			return fmt.Errorf("run with ID %d not found", withRunID)
		}
		// Validate that the run ID belongs to the same document
		if previous.Summary.DocumentID != documentID {
			return fmt.Errorf("run ID %d belongs to %s, not %s", withRunID, previous.Summary.DocumentID, documentID)
		}
		for _, meta := range runs {
			if meta.ID == withRunID {
				previousMeta = meta
				break
			}
		}
	} else {
		previous, err = db.GetResultByID(ctx, runs[1].ID)
		if err != nil {
			return fmt.Errorf("failed to get run with ID %d: %w", runs[1].ID, err)
		}
		if previous == nil {
			return fmt.Errorf("run with ID %d not found", runs[1].ID)
		}
		previousMeta = runs[1]
	}

	comparison := compareRuns(previousMeta, runs[0], previous, current)

	if jsonOutput {
		return outputComparisonJSON(comparison)
	}
	return outputComparisonText(comparison)
}

// ExtractionDelta holds the result of comparing two extraction runs.
type ExtractionDelta struct {
	// DocumentID is the extracted document.
	DocumentID string `json:"document_id"`

	// PreviousRun contains metadata about the previous run.
	PreviousRun RunMetadata `json:"previous_run"`

	// CurrentRun contains metadata about the current run.
	CurrentRun RunMetadata `json:"current_run"`

	// NewPolicies contains policy names that are new in the current run.
	NewPolicies []string `json:"new_policies,omitempty"`

	// RemovedPolicies contains policy names that were in the previous run
	// but not in the current one.
	RemovedPolicies []string `json:"removed_policies,omitempty"`

	// UnchangedCount is the number of policies present in both runs.
	UnchangedCount int `json:"unchanged_count"`

	// InventoryChange describes the overall change in the policy inventory.
	InventoryChange InventoryChange `json:"inventory_change"`
}

// RunMetadata contains metadata about an extraction run for comparison
// display.
type RunMetadata struct {
	// Timestamp is when the run was performed.
	Timestamp time.Time `json:"timestamp"`

	// Records is the number of policy records in this run.
	Records int `json:"records"`

	// Matched is the number of raw candidates matched.
	Matched int `json:"matched"`

	// Duplicates is the number of exact duplicates merged.
	Duplicates int `json:"duplicates"`

	// Flagged is the number of records flagged for review.
	Flagged int `json:"flagged"`
}

// InventoryChange describes the change in the policy inventory between runs.
type InventoryChange struct {
	// Direction is "grew", "shrank", or "unchanged".
	Direction string `json:"direction"`

	// RecordsDelta is the change in policy record count.
	RecordsDelta int `json:"records_delta"`

	// DuplicatesDelta is the change in merged duplicates count.
	DuplicatesDelta int `json:"duplicates_delta"`

	// FlaggedDelta is the change in records flagged for review.
	FlaggedDelta int `json:"flagged_delta"`
}

// compareRuns compares two extraction runs and generates a delta.
func compareRuns(previousMeta, currentMeta database.ExtractionMetadata, previous, current *model.ExtractionResult) *ExtractionDelta {
	result := &ExtractionDelta{
		DocumentID: current.Summary.DocumentID,
		PreviousRun: RunMetadata{
			Timestamp:  previousMeta.Timestamp,
			Records:    len(previous.Records),
			Matched:    previous.Summary.Matched,
			Duplicates: previous.Summary.Duplicates,
			Flagged:    previous.Summary.Flagged,
		},
		CurrentRun: RunMetadata{
			Timestamp:  currentMeta.Timestamp,
			Records:    len(current.Records),
			Matched:    current.Summary.Matched,
			Duplicates: current.Summary.Duplicates,
			Flagged:    current.Summary.Flagged,
		},
	}

	// Build policy maps keyed by section number and name. The generated
	// record IDs carry a sequence number that shifts when records are added
	// or removed, so they cannot anchor the comparison.
	previousPolicies := make(map[string]string)
	currentPolicies := make(map[string]string)

	for _, r := range previous.Records {
		previousPolicies[policyKey(r)] = r.PolicyName
	}
	for _, r := range current.Records {
		currentPolicies[policyKey(r)] = r.PolicyName
	}

	for key, name := range currentPolicies {
		if _, exists := previousPolicies[key]; !exists {
			result.NewPolicies = append(result.NewPolicies, displayPolicy(key, name))
		}
	}
	for key, name := range previousPolicies {
		if _, exists := currentPolicies[key]; !exists {
			result.RemovedPolicies = append(result.RemovedPolicies, displayPolicy(key, name))
		} else {
			result.UnchangedCount++
		}
	}

	sort.Strings(result.NewPolicies)
	sort.Strings(result.RemovedPolicies)

	result.InventoryChange = calculateInventoryChange(result.PreviousRun, result.CurrentRun)

	return result
}

// policyKey generates a comparison key for a policy record.
func policyKey(r *model.PolicyRecord) string {
	return r.SectionNumber + "|" + r.PolicyName
}

// displayPolicy formats a policy for listing: section number followed by
// the name, or just the name if no section was extracted.
func displayPolicy(key, name string) string {
	section, _, _ := strings.Cut(key, "|")
	if section == "" {
		return name
	}
	return section + " " + name
}

// calculateInventoryChange calculates the change between two runs.
func calculateInventoryChange(previous, current RunMetadata) InventoryChange {
	change := InventoryChange{
		RecordsDelta:    current.Records - previous.Records,
		DuplicatesDelta: current.Duplicates - previous.Duplicates,
		FlaggedDelta:    current.Flagged - previous.Flagged,
	}

	switch {
	case change.RecordsDelta > 0:
		change.Direction = inventoryDirectionGrew
	case change.RecordsDelta < 0:
		change.Direction = inventoryDirectionShrank
	default:
		change.Direction = inventoryDirectionUnchanged
	}

	return change
}

// outputComparisonJSON outputs the comparison result in JSON format.
func outputComparisonJSON(result *ExtractionDelta) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

// outputComparisonText outputs the comparison result in human-readable text
// format.
func outputComparisonText(result *ExtractionDelta) error {
	fmt.Printf("Run Comparison: %s\n", result.DocumentID)
	fmt.Println(strings.Repeat("=", 60))

	fmt.Printf("\nInventory: %s\n", formatInventoryDirection(result.InventoryChange.Direction))

	fmt.Printf("\nPrevious run: %s\n", result.PreviousRun.Timestamp.Format("2006-01-02 15:04:05"))
	fmt.Printf("Current run:  %s\n", result.CurrentRun.Timestamp.Format("2006-01-02 15:04:05"))

	fmt.Println("\nRecord Summary:")
	fmt.Printf("  %-12s  %-10s  %-10s  %-10s\n", "Counter", "Previous", "Current", "Change")
	fmt.Println("  " + strings.Repeat("-", 47))
	fmt.Printf("  %-12s  %-10d  %-10d  %-10s\n", "Records",
		result.PreviousRun.Records, result.CurrentRun.Records,
		formatDelta(result.InventoryChange.RecordsDelta))
	fmt.Printf("  %-12s  %-10d  %-10d  %-10s\n", "Duplicates",
		result.PreviousRun.Duplicates, result.CurrentRun.Duplicates,
		formatDelta(result.InventoryChange.DuplicatesDelta))
	fmt.Printf("  %-12s  %-10d  %-10d  %-10s\n", "Flagged",
		result.PreviousRun.Flagged, result.CurrentRun.Flagged,
		formatDelta(result.InventoryChange.FlaggedDelta))

	if len(result.NewPolicies) > 0 {
		fmt.Printf("\nNew Policies (%d):\n", len(result.NewPolicies))
		for _, p := range result.NewPolicies {
			fmt.Printf("  [+] %s\n", p)
		}
	}

	if len(result.RemovedPolicies) > 0 {
		fmt.Printf("\nRemoved Policies (%d):\n", len(result.RemovedPolicies))
		for _, p := range result.RemovedPolicies {
			fmt.Printf("  [-] %s\n", p)
		}
	}

	if result.UnchangedCount > 0 {
		fmt.Printf("\nUnchanged: %d policies\n", result.UnchangedCount)
	}

	return nil
}

// formatInventoryDirection formats the inventory change direction for
// display.
func formatInventoryDirection(direction string) string {
	switch direction {
	case inventoryDirectionGrew:
		return "GREW (more policies extracted)"
	case inventoryDirectionShrank:
		return "SHRANK (fewer policies extracted)"
	default:
		return "UNCHANGED"
	}
}

// formatDelta formats a numeric delta with sign for display.
func formatDelta(delta int) string {
	if delta > 0 {
		return "+" + strconv.Itoa(delta)
	} else if delta < 0 {
		return strconv.Itoa(delta)
	}
	return "0"
}
