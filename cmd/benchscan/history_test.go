package main

import (
	"context"
	"testing"
	"time"

	"github.com/nao1215/benchscan/internal/database"
	"github.com/nao1215/benchscan/internal/model"
)

// TestNewHistoryCmd tests the history command creation.
func TestNewHistoryCmd(t *testing.T) {
	t.Parallel()

	cmd := NewHistoryCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "history [document-id]" {
			t.Errorf("expected use 'history [document-id]', got %q", cmd.Use)
		}
	})

	t.Run("has short description", func(t *testing.T) {
		t.Parallel()
		if cmd.Short == "" {
			t.Error("expected non-empty short description")
		}
	})

	t.Run("has list flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("list")
		if flag == nil {
			t.Fatal("expected list flag")
		}
		if flag.Shorthand != "l" {
			t.Errorf("expected shorthand 'l', got %q", flag.Shorthand)
		}
	})

	t.Run("has list-documents flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("list-documents")
		if flag == nil {
			t.Fatal("expected list-documents flag")
		}
		if flag.Shorthand != "L" {
			t.Errorf("expected shorthand 'L', got %q", flag.Shorthand)
		}
	})

	t.Run("has with-run-id flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("with-run-id")
		if flag == nil {
			t.Fatal("expected with-run-id flag")
		}
		if flag.Shorthand != "i" {
			t.Errorf("expected shorthand 'i', got %q", flag.Shorthand)
		}
	})

	t.Run("has json flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("json")
		if flag == nil {
			t.Fatal("expected json flag")
		}
		if flag.Shorthand != "j" {
			t.Errorf("expected shorthand 'j', got %q", flag.Shorthand)
		}
	})
}

// TestRunHistoryCmdRequiresDocument tests that a document ID is required
// without --list-documents.
func TestRunHistoryCmdRequiresDocument(t *testing.T) {
	t.Parallel()

	cmd := NewHistoryCmd()
	cmd.SetArgs([]string{})
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	err := cmd.Execute()
	if err == nil {
		t.Error("expected error when document ID is missing")
	}
}

// historyRecord builds a policy record for comparison tests.
func historyRecord(section, name string) *model.PolicyRecord {
	return &model.PolicyRecord{
		SectionNumber: section,
		PolicyName:    name,
	}
}

// historyResult builds an extraction result with the given policies.
func historyResult(documentID string, records ...*model.PolicyRecord) *model.ExtractionResult {
	result := model.NewExtractionResult(documentID)
	result.Records = records
	result.Summary.Matched = len(records)
	result.Summary.Validated = len(records)
	return result
}

// TestCompareRuns tests the run comparison logic.
func TestCompareRuns(t *testing.T) {
	t.Parallel()

	previous := historyResult("cis-win11",
		historyRecord("1.1.1", "Enforce password history"),
		historyRecord("1.1.2", "Maximum password age"),
	)
	current := historyResult("cis-win11",
		historyRecord("1.1.1", "Enforce password history"),
		historyRecord("1.1.3", "Minimum password age"),
		historyRecord("1.1.4", "Minimum password length"),
	)
	current.Summary.Flagged = 1

	previousMeta := database.ExtractionMetadata{
		ID:        1,
		Timestamp: time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC),
	}
	currentMeta := database.ExtractionMetadata{
		ID:        2,
		Timestamp: time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC),
	}

	delta := compareRuns(previousMeta, currentMeta, previous, current)

	t.Run("carries document ID", func(t *testing.T) {
		t.Parallel()
		if delta.DocumentID != "cis-win11" {
			t.Errorf("expected document ID 'cis-win11', got %q", delta.DocumentID)
		}
	})

	t.Run("detects new policies", func(t *testing.T) {
		t.Parallel()
		if len(delta.NewPolicies) != 2 {
			t.Fatalf("expected 2 new policies, got %v", delta.NewPolicies)
		}
		if delta.NewPolicies[0] != "1.1.3 Minimum password age" {
			t.Errorf("expected '1.1.3 Minimum password age', got %q", delta.NewPolicies[0])
		}
		if delta.NewPolicies[1] != "1.1.4 Minimum password length" {
			t.Errorf("expected '1.1.4 Minimum password length', got %q", delta.NewPolicies[1])
		}
	})

	t.Run("detects removed policies", func(t *testing.T) {
		t.Parallel()
		if len(delta.RemovedPolicies) != 1 {
			t.Fatalf("expected 1 removed policy, got %v", delta.RemovedPolicies)
		}
		if delta.RemovedPolicies[0] != "1.1.2 Maximum password age" {
			t.Errorf("expected '1.1.2 Maximum password age', got %q", delta.RemovedPolicies[0])
		}
	})

	t.Run("counts unchanged policies", func(t *testing.T) {
		t.Parallel()
		if delta.UnchangedCount != 1 {
			t.Errorf("expected 1 unchanged policy, got %d", delta.UnchangedCount)
		}
	})

	t.Run("calculates inventory change", func(t *testing.T) {
		t.Parallel()
		if delta.InventoryChange.Direction != inventoryDirectionGrew {
			t.Errorf("expected direction %q, got %q", inventoryDirectionGrew, delta.InventoryChange.Direction)
		}
		if delta.InventoryChange.RecordsDelta != 1 {
			t.Errorf("expected records delta 1, got %d", delta.InventoryChange.RecordsDelta)
		}
		if delta.InventoryChange.FlaggedDelta != 1 {
			t.Errorf("expected flagged delta 1, got %d", delta.InventoryChange.FlaggedDelta)
		}
	})

	t.Run("carries run metadata", func(t *testing.T) {
		t.Parallel()
		if delta.PreviousRun.Records != 2 {
			t.Errorf("expected 2 previous records, got %d", delta.PreviousRun.Records)
		}
		if delta.CurrentRun.Records != 3 {
			t.Errorf("expected 3 current records, got %d", delta.CurrentRun.Records)
		}
		if !delta.CurrentRun.Timestamp.Equal(currentMeta.Timestamp) {
			t.Errorf("expected current timestamp %v, got %v", currentMeta.Timestamp, delta.CurrentRun.Timestamp)
		}
	})
}

// TestCalculateInventoryChange tests the inventory direction calculation.
func TestCalculateInventoryChange(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		previous  RunMetadata
		current   RunMetadata
		direction string
	}{
		{
			name:      "grew",
			previous:  RunMetadata{Records: 10},
			current:   RunMetadata{Records: 12},
			direction: inventoryDirectionGrew,
		},
		{
			name:      "shrank",
			previous:  RunMetadata{Records: 12},
			current:   RunMetadata{Records: 10},
			direction: inventoryDirectionShrank,
		},
		{
			name:      "unchanged",
			previous:  RunMetadata{Records: 10},
			current:   RunMetadata{Records: 10},
			direction: inventoryDirectionUnchanged,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			change := calculateInventoryChange(tt.previous, tt.current)
			if change.Direction != tt.direction {
				t.Errorf("expected direction %q, got %q", tt.direction, change.Direction)
			}
		})
	}
}

// TestDisplayPolicy tests the policy display formatting.
func TestDisplayPolicy(t *testing.T) {
	t.Parallel()

	t.Run("prefixes section number", func(t *testing.T) {
		t.Parallel()
		got := displayPolicy("1.1.1|Enforce password history", "Enforce password history")
		if got != "1.1.1 Enforce password history" {
			t.Errorf("expected '1.1.1 Enforce password history', got %q", got)
		}
	})

	t.Run("falls back to name without section", func(t *testing.T) {
		t.Parallel()
		got := displayPolicy("|Enforce password history", "Enforce password history")
		if got != "Enforce password history" {
			t.Errorf("expected 'Enforce password history', got %q", got)
		}
	})
}

// TestFormatRunSummary tests run summary formatting.
func TestFormatRunSummary(t *testing.T) {
	t.Parallel()

	t.Run("formats successful run", func(t *testing.T) {
		t.Parallel()
		meta := database.ExtractionMetadata{Matched: 10, Validated: 9, Duplicates: 1, Flagged: 2}
		got := formatRunSummary(meta)
		if got != "M:10 V:9 D:1 F:2" {
			t.Errorf("expected 'M:10 V:9 D:1 F:2', got %q", got)
		}
	})

	t.Run("omits zero duplicates and flags", func(t *testing.T) {
		t.Parallel()
		meta := database.ExtractionMetadata{Matched: 5, Validated: 5}
		got := formatRunSummary(meta)
		if got != "M:5 V:5" {
			t.Errorf("expected 'M:5 V:5', got %q", got)
		}
	})

	t.Run("formats failed run", func(t *testing.T) {
		t.Parallel()
		meta := database.ExtractionMetadata{Error: "decode pdf: malformed xref table"}
		got := formatRunSummary(meta)
		if got != "FAILED: decode pdf: malformed xref table" {
			t.Errorf("unexpected summary %q", got)
		}
	})
}

// TestFormatDelta tests delta formatting with sign.
func TestFormatDelta(t *testing.T) {
	t.Parallel()

	tests := []struct {
		delta int
		want  string
	}{
		{delta: 3, want: "+3"},
		{delta: -2, want: "-2"},
		{delta: 0, want: "0"},
	}

	for _, tt := range tests {
		if got := formatDelta(tt.delta); got != tt.want {
			t.Errorf("formatDelta(%d) = %q, want %q", tt.delta, got, tt.want)
		}
	}
}

// TestRunComparisonWithDatabase tests comparison against a real database.
func TestRunComparisonWithDatabase(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	db, err := database.Open(tmpDir, database.DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close() //nolint:errcheck

	ctx := context.Background()

	first := historyResult("stig-rhel9",
		historyRecord("2.1", "Disable telnet"),
	)
	second := historyResult("stig-rhel9",
		historyRecord("2.1", "Disable telnet"),
		historyRecord("2.2", "Disable rsh"),
	)

	if _, err := db.SaveResult(ctx, first); err != nil {
		t.Fatalf("failed to save first run: %v", err)
	}
	if _, err := db.SaveResult(ctx, second); err != nil {
		t.Fatalf("failed to save second run: %v", err)
	}

	t.Run("compares latest two runs", func(t *testing.T) {
		if err := runComparison(ctx, db, "stig-rhel9", 0, false); err != nil {
			t.Fatalf("runComparison() error = %v", err)
		}
	})

	t.Run("requires two runs", func(t *testing.T) {
		only := historyResult("single-run-doc", historyRecord("1.1", "Only policy"))
		if _, err := db.SaveResult(ctx, only); err != nil {
			t.Fatalf("failed to save run: %v", err)
		}

		err := runComparison(ctx, db, "single-run-doc", 0, false)
		if err == nil {
			t.Error("expected error for single run")
		}
	})

	t.Run("rejects run from another document", func(t *testing.T) {
		other := historyResult("other-doc", historyRecord("9.9", "Other policy"))
		otherID, err := db.SaveResult(ctx, other)
		if err != nil {
			t.Fatalf("failed to save run: %v", err)
		}

		err = runComparison(ctx, db, "stig-rhel9", otherID, false)
		if err == nil {
			t.Error("expected error for run from another document")
		}
	})

	t.Run("errors on unknown document", func(t *testing.T) {
		err := runComparison(ctx, db, "never-extracted", 0, false)
		if err == nil {
			t.Error("expected error for unknown document")
		}
	})
}
