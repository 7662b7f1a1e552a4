package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/nao1215/benchscan/internal/dedup"
	"github.com/nao1215/benchscan/internal/model"
	"github.com/nao1215/benchscan/internal/pattern"
)

// memSource is an in-memory DocumentSource for tests.
type memSource struct {
	id  string
	doc model.Document
	err error
}

func (s *memSource) ID() string { return s.id }

func (s *memSource) Load(_ context.Context) (model.Document, error) {
	if s.err != nil {
		return model.Document{}, s.err
	}
	return s.doc, nil
}

// policyPage builds a minimal page with one extractable policy block.
func policyPage(category, section, name string) string {
	return strings.Join([]string{
		"1 " + category,
		section + " Ensure '" + name + "' is set to 'Enabled'",
	}, "\n")
}

func testFactory() *Pipeline {
	return DefaultPipeline(pattern.Default(), nil)
}

// TestProcessBatch tests concurrent extraction with an isolated failure.
func TestProcessBatch(t *testing.T) {
	t.Parallel()

	sources := []DocumentSource{
		&memSource{
			id:  "first",
			doc: model.Document{ID: "first", Pages: []string{policyPage("Account Policies", "1.1.1", "Alpha")}},
		},
		&memSource{
			id:  "corrupted",
			err: errors.New("decode pdf: malformed xref table"),
		},
		&memSource{
			id:  "third",
			doc: model.Document{ID: "third", Pages: []string{policyPage("Local Policies", "2.1.1", "Beta")}},
		},
	}

	bp := NewBatchProcessor(testFactory, WithConcurrency(2))
	batch, err := bp.ProcessBatch(context.Background(), sources)
	if err != nil {
		t.Fatalf("ProcessBatch(): %v", err)
	}

	if batch.Succeeded != 2 {
		t.Errorf("succeeded: got %d, expected 2", batch.Succeeded)
	}
	if batch.Failed != 1 {
		t.Errorf("failed: got %d, expected 1", batch.Failed)
	}
	if batch.TotalRecords != 2 {
		t.Errorf("total records: got %d, expected 2 from the successful documents", batch.TotalRecords)
	}

	// Results keep input order, with the failed document in place.
	if len(batch.Results) != 3 {
		t.Fatalf("results: got %d, expected 3", len(batch.Results))
	}
	if batch.Results[0].Summary.DocumentID != "first" {
		t.Errorf("result 0: got %q", batch.Results[0].Summary.DocumentID)
	}
	failed := batch.Results[1]
	if !failed.Summary.Failed() {
		t.Error("expected the corrupted document marked failed")
	}
	if !strings.Contains(failed.Summary.ErrorMessage, "malformed xref") {
		t.Errorf("error message: got %q", failed.Summary.ErrorMessage)
	}
	if len(failed.Records) != 0 {
		t.Errorf("failed document records: got %d, expected 0", len(failed.Records))
	}

	if got := batch.FailedResults(); len(got) != 1 || got[0].Summary.DocumentID != "corrupted" {
		t.Errorf("FailedResults(): got %v", got)
	}
}

// TestProcessBatchProgress tests that per-document progress reaches the
// shared callback.
func TestProcessBatchProgress(t *testing.T) {
	t.Parallel()

	sources := []DocumentSource{
		&memSource{
			id:  "only",
			doc: model.Document{ID: "only", Pages: []string{policyPage("Account Policies", "1.1.1", "Alpha")}},
		},
	}

	var mu sync.Mutex
	finals := make(map[string]int)
	bp := NewBatchProcessor(testFactory,
		WithProgress(func(documentID string, percent int, _ model.Phase, _ string) {
			mu.Lock()
			finals[documentID] = percent
			mu.Unlock()
		}),
	)

	if _, err := bp.ProcessBatch(context.Background(), sources); err != nil {
		t.Fatalf("ProcessBatch(): %v", err)
	}

	if finals["only"] != 100 {
		t.Errorf("final progress: got %d, expected 100", finals["only"])
	}
}

// TestProcessBatchCancellation tests that a cancelled context aborts the
// batch.
func TestProcessBatchCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sources := []DocumentSource{
		&memSource{id: "doc", doc: model.Document{ID: "doc", Pages: []string{"x"}}},
	}

	bp := NewBatchProcessor(testFactory)
	_, err := bp.ProcessBatch(ctx, sources)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("ProcessBatch(): got %v, expected context.Canceled", err)
	}
}

// TestProcessBatchWithCallback tests the streaming variant.
func TestProcessBatchWithCallback(t *testing.T) {
	t.Parallel()

	sources := []DocumentSource{
		&memSource{
			id:  "a",
			doc: model.Document{ID: "a", Pages: []string{policyPage("Account Policies", "1.1.1", "Alpha")}},
		},
		&memSource{
			id:  "b",
			doc: model.Document{ID: "b", Pages: []string{policyPage("Local Policies", "2.1.1", "Beta")}},
		},
	}

	var mu sync.Mutex
	byIndex := make(map[int]string)
	bp := NewBatchProcessor(testFactory)
	err := bp.ProcessBatchWithCallback(context.Background(), sources,
		func(result *model.ExtractionResult, index int) {
			mu.Lock()
			byIndex[index] = result.Summary.DocumentID
			mu.Unlock()
		})
	if err != nil {
		t.Fatalf("ProcessBatchWithCallback(): %v", err)
	}

	if byIndex[0] != "a" || byIndex[1] != "b" {
		t.Errorf("callback results: got %v", byIndex)
	}
}

// TestCrossDocumentDedup tests the flag-only near-duplicate pass across
// documents.
func TestCrossDocumentDedup(t *testing.T) {
	t.Parallel()

	sources := []DocumentSource{
		&memSource{
			id:  "a",
			doc: model.Document{ID: "a", Pages: []string{policyPage("Account Policies", "1.1.1", "Password History")}},
		},
		&memSource{
			id:  "b",
			doc: model.Document{ID: "b", Pages: []string{policyPage("Account Policies", "1.1.1", "Password Histroy")}},
		},
	}

	bp := NewBatchProcessor(testFactory, WithCrossDocumentDedup(dedup.New()))
	batch, err := bp.ProcessBatch(context.Background(), sources)
	if err != nil {
		t.Fatalf("ProcessBatch(): %v", err)
	}

	// Both documents keep their own record; the pass flags, never merges.
	if batch.TotalRecords != 2 {
		t.Errorf("total records: got %d, expected 2", batch.TotalRecords)
	}
	for _, r := range batch.Results {
		if len(r.Records) != 1 {
			t.Fatalf("document %q records: got %d, expected 1", r.Summary.DocumentID, len(r.Records))
		}
		rec := r.Records[0]
		if !rec.NeedsReview {
			t.Errorf("record %q not flagged across documents", rec.PolicyName)
		}
		if len(rec.SimilarTo) == 0 {
			t.Errorf("record %q has no similar_to reference", rec.PolicyName)
		}
	}
}
