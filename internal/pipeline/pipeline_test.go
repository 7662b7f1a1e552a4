package pipeline

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/nao1215/benchscan/internal/model"
)

// recordingStep is a test step that records its execution and optionally
// fails.
type recordingStep struct {
	name     string
	err      error
	executed *[]string
}

func (s *recordingStep) Name() string { return s.name }

func (s *recordingStep) Do(_ context.Context, _ *Extraction) error {
	*s.executed = append(*s.executed, s.name)
	return s.err
}

// TestPipelineExecuteOrder tests that steps run in registration order.
func TestPipelineExecuteOrder(t *testing.T) {
	t.Parallel()

	var executed []string
	p := New()
	p.AddSteps(
		&recordingStep{name: "first", executed: &executed},
		&recordingStep{name: "second", executed: &executed},
		&recordingStep{name: "third", executed: &executed},
	)

	ex := NewExtraction(model.Document{ID: "doc"}, nil)
	if err := p.Execute(context.Background(), ex); err != nil {
		t.Fatalf("Execute(): %v", err)
	}

	expected := []string{"first", "second", "third"}
	if !slices.Equal(executed, expected) {
		t.Errorf("execution order: got %v, expected %v", executed, expected)
	}
	if got := p.StepNames(); !slices.Equal(got, expected) {
		t.Errorf("StepNames(): got %v, expected %v", got, expected)
	}
	if p.StepCount() != 3 {
		t.Errorf("StepCount(): got %d, expected 3", p.StepCount())
	}
}

// TestPipelineStopsOnError tests the default fail-fast behavior.
func TestPipelineStopsOnError(t *testing.T) {
	t.Parallel()

	stepErr := errors.New("scan exploded")
	var executed []string
	p := New()
	p.AddSteps(
		&recordingStep{name: "first", err: stepErr, executed: &executed},
		&recordingStep{name: "second", executed: &executed},
	)

	ex := NewExtraction(model.Document{ID: "doc"}, nil)
	err := p.Execute(context.Background(), ex)

	if !errors.Is(err, stepErr) {
		t.Errorf("Execute(): got %v, expected step error", err)
	}
	if len(executed) != 1 {
		t.Errorf("executed steps: got %v, expected only the failing step", executed)
	}
	if !ex.Result.Summary.Failed() {
		t.Error("expected the error recorded on the summary")
	}
	if ex.Result.Summary.ErrorMessage != stepErr.Error() {
		t.Errorf("error message: got %q", ex.Result.Summary.ErrorMessage)
	}
}

// TestPipelineContinueOnError tests that the option keeps later steps
// running after a failure.
func TestPipelineContinueOnError(t *testing.T) {
	t.Parallel()

	var executed []string
	p := New(WithContinueOnError(true))
	p.AddSteps(
		&recordingStep{name: "first", err: errors.New("boom"), executed: &executed},
		&recordingStep{name: "second", executed: &executed},
	)

	ex := NewExtraction(model.Document{ID: "doc"}, nil)
	if err := p.Execute(context.Background(), ex); err != nil {
		t.Fatalf("Execute(): %v", err)
	}

	if len(executed) != 2 {
		t.Errorf("executed steps: got %v, expected both", executed)
	}
	if !ex.Result.Summary.Failed() {
		t.Error("expected the error recorded on the summary even when continuing")
	}
}

// TestPipelineCancellation tests that a cancelled context stops the run
// and marks the summary.
func TestPipelineCancellation(t *testing.T) {
	t.Parallel()

	var executed []string
	p := New()
	p.AddStep(&recordingStep{name: "never", executed: &executed})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ex := NewExtraction(model.Document{ID: "doc"}, nil)
	err := p.Execute(ctx, ex)

	if !errors.Is(err, context.Canceled) {
		t.Errorf("Execute(): got %v, expected context.Canceled", err)
	}
	if len(executed) != 0 {
		t.Errorf("executed steps: got %v, expected none", executed)
	}
	if !ex.Result.Summary.Failed() {
		t.Error("expected cancellation recorded on the summary")
	}
}

// TestExtractionProgress tests the progress plumbing, including the nil
// callback no-op.
func TestExtractionProgress(t *testing.T) {
	t.Parallel()

	t.Run("callback receives updates", func(t *testing.T) {
		t.Parallel()

		type update struct {
			percent int
			phase   model.Phase
		}
		var updates []update
		ex := NewExtraction(model.Document{ID: "doc"}, func(documentID string, percent int, phase model.Phase, _ string) {
			if documentID != "doc" {
				t.Errorf("document id: got %q", documentID)
			}
			updates = append(updates, update{percent, phase})
		})

		ex.ReportProgress(10, model.PhaseScan, "start")
		ex.ReportProgress(100, model.PhaseFinalize, "done")

		if len(updates) != 2 {
			t.Fatalf("updates: got %d, expected 2", len(updates))
		}
		if updates[0].percent != 10 || updates[0].phase != model.PhaseScan {
			t.Errorf("first update: got %+v", updates[0])
		}
		if updates[1].percent != 100 || updates[1].phase != model.PhaseFinalize {
			t.Errorf("second update: got %+v", updates[1])
		}
	})

	t.Run("nil callback is a no-op", func(t *testing.T) {
		t.Parallel()

		ex := NewExtraction(model.Document{ID: "doc"}, nil)
		ex.ReportProgress(50, model.PhaseScan, "must not panic")
	})
}
