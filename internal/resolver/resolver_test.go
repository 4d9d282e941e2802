package resolver

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"d2ldates/internal/listing"
)

type fakeSnap struct {
	labels []string
	calls  int
	err    error
}

func (f *fakeSnap) Rows(ctx context.Context) ([]listing.Row, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	rows := make([]listing.Row, len(f.labels))
	for i, l := range f.labels {
		rows[i] = listing.Row{Ordinal: i, Label: l}
	}
	return rows, nil
}

func TestResolveLadder(t *testing.T) {
	tests := []struct {
		name      string
		labels    []string
		target    string
		wantLabel string
		wantStage string
	}{
		{
			name:      "containment wins first",
			labels:    []string{"Week 1 Reading", "Quiz 1 (Chapter 3)"},
			target:    "Quiz 1",
			wantLabel: "Quiz 1 (Chapter 3)",
			wantStage: "containment",
		},
		{
			name:      "dash variants via normalized equality",
			labels:    []string{"Quiz 1 – Key"},
			target:    "Quiz 1 - Key",
			wantLabel: "Quiz 1 – Key",
			wantStage: "normalized equality",
		},
		{
			name:      "case folded equality",
			labels:    []string{"FINAL EXAM"},
			target:    "Final Exam",
			wantLabel: "FINAL EXAM",
			wantStage: "normalized equality",
		},
		{
			name:      "emoji stripped equality",
			labels:    []string{"Final 🎉 Exam"},
			target:    "Final Exam",
			wantLabel: "Final 🎉 Exam",
			wantStage: "normalized equality",
		},
		{
			name:      "quote stripped containment",
			labels:    []string{"Essay Draft Submission"},
			target:    `"Essay" Draft`,
			wantLabel: "Essay Draft Submission",
			wantStage: "quote-stripped containment",
		},
		{
			name:      "filler stripped containment",
			labels:    []string{"Quiz 3"},
			target:    "Quiz 3 Key",
			wantLabel: "Quiz 3",
			wantStage: "filler-stripped containment",
		},
		{
			name:      "filler stripped equality",
			labels:    []string{"quiz 3 — review"},
			target:    "Quiz 3 - Review Key",
			wantLabel: "quiz 3 — review",
			wantStage: "filler-stripped equality",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New(&fakeSnap{labels: tt.labels}, Options{})
			m, err := r.Resolve(context.Background(), tt.target)
			if err != nil {
				t.Fatalf("Resolve(%q) error: %v", tt.target, err)
			}
			if m.Row.Label != tt.wantLabel {
				t.Errorf("Resolve(%q) = %q, want %q", tt.target, m.Row.Label, tt.wantLabel)
			}
			if m.Stage != tt.wantStage {
				t.Errorf("Resolve(%q) stage = %q, want %q", tt.target, m.Stage, tt.wantStage)
			}
		})
	}
}

func TestEqualityStageIsStrict(t *testing.T) {
	// The equality stage must never behave like containment: numbered
	// names that share a prefix stay distinct.
	var equality *stage
	ladder := stages("Essay 1", DefaultFillerTokens)
	for i := range ladder {
		if ladder[i].name == "normalized equality" {
			equality = &ladder[i]
		}
	}
	if equality == nil {
		t.Fatal("ladder missing normalized equality stage")
	}
	if equality.match("Essay 10") {
		t.Error("equality stage matched Essay 1 against Essay 10")
	}
	if !equality.match("essay 1") {
		t.Error("equality stage should fold case")
	}
}

func TestResolveNoPrefixCollision(t *testing.T) {
	r := New(&fakeSnap{labels: []string{"Essay 10 Review"}}, Options{})
	_, err := r.Resolve(context.Background(), "Essay 1 Review")
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("want NotFoundError, got %v", err)
	}
}

func TestResolveFirstDocumentOrderWins(t *testing.T) {
	r := New(&fakeSnap{labels: []string{"Quiz 2", "Weekly Quiz", "Quiz"}}, Options{})
	m, err := r.Resolve(context.Background(), "Quiz")
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if m.Row.Ordinal != 0 {
		t.Errorf("first match ordinal = %d, want 0", m.Row.Ordinal)
	}
	if m.Duplicates != 2 {
		t.Errorf("duplicates = %d, want 2", m.Duplicates)
	}
}

func TestResolveNotFoundCandidates(t *testing.T) {
	labels := make([]string, 15)
	for i := range labels {
		labels[i] = fmt.Sprintf("Assignment %d 📚", i+1)
	}
	r := New(&fakeSnap{labels: labels}, Options{})

	_, err := r.Resolve(context.Background(), "does not exist")
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("want NotFoundError, got %v", err)
	}
	if len(nf.Candidates) != DefaultCandidateLimit {
		t.Fatalf("candidates = %d, want %d", len(nf.Candidates), DefaultCandidateLimit)
	}
	// Verbatim: decorations survive into diagnostics.
	if nf.Candidates[0] != "Assignment 1 📚" {
		t.Errorf("candidate[0] = %q, want verbatim label", nf.Candidates[0])
	}
	if nf.Target != "does not exist" {
		t.Errorf("target = %q", nf.Target)
	}
}

func TestResolveRequeriesPerStage(t *testing.T) {
	snap := &fakeSnap{labels: []string{"Quiz 1 – Key"}}
	r := New(snap, Options{})
	if _, err := r.Resolve(context.Background(), "Quiz 1 - Key"); err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	// Containment misses (different dash), equality hits: two queries.
	if snap.calls != 2 {
		t.Errorf("snapshot queried %d times, want 2", snap.calls)
	}
}

func TestResolveEmptyTarget(t *testing.T) {
	r := New(&fakeSnap{}, Options{})
	if _, err := r.Resolve(context.Background(), "   "); err == nil {
		t.Error("empty target should error")
	}
}

func TestResolveSnapshotError(t *testing.T) {
	boom := errors.New("boom")
	r := New(&fakeSnap{err: boom}, Options{})
	_, err := r.Resolve(context.Background(), "Quiz 1")
	if !errors.Is(err, boom) {
		t.Errorf("want wrapped snapshot error, got %v", err)
	}
}
