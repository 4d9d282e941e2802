package history

import (
	"errors"
	"testing"
	"time"
)

func testRun() Run {
	start := time.Date(2025, 10, 1, 9, 0, 0, 0, time.UTC)
	return Run{
		StartedAt:  start,
		FinishedAt: start.Add(90 * time.Second),
		Course:     "BIO 101",
		Plan:       "dates.csv",
		Records:    4,
		Processed:  3,
		Errors:     1,
	}
}

func TestRecordAndReadRun(t *testing.T) {
	s, err := OpenInMemory()
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	fields := []Field{
		{Record: "Quiz 1", Target: "Quiz 1", Kind: "due", Date: "10/19/2025", Time: "2:30 PM",
			DateApplied: true, TimeApplied: true, Committed: true},
		{Record: "Quiz 1", Target: "Quiz 1", Kind: "start", Date: "10/12/2025", Time: "8:00 AM",
			DateApplied: true, TimeApplied: true, Committed: true},
		{Record: "Ghost Quiz", Kind: "due", Date: "11/1/2025", Time: "1:00 PM",
			Failed: true, Reason: `no row matching "Ghost Quiz"`},
	}

	id, err := s.RecordRun(testRun(), fields)
	if err != nil {
		t.Fatalf("RecordRun: %v", err)
	}
	if id == 0 {
		t.Fatal("run id is zero")
	}

	run, err := s.GetRun(id)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if run.Course != "BIO 101" || run.Processed != 3 || run.Errors != 1 || run.Stopped {
		t.Errorf("run = %+v", run)
	}
	if !run.StartedAt.Equal(testRun().StartedAt) {
		t.Errorf("StartedAt = %v, want %v", run.StartedAt, testRun().StartedAt)
	}

	got, err := s.RunFields(id)
	if err != nil {
		t.Fatalf("RunFields: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d fields, want 3", len(got))
	}
	if got[0].Kind != "due" || !got[0].Committed {
		t.Errorf("first field = %+v", got[0])
	}
	if !got[2].Failed || got[2].Reason == "" {
		t.Errorf("failed field = %+v", got[2])
	}
}

func TestRecentRunsOrder(t *testing.T) {
	s, err := OpenInMemory()
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	for i := 0; i < 3; i++ {
		run := testRun()
		run.Plan = []string{"a.csv", "b.csv", "c.csv"}[i]
		if _, err := s.RecordRun(run, nil); err != nil {
			t.Fatalf("RecordRun: %v", err)
		}
	}

	runs, err := s.RecentRuns(2)
	if err != nil {
		t.Fatalf("RecentRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("got %d runs, want 2", len(runs))
	}
	if runs[0].Plan != "c.csv" || runs[1].Plan != "b.csv" {
		t.Errorf("runs out of order: %s, %s", runs[0].Plan, runs[1].Plan)
	}
}

func TestGetRunNotFound(t *testing.T) {
	s, err := OpenInMemory()
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	if _, err := s.GetRun(99); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("err = %v, want ErrRunNotFound", err)
	}
}

func TestOpenOnDisk(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(dir)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	id, err := s.RecordRun(testRun(), []Field{{Record: "Quiz 1", Kind: "due"}})
	if err != nil {
		t.Fatalf("RecordRun: %v", err)
	}
	s.Close()

	// Reopen and read back.
	s2, err := Open(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()

	run, err := s2.GetRun(id)
	if err != nil {
		t.Fatalf("GetRun after reopen: %v", err)
	}
	if run.Course != "BIO 101" {
		t.Errorf("course = %q", run.Course)
	}
}
