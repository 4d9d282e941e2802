package plan

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"d2ldates/internal/listing"
)

const sampleCSV = `Name,Start Date,Start Time,Due Date,Due Time
Quiz 1,10/13/2025,9:00 AM,10/19/2025,11:59 PM
Essay Draft,,,10/20/2025,2:30 PM
Reading Week,10/21/2025,8:00 AM,,
,,,,
`

func TestParse(t *testing.T) {
	p, err := Parse(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if len(p.Records) != 4 {
		t.Fatalf("records = %d, want 4", len(p.Records))
	}

	quiz := p.Records[0]
	if quiz.Name != "Quiz 1" || quiz.DueDate != "10/19/2025" || quiz.DueTime != "11:59 PM" {
		t.Errorf("record[0] = %+v", quiz)
	}
	if quiz.Line != 2 {
		t.Errorf("record[0] line = %d, want 2", quiz.Line)
	}

	essay := p.Records[1]
	if essay.StartDate != "" || essay.DueDate != "10/20/2025" {
		t.Errorf("record[1] = %+v", essay)
	}

	if empty := p.Records[3]; empty.Name != "" {
		t.Errorf("record[3] should keep its empty name, got %+v", empty)
	}
}

func TestParseHeaderOrderFree(t *testing.T) {
	csv := "Due Time,Due Date,Name,Start Time,Start Date,Points\n11:59 PM,10/19/2025,Quiz 1,,,10\n"
	p, err := Parse(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	rec := p.Records[0]
	if rec.Name != "Quiz 1" || rec.DueDate != "10/19/2025" || rec.DueTime != "11:59 PM" {
		t.Errorf("record = %+v", rec)
	}
}

func TestParseBOM(t *testing.T) {
	p, err := Parse(strings.NewReader("\uFEFF" + sampleCSV))
	if err != nil {
		t.Fatalf("Parse with BOM error: %v", err)
	}
	if p.Records[0].Name != "Quiz 1" {
		t.Errorf("record[0] = %+v", p.Records[0])
	}
}

func TestParseMissingHeaders(t *testing.T) {
	csv := "Name,Due Date,Due Time\nQuiz 1,10/19/2025,11:59 PM\n"
	_, err := Parse(strings.NewReader(csv))
	var he *HeaderError
	if !errors.As(err, &he) {
		t.Fatalf("want HeaderError, got %v", err)
	}
	if len(he.Missing) != 2 {
		t.Errorf("missing = %v, want Start Date and Start Time", he.Missing)
	}
}

func TestParseEmpty(t *testing.T) {
	if _, err := Parse(strings.NewReader("")); err == nil {
		t.Error("empty input should error")
	}
}

func TestRecordField(t *testing.T) {
	rec := Record{StartDate: "a", StartTime: "b", DueDate: "c", DueTime: "d"}
	if d, c := rec.Field(listing.Due); d != "c" || c != "d" {
		t.Errorf("due field = %q %q", d, c)
	}
	if d, c := rec.Field(listing.Start); d != "a" || c != "b" {
		t.Errorf("start field = %q %q", d, c)
	}
}

func TestRequestedKinds(t *testing.T) {
	tests := []struct {
		rec  Record
		want int
	}{
		{Record{DueDate: "10/19/2025", DueTime: "11:59 PM"}, 1},
		{Record{StartDate: "10/19/2025", StartTime: "9 AM", DueDate: "10/20/2025", DueTime: "5 PM"}, 2},
		{Record{DueDate: "10/19/2025"}, 0}, // date without time is not a request
		{Record{DueTime: "11:59 PM"}, 0},
		{Record{}, 0},
	}
	for _, tt := range tests {
		if got := len(tt.rec.RequestedKinds()); got != tt.want {
			t.Errorf("RequestedKinds(%+v) = %d, want %d", tt.rec, got, tt.want)
		}
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plan.csv")
	if err := os.WriteFile(path, []byte(sampleCSV), 0o644); err != nil {
		t.Fatal(err)
	}

	p, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if p.Path != path || len(p.Records) != 4 {
		t.Errorf("plan = path %q, %d records", p.Path, len(p.Records))
	}

	if _, err := Load(filepath.Join(dir, "absent.csv")); err == nil {
		t.Error("missing file should error")
	}
}

func TestLoadAliases(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "aliases.yaml")
	body := "Quiz 1 Template: 'Quiz 1: Foundations'\nFinal: Final Exam\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	aliases, err := LoadAliases(path)
	if err != nil {
		t.Fatalf("LoadAliases error: %v", err)
	}
	if aliases["Quiz 1 Template"] != "Quiz 1: Foundations" {
		t.Errorf("aliases = %v", aliases)
	}

	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("not: [valid"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadAliases(bad); err == nil {
		t.Error("malformed yaml should error")
	}
}
