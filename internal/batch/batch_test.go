package batch

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"d2ldates/internal/editor"
	"d2ldates/internal/listing"
	"d2ldates/internal/plan"
	"d2ldates/internal/resolver"
)

type fakeResolver struct {
	labels     map[string]string // target -> row label
	candidates []string
	calls      []string
}

func (f *fakeResolver) Resolve(ctx context.Context, target string) (resolver.Match, error) {
	f.calls = append(f.calls, target)
	if label, ok := f.labels[target]; ok {
		return resolver.Match{Row: listing.Row{Ordinal: 0, Label: label}, Stage: "containment"}, nil
	}
	return resolver.Match{}, &resolver.NotFoundError{Target: target, Candidates: f.candidates}
}

type fakeFinder struct {
	noTrigger map[string]bool
}

func (f *fakeFinder) FindTrigger(ctx context.Context, row listing.Row, kind listing.FieldKind) (listing.Trigger, error) {
	if f.noTrigger[row.Label] {
		return listing.Trigger{}, &listing.NoTriggerError{Label: row.Label, Kind: kind}
	}
	return listing.Trigger{Row: row, Kind: kind, Mark: "m0"}, nil
}

type fakeEditor struct {
	ops     []string
	fail    map[string]error // "label/kind" -> error
	noApply map[string]bool  // "label/kind" -> outcome with nothing applied
	panicOn string
	onEdit  func()
}

func (f *fakeEditor) Edit(ctx context.Context, t listing.Trigger, dateStr, timeStr string) (editor.Outcome, error) {
	key := t.Row.Label + "/" + t.Kind.String()
	f.ops = append(f.ops, key)
	if f.onEdit != nil {
		f.onEdit()
	}
	if key == f.panicOn {
		panic("dialog state corrupted")
	}
	if err := f.fail[key]; err != nil {
		return editor.Outcome{}, err
	}
	if f.noApply[key] {
		return editor.Outcome{}, nil
	}
	return editor.Outcome{DateApplied: dateStr != "", TimeApplied: timeStr != "", Committed: true}, nil
}

type recObserver struct {
	statuses  []string
	processed int
	errCount  int
	completed bool
}

func (o *recObserver) OnStatus(msg string) { o.statuses = append(o.statuses, msg) }
func (o *recObserver) OnComplete(p, e int) {
	o.processed, o.errCount, o.completed = p, e, true
}

func newTestCoordinator(res *fakeResolver, find *fakeFinder, ed *fakeEditor, obs Observer, cfg Config) *Coordinator {
	if res == nil {
		res = &fakeResolver{labels: map[string]string{}}
	}
	if find == nil {
		find = &fakeFinder{}
	}
	return New(res, find, ed, obs, cfg, zerolog.Nop())
}

func TestRunCounts(t *testing.T) {
	// Four records: due-only, start-only, both, empty name. Three get
	// processed, nothing errors, the empty name touches no counter.
	records := []plan.Record{
		{Name: "Quiz A", DueDate: "10/19/2025", DueTime: "11:59 PM"},
		{Name: "Quiz B", StartDate: "10/13/2025", StartTime: "9:00 AM"},
		{Name: "Quiz C", StartDate: "10/13/2025", StartTime: "9:00 AM", DueDate: "10/19/2025", DueTime: "11:59 PM"},
		{Name: "", DueDate: "10/19/2025", DueTime: "11:59 PM"},
	}
	res := &fakeResolver{labels: map[string]string{"Quiz A": "Quiz A", "Quiz B": "Quiz B", "Quiz C": "Quiz C"}}
	ed := &fakeEditor{}
	obs := &recObserver{}

	sum := newTestCoordinator(res, nil, ed, obs, Config{}).Run(context.Background(), records)

	if sum.Processed != 3 || sum.Errors != 0 {
		t.Errorf("summary = %d processed, %d errors; want 3, 0", sum.Processed, sum.Errors)
	}
	if len(sum.Records) != 4 {
		t.Fatalf("records = %d, want 4", len(sum.Records))
	}
	if !sum.Records[3].Skipped {
		t.Error("empty-name record should be marked skipped")
	}
	if !obs.completed || obs.processed != 3 || obs.errCount != 0 {
		t.Errorf("observer complete = %v (%d, %d)", obs.completed, obs.processed, obs.errCount)
	}
	if len(ed.ops) != 4 {
		t.Errorf("edits = %v, want 4 field edits", ed.ops)
	}
}

func TestRunDueBeforeStart(t *testing.T) {
	records := []plan.Record{{
		Name:      "Quiz C",
		StartDate: "10/13/2025", StartTime: "9:00 AM",
		DueDate: "10/19/2025", DueTime: "11:59 PM",
	}}
	res := &fakeResolver{labels: map[string]string{"Quiz C": "Quiz C"}}
	ed := &fakeEditor{}

	newTestCoordinator(res, nil, ed, nil, Config{}).Run(context.Background(), records)

	want := []string{"Quiz C/due", "Quiz C/start"}
	if strings.Join(ed.ops, " ") != strings.Join(want, " ") {
		t.Errorf("ops = %v, want %v", ed.ops, want)
	}
}

func TestRunFieldWithoutTimeIsNoOp(t *testing.T) {
	records := []plan.Record{
		{Name: "Quiz A", DueDate: "10/19/2025"}, // time missing
		{Name: "Quiz B", DueTime: "11:59 PM"},   // date missing
	}
	res := &fakeResolver{labels: map[string]string{"Quiz A": "Quiz A", "Quiz B": "Quiz B"}}
	ed := &fakeEditor{}

	sum := newTestCoordinator(res, nil, ed, nil, Config{}).Run(context.Background(), records)

	if sum.Processed != 0 || sum.Errors != 0 {
		t.Errorf("summary = %d, %d; want no-ops", sum.Processed, sum.Errors)
	}
	if len(ed.ops) != 0 {
		t.Errorf("no edits expected, got %v", ed.ops)
	}
}

func TestRunFailureIsolation(t *testing.T) {
	// Due fails, start still runs and succeeds: one error, one processed.
	records := []plan.Record{{
		Name:      "Quiz C",
		StartDate: "10/13/2025", StartTime: "9:00 AM",
		DueDate: "10/19/2025", DueTime: "11:59 PM",
	}, {
		Name:    "Quiz D",
		DueDate: "10/20/2025", DueTime: "5:00 PM",
	}}
	res := &fakeResolver{labels: map[string]string{"Quiz C": "Quiz C", "Quiz D": "Quiz D"}}
	ed := &fakeEditor{fail: map[string]error{
		"Quiz C/due": &editor.SessionError{Step: "dialog", Kind: listing.Due, Reason: "dialog did not appear"},
	}}

	sum := newTestCoordinator(res, nil, ed, nil, Config{}).Run(context.Background(), records)

	if sum.Processed != 2 || sum.Errors != 1 {
		t.Errorf("summary = %d processed, %d errors; want 2, 1", sum.Processed, sum.Errors)
	}
	if len(ed.ops) != 3 {
		t.Errorf("ops = %v; start and next record must still run", ed.ops)
	}
	due := sum.Records[0].Fields[0]
	if !due.Failed || due.Reason == "" {
		t.Errorf("failed field must carry a reason, got %+v", due)
	}
}

func TestRunBothFieldsFail(t *testing.T) {
	records := []plan.Record{{
		Name:      "Quiz C",
		StartDate: "10/13/2025", StartTime: "9:00 AM",
		DueDate: "10/19/2025", DueTime: "11:59 PM",
	}}
	res := &fakeResolver{labels: map[string]string{"Quiz C": "Quiz C"}}
	ed := &fakeEditor{fail: map[string]error{
		"Quiz C/due":   errors.New("due broke"),
		"Quiz C/start": errors.New("start broke"),
	}}

	sum := newTestCoordinator(res, nil, ed, nil, Config{}).Run(context.Background(), records)

	if sum.Processed != 0 || sum.Errors != 2 {
		t.Errorf("summary = %d processed, %d errors; want 0, 2", sum.Processed, sum.Errors)
	}
}

func TestRunResolutionFailureCandidates(t *testing.T) {
	records := []plan.Record{{Name: "Ghost Quiz", DueDate: "10/19/2025", DueTime: "11:59 PM"}}
	res := &fakeResolver{
		labels:     map[string]string{},
		candidates: []string{"Quiz 1", "Quiz 2", "Essay 1"},
	}
	obs := &recObserver{}

	sum := newTestCoordinator(res, nil, &fakeEditor{}, obs, Config{}).Run(context.Background(), records)

	if sum.Errors != 1 || sum.Processed != 0 {
		t.Errorf("summary = %d, %d; want 0 processed, 1 error", sum.Processed, sum.Errors)
	}
	fr := sum.Records[0].Fields[0]
	if len(fr.Candidates) != 3 {
		t.Errorf("candidates = %v, want the live labels", fr.Candidates)
	}
	joined := strings.Join(obs.statuses, "\n")
	if !strings.Contains(joined, "Quiz 2") {
		t.Errorf("statuses should list candidate labels verbatim:\n%s", joined)
	}
}

func TestRunNoTriggerIsDistinct(t *testing.T) {
	records := []plan.Record{{Name: "Quiz A", DueDate: "10/19/2025", DueTime: "11:59 PM"}}
	res := &fakeResolver{labels: map[string]string{"Quiz A": "Quiz A"}}
	find := &fakeFinder{noTrigger: map[string]bool{"Quiz A": true}}

	sum := newTestCoordinator(res, find, &fakeEditor{}, nil, Config{}).Run(context.Background(), records)

	fr := sum.Records[0].Fields[0]
	if !fr.Failed {
		t.Fatal("missing trigger should fail the field")
	}
	if !strings.Contains(fr.Reason, "no due trigger") {
		t.Errorf("reason = %q, want a no-trigger reason, not a resolution miss", fr.Reason)
	}
	if len(fr.Candidates) != 0 {
		t.Error("no-trigger failures carry no candidate list; the row was found")
	}
}

func TestRunPanicRecovered(t *testing.T) {
	records := []plan.Record{
		{Name: "Quiz A", DueDate: "10/19/2025", DueTime: "11:59 PM"},
		{Name: "Quiz B", DueDate: "10/20/2025", DueTime: "5:00 PM"},
	}
	res := &fakeResolver{labels: map[string]string{"Quiz A": "Quiz A", "Quiz B": "Quiz B"}}
	ed := &fakeEditor{panicOn: "Quiz A/due"}

	sum := newTestCoordinator(res, nil, ed, nil, Config{}).Run(context.Background(), records)

	if sum.Processed != 1 || sum.Errors != 1 {
		t.Errorf("summary = %d processed, %d errors; want 1, 1", sum.Processed, sum.Errors)
	}
	if len(ed.ops) != 2 {
		t.Errorf("second record must still run after a panic, ops = %v", ed.ops)
	}
	reason := sum.Records[0].Fields[len(sum.Records[0].Fields)-1].Reason
	if !strings.Contains(reason, "panic") {
		t.Errorf("panic should be reported as the failure reason, got %q", reason)
	}
}

func TestRunNoApplyCountsAsError(t *testing.T) {
	records := []plan.Record{{Name: "Quiz A", DueDate: "10/19/2025", DueTime: "11:59 PM"}}
	res := &fakeResolver{labels: map[string]string{"Quiz A": "Quiz A"}}
	ed := &fakeEditor{noApply: map[string]bool{"Quiz A/due": true}}

	sum := newTestCoordinator(res, nil, ed, nil, Config{}).Run(context.Background(), records)

	if sum.Processed != 0 || sum.Errors != 1 {
		t.Errorf("summary = %d, %d; a session that applied nothing is an error", sum.Processed, sum.Errors)
	}
}

func TestRunAliases(t *testing.T) {
	records := []plan.Record{{Name: "Quiz Template", DueDate: "10/19/2025", DueTime: "11:59 PM"}}
	res := &fakeResolver{labels: map[string]string{"Quiz 1: Foundations": "Quiz 1: Foundations"}}
	cfg := Config{Aliases: map[string]string{"Quiz Template": "Quiz 1: Foundations"}}

	sum := newTestCoordinator(res, nil, &fakeEditor{}, nil, cfg).Run(context.Background(), records)

	if sum.Processed != 1 {
		t.Errorf("aliased record should resolve, summary = %+v", sum)
	}
	if len(res.calls) == 0 || res.calls[0] != "Quiz 1: Foundations" {
		t.Errorf("resolver saw %v, want the aliased target", res.calls)
	}
	if sum.Records[0].Target != "Quiz 1: Foundations" {
		t.Errorf("report target = %q", sum.Records[0].Target)
	}
}

func TestRunCancelledBetweenRecords(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	records := []plan.Record{
		{Name: "Quiz A", DueDate: "10/19/2025", DueTime: "11:59 PM"},
		{Name: "Quiz B", DueDate: "10/20/2025", DueTime: "5:00 PM"},
	}
	res := &fakeResolver{labels: map[string]string{"Quiz A": "Quiz A", "Quiz B": "Quiz B"}}
	ed := &fakeEditor{}
	ed.onEdit = func() { cancel() } // fires during the first edit

	sum := newTestCoordinator(res, nil, ed, nil, Config{}).Run(ctx, records)

	if !sum.Stopped {
		t.Error("summary should be marked stopped")
	}
	if len(ed.ops) != 1 {
		t.Errorf("second record must not start after cancellation, ops = %v", ed.ops)
	}
	// The first record's edit finished; its outcome still counts.
	if sum.Processed != 1 {
		t.Errorf("processed = %d, want 1", sum.Processed)
	}
}

func TestRunFieldHook(t *testing.T) {
	var hooked []string
	records := []plan.Record{{
		Name:      "Quiz C",
		StartDate: "10/13/2025", StartTime: "9:00 AM",
		DueDate: "10/19/2025", DueTime: "11:59 PM",
	}}
	res := &fakeResolver{labels: map[string]string{"Quiz C": "Quiz C"}}
	cfg := Config{FieldHook: func(name string, fr FieldReport) {
		hooked = append(hooked, name+"/"+fr.Kind)
	}}

	newTestCoordinator(res, nil, &fakeEditor{}, nil, cfg).Run(context.Background(), records)

	if len(hooked) != 2 || hooked[0] != "Quiz C/due" || hooked[1] != "Quiz C/start" {
		t.Errorf("hooked = %v", hooked)
	}
}
