// Package plan loads the CSV files that drive a batch run.
//
// A plan names entities and supplies up to two date+time pairs per row.
// Header validation happens here, before any browser work: a misnamed
// column would otherwise silently skip every field in the file.
package plan

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"d2ldates/internal/listing"
)

// RequiredHeaders are the column names a plan must carry, exactly as the
// template spells them. Column order is free and extra columns are
// ignored.
var RequiredHeaders = []string{"Name", "Start Date", "Start Time", "Due Date", "Due Time"}

// Record is one plan row. Cells are trimmed; an empty cell means "leave
// that component alone".
type Record struct {
	Name      string
	StartDate string
	StartTime string
	DueDate   string
	DueTime   string
	// Line is the 1-based line number in the file, for diagnostics.
	Line int
}

// Field returns the date and time cells for a kind.
func (r Record) Field(kind listing.FieldKind) (date, clock string) {
	if kind == listing.Due {
		return r.DueDate, r.DueTime
	}
	return r.StartDate, r.StartTime
}

// RequestedKinds lists the kinds this record actually asks to edit: a
// field needs both its date and its time cell.
func (r Record) RequestedKinds() []listing.FieldKind {
	var kinds []listing.FieldKind
	for _, k := range listing.Kinds() {
		date, clock := r.Field(k)
		if date != "" && clock != "" {
			kinds = append(kinds, k)
		}
	}
	return kinds
}

// HeaderError reports required headers missing from a plan. It is fatal:
// nothing should touch the browser when the file cannot be trusted.
type HeaderError struct {
	Missing []string
	Found   []string
}

func (e *HeaderError) Error() string {
	return fmt.Sprintf("plan is missing required header(s): %s", strings.Join(e.Missing, ", "))
}

// Plan is a loaded CSV.
type Plan struct {
	Path    string
	Records []Record
}

// Load reads and validates a plan file.
func Load(path string) (*Plan, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open plan: %w", err)
	}
	defer f.Close()

	p, err := Parse(f)
	if err != nil {
		return nil, err
	}
	p.Path = path
	return p, nil
}

// Parse reads a plan from a reader.
func Parse(r io.Reader) (*Plan, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // ragged rows read as short; missing cells become empty
	cr.TrimLeadingSpace = true

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse plan csv: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("plan has no header row")
	}

	header := rows[0]
	// Excel writes a BOM in front of the first header cell.
	header[0] = strings.TrimPrefix(header[0], "\uFEFF")

	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.TrimSpace(h)] = i
	}

	var missing []string
	for _, h := range RequiredHeaders {
		if _, ok := idx[h]; !ok {
			missing = append(missing, h)
		}
	}
	if len(missing) > 0 {
		return nil, &HeaderError{Missing: missing, Found: header}
	}

	cell := func(row []string, name string) string {
		if i := idx[name]; i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	p := &Plan{}
	for n, row := range rows[1:] {
		p.Records = append(p.Records, Record{
			Name:      cell(row, "Name"),
			StartDate: cell(row, "Start Date"),
			StartTime: cell(row, "Start Time"),
			DueDate:   cell(row, "Due Date"),
			DueTime:   cell(row, "Due Time"),
			Line:      n + 2,
		})
	}
	return p, nil
}
