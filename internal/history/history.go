// Package history journals batch runs to SQLite.
//
// One row per run, one row per field edit inside it. The journal answers
// "what did the last run do" after the terminal scrollback is gone, and
// gives failed records a place to be re-read before a retry.
package history

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// ErrRunNotFound indicates the requested run ID is not in the journal.
var ErrRunNotFound = errors.New("run not found in history")

// Run is one batch run.
type Run struct {
	ID         int64
	StartedAt  time.Time
	FinishedAt time.Time
	Course     string
	Plan       string
	Records    int
	Processed  int
	Errors     int
	Stopped    bool
}

// Field is one field edit inside a run.
type Field struct {
	Record      string
	Target      string
	Kind        string
	Date        string
	Time        string
	DateApplied bool
	TimeApplied bool
	Committed   bool
	Failed      bool
	Reason      string
}

// Store is the journal handle.
type Store struct {
	db *sql.DB
}

// Open opens or creates the journal under dataDir.
func Open(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "history.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}

	s := &Store{db: db}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// OpenInMemory opens an in-memory journal (for testing).
func OpenInMemory() (*Store, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, err
	}
	s := &Store{db: db}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the journal.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) initialize() error {
	schema := `
		PRAGMA journal_mode = WAL;
		PRAGMA synchronous = NORMAL;

		CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			started_at INTEGER NOT NULL,    -- Unix timestamp
			finished_at INTEGER NOT NULL,
			course TEXT NOT NULL,
			plan TEXT NOT NULL,
			records INTEGER NOT NULL DEFAULT 0,
			processed INTEGER NOT NULL DEFAULT 0,
			errors INTEGER NOT NULL DEFAULT 0,
			stopped INTEGER NOT NULL DEFAULT 0
		);

		CREATE TABLE IF NOT EXISTS run_fields (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id INTEGER NOT NULL,
			record TEXT NOT NULL,
			target TEXT NOT NULL DEFAULT '',
			kind TEXT NOT NULL,
			date TEXT NOT NULL DEFAULT '',
			time TEXT NOT NULL DEFAULT '',
			date_applied INTEGER NOT NULL DEFAULT 0,
			time_applied INTEGER NOT NULL DEFAULT 0,
			committed INTEGER NOT NULL DEFAULT 0,
			failed INTEGER NOT NULL DEFAULT 0,
			reason TEXT NOT NULL DEFAULT ''
		);

		CREATE INDEX IF NOT EXISTS idx_run_fields_run ON run_fields(run_id);
		CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("initialize history schema: %w", err)
	}
	return nil
}

// RecordRun writes one run and its field edits atomically and returns the
// new run ID.
func (s *Store) RecordRun(run Run, fields []Field) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin history transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
		INSERT INTO runs (started_at, finished_at, course, plan, records, processed, errors, stopped)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.StartedAt.Unix(), run.FinishedAt.Unix(), run.Course, run.Plan,
		run.Records, run.Processed, run.Errors, boolInt(run.Stopped),
	)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("run id: %w", err)
	}

	for _, f := range fields {
		_, err := tx.Exec(`
			INSERT INTO run_fields (run_id, record, target, kind, date, time,
				date_applied, time_applied, committed, failed, reason)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, f.Record, f.Target, f.Kind, f.Date, f.Time,
			boolInt(f.DateApplied), boolInt(f.TimeApplied),
			boolInt(f.Committed), boolInt(f.Failed), f.Reason,
		)
		if err != nil {
			return 0, fmt.Errorf("insert field for %q: %w", f.Record, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit history transaction: %w", err)
	}
	return runID, nil
}

// RecentRuns returns the newest runs, most recent first.
func (s *Store) RecentRuns(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.Query(`
		SELECT id, started_at, finished_at, course, plan, records, processed, errors, stopped
		FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	return scanRows(rows, scanRun)
}

// GetRun returns one run by ID.
func (s *Store) GetRun(id int64) (Run, error) {
	rows, err := s.db.Query(`
		SELECT id, started_at, finished_at, course, plan, records, processed, errors, stopped
		FROM runs WHERE id = ?`, id)
	if err != nil {
		return Run{}, fmt.Errorf("query run %d: %w", id, err)
	}
	runs, err := scanRows(rows, scanRun)
	if err != nil {
		return Run{}, err
	}
	if len(runs) == 0 {
		return Run{}, ErrRunNotFound
	}
	return runs[0], nil
}

// RunFields returns the field edits of one run, in insertion order.
func (s *Store) RunFields(runID int64) ([]Field, error) {
	rows, err := s.db.Query(`
		SELECT record, target, kind, date, time, date_applied, time_applied, committed, failed, reason
		FROM run_fields WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("query fields for run %d: %w", runID, err)
	}
	return scanRows(rows, func(rows *sql.Rows) (Field, error) {
		var f Field
		var dateApplied, timeApplied, committed, failed int
		err := rows.Scan(&f.Record, &f.Target, &f.Kind, &f.Date, &f.Time,
			&dateApplied, &timeApplied, &committed, &failed, &f.Reason)
		if err != nil {
			return Field{}, err
		}
		f.DateApplied = dateApplied != 0
		f.TimeApplied = timeApplied != 0
		f.Committed = committed != 0
		f.Failed = failed != 0
		return f, nil
	})
}

func scanRun(rows *sql.Rows) (Run, error) {
	var r Run
	var started, finished int64
	var stopped int
	err := rows.Scan(&r.ID, &started, &finished, &r.Course, &r.Plan,
		&r.Records, &r.Processed, &r.Errors, &stopped)
	if err != nil {
		return Run{}, err
	}
	r.StartedAt = time.Unix(started, 0).UTC()
	r.FinishedAt = time.Unix(finished, 0).UTC()
	r.Stopped = stopped != 0
	return r, nil
}

// scanRows scans all rows into a slice using the provided scanner.
func scanRows[T any](rows *sql.Rows, scan func(*sql.Rows) (T, error)) ([]T, error) {
	defer rows.Close()

	var out []T
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
