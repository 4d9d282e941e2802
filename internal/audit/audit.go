// Package audit provides an append-only audit log of applied edits.
//
// Every field edit against the live listing lands here as one JSON line,
// applied or failed, plus one summary line per run. The log is the paper
// trail for "what did the tool actually change": grep it by record name
// or course when a date on the page looks wrong later.
package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Entry is a single audit log line.
type Entry struct {
	Timestamp time.Time `json:"ts"`
	Operation string    `json:"op"` // field, run
	Course    string    `json:"course,omitempty"`
	Plan      string    `json:"plan,omitempty"`
	Record    string    `json:"record,omitempty"`
	Target    string    `json:"target,omitempty"`
	Kind      string    `json:"kind,omitempty"`
	Date      string    `json:"date,omitempty"`
	Time      string    `json:"time,omitempty"`

	DateApplied bool   `json:"date_applied,omitempty"`
	TimeApplied bool   `json:"time_applied,omitempty"`
	Committed   bool   `json:"committed,omitempty"`
	Failed      bool   `json:"failed,omitempty"`
	Reason      string `json:"reason,omitempty"`

	Processed int `json:"processed,omitempty"`
	Errors    int `json:"errors,omitempty"`
}

// Logger appends entries to the audit log.
type Logger struct {
	path    string
	enabled bool
	mu      sync.Mutex
}

// New creates an audit logger writing under dataDir. If enabled is false
// the logger is a no-op.
func New(dataDir string, enabled bool) *Logger {
	if !enabled {
		return &Logger{enabled: false}
	}
	return &Logger{
		path:    filepath.Join(dataDir, "audit.log"),
		enabled: true,
	}
}

// Path returns the log file location, empty when disabled.
func (l *Logger) Path() string {
	if !l.enabled {
		return ""
	}
	return l.path
}

// Log writes one entry.
func (l *Logger) Log(entry Entry) error {
	if !l.enabled {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal audit entry: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return fmt.Errorf("create audit directory: %w", err)
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open audit log: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(string(data) + "\n"); err != nil {
		return fmt.Errorf("write audit entry: %w", err)
	}
	return nil
}

// LogField records one field edit attempt.
func (l *Logger) LogField(entry Entry) error {
	entry.Operation = "field"
	return l.Log(entry)
}

// LogRun records the end-of-run summary.
func (l *Logger) LogRun(course, plan string, processed, errors int) error {
	return l.Log(Entry{
		Operation: "run",
		Course:    course,
		Plan:      plan,
		Processed: processed,
		Errors:    errors,
	})
}
