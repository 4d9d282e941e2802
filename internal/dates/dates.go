// Package dates parses the date and time strings that appear in plan CSV
// cells.
//
// This package exists so the parsing rules live in exactly one place:
// - plan validation (check command)
// - field editing (editor sessions)
// - duplicate/typo diagnostics
//
// The dialog's inputs want numeric components, not time.Time values, so
// the types here stay componentwise. No time zone is involved anywhere:
// the LMS interprets what lands in its fields.
package dates

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Date is a calendar date as the dialog's year/month/day inputs want it.
type Date struct {
	Year  int
	Month int
	Day   int
}

func (d Date) String() string {
	return fmt.Sprintf("%d/%d/%d", d.Month, d.Day, d.Year)
}

// Clock is a 24-hour wall-clock time for the dialog's hour/minute inputs.
type Clock struct {
	Hour   int
	Minute int
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// ParseDate parses a plan date cell.
//
// Accepted formats:
// - M/D/YYYY (slash-separated numerics, no zero padding required)
// - "October 19, 2025" (full month name)
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, fmt.Errorf("invalid date: empty")
	}

	if strings.Contains(s, "/") {
		return parseSlashDate(s)
	}

	t, err := time.Parse("January 2, 2006", s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date: %q", s)
	}
	return Date{Year: t.Year(), Month: int(t.Month()), Day: t.Day()}, nil
}

func parseSlashDate(s string) (Date, error) {
	parts := strings.Split(s, "/")
	if len(parts) != 3 {
		return Date{}, fmt.Errorf("invalid date: %q", s)
	}
	nums := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return Date{}, fmt.Errorf("invalid date: %q", s)
		}
		nums[i] = n
	}
	d := Date{Month: nums[0], Day: nums[1], Year: nums[2]}
	if d.Month < 1 || d.Month > 12 || d.Day < 1 || d.Day > 31 || d.Year < 1 {
		return Date{}, fmt.Errorf("invalid date: %q", s)
	}
	return d, nil
}

// ParseClock parses a plan time cell into 24-hour components.
//
// A trailing AM/PM suffix is detected case-insensitively: PM adds 12 to
// the hour unless it is already 12; 12 AM becomes hour 0. Without a
// suffix the value is taken as already 24-hour. A missing minutes part
// means 0.
func ParseClock(s string) (Clock, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Clock{}, fmt.Errorf("invalid time: empty")
	}

	upper := strings.ToUpper(s)
	isPM := strings.HasSuffix(upper, "PM")
	isAM := !isPM && strings.HasSuffix(upper, "AM")
	core := upper
	if isPM || isAM {
		core = strings.TrimSpace(core[:len(core)-2])
	}
	if core == "" {
		return Clock{}, fmt.Errorf("invalid time: %q", s)
	}

	parts := strings.SplitN(core, ":", 2)
	hour, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return Clock{}, fmt.Errorf("invalid time: %q", s)
	}
	minute := 0
	if len(parts) == 2 {
		minute, err = strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil {
			return Clock{}, fmt.Errorf("invalid time: %q", s)
		}
	}

	switch {
	case isPM && hour != 12:
		hour += 12
	case isAM && hour == 12:
		hour = 0
	}

	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return Clock{}, fmt.Errorf("invalid time: %q", s)
	}
	return Clock{Hour: hour, Minute: minute}, nil
}
