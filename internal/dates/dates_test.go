package dates

import "testing"

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		want Date
	}{
		{"10/19/2025", Date{2025, 10, 19}},
		{"1/5/2026", Date{2026, 1, 5}},
		{"12/31/2025", Date{2025, 12, 31}},
		{"October 19, 2025", Date{2025, 10, 19}},
		{"January 5, 2026", Date{2026, 1, 5}},
		{"  10/19/2025  ", Date{2025, 10, 19}},
	}
	for _, tt := range tests {
		got, err := ParseDate(tt.in)
		if err != nil {
			t.Errorf("ParseDate(%q) error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseDate(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestParseDateInvalid(t *testing.T) {
	invalid := []string{
		"",
		"10/19",
		"10/19/2025/1",
		"19.10.2025",
		"Octember 19, 2025",
		"13/1/2025",
		"0/1/2025",
		"1/32/2025",
		"a/b/c",
	}
	for _, in := range invalid {
		if _, err := ParseDate(in); err == nil {
			t.Errorf("ParseDate(%q) should fail", in)
		}
	}
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		in   string
		want Clock
	}{
		{"2:30 PM", Clock{14, 30}},
		{"2:30 pm", Clock{14, 30}},
		{"12:00 PM", Clock{12, 0}},
		{"12:00 AM", Clock{0, 0}},
		{"9 AM", Clock{9, 0}},
		{"9AM", Clock{9, 0}},
		{"11:59 PM", Clock{23, 59}},
		{"14:30", Clock{14, 30}},
		{"0:15", Clock{0, 15}},
		{"9", Clock{9, 0}},
		{" 8:05 am ", Clock{8, 5}},
	}
	for _, tt := range tests {
		got, err := ParseClock(tt.in)
		if err != nil {
			t.Errorf("ParseClock(%q) error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseClock(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestParseClockInvalid(t *testing.T) {
	invalid := []string{
		"",
		"PM",
		"25:00",
		"13:00 PM",
		"9:75",
		"half past nine",
		"-1:30",
	}
	for _, in := range invalid {
		if _, err := ParseClock(in); err == nil {
			t.Errorf("ParseClock(%q) should fail", in)
		}
	}
}

func TestStrings(t *testing.T) {
	if s := (Date{2025, 10, 19}).String(); s != "10/19/2025" {
		t.Errorf("Date.String() = %q", s)
	}
	if s := (Clock{14, 5}).String(); s != "14:05" {
		t.Errorf("Clock.String() = %q", s)
	}
}
