package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadFrom(t *testing.T) {
	path := writeConfig(t, `
default_course = "fm4202"
login_url = "https://lms.example.edu/d2l/login"

[courses]
fm4202 = "https://lms.example.edu/d2l/lms/manageDates/date_manager.d2l?ou=12345"
bi2020 = "https://lms.example.edu/d2l/lms/manageDates/date_manager.d2l?ou=67890"

[browser]
debug_port = 9333
headless = true

[matching]
filler_tokens = ["key", "template"]
candidate_limit = 15

[timing]
dialog_timeout = "12s"
field_settle = "250ms"
`)

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom error: %v", err)
	}
	if cfg.DefaultCourse != "fm4202" {
		t.Errorf("default course = %q", cfg.DefaultCourse)
	}
	if len(cfg.Courses) != 2 {
		t.Errorf("courses = %v", cfg.Courses)
	}
	if cfg.Browser.Port() != 9333 || !cfg.Browser.Headless {
		t.Errorf("browser = %+v", cfg.Browser)
	}
	if len(cfg.Matching.FillerTokens) != 2 || cfg.Matching.CandidateLimit != 15 {
		t.Errorf("matching = %+v", cfg.Matching)
	}
	if cfg.Timing.DialogTimeout.Std() != 12*time.Second {
		t.Errorf("dialog timeout = %v", cfg.Timing.DialogTimeout.Std())
	}
	if cfg.Timing.FieldSettle.Std() != 250*time.Millisecond {
		t.Errorf("field settle = %v", cfg.Timing.FieldSettle.Std())
	}
}

func TestLoadFromBadDuration(t *testing.T) {
	path := writeConfig(t, "[timing]\ndialog_timeout = \"soon\"\n")
	if _, err := LoadFrom(path); err == nil {
		t.Error("unparseable duration should error")
	}
}

func TestBrowserDefaults(t *testing.T) {
	var b BrowserConfig
	if b.Port() != DefaultDebugPort {
		t.Errorf("default port = %d", b.Port())
	}
	profile := b.Profile("/home/x/.config/d2ldates/config.toml")
	if profile != filepath.Join("/home/x/.config/d2ldates", "browser") {
		t.Errorf("default profile = %q", profile)
	}
	b.ProfileDir = "/tmp/p"
	if b.Profile("/anything") != "/tmp/p" {
		t.Errorf("explicit profile = %q", b.Profile("/anything"))
	}
}

func TestResolveCourse(t *testing.T) {
	cfg := &Config{
		DefaultCourse: "fm4202",
		Courses: map[string]string{
			"fm4202": "https://lms.example.edu/fm",
			"bi2020": "https://lms.example.edu/bi",
		},
	}

	// Explicit name.
	name, url, err := cfg.ResolveCourse("bi2020", "")
	if err != nil || name != "bi2020" || url != "https://lms.example.edu/bi" {
		t.Errorf("explicit = %q %q %v", name, url, err)
	}

	// Full URL passes through.
	_, url, err = cfg.ResolveCourse("https://lms.example.edu/direct", "fm4202")
	if err != nil || url != "https://lms.example.edu/direct" {
		t.Errorf("url passthrough = %q %v", url, err)
	}

	// Active course from state beats the default.
	name, _, err = cfg.ResolveCourse("", "bi2020")
	if err != nil || name != "bi2020" {
		t.Errorf("active = %q %v", name, err)
	}

	// Default course last.
	name, _, err = cfg.ResolveCourse("", "")
	if err != nil || name != "fm4202" {
		t.Errorf("default = %q %v", name, err)
	}

	// Unknown name is a typed error.
	_, _, err = cfg.ResolveCourse("nope", "")
	var nf *CourseNotFoundError
	if !errors.As(err, &nf) || nf.Name != "nope" {
		t.Errorf("want CourseNotFoundError, got %v", err)
	}

	// Nothing selected anywhere.
	empty := &Config{}
	if _, _, err := empty.ResolveCourse("", ""); err == nil {
		t.Error("no selection should error")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	cfg := &Config{
		DefaultCourse: "fm4202",
		LoginURL:      "https://lms.example.edu/login",
		Courses:       map[string]string{"fm4202": "https://lms.example.edu/fm"},
		Browser:       BrowserConfig{DebugPort: 9444},
		Matching:      MatchingConfig{FillerTokens: []string{"key"}, CandidateLimit: 10},
		Timing:        TimingConfig{FieldSettle: Duration(300 * time.Millisecond)},
		UI:            UIConfig{Accent: "#A78BFA"},
	}

	if err := SaveTo(path, cfg); err != nil {
		t.Fatalf("SaveTo error: %v", err)
	}

	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom error: %v", err)
	}
	if loaded.DefaultCourse != cfg.DefaultCourse ||
		loaded.Courses["fm4202"] != cfg.Courses["fm4202"] ||
		loaded.Browser.DebugPort != 9444 ||
		loaded.Timing.FieldSettle.Std() != 300*time.Millisecond ||
		loaded.UI.Accent != "#A78BFA" {
		t.Errorf("round trip mismatch: %+v", loaded)
	}
}

func TestSaveOmitsEmptySections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := SaveTo(path, &Config{DefaultCourse: "fm4202"}); err != nil {
		t.Fatalf("SaveTo error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	body := string(data)
	for _, section := range []string{"[browser]", "[matching]", "[timing]", "[audit]", "[ui]"} {
		if strings.Contains(body, section) {
			t.Errorf("empty section %s should be omitted:\n%s", section, body)
		}
	}
}

func TestStateRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.toml")

	// Missing file yields defaults.
	st, err := LoadState(path)
	if err != nil {
		t.Fatalf("LoadState error: %v", err)
	}
	if st.Version != StateVersion || st.ActiveCourse != "" {
		t.Errorf("default state = %+v", st)
	}

	st.ActiveCourse = "fm4202"
	if err := SaveState(path, st); err != nil {
		t.Fatalf("SaveState error: %v", err)
	}

	loaded, err := LoadState(path)
	if err != nil {
		t.Fatalf("LoadState error: %v", err)
	}
	if loaded.ActiveCourse != "fm4202" {
		t.Errorf("loaded state = %+v", loaded)
	}
}

func TestResolveStatePath(t *testing.T) {
	cfgPath := filepath.Join("/home/x/.config/d2ldates", "config.toml")

	if got := ResolveStatePath("/explicit/state.toml", cfgPath, nil); got != "/explicit/state.toml" {
		t.Errorf("explicit = %q", got)
	}
	if got := ResolveStatePath("", cfgPath, &Config{StateFile: "alt.toml"}); got != filepath.Join("/home/x/.config/d2ldates", "alt.toml") {
		t.Errorf("relative override = %q", got)
	}
	if got := ResolveStatePath("", cfgPath, &Config{StateFile: "/abs/state.toml"}); got != "/abs/state.toml" {
		t.Errorf("absolute override = %q", got)
	}
	if got := ResolveStatePath("", cfgPath, &Config{}); got != filepath.Join("/home/x/.config/d2ldates", "state.toml") {
		t.Errorf("sibling default = %q", got)
	}
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.toml")

	if err := writeFileAtomic(path, []byte("a = 1\n"), 0o644); err != nil {
		t.Fatalf("writeFileAtomic error: %v", err)
	}
	if err := writeFileAtomic(path, []byte("a = 2\n"), 0o644); err != nil {
		t.Fatalf("overwrite error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "a = 2\n" {
		t.Errorf("content = %q", data)
	}

	// No temp litter left behind.
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("directory should hold only the target file, got %d entries", len(entries))
	}
}
