// Package config handles global d2ldates configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the global configuration: the courses that can be driven, the
// browser to drive them with, and the matching/timing knobs.
type Config struct {
	// DefaultCourse is the name of the default course (from Courses map).
	DefaultCourse string `toml:"default_course"`

	// LoginURL is where the login command points the browser.
	LoginURL string `toml:"login_url"`

	// StateFile optionally relocates state.toml (absolute, or relative to
	// the config file's directory).
	StateFile string `toml:"state_file"`

	// Courses maps course names to their manage-dates URLs.
	Courses map[string]string `toml:"courses"`

	Browser  BrowserConfig  `toml:"browser"`
	Matching MatchingConfig `toml:"matching"`
	Timing   TimingConfig   `toml:"timing"`
	Audit    AuditConfig    `toml:"audit"`
	UI       UIConfig       `toml:"ui"`
}

// BrowserConfig controls how the browser session is reached.
type BrowserConfig struct {
	// DebugPort is the devtools port used to attach to a running browser.
	DebugPort int `toml:"debug_port"`

	// ProfileDir is the persistent profile directory. Login cookies live
	// here, so a profile signed in once stays signed in for later runs.
	ProfileDir string `toml:"profile_dir"`

	// ChromePath overrides browser binary discovery.
	ChromePath string `toml:"chrome_path"`

	// Headless runs the managed browser without a window. Attach sessions
	// ignore this.
	Headless bool `toml:"headless"`
}

// DefaultDebugPort is the devtools port the login command opens and the
// attach path probes.
const DefaultDebugPort = 9223

// Port returns the configured devtools port or the default.
func (b BrowserConfig) Port() int {
	if b.DebugPort > 0 {
		return b.DebugPort
	}
	return DefaultDebugPort
}

// Profile returns the configured profile directory, defaulting to a
// "browser" directory next to the config file.
func (b BrowserConfig) Profile(configPath string) string {
	if strings.TrimSpace(b.ProfileDir) != "" {
		return b.ProfileDir
	}
	return filepath.Join(filepath.Dir(configPath), "browser")
}

// MatchingConfig tunes name resolution.
type MatchingConfig struct {
	// FillerTokens are words the suffix-stripped matching stage removes.
	FillerTokens []string `toml:"filler_tokens"`

	// CandidateLimit caps the diagnostic label list on resolution failure.
	CandidateLimit int `toml:"candidate_limit"`
}

// TimingConfig overrides session pacing. Zero values keep the built-in
// per-kind defaults.
type TimingConfig struct {
	// DialogTimeout bounds the dialog wait for both kinds when set.
	DialogTimeout Duration `toml:"dialog_timeout"`

	// FieldSettle pauses between the two field edits of a record.
	FieldSettle Duration `toml:"field_settle"`

	// RecordSettle pauses between records.
	RecordSettle Duration `toml:"record_settle"`
}

// AuditConfig controls the append-only edit log.
type AuditConfig struct {
	Enabled bool `toml:"enabled"`
}

// UIConfig holds optional CLI theming preferences.
type UIConfig struct {
	// Accent is an ANSI color code ("0" to "255") or hex color ("#RRGGBB").
	Accent string `toml:"accent"`
}

// Duration is a time.Duration that TOML reads from strings like "500ms".
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler for TOML decoding.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalText implements encoding.TextMarshaler for TOML encoding.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns the underlying time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// CourseNotFoundError reports a course name absent from the config.
type CourseNotFoundError struct {
	Name string
}

func (e *CourseNotFoundError) Error() string {
	return fmt.Sprintf("course %q not found in config", e.Name)
}

// ResolveCourse resolves a course selector to (name, url).
//
// Precedence: explicit selector (a full URL passes through, a name is
// looked up), then the state file's active course, then DefaultCourse.
func (c *Config) ResolveCourse(selector, activeCourse string) (string, string, error) {
	selector = strings.TrimSpace(selector)
	if strings.HasPrefix(selector, "http://") || strings.HasPrefix(selector, "https://") {
		return "", selector, nil
	}

	name := selector
	if name == "" {
		name = strings.TrimSpace(activeCourse)
	}
	if name == "" {
		name = strings.TrimSpace(c.DefaultCourse)
	}
	if name == "" {
		return "", "", fmt.Errorf("no course selected: pass one, run 'd2ldates courses use', or set default_course")
	}

	if url, ok := c.Courses[name]; ok && strings.TrimSpace(url) != "" {
		return name, url, nil
	}
	return "", "", &CourseNotFoundError{Name: name}
}

// ListCourses returns the configured courses.
func (c *Config) ListCourses() map[string]string {
	result := make(map[string]string, len(c.Courses))
	for name, url := range c.Courses {
		result[name] = url
	}
	return result
}

// Load loads the configuration from the default location.
// Returns a default config if the file doesn't exist.
func Load() (*Config, error) {
	configPath := DefaultPath()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return &Config{}, nil
	}

	return LoadFrom(configPath)
}

// LoadFrom loads the configuration from a specific path.
func LoadFrom(path string) (*Config, error) {
	var config Config
	if _, err := toml.DecodeFile(path, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return &config, nil
}

// DefaultPath returns the default config file path.
// Checks ~/.config/d2ldates/config.toml first (XDG style),
// then falls back to the OS-specific location.
func DefaultPath() string {
	if home, err := os.UserHomeDir(); err == nil {
		xdgPath := filepath.Join(home, ".config", "d2ldates", "config.toml")
		if _, err := os.Stat(xdgPath); err == nil {
			return xdgPath
		}
	}

	if configDir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(configDir, "d2ldates", "config.toml")
	}

	return filepath.Join(".", "config.toml")
}

// DataDir returns the directory for machine-local data (run history, label
// cache, audit log): the directory holding the config file.
func DataDir(configPath string) string {
	return filepath.Dir(configPath)
}

// CreateDefault creates a commented default config file at the default
// location if it doesn't exist.
func CreateDefault() (string, error) {
	return CreateDefaultAt(DefaultPath())
}

// CreateDefaultAt creates a commented default config file at the given
// path if it doesn't exist.
func CreateDefaultAt(configPath string) (string, error) {
	if _, err := os.Stat(configPath); err == nil {
		return configPath, nil // Already exists
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	defaultConfig := `# d2ldates configuration

# Course the tool drives when none is named on the command line.
# default_course = "fm4202"

# Where the login command points the browser.
# login_url = "https://lms.example.edu/d2l/login"

# Course names and their Manage Dates URLs.
# [courses]
# fm4202 = "https://lms.example.edu/d2l/lms/manageDates/date_manager.d2l?ou=12345"

# [browser]
# debug_port = 9223
# profile_dir = ""     # defaults to a "browser" dir next to this file
# chrome_path = ""     # autodetected when empty
# headless = false

# [matching]
# filler_tokens = ["key"]
# candidate_limit = 10

# [timing]
# dialog_timeout = "0s"   # 0 keeps the per-field defaults
# field_settle = "500ms"
# record_settle = "500ms"

# [audit]
# enabled = false

# Optional accent color for terminal output: ANSI code or #RRGGBB.
# [ui]
# accent = "39"
`

	if err := os.WriteFile(configPath, []byte(defaultConfig), 0644); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}

	return configPath, nil
}
