package ui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Color palette
// - Default (white/black): primary text
// - Accent (soft purple, configurable): highlights, course names, labels
// - Muted (gray): secondary info, hints
// - No colored success/error/warning - unicode symbols only

const defaultAccent = "#A78BFA"

var (
	// Accent style for course names, labels, highlights
	Accent = lipgloss.NewStyle().Foreground(lipgloss.Color(defaultAccent))

	// Muted style for secondary info and hints
	Muted = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C7086"))

	// Bold style for emphasis
	Bold = lipgloss.NewStyle().Bold(true)

	// AccentBold combines accent color with bold
	AccentBold = lipgloss.NewStyle().Foreground(lipgloss.Color(defaultAccent)).Bold(true)

	accentColor = defaultAccent
)

// ConfigureTheme applies the configured accent color. Empty input keeps
// the default; "none", "off", and "default" disable the accent entirely;
// anything unparseable leaves the theme untouched.
func ConfigureTheme(accent string) {
	trimmed := strings.TrimSpace(accent)
	if trimmed == "" {
		return
	}
	if color, ok := normalizeAccentColor(trimmed); ok {
		accentColor = color
		Accent = lipgloss.NewStyle().Foreground(lipgloss.Color(color))
		AccentBold = lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Bold(true)
		return
	}
	switch strings.ToLower(trimmed) {
	case "none", "off", "default":
		accentColor = ""
		Accent = lipgloss.NewStyle()
		AccentBold = lipgloss.NewStyle().Bold(true)
	}
}

// AccentColor returns the active accent color, ok=false when disabled.
func AccentColor() (string, bool) {
	return accentColor, accentColor != ""
}

// normalizeAccentColor validates an accent color value: an ANSI 256 code
// or a hex color. Three-digit hex is expanded to six.
func normalizeAccentColor(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", false
	}
	switch strings.ToLower(s) {
	case "none", "off", "default":
		return "", false
	}

	if strings.HasPrefix(s, "#") {
		hex := strings.ToLower(s[1:])
		for _, r := range hex {
			if !strings.ContainsRune("0123456789abcdef", r) {
				return "", false
			}
		}
		switch len(hex) {
		case 3:
			var b strings.Builder
			for _, r := range hex {
				b.WriteRune(r)
				b.WriteRune(r)
			}
			return "#" + b.String(), true
		case 6:
			return "#" + hex, true
		}
		return "", false
	}

	if n, err := strconv.Atoi(s); err == nil && n >= 0 && n <= 255 {
		return s, true
	}
	return "", false
}
