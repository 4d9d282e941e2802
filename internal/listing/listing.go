// Package listing defines the domain vocabulary for the manage-dates
// listing: rows, field kinds, triggers, and the narrow errors the rest of
// the tool reports against.
//
// The types here are deliberately free of any browser dependency so that
// the resolver, editor, and batch packages can be exercised against fakes.
package listing

import (
	"fmt"
	"regexp"
	"strings"
)

// Row is one entity row of the rendered listing.
//
// Ordinal is the row's position in document order at the time of the
// query. Rows are snapshots: the document re-renders after edits, so a Row
// must not outlive the field edit it was resolved for.
type Row struct {
	Ordinal int
	Label   string
}

// Activation selects how a trigger element is activated.
type Activation int

const (
	// ActivateClick drives a native pointer click on the element.
	ActivateClick Activation = iota
	// ActivateScript calls the element's click() handler from script.
	ActivateScript
)

func (a Activation) String() string {
	if a == ActivateScript {
		return "script"
	}
	return "click"
}

// Alternate returns the other activation mechanism, used for the one
// retry an editor session is allowed.
func (a Activation) Alternate() Activation {
	if a == ActivateClick {
		return ActivateScript
	}
	return ActivateClick
}

// Trigger identifies the in-row element that opens a field's edit dialog.
//
// Mark is an opaque token the page adapter stamped onto the element (a data
// attribute) so activation can address it without re-running discovery.
type Trigger struct {
	Row  Row
	Kind FieldKind
	Text string
	Via  string
	Mark string
}

// FrameID addresses one nested iframe inside an open dialog, by position.
// Frame identity is only meaningful while the dialog stays open.
type FrameID int

// NoTriggerError reports a row that matched by name but exposes no edit
// trigger for the requested field kind. It is distinct from a resolution
// failure: the name was found, the row just is not editable.
type NoTriggerError struct {
	Label string
	Kind  FieldKind
	Why   string
}

func (e *NoTriggerError) Error() string {
	if e.Why != "" {
		return fmt.Sprintf("row %q has no %s trigger: %s", e.Label, e.Kind, e.Why)
	}
	return fmt.Sprintf("row %q has no %s trigger", e.Label, e.Kind)
}

var dateishRe = regexp.MustCompile(`20\d\d|\d+/\d+|AM|PM`)

// LooksLikeDateCell reports whether an element's text plausibly belongs to
// a date cell: an actual date, a placeholder dash, a "No start date" style
// placeholder, or nothing at all. Trigger discovery uses this to filter
// generic in-row links once the kind-specific selectors come up empty.
func LooksLikeDateCell(text string) bool {
	t := strings.TrimSpace(text)
	if t == "" || t == "-" {
		return true
	}
	if strings.HasPrefix(t, "No ") && strings.HasSuffix(t, "date") {
		return true
	}
	return dateishRe.MatchString(strings.ToUpper(t))
}
