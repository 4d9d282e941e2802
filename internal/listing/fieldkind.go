package listing

import "time"

// FieldKind names one of the two editable date fields on a row.
type FieldKind int

const (
	Start FieldKind = iota
	Due
)

func (k FieldKind) String() string {
	if k == Due {
		return "due"
	}
	return "start"
}

// Title returns the human-facing field name.
func (k FieldKind) Title() string {
	if k == Due {
		return "Due"
	}
	return "Start"
}

// KindSpec is the editing profile for a field kind. Every per-kind magic
// value — selectors, the has-date toggle id, the toggle technique, and the
// dialog timing — lives here rather than being scattered through the
// editor and the page adapter.
type KindSpec struct {
	// ColumnFragments are class-name fragments of the listing column that
	// holds this field's cell.
	ColumnFragments []string
	// TriggerTitles are title attributes of the in-row anchor that opens
	// the edit dialog. Anchors matched by title skip the date-cell filter.
	TriggerTitles []string
	// ToggleID is the element id of the "has date" checkbox inside the
	// dialog's editor frame.
	ToggleID string
	// ToggleViaScript selects synthetic checked-state mutation plus event
	// dispatch instead of a plain click. The start toggle ignores plain
	// clicks on some document versions.
	ToggleViaScript bool
	// Activate is the primary trigger activation mechanism. The editor
	// retries once with the alternate on failure.
	Activate Activation
	// ActivateSettle is the pause after activation before the dialog wait
	// begins; the dialog animates in.
	ActivateSettle time.Duration
	// DialogTimeout bounds the wait for the dialog container.
	DialogTimeout time.Duration
}

var kindSpecs = map[FieldKind]KindSpec{
	Start: {
		ColumnFragments: []string{"d_dg_col_StartDate", "StartDate"},
		TriggerTitles:   []string{"Edit the start date"},
		ToggleID:        "z_o",
		ToggleViaScript: true,
		Activate:        ActivateClick,
		ActivateSettle:  3 * time.Second,
		DialogTimeout:   15 * time.Second,
	},
	Due: {
		ColumnFragments: []string{"d_dg_col_DueDate", "DueDate"},
		TriggerTitles:   []string{"Edit the due date"},
		ToggleID:        "z_k",
		ToggleViaScript: false,
		Activate:        ActivateClick,
		ActivateSettle:  2 * time.Second,
		DialogTimeout:   10 * time.Second,
	},
}

// Spec returns the editing profile for the kind.
func (k FieldKind) Spec() KindSpec {
	return kindSpecs[k]
}

// Kinds returns the field kinds in edit order: due before start. A record's
// due edit completes before its start edit begins.
func Kinds() []FieldKind {
	return []FieldKind{Due, Start}
}
