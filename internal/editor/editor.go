// Package editor drives one modal dialog session per field edit.
//
// A session is the seven-step dance the listing demands: activate the
// row's trigger, wait out the dialog animation, find the editor frame
// nested inside the dialog, make sure the "has date" toggle is on, write
// the date and time components, and commit. Every step talks to the
// document through the Surface port so the whole machine runs against a
// scripted fake in tests.
package editor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"d2ldates/internal/dates"
	"d2ldates/internal/listing"
)

// Surface is the slice of the live document a session touches.
type Surface interface {
	// Activate fires a trigger via the given mechanism.
	Activate(ctx context.Context, t listing.Trigger, via listing.Activation) error
	// WaitDialog blocks until the dialog container is present, bounded by
	// timeout.
	WaitDialog(ctx context.Context, timeout time.Duration) error
	// DialogFrames lists the nested frames of the open dialog, in order.
	DialogFrames(ctx context.Context) ([]listing.FrameID, error)
	// FrameHasDateInputs probes one frame for date-component inputs.
	FrameHasDateInputs(ctx context.Context, f listing.FrameID) (bool, error)
	// ToggleState reads the has-date checkbox. found is false when the
	// frame has no such element.
	ToggleState(ctx context.Context, f listing.FrameID, id string) (checked, found bool, err error)
	// SetToggle turns the has-date checkbox on, either by scripted state
	// mutation with event dispatch or by a plain click.
	SetToggle(ctx context.Context, f listing.FrameID, id string, viaScript bool) error
	// FillDate writes year/month/day inputs and dispatches events. ok is
	// false when the inputs are absent.
	FillDate(ctx context.Context, f listing.FrameID, d dates.Date) (ok bool, err error)
	// FillClock writes hour/minute inputs and dispatches events.
	FillClock(ctx context.Context, f listing.FrameID, c dates.Clock) (ok bool, err error)
	// Commit walks the save-button ladder in the top-level document and
	// clicks the first visible enabled match. clicked is false when no
	// button was found.
	Commit(ctx context.Context) (clicked bool, err error)
	// Settle pauses while the document re-renders.
	Settle(ctx context.Context, d time.Duration)
}

// Outcome records what one field edit applied.
type Outcome struct {
	DateApplied bool `json:"date_applied"`
	TimeApplied bool `json:"time_applied"`
	Committed   bool `json:"committed"`
}

// Success reports whether the edit applied at least one component. A
// missing save button does not negate an applied value.
func (o Outcome) Success() bool {
	return o.DateApplied || o.TimeApplied
}

// SessionError is a failure inside a dialog session. It aborts this field
// edit only; the batch layer records the reason and carries on with the
// next field or record.
type SessionError struct {
	Step   string
	Kind   listing.FieldKind
	Reason string
	Err    error
}

func (e *SessionError) Error() string {
	msg := fmt.Sprintf("%s edit failed at %s: %s", e.Kind, e.Step, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *SessionError) Unwrap() error { return e.Err }

// Config holds session timing. Zero values take defaults; DialogTimeout
// zero means each kind's own timeout applies.
type Config struct {
	DialogTimeout time.Duration
	ToggleSettle  time.Duration
	FieldSettle   time.Duration
	CommitSettle  time.Duration
}

func (c Config) withDefaults() Config {
	if c.ToggleSettle == 0 {
		c.ToggleSettle = 500 * time.Millisecond
	}
	if c.FieldSettle == 0 {
		c.FieldSettle = 500 * time.Millisecond
	}
	if c.CommitSettle == 0 {
		c.CommitSettle = time.Second
	}
	return c
}

// Editor runs dialog sessions against a Surface.
type Editor struct {
	surf Surface
	cfg  Config
	log  zerolog.Logger
}

// New creates an Editor.
func New(surf Surface, cfg Config, log zerolog.Logger) *Editor {
	return &Editor{surf: surf, cfg: cfg.withDefaults(), log: log}
}

// Edit runs one full session for a trigger: open, toggle, fill, commit.
// dateStr and timeStr are the raw plan cells; empty means "leave alone".
// The returned error, when non-nil, is a *SessionError.
func (ed *Editor) Edit(ctx context.Context, trig listing.Trigger, dateStr, timeStr string) (Outcome, error) {
	kind := trig.Kind
	spec := kind.Spec()
	fail := func(step, reason string, err error) (Outcome, error) {
		return Outcome{}, &SessionError{Step: step, Kind: kind, Reason: reason, Err: err}
	}

	dateStr = strings.TrimSpace(dateStr)
	timeStr = strings.TrimSpace(timeStr)
	if dateStr == "" && timeStr == "" {
		return fail("setup", "nothing to apply", nil)
	}
	if err := ctx.Err(); err != nil {
		return fail("setup", "cancelled", err)
	}

	// Step 1: activate the trigger, retrying once with the alternate
	// mechanism.
	if err := ed.surf.Activate(ctx, trig, spec.Activate); err != nil {
		alt := spec.Activate.Alternate()
		ed.log.Debug().Str("kind", kind.String()).Str("via", alt.String()).
			Err(err).Msg("primary activation failed, retrying")
		if err2 := ed.surf.Activate(ctx, trig, alt); err2 != nil {
			return fail("activate", "both activation mechanisms failed", err2)
		}
	}
	ed.surf.Settle(ctx, spec.ActivateSettle)

	// Step 2: dialog container.
	timeout := ed.cfg.DialogTimeout
	if timeout == 0 {
		timeout = spec.DialogTimeout
	}
	if err := ed.surf.WaitDialog(ctx, timeout); err != nil {
		return fail("dialog", fmt.Sprintf("dialog did not appear within %s", timeout), err)
	}

	// Step 3: first dialog frame that has date inputs.
	frames, err := ed.surf.DialogFrames(ctx)
	if err != nil {
		return fail("frames", "could not list dialog frames", err)
	}
	frame, ok := ed.findEditorFrame(ctx, frames)
	if !ok {
		return fail("frames", fmt.Sprintf("no date inputs in %d dialog frame(s)", len(frames)), nil)
	}

	// Step 4: the has-date toggle, verified after activation. An
	// unchecked toggle means the fields are disabled; writing into them
	// silently loses the edit.
	checked, found, err := ed.surf.ToggleState(ctx, frame, spec.ToggleID)
	if err != nil {
		return fail("toggle", "could not read toggle state", err)
	}
	if !found {
		return fail("toggle", fmt.Sprintf("toggle %s not present in editor frame", spec.ToggleID), nil)
	}
	if !checked {
		if err := ed.surf.SetToggle(ctx, frame, spec.ToggleID, spec.ToggleViaScript); err != nil {
			return fail("toggle", "could not activate toggle", err)
		}
		ed.surf.Settle(ctx, ed.cfg.ToggleSettle)
		checked, _, err = ed.surf.ToggleState(ctx, frame, spec.ToggleID)
		if err != nil {
			return fail("toggle", "could not re-read toggle state", err)
		}
		if !checked {
			return fail("toggle", fmt.Sprintf("toggle %s still unchecked after activation", spec.ToggleID), nil)
		}
	}

	var out Outcome

	// Step 5: date components.
	if dateStr != "" {
		d, err := dates.ParseDate(dateStr)
		if err != nil {
			return fail("parse", err.Error(), nil)
		}
		ok, err := ed.surf.FillDate(ctx, frame, d)
		if err != nil {
			return fail("fill date", "could not write date inputs", err)
		}
		if !ok {
			ed.log.Warn().Str("kind", kind.String()).Msg("date inputs missing from editor frame")
		}
		out.DateApplied = ok
		ed.surf.Settle(ctx, ed.cfg.FieldSettle)
	}

	// Step 6: time components.
	if timeStr != "" {
		c, err := dates.ParseClock(timeStr)
		if err != nil {
			return fail("parse", err.Error(), nil)
		}
		ok, err := ed.surf.FillClock(ctx, frame, c)
		if err != nil {
			return fail("fill time", "could not write time inputs", err)
		}
		if !ok {
			ed.log.Warn().Str("kind", kind.String()).Msg("time inputs missing from editor frame")
		}
		out.TimeApplied = ok
		ed.surf.Settle(ctx, ed.cfg.FieldSettle)
	}

	// Step 7: commit. A missing save button is not an error; some
	// document variants auto-apply.
	clicked, err := ed.surf.Commit(ctx)
	if err != nil {
		ed.log.Warn().Str("kind", kind.String()).Err(err).Msg("save click failed")
		clicked = false
	}
	out.Committed = clicked
	ed.surf.Settle(ctx, ed.cfg.CommitSettle)

	ed.log.Debug().Str("kind", kind.String()).
		Bool("date", out.DateApplied).Bool("time", out.TimeApplied).Bool("committed", out.Committed).
		Msg("session finished")
	return out, nil
}

// findEditorFrame returns the first frame whose probe reports date inputs.
// Probe errors on individual frames are skipped, not fatal: cross-origin
// frames and tracking widgets live in these dialogs too.
func (ed *Editor) findEditorFrame(ctx context.Context, frames []listing.FrameID) (listing.FrameID, bool) {
	for _, f := range frames {
		ok, err := ed.surf.FrameHasDateInputs(ctx, f)
		if err != nil {
			ed.log.Debug().Int("frame", int(f)).Err(err).Msg("frame probe failed")
			continue
		}
		if ok {
			return f, true
		}
	}
	return 0, false
}
