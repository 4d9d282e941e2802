package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog"

	"d2ldates/internal/dates"
	"d2ldates/internal/listing"
)

// Page implements the document ports (resolver.Snapshot,
// resolver.TriggerFinder, editor.Surface) over a live session. All reads
// and writes are injected scripts; only trigger activation uses a native
// pointer click, because the listing intercepts scripted clicks on some
// skins.
type Page struct {
	sess *Session
	log  zerolog.Logger
}

// eval runs a script against the page and unmarshals its JSON result into
// out. Caller cancellation is honored between operations, never inside
// one: a started operation runs to its own deadline.
func (p *Page) eval(ctx context.Context, script string, out interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return p.sess.run(p.sess.opts.OpTimeout, chromedp.Evaluate(script, out))
}

type rowResult struct {
	Ordinal int    `json:"ordinal"`
	Label   string `json:"label"`
}

// Rows lists the name cells currently rendered, in document order. Every
// call re-queries the document; rows from before an edit are stale.
func (p *Page) Rows(ctx context.Context) ([]listing.Row, error) {
	var raw []rowResult
	if err := p.eval(ctx, rowsScript(), &raw); err != nil {
		return nil, fmt.Errorf("list rows: %w", err)
	}
	rows := make([]listing.Row, 0, len(raw))
	for _, r := range raw {
		rows = append(rows, listing.Row{Ordinal: r.Ordinal, Label: r.Label})
	}
	return rows, nil
}

type triggerResult struct {
	Found  bool   `json:"found"`
	Text   string `json:"text"`
	Via    string `json:"via"`
	Reason string `json:"reason"`
}

// FindTrigger locates the kind's edit link inside the row and marks it for
// activation. The previous mark, if any, is cleared first.
func (p *Page) FindTrigger(ctx context.Context, row listing.Row, kind listing.FieldKind) (listing.Trigger, error) {
	mark := fmt.Sprintf("r%d-%s-%d", row.Ordinal, kind, time.Now().UnixNano())

	var res triggerResult
	if err := p.eval(ctx, findTriggerScript(row.Ordinal, kind.Spec(), mark), &res); err != nil {
		return listing.Trigger{}, fmt.Errorf("find %s trigger for %q: %w", kind, row.Label, err)
	}
	if !res.Found {
		return listing.Trigger{}, &listing.NoTriggerError{Label: row.Label, Kind: kind, Why: res.Reason}
	}

	p.log.Debug().Str("label", row.Label).Str("kind", kind.String()).
		Str("via", res.Via).Str("text", res.Text).Msg("trigger found")

	return listing.Trigger{Row: row, Kind: kind, Text: res.Text, Via: res.Via, Mark: mark}, nil
}

// Activate fires the marked trigger. The click mechanism scrolls the
// element into view and drives a native pointer event; the script
// mechanism calls the element's own click handler.
func (p *Page) Activate(ctx context.Context, t listing.Trigger, via listing.Activation) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if via == listing.ActivateClick {
		sel := fmt.Sprintf("[%s=%q]", markAttr, t.Mark)
		err := p.sess.run(p.sess.opts.OpTimeout,
			chromedp.ScrollIntoView(sel, chromedp.ByQuery),
			chromedp.Click(sel, chromedp.ByQuery),
		)
		if err != nil {
			return fmt.Errorf("click %s trigger: %w", t.Kind, err)
		}
		return nil
	}

	var clicked bool
	if err := p.eval(ctx, clickMarkedScript(t.Mark), &clicked); err != nil {
		return fmt.Errorf("scripted click on %s trigger: %w", t.Kind, err)
	}
	if !clicked {
		return fmt.Errorf("%s trigger vanished before scripted click", t.Kind)
	}
	return nil
}

// WaitDialog blocks until the dialog container renders, up to timeout.
func (p *Page) WaitDialog(ctx context.Context, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := p.sess.run(timeout,
		chromedp.WaitVisible("div[role='dialog'], [role='dialog'], div.d2l-dialog", chromedp.ByQuery),
	)
	if err != nil {
		return fmt.Errorf("dialog: %w", err)
	}
	return nil
}

// DialogFrames lists the dialog's nested frames by position.
func (p *Page) DialogFrames(ctx context.Context) ([]listing.FrameID, error) {
	var count int
	if err := p.eval(ctx, dialogFrameCountScript(), &count); err != nil {
		return nil, fmt.Errorf("count dialog frames: %w", err)
	}
	frames := make([]listing.FrameID, count)
	for i := range frames {
		frames[i] = listing.FrameID(i)
	}
	return frames, nil
}

type probeResult struct {
	Accessible bool `json:"accessible"`
	HasInputs  bool `json:"hasInputs"`
}

// FrameHasDateInputs probes one frame for the date input cluster. An
// inaccessible (cross-origin or detached) frame reports false without
// error; it simply is not the editor frame.
func (p *Page) FrameHasDateInputs(ctx context.Context, f listing.FrameID) (bool, error) {
	var res probeResult
	if err := p.eval(ctx, frameProbeScript(int(f)), &res); err != nil {
		return false, fmt.Errorf("probe frame %d: %w", f, err)
	}
	return res.Accessible && res.HasInputs, nil
}

type toggleResult struct {
	Found   bool `json:"found"`
	Checked bool `json:"checked"`
}

// ToggleState reads the has-date checkbox inside a frame.
func (p *Page) ToggleState(ctx context.Context, f listing.FrameID, id string) (checked, found bool, err error) {
	var res toggleResult
	if err := p.eval(ctx, toggleStateScript(int(f), id), &res); err != nil {
		return false, false, fmt.Errorf("read toggle %s: %w", id, err)
	}
	return res.Checked, res.Found, nil
}

// SetToggle turns the has-date checkbox on.
func (p *Page) SetToggle(ctx context.Context, f listing.FrameID, id string, viaScript bool) error {
	var ok bool
	if err := p.eval(ctx, setToggleScript(int(f), id, viaScript), &ok); err != nil {
		return fmt.Errorf("set toggle %s: %w", id, err)
	}
	if !ok {
		return fmt.Errorf("toggle %s not present in frame %d", id, f)
	}
	return nil
}

// FillDate writes the date components into the frame's inputs.
func (p *Page) FillDate(ctx context.Context, f listing.FrameID, d dates.Date) (bool, error) {
	var ok bool
	if err := p.eval(ctx, fillDateScript(int(f), d.Year, d.Month, d.Day), &ok); err != nil {
		return false, fmt.Errorf("fill date inputs: %w", err)
	}
	return ok, nil
}

// FillClock writes the time components into the frame's inputs.
func (p *Page) FillClock(ctx context.Context, f listing.FrameID, c dates.Clock) (bool, error) {
	var ok bool
	if err := p.eval(ctx, fillClockScript(int(f), c.Hour, c.Minute), &ok); err != nil {
		return false, fmt.Errorf("fill time inputs: %w", err)
	}
	return ok, nil
}

type commitResult struct {
	Clicked bool   `json:"clicked"`
	Via     string `json:"via"`
}

// Commit walks the save-button ladder and clicks the first hit.
func (p *Page) Commit(ctx context.Context) (bool, error) {
	var res commitResult
	if err := p.eval(ctx, commitScript(), &res); err != nil {
		return false, fmt.Errorf("save: %w", err)
	}
	if res.Clicked {
		p.log.Debug().Str("via", res.Via).Msg("save clicked")
	}
	return res.Clicked, nil
}

// Settle pauses while the document re-renders, honoring cancellation.
func (p *Page) Settle(ctx context.Context, d time.Duration) {
	p.sess.sleep(ctx, d)
}
