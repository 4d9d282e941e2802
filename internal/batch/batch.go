// Package batch walks plan records against the live listing, one field
// edit at a time, and keeps score.
//
// The coordinator owns the three rules the counts depend on:
//   - a field is attempted only when both its date and time cells are
//     present;
//   - due is edited before start, and start runs regardless of how due
//     went;
//   - a record is processed when at least one of its field edits applied
//     something, and every failed field edit costs one error.
//
// Failures are isolated per record: a resolution miss, a dead dialog, or
// even a panic in one record never stops the rest of the plan.
package batch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"d2ldates/internal/editor"
	"d2ldates/internal/listing"
	"d2ldates/internal/plan"
	"d2ldates/internal/resolver"
)

// RowResolver matches a record name to a listing row.
type RowResolver interface {
	Resolve(ctx context.Context, target string) (resolver.Match, error)
}

// Editor runs one dialog session for a trigger.
type Editor interface {
	Edit(ctx context.Context, t listing.Trigger, dateStr, timeStr string) (editor.Outcome, error)
}

// Observer receives the status stream of a running batch. Implementations
// must not block: they run between document operations.
type Observer interface {
	OnStatus(message string)
	OnComplete(processed, errors int)
}

// NopObserver discards everything.
type NopObserver struct{}

func (NopObserver) OnStatus(string)     {}
func (NopObserver) OnComplete(int, int) {}

// FieldReport is the outcome of one attempted field edit.
type FieldReport struct {
	Kind       string         `json:"kind"`
	Date       string         `json:"date,omitempty"`
	Time       string         `json:"time,omitempty"`
	Outcome    editor.Outcome `json:"outcome"`
	Failed     bool           `json:"failed,omitempty"`
	Reason     string         `json:"reason,omitempty"`
	Candidates []string       `json:"candidates,omitempty"`
}

// RecordReport collects one record's attempts.
type RecordReport struct {
	Name    string        `json:"name"`
	Target  string        `json:"target,omitempty"`
	Skipped bool          `json:"skipped,omitempty"`
	Fields  []FieldReport `json:"fields,omitempty"`
}

// Summary is the final score of a batch.
type Summary struct {
	Processed int            `json:"processed"`
	Errors    int            `json:"errors"`
	Stopped   bool           `json:"stopped,omitempty"`
	Records   []RecordReport `json:"records"`
}

// Config tunes a Coordinator.
type Config struct {
	// Aliases maps plan names to document labels before resolution.
	Aliases map[string]string
	// FieldSettle pauses between the two field edits of a record.
	FieldSettle time.Duration
	// RecordSettle pauses between records.
	RecordSettle time.Duration
	// FieldHook, when set, observes every finished field edit. The audit
	// log hangs off this so edits persist even if the run dies later.
	FieldHook func(recordName string, fr FieldReport)
}

// Coordinator runs batches.
type Coordinator struct {
	res      RowResolver
	triggers resolver.TriggerFinder
	ed       Editor
	obs      Observer
	cfg      Config
	log      zerolog.Logger
}

// New creates a Coordinator. A nil observer is replaced with NopObserver.
func New(res RowResolver, triggers resolver.TriggerFinder, ed Editor, obs Observer, cfg Config, log zerolog.Logger) *Coordinator {
	if obs == nil {
		obs = NopObserver{}
	}
	return &Coordinator{res: res, triggers: triggers, ed: ed, obs: obs, cfg: cfg, log: log}
}

// Run processes the records in order and returns the summary. Cancellation
// is cooperative: the context is checked between records and between the
// field edits of a record, never mid-dialog — interrupting a half-open
// dialog risks leaving the document half-submitted.
func (c *Coordinator) Run(ctx context.Context, records []plan.Record) Summary {
	var sum Summary
	total := len(records)

	for i, rec := range records {
		if ctx.Err() != nil {
			c.obs.OnStatus("stopping: cancelled")
			sum.Stopped = true
			break
		}

		c.obs.OnStatus(fmt.Sprintf("[%d/%d] %s", i+1, total, displayName(rec.Name)))
		rep := c.processRecord(ctx, rec)
		sum.Records = append(sum.Records, rep)

		processed := false
		for _, fr := range rep.Fields {
			if fr.Outcome.Success() {
				processed = true
			}
			if fr.Failed {
				sum.Errors++
			}
		}
		if processed {
			sum.Processed++
		}

		if i < total-1 {
			sleepCtx(ctx, c.cfg.RecordSettle)
		}
	}

	c.log.Info().Int("processed", sum.Processed).Int("errors", sum.Errors).
		Bool("stopped", sum.Stopped).Msg("batch finished")
	c.obs.OnComplete(sum.Processed, sum.Errors)
	return sum
}

// processRecord runs one record's field edits. A panic anywhere inside is
// absorbed here, recorded as a failed field, and the batch moves on.
func (c *Coordinator) processRecord(ctx context.Context, rec plan.Record) (rep RecordReport) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error().Interface("panic", r).Str("record", rep.Name).Msg("record processing panicked")
			rep.Fields = append(rep.Fields, FieldReport{
				Kind:   "record",
				Failed: true,
				Reason: fmt.Sprintf("panic: %v", r),
			})
		}
	}()

	rep.Name = strings.TrimSpace(rec.Name)
	if rep.Name == "" {
		rep.Skipped = true
		c.obs.OnStatus("  skipped: empty name")
		return rep
	}

	rep.Target = rep.Name
	if alias, ok := c.cfg.Aliases[rep.Name]; ok {
		rep.Target = alias
		c.obs.OnStatus(fmt.Sprintf("  alias: %q", alias))
	}

	first := true
	for _, kind := range listing.Kinds() {
		date, clock := rec.Field(kind)
		if date == "" || clock == "" {
			continue
		}
		if ctx.Err() != nil {
			c.obs.OnStatus("  stopping: cancelled")
			return rep
		}
		if !first {
			sleepCtx(ctx, c.cfg.FieldSettle)
		}
		first = false

		fr := c.editField(ctx, rep.Target, kind, date, clock)
		rep.Fields = append(rep.Fields, fr)
		if c.cfg.FieldHook != nil {
			c.cfg.FieldHook(rep.Name, fr)
		}
	}
	return rep
}

func (c *Coordinator) editField(ctx context.Context, target string, kind listing.FieldKind, date, clock string) FieldReport {
	fr := FieldReport{Kind: kind.String(), Date: date, Time: clock}
	fail := func(reason string) FieldReport {
		fr.Failed = true
		fr.Reason = reason
		c.obs.OnStatus(fmt.Sprintf("  ✗ %s: %s", kind, reason))
		return fr
	}

	m, err := c.res.Resolve(ctx, target)
	if err != nil {
		var nf *resolver.NotFoundError
		if errors.As(err, &nf) {
			fr.Candidates = nf.Candidates
			c.obs.OnStatus(fmt.Sprintf("  rows on the page right now (%d):", len(nf.Candidates)))
			for _, label := range nf.Candidates {
				c.obs.OnStatus("    - " + label)
			}
		}
		return fail(err.Error())
	}
	if m.Duplicates > 0 {
		c.log.Warn().Str("target", target).Int("extra", m.Duplicates).
			Str("stage", m.Stage).Msg("multiple rows matched; using first in document order")
		c.obs.OnStatus(fmt.Sprintf("  ⚠ %d rows match %q; using the first", m.Duplicates+1, target))
	}
	c.log.Debug().Str("target", target).Str("label", m.Row.Label).
		Str("stage", m.Stage).Msg("resolved")

	trig, err := c.triggers.FindTrigger(ctx, m.Row, kind)
	if err != nil {
		return fail(err.Error())
	}

	out, err := c.ed.Edit(ctx, trig, date, clock)
	if err != nil {
		return fail(err.Error())
	}
	fr.Outcome = out
	if !out.Success() {
		return fail("no date or time was applied")
	}

	c.obs.OnStatus(fmt.Sprintf("  ✓ %s: date=%v time=%v saved=%v",
		kind, out.DateApplied, out.TimeApplied, out.Committed))
	return fr
}

func displayName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "(no name)"
	}
	return name
}

func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
