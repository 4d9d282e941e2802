// Package resolver matches plan record names to rows of the live listing.
//
// Names come from CSV cells; labels come from the rendered document. The
// two disagree in punctuation, case, decorations, and filler suffixes, so
// resolution runs a fixed ladder of matching stages, strictest reading of
// the literal text first, stopping at the first stage that hits. Each
// stage re-queries the listing: the document re-renders between edits and
// stale rows must never be reused.
package resolver

import (
	"context"
	"fmt"
	"strings"

	"d2ldates/internal/listing"
	"d2ldates/internal/normalize"
)

// Snapshot supplies the current listing rows. Implementations query the
// live document (or a cached capture of it) on every call.
type Snapshot interface {
	Rows(ctx context.Context) ([]listing.Row, error)
}

// TriggerFinder locates the edit trigger for a field kind within a resolved
// row's scope. A *listing.NoTriggerError means the row exists but exposes
// no trigger for that kind.
type TriggerFinder interface {
	FindTrigger(ctx context.Context, row listing.Row, kind listing.FieldKind) (listing.Trigger, error)
}

// Options tune the matching ladder.
type Options struct {
	// FillerTokens are words stripped for the suffix-stripped stage.
	FillerTokens []string
	// CandidateLimit caps the diagnostic label list on resolution failure.
	CandidateLimit int
}

// DefaultFillerTokens are the filler words instructors append to CSV names
// but not to the live rows.
var DefaultFillerTokens = []string{"key"}

// DefaultCandidateLimit is the diagnostic label cap.
const DefaultCandidateLimit = 10

func (o Options) withDefaults() Options {
	if o.FillerTokens == nil {
		o.FillerTokens = DefaultFillerTokens
	}
	if o.CandidateLimit <= 0 {
		o.CandidateLimit = DefaultCandidateLimit
	}
	return o
}

// Match is a successful resolution.
type Match struct {
	Row listing.Row
	// Stage names the ladder stage that matched, for status lines and
	// audit entries.
	Stage string
	// Duplicates counts additional rows the winning stage also matched.
	// The first row in document order wins; callers may want to warn.
	Duplicates int
}

// NotFoundError reports a name no stage could place. Candidates carries up
// to CandidateLimit live row labels, verbatim, so the operator can see
// what the document actually says.
type NotFoundError struct {
	Target     string
	Candidates []string
}

func (e *NotFoundError) Error() string {
	if len(e.Candidates) == 0 {
		return fmt.Sprintf("no row matching %q (listing empty)", e.Target)
	}
	return fmt.Sprintf("no row matching %q (%d candidate labels captured)", e.Target, len(e.Candidates))
}

// Resolver runs the matching ladder against a Snapshot.
type Resolver struct {
	snap Snapshot
	opts Options
}

// New creates a Resolver over the given snapshot.
func New(snap Snapshot, opts Options) *Resolver {
	return &Resolver{snap: snap, opts: opts.withDefaults()}
}

// stage is one rung of the ladder: a name for diagnostics plus a pure
// predicate over a row label.
type stage struct {
	name  string
	match func(label string) bool
}

// stages builds the ladder for a target. Later stages exist only when the
// corresponding transform actually changes the target.
func stages(target string, fillerTokens []string) []stage {
	targetKey := normalize.Key(target)

	ladder := []stage{
		{"containment", func(label string) bool {
			return strings.Contains(label, target)
		}},
		{"normalized equality", func(label string) bool {
			return normalize.Key(label) == targetKey
		}},
	}

	if stripped := strings.TrimSpace(normalize.StripQuotes(target)); stripped != target && stripped != "" {
		strippedKey := normalize.Key(stripped)
		ladder = append(ladder,
			stage{"quote-stripped containment", func(label string) bool {
				return strings.Contains(label, stripped)
			}},
			stage{"quote-stripped equality", func(label string) bool {
				return normalize.Key(label) == strippedKey
			}},
		)
	}

	if stripped, ok := normalize.StripFiller(target, fillerTokens); ok && stripped != "" {
		strippedKey := normalize.Key(stripped)
		ladder = append(ladder,
			stage{"filler-stripped containment", func(label string) bool {
				return strings.Contains(label, stripped)
			}},
			stage{"filler-stripped equality", func(label string) bool {
				return normalize.Key(label) == strippedKey
			}},
		)
	}

	return ladder
}

// Resolve finds the row for a target name. On success the returned Match
// holds the first matching row in document order. On total failure the
// error is a *NotFoundError carrying candidate labels from the most recent
// listing query.
func (r *Resolver) Resolve(ctx context.Context, target string) (Match, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return Match{}, fmt.Errorf("resolve: empty target name")
	}

	var lastRows []listing.Row
	for _, st := range stages(target, r.opts.FillerTokens) {
		rows, err := r.snap.Rows(ctx)
		if err != nil {
			return Match{}, fmt.Errorf("query listing rows: %w", err)
		}
		lastRows = rows

		var hits []listing.Row
		for _, row := range rows {
			if st.match(row.Label) {
				hits = append(hits, row)
			}
		}
		if len(hits) > 0 {
			return Match{Row: hits[0], Stage: st.name, Duplicates: len(hits) - 1}, nil
		}
	}

	return Match{}, &NotFoundError{
		Target:     target,
		Candidates: firstLabels(lastRows, r.opts.CandidateLimit),
	}
}

func firstLabels(rows []listing.Row, limit int) []string {
	if len(rows) < limit {
		limit = len(rows)
	}
	labels := make([]string, 0, limit)
	for _, row := range rows[:limit] {
		labels = append(labels, row.Label)
	}
	return labels
}
