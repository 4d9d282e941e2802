package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"d2ldates/internal/dates"
	"d2ldates/internal/labelcache"
	"d2ldates/internal/listing"
	"d2ldates/internal/normalize"
	"d2ldates/internal/plan"
	"d2ldates/internal/resolver"
)

var (
	checkAliasesFlag string
	checkResolve     bool
	checkStrict      bool
)

var checkCmd = &cobra.Command{
	Use:   "check <plan.csv>",
	Short: "Validate a plan without touching the browser",
	Long: `Validate a plan without touching the browser.

Checks the header row, parses every date and time cell, and flags rows
that will be skipped: missing names, duplicate names, fields with a date
but no time (or the reverse).

With --resolve, each name is also matched against the course's cached
row labels (see 'd2ldates snapshot'), so typos surface before a run.

Exits 1 when errors are found, or when --strict is set and there are
warnings.`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().StringVar(&checkAliasesFlag, "aliases", "", "YAML file mapping plan names to page labels")
	checkCmd.Flags().BoolVar(&checkResolve, "resolve", false, "Match names against the cached snapshot")
	checkCmd.Flags().BoolVar(&checkStrict, "strict", false, "Treat warnings as errors")
}

// staleCapture is how old a snapshot gets before check warns about it.
const staleCapture = 7 * 24 * time.Hour

type checkIssue struct {
	Level   string `json:"level"`
	Line    int    `json:"line,omitempty"`
	Record  string `json:"record,omitempty"`
	Message string `json:"message"`
}

type checkResolution struct {
	Course     string    `json:"course"`
	CapturedAt time.Time `json:"captured_at"`
	Labels     int       `json:"labels"`
	Resolved   int       `json:"resolved"`
	Unresolved int       `json:"unresolved"`
}

type checkResult struct {
	Plan       string           `json:"plan"`
	Records    int              `json:"records"`
	Editable   int              `json:"editable_fields"`
	Errors     int              `json:"errors"`
	Warnings   int              `json:"warnings"`
	Issues     []checkIssue     `json:"issues,omitempty"`
	Resolution *checkResolution `json:"resolution,omitempty"`
}

func runCheck(cmd *cobra.Command, args []string) error {
	pl, err := plan.Load(args[0])
	if err != nil {
		var hdrErr *plan.HeaderError
		switch {
		case errors.As(err, &hdrErr):
			return handleErrorWithDetails(ErrHeadersMissing, err.Error(),
				"The header row must contain: Name, Start Date, Start Time, Due Date, Due Time", hdrErr)
		case errors.Is(err, os.ErrNotExist):
			return handleError(ErrPlanNotFound, err, "")
		default:
			return handleError(ErrPlanInvalid, err, "")
		}
	}

	aliases, err := loadAliases(checkAliasesFlag)
	if err != nil {
		return handleError(ErrAliasesInvalid, err, "")
	}

	result := checkResult{Plan: pl.Path, Records: len(pl.Records)}
	addIssue := func(level string, line int, record, message string) {
		result.Issues = append(result.Issues, checkIssue{Level: level, Line: line, Record: record, Message: message})
		if level == "error" {
			result.Errors++
		} else {
			result.Warnings++
		}
	}

	validatePlan(pl, addIssue, &result.Editable)

	if checkResolve {
		res, err := resolveAgainstCapture(pl, aliases, addIssue)
		if err != nil {
			return err
		}
		result.Resolution = res
	}

	if isJSONOutput() {
		outputSuccess(result, &Meta{Count: len(pl.Records)})
	} else {
		printCheckResult(result)
	}

	if result.Errors > 0 || (checkStrict && result.Warnings > 0) {
		os.Exit(1)
	}
	return nil
}

// validatePlan runs the offline checks: parseable cells, lopsided fields,
// skipped rows, duplicate names.
func validatePlan(pl *plan.Plan, addIssue func(level string, line int, record, message string), editable *int) {
	// Names that slug to the same key collide at resolution time too.
	seen := make(map[string]plan.Record)

	for _, rec := range pl.Records {
		if rec.Name == "" {
			addIssue("warning", rec.Line, "", "row has no name and will be skipped")
			continue
		}

		kinds := rec.RequestedKinds()
		*editable += len(kinds)

		for _, k := range kinds {
			date, clock := rec.Field(k)
			if _, err := dates.ParseDate(date); err != nil {
				addIssue("error", rec.Line, rec.Name, fmt.Sprintf("%s date: %v", k, err))
			}
			if _, err := dates.ParseClock(clock); err != nil {
				addIssue("error", rec.Line, rec.Name, fmt.Sprintf("%s time: %v", k, err))
			}
		}

		lopsided := 0
		for _, k := range listing.Kinds() {
			date, clock := rec.Field(k)
			switch {
			case date != "" && clock == "":
				addIssue("warning", rec.Line, rec.Name, fmt.Sprintf("%s date given without a time; the field will not be edited", k))
				lopsided++
			case date == "" && clock != "":
				addIssue("warning", rec.Line, rec.Name, fmt.Sprintf("%s time given without a date; the field will not be edited", k))
				lopsided++
			}
		}
		if len(kinds) == 0 && lopsided == 0 {
			addIssue("warning", rec.Line, rec.Name, "no date or time cells filled; nothing to apply")
		}

		key := normalize.SlugKey(rec.Name)
		if prev, dup := seen[key]; dup {
			addIssue("warning", rec.Line, rec.Name, fmt.Sprintf("duplicate of %q on line %d; both rows will edit the same document", prev.Name, prev.Line))
		} else {
			seen[key] = rec
		}
	}
}

// resolveAgainstCapture matches every named record against the cached
// snapshot for the selected course.
func resolveAgainstCapture(pl *plan.Plan, aliases map[string]string, addIssue func(level string, line int, record, message string)) (*checkResolution, error) {
	courseName, _, err := resolveCourse()
	if err != nil {
		return nil, courseError(err)
	}

	capture, err := openLabelCache().Get(courseName)
	if err != nil {
		if errors.Is(err, labelcache.ErrNoCapture) {
			return nil, handleError(ErrNoSnapshot, err,
				fmt.Sprintf("Run 'd2ldates snapshot --course %q' with the page open first", courseName))
		}
		return nil, handleError(ErrCacheError, err, "")
	}

	if age := time.Since(capture.CapturedAt); age > staleCapture {
		addIssue("warning", 0, "", fmt.Sprintf("snapshot for %q is %d days old; rows may have changed", courseName, int(age.Hours()/24)))
	}

	res := resolver.New(capture, resolverOptions())
	out := &checkResolution{Course: courseName, CapturedAt: capture.CapturedAt, Labels: len(capture.Labels)}

	for _, rec := range pl.Records {
		if rec.Name == "" {
			continue
		}
		target := rec.Name
		if alias, ok := aliases[rec.Name]; ok {
			target = alias
		}

		m, err := res.Resolve(context.Background(), target)
		if err != nil {
			out.Unresolved++
			addIssue("error", rec.Line, rec.Name, err.Error())
			continue
		}
		out.Resolved++
		if m.Duplicates > 0 {
			addIssue("warning", rec.Line, rec.Name, fmt.Sprintf("%d rows match %q; the first will be edited", m.Duplicates+1, target))
		}
	}
	return out, nil
}

func printCheckResult(r checkResult) {
	fmt.Printf("Checking plan: %s\n", r.Plan)

	for _, issue := range r.Issues {
		prefix := "ERROR"
		if issue.Level == "warning" {
			prefix = "WARN"
		}
		loc := ""
		if issue.Line > 0 {
			loc = fmt.Sprintf("line %d", issue.Line)
		}
		if issue.Record != "" {
			if loc != "" {
				loc += " "
			}
			loc += fmt.Sprintf("(%s)", issue.Record)
		}
		if loc != "" {
			fmt.Printf("%s: %s - %s\n", prefix, loc, issue.Message)
		} else {
			fmt.Printf("%s: %s\n", prefix, issue.Message)
		}
	}

	if len(r.Issues) > 0 {
		fmt.Println()
	}
	if r.Errors == 0 && r.Warnings == 0 {
		fmt.Printf("No issues: %d records, %d editable fields.\n", r.Records, r.Editable)
	} else {
		fmt.Printf("Found %d error(s), %d warning(s) in %d records.\n", r.Errors, r.Warnings, r.Records)
	}
	if r.Resolution != nil {
		fmt.Printf("Resolution against %s: %d matched, %d not found (snapshot of %d rows from %s).\n",
			r.Resolution.Course, r.Resolution.Resolved, r.Resolution.Unresolved,
			r.Resolution.Labels, r.Resolution.CapturedAt.Local().Format("Jan 2 15:04"))
	}
}
