package cli

// Error codes for structured error responses.
// These codes are stable and can be relied upon by scripts.
const (
	// Config and course errors
	ErrConfigInvalid      = "CONFIG_INVALID"
	ErrCourseNotFound     = "COURSE_NOT_FOUND"
	ErrCourseNotSpecified = "COURSE_NOT_SPECIFIED"

	// Plan errors
	ErrPlanNotFound   = "PLAN_NOT_FOUND"
	ErrPlanInvalid    = "PLAN_INVALID"
	ErrHeadersMissing = "HEADERS_MISSING"
	ErrAliasesInvalid = "ALIASES_INVALID"

	// Browser errors
	ErrBrowserUnavailable = "BROWSER_UNAVAILABLE"
	ErrNavigationFailed   = "NAVIGATION_FAILED"

	// Run errors
	ErrRunFailed = "RUN_FAILED"

	// Storage errors
	ErrHistoryError = "HISTORY_ERROR"
	ErrCacheError   = "CACHE_ERROR"
	ErrNoSnapshot   = "NO_SNAPSHOT"

	// Input errors
	ErrInvalidInput    = "INVALID_INPUT"
	ErrMissingArgument = "MISSING_ARGUMENT"

	// General errors
	ErrInternal = "INTERNAL_ERROR"
)

// Warning codes for non-fatal issues.
const (
	WarnDuplicateMatch = "DUPLICATE_MATCH"
	WarnRecordSkipped  = "RECORD_SKIPPED"
	WarnDuplicateKey   = "DUPLICATE_KEY"
	WarnNothingToApply = "NOTHING_TO_APPLY"
	WarnStaleSnapshot  = "STALE_SNAPSHOT"
)
