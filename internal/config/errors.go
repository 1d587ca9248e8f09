package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and provide specific
// information about what is wrong with the configuration.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate(). This allows callers to use
// errors.Is() for programmatic error handling while still providing
// human-readable messages.
var (
	// ErrNoStartPages is returned when neither the config file nor the
	// command line provides a starting URL.
	ErrNoStartPages = errors.New("no start pages specified: provide a URL or set startPages in the config file")

	// ErrInvalidTimeout is returned when the crawl timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidParallelism is returned when the parallelism is not positive.
	ErrInvalidParallelism = errors.New("invalid parallelism: must be positive")

	// ErrInvalidMaxDepth is returned when the max depth is negative.
	// Use 0 to visit nothing.
	ErrInvalidMaxDepth = errors.New("invalid max depth: must be non-negative")

	// ErrInvalidPopularWordCount is returned when the popular word count is negative.
	ErrInvalidPopularWordCount = errors.New("invalid popular word count: must be non-negative")

	// ErrInvalidParserDeadline is returned when the parser deadline is negative.
	// Use 0 for no per-page bound.
	ErrInvalidParserDeadline = errors.New("invalid parser deadline: must be non-negative")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	// Use 0 to use the default limit.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified. Only one output format can be used at a time.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrInvalidPattern is returned when an ignore pattern is not a valid
	// regular expression.
	ErrInvalidPattern = errors.New("invalid pattern")
)
