package model

import (
	"time"
)

// ProfileEntry is the accumulated timing of one profiled method.
type ProfileEntry struct {
	// Interface is the name of the profiled interface, e.g. "crawler.PageParser".
	Interface string `json:"interface"`

	// Method is the profiled method name.
	Method string `json:"method"`

	// Duration is the total time spent inside the method.
	Duration time.Duration `json:"duration"`

	// Calls is the number of recorded invocations.
	Calls int64 `json:"calls"`
}

// Key returns "<interface>#<method>".
func (e ProfileEntry) Key() string {
	return e.Interface + "#" + e.Method
}

// CrawlRun is the record of one crawl, filled in step by step by the
// pipeline and finally written to reports and the history database.
//
// Design decision: We use a single mutable record passed through the
// pipeline rather than returning values from each step because:
//  1. Later steps (report, persist) need the output of earlier ones
//  2. A failing step can record its error without losing earlier output
//  3. The same struct serializes directly for the history database
type CrawlRun struct {
	// ID is the database identifier. Zero until the run is persisted.
	ID int64 `json:"id,omitempty"`

	// StartingURLs are the URLs the crawl was seeded with.
	StartingURLs []string `json:"starting_urls"`

	// StartedAt is the wall clock time when the crawl began.
	StartedAt time.Time `json:"started_at"`

	// Elapsed is the wall clock duration of the crawl step.
	Elapsed time.Duration `json:"elapsed"`

	// MaxDepth is the depth limit the crawl ran with.
	MaxDepth int `json:"max_depth"`

	// Result is the crawl outcome. Nil until the crawl step completed.
	Result *CrawlResult `json:"result,omitempty"`

	// Profile holds the profiler entries captured after the crawl.
	Profile []ProfileEntry `json:"profile,omitempty"`

	// Interrupted is true if the crawl stopped because its context was cancelled.
	Interrupted bool `json:"interrupted"`

	// PerformedSteps lists the pipeline steps that ran.
	PerformedSteps []string `json:"performed_steps,omitempty"`

	// Error contains the last error recorded by a pipeline step.
	Error error `json:"-"`

	// ErrorMessage is the string representation of Error for serialization.
	ErrorMessage string `json:"error,omitempty"` //nolint:tagliatelle // error is conventional
}

// NewCrawlRun creates a CrawlRun for the given starting URLs.
func NewCrawlRun(startingURLs []string, maxDepth int) *CrawlRun {
	urls := make([]string, len(startingURLs))
	copy(urls, startingURLs)
	return &CrawlRun{
		StartingURLs:   urls,
		StartedAt:      time.Now(),
		MaxDepth:       maxDepth,
		PerformedSteps: make([]string, 0),
	}
}

// URLsVisited returns the visited count, or zero when no result exists yet.
func (r *CrawlRun) URLsVisited() int {
	if r.Result == nil {
		return 0
	}
	return r.Result.URLsVisited
}
