// Package model defines the data structures shared across wordcrawl.
//
// This includes:
//   - CrawlResult: the immutable outcome of one crawl invocation
//   - WordCounts: the ranked, ordered word frequency list inside a result
//   - PageResult: what the page-parsing capability returns for one URL
//   - CrawlRun: the record a pipeline fills in while executing one crawl
//
// Design decision: We keep these types free of behavior beyond
// serialization helpers so that the crawler, the profiler, the report
// writers and the history database can all depend on them without
// depending on each other.
package model
