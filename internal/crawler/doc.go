// Package crawler provides the concurrent word-counting web crawler.
//
// # Architecture
//
// The Engine crawls from a list of starting URLs. Every URL becomes a task
// that parses the page, merges its word counts and forks one child task per
// outbound link with one less remaining depth. A parent waits for its own
// children only, so the crawl returns once every reachable branch is done.
//
// Design decision: Tasks run as goroutines but only a bounded number of them
// may parse at once. A task holds a worker slot while it checks the deadline,
// claims its URL and parses the page, and gives the slot back before it
// waits for its children. Waiting parents therefore never starve the pool,
// which keeps deep, narrow branches from blocking wide, shallow ones.
//
// # Components
//
//   - Engine: schedules tasks, enforces depth and deadline, ranks the result
//   - VisitedSet: claim-once set of normalized URLs
//   - CountAccumulator: per-word atomic counters merged from every page
//   - HTMLParser: the PageParser that fetches and tokenizes pages
//   - ProfiledParser / ProfiledCrawler: profiler descriptors for both interfaces
//
// # Usage
//
//	parser := crawler.NewHTMLParser(client, crawler.WithParseTimeout(2*time.Second))
//	engine := crawler.NewEngine(parser,
//	    crawler.WithMaxDepth(3),
//	    crawler.WithTimeout(10*time.Second),
//	    crawler.WithPopularWordCount(5),
//	)
//	result, err := engine.Crawl(ctx, []string{"https://example.com/"})
//
// # Ordering
//
// No order of visits or merges is guaranteed. Claims are idempotent and
// merges commute, so the result does not depend on scheduling.
package crawler
