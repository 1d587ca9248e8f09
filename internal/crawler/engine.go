package crawler

import (
	"context"
	"log/slog"
	"regexp"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/nao1215/wordcrawl/internal/clock"
	"github.com/nao1215/wordcrawl/internal/model"
)

// Engine defaults.
const (
	// DefaultTimeout bounds how long new pages may be started.
	DefaultTimeout = 10 * time.Second

	// DefaultMaxDepth is the number of link hops followed from a starting URL,
	// counting the starting page itself.
	DefaultMaxDepth = 10

	// DefaultPopularWordCount is the number of words kept in the result.
	DefaultPopularWordCount = 10
)

// WebCrawler crawls from a set of starting URLs and reports popular words.
type WebCrawler interface {
	// Crawl visits every page reachable from startingURLs within the
	// configured depth and deadline and returns the aggregated result.
	Crawl(ctx context.Context, startingURLs []string) (*model.CrawlResult, error)

	// MaxParallelism returns the number of pages the host can usefully
	// parse at the same time.
	MaxParallelism() int
}

// PageParser is the page-parsing capability the Engine consumes.
type PageParser interface {
	// Parse fetches pageURL and returns its word counts and outbound links.
	Parse(ctx context.Context, pageURL string) (*model.PageResult, error)
}

// Engine is the parallel WebCrawler.
type Engine struct {
	// parser fetches and tokenizes pages.
	parser PageParser

	// clock provides the time for deadline checks.
	clock clock.Clock

	// timeout is added to the start time to compute the crawl deadline.
	timeout time.Duration

	// popularWordCount is the number of words in the result.
	popularWordCount int

	// maxDepth is the remaining depth of every starting URL.
	// A value of 0 visits nothing.
	maxDepth int

	// ignoredURLs are matched against each URL before it is claimed.
	ignoredURLs []*regexp.Regexp

	// parallelism is the requested number of concurrent parses.
	parallelism int

	// logger for structured logging.
	logger *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithClock sets the clock used for the deadline.
func WithClock(c clock.Clock) EngineOption {
	return func(e *Engine) {
		e.clock = c
	}
}

// WithTimeout sets how long after the start of a crawl new pages may be visited.
func WithTimeout(d time.Duration) EngineOption {
	return func(e *Engine) {
		e.timeout = d
	}
}

// WithPopularWordCount sets how many words the result keeps.
func WithPopularWordCount(n int) EngineOption {
	return func(e *Engine) {
		e.popularWordCount = n
	}
}

// WithMaxDepth sets the maximum crawl depth.
// 0 = visit nothing, 1 = only the starting pages, 2 = starting pages plus their links, etc.
func WithMaxDepth(depth int) EngineOption {
	return func(e *Engine) {
		e.maxDepth = depth
	}
}

// WithIgnoredURLs sets the patterns of URLs that are never visited.
// A URL is skipped if any pattern matches it (regexp.MatchString); anchor
// the patterns to require a full match.
func WithIgnoredURLs(patterns []*regexp.Regexp) EngineOption {
	return func(e *Engine) {
		e.ignoredURLs = patterns
	}
}

// WithParallelism sets the target number of concurrent parses.
// The effective value is capped at MaxParallelism.
func WithParallelism(n int) EngineOption {
	return func(e *Engine) {
		e.parallelism = n
	}
}

// WithLogger sets a custom logger for the engine.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = logger
	}
}

// NewEngine creates an Engine that parses pages with parser.
func NewEngine(parser PageParser, opts ...EngineOption) *Engine {
	e := &Engine{
		parser:           parser,
		clock:            clock.NewSystem(),
		timeout:          DefaultTimeout,
		popularWordCount: DefaultPopularWordCount,
		maxDepth:         DefaultMaxDepth,
		ignoredURLs:      make([]*regexp.Regexp, 0),
		parallelism:      runtime.NumCPU(),
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.logger == nil {
		e.logger = slog.Default()
	}

	return e
}

// MaxParallelism returns the number of CPUs available to the process.
func (e *Engine) MaxParallelism() int {
	return runtime.NumCPU()
}

// workers returns min(parallelism, MaxParallelism), at least 1.
func (e *Engine) workers() int {
	n := min(e.parallelism, e.MaxParallelism())
	if n < 1 {
		return 1
	}
	return n
}

// Crawl visits every URL reachable from startingURLs and returns the most
// popular words.
//
// The deadline is computed once from the engine clock. It is only checked
// when a page is about to be visited; a parse already running when the
// deadline passes is allowed to finish. Cancelling ctx has the same effect
// as the deadline passing, and Crawl then returns the partial result
// together with ctx.Err().
func (e *Engine) Crawl(ctx context.Context, startingURLs []string) (*model.CrawlResult, error) {
	started := e.clock.Now()
	c := &crawl{
		engine:   e,
		deadline: started.Add(e.timeout),
		visited:  NewVisitedSet(),
		counts:   NewCountAccumulator(),
		slots:    semaphore.NewWeighted(int64(e.workers())),
	}

	e.logger.Info("crawl started",
		"starting_urls", len(startingURLs),
		"max_depth", e.maxDepth,
		"workers", e.workers(),
		"deadline", c.deadline,
	)

	var g errgroup.Group
	for _, u := range startingURLs {
		g.Go(func() error {
			c.run(ctx, u, e.maxDepth)
			return nil
		})
	}
	_ = g.Wait() //nolint:errcheck // tasks never return errors

	result := c.result(e.popularWordCount)

	e.logger.Info("crawl completed",
		"urls_visited", result.URLsVisited,
		"distinct_words", c.counts.Len(),
		"elapsed", e.clock.Now().Sub(started),
	)

	return result, ctx.Err()
}

// crawl holds the shared state of one Crawl invocation.
type crawl struct {
	engine   *Engine
	deadline time.Time
	visited  *VisitedSet
	counts   *CountAccumulator

	// slots bounds the number of tasks visiting a page at the same time.
	slots *semaphore.Weighted
}

// run is one crawl task: visit url, then fork and join its children.
func (c *crawl) run(ctx context.Context, pageURL string, remainingDepth int) {
	if remainingDepth <= 0 {
		return
	}

	if err := c.slots.Acquire(ctx, 1); err != nil {
		return
	}
	links := c.visit(ctx, pageURL)
	c.slots.Release(1)

	// Children at depth zero would stop immediately; don't fork them.
	if remainingDepth-1 <= 0 || len(links) == 0 {
		return
	}

	var g errgroup.Group
	for _, link := range links {
		g.Go(func() error {
			c.run(ctx, link, remainingDepth-1)
			return nil
		})
	}
	_ = g.Wait() //nolint:errcheck // tasks never return errors
}

// visit checks the deadline, ignore patterns and claim for pageURL, then
// parses it and merges its word counts. It returns the links to follow.
func (c *crawl) visit(ctx context.Context, pageURL string) []string {
	if !c.engine.clock.Now().Before(c.deadline) || ctx.Err() != nil {
		return nil
	}
	if c.engine.isIgnored(pageURL) {
		c.engine.logger.Debug("ignored url", "url", pageURL)
		return nil
	}
	if !c.visited.Claim(pageURL) {
		return nil
	}

	page, err := c.engine.parser.Parse(ctx, pageURL)
	if err != nil {
		c.engine.logger.Debug("parse failed", "url", pageURL, "error", err)
		return nil
	}
	if page == nil {
		return nil
	}

	c.counts.MergeAll(page.WordCounts)
	return page.Links
}

// result builds the CrawlResult from the accumulated state.
func (c *crawl) result(popularWordCount int) *model.CrawlResult {
	if c.counts.Len() == 0 {
		return model.NewCrawlResult(nil, c.visited.Len())
	}
	return model.NewCrawlResult(topWords(c.counts.Snapshot(), popularWordCount), c.visited.Len())
}

// isIgnored reports whether pageURL matches an ignore pattern.
// Patterns are checked in order and the first match wins.
func (e *Engine) isIgnored(pageURL string) bool {
	for _, pattern := range e.ignoredURLs {
		if pattern.MatchString(pageURL) {
			return true
		}
	}
	return false
}
