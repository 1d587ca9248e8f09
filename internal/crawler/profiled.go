package crawler

import (
	"context"

	"github.com/nao1215/wordcrawl/internal/model"
	"github.com/nao1215/wordcrawl/internal/profiler"
)

// ProfiledParser describes PageParser for profiler.Wrap. Parse is timed.
var ProfiledParser = profiler.Interface[PageParser]{
	Name: "crawler.PageParser",
	Methods: []profiler.Method{
		{Name: "Parse", Profiled: true},
	},
	Decorate: func(delegate PageParser, ic *profiler.Interceptor) PageParser {
		return &profiledParser{delegate: delegate, ic: ic}
	},
}

// ProfiledCrawler describes WebCrawler for profiler.Wrap. Crawl is timed,
// MaxParallelism is forwarded untouched.
var ProfiledCrawler = profiler.Interface[WebCrawler]{
	Name: "crawler.WebCrawler",
	Methods: []profiler.Method{
		{Name: "Crawl", Profiled: true},
		{Name: "MaxParallelism", Profiled: false},
	},
	Decorate: func(delegate WebCrawler, ic *profiler.Interceptor) WebCrawler {
		return &profiledCrawler{delegate: delegate, ic: ic}
	},
}

type profiledParser struct {
	delegate PageParser
	ic       *profiler.Interceptor
}

func (p *profiledParser) Parse(ctx context.Context, pageURL string) (*model.PageResult, error) {
	return profiler.Invoke(p.ic, "Parse", func() (*model.PageResult, error) {
		return p.delegate.Parse(ctx, pageURL)
	})
}

type profiledCrawler struct {
	delegate WebCrawler
	ic       *profiler.Interceptor
}

func (c *profiledCrawler) Crawl(ctx context.Context, startingURLs []string) (*model.CrawlResult, error) {
	return profiler.Invoke(c.ic, "Crawl", func() (*model.CrawlResult, error) {
		return c.delegate.Crawl(ctx, startingURLs)
	})
}

func (c *profiledCrawler) MaxParallelism() int {
	var n int
	_ = c.ic.Call("MaxParallelism", func() error {
		n = c.delegate.MaxParallelism()
		return nil
	})
	return n
}
