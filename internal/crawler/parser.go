package crawler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"
	"unicode"

	"golang.org/x/net/html"
	"golang.org/x/text/cases"

	"github.com/nao1215/wordcrawl/internal/model"
)

// Parser defaults.
const (
	// DefaultUserAgent identifies wordcrawl in HTTP requests.
	DefaultUserAgent = "wordcrawl/1.0 (+https://github.com/nao1215/wordcrawl)"

	// DefaultMaxBodySize limits how much of a response body is read.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB
)

// HTMLParser is a PageParser that fetches pages over HTTP (or from disk for
// file:// URLs) and counts the words in their visible text.
//
// Design decision: We use golang.org/x/net/html for parsing rather than
// regex because:
//  1. It correctly handles malformed HTML common on the web
//  2. Script and style content can be skipped by element, not by guesswork
//  3. Link resolution works on real href attributes
type HTMLParser struct {
	// client performs HTTP requests.
	client *http.Client

	// userAgent is the User-Agent header to send.
	userAgent string

	// maxBodySize limits the size of response bodies to read.
	maxBodySize int64

	// parseTimeout bounds a single Parse call. Zero means no extra bound.
	parseTimeout time.Duration

	// ignoredWords are patterns of words that are not counted.
	ignoredWords []*regexp.Regexp
}

// HTMLParserOption configures an HTMLParser.
type HTMLParserOption func(*HTMLParser)

// WithUserAgent sets a custom User-Agent header.
func WithUserAgent(ua string) HTMLParserOption {
	return func(p *HTMLParser) {
		p.userAgent = ua
	}
}

// WithMaxBodySize sets the maximum response body size.
func WithMaxBodySize(size int64) HTMLParserOption {
	return func(p *HTMLParser) {
		p.maxBodySize = size
	}
}

// WithParseTimeout bounds the time spent fetching and parsing one page.
func WithParseTimeout(d time.Duration) HTMLParserOption {
	return func(p *HTMLParser) {
		p.parseTimeout = d
	}
}

// WithIgnoredWords sets word patterns that are excluded from counting.
// A word is dropped if any pattern matches it after case folding.
func WithIgnoredWords(patterns []*regexp.Regexp) HTMLParserOption {
	return func(p *HTMLParser) {
		p.ignoredWords = patterns
	}
}

// NewHTMLParser creates an HTMLParser. A nil client uses http.DefaultClient.
func NewHTMLParser(client *http.Client, opts ...HTMLParserOption) *HTMLParser {
	if client == nil {
		client = http.DefaultClient
	}

	p := &HTMLParser{
		client:       client,
		userAgent:    DefaultUserAgent,
		maxBodySize:  DefaultMaxBodySize,
		ignoredWords: make([]*regexp.Regexp, 0),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Parse fetches pageURL and returns its word counts and outbound links.
func (p *HTMLParser) Parse(ctx context.Context, pageURL string) (*model.PageResult, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid page URL %q: %w", pageURL, err)
	}

	if p.parseTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.parseTimeout)
		defer cancel()
	}

	switch base.Scheme {
	case "http", "https":
		return p.parseHTTP(ctx, base)
	case "file":
		return p.parseFile(base)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, base.Scheme)
	}
}

// parseHTTP fetches an http(s) page and parses its body.
func (p *HTMLParser) parseHTTP(ctx context.Context, base *url.URL) (*model.PageResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", p.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	if !isTextContent(resp.Header.Get("Content-Type")) {
		return model.NewPageResult(), nil
	}

	// Links are resolved against the final URL after redirects.
	if resp.Request != nil && resp.Request.URL != nil {
		base = resp.Request.URL
	}

	return p.parseDocument(base, io.LimitReader(resp.Body, p.maxBodySize))
}

// parseFile reads a page from the local filesystem.
func (p *HTMLParser) parseFile(base *url.URL) (*model.PageResult, error) {
	f, err := os.Open(base.Path) //nolint:gosec // Crawling local files is an explicit feature
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return p.parseDocument(base, io.LimitReader(f, p.maxBodySize))
}

// parseDocument walks the HTML tree, counting words in text nodes and
// collecting the targets of <a href> elements.
func (p *HTMLParser) parseDocument(base *url.URL, content io.Reader) (*model.PageResult, error) {
	doc, err := html.Parse(content)
	if err != nil {
		return nil, err
	}

	result := model.NewPageResult()

	// cases.Caser is stateful and must not be shared between goroutines.
	fold := cases.Fold()

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.ElementNode:
			switch n.Data {
			case "script", "style", "template", "noscript":
				return
			case "a":
				if link := resolveURL(base, getAttr(n, "href")); link != "" {
					result.AddLink(link)
				}
			}
		case html.TextNode:
			for _, word := range splitWords(n.Data) {
				word = fold.String(word)
				if p.isIgnoredWord(word) {
					continue
				}
				result.AddWord(word)
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(doc)

	return result, nil
}

// isIgnoredWord reports whether word matches an ignored-word pattern.
func (p *HTMLParser) isIgnoredWord(word string) bool {
	for _, pattern := range p.ignoredWords {
		if pattern.MatchString(word) {
			return true
		}
	}
	return false
}

// splitWords splits text on every rune that is neither a letter nor a digit.
func splitWords(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// isTextContent reports whether a Content-Type may contain countable text.
// An empty Content-Type is treated as text.
func isTextContent(contentType string) bool {
	if contentType == "" {
		return true
	}
	ct := strings.ToLower(contentType)
	return strings.HasPrefix(ct, "text/") ||
		strings.Contains(ct, "html") ||
		strings.Contains(ct, "xml")
}

// resolveURL resolves href against base and drops the fragment.
// Non-navigational links (javascript:, mailto:, tel:, data:, bare "#")
// resolve to the empty string.
func resolveURL(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || href == "#" {
		return ""
	}

	lower := strings.ToLower(href)
	for _, prefix := range []string{"javascript:", "mailto:", "tel:", "data:"} {
		if strings.HasPrefix(lower, prefix) {
			return ""
		}
	}

	u, err := url.Parse(href)
	if err != nil {
		return ""
	}

	resolved := base.ResolveReference(u)
	resolved.Fragment = ""
	resolved.RawFragment = ""
	return resolved.String()
}

// getAttr retrieves an attribute value from an HTML node.
func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}
