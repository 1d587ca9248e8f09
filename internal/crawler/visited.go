package crawler

import (
	"net/url"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
)

// VisitedSet records which URLs have been claimed during one crawl.
//
// Design decision: We use sync.Map.LoadOrStore as the claim operation
// because it is an atomic test-and-set per key without a set-wide lock.
// Tasks claiming unrelated URLs never wait for each other.
type VisitedSet struct {
	urls  sync.Map // normalized URL -> struct{}
	count atomic.Int64
}

// NewVisitedSet returns an empty VisitedSet.
func NewVisitedSet() *VisitedSet {
	return &VisitedSet{}
}

// Claim marks pageURL as visited. It returns true for exactly one caller
// per normalized URL; every later or concurrent caller gets false.
func (v *VisitedSet) Claim(pageURL string) bool {
	_, loaded := v.urls.LoadOrStore(normalizeURL(pageURL), struct{}{})
	if loaded {
		return false
	}
	v.count.Add(1)
	return true
}

// Contains reports whether pageURL has been claimed.
func (v *VisitedSet) Contains(pageURL string) bool {
	_, ok := v.urls.Load(normalizeURL(pageURL))
	return ok
}

// Len returns the number of claimed URLs.
func (v *VisitedSet) Len() int {
	return int(v.count.Load())
}

// URLs returns the claimed URLs in sorted order.
func (v *VisitedSet) URLs() []string {
	urls := make([]string, 0, v.Len())
	v.urls.Range(func(k, _ any) bool {
		urls = append(urls, k.(string)) //nolint:forcetypeassert // only strings are stored
		return true
	})
	sort.Strings(urls)
	return urls
}

// normalizeURL normalizes a URL for deduplication.
//
// Design decision: We normalize URLs because:
//  1. Same page can have different URL representations
//  2. Fragment (#anchor) doesn't change content
//  3. Scheme and host are case-insensitive
func normalizeURL(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil {
		return pageURL
	}

	u.Fragment = ""
	u.RawFragment = ""
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)

	// http://example.com and http://example.com/ are the same page
	if u.Path == "" && u.Host != "" {
		u.Path = "/"
	}

	return u.String()
}
