package model

// PageResult is what the page-parsing capability returns for one URL.
type PageResult struct {
	// WordCounts maps each word found on the page to its occurrence count.
	WordCounts map[string]int `json:"word_counts"`

	// Links contains the absolute outbound URLs found on the page.
	// Order follows document order; duplicates are kept because the crawler
	// deduplicates on claim.
	Links []string `json:"links"`
}

// NewPageResult returns an empty PageResult with initialized fields.
func NewPageResult() *PageResult {
	return &PageResult{
		WordCounts: make(map[string]int),
		Links:      make([]string, 0),
	}
}

// AddWord increments the count of word by one.
func (p *PageResult) AddWord(word string) {
	p.WordCounts[word]++
}

// AddLink appends an outbound link.
func (p *PageResult) AddLink(link string) {
	p.Links = append(p.Links, link)
}

// IsEmpty reports whether the page contributed neither words nor links.
func (p *PageResult) IsEmpty() bool {
	return len(p.WordCounts) == 0 && len(p.Links) == 0
}
