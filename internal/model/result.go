package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// WordCount is a single word and the number of times it was seen.
type WordCount struct {
	// Word is the normalized word.
	Word string `json:"word"`

	// Count is the total occurrence count across all visited pages.
	Count int `json:"count"`
}

// WordCounts is an ordered list of word counts, most popular first.
//
// Design decision: We use a slice rather than a map because the ranking
// order is part of the result. A Go map would lose it, and callers (report
// writers, tests) need a deterministic order.
type WordCounts []WordCount

// errNotJSONObject is returned when WordCounts is decoded from a non-object.
var errNotJSONObject = errors.New("word counts: expected JSON object")

// MarshalJSON encodes the counts as a JSON object whose keys keep the
// ranking order, e.g. {"the":12,"crawler":7}.
func (wc WordCounts) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range wc {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(c.Word)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		fmt.Fprintf(&buf, "%d", c.Count)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object into WordCounts, preserving key order.
func (wc *WordCounts) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*wc = nil
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return errNotJSONObject
	}

	result := make(WordCounts, 0)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return errNotJSONObject
		}
		var count int
		if err := dec.Decode(&count); err != nil {
			return fmt.Errorf("word counts: value for %q: %w", key, err)
		}
		result = append(result, WordCount{Word: key, Count: count})
	}

	// Consume the closing brace
	if _, err := dec.Token(); err != nil {
		return err
	}

	*wc = result
	return nil
}

// Map returns the counts as an unordered map.
func (wc WordCounts) Map() map[string]int {
	m := make(map[string]int, len(wc))
	for _, c := range wc {
		m[c.Word] = c.Count
	}
	return m
}

// Words returns the words in ranking order.
func (wc WordCounts) Words() []string {
	words := make([]string, len(wc))
	for i, c := range wc {
		words[i] = c.Word
	}
	return words
}

// CrawlResult is the outcome of a single crawl invocation.
// It is created once when the crawl completes and is not modified afterwards.
type CrawlResult struct {
	// WordCounts holds the most popular words, in ranking order.
	// Empty when no visited page contained any word.
	WordCounts WordCounts `json:"wordCounts"`

	// URLsVisited is the number of distinct URLs claimed during the crawl.
	URLsVisited int `json:"urlsVisited"`
}

// NewCrawlResult returns a CrawlResult. A nil counts slice is replaced with
// an empty one so that the JSON form is always an object.
func NewCrawlResult(counts WordCounts, urlsVisited int) *CrawlResult {
	if counts == nil {
		counts = make(WordCounts, 0)
	}
	return &CrawlResult{
		WordCounts:  counts,
		URLsVisited: urlsVisited,
	}
}
