// Package main provides the entry point for the wordcrawl CLI.
//
// wordcrawl crawls web pages in parallel from a set of starting URLs and
// reports the most popular words found within a depth and time limit.
//
// Usage:
//
//	wordcrawl crawl <url>...
//	wordcrawl crawl --config crawl.yaml
//
// See --help for all available options.
package main

// main is the entry point for wordcrawl.
func main() {
	Execute()
}
