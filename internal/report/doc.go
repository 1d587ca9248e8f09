// Package report provides result output functionality.
//
// This package contains writers for different output formats:
//   - SimpleWriter: Human-readable text output for terminal display
//   - JSONWriter: The result file format, {"wordCounts":{...},"urlsVisited":N}
//   - FullJSONWriter: The whole crawl run with version metadata
//   - MarkdownWriter: GitHub Flavored Markdown with tables and a pie chart
//
// Design decision: We separate report writing from report data structures
// (which are in the model package) to follow the single responsibility
// principle. This allows adding new output formats without modifying
// the core data structures.
//
// Writers implement the Writer interface, allowing them to be used
// interchangeably and composed for multi-format output.
package report
