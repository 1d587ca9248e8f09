package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/wordcrawl/internal/model"
)

// SimpleWriter outputs human-readable text reports.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors because:
// 1. It works in all terminals without compatibility issues
// 2. It's easier to pipe to files or other tools
// 3. Color can be added as an option later if needed
type SimpleWriter struct {
	baseWriter

	// verbose enables the profile section and the starting URL list.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the whole run in human-readable format.
func (w *SimpleWriter) Write(run *model.CrawlRun) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, run)
	w.writeWords(&sb, resultOf(run))
	if w.verbose {
		w.writeProfile(&sb, run.Profile)
	}
	w.writeFooter(&sb)

	return w.output.Write([]byte(sb.String()))
}

// WriteResult outputs only the popular words and the visited count.
func (w *SimpleWriter) WriteResult(result *model.CrawlResult) (int, error) {
	var sb strings.Builder

	fmt.Fprintf(&sb, "URLs Visited:   %d\n\n", result.URLsVisited)
	w.writeWords(&sb, result)

	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the report header with crawl information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, run *model.CrawlRun) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                         WORDCRAWL REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	if run.ID != 0 {
		fmt.Fprintf(sb, "Run:            #%d\n", run.ID)
	}
	fmt.Fprintf(sb, "Started:        %s\n", run.StartedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(sb, "Elapsed:        %s\n", run.Elapsed)
	fmt.Fprintf(sb, "Max Depth:      %d\n", run.MaxDepth)
	fmt.Fprintf(sb, "Starting URLs:  %d\n", len(run.StartingURLs))
	if w.verbose {
		for _, u := range run.StartingURLs {
			fmt.Fprintf(sb, "  - %s\n", u)
		}
	}
	fmt.Fprintf(sb, "URLs Visited:   %d\n", run.URLsVisited())

	switch status(run) {
	case "error":
		fmt.Fprintf(sb, "Status:         ERROR - %s\n", run.ErrorMessage)
	case "interrupted":
		sb.WriteString("Status:         INTERRUPTED (partial results)\n")
	default:
		sb.WriteString("Status:         Complete\n")
	}

	sb.WriteString("\n")
}

// writeWords writes the ranked word list.
func (w *SimpleWriter) writeWords(sb *strings.Builder, result *model.CrawlResult) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("POPULAR WORDS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	if len(result.WordCounts) == 0 {
		sb.WriteString("  No words found\n\n")
		return
	}

	width := 0
	for _, wc := range result.WordCounts {
		width = max(width, len(wc.Word))
	}
	for i, wc := range result.WordCounts {
		fmt.Fprintf(sb, "  %3d. %-*s %d\n", i+1, width, wc.Word, wc.Count)
	}
	sb.WriteString("\n")
}

// writeProfile writes the profiler entries.
func (w *SimpleWriter) writeProfile(sb *strings.Builder, entries []model.ProfileEntry) {
	if len(entries) == 0 {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("PROFILE\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	for _, e := range entries {
		fmt.Fprintf(sb, "  %s: %s (%d calls)\n", e.Key(), e.Duration, e.Calls)
	}
	sb.WriteString("\n")
}

// writeFooter writes the report footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("Report generated by wordcrawl\n")
	sb.WriteString("https://github.com/nao1215/wordcrawl\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}
