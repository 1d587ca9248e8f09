package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/nao1215/wordcrawl/internal/model"
)

// Writer defines the interface for report output.
//
// Design decision: We use an interface to allow different output formats
// and destinations. This enables writing to files or stdout with the
// same API.
type Writer interface {
	// Write outputs a whole crawl run to the configured destination.
	// Returns the number of bytes written and any error encountered.
	Write(run *model.CrawlRun) (int, error)

	// WriteResult outputs only the crawl result.
	WriteResult(result *model.CrawlResult) (int, error)
}

// MultiWriter writes to multiple Writers simultaneously.
// This is useful for outputting to both terminal and file.
//
// Design decision: We implement this as a separate type rather than
// using io.MultiWriter because our Writer interface is different
// from io.Writer - we write reports, not raw bytes.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the run to all configured Writers.
// Returns the total bytes written across all writers.
// Stops on first error encountered.
func (m *MultiWriter) Write(run *model.CrawlRun) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(run)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// WriteResult outputs the result to all configured Writers.
func (m *MultiWriter) WriteResult(result *model.CrawlResult) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.WriteResult(result)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// Format selects a Writer implementation.
type Format int

const (
	// FormatSimple is the human-readable text format.
	FormatSimple Format = iota
	// FormatJSON is the result file format.
	FormatJSON
	// FormatMarkdown is GitHub Flavored Markdown.
	FormatMarkdown
)

// New returns the Writer for format writing to output.
func New(format Format, output io.Writer) Writer {
	switch format {
	case FormatJSON:
		return NewJSONWriter(output, WithPrettyPrint())
	case FormatMarkdown:
		return NewMarkdownWriter(output)
	default:
		return NewSimpleWriter(output)
	}
}

// CreateFile creates (or truncates) the report file at path, creating its
// parent directories if needed.
func CreateFile(path string) (*os.File, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.Create(path) //nolint:gosec // User-provided output path is intentional
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// status returns a one-word description of how run ended.
func status(run *model.CrawlRun) string {
	switch {
	case run.ErrorMessage != "":
		return "error"
	case run.Interrupted:
		return "interrupted"
	default:
		return "complete"
	}
}

// resultOf returns the run's result, or an empty one if the crawl never finished.
func resultOf(run *model.CrawlRun) *model.CrawlResult {
	if run.Result == nil {
		return model.NewCrawlResult(nil, 0)
	}
	return run.Result
}
