package report

import (
	"encoding/json"
	"io"

	"github.com/nao1215/wordcrawl/internal/model"
)

// JSONWriter outputs results in JSON format.
// This format is designed for tool integration and programmatic processing.
//
// Design decision: We use standard encoding/json rather than a third-party
// JSON library because:
// 1. model.WordCounts already implements json.Marshaler to keep rank order
// 2. It's sufficient for our needs
// 3. It provides consistent behavior across Go versions
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	// When false, output is compact (no extra whitespace).
	indent bool

	// indentPrefix is the prefix for each line in indented output.
	indentPrefix string

	// indentString is the indentation string (typically "  " or "\t").
	indentString string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
// The prefix is prepended to each line, and indent is used for each level.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with default indentation.
// This is a convenience wrapper for WithIndent("", "  ").
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the run's result in the result file format.
// A run that never produced a result is written as an empty result.
func (w *JSONWriter) Write(run *model.CrawlRun) (int, error) {
	return w.writeJSON(resultOf(run))
}

// WriteResult outputs result in the result file format.
func (w *JSONWriter) WriteResult(result *model.CrawlResult) (int, error) {
	return w.writeJSON(result)
}

// writeJSON marshals the given value to JSON and writes it to the output.
func (w *JSONWriter) writeJSON(v any) (int, error) {
	var data []byte
	var err error

	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}

	if err != nil {
		return 0, err
	}

	// Add trailing newline for better terminal output
	data = append(data, '\n')

	return w.output.Write(data)
}

// JSONReport wraps a whole crawl run with version metadata.
//
// Design decision: We wrap the run rather than modifying CrawlRun
// because this allows us to add output-specific fields without polluting
// the core data structure.
type JSONReport struct {
	// Version is the wordcrawl version that generated this report.
	Version string `json:"version"`

	// Status is "complete", "interrupted" or "error".
	Status string `json:"status"`

	// Run is the full crawl run.
	Run *model.CrawlRun `json:"run"`
}

// NewJSONReport creates a JSONReport wrapper with version information.
func NewJSONReport(run *model.CrawlRun, version string) *JSONReport {
	return &JSONReport{
		Version: version,
		Status:  status(run),
		Run:     run,
	}
}

// FullJSONWriter outputs complete runs with metadata wrapper.
type FullJSONWriter struct {
	*JSONWriter

	// version is the wordcrawl version string.
	version string
}

// NewFullJSONWriter creates a writer for complete runs with metadata.
func NewFullJSONWriter(output io.Writer, version string, opts ...JSONWriterOption) *FullJSONWriter {
	return &FullJSONWriter{
		JSONWriter: NewJSONWriter(output, opts...),
		version:    version,
	}
}

// Write outputs the full run wrapped with metadata.
func (w *FullJSONWriter) Write(run *model.CrawlRun) (int, error) {
	return w.writeJSON(NewJSONReport(run, w.version))
}
