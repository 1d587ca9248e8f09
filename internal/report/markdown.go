package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"github.com/nao1215/wordcrawl/internal/model"
)

// pieChartWords is the number of top words drawn in the pie chart.
const pieChartWords = 5

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the whole run in Markdown format.
func (w *MarkdownWriter) Write(run *model.CrawlRun) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, run)
	w.writeAlert(md, run)
	w.writeWords(md, resultOf(run))
	w.writeProfile(md, run.Profile)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// WriteResult outputs only the popular words table.
func (w *MarkdownWriter) WriteResult(result *model.CrawlResult) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("wordcrawl Result")
	md.PlainText("")
	md.PlainTextf("URLs visited: **%d**", result.URLsVisited)
	md.PlainText("")
	w.writeWords(md, result)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with crawl information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, run *model.CrawlRun) {
	md.H1("wordcrawl Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Started", run.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Elapsed", run.Elapsed.String()},
			{"Max Depth", strconv.Itoa(run.MaxDepth)},
			{"Starting URLs", strconv.Itoa(len(run.StartingURLs))},
			{"URLs Visited", strconv.Itoa(run.URLsVisited())},
			{"Status", w.getStatusText(run)},
		},
	})
	md.PlainText("")

	if len(run.StartingURLs) > 0 {
		md.H2("Starting URLs")
		md.PlainText("")
		md.BulletList(run.StartingURLs...)
		md.PlainText("")
	}
}

// getStatusText returns the status text based on run state.
func (w *MarkdownWriter) getStatusText(run *model.CrawlRun) string {
	switch status(run) {
	case "error":
		return "❌ Error - " + run.ErrorMessage
	case "interrupted":
		return "⚠️ Interrupted (partial results)"
	default:
		return "✅ Complete"
	}
}

// writeAlert writes an alert when the run did not finish normally.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, run *model.CrawlRun) {
	switch {
	case run.ErrorMessage != "":
		md.Cautionf("The crawl failed: %s", run.ErrorMessage)
	case run.Interrupted:
		md.Warningf("The crawl was interrupted. Counts cover only the pages visited before the interruption.")
	case run.URLsVisited() == 0:
		md.Note("No pages were visited. Check the starting URLs, the ignore patterns and the depth.")
	default:
		return
	}
	md.PlainText("")
}

// writeWords writes the ranked word table and a pie chart of the top words.
func (w *MarkdownWriter) writeWords(md *markdown.Markdown, result *model.CrawlResult) {
	md.H2("Popular Words")
	md.PlainText("")

	if len(result.WordCounts) == 0 {
		md.PlainText("No words found.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(result.WordCounts))
	for i, wc := range result.WordCounts {
		rows[i] = []string{strconv.Itoa(i + 1), "`" + wc.Word + "`", strconv.Itoa(wc.Count)}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Rank", "Word", "Count"},
		Rows:   rows,
	})
	md.PlainText("")

	w.writePieChart(md, result.WordCounts)
}

// writePieChart writes a mermaid pie chart of the most popular words.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, counts model.WordCounts) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Top Words"),
		piechart.WithShowData(true),
	)

	for i, wc := range counts {
		if i == pieChartWords {
			break
		}
		if wc.Count > 0 {
			chart.LabelAndIntValue(wc.Word, uint64(wc.Count))
		}
	}

	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeProfile writes the profiler entries as a table.
func (w *MarkdownWriter) writeProfile(md *markdown.Markdown, entries []model.ProfileEntry) {
	if len(entries) == 0 {
		return
	}

	md.H2("Profile")
	md.PlainText("")

	rows := make([][]string, len(entries))
	for i, e := range entries {
		rows[i] = []string{
			"`" + truncateString(e.Key(), 60) + "`",
			e.Duration.String(),
			strconv.FormatInt(e.Calls, 10),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Method", "Total Time", "Calls"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [wordcrawl](https://github.com/nao1215/wordcrawl)*")
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
