package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/wordcrawl/internal/config"
	"github.com/nao1215/wordcrawl/internal/database"
	"github.com/nao1215/wordcrawl/internal/report"
	"github.com/spf13/cobra"
)

// defaultHistoryLimit is the number of runs listed by default.
const defaultHistoryLimit = 20

// NewHistoryCmd creates the history command.
// This command shows crawl runs stored in the history database.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show saved crawl runs",
		Long: `History lists the crawl runs saved in the history database, shows a single
run in full, or follows one word across every run.

Examples:
  # List the most recent runs
  wordcrawl history

  # List every run
  wordcrawl history --limit 0

  # Show a run with its profile
  wordcrawl history 3

  # Show a run as JSON
  wordcrawl history --json 3

  # Follow a word across runs
  wordcrawl history --word gopher`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().IntP("limit", "l", defaultHistoryLimit,
		"Number of runs to list (0 lists all)")
	cmd.Flags().StringP("word", "w", "",
		"Show the count of this word in every run")
	cmd.Flags().BoolP("json", "j", false,
		"Show the run in JSON format")
	cmd.Flags().BoolP("markdown", "m", false,
		"Show the run in Markdown format")
	cmd.Flags().String("db-dir", "",
		"History database directory (default: XDG data directory)")

	return cmd
}

// openHistoryDB opens the database selected by the --db-dir flag.
func openHistoryDB(cmd *cobra.Command) (*database.CrawlDB, error) {
	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return nil, err
	}
	if dbDir == "" {
		dbDir = config.XDGDataDir()
	}

	db, err := database.Open(dbDir, database.DefaultOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	markdownOutput, err := cmd.Flags().GetBool("markdown")
	if err != nil {
		return err
	}
	if jsonOutput && markdownOutput {
		return config.ErrConflictingReportFormats
	}

	word, err := cmd.Flags().GetString("word")
	if err != nil {
		return err
	}

	// Validate arguments before opening the database.
	var runID int64
	if len(args) == 1 {
		runID, err = strconv.ParseInt(args[0], 10, 64)
		if err != nil || runID <= 0 {
			return fmt.Errorf("invalid run ID: %q", args[0])
		}
		if word != "" {
			return errors.New("--word cannot be combined with a run ID")
		}
	}

	db, err := openHistoryDB(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	switch {
	case word != "":
		return showWordTrend(ctx, db, out, word)
	case runID > 0:
		format := report.FormatSimple
		if jsonOutput {
			format = report.FormatJSON
		} else if markdownOutput {
			format = report.FormatMarkdown
		}
		return showRun(ctx, db, out, runID, format)
	default:
		limit, err := cmd.Flags().GetInt("limit")
		if err != nil {
			return err
		}
		return listRuns(ctx, db, out, limit)
	}
}

// listRuns lists the most recent runs.
func listRuns(ctx context.Context, db *database.CrawlDB, out io.Writer, limit int) error {
	runs, err := db.ListRuns(ctx, limit)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if len(runs) == 0 {
		fmt.Fprintln(out, "No crawl runs found in the database.")
		fmt.Fprintln(out, "\nUse 'wordcrawl crawl <url>' to crawl a site.")
		return nil
	}

	fmt.Fprintf(out, "Crawl runs (%d):\n\n", len(runs))
	fmt.Fprintf(out, "  %-6s  %-19s  %7s  %10s  %-15s  %s\n", "ID", "Date", "Visited", "Elapsed", "Top Word", "Starting URLs")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 90))

	for _, r := range runs {
		topWord := r.TopWord
		if topWord == "" {
			topWord = "-"
		}
		urls := strings.Join(r.StartingURLs, ", ")
		if r.Interrupted {
			urls += " (interrupted)"
		}
		fmt.Fprintf(out, "  %-6d  %-19s  %7d  %10s  %-15s  %s\n",
			r.ID,
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			r.URLsVisited,
			r.Elapsed.String(),
			topWord,
			urls,
		)
	}

	fmt.Fprintln(out, "\nUse 'wordcrawl history <id>' to show a run.")
	fmt.Fprintln(out, "Use 'wordcrawl compare <id> <id>' to compare two runs.")

	return nil
}

// showRun writes a single run in format.
func showRun(ctx context.Context, db *database.CrawlDB, out io.Writer, runID int64, format report.Format) error {
	run, err := db.GetRun(ctx, runID)
	if err != nil {
		return fmt.Errorf("failed to get run %d: %w", runID, err)
	}
	if run == nil {
		return fmt.Errorf("run with ID %d not found", runID)
	}

	var w report.Writer
	switch format {
	case report.FormatJSON:
		w = report.NewFullJSONWriter(out, getVersion(), report.WithPrettyPrint())
	case report.FormatMarkdown:
		w = report.NewMarkdownWriter(out)
	default:
		w = report.NewSimpleWriter(out, report.WithVerbose(true))
	}

	_, err = w.Write(run)
	return err
}

// showWordTrend writes the count of word in every run that ranked it.
func showWordTrend(ctx context.Context, db *database.CrawlDB, out io.Writer, word string) error {
	points, err := db.WordTrend(ctx, word)
	if err != nil {
		return fmt.Errorf("failed to get word trend: %w", err)
	}

	if len(points) == 0 {
		fmt.Fprintf(out, "The word %q is not among the popular words of any run.\n", word)
		return nil
	}

	fmt.Fprintf(out, "Word %q in %d runs:\n\n", word, len(points))
	fmt.Fprintf(out, "  %-6s  %-19s  %4s  %8s  %s\n", "ID", "Date", "Rank", "Count", "Change")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 50))

	previous := 0
	for i, p := range points {
		change := "-"
		if i > 0 {
			change = formatDelta(p.Count - previous)
		}
		fmt.Fprintf(out, "  %-6d  %-19s  %4d  %8d  %s\n",
			p.RunID,
			p.StartedAt.Local().Format("2006-01-02 15:04:05"),
			p.Rank,
			p.Count,
			change,
		)
		previous = p.Count
	}

	return nil
}
