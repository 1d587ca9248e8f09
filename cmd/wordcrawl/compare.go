package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/wordcrawl/internal/config"
	"github.com/nao1215/wordcrawl/internal/database"
	"github.com/nao1215/wordcrawl/internal/model"
	"github.com/spf13/cobra"
)

// NewCompareCmd creates the compare command.
// This command compares the popular words of two saved runs.
func NewCompareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare [previous-id current-id]",
		Short: "Compare the popular words of two crawl runs",
		Long: `Compare displays how the popular words changed between two saved runs:
- Words that entered the popular list
- Words that dropped out of it
- Count changes of words present in both runs

Without arguments the two most recent runs are compared. Use
'wordcrawl history' to see the available run IDs.

Examples:
  # Compare the latest two runs
  wordcrawl compare

  # Compare two specific runs
  wordcrawl compare 3 7

  # Output comparison in JSON format
  wordcrawl compare --json`,
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) != 0 && len(args) != 2 {
				return errors.New("compare takes either no arguments or two run IDs")
			}
			return nil
		},
		RunE: runCompareCmd,
	}

	cmd.Flags().BoolP("json", "j", false,
		"Output comparison result in JSON format")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output comparison result in Markdown format")
	cmd.Flags().String("db-dir", "",
		"History database directory (default: XDG data directory)")

	return cmd
}

// runCompareCmd executes the compare command.
func runCompareCmd(cmd *cobra.Command, args []string) error {
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

	// Validate arguments before opening the database.
	var previousID, currentID int64
	if len(args) == 2 {
		if previousID, err = parseRunID(args[0]); err != nil {
			return err
		}
		if currentID, err = parseRunID(args[1]); err != nil {
			return err
		}
	}

	db, err := openHistoryDB(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := cmd.Context()
	if previousID == 0 {
		previousID, currentID, err = latestTwoRuns(ctx, db)
		if err != nil {
			return err
		}
	}

	previous, err := loadRun(ctx, db, previousID)
	if err != nil {
		return err
	}
	current, err := loadRun(ctx, db, currentID)
	if err != nil {
		return err
	}

	comparison := compareRuns(previous, current)

	out := cmd.OutOrStdout()
	switch {
	case jsonOutput:
		return outputComparisonJSON(out, comparison)
	case markdownOutput:
		return outputComparisonMarkdown(out, comparison)
	default:
		return outputComparisonText(out, comparison)
	}
}

// parseRunID parses a positive run ID.
func parseRunID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid run ID: %q", s)
	}
	return id, nil
}

// latestTwoRuns returns the IDs of the second newest and newest run.
func latestTwoRuns(ctx context.Context, db *database.CrawlDB) (int64, int64, error) {
	runs, err := db.ListRuns(ctx, 2)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to list runs: %w", err)
	}
	if len(runs) < 2 {
		return 0, 0, fmt.Errorf("at least 2 runs are required for comparison (found %d)", len(runs))
	}
	return runs[1].ID, runs[0].ID, nil
}

// loadRun fetches a run and fails if it does not exist.
func loadRun(ctx context.Context, db *database.CrawlDB, id int64) (*model.CrawlRun, error) {
	run, err := db.GetRun(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get run %d: %w", id, err)
	}
	if run == nil {
		return nil, fmt.Errorf("run with ID %d not found", id)
	}
	return run, nil
}

// ComparisonResult holds the result of comparing two crawl runs.
type ComparisonResult struct {
	// PreviousRun contains metadata about the older run.
	PreviousRun RunMetadata `json:"previous_run"`

	// CurrentRun contains metadata about the newer run.
	CurrentRun RunMetadata `json:"current_run"`

	// NewWords are popular in the current run only.
	NewWords []model.WordCount `json:"new_words,omitempty"`

	// DroppedWords were popular in the previous run only.
	DroppedWords []model.WordCount `json:"dropped_words,omitempty"`

	// Changes are the words popular in both runs, biggest change first.
	Changes []WordChange `json:"changes,omitempty"`

	// VisitedDelta is the change in the number of visited URLs.
	VisitedDelta int `json:"visited_delta"`
}

// RunMetadata contains metadata about a run for comparison display.
type RunMetadata struct {
	// ID is the database ID of the run.
	ID int64 `json:"id"`

	// StartedAt is when the crawl began.
	StartedAt time.Time `json:"started_at"`

	// StartingURLs are the URLs the crawl was seeded with.
	StartingURLs []string `json:"starting_urls"`

	// URLsVisited is the number of visited pages.
	URLsVisited int `json:"urls_visited"`
}

// WordChange is the count change of a word popular in both runs.
type WordChange struct {
	Word     string `json:"word"`
	Previous int    `json:"previous"`
	Current  int    `json:"current"`
	Delta    int    `json:"delta"`
}

// compareRuns compares the popular words of two runs.
func compareRuns(previous, current *model.CrawlRun) *ComparisonResult {
	result := &ComparisonResult{
		PreviousRun:  runMetadata(previous),
		CurrentRun:   runMetadata(current),
		VisitedDelta: current.URLsVisited() - previous.URLsVisited(),
	}

	previousCounts := wordsOf(previous).Map()
	currentCounts := wordsOf(current).Map()

	// Iterate the ranked slices so the output keeps the ranking order.
	for _, wc := range wordsOf(current) {
		prev, ok := previousCounts[wc.Word]
		if !ok {
			result.NewWords = append(result.NewWords, wc)
			continue
		}
		result.Changes = append(result.Changes, WordChange{
			Word:     wc.Word,
			Previous: prev,
			Current:  wc.Count,
			Delta:    wc.Count - prev,
		})
	}
	for _, wc := range wordsOf(previous) {
		if _, ok := currentCounts[wc.Word]; !ok {
			result.DroppedWords = append(result.DroppedWords, wc)
		}
	}

	sort.SliceStable(result.Changes, func(i, j int) bool {
		return abs(result.Changes[i].Delta) > abs(result.Changes[j].Delta)
	})

	return result
}

// runMetadata extracts the comparison metadata of run.
func runMetadata(run *model.CrawlRun) RunMetadata {
	return RunMetadata{
		ID:           run.ID,
		StartedAt:    run.StartedAt,
		StartingURLs: run.StartingURLs,
		URLsVisited:  run.URLsVisited(),
	}
}

// wordsOf returns the ranked words of run, or nil if it has no result.
func wordsOf(run *model.CrawlRun) model.WordCounts {
	if run.Result == nil {
		return nil
	}
	return run.Result.WordCounts
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// outputComparisonJSON outputs the comparison result in JSON format.
func outputComparisonJSON(out io.Writer, result *ComparisonResult) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

// outputComparisonMarkdown outputs the comparison result in Markdown format.
func outputComparisonMarkdown(out io.Writer, result *ComparisonResult) error {
	md := markdown.NewMarkdown(out)

	md.H1(fmt.Sprintf("Run Comparison: #%d → #%d", result.PreviousRun.ID, result.CurrentRun.ID))
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Previous", "Current", "Change"},
		Rows: [][]string{
			{"Run", strconv.FormatInt(result.PreviousRun.ID, 10), strconv.FormatInt(result.CurrentRun.ID, 10), "-"},
			{"Date", result.PreviousRun.StartedAt.Format("2006-01-02 15:04"), result.CurrentRun.StartedAt.Format("2006-01-02 15:04"), "-"},
			{"URLs Visited", strconv.Itoa(result.PreviousRun.URLsVisited), strconv.Itoa(result.CurrentRun.URLsVisited), formatDelta(result.VisitedDelta)},
		},
	})
	md.PlainText("")

	if len(result.NewWords) > 0 {
		md.H2(fmt.Sprintf("New Words (%d)", len(result.NewWords)))
		md.PlainText("")
		md.BulletList(formatWordCounts(result.NewWords, "`%s` (%d)")...)
		md.PlainText("")
	}

	if len(result.DroppedWords) > 0 {
		md.H2(fmt.Sprintf("Dropped Words (%d)", len(result.DroppedWords)))
		md.PlainText("")
		md.BulletList(formatWordCounts(result.DroppedWords, "~~`%s` (%d)~~")...)
		md.PlainText("")
	}

	if len(result.Changes) > 0 {
		rows := make([][]string, len(result.Changes))
		for i, c := range result.Changes {
			rows[i] = []string{"`" + c.Word + "`", strconv.Itoa(c.Previous), strconv.Itoa(c.Current), formatDelta(c.Delta)}
		}
		md.H2("Count Changes")
		md.PlainText("")
		md.Table(markdown.TableSet{
			Header: []string{"Word", "Previous", "Current", "Change"},
			Rows:   rows,
		})
	}

	return md.Build()
}

// formatWordCounts formats every word count with format.
func formatWordCounts(counts []model.WordCount, format string) []string {
	items := make([]string, len(counts))
	for i, wc := range counts {
		items[i] = fmt.Sprintf(format, wc.Word, wc.Count)
	}
	return items
}

// outputComparisonText outputs the comparison result in human-readable text format.
func outputComparisonText(out io.Writer, result *ComparisonResult) error {
	fmt.Fprintf(out, "Run Comparison: #%d -> #%d\n", result.PreviousRun.ID, result.CurrentRun.ID)
	fmt.Fprintln(out, strings.Repeat("=", 60))

	fmt.Fprintf(out, "\nPrevious run: %s  (%s)\n",
		result.PreviousRun.StartedAt.Format("2006-01-02 15:04:05"),
		strings.Join(result.PreviousRun.StartingURLs, ", "))
	fmt.Fprintf(out, "Current run:  %s  (%s)\n",
		result.CurrentRun.StartedAt.Format("2006-01-02 15:04:05"),
		strings.Join(result.CurrentRun.StartingURLs, ", "))
	fmt.Fprintf(out, "URLs visited: %d -> %d (%s)\n",
		result.PreviousRun.URLsVisited, result.CurrentRun.URLsVisited, formatDelta(result.VisitedDelta))

	if len(result.NewWords) > 0 {
		fmt.Fprintf(out, "\nNew Words (%d):\n", len(result.NewWords))
		for _, wc := range result.NewWords {
			fmt.Fprintf(out, "  [+] %s: %d\n", wc.Word, wc.Count)
		}
	}

	if len(result.DroppedWords) > 0 {
		fmt.Fprintf(out, "\nDropped Words (%d):\n", len(result.DroppedWords))
		for _, wc := range result.DroppedWords {
			fmt.Fprintf(out, "  [-] %s: %d\n", wc.Word, wc.Count)
		}
	}

	if len(result.Changes) > 0 {
		fmt.Fprintln(out, "\nCount Changes:")
		fmt.Fprintf(out, "  %-20s  %-10s  %-10s  %-10s\n", "Word", "Previous", "Current", "Change")
		fmt.Fprintln(out, "  "+strings.Repeat("-", 56))
		for _, c := range result.Changes {
			fmt.Fprintf(out, "  %-20s  %-10d  %-10d  %-10s\n", c.Word, c.Previous, c.Current, formatDelta(c.Delta))
		}
	}

	return nil
}

// formatDelta formats a numeric delta with sign for display.
func formatDelta(delta int) string {
	if delta > 0 {
		return "+" + strconv.Itoa(delta)
	} else if delta < 0 {
		return strconv.Itoa(delta)
	}
	return "0"
}
