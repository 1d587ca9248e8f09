package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/wordcrawl/internal/model"
)

func newCompareRun(id int64, visited int, words model.WordCounts) *model.CrawlRun {
	run := model.NewCrawlRun([]string{"https://example.com/"}, 2)
	run.ID = id
	run.StartedAt = time.Date(2026, 3, 1, 12, int(id), 0, 0, time.UTC)
	run.Result = model.NewCrawlResult(words, visited)
	return run
}

// TestCompareRuns tests the word comparison.
func TestCompareRuns(t *testing.T) {
	t.Parallel()

	previous := newCompareRun(1, 4, model.WordCounts{
		{Word: "gopher", Count: 5},
		{Word: "crawl", Count: 3},
		{Word: "web", Count: 1},
	})
	current := newCompareRun(2, 6, model.WordCounts{
		{Word: "gopher", Count: 8},
		{Word: "go", Count: 4},
		{Word: "crawl", Count: 2},
	})

	result := compareRuns(previous, current)

	if result.VisitedDelta != 2 {
		t.Errorf("VisitedDelta = %d, want 2", result.VisitedDelta)
	}
	if len(result.NewWords) != 1 || result.NewWords[0].Word != "go" {
		t.Errorf("NewWords = %+v", result.NewWords)
	}
	if len(result.DroppedWords) != 1 || result.DroppedWords[0].Word != "web" {
		t.Errorf("DroppedWords = %+v", result.DroppedWords)
	}
	want := []WordChange{
		{Word: "gopher", Previous: 5, Current: 8, Delta: 3},
		{Word: "crawl", Previous: 3, Current: 2, Delta: -1},
	}
	if len(result.Changes) != len(want) {
		t.Fatalf("Changes = %+v, want %+v", result.Changes, want)
	}
	for i := range want {
		if result.Changes[i] != want[i] {
			t.Errorf("Changes[%d] = %+v, want %+v", i, result.Changes[i], want[i])
		}
	}
	if result.PreviousRun.ID != 1 || result.CurrentRun.ID != 2 {
		t.Errorf("unexpected run IDs: %d, %d", result.PreviousRun.ID, result.CurrentRun.ID)
	}
}

// TestCompareRunsWithoutResult tests runs that never finished.
func TestCompareRunsWithoutResult(t *testing.T) {
	t.Parallel()

	previous := model.NewCrawlRun([]string{"https://example.com/"}, 2)
	current := newCompareRun(2, 1, model.WordCounts{{Word: "go", Count: 1}})

	result := compareRuns(previous, current)
	if len(result.NewWords) != 1 || len(result.DroppedWords) != 0 || len(result.Changes) != 0 {
		t.Errorf("unexpected comparison: %+v", result)
	}
	if result.VisitedDelta != 1 {
		t.Errorf("VisitedDelta = %d, want 1", result.VisitedDelta)
	}
}

// TestFormatDelta tests the signed delta formatting.
func TestFormatDelta(t *testing.T) {
	t.Parallel()

	tests := []struct {
		delta int
		want  string
	}{
		{5, "+5"},
		{-3, "-3"},
		{0, "0"},
	}

	for _, tt := range tests {
		if got := formatDelta(tt.delta); got != tt.want {
			t.Errorf("formatDelta(%d) = %q, want %q", tt.delta, got, tt.want)
		}
	}
}

// TestComparisonOutput tests the three output formats.
func TestComparisonOutput(t *testing.T) {
	t.Parallel()

	result := compareRuns(
		newCompareRun(1, 4, model.WordCounts{{Word: "gopher", Count: 5}, {Word: "web", Count: 1}}),
		newCompareRun(2, 6, model.WordCounts{{Word: "gopher", Count: 8}, {Word: "go", Count: 4}}),
	)

	t.Run("text", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if err := outputComparisonText(&buf, result); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, want := range []string{"Run Comparison: #1 -> #2", "[+] go: 4", "[-] web: 1", "+3"} {
			if !strings.Contains(buf.String(), want) {
				t.Errorf("expected %q in output:\n%s", want, buf.String())
			}
		}
	})

	t.Run("json", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if err := outputComparisonJSON(&buf, result); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var decoded ComparisonResult
		if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if decoded.VisitedDelta != 2 || len(decoded.Changes) != 1 {
			t.Errorf("unexpected decoded comparison: %+v", decoded)
		}
	})

	t.Run("markdown", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if err := outputComparisonMarkdown(&buf, result); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, want := range []string{"# Run Comparison", "## New Words (1)", "## Dropped Words (1)", "## Count Changes"} {
			if !strings.Contains(buf.String(), want) {
				t.Errorf("expected %q in output:\n%s", want, buf.String())
			}
		}
	})
}

// TestRunCompareCmd tests the compare command against a seeded database.
func TestRunCompareCmd(t *testing.T) {
	t.Parallel()

	dbDir := seedHistory(t)

	t.Run("compares latest two runs by default", func(t *testing.T) {
		t.Parallel()

		out, err := executeCommand(t, "compare", "--db-dir", dbDir)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, want := range []string{"#1 -> #2", "[+] go: 4", "[-] web: 1"} {
			if !strings.Contains(out, want) {
				t.Errorf("expected %q in output:\n%s", want, out)
			}
		}
	})

	t.Run("compares explicit runs in given order", func(t *testing.T) {
		t.Parallel()

		out, err := executeCommand(t, "compare", "--db-dir", dbDir, "2", "1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, "#2 -> #1") || !strings.Contains(out, "[+] web: 1") {
			t.Errorf("unexpected output:\n%s", out)
		}
	})

	t.Run("rejects a single argument", func(t *testing.T) {
		t.Parallel()

		if _, err := executeCommand(t, "compare", "--db-dir", dbDir, "1"); err == nil {
			t.Error("expected error for one argument")
		}
	})

	t.Run("unknown run", func(t *testing.T) {
		t.Parallel()

		if _, err := executeCommand(t, "compare", "--db-dir", dbDir, "1", "42"); err == nil {
			t.Error("expected error for unknown run")
		}
	})

	t.Run("needs two runs", func(t *testing.T) {
		t.Parallel()

		_, err := executeCommand(t, "compare", "--db-dir", t.TempDir())
		if err == nil || !strings.Contains(err.Error(), "at least 2 runs") {
			t.Errorf("expected not enough runs error, got %v", err)
		}
	})
}
