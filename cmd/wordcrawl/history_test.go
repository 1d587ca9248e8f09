package main

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/wordcrawl/internal/database"
	"github.com/nao1215/wordcrawl/internal/model"
)

// seedHistory creates a database with two runs and returns its directory.
//
//	run 1: gopher 5, crawl 3, web 1
//	run 2: gopher 8, crawl 2, go 4
func seedHistory(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	db, err := database.Open(dir, database.DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	seeds := []struct {
		started time.Time
		words   model.WordCounts
		visited int
	}{
		{base, model.WordCounts{{Word: "gopher", Count: 5}, {Word: "crawl", Count: 3}, {Word: "web", Count: 1}}, 4},
		{base.Add(time.Hour), model.WordCounts{{Word: "gopher", Count: 8}, {Word: "go", Count: 4}, {Word: "crawl", Count: 2}}, 6},
	}
	for _, s := range seeds {
		run := model.NewCrawlRun([]string{"https://example.com/"}, 3)
		run.StartedAt = s.started
		run.Elapsed = 1500 * time.Millisecond
		run.Result = model.NewCrawlResult(s.words, s.visited)
		run.Profile = []model.ProfileEntry{
			{Interface: "crawler.PageParser", Method: "Parse", Duration: 900 * time.Millisecond, Calls: int64(s.visited)},
		}
		if _, err := db.SaveRun(t.Context(), run); err != nil {
			t.Fatalf("failed to save run: %v", err)
		}
	}

	return dir
}

// TestNewHistoryCmd tests the history command creation.
func TestNewHistoryCmd(t *testing.T) {
	t.Parallel()

	cmd := NewHistoryCmd()
	for _, name := range []string{"limit", "word", "json", "markdown", "db-dir"} {
		if cmd.Flags().Lookup(name) == nil {
			t.Errorf("expected %s flag", name)
		}
	}
}

// TestRunHistoryCmd tests the history command against a seeded database.
func TestRunHistoryCmd(t *testing.T) {
	t.Parallel()

	dbDir := seedHistory(t)

	t.Run("lists runs newest first", func(t *testing.T) {
		t.Parallel()

		out, err := executeCommand(t, "history", "--db-dir", dbDir)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, "Crawl runs (2)") {
			t.Errorf("expected run count, got:\n%s", out)
		}
		lines := strings.Split(out, "\n")
		var ids []string
		for _, line := range lines {
			fields := strings.Fields(line)
			if len(fields) > 0 && (fields[0] == "1" || fields[0] == "2") {
				ids = append(ids, fields[0])
			}
		}
		if strings.Join(ids, ",") != "2,1" {
			t.Errorf("expected runs 2,1 in order, got %v", ids)
		}
	})

	t.Run("limit restricts the list", func(t *testing.T) {
		t.Parallel()

		out, err := executeCommand(t, "history", "--db-dir", dbDir, "--limit", "1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, "Crawl runs (1)") {
			t.Errorf("expected one run, got:\n%s", out)
		}
	})

	t.Run("shows a run with its profile", func(t *testing.T) {
		t.Parallel()

		out, err := executeCommand(t, "history", "--db-dir", dbDir, "1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, want := range []string{"WORDCRAWL REPORT", "gopher", "crawler.PageParser#Parse"} {
			if !strings.Contains(out, want) {
				t.Errorf("expected %q in output:\n%s", want, out)
			}
		}
	})

	t.Run("shows a run as JSON", func(t *testing.T) {
		t.Parallel()

		out, err := executeCommand(t, "history", "--db-dir", dbDir, "--json", "2")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var got struct {
			Status string `json:"status"`
			Run    struct {
				ID     int64              `json:"id"`
				Result *model.CrawlResult `json:"result"`
			} `json:"run"`
		}
		if err := json.Unmarshal([]byte(out), &got); err != nil {
			t.Fatalf("invalid JSON: %v\n%s", err, out)
		}
		if got.Status != "complete" || got.Run.ID != 2 {
			t.Errorf("unexpected report: %+v", got)
		}
		if got.Run.Result == nil || got.Run.Result.WordCounts[0].Word != "gopher" {
			t.Errorf("unexpected result: %+v", got.Run.Result)
		}
	})

	t.Run("shows a run as Markdown", func(t *testing.T) {
		t.Parallel()

		out, err := executeCommand(t, "history", "--db-dir", dbDir, "--markdown", "1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, "# wordcrawl Report") {
			t.Errorf("expected markdown header, got:\n%s", out)
		}
	})

	t.Run("follows a word across runs", func(t *testing.T) {
		t.Parallel()

		out, err := executeCommand(t, "history", "--db-dir", dbDir, "--word", "crawl")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, `Word "crawl" in 2 runs`) {
			t.Errorf("expected trend header, got:\n%s", out)
		}
		if !strings.Contains(out, " -1\n") {
			t.Errorf("expected count change -1, got:\n%s", out)
		}
	})

	t.Run("unknown word", func(t *testing.T) {
		t.Parallel()

		out, err := executeCommand(t, "history", "--db-dir", dbDir, "--word", "rust")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, "not among the popular words") {
			t.Errorf("unexpected output:\n%s", out)
		}
	})

	t.Run("unknown run", func(t *testing.T) {
		t.Parallel()

		if _, err := executeCommand(t, "history", "--db-dir", dbDir, "99"); err == nil {
			t.Error("expected error for unknown run")
		}
	})

	t.Run("invalid run ID", func(t *testing.T) {
		t.Parallel()

		if _, err := executeCommand(t, "history", "--db-dir", dbDir, "abc"); err == nil {
			t.Error("expected error for invalid run ID")
		}
	})
}

// TestListRunsEmpty tests listing an empty database.
func TestListRunsEmpty(t *testing.T) {
	t.Parallel()

	out, err := executeCommand(t, "history", "--db-dir", t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "No crawl runs found") {
		t.Errorf("unexpected output:\n%s", out)
	}
}
