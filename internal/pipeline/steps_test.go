package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/wordcrawl/internal/clock"
	"github.com/nao1215/wordcrawl/internal/crawler"
	"github.com/nao1215/wordcrawl/internal/model"
	"github.com/nao1215/wordcrawl/internal/profiler"
	"github.com/nao1215/wordcrawl/internal/report"
)

// stubCrawler is a crawler.WebCrawler returning a canned result.
type stubCrawler struct {
	result *model.CrawlResult
	err    error

	// onCrawl runs inside Crawl, before returning.
	onCrawl func()

	gotURLs []string
}

func (s *stubCrawler) Crawl(_ context.Context, startingURLs []string) (*model.CrawlResult, error) {
	s.gotURLs = startingURLs
	if s.onCrawl != nil {
		s.onCrawl()
	}
	return s.result, s.err
}

func (s *stubCrawler) MaxParallelism() int { return 1 }

func testResult() *model.CrawlResult {
	return model.NewCrawlResult(model.WordCounts{
		{Word: "gopher", Count: 3},
		{Word: "go", Count: 1},
	}, 2)
}

// stubSaver records saved runs.
type stubSaver struct {
	saved []*model.CrawlRun
	err   error
}

func (s *stubSaver) SaveRun(_ context.Context, run *model.CrawlRun) (int64, error) {
	if s.err != nil {
		return 0, s.err
	}
	s.saved = append(s.saved, run)
	run.ID = int64(len(s.saved))
	return run.ID, nil
}

// TestCrawlStep tests the crawl step.
func TestCrawlStep(t *testing.T) {
	t.Parallel()

	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("stores result and timing", func(t *testing.T) {
		t.Parallel()

		clk := clock.NewFake(start)
		c := &stubCrawler{result: testResult(), onCrawl: func() { clk.Advance(1500 * time.Millisecond) }}
		step := NewCrawlStep(c, WithCrawlClock(clk))

		run := newTestRun()
		if err := step.Do(context.Background(), run); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if step.Name() != "crawl" {
			t.Errorf("Name() = %q, want crawl", step.Name())
		}
		if len(c.gotURLs) != 1 || c.gotURLs[0] != "https://example.com/" {
			t.Errorf("crawler got %v", c.gotURLs)
		}
		if !run.StartedAt.Equal(start) {
			t.Errorf("StartedAt = %v, want %v", run.StartedAt, start)
		}
		if run.Elapsed != 1500*time.Millisecond {
			t.Errorf("Elapsed = %v, want 1.5s", run.Elapsed)
		}
		if run.URLsVisited() != 2 {
			t.Errorf("URLsVisited = %d, want 2", run.URLsVisited())
		}
		if run.Interrupted {
			t.Error("run should not be interrupted")
		}
	})

	t.Run("keeps partial result on cancellation", func(t *testing.T) {
		t.Parallel()

		c := &stubCrawler{result: testResult(), err: context.Canceled}
		run := newTestRun()

		if err := NewCrawlStep(c).Do(context.Background(), run); err != nil {
			t.Fatalf("cancellation should not fail the step, got %v", err)
		}
		if !run.Interrupted {
			t.Error("expected run to be marked interrupted")
		}
		if run.Result == nil {
			t.Error("expected partial result to be kept")
		}
	})

	t.Run("wraps other errors", func(t *testing.T) {
		t.Parallel()

		errBoom := errors.New("boom")
		c := &stubCrawler{err: errBoom}

		err := NewCrawlStep(c).Do(context.Background(), newTestRun())
		if !errors.Is(err, errBoom) {
			t.Errorf("expected wrapped boom error, got %v", err)
		}
	})
}

// TestProfileStep tests the profile step.
func TestProfileStep(t *testing.T) {
	t.Parallel()

	newProfiled := func(t *testing.T) *profiler.Profiler {
		t.Helper()

		clk := clock.NewFake(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
		clk.SetAutoStep(10 * time.Millisecond)
		p := profiler.New(clk)
		wrapped, err := profiler.Wrap(p, crawler.ProfiledCrawler, crawler.WebCrawler(&stubCrawler{result: testResult()}))
		if err != nil {
			t.Fatalf("failed to wrap crawler: %v", err)
		}
		if _, err := wrapped.Crawl(context.Background(), []string{"https://example.com/"}); err != nil {
			t.Fatalf("unexpected crawl error: %v", err)
		}
		return p
	}

	t.Run("stores entries and writes to output", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		step := NewProfileStep(newProfiled(t), WithProfileOutput(&buf))

		run := newTestRun()
		if err := step.Do(context.Background(), run); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(run.Profile) != 1 || run.Profile[0].Key() != "crawler.WebCrawler#Crawl" {
			t.Fatalf("Profile = %+v", run.Profile)
		}
		if !strings.HasPrefix(buf.String(), "Run at ") {
			t.Errorf("expected run header, got %q", buf.String())
		}
		if !strings.Contains(buf.String(), "crawler.WebCrawler#Crawl") {
			t.Errorf("expected profile line, got %q", buf.String())
		}
		if !step.Final() {
			t.Error("profile step should be final")
		}
	})

	t.Run("appends to file when path is set", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "nested", "profile.txt")
		var buf bytes.Buffer
		step := NewProfileStep(newProfiled(t), WithProfilePath(path), WithProfileOutput(&buf))

		for range 2 {
			if err := step.Do(context.Background(), newTestRun()); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		}

		data, err := os.ReadFile(path) //nolint:gosec // test file
		if err != nil {
			t.Fatalf("failed to read profile file: %v", err)
		}
		if got := strings.Count(string(data), "Run at "); got != 2 {
			t.Errorf("expected 2 appended sections, got %d", got)
		}
		if buf.Len() != 0 {
			t.Error("output should be unused when a path is set")
		}
	})

	t.Run("collects only without destination", func(t *testing.T) {
		t.Parallel()

		run := newTestRun()
		if err := NewProfileStep(newProfiled(t)).Do(context.Background(), run); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(run.Profile) != 1 {
			t.Errorf("expected 1 entry, got %d", len(run.Profile))
		}
	})
}

// TestResultStep tests the result step.
func TestResultStep(t *testing.T) {
	t.Parallel()

	t.Run("writes simple report to output", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		run := newTestRun()
		run.Result = testResult()

		step := NewResultStep(report.FormatSimple, WithResultOutput(&buf))
		if err := step.Do(context.Background(), run); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "WORDCRAWL REPORT") {
			t.Errorf("expected report header, got:\n%s", buf.String())
		}
		if !strings.Contains(buf.String(), "gopher") {
			t.Error("expected word in report")
		}
		if step.Name() != "result" || !step.Final() {
			t.Error("unexpected step metadata")
		}
	})

	t.Run("writes JSON result file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "out", "result.json")
		run := newTestRun()
		run.Result = testResult()

		step := NewResultStep(report.FormatJSON, WithResultPath(path))
		if err := step.Do(context.Background(), run); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		data, err := os.ReadFile(path) //nolint:gosec // test file
		if err != nil {
			t.Fatalf("failed to read result file: %v", err)
		}
		var got model.CrawlResult
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("invalid JSON: %v\n%s", err, data)
		}
		if got.URLsVisited != 2 || len(got.WordCounts) != 2 || got.WordCounts[0].Word != "gopher" {
			t.Errorf("unexpected result: %+v", got)
		}
	})

	t.Run("verbose with path tees summary to output", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		path := filepath.Join(t.TempDir(), "result.json")
		run := newTestRun()
		run.Result = testResult()

		step := NewResultStep(report.FormatJSON,
			WithResultPath(path), WithResultOutput(&buf), WithResultVerbose(true))
		if err := step.Do(context.Background(), run); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if _, err := os.Stat(path); err != nil {
			t.Errorf("expected result file: %v", err)
		}
		if !strings.Contains(buf.String(), "WORDCRAWL REPORT") {
			t.Errorf("expected text summary on output, got:\n%s", buf.String())
		}
	})
}

// TestPersistStep tests the persist step.
func TestPersistStep(t *testing.T) {
	t.Parallel()

	t.Run("saves run", func(t *testing.T) {
		t.Parallel()

		saver := &stubSaver{}
		run := newTestRun()
		if err := NewPersistStep(saver).Do(context.Background(), run); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(saver.saved) != 1 || run.ID != 1 {
			t.Errorf("expected run saved with ID 1, got ID %d", run.ID)
		}
	})

	t.Run("wraps save errors", func(t *testing.T) {
		t.Parallel()

		errDB := errors.New("database locked")
		err := NewPersistStep(&stubSaver{err: errDB}).Do(context.Background(), newTestRun())
		if !errors.Is(err, errDB) {
			t.Errorf("expected wrapped database error, got %v", err)
		}
	})
}

// TestDefaultPipeline tests the standard pipeline assembly.
func TestDefaultPipeline(t *testing.T) {
	t.Parallel()

	t.Run("step order without saver", func(t *testing.T) {
		t.Parallel()

		pl := DefaultPipeline(&stubCrawler{}, profiler.New(nil), DefaultPipelineConfig{})
		want := []string{"crawl", "profile", "result"}
		got := pl.StepNames()
		if strings.Join(got, ",") != strings.Join(want, ",") {
			t.Errorf("StepNames() = %v, want %v", got, want)
		}
	})

	t.Run("runs end to end with saver", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		saver := &stubSaver{}
		p := profiler.New(nil)
		wrapped, err := profiler.Wrap(p, crawler.ProfiledCrawler, crawler.WebCrawler(&stubCrawler{result: testResult()}))
		if err != nil {
			t.Fatalf("failed to wrap crawler: %v", err)
		}

		pl := DefaultPipeline(wrapped, p, DefaultPipelineConfig{
			Format: report.FormatJSON,
			Output: &buf,
			Saver:  saver,
		})
		if got := strings.Join(pl.StepNames(), ","); got != "crawl,profile,persist,result" {
			t.Errorf("StepNames() = %s", got)
		}

		run := newTestRun()
		if err := pl.Execute(context.Background(), run); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(saver.saved) != 1 {
			t.Fatal("expected run to be saved")
		}
		if len(saver.saved[0].Profile) != 1 {
			t.Error("profile should be collected before persisting")
		}
		if !strings.Contains(buf.String(), `"gopher": 3`) {
			t.Errorf("expected JSON result in output, got:\n%s", buf.String())
		}
	})
}
