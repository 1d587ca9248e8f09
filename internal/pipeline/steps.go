package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/nao1215/wordcrawl/internal/clock"
	"github.com/nao1215/wordcrawl/internal/crawler"
	"github.com/nao1215/wordcrawl/internal/database"
	"github.com/nao1215/wordcrawl/internal/model"
	"github.com/nao1215/wordcrawl/internal/profiler"
	"github.com/nao1215/wordcrawl/internal/report"
)

// CrawlStep runs the crawler from the run's starting URLs and stores the
// result in the run.
//
// Design decision: Cancellation is not a step failure because:
// 1. The crawler returns the partial result together with ctx.Err()
// 2. Later steps must still report that partial result
// 3. The run records the interruption in Interrupted instead
type CrawlStep struct {
	// crawler is usually the profiled crawler.Engine.
	crawler crawler.WebCrawler

	// clock stamps StartedAt and Elapsed.
	clock clock.Clock

	// logger for structured logging.
	logger *slog.Logger
}

// CrawlStepOption configures a CrawlStep.
type CrawlStepOption func(*CrawlStep)

// WithCrawlClock sets the clock used for StartedAt and Elapsed.
func WithCrawlClock(c clock.Clock) CrawlStepOption {
	return func(s *CrawlStep) {
		s.clock = c
	}
}

// WithCrawlLogger sets a custom logger for the crawl step.
func WithCrawlLogger(logger *slog.Logger) CrawlStepOption {
	return func(s *CrawlStep) {
		s.logger = logger
	}
}

// NewCrawlStep creates a crawl step around c.
func NewCrawlStep(c crawler.WebCrawler, opts ...CrawlStepOption) *CrawlStep {
	s := &CrawlStep{
		crawler: c,
		clock:   clock.NewSystem(),
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *CrawlStep) Name() string {
	return "crawl"
}

// Do executes the crawl step.
func (s *CrawlStep) Do(ctx context.Context, run *model.CrawlRun) error {
	run.StartedAt = s.clock.Now()

	result, err := s.crawler.Crawl(ctx, run.StartingURLs)
	run.Elapsed = s.clock.Now().Sub(run.StartedAt)
	run.Result = result

	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		s.logger.Warn("crawl interrupted",
			"urls_visited", run.URLsVisited(),
			"reason", err,
		)
		run.Interrupted = true
		return nil
	default:
		return fmt.Errorf("crawl failed: %w", err)
	}
}

// ProfileStep copies the profiler entries into the run and writes the
// profile data section.
//
// The section is appended to path when it is set, written to output
// otherwise, and not written at all when both are empty.
type ProfileStep struct {
	profiler *profiler.Profiler
	path     string
	output   io.Writer
}

// ProfileStepOption configures a ProfileStep.
type ProfileStepOption func(*ProfileStep)

// WithProfilePath appends the profile data to the file at path.
func WithProfilePath(path string) ProfileStepOption {
	return func(s *ProfileStep) {
		s.path = path
	}
}

// WithProfileOutput writes the profile data to w when no path is set.
func WithProfileOutput(w io.Writer) ProfileStepOption {
	return func(s *ProfileStep) {
		s.output = w
	}
}

// NewProfileStep creates a profile step for p.
func NewProfileStep(p *profiler.Profiler, opts ...ProfileStepOption) *ProfileStep {
	s := &ProfileStep{profiler: p}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *ProfileStep) Name() string {
	return "profile"
}

// Final reports that the profile is written even for an interrupted run.
func (s *ProfileStep) Final() bool {
	return true
}

// Do executes the profile step.
// The entries are stored in the run even if writing them fails.
func (s *ProfileStep) Do(_ context.Context, run *model.CrawlRun) error {
	run.Profile = s.profiler.Entries()

	switch {
	case s.path != "":
		if err := s.profiler.WriteFile(s.path); err != nil {
			return fmt.Errorf("failed to write profile data: %w", err)
		}
	case s.output != nil:
		if err := s.profiler.WriteData(s.output); err != nil {
			return fmt.Errorf("failed to write profile data: %w", err)
		}
	}
	return nil
}

// ResultStep writes the run with a report.Writer.
//
// With a path, the report is written to that file (parent directories are
// created); otherwise it goes to the output writer, stdout by default. A
// verbose step with a path also prints a text summary to the output writer.
type ResultStep struct {
	format  report.Format
	path    string
	output  io.Writer
	verbose bool
}

// ResultStepOption configures a ResultStep.
type ResultStepOption func(*ResultStep)

// WithResultPath writes the report to the file at path.
func WithResultPath(path string) ResultStepOption {
	return func(s *ResultStep) {
		s.path = path
	}
}

// WithResultOutput writes the report to w when no path is set.
func WithResultOutput(w io.Writer) ResultStepOption {
	return func(s *ResultStep) {
		s.output = w
	}
}

// WithResultVerbose includes the profile and starting URLs in the simple
// format, and tees a summary to the output writer when a path is set.
func WithResultVerbose(verbose bool) ResultStepOption {
	return func(s *ResultStep) {
		s.verbose = verbose
	}
}

// NewResultStep creates a result step writing in format.
func NewResultStep(format report.Format, opts ...ResultStepOption) *ResultStep {
	s := &ResultStep{
		format: format,
		output: os.Stdout,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *ResultStep) Name() string {
	return "result"
}

// Final reports that the result is written even for an interrupted run.
func (s *ResultStep) Final() bool {
	return true
}

// Do executes the result step.
func (s *ResultStep) Do(_ context.Context, run *model.CrawlRun) (err error) {
	out := s.output
	if s.path != "" {
		f, err := report.CreateFile(s.path)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := f.Close(); cerr != nil && err == nil {
				err = fmt.Errorf("failed to close result file: %w", cerr)
			}
		}()
		out = f
	}

	w := s.writer(out)
	if s.path != "" && s.verbose {
		w = report.NewMultiWriter(w, report.NewSimpleWriter(s.output))
	}

	if _, err := w.Write(run); err != nil {
		return fmt.Errorf("failed to write result: %w", err)
	}
	return nil
}

// writer returns the report.Writer for the configured format.
func (s *ResultStep) writer(out io.Writer) report.Writer {
	if s.format == report.FormatSimple {
		return report.NewSimpleWriter(out, report.WithVerbose(s.verbose))
	}
	return report.New(s.format, out)
}

// Saver stores a finished run. *database.CrawlDB implements it.
type Saver interface {
	SaveRun(ctx context.Context, run *model.CrawlRun) (int64, error)
}

var _ Saver = (*database.CrawlDB)(nil)

// PersistStep saves the run to the history database.
type PersistStep struct {
	saver  Saver
	logger *slog.Logger
}

// PersistStepOption configures a PersistStep.
type PersistStepOption func(*PersistStep)

// WithPersistLogger sets a custom logger for the persist step.
func WithPersistLogger(logger *slog.Logger) PersistStepOption {
	return func(s *PersistStep) {
		s.logger = logger
	}
}

// NewPersistStep creates a persist step writing to saver.
func NewPersistStep(saver Saver, opts ...PersistStepOption) *PersistStep {
	s := &PersistStep{
		saver:  saver,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *PersistStep) Name() string {
	return "persist"
}

// Final reports that interrupted runs are saved too.
func (s *PersistStep) Final() bool {
	return true
}

// Do executes the persist step.
func (s *PersistStep) Do(ctx context.Context, run *model.CrawlRun) error {
	id, err := s.saver.SaveRun(ctx, run)
	if err != nil {
		return fmt.Errorf("failed to save crawl run: %w", err)
	}
	s.logger.Info("crawl run saved", "run_id", id)
	return nil
}

// DefaultPipelineConfig holds the outputs of a standard crawl pipeline.
type DefaultPipelineConfig struct {
	// Clock stamps the run. Defaults to the system clock.
	Clock clock.Clock

	// Format is the result format.
	Format report.Format

	// ResultPath is the result file; empty means Output.
	ResultPath string

	// ProfilePath is the profile file; empty means Output.
	ProfilePath string

	// Output receives the result and profile when no path is set.
	Output io.Writer

	// Verbose enables the extended simple report.
	Verbose bool

	// Saver persists the run; nil disables persistence.
	Saver Saver

	// Logger is shared by the pipeline and its steps.
	Logger *slog.Logger
}

// DefaultPipeline builds the standard pipeline for one crawl:
// crawl, profile, persist (when a Saver is configured) and result.
//
// Design decision: The profile and persist steps run before the result so
// that the report shows the run ID and profile, at the cost of printing the
// profile section first when both go to stdout.
func DefaultPipeline(c crawler.WebCrawler, p *profiler.Profiler, cfg DefaultPipelineConfig, opts ...Option) *Pipeline {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clk := cfg.Clock
	if clk == nil {
		clk = clock.NewSystem()
	}
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}

	pl := New(append([]Option{WithLogger(logger)}, opts...)...)
	pl.AddStep(NewCrawlStep(c, WithCrawlClock(clk), WithCrawlLogger(logger)))
	pl.AddStep(NewProfileStep(p, WithProfilePath(cfg.ProfilePath), WithProfileOutput(out)))
	if cfg.Saver != nil {
		pl.AddStep(NewPersistStep(cfg.Saver, WithPersistLogger(logger)))
	}
	pl.AddStep(NewResultStep(cfg.Format,
		WithResultPath(cfg.ResultPath),
		WithResultOutput(out),
		WithResultVerbose(cfg.Verbose),
	))
	return pl
}
