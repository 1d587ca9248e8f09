package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/nao1215/wordcrawl/internal/model"
	"golang.org/x/sync/errgroup"
)

// BatchProcessor runs several independent crawl runs concurrently, one
// pipeline per run. The CLI uses it to crawl each starting page on its own.
//
// Design decision: We use a separate BatchProcessor rather than adding batch
// functionality to Pipeline because:
// 1. It keeps the Pipeline focused on single-run execution
// 2. Every run gets its own pipeline, crawler state and profiler
// 3. The concurrency limit here is independent of the engine's parallelism
type BatchProcessor struct {
	// pipelineFactory creates a new pipeline for each run.
	pipelineFactory func(run *model.CrawlRun) *Pipeline

	// concurrency is the maximum number of concurrent runs.
	concurrency int

	// logger is used for batch-level logging.
	logger *slog.Logger
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent runs.
// Default is 2 if not specified.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a new BatchProcessor.
//
// The pipelineFactory function is called for each run to create a fresh
// pipeline instance, so profiling data does not leak between runs. It
// receives the run so that pipelines can be customized per run.
func NewBatchProcessor(pipelineFactory func(run *model.CrawlRun) *Pipeline, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		pipelineFactory: pipelineFactory,
		concurrency:     2,
	}

	for _, opt := range opts {
		opt(bp)
	}

	if bp.logger == nil {
		bp.logger = slog.Default()
	}

	return bp
}

// ProcessBatch executes a pipeline for every run.
// Runs are filled in place; a failing run records its error and does not
// stop the others. The returned error is ctx.Err() if the batch was
// cancelled, nil otherwise.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, runs []*model.CrawlRun) error {
	bp.logger.Info("starting batch processing",
		"total_runs", len(runs),
		"concurrency", bp.concurrency,
	)

	startTime := time.Now()

	var g errgroup.Group
	g.SetLimit(bp.concurrency)

	for i, run := range runs {
		g.Go(func() error {
			bp.logger.Info("starting run",
				"starting_urls", run.StartingURLs,
				"index", i+1,
				"total", len(runs),
			)

			// Cancellation is handled by the pipeline so that every run
			// still gets its finalizing steps.
			if err := bp.pipelineFactory(run).Execute(ctx, run); err != nil {
				bp.logger.Warn("run failed",
					"starting_urls", run.StartingURLs,
					"error", err,
				)
			}
			return nil
		})
	}

	_ = g.Wait() //nolint:errcheck // runs never return errors

	bp.logger.Info("batch processing complete",
		"total_runs", len(runs),
		"elapsed", time.Since(startTime),
	)

	return ctx.Err()
}
