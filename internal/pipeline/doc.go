// Package pipeline provides a framework for executing crawl steps in sequence.
//
// A crawl run passes through a fixed set of stages: the crawl itself,
// collecting the profiling data, saving the run to the history database and
// writing the result. Each stage is implemented as a Step that receives the
// current model.CrawlRun and can modify it.
//
// Design decision: We use a pipeline pattern instead of direct function calls
// because:
// 1. It allows easy addition/removal of steps without modifying core logic
// 2. It provides consistent error handling and logging across steps
// 3. It lets an interrupted crawl still reach the steps that report it
//
// BatchProcessor runs several independent pipelines concurrently with
// errgroup, one per run.
package pipeline
