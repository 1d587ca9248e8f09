// Package database provides SQLite-based storage for wordcrawl.
//
// This package implements the CrawlDB, which stores:
//   - Crawl runs with their settings, status and result
//   - The ranked word counts of every run, for cross-run queries
//   - Profiler entries captured after every run
//
// Design decision: We use SQLite (via modernc.org/sqlite) instead of other
// databases because:
// 1. No external dependencies - the database is a single file
// 2. CGO-free implementation allows easy cross-compilation
// 3. Sufficient performance for our use case
// 4. WAL mode provides good concurrent read performance
package database
