package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/wordcrawl/internal/model"
)

// FileName is the name of the database file inside the database directory.
const FileName = "wordcrawl.db"

// CrawlDB provides SQLite-based storage for crawl runs.
// It manages connection pooling and provides methods for CRUD operations.
//
// Design decision: We use a single database file for all runs rather than
// one file per run. This keeps cross-run queries (word trends, history
// listings) to a single SQL statement.
type CrawlDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures CrawlDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	// This is recommended for most use cases.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a CrawlDB in the specified directory.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*CrawlDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// mode=rw refuses to create a missing file, mode=rwc allows it.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	cdb := &CrawlDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := cdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return cdb, nil
}

// Path returns the path to the database file.
func (cdb *CrawlDB) Path() string {
	return cdb.dbPath
}

// Close closes the database connection.
func (cdb *CrawlDB) Close() error {
	return cdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (cdb *CrawlDB) createTables() error {
	schema := `
	-- One row per crawl run
	CREATE TABLE IF NOT EXISTS crawl_runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		started_at TEXT NOT NULL,
		starting_urls TEXT NOT NULL,
		urls_visited INTEGER NOT NULL DEFAULT 0,
		elapsed_ms INTEGER NOT NULL DEFAULT 0,
		max_depth INTEGER NOT NULL DEFAULT 0,
		interrupted INTEGER NOT NULL DEFAULT 0,
		error TEXT NOT NULL DEFAULT '',
		result_json TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started ON crawl_runs(started_at);

	-- Ranked popular words of each run
	CREATE TABLE IF NOT EXISTS word_counts (
		run_id INTEGER NOT NULL REFERENCES crawl_runs(id) ON DELETE CASCADE,
		rank INTEGER NOT NULL,
		word TEXT NOT NULL,
		count INTEGER NOT NULL,
		PRIMARY KEY (run_id, rank)
	);

	CREATE INDEX IF NOT EXISTS idx_words_word ON word_counts(word);

	-- Profiler totals of each run
	CREATE TABLE IF NOT EXISTS profile_entries (
		run_id INTEGER NOT NULL REFERENCES crawl_runs(id) ON DELETE CASCADE,
		interface TEXT NOT NULL,
		method TEXT NOT NULL,
		duration_ns INTEGER NOT NULL,
		calls INTEGER NOT NULL,
		PRIMARY KEY (run_id, interface, method)
	);
	`

	_, err := cdb.db.ExecContext(context.Background(), schema)
	return err
}

// SaveRun stores run, its word counts and its profile entries in one
// transaction and sets run.ID to the new row id.
func (cdb *CrawlDB) SaveRun(ctx context.Context, run *model.CrawlRun) (int64, error) {
	result := run.Result
	if result == nil {
		result = model.NewCrawlResult(nil, 0)
	}

	urlsJSON, err := json.Marshal(run.StartingURLs)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize starting urls: %w", err)
	}
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize result: %w", err)
	}

	tx, err := cdb.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }() //nolint:errcheck // Rollback after Commit is a no-op

	res, err := tx.ExecContext(ctx, `
	INSERT INTO crawl_runs (started_at, starting_urls, urls_visited, elapsed_ms, max_depth, interrupted, error, result_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.StartedAt.UTC().Format(time.RFC3339Nano),
		string(urlsJSON),
		result.URLsVisited,
		run.Elapsed.Milliseconds(),
		run.MaxDepth,
		run.Interrupted,
		run.ErrorMessage,
		string(resultJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert crawl run: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get run id: %w", err)
	}

	for i, wc := range result.WordCounts {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO word_counts (run_id, rank, word, count) VALUES (?, ?, ?, ?)`,
			id, i+1, wc.Word, wc.Count,
		); err != nil {
			return 0, fmt.Errorf("failed to insert word count: %w", err)
		}
	}

	for _, e := range run.Profile {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO profile_entries (run_id, interface, method, duration_ns, calls) VALUES (?, ?, ?, ?, ?)`,
			id, e.Interface, e.Method, e.Duration.Nanoseconds(), e.Calls,
		); err != nil {
			return 0, fmt.Errorf("failed to insert profile entry: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit crawl run: %w", err)
	}

	run.ID = id
	return id, nil
}

// GetRun retrieves a run with its result and profile by database ID.
// It returns nil without an error if no run has that ID.
func (cdb *CrawlDB) GetRun(ctx context.Context, id int64) (*model.CrawlRun, error) {
	query := `
	SELECT id, started_at, starting_urls, elapsed_ms, max_depth, interrupted, error, result_json
	FROM crawl_runs
	WHERE id = ?
	`

	var (
		run        model.CrawlRun
		startedAt  string
		urlsJSON   string
		elapsedMS  int64
		resultJSON string
	)
	err := cdb.db.QueryRowContext(ctx, query, id).Scan(
		&run.ID,
		&startedAt,
		&urlsJSON,
		&elapsedMS,
		&run.MaxDepth,
		&run.Interrupted,
		&run.ErrorMessage,
		&resultJSON,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil //nolint:nilnil // not found is not an error for callers
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get crawl run: %w", err)
	}

	run.StartedAt = parseTimestamp(startedAt)
	run.Elapsed = time.Duration(elapsedMS) * time.Millisecond

	if err := json.Unmarshal([]byte(urlsJSON), &run.StartingURLs); err != nil {
		return nil, fmt.Errorf("failed to parse starting urls: %w", err)
	}

	var result model.CrawlResult
	if err := json.Unmarshal([]byte(resultJSON), &result); err != nil {
		return nil, fmt.Errorf("failed to parse result: %w", err)
	}
	run.Result = &result

	run.Profile, err = cdb.GetProfileEntries(ctx, id)
	if err != nil {
		return nil, err
	}

	return &run, nil
}

// RunSummary contains summary information about a stored run.
// This is used for listing history without loading full results.
type RunSummary struct {
	// ID is the unique identifier of the run in the database.
	ID int64

	// StartedAt is when the crawl began.
	StartedAt time.Time

	// StartingURLs are the URLs the crawl was seeded with.
	StartingURLs []string

	// URLsVisited is the number of pages claimed during the crawl.
	URLsVisited int

	// Elapsed is how long the crawl took.
	Elapsed time.Duration

	// Interrupted is true if the crawl was cancelled.
	Interrupted bool

	// TopWord is the most popular word, or empty if no word was counted.
	TopWord string
}

// ListRuns returns the most recent runs, newest first.
// A limit of zero or less returns every run.
func (cdb *CrawlDB) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	query := `
	SELECT r.id, r.started_at, r.starting_urls, r.urls_visited, r.elapsed_ms, r.interrupted,
		COALESCE((SELECT w.word FROM word_counts w WHERE w.run_id = r.id AND w.rank = 1), '')
	FROM crawl_runs r
	ORDER BY r.id DESC
	`
	args := make([]any, 0, 1)
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := cdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list crawl runs: %w", err)
	}
	defer rows.Close()

	results := make([]RunSummary, 0)
	for rows.Next() {
		var (
			s         RunSummary
			startedAt string
			urlsJSON  string
			elapsedMS int64
		)
		if err := rows.Scan(&s.ID, &startedAt, &urlsJSON, &s.URLsVisited, &elapsedMS, &s.Interrupted, &s.TopWord); err != nil {
			return nil, fmt.Errorf("failed to scan crawl run: %w", err)
		}

		s.StartedAt = parseTimestamp(startedAt)
		s.Elapsed = time.Duration(elapsedMS) * time.Millisecond
		if err := json.Unmarshal([]byte(urlsJSON), &s.StartingURLs); err != nil {
			s.StartingURLs = make([]string, 0)
		}

		results = append(results, s)
	}

	return results, rows.Err()
}

// GetWordCounts returns the ranked word counts of a run.
func (cdb *CrawlDB) GetWordCounts(ctx context.Context, runID int64) (model.WordCounts, error) {
	rows, err := cdb.db.QueryContext(ctx,
		`SELECT word, count FROM word_counts WHERE run_id = ? ORDER BY rank`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get word counts: %w", err)
	}
	defer rows.Close()

	counts := make(model.WordCounts, 0)
	for rows.Next() {
		var wc model.WordCount
		if err := rows.Scan(&wc.Word, &wc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan word count: %w", err)
		}
		counts = append(counts, wc)
	}

	return counts, rows.Err()
}

// GetProfileEntries returns the profiler entries of a run, sorted by key.
func (cdb *CrawlDB) GetProfileEntries(ctx context.Context, runID int64) ([]model.ProfileEntry, error) {
	rows, err := cdb.db.QueryContext(ctx, `
	SELECT interface, method, duration_ns, calls
	FROM profile_entries
	WHERE run_id = ?
	ORDER BY interface, method
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get profile entries: %w", err)
	}
	defer rows.Close()

	entries := make([]model.ProfileEntry, 0)
	for rows.Next() {
		var (
			e     model.ProfileEntry
			nanos int64
		)
		if err := rows.Scan(&e.Interface, &e.Method, &nanos, &e.Calls); err != nil {
			return nil, fmt.Errorf("failed to scan profile entry: %w", err)
		}
		e.Duration = time.Duration(nanos)
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// WordTrendPoint is the count of one word in one run.
type WordTrendPoint struct {
	// RunID is the run the count belongs to.
	RunID int64

	// StartedAt is when that run began.
	StartedAt time.Time

	// Rank is the word's position in the run's result, starting at 1.
	Rank int

	// Count is the word's total count in that run.
	Count int
}

// WordTrend returns the count of word in every run whose result contains
// it, oldest first.
func (cdb *CrawlDB) WordTrend(ctx context.Context, word string) ([]WordTrendPoint, error) {
	rows, err := cdb.db.QueryContext(ctx, `
	SELECT r.id, r.started_at, w.rank, w.count
	FROM word_counts w
	JOIN crawl_runs r ON r.id = w.run_id
	WHERE w.word = ?
	ORDER BY r.id
	`, word)
	if err != nil {
		return nil, fmt.Errorf("failed to get word trend: %w", err)
	}
	defer rows.Close()

	points := make([]WordTrendPoint, 0)
	for rows.Next() {
		var (
			p         WordTrendPoint
			startedAt string
		)
		if err := rows.Scan(&p.RunID, &startedAt, &p.Rank, &p.Count); err != nil {
			return nil, fmt.Errorf("failed to scan word trend: %w", err)
		}
		p.StartedAt = parseTimestamp(startedAt)
		points = append(points, p)
	}

	return points, rows.Err()
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	time.RFC3339Nano,          // started_at as written by SaveRun
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
