package config

import (
	"fmt"
	"path/filepath"
	"regexp"
	"runtime"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "wordcrawl"

	// DefaultTimeoutSeconds bounds how long new pages may be started.
	// Pages already being parsed when it elapses are allowed to finish.
	DefaultTimeoutSeconds = 10

	// DefaultMaxDepth follows links ten hops from every starting page.
	// The starting page itself counts as the first hop.
	DefaultMaxDepth = 10

	// DefaultPopularWordCount is the number of words in the result.
	DefaultPopularWordCount = 10

	// DefaultParserDeadline bounds the fetch and parse of a single page.
	// A slow page then costs one worker slot for at most this long.
	DefaultParserDeadline = 5 * time.Second

	// DefaultUserAgent identifies wordcrawl in HTTP requests.
	// Using a descriptive User-Agent allows site operators to identify
	// crawler traffic in their logs.
	DefaultUserAgent = "wordcrawl/1.0 (+https://github.com/nao1215/wordcrawl)"

	// DefaultMaxBodySize limits the maximum response body size to read.
	// 5MB is sufficient for most HTML pages while preventing memory exhaustion
	// from unexpectedly large responses.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB
)

// Config holds all configuration options for wordcrawl.
// Fields with a yaml tag can be set from the configuration file; the others
// come from CLI flags only. CLI flags override file values.
//
// Design decision: We use a single flat struct instead of nested structs
// (e.g., CrawlConfig, ReportConfig) for simplicity. The file format maps
// one-to-one onto these fields, so there is nothing to merge.
type Config struct {
	// StartPages are the URLs the crawl starts from.
	StartPages []string `yaml:"startPages"`

	// IgnoredURLs are regular expressions of URLs that are never visited.
	// A pattern must match the whole URL.
	IgnoredURLs []string `yaml:"ignoredUrls,omitempty"`

	// IgnoredWords are regular expressions of words that are never counted.
	// A pattern must match the whole (case-folded) word.
	IgnoredWords []string `yaml:"ignoredWords,omitempty"`

	// Parallelism is the requested number of concurrent page parses.
	// The crawler caps it at the number of available CPUs.
	Parallelism int `yaml:"parallelism"`

	// MaxDepth is the number of link hops to follow, counting the starting page.
	// 0 visits nothing, 1 visits only the starting pages.
	MaxDepth int `yaml:"maxDepth"`

	// TimeoutSeconds is how long after the start new pages may be visited.
	TimeoutSeconds int `yaml:"timeoutSeconds"`

	// PopularWordCount is the number of words kept in the result.
	PopularWordCount int `yaml:"popularWordCount"`

	// ParserDeadline bounds a single page fetch and parse. Zero means no bound.
	ParserDeadline time.Duration `yaml:"parserDeadline,omitempty"`

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string `yaml:"userAgent,omitempty"`

	// MaxBodySize is the maximum response body size in bytes to read.
	// Set to 0 to use the default (5MB).
	MaxBodySize int64 `yaml:"maxBodySize,omitempty"`

	// Proxy is an optional SOCKS5 proxy URL ("socks5://host:port").
	Proxy string `yaml:"proxy,omitempty"`

	// Headers are custom HTTP headers added to every request.
	Headers map[string]string `yaml:"headers,omitempty"`

	// ResultPath is the file the result is written to.
	// When empty, the result is printed to stdout.
	ResultPath string `yaml:"resultPath,omitempty"`

	// ProfileOutputPath is the file profiling data is appended to.
	// When empty, profiling data is printed to stdout.
	ProfileOutputPath string `yaml:"profileOutputPath,omitempty"`

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool `yaml:"-"`

	// ConfigFilePath is the path of the configuration file that was loaded.
	ConfigFilePath string `yaml:"-"`

	// JSONReport enables JSON result output instead of human-readable format.
	// Mutually exclusive with MarkdownReport.
	JSONReport bool `yaml:"-"`

	// MarkdownReport enables Markdown result output instead of human-readable format.
	// Mutually exclusive with JSONReport.
	MarkdownReport bool `yaml:"-"`

	// DBDir is the directory path for storing the SQLite database.
	// Defaults to XDG data directory (~/.local/share/wordcrawl on Linux).
	DBDir string `yaml:"-"`

	// SaveToDB indicates whether to save crawl runs to the database.
	SaveToDB bool `yaml:"-"`
}

// NewConfig creates a new Config with default values.
//
// Design decision: We use a constructor function instead of relying on
// zero values because many defaults are non-zero (e.g., timeout, depth).
// LoadFile also decodes on top of these defaults, so a file only needs the
// keys it wants to change.
func NewConfig() *Config {
	return &Config{
		StartPages:       make([]string, 0),
		IgnoredURLs:      make([]string, 0),
		IgnoredWords:     make([]string, 0),
		Parallelism:      runtime.NumCPU(),
		MaxDepth:         DefaultMaxDepth,
		TimeoutSeconds:   DefaultTimeoutSeconds,
		PopularWordCount: DefaultPopularWordCount,
		ParserDeadline:   DefaultParserDeadline,
		UserAgent:        DefaultUserAgent,
		MaxBodySize:      DefaultMaxBodySize,
		Headers:          make(map[string]string),
	}
}

// Timeout returns TimeoutSeconds as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// XDGDataDir returns the XDG data directory for wordcrawl.
// On Linux: ~/.local/share/wordcrawl
// On macOS: ~/Library/Application Support/wordcrawl
// On Windows: %LOCALAPPDATA%\wordcrawl
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for wordcrawl.
// On Linux: ~/.config/wordcrawl
// On macOS: ~/Library/Application Support/wordcrawl
// On Windows: %APPDATA%\wordcrawl
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns a specific error describing what is invalid.
//
// Design decision: We validate at the config level rather than at each
// point of use to fail fast and provide clear error messages upfront.
// We return the first error found rather than collecting all errors
// because fixing one error often makes others irrelevant.
func (c *Config) Validate() error {
	if len(c.StartPages) == 0 {
		return ErrNoStartPages
	}

	if c.TimeoutSeconds <= 0 {
		return ErrInvalidTimeout
	}

	if c.Parallelism <= 0 {
		return ErrInvalidParallelism
	}

	if c.MaxDepth < 0 {
		return ErrInvalidMaxDepth
	}

	if c.PopularWordCount < 0 {
		return ErrInvalidPopularWordCount
	}

	if c.ParserDeadline < 0 {
		return ErrInvalidParserDeadline
	}

	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}

	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	if _, err := c.Compile(); err != nil {
		return err
	}

	return nil
}

// Patterns holds the compiled ignore patterns of a Config.
type Patterns struct {
	// IgnoredURLs are matched against every URL before it is visited.
	IgnoredURLs []*regexp.Regexp

	// IgnoredWords are matched against every word before it is counted.
	IgnoredWords []*regexp.Regexp
}

// Compile compiles IgnoredURLs and IgnoredWords.
// Every pattern is anchored so that it must match the whole input.
func (c *Config) Compile() (*Patterns, error) {
	urls, err := compileAll(c.IgnoredURLs)
	if err != nil {
		return nil, err
	}
	words, err := compileAll(c.IgnoredWords)
	if err != nil {
		return nil, err
	}
	return &Patterns{IgnoredURLs: urls, IgnoredWords: words}, nil
}

// compileAll compiles each pattern as ^(?:pattern)$.
func compileAll(patterns []string) ([]*regexp.Regexp, error) {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile("^(?:" + p + ")$")
		if err != nil {
			return nil, fmt.Errorf("%w %q: %w", ErrInvalidPattern, p, err)
		}
		compiled = append(compiled, re)
	}
	return compiled, nil
}
