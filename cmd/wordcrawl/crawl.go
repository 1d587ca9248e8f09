package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/nao1215/wordcrawl/internal/clock"
	"github.com/nao1215/wordcrawl/internal/config"
	"github.com/nao1215/wordcrawl/internal/crawler"
	"github.com/nao1215/wordcrawl/internal/database"
	"github.com/nao1215/wordcrawl/internal/log"
	"github.com/nao1215/wordcrawl/internal/model"
	"github.com/nao1215/wordcrawl/internal/pipeline"
	"github.com/nao1215/wordcrawl/internal/profiler"
	"github.com/nao1215/wordcrawl/internal/report"
	"github.com/spf13/cobra"
)

// errSeparateOutput is returned when --separate is combined with output files.
var errSeparateOutput = errors.New("--separate prints every run to stdout; unset resultPath and profileOutputPath")

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl [url...]",
		Short: "Crawl web pages and report the most popular words",
		Long: `Crawl visits every page reachable from the starting URLs, counts the
words in their text and reports the most popular ones.

Links are followed up to --depth hops from each starting page (the page itself
is the first hop). After --timeout seconds no new page is started; pages being
parsed at that moment are allowed to finish. Each URL is visited at most once.

Examples:
  # Crawl a site three hops deep
  wordcrawl crawl --depth 3 https://example.com/

  # Crawl local files
  wordcrawl crawl file:///srv/docs/index.html

  # Ignore images and common words
  wordcrawl crawl --ignore-url '.*\.png' --ignore-word the --ignore-word 'a|an' https://example.com/

  # Write the JSON result and profiling data to files
  wordcrawl crawl -o result.json --profile profile.txt https://example.com/

  # Crawl each starting page as its own run
  wordcrawl crawl --separate https://example.com/ https://example.org/

  # Use a configuration file
  wordcrawl crawl -c crawl.yaml

Configuration file (.wordcrawl.yaml) example:
  startPages:
    - https://example.com/
  ignoredUrls:
    - .*\.pdf
  ignoredWords:
    - the
  maxDepth: 3
  timeoutSeconds: 10
  popularWordCount: 10`,
		Args: cobra.ArbitraryArgs,
		RunE: runCrawlCmd,
	}

	// Crawl behavior flags
	cmd.Flags().IntP("depth", "d", config.DefaultMaxDepth,
		"Link hops to follow from each starting page, counting the page itself")
	cmd.Flags().IntP("timeout", "t", config.DefaultTimeoutSeconds,
		"Seconds after which no new page is started")
	cmd.Flags().IntP("parallelism", "p", 0,
		"Pages parsed at the same time (default: number of CPUs)")
	cmd.Flags().IntP("popular", "n", config.DefaultPopularWordCount,
		"Number of popular words to report")
	cmd.Flags().StringArray("ignore-url", nil,
		"Regular expression of URLs to skip (repeatable)")
	cmd.Flags().StringArray("ignore-word", nil,
		"Regular expression of words to skip (repeatable)")
	cmd.Flags().Duration("parser-deadline", config.DefaultParserDeadline,
		"Time limit for fetching and parsing one page")
	cmd.Flags().String("proxy", "",
		"SOCKS5 proxy URL (e.g., socks5://127.0.0.1:1080)")
	cmd.Flags().String("user-agent", config.DefaultUserAgent,
		"User-Agent header for HTTP requests")

	// Batch flags
	cmd.Flags().Bool("separate", false,
		"Crawl every starting page as its own run")
	cmd.Flags().IntP("batch", "b", 2,
		"Number of concurrent runs with --separate")
	cmd.Flags().Bool("log-json", false,
		"Write logs to stderr as JSON")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .wordcrawl.yaml in current directory or XDG config directory)")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON result (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write the result to the specified file (JSON unless --markdown is given)")
	cmd.Flags().String("profile", "",
		"Append profiling data to the specified file")

	// History flags
	cmd.Flags().Bool("no-save", false,
		"Do not save the run to the history database")
	cmd.Flags().String("db-dir", "",
		"History database directory (default: XDG data directory)")

	return cmd
}

// crawlOptions are the crawl flags that are not part of config.Config.
type crawlOptions struct {
	separate bool
	batch    int
	logJSON  bool
}

// runCrawlCmd executes the crawl command.
func runCrawlCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	opts, err := buildCrawlOptions(cmd)
	if err != nil {
		return err
	}
	if opts.separate && (cfg.ResultPath != "" || cfg.ProfileOutputPath != "") {
		return errSeparateOutput
	}

	logger := log.NewSecureLogger(cmd.ErrOrStderr(), cfg.Verbose)
	if opts.logJSON {
		logger = log.NewSecureJSONLogger(cmd.ErrOrStderr(), cfg.Verbose)
	}
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	// Handle interrupt signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			logger.Warn("received shutdown signal, writing partial result...")
			cancel()
		case <-ctx.Done():
		}
	}()

	return runCrawl(ctx, cfg, opts, logger, cmd.OutOrStdout())
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig loads the configuration file, if any, and applies the flags
// the user set on top of it. Positional arguments replace the start pages.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// If the user explicitly specified a config file path, error if not found.
	// If no path was specified, silently use defaults if no file is found.
	cfg := config.NewConfig()
	if found := config.FindConfigFile(configPath); found != "" {
		cfg, err = config.LoadFile(found)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", found, err)
		}
	} else if configPath != "" {
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, configPath)
	}

	flags := cmd.Flags()
	if flags.Changed("depth") {
		if cfg.MaxDepth, err = flags.GetInt("depth"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("timeout") {
		if cfg.TimeoutSeconds, err = flags.GetInt("timeout"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("parallelism") {
		if cfg.Parallelism, err = flags.GetInt("parallelism"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("popular") {
		if cfg.PopularWordCount, err = flags.GetInt("popular"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("parser-deadline") {
		if cfg.ParserDeadline, err = flags.GetDuration("parser-deadline"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("proxy") {
		if cfg.Proxy, err = flags.GetString("proxy"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("user-agent") {
		if cfg.UserAgent, err = flags.GetString("user-agent"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("output") {
		if cfg.ResultPath, err = flags.GetString("output"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("profile") {
		if cfg.ProfileOutputPath, err = flags.GetString("profile"); err != nil {
			return nil, err
		}
	}

	ignoredURLs, err := flags.GetStringArray("ignore-url")
	if err != nil {
		return nil, err
	}
	cfg.IgnoredURLs = append(cfg.IgnoredURLs, ignoredURLs...)

	ignoredWords, err := flags.GetStringArray("ignore-word")
	if err != nil {
		return nil, err
	}
	cfg.IgnoredWords = append(cfg.IgnoredWords, ignoredWords...)

	if cfg.JSONReport, err = flags.GetBool("json"); err != nil {
		return nil, err
	}
	if cfg.MarkdownReport, err = flags.GetBool("markdown"); err != nil {
		return nil, err
	}

	noSave, err := flags.GetBool("no-save")
	if err != nil {
		return nil, err
	}
	cfg.SaveToDB = !noSave

	if cfg.DBDir, err = flags.GetString("db-dir"); err != nil {
		return nil, err
	}
	if cfg.DBDir == "" {
		cfg.DBDir = config.XDGDataDir()
	}

	cfg.Verbose = getVerboseFlag(cmd)

	if len(args) > 0 {
		cfg.StartPages = args
	}

	return cfg, nil
}

// buildCrawlOptions reads the batch and logging flags.
func buildCrawlOptions(cmd *cobra.Command) (crawlOptions, error) {
	separate, err := cmd.Flags().GetBool("separate")
	if err != nil {
		return crawlOptions{}, err
	}
	batch, err := cmd.Flags().GetInt("batch")
	if err != nil {
		return crawlOptions{}, err
	}
	logJSON, err := cmd.Flags().GetBool("log-json")
	if err != nil {
		return crawlOptions{}, err
	}
	return crawlOptions{separate: separate, batch: batch, logJSON: logJSON}, nil
}

// reportFormat selects the result format from the flags. A result file
// without an explicit format gets the JSON result format.
func reportFormat(cfg *config.Config) report.Format {
	switch {
	case cfg.JSONReport:
		return report.FormatJSON
	case cfg.MarkdownReport:
		return report.FormatMarkdown
	case cfg.ResultPath != "":
		return report.FormatJSON
	default:
		return report.FormatSimple
	}
}

// runCrawl executes the crawl.
func runCrawl(ctx context.Context, cfg *config.Config, opts crawlOptions, logger *slog.Logger, out io.Writer) error {
	patterns, err := cfg.Compile()
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger.Info("starting crawl",
		"start_pages", cfg.StartPages,
		"max_depth", cfg.MaxDepth,
		"timeout", cfg.Timeout(),
		"separate", opts.separate,
		"save_to_db", cfg.SaveToDB,
	)

	var db *database.CrawlDB
	if cfg.SaveToDB {
		db, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		logger.Info("database opened", "path", db.Path())
	}

	client, err := crawler.NewHTTPClient(cfg.ParserDeadline, cfg.Proxy, cfg.Headers)
	if err != nil {
		return fmt.Errorf("failed to create HTTP client: %w", err)
	}

	factory := &pipelineFactory{
		cfg:      cfg,
		patterns: patterns,
		client:   client,
		db:       db,
		logger:   logger,
	}

	if opts.separate {
		return runSeparate(ctx, cfg, opts, factory, logger, out)
	}

	p, err := factory.build(out)
	if err != nil {
		return err
	}

	run := model.NewCrawlRun(cfg.StartPages, cfg.MaxDepth)
	if err := p.Execute(ctx, run); err != nil {
		if errors.Is(err, context.Canceled) {
			return fmt.Errorf("crawl interrupted after %d pages: %w", run.URLsVisited(), err)
		}
		return err
	}
	if run.Error != nil {
		return run.Error
	}
	return nil
}

// runSeparate crawls every start page as its own run and prints the runs
// in start page order once all of them have finished.
func runSeparate(ctx context.Context, cfg *config.Config, opts crawlOptions, factory *pipelineFactory, logger *slog.Logger, out io.Writer) error {
	runs := make([]*model.CrawlRun, len(cfg.StartPages))
	outputs := make([]*bytes.Buffer, len(cfg.StartPages))
	pipelines := make(map[*model.CrawlRun]*pipeline.Pipeline, len(cfg.StartPages))
	for i, page := range cfg.StartPages {
		runs[i] = model.NewCrawlRun([]string{page}, cfg.MaxDepth)
		outputs[i] = new(bytes.Buffer)

		p, err := factory.build(outputs[i])
		if err != nil {
			return err
		}
		pipelines[runs[i]] = p
	}

	bp := pipeline.NewBatchProcessor(
		func(run *model.CrawlRun) *pipeline.Pipeline {
			return pipelines[run]
		},
		pipeline.WithConcurrency(opts.batch),
		pipeline.WithBatchLogger(logger),
	)

	err := bp.ProcessBatch(ctx, runs)

	failed := 0
	for i, run := range runs {
		if _, werr := outputs[i].WriteTo(out); werr != nil {
			return werr
		}
		if run.Error != nil {
			failed++
		}
	}

	if err != nil {
		return fmt.Errorf("crawl interrupted: %w", err)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d runs failed", failed, len(runs))
	}
	return nil
}

// pipelineFactory builds one crawl pipeline with a fresh parser, crawler
// and profiler.
type pipelineFactory struct {
	cfg      *config.Config
	patterns *config.Patterns
	client   *http.Client
	db       *database.CrawlDB
	logger   *slog.Logger
}

// build wires the profiled parser into the engine, profiles the engine
// itself and returns the standard pipeline writing to out.
func (f *pipelineFactory) build(out io.Writer) (*pipeline.Pipeline, error) {
	clk := clock.NewSystem()
	prof := profiler.New(clk)

	parser := crawler.NewHTMLParser(f.client,
		crawler.WithUserAgent(f.cfg.UserAgent),
		crawler.WithMaxBodySize(f.cfg.MaxBodySize),
		crawler.WithParseTimeout(f.cfg.ParserDeadline),
		crawler.WithIgnoredWords(f.patterns.IgnoredWords),
	)
	profiledParser, err := profiler.Wrap(prof, crawler.ProfiledParser, crawler.PageParser(parser))
	if err != nil {
		return nil, fmt.Errorf("failed to profile parser: %w", err)
	}

	engine := crawler.NewEngine(profiledParser,
		crawler.WithClock(clk),
		crawler.WithTimeout(f.cfg.Timeout()),
		crawler.WithPopularWordCount(f.cfg.PopularWordCount),
		crawler.WithMaxDepth(f.cfg.MaxDepth),
		crawler.WithIgnoredURLs(f.patterns.IgnoredURLs),
		crawler.WithParallelism(f.cfg.Parallelism),
		crawler.WithLogger(f.logger),
	)
	profiledCrawler, err := profiler.Wrap(prof, crawler.ProfiledCrawler, crawler.WebCrawler(engine))
	if err != nil {
		return nil, fmt.Errorf("failed to profile crawler: %w", err)
	}

	pcfg := pipeline.DefaultPipelineConfig{
		Clock:       clk,
		Format:      reportFormat(f.cfg),
		ResultPath:  f.cfg.ResultPath,
		ProfilePath: f.cfg.ProfileOutputPath,
		Output:      out,
		Verbose:     f.cfg.Verbose,
		Logger:      f.logger,
	}
	if f.db != nil {
		pcfg.Saver = f.db
	}

	return pipeline.DefaultPipeline(profiledCrawler, prof, pcfg, pipeline.WithContinueOnError(true)), nil
}
