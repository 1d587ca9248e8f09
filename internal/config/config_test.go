package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"
)

// TestNewConfig verifies that NewConfig returns a Config with all expected default values.
// Changes to defaults must be intentional, so each one is pinned here.
func TestNewConfig(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()

	t.Run("default timeout is 10 seconds", func(t *testing.T) {
		t.Parallel()
		if cfg.Timeout() != 10*time.Second {
			t.Errorf("expected Timeout to be 10s, got %v", cfg.Timeout())
		}
	})

	t.Run("default MaxDepth is 10", func(t *testing.T) {
		t.Parallel()
		if cfg.MaxDepth != 10 {
			t.Errorf("expected MaxDepth to be 10, got %d", cfg.MaxDepth)
		}
	})

	t.Run("default PopularWordCount is 10", func(t *testing.T) {
		t.Parallel()
		if cfg.PopularWordCount != 10 {
			t.Errorf("expected PopularWordCount to be 10, got %d", cfg.PopularWordCount)
		}
	})

	t.Run("default Parallelism is the CPU count", func(t *testing.T) {
		t.Parallel()
		if cfg.Parallelism != runtime.NumCPU() {
			t.Errorf("expected Parallelism to be %d, got %d", runtime.NumCPU(), cfg.Parallelism)
		}
	})

	t.Run("default ParserDeadline is 5 seconds", func(t *testing.T) {
		t.Parallel()
		if cfg.ParserDeadline != 5*time.Second {
			t.Errorf("expected ParserDeadline to be 5s, got %v", cfg.ParserDeadline)
		}
	})

	t.Run("default MaxBodySize is 5MB", func(t *testing.T) {
		t.Parallel()
		if cfg.MaxBodySize != 5*1024*1024 {
			t.Errorf("expected MaxBodySize to be 5MB, got %d", cfg.MaxBodySize)
		}
	})

	t.Run("default outputs are stdout", func(t *testing.T) {
		t.Parallel()
		if cfg.ResultPath != "" || cfg.ProfileOutputPath != "" {
			t.Error("expected empty output paths")
		}
	})
}

// TestConfigValidate tests the Validate method with various configurations.
// Each test case is designed to test one specific validation rule.
func TestConfigValidate(t *testing.T) {
	t.Parallel()

	// validConfig returns a minimal valid configuration.
	validConfig := func() *Config {
		cfg := NewConfig()
		cfg.StartPages = []string{"https://example.com/"}
		return cfg
	}

	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr error
	}{
		{name: "valid config returns nil", modify: func(*Config) {}},
		{name: "zero depth is valid", modify: func(c *Config) { c.MaxDepth = 0 }},
		{name: "zero popular word count is valid", modify: func(c *Config) { c.PopularWordCount = 0 }},
		{name: "zero parser deadline is valid", modify: func(c *Config) { c.ParserDeadline = 0 }},
		{name: "json only is valid", modify: func(c *Config) { c.JSONReport = true }},
		{name: "markdown only is valid", modify: func(c *Config) { c.MarkdownReport = true }},
		{
			name:    "no start pages",
			modify:  func(c *Config) { c.StartPages = nil },
			wantErr: ErrNoStartPages,
		},
		{
			name:    "zero timeout",
			modify:  func(c *Config) { c.TimeoutSeconds = 0 },
			wantErr: ErrInvalidTimeout,
		},
		{
			name:    "zero parallelism",
			modify:  func(c *Config) { c.Parallelism = 0 },
			wantErr: ErrInvalidParallelism,
		},
		{
			name:    "negative depth",
			modify:  func(c *Config) { c.MaxDepth = -1 },
			wantErr: ErrInvalidMaxDepth,
		},
		{
			name:    "negative popular word count",
			modify:  func(c *Config) { c.PopularWordCount = -1 },
			wantErr: ErrInvalidPopularWordCount,
		},
		{
			name:    "negative parser deadline",
			modify:  func(c *Config) { c.ParserDeadline = -time.Second },
			wantErr: ErrInvalidParserDeadline,
		},
		{
			name:    "negative max body size",
			modify:  func(c *Config) { c.MaxBodySize = -1 },
			wantErr: ErrInvalidMaxBodySize,
		},
		{
			name: "json and markdown both enabled",
			modify: func(c *Config) {
				c.JSONReport = true
				c.MarkdownReport = true
			},
			wantErr: ErrConflictingReportFormats,
		},
		{
			name:    "invalid url pattern",
			modify:  func(c *Config) { c.IgnoredURLs = []string{"("} },
			wantErr: ErrInvalidPattern,
		},
		{
			name:    "invalid word pattern",
			modify:  func(c *Config) { c.IgnoredWords = []string{"[a-"} },
			wantErr: ErrInvalidPattern,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := validConfig()
			tt.modify(cfg)

			err := cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("expected nil, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestConfigCompile(t *testing.T) {
	t.Parallel()

	t.Run("patterns must match the whole input", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		cfg.IgnoredURLs = []string{`https://example\.com/private/.*`}
		cfg.IgnoredWords = []string{`.{1,3}`, `the|and`}

		patterns, err := cfg.Compile()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		url := patterns.IgnoredURLs[0]
		if !url.MatchString("https://example.com/private/x") {
			t.Error("expected private URL to match")
		}
		if url.MatchString("https://mirror.org/?u=https://example.com/private/x") {
			t.Error("pattern should not match a substring")
		}

		short := patterns.IgnoredWords[0]
		if !short.MatchString("cat") || short.MatchString("house") {
			t.Error("length pattern not anchored")
		}
		alt := patterns.IgnoredWords[1]
		if !alt.MatchString("and") || alt.MatchString("andromeda") {
			t.Error("alternation not grouped before anchoring")
		}
	})

	t.Run("empty lists compile to empty slices", func(t *testing.T) {
		t.Parallel()

		patterns, err := NewConfig().Compile()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if patterns.IgnoredURLs == nil || len(patterns.IgnoredURLs) != 0 {
			t.Errorf("expected empty slice, got %v", patterns.IgnoredURLs)
		}
	})
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	t.Run("returns ErrConfigNotFound for non-existent file", func(t *testing.T) {
		t.Parallel()

		_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
		if !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("expected ErrConfigNotFound, got %v", err)
		}
	})

	t.Run("loads valid YAML config", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "config.yaml")
		content := `startPages:
  - https://example.com/
ignoredUrls:
  - "https://example\\.com/private/.*"
ignoredWords:
  - "^.{1,3}$"
parallelism: 4
maxDepth: 3
timeoutSeconds: 7
popularWordCount: 5
parserDeadline: 2s
userAgent: test-agent
maxBodySize: 1024
proxy: socks5://127.0.0.1:9050
headers:
  X-Crawl: yes
resultPath: out/result.json
profileOutputPath: out/profile.txt
`
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		cfg, err := LoadFile(path)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if len(cfg.StartPages) != 1 || cfg.StartPages[0] != "https://example.com/" {
			t.Errorf("unexpected StartPages: %v", cfg.StartPages)
		}
		if len(cfg.IgnoredURLs) != 1 || cfg.IgnoredURLs[0] != `https://example\.com/private/.*` {
			t.Errorf("unexpected IgnoredURLs: %v", cfg.IgnoredURLs)
		}
		if cfg.Parallelism != 4 || cfg.MaxDepth != 3 || cfg.PopularWordCount != 5 {
			t.Errorf("unexpected numbers: %+v", cfg)
		}
		if cfg.Timeout() != 7*time.Second {
			t.Errorf("expected 7s timeout, got %v", cfg.Timeout())
		}
		if cfg.ParserDeadline != 2*time.Second {
			t.Errorf("expected 2s parser deadline, got %v", cfg.ParserDeadline)
		}
		if cfg.UserAgent != "test-agent" || cfg.MaxBodySize != 1024 {
			t.Errorf("unexpected parser settings: %q %d", cfg.UserAgent, cfg.MaxBodySize)
		}
		if cfg.Proxy != "socks5://127.0.0.1:9050" {
			t.Errorf("unexpected proxy: %q", cfg.Proxy)
		}
		if cfg.Headers["X-Crawl"] != "yes" {
			t.Errorf("unexpected headers: %v", cfg.Headers)
		}
		if cfg.ResultPath != "out/result.json" || cfg.ProfileOutputPath != "out/profile.txt" {
			t.Errorf("unexpected output paths: %q %q", cfg.ResultPath, cfg.ProfileOutputPath)
		}
		if cfg.ConfigFilePath != path {
			t.Errorf("expected ConfigFilePath %q, got %q", path, cfg.ConfigFilePath)
		}
		if err := cfg.Validate(); err != nil {
			t.Errorf("loaded config should be valid: %v", err)
		}
	})

	t.Run("missing keys keep defaults", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "config.yaml")
		if err := os.WriteFile(path, []byte("startPages: [https://example.com/]\n"), 0600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		cfg, err := LoadFile(path)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}
		if cfg.MaxDepth != DefaultMaxDepth || cfg.TimeoutSeconds != DefaultTimeoutSeconds {
			t.Errorf("defaults not kept: %+v", cfg)
		}
		if cfg.Headers == nil {
			t.Error("expected non-nil headers")
		}
	})

	t.Run("returns error for invalid YAML", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "config.yaml")
		if err := os.WriteFile(path, []byte("maxDepth: [unclosed"), 0600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		if _, err := LoadFile(path); err == nil {
			t.Error("expected error for invalid YAML")
		}
	})
}

func TestFindConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("returns explicit path if exists", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "custom.yaml")
		if err := os.WriteFile(path, []byte("maxDepth: 1\n"), 0600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		if got := FindConfigFile(path); got != path {
			t.Errorf("expected %q, got %q", path, got)
		}
	})

	t.Run("returns empty for non-existent explicit path", func(t *testing.T) {
		t.Parallel()

		if got := FindConfigFile(filepath.Join(t.TempDir(), "missing.yaml")); got != "" {
			t.Errorf("expected empty, got %q", got)
		}
	})
}

func TestXDGDirs(t *testing.T) {
	t.Parallel()

	t.Run("XDGDataDir ends with app name", func(t *testing.T) {
		t.Parallel()
		if filepath.Base(XDGDataDir()) != AppName {
			t.Errorf("unexpected data dir: %q", XDGDataDir())
		}
	})

	t.Run("XDGConfigDir ends with app name", func(t *testing.T) {
		t.Parallel()
		if filepath.Base(XDGConfigDir()) != AppName {
			t.Errorf("unexpected config dir: %q", XDGConfigDir())
		}
	})
}
