// Package config defines the command-line, environment and config-file
// settings for a run.
package config

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/peterbourgon/ff/v3"
	"github.com/peterbourgon/ff/v3/ffyaml"

	"github.com/danielmmetz/hn-stats/hn"
)

const DefaultTopN = 3

type Config struct {
	// TopN is the number of top stories to process.
	TopN int

	// API access.
	BaseURL     string
	Timeout     time.Duration
	Concurrency int
	RPS         float64
	UserAgent   string

	// Output artifacts, relative to OutDir unless absolute.
	OutDir      string
	StoriesCSV  string
	CommentsCSV string
	StatsCSV    string
	ChartHTML   string
	ArticlesCSV string

	DBPath      string // empty disables the run archive
	KeepRuns    int    // archived runs to retain; 0 keeps all
	Articles    bool
	StrictStats bool
	Serve       string // listen address for the chart server; empty disables it
	Progress    bool
	LogLevel    slog.Level
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		TopN:        DefaultTopN,
		BaseURL:     hn.DefaultBaseURL,
		Timeout:     15 * time.Second,
		Concurrency: 1,
		UserAgent:   "hn-stats/1.0",
		OutDir:      ".",
		StoriesCSV:  "top_stories.csv",
		CommentsCSV: "comments.csv",
		StatsCSV:    "summary_stats.csv",
		ChartHTML:   "summary_stats.html",
		ArticlesCSV: "articles.csv",
		Progress:    true,
		LogLevel:    slog.LevelInfo,
	}
}

// Parse reads flags from args, then environment variables (TOP_N,
// BASE_URL, ...), then the YAML file named by -config, in that order of
// precedence.
func Parse(name string, args []string) (Config, error) {
	cfg := Default()
	fs := flag.NewFlagSet(name, flag.ContinueOnError)

	fs.IntVar(&cfg.TopN, "top-n", cfg.TopN, "Number of top stories to process")
	fs.StringVar(&cfg.BaseURL, "base-url", cfg.BaseURL, "Base URL of the HN item API")
	fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "Per-request timeout")
	fs.IntVar(&cfg.Concurrency, "concurrency", cfg.Concurrency, "Parallel item fetches (1 fetches sequentially)")
	fs.Float64Var(&cfg.RPS, "rps", cfg.RPS, "Maximum API requests per second (0 for no limit)")
	fs.StringVar(&cfg.UserAgent, "user-agent", cfg.UserAgent, "User-Agent header for API requests")
	fs.StringVar(&cfg.OutDir, "out-dir", cfg.OutDir, "Directory for output files")
	fs.StringVar(&cfg.StoriesCSV, "stories-csv", cfg.StoriesCSV, "Top stories CSV file")
	fs.StringVar(&cfg.CommentsCSV, "comments-csv", cfg.CommentsCSV, "Comments CSV file")
	fs.StringVar(&cfg.StatsCSV, "stats-csv", cfg.StatsCSV, "Summary statistics CSV file")
	fs.StringVar(&cfg.ChartHTML, "chart-html", cfg.ChartHTML, "Summary chart HTML file")
	fs.StringVar(&cfg.ArticlesCSV, "articles-csv", cfg.ArticlesCSV, "Extracted articles CSV file (with -articles)")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "Path to SQLite run archive (default: no archive)")
	fs.IntVar(&cfg.KeepRuns, "keep-runs", cfg.KeepRuns, "Archived runs to keep (0 keeps all)")
	fs.BoolVar(&cfg.Articles, "articles", cfg.Articles, "Extract reader-mode summaries of story links")
	fs.BoolVar(&cfg.StrictStats, "strict-stats", cfg.StrictStats, "Fail when a story lacks score or descendants")
	fs.StringVar(&cfg.Serve, "serve", cfg.Serve, "Serve the chart on this address after the run (e.g. localhost:8080)")
	fs.BoolVar(&cfg.Progress, "progress", cfg.Progress, "Show progress bars on stderr")
	fs.TextVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	fs.String("config", "", "YAML config file")

	if err := ff.Parse(fs, args,
		ff.WithEnvVars(),
		ff.WithConfigFileFlag("config"),
		ff.WithConfigFileParser(ffyaml.Parser),
	); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	switch {
	case c.TopN < 0:
		return fmt.Errorf("top-n must be >= 0, got %d", c.TopN)
	case c.BaseURL == "":
		return errors.New("base-url must be set")
	case c.Timeout <= 0:
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	case c.Concurrency < 1:
		return fmt.Errorf("concurrency must be >= 1, got %d", c.Concurrency)
	case c.RPS < 0:
		return fmt.Errorf("rps must be >= 0, got %v", c.RPS)
	case c.KeepRuns < 0:
		return fmt.Errorf("keep-runs must be >= 0, got %d", c.KeepRuns)
	}
	return nil
}

// Path resolves an output file name against OutDir.
func (c Config) Path(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.OutDir, name)
}

// Artifacts returns the output file names a run writes, the chart last.
func (c Config) Artifacts() []string {
	names := []string{c.StoriesCSV, c.CommentsCSV, c.StatsCSV}
	if c.Articles {
		names = append(names, c.ArticlesCSV)
	}
	return append(names, c.ChartHTML)
}

// Client returns the API client settings.
func (c Config) Client() hn.Config {
	maxConcurrent := c.Concurrency
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return hn.Config{
		BaseURL:           c.BaseURL,
		Timeout:           c.Timeout,
		MaxConcurrent:     maxConcurrent,
		RequestsPerSecond: c.RPS,
		UserAgent:         c.UserAgent,
	}
}
