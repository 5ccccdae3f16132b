// Package config loads and validates harvester configuration via Viper.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/JakeFAU/paper-harvester/internal/classify"
	"github.com/JakeFAU/paper-harvester/internal/extract"
	"github.com/JakeFAU/paper-harvester/internal/paper"
	"github.com/JakeFAU/paper-harvester/internal/report"
)

// EnvPrefix prefixes environment overrides, e.g. HARVESTER_HTTP_BACKEND=resty.
const EnvPrefix = "HARVESTER"

// HTTP backends.
const (
	BackendColly    = "colly"
	BackendResty    = "resty"
	BackendChromedp = "chromedp"
)

// Config captures all harvester configuration knobs loaded via Viper.
type Config struct {
	Harvest  HarvestConfig  `mapstructure:"harvest"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Extract  extract.Rules  `mapstructure:"extract"`
	Classify ClassifyConfig `mapstructure:"classify"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Output   OutputConfig   `mapstructure:"output"`
	DB       DBConfig       `mapstructure:"db"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Notify   NotifyConfig   `mapstructure:"notify"`
	Tracing  TracingConfig  `mapstructure:"tracing"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// HarvestConfig lists the periods to crawl and the orchestrator pacing.
type HarvestConfig struct {
	Periods           []paper.Target `mapstructure:"periods"`
	DetailPathPattern string         `mapstructure:"detail_path_pattern"`
	Concurrency       int            `mapstructure:"concurrency"`
	TaskDelay         time.Duration  `mapstructure:"task_delay"`
	PeriodDelay       time.Duration  `mapstructure:"period_delay"`
}

// HTTPConfig selects the fetch transport and its retry behavior.
type HTTPConfig struct {
	Backend        string        `mapstructure:"backend"`
	UserAgent      string        `mapstructure:"user_agent"`
	Timeout        time.Duration `mapstructure:"timeout"`
	MaxAttempts    int           `mapstructure:"max_attempts"`
	Backoff        time.Duration `mapstructure:"backoff"`
	RespectRobots  bool          `mapstructure:"respect_robots"`
	RateLimitRPS   float64       `mapstructure:"rate_limit_rps"`
	RateLimitBurst int           `mapstructure:"rate_limit_burst"`
	Headless       HeadlessConfig `mapstructure:"headless"`
}

// HeadlessConfig tunes the chromedp renderer. Fallback re-renders pages the
// plain transport returned as script-only shells.
type HeadlessConfig struct {
	Fallback      bool          `mapstructure:"fallback"`
	MaxParallel   int           `mapstructure:"max_parallel"`
	WaitSelector  string        `mapstructure:"wait_selector"`
	Settle        time.Duration `mapstructure:"settle"`
	BodyThreshold int           `mapstructure:"body_threshold"`
	Markers       []string      `mapstructure:"markers"`
}

// ClassifyConfig controls the keyword classifier.
type ClassifyConfig struct {
	Keywords []string `mapstructure:"keywords"`
	Basename string   `mapstructure:"basename"`
	Topic    string   `mapstructure:"topic"`
}

// StorageConfig selects where reports, checkpoints, and archived pages go.
type StorageConfig struct {
	Backend       string `mapstructure:"backend"`
	BaseDir       string `mapstructure:"base_dir"`
	GCSBucket     string `mapstructure:"gcs_bucket"`
	Prefix        string `mapstructure:"prefix"`
	ArchivePages  bool   `mapstructure:"archive_pages"`
	ArchivePrefix string `mapstructure:"archive_prefix"`
}

// OutputConfig names the report artifacts.
type OutputConfig struct {
	Basename string   `mapstructure:"basename"`
	Formats  []string `mapstructure:"formats"`
	Venue    string   `mapstructure:"venue"`
}

// DBConfig enables the optional Postgres record store when DSN is set.
type DBConfig struct {
	DSN         string `mapstructure:"dsn"`
	Table       string `mapstructure:"table"`
	MaxConns    int32  `mapstructure:"max_conns"`
	AutoMigrate bool   `mapstructure:"auto_migrate"`
}

// MetricsConfig enables the operator HTTP server when Addr is set.
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// NotifyConfig enables period.finished events on a Pub/Sub topic when
// Topic is set.
type NotifyConfig struct {
	PubSubProject string `mapstructure:"pubsub_project"`
	PubSubTopic   string `mapstructure:"pubsub_topic"`
}

// TracingConfig enables OpenTelemetry spans, exported to the log.
type TracingConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	ServiceName string  `mapstructure:"service_name"`
	SampleRatio float64 `mapstructure:"sample_ratio"`
}

// LoggingConfig toggles zap development features and the rotating file sink.
type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	File        string `mapstructure:"file"`
	MaxSizeMB   int    `mapstructure:"max_size_mb"`
	MaxBackups  int    `mapstructure:"max_backups"`
	MaxAgeDays  int    `mapstructure:"max_age_days"`
	Compress    bool   `mapstructure:"compress"`
}

// DefaultTargets are the NDSS accepted-paper listings, newest first.
func DefaultTargets() []paper.Target {
	return []paper.Target{
		{Period: 2025, ListingURL: "https://www.ndss-symposium.org/ndss2025/accepted-papers/"},
		{Period: 2024, ListingURL: "https://www.ndss-symposium.org/ndss2024/accepted-papers/"},
		{Period: 2023, ListingURL: "https://www.ndss-symposium.org/ndss2023/accepted-papers/"},
	}
}

// Load builds a Config from defaults, an optional file, and the environment.
// An empty path searches ./harvester.yaml, $HOME/.harvester, and
// /etc/harvester; a missing file there is not an error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("harvester")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.harvester")
		v.AddConfigPath("/etc/harvester/")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	targets := make([]map[string]any, 0, 3)
	for _, t := range DefaultTargets() {
		targets = append(targets, map[string]any{"period": t.Period, "listing_url": t.ListingURL})
	}
	v.SetDefault("harvest.periods", targets)
	v.SetDefault("harvest.detail_path_pattern", "/ndss-paper/")
	v.SetDefault("harvest.concurrency", 8)
	v.SetDefault("harvest.task_delay", "300ms")
	v.SetDefault("harvest.period_delay", "1s")

	v.SetDefault("http.backend", BackendColly)
	v.SetDefault("http.user_agent", "Mozilla/5.0 (compatible; paper-harvester/1.0)")
	v.SetDefault("http.timeout", "30s")
	v.SetDefault("http.max_attempts", 3)
	v.SetDefault("http.backoff", "2s")
	v.SetDefault("http.respect_robots", false)
	v.SetDefault("http.rate_limit_rps", 0)
	v.SetDefault("http.rate_limit_burst", 1)
	v.SetDefault("http.headless.fallback", false)
	v.SetDefault("http.headless.max_parallel", 2)
	v.SetDefault("http.headless.wait_selector", "body")
	v.SetDefault("http.headless.settle", "500ms")
	v.SetDefault("http.headless.body_threshold", 2048)
	v.SetDefault("http.headless.markers", []string{})

	rules := extract.DefaultRules()
	v.SetDefault("extract.author_keywords", rules.AuthorKeywords)
	v.SetDefault("extract.abstract_skip_keywords", rules.AbstractSkipKeywords)
	v.SetDefault("extract.author_scan_limit", rules.AuthorScanLimit)
	v.SetDefault("extract.max_author_length", rules.MaxAuthorLength)
	v.SetDefault("extract.author_list_max_length", rules.AuthorListMaxLength)
	v.SetDefault("extract.min_abstract_length", rules.MinAbstractLength)
	v.SetDefault("extract.min_heading_abstract_length", rules.MinHeadingAbstractLength)
	v.SetDefault("extract.video_hosts", rules.VideoHosts)
	v.SetDefault("extract.code_hosts", rules.CodeHosts)

	v.SetDefault("classify.keywords", classify.DefaultKeywords())
	v.SetDefault("classify.basename", "supply_chain_papers")
	v.SetDefault("classify.topic", "Software Supply Chain Related")

	v.SetDefault("storage.backend", "local")
	v.SetDefault("storage.base_dir", "output")
	v.SetDefault("storage.gcs_bucket", "")
	v.SetDefault("storage.prefix", "")
	v.SetDefault("storage.archive_pages", false)
	v.SetDefault("storage.archive_prefix", "pages")

	v.SetDefault("output.basename", "papers")
	v.SetDefault("output.formats", []string{"json", "markdown", "csv"})
	v.SetDefault("output.venue", "NDSS")

	v.SetDefault("db.dsn", "")
	v.SetDefault("db.table", "papers")
	v.SetDefault("db.max_conns", 4)
	v.SetDefault("db.auto_migrate", true)

	v.SetDefault("metrics.addr", "")

	v.SetDefault("notify.pubsub_project", "")
	v.SetDefault("notify.pubsub_topic", "")

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.service_name", "paper-harvester")
	v.SetDefault("tracing.sample_ratio", 1.0)

	v.SetDefault("logging.development", true)
	v.SetDefault("logging.file", "")
	v.SetDefault("logging.max_size_mb", 50)
	v.SetDefault("logging.max_backups", 3)
	v.SetDefault("logging.max_age_days", 28)
	v.SetDefault("logging.compress", false)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if len(c.Harvest.Periods) == 0 {
		return fmt.Errorf("harvest.periods must list at least one period")
	}
	seen := make(map[int]bool, len(c.Harvest.Periods))
	for i, t := range c.Harvest.Periods {
		if strings.TrimSpace(t.ListingURL) == "" {
			return fmt.Errorf("harvest.periods[%d].listing_url is required", i)
		}
		if seen[t.Period] {
			return fmt.Errorf("harvest.periods[%d]: duplicate period %d", i, t.Period)
		}
		seen[t.Period] = true
	}
	if c.Harvest.DetailPathPattern == "" {
		return fmt.Errorf("harvest.detail_path_pattern is required")
	}
	if c.Harvest.Concurrency <= 0 {
		return fmt.Errorf("harvest.concurrency must be > 0")
	}
	if c.Harvest.TaskDelay < 0 || c.Harvest.PeriodDelay < 0 {
		return fmt.Errorf("harvest delays must be >= 0")
	}
	switch c.HTTP.Backend {
	case BackendColly, BackendResty, BackendChromedp:
	default:
		return fmt.Errorf("http.backend must be %q, %q or %q, got %q", BackendColly, BackendResty, BackendChromedp, c.HTTP.Backend)
	}
	if c.HTTP.Headless.MaxParallel < 0 {
		return fmt.Errorf("http.headless.max_parallel must be >= 0")
	}
	if c.Notify.PubSubTopic != "" && c.Notify.PubSubProject == "" {
		return fmt.Errorf("notify.pubsub_project is required when notify.pubsub_topic is set")
	}
	if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
		return fmt.Errorf("tracing.sample_ratio must be within [0, 1]")
	}
	if c.HTTP.Timeout <= 0 {
		return fmt.Errorf("http.timeout must be > 0")
	}
	if c.HTTP.MaxAttempts <= 0 {
		return fmt.Errorf("http.max_attempts must be > 0")
	}
	if c.HTTP.Backoff < 0 {
		return fmt.Errorf("http.backoff must be >= 0")
	}
	switch c.Storage.Backend {
	case "local":
		if c.Storage.BaseDir == "" {
			return fmt.Errorf("storage.base_dir is required for the local backend")
		}
	case "memory":
	case "gcs":
		if c.Storage.GCSBucket == "" {
			return fmt.Errorf("storage.gcs_bucket is required for the gcs backend")
		}
	default:
		return fmt.Errorf("storage.backend %q is not supported", c.Storage.Backend)
	}
	if c.Output.Basename == "" {
		return fmt.Errorf("output.basename is required")
	}
	if _, err := report.ParseFormats(c.Output.Formats); err != nil {
		return fmt.Errorf("output.formats: %w", err)
	}
	if len(c.Classify.Keywords) == 0 {
		return fmt.Errorf("classify.keywords must not be empty")
	}
	return nil
}

// SelectPeriods keeps only the requested periods, in configured order. An
// empty selection keeps every period.
func (c Config) SelectPeriods(periods []int) (Config, error) {
	if len(periods) == 0 {
		return c, nil
	}
	want := make(map[int]bool, len(periods))
	for _, p := range periods {
		want[p] = true
	}
	var kept []paper.Target
	for _, t := range c.Harvest.Periods {
		if want[t.Period] {
			kept = append(kept, t)
			delete(want, t.Period)
		}
	}
	for p := range want {
		return Config{}, fmt.Errorf("period %d is not configured", p)
	}
	c.Harvest.Periods = kept
	return c, nil
}

// OutputFormats returns the parsed output formats.
func (c Config) OutputFormats() []report.Format {
	formats, err := report.ParseFormats(c.Output.Formats)
	if err != nil || len(formats) == 0 {
		return report.DefaultFormats()
	}
	return formats
}
