// Package config holds the process-wide Config loaded by viper from YAML
// plus NOVEL_* environment variables, split across config/defaults/loader
// files.
package config

import (
	"fmt"
	"time"

	"github.com/novelforge/novelcore/internal/utils"
)

// Config is the root configuration for the aggregation and download
// engine: the HTTP pool, retry policy, two-tier cache, aggregator, and
// download orchestrator all read their tuning from here.
type Config struct {
	HTTP       HTTPConfig       `mapstructure:"http" yaml:"http"`
	Retry      RetryConfig      `mapstructure:"retry" yaml:"retry"`
	Cache      CacheConfig      `mapstructure:"cache" yaml:"cache"`
	Aggregator AggregatorConfig `mapstructure:"aggregator" yaml:"aggregator"`
	Download   DownloadConfig   `mapstructure:"download" yaml:"download"`
	Rules      RulesConfig      `mapstructure:"rules" yaml:"rules"`
	Output     OutputConfig     `mapstructure:"output" yaml:"output"`
	Task       TaskConfig       `mapstructure:"task" yaml:"task"`
	Logging    LoggingConfig    `mapstructure:"logging" yaml:"logging"`
}

// HTTPConfig tunes the HTTP Client Pool.
type HTTPConfig struct {
	Timeout        time.Duration `mapstructure:"timeout" yaml:"timeout"`
	MaxConcurrency int           `mapstructure:"max_concurrency" yaml:"max_concurrency"`
	MaxRedirects   int           `mapstructure:"max_redirects" yaml:"max_redirects"`
	UserAgent      string        `mapstructure:"user_agent" yaml:"user_agent"`
}

// RetryConfig configures the HTTP Client Pool's retries, which also cover
// every chapter fetch the Download Orchestrator makes. Only MaxAttempts is
// read: engine.New passes it to the client as ClientOptions.MaxRetries.
// The client's backoff schedule is fixed (1s initial, 30s cap, multiplier
// 2); InitialInterval, MaxInterval and Multiplier are not consulted.
type RetryConfig struct {
	MaxAttempts     int           `mapstructure:"max_attempts" yaml:"max_attempts"`
	InitialInterval time.Duration `mapstructure:"initial_interval" yaml:"initial_interval"`
	MaxInterval     time.Duration `mapstructure:"max_interval" yaml:"max_interval"`
	Multiplier      float64       `mapstructure:"multiplier" yaml:"multiplier"`
}

// CacheConfig tunes the two-tier cache.
type CacheConfig struct {
	Directory        string        `mapstructure:"directory" yaml:"directory"`
	InMemory         bool          `mapstructure:"in_memory" yaml:"in_memory"`
	MemoryMaxGB      float64       `mapstructure:"memory_max_gb" yaml:"memory_max_gb"`
	MemoryCount      int64         `mapstructure:"memory_count" yaml:"memory_count"`
	TTLSearch        time.Duration `mapstructure:"ttl_search" yaml:"ttl_search"`
	TTLDetail        time.Duration `mapstructure:"ttl_detail" yaml:"ttl_detail"`
	TTLTOC           time.Duration `mapstructure:"ttl_toc" yaml:"ttl_toc"`
	TTLChapter       time.Duration `mapstructure:"ttl_chapter" yaml:"ttl_chapter"`
	MinChapterLength int           `mapstructure:"min_chapter_length" yaml:"min_chapter_length"`
}

// AggregatorConfig tunes search fan-out.
type AggregatorConfig struct {
	PerSourceTimeout time.Duration `mapstructure:"per_source_timeout" yaml:"per_source_timeout"`
	GlobalDeadline   time.Duration `mapstructure:"global_deadline" yaml:"global_deadline"`
	MaxResultsDefault int          `mapstructure:"max_results_default" yaml:"max_results_default"`
	MaxResultsCap    int           `mapstructure:"max_results_cap" yaml:"max_results_cap"`
	PerSourceCap     int           `mapstructure:"per_source_cap" yaml:"per_source_cap"`
	MinScore         float64       `mapstructure:"min_score" yaml:"min_score"`
}

// DownloadConfig tunes the chapter download orchestrator.
type DownloadConfig struct {
	BatchSize        int           `mapstructure:"batch_size" yaml:"batch_size"`
	InterBatchMin    time.Duration `mapstructure:"inter_batch_min" yaml:"inter_batch_min"`
	InterBatchMax    time.Duration `mapstructure:"inter_batch_max" yaml:"inter_batch_max"`
	ChapterRetries   int           `mapstructure:"chapter_retries" yaml:"chapter_retries"`
	FailureThreshold float64       `mapstructure:"failure_threshold" yaml:"failure_threshold"`
	MaxTOCPages      int           `mapstructure:"max_toc_pages" yaml:"max_toc_pages"`
}

// RulesConfig locates the rule-file directory the opaque rule provider
// globs for source definitions.
type RulesConfig struct {
	Directory string `mapstructure:"directory" yaml:"directory"`
}

// OutputConfig locates the final-artifact blob store.
type OutputConfig struct {
	Directory string `mapstructure:"directory" yaml:"directory"`
}

// TaskConfig tunes the Task Registry.
type TaskConfig struct {
	RetentionWindow time.Duration `mapstructure:"retention_window" yaml:"retention_window"`
	GCInterval      time.Duration `mapstructure:"gc_interval" yaml:"gc_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// Validate clamps out-of-range values to their defaults. The one case it
// rejects is download.inter_batch_max still not exceeding
// download.inter_batch_min after defaulting (e.g. a min above the default
// max), for which it returns an error.
func (c *Config) Validate() error {
	if c.HTTP.Timeout < time.Second {
		c.HTTP.Timeout = DefaultHTTPTimeout
	}
	if c.HTTP.MaxConcurrency < 1 {
		c.HTTP.MaxConcurrency = DefaultHTTPMaxConcurrency
	}
	if c.HTTP.MaxRedirects < 1 {
		c.HTTP.MaxRedirects = DefaultHTTPMaxRedirects
	}

	if c.Retry.MaxAttempts < 1 {
		c.Retry.MaxAttempts = DefaultRetryMaxAttempts
	}
	if c.Retry.InitialInterval <= 0 {
		c.Retry.InitialInterval = DefaultRetryInitialInterval
	}
	if c.Retry.MaxInterval <= 0 {
		c.Retry.MaxInterval = DefaultRetryMaxInterval
	}
	if c.Retry.Multiplier <= 0 {
		c.Retry.Multiplier = DefaultRetryMultiplier
	}

	if c.Cache.MemoryMaxGB <= 0 {
		c.Cache.MemoryMaxGB = DefaultCacheMemoryMaxGB
	}
	if c.Cache.MemoryCount <= 0 {
		c.Cache.MemoryCount = DefaultCacheMemoryCount
	}
	if c.Cache.TTLSearch <= 0 {
		c.Cache.TTLSearch = DefaultCacheTTLSearch
	}
	if c.Cache.TTLDetail <= 0 {
		c.Cache.TTLDetail = DefaultCacheTTLDetail
	}
	if c.Cache.TTLTOC <= 0 {
		c.Cache.TTLTOC = DefaultCacheTTLTOC
	}
	if c.Cache.TTLChapter <= 0 {
		c.Cache.TTLChapter = DefaultCacheTTLChapter
	}
	if c.Cache.MinChapterLength < 0 {
		c.Cache.MinChapterLength = DefaultCacheMinChapterLength
	}

	if c.Aggregator.PerSourceTimeout <= 0 {
		c.Aggregator.PerSourceTimeout = DefaultAggregatorPerSourceTimeout
	}
	if c.Aggregator.GlobalDeadline <= 0 {
		c.Aggregator.GlobalDeadline = DefaultAggregatorGlobalDeadline
	}
	if c.Aggregator.MaxResultsDefault < 1 {
		c.Aggregator.MaxResultsDefault = DefaultAggregatorMaxResultsDefault
	}
	if c.Aggregator.MaxResultsCap < c.Aggregator.MaxResultsDefault {
		c.Aggregator.MaxResultsCap = DefaultAggregatorMaxResultsCap
	}
	if c.Aggregator.PerSourceCap < 1 {
		c.Aggregator.PerSourceCap = DefaultAggregatorPerSourceCap
	}

	if c.Download.BatchSize < 1 {
		c.Download.BatchSize = DefaultDownloadBatchSize
	}
	if c.Download.InterBatchMin <= 0 {
		c.Download.InterBatchMin = DefaultDownloadInterBatchMin
	}
	if c.Download.InterBatchMax <= c.Download.InterBatchMin {
		c.Download.InterBatchMax = DefaultDownloadInterBatchMax
	}
	if c.Download.ChapterRetries < 1 {
		c.Download.ChapterRetries = DefaultDownloadChapterRetries
	}
	if c.Download.FailureThreshold <= 0 || c.Download.FailureThreshold > 1 {
		c.Download.FailureThreshold = DefaultDownloadFailureThreshold
	}
	if c.Download.MaxTOCPages < 1 {
		c.Download.MaxTOCPages = DefaultDownloadMaxTOCPages
	}

	if c.Rules.Directory == "" {
		c.Rules.Directory = DefaultRulesDirectory
	}
	c.Rules.Directory = utils.ExpandPath(c.Rules.Directory)
	if c.Output.Directory == "" {
		c.Output.Directory = DefaultOutputDirectory
	}
	c.Output.Directory = utils.ExpandPath(c.Output.Directory)

	if c.Task.RetentionWindow < time.Hour {
		c.Task.RetentionWindow = DefaultTaskRetentionWindow
	}
	if c.Task.GCInterval <= 0 {
		c.Task.GCInterval = DefaultTaskGCInterval
	}

	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLogLevel
	}
	if c.Logging.Format == "" {
		c.Logging.Format = DefaultLogFormat
	}

	if c.Download.InterBatchMax <= c.Download.InterBatchMin {
		return fmt.Errorf("download.inter_batch_max must be greater than download.inter_batch_min")
	}
	return nil
}
