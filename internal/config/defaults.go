package config

import (
	"os"
	"path/filepath"
	"time"
)

// Default values for each tunable component.
const (
	// HTTP Client Pool defaults
	DefaultHTTPTimeout        = 30 * time.Second
	DefaultHTTPMaxConcurrency = 5
	DefaultHTTPMaxRedirects   = 5

	// Retry/backoff defaults
	DefaultRetryMaxAttempts     = 3
	DefaultRetryInitialInterval = 1 * time.Second
	DefaultRetryMaxInterval     = 30 * time.Second
	DefaultRetryMultiplier      = 2.0

	// Cache Layer defaults
	DefaultCacheMemoryMaxGB      = 0.25
	DefaultCacheMemoryCount      = int64(1e5)
	DefaultCacheTTLSearch        = 30 * time.Minute
	DefaultCacheTTLDetail        = 2 * time.Hour
	DefaultCacheTTLTOC           = 2 * time.Hour
	DefaultCacheTTLChapter       = 24 * time.Hour
	DefaultCacheMinChapterLength = 200 // bytes; below this a cache hit is treated as truncated

	// Aggregator defaults
	DefaultAggregatorPerSourceTimeout  = 15 * time.Second
	DefaultAggregatorGlobalDeadline    = 15 * time.Second
	DefaultAggregatorMaxResultsDefault = 30
	DefaultAggregatorMaxResultsCap     = 100
	DefaultAggregatorPerSourceCap      = 2

	// Download Orchestrator defaults
	DefaultDownloadBatchSize        = 10
	DefaultDownloadInterBatchMin    = 1 * time.Second
	DefaultDownloadInterBatchMax    = 3 * time.Second
	DefaultDownloadChapterRetries   = 3
	DefaultDownloadFailureThreshold = 0.5
	DefaultDownloadMaxTOCPages      = 50

	// Task Registry defaults
	DefaultTaskRetentionWindow = 1 * time.Hour
	DefaultTaskGCInterval      = 10 * time.Minute

	// Logging defaults
	DefaultLogLevel  = "info"
	DefaultLogFormat = "pretty"
)

// DefaultRulesDirectory is the default location the FileProvider globs
// for rule JSON files.
var DefaultRulesDirectory = "./rules"

// DefaultOutputDirectory is the default blob-store location for finished
// artifacts (downloads/{sanitize}_{sanitize}.{ext}).
var DefaultOutputDirectory = "./downloads"

// ConfigDir returns the config directory path.
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".novelcore"
	}
	return filepath.Join(home, ".novelcore")
}

// CacheDir returns the default on-disk cache directory.
func CacheDir() string {
	return filepath.Join(ConfigDir(), "cache")
}

// ConfigFilePath returns the default config file path.
func ConfigFilePath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Timeout:        DefaultHTTPTimeout,
			MaxConcurrency: DefaultHTTPMaxConcurrency,
			MaxRedirects:   DefaultHTTPMaxRedirects,
			UserAgent:      "",
		},
		Retry: RetryConfig{
			MaxAttempts:     DefaultRetryMaxAttempts,
			InitialInterval: DefaultRetryInitialInterval,
			MaxInterval:     DefaultRetryMaxInterval,
			Multiplier:      DefaultRetryMultiplier,
		},
		Cache: CacheConfig{
			Directory:        CacheDir(),
			InMemory:         false,
			MemoryMaxGB:      DefaultCacheMemoryMaxGB,
			MemoryCount:      DefaultCacheMemoryCount,
			TTLSearch:        DefaultCacheTTLSearch,
			TTLDetail:        DefaultCacheTTLDetail,
			TTLTOC:           DefaultCacheTTLTOC,
			TTLChapter:       DefaultCacheTTLChapter,
			MinChapterLength: DefaultCacheMinChapterLength,
		},
		Aggregator: AggregatorConfig{
			PerSourceTimeout:  DefaultAggregatorPerSourceTimeout,
			GlobalDeadline:    DefaultAggregatorGlobalDeadline,
			MaxResultsDefault: DefaultAggregatorMaxResultsDefault,
			MaxResultsCap:     DefaultAggregatorMaxResultsCap,
			PerSourceCap:      DefaultAggregatorPerSourceCap,
			MinScore:          0,
		},
		Download: DownloadConfig{
			BatchSize:        DefaultDownloadBatchSize,
			InterBatchMin:    DefaultDownloadInterBatchMin,
			InterBatchMax:    DefaultDownloadInterBatchMax,
			ChapterRetries:   DefaultDownloadChapterRetries,
			FailureThreshold: DefaultDownloadFailureThreshold,
			MaxTOCPages:      DefaultDownloadMaxTOCPages,
		},
		Rules: RulesConfig{
			Directory: DefaultRulesDirectory,
		},
		Output: OutputConfig{
			Directory: DefaultOutputDirectory,
		},
		Task: TaskConfig{
			RetentionWindow: DefaultTaskRetentionWindow,
			GCInterval:      DefaultTaskGCInterval,
		},
		Logging: LoggingConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
