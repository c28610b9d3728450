package config

import (
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Load loads configuration from file, environment, and defaults, using
// the global viper instance so CLI flag bindings (cmd/noveldl) merge in.
func Load() (*Config, error) {
	v := viper.GetViper()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(ConfigDir())
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	v.SetEnvPrefix("NOVEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadWithViper loads configuration and also returns the viper instance,
// so a caller can merge in CLI flags before unmarshaling further.
func LoadWithViper() (*Config, *viper.Viper, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(ConfigDir())
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, nil, err
		}
	}

	v.SetEnvPrefix("NOVEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	return &cfg, v, nil
}

// setDefaults seeds viper with the same defaults Default() returns, so a
// partial YAML/env override only changes the fields it names.
func setDefaults(v *viper.Viper) {
	v.SetDefault("http.timeout", DefaultHTTPTimeout)
	v.SetDefault("http.max_concurrency", DefaultHTTPMaxConcurrency)
	v.SetDefault("http.max_redirects", DefaultHTTPMaxRedirects)
	v.SetDefault("http.user_agent", "")

	v.SetDefault("retry.max_attempts", DefaultRetryMaxAttempts)
	v.SetDefault("retry.initial_interval", DefaultRetryInitialInterval)
	v.SetDefault("retry.max_interval", DefaultRetryMaxInterval)
	v.SetDefault("retry.multiplier", DefaultRetryMultiplier)

	v.SetDefault("cache.directory", CacheDir())
	v.SetDefault("cache.in_memory", false)
	v.SetDefault("cache.memory_max_gb", DefaultCacheMemoryMaxGB)
	v.SetDefault("cache.memory_count", DefaultCacheMemoryCount)
	v.SetDefault("cache.ttl_search", DefaultCacheTTLSearch)
	v.SetDefault("cache.ttl_detail", DefaultCacheTTLDetail)
	v.SetDefault("cache.ttl_toc", DefaultCacheTTLTOC)
	v.SetDefault("cache.ttl_chapter", DefaultCacheTTLChapter)
	v.SetDefault("cache.min_chapter_length", DefaultCacheMinChapterLength)

	v.SetDefault("aggregator.per_source_timeout", DefaultAggregatorPerSourceTimeout)
	v.SetDefault("aggregator.global_deadline", DefaultAggregatorGlobalDeadline)
	v.SetDefault("aggregator.max_results_default", DefaultAggregatorMaxResultsDefault)
	v.SetDefault("aggregator.max_results_cap", DefaultAggregatorMaxResultsCap)
	v.SetDefault("aggregator.per_source_cap", DefaultAggregatorPerSourceCap)
	v.SetDefault("aggregator.min_score", 0)

	v.SetDefault("download.batch_size", DefaultDownloadBatchSize)
	v.SetDefault("download.inter_batch_min", DefaultDownloadInterBatchMin)
	v.SetDefault("download.inter_batch_max", DefaultDownloadInterBatchMax)
	v.SetDefault("download.chapter_retries", DefaultDownloadChapterRetries)
	v.SetDefault("download.failure_threshold", DefaultDownloadFailureThreshold)
	v.SetDefault("download.max_toc_pages", DefaultDownloadMaxTOCPages)

	v.SetDefault("rules.directory", DefaultRulesDirectory)
	v.SetDefault("output.directory", DefaultOutputDirectory)

	v.SetDefault("task.retention_window", DefaultTaskRetentionWindow)
	v.SetDefault("task.gc_interval", DefaultTaskGCInterval)

	v.SetDefault("logging.level", DefaultLogLevel)
	v.SetDefault("logging.format", DefaultLogFormat)
}

// EnsureConfigDir creates the config directory if it doesn't exist.
func EnsureConfigDir() error {
	return os.MkdirAll(ConfigDir(), 0755)
}

// EnsureCacheDir creates the cache directory if it doesn't exist.
func EnsureCacheDir() error {
	return os.MkdirAll(CacheDir(), 0755)
}
