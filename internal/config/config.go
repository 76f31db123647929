package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultRegistryURL is the public feed registry the sampler draws from.
const DefaultRegistryURL = "https://raw.githubusercontent.com/exorde-labs/TestnetProtocol/main/targets/FeedSources.json"

// Config holds the application configuration loaded from files and environment variables.
type Config struct {
	AppName        string `mapstructure:"app_name"`
	Env            string `mapstructure:"app_env"`
	LogLevel       string `mapstructure:"log_level"`
	RegistryURL    string `mapstructure:"registry_url"`
	RegistryFile   string `mapstructure:"registry_file"`
	PublishersFile string `mapstructure:"publishers_file"`

	RunIntervalSeconds    int64         `mapstructure:"run_interval"`
	RunTimeoutSeconds     int64         `mapstructure:"run_timeout_seconds"`
	FeedTimeoutSeconds    int64         `mapstructure:"feed_timeout_seconds"`
	ArticleTimeoutSeconds int64         `mapstructure:"article_timeout_seconds"`
	RunInterval           time.Duration `mapstructure:"-"`
	RunTimeout            time.Duration `mapstructure:"-"`
	FeedTimeout           time.Duration `mapstructure:"-"`
	ArticleTimeout        time.Duration `mapstructure:"-"`

	HydrateWorkers        int     `mapstructure:"hydrate_workers"`
	HydrateRatePerSecond  float64 `mapstructure:"hydrate_rate_per_second"`
	MaxConsecutiveRejects int     `mapstructure:"max_consecutive_rejects"`
	MaxContentLength      int     `mapstructure:"max_content_length"`
	ItemDomain            string  `mapstructure:"item_domain"`

	// Defaults for invocation parameters; per-run parameters override them.
	MaxOldnessSeconds     int64 `mapstructure:"max_oldness_seconds"`
	MaximumItemsToCollect int   `mapstructure:"maximum_items_to_collect"`
	MinPostLength         int   `mapstructure:"min_post_length"`
	MaxExtractionTrials   int   `mapstructure:"max_extraction_trials"`
	EnforceMinPostLength  bool  `mapstructure:"enforce_min_post_length"`

	// DescriptionFallback fills empty extracted content with the feed description.
	DescriptionFallback bool `mapstructure:"content_description_fallback"`

	StorageType            string        `mapstructure:"storage_type"`
	BBoltPath              string        `mapstructure:"bbolt_path"`
	StorageTTLSeconds      int64         `mapstructure:"storage_ttl_seconds"`
	StorageCleanupSeconds  int64         `mapstructure:"storage_cleanup_interval_seconds"`
	StorageTTL             time.Duration `mapstructure:"-"`
	StorageCleanupInterval time.Duration `mapstructure:"-"`
}

// Load reads configuration from environment variables and config files.
func Load() (*Config, error) {
	_ = godotenv.Load("configs/.env")

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	return decode(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app_name", "samvad-feed-sampler")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("registry_url", DefaultRegistryURL)
	v.SetDefault("registry_file", "")
	v.SetDefault("publishers_file", "")
	v.SetDefault("run_interval", 0) // seconds; 0 runs once
	v.SetDefault("run_timeout_seconds", 300)
	v.SetDefault("feed_timeout_seconds", 10)
	v.SetDefault("article_timeout_seconds", 15)
	v.SetDefault("hydrate_workers", 8)
	v.SetDefault("hydrate_rate_per_second", 0)
	v.SetDefault("max_consecutive_rejects", 5)
	v.SetDefault("max_content_length", 5000)
	v.SetDefault("item_domain", "news.exorde")
	v.SetDefault("max_oldness_seconds", 360)
	v.SetDefault("maximum_items_to_collect", 25)
	v.SetDefault("min_post_length", 10)
	v.SetDefault("max_extraction_trials", 10)
	v.SetDefault("enforce_min_post_length", false)
	v.SetDefault("content_description_fallback", false)
	v.SetDefault("storage_type", "none")
	v.SetDefault("bbolt_path", "./data/emitted.db")
	v.SetDefault("storage_ttl_seconds", int64((2*24*time.Hour)/time.Second))
	v.SetDefault("storage_cleanup_interval_seconds", int64((6*time.Hour)/time.Second))
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.RunIntervalSeconds < 0 {
		return nil, fmt.Errorf("invalid run_interval (must be zero or positive seconds)")
	}
	if cfg.RunTimeoutSeconds <= 0 {
		return nil, fmt.Errorf("invalid run_timeout_seconds (must be positive seconds)")
	}
	if cfg.FeedTimeoutSeconds <= 0 {
		return nil, fmt.Errorf("invalid feed_timeout_seconds (must be positive seconds)")
	}
	if cfg.ArticleTimeoutSeconds <= 0 {
		return nil, fmt.Errorf("invalid article_timeout_seconds (must be positive seconds)")
	}
	cfg.RunInterval = time.Duration(cfg.RunIntervalSeconds) * time.Second
	cfg.RunTimeout = time.Duration(cfg.RunTimeoutSeconds) * time.Second
	cfg.FeedTimeout = time.Duration(cfg.FeedTimeoutSeconds) * time.Second
	cfg.ArticleTimeout = time.Duration(cfg.ArticleTimeoutSeconds) * time.Second

	if cfg.HydrateWorkers <= 0 {
		return nil, fmt.Errorf("invalid hydrate_workers (must be positive)")
	}
	if cfg.MaxConsecutiveRejects <= 0 {
		return nil, fmt.Errorf("invalid max_consecutive_rejects (must be positive)")
	}
	if cfg.RegistryURL == "" && cfg.RegistryFile == "" {
		return nil, fmt.Errorf("one of registry_url or registry_file is required")
	}

	if cfg.StorageTTLSeconds <= 0 {
		return nil, fmt.Errorf("invalid storage_ttl_seconds (must be positive seconds)")
	}
	if cfg.StorageCleanupSeconds <= 0 {
		return nil, fmt.Errorf("invalid storage_cleanup_interval_seconds (must be positive seconds)")
	}
	cfg.StorageTTL = time.Duration(cfg.StorageTTLSeconds) * time.Second
	cfg.StorageCleanupInterval = time.Duration(cfg.StorageCleanupSeconds) * time.Second

	return &cfg, nil
}
