package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Load reads configuration from file and environment.
// Priority (highest to lowest): env vars > config file > defaults.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")

	setDefaults(v, cfg)

	v.SetEnvPrefix("RATEPULSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("ratepulse")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".ratepulse"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && configPath != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is okay if not explicitly specified
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// setDefaults registers default values in viper so that env overrides of
// individual keys still see the rest of the defaults.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("fetcher.type", cfg.Fetcher.Type)
	v.SetDefault("fetcher.request_timeout", cfg.Fetcher.RequestTimeout)
	v.SetDefault("fetcher.max_retries", cfg.Fetcher.MaxRetries)
	v.SetDefault("fetcher.retry_base", cfg.Fetcher.RetryBase)
	v.SetDefault("fetcher.follow_redirects", cfg.Fetcher.FollowRedirects)
	v.SetDefault("fetcher.max_redirects", cfg.Fetcher.MaxRedirects)
	v.SetDefault("fetcher.max_body_size", cfg.Fetcher.MaxBodySize)
	v.SetDefault("fetcher.idle_conn_timeout", cfg.Fetcher.IdleConnTimeout)
	v.SetDefault("fetcher.max_idle_conns", cfg.Fetcher.MaxIdleConns)
	v.SetDefault("fetcher.user_agents", cfg.Fetcher.UserAgents)

	v.SetDefault("proxy.enabled", cfg.Proxy.Enabled)
	v.SetDefault("proxy.rotate_on_fail", cfg.Proxy.RotateOnFail)

	v.SetDefault("scraper.max_articles_per_source", cfg.Scraper.MaxArticlesPerSource)
	v.SetDefault("scraper.page_delay_min", cfg.Scraper.PageDelayMin)
	v.SetDefault("scraper.page_delay_max", cfg.Scraper.PageDelayMax)
	v.SetDefault("scraper.article_batch_size", cfg.Scraper.ArticleBatchSize)
	v.SetDefault("scraper.batch_delay_min", cfg.Scraper.BatchDelayMin)
	v.SetDefault("scraper.batch_delay_max", cfg.Scraper.BatchDelayMax)
	v.SetDefault("scraper.days_back", cfg.Scraper.DaysBack)
	v.SetDefault("scraper.initial_days_back", cfg.Scraper.InitialDaysBack)

	v.SetDefault("social.enabled", cfg.Social.Enabled)
	v.SetDefault("social.platform", cfg.Social.Platform)
	v.SetDefault("social.mirrors", cfg.Social.Mirrors)
	v.SetDefault("social.keywords", cfg.Social.Keywords)
	v.SetDefault("social.accounts", cfg.Social.Accounts)
	v.SetDefault("social.language", cfg.Social.Language)
	v.SetDefault("social.result_cap", cfg.Social.ResultCap)
	v.SetDefault("social.account_threshold", cfg.Social.AccountThreshold)
	v.SetDefault("social.dedup_prefix_len", cfg.Social.DedupPrefixLen)

	v.SetDefault("relevance.threshold", cfg.Relevance.Threshold)
	v.SetDefault("relevance.use_entities", cfg.Relevance.UseEntities)

	v.SetDefault("sentiment.mode", cfg.Sentiment.Mode)
	v.SetDefault("sentiment.backfill_impact_ceiling", cfg.Sentiment.BackfillImpactCeiling)
	v.SetDefault("sentiment.high_impact_threshold", cfg.Sentiment.HighImpactThreshold)

	v.SetDefault("storage.type", cfg.Storage.Type)
	v.SetDefault("storage.uri", cfg.Storage.URI)
	v.SetDefault("storage.database", cfg.Storage.Database)
	v.SetDefault("storage.posts_collection", cfg.Storage.PostsCollection)
	v.SetDefault("storage.sources_collection", cfg.Storage.SourcesCollection)
	v.SetDefault("storage.timeout", cfg.Storage.Timeout)

	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)
	v.SetDefault("logging.output", cfg.Logging.Output)
}
