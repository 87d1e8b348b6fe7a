package config

import (
	"fmt"
	"net/url"
)

// Validate checks the configuration for invalid values. Configuration
// errors are the only class allowed to abort a run before any network
// activity starts.
func Validate(cfg *Config) error {
	if cfg.Fetcher.Type != "http" && cfg.Fetcher.Type != "browser" {
		return fmt.Errorf("fetcher.type must be 'http' or 'browser', got %q", cfg.Fetcher.Type)
	}
	if cfg.Fetcher.RequestTimeout <= 0 {
		return fmt.Errorf("fetcher.request_timeout must be > 0")
	}
	if cfg.Fetcher.MaxRetries < 0 {
		return fmt.Errorf("fetcher.max_retries must be >= 0, got %d", cfg.Fetcher.MaxRetries)
	}
	if cfg.Fetcher.RetryBase <= 0 {
		return fmt.Errorf("fetcher.retry_base must be > 0")
	}
	if cfg.Fetcher.MaxBodySize <= 0 {
		return fmt.Errorf("fetcher.max_body_size must be > 0")
	}
	if len(cfg.Fetcher.UserAgents) == 0 {
		return fmt.Errorf("fetcher.user_agents must not be empty")
	}

	if cfg.Proxy.Enabled {
		if len(cfg.Proxy.URLs) == 0 {
			return fmt.Errorf("proxy.enabled is set but proxy.urls is empty")
		}
		for _, proxyURL := range cfg.Proxy.URLs {
			if _, err := url.Parse(proxyURL); err != nil {
				return fmt.Errorf("invalid proxy URL %q: %w", proxyURL, err)
			}
		}
	}

	if cfg.Scraper.MaxArticlesPerSource < 1 {
		return fmt.Errorf("scraper.max_articles_per_source must be >= 1, got %d", cfg.Scraper.MaxArticlesPerSource)
	}
	if cfg.Scraper.PageDelayMax < cfg.Scraper.PageDelayMin {
		return fmt.Errorf("scraper.page_delay_max must be >= scraper.page_delay_min")
	}
	if cfg.Scraper.ArticleBatchSize < 1 {
		return fmt.Errorf("scraper.article_batch_size must be >= 1, got %d", cfg.Scraper.ArticleBatchSize)
	}
	if cfg.Scraper.DaysBack < 1 || cfg.Scraper.InitialDaysBack < 1 {
		return fmt.Errorf("scraper day windows must be >= 1")
	}

	if cfg.Social.Enabled {
		if len(cfg.Social.Mirrors) == 0 {
			return fmt.Errorf("social.enabled is set but social.mirrors is empty")
		}
		if cfg.Social.DedupPrefixLen < 1 {
			return fmt.Errorf("social.dedup_prefix_len must be >= 1, got %d", cfg.Social.DedupPrefixLen)
		}
	}

	if cfg.Relevance.Threshold < 0 || cfg.Relevance.Threshold > 1 {
		return fmt.Errorf("relevance.threshold must be in [0,1], got %v", cfg.Relevance.Threshold)
	}

	if cfg.Sentiment.Mode != "vader" && cfg.Sentiment.Mode != "lexicon" {
		return fmt.Errorf("sentiment.mode must be 'vader' or 'lexicon', got %q", cfg.Sentiment.Mode)
	}

	if cfg.Storage.Type != "mongo" && cfg.Storage.Type != "memory" {
		return fmt.Errorf("storage.type must be 'mongo' or 'memory', got %q", cfg.Storage.Type)
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be debug/info/warn/error, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" && cfg.Logging.Format != "json" {
		return fmt.Errorf("logging.format must be 'text' or 'json', got %q", cfg.Logging.Format)
	}

	for i, src := range cfg.Sources {
		if err := validateSource(&src); err != nil {
			return fmt.Errorf("sources[%d] (%s): %w", i, src.Name, err)
		}
	}

	return nil
}

func validateSource(src *SourceDescriptor) error {
	if src.Name == "" {
		return fmt.Errorf("name is required")
	}
	if src.Kind != "news" && src.Kind != "social" {
		return fmt.Errorf("kind must be 'news' or 'social', got %q", src.Kind)
	}
	if src.URL == "" && src.FeedURL == "" {
		return fmt.Errorf("url or feed_url is required")
	}
	for _, raw := range []string{src.URL, src.FeedURL} {
		if raw == "" {
			continue
		}
		u, err := url.Parse(raw)
		if err != nil {
			return fmt.Errorf("invalid URL %q: %w", raw, err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("URL scheme must be http or https, got %q", u.Scheme)
		}
	}
	if src.Fetcher != "" && src.Fetcher != "http" && src.Fetcher != "browser" {
		return fmt.Errorf("fetcher must be 'http' or 'browser', got %q", src.Fetcher)
	}
	if src.SelectorKind != "" && src.SelectorKind != "css" && src.SelectorKind != "xpath" {
		return fmt.Errorf("selector_kind must be 'css' or 'xpath', got %q", src.SelectorKind)
	}
	if src.FeedURL == "" {
		// HTML discovery needs the full selector set.
		if src.ArticleSelector == "" || src.TitleSelector == "" || src.ContentSelector == "" || src.DateSelector == "" {
			return fmt.Errorf("article/title/content/date selectors are required for HTML sources")
		}
		if src.DateFormat == "" {
			return fmt.Errorf("date_format is required for HTML sources")
		}
		if src.MaxPages < 1 {
			return fmt.Errorf("max_pages must be >= 1, got %d", src.MaxPages)
		}
	}
	if src.Reliability < 0 || src.Reliability > 1 {
		return fmt.Errorf("reliability must be in [0,1], got %v", src.Reliability)
	}
	return nil
}
