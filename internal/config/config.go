package config

import (
	"time"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Config is the root configuration for ratepulse.
type Config struct {
	Fetcher   FetcherConfig    `mapstructure:"fetcher"   yaml:"fetcher"`
	Proxy     ProxyConfig      `mapstructure:"proxy"     yaml:"proxy"`
	Scraper   ScraperConfig    `mapstructure:"scraper"   yaml:"scraper"`
	Social    SocialConfig     `mapstructure:"social"    yaml:"social"`
	Relevance RelevanceConfig  `mapstructure:"relevance" yaml:"relevance"`
	Sentiment SentimentConfig  `mapstructure:"sentiment" yaml:"sentiment"`
	Storage   StorageConfig    `mapstructure:"storage"   yaml:"storage"`
	Logging   LoggingConfig    `mapstructure:"logging"   yaml:"logging"`
	Sources   []SourceDescriptor `mapstructure:"sources" yaml:"sources"`
}

// FetcherConfig controls the HTTP fetch client.
type FetcherConfig struct {
	Type            string        `mapstructure:"type"              yaml:"type"` // http or browser
	RequestTimeout  time.Duration `mapstructure:"request_timeout"   yaml:"request_timeout"`
	MaxRetries      int           `mapstructure:"max_retries"       yaml:"max_retries"`
	RetryBase       time.Duration `mapstructure:"retry_base"        yaml:"retry_base"`
	FollowRedirects bool          `mapstructure:"follow_redirects"  yaml:"follow_redirects"`
	MaxRedirects    int           `mapstructure:"max_redirects"     yaml:"max_redirects"`
	MaxBodySize     int64         `mapstructure:"max_body_size"     yaml:"max_body_size"`
	TLSInsecure     bool          `mapstructure:"tls_insecure"      yaml:"tls_insecure"`
	IdleConnTimeout time.Duration `mapstructure:"idle_conn_timeout" yaml:"idle_conn_timeout"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"    yaml:"max_idle_conns"`
	UserAgents      []string      `mapstructure:"user_agents"       yaml:"user_agents"`
}

// ProxyConfig controls proxy rotation. When enabled, a proxy is chosen
// uniformly at random from the pool per request.
type ProxyConfig struct {
	Enabled      bool     `mapstructure:"enabled"        yaml:"enabled"`
	URLs         []string `mapstructure:"urls"           yaml:"urls"`
	RotateOnFail bool     `mapstructure:"rotate_on_fail" yaml:"rotate_on_fail"`
}

// ScraperConfig controls the news adapter and the run windows.
type ScraperConfig struct {
	MaxArticlesPerSource int           `mapstructure:"max_articles_per_source" yaml:"max_articles_per_source"`
	PageDelayMin         time.Duration `mapstructure:"page_delay_min"          yaml:"page_delay_min"`
	PageDelayMax         time.Duration `mapstructure:"page_delay_max"          yaml:"page_delay_max"`
	ArticleBatchSize     int           `mapstructure:"article_batch_size"      yaml:"article_batch_size"`
	BatchDelayMin        time.Duration `mapstructure:"batch_delay_min"         yaml:"batch_delay_min"`
	BatchDelayMax        time.Duration `mapstructure:"batch_delay_max"         yaml:"batch_delay_max"`
	DaysBack             int           `mapstructure:"days_back"               yaml:"days_back"`
	InitialDaysBack      int           `mapstructure:"initial_days_back"       yaml:"initial_days_back"`
}

// SocialConfig controls the social-media adapter.
type SocialConfig struct {
	Enabled          bool     `mapstructure:"enabled"           yaml:"enabled"`
	Platform         string   `mapstructure:"platform"          yaml:"platform"`
	Mirrors          []string `mapstructure:"mirrors"           yaml:"mirrors"`
	Keywords         []string `mapstructure:"keywords"          yaml:"keywords"`
	Accounts         []string `mapstructure:"accounts"          yaml:"accounts"`
	Language         string   `mapstructure:"language"          yaml:"language"`
	ResultCap        int      `mapstructure:"result_cap"        yaml:"result_cap"`
	AccountThreshold float64  `mapstructure:"account_threshold" yaml:"account_threshold"`
	DedupPrefixLen   int      `mapstructure:"dedup_prefix_len"  yaml:"dedup_prefix_len"`
}

// RelevanceConfig controls topical filtering.
type RelevanceConfig struct {
	Threshold   float64 `mapstructure:"threshold"    yaml:"threshold"`
	UseEntities bool    `mapstructure:"use_entities" yaml:"use_entities"`
}

// SentimentConfig controls the sentiment engine.
type SentimentConfig struct {
	// Mode selects the general polarity scorer: "vader" or "lexicon".
	// The lexicon mode is the fallback with explicit negation handling
	// and ±0.2 label thresholds.
	Mode string `mapstructure:"mode" yaml:"mode"`

	// BackfillImpactCeiling marks posts as unanalyzed for the backfill
	// pass when their impact score is below it.
	BackfillImpactCeiling float64 `mapstructure:"backfill_impact_ceiling" yaml:"backfill_impact_ceiling"`

	// HighImpactThreshold counts posts toward the high-impact bucket in
	// sentiment summaries.
	HighImpactThreshold float64 `mapstructure:"high_impact_threshold" yaml:"high_impact_threshold"`
}

// StorageConfig controls the record store backend.
type StorageConfig struct {
	Type              string        `mapstructure:"type"               yaml:"type"` // mongo or memory
	URI               string        `mapstructure:"uri"                yaml:"uri"`
	Database          string        `mapstructure:"database"           yaml:"database"`
	PostsCollection   string        `mapstructure:"posts_collection"   yaml:"posts_collection"`
	SourcesCollection string        `mapstructure:"sources_collection" yaml:"sources_collection"`
	Timeout           time.Duration `mapstructure:"timeout"            yaml:"timeout"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
	Output string `mapstructure:"output" yaml:"output"`
}

// SourceDescriptor is the immutable per-source crawl configuration, loaded
// once at process start and never mutated at runtime.
type SourceDescriptor struct {
	Name            string  `mapstructure:"name"             yaml:"name"`
	URL             string  `mapstructure:"url"              yaml:"url"`
	FeedURL         string  `mapstructure:"feed_url"         yaml:"feed_url"` // routes discovery through RSS when set
	Kind            string  `mapstructure:"kind"             yaml:"kind"`     // news or social
	Fetcher         string  `mapstructure:"fetcher"          yaml:"fetcher"`  // http (default) or browser
	SelectorKind    string  `mapstructure:"selector_kind"    yaml:"selector_kind"` // css (default) or xpath
	ArticleSelector string  `mapstructure:"article_selector" yaml:"article_selector"`
	TitleSelector   string  `mapstructure:"title_selector"   yaml:"title_selector"`
	ContentSelector string  `mapstructure:"content_selector" yaml:"content_selector"`
	DateSelector    string  `mapstructure:"date_selector"    yaml:"date_selector"`
	DateFormat      string  `mapstructure:"date_format"      yaml:"date_format"` // Go reference layout
	MaxPages        int     `mapstructure:"max_pages"        yaml:"max_pages"`
	Reliability     float64 `mapstructure:"reliability"      yaml:"reliability"`
}

// DefaultConfig returns a Config with sensible defaults, including the
// built-in Zimbabwe news registry, search keywords, and tracked accounts.
func DefaultConfig() *Config {
	return &Config{
		Fetcher: FetcherConfig{
			Type:            "http",
			RequestTimeout:  15 * time.Second,
			MaxRetries:      3,
			RetryBase:       1 * time.Second,
			FollowRedirects: true,
			MaxRedirects:    10,
			MaxBodySize:     10 * 1024 * 1024, // 10MB
			IdleConnTimeout: 90 * time.Second,
			MaxIdleConns:    100,
			UserAgents: []string{
				"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
				"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
				"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:121.0) Gecko/20100101 Firefox/121.0",
				"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Safari/605.1.15",
				"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			},
		},
		Proxy: ProxyConfig{
			Enabled:      false,
			RotateOnFail: true,
		},
		Scraper: ScraperConfig{
			MaxArticlesPerSource: 100,
			PageDelayMin:         1 * time.Second,
			PageDelayMax:         3 * time.Second,
			ArticleBatchSize:     5,
			BatchDelayMin:        1 * time.Second,
			BatchDelayMax:        2 * time.Second,
			DaysBack:             7,
			InitialDaysBack:      730,
		},
		Social: SocialConfig{
			Enabled:  true,
			Platform: "Twitter",
			Mirrors: []string{
				"https://nitter.net",
				"https://nitter.poast.org",
				"https://nitter.privacydev.net",
			},
			Keywords: []string{
				"Zimbabwe dollar", "ZWL", "Zimbabwe forex", "Zimbabwe exchange rate",
				"Zimbabwe currency", "RBZ rate", "parallel market Zimbabwe",
				"Zimbabwe inflation", "Zimbabwe bond note", "Zimbabwe monetary policy",
			},
			Accounts: []string{
				"ReserveBankZIM", "ZimTreasury", "MthuliNcube", "InfoMinZW",
				"ZimEye", "ZimLive", "263Chat",
			},
			Language:         "en",
			ResultCap:        300,
			AccountThreshold: 0.25,
			DedupPrefixLen:   100,
		},
		Relevance: RelevanceConfig{
			Threshold:   0.4,
			UseEntities: true,
		},
		Sentiment: SentimentConfig{
			Mode:                  "vader",
			BackfillImpactCeiling: 0.2,
			HighImpactThreshold:   0.6,
		},
		Storage: StorageConfig{
			Type:              "mongo",
			URI:               "mongodb://localhost:27017",
			Database:          "ratepulse",
			PostsCollection:   "posts",
			SourcesCollection: "sources",
			Timeout:           10 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
		Sources: DefaultSources(),
	}
}

// DefaultSources returns the built-in Zimbabwe news source registry.
func DefaultSources() []SourceDescriptor {
	return []SourceDescriptor{
		{
			Name:            "The Herald",
			URL:             "https://www.herald.co.zw/category/business/",
			Kind:            "news",
			ArticleSelector: "article.entry",
			TitleSelector:   "h2.entry-title a",
			ContentSelector: ".entry-content",
			DateSelector:    ".entry-date",
			DateFormat:      "January 2, 2006",
			MaxPages:        2,
			Reliability:     0.8,
		},
		{
			Name:            "NewsDay Zimbabwe",
			URL:             "https://www.newsday.co.zw/business/",
			Kind:            "news",
			ArticleSelector: "article",
			TitleSelector:   "h3 a",
			ContentSelector: ".entry-content",
			DateSelector:    ".entry-date",
			DateFormat:      "January 2, 2006",
			MaxPages:        2,
			Reliability:     0.7,
		},
		{
			Name:            "The Chronicle",
			URL:             "https://www.chronicle.co.zw/category/business/",
			Kind:            "news",
			ArticleSelector: "article.entry",
			TitleSelector:   "h2.entry-title a",
			ContentSelector: ".entry-content",
			DateSelector:    ".entry-date",
			DateFormat:      "January 2, 2006",
			MaxPages:        2,
			Reliability:     0.75,
		},
		{
			Name:            "ZimEye",
			URL:             "https://www.zimeye.net/category/business/",
			Kind:            "news",
			ArticleSelector: "article",
			TitleSelector:   "h3.entry-title a",
			ContentSelector: ".entry-content",
			DateSelector:    ".entry-date",
			DateFormat:      "January 2, 2006",
			MaxPages:        2,
			Reliability:     0.6,
		},
		{
			Name:            "Bulawayo24",
			URL:             "https://bulawayo24.com/index-id-business.html",
			Kind:            "news",
			ArticleSelector: "div.article-listing",
			TitleSelector:   "h3 a",
			ContentSelector: ".article-content",
			DateSelector:    ".article-date",
			DateFormat:      "2 Jan 2006",
			MaxPages:        2,
			Reliability:     0.6,
		},
	}
}
