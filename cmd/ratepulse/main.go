// Command ratepulse collects Zimbabwe-currency news and social posts,
// filters them for relevance, scores sentiment, and persists the dataset
// backing exchange-rate prediction.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"ratepulse/internal/config"
	"ratepulse/internal/fetch"
	"ratepulse/internal/pipeline"
	"ratepulse/internal/relevance"
	"ratepulse/internal/scrape"
	"ratepulse/internal/sentiment"
	"ratepulse/internal/sources"
	"ratepulse/internal/store"
)

var (
	flagConfig  string
	flagDays    int
	flagInitial bool
	flagSources []string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "ratepulse",
		Short: "Currency news and social sentiment collector",
		Long: `ratepulse scrapes Zimbabwe news sites and social media for
currency-related content, filters it for relevance, scores sentiment and
market impact, and stores the results for rate prediction.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "config file path")

	root.AddCommand(newRunCmd())
	root.AddCommand(newBackfillCmd())
	root.AddCommand(newSummaryCmd())
	root.AddCommand(newSourcesCmd())
	root.AddCommand(newConfigCmd())
	root.AddCommand(newVersionCmd())
	return root
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one collection pass",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApp()
			if err != nil {
				return err
			}
			defer app.close()

			ctx, cancel := signalContext()
			defer cancel()

			result, err := app.coordinator.Run(ctx, pipeline.RunOptions{
				DaysBack: flagDays,
				Initial:  flagInitial,
				Sources:  flagSources,
			})
			if err != nil {
				return err
			}

			fmt.Printf("Discovered: %d\n", result.ItemsDiscovered)
			fmt.Printf("Saved:      %d\n", result.ItemsSaved)
			fmt.Printf("Duplicates: %d\n", result.SkippedDuplicate)
			fmt.Printf("Irrelevant: %d\n", result.SkippedIrrelevant)
			fmt.Printf("Scored:     %d\n", result.PostsScored)
			if result.HasErrors() {
				fmt.Printf("Errors:     %d\n", len(result.Errors))
				for _, e := range result.Errors {
					fmt.Printf("  - %v\n", e)
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&flagDays, "days", 0, "days back to collect (0 = configured default)")
	cmd.Flags().BoolVar(&flagInitial, "initial", false, "use the long initial backfill window")
	cmd.Flags().StringSliceVar(&flagSources, "source", nil, "restrict the run to named sources")
	return cmd
}

func newBackfillCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backfill-sentiment",
		Short: "Re-score posts that were saved without sentiment",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApp()
			if err != nil {
				return err
			}
			defer app.close()

			ctx, cancel := signalContext()
			defer cancel()

			updated, err := app.coordinator.BackfillSentiment(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("Updated %d posts\n", updated)
			return nil
		},
	}
}

func newSummaryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show aggregate sentiment over recent posts",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApp()
			if err != nil {
				return err
			}
			defer app.close()

			ctx, cancel := signalContext()
			defer cancel()

			s, err := app.coordinator.Summary(ctx, flagDays)
			if err != nil {
				return err
			}
			fmt.Printf("Posts:       %d\n", s.PostCount)
			fmt.Printf("Overall:     %s (%.3f)\n", s.Overall, s.SentimentScore)
			fmt.Printf("Avg impact:  %.3f\n", s.AverageImpact)
			fmt.Printf("High impact: %d\n", s.HighImpact)
			fmt.Printf("Pos/Neu/Neg: %.1f%% / %.1f%% / %.1f%%\n",
				s.PositiveRatio*100, s.NeutralRatio*100, s.NegativeRatio*100)
			return nil
		},
	}
	cmd.Flags().IntVar(&flagDays, "days", 0, "window in days (0 = configured default)")
	return cmd
}

func newSourcesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sources",
		Short: "List configured sources",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			for _, s := range cfg.Sources {
				mode := "html"
				if s.FeedURL != "" {
					mode = "rss"
				}
				fmt.Printf("%-20s %-6s %-4s reliability=%.2f %s\n",
					s.Name, s.Kind, mode, s.Reliability, s.URL)
			}
			if cfg.Social.Enabled {
				fmt.Printf("%-20s social accounts=%d keywords=%d\n",
					cfg.Social.Platform, len(cfg.Social.Accounts), len(cfg.Social.Keywords))
			}
			return nil
		},
	}
}

func newConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration helpers",
	}
	configCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			out, err := yaml.Marshal(cfg)
			if err != nil {
				return err
			}
			fmt.Print(string(out))
			return nil
		},
	})
	return configCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("ratepulse", config.Version)
		},
	}
}

// app holds the wired components behind a command.
type app struct {
	cfg         *config.Config
	coordinator *pipeline.Coordinator
	recordStore store.RecordStore
	fetchers    []fetch.Fetcher
	logger      *slog.Logger
}

func (a *app) close() {
	for _, f := range a.fetchers {
		if err := f.Close(); err != nil {
			a.logger.Warn("fetcher close failed", "type", f.Type(), "error", err)
		}
	}
	if err := a.recordStore.Close(context.Background()); err != nil {
		a.logger.Warn("store close failed", "error", err)
	}
}

func loadConfig() (*config.Config, error) {
	// Missing .env is fine; explicit config errors are not.
	_ = godotenv.Load()

	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, err
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func buildApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger := newLogger(&cfg.Logging)

	recordStore, err := newStore(cfg, logger)
	if err != nil {
		return nil, err
	}

	httpFetcher, err := fetch.NewClient(cfg, logger)
	if err != nil {
		return nil, err
	}
	policy := fetch.RetryPolicy{MaxRetries: cfg.Fetcher.MaxRetries, Base: cfg.Fetcher.RetryBase}
	httpRetrying := fetch.WithRetry(httpFetcher, policy, logger)
	fetchers := []fetch.Fetcher{httpRetrying}

	// A browser instance is only launched when some source needs one.
	var browserRetrying fetch.Fetcher
	if needsBrowser(cfg) {
		var proxies *fetch.ProxyPool
		if cfg.Proxy.Enabled && len(cfg.Proxy.URLs) > 0 {
			proxies = fetch.NewProxyPool(&cfg.Proxy, logger)
		}
		browser, err := fetch.NewBrowser(cfg, proxies, logger)
		if err != nil {
			return nil, err
		}
		browserRetrying = fetch.WithRetry(browser, policy, logger)
		fetchers = append(fetchers, browserRetrying)
	}

	detector := newDetector(cfg, logger)
	analyzer := sentiment.New(cfg.Sentiment.Mode, logger)
	registry := sources.NewRegistry(cfg.Sources)

	newAdapter := func(src config.SourceDescriptor) scrape.Adapter {
		fetcher := fetch.Fetcher(httpRetrying)
		if src.Fetcher == "browser" && browserRetrying != nil {
			fetcher = browserRetrying
		}
		if src.FeedURL != "" {
			return scrape.NewFeedAdapter(src, fetcher, detector, &cfg.Scraper, logger)
		}
		return scrape.NewNewsAdapter(src, fetcher, detector, &cfg.Scraper, logger)
	}

	var social scrape.Adapter
	if cfg.Social.Enabled {
		social = scrape.NewSocialAdapter(&cfg.Social, httpRetrying, detector, logger)
	}

	coordinator := pipeline.New(cfg, registry, recordStore, analyzer, newAdapter, social, nil, logger)

	return &app{
		cfg:         cfg,
		coordinator: coordinator,
		recordStore: recordStore,
		fetchers:    fetchers,
		logger:      logger,
	}, nil
}

func newStore(cfg *config.Config, logger *slog.Logger) (store.RecordStore, error) {
	switch cfg.Storage.Type {
	case "memory":
		return store.NewMemoryStore(), nil
	default:
		return store.NewMongoStore(context.Background(), &cfg.Storage, logger)
	}
}

func newDetector(cfg *config.Config, logger *slog.Logger) *relevance.Detector {
	var scorer relevance.Scorer = relevance.NewLexiconScorer()
	if cfg.Relevance.UseEntities {
		if es, err := relevance.NewEntityScorer(); err == nil {
			scorer = es
		} else {
			logger.Warn("entity scorer unavailable, using lexicon only", "error", err)
		}
	}
	return relevance.NewDetector(scorer, cfg.Relevance.Threshold, logger)
}

func needsBrowser(cfg *config.Config) bool {
	if cfg.Fetcher.Type == "browser" {
		return true
	}
	for _, s := range cfg.Sources {
		if s.Fetcher == "browser" {
			return true
		}
	}
	return false
}

func newLogger(cfg *config.LoggingConfig) *slog.Logger {
	var out io.Writer = os.Stderr
	if cfg.Output == "stdout" {
		out = os.Stdout
	}

	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}
	return slog.New(handler)
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
