// Package pipeline coordinates a full collection run: fan out over source
// adapters, persist discovered items idempotently, then score sentiment for
// the newly saved posts.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"ratepulse/internal/config"
	"ratepulse/internal/scrape"
	"ratepulse/internal/sentiment"
	"ratepulse/internal/sources"
	"ratepulse/internal/store"
	"ratepulse/internal/types"
)

// Coordinator wires the adapters, store, and sentiment engine into runs.
type Coordinator struct {
	cfg      *config.Config
	registry *sources.Registry
	store    store.RecordStore
	analyzer *sentiment.Analyzer
	progress ProgressSink
	logger   *slog.Logger

	newAdapter func(src config.SourceDescriptor) scrape.Adapter
	social     scrape.Adapter
}

// New builds a coordinator. The adapter constructors are captured so runs
// can instantiate fresh adapters per filtered source set.
func New(cfg *config.Config, registry *sources.Registry, recordStore store.RecordStore, analyzer *sentiment.Analyzer, newAdapter func(config.SourceDescriptor) scrape.Adapter, social scrape.Adapter, progress ProgressSink, logger *slog.Logger) *Coordinator {
	if progress == nil {
		progress = NewLogSink(logger)
	}
	return &Coordinator{
		cfg:        cfg,
		registry:   registry,
		store:      recordStore,
		analyzer:   analyzer,
		progress:   progress,
		logger:     logger.With("component", "pipeline"),
		newAdapter: newAdapter,
		social:     social,
	}
}

// RunOptions selects the window and sources for one run.
type RunOptions struct {
	// DaysBack bounds item age. Zero uses the configured default.
	DaysBack int

	// Initial selects the long backfill window instead of DaysBack.
	Initial bool

	// Sources restricts the run to the named news sources. Empty means all.
	// The social pass runs whenever the filter is empty or names the
	// platform.
	Sources []string
}

// Run executes one collection run. Each source is isolated: a failing
// adapter contributes an error to the result but never aborts the others.
// A filter matching no sources yields an empty successful result.
func (c *Coordinator) Run(ctx context.Context, opts RunOptions) (*types.RunResult, error) {
	taskID := uuid.NewString()
	result := &types.RunResult{Started: time.Now().UTC()}

	daysBack := opts.DaysBack
	if opts.Initial {
		daysBack = c.cfg.Scraper.InitialDaysBack
	} else if daysBack <= 0 {
		daysBack = c.cfg.Scraper.DaysBack
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -daysBack)

	adapters, err := c.selectAdapters(opts)
	if err != nil {
		if errors.Is(err, types.ErrNoSources) {
			c.logger.Warn("source filter matched nothing", "filter", opts.Sources)
			result.Finished = time.Now().UTC()
			c.progress.Report(taskID, "scrape", 100, "no sources matched", types.StatusCompleted)
			return result, nil
		}
		return nil, err
	}

	c.logger.Info("run starting",
		"task_id", taskID,
		"sources", len(adapters),
		"days_back", daysBack,
		"initial", opts.Initial,
	)
	c.progress.Report(taskID, "scrape", 0, "collecting sources", types.StatusRunning)

	items := c.scrapeAll(ctx, adapters, cutoff, result)

	// Newest first, so the freshest signal lands even if persistence is
	// interrupted partway.
	sort.Slice(items, func(i, j int) bool {
		return items[i].PublishedAt.After(items[j].PublishedAt)
	})

	c.progress.Report(taskID, "persist", 50, "saving items", types.StatusRunning)
	saved := c.persist(ctx, items, result)

	c.progress.Report(taskID, "sentiment", 75, "scoring sentiment", types.StatusRunning)
	c.scoreSentiment(ctx, saved, result)

	result.Finished = time.Now().UTC()

	// The final update carries the run summary so the orchestrator can see
	// partial failures; a run that saved nothing and hit errors is failed.
	status := types.StatusCompleted
	if result.HasErrors() && result.ItemsSaved == 0 {
		status = types.StatusFailed
	}
	message := fmt.Sprintf("discovered %d, saved %d, duplicates %d, errors %d",
		result.ItemsDiscovered, result.ItemsSaved, result.SkippedDuplicate, len(result.Errors))
	c.progress.Report(taskID, "done", 100, message, status)

	c.logger.Info("run finished",
		"task_id", taskID,
		"discovered", result.ItemsDiscovered,
		"saved", result.ItemsSaved,
		"duplicates", result.SkippedDuplicate,
		"irrelevant", result.SkippedIrrelevant,
		"scored", result.PostsScored,
		"errors", len(result.Errors),
		"elapsed", result.Finished.Sub(result.Started),
	)
	return result, nil
}

// selectAdapters builds the adapter set for the run options.
func (c *Coordinator) selectAdapters(opts RunOptions) ([]scrape.Adapter, error) {
	descriptors, err := c.registry.Filter(opts.Sources)
	if err != nil {
		// An explicit platform-only filter is still a valid run.
		if errors.Is(err, types.ErrNoSources) && c.socialSelected(opts.Sources) {
			descriptors = nil
		} else {
			return nil, err
		}
	}

	adapters := make([]scrape.Adapter, 0, len(descriptors)+1)
	for _, src := range descriptors {
		adapters = append(adapters, c.newAdapter(src))
	}
	if c.social != nil && c.cfg.Social.Enabled && c.socialSelected(opts.Sources) {
		adapters = append(adapters, c.social)
	}
	if len(adapters) == 0 {
		return nil, types.ErrNoSources
	}
	return adapters, nil
}

func (c *Coordinator) socialSelected(filter []string) bool {
	if len(filter) == 0 {
		return true
	}
	for _, name := range filter {
		if name == c.cfg.Social.Platform {
			return true
		}
	}
	return false
}

// scrapeAll runs every adapter concurrently and merges their results.
func (c *Coordinator) scrapeAll(ctx context.Context, adapters []scrape.Adapter, cutoff time.Time, result *types.RunResult) []types.RawItem {
	var (
		mu    sync.Mutex
		items []types.RawItem
		wg    sync.WaitGroup
	)

	for _, adapter := range adapters {
		wg.Add(1)
		go func(a scrape.Adapter) {
			defer wg.Done()

			res, err := a.Scrape(ctx, cutoff)

			mu.Lock()
			defer mu.Unlock()
			if res != nil {
				items = append(items, res.Items...)
				result.ItemsDiscovered += res.Discovered
				result.SkippedIrrelevant += res.SkippedIrrelevant
			}
			if err != nil {
				c.logger.Error("source failed", "source", a.Name(), "error", err)
				result.Errors = append(result.Errors, &types.SourceError{Source: a.Name(), Err: err})
			}
		}(adapter)
	}
	wg.Wait()
	return items
}

// savedPost pairs a persisted post with the influence used when adjusting
// its impact score.
type savedPost struct {
	post      *types.Post
	influence float64
}

// persist writes items to the store. The store's URL uniqueness makes this
// idempotent; re-running a window only counts duplicates.
func (c *Coordinator) persist(ctx context.Context, items []types.RawItem, result *types.RunResult) []savedPost {
	var saved []savedPost
	for i := range items {
		if ctx.Err() != nil {
			return saved
		}
		item := &items[i]

		existing, err := c.store.FindPostByURL(ctx, item.URL)
		if err != nil {
			result.Errors = append(result.Errors, err)
			continue
		}
		if existing != nil {
			result.SkippedDuplicate++
			continue
		}

		influence := c.ensureSource(ctx, item, result)

		// Neutral placeholder until the sentiment pass fills in real values.
		post := &types.Post{
			SourceType:  item.SourceKind,
			Title:       item.Title,
			Content:     item.Body,
			URL:         item.URL,
			PublishedAt: item.PublishedAt,
			Sentiment:   types.SentimentNeutral,
		}
		if item.SourceKind == types.SourceKindSocial {
			post.SocialSource = item.Account
		} else {
			post.NewsSource = item.SourceName
		}

		created, err := c.store.CreatePost(ctx, post)
		if errors.Is(err, types.ErrDuplicatePost) {
			result.SkippedDuplicate++
			continue
		}
		if err != nil {
			result.Errors = append(result.Errors, err)
			continue
		}

		result.ItemsSaved++
		saved = append(saved, savedPost{post: created, influence: influence})
	}
	return saved
}

// ensureSource lazily creates the source identity and returns the influence
// to apply to the item's impact score.
func (c *Coordinator) ensureSource(ctx context.Context, item *types.RawItem, result *types.RunResult) float64 {
	proto := &types.Source{
		Kind: item.SourceKind,
		Name: item.SourceName,
	}
	influence := 1.0
	if item.SourceKind == types.SourceKindSocial {
		proto.Platform = item.Platform
		proto.AccountID = item.Account
		proto.Influence = item.Influence
		influence = item.Influence
	} else {
		if src, ok := c.registry.Get(item.SourceName); ok {
			proto.URL = src.URL
			proto.Influence = src.Reliability
			influence = src.Reliability
		}
	}

	if _, err := c.store.GetOrCreateSource(ctx, proto); err != nil {
		c.logger.Warn("source upsert failed", "source", item.SourceName, "error", err)
		result.Errors = append(result.Errors, err)
	}
	return influence
}

// scoreSentiment runs the sentiment pass over newly saved posts.
func (c *Coordinator) scoreSentiment(ctx context.Context, saved []savedPost, result *types.RunResult) {
	for _, sp := range saved {
		if ctx.Err() != nil {
			return
		}
		text := sp.post.Content
		if sp.post.Title != "" {
			text = sp.post.Title + " " + text
		}

		r := sentiment.AdjustImpact(c.analyzer.Analyze(text), sp.influence)
		if err := c.store.UpdatePostSentiment(ctx, sp.post.ID, r.Sentiment, r.Score, r.Impact); err != nil {
			result.Errors = append(result.Errors, err)
			continue
		}
		result.PostsScored++
	}
}

// BackfillSentiment re-scores posts whose impact is below the configured
// ceiling, catching posts saved before the sentiment engine ran or under an
// older lexicon. Returns the number of posts updated.
func (c *Coordinator) BackfillSentiment(ctx context.Context) (int, error) {
	posts, err := c.store.QueryPosts(ctx, store.PostFilter{
		ImpactBelow: c.cfg.Sentiment.BackfillImpactCeiling,
	})
	if err != nil {
		return 0, err
	}

	updated := 0
	for i := range posts {
		if ctx.Err() != nil {
			return updated, ctx.Err()
		}
		p := &posts[i]

		text := p.Content
		if p.Title != "" {
			text = p.Title + " " + text
		}

		influence := 1.0
		if p.SourceType == types.SourceKindNews {
			if src, ok := c.registry.Get(p.NewsSource); ok {
				influence = src.Reliability
			}
		}

		r := sentiment.AdjustImpact(c.analyzer.Analyze(text), influence)
		if err := c.store.UpdatePostSentiment(ctx, p.ID, r.Sentiment, r.Score, r.Impact); err != nil {
			c.logger.Warn("backfill update failed", "post", p.ID, "error", err)
			continue
		}
		updated++
	}

	c.logger.Info("sentiment backfill complete", "candidates", len(posts), "updated", updated)
	return updated, nil
}

// Summary aggregates sentiment over posts published in the last daysBack
// days. The overall label uses a wider ±0.1 band than per-post labels since
// an aggregate near zero is genuinely mixed.
func (c *Coordinator) Summary(ctx context.Context, daysBack int) (*types.SentimentSummary, error) {
	if daysBack <= 0 {
		daysBack = c.cfg.Scraper.DaysBack
	}
	since := time.Now().UTC().AddDate(0, 0, -daysBack)

	posts, err := c.store.QueryPosts(ctx, store.PostFilter{PublishedSince: since})
	if err != nil {
		return nil, err
	}

	summary := &types.SentimentSummary{Overall: types.SentimentNeutral}
	if len(posts) == 0 {
		return summary, nil
	}

	var scoreSum, impactSum float64
	var pos, neg, neu int
	for i := range posts {
		p := &posts[i]
		scoreSum += p.SentimentScore
		impactSum += p.ImpactScore
		switch p.Sentiment {
		case types.SentimentPositive:
			pos++
		case types.SentimentNegative:
			neg++
		default:
			neu++
		}
		if p.ImpactScore > c.cfg.Sentiment.HighImpactThreshold {
			summary.HighImpact++
		}
	}

	n := float64(len(posts))
	summary.PostCount = len(posts)
	summary.SentimentScore = scoreSum / n
	summary.AverageImpact = impactSum / n
	summary.PositiveRatio = math.Round(float64(pos)/n*1000) / 1000
	summary.NegativeRatio = math.Round(float64(neg)/n*1000) / 1000
	summary.NeutralRatio = math.Round(float64(neu)/n*1000) / 1000

	switch {
	case summary.SentimentScore >= 0.1:
		summary.Overall = types.SentimentPositive
	case summary.SentimentScore <= -0.1:
		summary.Overall = types.SentimentNegative
	}
	return summary, nil
}
