package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"ratepulse/internal/config"
	"ratepulse/internal/scrape"
	"ratepulse/internal/sentiment"
	"ratepulse/internal/sources"
	"ratepulse/internal/store"
	"ratepulse/internal/types"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeAdapter returns canned items or a canned error.
type fakeAdapter struct {
	name  string
	items []types.RawItem
	err   error
	calls int
}

func (f *fakeAdapter) Name() string { return f.name }

func (f *fakeAdapter) Scrape(_ context.Context, _ time.Time) (*scrape.Result, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &scrape.Result{Items: f.items, Discovered: len(f.items)}, nil
}

func newsItem(url, title string) types.RawItem {
	return types.RawItem{
		Title:       title,
		Body:        "The Zimbabwe dollar weakened on the parallel market amid forex shortage.",
		URL:         url,
		PublishedAt: time.Now().UTC().Add(-time.Hour),
		SourceName:  "The Herald",
		SourceKind:  types.SourceKindNews,
	}
}

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Social.Enabled = false
	cfg.Sentiment.Mode = "lexicon"
	cfg.Sources = []config.SourceDescriptor{
		{Name: "The Herald", Kind: "news", Reliability: 0.8},
		{Name: "NewsDay Zimbabwe", Kind: "news", Reliability: 0.7},
	}
	return cfg
}

func testCoordinator(cfg *config.Config, adapters map[string]scrape.Adapter) (*Coordinator, *store.MemoryStore) {
	mem := store.NewMemoryStore()
	newAdapter := func(src config.SourceDescriptor) scrape.Adapter {
		if a, ok := adapters[src.Name]; ok {
			return a
		}
		return &fakeAdapter{name: src.Name}
	}
	c := New(cfg,
		sources.NewRegistry(cfg.Sources),
		mem,
		sentiment.New(cfg.Sentiment.Mode, testLogger()),
		newAdapter,
		nil,
		nil,
		testLogger(),
	)
	return c, mem
}

func TestRunSavesAndScores(t *testing.T) {
	cfg := testConfig()
	c, mem := testCoordinator(cfg, map[string]scrape.Adapter{
		"The Herald": &fakeAdapter{name: "The Herald", items: []types.RawItem{
			newsItem("https://herald.test/a", "Zimbabwe dollar falls"),
			newsItem("https://herald.test/b", "RBZ auction results"),
		}},
	})

	result, err := c.Run(context.Background(), RunOptions{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if result.ItemsDiscovered != 2 {
		t.Errorf("ItemsDiscovered = %d, want 2", result.ItemsDiscovered)
	}
	if result.ItemsSaved != 2 {
		t.Errorf("ItemsSaved = %d, want 2", result.ItemsSaved)
	}
	if result.PostsScored != 2 {
		t.Errorf("PostsScored = %d, want 2", result.PostsScored)
	}
	if result.HasErrors() {
		t.Errorf("unexpected errors: %v", result.Errors)
	}
	if mem.PostCount() != 2 {
		t.Errorf("PostCount = %d, want 2", mem.PostCount())
	}
	if mem.SourceCount() != 1 {
		t.Errorf("SourceCount = %d, want 1", mem.SourceCount())
	}

	// Every saved post carries sentiment fields.
	posts, err := mem.QueryPosts(context.Background(), store.PostFilter{})
	if err != nil {
		t.Fatalf("QueryPosts: %v", err)
	}
	for _, p := range posts {
		if p.Sentiment == "" {
			t.Errorf("post %s has no sentiment label", p.URL)
		}
		if p.ImpactScore <= 0 {
			t.Errorf("post %s has impact %v", p.URL, p.ImpactScore)
		}
	}
}

func TestRunIsIdempotent(t *testing.T) {
	cfg := testConfig()
	adapter := &fakeAdapter{name: "The Herald", items: []types.RawItem{
		newsItem("https://herald.test/a", "Zimbabwe dollar falls"),
	}}
	c, mem := testCoordinator(cfg, map[string]scrape.Adapter{"The Herald": adapter})

	if _, err := c.Run(context.Background(), RunOptions{}); err != nil {
		t.Fatalf("first Run: %v", err)
	}

	second, err := c.Run(context.Background(), RunOptions{})
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if second.ItemsSaved != 0 {
		t.Errorf("second run saved %d, want 0", second.ItemsSaved)
	}
	if second.SkippedDuplicate != 1 {
		t.Errorf("SkippedDuplicate = %d, want 1", second.SkippedDuplicate)
	}
	if mem.PostCount() != 1 {
		t.Errorf("PostCount = %d, want 1", mem.PostCount())
	}
}

func TestRunUnmatchedFilter(t *testing.T) {
	cfg := testConfig()
	c, mem := testCoordinator(cfg, nil)

	result, err := c.Run(context.Background(), RunOptions{Sources: []string{"No Such Source"}})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.ItemsDiscovered != 0 || result.ItemsSaved != 0 {
		t.Errorf("unmatched filter produced work: %+v", result)
	}
	if result.HasErrors() {
		t.Errorf("unmatched filter produced errors: %v", result.Errors)
	}
	if mem.PostCount() != 0 {
		t.Errorf("PostCount = %d, want 0", mem.PostCount())
	}
}

func TestRunSourceFilter(t *testing.T) {
	cfg := testConfig()
	herald := &fakeAdapter{name: "The Herald", items: []types.RawItem{
		newsItem("https://herald.test/a", "Zimbabwe dollar falls"),
	}}
	newsday := &fakeAdapter{name: "NewsDay Zimbabwe"}
	c, _ := testCoordinator(cfg, map[string]scrape.Adapter{
		"The Herald":       herald,
		"NewsDay Zimbabwe": newsday,
	})

	if _, err := c.Run(context.Background(), RunOptions{Sources: []string{"The Herald"}}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if herald.calls != 1 {
		t.Errorf("herald calls = %d, want 1", herald.calls)
	}
	if newsday.calls != 0 {
		t.Errorf("newsday calls = %d, want 0 (filtered out)", newsday.calls)
	}
}

// recordingSink captures progress reports for assertions.
type recordingSink struct {
	reports []progressReport
}

type progressReport struct {
	phase   string
	percent float64
	message string
	status  string
}

func (r *recordingSink) Report(_, phase string, percent float64, message, status string) {
	r.reports = append(r.reports, progressReport{phase, percent, message, status})
}

func (r *recordingSink) last(t *testing.T) progressReport {
	t.Helper()
	if len(r.reports) == 0 {
		t.Fatal("no progress reports")
	}
	return r.reports[len(r.reports)-1]
}

func TestRunFinalReportSurfacesPartialFailure(t *testing.T) {
	cfg := testConfig()
	mem := store.NewMemoryStore()
	sink := &recordingSink{}
	adapters := map[string]scrape.Adapter{
		"The Herald": &fakeAdapter{name: "The Herald", err: errors.New("site down")},
		"NewsDay Zimbabwe": &fakeAdapter{name: "NewsDay Zimbabwe", items: []types.RawItem{
			newsItem("https://newsday.test/a", "Zimbabwe dollar news"),
		}},
	}
	newAdapter := func(src config.SourceDescriptor) scrape.Adapter { return adapters[src.Name] }
	c := New(cfg, sources.NewRegistry(cfg.Sources), mem,
		sentiment.New(cfg.Sentiment.Mode, testLogger()), newAdapter, nil, sink, testLogger())

	if _, err := c.Run(context.Background(), RunOptions{}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	final := sink.last(t)
	if final.percent != 100 {
		t.Errorf("final percent = %v, want 100", final.percent)
	}
	// Partial failure must be visible to the orchestrator: counts in the
	// message, completed status since data was still produced.
	if !strings.Contains(final.message, "errors 1") {
		t.Errorf("final message %q does not surface the failure count", final.message)
	}
	if !strings.Contains(final.message, "saved 1") {
		t.Errorf("final message %q does not surface the saved count", final.message)
	}
	if final.status != types.StatusCompleted {
		t.Errorf("final status = %q, want completed for a partial run", final.status)
	}
}

func TestRunFinalReportFailsWhenNothingSaved(t *testing.T) {
	cfg := testConfig()
	sink := &recordingSink{}
	adapters := map[string]scrape.Adapter{
		"The Herald":       &fakeAdapter{name: "The Herald", err: errors.New("site down")},
		"NewsDay Zimbabwe": &fakeAdapter{name: "NewsDay Zimbabwe", err: errors.New("also down")},
	}
	newAdapter := func(src config.SourceDescriptor) scrape.Adapter { return adapters[src.Name] }
	c := New(cfg, sources.NewRegistry(cfg.Sources), store.NewMemoryStore(),
		sentiment.New(cfg.Sentiment.Mode, testLogger()), newAdapter, nil, sink, testLogger())

	if _, err := c.Run(context.Background(), RunOptions{}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if final := sink.last(t); final.status != types.StatusFailed {
		t.Errorf("final status = %q, want failed when every source failed", final.status)
	}
}

func TestRunContainsSourceFailures(t *testing.T) {
	cfg := testConfig()
	c, mem := testCoordinator(cfg, map[string]scrape.Adapter{
		"The Herald": &fakeAdapter{name: "The Herald", err: errors.New("site down")},
		"NewsDay Zimbabwe": &fakeAdapter{name: "NewsDay Zimbabwe", items: []types.RawItem{
			newsItem("https://newsday.test/a", "Zimbabwe dollar news"),
		}},
	})

	result, err := c.Run(context.Background(), RunOptions{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.ItemsSaved != 1 {
		t.Errorf("ItemsSaved = %d, want 1 from the healthy source", result.ItemsSaved)
	}
	if len(result.Errors) != 1 {
		t.Fatalf("Errors = %v, want exactly one", result.Errors)
	}
	var srcErr *types.SourceError
	if !errors.As(result.Errors[0], &srcErr) {
		t.Fatalf("error type = %T, want SourceError", result.Errors[0])
	}
	if srcErr.Source != "The Herald" {
		t.Errorf("failed source = %q", srcErr.Source)
	}
	if mem.PostCount() != 1 {
		t.Errorf("PostCount = %d, want 1", mem.PostCount())
	}
}

func TestRunInitialWindow(t *testing.T) {
	cfg := testConfig()
	old := newsItem("https://herald.test/old", "Zimbabwe dollar archive")
	old.PublishedAt = time.Now().UTC().AddDate(0, 0, -400)

	c, _ := testCoordinator(cfg, map[string]scrape.Adapter{
		"The Herald": &fakeAdapter{name: "The Herald", items: []types.RawItem{old}},
	})

	// The adapter decides the cutoff; the coordinator persists whatever the
	// adapter kept, so an initial run accepts a 400-day-old item.
	result, err := c.Run(context.Background(), RunOptions{Initial: true})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.ItemsSaved != 1 {
		t.Errorf("ItemsSaved = %d, want 1", result.ItemsSaved)
	}
}

func TestBackfillSentiment(t *testing.T) {
	cfg := testConfig()
	c, mem := testCoordinator(cfg, nil)
	ctx := context.Background()

	// A post saved without sentiment (impact zero) and an analyzed one.
	unanalyzed, _ := mem.CreatePost(ctx, &types.Post{
		SourceType:  types.SourceKindNews,
		NewsSource:  "The Herald",
		Content:     "Hyperinflation worsens the economic crisis as the currency collapses",
		URL:         "https://herald.test/unanalyzed",
		PublishedAt: time.Now().UTC(),
	})
	analyzed, _ := mem.CreatePost(ctx, &types.Post{
		SourceType:  types.SourceKindNews,
		NewsSource:  "The Herald",
		Content:     "Some already scored content",
		URL:         "https://herald.test/analyzed",
		PublishedAt: time.Now().UTC(),
	})
	mem.UpdatePostSentiment(ctx, analyzed.ID, types.SentimentPositive, 0.5, 0.6)

	updated, err := c.BackfillSentiment(ctx)
	if err != nil {
		t.Fatalf("BackfillSentiment: %v", err)
	}
	if updated != 1 {
		t.Errorf("updated = %d, want 1", updated)
	}

	post, _ := mem.FindPostByURL(ctx, "https://herald.test/unanalyzed")
	if post.Sentiment == "" || post.ImpactScore <= 0 {
		t.Errorf("backfilled post = %+v", post)
	}
	if post.ID != unanalyzed.ID {
		t.Errorf("post identity changed")
	}

	kept, _ := mem.FindPostByURL(ctx, "https://herald.test/analyzed")
	if kept.SentimentScore != 0.5 {
		t.Errorf("already analyzed post was rescored: %+v", kept)
	}
}

func TestSummary(t *testing.T) {
	cfg := testConfig()
	c, mem := testCoordinator(cfg, nil)
	ctx := context.Background()

	seed := []struct {
		url       string
		sentiment string
		score     float64
		impact    float64
	}{
		{"https://x.test/1", types.SentimentNegative, -0.6, 0.8},
		{"https://x.test/2", types.SentimentNegative, -0.4, 0.7},
		{"https://x.test/3", types.SentimentNeutral, 0.0, 0.2},
		{"https://x.test/4", types.SentimentPositive, 0.3, 0.5},
	}
	for _, s := range seed {
		p, _ := mem.CreatePost(ctx, &types.Post{URL: s.url, PublishedAt: time.Now().UTC()})
		mem.UpdatePostSentiment(ctx, p.ID, s.sentiment, s.score, s.impact)
	}

	summary, err := c.Summary(ctx, 7)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if summary.PostCount != 4 {
		t.Errorf("PostCount = %d, want 4", summary.PostCount)
	}
	if summary.Overall != types.SentimentNegative {
		t.Errorf("Overall = %q, want negative (mean %.3f)", summary.Overall, summary.SentimentScore)
	}
	if summary.HighImpact != 2 {
		t.Errorf("HighImpact = %d, want 2 (impact > 0.6)", summary.HighImpact)
	}
	if summary.NegativeRatio != 0.5 {
		t.Errorf("NegativeRatio = %v, want 0.5", summary.NegativeRatio)
	}
}

func TestSummaryEmpty(t *testing.T) {
	cfg := testConfig()
	c, _ := testCoordinator(cfg, nil)

	summary, err := c.Summary(context.Background(), 7)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if summary.PostCount != 0 || summary.Overall != types.SentimentNeutral {
		t.Errorf("empty summary = %+v", summary)
	}
}
