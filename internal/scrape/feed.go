package scrape

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/araddon/dateparse"
	"github.com/mmcdole/gofeed"

	"ratepulse/internal/config"
	"ratepulse/internal/fetch"
	"ratepulse/internal/relevance"
	"ratepulse/internal/types"
)

// FeedAdapter discovers articles through a source's RSS/Atom feed instead of
// listing-page scraping. Selected when a source descriptor sets feed_url.
type FeedAdapter struct {
	src      config.SourceDescriptor
	fetcher  fetch.Fetcher
	detector *relevance.Detector
	cfg      *config.ScraperConfig
	parser   *gofeed.Parser
	logger   *slog.Logger
}

// NewFeedAdapter builds the RSS adapter for one configured source.
func NewFeedAdapter(src config.SourceDescriptor, fetcher fetch.Fetcher, detector *relevance.Detector, cfg *config.ScraperConfig, logger *slog.Logger) *FeedAdapter {
	return &FeedAdapter{
		src:      src,
		fetcher:  fetcher,
		detector: detector,
		cfg:      cfg,
		parser:   gofeed.NewParser(),
		logger:   logger.With("component", "feed_adapter", "source", src.Name),
	}
}

// Name returns the configured source name.
func (a *FeedAdapter) Name() string { return a.src.Name }

// Scrape fetches and parses the feed, keeping relevant entries newer than
// the cutoff. Feed entries carry their own content, so no article fetches
// are needed.
func (a *FeedAdapter) Scrape(ctx context.Context, cutoff time.Time) (*Result, error) {
	result, err := a.fetcher.Fetch(ctx, a.src.FeedURL)
	if err != nil {
		return nil, err
	}

	feed, err := a.parser.ParseString(string(result.Body))
	if err != nil {
		return nil, &types.ExtractError{URL: a.src.FeedURL, Err: err}
	}

	res := &Result{Discovered: len(feed.Items)}
	for _, item := range feed.Items {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		if len(res.Items) >= a.cfg.MaxArticlesPerSource {
			break
		}
		if item.Link == "" {
			continue
		}

		published, ok := a.itemTime(item)
		if !ok {
			a.logger.Debug("undated feed entry skipped", "link", item.Link)
			continue
		}
		if published.Before(cutoff) {
			continue
		}

		body := item.Content
		if body == "" {
			body = item.Description
		}
		body = stripHTML(body)
		if body == "" {
			continue
		}

		title := strings.TrimSpace(item.Title)
		if !a.detector.IsRelevant(title, body) {
			res.SkippedIrrelevant++
			continue
		}

		res.Items = append(res.Items, types.RawItem{
			Title:       title,
			Body:        body,
			URL:         item.Link,
			PublishedAt: published,
			SourceName:  a.src.Name,
			SourceKind:  types.SourceKindNews,
		})
	}

	a.logger.Info("feed processed",
		"entries", res.Discovered,
		"kept", len(res.Items),
		"irrelevant", res.SkippedIrrelevant,
	)
	return res, nil
}

// itemTime resolves an entry's publication time. Entries with no parseable
// date are skipped, never stamped with the collection time.
func (a *FeedAdapter) itemTime(item *gofeed.Item) (time.Time, bool) {
	if item.PublishedParsed != nil {
		return *item.PublishedParsed, true
	}
	if item.UpdatedParsed != nil {
		return *item.UpdatedParsed, true
	}
	if item.Published != "" {
		if t, err := dateparse.ParseAny(item.Published); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// stripHTML flattens feed entry markup to plain text.
func stripHTML(s string) string {
	if !strings.Contains(s, "<") {
		return collapseSpace(s)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader([]byte(s)))
	if err != nil {
		return collapseSpace(s)
	}
	return collapseSpace(doc.Text())
}
