package scrape

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"github.com/araddon/dateparse"
	readability "github.com/go-shiori/go-readability"

	"ratepulse/internal/config"
	"ratepulse/internal/fetch"
	"ratepulse/internal/relevance"
	"ratepulse/internal/sources"
	"ratepulse/internal/types"
)

// NewsAdapter scrapes one news site's listing pages and article bodies
// according to its source descriptor.
type NewsAdapter struct {
	src      config.SourceDescriptor
	fetcher  fetch.Fetcher
	detector *relevance.Detector
	cfg      *config.ScraperConfig
	logger   *slog.Logger
}

// NewNewsAdapter builds the adapter for one configured news source.
func NewNewsAdapter(src config.SourceDescriptor, fetcher fetch.Fetcher, detector *relevance.Detector, cfg *config.ScraperConfig, logger *slog.Logger) *NewsAdapter {
	return &NewsAdapter{
		src:      src,
		fetcher:  fetcher,
		detector: detector,
		cfg:      cfg,
		logger:   logger.With("component", "news_adapter", "source", src.Name),
	}
}

// Name returns the configured source name.
func (a *NewsAdapter) Name() string { return a.src.Name }

// listingEntry is one article reference found on a listing page.
type listingEntry struct {
	title    string
	link     string
	dateText string
}

// Scrape walks every configured listing page, fetches the referenced
// articles in polite batches, and returns the relevant items newer than the
// cutoff. A page that fails to fetch is logged and skipped; a single bad
// article never aborts the source.
func (a *NewsAdapter) Scrape(ctx context.Context, cutoff time.Time) (*Result, error) {
	res := &Result{}
	seen := make(map[string]bool)

	var entries []listingEntry
	for page := 1; page <= a.src.MaxPages; page++ {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}

		pageURL := sources.PageURL(a.src.URL, page)
		found, err := a.scrapeListing(ctx, pageURL)
		if err != nil {
			a.logger.Warn("listing page failed", "page", page, "url", pageURL, "error", err)
			continue
		}
		for _, e := range found {
			if !seen[e.link] {
				seen[e.link] = true
				entries = append(entries, e)
			}
		}

		if page < a.src.MaxPages {
			fetch.Sleep(ctx, fetch.RandomDelay(a.cfg.PageDelayMin, a.cfg.PageDelayMax))
		}
	}

	res.Discovered = len(entries)
	a.logger.Info("listing sweep complete", "pages", a.src.MaxPages, "articles", len(entries))

	for i, entry := range entries {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		if len(res.Items) >= a.cfg.MaxArticlesPerSource {
			a.logger.Info("article cap reached", "cap", a.cfg.MaxArticlesPerSource)
			break
		}

		item, ok := a.scrapeArticle(ctx, entry, cutoff)
		if item != nil {
			res.Items = append(res.Items, *item)
		} else if !ok {
			res.SkippedIrrelevant++
		}

		if a.cfg.ArticleBatchSize > 0 && (i+1)%a.cfg.ArticleBatchSize == 0 {
			fetch.Sleep(ctx, fetch.RandomDelay(a.cfg.BatchDelayMin, a.cfg.BatchDelayMax))
		}
	}

	return res, nil
}

// scrapeListing fetches one listing page and extracts article references.
func (a *NewsAdapter) scrapeListing(ctx context.Context, pageURL string) ([]listingEntry, error) {
	result, err := a.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	if a.src.SelectorKind == "xpath" {
		return a.parseListingXPath(result.Body, pageURL)
	}
	return a.parseListingCSS(result.Body, pageURL)
}

func (a *NewsAdapter) parseListingCSS(body []byte, pageURL string) ([]listingEntry, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, &types.ExtractError{URL: pageURL, Err: err}
	}

	var entries []listingEntry
	doc.Find(a.src.ArticleSelector).Each(func(_ int, s *goquery.Selection) {
		titleSel := s.Find(a.src.TitleSelector).First()
		href, ok := titleSel.Attr("href")
		if !ok || href == "" {
			href, ok = s.Find("a").First().Attr("href")
			if !ok || href == "" {
				return
			}
		}
		link, err := resolveURL(pageURL, href)
		if err != nil {
			return
		}
		entries = append(entries, listingEntry{
			title:    strings.TrimSpace(titleSel.Text()),
			link:     link,
			dateText: strings.TrimSpace(s.Find(a.src.DateSelector).First().Text()),
		})
	})
	return entries, nil
}

func (a *NewsAdapter) parseListingXPath(body []byte, pageURL string) ([]listingEntry, error) {
	doc, err := htmlquery.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, &types.ExtractError{URL: pageURL, Err: err}
	}

	nodes, err := htmlquery.QueryAll(doc, a.src.ArticleSelector)
	if err != nil {
		return nil, &types.ExtractError{URL: pageURL, Selector: a.src.ArticleSelector, Err: err}
	}

	var entries []listingEntry
	for _, node := range nodes {
		titleNode, err := htmlquery.Query(node, a.src.TitleSelector)
		if err != nil || titleNode == nil {
			continue
		}
		href := htmlquery.SelectAttr(titleNode, "href")
		if href == "" {
			continue
		}
		link, err := resolveURL(pageURL, href)
		if err != nil {
			continue
		}
		entry := listingEntry{
			title: strings.TrimSpace(htmlquery.InnerText(titleNode)),
			link:  link,
		}
		if dateNode, err := htmlquery.Query(node, a.src.DateSelector); err == nil && dateNode != nil {
			entry.dateText = strings.TrimSpace(htmlquery.InnerText(dateNode))
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// scrapeArticle fetches and extracts one article. Returns (item, true) for a
// kept item, (nil, true) for fetch/cutoff skips, and (nil, false) when the
// article was extracted but judged irrelevant.
func (a *NewsAdapter) scrapeArticle(ctx context.Context, entry listingEntry, cutoff time.Time) (*types.RawItem, bool) {
	result, err := a.fetcher.Fetch(ctx, entry.link)
	if err != nil {
		a.logger.Warn("article fetch failed", "url", entry.link, "error", err)
		return nil, true
	}

	content, dateText := a.extractArticle(result.Body, entry.link)
	if content == "" {
		a.logger.Debug("empty article content", "url", entry.link)
		return nil, true
	}
	if dateText == "" {
		dateText = entry.dateText
	}

	published, ok := a.parseDate(dateText)
	if !ok {
		a.logger.Debug("undatable article skipped", "url", entry.link, "date_text", dateText)
		return nil, true
	}
	if published.Before(cutoff) {
		a.logger.Debug("article outside window", "url", entry.link, "published", published)
		return nil, true
	}

	if !a.detector.IsRelevant(entry.title, content) {
		a.logger.Debug("article not relevant", "url", entry.link, "title", entry.title)
		return nil, false
	}

	return &types.RawItem{
		Title:       entry.title,
		Body:        content,
		URL:         entry.link,
		PublishedAt: published,
		SourceName:  a.src.Name,
		SourceKind:  types.SourceKindNews,
	}, true
}

// Noise elements stripped before content extraction.
const noiseSelector = "script, style, .social-share, .advertisement, .related-posts, iframe"

// extractArticle pulls the plain-text body via the configured selector,
// falling back to readability extraction when the selector matches nothing.
func (a *NewsAdapter) extractArticle(body []byte, articleURL string) (content, dateText string) {
	if a.src.SelectorKind == "xpath" {
		doc, err := htmlquery.Parse(bytes.NewReader(body))
		if err != nil {
			return "", ""
		}
		if node, err := htmlquery.Query(doc, a.src.ContentSelector); err == nil && node != nil {
			content = collapseSpace(htmlquery.InnerText(node))
		}
		if node, err := htmlquery.Query(doc, a.src.DateSelector); err == nil && node != nil {
			dateText = strings.TrimSpace(htmlquery.InnerText(node))
		}
	} else {
		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
		if err != nil {
			return "", ""
		}
		doc.Find(noiseSelector).Remove()
		content = collapseSpace(doc.Find(a.src.ContentSelector).First().Text())
		dateText = strings.TrimSpace(doc.Find(a.src.DateSelector).First().Text())
	}

	if content == "" {
		content = a.readabilityFallback(body, articleURL)
	}
	return content, dateText
}

// readabilityFallback extracts the main article text without selectors,
// covering sites that restructure their templates.
func (a *NewsAdapter) readabilityFallback(body []byte, articleURL string) string {
	u, err := url.Parse(articleURL)
	if err != nil {
		return ""
	}
	article, err := readability.FromReader(bytes.NewReader(body), u)
	if err != nil {
		a.logger.Debug("readability fallback failed", "url", articleURL, "error", err)
		return ""
	}
	return collapseSpace(article.TextContent)
}

// parseDate tries the source's configured layout first, then lenient
// parsing. A missing or unparsable date fails the item: published_at is
// never fabricated.
func (a *NewsAdapter) parseDate(text string) (time.Time, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return time.Time{}, false
	}
	if a.src.DateFormat != "" {
		if t, err := time.Parse(a.src.DateFormat, text); err == nil {
			return t, true
		}
	}
	if t, err := dateparse.ParseAny(text); err == nil {
		return t, true
	}
	a.logger.Debug("unparseable date", "text", text)
	return time.Time{}, false
}

func resolveURL(base, href string) (string, error) {
	baseURL, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return "", fmt.Errorf("parse href: %w", err)
	}
	resolved := baseURL.ResolveReference(ref)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return "", types.ErrInvalidURL
	}
	return resolved.String(), nil
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
