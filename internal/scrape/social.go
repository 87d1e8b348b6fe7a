package scrape

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"ratepulse/internal/config"
	"ratepulse/internal/fetch"
	"ratepulse/internal/relevance"
	"ratepulse/internal/types"
)

// nitterDateLayout matches the title attribute on nitter tweet permalinks.
const nitterDateLayout = "Jan 2, 2006 · 3:04 PM UTC"

// SocialAdapter collects posts from Twitter through nitter mirrors: one
// keyword search pass plus a timeline pass over curated accounts. Curated
// accounts get a lower relevance threshold since they are pre-selected for
// the topic.
type SocialAdapter struct {
	cfg      *config.SocialConfig
	fetcher  fetch.Fetcher
	detector *relevance.Detector
	logger   *slog.Logger

	// mirror is the index of the currently preferred mirror; it advances
	// when a mirror fails and sticks on the first one that works.
	mirror int
}

// NewSocialAdapter builds the social adapter.
func NewSocialAdapter(cfg *config.SocialConfig, fetcher fetch.Fetcher, detector *relevance.Detector, logger *slog.Logger) *SocialAdapter {
	return &SocialAdapter{
		cfg:      cfg,
		fetcher:  fetcher,
		detector: detector,
		logger:   logger.With("component", "social_adapter", "platform", cfg.Platform),
	}
}

// Name identifies the adapter in run results.
func (a *SocialAdapter) Name() string { return a.cfg.Platform }

// Scrape runs the search pass and the account timeline passes, deduplicates
// by content prefix, and returns relevant posts newer than the cutoff.
func (a *SocialAdapter) Scrape(ctx context.Context, cutoff time.Time) (*Result, error) {
	res := &Result{}
	dedup := newPrefixDedup(a.cfg.DedupPrefixLen)

	posts, searchErr := a.search(ctx)
	if searchErr != nil {
		// The account pass may still succeed on another mirror.
		a.logger.Warn("keyword search failed", "error", searchErr)
	} else {
		res.Discovered += len(posts)
		a.collect(res, posts, cutoff, dedup, -1)
	}

	for _, account := range a.cfg.Accounts {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		posts, err := a.timeline(ctx, account)
		if err != nil {
			a.logger.Warn("account timeline failed", "account", account, "error", err)
			continue
		}
		res.Discovered += len(posts)
		a.collect(res, posts, cutoff, dedup, a.cfg.AccountThreshold)
	}

	if res.Discovered == 0 && searchErr != nil {
		return res, searchErr
	}

	a.logger.Info("social pass complete",
		"discovered", res.Discovered,
		"kept", len(res.Items),
		"irrelevant", res.SkippedIrrelevant,
	)
	return res, nil
}

// collect filters raw posts into the result, applying cutoff, the given
// relevance threshold (negative selects the detector's configured default),
// prefix dedup, and the overall result cap.
func (a *SocialAdapter) collect(res *Result, posts []types.RawItem, cutoff time.Time, dedup *prefixDedup, threshold float64) {
	for i := range posts {
		if a.cfg.ResultCap > 0 && len(res.Items) >= a.cfg.ResultCap {
			return
		}
		p := posts[i]
		if p.PublishedAt.Before(cutoff) {
			continue
		}
		if dedup.seen(p.Body) {
			continue
		}

		relevant := false
		if threshold < 0 {
			relevant = a.detector.IsRelevant("", p.Body)
		} else {
			relevant = a.detector.IsRelevantAt("", p.Body, threshold)
		}
		if !relevant {
			res.SkippedIrrelevant++
			continue
		}
		res.Items = append(res.Items, p)
	}
}

// search runs one keyword search across mirrors.
func (a *SocialAdapter) search(ctx context.Context) ([]types.RawItem, error) {
	query := a.buildQuery()
	path := "/search?f=tweets&q=" + url.QueryEscape(query)
	body, err := a.fetchMirrored(ctx, path)
	if err != nil {
		return nil, err
	}
	return a.parseTimeline(body, "")
}

// timeline fetches one account's profile page across mirrors.
func (a *SocialAdapter) timeline(ctx context.Context, account string) ([]types.RawItem, error) {
	body, err := a.fetchMirrored(ctx, "/"+url.PathEscape(account))
	if err != nil {
		return nil, err
	}
	return a.parseTimeline(body, account)
}

// buildQuery joins keywords with OR, quotes phrases, adds the language
// filter, and excludes reposts.
func (a *SocialAdapter) buildQuery() string {
	terms := make([]string, 0, len(a.cfg.Keywords))
	for _, kw := range a.cfg.Keywords {
		if strings.Contains(kw, " ") {
			terms = append(terms, `"`+kw+`"`)
		} else {
			terms = append(terms, kw)
		}
	}
	query := "(" + strings.Join(terms, " OR ") + ") -filter:retweets"
	if a.cfg.Language != "" {
		query += " lang:" + a.cfg.Language
	}
	return query
}

// fetchMirrored tries the current mirror first, advancing through the pool
// on failure. All mirrors failing returns types.ErrMirrorsExhausted.
func (a *SocialAdapter) fetchMirrored(ctx context.Context, path string) ([]byte, error) {
	if len(a.cfg.Mirrors) == 0 {
		return nil, types.ErrMirrorsExhausted
	}

	var lastErr error
	for i := 0; i < len(a.cfg.Mirrors); i++ {
		idx := (a.mirror + i) % len(a.cfg.Mirrors)
		mirror := strings.TrimSuffix(a.cfg.Mirrors[idx], "/")

		result, err := a.fetcher.Fetch(ctx, mirror+path)
		if err != nil {
			a.logger.Warn("mirror failed", "mirror", mirror, "error", err)
			lastErr = err
			continue
		}
		a.mirror = idx
		return result.Body, nil
	}
	return nil, fmt.Errorf("%w: %v", types.ErrMirrorsExhausted, lastErr)
}

// parseTimeline extracts posts from a nitter timeline or search result page.
// account is the handle when parsing a profile page, empty for search.
func (a *SocialAdapter) parseTimeline(body []byte, account string) ([]types.RawItem, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, &types.ExtractError{Err: err}
	}

	followers := 0
	verified := false
	if account != "" {
		followers = parseCount(doc.Find(".profile-stat-num").Eq(2).Text())
		verified = doc.Find(".profile-card .icon-ok.verified").Length() > 0
	}

	var posts []types.RawItem
	doc.Find(".timeline-item").Each(func(_ int, s *goquery.Selection) {
		if s.HasClass("show-more") {
			return
		}
		// Skip reposts on profile timelines.
		if s.Find(".retweet-header").Length() > 0 {
			return
		}

		content := collapseSpace(s.Find(".tweet-content").First().Text())
		if content == "" {
			return
		}

		handle := strings.TrimPrefix(strings.TrimSpace(s.Find(".username").First().Text()), "@")
		if handle == "" {
			handle = account
		}

		dateLink := s.Find(".tweet-date a").First()
		title, ok := dateLink.Attr("title")
		if !ok {
			return
		}
		published, err := time.Parse(nitterDateLayout, title)
		if err != nil {
			// Undatable posts are dropped rather than stamped with now.
			a.logger.Debug("unparseable tweet date", "title", title)
			return
		}

		postURL := a.canonicalURL(dateLink, handle, content)

		eng := &types.Engagement{
			Followers: followers,
			Likes:     parseCount(s.Find(".icon-heart").Parent().Text()),
			Shares:    parseCount(s.Find(".icon-retweet").Parent().Text()),
			Verified:  verified || s.Find(".fullname .icon-ok.verified").Length() > 0,
		}

		posts = append(posts, types.RawItem{
			Body:        content,
			URL:         postURL,
			PublishedAt: published,
			SourceName:  handle,
			SourceKind:  types.SourceKindSocial,
			Account:     handle,
			Platform:    a.cfg.Platform,
			Engagement:  eng,
			Influence:   influenceScore(eng, content),
		})
	})
	return posts, nil
}

// canonicalURL rewrites the nitter permalink onto the canonical platform
// domain so the same post dedups across mirrors. Posts without a permalink
// get a stable synthesized URL from account and content prefix.
func (a *SocialAdapter) canonicalURL(dateLink *goquery.Selection, handle, content string) string {
	if href, ok := dateLink.Attr("href"); ok && href != "" {
		if i := strings.Index(href, "#"); i >= 0 {
			href = href[:i]
		}
		return "https://twitter.com" + href
	}
	prefix := content
	if len(prefix) > 40 {
		prefix = prefix[:40]
	}
	return fmt.Sprintf("https://twitter.com/%s/synthetic/%x", handle, prefix)
}

// influenceScore rates an account's market influence in [0,1] from audience
// size, engagement, verification, and institutional references.
func influenceScore(eng *types.Engagement, content string) float64 {
	score := 0.2

	switch {
	case eng.Followers > 100000:
		score += 0.3
	case eng.Followers > 10000:
		score += 0.2
	case eng.Followers > 1000:
		score += 0.1
	}

	engagement := eng.Likes + 2*eng.Shares
	switch {
	case engagement > 1000:
		score += 0.2
	case engagement > 100:
		score += 0.1
	}

	if eng.Verified {
		score += 0.2
	}

	// +0.1 per distinct institution referenced, capped at 0.2.
	lower := strings.ToLower(content)
	instBonus := 0.0
	for _, inst := range []string{"rbz", "reserve bank", "ministry of finance", "treasury"} {
		if strings.Contains(lower, inst) {
			instBonus += 0.1
		}
	}
	if instBonus > institutionBonusCap {
		instBonus = institutionBonusCap
	}
	score += instBonus

	if score > 1.0 {
		score = 1.0
	}
	return score
}

const institutionBonusCap = 0.2

// parseCount reads nitter stat text like "1,234" or "12.5K" into an int.
func parseCount(s string) int {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return 0
	}
	mult := 1.0
	switch {
	case strings.HasSuffix(s, "K"):
		mult, s = 1000, strings.TrimSuffix(s, "K")
	case strings.HasSuffix(s, "M"):
		mult, s = 1000000, strings.TrimSuffix(s, "M")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return int(math.Round(v * mult))
}

// prefixDedup drops posts whose leading content matches an already seen
// post, catching cross-posted and lightly edited duplicates that have
// distinct URLs.
type prefixDedup struct {
	prefixLen int
	seenSet   map[string]bool
}

func newPrefixDedup(prefixLen int) *prefixDedup {
	if prefixLen <= 0 {
		prefixLen = 100
	}
	return &prefixDedup{prefixLen: prefixLen, seenSet: make(map[string]bool)}
}

func (d *prefixDedup) seen(content string) bool {
	key := strings.ToLower(strings.TrimSpace(content))
	if len(key) > d.prefixLen {
		key = key[:d.prefixLen]
	}
	if d.seenSet[key] {
		return true
	}
	d.seenSet[key] = true
	return false
}
