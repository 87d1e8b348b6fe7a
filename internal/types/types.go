package types

import (
	"time"
)

// Source kinds.
const (
	SourceKindNews   = "news"
	SourceKindSocial = "social"
)

// Sentiment labels.
const (
	SentimentPositive = "positive"
	SentimentNeutral  = "neutral"
	SentimentNegative = "negative"
)

// Task progress statuses reported to the external orchestrator.
const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Engagement holds audience and interaction counts for a social post.
type Engagement struct {
	Followers int  `bson:"followers" json:"followers"`
	Likes     int  `bson:"likes"     json:"likes"`
	Shares    int  `bson:"shares"    json:"shares"`
	Verified  bool `bson:"verified"  json:"verified"`
}

// RawItem is an in-memory, not-yet-persisted article or post produced by a
// source adapter. It is consumed by the pipeline and never stored as-is.
type RawItem struct {
	// Title is the headline (empty for social posts).
	Title string

	// Body is the extracted plain-text content.
	Body string

	// URL is the canonical item URL; it is the dedup key at the store.
	URL string

	// PublishedAt is the item's publication time.
	PublishedAt time.Time

	// SourceName identifies the configured source that produced the item.
	SourceName string

	// SourceKind is "news" or "social".
	SourceKind string

	// Account is the platform account handle (social only).
	Account string

	// Platform is the social platform name (social only).
	Platform string

	// Engagement carries audience metrics (social only, nil for news).
	Engagement *Engagement

	// Influence is the computed influence score in [0,1] (social only).
	Influence float64
}

// Text returns the title and body joined for scoring.
func (r *RawItem) Text() string {
	if r.Title == "" {
		return r.Body
	}
	return r.Title + " " + r.Body
}

// Post is the persisted record backing the rate-prediction dataset.
// Exactly one of NewsSource/SocialSource is set, matching SourceType.
type Post struct {
	ID             string    `bson:"_id,omitempty"   json:"id"`
	SourceType     string    `bson:"source_type"     json:"source_type"`
	NewsSource     string    `bson:"news_source,omitempty"   json:"news_source,omitempty"`
	SocialSource   string    `bson:"social_source,omitempty" json:"social_source,omitempty"`
	Title          string    `bson:"title,omitempty" json:"title,omitempty"`
	Content        string    `bson:"content"         json:"content"`
	URL            string    `bson:"url"             json:"url"`
	PublishedAt    time.Time `bson:"published_at"    json:"published_at"`
	CollectedAt    time.Time `bson:"collected_at"    json:"collected_at"`
	Sentiment      string    `bson:"sentiment"       json:"sentiment"`
	SentimentScore float64   `bson:"sentiment_score" json:"sentiment_score"`
	ImpactScore    float64   `bson:"impact_score"    json:"impact_score"`
}

// Source is a persisted news or social source identity, created lazily the
// first time an item references it.
type Source struct {
	ID        string    `bson:"_id,omitempty" json:"id"`
	Kind      string    `bson:"kind"          json:"kind"`
	Name      string    `bson:"name"          json:"name"`
	URL       string    `bson:"url,omitempty" json:"url,omitempty"`
	Platform  string    `bson:"platform,omitempty"   json:"platform,omitempty"`
	AccountID string    `bson:"account_id,omitempty" json:"account_id,omitempty"`
	Influence float64   `bson:"influence"     json:"influence"`
	IsActive  bool      `bson:"is_active"     json:"is_active"`
	CreatedAt time.Time `bson:"created_at"    json:"created_at"`
}

// Identity returns the key used for get-or-create lookups.
func (s *Source) Identity() string {
	if s.Kind == SourceKindSocial {
		return s.Platform + "/" + s.AccountID
	}
	return s.Name
}

// RunResult summarizes one pipeline run. It is ephemeral and feeds the
// external progress reporter.
type RunResult struct {
	ItemsDiscovered   int
	ItemsSaved        int
	SkippedDuplicate  int
	SkippedIrrelevant int
	PostsScored       int
	Errors            []error
	Started           time.Time
	Finished          time.Time
}

// HasErrors reports whether any source failed during the run.
func (r *RunResult) HasErrors() bool { return len(r.Errors) > 0 }

// SentimentSummary aggregates sentiment over a window of scored posts.
type SentimentSummary struct {
	Overall        string  `json:"overall"`
	SentimentScore float64 `json:"sentiment_score"`
	AverageImpact  float64 `json:"average_impact"`
	PositiveRatio  float64 `json:"positive_ratio"`
	NegativeRatio  float64 `json:"negative_ratio"`
	NeutralRatio   float64 `json:"neutral_ratio"`
	PostCount      int     `json:"post_count"`
	HighImpact     int     `json:"high_impact"`
}
