// Package store implements the record store behind the pipeline: persisted
// posts and lazily created source identities. Ingestion idempotence rests
// on a uniqueness constraint over the post URL, not on check-then-insert.
package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"ratepulse/internal/types"
)

// RecordStore is the persistence boundary consumed by the pipeline.
type RecordStore interface {
	// FindPostByURL returns the post with the given URL, or nil when absent.
	FindPostByURL(ctx context.Context, url string) (*types.Post, error)

	// CreatePost inserts a post. A URL conflict returns
	// types.ErrDuplicatePost; callers treat it as success-no-op.
	CreatePost(ctx context.Context, post *types.Post) (*types.Post, error)

	// GetOrCreateSource returns the source with the given identity,
	// creating it from the prototype on first sight. Atomic under
	// concurrent adapters.
	GetOrCreateSource(ctx context.Context, proto *types.Source) (*types.Source, error)

	// UpdatePostSentiment writes the sentiment fields of an existing post.
	UpdatePostSentiment(ctx context.Context, id, sentiment string, score, impact float64) error

	// QueryPosts returns posts matching the filter, newest first.
	QueryPosts(ctx context.Context, filter PostFilter) ([]types.Post, error)

	// Close releases backend resources.
	Close(ctx context.Context) error
}

// PostFilter narrows QueryPosts results. Zero values disable a clause.
type PostFilter struct {
	// PublishedSince keeps posts published at or after the given time.
	PublishedSince time.Time

	// ImpactBelow keeps posts with impact strictly below the value
	// (used to select unanalyzed posts for the sentiment backfill).
	ImpactBelow float64

	// ImpactAbove keeps posts with impact strictly above the value
	// (used by the sentiment summary to select analyzed posts).
	ImpactAbove float64

	// Limit caps the result size; 0 means no cap.
	Limit int
}

// PostID derives the stable post identifier from its URL. Deterministic
// IDs keep the mongo and memory backends interchangeable.
func PostID(url string) string {
	h := sha256.Sum256([]byte(url))
	return hex.EncodeToString(h[:12])
}

// SourceID derives the stable source identifier from kind and identity.
func SourceID(kind, identity string) string {
	h := sha256.Sum256([]byte(kind + ":" + identity))
	return hex.EncodeToString(h[:12])
}
