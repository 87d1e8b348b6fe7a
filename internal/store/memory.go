package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"ratepulse/internal/types"
)

// MemoryStore is an in-memory RecordStore used in tests and for dry runs.
// It enforces the same URL uniqueness and identity semantics as the mongo
// backend.
type MemoryStore struct {
	mu      sync.Mutex
	posts   map[string]*types.Post   // keyed by URL
	sources map[string]*types.Source // keyed by kind:identity
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		posts:   make(map[string]*types.Post),
		sources: make(map[string]*types.Source),
	}
}

// FindPostByURL returns the post with the given URL, or nil when absent.
func (s *MemoryStore) FindPostByURL(_ context.Context, url string) (*types.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.posts[url]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, nil
}

// CreatePost inserts a post, returning types.ErrDuplicatePost on a URL
// conflict. Insert-under-lock mirrors the unique index of the mongo
// backend.
func (s *MemoryStore) CreatePost(_ context.Context, post *types.Post) (*types.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.posts[post.URL]; exists {
		return nil, types.ErrDuplicatePost
	}
	if post.ID == "" {
		post.ID = PostID(post.URL)
	}
	if post.CollectedAt.IsZero() {
		post.CollectedAt = time.Now().UTC()
	}
	cp := *post
	s.posts[post.URL] = &cp
	return post, nil
}

// GetOrCreateSource returns or lazily creates the source identity.
func (s *MemoryStore) GetOrCreateSource(_ context.Context, proto *types.Source) (*types.Source, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := proto.Kind + ":" + proto.Identity()
	if src, ok := s.sources[key]; ok {
		cp := *src
		return &cp, nil
	}

	src := *proto
	src.ID = SourceID(proto.Kind, proto.Identity())
	src.IsActive = true
	src.CreatedAt = time.Now().UTC()
	s.sources[key] = &src
	cp := src
	return &cp, nil
}

// UpdatePostSentiment writes sentiment fields of the identified post.
func (s *MemoryStore) UpdatePostSentiment(_ context.Context, id, sentiment string, score, impact float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.posts {
		if p.ID == id {
			p.Sentiment = sentiment
			p.SentimentScore = score
			p.ImpactScore = impact
			return nil
		}
	}
	return &types.StoreError{Op: "update_sentiment", Err: fmt.Errorf("post %s not found", id)}
}

// QueryPosts returns matching posts sorted newest first.
func (s *MemoryStore) QueryPosts(_ context.Context, filter PostFilter) ([]types.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []types.Post
	for _, p := range s.posts {
		if !filter.PublishedSince.IsZero() && p.PublishedAt.Before(filter.PublishedSince) {
			continue
		}
		if filter.ImpactBelow > 0 && p.ImpactScore >= filter.ImpactBelow {
			continue
		}
		if filter.ImpactAbove > 0 && p.ImpactScore <= filter.ImpactAbove {
			continue
		}
		out = append(out, *p)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].PublishedAt.After(out[j].PublishedAt)
	})

	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

// Close is a no-op for the memory backend.
func (s *MemoryStore) Close(context.Context) error { return nil }

// PostCount reports the number of stored posts (test helper).
func (s *MemoryStore) PostCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.posts)
}

// SourceCount reports the number of stored sources (test helper).
func (s *MemoryStore) SourceCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sources)
}
