package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"ratepulse/internal/types"
)

func TestMemoryStoreCreateAndFind(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	post := &types.Post{
		SourceType:  types.SourceKindNews,
		NewsSource:  "The Herald",
		Title:       "Zimbabwe dollar falls",
		Content:     "body",
		URL:         "https://herald.test/a",
		PublishedAt: time.Now().UTC(),
	}

	created, err := s.CreatePost(ctx, post)
	if err != nil {
		t.Fatalf("CreatePost: %v", err)
	}
	if created.ID == "" {
		t.Error("created post has no ID")
	}
	if created.CollectedAt.IsZero() {
		t.Error("CollectedAt not set")
	}

	found, err := s.FindPostByURL(ctx, post.URL)
	if err != nil {
		t.Fatalf("FindPostByURL: %v", err)
	}
	if found == nil || found.ID != created.ID {
		t.Errorf("found = %+v", found)
	}

	missing, err := s.FindPostByURL(ctx, "https://herald.test/none")
	if err != nil {
		t.Fatalf("FindPostByURL(missing): %v", err)
	}
	if missing != nil {
		t.Errorf("missing URL returned %+v", missing)
	}
}

func TestMemoryStoreDuplicateURL(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	p1 := &types.Post{URL: "https://herald.test/a", Content: "x"}
	if _, err := s.CreatePost(ctx, p1); err != nil {
		t.Fatalf("first create: %v", err)
	}

	p2 := &types.Post{URL: "https://herald.test/a", Content: "y"}
	_, err := s.CreatePost(ctx, p2)
	if !errors.Is(err, types.ErrDuplicatePost) {
		t.Fatalf("duplicate create err = %v, want ErrDuplicatePost", err)
	}
	if s.PostCount() != 1 {
		t.Errorf("PostCount = %d, want 1", s.PostCount())
	}
}

func TestMemoryStoreGetOrCreateSource(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	proto := &types.Source{
		Kind:      types.SourceKindSocial,
		Name:      "ReserveBankZIM",
		Platform:  "Twitter",
		AccountID: "ReserveBankZIM",
		Influence: 0.9,
	}

	first, err := s.GetOrCreateSource(ctx, proto)
	if err != nil {
		t.Fatalf("GetOrCreateSource: %v", err)
	}
	if !first.IsActive {
		t.Error("new source not active")
	}

	again, err := s.GetOrCreateSource(ctx, proto)
	if err != nil {
		t.Fatalf("second GetOrCreateSource: %v", err)
	}
	if again.ID != first.ID {
		t.Errorf("IDs differ: %q vs %q", again.ID, first.ID)
	}
	if s.SourceCount() != 1 {
		t.Errorf("SourceCount = %d, want 1", s.SourceCount())
	}
}

func TestMemoryStoreUpdateSentiment(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	created, err := s.CreatePost(ctx, &types.Post{URL: "https://x.test/1", Content: "c"})
	if err != nil {
		t.Fatalf("CreatePost: %v", err)
	}

	if err := s.UpdatePostSentiment(ctx, created.ID, types.SentimentNegative, -0.4, 0.7); err != nil {
		t.Fatalf("UpdatePostSentiment: %v", err)
	}

	found, _ := s.FindPostByURL(ctx, "https://x.test/1")
	if found.Sentiment != types.SentimentNegative || found.SentimentScore != -0.4 || found.ImpactScore != 0.7 {
		t.Errorf("post after update = %+v", found)
	}

	if err := s.UpdatePostSentiment(ctx, "no-such-id", "neutral", 0, 0); err == nil {
		t.Error("update of missing post succeeded")
	}
}

func TestMemoryStoreQueryPosts(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	now := time.Now().UTC()

	for i, p := range []*types.Post{
		{URL: "https://x.test/old", PublishedAt: now.AddDate(0, 0, -30)},
		{URL: "https://x.test/mid", PublishedAt: now.AddDate(0, 0, -3)},
		{URL: "https://x.test/new", PublishedAt: now.AddDate(0, 0, -1)},
	} {
		if _, err := s.CreatePost(ctx, p); err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
	}

	posts, err := s.QueryPosts(ctx, PostFilter{PublishedSince: now.AddDate(0, 0, -7)})
	if err != nil {
		t.Fatalf("QueryPosts: %v", err)
	}
	if len(posts) != 2 {
		t.Fatalf("len = %d, want 2", len(posts))
	}
	if posts[0].URL != "https://x.test/new" {
		t.Errorf("not sorted newest first: %q", posts[0].URL)
	}

	limited, err := s.QueryPosts(ctx, PostFilter{Limit: 1})
	if err != nil {
		t.Fatalf("QueryPosts(limit): %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("limited len = %d, want 1", len(limited))
	}
}

func TestMemoryStoreQueryByImpact(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	low, _ := s.CreatePost(ctx, &types.Post{URL: "https://x.test/low"})
	high, _ := s.CreatePost(ctx, &types.Post{URL: "https://x.test/high"})
	s.UpdatePostSentiment(ctx, low.ID, "neutral", 0, 0.1)
	s.UpdatePostSentiment(ctx, high.ID, "negative", -0.5, 0.8)

	below, err := s.QueryPosts(ctx, PostFilter{ImpactBelow: 0.2})
	if err != nil {
		t.Fatalf("QueryPosts: %v", err)
	}
	if len(below) != 1 || below[0].URL != "https://x.test/low" {
		t.Errorf("ImpactBelow result = %+v", below)
	}

	above, err := s.QueryPosts(ctx, PostFilter{ImpactAbove: 0.2})
	if err != nil {
		t.Fatalf("QueryPosts: %v", err)
	}
	if len(above) != 1 || above[0].URL != "https://x.test/high" {
		t.Errorf("ImpactAbove result = %+v", above)
	}
}

func TestDeterministicIDs(t *testing.T) {
	if PostID("https://x.test/a") != PostID("https://x.test/a") {
		t.Error("PostID not deterministic")
	}
	if PostID("https://x.test/a") == PostID("https://x.test/b") {
		t.Error("distinct URLs share an ID")
	}
	if SourceID("news", "The Herald") == SourceID("social", "The Herald") {
		t.Error("distinct kinds share an ID")
	}
}
