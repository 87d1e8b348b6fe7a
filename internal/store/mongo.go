package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"ratepulse/internal/config"
	"ratepulse/internal/types"
)

// MongoStore implements RecordStore on MongoDB. A unique index on the post
// URL makes CreatePost race-free under concurrent adapters.
type MongoStore struct {
	client  *mongo.Client
	posts   *mongo.Collection
	sources *mongo.Collection
	timeout time.Duration
	logger  *slog.Logger
}

// NewMongoStore connects to MongoDB and ensures the required indexes.
func NewMongoStore(ctx context.Context, cfg *config.StorageConfig, logger *slog.Logger) (*MongoStore, error) {
	connectCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("mongodb connect: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		return nil, fmt.Errorf("mongodb ping: %w", err)
	}

	s := &MongoStore{
		client:  client,
		posts:   client.Database(cfg.Database).Collection(cfg.PostsCollection),
		sources: client.Database(cfg.Database).Collection(cfg.SourcesCollection),
		timeout: cfg.Timeout,
		logger:  logger.With("component", "mongo_store"),
	}

	if err := s.ensureIndexes(connectCtx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *MongoStore) ensureIndexes(ctx context.Context) error {
	_, err := s.posts.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "url", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create posts url index: %w", err)
	}

	_, err = s.sources.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "kind", Value: 1}, {Key: "identity", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create sources identity index: %w", err)
	}
	return nil
}

// FindPostByURL returns the post with the given URL, or nil when absent.
func (s *MongoStore) FindPostByURL(ctx context.Context, url string) (*types.Post, error) {
	opCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var post types.Post
	err := s.posts.FindOne(opCtx, bson.M{"url": url}).Decode(&post)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, &types.StoreError{Op: "find_post", Err: err}
	}
	return &post, nil
}

// CreatePost inserts the post, mapping a duplicate-key error on the URL
// index to types.ErrDuplicatePost.
func (s *MongoStore) CreatePost(ctx context.Context, post *types.Post) (*types.Post, error) {
	opCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if post.ID == "" {
		post.ID = PostID(post.URL)
	}
	if post.CollectedAt.IsZero() {
		post.CollectedAt = time.Now().UTC()
	}

	_, err := s.posts.InsertOne(opCtx, post)
	if mongo.IsDuplicateKeyError(err) {
		return nil, types.ErrDuplicatePost
	}
	if err != nil {
		return nil, &types.StoreError{Op: "create_post", Err: err}
	}
	return post, nil
}

// GetOrCreateSource upserts by (kind, identity) with $setOnInsert, so
// concurrent callers converge on a single document.
func (s *MongoStore) GetOrCreateSource(ctx context.Context, proto *types.Source) (*types.Source, error) {
	opCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	identity := proto.Identity()
	insert := bson.M{
		"_id":        SourceID(proto.Kind, identity),
		"kind":       proto.Kind,
		"identity":   identity,
		"name":       proto.Name,
		"url":        proto.URL,
		"platform":   proto.Platform,
		"account_id": proto.AccountID,
		"influence":  proto.Influence,
		"is_active":  true,
		"created_at": time.Now().UTC(),
	}

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var src types.Source
	err := s.sources.FindOneAndUpdate(opCtx,
		bson.M{"kind": proto.Kind, "identity": identity},
		bson.M{"$setOnInsert": insert},
		opts,
	).Decode(&src)
	if err != nil {
		return nil, &types.StoreError{Op: "get_or_create_source", Err: err}
	}
	return &src, nil
}

// UpdatePostSentiment writes the three sentiment fields of one post.
func (s *MongoStore) UpdatePostSentiment(ctx context.Context, id, sentiment string, score, impact float64) error {
	opCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	res, err := s.posts.UpdateOne(opCtx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"sentiment":       sentiment,
			"sentiment_score": score,
			"impact_score":    impact,
		}},
	)
	if err != nil {
		return &types.StoreError{Op: "update_sentiment", Err: err}
	}
	if res.MatchedCount == 0 {
		return &types.StoreError{Op: "update_sentiment", Err: mongo.ErrNoDocuments}
	}
	return nil
}

// QueryPosts returns matching posts sorted newest first.
func (s *MongoStore) QueryPosts(ctx context.Context, filter PostFilter) ([]types.Post, error) {
	opCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	q := bson.M{}
	if !filter.PublishedSince.IsZero() {
		q["published_at"] = bson.M{"$gte": filter.PublishedSince}
	}
	if filter.ImpactBelow > 0 {
		q["impact_score"] = bson.M{"$lt": filter.ImpactBelow}
	}
	if filter.ImpactAbove > 0 {
		q["impact_score"] = bson.M{"$gt": filter.ImpactAbove}
	}

	opts := options.Find().SetSort(bson.D{{Key: "published_at", Value: -1}})
	if filter.Limit > 0 {
		opts = opts.SetLimit(int64(filter.Limit))
	}

	cursor, err := s.posts.Find(opCtx, q, opts)
	if err != nil {
		return nil, &types.StoreError{Op: "query_posts", Err: err}
	}
	defer cursor.Close(opCtx)

	var posts []types.Post
	if err := cursor.All(opCtx, &posts); err != nil {
		return nil, &types.StoreError{Op: "query_posts", Err: err}
	}
	return posts, nil
}

// Close disconnects from MongoDB.
func (s *MongoStore) Close(ctx context.Context) error {
	opCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.client.Disconnect(opCtx)
}
