// Newsfeed - Social Newsfeed Fan-out and Cache Invalidation Service
// Copyright 2026 Omar Ahmed (omar-ahmed42)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/omar-ahmed42/newsfeed

package feed

import (
	"context"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/omar-ahmed42/newsfeed/internal/cache"
	"github.com/omar-ahmed42/newsfeed/internal/logging"
	"github.com/omar-ahmed42/newsfeed/internal/metrics"
	"github.com/omar-ahmed42/newsfeed/internal/models"
)

// DefaultSnapshotTTL is the default expiry for cached post bodies.
// Snapshot lifetime is independent of feed entry lifetime: a reference can
// outlive its snapshot (re-fetched on next read) and vice versa.
const DefaultSnapshotTTL = 30 * time.Minute

// SnapshotCache is the opportunistic post body cache, keyed by post id in
// the posts namespace. It is populated lazily by the read path and
// overwritten by the post write path on mutation; it never affects
// correctness, only read latency.
type SnapshotCache struct {
	store cache.Store
	ttl   time.Duration
}

// NewSnapshotCache creates a snapshot cache over the given store.
// A non-positive ttl falls back to DefaultSnapshotTTL.
func NewSnapshotCache(store cache.Store, ttl time.Duration) *SnapshotCache {
	if ttl <= 0 {
		ttl = DefaultSnapshotTTL
	}
	return &SnapshotCache{store: store, ttl: ttl}
}

func snapshotKey(id models.PostID) string {
	return strconv.FormatInt(int64(id), 10)
}

// Get returns the cached body for a post id, or found=false on miss.
// Store errors count as misses: the canonical store is the fallback.
func (c *SnapshotCache) Get(ctx context.Context, id models.PostID) (*models.Post, bool) {
	data, found, err := c.store.Get(ctx, cache.NamespacePosts, snapshotKey(id))
	if err != nil {
		logging.Warn().Err(err).Int64("post_id", int64(id)).Msg("snapshot cache read failed")
		metrics.SnapshotMissesTotal.Inc()
		return nil, false
	}
	if !found {
		metrics.SnapshotMissesTotal.Inc()
		return nil, false
	}

	var post models.Post
	if err := json.Unmarshal(data, &post); err != nil {
		logging.Warn().Err(err).Int64("post_id", int64(id)).Msg("snapshot cache entry corrupt")
		metrics.SnapshotMissesTotal.Inc()
		return nil, false
	}

	metrics.SnapshotHitsTotal.Inc()
	return &post, true
}

// Put caches a post body with the configured TTL. Best-effort: failures are
// logged and swallowed, never propagated to the read path.
func (c *SnapshotCache) Put(ctx context.Context, post *models.Post) {
	data, err := json.Marshal(post)
	if err != nil {
		logging.Warn().Err(err).Int64("post_id", int64(post.ID)).Msg("snapshot marshal failed")
		return
	}
	if err := c.store.PutTTL(ctx, cache.NamespacePosts, snapshotKey(post.ID), data, c.ttl); err != nil {
		logging.Warn().Err(err).Int64("post_id", int64(post.ID)).Msg("snapshot cache write failed")
	}
}

// PutBatch caches a batch of post bodies, best-effort.
func (c *SnapshotCache) PutBatch(ctx context.Context, posts map[models.PostID]*models.Post) {
	for _, post := range posts {
		c.Put(ctx, post)
	}
}

// Evict removes the cached body for a post id. The post write path calls
// this when a post is deleted or rewritten; evicting an absent snapshot is
// a no-op.
func (c *SnapshotCache) Evict(ctx context.Context, id models.PostID) error {
	return c.store.Evict(ctx, cache.NamespacePosts, snapshotKey(id))
}
