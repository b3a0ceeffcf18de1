// Newsfeed - Social Newsfeed Fan-out and Cache Invalidation Service
// Copyright 2026 Omar Ahmed (omar-ahmed42)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/omar-ahmed42/newsfeed

package feed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/omar-ahmed42/newsfeed/internal/logging"
	"github.com/omar-ahmed42/newsfeed/internal/metrics"
	"github.com/omar-ahmed42/newsfeed/internal/models"
	"github.com/omar-ahmed42/newsfeed/internal/poststore"
)

// DefaultStoreTimeout bounds the post store batch call on the read path.
const DefaultStoreTimeout = 2 * time.Second

// FeedPage is the result of a newsfeed read.
//
// Partial is set when the post store batch lookup timed out or failed and
// only snapshot-cached posts could be resolved; the caller may retry for
// the full feed.
type FeedPage struct {
	Posts   []*models.Post `json:"posts"`
	Partial bool           `json:"partial,omitempty"`
}

// Reader serves newsfeed reads: authorize, resolve cached references to
// post bodies through the snapshot cache, batch-fetch misses from the
// canonical store, and repopulate the snapshot cache.
type Reader struct {
	feeds        *Cache
	snapshots    *SnapshotCache
	posts        poststore.Gateway
	storeTimeout time.Duration
}

// NewReader creates a reader. A non-positive storeTimeout falls back to
// DefaultStoreTimeout.
func NewReader(feeds *Cache, snapshots *SnapshotCache, posts poststore.Gateway, storeTimeout time.Duration) *Reader {
	if storeTimeout <= 0 {
		storeTimeout = DefaultStoreTimeout
	}
	return &Reader{
		feeds:        feeds,
		snapshots:    snapshots,
		posts:        posts,
		storeTimeout: storeTimeout,
	}
}

// GetNewsfeed returns userID's feed, newest post first.
//
// Only the feed's owner may read it: requesterID must equal userID or the
// call fails with ErrForbidden before any cache access.
//
// Output order follows the descending-post-id order of the cached
// reference set; the snapshot/store merge never re-sorts. References whose
// post no longer exists in the canonical store are filtered from the
// output but deliberately left in the cache: the eviction event for them
// was lost or not yet delivered, and this subsystem does not second-guess
// the event path. The gap surfaces as transient undercounting and is
// tracked by the stale-refs metric.
func (r *Reader) GetNewsfeed(ctx context.Context, requesterID, userID models.UserID) (*FeedPage, error) {
	start := time.Now()

	if requesterID != userID {
		metrics.RecordRead("forbidden", time.Since(start))
		return nil, fmt.Errorf("requester %d reading feed of %d: %w", requesterID, userID, ErrForbidden)
	}

	set, err := r.feeds.Load(ctx, userID)
	if err != nil {
		metrics.RecordRead("error", time.Since(start))
		return nil, err
	}

	refs := set.Refs()
	resolved := make(map[models.PostID]*models.Post, len(refs))
	var missed []models.PostID

	for _, ref := range refs {
		if post, ok := r.snapshots.Get(ctx, ref.PostID); ok {
			resolved[ref.PostID] = post
		} else {
			missed = append(missed, ref.PostID)
		}
	}

	partial := false
	fetched := true
	if len(missed) > 0 {
		storeCtx, cancel := context.WithTimeout(ctx, r.storeTimeout)
		posts, err := r.posts.Posts(storeCtx, missed)
		cancel()

		switch {
		case err == nil:
			r.snapshots.PutBatch(ctx, posts)
			for id, post := range posts {
				resolved[id] = post
			}
		case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
			// Serve what the snapshot cache resolved instead of failing
			// the whole read.
			logging.Warn().Err(err).
				Int64("user_id", int64(userID)).
				Int("missed", len(missed)).
				Msg("post store batch timed out, serving partial feed")
			partial = true
			fetched = false
		default:
			logging.Error().Err(err).
				Int64("user_id", int64(userID)).
				Int("missed", len(missed)).
				Msg("post store batch failed, serving partial feed")
			partial = true
			fetched = false
		}
	}

	page := &FeedPage{Posts: make([]*models.Post, 0, len(resolved)), Partial: partial}
	stale := 0
	for _, ref := range refs {
		post, ok := resolved[ref.PostID]
		if !ok {
			if fetched {
				// The store answered and has no such post: a stale
				// reference whose eviction event never arrived.
				stale++
			}
			continue
		}
		page.Posts = append(page.Posts, post)
	}

	if stale > 0 {
		metrics.ReadStaleRefsTotal.Add(float64(stale))
		logging.Debug().
			Int64("user_id", int64(userID)).
			Int("stale_refs", stale).
			Msg("filtered stale feed references")
	}

	result := "ok"
	if partial {
		result = "partial"
	}
	metrics.RecordRead(result, time.Since(start))
	return page, nil
}
