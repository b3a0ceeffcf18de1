// Newsfeed - Social Newsfeed Fan-out and Cache Invalidation Service
// Copyright 2026 Omar Ahmed (omar-ahmed42)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/omar-ahmed42/newsfeed

package eventprocessor

import (
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/omar-ahmed42/newsfeed/internal/feed"
	"github.com/omar-ahmed42/newsfeed/internal/graph"
	"github.com/omar-ahmed42/newsfeed/internal/logging"
	"github.com/omar-ahmed42/newsfeed/internal/metrics"
)

// Handler names for the invalidation consumers.
const (
	FriendRemovedHandlerName = "invalidation-friend-removed"
	PostDeletedHandlerName   = "invalidation-post-deleted"
	UserDeletedHandlerName   = "invalidation-user-deleted"
)

// InvalidationHandler consumes friend-removed, post-deleted and
// user-deleted events and prunes the affected newsfeed cache entries.
// Every removal is a set difference: an absent entry or reference is
// success, which makes all three handlers safe under at-least-once
// redelivery.
type InvalidationHandler struct {
	graph      graph.Gateway
	feeds      *feed.Cache
	snapshots  *feed.SnapshotCache
	serializer *Serializer
}

// NewInvalidationHandler creates an invalidation handler. The snapshot
// cache may be nil; snapshot eviction on post deletion is best-effort.
func NewInvalidationHandler(g graph.Gateway, feeds *feed.Cache, snapshots *feed.SnapshotCache) *InvalidationHandler {
	return &InvalidationHandler{
		graph:      g,
		feeds:      feeds,
		snapshots:  snapshots,
		serializer: NewSerializer(),
	}
}

// HandleFriendRemoved removes every reference authored by the removed
// friend from the target's feed. Unfriend is symmetric at the producer:
// the mirror direction arrives as its own event, so this handler only
// applies the one direction it was given.
func (h *InvalidationHandler) HandleFriendRemoved(msg *message.Message) error {
	var event FriendRemoved
	if err := h.serializer.Unmarshal(msg.Payload, &event); err != nil {
		return NewPermanentError("decode friend-removed event", err)
	}

	removed, err := h.feeds.RemoveAuthor(msg.Context(), event.TargetID, event.SourceID)
	if err != nil {
		return NewRetryableError("remove author references", err)
	}

	metrics.RecordInvalidation("friend_removed", removed)

	logging.Debug().
		Str("event_id", event.EventID).
		Int64("target_id", int64(event.TargetID)).
		Int64("source_id", int64(event.SourceID)).
		Int("removed", removed).
		Msg("Friend-removed invalidation complete")

	return nil
}

// HandlePostDeleted removes the single reference from every friend's feed
// and drops the post's snapshot so readers cannot serve a deleted body.
func (h *InvalidationHandler) HandlePostDeleted(msg *message.Message) error {
	var event PostDeleted
	if err := h.serializer.Unmarshal(msg.Payload, &event); err != nil {
		return NewPermanentError("decode post-deleted event", err)
	}

	friends, err := h.graph.Friends(msg.Context(), event.AuthorID)
	if err != nil {
		return NewRetryableError("list friends", err)
	}

	removed := 0
	for _, friendID := range friends {
		ok, err := h.feeds.RemovePost(msg.Context(), friendID, event.PostID)
		if err != nil {
			return NewRetryableError("remove post reference", err)
		}
		if ok {
			removed++
		}
	}

	if h.snapshots != nil {
		if err := h.snapshots.Evict(msg.Context(), event.PostID); err != nil {
			logging.Warn().Err(err).
				Int64("post_id", int64(event.PostID)).
				Msg("Failed to evict post snapshot")
		}
	}

	metrics.RecordInvalidation("post_deleted", removed)

	logging.Debug().
		Str("event_id", event.EventID).
		Int64("author_id", int64(event.AuthorID)).
		Int64("post_id", int64(event.PostID)).
		Int("removed", removed).
		Msg("Post-deleted invalidation complete")

	return nil
}

// HandleUserDeleted removes every reference authored by the deleted user
// from each former friend's feed. The deleted user's own entry is left in
// place; it can never be read again and ages out with the cache.
func (h *InvalidationHandler) HandleUserDeleted(msg *message.Message) error {
	var event UserDeleted
	if err := h.serializer.Unmarshal(msg.Payload, &event); err != nil {
		return NewPermanentError("decode user-deleted event", err)
	}

	friends, err := h.graph.Friends(msg.Context(), event.UserID)
	if err != nil {
		return NewRetryableError("list friends", err)
	}

	removed := 0
	for _, friendID := range friends {
		n, err := h.feeds.RemoveAuthor(msg.Context(), friendID, event.UserID)
		if err != nil {
			return NewRetryableError("remove author references", err)
		}
		removed += n
	}

	metrics.RecordInvalidation("user_deleted", removed)

	logging.Debug().
		Str("event_id", event.EventID).
		Int64("user_id", int64(event.UserID)).
		Int("friends", len(friends)).
		Int("removed", removed).
		Msg("User-deleted invalidation complete")

	return nil
}
