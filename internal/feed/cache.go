// Newsfeed - Social Newsfeed Fan-out and Cache Invalidation Service
// Copyright 2026 Omar Ahmed (omar-ahmed42)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/omar-ahmed42/newsfeed

package feed

import (
	"context"
	"fmt"
	"strconv"

	"github.com/omar-ahmed42/newsfeed/internal/cache"
	"github.com/omar-ahmed42/newsfeed/internal/models"
)

// MergeOutcome reports what an atomic push did to a recipient's set.
type MergeOutcome int

const (
	// MergeAdded means the reference was inserted.
	MergeAdded MergeOutcome = iota
	// MergeDuplicate means the reference was already present; no-op.
	MergeDuplicate
	// MergeAddedTrimmed means the reference was inserted and the set was
	// at capacity, so the oldest reference(s) were dropped.
	MergeAddedTrimmed
)

// String returns the outcome name for logs and metrics labels.
func (o MergeOutcome) String() string {
	switch o {
	case MergeAdded:
		return "added"
	case MergeDuplicate:
		return "duplicate"
	case MergeAddedTrimmed:
		return "added_trimmed"
	default:
		return "unknown"
	}
}

// MergeResult is the tagged result of an atomic push: the outcome plus how
// many old references were dropped to respect the capacity bound.
type MergeResult struct {
	Outcome MergeOutcome
	Dropped int
}

// Cache is the per-recipient newsfeed reference cache. Each entry is a
// bounded RefSet stored under the recipient's user id in the newsfeed
// namespace. An absent entry is an empty feed; entries are created lazily
// on first write and never explicitly destroyed.
//
// All mutation goes through the store's atomic Merge, so concurrent fan-out
// into the same recipient can never lose an update.
type Cache struct {
	store cache.Store
}

// NewCache creates a feed cache over the given store.
func NewCache(store cache.Store) *Cache {
	return &Cache{store: store}
}

func feedKey(recipient models.UserID) string {
	return strconv.FormatInt(int64(recipient), 10)
}

// Load returns the recipient's reference set; an absent entry loads as an
// empty set.
func (c *Cache) Load(ctx context.Context, recipient models.UserID) (*RefSet, error) {
	data, found, err := c.store.Get(ctx, cache.NamespaceNewsfeed, feedKey(recipient))
	if err != nil {
		return nil, fmt.Errorf("load feed %d: %w", recipient, err)
	}
	if !found {
		return NewRefSet(), nil
	}
	set, err := DecodeRefSet(data)
	if err != nil {
		return nil, fmt.Errorf("load feed %d: %w", recipient, err)
	}
	return set, nil
}

// Push atomically inserts ref into the recipient's set, enforcing
// uniqueness by post id and the capacity bound. Safe to repeat: a
// redelivered event reports MergeDuplicate and changes nothing.
func (c *Cache) Push(ctx context.Context, recipient models.UserID, ref PostRef) (MergeResult, error) {
	var result MergeResult

	err := c.store.Merge(ctx, cache.NamespaceNewsfeed, feedKey(recipient),
		func(old []byte, found bool) ([]byte, error) {
			set, err := DecodeRefSet(old)
			if err != nil {
				return nil, err
			}

			added, dropped := set.Insert(ref)
			if !added {
				result = MergeResult{Outcome: MergeDuplicate}
				return old, nil
			}
			if dropped > 0 {
				result = MergeResult{Outcome: MergeAddedTrimmed, Dropped: dropped}
			} else {
				result = MergeResult{Outcome: MergeAdded}
			}
			return set.Encode()
		})
	if err != nil {
		return MergeResult{}, fmt.Errorf("push to feed %d: %w", recipient, err)
	}
	return result, nil
}

// RemovePost atomically removes the single reference with ref's post id
// from the recipient's set. Removing an absent reference is a no-op;
// returns whether anything was removed.
func (c *Cache) RemovePost(ctx context.Context, recipient models.UserID, postID models.PostID) (bool, error) {
	removed := false

	err := c.store.Merge(ctx, cache.NamespaceNewsfeed, feedKey(recipient),
		func(old []byte, found bool) ([]byte, error) {
			if !found {
				return nil, nil
			}
			set, err := DecodeRefSet(old)
			if err != nil {
				return nil, err
			}
			if removed = set.Remove(postID); !removed {
				return old, nil
			}
			return set.Encode()
		})
	if err != nil {
		return false, fmt.Errorf("remove post %d from feed %d: %w", postID, recipient, err)
	}
	return removed, nil
}

// RemoveAuthor atomically removes every reference authored by author from
// the recipient's set and returns how many were removed. Idempotent:
// repeating the removal removes nothing further.
func (c *Cache) RemoveAuthor(ctx context.Context, recipient, author models.UserID) (int, error) {
	removed := 0

	err := c.store.Merge(ctx, cache.NamespaceNewsfeed, feedKey(recipient),
		func(old []byte, found bool) ([]byte, error) {
			if !found {
				return nil, nil
			}
			set, err := DecodeRefSet(old)
			if err != nil {
				return nil, err
			}
			if removed = set.RemoveByAuthor(author); removed == 0 {
				return old, nil
			}
			return set.Encode()
		})
	if err != nil {
		return 0, fmt.Errorf("remove author %d from feed %d: %w", author, recipient, err)
	}
	return removed, nil
}
