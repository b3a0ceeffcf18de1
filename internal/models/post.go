// Newsfeed - Social Newsfeed Fan-out and Cache Invalidation Service
// Copyright 2026 Omar Ahmed (omar-ahmed42)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/omar-ahmed42/newsfeed

package models

import "time"

// UserID identifies a user. IDs are assigned by an external id generator.
type UserID int64

// PostID identifies a post. Post IDs are globally unique and monotonically
// increasing, so a higher PostID always means a more recent post. The feed
// ordering and capacity-eviction logic depend on this property; if the id
// generator ever stops being strictly increasing across authors, recency
// ordering breaks.
type PostID int64

// Post is the canonical post record as stored by the post write path.
// The newsfeed subsystem treats the body as opaque: it caches and returns
// whatever the write path stored, keyed by PostID.
type Post struct {
	ID        PostID    `json:"id"`
	AuthorID  UserID    `json:"author_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}
