// Newsfeed - Social Newsfeed Fan-out and Cache Invalidation Service
// Copyright 2026 Omar Ahmed (omar-ahmed42)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/omar-ahmed42/newsfeed

// Package poststore provides read access to canonical post records.
// The post write path owns the records; this subsystem only reads them to
// resolve feed references that missed the snapshot cache.
package poststore

import (
	"context"
	"errors"

	"github.com/omar-ahmed42/newsfeed/internal/models"
)

// ErrPostNotFound is returned by Post when no record exists for the id.
// Batch lookups do not return it; absent ids are simply missing from the
// result map.
var ErrPostNotFound = errors.New("post not found")

// Gateway is the read-only interface to the canonical post store.
type Gateway interface {
	// Post returns the record for a single post id.
	Post(ctx context.Context, id models.PostID) (*models.Post, error)

	// Posts batch-fetches records for the given ids. Ids with no record
	// are absent from the result; that is not an error.
	Posts(ctx context.Context, ids []models.PostID) (map[models.PostID]*models.Post, error)
}
