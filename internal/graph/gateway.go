// Newsfeed - Social Newsfeed Fan-out and Cache Invalidation Service
// Copyright 2026 Omar Ahmed (omar-ahmed42)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/omar-ahmed42/newsfeed

// Package graph provides read access to the friend graph. The friendship
// write path is owned by the relationship service; the fan-out and
// invalidation coordinators only enumerate friends.
package graph

import (
	"context"

	"github.com/omar-ahmed42/newsfeed/internal/models"
)

// Gateway is the read-only interface to the friend graph.
type Gateway interface {
	// Friends returns all friends of user. A user with no friends yields
	// an empty slice, not an error.
	Friends(ctx context.Context, user models.UserID) ([]models.UserID, error)

	// CountFriends returns the number of friends of user.
	CountFriends(ctx context.Context, user models.UserID) (int, error)
}
