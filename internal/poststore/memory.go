// Newsfeed - Social Newsfeed Fan-out and Cache Invalidation Service
// Copyright 2026 Omar Ahmed (omar-ahmed42)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/omar-ahmed42/newsfeed

package poststore

import (
	"context"
	"sync"

	"github.com/omar-ahmed42/newsfeed/internal/models"
)

// MemoryGateway is an in-process Gateway for tests and local development.
type MemoryGateway struct {
	mu    sync.RWMutex
	posts map[models.PostID]*models.Post
}

// NewMemoryGateway creates an empty in-memory post store.
func NewMemoryGateway() *MemoryGateway {
	return &MemoryGateway{posts: make(map[models.PostID]*models.Post)}
}

// Post returns the record for a single post id.
func (g *MemoryGateway) Post(ctx context.Context, id models.PostID) (*models.Post, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	post, ok := g.posts[id]
	if !ok {
		return nil, ErrPostNotFound
	}
	cp := *post
	return &cp, nil
}

// Posts batch-fetches records; absent ids are left out of the result.
func (g *MemoryGateway) Posts(ctx context.Context, ids []models.PostID) (map[models.PostID]*models.Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	g.mu.RLock()
	defer g.mu.RUnlock()

	posts := make(map[models.PostID]*models.Post, len(ids))
	for _, id := range ids {
		if post, ok := g.posts[id]; ok {
			cp := *post
			posts[id] = &cp
		}
	}
	return posts, nil
}

// SavePost stores a post record.
func (g *MemoryGateway) SavePost(ctx context.Context, post *models.Post) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	cp := *post
	g.posts[post.ID] = &cp
	return nil
}

// DeletePost removes a post record; absent ids are a no-op.
func (g *MemoryGateway) DeletePost(ctx context.Context, id models.PostID) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	delete(g.posts, id)
	return nil
}

// Verify interface implementation at compile time
var _ Gateway = (*MemoryGateway)(nil)
