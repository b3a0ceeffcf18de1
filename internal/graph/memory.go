// Newsfeed - Social Newsfeed Fan-out and Cache Invalidation Service
// Copyright 2026 Omar Ahmed (omar-ahmed42)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/omar-ahmed42/newsfeed

package graph

import (
	"context"
	"sort"
	"sync"

	"github.com/omar-ahmed42/newsfeed/internal/models"
)

// MemoryGateway is an in-process Gateway for tests and local development.
type MemoryGateway struct {
	mu      sync.RWMutex
	friends map[models.UserID]map[models.UserID]struct{}
}

// NewMemoryGateway creates an empty in-memory friend graph.
func NewMemoryGateway() *MemoryGateway {
	return &MemoryGateway{friends: make(map[models.UserID]map[models.UserID]struct{})}
}

// Friends returns all friends of user in ascending id order.
func (g *MemoryGateway) Friends(ctx context.Context, user models.UserID) ([]models.UserID, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	set := g.friends[user]
	friends := make([]models.UserID, 0, len(set))
	for f := range set {
		friends = append(friends, f)
	}
	sort.Slice(friends, func(i, j int) bool { return friends[i] < friends[j] })
	return friends, nil
}

// CountFriends returns the number of friends of user.
func (g *MemoryGateway) CountFriends(ctx context.Context, user models.UserID) (int, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.friends[user]), nil
}

// AddFriendship stores both directions of a friendship.
func (g *MemoryGateway) AddFriendship(ctx context.Context, a, b models.UserID) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.addDirected(a, b)
	g.addDirected(b, a)
	return nil
}

// RemoveFriendship removes both directions; absent friendships are a no-op.
func (g *MemoryGateway) RemoveFriendship(ctx context.Context, a, b models.UserID) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	delete(g.friends[a], b)
	delete(g.friends[b], a)
	return nil
}

func (g *MemoryGateway) addDirected(from, to models.UserID) {
	set, ok := g.friends[from]
	if !ok {
		set = make(map[models.UserID]struct{})
		g.friends[from] = set
	}
	set[to] = struct{}{}
}

// Verify interface implementation at compile time
var _ Gateway = (*MemoryGateway)(nil)
