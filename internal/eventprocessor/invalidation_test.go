// Newsfeed - Social Newsfeed Fan-out and Cache Invalidation Service
// Copyright 2026 Omar Ahmed (omar-ahmed42)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/omar-ahmed42/newsfeed

package eventprocessor

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/omar-ahmed42/newsfeed/internal/cache"
	"github.com/omar-ahmed42/newsfeed/internal/feed"
	"github.com/omar-ahmed42/newsfeed/internal/graph"
	"github.com/omar-ahmed42/newsfeed/internal/models"
)

func rawMessage(payload []byte) *message.Message {
	return message.NewMessage(watermill.NewUUID(), payload)
}

type invalidationFixture struct {
	graph        *graph.MemoryGateway
	feeds        *feed.Cache
	snapshots    *feed.SnapshotCache
	invalidation *InvalidationHandler
}

func newInvalidationFixture(t *testing.T) *invalidationFixture {
	t.Helper()
	store, err := cache.NewMemoryStore(cache.Namespaces())
	if err != nil {
		t.Fatalf("NewMemoryStore() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })

	f := &invalidationFixture{
		graph:     graph.NewMemoryGateway(),
		feeds:     feed.NewCache(store),
		snapshots: feed.NewSnapshotCache(store, time.Minute),
	}
	f.invalidation = NewInvalidationHandler(f.graph, f.feeds, f.snapshots)
	return f
}

func (f *invalidationFixture) push(t *testing.T, recipient models.UserID, author models.UserID, post models.PostID) {
	t.Helper()
	if _, err := f.feeds.Push(context.Background(), recipient, feed.PostRef{AuthorID: author, PostID: post}); err != nil {
		t.Fatalf("Push() error = %v", err)
	}
}

func TestFriendRemovedPrunesOneDirection(t *testing.T) {
	ctx := context.Background()
	f := newInvalidationFixture(t)

	// Target 7 follows authors 1 and 2; author 1 is being unfriended.
	f.push(t, 7, 1, 10)
	f.push(t, 7, 2, 20)
	f.push(t, 7, 1, 30)
	// Author 1's own feed contains target 7's posts; the mirror
	// direction arrives as its own event and is not handled here.
	f.push(t, 1, 7, 40)

	msg := eventMessage(t, NewFriendRemoved(7, 1))
	if err := f.invalidation.HandleFriendRemoved(msg); err != nil {
		t.Fatalf("HandleFriendRemoved() error = %v", err)
	}

	set, _ := f.feeds.Load(ctx, 7)
	if set.Len() != 1 || !set.Contains(20) {
		t.Errorf("target feed = %v, want only post 20", set.Refs())
	}

	mirror, _ := f.feeds.Load(ctx, 1)
	if !mirror.Contains(40) {
		t.Error("mirror direction was pruned; it must arrive as its own event")
	}

	// Redelivery removes nothing further and still succeeds.
	if err := f.invalidation.HandleFriendRemoved(eventMessage(t, NewFriendRemoved(7, 1))); err != nil {
		t.Errorf("redelivered HandleFriendRemoved() error = %v", err)
	}
}

func TestPostDeletedPrunesAllFriends(t *testing.T) {
	ctx := context.Background()
	f := newInvalidationFixture(t)

	author := models.UserID(1)
	f.graph.AddFriendship(ctx, author, 2)
	f.graph.AddFriendship(ctx, author, 3)

	f.push(t, 2, author, 100)
	f.push(t, 2, author, 200)
	f.push(t, 3, author, 100)
	f.snapshots.Put(ctx, &models.Post{ID: 100, AuthorID: author, Content: "gone"})

	msg := eventMessage(t, NewPostDeleted(author, 100))
	if err := f.invalidation.HandlePostDeleted(msg); err != nil {
		t.Fatalf("HandlePostDeleted() error = %v", err)
	}

	for _, friendID := range []models.UserID{2, 3} {
		set, _ := f.feeds.Load(ctx, friendID)
		if set.Contains(100) {
			t.Errorf("friend %d still references deleted post 100", friendID)
		}
	}
	set, _ := f.feeds.Load(ctx, 2)
	if !set.Contains(200) {
		t.Error("unrelated reference was removed")
	}

	if _, ok := f.snapshots.Get(ctx, 100); ok {
		t.Error("snapshot still cached after post deletion")
	}

	if err := f.invalidation.HandlePostDeleted(eventMessage(t, NewPostDeleted(author, 100))); err != nil {
		t.Errorf("redelivered HandlePostDeleted() error = %v", err)
	}
}

func TestUserDeletedPrunesAllAuthored(t *testing.T) {
	ctx := context.Background()
	f := newInvalidationFixture(t)

	gone := models.UserID(1)
	f.graph.AddFriendship(ctx, gone, 2)
	f.graph.AddFriendship(ctx, gone, 3)

	f.push(t, 2, gone, 10)
	f.push(t, 2, 9, 20)
	f.push(t, 3, gone, 30)
	f.push(t, 3, gone, 40)

	msg := eventMessage(t, NewUserDeleted(gone))
	if err := f.invalidation.HandleUserDeleted(msg); err != nil {
		t.Fatalf("HandleUserDeleted() error = %v", err)
	}

	set2, _ := f.feeds.Load(ctx, 2)
	if set2.Len() != 1 || !set2.Contains(20) {
		t.Errorf("friend 2 feed = %v, want only post 20", set2.Refs())
	}
	set3, _ := f.feeds.Load(ctx, 3)
	if set3.Len() != 0 {
		t.Errorf("friend 3 feed = %v, want empty", set3.Refs())
	}

	if err := f.invalidation.HandleUserDeleted(eventMessage(t, NewUserDeleted(gone))); err != nil {
		t.Errorf("redelivered HandleUserDeleted() error = %v", err)
	}
}

func TestInvalidationMalformedPayloads(t *testing.T) {
	f := newInvalidationFixture(t)

	for name, handle := range map[string]func([]byte) error{
		"friend-removed": func(p []byte) error {
			return f.invalidation.HandleFriendRemoved(rawMessage(p))
		},
		"post-deleted": func(p []byte) error {
			return f.invalidation.HandlePostDeleted(rawMessage(p))
		},
		"user-deleted": func(p []byte) error {
			return f.invalidation.HandleUserDeleted(rawMessage(p))
		},
	} {
		if err := handle([]byte("not json")); !IsPermanent(err) {
			t.Errorf("%s: malformed payload error = %v, want permanent", name, err)
		}
	}
}
