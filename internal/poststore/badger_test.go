// Newsfeed - Social Newsfeed Fan-out and Cache Invalidation Service
// Copyright 2026 Omar Ahmed (omar-ahmed42)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/omar-ahmed42/newsfeed

package poststore

import (
	"context"
	"errors"
	"testing"
	"time"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/omar-ahmed42/newsfeed/internal/models"
)

func newTestGateway(t *testing.T) *BadgerGateway {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLogger(nil))
	if err != nil {
		t.Fatalf("badger.Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })

	g, err := NewBadgerGateway(db)
	if err != nil {
		t.Fatalf("NewBadgerGateway() error = %v", err)
	}
	return g
}

func TestBadgerGatewaySaveAndGet(t *testing.T) {
	ctx := context.Background()
	g := newTestGateway(t)

	want := &models.Post{
		ID:        10,
		AuthorID:  1,
		Content:   "hello",
		CreatedAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}
	if err := g.SavePost(ctx, want); err != nil {
		t.Fatalf("SavePost() error = %v", err)
	}

	got, err := g.Post(ctx, 10)
	if err != nil {
		t.Fatalf("Post() error = %v", err)
	}
	if got.ID != want.ID || got.AuthorID != want.AuthorID || got.Content != want.Content {
		t.Errorf("Post() = %+v, want %+v", got, want)
	}
	if !got.CreatedAt.Equal(want.CreatedAt) {
		t.Errorf("Post() CreatedAt = %v, want %v", got.CreatedAt, want.CreatedAt)
	}
}

func TestBadgerGatewayPostNotFound(t *testing.T) {
	g := newTestGateway(t)

	_, err := g.Post(context.Background(), 404)
	if !errors.Is(err, ErrPostNotFound) {
		t.Errorf("Post() error = %v, want ErrPostNotFound", err)
	}
}

func TestBadgerGatewayPostsBatch(t *testing.T) {
	ctx := context.Background()
	g := newTestGateway(t)

	for _, id := range []models.PostID{10, 20, 30} {
		post := &models.Post{ID: id, AuthorID: 1, Content: "post"}
		if err := g.SavePost(ctx, post); err != nil {
			t.Fatalf("SavePost(%d) error = %v", id, err)
		}
	}

	// Absent ids are simply missing from the result, not an error.
	posts, err := g.Posts(ctx, []models.PostID{30, 99, 10})
	if err != nil {
		t.Fatalf("Posts() error = %v", err)
	}
	if len(posts) != 2 {
		t.Fatalf("Posts() returned %d records, want 2", len(posts))
	}
	for _, id := range []models.PostID{10, 30} {
		if posts[id] == nil || posts[id].ID != id {
			t.Errorf("Posts()[%d] = %+v, want post %d", id, posts[id], id)
		}
	}
	if _, ok := posts[99]; ok {
		t.Error("Posts() returned a record for an absent id")
	}
}

func TestBadgerGatewayPostsEmpty(t *testing.T) {
	g := newTestGateway(t)

	posts, err := g.Posts(context.Background(), nil)
	if err != nil {
		t.Fatalf("Posts() error = %v", err)
	}
	if len(posts) != 0 {
		t.Errorf("Posts() = %v, want empty", posts)
	}
}

func TestBadgerGatewayDeletePost(t *testing.T) {
	ctx := context.Background()
	g := newTestGateway(t)

	if err := g.SavePost(ctx, &models.Post{ID: 10, AuthorID: 1}); err != nil {
		t.Fatalf("SavePost() error = %v", err)
	}
	if err := g.DeletePost(ctx, 10); err != nil {
		t.Fatalf("DeletePost() error = %v", err)
	}
	if _, err := g.Post(ctx, 10); !errors.Is(err, ErrPostNotFound) {
		t.Errorf("Post() after delete error = %v, want ErrPostNotFound", err)
	}

	// Deleting an absent post is a no-op.
	if err := g.DeletePost(ctx, 10); err != nil {
		t.Errorf("DeletePost() of absent post error = %v", err)
	}
}
