// Newsfeed - Social Newsfeed Fan-out and Cache Invalidation Service
// Copyright 2026 Omar Ahmed (omar-ahmed42)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/omar-ahmed42/newsfeed

package feed

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/omar-ahmed42/newsfeed/internal/cache"
	"github.com/omar-ahmed42/newsfeed/internal/models"
	"github.com/omar-ahmed42/newsfeed/internal/poststore"
)

// trackingGateway wraps the in-memory post store and records calls, with
// optional failure injection.
type trackingGateway struct {
	inner     *poststore.MemoryGateway
	batchCall int
	err       error
	block     bool
}

func (g *trackingGateway) Post(ctx context.Context, id models.PostID) (*models.Post, error) {
	return g.inner.Post(ctx, id)
}

func (g *trackingGateway) Posts(ctx context.Context, ids []models.PostID) (map[models.PostID]*models.Post, error) {
	g.batchCall++
	if g.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if g.err != nil {
		return nil, g.err
	}
	return g.inner.Posts(ctx, ids)
}

type readerFixture struct {
	feeds     *Cache
	snapshots *SnapshotCache
	gateway   *trackingGateway
	reader    *Reader
}

func newReaderFixture(t *testing.T, storeTimeout time.Duration) *readerFixture {
	t.Helper()
	store, err := cache.NewMemoryStore(cache.Namespaces())
	if err != nil {
		t.Fatalf("NewMemoryStore() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })

	f := &readerFixture{
		feeds:     NewCache(store),
		snapshots: NewSnapshotCache(store, DefaultSnapshotTTL),
		gateway:   &trackingGateway{inner: poststore.NewMemoryGateway()},
	}
	f.reader = NewReader(f.feeds, f.snapshots, f.gateway, storeTimeout)
	return f
}

func (f *readerFixture) addPost(t *testing.T, author models.UserID, post models.PostID) {
	t.Helper()
	ctx := context.Background()
	err := f.gateway.inner.SavePost(ctx, &models.Post{
		ID:        post,
		AuthorID:  author,
		Content:   "post body",
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("SavePost() error = %v", err)
	}
	if _, err := f.feeds.Push(ctx, 7, ref(author, post)); err != nil {
		t.Fatalf("Push() error = %v", err)
	}
}

func TestReaderForbidden(t *testing.T) {
	f := newReaderFixture(t, time.Second)

	_, err := f.reader.GetNewsfeed(context.Background(), 1, 2)
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("GetNewsfeed() error = %v, want ErrForbidden", err)
	}
	if f.gateway.batchCall != 0 {
		t.Error("forbidden read touched the post store")
	}
}

func TestReaderOrderingAndRepopulation(t *testing.T) {
	ctx := context.Background()
	f := newReaderFixture(t, time.Second)

	f.addPost(t, 1, 10)
	f.addPost(t, 2, 30)
	f.addPost(t, 1, 20)

	page, err := f.reader.GetNewsfeed(ctx, 7, 7)
	if err != nil {
		t.Fatalf("GetNewsfeed() error = %v", err)
	}
	if page.Partial {
		t.Error("Partial = true, want false")
	}

	want := []models.PostID{30, 20, 10}
	if len(page.Posts) != len(want) {
		t.Fatalf("len(Posts) = %d, want %d", len(page.Posts), len(want))
	}
	for i, id := range want {
		if page.Posts[i].ID != id {
			t.Errorf("Posts[%d].ID = %d, want %d", i, page.Posts[i].ID, id)
		}
	}
	if f.gateway.batchCall != 1 {
		t.Fatalf("batch calls = %d, want 1", f.gateway.batchCall)
	}

	// All bodies landed in the snapshot cache; the next read skips the store.
	if _, err := f.reader.GetNewsfeed(ctx, 7, 7); err != nil {
		t.Fatalf("second GetNewsfeed() error = %v", err)
	}
	if f.gateway.batchCall != 1 {
		t.Errorf("batch calls after warm read = %d, want 1", f.gateway.batchCall)
	}
}

func TestReaderStaleRefFiltered(t *testing.T) {
	ctx := context.Background()
	f := newReaderFixture(t, time.Second)

	f.addPost(t, 1, 10)
	f.addPost(t, 1, 20)
	// Reference whose post is gone from the store and whose eviction
	// event never arrived.
	if _, err := f.feeds.Push(ctx, 7, ref(1, 15)); err != nil {
		t.Fatalf("Push() error = %v", err)
	}

	page, err := f.reader.GetNewsfeed(ctx, 7, 7)
	if err != nil {
		t.Fatalf("GetNewsfeed() error = %v", err)
	}
	if page.Partial {
		t.Error("Partial = true, want false; stale refs are not a partial result")
	}
	if len(page.Posts) != 2 {
		t.Fatalf("len(Posts) = %d, want 2", len(page.Posts))
	}

	// The stale reference stays cached; this subsystem never repairs the
	// entry on the read path.
	set, err := f.feeds.Load(ctx, 7)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !set.Contains(15) {
		t.Error("stale reference was removed from the cache by a read")
	}
}

func TestReaderPartialOnTimeout(t *testing.T) {
	ctx := context.Background()
	f := newReaderFixture(t, 20*time.Millisecond)

	f.addPost(t, 1, 10)
	f.addPost(t, 1, 20)
	// Warm the snapshot cache with one body only.
	f.snapshots.Put(ctx, &models.Post{ID: 20, AuthorID: 1, Content: "cached"})

	f.gateway.block = true

	page, err := f.reader.GetNewsfeed(ctx, 7, 7)
	if err != nil {
		t.Fatalf("GetNewsfeed() error = %v", err)
	}
	if !page.Partial {
		t.Error("Partial = false after store timeout, want true")
	}
	if len(page.Posts) != 1 || page.Posts[0].ID != 20 {
		t.Errorf("Posts = %v, want only the snapshot-cached post 20", page.Posts)
	}
}

func TestReaderPartialOnStoreError(t *testing.T) {
	ctx := context.Background()
	f := newReaderFixture(t, time.Second)

	f.addPost(t, 1, 10)
	f.gateway.err = errors.New("store down")

	page, err := f.reader.GetNewsfeed(ctx, 7, 7)
	if err != nil {
		t.Fatalf("GetNewsfeed() error = %v", err)
	}
	if !page.Partial {
		t.Error("Partial = false after store failure, want true")
	}
	if len(page.Posts) != 0 {
		t.Errorf("len(Posts) = %d, want 0", len(page.Posts))
	}
}

func TestReaderEmptyFeed(t *testing.T) {
	f := newReaderFixture(t, time.Second)

	page, err := f.reader.GetNewsfeed(context.Background(), 7, 7)
	if err != nil {
		t.Fatalf("GetNewsfeed() error = %v", err)
	}
	if len(page.Posts) != 0 || page.Partial {
		t.Errorf("empty feed page = %+v, want no posts, not partial", page)
	}
	if f.gateway.batchCall != 0 {
		t.Error("empty feed read touched the post store")
	}
}
