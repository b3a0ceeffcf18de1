// Newsfeed - Social Newsfeed Fan-out and Cache Invalidation Service
// Copyright 2026 Omar Ahmed (omar-ahmed42)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/omar-ahmed42/newsfeed

package poststore

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/omar-ahmed42/newsfeed/internal/models"
)

const postKeyPrefix = "post:"

// BadgerGateway implements Gateway over a BadgerDB database. Single-binary
// deployments colocate the canonical post records with the cache; larger
// deployments replace this with a client for the real post service.
type BadgerGateway struct {
	db *badger.DB
}

// NewBadgerGateway creates a gateway over an open Badger database.
func NewBadgerGateway(db *badger.DB) (*BadgerGateway, error) {
	if db == nil {
		return nil, fmt.Errorf("post store: nil database")
	}
	return &BadgerGateway{db: db}, nil
}

func postKey(id models.PostID) []byte {
	return []byte(postKeyPrefix + strconv.FormatInt(int64(id), 10))
}

// Post returns the record for a single post id.
func (g *BadgerGateway) Post(ctx context.Context, id models.PostID) (*models.Post, error) {
	var post models.Post

	err := g.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(postKey(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrPostNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &post)
		})
	})
	if errors.Is(err, ErrPostNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("get post %d: %w", id, err)
	}
	return &post, nil
}

// Posts batch-fetches records in a single read transaction. Absent ids are
// left out of the result.
func (g *BadgerGateway) Posts(ctx context.Context, ids []models.PostID) (map[models.PostID]*models.Post, error) {
	posts := make(map[models.PostID]*models.Post, len(ids))

	err := g.db.View(func(txn *badger.Txn) error {
		for _, id := range ids {
			if err := ctx.Err(); err != nil {
				return err
			}

			item, err := txn.Get(postKey(id))
			if errors.Is(err, badger.ErrKeyNotFound) {
				continue
			}
			if err != nil {
				return err
			}

			var post models.Post
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &post)
			}); err != nil {
				return err
			}
			posts[id] = &post
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("batch get %d posts: %w", len(ids), err)
	}
	return posts, nil
}

// SavePost stores a canonical post record. The post write path uses this;
// it is not part of the read Gateway.
func (g *BadgerGateway) SavePost(ctx context.Context, post *models.Post) error {
	data, err := json.Marshal(post)
	if err != nil {
		return fmt.Errorf("marshal post %d: %w", post.ID, err)
	}

	err = g.db.Update(func(txn *badger.Txn) error {
		return txn.Set(postKey(post.ID), data)
	})
	if err != nil {
		return fmt.Errorf("save post %d: %w", post.ID, err)
	}
	return nil
}

// DeletePost removes a canonical post record. Deleting an absent post is a
// no-op.
func (g *BadgerGateway) DeletePost(ctx context.Context, id models.PostID) error {
	err := g.db.Update(func(txn *badger.Txn) error {
		err := txn.Delete(postKey(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		return err
	})
	if err != nil {
		return fmt.Errorf("delete post %d: %w", id, err)
	}
	return nil
}

// Verify interface implementation at compile time
var _ Gateway = (*BadgerGateway)(nil)
