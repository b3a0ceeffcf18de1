// Newsfeed - Social Newsfeed Fan-out and Cache Invalidation Service
// Copyright 2026 Omar Ahmed (omar-ahmed42)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/omar-ahmed42/newsfeed

package graph

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/dgraph-io/badger/v4"

	"github.com/omar-ahmed42/newsfeed/internal/models"
)

const friendKeyPrefix = "friend:"

// BadgerGateway implements Gateway over a BadgerDB adjacency list. Each
// friendship is stored twice, once per direction, under
// "friend:<user>:<friend>", so enumerating a user's friends is a single
// prefix scan.
type BadgerGateway struct {
	db *badger.DB
}

// NewBadgerGateway creates a gateway over an open Badger database.
func NewBadgerGateway(db *badger.DB) (*BadgerGateway, error) {
	if db == nil {
		return nil, fmt.Errorf("friend graph: nil database")
	}
	return &BadgerGateway{db: db}, nil
}

func friendPrefix(user models.UserID) []byte {
	return []byte(friendKeyPrefix + strconv.FormatInt(int64(user), 10) + ":")
}

func friendKey(user, friend models.UserID) []byte {
	return append(friendPrefix(user), strconv.FormatInt(int64(friend), 10)...)
}

// Friends returns all friends of user via a prefix scan.
func (g *BadgerGateway) Friends(ctx context.Context, user models.UserID) ([]models.UserID, error) {
	var friends []models.UserID

	err := g.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := friendPrefix(user)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			key := it.Item().Key()
			id, err := strconv.ParseInt(string(key[len(prefix):]), 10, 64)
			if err != nil {
				return fmt.Errorf("malformed friend key %q: %w", key, err)
			}
			friends = append(friends, models.UserID(id))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list friends of %d: %w", user, err)
	}
	return friends, nil
}

// CountFriends returns the number of friends of user.
func (g *BadgerGateway) CountFriends(ctx context.Context, user models.UserID) (int, error) {
	count := 0

	err := g.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := friendPrefix(user)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			count++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("count friends of %d: %w", user, err)
	}
	return count, nil
}

// AddFriendship stores both directions of a friendship. The relationship
// service uses this; it is not part of the read Gateway.
func (g *BadgerGateway) AddFriendship(ctx context.Context, a, b models.UserID) error {
	err := g.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(friendKey(a, b), nil); err != nil {
			return err
		}
		return txn.Set(friendKey(b, a), nil)
	})
	if err != nil {
		return fmt.Errorf("add friendship %d<->%d: %w", a, b, err)
	}
	return nil
}

// RemoveFriendship removes both directions of a friendship; an absent
// friendship is a no-op.
func (g *BadgerGateway) RemoveFriendship(ctx context.Context, a, b models.UserID) error {
	err := g.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete(friendKey(a, b)); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		if err := txn.Delete(friendKey(b, a)); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("remove friendship %d<->%d: %w", a, b, err)
	}
	return nil
}

// Verify interface implementation at compile time
var _ Gateway = (*BadgerGateway)(nil)
