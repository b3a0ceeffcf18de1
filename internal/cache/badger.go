// Newsfeed - Social Newsfeed Fan-out and Cache Invalidation Service
// Copyright 2026 Omar Ahmed (omar-ahmed42)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/omar-ahmed42/newsfeed

package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// mergeMaxAttempts bounds the conflict-retry loop in Merge. Badger detects
// write conflicts at commit time; under heavy contention on a single
// recipient key a merge may need several attempts.
const mergeMaxAttempts = 16

// BadgerStore implements Store on BadgerDB. Keys are namespace-prefixed
// ("newsfeed:42"). Atomic merges use Badger's transactional conflict
// detection: the read-modify-write runs in a transaction and is retried
// when a concurrent commit invalidates the read set.
type BadgerStore struct {
	db         *badger.DB
	namespaces map[string]struct{}
}

// NewBadgerStore creates a store over an open Badger database, serving
// exactly the given namespaces. Namespace validation happens here so a
// misconfigured deployment fails at startup, not on the first cache call.
func NewBadgerStore(db *badger.DB, namespaces []string) (*BadgerStore, error) {
	if db == nil {
		return nil, fmt.Errorf("badger store: nil database")
	}

	set, err := validateNamespaces(namespaces)
	if err != nil {
		return nil, fmt.Errorf("badger store: %w", err)
	}

	return &BadgerStore{db: db, namespaces: set}, nil
}

func (s *BadgerStore) key(namespace, key string) ([]byte, error) {
	if _, ok := s.namespaces[namespace]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownNamespace, namespace)
	}
	return []byte(namespace + ":" + key), nil
}

// Get returns the value for key, or found=false when absent or expired.
func (s *BadgerStore) Get(ctx context.Context, namespace, key string) ([]byte, bool, error) {
	k, err := s.key(namespace, key)
	if err != nil {
		return nil, false, err
	}

	var value []byte
	err = s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(k)
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})

	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache get %s/%s: %w", namespace, key, err)
	}
	return value, true, nil
}

// Put stores the value for key without expiry.
func (s *BadgerStore) Put(ctx context.Context, namespace, key string, value []byte) error {
	return s.PutTTL(ctx, namespace, key, value, 0)
}

// PutTTL stores the value for key; a non-zero ttl sets Badger entry expiry.
func (s *BadgerStore) PutTTL(ctx context.Context, namespace, key string, value []byte, ttl time.Duration) error {
	k, err := s.key(namespace, key)
	if err != nil {
		return err
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry(k, value)
		if ttl > 0 {
			entry = entry.WithTTL(ttl)
		}
		return txn.SetEntry(entry)
	})
	if err != nil {
		return fmt.Errorf("cache put %s/%s: %w", namespace, key, err)
	}
	return nil
}

// Evict removes the key. Absent keys are a no-op.
func (s *BadgerStore) Evict(ctx context.Context, namespace, key string) error {
	k, err := s.key(namespace, key)
	if err != nil {
		return err
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		err := txn.Delete(k)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		return err
	})
	if err != nil {
		return fmt.Errorf("cache evict %s/%s: %w", namespace, key, err)
	}
	return nil
}

// Merge atomically replaces the value for key with fn(current). The
// transaction is retried on commit conflict, so concurrent merges of the
// same key serialize instead of losing updates.
func (s *BadgerStore) Merge(ctx context.Context, namespace, key string, fn MergeFunc) error {
	k, err := s.key(namespace, key)
	if err != nil {
		return err
	}

	for attempt := 0; attempt < mergeMaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := s.db.Update(func(txn *badger.Txn) error {
			var old []byte
			found := true

			item, err := txn.Get(k)
			if errors.Is(err, badger.ErrKeyNotFound) {
				found = false
			} else if err != nil {
				return err
			} else {
				old, err = item.ValueCopy(nil)
				if err != nil {
					return err
				}
			}

			next, err := fn(old, found)
			if err != nil {
				return err
			}
			if next == nil {
				if !found {
					return nil
				}
				return txn.Delete(k)
			}
			return txn.Set(k, next)
		})

		if errors.Is(err, badger.ErrConflict) {
			continue
		}
		if err != nil {
			return fmt.Errorf("cache merge %s/%s: %w", namespace, key, err)
		}
		return nil
	}

	return fmt.Errorf("cache merge %s/%s: %w", namespace, key, ErrMergeConflict)
}

// Close is a no-op; the Badger database is owned and closed by the caller
// that opened it.
func (s *BadgerStore) Close() error {
	return nil
}

// Verify interface implementation at compile time
var _ Store = (*BadgerStore)(nil)
