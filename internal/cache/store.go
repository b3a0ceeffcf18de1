// Newsfeed - Social Newsfeed Fan-out and Cache Invalidation Service
// Copyright 2026 Omar Ahmed (omar-ahmed42)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/omar-ahmed42/newsfeed

// Package cache provides the namespaced key-value store backing the newsfeed
// reference cache and the post snapshot cache, plus the in-memory structures
// used for message deduplication.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Cache namespaces used by the newsfeed subsystem. A Store is constructed
// with the namespaces it must serve; any other namespace is rejected at
// construction time rather than failing per call.
const (
	// NamespaceNewsfeed holds the per-recipient ordered reference sets.
	NamespaceNewsfeed = "newsfeed"

	// NamespacePosts holds opportunistic post body snapshots keyed by post id.
	NamespacePosts = "posts"
)

// Namespaces returns the namespaces every Store must provide.
func Namespaces() []string {
	return []string{NamespaceNewsfeed, NamespacePosts}
}

var (
	// ErrUnknownNamespace is returned when an operation targets a namespace
	// the store was not constructed with.
	ErrUnknownNamespace = errors.New("unknown cache namespace")

	// ErrMergeConflict is returned when an atomic merge could not commit
	// after exhausting its retry attempts.
	ErrMergeConflict = errors.New("merge conflict not resolved after retries")

	// ErrStoreClosed is returned when the store has been closed.
	ErrStoreClosed = errors.New("cache store is closed")
)

// MergeFunc computes the new value for a key during an atomic merge.
// old is nil and found is false when the key is absent. Returning a nil
// value with a nil error deletes the key.
type MergeFunc func(old []byte, found bool) ([]byte, error)

// Store is a namespaced key-value cache with per-key atomic operations.
//
// Merge is the primitive that makes concurrent fan-out safe: the supplied
// function is applied atomically with respect to other writers of the same
// key, so a read-modify-write of a recipient's reference set can never lose
// a concurrent update.
type Store interface {
	// Get returns the value for key, or found=false when absent.
	Get(ctx context.Context, namespace, key string) (value []byte, found bool, err error)

	// Put stores the value for key without expiry.
	Put(ctx context.Context, namespace, key string, value []byte) error

	// PutTTL stores the value for key with an expiry. A zero ttl means no
	// expiry.
	PutTTL(ctx context.Context, namespace, key string, value []byte, ttl time.Duration) error

	// Evict removes the key. Evicting an absent key is a no-op.
	Evict(ctx context.Context, namespace, key string) error

	// Merge atomically replaces the value for key with fn(current).
	Merge(ctx context.Context, namespace, key string, fn MergeFunc) error

	// Close releases store resources.
	Close() error
}

// validateNamespaces checks the requested namespaces against the required
// set. Construction fails fast on a missing or unexpected namespace.
func validateNamespaces(namespaces []string) (map[string]struct{}, error) {
	if len(namespaces) == 0 {
		return nil, fmt.Errorf("%w: no namespaces configured", ErrUnknownNamespace)
	}

	set := make(map[string]struct{}, len(namespaces))
	for _, ns := range namespaces {
		if ns == "" {
			return nil, fmt.Errorf("%w: empty namespace", ErrUnknownNamespace)
		}
		set[ns] = struct{}{}
	}
	return set, nil
}
