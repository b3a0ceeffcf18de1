// Newsfeed - Social Newsfeed Fan-out and Cache Invalidation Service
// Copyright 2026 Omar Ahmed (omar-ahmed42)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/omar-ahmed42/newsfeed

package cache

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// memoryEntry is a cached value with optional expiry.
type memoryEntry struct {
	value     []byte
	expiresAt time.Time // zero means no expiry
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// MemoryStore implements Store with an in-process map per namespace.
// It serves tests and non-durable single-node deployments. A single mutex
// per store serializes all writers, which trivially satisfies the atomic
// per-key merge requirement.
type MemoryStore struct {
	mu         sync.Mutex
	namespaces map[string]struct{}
	entries    map[string]map[string]memoryEntry
	closed     bool

	// stats
	hits   int64
	misses int64
}

// NewMemoryStore creates an in-memory store serving the given namespaces.
func NewMemoryStore(namespaces []string) (*MemoryStore, error) {
	set, err := validateNamespaces(namespaces)
	if err != nil {
		return nil, fmt.Errorf("memory store: %w", err)
	}

	entries := make(map[string]map[string]memoryEntry, len(set))
	for ns := range set {
		entries[ns] = make(map[string]memoryEntry)
	}

	return &MemoryStore{namespaces: set, entries: entries}, nil
}

func (s *MemoryStore) bucket(namespace string) (map[string]memoryEntry, error) {
	if s.closed {
		return nil, ErrStoreClosed
	}
	b, ok := s.entries[namespace]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownNamespace, namespace)
	}
	return b, nil
}

// Get returns the value for key, or found=false when absent or expired.
func (s *MemoryStore) Get(ctx context.Context, namespace, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := s.bucket(namespace)
	if err != nil {
		return nil, false, err
	}

	entry, ok := b[key]
	if !ok || entry.expired(time.Now()) {
		if ok {
			delete(b, key)
		}
		s.misses++
		return nil, false, nil
	}

	s.hits++
	value := make([]byte, len(entry.value))
	copy(value, entry.value)
	return value, true, nil
}

// Put stores the value for key without expiry.
func (s *MemoryStore) Put(ctx context.Context, namespace, key string, value []byte) error {
	return s.PutTTL(ctx, namespace, key, value, 0)
}

// PutTTL stores the value for key with an optional expiry.
func (s *MemoryStore) PutTTL(ctx context.Context, namespace, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := s.bucket(namespace)
	if err != nil {
		return err
	}

	entry := memoryEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		entry.expiresAt = time.Now().Add(ttl)
	}
	b[key] = entry
	return nil
}

// Evict removes the key. Absent keys are a no-op.
func (s *MemoryStore) Evict(ctx context.Context, namespace, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := s.bucket(namespace)
	if err != nil {
		return err
	}
	delete(b, key)
	return nil
}

// Merge atomically replaces the value for key with fn(current).
func (s *MemoryStore) Merge(ctx context.Context, namespace, key string, fn MergeFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := s.bucket(namespace)
	if err != nil {
		return err
	}

	var old []byte
	entry, found := b[key]
	if found && entry.expired(time.Now()) {
		delete(b, key)
		found = false
	}
	if found {
		old = entry.value
	}

	next, err := fn(old, found)
	if err != nil {
		return err
	}
	if next == nil {
		delete(b, key)
		return nil
	}
	b[key] = memoryEntry{value: next}
	return nil
}

// Stats returns hit/miss counters.
func (s *MemoryStore) Stats() (hits, misses int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits, s.misses
}

// Close marks the store closed; subsequent operations fail.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Verify interface implementation at compile time
var _ Store = (*MemoryStore)(nil)
