// Newsfeed - Social Newsfeed Fan-out and Cache Invalidation Service
// Copyright 2026 Omar Ahmed (omar-ahmed42)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/omar-ahmed42/newsfeed

package cache

import (
	"sync"
	"time"
)

// dedupEntry is a node in the dedup cache's doubly-linked recency list.
type dedupEntry struct {
	key       string
	prev      *dedupEntry
	next      *dedupEntry
	expiresAt time.Time
}

// DedupCache is a thread-safe LRU set with TTL used to recognize recently
// seen event ids. Capacity eviction and lazy expiry keep memory bounded
// under sustained event volume. All operations are O(1).
//
// The fan-out and invalidation handlers are idempotent by construction, so
// this cache is an optimization (skip the cache round-trip on an obvious
// redelivery), never a correctness requirement.
type DedupCache struct {
	mu sync.Mutex

	capacity int
	ttl      time.Duration

	items map[string]*dedupEntry

	// head.next is most recently seen, tail.prev least recently seen.
	head *dedupEntry
	tail *dedupEntry

	hits   int64
	misses int64
}

// NewDedupCache creates a dedup cache with the given capacity and TTL.
func NewDedupCache(capacity int, ttl time.Duration) *DedupCache {
	if capacity <= 0 {
		capacity = 10000
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	c := &DedupCache{
		capacity: capacity,
		ttl:      ttl,
		items:    make(map[string]*dedupEntry, capacity),
		head:     &dedupEntry{},
		tail:     &dedupEntry{},
	}
	c.head.next = c.tail
	c.tail.prev = c.head
	return c
}

// IsDuplicate reports whether key was seen within the TTL window, and
// records it if not. Check-and-record is a single atomic step.
func (c *DedupCache) IsDuplicate(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()

	if entry, exists := c.items[key]; exists {
		if now.Before(entry.expiresAt) {
			c.moveToFront(entry)
			c.hits++
			return true
		}
		c.removeEntry(entry)
	}

	entry := &dedupEntry{key: key, expiresAt: now.Add(c.ttl)}
	c.addToFront(entry)
	c.items[key] = entry

	for len(c.items) > c.capacity {
		c.evictOldest()
	}

	c.misses++
	return false
}

// Contains reports whether key is present and unexpired, without recording.
func (c *DedupCache) Contains(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, exists := c.items[key]
	return exists && time.Now().Before(entry.expiresAt)
}

// Len returns the current number of entries.
func (c *DedupCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Clear removes all entries.
func (c *DedupCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*dedupEntry, c.capacity)
	c.head.next = c.tail
	c.tail.prev = c.head
}

// Stats returns hit/miss counters and the current size.
func (c *DedupCache) Stats() (hits, misses int64, size int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses, len(c.items)
}

// list operations, called with the lock held

func (c *DedupCache) addToFront(entry *dedupEntry) {
	entry.prev = c.head
	entry.next = c.head.next
	c.head.next.prev = entry
	c.head.next = entry
}

func (c *DedupCache) moveToFront(entry *dedupEntry) {
	entry.prev.next = entry.next
	entry.next.prev = entry.prev
	c.addToFront(entry)
}

func (c *DedupCache) removeEntry(entry *dedupEntry) {
	entry.prev.next = entry.next
	entry.next.prev = entry.prev
	delete(c.items, entry.key)
}

func (c *DedupCache) evictOldest() {
	oldest := c.tail.prev
	if oldest == c.head {
		return
	}
	c.removeEntry(oldest)
}
