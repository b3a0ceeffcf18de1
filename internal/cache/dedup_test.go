// Newsfeed - Social Newsfeed Fan-out and Cache Invalidation Service
// Copyright 2026 Omar Ahmed (omar-ahmed42)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/omar-ahmed42/newsfeed

package cache

import (
	"fmt"
	"testing"
	"time"
)

func TestDedupCacheIsDuplicate(t *testing.T) {
	c := NewDedupCache(10, time.Minute)

	if c.IsDuplicate("a") {
		t.Error("first IsDuplicate(a) = true, want false")
	}
	if !c.IsDuplicate("a") {
		t.Error("second IsDuplicate(a) = false, want true")
	}
	if c.IsDuplicate("b") {
		t.Error("first IsDuplicate(b) = true, want false")
	}
}

func TestDedupCacheTTL(t *testing.T) {
	c := NewDedupCache(10, 10*time.Millisecond)

	c.IsDuplicate("a")
	time.Sleep(20 * time.Millisecond)

	if c.IsDuplicate("a") {
		t.Error("IsDuplicate(a) = true after TTL, want false")
	}
}

func TestDedupCacheCapacityEviction(t *testing.T) {
	const capacity = 8
	c := NewDedupCache(capacity, time.Minute)

	for i := 0; i < capacity+1; i++ {
		c.IsDuplicate(fmt.Sprintf("key-%d", i))
	}

	if c.Len() != capacity {
		t.Errorf("Len() = %d, want %d", c.Len(), capacity)
	}
	if c.Contains("key-0") {
		t.Error("oldest key survived capacity eviction")
	}
	if !c.Contains(fmt.Sprintf("key-%d", capacity)) {
		t.Error("newest key missing")
	}
}

func TestDedupCacheClear(t *testing.T) {
	c := NewDedupCache(10, time.Minute)
	c.IsDuplicate("a")
	c.IsDuplicate("b")

	c.Clear()

	if c.Len() != 0 {
		t.Errorf("Len() = %d after Clear, want 0", c.Len())
	}
	if c.IsDuplicate("a") {
		t.Error("IsDuplicate(a) = true after Clear, want false")
	}
}
