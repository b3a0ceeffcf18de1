// Newsfeed - Social Newsfeed Fan-out and Cache Invalidation Service
// Copyright 2026 Omar Ahmed (omar-ahmed42)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/omar-ahmed42/newsfeed

// Package feed implements the newsfeed core: the bounded per-recipient
// reference set, the cache-backed feed store with atomic merge semantics,
// the post snapshot cache, and the read path.
package feed

import (
	"fmt"
	"sort"

	"github.com/goccy/go-json"

	"github.com/omar-ahmed42/newsfeed/internal/models"
)

// MaxFeedSize is the capacity bound of a recipient's reference set.
// Inserting into a full set drops the oldest (lowest post id) reference.
const MaxFeedSize = 250

// PostRef is a reference to a post in some recipient's feed: the post plus
// its author. Immutable value. The full body is never stored in the feed
// itself; readers resolve references through the snapshot cache.
type PostRef struct {
	AuthorID models.UserID `json:"author_id"`
	PostID   models.PostID `json:"post_id"`
}

// RefSet is an ordered set of post references, unique by post id and sorted
// by descending post id (newest first). Post ids are assigned by a
// monotonic generator, so the ordering doubles as recency ordering.
//
// RefSet is not safe for concurrent use; callers mutate it inside an atomic
// cache merge.
type RefSet struct {
	refs []PostRef
}

// NewRefSet returns an empty set.
func NewRefSet() *RefSet {
	return &RefSet{}
}

// DecodeRefSet parses the cache encoding produced by Encode. A nil or empty
// payload decodes to an empty set.
func DecodeRefSet(data []byte) (*RefSet, error) {
	s := NewRefSet()
	if len(data) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(data, &s.refs); err != nil {
		return nil, fmt.Errorf("decode ref set: %w", err)
	}
	return s, nil
}

// Encode serializes the set for cache storage.
func (s *RefSet) Encode() ([]byte, error) {
	data, err := json.Marshal(s.refs)
	if err != nil {
		return nil, fmt.Errorf("encode ref set: %w", err)
	}
	return data, nil
}

// Len returns the number of references in the set.
func (s *RefSet) Len() int {
	return len(s.refs)
}

// Refs returns the references in descending post id order. The returned
// slice is shared with the set; callers must not mutate it.
func (s *RefSet) Refs() []PostRef {
	return s.refs
}

// Contains reports whether a reference with the given post id is present.
func (s *RefSet) Contains(postID models.PostID) bool {
	_, ok := s.indexOf(postID)
	return ok
}

// Insert adds ref to the set, keeping descending post id order and the
// capacity bound. Returns the number of references dropped to make room
// (0 or 1) and whether the ref was actually added (false on duplicate).
//
// A duplicate post id leaves the set untouched: redelivered fan-out events
// are no-ops. When the set is full the lowest post id is dropped before
// inserting, so the incoming reference is always present afterwards.
func (s *RefSet) Insert(ref PostRef) (added bool, dropped int) {
	if s.Contains(ref.PostID) {
		return false, 0
	}

	for len(s.refs) >= MaxFeedSize {
		// refs is kept sorted descending; the last element is the oldest.
		s.refs = s.refs[:len(s.refs)-1]
		dropped++
	}

	i := sort.Search(len(s.refs), func(i int) bool {
		return s.refs[i].PostID < ref.PostID
	})
	s.refs = append(s.refs, PostRef{})
	copy(s.refs[i+1:], s.refs[i:])
	s.refs[i] = ref
	return true, dropped
}

// Remove deletes the reference with the given post id.
// Returns false when no such reference exists.
func (s *RefSet) Remove(postID models.PostID) bool {
	i, ok := s.indexOf(postID)
	if !ok {
		return false
	}
	s.refs = append(s.refs[:i], s.refs[i+1:]...)
	return true
}

// RemoveByAuthor deletes every reference authored by author and returns
// how many were removed. Removing from a set that has none is a no-op.
func (s *RefSet) RemoveByAuthor(author models.UserID) int {
	kept := s.refs[:0]
	removed := 0
	for _, ref := range s.refs {
		if ref.AuthorID == author {
			removed++
			continue
		}
		kept = append(kept, ref)
	}
	s.refs = kept
	return removed
}

// indexOf locates the reference with the given post id via binary search.
func (s *RefSet) indexOf(postID models.PostID) (int, bool) {
	i := sort.Search(len(s.refs), func(i int) bool {
		return s.refs[i].PostID <= postID
	})
	if i < len(s.refs) && s.refs[i].PostID == postID {
		return i, true
	}
	return 0, false
}
