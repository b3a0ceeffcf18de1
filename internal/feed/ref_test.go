// Newsfeed - Social Newsfeed Fan-out and Cache Invalidation Service
// Copyright 2026 Omar Ahmed (omar-ahmed42)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/omar-ahmed42/newsfeed

package feed

import (
	"testing"

	"github.com/omar-ahmed42/newsfeed/internal/models"
)

func ref(author models.UserID, post models.PostID) PostRef {
	return PostRef{AuthorID: author, PostID: post}
}

func TestRefSetInsertOrdering(t *testing.T) {
	s := NewRefSet()

	inserts := []PostRef{ref(1, 30), ref(2, 10), ref(1, 50), ref(3, 20), ref(2, 40)}
	for _, r := range inserts {
		added, dropped := s.Insert(r)
		if !added {
			t.Errorf("Insert(%v) added = false, want true", r)
		}
		if dropped != 0 {
			t.Errorf("Insert(%v) dropped = %d, want 0", r, dropped)
		}
	}

	want := []models.PostID{50, 40, 30, 20, 10}
	refs := s.Refs()
	if len(refs) != len(want) {
		t.Fatalf("Len() = %d, want %d", len(refs), len(want))
	}
	for i, id := range want {
		if refs[i].PostID != id {
			t.Errorf("refs[%d].PostID = %d, want %d", i, refs[i].PostID, id)
		}
	}
}

func TestRefSetInsertDuplicate(t *testing.T) {
	s := NewRefSet()
	s.Insert(ref(1, 10))

	added, dropped := s.Insert(ref(1, 10))
	if added {
		t.Error("duplicate Insert added = true, want false")
	}
	if dropped != 0 {
		t.Errorf("duplicate Insert dropped = %d, want 0", dropped)
	}
	if s.Len() != 1 {
		t.Errorf("Len() = %d after duplicate insert, want 1", s.Len())
	}

	// Same post id under a different author is still a duplicate.
	added, _ = s.Insert(ref(2, 10))
	if added {
		t.Error("Insert with same post id, different author added = true, want false")
	}
}

func TestRefSetInsertAtCapacity(t *testing.T) {
	s := NewRefSet()
	for i := 1; i <= MaxFeedSize; i++ {
		s.Insert(ref(1, models.PostID(i*10)))
	}
	if s.Len() != MaxFeedSize {
		t.Fatalf("Len() = %d, want %d", s.Len(), MaxFeedSize)
	}

	// A newer post evicts the oldest reference.
	added, dropped := s.Insert(ref(2, models.PostID(MaxFeedSize*10+5)))
	if !added {
		t.Error("Insert at capacity added = false, want true")
	}
	if dropped != 1 {
		t.Errorf("Insert at capacity dropped = %d, want 1", dropped)
	}
	if s.Len() != MaxFeedSize {
		t.Errorf("Len() = %d after trimmed insert, want %d", s.Len(), MaxFeedSize)
	}
	if s.Contains(10) {
		t.Error("oldest reference still present after trimmed insert")
	}
	if !s.Contains(models.PostID(MaxFeedSize*10 + 5)) {
		t.Error("incoming reference missing after trimmed insert")
	}
}

func TestRefSetInsertOldestIntoFullSet(t *testing.T) {
	s := NewRefSet()
	for i := 2; i <= MaxFeedSize+1; i++ {
		s.Insert(ref(1, models.PostID(i*10)))
	}

	// The incoming reference is older than everything cached. The bound
	// still drops the current lowest id first, so the incoming ref ends
	// up present even though it is immediately the oldest.
	added, dropped := s.Insert(ref(2, 5))
	if !added {
		t.Error("Insert of oldest ref added = false, want true")
	}
	if dropped != 1 {
		t.Errorf("dropped = %d, want 1", dropped)
	}
	if !s.Contains(5) {
		t.Error("incoming oldest reference missing; the insert must win over the bound")
	}
	if s.Contains(20) {
		t.Error("previous lowest reference still present")
	}
}

func TestRefSetRemove(t *testing.T) {
	s := NewRefSet()
	s.Insert(ref(1, 10))
	s.Insert(ref(1, 20))

	if !s.Remove(10) {
		t.Error("Remove(10) = false, want true")
	}
	if s.Remove(10) {
		t.Error("second Remove(10) = true, want false")
	}
	if s.Remove(99) {
		t.Error("Remove of absent id = true, want false")
	}
	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1", s.Len())
	}
}

func TestRefSetRemoveByAuthor(t *testing.T) {
	s := NewRefSet()
	s.Insert(ref(1, 10))
	s.Insert(ref(2, 20))
	s.Insert(ref(1, 30))
	s.Insert(ref(3, 40))

	if got := s.RemoveByAuthor(1); got != 2 {
		t.Errorf("RemoveByAuthor(1) = %d, want 2", got)
	}
	if got := s.RemoveByAuthor(1); got != 0 {
		t.Errorf("repeated RemoveByAuthor(1) = %d, want 0", got)
	}

	want := []models.PostID{40, 20}
	refs := s.Refs()
	if len(refs) != len(want) {
		t.Fatalf("Len() = %d, want %d", len(refs), len(want))
	}
	for i, id := range want {
		if refs[i].PostID != id {
			t.Errorf("refs[%d].PostID = %d, want %d", i, refs[i].PostID, id)
		}
	}
}

func TestRefSetEncodeDecode(t *testing.T) {
	s := NewRefSet()
	s.Insert(ref(1, 10))
	s.Insert(ref(2, 30))
	s.Insert(ref(1, 20))

	data, err := s.Encode()
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	decoded, err := DecodeRefSet(data)
	if err != nil {
		t.Fatalf("DecodeRefSet() error = %v", err)
	}
	if decoded.Len() != 3 {
		t.Fatalf("decoded Len() = %d, want 3", decoded.Len())
	}
	for i, want := range []models.PostID{30, 20, 10} {
		if decoded.Refs()[i].PostID != want {
			t.Errorf("decoded refs[%d].PostID = %d, want %d", i, decoded.Refs()[i].PostID, want)
		}
	}
}

func TestDecodeRefSetEmpty(t *testing.T) {
	for _, data := range [][]byte{nil, {}} {
		s, err := DecodeRefSet(data)
		if err != nil {
			t.Fatalf("DecodeRefSet(%v) error = %v", data, err)
		}
		if s.Len() != 0 {
			t.Errorf("DecodeRefSet(%v).Len() = %d, want 0", data, s.Len())
		}
	}
}

func TestDecodeRefSetMalformed(t *testing.T) {
	if _, err := DecodeRefSet([]byte("not json")); err == nil {
		t.Error("DecodeRefSet of malformed payload returned nil error")
	}
}
