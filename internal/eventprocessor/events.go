// Newsfeed - Social Newsfeed Fan-out and Cache Invalidation Service
// Copyright 2026 Omar Ahmed (omar-ahmed42)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/omar-ahmed42/newsfeed

package eventprocessor

import (
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/omar-ahmed42/newsfeed/internal/models"
)

// SchemaVersion is the current event schema version.
// Increment this when making breaking changes to the event payloads.
const SchemaVersion = 1

// NATS subjects for the feed event channels. All subjects live under the
// FEED_EVENTS stream (feed.>).
const (
	TopicPostPublished = "feed.post-published"
	TopicFriendRemoved = "feed.friend-removed"
	TopicPostDeleted   = "feed.post-deleted"
	TopicUserDeleted   = "feed.user-deleted"

	// TopicPoisonQueue receives messages that failed after all retries.
	TopicPoisonQueue = "dlq.feed"
)

// ValidationError describes a payload field that failed validation.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return "validation failed: " + e.Field + ": " + e.Message
}

// Event is the common contract for feed events.
//
// PartitionKey is a required routing invariant, not a hint: fan-out and
// invalidation events that mutate the same recipient's feed must be routed
// to the same partition, otherwise a later invalidation can race an earlier
// fan-out and apply out of order. Events that target a single recipient key
// by that recipient's id; events that fan out to many recipients key by the
// acting user's id so that all mutations triggered by one user's actions
// stay ordered relative to each other.
type Event interface {
	Validate() error
	Topic() string
	PartitionKey() string
}

// Envelope carries the delivery identity shared by all feed events.
// EventID doubles as the Nats-Msg-Id for broker-side deduplication.
type Envelope struct {
	SchemaVersion int       `json:"schema_version,omitempty"`
	EventID       string    `json:"event_id"`
	OccurredAt    time.Time `json:"occurred_at"`
}

func newEnvelope() Envelope {
	return Envelope{
		SchemaVersion: SchemaVersion,
		EventID:       uuid.New().String(),
		OccurredAt:    time.Now().UTC(),
	}
}

func (e *Envelope) validateEnvelope() error {
	if e.EventID == "" {
		return &ValidationError{Field: "event_id", Message: "required"}
	}
	return nil
}

// PostPublished is emitted by the post write path when a post becomes
// visible. The Fan-out Coordinator consumes it and pushes a reference into
// every friend's newsfeed cache entry.
type PostPublished struct {
	Envelope
	AuthorID models.UserID `json:"author_id"`
	PostID   models.PostID `json:"post_id"`
}

// NewPostPublished creates a post-published event with a fresh envelope.
func NewPostPublished(authorID models.UserID, postID models.PostID) *PostPublished {
	return &PostPublished{Envelope: newEnvelope(), AuthorID: authorID, PostID: postID}
}

// Validate checks required fields.
func (e *PostPublished) Validate() error {
	if err := e.validateEnvelope(); err != nil {
		return err
	}
	if e.AuthorID <= 0 {
		return &ValidationError{Field: "author_id", Message: "must be positive"}
	}
	if e.PostID <= 0 {
		return &ValidationError{Field: "post_id", Message: "must be positive"}
	}
	return nil
}

// Topic returns the NATS subject for this event.
func (e *PostPublished) Topic() string { return TopicPostPublished }

// PartitionKey routes by author so that publish and delete events for the
// same author's posts are processed in order.
func (e *PostPublished) PartitionKey() string {
	return strconv.FormatInt(int64(e.AuthorID), 10)
}

// FriendRemoved is emitted once per direction by the friend-removal flow.
// The Invalidation Coordinator removes every reference authored by SourceID
// from TargetID's newsfeed cache entry. The mirror direction arrives as its
// own event.
type FriendRemoved struct {
	Envelope
	TargetID models.UserID `json:"target_user_id"`
	SourceID models.UserID `json:"source_user_id"`
}

// NewFriendRemoved creates a friend-removed event with a fresh envelope.
func NewFriendRemoved(targetID, sourceID models.UserID) *FriendRemoved {
	return &FriendRemoved{Envelope: newEnvelope(), TargetID: targetID, SourceID: sourceID}
}

// Validate checks required fields.
func (e *FriendRemoved) Validate() error {
	if err := e.validateEnvelope(); err != nil {
		return err
	}
	if e.TargetID <= 0 {
		return &ValidationError{Field: "target_user_id", Message: "must be positive"}
	}
	if e.SourceID <= 0 {
		return &ValidationError{Field: "source_user_id", Message: "must be positive"}
	}
	if e.TargetID == e.SourceID {
		return &ValidationError{Field: "source_user_id", Message: "cannot equal target_user_id"}
	}
	return nil
}

// Topic returns the NATS subject for this event.
func (e *FriendRemoved) Topic() string { return TopicFriendRemoved }

// PartitionKey routes by the recipient whose cache entry is mutated.
func (e *FriendRemoved) PartitionKey() string {
	return strconv.FormatInt(int64(e.TargetID), 10)
}

// PostDeleted is emitted by the post write path when a post is removed.
// The Invalidation Coordinator removes the single reference from every
// friend's newsfeed cache entry.
type PostDeleted struct {
	Envelope
	AuthorID models.UserID `json:"author_id"`
	PostID   models.PostID `json:"post_id"`
}

// NewPostDeleted creates a post-deleted event with a fresh envelope.
func NewPostDeleted(authorID models.UserID, postID models.PostID) *PostDeleted {
	return &PostDeleted{Envelope: newEnvelope(), AuthorID: authorID, PostID: postID}
}

// Validate checks required fields.
func (e *PostDeleted) Validate() error {
	if err := e.validateEnvelope(); err != nil {
		return err
	}
	if e.AuthorID <= 0 {
		return &ValidationError{Field: "author_id", Message: "must be positive"}
	}
	if e.PostID <= 0 {
		return &ValidationError{Field: "post_id", Message: "must be positive"}
	}
	return nil
}

// Topic returns the NATS subject for this event.
func (e *PostDeleted) Topic() string { return TopicPostDeleted }

// PartitionKey routes by author, matching PostPublished, so a delete never
// overtakes the publish of the same post.
func (e *PostDeleted) PartitionKey() string {
	return strconv.FormatInt(int64(e.AuthorID), 10)
}

// UserDeleted is emitted by the user lifecycle flow. The Invalidation
// Coordinator removes every reference authored by UserID from each former
// friend's newsfeed cache entry. The deleted user's own feed is left alone;
// a deleted user has no further reads.
type UserDeleted struct {
	Envelope
	UserID models.UserID `json:"user_id"`
}

// NewUserDeleted creates a user-deleted event with a fresh envelope.
func NewUserDeleted(userID models.UserID) *UserDeleted {
	return &UserDeleted{Envelope: newEnvelope(), UserID: userID}
}

// Validate checks required fields.
func (e *UserDeleted) Validate() error {
	if err := e.validateEnvelope(); err != nil {
		return err
	}
	if e.UserID <= 0 {
		return &ValidationError{Field: "user_id", Message: "must be positive"}
	}
	return nil
}

// Topic returns the NATS subject for this event.
func (e *UserDeleted) Topic() string { return TopicUserDeleted }

// PartitionKey routes by the deleted user, matching the author keys of
// their earlier publish events.
func (e *UserDeleted) PartitionKey() string {
	return strconv.FormatInt(int64(e.UserID), 10)
}
