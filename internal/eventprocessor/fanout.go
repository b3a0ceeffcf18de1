// Newsfeed - Social Newsfeed Fan-out and Cache Invalidation Service
// Copyright 2026 Omar Ahmed (omar-ahmed42)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/omar-ahmed42/newsfeed

package eventprocessor

import (
	"time"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/omar-ahmed42/newsfeed/internal/feed"
	"github.com/omar-ahmed42/newsfeed/internal/graph"
	"github.com/omar-ahmed42/newsfeed/internal/logging"
	"github.com/omar-ahmed42/newsfeed/internal/metrics"
)

// FanoutHandlerName identifies the fan-out consumer for metrics and routing.
const FanoutHandlerName = "fanout"

// FanoutHandler consumes post-published events and pushes a reference into
// every friend's newsfeed cache entry. Push is an atomic merge on the
// recipient key, so two events fanning into the same recipient cannot lose
// an update, and a duplicate delivery is a per-recipient no-op. Partial
// fan-out before a crash is safe for the same reason: redelivery re-pushes
// every recipient and the already-updated ones absorb it.
//
// Bodies are never written here. The snapshot cache is populated lazily by
// the read path; fan-out moves references only.
type FanoutHandler struct {
	graph      graph.Gateway
	feeds      *feed.Cache
	serializer *Serializer
}

// NewFanoutHandler creates a fan-out handler.
func NewFanoutHandler(g graph.Gateway, feeds *feed.Cache) *FanoutHandler {
	return &FanoutHandler{
		graph:      g,
		feeds:      feeds,
		serializer: NewSerializer(),
	}
}

// Handle processes one post-published message.
// Malformed payloads are permanent failures; gateway or cache outages are
// retryable and leave the message unacked for redelivery.
func (h *FanoutHandler) Handle(msg *message.Message) error {
	start := time.Now()

	var event PostPublished
	if err := h.serializer.Unmarshal(msg.Payload, &event); err != nil {
		return NewPermanentError("decode post-published event", err)
	}

	metrics.FanoutEventsTotal.Inc()

	friends, err := h.graph.Friends(msg.Context(), event.AuthorID)
	if err != nil {
		return NewRetryableError("list friends", err)
	}

	ref := feed.PostRef{AuthorID: event.AuthorID, PostID: event.PostID}

	delivered := 0
	duplicates := 0
	for _, friendID := range friends {
		result, err := h.feeds.Push(msg.Context(), friendID, ref)
		if err != nil {
			// Recipients already pushed keep their update; redelivery
			// revisits them as duplicates.
			metrics.RecordDelivery("error")
			return NewRetryableError("push feed reference", err)
		}

		switch result.Outcome {
		case feed.MergeDuplicate:
			duplicates++
			metrics.RecordDelivery("duplicate")
		default:
			delivered++
			metrics.RecordDelivery("delivered")
		}
	}

	metrics.RecordFanout(len(friends), time.Since(start))

	logging.Debug().
		Str("event_id", event.EventID).
		Int64("author_id", int64(event.AuthorID)).
		Int64("post_id", int64(event.PostID)).
		Int("friends", len(friends)).
		Int("delivered", delivered).
		Int("duplicates", duplicates).
		Msg("Fan-out complete")

	return nil
}
