// Newsfeed - Social Newsfeed Fan-out and Cache Invalidation Service
// Copyright 2026 Omar Ahmed (omar-ahmed42)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/omar-ahmed42/newsfeed

package eventprocessor

import (
	"fmt"

	"github.com/goccy/go-json"
)

// Serializer handles event encoding/decoding for NATS messages.
type Serializer struct{}

// NewSerializer creates a new serializer.
func NewSerializer() *Serializer {
	return &Serializer{}
}

// Marshal validates and converts an event to JSON bytes.
func (s *Serializer) Marshal(event Event) ([]byte, error) {
	if err := event.Validate(); err != nil {
		return nil, fmt.Errorf("validate event: %w", err)
	}

	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}

	return data, nil
}

// Unmarshal decodes JSON bytes into the given event and validates it.
// The caller picks the concrete type from the message topic; a payload that
// fails to decode or validate is malformed and must not be retried.
func (s *Serializer) Unmarshal(data []byte, event Event) error {
	if err := json.Unmarshal(data, event); err != nil {
		return fmt.Errorf("unmarshal event: %w", err)
	}
	if err := event.Validate(); err != nil {
		return fmt.Errorf("validate event: %w", err)
	}
	return nil
}

// SerializeEvent is a convenience function that marshals an event to JSON.
func SerializeEvent(event Event) ([]byte, error) {
	return NewSerializer().Marshal(event)
}
