// Newsfeed - Social Newsfeed Fan-out and Cache Invalidation Service
// Copyright 2026 Omar Ahmed (omar-ahmed42)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/omar-ahmed42/newsfeed

package eventprocessor

import (
	"fmt"
	"time"
)

// StreamConfig holds JetStream stream settings for the feed event log.
type StreamConfig struct {
	// Name is the JetStream stream name.
	Name string

	// Subjects are the subjects captured by the stream.
	Subjects []string

	// MaxAge is how long events are retained.
	MaxAge time.Duration

	// MaxBytes caps the on-disk size of the stream (-1 = unlimited).
	MaxBytes int64

	// MaxMsgs caps the number of retained messages (-1 = unlimited).
	MaxMsgs int64

	// DuplicateWindow is the broker-side Nats-Msg-Id dedup window.
	DuplicateWindow time.Duration

	// Replicas is the stream replication factor.
	Replicas int
}

// DefaultStreamConfig returns production defaults for the feed event stream.
func DefaultStreamConfig() StreamConfig {
	return StreamConfig{
		Name:            "FEED_EVENTS",
		Subjects:        []string{"feed.>", TopicPoisonQueue},
		MaxAge:          7 * 24 * time.Hour,
		MaxBytes:        4 << 30,
		MaxMsgs:         -1,
		DuplicateWindow: 2 * time.Minute,
		Replicas:        1,
	}
}

// Validate checks the stream configuration.
func (c *StreamConfig) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("%w: stream name required", ErrInvalidConfig)
	}
	if len(c.Subjects) == 0 {
		return fmt.Errorf("%w: at least one subject required", ErrInvalidConfig)
	}
	return nil
}

// ServerConfig holds embedded NATS server configuration.
type ServerConfig struct {
	Host              string
	Port              int
	StoreDir          string
	JetStreamMaxMem   int64
	JetStreamMaxStore int64
}

// DefaultServerConfig returns production defaults for the embedded NATS server.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:              "127.0.0.1",
		Port:              4222,
		StoreDir:          "/data/nats/jetstream",
		JetStreamMaxMem:   512 << 20,
		JetStreamMaxStore: 10 << 30,
	}
}

// PublisherConfig holds settings for the JetStream publisher.
type PublisherConfig struct {
	// URL is the NATS server connection URL.
	URL string

	// MaxReconnects before the connection gives up (-1 = unlimited).
	MaxReconnects int

	// ReconnectWait is the delay between reconnect attempts.
	ReconnectWait time.Duration

	// ReconnectBuffer is the bytes buffered while disconnected.
	ReconnectBuffer int

	// EnableTrackMsgID enables broker-side deduplication via Nats-Msg-Id.
	EnableTrackMsgID bool
}

// DefaultPublisherConfig returns production defaults for the publisher.
func DefaultPublisherConfig() PublisherConfig {
	return PublisherConfig{
		URL:              "nats://127.0.0.1:4222",
		MaxReconnects:    -1,
		ReconnectWait:    2 * time.Second,
		ReconnectBuffer:  8 << 20,
		EnableTrackMsgID: true,
	}
}

// SubscriberConfig holds settings for durable JetStream consumption.
type SubscriberConfig struct {
	// URL is the NATS server connection URL.
	URL string

	// StreamName binds the consumer to an existing stream. Required for
	// wildcard topics; stream names cannot contain wildcards.
	StreamName string

	// DurableName is the consumer durable name prefix.
	DurableName string

	// QueueGroup is the queue group prefix for load balancing.
	QueueGroup string

	// SubscribersCount is the number of concurrent message processors per
	// topic. Keep at 1: a single recipient's fan-out and invalidation
	// events must apply in order, and multiple goroutines draining the
	// same consumer would break that.
	SubscribersCount int

	// MaxDeliver caps broker redelivery attempts per message.
	MaxDeliver int

	// MaxAckPending caps outstanding unacked messages.
	MaxAckPending int

	// AckWaitTimeout is how long the broker waits for an ack before
	// redelivering.
	AckWaitTimeout time.Duration

	// CloseTimeout is how long Close waits for in-flight messages.
	CloseTimeout time.Duration

	// MaxReconnects before the connection gives up (-1 = unlimited).
	MaxReconnects int

	// ReconnectWait is the delay between reconnect attempts.
	ReconnectWait time.Duration
}

// DefaultSubscriberConfig returns production defaults for the subscriber.
func DefaultSubscriberConfig() SubscriberConfig {
	return SubscriberConfig{
		URL:              "nats://127.0.0.1:4222",
		StreamName:       "FEED_EVENTS",
		DurableName:      "feed-processor",
		QueueGroup:       "feed-workers",
		SubscribersCount: 1,
		MaxDeliver:       10,
		MaxAckPending:    256,
		AckWaitTimeout:   30 * time.Second,
		CloseTimeout:     30 * time.Second,
		MaxReconnects:    -1,
		ReconnectWait:    2 * time.Second,
	}
}
