// Newsfeed - Social Newsfeed Fan-out and Cache Invalidation Service
// Copyright 2026 Omar Ahmed (omar-ahmed42)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/omar-ahmed42/newsfeed

// Package metrics provides Prometheus instrumentation for the newsfeed
// subsystem: fan-out throughput, invalidation counts, read latency, cache
// efficiency, and event pipeline health.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Fan-out metrics
	FanoutEventsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feed_fanout_events_total",
			Help: "Total number of post-published events processed",
		},
	)

	FanoutDeliveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_fanout_deliveries_total",
			Help: "Total number of per-recipient feed cache merges by outcome",
		},
		[]string{"outcome"}, // "added", "duplicate", "added_trimmed"
	)

	FanoutDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "feed_fanout_duration_seconds",
			Help:    "Time to fan a post out to all of the author's friends",
			Buckets: prometheus.DefBuckets,
		},
	)

	FanoutRecipients = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "feed_fanout_recipients",
			Help:    "Number of recipients per post-published event",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 5000},
		},
	)

	// Invalidation metrics
	InvalidationEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_invalidation_events_total",
			Help: "Total number of invalidation events processed",
		},
		[]string{"trigger"}, // "friend_removed", "post_deleted", "user_deleted"
	)

	InvalidationRemovalsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feed_invalidation_removals_total",
			Help: "Total number of references removed from feed caches",
		},
	)

	// Reader metrics
	ReadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_reads_total",
			Help: "Total number of newsfeed reads",
		},
		[]string{"result"}, // "ok", "partial", "forbidden", "error"
	)

	ReadDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "feed_read_duration_seconds",
			Help:    "Newsfeed read latency in seconds",
			Buckets: []float64{0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
	)

	ReadStaleRefsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feed_reader_stale_refs_total",
			Help: "References that resolved to no canonical post (missed eviction events)",
		},
	)

	// Snapshot cache metrics
	SnapshotHitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feed_snapshot_cache_hits_total",
			Help: "Post snapshot cache hits during reads",
		},
	)

	SnapshotMissesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feed_snapshot_cache_misses_total",
			Help: "Post snapshot cache misses during reads",
		},
	)

	// Event pipeline metrics
	EventsPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_events_published_total",
			Help: "Events published to the event log by topic",
		},
		[]string{"topic"},
	)

	EventsConsumedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_events_consumed_total",
			Help: "Events consumed from the event log by handler",
		},
		[]string{"handler"},
	)

	EventsFailedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_events_failed_total",
			Help: "Event handler failures by handler and kind",
		},
		[]string{"handler", "kind"}, // kind: "retryable", "permanent"
	)

	EventsDeduplicatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feed_events_deduplicated_total",
			Help: "Events skipped by the in-memory redelivery dedup cache",
		},
	)

	// HTTP metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "endpoint"},
	)
)

// RecordFanout records one processed post-published event.
func RecordFanout(recipients int, duration time.Duration) {
	FanoutEventsTotal.Inc()
	FanoutRecipients.Observe(float64(recipients))
	FanoutDuration.Observe(duration.Seconds())
}

// RecordDelivery records one per-recipient merge outcome.
func RecordDelivery(outcome string) {
	FanoutDeliveriesTotal.WithLabelValues(outcome).Inc()
}

// RecordInvalidation records one invalidation event and its removals.
func RecordInvalidation(trigger string, removals int) {
	InvalidationEventsTotal.WithLabelValues(trigger).Inc()
	InvalidationRemovalsTotal.Add(float64(removals))
}

// RecordRead records one newsfeed read.
func RecordRead(result string, duration time.Duration) {
	ReadsTotal.WithLabelValues(result).Inc()
	ReadDuration.Observe(duration.Seconds())
}
