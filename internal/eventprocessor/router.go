// Newsfeed - Social Newsfeed Fan-out and Cache Invalidation Service
// Copyright 2026 Omar Ahmed (omar-ahmed42)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/omar-ahmed42/newsfeed

package eventprocessor

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/ThreeDotsLabs/watermill/message/router/plugin"
	natsgo "github.com/nats-io/nats.go"

	"github.com/omar-ahmed42/newsfeed/internal/cache"
	"github.com/omar-ahmed42/newsfeed/internal/metrics"
)

// RouterConfig holds configuration for the Watermill Router.
type RouterConfig struct {
	// CloseTimeout is how long to wait for handlers to finish when closing.
	CloseTimeout time.Duration

	// Retry configuration for transient handler failures.
	RetryMaxRetries      int
	RetryInitialInterval time.Duration
	RetryMaxInterval     time.Duration
	RetryMultiplier      float64

	// PoisonQueueTopic receives messages with permanent failures.
	PoisonQueueTopic string

	// DeduplicationEnabled adds consumer-side message ID deduplication on
	// top of the broker duplicate window. Off by default: the key is
	// recorded before the handler runs, so a message that fails and is
	// redelivered would be dropped as a duplicate. Handlers are already
	// idempotent; only enable this when duplicate side effects (metrics,
	// log noise) become a problem and loss on redelivery is acceptable.
	DeduplicationEnabled bool
	DeduplicationTTL     time.Duration
}

// DefaultRouterConfig returns production defaults for the Router.
func DefaultRouterConfig() RouterConfig {
	return RouterConfig{
		CloseTimeout:         30 * time.Second,
		RetryMaxRetries:      5,
		RetryInitialInterval: time.Second,
		RetryMaxInterval:     time.Minute,
		RetryMultiplier:      2.0,
		PoisonQueueTopic:     TopicPoisonQueue,
		DeduplicationEnabled: false,
		DeduplicationTTL:     5 * time.Minute,
	}
}

// Router wraps the Watermill Router with pre-configured middleware:
// panic recovery, exponential backoff retry, permanent-failure routing to
// the poison queue, and optional message ID deduplication. Retryable
// failures that exhaust retries are nacked for broker redelivery.
type Router struct {
	router    *message.Router
	config    RouterConfig
	logger    watermill.LoggerAdapter
	poisonPub message.Publisher
	handlers  map[string]*message.Handler
	dedupRepo *dedupRepository
}

// dedupRepository adapts cache.DedupCache to the Deduplicator middleware's
// ExpiringKeyRepository interface.
type dedupRepository struct {
	cache *cache.DedupCache
}

// IsDuplicate atomically checks and records the key.
func (d *dedupRepository) IsDuplicate(_ context.Context, key string) (bool, error) {
	dup := d.cache.IsDuplicate(key)
	if dup {
		metrics.EventsDeduplicatedTotal.Inc()
	}
	return dup, nil
}

// NewRouter creates a Watermill Router with the middleware chain wired.
func NewRouter(
	cfg *RouterConfig,
	poisonPublisher message.Publisher,
	logger watermill.LoggerAdapter,
) (*Router, error) {
	if logger == nil {
		logger = watermill.NewStdLogger(false, false)
	}

	if cfg == nil {
		defaultCfg := DefaultRouterConfig()
		cfg = &defaultCfg
	}

	wmRouter, err := message.NewRouter(message.RouterConfig{
		CloseTimeout: cfg.CloseTimeout,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create watermill router: %w", err)
	}

	r := &Router{
		router:    wmRouter,
		config:    *cfg,
		logger:    logger,
		poisonPub: poisonPublisher,
		handlers:  make(map[string]*message.Handler),
	}

	wmRouter.AddPlugin(plugin.SignalsHandler)

	// Middleware order matters. Recoverer is outermost so panics become
	// errors before anything else sees them. Retry wraps the poison queue
	// so permanent failures short-circuit to the DLQ without burning
	// retry attempts, while retryable failures bubble past the poison
	// filter into the retry loop and, once exhausted, out to a nack.
	wmRouter.AddMiddleware(middleware.Recoverer)

	if cfg.DeduplicationEnabled {
		r.dedupRepo = &dedupRepository{cache: cache.NewDedupCache(10000, cfg.DeduplicationTTL)}
		dedup := middleware.Deduplicator{
			KeyFactory: func(msg *message.Message) (string, error) {
				if id := msg.Metadata.Get(natsgo.MsgIdHdr); id != "" {
					return id, nil
				}
				return msg.UUID, nil
			},
			Repository: r.dedupRepo,
		}
		wmRouter.AddMiddleware(dedup.Middleware)
	}

	retryMiddleware := middleware.Retry{
		MaxRetries:      cfg.RetryMaxRetries,
		InitialInterval: cfg.RetryInitialInterval,
		MaxInterval:     cfg.RetryMaxInterval,
		Multiplier:      cfg.RetryMultiplier,
		Logger:          logger,
	}
	wmRouter.AddMiddleware(retryMiddleware.Middleware)

	if poisonPublisher != nil && cfg.PoisonQueueTopic != "" {
		poisonQueue, err := middleware.PoisonQueueWithFilter(
			poisonPublisher,
			cfg.PoisonQueueTopic,
			IsPermanent,
		)
		if err != nil {
			return nil, fmt.Errorf("create poison queue middleware: %w", err)
		}
		wmRouter.AddMiddleware(poisonQueue)
	}

	return r, nil
}

// AddConsumerHandler registers a handler that consumes messages from a
// topic without producing output messages.
func (r *Router) AddConsumerHandler(
	name string,
	subscribeTopic string,
	subscriber message.Subscriber,
	handler message.NoPublishHandlerFunc,
) *message.Handler {
	wrapped := func(msg *message.Message) error {
		metrics.EventsConsumedTotal.WithLabelValues(name).Inc()
		err := handler(msg)
		if err != nil {
			kind := "retryable"
			if IsPermanent(err) {
				kind = "permanent"
			}
			metrics.EventsFailedTotal.WithLabelValues(name, kind).Inc()
		}
		return err
	}

	h := r.router.AddConsumerHandler(name, subscribeTopic, subscriber, wrapped)
	r.handlers[name] = h
	return h
}

// Run starts the router and blocks until context cancellation or Close().
func (r *Router) Run(ctx context.Context) error {
	return r.router.Run(ctx)
}

// Running returns a channel that closes when the router is running.
func (r *Router) Running() <-chan struct{} {
	return r.router.Running()
}

// Close gracefully stops the router, waiting for in-flight messages up to
// CloseTimeout.
func (r *Router) Close() error {
	return r.router.Close()
}
