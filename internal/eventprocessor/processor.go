// Newsfeed - Social Newsfeed Fan-out and Cache Invalidation Service
// Copyright 2026 Omar Ahmed (omar-ahmed42)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/omar-ahmed42/newsfeed

package eventprocessor

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	natsgo "github.com/nats-io/nats.go"

	"github.com/omar-ahmed42/newsfeed/internal/feed"
	"github.com/omar-ahmed42/newsfeed/internal/graph"
)

// ProcessorConfig aggregates the configuration for the full event
// processing pipeline.
type ProcessorConfig struct {
	Stream     StreamConfig
	Publisher  PublisherConfig
	Subscriber SubscriberConfig
	Router     RouterConfig
}

// DefaultProcessorConfig returns production defaults for the pipeline.
func DefaultProcessorConfig() ProcessorConfig {
	return ProcessorConfig{
		Stream:     DefaultStreamConfig(),
		Publisher:  DefaultPublisherConfig(),
		Subscriber: DefaultSubscriberConfig(),
		Router:     DefaultRouterConfig(),
	}
}

// Processor wires the stream, publisher, subscriber, router and the
// fan-out/invalidation handlers into one runnable unit.
type Processor struct {
	Router     *Router
	Publisher  *Publisher
	Subscriber *Subscriber

	streams *StreamManager
	nc      *natsgo.Conn
	logger  watermill.LoggerAdapter
}

// NewProcessor connects to NATS, provisions the feed event stream, and
// registers one consumer handler per event channel. The returned processor
// is not running until Run is called.
func NewProcessor(
	ctx context.Context,
	cfg ProcessorConfig,
	graphGW graph.Gateway,
	feeds *feed.Cache,
	snapshots *feed.SnapshotCache,
	logger watermill.LoggerAdapter,
) (*Processor, error) {
	if logger == nil {
		logger = watermill.NewStdLogger(false, false)
	}

	// Provision the stream before any publisher or subscriber attaches.
	nc, err := natsgo.Connect(cfg.Publisher.URL,
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(cfg.Publisher.MaxReconnects),
		natsgo.ReconnectWait(cfg.Publisher.ReconnectWait),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	streams, err := NewStreamManager(nc, &cfg.Stream)
	if err != nil {
		nc.Close()
		return nil, err
	}
	if _, err := streams.EnsureStream(ctx); err != nil {
		nc.Close()
		return nil, fmt.Errorf("ensure stream: %w", err)
	}

	publisher, err := NewPublisher(cfg.Publisher, logger)
	if err != nil {
		nc.Close()
		return nil, err
	}
	publisher.SetCircuitBreaker(NewPublishBreaker())

	subscriber, err := NewSubscriber(&cfg.Subscriber, logger)
	if err != nil {
		publisher.Close()
		nc.Close()
		return nil, err
	}

	router, err := NewRouter(&cfg.Router, publisher.WatermillPublisher(), logger)
	if err != nil {
		subscriber.Close()
		publisher.Close()
		nc.Close()
		return nil, err
	}

	p := &Processor{
		Router:     router,
		Publisher:  publisher,
		Subscriber: subscriber,
		streams:    streams,
		nc:         nc,
		logger:     logger,
	}

	fanout := NewFanoutHandler(graphGW, feeds)
	invalidation := NewInvalidationHandler(graphGW, feeds, snapshots)

	sub := subscriber.WatermillSubscriber()
	router.AddConsumerHandler(FanoutHandlerName, TopicPostPublished, sub, fanout.Handle)
	router.AddConsumerHandler(FriendRemovedHandlerName, TopicFriendRemoved, sub, invalidation.HandleFriendRemoved)
	router.AddConsumerHandler(PostDeletedHandlerName, TopicPostDeleted, sub, invalidation.HandlePostDeleted)
	router.AddConsumerHandler(UserDeletedHandlerName, TopicUserDeleted, sub, invalidation.HandleUserDeleted)

	return p, nil
}

// Run starts the router and blocks until the context is canceled.
func (p *Processor) Run(ctx context.Context) error {
	return p.Router.Run(ctx)
}

// Close shuts down the pipeline in consume-before-publish order.
func (p *Processor) Close() error {
	var firstErr error
	if err := p.Router.Close(); err != nil {
		firstErr = err
	}
	if err := p.Subscriber.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := p.Publisher.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	p.nc.Close()
	return firstErr
}
