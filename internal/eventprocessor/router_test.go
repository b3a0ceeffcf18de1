// Newsfeed - Social Newsfeed Fan-out and Cache Invalidation Service
// Copyright 2026 Omar Ahmed (omar-ahmed42)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/omar-ahmed42/newsfeed

package eventprocessor

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

func newPipeline(t *testing.T, cfg RouterConfig) (*Router, *gochannel.GoChannel) {
	t.Helper()
	logger := watermill.NopLogger{}
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, logger)
	t.Cleanup(func() { pubSub.Close() })

	router, err := NewRouter(&cfg, pubSub, logger)
	if err != nil {
		t.Fatalf("NewRouter() error = %v", err)
	}
	t.Cleanup(func() { router.Close() })
	return router, pubSub
}

func runRouter(t *testing.T, router *Router) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	go func() {
		if err := router.Run(ctx); err != nil {
			t.Logf("router stopped: %v", err)
		}
	}()

	select {
	case <-router.Running():
	case <-time.After(5 * time.Second):
		t.Fatal("router did not start")
	}
}

func TestRouterRetriesTransientFailures(t *testing.T) {
	cfg := DefaultRouterConfig()
	cfg.RetryMaxRetries = 5
	cfg.RetryInitialInterval = time.Millisecond
	cfg.RetryMaxInterval = 5 * time.Millisecond

	router, pubSub := newPipeline(t, cfg)

	var attempts atomic.Int32
	done := make(chan struct{})
	router.AddConsumerHandler("flaky", "test.topic", pubSub, func(msg *message.Message) error {
		if attempts.Add(1) < 3 {
			return NewRetryableError("transient", errors.New("try again"))
		}
		close(done)
		return nil
	})

	runRouter(t, router)

	if err := pubSub.Publish("test.topic", message.NewMessage(watermill.NewUUID(), []byte("{}"))); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("handler never succeeded")
	}
	if got := attempts.Load(); got != 3 {
		t.Errorf("attempts = %d, want 3", got)
	}
}

func TestRouterRoutesPermanentFailuresToPoisonQueue(t *testing.T) {
	cfg := DefaultRouterConfig()
	cfg.RetryInitialInterval = time.Millisecond

	router, pubSub := newPipeline(t, cfg)

	var attempts atomic.Int32
	router.AddConsumerHandler("rejecting", "test.topic", pubSub, func(msg *message.Message) error {
		attempts.Add(1)
		return NewPermanentError("malformed", errors.New("bad payload"))
	})

	poisoned, err := pubSub.Subscribe(context.Background(), cfg.PoisonQueueTopic)
	if err != nil {
		t.Fatalf("Subscribe(poison) error = %v", err)
	}

	runRouter(t, router)

	published := message.NewMessage(watermill.NewUUID(), []byte("bad"))
	if err := pubSub.Publish("test.topic", published); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	select {
	case msg := <-poisoned:
		msg.Ack()
		if string(msg.Payload) != "bad" {
			t.Errorf("poison payload = %q, want %q", msg.Payload, "bad")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("message never reached the poison queue")
	}

	// Permanent failures go straight to the queue without retries.
	if got := attempts.Load(); got != 1 {
		t.Errorf("attempts = %d, want 1", got)
	}
}
