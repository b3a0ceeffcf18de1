// Newsfeed - Social Newsfeed Fan-out and Cache Invalidation Service
// Copyright 2026 Omar Ahmed (omar-ahmed42)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/omar-ahmed42/newsfeed

// Package main is the entry point for the newsfeed server.
//
// The server materializes per-user newsfeeds from social events. Post
// lifecycle and friendship events arrive over NATS JetStream; a fan-out
// consumer pushes post references into each friend's bounded cache entry,
// and invalidation consumers prune references when posts, friendships, or
// users go away. Reads are served over HTTP from the cache, resolving
// references to bodies through a snapshot cache with a bounded fallback to
// the post store.
//
// Startup order:
//
//  1. Configuration: Koanf v2 layered sources (defaults, config.yaml, env)
//  2. Logging: zerolog global logger
//  3. BadgerDB: cache namespaces and backing stores
//  4. NATS: embedded JetStream server (optional) and the event pipeline
//  5. HTTP server: newsfeed read endpoint, health, Prometheus metrics
//  6. Supervision: suture tree restarts the pipeline and server on failure
//
// The server shuts down gracefully on SIGINT and SIGTERM, draining
// in-flight messages and requests before exit.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/omar-ahmed42/newsfeed/internal/api"
	"github.com/omar-ahmed42/newsfeed/internal/cache"
	"github.com/omar-ahmed42/newsfeed/internal/config"
	"github.com/omar-ahmed42/newsfeed/internal/eventprocessor"
	"github.com/omar-ahmed42/newsfeed/internal/feed"
	"github.com/omar-ahmed42/newsfeed/internal/graph"
	"github.com/omar-ahmed42/newsfeed/internal/logging"
	"github.com/omar-ahmed42/newsfeed/internal/poststore"
	"github.com/omar-ahmed42/newsfeed/internal/supervisor"
)

func main() {
	if err := run(); err != nil {
		logging.Fatal().Err(err).Msg("Server exited with error")
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("level", cfg.Logging.Level).
		Int("port", cfg.Server.Port).
		Msg("Starting newsfeed server")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Badger backs the newsfeed and snapshot cache namespaces plus the
	// graph and post store gateways.
	badgerOpts := badger.DefaultOptions(cfg.Badger.Path).
		WithInMemory(cfg.Badger.InMemory).
		WithSyncWrites(cfg.Badger.SyncWrite).
		WithLogger(nil)
	if cfg.Badger.InMemory {
		badgerOpts = badgerOpts.WithDir("").WithValueDir("")
	}

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return fmt.Errorf("open badger: %w", err)
	}
	defer db.Close()

	store, err := cache.NewBadgerStore(db, cache.Namespaces())
	if err != nil {
		return fmt.Errorf("create cache store: %w", err)
	}

	graphGW, err := graph.NewBadgerGateway(db)
	if err != nil {
		return fmt.Errorf("create graph gateway: %w", err)
	}

	postGW, err := poststore.NewBadgerGateway(db)
	if err != nil {
		return fmt.Errorf("create post store gateway: %w", err)
	}

	feeds := feed.NewCache(store)
	snapshots := feed.NewSnapshotCache(store, cfg.Feed.SnapshotTTL)
	reader := feed.NewReader(feeds, snapshots, postGW, cfg.Feed.StoreTimeout)

	// Embedded NATS server for single-instance deployments. Point
	// nats.url at an external broker and disable this for clusters.
	natsURL := cfg.NATS.URL
	if cfg.NATS.EmbeddedServer {
		embedded, err := eventprocessor.NewEmbeddedServer(&eventprocessor.ServerConfig{
			Host:              cfg.NATS.Host,
			Port:              cfg.NATS.Port,
			StoreDir:          cfg.NATS.StoreDir,
			JetStreamMaxMem:   cfg.NATS.MaxMemory,
			JetStreamMaxStore: cfg.NATS.MaxStore,
		})
		if err != nil {
			return fmt.Errorf("start embedded NATS: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()
			if err := embedded.Shutdown(shutdownCtx); err != nil {
				logging.Warn().Err(err).Msg("Embedded NATS shutdown incomplete")
			}
		}()
		natsURL = embedded.ClientURL()
	}

	processor, err := eventprocessor.NewProcessor(
		ctx,
		processorConfig(cfg, natsURL),
		graphGW,
		feeds,
		snapshots,
		logging.NewWatermillAdapter(),
	)
	if err != nil {
		return fmt.Errorf("create event processor: %w", err)
	}
	defer processor.Close()

	handler := api.NewHandler(reader)
	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      api.NewRouter(handler, cfg.API),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	tree, err := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
		return fmt.Errorf("create supervisor tree: %w", err)
	}
	tree.AddMessagingService(supervisor.NewRunnerService("event-processor", processor))
	tree.AddAPIService(supervisor.NewHTTPService(httpServer, cfg.Server.ShutdownTimeout))

	err = tree.Serve(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	logging.Info().Msg("Shutdown complete")
	return nil
}

func processorConfig(cfg *config.Config, natsURL string) eventprocessor.ProcessorConfig {
	pc := eventprocessor.DefaultProcessorConfig()

	pc.Stream.Name = cfg.NATS.StreamName
	pc.Stream.MaxAge = time.Duration(cfg.NATS.RetentionDays) * 24 * time.Hour

	pc.Publisher.URL = natsURL

	pc.Subscriber.URL = natsURL
	pc.Subscriber.StreamName = cfg.NATS.StreamName
	pc.Subscriber.DurableName = cfg.NATS.DurableName
	pc.Subscriber.QueueGroup = cfg.NATS.QueueGroup
	pc.Subscriber.SubscribersCount = cfg.NATS.SubscribersCount
	pc.Subscriber.MaxDeliver = cfg.NATS.MaxDeliver
	pc.Subscriber.AckWaitTimeout = cfg.NATS.AckWait

	pc.Router.RetryMaxRetries = cfg.NATS.RetryMaxRetries
	pc.Router.RetryInitialInterval = cfg.NATS.RetryInitialInterval
	pc.Router.RetryMaxInterval = cfg.NATS.RetryMaxInterval
	pc.Router.PoisonQueueTopic = cfg.NATS.PoisonQueueTopic

	return pc
}
