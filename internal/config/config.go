// Newsfeed - Social Newsfeed Fan-out and Cache Invalidation Service
// Copyright 2026 Omar Ahmed (omar-ahmed42)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/omar-ahmed42/newsfeed

// Package config loads layered configuration: built-in defaults, then an
// optional YAML file, then environment variables.
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration for the newsfeed service.
type Config struct {
	Server  ServerConfig  `koanf:"server"`
	Logging LoggingConfig `koanf:"logging"`
	NATS    NATSConfig    `koanf:"nats"`
	Badger  BadgerConfig  `koanf:"badger"`
	Feed    FeedConfig    `koanf:"feed"`
	API     APIConfig     `koanf:"api"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// NATSConfig holds NATS JetStream settings for the feed event log.
type NATSConfig struct {
	URL            string        `koanf:"url"`
	EmbeddedServer bool          `koanf:"embedded_server"`
	Host           string        `koanf:"host"`
	Port           int           `koanf:"port"`
	StoreDir       string        `koanf:"store_dir"`
	MaxMemory      int64         `koanf:"max_memory"`
	MaxStore       int64         `koanf:"max_store"`
	StreamName     string        `koanf:"stream_name"`
	RetentionDays  int           `koanf:"retention_days"`
	DurableName    string        `koanf:"durable_name"`
	QueueGroup     string        `koanf:"queue_group"`
	MaxDeliver     int           `koanf:"max_deliver"`
	AckWait        time.Duration `koanf:"ack_wait"`

	// SubscribersCount is the number of concurrent consumers per topic.
	// Keep at 1 so mutations to a single recipient's feed apply in order.
	SubscribersCount int `koanf:"subscribers_count"`

	RetryMaxRetries      int           `koanf:"retry_max_retries"`
	RetryInitialInterval time.Duration `koanf:"retry_initial_interval"`
	RetryMaxInterval     time.Duration `koanf:"retry_max_interval"`
	PoisonQueueTopic     string        `koanf:"poison_queue_topic"`
}

// BadgerConfig holds settings for the embedded cache/store database.
type BadgerConfig struct {
	Path      string `koanf:"path"`
	InMemory  bool   `koanf:"in_memory"`
	SyncWrite bool   `koanf:"sync_write"`
}

// FeedConfig holds newsfeed read-path settings.
type FeedConfig struct {
	// StoreTimeout bounds the post store batch fetch on reads. On
	// timeout the read returns the resolved subset marked partial.
	StoreTimeout time.Duration `koanf:"store_timeout"`

	// SnapshotTTL is the expiry for opportunistic post snapshots.
	SnapshotTTL time.Duration `koanf:"snapshot_ttl"`
}

// APIConfig holds HTTP API settings.
type APIConfig struct {
	RequestsPerMinute int      `koanf:"requests_per_minute"`
	CORSOrigins       []string `koanf:"cors_origins"`
}

// Default returns a Config with all default values. These are applied
// first, then overridden by the config file and environment variables.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		NATS: NATSConfig{
			URL:                  "nats://127.0.0.1:4222",
			EmbeddedServer:       true,
			Host:                 "127.0.0.1",
			Port:                 4222,
			StoreDir:             "/data/nats/jetstream",
			MaxMemory:            512 << 20,
			MaxStore:             10 << 30,
			StreamName:           "FEED_EVENTS",
			RetentionDays:        7,
			DurableName:          "feed-processor",
			QueueGroup:           "feed-workers",
			MaxDeliver:           10,
			AckWait:              30 * time.Second,
			SubscribersCount:     1,
			RetryMaxRetries:      5,
			RetryInitialInterval: time.Second,
			RetryMaxInterval:     time.Minute,
			PoisonQueueTopic:     "dlq.feed",
		},
		Badger: BadgerConfig{
			Path:      "/data/newsfeed/badger",
			InMemory:  false,
			SyncWrite: false,
		},
		Feed: FeedConfig{
			StoreTimeout: 2 * time.Second,
			SnapshotTTL:  30 * time.Minute,
		},
		API: APIConfig{
			RequestsPerMinute: 300,
			CORSOrigins:       []string{"*"},
		},
	}
}

// Validate checks the configuration for invalid values. It fails fast so
// a bad deployment dies at startup rather than misbehaving later.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.NATS.SubscribersCount < 1 {
		return fmt.Errorf("nats.subscribers_count must be at least 1, got %d", c.NATS.SubscribersCount)
	}
	if c.NATS.MaxDeliver < 1 {
		return fmt.Errorf("nats.max_deliver must be at least 1, got %d", c.NATS.MaxDeliver)
	}
	if c.NATS.StreamName == "" {
		return fmt.Errorf("nats.stream_name is required")
	}
	if c.Feed.StoreTimeout <= 0 {
		return fmt.Errorf("feed.store_timeout must be positive, got %s", c.Feed.StoreTimeout)
	}
	if c.Feed.SnapshotTTL <= 0 {
		return fmt.Errorf("feed.snapshot_ttl must be positive, got %s", c.Feed.SnapshotTTL)
	}
	if !c.Badger.InMemory && c.Badger.Path == "" {
		return fmt.Errorf("badger.path is required unless badger.in_memory is set")
	}
	if c.API.RequestsPerMinute < 0 {
		return fmt.Errorf("api.requests_per_minute must not be negative, got %d", c.API.RequestsPerMinute)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format)
	}
	return nil
}
