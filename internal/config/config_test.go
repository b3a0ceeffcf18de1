// Newsfeed - Social Newsfeed Fan-out and Cache Invalidation Service
// Copyright 2026 Omar Ahmed (omar-ahmed42)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/omar-ahmed42/newsfeed

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultValidates(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("Default().Validate() error = %v", err)
	}
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port out of range", func(c *Config) { c.Server.Port = 0 }},
		{"zero subscribers", func(c *Config) { c.NATS.SubscribersCount = 0 }},
		{"zero max deliver", func(c *Config) { c.NATS.MaxDeliver = 0 }},
		{"empty stream name", func(c *Config) { c.NATS.StreamName = "" }},
		{"non-positive store timeout", func(c *Config) { c.Feed.StoreTimeout = 0 }},
		{"non-positive snapshot ttl", func(c *Config) { c.Feed.SnapshotTTL = -time.Second }},
		{"disk badger without path", func(c *Config) { c.Badger.Path = "" }},
		{"negative rate limit", func(c *Config) { c.API.RequestsPerMinute = -1 }},
		{"unknown log format", func(c *Config) { c.Logging.Format = "xml" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() = nil, want error")
			}
		})
	}
}

func TestEnvTransform(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"SERVER_PORT", "server.port"},
		{"SERVER_SHUTDOWN_TIMEOUT", "server.shutdown_timeout"},
		{"NATS_STORE_DIR", "nats.store_dir"},
		{"API_REQUESTS_PER_MINUTE", "api.requests_per_minute"},
		{"FEED_SNAPSHOT_TTL", "feed.snapshot_ttl"},
		{"HOME", ""},
		{"PATH", ""},
		{"DATABASE_URL", ""},
	}
	for _, tt := range tests {
		if got := envTransform(tt.in); got != tt.want {
			t.Errorf("envTransform(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("FEED_STORE_TIMEOUT", "5s")
	t.Setenv("NATS_EMBEDDED_SERVER", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Feed.StoreTimeout != 5*time.Second {
		t.Errorf("Feed.StoreTimeout = %s, want 5s", cfg.Feed.StoreTimeout)
	}
	if cfg.NATS.EmbeddedServer {
		t.Error("NATS.EmbeddedServer = true, want false")
	}
	// Untouched settings keep their defaults.
	if cfg.NATS.StreamName != "FEED_EVENTS" {
		t.Errorf("NATS.StreamName = %q, want FEED_EVENTS", cfg.NATS.StreamName)
	}
}

func TestLoadSplitsCORSOrigins(t *testing.T) {
	t.Setenv("API_CORS_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	want := []string{"https://a.example", "https://b.example"}
	if len(cfg.API.CORSOrigins) != len(want) {
		t.Fatalf("API.CORSOrigins = %v, want %v", cfg.API.CORSOrigins, want)
	}
	for i := range want {
		if cfg.API.CORSOrigins[i] != want[i] {
			t.Errorf("API.CORSOrigins[%d] = %q, want %q", i, cfg.API.CORSOrigins[i], want[i])
		}
	}
}

func TestLoadConfigFileAndEnvPriority(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("server:\n  port: 7070\nlogging:\n  level: debug\n")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("LOGGING_LEVEL", "warn")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	// File overrides the default.
	if cfg.Server.Port != 7070 {
		t.Errorf("Server.Port = %d, want 7070", cfg.Server.Port)
	}
	// Environment overrides the file.
	if cfg.Logging.Level != "warn" {
		t.Errorf("Logging.Level = %q, want warn", cfg.Logging.Level)
	}
}

func TestLoadRejectsInvalidEnvValue(t *testing.T) {
	t.Setenv("LOGGING_FORMAT", "xml")

	if _, err := Load(); err == nil {
		t.Error("Load() = nil error for invalid logging format, want error")
	}
}
