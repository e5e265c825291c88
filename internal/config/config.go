// Gridwatch - Spreadsheet Audit Telemetry and Analytics
// Copyright 2026 Gridwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gridwatch/gridwatch

// Package config loads and validates Gridwatch configuration.
//
// Configuration is loaded via Koanf v2 with layered sources (highest
// priority wins):
//   - Environment variables
//   - Config file (config.yaml)
//   - Built-in defaults
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration for the Gridwatch server.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Ingest    IngestConfig    `koanf:"ingest"`
	Retention RetentionConfig `koanf:"retention"`
	LiveFeed  LiveFeedConfig  `koanf:"live_feed"`
	Security  SecurityConfig  `koanf:"security"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `koanf:"host"`
	Port int    `koanf:"port"`

	// Timeout bounds request handling and graceful shutdown.
	Timeout time.Duration `koanf:"timeout"`
}

// DatabaseConfig holds DuckDB settings.
type DatabaseConfig struct {
	// Path is the database file location. Empty means in-memory,
	// which is used by tests and throwaway deployments.
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`

	// Threads is the DuckDB worker thread count. 0 = runtime.NumCPU().
	Threads int `koanf:"threads"`

	// QueryTimeout bounds individual query execution.
	QueryTimeout time.Duration `koanf:"query_timeout"`
}

// IngestConfig holds batch ingestion settings.
type IngestConfig struct {
	// MaxBatchSize is the largest accepted upload batch. Larger batches
	// are rejected whole.
	MaxBatchSize int `koanf:"max_batch_size"`

	// InsertChunkSize is the number of rows per INSERT statement inside
	// the ingest transaction.
	InsertChunkSize int `koanf:"insert_chunk_size"`
}

// RetentionConfig holds background cleanup settings.
type RetentionConfig struct {
	// EventRetentionDays is how long events are kept before deletion.
	EventRetentionDays int `koanf:"event_retention_days"`

	// CleanupInterval is how often the event cleanup job runs.
	CleanupInterval time.Duration `koanf:"cleanup_interval"`

	// DeleteBatchSize is the number of rows deleted per batch; each batch
	// commits independently so progress survives a mid-run failure.
	DeleteBatchSize int `koanf:"delete_batch_size"`

	// SessionReaperInterval is how often stale open sessions are closed.
	SessionReaperInterval time.Duration `koanf:"session_reaper_interval"`

	// SessionMaxAge is how long a session may stay open before the reaper
	// closes it with end_time = start_time + SessionMaxAge.
	SessionMaxAge time.Duration `koanf:"session_max_age"`
}

// LiveFeedConfig holds WebSocket live feed settings.
type LiveFeedConfig struct {
	// PollInterval is how often each connection checks for new events.
	PollInterval time.Duration `koanf:"poll_interval"`

	// DeliveryLimit caps events per update frame.
	DeliveryLimit int `koanf:"delivery_limit"`

	// SnapshotSize is the number of recent events in the initial frame.
	SnapshotSize int `koanf:"snapshot_size"`
}

// SecurityConfig holds rate limiting and CORS settings.
type SecurityConfig struct {
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Validate checks the configuration for values that would misbehave at
// runtime. It is called after all layers are merged.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("server.timeout must be positive, got %s", c.Server.Timeout)
	}

	if c.Ingest.MaxBatchSize < 1 {
		return fmt.Errorf("ingest.max_batch_size must be at least 1, got %d", c.Ingest.MaxBatchSize)
	}
	if c.Ingest.InsertChunkSize < 1 {
		return fmt.Errorf("ingest.insert_chunk_size must be at least 1, got %d", c.Ingest.InsertChunkSize)
	}
	if c.Ingest.InsertChunkSize > c.Ingest.MaxBatchSize {
		c.Ingest.InsertChunkSize = c.Ingest.MaxBatchSize
	}

	if c.Retention.EventRetentionDays < 1 {
		return fmt.Errorf("retention.event_retention_days must be at least 1, got %d", c.Retention.EventRetentionDays)
	}
	if c.Retention.CleanupInterval <= 0 {
		return fmt.Errorf("retention.cleanup_interval must be positive, got %s", c.Retention.CleanupInterval)
	}
	if c.Retention.DeleteBatchSize < 1 {
		return fmt.Errorf("retention.delete_batch_size must be at least 1, got %d", c.Retention.DeleteBatchSize)
	}
	if c.Retention.SessionReaperInterval <= 0 {
		return fmt.Errorf("retention.session_reaper_interval must be positive, got %s", c.Retention.SessionReaperInterval)
	}
	if c.Retention.SessionMaxAge <= 0 {
		return fmt.Errorf("retention.session_max_age must be positive, got %s", c.Retention.SessionMaxAge)
	}

	if c.LiveFeed.PollInterval <= 0 {
		return fmt.Errorf("live_feed.poll_interval must be positive, got %s", c.LiveFeed.PollInterval)
	}
	if c.LiveFeed.DeliveryLimit < 1 {
		return fmt.Errorf("live_feed.delivery_limit must be at least 1, got %d", c.LiveFeed.DeliveryLimit)
	}
	if c.LiveFeed.SnapshotSize < 1 {
		return fmt.Errorf("live_feed.snapshot_size must be at least 1, got %d", c.LiveFeed.SnapshotSize)
	}

	if c.Database.QueryTimeout <= 0 {
		return fmt.Errorf("database.query_timeout must be positive, got %s", c.Database.QueryTimeout)
	}

	if !c.Security.RateLimitDisabled {
		if c.Security.RateLimitReqs < 1 {
			return fmt.Errorf("security.rate_limit_reqs must be at least 1, got %d", c.Security.RateLimitReqs)
		}
		if c.Security.RateLimitWindow <= 0 {
			return fmt.Errorf("security.rate_limit_window must be positive, got %s", c.Security.RateLimitWindow)
		}
	}

	switch c.Logging.Format {
	case "", "json", "console":
	default:
		return fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format)
	}

	return nil
}

// Load loads configuration from all sources.
// It is the single entry point used by main().
func Load() (*Config, error) {
	return LoadWithKoanf()
}
