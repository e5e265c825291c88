// Gridwatch - Spreadsheet Audit Telemetry and Analytics
// Copyright 2026 Gridwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gridwatch/gridwatch

// Package main is the entry point for the Gridwatch server.
//
// Gridwatch is a self-hosted telemetry backend for spreadsheet audit
// events. Desktop clients upload batches of audit events (cell changes,
// workbook lifecycle, formula edits); Gridwatch persists them in DuckDB
// and serves queries, statistics, session listings, a model registry,
// and a real-time feed over WebSocket.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: environment variables and config file (Koanf v2)
//  2. Database: DuckDB event store with schema and indexes
//  3. Ingestion service: batch validation and persistence
//  4. WebSocket hub: real-time feed to connected clients
//  5. Background jobs: retention cleanup and stale session reaper
//  6. HTTP server: REST API plus /ws, /health, /metrics
//
// All long-running components run under a suture supervisor tree, split
// into data, messaging, and api layers for failure isolation.
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest
// priority wins):
//   - Environment variables (HTTP_PORT, DUCKDB_PATH, ...)
//   - Config file (config.yaml, or CONFIG_PATH)
//   - Built-in defaults
//
// # Signal Handling
//
// The server handles graceful shutdown on SIGINT and SIGTERM:
//   - Stops accepting new connections
//   - Waits for in-flight requests to complete (10s timeout)
//   - Closes the live feed hub and the database (with a final CHECKPOINT)
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

	"github.com/gridwatch/gridwatch/internal/api"
	"github.com/gridwatch/gridwatch/internal/config"
	"github.com/gridwatch/gridwatch/internal/database"
	"github.com/gridwatch/gridwatch/internal/ingest"
	"github.com/gridwatch/gridwatch/internal/logging"
	"github.com/gridwatch/gridwatch/internal/scheduler"
	"github.com/gridwatch/gridwatch/internal/supervisor"
	"github.com/gridwatch/gridwatch/internal/supervisor/services"
	ws "github.com/gridwatch/gridwatch/internal/websocket"
)

func main() {
	// Load configuration first to get logging settings
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().Msg("Starting Gridwatch with supervisor tree")
	logging.Info().
		Str("db_path", cfg.Database.Path).
		Int("max_batch_size", cfg.Ingest.MaxBatchSize).
		Int("retention_days", cfg.Retention.EventRetentionDays).
		Msg("Configuration loaded")

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()
	logging.Info().Msg("Database initialized successfully")

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Bridge zerolog to slog for sutureslog compatibility
	slogLogger := logging.NewSlogLogger()

	tree, err := supervisor.NewSupervisorTree(slogLogger, supervisor.DefaultTreeConfig())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	hub := ws.NewHub()
	feed := ws.NewFeed(db, &cfg.LiveFeed)
	ingestSvc := ingest.New(db, &cfg.Ingest)

	handler := api.NewHandler(db, ingestSvc, hub, feed, cfg)
	router := api.NewRouter(handler, cfg)

	if cfg.Security.RateLimitDisabled {
		logging.Warn().Msg("Rate limiting is DISABLED - do not run this configuration in production")
	}

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.SetupChi(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	// Data layer: background maintenance jobs
	tree.AddDataService(scheduler.NewCleanupService(db, &cfg.Retention))
	tree.AddDataService(scheduler.NewReaperService(db, &cfg.Retention))
	logging.Info().
		Dur("cleanup_interval", cfg.Retention.CleanupInterval).
		Dur("reaper_interval", cfg.Retention.SessionReaperInterval).
		Msg("Background jobs added to supervisor tree")

	// Messaging layer: live feed hub
	tree.AddMessagingService(services.NewWebSocketHubService(hub))
	logging.Info().Msg("WebSocket hub added to supervisor tree")

	// API layer: HTTP server
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	// Setup signal handling
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	// Wait for the error channel to close (supervisor finished)
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	// Report any services that failed to stop within timeout
	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("Application stopped gracefully")
}
