// Gridwatch - Spreadsheet Audit Telemetry and Analytics
// Copyright 2026 Gridwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gridwatch/gridwatch

package websocket

import (
	"context"
	"time"

	"github.com/gridwatch/gridwatch/internal/config"
	"github.com/gridwatch/gridwatch/internal/database"
	"github.com/gridwatch/gridwatch/internal/logging"
	"github.com/gridwatch/gridwatch/internal/models"
)

// FeedFrame is the payload of initial and update messages.
type FeedFrame struct {
	Metrics   *models.DashboardMetrics `json:"metrics"`
	Events    []models.AuditEvent      `json:"events"`
	Timestamp string                   `json:"timestamp"`
}

// Feed drives the live audit feed for individual connections. Each
// connection carries its own watermark, the timestamp of the newest event
// already delivered, so two clients connecting at different times each see
// every event exactly once.
type Feed struct {
	db  *database.DB
	cfg *config.LiveFeedConfig
}

// NewFeed creates a feed backed by db.
func NewFeed(db *database.DB, cfg *config.LiveFeedConfig) *Feed {
	return &Feed{db: db, cfg: cfg}
}

// Run services one client: an initial snapshot frame, then an update frame
// on every poll that finds newer events. Returns when the client drops, the
// hub shuts down, or ctx is canceled.
func (f *Feed) Run(ctx context.Context, hub *Hub, client *Client) {
	watermark, ok := f.sendInitial(ctx, hub, client)
	if !ok {
		return
	}

	ticker := time.NewTicker(f.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-hub.Done():
			return
		case <-ticker.C:
			watermark, ok = f.poll(ctx, hub, client, watermark)
			if !ok {
				return
			}
		}
	}
}

// sendInitial delivers the snapshot frame and returns the starting
// watermark: the newest snapshot event, or the zero time for an empty store
// so the first poll picks up whatever arrives.
func (f *Feed) sendInitial(ctx context.Context, hub *Hub, client *Client) (time.Time, bool) {
	events, err := f.db.GetRecentEvents(ctx, f.cfg.SnapshotSize)
	if err != nil {
		logging.Error().Err(err).Msg("live feed snapshot query failed")
		return time.Time{}, false
	}

	metrics, err := f.db.GetDashboardMetrics(ctx)
	if err != nil {
		logging.Error().Err(err).Msg("live feed metrics query failed")
		return time.Time{}, false
	}

	frame := FeedFrame{
		Metrics:   metrics,
		Events:    events,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if !hub.Send(client, Message{Type: MessageTypeInitial, Data: frame}) {
		return time.Time{}, false
	}

	var watermark time.Time
	if len(events) > 0 {
		// Events arrive newest first
		watermark = events[0].Timestamp
	}
	return watermark, true
}

// poll checks for events past the watermark and pushes an update frame when
// any exist. Returns the advanced watermark and whether the client is still
// connected.
func (f *Feed) poll(ctx context.Context, hub *Hub, client *Client, watermark time.Time) (time.Time, bool) {
	events, err := f.db.GetEventsSince(ctx, watermark, f.cfg.DeliveryLimit)
	if err != nil {
		logging.Error().Err(err).Msg("live feed poll query failed")
		return watermark, true
	}
	if len(events) == 0 {
		return watermark, true
	}

	metrics, err := f.db.GetDashboardMetrics(ctx)
	if err != nil {
		logging.Error().Err(err).Msg("live feed metrics query failed")
		return watermark, true
	}

	frame := FeedFrame{
		Metrics:   metrics,
		Events:    events,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if !hub.Send(client, Message{Type: MessageTypeUpdate, Data: frame}) {
		return watermark, false
	}

	return events[0].Timestamp, true
}
