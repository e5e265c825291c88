// Gridwatch - Spreadsheet Audit Telemetry and Analytics
// Copyright 2026 Gridwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gridwatch/gridwatch

package api

import (
	"context"
	"net/http"

	gorilla "github.com/gorilla/websocket"

	"github.com/gridwatch/gridwatch/internal/logging"
	"github.com/gridwatch/gridwatch/internal/websocket"
)

// ServeWS handles GET /ws: upgrades the connection, registers it with the
// hub, and starts the per-connection feed loop.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	upgrader := gorilla.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkWSOrigin,
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := websocket.NewClient(h.hub, conn)
	if !h.hub.RegisterClient(client) {
		logging.Warn().Msg("rejecting websocket connection: hub stopped")
		_ = conn.Close()
		return
	}
	client.Start()

	// The request context dies when this handler returns; the feed loop
	// instead stops on client disconnect or hub shutdown.
	go h.feed.Run(context.Background(), h.hub, client)
}

// checkWSOrigin applies the configured CORS origins to websocket upgrades.
func (h *Handler) checkWSOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	for _, allowed := range h.config.Security.CORSOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}
