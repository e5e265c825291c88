// Gridwatch - Spreadsheet Audit Telemetry and Analytics
// Copyright 2026 Gridwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gridwatch/gridwatch

// Package websocket implements the live audit feed. A Hub tracks connected
// clients; each connection runs its own Feed loop that polls the event store
// and pushes initial and update frames.
package websocket

import (
	"context"
	"sort"
	"sync"

	"github.com/gridwatch/gridwatch/internal/logging"
	"github.com/gridwatch/gridwatch/internal/metrics"
)

// Message types for live feed communication.
const (
	MessageTypeInitial = "initial"
	MessageTypeUpdate  = "update"
	MessageTypePing    = "ping"
	MessageTypePong    = "pong"
)

// Message represents a WebSocket message.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Hub maintains the set of active clients and owns the lifecycle of their
// send channels. All channel closes happen under the hub mutex so per-client
// feed loops can never write to a closed channel.
type Hub struct {
	clients    map[*Client]bool
	Register   chan *Client
	Unregister chan *Client
	done       chan struct{}
	mu         sync.RWMutex
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// RunWithContext runs the hub until the context is canceled. Designed for
// suture supervision: on cancellation all clients are closed and ctx.Err()
// is returned.
//
// DETERMINISM: Uses priority-based selection. When Go's select has multiple
// ready channels it picks randomly; checking shutdown first keeps teardown
// behavior predictable.
func (h *Hub) RunWithContext(ctx context.Context) error {
	for {
		// Priority 1: shutdown (non-blocking check)
		select {
		case <-ctx.Done():
			h.shutdown()
			return ctx.Err()
		default:
		}

		// Priority 2: lifecycle events or shutdown (blocking)
		select {
		case <-ctx.Done():
			h.shutdown()
			return ctx.Err()

		case client := <-h.Register:
			h.mu.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mu.Unlock()
			metrics.TrackWebSocketClient(true)
			logging.Info().Int("total_clients", total).Msg("live feed client connected")

		case client := <-h.Unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				metrics.TrackWebSocketClient(false)
			}
			total := len(h.clients)
			h.mu.Unlock()
			logging.Info().Int("total_clients", total).Msg("live feed client disconnected")
		}
	}
}

// RegisterClient hands a client to the hub's run loop. Returns false if the
// hub has already shut down, so callers can close the connection instead of
// blocking on a loop that will never receive.
func (h *Hub) RegisterClient(client *Client) bool {
	select {
	case h.Register <- client:
		return true
	case <-h.done:
		return false
	}
}

// UnregisterClient removes a client via the run loop. A no-op after hub
// shutdown, where the client's send channel is already closed.
func (h *Hub) UnregisterClient(client *Client) {
	select {
	case h.Unregister <- client:
	case <-h.done:
	}
}

// Send delivers a message to one client without blocking. Returns false if
// the client is no longer registered or its send buffer is full; a full
// buffer drops the client, matching the slow-consumer policy.
func (h *Hub) Send(client *Client, message Message) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; !ok {
		return false
	}

	select {
	case client.send <- message:
		return true
	default:
		delete(h.clients, client)
		close(client.send)
		metrics.TrackWebSocketClient(false)
		logging.Warn().Uint64("client_id", client.id).Msg("dropping slow live feed client")
		return false
	}
}

// Broadcast delivers a message to every connected client in deterministic
// order. Slow clients are dropped.
func (h *Hub) Broadcast(message Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})

	for _, client := range clients {
		select {
		case client.send <- message:
		default:
			delete(h.clients, client)
			close(client.send)
			metrics.TrackWebSocketClient(false)
			logging.Warn().Uint64("client_id", client.id).Msg("dropping slow live feed client")
		}
	}
}

// Done returns a channel closed when the hub shuts down. Feed loops select
// on this so they stop even if their client never disconnects.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

// GetClientCount returns the number of connected clients.
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// shutdown closes all clients in deterministic order and signals Done.
func (h *Hub) shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})

	for _, client := range clients {
		close(client.send)
		delete(h.clients, client)
		metrics.TrackWebSocketClient(false)
	}

	close(h.done)
	logging.Info().
		Str("component", "websocket-hub").
		Int("clients_closed", len(clients)).
		Msg("live feed hub stopped")
}
