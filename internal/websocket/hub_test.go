// Gridwatch - Spreadsheet Audit Telemetry and Analytics
// Copyright 2026 Gridwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gridwatch/gridwatch

package websocket

import (
	"context"
	"errors"
	"testing"
	"time"
)

// startHub runs the hub loop for the duration of the test.
func startHub(t *testing.T) (*Hub, context.CancelFunc) {
	t.Helper()

	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- hub.RunWithContext(ctx)
	}()

	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			if !errors.Is(err, context.Canceled) {
				t.Errorf("unexpected hub exit error: %v", err)
			}
		case <-time.After(time.Second):
			t.Error("hub did not stop")
		}
	})

	return hub, cancel
}

func waitForClients(t *testing.T, hub *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if hub.GetClientCount() == want {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("expected %d clients, got %d", want, hub.GetClientCount())
}

func TestHubRegisterUnregister(t *testing.T) {
	hub, _ := startHub(t)

	client := NewClient(hub, nil)
	hub.Register <- client
	waitForClients(t, hub, 1)

	hub.Unregister <- client
	waitForClients(t, hub, 0)

	// The hub closed the send channel on unregister
	select {
	case _, ok := <-client.send:
		if ok {
			t.Error("expected closed send channel")
		}
	default:
		t.Error("expected closed send channel to be readable")
	}
}

func TestHubSend(t *testing.T) {
	hub, _ := startHub(t)

	client := NewClient(hub, nil)
	hub.Register <- client
	waitForClients(t, hub, 1)

	if !hub.Send(client, Message{Type: MessageTypeUpdate}) {
		t.Fatal("expected send to registered client to succeed")
	}

	msg := <-client.send
	if msg.Type != MessageTypeUpdate {
		t.Errorf("unexpected message type %q", msg.Type)
	}

	stranger := NewClient(hub, nil)
	if hub.Send(stranger, Message{Type: MessageTypeUpdate}) {
		t.Error("expected send to unregistered client to fail")
	}
}

func TestHubSendDropsSlowClient(t *testing.T) {
	hub, _ := startHub(t)

	client := NewClient(hub, nil)
	hub.Register <- client
	waitForClients(t, hub, 1)

	// Fill the buffer; nothing drains it
	for i := 0; i < cap(client.send); i++ {
		if !hub.Send(client, Message{Type: MessageTypeUpdate}) {
			t.Fatalf("send %d failed before buffer was full", i)
		}
	}

	if hub.Send(client, Message{Type: MessageTypeUpdate}) {
		t.Error("expected send to full buffer to fail")
	}
	if hub.GetClientCount() != 0 {
		t.Error("expected slow client to be dropped")
	}
}

func TestHubBroadcastDeliversToAllClients(t *testing.T) {
	hub, _ := startHub(t)

	a := NewClient(hub, nil)
	b := NewClient(hub, nil)
	hub.Register <- a
	hub.Register <- b
	waitForClients(t, hub, 2)

	hub.Broadcast(Message{Type: MessageTypeUpdate})

	for _, client := range []*Client{a, b} {
		select {
		case msg := <-client.send:
			if msg.Type != MessageTypeUpdate {
				t.Errorf("unexpected message type %q", msg.Type)
			}
		case <-time.After(time.Second):
			t.Error("broadcast message not delivered")
		}
	}
}

func TestHubRegisterAfterShutdownReturnsPromptly(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- hub.RunWithContext(ctx)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("hub did not stop")
	}

	// Late connections must not block on the dead run loop
	result := make(chan bool, 1)
	go func() {
		client := NewClient(hub, nil)
		ok := hub.RegisterClient(client)
		hub.UnregisterClient(client)
		result <- ok
	}()

	select {
	case ok := <-result:
		if ok {
			t.Error("expected registration against a stopped hub to fail")
		}
	case <-time.After(time.Second):
		t.Fatal("register/unregister blocked after hub shutdown")
	}
}

func TestHubShutdownClosesClients(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- hub.RunWithContext(ctx)
	}()

	client := NewClient(hub, nil)
	hub.Register <- client
	waitForClients(t, hub, 1)

	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("unexpected exit error: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("hub did not stop")
	}

	select {
	case <-hub.Done():
	default:
		t.Error("expected Done channel to be closed")
	}
	if hub.GetClientCount() != 0 {
		t.Error("expected all clients closed at shutdown")
	}
}
