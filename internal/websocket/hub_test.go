// Feedgarden - Personalized Offline-First Video Feed
// Copyright 2026 A. Aldahan
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/aldahan/feedgarden

package websocket

import (
	"context"
	"testing"
	"time"
)

func TestHubRegisterAndUnregister(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- hub.Run(ctx) }()

	client := NewClient(hub, nil)
	hub.Register <- client

	waitFor(t, func() bool { return hub.ClientCount() == 1 })

	hub.Unregister <- client
	waitFor(t, func() bool { return hub.ClientCount() == 0 })

	cancel()
	select {
	case err := <-done:
		if err == nil {
			t.Errorf("Run should return ctx.Err() on cancel")
		}
	case <-time.After(time.Second):
		t.Fatalf("hub did not stop after cancel")
	}
}

func TestHubBroadcastReachesClients(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = hub.Run(ctx) }()

	client := NewClient(hub, nil)
	hub.Register <- client
	waitFor(t, func() bool { return hub.ClientCount() == 1 })

	hub.BroadcastFeedRefreshed("ranked", 42)

	select {
	case msg := <-client.send:
		if msg.Type != MessageTypeFeedRefreshed {
			t.Errorf("message type = %q", msg.Type)
		}
		data, ok := msg.Data.(map[string]interface{})
		if !ok || data["items"] != 42 {
			t.Errorf("message data = %+v", msg.Data)
		}
	case <-time.After(time.Second):
		t.Fatalf("broadcast never reached client")
	}
}

func TestHubShutdownClosesClients(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- hub.Run(ctx) }()

	client := NewClient(hub, nil)
	hub.Register <- client
	waitFor(t, func() bool { return hub.ClientCount() == 1 })

	cancel()
	<-done

	select {
	case _, open := <-client.send:
		if open {
			t.Errorf("client send channel should be closed after shutdown")
		}
	case <-time.After(time.Second):
		t.Fatalf("client send channel not closed")
	}
	if hub.ClientCount() != 0 {
		t.Errorf("clients remain after shutdown: %d", hub.ClientCount())
	}
}

// waitFor polls a condition with a deadline; channel handoffs in the hub
// are asynchronous.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met within deadline")
}
