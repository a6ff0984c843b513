// Feedgarden - Personalized Offline-First Video Feed
// Copyright 2026 A. Aldahan
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/aldahan/feedgarden

// Package websocket pushes feed lifecycle events (refreshes, cache prime
// completions, interaction updates) to connected clients.
package websocket

import (
	"context"
	"sort"
	"sync"

	"github.com/aldahan/feedgarden/internal/logging"
	"github.com/aldahan/feedgarden/internal/metrics"
)

// Message types pushed to clients.
const (
	MessageTypeFeedRefreshed       = "feed_refreshed"
	MessageTypePrimeComplete       = "prime_complete"
	MessageTypeInteractionsUpdated = "interactions_updated"
	MessageTypePing                = "ping"
	MessageTypePong                = "pong"
)

// Message is a single websocket frame.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Hub maintains the set of active clients and broadcasts messages to them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan Message
	Register   chan *Client
	Unregister chan *Client
	mu         sync.RWMutex
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		broadcast:  make(chan Message, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
	}
}

// Run drives the hub until the context is canceled, then closes every
// client and returns ctx.Err(). Designed for suture supervision.
//
// Lifecycle events are drained before broadcasts so client state is always
// consistent when a message goes out; Go's select picks randomly between
// ready channels otherwise.
func (h *Hub) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return ctx.Err()
		default:
		}

		select {
		case client := <-h.Register:
			h.addClient(client)
			continue
		case client := <-h.Unregister:
			h.removeClient(client)
			continue
		default:
		}

		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return ctx.Err()
		case client := <-h.Register:
			h.addClient(client)
		case client := <-h.Unregister:
			h.removeClient(client)
		case message := <-h.broadcast:
			h.broadcastToClients(message)
		}
	}
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	total := len(h.clients)
	h.mu.Unlock()

	metrics.WebsocketClients.Set(float64(total))
	logging.Info().Int("total_clients", total).Msg("websocket client connected")
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
	total := len(h.clients)
	h.mu.Unlock()

	metrics.WebsocketClients.Set(float64(total))
	logging.Info().Int("total_clients", total).Msg("websocket client disconnected")
}

// broadcastToClients fans a message out in client-id order. Clients whose
// send buffer is full are dropped; a stuck client must not stall the rest.
func (h *Hub) broadcastToClients(message Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})

	var toRemove []*Client
	for _, client := range clients {
		select {
		case client.send <- message:
		default:
			toRemove = append(toRemove, client)
		}
	}
	for _, client := range toRemove {
		close(client.send)
		delete(h.clients, client)
	}
	metrics.WebsocketClients.Set(float64(len(h.clients)))
}

// shutdown closes all clients during graceful stop. Context cancellation
// is expected here, so nothing is logged at error level.
func (h *Hub) shutdown(_ context.Context) {
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
	}

	metrics.WebsocketClients.Set(0)
	logging.Info().
		Str("component", "websocket-hub").
		Int("clients_closed", len(clients)).
		Msg("websocket hub stopped")
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// BroadcastFeedRefreshed announces a new assembled feed.
func (h *Hub) BroadcastFeedRefreshed(source string, itemCount int) {
	h.enqueue(Message{
		Type: MessageTypeFeedRefreshed,
		Data: map[string]interface{}{
			"source": source,
			"items":  itemCount,
		},
	})
}

// BroadcastPrimeComplete announces a finished cache prime pass.
func (h *Hub) BroadcastPrimeComplete(fetched, skipped, failed int) {
	h.enqueue(Message{
		Type: MessageTypePrimeComplete,
		Data: map[string]interface{}{
			"fetched": fetched,
			"skipped": skipped,
			"failed":  failed,
		},
	})
}

// BroadcastInteractionsUpdated announces an interaction state change.
func (h *Hub) BroadcastInteractionsUpdated(kind, itemID string) {
	h.enqueue(Message{
		Type: MessageTypeInteractionsUpdated,
		Data: map[string]interface{}{
			"kind": kind,
			"item": itemID,
		},
	})
}

// enqueue queues a broadcast without ever blocking the caller.
func (h *Hub) enqueue(message Message) {
	select {
	case h.broadcast <- message:
	default:
		logging.Warn().Str("type", message.Type).Msg("websocket broadcast queue full, dropping message")
	}
}
