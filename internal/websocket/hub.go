// Watchpoints - Watch-Time XP and Entitlement Ledger
// Copyright 2026 Watchpoints Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/watchpoints/watchpoints

// Package websocket pushes XP notifications to connected browsers. Each
// client is bound to a user at upgrade time; credit and level-up events
// are delivered only to that user's connections.
package websocket

import (
	"context"
	"sort"
	"sync"

	"github.com/goccy/go-json"

	"github.com/watchpoints/watchpoints/internal/logging"
	"github.com/watchpoints/watchpoints/internal/metrics"
)

// Message types for WebSocket communication
const (
	MessageTypeXPCredited = "xp_credited"
	MessageTypeLevelUp    = "level_up"
	MessageTypePing       = "ping"
	MessageTypePong       = "pong"
)

// Message is one frame sent to a client.
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// targeted pairs a message with the user it belongs to. An empty userID
// broadcasts to everyone.
type targeted struct {
	userID  string
	message Message
}

// Hub maintains the set of active clients and routes messages to them.
type Hub struct {
	clients    map[*Client]bool
	deliver    chan targeted
	Register   chan *Client
	Unregister chan *Client
	mu         sync.RWMutex
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		deliver:    make(chan targeted, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
	}
}

// Run services client lifecycle and message delivery until ctx is
// cancelled. Designed for suture supervision.
//
// Lifecycle events take priority over delivery so client state is settled
// before a message fans out; Go's select picks randomly among ready
// channels, so the priority is enforced with a non-blocking pre-check.
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
			h.register(client)
			continue
		case client := <-h.Unregister:
			h.unregister(client)
			continue
		default:
		}

		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return ctx.Err()
		case client := <-h.Register:
			h.register(client)
		case client := <-h.Unregister:
			h.unregister(client)
		case msg := <-h.deliver:
			h.deliverToClients(msg)
		}
	}
}

func (h *Hub) register(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	total := len(h.clients)
	h.mu.Unlock()

	metrics.WSConnectionsActive.Set(float64(total))
	logging.Info().
		Str("user_id", client.userID).
		Int("total_clients", total).
		Msg("websocket client connected")
}

func (h *Hub) unregister(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
	total := len(h.clients)
	h.mu.Unlock()

	metrics.WSConnectionsActive.Set(float64(total))
	logging.Info().
		Str("user_id", client.userID).
		Int("total_clients", total).
		Msg("websocket client disconnected")
}

// deliverToClients fans one message out to its targets in client ID order.
// Sorted delivery keeps test runs and ack sequences reproducible.
func (h *Hub) deliverToClients(msg targeted) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		if msg.userID == "" || client.userID == msg.userID {
			clients = append(clients, client)
		}
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})

	var toRemove []*Client
	for _, client := range clients {
		select {
		case client.send <- msg.message:
			metrics.WSMessagesSent.Inc()
		default:
			// Send buffer full, the client is too slow to keep
			toRemove = append(toRemove, client)
		}
	}
	for _, client := range toRemove {
		close(client.send)
		delete(h.clients, client)
	}
}

func (h *Hub) shutdown(ctx context.Context) {
	h.mu.Lock()
	count := len(h.clients)
	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
	h.mu.Unlock()

	metrics.WSConnectionsActive.Set(0)
	logging.Info().
		Str("component", "websocket-hub").
		Int("clients_closed", count).
		Msg("websocket hub stopped")
}

// SendToUser queues a message for all of one user's connections.
func (h *Hub) SendToUser(userID, messageType string, data any) {
	msg := targeted{userID: userID, message: Message{Type: messageType, Data: data}}
	select {
	case h.deliver <- msg:
	default:
		logging.Warn().
			Str("message_type", messageType).
			Str("user_id", userID).
			Msg("delivery channel full, dropping message")
	}
}

// Broadcast queues a message for every connected client.
func (h *Hub) Broadcast(messageType string, data any) {
	msg := targeted{message: Message{Type: messageType, Data: data}}
	select {
	case h.deliver <- msg:
	default:
		logging.Warn().
			Str("message_type", messageType).
			Msg("delivery channel full, dropping message")
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// MarshalMessage converts a message to JSON.
func MarshalMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}
