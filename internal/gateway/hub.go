// SwaraLive - Realtime Livechat for Community Radio
// Copyright 2026 SwaraLive contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/swaralive/swaralive

package gateway

import (
	"context"
	"sort"
	"sync"

	"github.com/swaralive/swaralive/internal/logging"
	"github.com/swaralive/swaralive/internal/metrics"
)

// staffFrame is a frame addressed to every moderator and broadcaster.
type staffFrame struct {
	frame OutboundFrame
}

// Hub maintains the live connection registry and fans staff-addressed
// frames out to the matching subset.
type Hub struct {
	clients    map[string]*Client
	fanout     chan staffFrame
	Register   chan *Client
	Unregister chan *Client
	mu         sync.RWMutex
}

// NewHub creates a hub.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		fanout:     make(chan staffFrame, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
	}
}

// RunWithContext runs the hub until the context is canceled. Designed for
// suture supervision: on cancellation every client is closed and the
// context error is returned.
//
// Selection is priority based so behavior stays predictable when several
// channels are ready: shutdown first, then lifecycle events, then fan-out.
func (h *Hub) RunWithContext(ctx context.Context) error {
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
		case f := <-h.fanout:
			h.fanOutToStaff(f.frame)
		}
	}
}

// String implements fmt.Stringer for supervisor logging.
func (h *Hub) String() string {
	return "gateway-hub"
}

// BroadcastStaff queues a frame for every moderator and broadcaster
// connection. Drops the frame when the fan-out queue is full.
func (h *Hub) BroadcastStaff(event string, payload interface{}) {
	select {
	case h.fanout <- staffFrame{frame: OutboundFrame{Event: event, Payload: payload}}:
	default:
		logging.Warn().Str("event", event).Msg("Fan-out queue full, dropping frame")
	}
}

// ClientCount returns the number of registered connections.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) register(client *Client) {
	h.mu.Lock()
	h.clients[client.id] = client
	total := len(h.clients)
	h.mu.Unlock()

	metrics.GatewayConnections.WithLabelValues(string(client.identity.Role)).Inc()
	logging.Info().
		Str("connection_id", client.id).
		Str("role", string(client.identity.Role)).
		Int("total_clients", total).
		Msg("Chat connection registered")
}

func (h *Hub) unregister(client *Client) {
	h.mu.Lock()
	_, ok := h.clients[client.id]
	if ok {
		delete(h.clients, client.id)
		close(client.send)
	}
	total := len(h.clients)
	h.mu.Unlock()
	if !ok {
		return
	}

	metrics.GatewayConnections.WithLabelValues(string(client.identity.Role)).Dec()
	logging.Info().
		Str("connection_id", client.id).
		Str("role", string(client.identity.Role)).
		Int("total_clients", total).
		Msg("Chat connection closed")
}

// fanOutToStaff delivers a frame to every staff connection in deterministic
// id order. Connections with a full send queue are dropped from the registry.
func (h *Hub) fanOutToStaff(frame OutboundFrame) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ids := make([]string, 0, len(h.clients))
	for id, client := range h.clients {
		if client.identity.Role.Staff() {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	for _, id := range ids {
		client := h.clients[id]
		select {
		case client.send <- frame:
			metrics.RelayFanoutTotal.WithLabelValues(frame.Event, string(client.identity.Role)).Inc()
		default:
			close(client.send)
			delete(h.clients, id)
			metrics.GatewayConnections.WithLabelValues(string(client.identity.Role)).Dec()
			logging.Warn().Str("connection_id", id).Msg("Send queue full, dropping staff connection")
		}
	}
}

// shutdown closes every client in deterministic order.
func (h *Hub) shutdown(ctx context.Context) {
	h.mu.Lock()
	ids := make([]string, 0, len(h.clients))
	for id := range h.clients {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		client := h.clients[id]
		close(client.send)
		delete(h.clients, id)
		metrics.GatewayConnections.WithLabelValues(string(client.identity.Role)).Dec()
	}
	h.mu.Unlock()

	reason := "context_canceled"
	if ctx.Err() == context.DeadlineExceeded {
		reason = "context_deadline"
	}
	logging.Info().
		Str("component", "gateway-hub").
		Str("reason", reason).
		Int("clients_closed", len(ids)).
		Msg("Gateway hub stopped")
}
