// SwaraLive - Realtime Livechat for Community Radio
// Copyright 2026 SwaraLive contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/swaralive/swaralive

package gateway

import (
	"context"
	"time"

	"github.com/gorilla/websocket"

	"github.com/swaralive/swaralive/internal/logging"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

// Client pairs one WebSocket connection with its resolved identity.
type Client struct {
	id       string
	identity Identity
	hub      *Hub
	protocol *Protocol
	conn     *websocket.Conn
	send     chan OutboundFrame
}

// NewClient wraps an upgraded connection.
func NewClient(hub *Hub, protocol *Protocol, conn *websocket.Conn, identity Identity) *Client {
	return &Client{
		id:       connectionID(identity),
		identity: identity,
		hub:      hub,
		protocol: protocol,
		conn:     conn,
		send:     make(chan OutboundFrame, 64),
	}
}

// ID returns the process-unique connection id.
func (c *Client) ID() string {
	return c.id
}

// Start begins the read and write pumps.
func (c *Client) Start() {
	go c.writePump()
	go c.readPump()
}

// readPump reads inbound frames and feeds them through the protocol handler.
// On close or error the connection is unregistered and its rate-limit record
// dropped; the session itself stays valid for reconnects.
func (c *Client) readPump() {
	defer func() {
		c.protocol.ConnectionClosed(c.identity)
		c.hub.Unregister <- c
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		logging.Error().Err(err).Msg("Failed to set read deadline")
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				logging.Warn().Err(err).Str("connection_id", c.id).Msg("Unexpected websocket close")
			}
			break
		}

		for _, frame := range c.protocol.HandleFrame(context.Background(), c.identity, raw) {
			c.deliver(frame)
		}
	}
}

// deliver queues a frame to this client, dropping it when the queue is full.
func (c *Client) deliver(frame OutboundFrame) {
	select {
	case c.send <- frame:
	default:
		logging.Warn().Str("connection_id", c.id).Str("event", frame.Event).Msg("Send queue full, dropping frame")
	}
}

// writePump writes queued frames and keepalive pings to the socket. The hub
// closes the send channel to signal shutdown.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				logging.Error().Err(err).Msg("Failed to set write deadline")
				return
			}
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(frame); err != nil {
				logging.Warn().Err(err).Str("connection_id", c.id).Msg("Failed to write frame")
				return
			}
		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
