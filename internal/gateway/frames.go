// SwaraLive - Realtime Livechat for Community Radio
// Copyright 2026 SwaraLive contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/swaralive/swaralive

// Package gateway is the realtime WebSocket gateway: it authenticates guest
// and staff connections on a single endpoint, keeps the live connection
// registry, applies the per-session send protocol (length check, rate limit,
// sanitization, persistence), and fans relay events out to staff dashboards.
package gateway

import (
	"time"

	"github.com/goccy/go-json"
)

// Inbound events, client to server.
const (
	EventMessageSend = "message:send"
	EventUserTyping  = "user:typing"
)

// Outbound events, server to client.
const (
	EventConnectionSuccess = "connection:success"
	EventMessageAck        = "message:ack"

	EventErrorInvalidPayload = "error:invalid_payload"
	EventErrorInvalidEvent   = "error:invalid_event"
	EventErrorRateLimit      = "error:rate_limit"
	EventErrorServerError    = "error:server_error"
)

// Staff fan-out events, re-broadcast from the admin relay topic to every
// moderator and broadcaster connection.
const (
	EventNewMessage       = "new_message"
	EventMessageModerated = "message_moderated"
	EventUserTypingOut    = "user_typing"
)

// InboundFrame is the wire shape of every client frame. Payload stays raw
// until the event is recognized.
type InboundFrame struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// OutboundFrame is the wire shape of every server frame.
type OutboundFrame struct {
	Event   string      `json:"event"`
	Payload interface{} `json:"payload,omitempty"`
}

// SendPayload is the payload of a message:send frame.
type SendPayload struct {
	Text string `json:"text"`
}

// TypingPayload is the payload of a user:typing frame.
type TypingPayload struct {
	IsTyping bool `json:"isTyping"`
}

// AckPayload acknowledges an accepted message to its sender.
type AckPayload struct {
	MessageID string    `json:"messageId"`
	Timestamp time.Time `json:"timestamp"`
}

// ErrorPayload carries an in-band protocol error. RetryAfter is set only on
// rate-limit errors, in whole seconds.
type ErrorPayload struct {
	Message    string `json:"message"`
	RetryAfter int    `json:"retryAfter,omitempty"`
}

// errorFrame builds an outbound error frame.
func errorFrame(event, message string) OutboundFrame {
	return OutboundFrame{Event: event, Payload: ErrorPayload{Message: message}}
}
