// SwaraLive - Realtime Livechat for Community Radio
// Copyright 2026 SwaraLive contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/swaralive/swaralive

// Package relay is the pub/sub backbone between the chat gateway, the
// moderation workflow, and downstream consumers. Two topics: the admin
// topic carries every chat happening for staff consumers, the public topic
// carries only approved messages for audience-facing consumers.
//
// The default transport is an in-process Watermill GoChannel; multi-node
// deployments switch to NATS JetStream via configuration.
package relay

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/swaralive/swaralive/internal/models"
)

// Admin topic events.
const (
	EventMessageNew       = "message:new"
	EventMessageModerated = "message:moderated"
	EventUserTyping       = "user:typing"
)

// Public topic events.
const (
	EventMessageApproved = "message_approved"
)

// Envelope frames every relayed event with its name. Payload stays raw so
// consumers decode only the events they care about.
type Envelope struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// EncodeEnvelope frames an event payload for publication.
func EncodeEnvelope(event string, payload interface{}) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", event, err)
	}
	data, err := json.Marshal(Envelope{Event: event, Payload: raw})
	if err != nil {
		return nil, fmt.Errorf("marshal %s envelope: %w", event, err)
	}
	return data, nil
}

// DecodeEnvelope parses a relayed frame back into its envelope.
func DecodeEnvelope(data []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("unmarshal envelope: %w", err)
	}
	return &env, nil
}

// NewMessageEvent announces a freshly persisted pending message to staff.
type NewMessageEvent struct {
	Message models.ModeratedMessage `json:"message"`
}

// ModeratedEvent announces a moderation decision to staff.
type ModeratedEvent struct {
	MessageID string                  `json:"messageId"`
	Status    models.ModerationStatus `json:"status"`
	Message   models.ModeratedMessage `json:"message"`
}

// TypingEvent announces typing activity in a guest session to staff.
type TypingEvent struct {
	SessionID string    `json:"sessionId"`
	GuestName string    `json:"name"`
	IsTyping  bool      `json:"isTyping"`
	At        time.Time `json:"at"`
}

// ApprovedEvent carries an approved message to public consumers.
type ApprovedEvent struct {
	Message models.ApprovedMessage `json:"message"`
}
