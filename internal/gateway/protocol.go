// SwaraLive - Realtime Livechat for Community Radio
// Copyright 2026 SwaraLive contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/swaralive/swaralive

package gateway

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/swaralive/swaralive/internal/database"
	"github.com/swaralive/swaralive/internal/logging"
	"github.com/swaralive/swaralive/internal/metrics"
	"github.com/swaralive/swaralive/internal/models"
	"github.com/swaralive/swaralive/internal/relay"
)

// Protocol is the inbound frame handler, written as a transition function:
// given a connection identity and a raw frame it returns the frames owed to
// the sender, with persistence and relay publication as side effects. That
// shape keeps the whole send path testable without a socket.
//
// Protocol errors never close the connection; the client can always send a
// corrected frame.
type Protocol struct {
	db     *database.DB
	relay  *relay.Relay
	limits *RateLimits

	minLength int

	// skipNewMessagePublish suppresses admin-topic publication of fresh
	// messages, used by deterministic protocol tests.
	skipNewMessagePublish bool
}

// NewProtocol creates the frame handler.
func NewProtocol(db *database.DB, r *relay.Relay, limits *RateLimits, minLength int, skipNewMessagePublish bool) *Protocol {
	return &Protocol{
		db:                    db,
		relay:                 r,
		limits:                limits,
		minLength:             minLength,
		skipNewMessagePublish: skipNewMessagePublish,
	}
}

// HandleFrame processes one inbound frame and returns the frames to send
// back to the originating connection.
func (p *Protocol) HandleFrame(ctx context.Context, identity Identity, raw []byte) []OutboundFrame {
	var frame InboundFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		metrics.GatewayRejectedSends.WithLabelValues("invalid_payload").Inc()
		return []OutboundFrame{errorFrame(EventErrorInvalidPayload, "Invalid message format")}
	}

	metrics.GatewayFramesTotal.WithLabelValues(frame.Event).Inc()

	switch frame.Event {
	case EventMessageSend:
		return p.handleSend(ctx, identity, frame.Payload)
	case EventUserTyping:
		p.handleTyping(ctx, identity, frame.Payload)
		return nil
	default:
		return []OutboundFrame{errorFrame(EventErrorInvalidEvent, fmt.Sprintf("Unknown event %q", frame.Event))}
	}
}

// handleSend validates, rate limits, sanitizes, and persists a chat message,
// then announces it on the admin topic.
func (p *Protocol) handleSend(ctx context.Context, identity Identity, payload json.RawMessage) []OutboundFrame {
	var send SendPayload
	if err := json.Unmarshal(payload, &send); err != nil {
		metrics.GatewayRejectedSends.WithLabelValues("invalid_payload").Inc()
		return []OutboundFrame{errorFrame(EventErrorInvalidPayload, "Invalid message payload")}
	}

	trimmed := strings.TrimSpace(send.Text)
	if len(trimmed) < p.minLength {
		metrics.GatewayRejectedSends.WithLabelValues("too_short").Inc()
		return []OutboundFrame{errorFrame(EventErrorInvalidPayload,
			fmt.Sprintf("Message must be at least %d characters", p.minLength))}
	}

	if identity.Session == nil {
		metrics.GatewayRejectedSends.WithLabelValues("invalid_payload").Inc()
		return []OutboundFrame{errorFrame(EventErrorInvalidPayload, "No chat session attached to this connection")}
	}
	sessionID := identity.Session.ID

	ok, retryAfter := p.limits.Allow(sessionID.String())
	if !ok {
		metrics.GatewayRejectedSends.WithLabelValues("rate_limit").Inc()
		return []OutboundFrame{{
			Event: EventErrorRateLimit,
			Payload: ErrorPayload{
				Message:    fmt.Sprintf("You can send another message in %d seconds", retryAfter),
				RetryAfter: retryAfter,
			},
		}}
	}

	sanitized := Sanitize(trimmed)
	msg, err := p.db.InsertChatMessage(ctx, sessionID, sanitized, models.SenderUser)
	if err != nil {
		metrics.GatewayRejectedSends.WithLabelValues("store_error").Inc()
		logging.Ctx(ctx).Error().Err(err).
			Str("session_id", sessionID.String()).
			Msg("Failed to persist chat message")
		return []OutboundFrame{errorFrame(EventErrorServerError, "Failed to store your message")}
	}

	if !p.skipNewMessagePublish {
		event := relay.NewMessageEvent{
			Message: models.ModeratedMessage{
				ChatMessage: *msg,
				GuestName:   identity.Session.Guest.Name,
				GuestCity:   identity.Session.Guest.City,
			},
		}
		if err := p.relay.PublishAdmin(ctx, relay.EventMessageNew, event); err != nil {
			logging.Ctx(ctx).Error().Err(err).
				Str("message_id", msg.ID.String()).
				Msg("Failed to publish new message event")
		}
	}

	return []OutboundFrame{{
		Event:   EventMessageAck,
		Payload: AckPayload{MessageID: msg.ID.String(), Timestamp: msg.CreatedAt},
	}}
}

// handleTyping relays a typing indicator to staff. Best effort: failures are
// logged, never surfaced to the client.
func (p *Protocol) handleTyping(ctx context.Context, identity Identity, payload json.RawMessage) {
	var typing TypingPayload
	if err := json.Unmarshal(payload, &typing); err != nil {
		logging.Ctx(ctx).Debug().Err(err).Msg("Ignoring malformed typing payload")
		return
	}

	event := relay.TypingEvent{
		SessionID: identity.SessionID(),
		GuestName: identity.DisplayName(),
		IsTyping:  typing.IsTyping,
		At:        time.Now().UTC(),
	}
	if err := p.relay.PublishAdmin(ctx, relay.EventUserTyping, event); err != nil {
		logging.Ctx(ctx).Warn().Err(err).
			Str("session_id", event.SessionID).
			Msg("Failed to publish typing event")
	}
}

// ConnectionClosed drops per-connection protocol state.
func (p *Protocol) ConnectionClosed(identity Identity) {
	if id := identity.SessionID(); id != "" {
		p.limits.Forget(id)
	}
}
