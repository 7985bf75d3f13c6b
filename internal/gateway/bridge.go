// SwaraLive - Realtime Livechat for Community Radio
// Copyright 2026 SwaraLive contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/swaralive/swaralive

package gateway

import (
	"context"

	"github.com/swaralive/swaralive/internal/logging"
	"github.com/swaralive/swaralive/internal/relay"
)

// Bridge holds the gateway's single admin-topic subscription for the
// process lifetime and re-broadcasts each event to staff connections in its
// client-facing shape. This is the only path by which moderator dashboards
// learn of new messages and decisions in real time.
type Bridge struct {
	relay *relay.Relay
	hub   *Hub
}

// NewBridge creates the relay-to-hub bridge.
func NewBridge(r *relay.Relay, hub *Hub) *Bridge {
	return &Bridge{relay: r, hub: hub}
}

// Serve implements suture.Service: it consumes the admin topic until the
// context is canceled.
func (b *Bridge) Serve(ctx context.Context) error {
	messages, err := b.relay.SubscribeAdmin(ctx)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				return ctx.Err()
			}
			b.dispatch(msg.Payload)
			msg.Ack()
		}
	}
}

// String implements fmt.Stringer for supervisor logging.
func (b *Bridge) String() string {
	return "gateway-bridge"
}

// dispatch decodes one admin-topic frame and fans it out under the
// client-facing event name. Unknown events are logged and dropped.
func (b *Bridge) dispatch(data []byte) {
	env, err := relay.DecodeEnvelope(data)
	if err != nil {
		logging.Warn().Err(err).Msg("Dropping undecodable relay frame")
		return
	}

	switch env.Event {
	case relay.EventMessageNew:
		b.hub.BroadcastStaff(EventNewMessage, env.Payload)
	case relay.EventMessageModerated:
		b.hub.BroadcastStaff(EventMessageModerated, env.Payload)
	case relay.EventUserTyping:
		b.hub.BroadcastStaff(EventUserTypingOut, env.Payload)
	default:
		logging.Debug().Str("event", env.Event).Msg("Ignoring unrecognized admin event")
	}
}
