// SwaraLive - Realtime Livechat for Community Radio
// Copyright 2026 SwaraLive contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/swaralive/swaralive

package relay

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/swaralive/swaralive/internal/config"
	"github.com/swaralive/swaralive/internal/logging"
	"github.com/swaralive/swaralive/internal/models"
)

//nolint:gochecknoinits // init ensures consistent logging for tests
func init() {
	logging.Init(logging.Config{
		Level:  "info",
		Format: "console",
		Output: io.Discard,
	})
}

func testRelayConfig() *config.RelayConfig {
	return &config.RelayConfig{
		AdminTopic:  "livechat.admin",
		PublicTopic: "livechat.public",
	}
}

func TestEnvelopeRoundTrip(t *testing.T) {
	payload := TypingEvent{
		SessionID: uuid.NewString(),
		GuestName: "Rudi",
		IsTyping:  true,
		At:        time.Now().UTC(),
	}

	data, err := EncodeEnvelope(EventUserTyping, payload)
	if err != nil {
		t.Fatalf("EncodeEnvelope() failed: %v", err)
	}

	env, err := DecodeEnvelope(data)
	if err != nil {
		t.Fatalf("DecodeEnvelope() failed: %v", err)
	}
	if env.Event != EventUserTyping {
		t.Errorf("event = %q, want %q", env.Event, EventUserTyping)
	}

	var got TypingEvent
	if err := json.Unmarshal(env.Payload, &got); err != nil {
		t.Fatalf("payload unmarshal failed: %v", err)
	}
	if got.SessionID != payload.SessionID || got.GuestName != "Rudi" || !got.IsTyping {
		t.Errorf("payload = %+v, want %+v", got, payload)
	}
}

func TestDecodeEnvelopeRejectsGarbage(t *testing.T) {
	if _, err := DecodeEnvelope([]byte("{not json")); err == nil {
		t.Error("DecodeEnvelope() should fail on malformed input")
	}
}

func TestPublishSubscribeAdminTopic(t *testing.T) {
	r := NewGoChannel(testRelayConfig())
	t.Cleanup(func() { _ = r.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	messages, err := r.SubscribeAdmin(ctx)
	if err != nil {
		t.Fatalf("SubscribeAdmin() failed: %v", err)
	}

	event := NewMessageEvent{
		Message: models.ModeratedMessage{
			ChatMessage: models.ChatMessage{
				ID:     uuid.New(),
				Text:   "Salam hangat dari Cicendo",
				Sender: models.SenderUser,
				Status: models.StatusPending,
			},
			GuestName: "Rudi",
		},
	}
	if err := r.PublishAdmin(ctx, EventMessageNew, event); err != nil {
		t.Fatalf("PublishAdmin() failed: %v", err)
	}

	select {
	case msg := <-messages:
		msg.Ack()
		if msg.Metadata.Get("event") != EventMessageNew {
			t.Errorf("metadata event = %q, want %q", msg.Metadata.Get("event"), EventMessageNew)
		}
		env, err := DecodeEnvelope(msg.Payload)
		if err != nil {
			t.Fatalf("DecodeEnvelope() failed: %v", err)
		}
		if env.Event != EventMessageNew {
			t.Errorf("envelope event = %q, want %q", env.Event, EventMessageNew)
		}
		var got NewMessageEvent
		if err := json.Unmarshal(env.Payload, &got); err != nil {
			t.Fatalf("payload unmarshal failed: %v", err)
		}
		if got.Message.ID != event.Message.ID {
			t.Errorf("message ID = %s, want %s", got.Message.ID, event.Message.ID)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for admin message")
	}
}

func TestTopicsAreIsolated(t *testing.T) {
	r := NewGoChannel(testRelayConfig())
	t.Cleanup(func() { _ = r.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	public, err := r.SubscribePublic(ctx)
	if err != nil {
		t.Fatalf("SubscribePublic() failed: %v", err)
	}

	// Admin events must not reach public subscribers.
	if err := r.PublishAdmin(ctx, EventUserTyping, TypingEvent{GuestName: "Rudi"}); err != nil {
		t.Fatalf("PublishAdmin() failed: %v", err)
	}
	if err := r.PublishPublic(ctx, EventMessageApproved, ApprovedEvent{}); err != nil {
		t.Fatalf("PublishPublic() failed: %v", err)
	}

	select {
	case msg := <-public:
		msg.Ack()
		if msg.Metadata.Get("event") != EventMessageApproved {
			t.Errorf("public subscriber received %q, want only %q",
				msg.Metadata.Get("event"), EventMessageApproved)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for public message")
	}

	select {
	case msg := <-public:
		t.Errorf("unexpected second public message: %q", msg.Metadata.Get("event"))
	case <-time.After(100 * time.Millisecond):
	}
}

func TestPublishAfterClose(t *testing.T) {
	r := NewGoChannel(testRelayConfig())
	if err := r.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	err := r.PublishAdmin(context.Background(), EventMessageNew, NewMessageEvent{})
	if err == nil {
		t.Error("PublishAdmin() after Close() should fail")
	}

	// Close is idempotent.
	if err := r.Close(); err != nil {
		t.Errorf("second Close() failed: %v", err)
	}
}
