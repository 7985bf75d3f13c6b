// SwaraLive - Realtime Livechat for Community Radio
// Copyright 2026 SwaraLive contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/swaralive/swaralive

package gateway

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/swaralive/swaralive/internal/config"
	"github.com/swaralive/swaralive/internal/database"
	"github.com/swaralive/swaralive/internal/logging"
	"github.com/swaralive/swaralive/internal/models"
	"github.com/swaralive/swaralive/internal/relay"
)

//nolint:gochecknoinits // init ensures consistent logging for tests
func init() {
	logging.Init(logging.Config{
		Level:  "info",
		Format: "console",
		Output: io.Discard,
	})
}

const testMessageText = "Halo penyiar, tolong putarkan lagu keroncong untuk warga Bandung tercinta"

func setupProtocol(t *testing.T, window time.Duration) (*Protocol, *database.DB, *relay.Relay) {
	t.Helper()

	db, err := database.New(&config.DatabaseConfig{MaxMemory: "256MB", Threads: 1})
	if err != nil {
		t.Fatalf("database.New() failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	r := relay.NewGoChannel(&config.RelayConfig{
		AdminTopic:  "livechat.admin",
		PublicTopic: "livechat.public",
	})
	t.Cleanup(func() { _ = r.Close() })

	protocol := NewProtocol(db, r, NewRateLimits(window), 50, false)
	return protocol, db, r
}

// guestIdentity builds a user identity with a persisted session so message
// inserts resolve.
func guestIdentity(t *testing.T, db *database.DB) Identity {
	t.Helper()

	now := time.Now().UTC()
	session := &models.ChatSession{
		ID:        uuid.New(),
		Guest:     models.GuestUser{ID: uuid.New(), Name: "Rudi", City: "Bandung"},
		IsActive:  true,
		ExpiresAt: now.Add(time.Hour),
		CreatedAt: now,
	}
	if err := db.InsertGuestSession(context.Background(), session); err != nil {
		t.Fatalf("InsertGuestSession() failed: %v", err)
	}
	return Identity{Role: RoleUser, Session: session}
}

func sendFrame(text string) []byte {
	raw, _ := json.Marshal(InboundFrame{
		Event:   EventMessageSend,
		Payload: json.RawMessage(fmt.Sprintf(`{"text":%q}`, text)),
	})
	return raw
}

func TestHandleFrameMalformedJSON(t *testing.T) {
	protocol, db, _ := setupProtocol(t, 10*time.Second)
	identity := guestIdentity(t, db)

	frames := protocol.HandleFrame(context.Background(), identity, []byte("{not json"))
	if len(frames) != 1 {
		t.Fatalf("frames = %d, want 1", len(frames))
	}
	if frames[0].Event != EventErrorInvalidPayload {
		t.Errorf("event = %q, want %q", frames[0].Event, EventErrorInvalidPayload)
	}
}

func TestHandleFrameUnknownEvent(t *testing.T) {
	protocol, db, _ := setupProtocol(t, 10*time.Second)
	identity := guestIdentity(t, db)

	raw, _ := json.Marshal(InboundFrame{Event: "message:edit", Payload: json.RawMessage(`{}`)})
	frames := protocol.HandleFrame(context.Background(), identity, raw)
	if len(frames) != 1 || frames[0].Event != EventErrorInvalidEvent {
		t.Fatalf("frames = %+v, want one %s", frames, EventErrorInvalidEvent)
	}
	payload := frames[0].Payload.(ErrorPayload)
	if !strings.Contains(payload.Message, "message:edit") {
		t.Errorf("error message %q should name the unknown event", payload.Message)
	}
}

func TestHandleSendTooShort(t *testing.T) {
	protocol, db, _ := setupProtocol(t, 10*time.Second)
	identity := guestIdentity(t, db)

	frames := protocol.HandleFrame(context.Background(), identity, sendFrame("too short"))
	if len(frames) != 1 || frames[0].Event != EventErrorInvalidPayload {
		t.Fatalf("frames = %+v, want one %s", frames, EventErrorInvalidPayload)
	}
	payload := frames[0].Payload.(ErrorPayload)
	if !strings.Contains(payload.Message, "50") {
		t.Errorf("error message %q should state the minimum length", payload.Message)
	}

	// Whitespace padding does not count toward the minimum.
	padded := "   short but padded with lots of surrounding whitespace   "
	if len(padded) >= 50 && len(strings.TrimSpace(padded)) < 50 {
		frames = protocol.HandleFrame(context.Background(), identity, sendFrame(padded))
		if len(frames) != 1 || frames[0].Event != EventErrorInvalidPayload {
			t.Errorf("padded text should be rejected on trimmed length")
		}
	}
}

func TestHandleSendWithoutSession(t *testing.T) {
	protocol, _, _ := setupProtocol(t, 10*time.Second)
	staff := Identity{Role: RoleModerator, Staff: &models.StaffUser{ID: uuid.New(), Name: "Ayu", Role: models.StaffRoleAdmin}}

	frames := protocol.HandleFrame(context.Background(), staff, sendFrame(testMessageText))
	if len(frames) != 1 || frames[0].Event != EventErrorInvalidPayload {
		t.Fatalf("frames = %+v, want one %s", frames, EventErrorInvalidPayload)
	}
}

func TestHandleSendAckAndPersist(t *testing.T) {
	protocol, db, r := setupProtocol(t, 10*time.Second)
	identity := guestIdentity(t, db)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	adminMsgs, err := r.SubscribeAdmin(ctx)
	if err != nil {
		t.Fatalf("SubscribeAdmin() failed: %v", err)
	}

	frames := protocol.HandleFrame(ctx, identity, sendFrame(testMessageText))
	if len(frames) != 1 || frames[0].Event != EventMessageAck {
		t.Fatalf("frames = %+v, want one %s", frames, EventMessageAck)
	}

	ack := frames[0].Payload.(AckPayload)
	if ack.MessageID == "" {
		t.Error("ack should carry the message id")
	}
	if ack.Timestamp.IsZero() {
		t.Error("ack should carry the message timestamp")
	}

	// Message is persisted as a pending user message.
	stored, err := db.GetChatMessageByID(ctx, ack.MessageID)
	if err != nil {
		t.Fatalf("GetChatMessageByID() failed: %v", err)
	}
	if stored.Status != models.StatusPending {
		t.Errorf("status = %s, want pending", stored.Status)
	}
	if stored.Sender != models.SenderUser {
		t.Errorf("sender = %s, want user", stored.Sender)
	}
	if stored.SessionID != identity.Session.ID {
		t.Errorf("session ID = %s, want %s", stored.SessionID, identity.Session.ID)
	}

	// The new message is announced on the admin topic.
	select {
	case msg := <-adminMsgs:
		msg.Ack()
		env, err := relay.DecodeEnvelope(msg.Payload)
		if err != nil {
			t.Fatalf("DecodeEnvelope() failed: %v", err)
		}
		if env.Event != relay.EventMessageNew {
			t.Errorf("admin event = %q, want %q", env.Event, relay.EventMessageNew)
		}
		var event relay.NewMessageEvent
		if err := json.Unmarshal(env.Payload, &event); err != nil {
			t.Fatalf("payload unmarshal failed: %v", err)
		}
		if event.Message.GuestName != "Rudi" {
			t.Errorf("guest name = %q, want Rudi", event.Message.GuestName)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message:new on admin topic")
	}
}

func TestHandleSendSanitizesText(t *testing.T) {
	protocol, db, _ := setupProtocol(t, 10*time.Second)
	identity := guestIdentity(t, db)
	ctx := context.Background()

	dirty := testMessageText + ` <b>dan "salam" buat kota/kabupaten</b>`
	frames := protocol.HandleFrame(ctx, identity, sendFrame(dirty))
	if len(frames) != 1 || frames[0].Event != EventMessageAck {
		t.Fatalf("frames = %+v, want one ack", frames)
	}

	stored, err := db.GetChatMessageByID(ctx, frames[0].Payload.(AckPayload).MessageID)
	if err != nil {
		t.Fatalf("GetChatMessageByID() failed: %v", err)
	}
	for _, forbidden := range []string{"<", ">", `"`, "'", "/"} {
		if strings.Contains(stored.Text, forbidden) {
			t.Errorf("stored text %q still contains %q", stored.Text, forbidden)
		}
	}
	if !strings.Contains(stored.Text, "&lt;b&gt;") {
		t.Errorf("stored text %q should contain the escaped markup", stored.Text)
	}
}

func TestHandleSendRateLimited(t *testing.T) {
	protocol, db, _ := setupProtocol(t, 10*time.Second)
	identity := guestIdentity(t, db)
	ctx := context.Background()

	if frames := protocol.HandleFrame(ctx, identity, sendFrame(testMessageText)); frames[0].Event != EventMessageAck {
		t.Fatalf("first send = %+v, want ack", frames)
	}

	frames := protocol.HandleFrame(ctx, identity, sendFrame(testMessageText))
	if len(frames) != 1 || frames[0].Event != EventErrorRateLimit {
		t.Fatalf("frames = %+v, want one %s", frames, EventErrorRateLimit)
	}
	payload := frames[0].Payload.(ErrorPayload)
	if payload.RetryAfter <= 0 || payload.RetryAfter > 10 {
		t.Errorf("retryAfter = %d, want in (0, 10]", payload.RetryAfter)
	}
	if !strings.Contains(payload.Message, fmt.Sprint(payload.RetryAfter)) {
		t.Errorf("message %q should include the retry delay", payload.Message)
	}
}

func TestHandleTyping(t *testing.T) {
	protocol, db, r := setupProtocol(t, 10*time.Second)
	identity := guestIdentity(t, db)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	adminMsgs, err := r.SubscribeAdmin(ctx)
	if err != nil {
		t.Fatalf("SubscribeAdmin() failed: %v", err)
	}

	raw, _ := json.Marshal(InboundFrame{Event: EventUserTyping, Payload: json.RawMessage(`{"isTyping":true}`)})
	frames := protocol.HandleFrame(ctx, identity, raw)
	if len(frames) != 0 {
		t.Errorf("typing should produce no reply frames, got %+v", frames)
	}

	select {
	case msg := <-adminMsgs:
		msg.Ack()
		env, err := relay.DecodeEnvelope(msg.Payload)
		if err != nil {
			t.Fatalf("DecodeEnvelope() failed: %v", err)
		}
		if env.Event != relay.EventUserTyping {
			t.Errorf("event = %q, want %q", env.Event, relay.EventUserTyping)
		}
		var typing relay.TypingEvent
		if err := json.Unmarshal(env.Payload, &typing); err != nil {
			t.Fatalf("payload unmarshal failed: %v", err)
		}
		if typing.SessionID != identity.Session.ID.String() || !typing.IsTyping {
			t.Errorf("typing payload = %+v, want session %s typing", typing, identity.Session.ID)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for typing event")
	}
}

func TestConnectionClosedForgetsRateLimit(t *testing.T) {
	protocol, db, _ := setupProtocol(t, 10*time.Second)
	identity := guestIdentity(t, db)
	ctx := context.Background()

	protocol.HandleFrame(ctx, identity, sendFrame(testMessageText))
	if protocol.limits.Len() != 1 {
		t.Fatalf("limiter count = %d, want 1", protocol.limits.Len())
	}

	protocol.ConnectionClosed(identity)
	if protocol.limits.Len() != 0 {
		t.Errorf("limiter count = %d, want 0 after close", protocol.limits.Len())
	}
}

func TestTestModeSkipsAdminPublish(t *testing.T) {
	db, err := database.New(&config.DatabaseConfig{MaxMemory: "256MB", Threads: 1})
	if err != nil {
		t.Fatalf("database.New() failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	r := relay.NewGoChannel(&config.RelayConfig{
		AdminTopic:  "livechat.admin",
		PublicTopic: "livechat.public",
	})
	t.Cleanup(func() { _ = r.Close() })

	protocol := NewProtocol(db, r, NewRateLimits(10*time.Second), 50, true)
	identity := guestIdentity(t, db)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	adminMsgs, err := r.SubscribeAdmin(ctx)
	if err != nil {
		t.Fatalf("SubscribeAdmin() failed: %v", err)
	}

	frames := protocol.HandleFrame(ctx, identity, sendFrame(testMessageText))
	if len(frames) != 1 || frames[0].Event != EventMessageAck {
		t.Fatalf("frames = %+v, want one ack", frames)
	}

	select {
	case msg := <-adminMsgs:
		t.Errorf("unexpected admin publish in test mode: %q", msg.Metadata.Get("event"))
	case <-time.After(100 * time.Millisecond):
	}
}
