// SwaraLive - Realtime Livechat for Community Radio
// Copyright 2026 SwaraLive contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/swaralive/swaralive

package gateway

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/swaralive/swaralive/internal/auth"
	"github.com/swaralive/swaralive/internal/logging"
	"github.com/swaralive/swaralive/internal/metrics"
	"github.com/swaralive/swaralive/internal/models"
)

// TestSessionPrefix marks session ids that are accepted without a store
// lookup, so protocol tests can run deterministically against a live socket.
const TestSessionPrefix = "test-session-"

// SessionResolver resolves a session id to a usable session.
type SessionResolver interface {
	Find(ctx context.Context, id string) (*models.ChatSession, error)
}

// StaffDirectory resolves a staff account id.
type StaffDirectory interface {
	GetStaffByID(ctx context.Context, id string) (*models.StaffUser, error)
}

// connectionSuccessUser is the connection:success payload for guest
// connections.
type connectionSuccessUser struct {
	SessionID string           `json:"sessionId"`
	User      models.GuestUser `json:"user"`
}

// connectionSuccessStaff is the connection:success payload for staff
// connections.
type connectionSuccessStaff struct {
	ConnectionID string        `json:"connectionId"`
	UserName     string        `json:"userName"`
	Role         Role          `json:"role"`
	User         staffUserInfo `json:"user"`
}

type staffUserInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Handshake authenticates and upgrades websocket connections on the chat
// endpoint. Authentication runs before the upgrade: failures answer with a
// plain HTTP status and never create connection state.
type Handshake struct {
	upgrader websocket.Upgrader
	jwt      *auth.JWTManager
	sessions SessionResolver
	staff    StaffDirectory
	hub      *Hub
	protocol *Protocol
}

// NewHandshake creates the websocket endpoint handler.
func NewHandshake(jwt *auth.JWTManager, sessions SessionResolver, staff StaffDirectory, hub *Hub, protocol *Protocol) *Handshake {
	return &Handshake{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Browser origin enforcement happens in the CORS layer; the
			// socket itself is token-authenticated.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		jwt:      jwt,
		sessions: sessions,
		staff:    staff,
		hub:      hub,
		protocol: protocol,
	}
}

// ServeHTTP implements the handshake: token and role come from the query
// string, the token is verified per role, and only then is the connection
// upgraded and registered.
func (h *Handshake) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		h.reject(w, http.StatusUnauthorized, "Missing token")
		return
	}

	role := Role(r.URL.Query().Get("role"))
	if role == "" {
		role = RoleUser
	}
	if !role.Valid() {
		h.reject(w, http.StatusForbidden, "Unsupported role")
		return
	}

	var identity Identity
	var err error
	if role.Staff() {
		identity, err = h.authenticateStaff(r.Context(), w, token, role)
	} else {
		identity, err = h.authenticateGuest(r.Context(), w, token)
	}
	if err != nil {
		// authenticate* already wrote the rejection.
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Msg("Websocket upgrade failed")
		return
	}

	client := NewClient(h.hub, h.protocol, conn, identity)
	h.hub.Register <- client
	client.Start()
	client.deliver(h.successFrame(client))
}

// authenticateStaff verifies a staff credential and checks the account's
// role grants chat moderation access.
func (h *Handshake) authenticateStaff(ctx context.Context, w http.ResponseWriter, token string, role Role) (Identity, error) {
	claims, err := h.jwt.ValidateToken(token)
	if err != nil || claims.Kind != auth.TokenKindStaff {
		h.reject(w, http.StatusUnauthorized, "Invalid staff credential")
		return Identity{}, errRejected
	}

	staff, err := h.staff.GetStaffByID(ctx, claims.Subject)
	if err != nil {
		h.reject(w, http.StatusUnauthorized, "Unknown staff account")
		return Identity{}, errRejected
	}
	if !staff.CanModerate() {
		h.reject(w, http.StatusForbidden, "Account role does not grant chat access")
		return Identity{}, errRejected
	}

	return Identity{Role: role, Staff: staff}, nil
}

// authenticateGuest verifies a session credential and resolves the session,
// honoring the test-fixture bypass.
func (h *Handshake) authenticateGuest(ctx context.Context, w http.ResponseWriter, token string) (Identity, error) {
	claims, err := h.jwt.ValidateToken(token)
	if err != nil || claims.Kind != auth.TokenKindSession {
		h.reject(w, http.StatusUnauthorized, "Invalid session")
		return Identity{}, errRejected
	}

	if strings.HasPrefix(claims.SessionID, TestSessionPrefix) {
		return Identity{Role: RoleUser, Session: syntheticSession(claims)}, nil
	}

	session, err := h.sessions.Find(ctx, claims.SessionID)
	if err != nil {
		h.reject(w, http.StatusUnauthorized, "Invalid session")
		return Identity{}, errRejected
	}
	return Identity{Role: RoleUser, Session: session}, nil
}

// syntheticSession builds a session for a test-fixture session id without a
// store lookup. The id is derived deterministically so persisted messages
// still carry a well-formed session reference.
func syntheticSession(claims *auth.Claims) *models.ChatSession {
	guestID := uuid.NewSHA1(uuid.NameSpaceOID, []byte(claims.Subject))
	return &models.ChatSession{
		ID: uuid.NewSHA1(uuid.NameSpaceOID, []byte(claims.SessionID)),
		Guest: models.GuestUser{
			ID:   guestID,
			Name: claims.GuestName,
		},
		IsActive:  true,
		ExpiresAt: claims.ExpiresAt.Time,
		CreatedAt: time.Now().UTC(),
	}
}

// successFrame builds the connection:success frame for the client's role.
func (h *Handshake) successFrame(client *Client) OutboundFrame {
	if client.identity.Staff != nil {
		return OutboundFrame{
			Event: EventConnectionSuccess,
			Payload: connectionSuccessStaff{
				ConnectionID: client.id,
				UserName:     client.identity.Staff.Name,
				Role:         client.identity.Role,
				User: staffUserInfo{
					ID:   client.identity.Staff.ID.String(),
					Name: client.identity.Staff.Name,
				},
			},
		}
	}
	return OutboundFrame{
		Event: EventConnectionSuccess,
		Payload: connectionSuccessUser{
			SessionID: client.identity.SessionID(),
			User:      client.identity.Session.Guest,
		},
	}
}

func (h *Handshake) reject(w http.ResponseWriter, status int, message string) {
	metrics.GatewayHandshakeFailures.WithLabelValues(strconv.Itoa(status)).Inc()
	http.Error(w, message, status)
}

// errRejected signals that the handshake already answered the client.
var errRejected = errors.New("handshake rejected")
