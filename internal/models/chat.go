// SwaraLive - Realtime Livechat for Community Radio
// Copyright 2026 SwaraLive contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/swaralive/swaralive

// Package models defines the domain types shared across the livechat core:
// guests, sessions, chat messages, and the API response envelope.
package models

import (
	"time"

	"github.com/google/uuid"
)

// SenderKind identifies who authored a chat message.
type SenderKind string

const (
	// SenderUser is a guest participant. User messages enter the moderation
	// queue and are only published after approval.
	SenderUser SenderKind = "user"

	// SenderAdmin is on-air staff speaking as the station. Admin messages
	// bypass the moderation queue entirely.
	SenderAdmin SenderKind = "admin"
)

// Valid reports whether the sender kind is one of the recognized values.
func (s SenderKind) Valid() bool {
	return s == SenderUser || s == SenderAdmin
}

// ModerationStatus is the moderation state of a chat message.
// The only legal transition is from pending to exactly one terminal status.
type ModerationStatus string

const (
	StatusPending  ModerationStatus = "pending"
	StatusApproved ModerationStatus = "approved"
	StatusRejected ModerationStatus = "rejected"
	StatusBlocked  ModerationStatus = "blocked"
)

// ModerationAction is a moderator's decision on a pending message.
type ModerationAction string

const (
	ActionApprove ModerationAction = "approve"
	ActionReject  ModerationAction = "reject"
	ActionBlock   ModerationAction = "block"
)

// Status returns the terminal status the action transitions a message to.
// The second return is false for unrecognized actions.
func (a ModerationAction) Status() (ModerationStatus, bool) {
	switch a {
	case ActionApprove:
		return StatusApproved, true
	case ActionReject:
		return StatusRejected, true
	case ActionBlock:
		return StatusBlocked, true
	default:
		return "", false
	}
}

// Staff roles allowed to hold a moderator or broadcaster connection.
// "penyiar" is the on-air announcer role, kept for parity with the
// station's staff directory.
const (
	StaffRoleAdmin       = "admin"
	StaffRoleBroadcaster = "broadcaster"
	StaffRolePenyiar     = "penyiar"
)

// GuestUser is the identity of an anonymous chat participant. Created at
// session start and immutable thereafter; owned by exactly one session.
type GuestUser struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	City    string    `json:"city,omitempty"`
	Country string    `json:"country,omitempty"`
}

// ChatSession is a bounded-lifetime chat session pairing a guest with chat
// privileges. A session is the unit of rate limiting and send authorization.
type ChatSession struct {
	ID        uuid.UUID `json:"id"`
	Guest     GuestUser `json:"user"`
	IsActive  bool      `json:"isActive"`
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
}

// Expired reports whether the session's expiry has passed.
func (s *ChatSession) Expired() bool {
	return time.Now().After(s.ExpiresAt)
}

// Usable reports whether the session may still be used to send messages.
func (s *ChatSession) Usable() bool {
	return s.IsActive && !s.Expired()
}

// ChatMessage is one chat utterance with its moderation state.
type ChatMessage struct {
	ID          uuid.UUID        `json:"id"`
	SessionID   uuid.UUID        `json:"sessionId"`
	Text        string           `json:"text"`
	Sender      SenderKind       `json:"sender"`
	Status      ModerationStatus `json:"status"`
	ModeratorID string           `json:"moderatorId,omitempty"`
	ModeratedAt *time.Time       `json:"moderatedAt,omitempty"`
	CreatedAt   time.Time        `json:"createdAt"`
}

// ModeratedMessage is a chat message joined with its guest, returned to the
// moderation caller for rendering.
type ModeratedMessage struct {
	ChatMessage
	GuestName string `json:"guestName"`
	GuestCity string `json:"guestCity,omitempty"`
}

// ApprovedMessage is the public view of an approved message, enriched with
// the originating guest's display name and city.
type ApprovedMessage struct {
	ID          uuid.UUID  `json:"id"`
	Text        string     `json:"text"`
	GuestName   string     `json:"name"`
	GuestCity   string     `json:"city,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	ModeratedAt *time.Time `json:"moderatedAt,omitempty"`
}

// StaffUser is an authenticated platform account eligible for moderator or
// broadcaster connections.
type StaffUser struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Name     string    `json:"name"`
	Role     string    `json:"role"`

	// PasswordHash is the bcrypt hash of the login password. Never serialized.
	PasswordHash string `json:"-"`
}

// CanModerate reports whether the staff role grants chat moderation access.
func (u *StaffUser) CanModerate() bool {
	switch u.Role {
	case StaffRoleAdmin, StaffRoleBroadcaster, StaffRolePenyiar:
		return true
	default:
		return false
	}
}
