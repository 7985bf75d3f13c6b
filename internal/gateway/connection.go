// SwaraLive - Realtime Livechat for Community Radio
// Copyright 2026 SwaraLive contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/swaralive/swaralive

package gateway

import (
	"fmt"
	"time"

	"github.com/swaralive/swaralive/internal/models"
)

// Role is the connection role requested at handshake time.
type Role string

const (
	RoleUser        Role = "user"
	RoleModerator   Role = "moderator"
	RoleBroadcaster Role = "broadcaster"
)

// Valid reports whether the role is one of the accepted handshake values.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleModerator || r == RoleBroadcaster
}

// Staff reports whether the role receives the moderation fan-out.
func (r Role) Staff() bool {
	return r == RoleModerator || r == RoleBroadcaster
}

// Identity is the handshake result: exactly one of Session or Staff is set,
// resolved once at upgrade time and never re-dispatched per frame.
type Identity struct {
	Role    Role
	Session *models.ChatSession
	Staff   *models.StaffUser
}

// SessionID returns the owning session id for user connections, "" for staff.
func (id Identity) SessionID() string {
	if id.Session == nil {
		return ""
	}
	return id.Session.ID.String()
}

// DisplayName returns the name shown alongside the connection's messages.
func (id Identity) DisplayName() string {
	if id.Staff != nil {
		return id.Staff.Name
	}
	if id.Session != nil {
		return id.Session.Guest.Name
	}
	return ""
}

// subjectID returns the stable id the connection id is derived from.
func (id Identity) subjectID() string {
	if id.Staff != nil {
		return id.Staff.ID.String()
	}
	return id.SessionID()
}

// connectionID derives a process-unique connection id from the subject and
// the connect time.
func connectionID(id Identity) string {
	return fmt.Sprintf("%s:%d", id.subjectID(), time.Now().UnixNano())
}
