// SwaraLive - Realtime Livechat for Community Radio
// Copyright 2026 SwaraLive contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/swaralive/swaralive

package models

import (
	"time"

	"github.com/google/uuid"
)

// AuditEventType categorizes entries in the staff action audit trail.
type AuditEventType string

const (
	AuditLoginSucceeded  AuditEventType = "auth.login"
	AuditLoginFailed     AuditEventType = "auth.login_failed"
	AuditMessageApproved AuditEventType = "moderation.approved"
	AuditMessageRejected AuditEventType = "moderation.rejected"
	AuditMessageBlocked  AuditEventType = "moderation.blocked"
	AuditStaffSeeded     AuditEventType = "staff.seeded"
)

// AuditOutcome records whether the audited action succeeded.
type AuditOutcome string

const (
	AuditOutcomeSuccess AuditOutcome = "success"
	AuditOutcomeFailure AuditOutcome = "failure"
)

// AuditEvent is one entry in the staff action audit trail. Entries are
// written asynchronously and queried newest first.
type AuditEvent struct {
	ID        uuid.UUID      `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	Type      AuditEventType `json:"type"`
	Outcome   AuditOutcome   `json:"outcome"`
	ActorID   string         `json:"actorId,omitempty"`
	ActorName string         `json:"actorName,omitempty"`
	ActorRole string         `json:"actorRole,omitempty"`
	TargetID  string         `json:"targetId,omitempty"`
	SourceIP  string         `json:"sourceIp,omitempty"`
	Detail    string         `json:"detail,omitempty"`
}
