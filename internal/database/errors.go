// SwaraLive - Realtime Livechat for Community Radio
// Copyright 2026 SwaraLive contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/swaralive/swaralive

package database

import "errors"

// Sentinel errors returned by the store. Callers map these to HTTP statuses
// (404/409) or in-band socket error events.
var (
	// ErrSessionNotFound is returned when a session does not exist.
	ErrSessionNotFound = errors.New("session not found")

	// ErrMessageNotFound is returned when a chat message does not exist.
	ErrMessageNotFound = errors.New("message not found")

	// ErrAlreadyModerated is returned when a moderation update finds the
	// message no longer pending. The conditional update makes this check
	// atomic under concurrent moderators.
	ErrAlreadyModerated = errors.New("message already moderated")

	// ErrStaffNotFound is returned when a staff account does not exist.
	ErrStaffNotFound = errors.New("staff account not found")
)
