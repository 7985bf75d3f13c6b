// SwaraLive - Realtime Livechat for Community Radio
// Copyright 2026 SwaraLive contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/swaralive/swaralive

package models

import "time"

// APIResponse is the uniform envelope for every HTTP response.
//
// Fields:
//   - Status: "success" or "error"
//   - Data: endpoint-specific payload (null on error)
//   - Metadata: timestamp, query timing, cache flag
//   - Error: structured error details, present only on error
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata contains response metadata for observability.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
	Cached      bool      `json:"cached,omitempty"`
}

// APIError represents an error response with structured details.
// Code is machine-readable ("VALIDATION_ERROR", "CONFLICT", ...), Message is
// human-readable.
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// PaginationInfo carries page/limit pagination metadata for list endpoints.
type PaginationInfo struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalCount int `json:"total_count"`
	TotalPages int `json:"total_pages"`
}

// LoginRequest is the staff login payload.
type LoginRequest struct {
	Username string `json:"username" validate:"required,min=1,max=64"`
	Password string `json:"password" validate:"required,min=1,max=256"`
}

// CreateSessionRequest is the guest session-initiation payload.
type CreateSessionRequest struct {
	Name    string `json:"name" validate:"required,min=1,max=100"`
	City    string `json:"city,omitempty" validate:"max=100"`
	Country string `json:"country,omitempty" validate:"max=100"`
}

// ModerateRequest is the moderation decision payload.
type ModerateRequest struct {
	Action string `json:"action" validate:"required,oneof=approve reject block"`
}

// CreateSessionResponse is returned from POST /livechat/session.
type CreateSessionResponse struct {
	SessionToken string    `json:"sessionToken"`
	SessionID    string    `json:"sessionId"`
	User         GuestUser `json:"user"`
	ExpiresAt    time.Time `json:"expiresAt"`
}
