// SwaraLive - Realtime Livechat for Community Radio
// Copyright 2026 SwaraLive contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/swaralive/swaralive

package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/swaralive/swaralive/internal/audit"
	"github.com/swaralive/swaralive/internal/cache"
	"github.com/swaralive/swaralive/internal/database"
	"github.com/swaralive/swaralive/internal/models"
	"github.com/swaralive/swaralive/internal/moderation"
)

// CreateSession handles POST /api/v1/livechat/session: registers a guest
// and returns the signed session credential used on the chat socket.
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req models.CreateSessionRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	sess, token, err := h.sessions.Create(r.Context(), req.Name, req.City, req.Country)
	if err != nil {
		respondError(w, http.StatusInternalServerError, codeInternal, "Failed to create session", err)
		return
	}

	respondSuccess(w, http.StatusCreated, models.CreateSessionResponse{
		SessionToken: token,
		SessionID:    sess.ID.String(),
		User:         sess.Guest,
		ExpiresAt:    sess.ExpiresAt,
	})
}

// approvedFeedResponse is the payload of the public approved feed.
type approvedFeedResponse struct {
	Messages   []models.ApprovedMessage `json:"messages"`
	Pagination models.PaginationInfo    `json:"pagination"`
}

// ApprovedMessages handles GET /api/v1/livechat/messages/approved: the
// public feed of approved messages, newest decision first, cached briefly.
func (h *Handler) ApprovedMessages(w http.ResponseWriter, r *http.Request) {
	page, limit, offset := h.pagination(r)

	key := cache.GenerateKey("approved_messages", fmt.Sprintf("%d:%d", page, limit))
	if cached, ok := h.feedCache.Get(key); ok {
		if resp, ok := cached.(approvedFeedResponse); ok {
			respondJSON(w, http.StatusOK, &models.APIResponse{
				Status:   "success",
				Data:     resp,
				Metadata: models.Metadata{Timestamp: time.Now(), Cached: true},
			})
			return
		}
	}

	start := time.Now()
	messages, total, err := h.db.GetApprovedMessages(r.Context(), limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, codeInternal, "Failed to load approved messages", err)
		return
	}

	resp := approvedFeedResponse{
		Messages: messages,
		Pagination: models.PaginationInfo{
			Page:       page,
			Limit:      limit,
			TotalCount: total,
			TotalPages: (total + limit - 1) / limit,
		},
	}
	h.feedCache.Set(key, resp)

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data:   resp,
		Metadata: models.Metadata{
			Timestamp:   time.Now(),
			QueryTimeMS: time.Since(start).Milliseconds(),
		},
	})
}

// PendingMessages handles GET /api/v1/livechat/messages/pending: the
// moderation queue, oldest first. Staff only.
func (h *Handler) PendingMessages(w http.ResponseWriter, r *http.Request) {
	_, limit, offset := h.pagination(r)

	messages, err := h.db.GetPendingMessages(r.Context(), limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, codeInternal, "Failed to load pending messages", err)
		return
	}

	respondSuccess(w, http.StatusOK, map[string]interface{}{
		"messages": messages,
	})
}

// ModerateMessage handles POST /api/v1/livechat/messages/{id}/moderate.
// Staff only; the decision is single-shot per message.
func (h *Handler) ModerateMessage(w http.ResponseWriter, r *http.Request) {
	staff := StaffFromContext(r.Context())
	if staff == nil {
		respondError(w, http.StatusUnauthorized, codeUnauthorized, "Staff credential required", nil)
		return
	}

	var req models.ModerateRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	messageID := chi.URLParam(r, "id")
	msg, err := h.moderation.Moderate(r.Context(), messageID, models.ModerationAction(req.Action), staff)
	switch {
	case errors.Is(err, database.ErrMessageNotFound):
		respondError(w, http.StatusNotFound, codeNotFound, "Message not found", nil)
		return
	case errors.Is(err, database.ErrAlreadyModerated):
		respondError(w, http.StatusConflict, codeConflict, "Message has already been moderated", nil)
		return
	case errors.Is(err, moderation.ErrNotModeratable):
		respondError(w, http.StatusConflict, codeConflict, "Message is not subject to moderation", nil)
		return
	case errors.Is(err, moderation.ErrInvalidAction):
		respondError(w, http.StatusBadRequest, codeValidation, "Unrecognized moderation action", nil)
		return
	case err != nil:
		respondError(w, http.StatusInternalServerError, codeInternal, "Moderation failed", err)
		return
	}

	h.auditLog.Log(audit.Moderated(models.ModerationAction(req.Action), messageID, staff, clientIP(r)))
	respondSuccess(w, http.StatusOK, msg)
}

// auditFeedResponse is the payload of the admin audit trail endpoint.
type auditFeedResponse struct {
	Events     []models.AuditEvent   `json:"events"`
	Pagination models.PaginationInfo `json:"pagination"`
}

// AuditEvents handles GET /api/v1/livechat/audit: the staff action trail,
// newest first. Admin only via the role policy.
func (h *Handler) AuditEvents(w http.ResponseWriter, r *http.Request) {
	page, limit, offset := h.pagination(r)

	events, total, err := h.db.GetAuditEvents(r.Context(), limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, codeInternal, "Failed to load audit trail", err)
		return
	}

	respondSuccess(w, http.StatusOK, auditFeedResponse{
		Events: events,
		Pagination: models.PaginationInfo{
			Page:       page,
			Limit:      limit,
			TotalCount: total,
			TotalPages: (total + limit - 1) / limit,
		},
	})
}
