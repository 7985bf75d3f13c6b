// SwaraLive - Realtime Livechat for Community Radio
// Copyright 2026 SwaraLive contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/swaralive/swaralive

package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/swaralive/swaralive/internal/audit"
	"github.com/swaralive/swaralive/internal/auth"
	"github.com/swaralive/swaralive/internal/models"
)

type staffContextKey struct{}

// StaffFromContext returns the authenticated staff account, or nil.
func StaffFromContext(ctx context.Context) *models.StaffUser {
	staff, _ := ctx.Value(staffContextKey{}).(*models.StaffUser)
	return staff
}

// Login handles POST /api/v1/auth/login: verifies staff credentials and
// returns a signed staff token.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	staff, err := h.db.GetStaffByUsername(r.Context(), req.Username)
	if err != nil || !auth.CheckPassword(staff.PasswordHash, req.Password) {
		// Same answer for unknown user and wrong password.
		h.auditLog.Log(audit.LoginFailed(req.Username, clientIP(r)))
		respondError(w, http.StatusUnauthorized, codeUnauthorized, "Invalid username or password", nil)
		return
	}

	token, err := h.jwt.GenerateStaffToken(staff)
	if err != nil {
		respondError(w, http.StatusInternalServerError, codeInternal, "Failed to issue credential", err)
		return
	}

	h.auditLog.Log(audit.LoginSucceeded(staff, clientIP(r)))
	respondSuccess(w, http.StatusOK, map[string]interface{}{
		"token": token,
		"user": map[string]string{
			"id":       staff.ID.String(),
			"username": staff.Username,
			"name":     staff.Name,
			"role":     staff.Role,
		},
	})
}

// StaffAuth authenticates the Authorization bearer token as a staff
// credential and attaches the account to the request context.
func (h *Handler) StaffAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			respondError(w, http.StatusUnauthorized, codeUnauthorized, "Missing bearer token", nil)
			return
		}

		claims, err := h.jwt.ValidateToken(token)
		if err != nil || claims.Kind != auth.TokenKindStaff {
			respondError(w, http.StatusUnauthorized, codeUnauthorized, "Invalid staff credential", nil)
			return
		}

		staff, err := h.db.GetStaffByID(r.Context(), claims.Subject)
		if err != nil {
			respondError(w, http.StatusUnauthorized, codeUnauthorized, "Unknown staff account", nil)
			return
		}

		ctx := context.WithValue(r.Context(), staffContextKey{}, staff)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Authorize enforces the role policy for the authenticated staff account
// against the request path and method.
func (h *Handler) Authorize(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		staff := StaffFromContext(r.Context())
		if staff == nil {
			respondError(w, http.StatusUnauthorized, codeUnauthorized, "Staff credential required", nil)
			return
		}

		allowed, err := h.enforcer.Enforce(staff.Role, r.URL.Path, r.Method)
		if err != nil {
			respondError(w, http.StatusInternalServerError, codeInternal, "Authorization check failed", err)
			return
		}
		if !allowed {
			respondError(w, http.StatusForbidden, codeForbidden, "Role does not permit this operation", nil)
			return
		}

		next.ServeHTTP(w, r)
	})
}
