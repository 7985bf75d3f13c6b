// SwaraLive - Realtime Livechat for Community Radio
// Copyright 2026 SwaraLive contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/swaralive/swaralive

package api

import (
	"net/http"
)

// HealthLive handles GET /api/v1/health/live. Process-up probe only.
func (h *Handler) HealthLive(w http.ResponseWriter, _ *http.Request) {
	respondSuccess(w, http.StatusOK, map[string]string{"status": "alive"})
}

// HealthReady handles GET /api/v1/health/ready: ready only when the durable
// store answers a ping.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	if err := h.db.Ping(r.Context()); err != nil {
		respondError(w, http.StatusServiceUnavailable, codeInternal, "Durable store unavailable", err)
		return
	}
	respondSuccess(w, http.StatusOK, map[string]string{"status": "ready"})
}
