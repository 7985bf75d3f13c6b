// SwaraLive - Realtime Livechat for Community Radio
// Copyright 2026 SwaraLive contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/swaralive/swaralive

// Package api provides the HTTP surface of the livechat core: session
// initiation, the public approved feed, staff login, and the moderation
// endpoints, routed with Chi.
package api

import (
	"github.com/swaralive/swaralive/internal/audit"
	"github.com/swaralive/swaralive/internal/auth"
	"github.com/swaralive/swaralive/internal/authz"
	"github.com/swaralive/swaralive/internal/cache"
	"github.com/swaralive/swaralive/internal/config"
	"github.com/swaralive/swaralive/internal/database"
	"github.com/swaralive/swaralive/internal/moderation"
	"github.com/swaralive/swaralive/internal/session"
)

// Handler carries the dependencies of every HTTP endpoint.
type Handler struct {
	cfg        *config.Config
	db         *database.DB
	sessions   *session.Store
	moderation *moderation.Service
	jwt        *auth.JWTManager
	enforcer   *authz.Enforcer

	// feedCache caches approved-feed responses; cleared by the moderation
	// workflow on approval.
	feedCache *cache.Cache

	// auditLog records staff actions. May be nil when auditing is disabled.
	auditLog *audit.Logger
}

// NewHandler creates the API handler set.
func NewHandler(cfg *config.Config, db *database.DB, sessions *session.Store, mod *moderation.Service, jwt *auth.JWTManager, enforcer *authz.Enforcer, feedCache *cache.Cache, auditLog *audit.Logger) *Handler {
	return &Handler{
		cfg:        cfg,
		db:         db,
		sessions:   sessions,
		moderation: mod,
		jwt:        jwt,
		enforcer:   enforcer,
		feedCache:  feedCache,
		auditLog:   auditLog,
	}
}
