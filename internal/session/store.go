// SwaraLive - Realtime Livechat for Community Radio
// Copyright 2026 SwaraLive contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/swaralive/swaralive

// Package session manages guest chat sessions: durable rows in DuckDB,
// a BadgerDB mirror for fast lookups on the message hot path, and the
// signed session tokens handed to clients.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/swaralive/swaralive/internal/auth"
	"github.com/swaralive/swaralive/internal/database"
	"github.com/swaralive/swaralive/internal/logging"
	"github.com/swaralive/swaralive/internal/metrics"
	"github.com/swaralive/swaralive/internal/models"
)

// ErrSessionNotFound is returned when no session exists for the given ID.
var ErrSessionNotFound = database.ErrSessionNotFound

// ErrSessionUnusable is returned for sessions that exist but are expired
// or invalidated. Callers treat it like a missing session when resolving
// send authorization.
var ErrSessionUnusable = errors.New("session expired or invalidated")

const mirrorKeyPrefix = "session:"

// Invalidation causes recorded in metrics.
const (
	CauseExplicit     = "explicit"
	CauseBlocked      = "blocked"
	CauseExpiredSweep = "expired_sweep"
)

// Store coordinates the durable session store with its BadgerDB mirror.
// DuckDB holds the source of truth; the mirror holds a copy with a TTL
// equal to the session's remaining lifetime.
type Store struct {
	db     *database.DB
	mirror *badger.DB
	jwt    *auth.JWTManager
	ttl    time.Duration
}

// NewStore creates a session store.
func NewStore(db *database.DB, mirror *badger.DB, jwt *auth.JWTManager, ttl time.Duration) *Store {
	return &Store{db: db, mirror: mirror, jwt: jwt, ttl: ttl}
}

// Create registers a new guest and their session, mirrors it, and mints the
// session token the client will present on every chat connection.
func (s *Store) Create(ctx context.Context, name, city, country string) (*models.ChatSession, string, error) {
	now := time.Now().UTC()
	session := &models.ChatSession{
		ID: uuid.New(),
		Guest: models.GuestUser{
			ID:      uuid.New(),
			Name:    name,
			City:    city,
			Country: country,
		},
		IsActive:  true,
		ExpiresAt: now.Add(s.ttl),
		CreatedAt: now,
	}

	if err := s.db.InsertGuestSession(ctx, session); err != nil {
		return nil, "", err
	}

	if err := s.mirrorSet(session); err != nil {
		// The durable row exists; lookups fall back to DuckDB.
		logging.Ctx(ctx).Warn().Err(err).
			Str("session_id", session.ID.String()).
			Msg("Failed to mirror session")
	}

	token, err := s.jwt.GenerateSessionToken(session)
	if err != nil {
		return nil, "", fmt.Errorf("failed to mint session token: %w", err)
	}

	metrics.SessionsCreated.Inc()
	return session, token, nil
}

// Find resolves a session by ID, consulting the mirror first and falling
// back to the durable store. Expired or invalidated sessions return
// ErrSessionUnusable.
func (s *Store) Find(ctx context.Context, id string) (*models.ChatSession, error) {
	if session, err := s.mirrorGet(id); err == nil {
		metrics.SessionCacheLookups.WithLabelValues("hit").Inc()
		if !session.Usable() {
			return nil, ErrSessionUnusable
		}
		return session, nil
	}
	metrics.SessionCacheLookups.WithLabelValues("miss").Inc()

	session, err := s.db.GetSessionByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !session.Usable() {
		return nil, ErrSessionUnusable
	}

	// Backfill the mirror for the session's remaining lifetime.
	if err := s.mirrorSet(session); err != nil {
		logging.Ctx(ctx).Warn().Err(err).
			Str("session_id", id).
			Msg("Failed to backfill session mirror")
	}
	return session, nil
}

// Invalidate deactivates a session and evicts it from the mirror. The
// operation is idempotent: invalidating an already-inactive session is a
// no-op success.
func (s *Store) Invalidate(ctx context.Context, id, cause string) error {
	if err := s.db.DeactivateSession(ctx, id); err != nil {
		return err
	}

	err := s.mirror.Update(func(txn *badger.Txn) error {
		err := txn.Delete([]byte(mirrorKeyPrefix + id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		return err
	})
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).
			Str("session_id", id).
			Msg("Failed to evict session from mirror")
	}

	metrics.SessionsInvalidated.WithLabelValues(cause).Inc()
	return nil
}

// CleanupExpired deactivates every expired-but-active session in the
// durable store. Mirror entries expire on their own TTL.
func (s *Store) CleanupExpired(ctx context.Context) (int64, error) {
	swept, err := s.db.CleanupExpiredSessions(ctx)
	if err != nil {
		return 0, err
	}
	if swept > 0 {
		metrics.SessionsInvalidated.WithLabelValues(CauseExpiredSweep).Add(float64(swept))
	}
	return swept, nil
}

func (s *Store) mirrorSet(session *models.ChatSession) error {
	remaining := time.Until(session.ExpiresAt)
	if remaining <= 0 {
		return nil
	}

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	return s.mirror.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(mirrorKeyPrefix+session.ID.String()), data).
			WithTTL(remaining)
		return txn.SetEntry(entry)
	})
}

func (s *Store) mirrorGet(id string) (*models.ChatSession, error) {
	var session models.ChatSession
	err := s.mirror.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(mirrorKeyPrefix + id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &session)
		})
	})
	if err != nil {
		return nil, err
	}
	return &session, nil
}
