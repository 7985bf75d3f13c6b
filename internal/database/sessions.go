// SwaraLive - Realtime Livechat for Community Radio
// Copyright 2026 SwaraLive contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/swaralive/swaralive

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/swaralive/swaralive/internal/metrics"
	"github.com/swaralive/swaralive/internal/models"
)

// InsertGuestSession stores a new guest and its owning session in one
// transaction. The guest row is immutable after this write.
func (db *DB) InsertGuestSession(ctx context.Context, session *models.ChatSession) error {
	start := time.Now()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		metrics.ObserveDBQuery("insert_guest_session", start, err)
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback() // no-op after commit
	}()

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO guest_users (id, name, city, country, created_at) VALUES (?, ?, ?, ?, ?)`,
		session.Guest.ID, session.Guest.Name, session.Guest.City, session.Guest.Country, session.CreatedAt,
	); err != nil {
		metrics.ObserveDBQuery("insert_guest_session", start, err)
		return fmt.Errorf("insert guest: %w", err)
	}

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO chat_sessions (id, guest_id, is_active, expires_at, created_at) VALUES (?, ?, ?, ?, ?)`,
		session.ID, session.Guest.ID, session.IsActive, session.ExpiresAt, session.CreatedAt,
	); err != nil {
		metrics.ObserveDBQuery("insert_guest_session", start, err)
		return fmt.Errorf("insert session: %w", err)
	}

	err = tx.Commit()
	metrics.ObserveDBQuery("insert_guest_session", start, err)
	if err != nil {
		return fmt.Errorf("commit session insert: %w", err)
	}
	return nil
}

// GetSessionByID returns the session joined with its guest, regardless of
// active/expired state. Returns ErrSessionNotFound when the row is absent.
// Liveness policy (expired or inactive treated as not found) is enforced by
// the session store on top of this raw read.
func (db *DB) GetSessionByID(ctx context.Context, id string) (*models.ChatSession, error) {
	start := time.Now()

	row := db.conn.QueryRowContext(ctx,
		`SELECT s.id, s.is_active, s.expires_at, s.created_at,
		        g.id, g.name, g.city, g.country
		   FROM chat_sessions s
		   JOIN guest_users g ON g.id = s.guest_id
		  WHERE s.id = ?`, id)

	var session models.ChatSession
	err := row.Scan(
		&session.ID, &session.IsActive, &session.ExpiresAt, &session.CreatedAt,
		&session.Guest.ID, &session.Guest.Name, &session.Guest.City, &session.Guest.Country,
	)
	metrics.ObserveDBQuery("get_session", start, err)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query session: %w", err)
	}
	return &session, nil
}

// DeactivateSession durably sets is_active to false. Idempotent: already
// inactive or missing sessions are not an error.
func (db *DB) DeactivateSession(ctx context.Context, id string) error {
	start := time.Now()

	_, err := db.conn.ExecContext(ctx,
		`UPDATE chat_sessions SET is_active = false WHERE id = ?`, id)
	metrics.ObserveDBQuery("deactivate_session", start, err)
	if err != nil {
		return fmt.Errorf("deactivate session: %w", err)
	}
	return nil
}

// CleanupExpiredSessions bulk-deactivates every still-active session whose
// expiry has passed and returns the count affected. Safe to run concurrently
// with itself: the conditional predicate never reactivates a session.
func (db *DB) CleanupExpiredSessions(ctx context.Context) (int64, error) {
	start := time.Now()

	result, err := db.conn.ExecContext(ctx,
		`UPDATE chat_sessions SET is_active = false
		  WHERE is_active = true AND expires_at < CURRENT_TIMESTAMP`)
	metrics.ObserveDBQuery("cleanup_sessions", start, err)
	if err != nil {
		return 0, fmt.Errorf("cleanup expired sessions: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("cleanup rows affected: %w", err)
	}
	return affected, nil
}
