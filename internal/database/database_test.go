// SwaraLive - Realtime Livechat for Community Radio
// Copyright 2026 SwaraLive contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/swaralive/swaralive

package database

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/swaralive/swaralive/internal/config"
	"github.com/swaralive/swaralive/internal/logging"
	"github.com/swaralive/swaralive/internal/models"
)

//nolint:gochecknoinits // init ensures consistent logging for tests
func init() {
	logging.Init(logging.Config{
		Level:  "info",
		Format: "console",
		Output: io.Discard,
	})
}

// setupTestDB creates an in-memory DuckDB with the full schema applied.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := New(&config.DatabaseConfig{Path: "", MaxMemory: "256MB", Threads: 1})
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("Close() failed: %v", err)
		}
	})
	return db
}

// insertTestSession inserts a guest and session expiring in the given
// duration, returning the session.
func insertTestSession(t *testing.T, db *DB, ttl time.Duration) *models.ChatSession {
	t.Helper()

	now := time.Now().UTC()
	session := &models.ChatSession{
		ID: uuid.New(),
		Guest: models.GuestUser{
			ID:      uuid.New(),
			Name:    "Rudi",
			City:    "Bandung",
			Country: "Indonesia",
		},
		IsActive:  true,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}
	if err := db.InsertGuestSession(context.Background(), session); err != nil {
		t.Fatalf("InsertGuestSession() failed: %v", err)
	}
	return session
}

func TestNewDatabase(t *testing.T) {
	db := setupTestDB(t)

	if err := db.Ping(context.Background()); err != nil {
		t.Errorf("Ping() failed: %v", err)
	}
}

func TestInsertGuestSessionRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	session := insertTestSession(t, db, time.Hour)

	got, err := db.GetSessionByID(context.Background(), session.ID.String())
	if err != nil {
		t.Fatalf("GetSessionByID() failed: %v", err)
	}
	if got.ID != session.ID {
		t.Errorf("session ID = %s, want %s", got.ID, session.ID)
	}
	if got.Guest.Name != "Rudi" {
		t.Errorf("guest name = %q, want %q", got.Guest.Name, "Rudi")
	}
	if got.Guest.City != "Bandung" {
		t.Errorf("guest city = %q, want %q", got.Guest.City, "Bandung")
	}
	if !got.IsActive {
		t.Error("session should be active")
	}
	if !got.Usable() {
		t.Error("fresh session should be usable")
	}
}

func TestGetSessionByIDNotFound(t *testing.T) {
	db := setupTestDB(t)

	_, err := db.GetSessionByID(context.Background(), uuid.NewString())
	if !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("err = %v, want ErrSessionNotFound", err)
	}
}

func TestDeactivateSession(t *testing.T) {
	db := setupTestDB(t)
	session := insertTestSession(t, db, time.Hour)

	if err := db.DeactivateSession(context.Background(), session.ID.String()); err != nil {
		t.Fatalf("DeactivateSession() failed: %v", err)
	}

	got, err := db.GetSessionByID(context.Background(), session.ID.String())
	if err != nil {
		t.Fatalf("GetSessionByID() failed: %v", err)
	}
	if got.IsActive {
		t.Error("session should be inactive after deactivation")
	}
	if got.Usable() {
		t.Error("deactivated session should not be usable")
	}

	// Idempotent: deactivating again (or a missing ID) is not an error.
	if err := db.DeactivateSession(context.Background(), session.ID.String()); err != nil {
		t.Errorf("repeated DeactivateSession() failed: %v", err)
	}
	if err := db.DeactivateSession(context.Background(), uuid.NewString()); err != nil {
		t.Errorf("DeactivateSession() on missing ID failed: %v", err)
	}
}

func TestCleanupExpiredSessions(t *testing.T) {
	db := setupTestDB(t)

	expired := insertTestSession(t, db, -time.Minute)
	fresh := insertTestSession(t, db, time.Hour)

	affected, err := db.CleanupExpiredSessions(context.Background())
	if err != nil {
		t.Fatalf("CleanupExpiredSessions() failed: %v", err)
	}
	if affected != 1 {
		t.Errorf("affected = %d, want 1", affected)
	}

	got, err := db.GetSessionByID(context.Background(), expired.ID.String())
	if err != nil {
		t.Fatalf("GetSessionByID() failed: %v", err)
	}
	if got.IsActive {
		t.Error("expired session should be deactivated")
	}

	got, err = db.GetSessionByID(context.Background(), fresh.ID.String())
	if err != nil {
		t.Fatalf("GetSessionByID() failed: %v", err)
	}
	if !got.IsActive {
		t.Error("fresh session should remain active")
	}

	// Second run finds nothing to do.
	affected, err = db.CleanupExpiredSessions(context.Background())
	if err != nil {
		t.Fatalf("second CleanupExpiredSessions() failed: %v", err)
	}
	if affected != 0 {
		t.Errorf("second run affected = %d, want 0", affected)
	}
}
