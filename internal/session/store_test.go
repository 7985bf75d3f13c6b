// SwaraLive - Realtime Livechat for Community Radio
// Copyright 2026 SwaraLive contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/swaralive/swaralive

package session

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/swaralive/swaralive/internal/auth"
	"github.com/swaralive/swaralive/internal/config"
	"github.com/swaralive/swaralive/internal/database"
	"github.com/swaralive/swaralive/internal/logging"
)

//nolint:gochecknoinits // init ensures consistent logging for tests
func init() {
	logging.Init(logging.Config{
		Level:  "info",
		Format: "console",
		Output: io.Discard,
	})
}

func setupTestStore(t *testing.T, ttl time.Duration) (*Store, *database.DB, *badger.DB) {
	t.Helper()

	db, err := database.New(&config.DatabaseConfig{MaxMemory: "256MB", Threads: 1})
	if err != nil {
		t.Fatalf("database.New() failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	mirror, err := OpenBadger(&config.BadgerConfig{InMemory: true})
	if err != nil {
		t.Fatalf("OpenBadger() failed: %v", err)
	}
	t.Cleanup(func() { _ = mirror.Close() })

	jwt, err := auth.NewJWTManager(&config.SecurityConfig{
		JWTSecret:     "0123456789abcdef0123456789abcdef",
		StaffTokenTTL: time.Hour,
	})
	if err != nil {
		t.Fatalf("auth.NewJWTManager() failed: %v", err)
	}

	return NewStore(db, mirror, jwt, ttl), db, mirror
}

func TestCreateAndFind(t *testing.T) {
	store, _, _ := setupTestStore(t, time.Hour)
	ctx := context.Background()

	session, token, err := store.Create(ctx, "Rudi", "Bandung", "Indonesia")
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	if token == "" {
		t.Error("Create() should mint a session token")
	}
	if !session.Usable() {
		t.Error("fresh session should be usable")
	}
	if session.ExpiresAt.Sub(session.CreatedAt) != time.Hour {
		t.Errorf("session lifetime = %s, want 1h", session.ExpiresAt.Sub(session.CreatedAt))
	}

	got, err := store.Find(ctx, session.ID.String())
	if err != nil {
		t.Fatalf("Find() failed: %v", err)
	}
	if got.ID != session.ID {
		t.Errorf("ID = %s, want %s", got.ID, session.ID)
	}
	if got.Guest.Name != "Rudi" {
		t.Errorf("guest name = %q, want Rudi", got.Guest.Name)
	}
}

func TestFindFallsBackToDatabase(t *testing.T) {
	store, _, mirror := setupTestStore(t, time.Hour)
	ctx := context.Background()

	session, _, err := store.Create(ctx, "Rudi", "", "")
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	// Drop the mirror entry; the durable row must still resolve.
	err = mirror.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(mirrorKeyPrefix + session.ID.String()))
	})
	if err != nil {
		t.Fatalf("mirror delete failed: %v", err)
	}

	got, err := store.Find(ctx, session.ID.String())
	if err != nil {
		t.Fatalf("Find() after mirror eviction failed: %v", err)
	}
	if got.ID != session.ID {
		t.Errorf("ID = %s, want %s", got.ID, session.ID)
	}

	// The lookup backfills the mirror.
	if _, err := store.mirrorGet(session.ID.String()); err != nil {
		t.Errorf("mirror should be backfilled after fallback: %v", err)
	}
}

func TestFindNotFound(t *testing.T) {
	store, _, _ := setupTestStore(t, time.Hour)

	_, err := store.Find(context.Background(), uuid.NewString())
	if !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("err = %v, want ErrSessionNotFound", err)
	}
}

func TestInvalidate(t *testing.T) {
	store, _, _ := setupTestStore(t, time.Hour)
	ctx := context.Background()

	session, _, err := store.Create(ctx, "Rudi", "", "")
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	if err := store.Invalidate(ctx, session.ID.String(), CauseBlocked); err != nil {
		t.Fatalf("Invalidate() failed: %v", err)
	}

	_, err = store.Find(ctx, session.ID.String())
	if !errors.Is(err, ErrSessionUnusable) {
		t.Errorf("err = %v, want ErrSessionUnusable", err)
	}

	// Idempotent.
	if err := store.Invalidate(ctx, session.ID.String(), CauseExplicit); err != nil {
		t.Errorf("repeated Invalidate() failed: %v", err)
	}
}

func TestExpiredSessionUnusable(t *testing.T) {
	store, _, _ := setupTestStore(t, 50*time.Millisecond)
	ctx := context.Background()

	session, _, err := store.Create(ctx, "Rudi", "", "")
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	time.Sleep(80 * time.Millisecond)

	_, err = store.Find(ctx, session.ID.String())
	if !errors.Is(err, ErrSessionUnusable) {
		t.Errorf("err = %v, want ErrSessionUnusable for expired session", err)
	}
}

func TestCleanupExpired(t *testing.T) {
	store, _, _ := setupTestStore(t, 50*time.Millisecond)
	ctx := context.Background()

	if _, _, err := store.Create(ctx, "Rudi", "", ""); err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	if _, _, err := store.Create(ctx, "Sari", "", ""); err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	time.Sleep(80 * time.Millisecond)

	swept, err := store.CleanupExpired(ctx)
	if err != nil {
		t.Fatalf("CleanupExpired() failed: %v", err)
	}
	if swept != 2 {
		t.Errorf("swept = %d, want 2", swept)
	}
}
