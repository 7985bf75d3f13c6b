// SwaraLive - Realtime Livechat for Community Radio
// Copyright 2026 SwaraLive contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/swaralive/swaralive

package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/swaralive/swaralive/internal/config"
	"github.com/swaralive/swaralive/internal/models"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestManager(t *testing.T) *JWTManager {
	t.Helper()

	m, err := NewJWTManager(&config.SecurityConfig{
		JWTSecret:     testSecret,
		StaffTokenTTL: time.Hour,
	})
	if err != nil {
		t.Fatalf("NewJWTManager() failed: %v", err)
	}
	return m
}

func testSession(ttl time.Duration) *models.ChatSession {
	now := time.Now()
	return &models.ChatSession{
		ID:        uuid.New(),
		Guest:     models.GuestUser{ID: uuid.New(), Name: "Rudi", City: "Bandung"},
		IsActive:  true,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}
}

func TestNewJWTManagerRequiresSecret(t *testing.T) {
	_, err := NewJWTManager(&config.SecurityConfig{JWTSecret: ""})
	if err == nil {
		t.Fatal("NewJWTManager() should fail with empty secret")
	}
}

func TestSessionTokenRoundTrip(t *testing.T) {
	m := newTestManager(t)
	session := testSession(time.Hour)

	token, err := m.GenerateSessionToken(session)
	if err != nil {
		t.Fatalf("GenerateSessionToken() failed: %v", err)
	}

	claims, err := m.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken() failed: %v", err)
	}
	if claims.Kind != TokenKindSession {
		t.Errorf("kind = %s, want session", claims.Kind)
	}
	if claims.SessionID != session.ID.String() {
		t.Errorf("session ID = %q, want %q", claims.SessionID, session.ID)
	}
	if claims.GuestName != "Rudi" {
		t.Errorf("guest name = %q, want Rudi", claims.GuestName)
	}
	if claims.Role != "user" {
		t.Errorf("role = %q, want user", claims.Role)
	}
	if claims.Subject != session.Guest.ID.String() {
		t.Errorf("subject = %q, want guest ID", claims.Subject)
	}
	// Token expiry is bound to the session expiry.
	if got := claims.ExpiresAt.Time; got.Sub(session.ExpiresAt).Abs() > time.Second {
		t.Errorf("expiry = %s, want session expiry %s", got, session.ExpiresAt)
	}
}

func TestStaffTokenRoundTrip(t *testing.T) {
	m := newTestManager(t)
	staff := &models.StaffUser{
		ID:       uuid.New(),
		Username: "ayu",
		Name:     "Ayu Lestari",
		Role:     models.StaffRoleBroadcaster,
	}

	token, err := m.GenerateStaffToken(staff)
	if err != nil {
		t.Fatalf("GenerateStaffToken() failed: %v", err)
	}

	claims, err := m.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken() failed: %v", err)
	}
	if claims.Kind != TokenKindStaff {
		t.Errorf("kind = %s, want staff", claims.Kind)
	}
	if claims.Username != "ayu" {
		t.Errorf("username = %q, want ayu", claims.Username)
	}
	if claims.Role != models.StaffRoleBroadcaster {
		t.Errorf("role = %q, want broadcaster", claims.Role)
	}
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	m := newTestManager(t)
	session := testSession(-time.Minute)

	token, err := m.GenerateSessionToken(session)
	if err != nil {
		t.Fatalf("GenerateSessionToken() failed: %v", err)
	}

	if _, err := m.ValidateToken(token); err == nil {
		t.Error("ValidateToken() should reject an expired token")
	}
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	m := newTestManager(t)

	other, err := NewJWTManager(&config.SecurityConfig{
		JWTSecret:     strings.Repeat("x", 32),
		StaffTokenTTL: time.Hour,
	})
	if err != nil {
		t.Fatalf("NewJWTManager() failed: %v", err)
	}

	token, err := other.GenerateSessionToken(testSession(time.Hour))
	if err != nil {
		t.Fatalf("GenerateSessionToken() failed: %v", err)
	}

	if _, err := m.ValidateToken(token); err == nil {
		t.Error("ValidateToken() should reject a token signed with a different secret")
	}
}

func TestValidateTokenRejectsUnsignedAlgorithm(t *testing.T) {
	m := newTestManager(t)

	// alg=none tokens must never validate.
	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{Kind: TokenKindSession})
	token, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("SignedString() failed: %v", err)
	}

	if _, err := m.ValidateToken(token); err == nil {
		t.Error("ValidateToken() should reject alg=none tokens")
	}
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	m := newTestManager(t)

	for _, token := range []string{"", "not-a-token", "a.b.c"} {
		if _, err := m.ValidateToken(token); err == nil {
			t.Errorf("ValidateToken(%q) should fail", token)
		}
	}
}
