// SwaraLive - Realtime Livechat for Community Radio
// Copyright 2026 SwaraLive contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/swaralive/swaralive

// Package auth issues and validates the signed tokens that gate chat access:
// bounded-lifetime session tokens for guests and login tokens for staff.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/swaralive/swaralive/internal/config"
	"github.com/swaralive/swaralive/internal/models"
)

// TokenKind distinguishes the two token families the gateway accepts.
type TokenKind string

const (
	// TokenKindSession is a guest chat session token. Its lifetime equals
	// the session's remaining lifetime, so an expired token can never
	// outlive its session.
	TokenKindSession TokenKind = "session"

	// TokenKindStaff is a staff login token carrying the staff role.
	TokenKindStaff TokenKind = "staff"
)

// Claims are the JWT claims carried by both token families. SessionID and
// GuestName are set only for session tokens; Username only for staff tokens.
type Claims struct {
	Kind      TokenKind `json:"kind"`
	SessionID string    `json:"sessionId,omitempty"`
	GuestName string    `json:"guestName,omitempty"`
	Username  string    `json:"username,omitempty"`
	Role      string    `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// JWTManager creates and validates HMAC-SHA256 signed tokens.
//
// The secret must be at least 32 characters; config validation enforces
// this before the manager is constructed. Tokens are stateless: session
// revocation is handled by the session store, not by the token itself.
type JWTManager struct {
	secret        []byte
	staffTokenTTL time.Duration
}

// NewJWTManager creates a token manager from the security configuration.
func NewJWTManager(cfg *config.SecurityConfig) (*JWTManager, error) {
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT secret is required but was empty")
	}

	return &JWTManager{
		secret:        []byte(cfg.JWTSecret),
		staffTokenTTL: cfg.StaffTokenTTL,
	}, nil
}

// GenerateSessionToken signs a guest session token whose expiry matches the
// session's own expiry.
func (m *JWTManager) GenerateSessionToken(session *models.ChatSession) (string, error) {
	now := time.Now()
	claims := &Claims{
		Kind:      TokenKindSession,
		SessionID: session.ID.String(),
		GuestName: session.Guest.Name,
		Role:      "user",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   session.Guest.ID.String(),
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, nil
}

// GenerateStaffToken signs a staff login token carrying the staff role.
func (m *JWTManager) GenerateStaffToken(staff *models.StaffUser) (string, error) {
	now := time.Now()
	claims := &Claims{
		Kind:     TokenKindStaff,
		Username: staff.Username,
		Role:     staff.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   staff.ID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.staffTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign staff token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses and validates a token string. It rejects tokens
// signed with an unexpected algorithm to prevent algorithm confusion.
func (m *JWTManager) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}
