// SwaraLive - Realtime Livechat for Community Radio
// Copyright 2026 SwaraLive contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/swaralive/swaralive

package database

import (
	"context"
	"fmt"
)

// schemaStatements create the livechat tables. Statements are idempotent so
// startup is safe against an existing database file.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS guest_users (
		id UUID PRIMARY KEY,
		name VARCHAR NOT NULL,
		city VARCHAR DEFAULT '',
		country VARCHAR DEFAULT '',
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,

	`CREATE TABLE IF NOT EXISTS chat_sessions (
		id UUID PRIMARY KEY,
		guest_id UUID NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT true,
		expires_at TIMESTAMP NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,

	`CREATE TABLE IF NOT EXISTS chat_messages (
		id UUID PRIMARY KEY,
		session_id UUID NOT NULL,
		text VARCHAR NOT NULL,
		sender VARCHAR NOT NULL,
		status VARCHAR NOT NULL DEFAULT 'pending',
		moderator_id VARCHAR DEFAULT '',
		moderated_at TIMESTAMP,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,

	`CREATE TABLE IF NOT EXISTS staff_users (
		id UUID PRIMARY KEY,
		username VARCHAR NOT NULL UNIQUE,
		name VARCHAR NOT NULL,
		role VARCHAR NOT NULL,
		password_hash VARCHAR NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,

	`CREATE TABLE IF NOT EXISTS audit_log (
		id UUID PRIMARY KEY,
		event_type VARCHAR NOT NULL,
		outcome VARCHAR NOT NULL,
		actor_id VARCHAR DEFAULT '',
		actor_name VARCHAR DEFAULT '',
		actor_role VARCHAR DEFAULT '',
		target_id VARCHAR DEFAULT '',
		source_ip VARCHAR DEFAULT '',
		detail VARCHAR DEFAULT '',
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,

	`CREATE INDEX IF NOT EXISTS idx_sessions_expiry
		ON chat_sessions (is_active, expires_at)`,

	`CREATE INDEX IF NOT EXISTS idx_messages_status_created
		ON chat_messages (status, created_at)`,

	`CREATE INDEX IF NOT EXISTS idx_messages_session
		ON chat_messages (session_id)`,

	`CREATE INDEX IF NOT EXISTS idx_audit_created
		ON audit_log (created_at)`,
}

// initSchema creates all tables and indexes.
func (db *DB) initSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement failed: %w", err)
		}
	}
	return nil
}
