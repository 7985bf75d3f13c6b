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

	"github.com/google/uuid"

	"github.com/swaralive/swaralive/internal/metrics"
	"github.com/swaralive/swaralive/internal/models"
)

// InsertChatMessage stores a new chat message. User messages are written
// with status pending; admin messages are recorded with the same default
// status but never enter the moderation queue (delivery for admin messages
// bypasses the status field entirely).
func (db *DB) InsertChatMessage(ctx context.Context, sessionID uuid.UUID, text string, sender models.SenderKind) (*models.ChatMessage, error) {
	start := time.Now()

	msg := &models.ChatMessage{
		ID:        uuid.New(),
		SessionID: sessionID,
		Text:      text,
		Sender:    sender,
		Status:    models.StatusPending,
		CreatedAt: time.Now().UTC(),
	}

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO chat_messages (id, session_id, text, sender, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		msg.ID, msg.SessionID, msg.Text, string(msg.Sender), string(msg.Status), msg.CreatedAt,
	)
	metrics.ObserveDBQuery("insert_message", start, err)
	if err != nil {
		return nil, fmt.Errorf("insert chat message: %w", err)
	}
	return msg, nil
}

// GetChatMessageByID returns a single message, or ErrMessageNotFound.
func (db *DB) GetChatMessageByID(ctx context.Context, id string) (*models.ChatMessage, error) {
	start := time.Now()

	row := db.conn.QueryRowContext(ctx,
		`SELECT id, session_id, text, sender, status, moderator_id, moderated_at, created_at
		   FROM chat_messages WHERE id = ?`, id)

	msg, err := scanMessage(row)
	metrics.ObserveDBQuery("get_message", start, err)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMessageNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query chat message: %w", err)
	}
	return msg, nil
}

// GetApprovedMessages returns approved messages newest-decision-first,
// enriched with the originating guest's display name and city, plus the
// total approved count for pagination.
func (db *DB) GetApprovedMessages(ctx context.Context, limit, offset int) ([]models.ApprovedMessage, int, error) {
	start := time.Now()

	var total int
	err := db.conn.QueryRowContext(ctx,
		`SELECT count(*) FROM chat_messages WHERE status = 'approved'`).Scan(&total)
	if err != nil {
		metrics.ObserveDBQuery("get_approved_messages", start, err)
		return nil, 0, fmt.Errorf("count approved messages: %w", err)
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT m.id, m.text, g.name, g.city, m.created_at, m.moderated_at
		   FROM chat_messages m
		   JOIN chat_sessions s ON s.id = m.session_id
		   JOIN guest_users g ON g.id = s.guest_id
		  WHERE m.status = 'approved'
		  ORDER BY m.moderated_at DESC
		  LIMIT ? OFFSET ?`, limit, offset)
	metrics.ObserveDBQuery("get_approved_messages", start, err)
	if err != nil {
		return nil, 0, fmt.Errorf("query approved messages: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	messages := make([]models.ApprovedMessage, 0, limit)
	for rows.Next() {
		var m models.ApprovedMessage
		var moderatedAt sql.NullTime
		if err := rows.Scan(&m.ID, &m.Text, &m.GuestName, &m.GuestCity, &m.CreatedAt, &moderatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan approved message: %w", err)
		}
		if moderatedAt.Valid {
			t := moderatedAt.Time
			m.ModeratedAt = &t
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate approved messages: %w", err)
	}

	return messages, total, nil
}

// GetPendingMessages returns pending user messages oldest-first, joined with
// the guest for the moderator dashboard. Oldest-first keeps the moderation
// queue fair.
func (db *DB) GetPendingMessages(ctx context.Context, limit, offset int) ([]models.ModeratedMessage, error) {
	start := time.Now()

	rows, err := db.conn.QueryContext(ctx,
		`SELECT m.id, m.session_id, m.text, m.sender, m.status, m.moderator_id, m.moderated_at, m.created_at,
		        g.name, g.city
		   FROM chat_messages m
		   JOIN chat_sessions s ON s.id = m.session_id
		   JOIN guest_users g ON g.id = s.guest_id
		  WHERE m.status = 'pending' AND m.sender = 'user'
		  ORDER BY m.created_at ASC
		  LIMIT ? OFFSET ?`, limit, offset)
	metrics.ObserveDBQuery("get_pending_messages", start, err)
	if err != nil {
		return nil, fmt.Errorf("query pending messages: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	messages := make([]models.ModeratedMessage, 0, limit)
	for rows.Next() {
		var m models.ModeratedMessage
		var moderatedAt sql.NullTime
		var moderatorID sql.NullString
		if err := rows.Scan(
			&m.ID, &m.SessionID, &m.Text, &m.Sender, &m.Status, &moderatorID, &moderatedAt, &m.CreatedAt,
			&m.GuestName, &m.GuestCity,
		); err != nil {
			return nil, fmt.Errorf("scan pending message: %w", err)
		}
		if moderatorID.Valid {
			m.ModeratorID = moderatorID.String
		}
		if moderatedAt.Valid {
			t := moderatedAt.Time
			m.ModeratedAt = &t
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending messages: %w", err)
	}

	return messages, nil
}

// ModerateChatMessage applies the pending -> terminal transition. The update
// is conditional on status='pending' so two concurrent moderators cannot
// both succeed: the loser sees zero rows affected and gets
// ErrAlreadyModerated (or ErrMessageNotFound when the row never existed).
func (db *DB) ModerateChatMessage(ctx context.Context, id string, status models.ModerationStatus, moderatorID string, moderatedAt time.Time) error {
	start := time.Now()

	result, err := db.conn.ExecContext(ctx,
		`UPDATE chat_messages
		    SET status = ?, moderator_id = ?, moderated_at = ?
		  WHERE id = ? AND status = 'pending'`,
		string(status), moderatorID, moderatedAt, id)
	metrics.ObserveDBQuery("moderate_message", start, err)
	if err != nil {
		return fmt.Errorf("moderate chat message: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("moderate rows affected: %w", err)
	}
	if affected == 1 {
		return nil
	}

	// Zero rows: distinguish missing from already moderated.
	if _, err := db.GetChatMessageByID(ctx, id); err != nil {
		return err
	}
	return ErrAlreadyModerated
}

// GetModeratedMessage returns a message joined with its guest, used to
// render the moderation result.
func (db *DB) GetModeratedMessage(ctx context.Context, id string) (*models.ModeratedMessage, error) {
	start := time.Now()

	row := db.conn.QueryRowContext(ctx,
		`SELECT m.id, m.session_id, m.text, m.sender, m.status, m.moderator_id, m.moderated_at, m.created_at,
		        g.name, g.city
		   FROM chat_messages m
		   JOIN chat_sessions s ON s.id = m.session_id
		   JOIN guest_users g ON g.id = s.guest_id
		  WHERE m.id = ?`, id)

	var m models.ModeratedMessage
	var moderatedAt sql.NullTime
	var moderatorID sql.NullString
	err := row.Scan(
		&m.ID, &m.SessionID, &m.Text, &m.Sender, &m.Status, &moderatorID, &moderatedAt, &m.CreatedAt,
		&m.GuestName, &m.GuestCity,
	)
	metrics.ObserveDBQuery("get_moderated_message", start, err)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMessageNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query moderated message: %w", err)
	}
	if moderatorID.Valid {
		m.ModeratorID = moderatorID.String
	}
	if moderatedAt.Valid {
		t := moderatedAt.Time
		m.ModeratedAt = &t
	}
	return &m, nil
}

// rowScanner abstracts sql.Row and sql.Rows for scanMessage.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanMessage(row rowScanner) (*models.ChatMessage, error) {
	var m models.ChatMessage
	var moderatedAt sql.NullTime
	var moderatorID sql.NullString

	err := row.Scan(&m.ID, &m.SessionID, &m.Text, &m.Sender, &m.Status, &moderatorID, &moderatedAt, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	if moderatorID.Valid {
		m.ModeratorID = moderatorID.String
	}
	if moderatedAt.Valid {
		t := moderatedAt.Time
		m.ModeratedAt = &t
	}
	return &m, nil
}
