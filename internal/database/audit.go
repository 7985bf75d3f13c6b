// SwaraLive - Realtime Livechat for Community Radio
// Copyright 2026 SwaraLive contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/swaralive/swaralive

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/swaralive/swaralive/internal/metrics"
	"github.com/swaralive/swaralive/internal/models"
)

// InsertAuditEvent appends one entry to the staff action audit trail. The
// caller assigns ID and Timestamp before insertion.
func (db *DB) InsertAuditEvent(ctx context.Context, ev *models.AuditEvent) error {
	start := time.Now()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO audit_log (id, event_type, outcome, actor_id, actor_name, actor_role,
		                        target_id, source_ip, detail, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.ID, string(ev.Type), string(ev.Outcome), ev.ActorID, ev.ActorName, ev.ActorRole,
		ev.TargetID, ev.SourceIP, ev.Detail, ev.Timestamp)
	metrics.ObserveDBQuery("insert_audit_event", start, err)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// GetAuditEvents returns audit entries newest first, plus the total count
// for pagination.
func (db *DB) GetAuditEvents(ctx context.Context, limit, offset int) ([]models.AuditEvent, int, error) {
	start := time.Now()

	var total int
	err := db.conn.QueryRowContext(ctx, `SELECT count(*) FROM audit_log`).Scan(&total)
	if err != nil {
		metrics.ObserveDBQuery("get_audit_events", start, err)
		return nil, 0, fmt.Errorf("count audit events: %w", err)
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, event_type, outcome, actor_id, actor_name, actor_role,
		        target_id, source_ip, detail, created_at
		   FROM audit_log
		  ORDER BY created_at DESC
		  LIMIT ? OFFSET ?`, limit, offset)
	metrics.ObserveDBQuery("get_audit_events", start, err)
	if err != nil {
		return nil, 0, fmt.Errorf("query audit events: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	events := make([]models.AuditEvent, 0, limit)
	for rows.Next() {
		var ev models.AuditEvent
		if err := rows.Scan(&ev.ID, &ev.Type, &ev.Outcome, &ev.ActorID, &ev.ActorName,
			&ev.ActorRole, &ev.TargetID, &ev.SourceIP, &ev.Detail, &ev.Timestamp); err != nil {
			return nil, 0, fmt.Errorf("scan audit event: %w", err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate audit events: %w", err)
	}

	return events, total, nil
}

// PurgeAuditEvents deletes entries older than the cutoff and reports how
// many were removed.
func (db *DB) PurgeAuditEvents(ctx context.Context, olderThan time.Time) (int64, error) {
	start := time.Now()

	res, err := db.conn.ExecContext(ctx,
		`DELETE FROM audit_log WHERE created_at < ?`, olderThan)
	metrics.ObserveDBQuery("purge_audit_events", start, err)
	if err != nil {
		return 0, fmt.Errorf("purge audit events: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purge audit events: %w", err)
	}
	return affected, nil
}
