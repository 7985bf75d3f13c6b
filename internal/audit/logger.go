// SwaraLive - Realtime Livechat for Community Radio
// Copyright 2026 SwaraLive contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/swaralive/swaralive

// Package audit records a staff action trail: logins, login failures and
// moderation decisions. Entries are buffered and written asynchronously so
// the request path never waits on the durable store; a retention sweep
// removes old entries on a configurable cadence.
package audit

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/swaralive/swaralive/internal/config"
	"github.com/swaralive/swaralive/internal/logging"
	"github.com/swaralive/swaralive/internal/models"
)

// Store is the persistence surface the logger writes through.
type Store interface {
	InsertAuditEvent(ctx context.Context, ev *models.AuditEvent) error
	PurgeAuditEvents(ctx context.Context, olderThan time.Time) (int64, error)
}

// writeTimeout bounds a single store write from the async writer.
const writeTimeout = 5 * time.Second

// Logger buffers audit events and persists them in the background. A nil
// Logger is valid and drops everything, so callers never need to guard.
type Logger struct {
	cfg    config.AuditConfig
	store  Store
	events chan *models.AuditEvent
	stop   chan struct{}
	wg     sync.WaitGroup
	once   sync.Once
}

// NewLogger starts the async writer. Returns nil when auditing is disabled.
func NewLogger(store Store, cfg config.AuditConfig) *Logger {
	if !cfg.Enabled {
		return nil
	}

	l := &Logger{
		cfg:    cfg,
		store:  store,
		events: make(chan *models.AuditEvent, cfg.BufferSize),
		stop:   make(chan struct{}),
	}

	l.wg.Add(1)
	go l.writer()
	return l
}

// Log queues one event for persistence. ID and timestamp are assigned here
// so callers only describe the action. Events are dropped with a warning
// when the buffer is full.
func (l *Logger) Log(ev *models.AuditEvent) {
	if l == nil {
		return
	}
	if ev.ID == uuid.Nil {
		ev.ID = uuid.New()
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}

	select {
	case l.events <- ev:
	default:
		logging.Warn().
			Str("event_type", string(ev.Type)).
			Msg("Audit buffer full, dropping event")
	}
}

// Close drains the buffer and stops the writer. Safe to call more than once.
func (l *Logger) Close() {
	if l == nil {
		return
	}
	l.once.Do(func() {
		close(l.stop)
		l.wg.Wait()
	})
}

func (l *Logger) writer() {
	defer l.wg.Done()

	var retention *time.Ticker
	if l.cfg.RetentionDays > 0 && l.cfg.CleanupInterval > 0 {
		retention = time.NewTicker(l.cfg.CleanupInterval)
		defer retention.Stop()
	} else {
		retention = time.NewTicker(time.Hour)
		retention.Stop()
	}

	for {
		select {
		case <-l.stop:
			for {
				select {
				case ev := <-l.events:
					l.write(ev)
				default:
					return
				}
			}
		case ev := <-l.events:
			l.write(ev)
		case <-retention.C:
			l.purge()
		}
	}
}

func (l *Logger) write(ev *models.AuditEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	if err := l.store.InsertAuditEvent(ctx, ev); err != nil {
		logging.Error().Err(err).
			Str("event_type", string(ev.Type)).
			Msg("Failed to persist audit event")
	}
}

func (l *Logger) purge() {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	cutoff := time.Now().AddDate(0, 0, -l.cfg.RetentionDays)
	removed, err := l.store.PurgeAuditEvents(ctx, cutoff)
	if err != nil {
		logging.Error().Err(err).Msg("Audit retention cleanup failed")
		return
	}
	if removed > 0 {
		logging.Info().Int64("removed", removed).Msg("Audit retention cleanup completed")
	}
}

// LoginSucceeded describes a successful staff login.
func LoginSucceeded(staff *models.StaffUser, sourceIP string) *models.AuditEvent {
	return &models.AuditEvent{
		Type:      models.AuditLoginSucceeded,
		Outcome:   models.AuditOutcomeSuccess,
		ActorID:   staff.ID.String(),
		ActorName: staff.Username,
		ActorRole: staff.Role,
		SourceIP:  sourceIP,
	}
}

// LoginFailed describes a rejected login attempt. Only the claimed username
// is recorded.
func LoginFailed(username, sourceIP string) *models.AuditEvent {
	return &models.AuditEvent{
		Type:      models.AuditLoginFailed,
		Outcome:   models.AuditOutcomeFailure,
		ActorName: username,
		SourceIP:  sourceIP,
	}
}

// Moderated describes a moderation decision on a message.
func Moderated(action models.ModerationAction, messageID string, staff *models.StaffUser, sourceIP string) *models.AuditEvent {
	var eventType models.AuditEventType
	switch action {
	case models.ActionApprove:
		eventType = models.AuditMessageApproved
	case models.ActionReject:
		eventType = models.AuditMessageRejected
	case models.ActionBlock:
		eventType = models.AuditMessageBlocked
	}

	return &models.AuditEvent{
		Type:      eventType,
		Outcome:   models.AuditOutcomeSuccess,
		ActorID:   staff.ID.String(),
		ActorName: staff.Username,
		ActorRole: staff.Role,
		TargetID:  messageID,
		SourceIP:  sourceIP,
		Detail:    string(action),
	}
}
