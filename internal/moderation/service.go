// SwaraLive - Realtime Livechat for Community Radio
// Copyright 2026 SwaraLive contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/swaralive/swaralive

// Package moderation implements the single-shot moderation workflow: a
// pending message transitions to exactly one terminal status, with the
// decision's side effects fanned out through the relay.
package moderation

import (
	"context"
	"errors"
	"time"

	"github.com/swaralive/swaralive/internal/cache"
	"github.com/swaralive/swaralive/internal/database"
	"github.com/swaralive/swaralive/internal/logging"
	"github.com/swaralive/swaralive/internal/metrics"
	"github.com/swaralive/swaralive/internal/models"
	"github.com/swaralive/swaralive/internal/relay"
	"github.com/swaralive/swaralive/internal/session"
)

// Sentinel errors surfaced to the API layer.
var (
	ErrMessageNotFound  = database.ErrMessageNotFound
	ErrAlreadyModerated = database.ErrAlreadyModerated
	ErrInvalidAction    = errors.New("unrecognized moderation action")
	ErrNotModeratable   = errors.New("message is not subject to moderation")
)

// Service applies moderation decisions and their side effects.
type Service struct {
	db       *database.DB
	sessions *session.Store
	relay    *relay.Relay

	// feedCache is the approved-feed response cache, cleared whenever a
	// new message is approved.
	feedCache *cache.Cache
}

// NewService creates a moderation service.
func NewService(db *database.DB, sessions *session.Store, r *relay.Relay, feedCache *cache.Cache) *Service {
	return &Service{db: db, sessions: sessions, relay: r, feedCache: feedCache}
}

// Moderate transitions a pending message to the terminal status implied by
// the action and runs the decision's side effects:
//
//   - every decision is announced on the admin topic
//   - approve additionally publishes the message on the public topic
//   - block additionally invalidates the sender's session
//
// Relay publish failures are logged and swallowed: the durable store is the
// source of truth and the decision stands regardless of delivery. Concurrent
// decisions on the same message race on a conditional update; the loser gets
// ErrAlreadyModerated.
func (s *Service) Moderate(ctx context.Context, messageID string, action models.ModerationAction, moderator *models.StaffUser) (*models.ModeratedMessage, error) {
	status, ok := action.Status()
	if !ok {
		return nil, ErrInvalidAction
	}

	existing, err := s.db.GetChatMessageByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if existing.Sender != models.SenderUser {
		return nil, ErrNotModeratable
	}

	err = s.db.ModerateChatMessage(ctx, messageID, status, moderator.ID.String(), time.Now().UTC())
	if errors.Is(err, database.ErrAlreadyModerated) {
		metrics.ModerationConflicts.Inc()
		return nil, err
	}
	if err != nil {
		return nil, err
	}

	metrics.ModerationDecisions.WithLabelValues(string(action)).Inc()

	msg, err := s.db.GetModeratedMessage(ctx, messageID)
	if err != nil {
		return nil, err
	}

	s.announce(ctx, msg)

	switch status {
	case models.StatusApproved:
		s.publishApproved(ctx, msg)
	case models.StatusBlocked:
		if err := s.sessions.Invalidate(ctx, msg.SessionID.String(), session.CauseBlocked); err != nil {
			logging.Ctx(ctx).Error().Err(err).
				Str("session_id", msg.SessionID.String()).
				Msg("Failed to invalidate blocked session")
		}
	}

	return msg, nil
}

// announce publishes the decision on the admin topic.
func (s *Service) announce(ctx context.Context, msg *models.ModeratedMessage) {
	err := s.relay.PublishAdmin(ctx, relay.EventMessageModerated, relay.ModeratedEvent{
		MessageID: msg.ID.String(),
		Status:    msg.Status,
		Message:   *msg,
	})
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).
			Str("message_id", msg.ID.String()).
			Msg("Failed to publish moderation event")
	}
}

// publishApproved pushes the approved message to public consumers and
// clears the approved-feed cache.
func (s *Service) publishApproved(ctx context.Context, msg *models.ModeratedMessage) {
	approved := relay.ApprovedEvent{
		Message: models.ApprovedMessage{
			ID:          msg.ID,
			Text:        msg.Text,
			GuestName:   msg.GuestName,
			GuestCity:   msg.GuestCity,
			CreatedAt:   msg.CreatedAt,
			ModeratedAt: msg.ModeratedAt,
		},
	}
	if err := s.relay.PublishPublic(ctx, relay.EventMessageApproved, approved); err != nil {
		logging.Ctx(ctx).Error().Err(err).
			Str("message_id", msg.ID.String()).
			Msg("Failed to publish approved message")
	}

	if s.feedCache != nil {
		s.feedCache.Clear()
	}
}
