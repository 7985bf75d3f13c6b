// SwaraLive - Realtime Livechat for Community Radio
// Copyright 2026 SwaraLive contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/swaralive/swaralive

package session

import (
	"context"
	"time"

	"github.com/swaralive/swaralive/internal/logging"
)

// DefaultSweepInterval is how often the sweeper deactivates expired sessions.
const DefaultSweepInterval = 10 * time.Minute

// Sweeper periodically deactivates expired sessions in the durable store.
// Supervised as a suture service; mirror entries need no sweeping because
// they expire on their own TTL.
type Sweeper struct {
	store    *Store
	interval time.Duration
}

// NewSweeper creates a sweeper. A non-positive interval falls back to
// DefaultSweepInterval.
func NewSweeper(store *Store, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &Sweeper{store: store, interval: interval}
}

// Serve implements suture.Service. It sweeps immediately on start, then on
// every tick until the context is canceled.
func (s *Sweeper) Serve(ctx context.Context) error {
	s.sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	swept, err := s.store.CleanupExpired(ctx)
	if err != nil {
		logging.Warn().Err(err).Msg("Session sweep failed")
		return
	}
	if swept > 0 {
		logging.Info().Int64("sessions", swept).Msg("Deactivated expired sessions")
	}
}

// String implements fmt.Stringer for supervisor logging.
func (s *Sweeper) String() string {
	return "session-sweeper"
}
