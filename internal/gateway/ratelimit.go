// SwaraLive - Realtime Livechat for Community Radio
// Copyright 2026 SwaraLive contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/swaralive/swaralive

package gateway

import (
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimits enforces the minimum interval between accepted messages per
// session. Each session gets a limiter replenishing one token per window;
// records are dropped when the owning connection closes.
type RateLimits struct {
	window   time.Duration
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewRateLimits creates a per-session rate limit registry.
func NewRateLimits(window time.Duration) *RateLimits {
	return &RateLimits{
		window:   window,
		limiters: make(map[string]*rate.Limiter),
	}
}

// Allow consumes the session's token if available. On rejection it returns
// the whole seconds the client must wait before retrying, and the rejected
// send does not consume a token.
func (r *RateLimits) Allow(sessionID string) (bool, int) {
	r.mu.Lock()
	limiter, ok := r.limiters[sessionID]
	if !ok {
		limiter = rate.NewLimiter(rate.Every(r.window), 1)
		r.limiters[sessionID] = limiter
	}
	r.mu.Unlock()

	reservation := limiter.Reserve()
	delay := reservation.Delay()
	if delay > 0 {
		reservation.Cancel()
		return false, int(math.Ceil(delay.Seconds()))
	}
	return true, 0
}

// Forget drops the session's rate-limit record.
func (r *RateLimits) Forget(sessionID string) {
	r.mu.Lock()
	delete(r.limiters, sessionID)
	r.mu.Unlock()
}

// Len returns the number of tracked sessions.
func (r *RateLimits) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.limiters)
}
