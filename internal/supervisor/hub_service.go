// SwaraLive - Realtime Livechat for Community Radio
// Copyright 2026 SwaraLive contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/swaralive/swaralive

package supervisor

import (
	"context"
)

// ContextHub matches the gateway hub's RunWithContext method without
// importing the gateway package.
type ContextHub interface {
	RunWithContext(ctx context.Context) error
}

// HubService wraps the gateway hub as a supervised service.
type HubService struct {
	hub ContextHub
}

// NewHubService creates a supervised wrapper around the gateway hub.
func NewHubService(hub ContextHub) *HubService {
	return &HubService{hub: hub}
}

// Serve implements suture.Service by delegating to the hub's run loop.
func (h *HubService) Serve(ctx context.Context) error {
	return h.hub.RunWithContext(ctx)
}

// String implements fmt.Stringer for supervisor logging.
func (h *HubService) String() string {
	return "gateway-hub"
}
