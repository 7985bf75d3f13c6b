// SwaraLive - Realtime Livechat for Community Radio
// Copyright 2026 SwaraLive contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/swaralive/swaralive

// Package metrics provides Prometheus instrumentation for the livechat core:
// gateway connections and frames, the moderation pipeline, relay publishes,
// and durable store queries.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Gateway metrics
	GatewayConnections = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "livechat_gateway_connections",
			Help: "Current number of live websocket connections by role",
		},
		[]string{"role"}, // "user", "moderator", "broadcaster"
	)

	GatewayFramesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "livechat_gateway_frames_total",
			Help: "Total inbound websocket frames by event type",
		},
		[]string{"event"},
	)

	GatewayRejectedSends = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "livechat_gateway_rejected_sends_total",
			Help: "Total rejected message:send frames by reason",
		},
		[]string{"reason"}, // "rate_limit", "too_short", "invalid_payload", "store_error"
	)

	GatewayHandshakeFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "livechat_gateway_handshake_failures_total",
			Help: "Total rejected websocket upgrades by HTTP status",
		},
		[]string{"status"},
	)

	// Moderation metrics
	ModerationDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "livechat_moderation_decisions_total",
			Help: "Total moderation decisions by action",
		},
		[]string{"action"}, // "approve", "reject", "block"
	)

	ModerationConflicts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "livechat_moderation_conflicts_total",
			Help: "Total moderation attempts rejected because the message was already moderated",
		},
	)

	// Relay metrics
	RelayPublishesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "livechat_relay_publishes_total",
			Help: "Total relay publishes by topic and outcome",
		},
		[]string{"topic", "outcome"}, // outcome: "ok", "error"
	)

	RelayFanoutTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "livechat_relay_fanout_total",
			Help: "Total relay events fanned out to staff connections by event type",
		},
		[]string{"event"},
	)

	// Session metrics
	SessionsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "livechat_sessions_created_total",
			Help: "Total guest sessions created",
		},
	)

	SessionsInvalidated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "livechat_sessions_invalidated_total",
			Help: "Total sessions invalidated by cause",
		},
		[]string{"cause"}, // "explicit", "blocked", "expired_sweep"
	)

	SessionCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "livechat_session_cache_lookups_total",
			Help: "Session mirror lookups by result",
		},
		[]string{"result"}, // "hit", "miss"
	)

	// Database metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "livechat_db_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "livechat_db_query_errors_total",
			Help: "Total DuckDB query errors",
		},
		[]string{"operation"},
	)

	// HTTP metrics
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "livechat_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "livechat_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)
)

// ObserveDBQuery records a database query duration and, when err is non-nil,
// an error for the operation.
func ObserveDBQuery(operation string, start time.Time, err error) {
	DBQueryDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation).Inc()
	}
}

// ObserveHTTPRequest records one HTTP request observation.
func ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	code := strconv.Itoa(status)
	HTTPRequestDuration.WithLabelValues(method, path, code).Observe(duration.Seconds())
	HTTPRequestsTotal.WithLabelValues(method, path, code).Inc()
}
