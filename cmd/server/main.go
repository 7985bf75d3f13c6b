// SwaraLive - Realtime Livechat for Community Radio
// Copyright 2026 SwaraLive contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/swaralive/swaralive

// Package main is the entry point for the SwaraLive server.
//
// SwaraLive is a self-hosted realtime livechat backend for community radio
// stations. Listeners join as named guest sessions and submit messages over
// WebSocket; station staff moderate the queue and approved messages appear
// on the public on-air feed.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: settings from environment variables and config files (Koanf v2)
//  2. Database: DuckDB durable store for sessions, messages, and staff
//  3. Session mirror: BadgerDB hot-path cache with TTL eviction
//  4. Relay: Watermill pub/sub (in-process GoChannel, or NATS JetStream)
//  5. Gateway: WebSocket hub, relay bridge, and chat protocol
//  6. HTTP server: REST API and the /livechat/ws endpoint
//
// All long-running components run under a Suture supervision tree split
// into a messaging layer and an api layer.
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest
// priority wins):
//   - Environment variables (SWARALIVE_ prefix)
//   - Config file (config.yaml, or SWARALIVE_CONFIG)
//   - Built-in defaults
//
// Minimum required setting:
//   - SWARALIVE_SECURITY_JWT_SECRET: 32+ character secret for token signing
//
// To seed the first staff account on an empty database:
//   - SWARALIVE_SECURITY_ADMIN_USERNAME
//   - SWARALIVE_SECURITY_ADMIN_PASSWORD (8+ characters)
//
// # Relay Transports
//
// By default the relay runs on an in-process Watermill GoChannel, which is
// sufficient for a single-node station. Setting SWARALIVE_RELAY_NATS_ENABLED
// switches to NATS JetStream; SWARALIVE_RELAY_NATS_EMBEDDED_SERVER starts
// an in-process broker so no external NATS deployment is needed.
//
// # Signal Handling
//
// The server handles graceful shutdown on SIGINT and SIGTERM:
//   - Stops accepting new connections
//   - Closes all WebSocket clients and waits for in-flight requests
//   - Closes the relay, session mirror, and database
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/swaralive/swaralive/internal/api"
	"github.com/swaralive/swaralive/internal/audit"
	"github.com/swaralive/swaralive/internal/auth"
	"github.com/swaralive/swaralive/internal/authz"
	"github.com/swaralive/swaralive/internal/cache"
	"github.com/swaralive/swaralive/internal/config"
	"github.com/swaralive/swaralive/internal/database"
	"github.com/swaralive/swaralive/internal/gateway"
	"github.com/swaralive/swaralive/internal/logging"
	"github.com/swaralive/swaralive/internal/models"
	"github.com/swaralive/swaralive/internal/moderation"
	"github.com/swaralive/swaralive/internal/relay"
	"github.com/swaralive/swaralive/internal/session"
	"github.com/swaralive/swaralive/internal/supervisor"
)

func main() {
	// Load configuration first to get logging settings
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().Msg("Starting SwaraLive with supervisor tree")
	logging.Info().
		Str("db_path", cfg.Database.Path).
		Str("badger_path", cfg.Badger.Path).
		Bool("nats_enabled", cfg.Relay.NATS.Enabled).
		Msg("Configuration loaded")

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()
	logging.Info().Msg("Database initialized successfully")

	mirror, err := session.OpenBadger(&cfg.Badger)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open session mirror")
	}
	defer func() {
		if err := mirror.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing session mirror")
		}
	}()

	jwtManager, err := auth.NewJWTManager(&cfg.Security)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize JWT manager")
	}

	sessions := session.NewStore(db, mirror, jwtManager, cfg.Security.SessionTTL)

	// Staff action audit trail. Nil when disabled; Log on a nil logger
	// is a no-op.
	auditLog := audit.NewLogger(db, cfg.Audit)
	defer auditLog.Close()

	// Context for graceful shutdown, canceled on SIGINT/SIGTERM.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := seedAdminAccount(ctx, db, cfg, auditLog); err != nil {
		logging.Fatal().Err(err).Msg("Failed to seed admin account")
	}

	// Optional embedded NATS broker. Started before the relay so the
	// relay can dial it.
	var embedded *relay.EmbeddedServer
	if cfg.Relay.NATS.Enabled && cfg.Relay.NATS.EmbeddedServer {
		embedded, err = relay.NewEmbeddedServer(&cfg.Relay.NATS)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to start embedded NATS server")
		}
		defer embedded.Shutdown()
		cfg.Relay.NATS.URL = embedded.ClientURL()
		logging.Info().Str("url", embedded.ClientURL()).Msg("Embedded NATS server started")
	}

	chatRelay, err := relay.NewFromConfig(&cfg.Relay)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize relay")
	}
	defer func() {
		if err := chatRelay.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing relay")
		}
	}()
	if cfg.Relay.NATS.Enabled {
		logging.Info().Str("url", cfg.Relay.NATS.URL).Msg("Relay running on NATS JetStream")
	} else {
		logging.Info().Msg("Relay running on in-process GoChannel transport")
	}

	feedCache := cache.New(cfg.API.CacheTTL)
	moderationSvc := moderation.NewService(db, sessions, chatRelay, feedCache)

	// Gateway: hub, chat protocol, relay bridge, and the WebSocket
	// handshake endpoint.
	hub := gateway.NewHub()
	limits := gateway.NewRateLimits(cfg.Chat.SendWindow)
	protocol := gateway.NewProtocol(db, chatRelay, limits, cfg.Chat.MinMessageLength, cfg.Chat.TestMode)
	bridge := gateway.NewBridge(chatRelay, hub)
	handshake := gateway.NewHandshake(jwtManager, sessions, db, hub, protocol)
	if cfg.Chat.TestMode {
		logging.Warn().Msg("Chat test mode enabled: new messages are not published to the admin topic")
	}

	enforcer, err := authz.NewEnforcer(nil)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize authorization enforcer")
	}

	handler := api.NewHandler(cfg, db, sessions, moderationSvc, jwtManager, enforcer, feedCache, auditLog)
	router := api.NewRouter(handler, handshake)

	if cfg.Security.RateLimitDisabled {
		logging.Warn().Msg("HTTP rate limiting is DISABLED")
	}

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	// Bridge zerolog to slog for sutureslog compatibility.
	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())

	tree.AddMessagingService(supervisor.NewHubService(hub))
	tree.AddMessagingService(bridge)
	tree.AddMessagingService(session.NewSweeper(sessions, cfg.Security.SessionSweepInterval))
	tree.AddAPIService(supervisor.NewHTTPServerService(server, 10*time.Second))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	// Drain until the supervisor has fully stopped.
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("Application stopped gracefully")
}

// seedAdminAccount creates the initial staff account when the staff table
// is empty and admin credentials are configured. Existing accounts are
// never modified.
func seedAdminAccount(ctx context.Context, db *database.DB, cfg *config.Config, auditLog *audit.Logger) error {
	if cfg.Security.AdminUsername == "" || cfg.Security.AdminPassword == "" {
		return nil
	}

	count, err := db.CountStaff(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := auth.HashPassword(cfg.Security.AdminPassword)
	if err != nil {
		return err
	}

	staff, err := db.CreateStaffUser(ctx, cfg.Security.AdminUsername, cfg.Security.AdminName, "admin", hash)
	if err != nil {
		return err
	}

	auditLog.Log(&models.AuditEvent{
		Type:      models.AuditStaffSeeded,
		Outcome:   models.AuditOutcomeSuccess,
		ActorID:   staff.ID.String(),
		ActorName: staff.Username,
		ActorRole: staff.Role,
	})

	logging.Info().
		Str("username", staff.Username).
		Msg("Seeded initial admin account")
	return nil
}
