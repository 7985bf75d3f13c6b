// SwaraLive - Realtime Livechat for Community Radio
// Copyright 2026 SwaraLive contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/swaralive/swaralive

// Package config provides layered configuration for the livechat core.
//
// Loading order (Koanf v2): built-in defaults, then an optional YAML config
// file, then SWARALIVE_-prefixed environment variables. ENV > file > defaults.
// Config is immutable after Load() and safe for concurrent reads.
package config

import (
	"fmt"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Badger   BadgerConfig   `koanf:"badger"`
	Security SecurityConfig `koanf:"security"`
	Chat     ChatConfig     `koanf:"chat"`
	Relay    RelayConfig    `koanf:"relay"`
	API      APIConfig      `koanf:"api"`
	Audit    AuditConfig    `koanf:"audit"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host        string        `koanf:"host"`
	Port        int           `koanf:"port"`
	Timeout     time.Duration `koanf:"timeout"`
	Environment string        `koanf:"environment"`
}

// Addr returns the host:port listen address.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DatabaseConfig holds DuckDB settings for the durable store.
// Path may be empty for an in-memory database (tests).
type DatabaseConfig struct {
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads"`
}

// BadgerConfig holds settings for the BadgerDB session mirror.
type BadgerConfig struct {
	Path     string `koanf:"path"`
	InMemory bool   `koanf:"in_memory"`
}

// SecurityConfig holds credential and HTTP rate limiting settings.
type SecurityConfig struct {
	// JWTSecret signs both guest session credentials and staff credentials.
	// Minimum 32 characters.
	JWTSecret string `koanf:"jwt_secret"`

	// SessionTTL is the guest session lifetime (default 24h).
	SessionTTL time.Duration `koanf:"session_ttl"`

	// StaffTokenTTL is the staff credential lifetime.
	StaffTokenTTL time.Duration `koanf:"staff_token_ttl"`

	// SessionSweepInterval controls how often expired sessions are
	// deactivated in the background.
	SessionSweepInterval time.Duration `koanf:"session_sweep_interval"`

	// AdminUsername/AdminPassword seed the first staff account on startup
	// when the staff table is empty. Both must be set for seeding to run.
	AdminUsername string `koanf:"admin_username"`
	AdminPassword string `koanf:"admin_password"`
	AdminName     string `koanf:"admin_name"`

	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// ChatConfig holds livechat protocol settings.
type ChatConfig struct {
	// MinMessageLength is the minimum trimmed length of a chat message.
	MinMessageLength int `koanf:"min_message_length"`

	// SendWindow is the minimum interval between two accepted messages
	// from the same session.
	SendWindow time.Duration `koanf:"send_window"`

	// TestMode suppresses admin-topic publication of new messages and is
	// only meant for deterministic protocol tests.
	TestMode bool `koanf:"test_mode"`
}

// RelayConfig holds pub/sub relay settings. With NATS disabled the relay
// runs on an in-process Watermill GoChannel transport.
type RelayConfig struct {
	AdminTopic  string     `koanf:"admin_topic"`
	PublicTopic string     `koanf:"public_topic"`
	NATS        NATSConfig `koanf:"nats"`
}

// NATSConfig holds settings for the optional NATS JetStream transport.
type NATSConfig struct {
	Enabled        bool          `koanf:"enabled"`
	URL            string        `koanf:"url"`
	EmbeddedServer bool          `koanf:"embedded_server"`
	StoreDir       string        `koanf:"store_dir"`
	MaxReconnects  int           `koanf:"max_reconnects"`
	ReconnectWait  time.Duration `koanf:"reconnect_wait"`
}

// APIConfig holds pagination and response cache settings.
type APIConfig struct {
	DefaultPageSize int           `koanf:"default_page_size"`
	MaxPageSize     int           `koanf:"max_page_size"`
	CacheTTL        time.Duration `koanf:"cache_ttl"`
}

// AuditConfig holds staff action audit trail settings.
type AuditConfig struct {
	// Enabled controls whether staff actions are recorded.
	Enabled bool `koanf:"enabled"`

	// BufferSize is the capacity of the async write buffer. Events are
	// dropped with a warning when the buffer is full.
	BufferSize int `koanf:"buffer_size"`

	// RetentionDays is how long audit entries are kept. Zero disables
	// retention cleanup.
	RetentionDays int `koanf:"retention_days"`

	// CleanupInterval is how often retention cleanup runs.
	CleanupInterval time.Duration `koanf:"cleanup_interval"`
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// defaultConfig returns a Config with all defaults applied. Defaults are
// loaded first, then overridden by the config file and environment.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        8321,
			Timeout:     30 * time.Second,
			Environment: "development",
		},
		Database: DatabaseConfig{
			Path:      "/data/swaralive.duckdb",
			MaxMemory: "512MB",
			Threads:   0, // 0 = runtime.NumCPU()
		},
		Badger: BadgerConfig{
			Path:     "/data/sessions",
			InMemory: false,
		},
		Security: SecurityConfig{
			JWTSecret:            "",
			SessionTTL:           24 * time.Hour,
			StaffTokenTTL:        12 * time.Hour,
			SessionSweepInterval: 10 * time.Minute,
			CORSOrigins:          []string{"*"},
			RateLimitReqs:        100,
			RateLimitWindow:      time.Minute,
			AdminName:            "Administrator",
		},
		Chat: ChatConfig{
			MinMessageLength: 50,
			SendWindow:       10 * time.Second,
		},
		Relay: RelayConfig{
			AdminTopic:  "livechat.admin",
			PublicTopic: "livechat.public",
			NATS: NATSConfig{
				Enabled:        false,
				URL:            "nats://127.0.0.1:4222",
				EmbeddedServer: false,
				StoreDir:       "/data/nats/jetstream",
				MaxReconnects:  60,
				ReconnectWait:  2 * time.Second,
			},
		},
		API: APIConfig{
			DefaultPageSize: 20,
			MaxPageSize:     100,
			CacheTTL:        30 * time.Second,
		},
		Audit: AuditConfig{
			Enabled:         true,
			BufferSize:      256,
			RetentionDays:   90,
			CleanupInterval: 24 * time.Hour,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Validate checks the loaded configuration for inconsistencies.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if len(c.Security.JWTSecret) < 32 {
		return fmt.Errorf("security.jwt_secret must be at least 32 characters")
	}
	if c.Security.SessionTTL <= 0 {
		return fmt.Errorf("security.session_ttl must be positive")
	}
	if c.Security.AdminPassword != "" && len(c.Security.AdminPassword) < 8 {
		return fmt.Errorf("security.admin_password must be at least 8 characters")
	}
	if c.Chat.MinMessageLength < 1 {
		return fmt.Errorf("chat.min_message_length must be positive")
	}
	if c.Chat.SendWindow <= 0 {
		return fmt.Errorf("chat.send_window must be positive")
	}
	if c.Relay.AdminTopic == "" || c.Relay.PublicTopic == "" {
		return fmt.Errorf("relay topics must not be empty")
	}
	if c.Relay.AdminTopic == c.Relay.PublicTopic {
		return fmt.Errorf("relay.admin_topic and relay.public_topic must differ")
	}
	if c.Relay.NATS.Enabled && c.Relay.NATS.URL == "" {
		return fmt.Errorf("relay.nats.url required when NATS is enabled")
	}
	if c.API.DefaultPageSize < 1 || c.API.DefaultPageSize > c.API.MaxPageSize {
		return fmt.Errorf("api.default_page_size must be in [1, max_page_size]")
	}
	if c.Audit.Enabled && c.Audit.BufferSize < 1 {
		return fmt.Errorf("audit.buffer_size must be positive")
	}
	return nil
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}
