// Pulseboard - Valentine Week Live Activity Dashboard
// Copyright 2026 Dan V. (danvera)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danvera/pulseboard

// Package config loads and validates Pulseboard configuration from
// defaults, an optional YAML file, and environment variables, in that
// order of precedence (later wins).
package config

import "time"

// Config is the root configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Owner     OwnerConfig     `koanf:"owner"`
	Database  DatabaseConfig  `koanf:"database"`
	NATS      NATSConfig      `koanf:"nats"`
	Dashboard DashboardConfig `koanf:"dashboard"`
	Security  SecurityConfig  `koanf:"security"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port"`
	Timeout time.Duration `koanf:"timeout"`
}

// OwnerConfig identifies the dashboard operator. Records carrying this
// actor id (or a joined profile with this role) are classified as owner
// and excluded from subject-activity views. Injected here rather than
// hardcoded so classification is testable and environment-independent.
type OwnerConfig struct {
	UserID string `koanf:"user_id"`
	Role   string `koanf:"role"`
}

// DatabaseConfig holds the embedded DuckDB settings.
type DatabaseConfig struct {
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads"` // 0 = runtime.NumCPU()
}

// NATSConfig holds the embedded JetStream change-feed settings.
type NATSConfig struct {
	EmbeddedServer      bool          `koanf:"embedded_server"`
	URL                 string        `koanf:"url"`
	Host                string        `koanf:"host"`
	Port                int           `koanf:"port"`
	StoreDir            string        `koanf:"store_dir"`
	MaxMemory           int64         `koanf:"max_memory"`
	MaxStore            int64         `koanf:"max_store"`
	StreamName          string        `koanf:"stream_name"`
	StreamRetentionDays int           `koanf:"stream_retention_days"`
	DurableName         string        `koanf:"durable_name"`
	MaxReconnects       int           `koanf:"max_reconnects"`
	ReconnectWait       time.Duration `koanf:"reconnect_wait"`
	AckWaitTimeout      time.Duration `koanf:"ack_wait_timeout"`
	CloseTimeout        time.Duration `koanf:"close_timeout"`
}

// DashboardConfig holds the live engine's collection bounds.
type DashboardConfig struct {
	// SnapshotLimit caps each bulk-fetched collection.
	SnapshotLimit int `koanf:"snapshot_limit"`

	// ToastCap is the hard cap on the toast queue.
	ToastCap int `koanf:"toast_cap"`

	// ToastTTL is the per-toast auto-dismiss timer.
	ToastTTL time.Duration `koanf:"toast_ttl"`

	// ActivityLogCap is the hard cap on the non-expiring activity log.
	ActivityLogCap int `koanf:"activity_log_cap"`
}

// SecurityConfig holds the admin API settings.
type SecurityConfig struct {
	// JWTSecret signs admin tokens. Required in production.
	JWTSecret string `koanf:"jwt_secret"`

	TokenTTL          time.Duration `koanf:"token_ttl"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// defaultConfig returns a Config with all defaults applied. Defaults are
// overridden by the config file and then by environment variables.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:    "0.0.0.0",
			Port:    8214,
			Timeout: 30 * time.Second,
		},
		Owner: OwnerConfig{
			UserID: "",
			Role:   "owner",
		},
		Database: DatabaseConfig{
			Path:      "/data/pulseboard.duckdb",
			MaxMemory: "1GB",
			Threads:   0,
		},
		NATS: NATSConfig{
			EmbeddedServer:      true,
			URL:                 "nats://127.0.0.1:4222",
			Host:                "127.0.0.1",
			Port:                4222,
			StoreDir:            "/data/nats/jetstream",
			MaxMemory:           1 << 29, // 512MB
			MaxStore:            4 << 30, // 4GB
			StreamName:          "PULSEBOARD_CHANGES",
			StreamRetentionDays: 7,
			DurableName:         "dashboard-engine",
			MaxReconnects:       60,
			ReconnectWait:       2 * time.Second,
			AckWaitTimeout:      30 * time.Second,
			CloseTimeout:        30 * time.Second,
		},
		Dashboard: DashboardConfig{
			SnapshotLimit:  10000,
			ToastCap:       20,
			ToastTTL:       10 * time.Second,
			ActivityLogCap: 100,
		},
		Security: SecurityConfig{
			JWTSecret:         "",
			TokenTTL:          24 * time.Hour,
			RateLimitReqs:     100,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,
			CORSOrigins:       []string{},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}
