// Pulseboard - Valentine Week Live Activity Dashboard
// Copyright 2026 Dan V. (danvera)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danvera/pulseboard

package config

import (
	"fmt"
	"strings"
)

// Validate checks the configuration for values that would make the service
// misbehave at runtime. It returns the first problem found.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be 1-65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("server.timeout must be positive, got %s", c.Server.Timeout)
	}

	if strings.TrimSpace(c.Owner.UserID) == "" {
		return fmt.Errorf("owner.user_id is required: the dashboard cannot tell owner from subject without it")
	}
	if strings.TrimSpace(c.Owner.Role) == "" {
		return fmt.Errorf("owner.role must not be empty")
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	if c.NATS.URL == "" && !c.NATS.EmbeddedServer {
		return fmt.Errorf("nats.url is required when the embedded server is disabled")
	}
	if c.NATS.StreamName == "" {
		return fmt.Errorf("nats.stream_name is required")
	}
	if c.NATS.StreamRetentionDays < 1 {
		return fmt.Errorf("nats.stream_retention_days must be at least 1, got %d", c.NATS.StreamRetentionDays)
	}

	if c.Dashboard.SnapshotLimit < 1 {
		return fmt.Errorf("dashboard.snapshot_limit must be positive, got %d", c.Dashboard.SnapshotLimit)
	}
	if c.Dashboard.ToastCap < 1 {
		return fmt.Errorf("dashboard.toast_cap must be positive, got %d", c.Dashboard.ToastCap)
	}
	if c.Dashboard.ToastTTL <= 0 {
		return fmt.Errorf("dashboard.toast_ttl must be positive, got %s", c.Dashboard.ToastTTL)
	}
	if c.Dashboard.ActivityLogCap < 1 {
		return fmt.Errorf("dashboard.activity_log_cap must be positive, got %d", c.Dashboard.ActivityLogCap)
	}

	if c.Security.JWTSecret != "" && len(c.Security.JWTSecret) < 32 {
		return fmt.Errorf("security.jwt_secret must be at least 32 characters, got %d", len(c.Security.JWTSecret))
	}
	if !c.Security.RateLimitDisabled {
		if c.Security.RateLimitReqs < 1 {
			return fmt.Errorf("security.rate_limit_reqs must be positive, got %d", c.Security.RateLimitReqs)
		}
		if c.Security.RateLimitWindow <= 0 {
			return fmt.Errorf("security.rate_limit_window must be positive, got %s", c.Security.RateLimitWindow)
		}
	}

	return nil
}
