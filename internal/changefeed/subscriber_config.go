// Pulseboard - Valentine Week Live Activity Dashboard
// Copyright 2026 Dan V. (danvera)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danvera/pulseboard

package changefeed

import (
	"time"

	"github.com/danvera/pulseboard/internal/config"
)

// SubscriberConfig holds the durable consumer settings.
type SubscriberConfig struct {
	URL            string
	StreamName     string
	DurableName    string
	MaxDeliver     int
	MaxReconnects  int
	ReconnectWait  time.Duration
	AckWaitTimeout time.Duration
	CloseTimeout   time.Duration
}

// SubscriberConfigFrom derives a subscriber config from the service
// configuration, applying defaults for unset values.
func SubscriberConfigFrom(cfg *config.NATSConfig) *SubscriberConfig {
	sc := &SubscriberConfig{
		URL:            cfg.URL,
		StreamName:     cfg.StreamName,
		DurableName:    cfg.DurableName,
		MaxDeliver:     5,
		MaxReconnects:  cfg.MaxReconnects,
		ReconnectWait:  cfg.ReconnectWait,
		AckWaitTimeout: cfg.AckWaitTimeout,
		CloseTimeout:   cfg.CloseTimeout,
	}
	if sc.AckWaitTimeout <= 0 {
		sc.AckWaitTimeout = 30 * time.Second
	}
	if sc.CloseTimeout <= 0 {
		sc.CloseTimeout = 30 * time.Second
	}
	return sc
}
