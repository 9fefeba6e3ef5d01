// Pulseboard - Valentine Week Live Activity Dashboard
// Copyright 2026 Dan V. (danvera)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danvera/pulseboard

package models

import (
	"testing"
	"time"
)

func TestSessionOnline(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name       string
		lastActive time.Time
		active     bool
		want       bool
	}{
		{"just under the window", now.Add(-119 * time.Second), true, true},
		{"just over the window", now.Add(-121 * time.Second), true, false},
		{"exactly at the window", now.Add(-OnlineWindow), true, false},
		{"recent but inactive", now.Add(-time.Second), false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Session{LastActiveAt: tt.lastActive, IsActive: tt.active}
			if got := s.Online(now); got != tt.want {
				t.Errorf("Online = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSessionEngagedTime(t *testing.T) {
	login := time.Now().Add(-time.Hour)
	logout := login.Add(45 * time.Minute)

	tests := []struct {
		name string
		s    Session
		want time.Duration
	}{
		{"last active marks the end", Session{LoginAt: login, LastActiveAt: login.Add(20 * time.Minute)}, 20 * time.Minute},
		{"logout fallback when no heartbeat", Session{LoginAt: login, LogoutAt: &logout}, 45 * time.Minute},
		{"no end marker contributes zero", Session{LoginAt: login}, 0},
		{"clock skew clamps to zero", Session{LoginAt: login, LastActiveAt: login.Add(-time.Minute)}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.s.EngagedTime(); got != tt.want {
				t.Errorf("EngagedTime = %v, want %v", got, tt.want)
			}
		})
	}
}
