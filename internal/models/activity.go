// Pulseboard - Valentine Week Live Activity Dashboard
// Copyright 2026 Dan V. (danvera)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danvera/pulseboard

package models

import "time"

// Category classifies a normalized activity event for the notification feed.
type Category string

// Activity event categories. One per notification template.
const (
	CategoryDeviceLogin       Category = "device-login"
	CategorySessionStart      Category = "session-start"
	CategorySessionEnd        Category = "session-end"
	CategoryResponseSubmitted Category = "response-submitted"
	CategoryResponseEdited    Category = "response-edited"
	CategoryPageView          Category = "page-view"
	CategoryFeatureOpen       Category = "feature-open"
	CategoryFeatureClose      Category = "feature-close"
	CategoryPageClose         Category = "page-close"
	CategoryTabHidden         Category = "tab-hidden"
	CategoryTabVisible        Category = "tab-visible"
	CategoryLockedTap         Category = "locked-tap"
	CategoryOther             Category = "other"
)

// ActivityEvent is the normalized, in-memory-only notification derived from
// a raw change record. It is created only by the normalizer, never
// persisted, and garbage-collected by the bounded feed's eviction policy.
type ActivityEvent struct {
	// ID is locally assigned and monotonically increasing within a
	// dashboard session.
	ID        int64          `json:"id"`
	Category  Category       `json:"category"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}
