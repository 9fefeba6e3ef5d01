// Pulseboard - Valentine Week Live Activity Dashboard
// Copyright 2026 Dan V. (danvera)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danvera/pulseboard

package dashboard

import (
	"time"

	"github.com/danvera/pulseboard/internal/models"
)

// Stats is the derived view over the working set, recomputed from
// scratch on every mutation. Pure recomputation keeps the aggregates
// tolerant of cross-table arrival reordering; only the currently-viewing
// heuristic depends on stored order.
type Stats struct {
	OnlineNow          bool           `json:"online_now"`
	LastSeen           string         `json:"last_seen"`
	UniqueDevices      int            `json:"unique_devices"`
	TotalTimeMs        int64          `json:"total_time_ms"`
	TodayVisits        int            `json:"today_visits"`
	GameTypeCounts     map[string]int `json:"game_type_counts"`
	FeatureUsageCounts map[string]int `json:"feature_usage_counts"`
	CurrentlyViewing   string         `json:"currently_viewing,omitempty"`
	TabActive          bool           `json:"tab_active"`
}

// lastSeenNever is reported when no subject session exists yet.
const lastSeenNever = "Never"

// Aggregate computes the full derived view at the given instant. It
// reads the working set without mutating it.
func Aggregate(ws *WorkingSet, classifier models.Classifier, now time.Time) *Stats {
	stats := &Stats{
		LastSeen:           lastSeenNever,
		GameTypeCounts:     make(map[string]int),
		FeatureUsageCounts: make(map[string]int),
		TabActive:          true,
	}

	var lastSeen time.Time
	for i := range ws.Sessions {
		s := &ws.Sessions[i]
		if !classifier.IsSubject(s.ActorID, s.Actor) {
			continue
		}

		if s.Online(now) {
			stats.OnlineNow = true
		}

		seen := s.LastActiveAt
		if seen.IsZero() {
			seen = s.LoginAt
		}
		if seen.After(lastSeen) {
			lastSeen = seen
		}

		stats.TotalTimeMs += s.EngagedTime().Milliseconds()

		ly, lm, ld := s.LoginAt.Local().Date()
		ny, nm, nd := now.Local().Date()
		if ly == ny && lm == nm && ld == nd {
			stats.TodayVisits++
		}
	}
	if !lastSeen.IsZero() {
		stats.LastSeen = lastSeen.Local().Format(time.RFC3339)
	}

	// Missing fingerprints are excluded from the distinct count, not
	// lumped into one group.
	fingerprints := make(map[string]struct{})
	for i := range ws.Devices {
		d := &ws.Devices[i]
		if !classifier.IsSubject(d.ActorID, d.Actor) {
			continue
		}
		if d.Fingerprint != "" {
			fingerprints[d.Fingerprint] = struct{}{}
		}
	}
	stats.UniqueDevices = len(fingerprints)

	for i := range ws.Responses {
		r := &ws.Responses[i]
		if !classifier.IsSubject(r.ActorID, r.Actor) {
			continue
		}
		stats.GameTypeCounts[r.GameType]++
	}

	// Feature usage deliberately counts every actor's opens, matching the
	// dashboard's historical behavior. All other aggregates are
	// subject-scoped.
	for i := range ws.Events {
		if ws.Events[i].EventType == models.VisitFeatureOpen {
			stats.FeatureUsageCounts[ws.Events[i].FeatureName]++
		}
	}

	stats.CurrentlyViewing = currentlyViewing(ws, classifier)
	stats.TabActive = tabActive(ws)
	return stats
}

// currentlyViewing walks subject visit events newest-first and reports
// the feature of the first feature_open it reaches, stopping there.
// Closes encountered before that open are ignored, so a feature that was
// opened and then closed still reports as viewed. A best-effort
// heuristic kept for behavioral parity, not a true open/close pairing.
func currentlyViewing(ws *WorkingSet, classifier models.Classifier) string {
	for i := range ws.Events {
		v := &ws.Events[i]
		if !classifier.IsSubject(v.ActorID, v.Actor) {
			continue
		}
		if v.EventType == models.VisitFeatureOpen {
			return v.FeatureName
		}
	}
	return ""
}

// tabActive reports focus from the newest visibility signal across all
// actors. tab_visible or no signal at all means active.
func tabActive(ws *WorkingSet) bool {
	for i := range ws.Events {
		switch ws.Events[i].EventType {
		case models.VisitTabVisible:
			return true
		case models.VisitTabHidden, models.VisitPageClose:
			return false
		}
	}
	return true
}
