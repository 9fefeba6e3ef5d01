// Pulseboard - Valentine Week Live Activity Dashboard
// Copyright 2026 Dan V. (danvera)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danvera/pulseboard

package dashboard

import (
	"testing"
	"time"

	"github.com/danvera/pulseboard/internal/models"
)

const (
	testOwnerID   = "owner-1"
	testSubjectID = "subject-1"
)

func testClassifier() models.Classifier {
	return models.NewClassifier(testOwnerID, "owner")
}

func subjectSession(id string, loginAt, lastActive time.Time, active bool) models.Session {
	return models.Session{
		ID:           id,
		ActorID:      testSubjectID,
		LoginAt:      loginAt,
		LastActiveAt: lastActive,
		IsActive:     active,
	}
}

func TestAggregateEmptyWorkingSet(t *testing.T) {
	stats := Aggregate(NewWorkingSet(), testClassifier(), time.Now())

	if stats.OnlineNow {
		t.Error("empty working set should not report online")
	}
	if stats.LastSeen != "Never" {
		t.Errorf("expected last seen Never, got %q", stats.LastSeen)
	}
	if stats.UniqueDevices != 0 || stats.TotalTimeMs != 0 || stats.TodayVisits != 0 {
		t.Errorf("expected zero counters, got %+v", stats)
	}
	if !stats.TabActive {
		t.Error("absence of visibility events should report tab active")
	}
}

func TestAggregateOnlineBoundary(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name       string
		lastActive time.Time
		active     bool
		want       bool
	}{
		{"active 119s ago", now.Add(-119 * time.Second), true, true},
		{"active 121s ago", now.Add(-121 * time.Second), true, false},
		{"recent but signed out", now.Add(-10 * time.Second), false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ws := NewWorkingSet()
			ws.AddSession(subjectSession("s1", now.Add(-time.Hour), tt.lastActive, tt.active))

			stats := Aggregate(ws, testClassifier(), now)
			if stats.OnlineNow != tt.want {
				t.Errorf("OnlineNow = %v, want %v", stats.OnlineNow, tt.want)
			}
		})
	}
}

func TestAggregateExcludesOwnerEverywhere(t *testing.T) {
	now := time.Now()
	ws := NewWorkingSet()

	// Owner activity across all four collections.
	ws.AddSession(models.Session{
		ID: "o-s", ActorID: testOwnerID,
		LoginAt: now.Add(-time.Minute), LastActiveAt: now, IsActive: true,
	})
	ws.AddDevice(models.DeviceRecord{ID: "o-d", ActorID: testOwnerID, Fingerprint: "fp-owner", CreatedAt: now})
	ws.AddResponse(models.GameResponse{ID: "o-r", ActorID: testOwnerID, GameType: "quiz", CreatedAt: now})
	ws.AddEvent(models.VisitEvent{ID: "o-v", ActorID: testOwnerID, EventType: models.VisitPageView, CreatedAt: now})

	stats := Aggregate(ws, testClassifier(), now)

	if stats.OnlineNow {
		t.Error("owner session must not count as subject online")
	}
	if stats.LastSeen != "Never" {
		t.Errorf("owner session must not drive last seen, got %q", stats.LastSeen)
	}
	if stats.UniqueDevices != 0 {
		t.Errorf("owner device counted: %d", stats.UniqueDevices)
	}
	if stats.TodayVisits != 0 {
		t.Errorf("owner login counted as visit: %d", stats.TodayVisits)
	}
	if len(stats.GameTypeCounts) != 0 {
		t.Errorf("owner response counted: %v", stats.GameTypeCounts)
	}
}

// Owner exclusion also holds when the record arrives with a joined
// profile carrying the owner role sentinel but a different actor id.
func TestAggregateExcludesOwnerByProfileRole(t *testing.T) {
	now := time.Now()
	ws := NewWorkingSet()
	ws.AddSession(models.Session{
		ID: "s1", ActorID: "someone-else",
		LoginAt: now.Add(-time.Minute), LastActiveAt: now, IsActive: true,
		Actor: &models.ActorProfile{DisplayName: "Dan", Role: "owner"},
	})

	stats := Aggregate(ws, testClassifier(), now)
	if stats.OnlineNow {
		t.Error("profile role sentinel must classify as owner")
	}
}

func TestAggregateLastSeenAndEngagedTime(t *testing.T) {
	now := time.Now()
	ws := NewWorkingSet()
	// Closed session: 30 minutes engaged.
	login1 := now.Add(-2 * time.Hour)
	ws.AddSession(subjectSession("s1", login1, login1.Add(30*time.Minute), false))
	// Active session: 10 minutes engaged so far.
	login2 := now.Add(-10 * time.Minute)
	ws.AddSession(subjectSession("s2", login2, now.Add(-time.Minute), true))

	stats := Aggregate(ws, testClassifier(), now)

	wantLastSeen := now.Add(-time.Minute).Local().Format(time.RFC3339)
	if stats.LastSeen != wantLastSeen {
		t.Errorf("LastSeen = %q, want %q", stats.LastSeen, wantLastSeen)
	}

	wantMs := (30*time.Minute + 9*time.Minute).Milliseconds()
	if stats.TotalTimeMs != wantMs {
		t.Errorf("TotalTimeMs = %d, want %d", stats.TotalTimeMs, wantMs)
	}
}

func TestAggregateTodayVisits(t *testing.T) {
	now := time.Now()
	ws := NewWorkingSet()
	ws.AddSession(subjectSession("s1", now.Add(-time.Hour), now.Add(-time.Hour), false))
	ws.AddSession(subjectSession("s2", now.AddDate(0, 0, -1), now.AddDate(0, 0, -1), false))

	stats := Aggregate(ws, testClassifier(), now)
	if stats.TodayVisits != 1 {
		t.Errorf("TodayVisits = %d, want 1", stats.TodayVisits)
	}
}

func TestAggregateUniqueDevicesSkipsMissingFingerprints(t *testing.T) {
	now := time.Now()
	ws := NewWorkingSet()
	ws.AddDevice(models.DeviceRecord{ID: "d1", ActorID: testSubjectID, Fingerprint: "fp-a", CreatedAt: now})
	ws.AddDevice(models.DeviceRecord{ID: "d2", ActorID: testSubjectID, Fingerprint: "fp-a", CreatedAt: now})
	ws.AddDevice(models.DeviceRecord{ID: "d3", ActorID: testSubjectID, Fingerprint: "fp-b", CreatedAt: now})
	ws.AddDevice(models.DeviceRecord{ID: "d4", ActorID: testSubjectID, Fingerprint: "", CreatedAt: now})
	ws.AddDevice(models.DeviceRecord{ID: "d5", ActorID: testSubjectID, Fingerprint: "", CreatedAt: now})

	stats := Aggregate(ws, testClassifier(), now)
	if stats.UniqueDevices != 2 {
		t.Errorf("UniqueDevices = %d, want 2 (empty fingerprints excluded)", stats.UniqueDevices)
	}
}

func TestAggregateGameTypeCounts(t *testing.T) {
	now := time.Now()
	ws := NewWorkingSet()
	ws.AddResponse(models.GameResponse{ID: "r1", ActorID: testSubjectID, GameType: "quiz", CreatedAt: now})
	ws.AddResponse(models.GameResponse{ID: "r2", ActorID: testSubjectID, GameType: "quiz", CreatedAt: now})
	ws.AddResponse(models.GameResponse{ID: "r3", ActorID: testSubjectID, GameType: "spinner", CreatedAt: now})
	ws.AddResponse(models.GameResponse{ID: "r4", ActorID: testOwnerID, GameType: "quiz", CreatedAt: now})

	stats := Aggregate(ws, testClassifier(), now)
	if stats.GameTypeCounts["quiz"] != 2 || stats.GameTypeCounts["spinner"] != 1 {
		t.Errorf("GameTypeCounts = %v", stats.GameTypeCounts)
	}
}

// Feature usage counts opens from every actor, owner included. The rest
// of the dashboard is subject-scoped; this view is deliberately not,
// matching the behavior the dashboard has always had.
func TestAggregateFeatureUsageCountsAllActors(t *testing.T) {
	now := time.Now()
	ws := NewWorkingSet()
	ws.AddEvent(models.VisitEvent{ID: "v1", ActorID: testSubjectID, EventType: models.VisitFeatureOpen, FeatureName: "letters", CreatedAt: now})
	ws.AddEvent(models.VisitEvent{ID: "v2", ActorID: testOwnerID, EventType: models.VisitFeatureOpen, FeatureName: "letters", CreatedAt: now})
	ws.AddEvent(models.VisitEvent{ID: "v3", ActorID: testOwnerID, EventType: models.VisitFeatureClose, FeatureName: "letters", CreatedAt: now})

	stats := Aggregate(ws, testClassifier(), now)
	if stats.FeatureUsageCounts["letters"] != 2 {
		t.Errorf("FeatureUsageCounts[letters] = %d, want 2 (owner opens included)", stats.FeatureUsageCounts["letters"])
	}
}

// The currently-viewing scan stops at the first feature_open it reaches
// walking newest-first. A newer close for the same feature does not
// cancel it; this best-effort behavior is intentional.
func TestCurrentlyViewingEarlyStop(t *testing.T) {
	base := time.Now().Add(-time.Minute)
	ws := NewWorkingSet()
	// Arrival order: open(letters), close(letters). Newest-first storage
	// puts the close at index 0.
	ws.AddEvent(models.VisitEvent{ID: "v1", ActorID: testSubjectID, EventType: models.VisitFeatureOpen, FeatureName: "letters", CreatedAt: base})
	ws.AddEvent(models.VisitEvent{ID: "v2", ActorID: testSubjectID, EventType: models.VisitFeatureClose, FeatureName: "letters", CreatedAt: base.Add(time.Second)})

	stats := Aggregate(ws, testClassifier(), time.Now())
	if stats.CurrentlyViewing != "letters" {
		t.Errorf("CurrentlyViewing = %q, want letters (close before open is skipped)", stats.CurrentlyViewing)
	}

	// A newer open for another feature wins.
	ws.AddEvent(models.VisitEvent{ID: "v3", ActorID: testSubjectID, EventType: models.VisitFeatureOpen, FeatureName: "coupons", CreatedAt: base.Add(2 * time.Second)})
	stats = Aggregate(ws, testClassifier(), time.Now())
	if stats.CurrentlyViewing != "coupons" {
		t.Errorf("CurrentlyViewing = %q, want coupons", stats.CurrentlyViewing)
	}
}

func TestTabActiveDerivation(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name   string
		events []string
		want   bool
	}{
		{"no visibility events", []string{models.VisitPageView}, true},
		{"hidden most recent", []string{models.VisitTabVisible, models.VisitTabHidden}, false},
		{"visible most recent", []string{models.VisitTabHidden, models.VisitTabVisible}, true},
		{"page close most recent", []string{models.VisitTabVisible, models.VisitPageClose}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ws := NewWorkingSet()
			for i, et := range tt.events {
				ws.AddEvent(models.VisitEvent{
					ID: string(rune('a' + i)), ActorID: testSubjectID,
					EventType: et, CreatedAt: now.Add(time.Duration(i) * time.Second),
				})
			}
			stats := Aggregate(ws, testClassifier(), now)
			if stats.TabActive != tt.want {
				t.Errorf("TabActive = %v, want %v", stats.TabActive, tt.want)
			}
		})
	}
}
