// Pulseboard - Valentine Week Live Activity Dashboard
// Copyright 2026 Dan V. (danvera)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danvera/pulseboard

package dashboard

import (
	"io"
	"strings"
	"testing"
	"time"

	"github.com/danvera/pulseboard/internal/changefeed"
	"github.com/danvera/pulseboard/internal/logging"
	"github.com/danvera/pulseboard/internal/models"
)

func testNormalizer() *Normalizer {
	return NewNormalizer(testClassifier(), logging.NewTestLogger(io.Discard))
}

func mustRecord(t *testing.T, table string, op changefeed.Op, newRow, oldRow any) *changefeed.Record {
	t.Helper()
	rec, err := changefeed.NewRecord(table, op, newRow, oldRow)
	if err != nil {
		t.Fatalf("build record: %v", err)
	}
	return rec
}

func TestNormalizerSessionInsert(t *testing.T) {
	n := testNormalizer()
	ws := NewWorkingSet()

	s := subjectSession("s1", time.Now(), time.Now(), true)
	ev, err := n.Apply(ws, mustRecord(t, models.TableSessions, changefeed.OpInsert, &s, nil))
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if ev == nil || ev.Category != models.CategorySessionStart {
		t.Fatalf("expected session-start event, got %+v", ev)
	}
	if len(ws.Sessions) != 1 {
		t.Fatalf("session not stored")
	}
}

// Owner records are stored but never notified.
func TestNormalizerOwnerStoredNotNotified(t *testing.T) {
	n := testNormalizer()
	ws := NewWorkingSet()

	s := models.Session{ID: "o1", ActorID: testOwnerID, LoginAt: time.Now(), LastActiveAt: time.Now(), IsActive: true}
	ev, err := n.Apply(ws, mustRecord(t, models.TableSessions, changefeed.OpInsert, &s, nil))
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if ev != nil {
		t.Errorf("owner session produced a notification: %+v", ev)
	}
	if len(ws.Sessions) != 1 {
		t.Error("owner session must still be stored")
	}
}

func TestNormalizerLogoutDetection(t *testing.T) {
	n := testNormalizer()
	ws := NewWorkingSet()

	login := time.Now().Add(-time.Hour)
	old := subjectSession("s1", login, login, true)
	if _, err := n.Apply(ws, mustRecord(t, models.TableSessions, changefeed.OpInsert, &old, nil)); err != nil {
		t.Fatalf("insert: %v", err)
	}

	// Heartbeat update: no notification.
	beat := old
	beat.LastActiveAt = login.Add(time.Minute)
	ev, err := n.Apply(ws, mustRecord(t, models.TableSessions, changefeed.OpUpdate, &beat, &old))
	if err != nil {
		t.Fatalf("heartbeat: %v", err)
	}
	if ev != nil {
		t.Errorf("heartbeat produced a notification: %+v", ev)
	}

	// The true-to-false transition notifies once.
	logout := login.Add(2 * time.Minute)
	closed := beat
	closed.IsActive = false
	closed.LogoutAt = &logout
	ev, err = n.Apply(ws, mustRecord(t, models.TableSessions, changefeed.OpUpdate, &closed, &beat))
	if err != nil {
		t.Fatalf("logout: %v", err)
	}
	if ev == nil || ev.Category != models.CategorySessionEnd {
		t.Fatalf("expected session-end event, got %+v", ev)
	}

	// Replaying the close (old row already inactive) does not notify.
	ev, err = n.Apply(ws, mustRecord(t, models.TableSessions, changefeed.OpUpdate, &closed, &closed))
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if ev != nil {
		t.Errorf("replayed close produced a notification: %+v", ev)
	}
}

func TestNormalizerDeviceInsert(t *testing.T) {
	n := testNormalizer()
	ws := NewWorkingSet()

	d := models.DeviceRecord{
		ID: "d1", ActorID: testSubjectID,
		Browser: "Firefox", OS: "Android", Fingerprint: "fp-1",
		CreatedAt: time.Now(),
	}
	ev, err := n.Apply(ws, mustRecord(t, models.TableDevices, changefeed.OpInsert, &d, nil))
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if ev == nil || ev.Category != models.CategoryDeviceLogin {
		t.Fatalf("expected device-login event, got %+v", ev)
	}
	if ev.Details["fingerprint"] != "fp-1" || ev.Details["browser"] != "Firefox" {
		t.Errorf("device details missing: %v", ev.Details)
	}
}

func TestNormalizerResponseEdit(t *testing.T) {
	n := testNormalizer()
	ws := NewWorkingSet()

	r := models.GameResponse{ID: "r1", ActorID: testSubjectID, GameType: "quiz", ResponseText: "yes", CreatedAt: time.Now()}
	ev, err := n.Apply(ws, mustRecord(t, models.TableResponses, changefeed.OpInsert, &r, nil))
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if ev == nil || ev.Category != models.CategoryResponseSubmitted {
		t.Fatalf("expected response-submitted, got %+v", ev)
	}

	original := r.ResponseText
	editedAt := time.Now()
	edited := r
	edited.ResponseText = "definitely yes"
	edited.IsEdited = true
	edited.OriginalResponseText = &original
	edited.EditedAt = &editedAt
	ev, err = n.Apply(ws, mustRecord(t, models.TableResponses, changefeed.OpUpdate, &edited, &r))
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if ev == nil || ev.Category != models.CategoryResponseEdited {
		t.Fatalf("expected response-edited, got %+v", ev)
	}
	if ev.Details["original"] != original {
		t.Errorf("edit details missing original text: %v", ev.Details)
	}
}

func TestNormalizerVisitEventRouting(t *testing.T) {
	tests := []struct {
		eventType string
		want      models.Category
	}{
		{models.VisitPageView, models.CategoryPageView},
		{models.VisitFeatureOpen, models.CategoryFeatureOpen},
		{models.VisitFeatureClose, models.CategoryFeatureClose},
		{models.VisitPageClose, models.CategoryPageClose},
		{models.VisitTabHidden, models.CategoryTabHidden},
		{models.VisitTabVisible, models.CategoryTabVisible},
		{models.VisitLockedTap, models.CategoryLockedTap},
		{models.VisitHeartbeat, models.CategoryOther},
	}

	n := testNormalizer()
	for _, tt := range tests {
		t.Run(tt.eventType, func(t *testing.T) {
			ws := NewWorkingSet()
			v := models.VisitEvent{ID: "v", ActorID: testSubjectID, EventType: tt.eventType, FeatureName: "letters", CreatedAt: time.Now()}
			ev, err := n.Apply(ws, mustRecord(t, models.TableVisits, changefeed.OpInsert, &v, nil))
			if err != nil {
				t.Fatalf("Apply: %v", err)
			}
			if ev == nil || ev.Category != tt.want {
				t.Fatalf("category = %v, want %v", ev, tt.want)
			}
		})
	}
}

// An event type outside the known set still yields exactly one generic
// notification carrying the literal type string.
func TestNormalizerUnknownVisitType(t *testing.T) {
	n := testNormalizer()
	ws := NewWorkingSet()

	v := models.VisitEvent{ID: "v1", ActorID: testSubjectID, EventType: "scroll_depth_50", CreatedAt: time.Now()}
	ev, err := n.Apply(ws, mustRecord(t, models.TableVisits, changefeed.OpInsert, &v, nil))
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if ev == nil {
		t.Fatal("unknown event type must still notify")
	}
	if ev.Category != models.CategoryOther {
		t.Errorf("category = %s, want other", ev.Category)
	}
	if !strings.Contains(ev.Message, "scroll_depth_50") {
		t.Errorf("message %q does not carry the literal event type", ev.Message)
	}
	if len(ws.Events) != 1 {
		t.Error("unknown event type must still be stored")
	}
}

func TestNormalizerIDsMonotonic(t *testing.T) {
	n := testNormalizer()
	ws := NewWorkingSet()

	var last int64
	for i := 0; i < 5; i++ {
		v := models.VisitEvent{ID: "v", ActorID: testSubjectID, EventType: models.VisitPageView, CreatedAt: time.Now()}
		ev, err := n.Apply(ws, mustRecord(t, models.TableVisits, changefeed.OpInsert, &v, nil))
		if err != nil {
			t.Fatalf("Apply: %v", err)
		}
		if ev.ID <= last {
			t.Fatalf("ids not monotonically increasing: %d after %d", ev.ID, last)
		}
		last = ev.ID
	}
}

func TestNormalizerUnknownTableDropped(t *testing.T) {
	n := testNormalizer()
	ws := NewWorkingSet()

	ev, err := n.Apply(ws, mustRecord(t, "mystery_table", changefeed.OpInsert, map[string]string{"x": "y"}, nil))
	if err != nil {
		t.Fatalf("unknown table must not error: %v", err)
	}
	if ev != nil {
		t.Errorf("unknown table produced a notification: %+v", ev)
	}
}
