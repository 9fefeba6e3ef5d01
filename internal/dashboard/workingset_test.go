// Pulseboard - Valentine Week Live Activity Dashboard
// Copyright 2026 Dan V. (danvera)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danvera/pulseboard

package dashboard

import (
	"reflect"
	"testing"
	"time"

	"github.com/danvera/pulseboard/internal/models"
)

func TestMergeSessionNewFieldsWin(t *testing.T) {
	login := time.Now().Add(-time.Hour)
	ws := NewWorkingSet()
	ws.AddSession(models.Session{
		ID: "s1", ActorID: testSubjectID,
		LoginAt: login, LastActiveAt: login, IsActive: true,
		Actor: &models.ActorProfile{DisplayName: "Vera", Role: "subject"},
	})

	logout := login.Add(30 * time.Minute)
	ws.MergeSession(models.Session{
		ID: "s1", ActorID: testSubjectID,
		LastActiveAt: logout, LogoutAt: &logout, IsActive: false,
	})

	got := ws.Sessions[0]
	if got.IsActive {
		t.Error("merged session should be inactive")
	}
	if !got.LoginAt.Equal(login) {
		t.Error("merge must keep LoginAt when the update omits it")
	}
	if got.LogoutAt == nil || !got.LogoutAt.Equal(logout) {
		t.Error("merge must take the new LogoutAt")
	}
	if got.Actor == nil || got.Actor.DisplayName != "Vera" {
		t.Error("merge must keep the joined profile when the update lacks one")
	}
}

func TestMergeSessionIdempotent(t *testing.T) {
	login := time.Now().Add(-time.Hour)
	ws := NewWorkingSet()
	ws.AddSession(models.Session{ID: "s1", ActorID: testSubjectID, LoginAt: login, LastActiveAt: login, IsActive: true})

	logout := login.Add(10 * time.Minute)
	update := models.Session{ID: "s1", ActorID: testSubjectID, LastActiveAt: logout, LogoutAt: &logout, IsActive: false}

	ws.MergeSession(update)
	once := make([]models.Session, len(ws.Sessions))
	copy(once, ws.Sessions)

	ws.MergeSession(update)
	if !reflect.DeepEqual(once, ws.Sessions) {
		t.Errorf("applying the same update twice changed state:\nonce:  %+v\ntwice: %+v", once, ws.Sessions)
	}
	if len(ws.Sessions) != 1 {
		t.Fatalf("expected 1 session, got %d", len(ws.Sessions))
	}
}

// An update whose insert was never observed lands as an insert.
func TestMergeSessionUnknownIDTreatedAsInsert(t *testing.T) {
	ws := NewWorkingSet()
	ws.MergeSession(models.Session{ID: "never-seen", ActorID: testSubjectID, LastActiveAt: time.Now(), IsActive: true})

	if len(ws.Sessions) != 1 || ws.Sessions[0].ID != "never-seen" {
		t.Fatalf("update for unknown id should insert, got %+v", ws.Sessions)
	}
}

func TestMergeResponsePreservesOriginalText(t *testing.T) {
	created := time.Now().Add(-time.Hour)
	original := "first answer"
	ws := NewWorkingSet()
	ws.AddResponse(models.GameResponse{
		ID: "r1", ActorID: testSubjectID, GameType: "quiz",
		ResponseText: original, CreatedAt: created,
	})

	// First edit carries the captured original.
	editedAt := created.Add(time.Minute)
	ws.MergeResponse(models.GameResponse{
		ID: "r1", ActorID: testSubjectID,
		ResponseText: "second answer", IsEdited: true,
		OriginalResponseText: &original, EditedAt: &editedAt,
	})

	// Second edit arrives without the original field set.
	ws.MergeResponse(models.GameResponse{
		ID: "r1", ActorID: testSubjectID,
		ResponseText: "third answer", IsEdited: true,
	})

	got := ws.Responses[0]
	if got.ResponseText != "third answer" {
		t.Errorf("ResponseText = %q", got.ResponseText)
	}
	if got.OriginalResponseText == nil || *got.OriginalResponseText != original {
		t.Error("original response text from the first edit must survive later merges")
	}
	if !got.CreatedAt.Equal(created) {
		t.Error("CreatedAt must survive merges that omit it")
	}
}

func TestAddPrependsNewestFirst(t *testing.T) {
	now := time.Now()
	ws := NewWorkingSet()
	ws.AddEvent(models.VisitEvent{ID: "v1", ActorID: testSubjectID, EventType: models.VisitPageView, CreatedAt: now})
	ws.AddEvent(models.VisitEvent{ID: "v2", ActorID: testSubjectID, EventType: models.VisitPageView, CreatedAt: now.Add(time.Second)})

	if ws.Events[0].ID != "v2" || ws.Events[1].ID != "v1" {
		t.Errorf("events not newest-first: %v, %v", ws.Events[0].ID, ws.Events[1].ID)
	}
}
