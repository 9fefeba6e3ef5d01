// Pulseboard - Valentine Week Live Activity Dashboard
// Copyright 2026 Dan V. (danvera)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danvera/pulseboard

package dashboard

import (
	"fmt"
	"testing"
	"time"

	"github.com/danvera/pulseboard/internal/models"
)

func feedEvent(id int64) *models.ActivityEvent {
	return &models.ActivityEvent{
		ID:        id,
		Category:  models.CategoryPageView,
		Message:   fmt.Sprintf("event %d", id),
		Timestamp: time.Now(),
	}
}

func TestToastCap(t *testing.T) {
	feed := NewFeed(20, time.Minute, 100, nil)
	defer feed.Close()

	for i := int64(1); i <= 25; i++ {
		feed.Add(feedEvent(i))
	}

	toasts := feed.Toasts()
	if len(toasts) != 20 {
		t.Fatalf("toast queue length = %d, want 20", len(toasts))
	}
	// The 20 most recent survive, newest first: 25 down to 6.
	if toasts[0].ID != 25 || toasts[19].ID != 6 {
		t.Errorf("unexpected survivors: newest=%d oldest=%d", toasts[0].ID, toasts[19].ID)
	}
}

// Each toast expires on its own timer, measured from its own insertion.
func TestToastAutoDismissIndependence(t *testing.T) {
	ttl := 100 * time.Millisecond
	feed := NewFeed(20, ttl, 100, nil)
	defer feed.Close()

	feed.Add(feedEvent(1))
	time.Sleep(ttl / 2)
	feed.Add(feedEvent(2))

	// At 0.75*ttl: both present.
	time.Sleep(ttl / 4)
	if got := len(feed.Toasts()); got != 2 {
		t.Fatalf("expected both toasts before first expiry, got %d", got)
	}

	// At 1.25*ttl: first expired, second still visible.
	time.Sleep(ttl / 2)
	toasts := feed.Toasts()
	if len(toasts) != 1 || toasts[0].ID != 2 {
		t.Fatalf("expected only toast 2 alive, got %+v", toasts)
	}

	// At 1.75*ttl: both gone.
	time.Sleep(ttl / 2)
	if got := len(feed.Toasts()); got != 0 {
		t.Fatalf("expected all toasts expired, got %d", got)
	}
}

func TestToastDismissIdempotent(t *testing.T) {
	feed := NewFeed(20, time.Minute, 100, nil)
	defer feed.Close()

	feed.Add(feedEvent(1))
	feed.Dismiss(1)
	if got := len(feed.Toasts()); got != 0 {
		t.Fatalf("toast not dismissed, %d remain", got)
	}

	// Double dismiss and dismiss-of-unknown are no-ops.
	feed.Dismiss(1)
	feed.Dismiss(99)
}

func TestActivityLogCapAndNoExpiry(t *testing.T) {
	ttl := 20 * time.Millisecond
	feed := NewFeed(5, ttl, 100, nil)
	defer feed.Close()

	for i := int64(1); i <= 120; i++ {
		feed.Add(feedEvent(i))
	}

	log := feed.ActivityLog()
	if len(log) != 100 {
		t.Fatalf("activity log length = %d, want 100", len(log))
	}
	if log[0].ID != 120 || log[99].ID != 21 {
		t.Errorf("unexpected log window: newest=%d oldest=%d", log[0].ID, log[99].ID)
	}

	// Toast expiry does not touch the log.
	time.Sleep(2 * ttl)
	if got := len(feed.ActivityLog()); got != 100 {
		t.Errorf("activity log shrank to %d after toast expiry", got)
	}
}

// Both collections receive every event; neither sees one the other
// misses.
func TestFeedCollectionsReceiveSameEvents(t *testing.T) {
	feed := NewFeed(20, time.Minute, 100, nil)
	defer feed.Close()

	for i := int64(1); i <= 5; i++ {
		feed.Add(feedEvent(i))
	}

	toasts := feed.Toasts()
	log := feed.ActivityLog()
	if len(toasts) != 5 || len(log) != 5 {
		t.Fatalf("lengths differ: toasts=%d log=%d", len(toasts), len(log))
	}
	for i := range toasts {
		if toasts[i].ID != log[i].ID {
			t.Errorf("position %d: toast %d vs log %d", i, toasts[i].ID, log[i].ID)
		}
	}
}

func TestFeedOnChangeFires(t *testing.T) {
	changes := make(chan struct{}, 16)
	feed := NewFeed(20, time.Minute, 100, func() {
		select {
		case changes <- struct{}{}:
		default:
		}
	})
	defer feed.Close()

	feed.Add(feedEvent(1))
	select {
	case <-changes:
	case <-time.After(time.Second):
		t.Fatal("onChange did not fire on Add")
	}

	feed.Dismiss(1)
	select {
	case <-changes:
	case <-time.After(time.Second):
		t.Fatal("onChange did not fire on Dismiss")
	}
}

func TestFeedCloseStopsMutation(t *testing.T) {
	feed := NewFeed(20, time.Minute, 100, nil)
	feed.Add(feedEvent(1))
	feed.Close()

	feed.Add(feedEvent(2))
	if got := len(feed.Toasts()); got != 1 {
		t.Errorf("closed feed accepted an event, toasts=%d", got)
	}
}
