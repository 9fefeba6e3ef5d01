// Pulseboard - Valentine Week Live Activity Dashboard
// Copyright 2026 Dan V. (danvera)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danvera/pulseboard

package dashboard

import (
	"sync"
	"time"

	"github.com/danvera/pulseboard/internal/metrics"
	"github.com/danvera/pulseboard/internal/models"
)

// Toast eviction reasons, recorded in metrics.
const (
	evictExpired   = "expired"
	evictDismissed = "dismissed"
	evictCapacity  = "capacity"
)

// Feed holds the two parallel bounded collections fed by every activity
// event: the toast queue (hard size cap, per-toast auto-dismiss timer)
// and the activity log (larger cap, never auto-expires). Both receive
// every event; neither ever sees an event the other does not.
type Feed struct {
	mu       sync.Mutex
	toasts   []models.ActivityEvent
	log      []models.ActivityEvent
	timers   map[int64]*time.Timer
	toastCap int
	toastTTL time.Duration
	logCap   int
	closed   bool

	// onChange fires after every mutation, outside the feed lock. The
	// engine uses it to push updated state to websocket clients.
	onChange func()
}

// NewFeed builds a feed with the given bounds. onChange may be nil.
func NewFeed(toastCap int, toastTTL time.Duration, logCap int, onChange func()) *Feed {
	return &Feed{
		timers:   make(map[int64]*time.Timer),
		toastCap: toastCap,
		toastTTL: toastTTL,
		logCap:   logCap,
		onChange: onChange,
	}
}

// Add pushes an event onto both collections. The toast's auto-dismiss
// timer starts at its own insertion instant; later insertions never
// reset it. When the toast queue is over cap the oldest entry is
// dropped and its timer stopped.
func (f *Feed) Add(ev *models.ActivityEvent) {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}

	f.toasts = append([]models.ActivityEvent{*ev}, f.toasts...)
	for len(f.toasts) > f.toastCap {
		oldest := f.toasts[len(f.toasts)-1]
		f.toasts = f.toasts[:len(f.toasts)-1]
		f.stopTimer(oldest.ID)
		metrics.RecordToastEviction(evictCapacity)
	}

	id := ev.ID
	f.timers[id] = time.AfterFunc(f.toastTTL, func() {
		f.remove(id, evictExpired)
	})

	f.log = append([]models.ActivityEvent{*ev}, f.log...)
	if len(f.log) > f.logCap {
		f.log = f.log[:f.logCap]
	}
	f.mu.Unlock()

	f.notify()
}

// Dismiss removes a toast before its timer fires. Dismissing an already
// removed toast is a no-op; the dismissed state is terminal.
func (f *Feed) Dismiss(id int64) {
	f.remove(id, evictDismissed)
}

// remove drops the toast with the given id if it is still queued.
func (f *Feed) remove(id int64, reason string) {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}

	found := false
	for i := range f.toasts {
		if f.toasts[i].ID == id {
			f.toasts = append(f.toasts[:i:i], f.toasts[i+1:]...)
			found = true
			break
		}
	}
	f.stopTimer(id)
	f.mu.Unlock()

	if found {
		metrics.RecordToastEviction(reason)
		f.notify()
	}
}

// stopTimer cancels and forgets a toast's pending timer. Callers hold
// the feed lock.
func (f *Feed) stopTimer(id int64) {
	if t, ok := f.timers[id]; ok {
		t.Stop()
		delete(f.timers, id)
	}
}

// Toasts returns a copy of the toast queue, newest first.
func (f *Feed) Toasts() []models.ActivityEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.ActivityEvent, len(f.toasts))
	copy(out, f.toasts)
	return out
}

// ActivityLog returns a copy of the activity log, newest first.
func (f *Feed) ActivityLog() []models.ActivityEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.ActivityEvent, len(f.log))
	copy(out, f.log)
	return out
}

// Close stops every pending timer and freezes the feed. Timer callbacks
// that already fired see the closed flag and mutate nothing.
func (f *Feed) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	for id, t := range f.timers {
		t.Stop()
		delete(f.timers, id)
	}
}

func (f *Feed) notify() {
	if f.onChange != nil {
		f.onChange()
	}
}
