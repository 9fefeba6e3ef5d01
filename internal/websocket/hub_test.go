// Pulseboard - Valentine Week Live Activity Dashboard
// Copyright 2026 Dan V. (danvera)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danvera/pulseboard

package websocket

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/danvera/pulseboard/internal/dashboard"
	"github.com/danvera/pulseboard/internal/models"
)

func TestHubBroadcastDoesNotBlockWhenFull(t *testing.T) {
	h := NewHub()

	// Nothing drains the broadcast channel; overflow must drop, not
	// block the engine.
	for i := 0; i < 1000; i++ {
		h.BroadcastToast(&models.ActivityEvent{ID: int64(i)})
	}
}

func TestHubRunStopsOnCancel(t *testing.T) {
	h := NewHub()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.RunWithContext(ctx) }()

	h.BroadcastDashboard(&dashboard.State{GeneratedAt: time.Now()})
	h.BroadcastToastDismissed(7)

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("RunWithContext returned %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("hub did not stop on context cancel")
	}

	if got := h.ClientCount(); got != 0 {
		t.Errorf("ClientCount = %d after shutdown", got)
	}
}

func TestMarshalMessage(t *testing.T) {
	data, err := MarshalMessage(Message{Type: MessageTypeToastDismissed, Data: map[string]int64{"id": 3}})
	if err != nil {
		t.Fatalf("MarshalMessage: %v", err)
	}
	if len(data) == 0 {
		t.Error("empty payload")
	}
}
