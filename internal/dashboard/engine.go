// Pulseboard - Valentine Week Live Activity Dashboard
// Copyright 2026 Dan V. (danvera)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danvera/pulseboard

package dashboard

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/danvera/pulseboard/internal/changefeed"
	"github.com/danvera/pulseboard/internal/config"
	"github.com/danvera/pulseboard/internal/metrics"
	"github.com/danvera/pulseboard/internal/models"
)

// Store is the snapshot side of the change-data-capture boundary: bulk
// fetches over the four observed collections, newest first.
type Store interface {
	FetchSessions(ctx context.Context, limit int) ([]models.Session, error)
	FetchResponses(ctx context.Context, limit int) ([]models.GameResponse, error)
	FetchVisitEvents(ctx context.Context, limit int) ([]models.VisitEvent, error)
	FetchDevices(ctx context.Context, limit int) ([]models.DeviceRecord, error)
}

// Subscriber is the live side of the boundary: a stream of change
// records with a synchronous, leak-free unsubscribe.
type Subscriber interface {
	Subscribe(ctx context.Context) (<-chan *changefeed.Record, error)
	Close() error
}

// Broadcaster pushes engine output to connected dashboard clients. A
// nil-safe no-op implementation is used in tests.
type Broadcaster interface {
	BroadcastDashboard(state *State)
	BroadcastToast(ev *models.ActivityEvent)
	BroadcastToastDismissed(id int64)
}

// State is the read-only snapshot handed to the presentation layer on
// every recompute.
type State struct {
	Stats       *Stats                 `json:"stats"`
	Toasts      []models.ActivityEvent `json:"toasts"`
	ActivityLog []models.ActivityEvent `json:"activity_log"`
	GeneratedAt time.Time              `json:"generated_at"`
}

// Engine is the live dashboard core. It loads the initial snapshot,
// consumes the change feed one record at a time in arrival order, keeps
// the working set and derived stats current, and feeds the bounded
// notification feed. It runs as a supervised service.
type Engine struct {
	cfg        *config.DashboardConfig
	store      Store
	sub        Subscriber
	broadcast  Broadcaster
	normalizer *Normalizer
	classifier models.Classifier
	logger     zerolog.Logger

	mu     sync.RWMutex
	ws     *WorkingSet
	stats  *Stats
	feed   *Feed
	gen    int64
	closed bool
}

// NewEngine wires the engine. broadcast may be nil.
func NewEngine(cfg *config.DashboardConfig, store Store, sub Subscriber, classifier models.Classifier, broadcast Broadcaster, logger zerolog.Logger) *Engine {
	e := &Engine{
		cfg:        cfg,
		store:      store,
		sub:        sub,
		broadcast:  broadcast,
		normalizer: NewNormalizer(classifier, logger),
		classifier: classifier,
		logger:     logger.With().Str("component", "engine").Logger(),
		ws:         NewWorkingSet(),
	}
	e.stats = Aggregate(e.ws, classifier, time.Now())
	e.feed = NewFeed(cfg.ToastCap, cfg.ToastTTL, cfg.ActivityLogCap, e.broadcastState)
	return e
}

// Serve implements suture.Service: load the snapshot, then consume the
// change feed until the context is canceled. A snapshot failure does not
// abort startup; stale-but-present data is preferred over none.
func (e *Engine) Serve(ctx context.Context) error {
	if err := e.Refresh(ctx); err != nil {
		e.logger.Error().Err(err).Msg("initial snapshot incomplete, continuing with partial data")
	}

	ch, err := e.sub.Subscribe(ctx)
	if err != nil {
		return fmt.Errorf("subscribe to change feed: %w", err)
	}
	e.logger.Info().Msg("dashboard engine consuming change feed")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case rec, ok := <-ch:
			if !ok {
				return fmt.Errorf("change feed channel closed")
			}
			e.applyRecord(rec)
		}
	}
}

// applyRecord routes one change record through the normalizer,
// recomputes the derived stats, and feeds any resulting notification.
// Records are processed one at a time in arrival order; there is no
// batching or coalescing.
func (e *Engine) applyRecord(rec *changefeed.Record) {
	metrics.ChangesConsumed.WithLabelValues(rec.Table).Inc()

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	ev, err := e.normalizer.Apply(e.ws, rec)
	if err != nil {
		// Malformed payloads are absorbed, never fatal.
		e.mu.Unlock()
		e.logger.Error().Err(err).Str("table", rec.Table).Str("op", string(rec.Op)).
			Msg("change record dropped")
		return
	}
	e.recomputeLocked()
	e.mu.Unlock()

	if ev != nil {
		e.feed.Add(ev)
		if e.broadcast != nil {
			e.broadcast.BroadcastToast(ev)
		}
	} else {
		e.broadcastState()
	}
}

// Refresh bulk-fetches the four collections concurrently and applies
// each slice atomically as it arrives. A failed sub-fetch keeps the
// previous slice; the other slices still refresh. There is no automatic
// retry, only the manual refresh the admin API exposes.
func (e *Engine) Refresh(ctx context.Context) error {
	e.mu.RLock()
	gen := e.gen
	closed := e.closed
	e.mu.RUnlock()
	if closed {
		return fmt.Errorf("engine closed")
	}

	limit := e.cfg.SnapshotLimit

	var wg sync.WaitGroup
	errs := make([]error, 4)

	fetch := func(idx int, collection string, apply func() error) {
		defer wg.Done()
		if err := apply(); err != nil {
			metrics.SnapshotFetchFailures.WithLabelValues(collection).Inc()
			e.logger.Error().Err(err).Str("collection", collection).
				Msg("snapshot fetch failed, keeping previous data")
			errs[idx] = fmt.Errorf("%s: %w", collection, err)
		}
	}

	wg.Add(4)
	go fetch(0, "sessions", func() error {
		rows, err := e.store.FetchSessions(ctx, limit)
		if err != nil {
			return err
		}
		e.applySlice(gen, func(ws *WorkingSet) { ws.Sessions = rows })
		return nil
	})
	go fetch(1, "responses", func() error {
		rows, err := e.store.FetchResponses(ctx, limit)
		if err != nil {
			return err
		}
		e.applySlice(gen, func(ws *WorkingSet) { ws.Responses = rows })
		return nil
	})
	go fetch(2, "events", func() error {
		rows, err := e.store.FetchVisitEvents(ctx, limit)
		if err != nil {
			return err
		}
		e.applySlice(gen, func(ws *WorkingSet) { ws.Events = rows })
		return nil
	})
	go fetch(3, "devices", func() error {
		rows, err := e.store.FetchDevices(ctx, limit)
		if err != nil {
			return err
		}
		e.applySlice(gen, func(ws *WorkingSet) { ws.Devices = rows })
		return nil
	})
	wg.Wait()

	e.broadcastState()

	for _, err := range errs {
		if err != nil {
			return fmt.Errorf("snapshot partially failed: %w", err)
		}
	}
	return nil
}

// applySlice replaces one working-set slice and recomputes. The
// generation check discards fetches that resolve after teardown.
func (e *Engine) applySlice(gen int64, apply func(*WorkingSet)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed || e.gen != gen {
		return
	}
	apply(e.ws)
	e.recomputeLocked()
}

// recomputeLocked rebuilds the derived stats. Callers hold e.mu.
func (e *Engine) recomputeLocked() {
	e.stats = Aggregate(e.ws, e.classifier, time.Now())
	metrics.SetSubjectOnline(e.stats.OnlineNow)
}

// Snapshot returns the current presentation state.
func (e *Engine) Snapshot() *State {
	e.mu.RLock()
	stats := e.stats
	e.mu.RUnlock()
	return &State{
		Stats:       stats,
		Toasts:      e.feed.Toasts(),
		ActivityLog: e.feed.ActivityLog(),
		GeneratedAt: time.Now().UTC(),
	}
}

// DismissToast removes a toast ahead of its timer. Idempotent.
func (e *Engine) DismissToast(id int64) {
	e.feed.Dismiss(id)
	if e.broadcast != nil {
		e.broadcast.BroadcastToastDismissed(id)
	}
}

// Close tears the engine down synchronously: no state mutation happens
// after it returns. The subscription is closed first so no further
// records arrive, then the generation bump discards any in-flight
// snapshot fetch, then the feed timers stop.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.gen++
	e.mu.Unlock()

	e.feed.Close()
	if e.sub != nil {
		if err := e.sub.Close(); err != nil {
			return fmt.Errorf("close change feed subscription: %w", err)
		}
	}
	return nil
}

// broadcastState pushes the current snapshot to connected clients.
func (e *Engine) broadcastState() {
	if e.broadcast == nil {
		return
	}
	e.mu.RLock()
	closed := e.closed
	e.mu.RUnlock()
	if closed {
		return
	}
	e.broadcast.BroadcastDashboard(e.Snapshot())
}
