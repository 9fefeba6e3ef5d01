// Pulseboard - Valentine Week Live Activity Dashboard
// Copyright 2026 Dan V. (danvera)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danvera/pulseboard

// Package metrics exposes Prometheus instrumentation for the ingest path,
// the change feed, and the dashboard engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// IngestedRecords counts records accepted by the ingest API, by table.
	IngestedRecords = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pulseboard_ingested_records_total",
		Help: "Records accepted by the ingest API, by table and operation.",
	}, []string{"table", "op"})

	// IngestErrors counts failed ingest writes, by table.
	IngestErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pulseboard_ingest_errors_total",
		Help: "Failed ingest writes, by table.",
	}, []string{"table"})

	// ChangePublishes counts change records published to JetStream.
	ChangePublishes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pulseboard_change_publishes_total",
		Help: "Change records published to the change feed.",
	})

	// ChangePublishErrors counts failed change-feed publishes.
	ChangePublishErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pulseboard_change_publish_errors_total",
		Help: "Change records that could not be published.",
	})

	// ChangesConsumed counts change records consumed by the engine, by table.
	ChangesConsumed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pulseboard_changes_consumed_total",
		Help: "Change records consumed by the dashboard engine, by table.",
	}, []string{"table"})

	// NotificationsEmitted counts activity events emitted by the
	// normalizer, by category.
	NotificationsEmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pulseboard_notifications_emitted_total",
		Help: "Activity events emitted by the normalizer, by category.",
	}, []string{"category"})

	// ToastEvictions counts toasts removed from the queue, by reason
	// (expired, dismissed, capacity).
	ToastEvictions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pulseboard_toast_evictions_total",
		Help: "Toasts removed from the toast queue, by reason.",
	}, []string{"reason"})

	// SnapshotFetchFailures counts snapshot sub-fetches that failed, by
	// collection. Failures keep the previous slice.
	SnapshotFetchFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pulseboard_snapshot_fetch_failures_total",
		Help: "Snapshot sub-fetches that failed, by collection.",
	}, []string{"collection"})

	// SubjectOnline reflects the aggregator's online-now derivation.
	SubjectOnline = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pulseboard_subject_online",
		Help: "1 when the subject is currently online, 0 otherwise.",
	})

	// WebsocketClients tracks connected admin dashboard clients.
	WebsocketClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pulseboard_websocket_clients",
		Help: "Connected admin dashboard WebSocket clients.",
	})
)

// RecordIngest records one accepted ingest write.
func RecordIngest(table, op string) {
	IngestedRecords.WithLabelValues(table, op).Inc()
}

// RecordIngestError records one failed ingest write.
func RecordIngestError(table string) {
	IngestErrors.WithLabelValues(table).Inc()
}

// RecordNotification records one emitted activity event.
func RecordNotification(category string) {
	NotificationsEmitted.WithLabelValues(category).Inc()
}

// RecordToastEviction records one toast removal.
func RecordToastEviction(reason string) {
	ToastEvictions.WithLabelValues(reason).Inc()
}

// SetSubjectOnline updates the online gauge.
func SetSubjectOnline(online bool) {
	if online {
		SubjectOnline.Set(1)
	} else {
		SubjectOnline.Set(0)
	}
}
