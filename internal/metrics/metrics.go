// Gridwatch - Spreadsheet Audit Telemetry and Analytics
// Copyright 2026 Gridwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gridwatch/gridwatch

// Package metrics provides Prometheus instrumentation for Gridwatch.
// All metrics are registered with the default registry and exposed on /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// apiRequestsTotal counts HTTP requests by method, path, and status.
	apiRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gridwatch_api_requests_total",
		Help: "Total number of API requests",
	}, []string{"method", "path", "status"})

	// apiRequestDuration tracks HTTP request latency.
	apiRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gridwatch_api_request_duration_seconds",
		Help:    "API request duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	// apiActiveRequests tracks in-flight HTTP requests.
	apiActiveRequests = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "gridwatch_api_active_requests",
		Help: "Number of in-flight API requests",
	})

	// ingestBatchesTotal counts ingested batches by outcome (accepted, rejected).
	ingestBatchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gridwatch_ingest_batches_total",
		Help: "Total number of event batches by outcome",
	}, []string{"outcome"})

	// ingestEventsTotal counts individual events by outcome (accepted, rejected, duplicate).
	ingestEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gridwatch_ingest_events_total",
		Help: "Total number of audit events by outcome",
	}, []string{"outcome"})

	// ingestDuration tracks batch ingestion latency.
	ingestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "gridwatch_ingest_duration_seconds",
		Help:    "Batch ingestion duration in seconds",
		Buckets: prometheus.DefBuckets,
	})

	// queryDuration tracks event query latency by query kind.
	queryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gridwatch_query_duration_seconds",
		Help:    "Event store query duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"query"})

	// retentionDeletedTotal counts events removed by the cleanup job.
	retentionDeletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gridwatch_retention_deleted_events_total",
		Help: "Total number of events deleted by retention cleanup",
	})

	// sessionsReapedTotal counts sessions closed by the stale session reaper.
	sessionsReapedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gridwatch_sessions_reaped_total",
		Help: "Total number of stale sessions closed by the reaper",
	})

	// websocketClients tracks connected live feed clients.
	websocketClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "gridwatch_websocket_clients",
		Help: "Number of connected live feed clients",
	})
)

// RecordAPIRequest records a completed HTTP request.
func RecordAPIRequest(method, path, status string, duration time.Duration) {
	apiRequestsTotal.WithLabelValues(method, path, status).Inc()
	apiRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// TrackActiveRequest adjusts the in-flight request gauge.
func TrackActiveRequest(start bool) {
	if start {
		apiActiveRequests.Inc()
	} else {
		apiActiveRequests.Dec()
	}
}

// RecordBatchAccepted records a successfully ingested batch.
func RecordBatchAccepted(events int, duration time.Duration) {
	ingestBatchesTotal.WithLabelValues("accepted").Inc()
	ingestEventsTotal.WithLabelValues("accepted").Add(float64(events))
	ingestDuration.Observe(duration.Seconds())
}

// RecordBatchRejected records a rejected batch.
func RecordBatchRejected(events int) {
	ingestBatchesTotal.WithLabelValues("rejected").Inc()
	ingestEventsTotal.WithLabelValues("rejected").Add(float64(events))
}

// RecordDuplicateEvents records events skipped as duplicates within a batch.
func RecordDuplicateEvents(count int) {
	if count > 0 {
		ingestEventsTotal.WithLabelValues("duplicate").Add(float64(count))
	}
}

// RecordQuery records an event store query duration.
func RecordQuery(query string, duration time.Duration) {
	queryDuration.WithLabelValues(query).Observe(duration.Seconds())
}

// RecordRetentionDeleted records events removed by cleanup.
func RecordRetentionDeleted(count int) {
	retentionDeletedTotal.Add(float64(count))
}

// RecordSessionsReaped records stale sessions closed by the reaper.
func RecordSessionsReaped(count int) {
	sessionsReapedTotal.Add(float64(count))
}

// TrackWebSocketClient adjusts the connected client gauge.
func TrackWebSocketClient(connected bool) {
	if connected {
		websocketClients.Inc()
	} else {
		websocketClients.Dec()
	}
}
