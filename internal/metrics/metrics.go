// Watchpoints - Watch-Time XP and Entitlement Ledger
// Copyright 2026 Watchpoints Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/watchpoints/watchpoints

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus instrumentation for:
// - Ledger operations (Badger)
// - Watch history queries (DuckDB)
// - API endpoint latency and throughput
// - Playback session lifecycle
// - Event publishing and WebSocket fan-out

var (
	// Ledger Metrics
	LedgerOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ledger_operation_duration_seconds",
			Help:    "Duration of ledger operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"}, // "credit", "debit", "get"
	)

	LedgerOperationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_operation_errors_total",
			Help: "Total number of failed ledger operations",
		},
		[]string{"operation", "error_type"},
	)

	XPCreditedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "xp_credited_total",
			Help: "Total XP credited across all users",
		},
	)

	XPDebitedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "xp_debited_total",
			Help: "Total XP debited across all users",
		},
	)

	LevelUpsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "level_ups_total",
			Help: "Total number of level-up events",
		},
	)

	// Watch History Metrics (DuckDB)
	HistoryQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	HistoryQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duckdb_query_errors_total",
			Help: "Total number of DuckDB query errors",
		},
		[]string{"operation", "error_type"},
	)

	// Playback Session Metrics
	SessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "playback_sessions_active",
			Help: "Current number of active playback sessions",
		},
	)

	SessionsStarted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "playback_sessions_started_total",
			Help: "Total number of playback sessions started",
		},
	)

	SessionsReaped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "playback_sessions_reaped_total",
			Help: "Total number of idle playback sessions reaped",
		},
	)

	SkipsDetected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "playback_skips_detected_total",
			Help: "Total number of skips detected across playback sessions",
		},
	)

	WatchSecondsAccrued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "watch_seconds_accrued_total",
			Help: "Total continuous watch seconds accrued across sessions",
		},
	)

	// Entitlement Metrics
	PremiumPurchases = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "premium_purchases_total",
			Help: "Total number of premium purchases by plan",
		},
		[]string{"plan"},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	// Event Bus Metrics
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_published_total",
			Help: "Total number of events published to the bus",
		},
		[]string{"topic"},
	)

	EventPublishFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "event_publish_failures_total",
			Help: "Total number of failed event publishes",
		},
	)

	EventBreakerOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "event_breaker_open",
			Help: "Whether the event publisher circuit breaker is open (1) or closed (0)",
		},
	)

	// WebSocket Metrics
	WSConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connections_active",
			Help: "Current number of active WebSocket connections",
		},
	)

	WSMessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_messages_sent_total",
			Help: "Total number of messages broadcast to WebSocket clients",
		},
	)
)

// RecordLedgerOperation records a ledger operation metric
func RecordLedgerOperation(operation string, duration time.Duration, err error) {
	LedgerOperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil {
		errorType := err.Error()
		if len(errorType) > 50 {
			errorType = errorType[:50]
		}
		LedgerOperationErrors.WithLabelValues(operation, errorType).Inc()
	}
}

// RecordHistoryQuery records a DuckDB query metric
func RecordHistoryQuery(operation string, duration time.Duration, err error) {
	HistoryQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil {
		errorType := err.Error()
		if len(errorType) > 50 {
			errorType = errorType[:50]
		}
		HistoryQueryErrors.WithLabelValues(operation, errorType).Inc()
	}
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordCredit records a successful XP credit
func RecordCredit(amount int, leveledUp bool) {
	XPCreditedTotal.Add(float64(amount))
	if leveledUp {
		LevelUpsTotal.Inc()
	}
}

// RecordEventPublish records an event publish attempt
func RecordEventPublish(topic string, err error) {
	if err != nil {
		EventPublishFailures.Inc()
		return
	}
	EventsPublished.WithLabelValues(topic).Inc()
}
