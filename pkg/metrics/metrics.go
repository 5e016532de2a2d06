// Package metrics provides Prometheus metrics for the investment data platform.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// IngestionRunsTotal tracks total ingestion runs by status
	IngestionRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "preqin",
			Subsystem: "ingestion",
			Name:      "runs_total",
			Help:      "Total number of ingestion runs by status",
		},
		[]string{"status"},
	)

	// IngestionRunDuration tracks ingestion run duration in seconds
	IngestionRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "preqin",
			Subsystem: "ingestion",
			Name:      "run_duration_seconds",
			Help:      "Duration of ingestion runs in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		},
	)

	// IngestionRowsTotal tracks parsed CSV rows by outcome
	IngestionRowsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "preqin",
			Subsystem: "ingestion",
			Name:      "rows_total",
			Help:      "Total number of CSV rows parsed by outcome",
		},
		[]string{"outcome"},
	)

	// EntitiesResolvedTotal tracks entities resolved by kind and source
	EntitiesResolvedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "preqin",
			Subsystem: "resolver",
			Name:      "entities_resolved_total",
			Help:      "Total number of entities resolved by kind and source",
		},
		[]string{"kind", "source"},
	)

	// HTTPRequestsTotal tracks outbound HTTP requests
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "preqin",
			Subsystem: "http_client",
			Name:      "requests_total",
			Help:      "Total number of outbound HTTP requests",
		},
		[]string{"method", "status_code"},
	)

	// HTTPRequestDuration tracks outbound HTTP request duration
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "preqin",
			Subsystem: "http_client",
			Name:      "request_duration_seconds",
			Help:      "Duration of outbound HTTP requests in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method"},
	)

	// EventsPublishedTotal tracks events published by type and status
	EventsPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "preqin",
			Subsystem: "events",
			Name:      "published_total",
			Help:      "Total number of events published by type and status",
		},
		[]string{"event_type", "status"},
	)

	// EventsConsumedTotal tracks events consumed by type and outcome
	EventsConsumedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "preqin",
			Subsystem: "events",
			Name:      "consumed_total",
			Help:      "Total number of events consumed by type and outcome",
		},
		[]string{"event_type", "outcome"},
	)

	// AggregateUpdatesTotal tracks investor aggregate updates applied
	AggregateUpdatesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "preqin",
			Subsystem: "aggregator",
			Name:      "updates_total",
			Help:      "Total number of investor aggregate updates applied",
		},
	)
)
