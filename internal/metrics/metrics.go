package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reservoireye_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "reservoireye_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "route"},
	)

	// Ingest metrics
	MeasurementsIngestedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reservoireye_measurements_ingested_total",
			Help: "Total number of measurements persisted",
		},
	)

	// Alert pipeline metrics
	AlertRulesEvaluatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reservoireye_alert_rules_evaluated_total",
			Help: "Total number of active rules evaluated against a measurement",
		},
	)

	AlertRulesTriggeredTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reservoireye_alert_rules_triggered_total",
			Help: "Total number of rule evaluations that fired",
		},
	)

	AlertDispatchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reservoireye_alert_dispatch_total",
			Help: "Notification delivery attempts by outcome",
		},
		[]string{"channel", "status"}, // status: sent, failed
	)

	AlertDispatchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "reservoireye_alert_dispatch_duration_seconds",
			Help:    "Time spent in a single notification delivery attempt",
			Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"channel"},
	)

	AlertEventWriteFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reservoireye_alert_event_write_failures_total",
			Help: "Alert events that could not be stored after a delivery attempt",
		},
	)

	// Device metrics
	DevicesMarkedOffline = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reservoireye_devices_marked_offline_total",
			Help: "Devices switched to offline after missing their reporting window",
		},
	)

	// Panic recovery
	PanicsRecovered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reservoireye_panics_recovered_total",
			Help: "Total number of panics recovered",
		},
		[]string{"component"},
	)
)
